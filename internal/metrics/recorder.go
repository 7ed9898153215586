package metrics

import "time"

// ModuleOutcome enumerates per-page results.
type ModuleOutcome string

const (
	OutcomeGenerated ModuleOutcome = "generated"
	OutcomeEmpty     ModuleOutcome = "empty"
	OutcomeFailed    ModuleOutcome = "failed"
)

// Recorder receives observations from the fetcher, generator and
// orchestrator. Implementations must tolerate being called with zero values.
type Recorder interface {
	ObserveFetchDuration(repo string, d time.Duration, success bool)
	ObserveModuleDuration(repo string, d time.Duration)
	IncModuleOutcome(repo string, outcome ModuleOutcome)
	IncSubModuleFailure(repo string)
	ObserveRunDuration(d time.Duration)
}

// NoopRecorder discards all observations.
type NoopRecorder struct{}

func (NoopRecorder) ObserveFetchDuration(string, time.Duration, bool) {}
func (NoopRecorder) ObserveModuleDuration(string, time.Duration)      {}
func (NoopRecorder) IncModuleOutcome(string, ModuleOutcome)           {}
func (NoopRecorder) IncSubModuleFailure(string)                       {}
func (NoopRecorder) ObserveRunDuration(time.Duration)                 {}
