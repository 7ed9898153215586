package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "refgen"

// PrometheusRecorder implements Recorder using Prometheus collectors.
type PrometheusRecorder struct {
	fetchDuration     *prom.HistogramVec
	fetchResults      *prom.CounterVec
	moduleDuration    *prom.HistogramVec
	moduleOutcomes    *prom.CounterVec
	subModuleFailures *prom.CounterVec
	runDuration       prom.Gauge
	lastRun           prom.Gauge
}

// NewPrometheusRecorder creates the collectors and registers them on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		fetchDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of repository clones",
			Buckets:   prom.DefBuckets,
		}, []string{"repo", "result"}),
		fetchResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_results_total",
			Help:      "Repository clones by result",
		}, []string{"repo", "result"}),
		moduleDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "module_duration_seconds",
			Help:      "Time spent generating one reference page",
			Buckets:   prom.DefBuckets,
		}, []string{"repo"}),
		moduleOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "module_outcomes_total",
			Help:      "Reference pages by outcome",
		}, []string{"repo", "outcome"}),
		subModuleFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "submodule_failures_total",
			Help:      "Sub-module sections omitted because extraction failed",
		}, []string{"repo"}),
		runDuration: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last run",
		}),
		lastRun: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
	}
	reg.MustRegister(pr.fetchDuration, pr.fetchResults, pr.moduleDuration, pr.moduleOutcomes, pr.subModuleFailures, pr.runDuration, pr.lastRun)
	return pr
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

func (p *PrometheusRecorder) ObserveFetchDuration(repo string, d time.Duration, success bool) {
	if p == nil {
		return
	}
	p.fetchDuration.WithLabelValues(repo, result(success)).Observe(d.Seconds())
	p.fetchResults.WithLabelValues(repo, result(success)).Inc()
}

func (p *PrometheusRecorder) ObserveModuleDuration(repo string, d time.Duration) {
	if p == nil {
		return
	}
	p.moduleDuration.WithLabelValues(repo).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncModuleOutcome(repo string, outcome ModuleOutcome) {
	if p == nil {
		return
	}
	p.moduleOutcomes.WithLabelValues(repo, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncSubModuleFailure(repo string) {
	if p == nil {
		return
	}
	p.subModuleFailures.WithLabelValues(repo).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Set(d.Seconds())
	p.lastRun.SetToCurrentTime()
}
