package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Report summarizes one run. It is written with --report.
type Report struct {
	SchemaVersion int                `json:"schema_version"`
	RunID         string             `json:"run_id"`
	Start         time.Time          `json:"start"`
	End           time.Time          `json:"end"`
	Repositories  []RepositoryReport `json:"repositories"`
}

// RepositoryReport is the outcome for one repository.
type RepositoryReport struct {
	Name      string       `json:"name"`
	Tag       string       `json:"tag"`
	Commit    string       `json:"commit,omitempty"`
	OutputDir string       `json:"output_dir"`
	Pages     []PageReport `json:"pages"`
	Error     string       `json:"error,omitempty"`
}

// PageReport is the outcome for one module page.
type PageReport struct {
	Module          string   `json:"module"`
	QualifiedName   string   `json:"qualified_name"`
	Path            string   `json:"path"`
	Status          string   `json:"status"`
	Changed         bool     `json:"changed"`
	Fingerprint     string   `json:"fingerprint,omitempty"`
	Error           string   `json:"error,omitempty"`
	SubModuleErrors []string `json:"submodule_errors,omitempty"`
}

func newReport(runID string) *Report {
	return &Report{SchemaVersion: 1, RunID: runID, Start: time.Now()}
}

func (r *Report) finish() { r.End = time.Now() }

// PageCount returns the number of pages attempted across repositories.
func (r *Report) PageCount() int {
	n := 0
	for _, repo := range r.Repositories {
		n += len(repo.Pages)
	}
	return n
}

// Counts tallies pages by status.
func (r *Report) Counts() map[string]int {
	counts := map[string]int{}
	for _, repo := range r.Repositories {
		for _, p := range repo.Pages {
			counts[p.Status]++
		}
	}
	return counts
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	c := r.Counts()
	failedRepos := 0
	for _, repo := range r.Repositories {
		if repo.Error != "" {
			failedRepos++
		}
	}
	return fmt.Sprintf("run=%s repos=%d failed_repos=%d generated=%d empty=%d failed=%d duration=%s",
		r.RunID, len(r.Repositories), failedRepos, c["generated"], c["empty"], c["failed"],
		r.End.Sub(r.Start).Truncate(time.Millisecond))
}

// Persist writes the report as indented JSON to path, replacing it atomically.
func (r *Report) Persist(path string) error {
	if r.End.IsZero() {
		r.finish()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("ensure report directory: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename report json: %w", err)
	}
	return nil
}
