package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/refgen/internal/config"
	ferrors "git.home.luguber.info/inful/refgen/internal/foundation/errors"
	"git.home.luguber.info/inful/refgen/internal/generator"
	"git.home.luguber.info/inful/refgen/internal/git"
	"git.home.luguber.info/inful/refgen/internal/logfields"
	"git.home.luguber.info/inful/refgen/internal/metrics"
	"git.home.luguber.info/inful/refgen/internal/pydoc"
)

// CategoryFile is the descriptor written into every output directory.
const CategoryFile = "_category_.json"

// Fetcher produces a checkout of repo at ref. *git.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, repo config.Repository, ref string) (*git.Checkout, error)
}

// ExtractorFactory builds the extraction pipeline for one repository checkout.
type ExtractorFactory func(repo config.Repository, checkout *git.Checkout) generator.Extractor

// PythonExtractor is the default ExtractorFactory. Source links point at the
// fetched tag.
func PythonExtractor(repo config.Repository, checkout *git.Checkout) generator.Extractor {
	opts := pydoc.DefaultOptions()
	opts.Render.SourceLinker = pydoc.TemplateLinker{
		Template: repo.SourceLink,
		RepoURL:  repo.URL,
		Ref:      checkout.Ref,
	}
	return pydoc.NewPipeline(opts)
}

// Orchestrator runs the configured repositories one after another.
type Orchestrator struct {
	fetcher      Fetcher
	newExtractor ExtractorFactory
	recorder     metrics.Recorder
	keepGoing    bool
	only         []string
	newRunID     func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithExtractorFactory replaces the Python pipeline.
func WithExtractorFactory(f ExtractorFactory) Option {
	return func(o *Orchestrator) { o.newExtractor = f }
}

// WithRecorder reports fetch, module and run metrics to r.
func WithRecorder(r metrics.Recorder) Option { return func(o *Orchestrator) { o.recorder = r } }

// WithKeepGoing continues with the next repository after a fetch failure.
// The run still fails at the end.
func WithKeepGoing(keepGoing bool) Option { return func(o *Orchestrator) { o.keepGoing = keepGoing } }

// WithRepositories restricts the run to the named repositories.
func WithRepositories(names ...string) Option {
	return func(o *Orchestrator) { o.only = append(o.only, names...) }
}

// New creates an Orchestrator that fetches through fetcher.
func New(fetcher Fetcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:      fetcher,
		newExtractor: PythonExtractor,
		recorder:     metrics.NoopRecorder{},
		newRunID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Selected returns the repositories of cfg the run will process, in
// configuration order. Unknown names in the filter are an error.
func (o *Orchestrator) Selected(cfg *config.Config) ([]config.Repository, error) {
	if len(o.only) == 0 {
		return cfg.Repositories, nil
	}
	var out []config.Repository
	for _, repo := range cfg.Repositories {
		if slices.Contains(o.only, repo.Name) {
			out = append(out, repo)
		}
	}
	for _, name := range o.only {
		if !slices.ContainsFunc(out, func(r config.Repository) bool { return r.Name == name }) {
			return nil, ferrors.ValidationError("unknown repository").WithContext("repository", name).Build()
		}
	}
	return out, nil
}

// Run generates documentation for every selected repository.
//
// Module failures are recorded in the report and never fail the run. A fetch
// failure is fatal and stops the run unless keep-going is set. Other
// repository failures, and fetch failures under keep-going, let the remaining
// repositories run and are returned joined at the end.
func (o *Orchestrator) Run(ctx context.Context, cfg *config.Config) (*Report, error) {
	report := newReport(o.newRunID())
	log := slog.With(logfields.RunID(report.RunID))
	defer func() {
		report.finish()
		o.recorder.ObserveRunDuration(report.End.Sub(report.Start))
	}()

	repos, err := o.Selected(cfg)
	if err != nil {
		return report, err
	}
	log.Info("Starting documentation run", logfields.Count(len(repos)))

	var repoErrs []error
	for _, repo := range repos {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		rr, err := o.runRepository(ctx, log, repo)
		report.Repositories = append(report.Repositories, rr)
		if err == nil {
			continue
		}
		if ferrors.GetSeverity(err) == ferrors.SeverityFatal && !o.keepGoing {
			return report, err
		}
		log.Warn("Continuing after repository failure", logfields.Repository(repo.Name), logfields.Error(err))
		repoErrs = append(repoErrs, err)
	}

	log.Info("Documentation run finished", logfields.Count(report.PageCount()))
	return report, errors.Join(repoErrs...)
}

func (o *Orchestrator) runRepository(ctx context.Context, log *slog.Logger, repo config.Repository) (RepositoryReport, error) {
	ref := repo.Tag()
	rr := RepositoryReport{Name: repo.Name, Tag: ref, OutputDir: repo.OutputDir}
	log = log.With(logfields.Repository(repo.Name))

	start := time.Now()
	checkout, err := o.fetcher.Fetch(ctx, repo, ref)
	o.recorder.ObserveFetchDuration(repo.Name, time.Since(start), err == nil)
	if err != nil {
		wrapped := ferrors.GitError("failed to fetch repository").
			WithCategory(fetchCategory(err)).
			WithCause(err).
			WithContext("repository", repo.Name).
			WithContext("ref", ref).
			Build()
		rr.Error = wrapped.Error()
		log.Error("Failed to fetch repository", logfields.Ref(ref), logfields.Error(err))
		return rr, wrapped
	}
	rr.Commit = checkout.Commit
	log.Info("Fetched repository", logfields.Ref(ref), logfields.Commit(checkout.Commit), logfields.Path(checkout.Path))

	if err := os.MkdirAll(repo.OutputDir, 0o755); err != nil {
		wrapped := ferrors.FileSystemError("create output directory").
			WithCause(err).
			WithContext("repository", repo.Name).
			WithContext("path", repo.OutputDir).
			Build()
		rr.Error = wrapped.Error()
		return rr, wrapped
	}

	gen := generator.New(o.newExtractor(repo, checkout), repo, checkout.Path, generator.WithRecorder(o.recorder))
	for _, page := range gen.GenerateAll(ctx) {
		rr.Pages = append(rr.Pages, pageReport(page))
	}

	if err := writeCategory(repo); err != nil {
		rr.Error = err.Error()
		log.Error("Failed to write category descriptor", logfields.Error(err))
		return rr, nil
	}
	log.Info("Wrote category descriptor", logfields.Path(filepath.Join(repo.OutputDir, CategoryFile)))
	return rr, nil
}

// fetchCategory picks the error category, and so the exit code, for a
// failed fetch.
func fetchCategory(err error) ferrors.ErrorCategory {
	var fe *git.FetchError
	if !errors.As(err, &fe) {
		return ferrors.CategoryGit
	}
	switch fe.Kind {
	case git.FailureAuth:
		return ferrors.CategoryAuth
	case git.FailureNetwork:
		return ferrors.CategoryNetwork
	case git.FailureFileSystem:
		return ferrors.CategoryFileSystem
	default:
		return ferrors.CategoryGit
	}
}

// writeCategory stores the repository's category payload as indented JSON.
func writeCategory(repo config.Repository) error {
	data, err := repo.Category.IndentedJSON()
	if err != nil {
		return ferrors.InternalError("encode category descriptor").WithCause(err).WithContext("repository", repo.Name).Build()
	}
	path := filepath.Join(repo.OutputDir, CategoryFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ferrors.FileSystemError("write category descriptor").
			WithCause(err).
			WithContext("repository", repo.Name).
			WithContext("path", path).
			Build()
	}
	return nil
}

func pageReport(p generator.Page) PageReport {
	pr := PageReport{
		Module:        p.Module,
		QualifiedName: p.QualifiedName,
		Path:          p.Path,
		Status:        string(p.Status),
		Changed:       p.Changed,
		Fingerprint:   p.Fingerprint,
	}
	if p.Err != nil {
		pr.Error = p.Err.Error()
	}
	for _, se := range p.SubModuleErrors {
		pr.SubModuleErrors = append(pr.SubModuleErrors, fmt.Sprintf("%s: %v", se.SubModule, se.Err))
	}
	return pr
}
