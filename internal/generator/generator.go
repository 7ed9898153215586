package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"git.home.luguber.info/inful/refgen/internal/config"
	ferrors "git.home.luguber.info/inful/refgen/internal/foundation/errors"
	"git.home.luguber.info/inful/refgen/internal/frontmatter"
	"git.home.luguber.info/inful/refgen/internal/logfields"
	"git.home.luguber.info/inful/refgen/internal/metrics"
	"git.home.luguber.info/inful/refgen/internal/pydoc"
)

// Extractor renders the API reference body of one fully qualified module.
// *pydoc.Pipeline implements it.
type Extractor interface {
	Run(ctx context.Context, searchPath []string, module string) (string, error)
}

// Status is the outcome of generating one page.
type Status string

const (
	StatusGenerated Status = "generated"
	StatusEmpty     Status = "empty"
	StatusFailed    Status = "failed"
)

// Page describes the result for one configured module.
type Page struct {
	Module        string
	QualifiedName string
	// Path is the output file, set even when nothing was written.
	Path        string
	Status      Status
	Changed     bool
	Fingerprint string
	// SubModuleErrors lists omitted sub-module sections.
	SubModuleErrors []*SubModuleError
	Err             error
}

// Generator writes reference pages for the modules of one repository.
type Generator struct {
	extractor  Extractor
	repo       config.Repository
	searchPath []string
	outputDir  string
	recorder   metrics.Recorder
}

// Option configures a Generator.
type Option func(*Generator)

// WithRecorder reports module outcomes to r.
func WithRecorder(r metrics.Recorder) Option { return func(g *Generator) { g.recorder = r } }

// New creates a Generator for repo whose sources are checked out at
// checkoutDir. The checkout root is the only search path entry.
func New(extractor Extractor, repo config.Repository, checkoutDir string, opts ...Option) *Generator {
	g := &Generator{
		extractor:  extractor,
		repo:       repo,
		searchPath: []string{checkoutDir},
		outputDir:  repo.OutputDir,
		recorder:   metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ImportStatement returns the sample import shown at the top of a page.
func ImportStatement(pkg string, m config.Module) string {
	if m.IsRoot() {
		return "import " + pkg
	}
	return "from " + m.QualifiedName(pkg) + " import *"
}

// SubModuleName returns the fully qualified name of sub below m.
func SubModuleName(pkg string, m config.Module, sub string) string {
	return m.QualifiedName(pkg) + "." + sub
}

// GenerateAll generates every configured module in order.
func (g *Generator) GenerateAll(ctx context.Context) []Page {
	pages := make([]Page, 0, len(g.repo.Modules))
	for _, m := range g.repo.Modules {
		if ctx.Err() != nil {
			break
		}
		pages = append(pages, g.Generate(ctx, m))
	}
	return pages
}

// Generate writes the page for m. Errors are logged and returned on the Page.
func (g *Generator) Generate(ctx context.Context, m config.Module) Page {
	start := time.Now()
	fqn := m.QualifiedName(g.repo.PackageName)
	page := Page{
		Module:        m.DisplayName(),
		QualifiedName: fqn,
		Path:          filepath.Join(g.outputDir, filepath.FromSlash(m.GeneratedFilePath)),
	}
	log := slog.With(logfields.Repository(g.repo.Name), logfields.Module(page.Module), logfields.QualifiedName(fqn))
	log.Info("Generating documentation")

	err := g.safeGenerate(ctx, m, &page, log)
	g.recorder.ObserveModuleDuration(g.repo.Name, time.Since(start))

	var empty *EmptyModuleError
	switch {
	case err == nil:
		page.Status = StatusGenerated
		log.Info("Generated documentation", logfields.Path(page.Path), slog.Bool("changed", page.Changed))
		g.recorder.IncModuleOutcome(g.repo.Name, metrics.OutcomeGenerated)
		return page
	case errors.As(err, &empty):
		page.Status = StatusEmpty
		g.recorder.IncModuleOutcome(g.repo.Name, metrics.OutcomeEmpty)
	default:
		page.Status = StatusFailed
		g.recorder.IncModuleOutcome(g.repo.Name, metrics.OutcomeFailed)
	}

	page.Err = classify(err, g.repo.Name, page.Module)
	attrs := []any{logfields.Error(err)}
	if page.Status == StatusFailed {
		attrs = append(attrs, logfields.Stack(stackOf(err)))
	}
	log.Error("Error generating documentation", attrs...)
	return page
}

func (g *Generator) safeGenerate(ctx context.Context, m config.Module, page *Page, log *slog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ModuleError{Module: page.Module, Stage: "panic", Err: fmt.Errorf("%v", r), Stack: debug.Stack()}
		}
	}()
	return g.generate(ctx, m, page, log)
}

func (g *Generator) generate(ctx context.Context, m config.Module, page *Page, log *slog.Logger) error {
	fqn := page.QualifiedName
	main, err := g.extract(ctx, fqn)
	if err != nil {
		if errors.Is(err, pydoc.ErrNoSymbols) {
			return &EmptyModuleError{Module: page.Module, QualifiedName: fqn}
		}
		return moduleError(page.Module, "extract", err)
	}

	var subs strings.Builder
	for _, sub := range m.SubModules {
		subFQN := SubModuleName(g.repo.PackageName, m, sub)
		body, err := g.extract(ctx, subFQN)
		if err != nil {
			cause := ferrors.WrapError(err, ferrors.CategoryExtract, "sub-module section omitted").
				Warning().
				WithContext("module", page.Module).
				WithContext("submodule", sub).
				Build()
			subErr := &SubModuleError{Parent: page.Module, SubModule: sub, QualifiedName: subFQN, Err: cause}
			page.SubModuleErrors = append(page.SubModuleErrors, subErr)
			g.recorder.IncSubModuleFailure(g.repo.Name)
			log.Warn("Failed to generate sub-module documentation; section omitted", logfields.SubModule(sub), logfields.Error(err))
			continue
		}
		subs.WriteString(SubModuleSection(sub, subFQN, body))
	}

	doc, err := Compose(m, ImportStatement(g.repo.PackageName, m), main, subs.String())
	if err != nil {
		return moduleError(page.Module, "compose", err)
	}

	previous, _ := os.ReadFile(page.Path)
	if err := os.MkdirAll(filepath.Dir(page.Path), 0o755); err != nil {
		return moduleError(page.Module, "write", err)
	}
	if err := os.WriteFile(page.Path, doc, 0o644); err != nil {
		return moduleError(page.Module, "write", err)
	}
	page.Changed = !bytes.Equal(previous, doc)

	if page.Fingerprint, err = frontmatter.Fingerprint(doc); err != nil {
		log.Warn("Failed to fingerprint page", logfields.Path(page.Path), logfields.Error(err))
	}
	return nil
}

// extract runs the extractor, turning a panic into a ModuleError.
func (g *Generator) extract(ctx context.Context, fqn string) (body string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ModuleError{Module: fqn, Stage: "panic", Err: fmt.Errorf("%v", r), Stack: debug.Stack()}
		}
	}()
	return g.extractor.Run(ctx, g.searchPath, fqn)
}

func moduleError(module, stage string, err error) error {
	var modErr *ModuleError
	if errors.As(err, &modErr) {
		return err
	}
	return &ModuleError{Module: module, Stage: stage, Err: err, Stack: debug.Stack()}
}

// stackOf returns the trace captured with err, or the current one.
func stackOf(err error) []byte {
	var modErr *ModuleError
	if errors.As(err, &modErr) && len(modErr.Stack) > 0 {
		return modErr.Stack
	}
	return debug.Stack()
}

// SubModuleSection formats an appended sub-module section.
func SubModuleSection(sub, fqn, body string) string {
	return "\n\n## " + sub + "\n\n```python\nfrom " + fqn + " import *\n```\n\n" + body
}

// Compose assembles the final page: header, title, import sample, the
// rendered body and any sub-module sections.
func Compose(m config.Module, importStatement, main, subs string) ([]byte, error) {
	body := "\n# " + m.Title + "\n\n```python\n" + importStatement + "\n```\n\n" + main + subs + "\n"
	return frontmatter.Compose(m.Title, m.SidebarPosition, []byte(body))
}

// classify wraps a page failure in a ClassifiedError for the CLI layer.
func classify(err error, repo, module string) error {
	b := ferrors.ExtractError("failed to generate reference page")
	var modErr *ModuleError
	if errors.As(err, &modErr) {
		switch modErr.Stage {
		case "write":
			b = b.WithCategory(ferrors.CategoryFileSystem)
		case "compose":
			b = b.WithCategory(ferrors.CategoryRender)
		}
	}
	return b.WithCause(err).WithContext("repository", repo).WithContext("module", module).Build()
}
