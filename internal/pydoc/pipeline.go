package pydoc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/refgen/internal/logfields"
)

// ErrNoSymbols is returned when loading yields nothing to document.
var ErrNoSymbols = errors.New("no symbols found")

// Processor transforms loaded modules. A nil slice with a nil error means
// the stage made no change.
type Processor interface {
	Process(modules []*Module) ([]*Module, error)
}

// Renderer turns processed modules into a Markdown body.
type Renderer interface {
	Render(modules []*Module) (string, error)
}

// StageError records which pipeline stage failed.
type StageError struct {
	Stage  string
	Module string
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Module, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Pipeline runs load, the processors in order, then render.
type Pipeline struct {
	Loader     Loader
	Processors []NamedProcessor
	Renderer   Renderer
}

// NamedProcessor labels a Processor for logs and errors.
type NamedProcessor struct {
	Name string
	Processor
}

// Options configures NewPipeline.
type Options struct {
	Filter   FilterProcessor
	Render   RenderOptions
	Crossref bool
}

// DefaultOptions returns the stage configuration used for reference pages.
func DefaultOptions() Options {
	return Options{
		Filter:   DefaultFilter(),
		Render:   DefaultRenderOptions(),
		Crossref: true,
	}
}

// NewPipeline builds the standard load, filter, smart, crossref and render
// chain around the Python loader.
func NewPipeline(opts Options) *Pipeline {
	filter := opts.Filter
	procs := []NamedProcessor{
		{Name: "filter", Processor: &filter},
		{Name: "smart", Processor: &SmartProcessor{}},
	}
	if opts.Crossref {
		procs = append(procs, NamedProcessor{Name: "crossref", Processor: &CrossrefProcessor{}})
	}
	return &Pipeline{
		Loader:     NewPythonLoader(),
		Processors: procs,
		Renderer:   NewMarkdownRenderer(opts.Render),
	}
}

// Run documents one fully qualified module found on searchPath.
func (p *Pipeline) Run(ctx context.Context, searchPath []string, module string) (string, error) {
	modules, err := p.Loader.Load(ctx, LoadRequest{SearchPath: searchPath, Modules: []string{module}})
	if err != nil {
		return "", &StageError{Stage: "load", Module: module, Err: err}
	}
	slog.Info("Loaded modules", logfields.QualifiedName(module), logfields.Count(len(modules)))
	if len(modules) == 0 || CountSymbols(modules) == 0 && allUndocumented(modules) {
		return "", &StageError{Stage: "load", Module: module, Err: ErrNoSymbols}
	}

	for _, proc := range p.Processors {
		out, err := proc.Process(modules)
		if err != nil {
			return "", &StageError{Stage: proc.Name, Module: module, Err: err}
		}
		if out != nil {
			modules = out
		}
	}

	body, err := p.Renderer.Render(modules)
	if err != nil {
		return "", &StageError{Stage: "render", Module: module, Err: err}
	}
	return body, nil
}

func allUndocumented(modules []*Module) bool {
	for _, m := range modules {
		if m.Docstring != "" {
			return false
		}
	}
	return true
}
