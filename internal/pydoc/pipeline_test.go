package pydoc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	modules []*Module
	err     error
	got     LoadRequest
}

func (f *fakeLoader) Load(_ context.Context, req LoadRequest) ([]*Module, error) {
	f.got = req
	return f.modules, f.err
}

type recordingProcessor struct {
	name  string
	calls *[]string
	out   []*Module
	err   error
}

func (p *recordingProcessor) Process([]*Module) ([]*Module, error) {
	*p.calls = append(*p.calls, p.name)
	return p.out, p.err
}

type countingRenderer struct{ seen []*Module }

func (r *countingRenderer) Render(modules []*Module) (string, error) {
	r.seen = modules
	var names []string
	for _, m := range modules {
		names = append(names, m.Name)
	}
	return strings.Join(names, ","), nil
}

func TestPipeline_RunsStagesInOrder(t *testing.T) {
	var calls []string
	replacement := []*Module{newModule("pkg.replaced", fn("g", ""))}
	loader := &fakeLoader{modules: []*Module{newModule("pkg", fn("f", ""))}}
	renderer := &countingRenderer{}
	p := &Pipeline{
		Loader: loader,
		Processors: []NamedProcessor{
			{Name: "filter", Processor: &recordingProcessor{name: "filter", calls: &calls}},
			{Name: "smart", Processor: &recordingProcessor{name: "smart", calls: &calls, out: replacement}},
			{Name: "crossref", Processor: &recordingProcessor{name: "crossref", calls: &calls}},
		},
		Renderer: renderer,
	}

	body, err := p.Run(context.Background(), []string{"/repo"}, "pkg")
	require.NoError(t, err)

	assert.Equal(t, []string{"filter", "smart", "crossref"}, calls)
	assert.Equal(t, LoadRequest{SearchPath: []string{"/repo"}, Modules: []string{"pkg"}}, loader.got)
	assert.Equal(t, "pkg.replaced", body, "nil processor results keep the previous modules")
}

func TestPipeline_NoSymbols(t *testing.T) {
	tests := []struct {
		name    string
		modules []*Module
	}{
		{"no modules", nil},
		{"empty module", []*Module{newModule("pkg")}},
		{"imports only", []*Module{newModule("pkg",
			&Indirection{Base: Base{Name: "Any"}, Target: "typing.Any"},
			&Indirection{Base: Base{Name: "Thing"}, Target: "pkg.impl.Thing"},
		)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Pipeline{Loader: &fakeLoader{modules: tt.modules}, Renderer: &countingRenderer{}}
			_, err := p.Run(context.Background(), nil, "pkg")

			require.ErrorIs(t, err, ErrNoSymbols)
			var stageErr *StageError
			require.True(t, errors.As(err, &stageErr))
			assert.Equal(t, "load", stageErr.Stage)
		})
	}
}

func TestPipeline_DocstringOnlyModuleIsNotEmpty(t *testing.T) {
	m := newModule("pkg")
	m.Docstring = "Package docs."
	p := &Pipeline{Loader: &fakeLoader{modules: []*Module{m}}, Renderer: &countingRenderer{}}

	body, err := p.Run(context.Background(), nil, "pkg")
	require.NoError(t, err)
	assert.Equal(t, "pkg", body)
}

func TestNewPipeline_ImportOnlyModuleHasNoSymbols(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0o750))
	src := "from typing import Any, Optional\nfrom .impl import Thing\nfrom . import *\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "__init__.py"), []byte(src), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "impl.py"), []byte("class Thing:\n    pass\n"), 0o600))

	body, err := NewPipeline(DefaultOptions()).Run(context.Background(), []string{root}, "pkg")
	require.ErrorIs(t, err, ErrNoSymbols)
	assert.Empty(t, body)

	body, err = NewPipeline(DefaultOptions()).Run(context.Background(), []string{root}, "pkg.impl")
	require.NoError(t, err)
	assert.Contains(t, body, "Thing")
}

func TestCountSymbols_SkipsImports(t *testing.T) {
	m := newModule("pkg",
		&Indirection{Base: Base{Name: "Any"}, Target: "typing.Any"},
		fn("f", ""),
	)
	assert.Equal(t, 1, CountSymbols([]*Module{m}))
}

func TestPipeline_StageErrors(t *testing.T) {
	boom := errors.New("boom")
	var calls []string

	p := &Pipeline{
		Loader:     &fakeLoader{modules: []*Module{newModule("pkg", fn("f", ""))}},
		Processors: []NamedProcessor{{Name: "smart", Processor: &recordingProcessor{name: "smart", calls: &calls, err: boom}}},
		Renderer:   &countingRenderer{},
	}
	_, err := p.Run(context.Background(), nil, "pkg")
	require.ErrorIs(t, err, boom)
	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, "smart", stageErr.Stage)

	p = &Pipeline{Loader: &fakeLoader{err: ErrModuleNotFound}, Renderer: &countingRenderer{}}
	_, err = p.Run(context.Background(), nil, "pkg")
	require.ErrorIs(t, err, ErrModuleNotFound)
}

func TestNewPipeline_Fixture(t *testing.T) {
	opts := DefaultOptions()
	opts.Render.SourceLinker = TemplateLinker{Template: "{url}/blob/{ref}/{path}#L{line}", RepoURL: "https://github.com/acme/sdk", Ref: "v1.2.3"}

	body, err := NewPipeline(opts).Run(context.Background(), []string{fixtureRoot}, "pkg.session")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(body, "Session management. See [Session](#pkg.session.Session) for details.\n\n"))
	assert.Contains(t, body, "<a id=\"pkg.session.Session.refresh\"></a>\n\n#### Session.refresh\n\n```python\nasync def refresh(self, *, force: bool = False) -> \"Session\"\n```")
	assert.Contains(t, body, "[[view_source]](https://github.com/acme/sdk/blob/v1.2.3/pkg/session.py#L23)")
	assert.Contains(t, body, "**Arguments**:\n\n- `force` (`bool`): skip the expiry check")
	assert.Contains(t, body, "&lt;b&gt;never&lt;/b&gt; call [refresh()](#pkg.session.Session.refresh)")
	assert.Contains(t, body, "```python\ntimeout: int = 3600\n```")
	assert.NotContains(t, body, "__init__")
	assert.NotContains(t, body, "asyncio")
	assert.True(t, strings.HasSuffix(body, "\n"))
}
