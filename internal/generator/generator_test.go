package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/refgen/internal/config"
	ferrors "git.home.luguber.info/inful/refgen/internal/foundation/errors"
	"git.home.luguber.info/inful/refgen/internal/metrics"
	"git.home.luguber.info/inful/refgen/internal/pydoc"
)

type fakeExtractor struct {
	bodies map[string]string
	errs   map[string]error
	panics map[string]bool
	calls  []string
	lastSP []string
}

func (f *fakeExtractor) Run(_ context.Context, searchPath []string, module string) (string, error) {
	f.calls = append(f.calls, module)
	f.lastSP = searchPath
	if f.panics[module] {
		panic("boom in " + module)
	}
	if err, ok := f.errs[module]; ok {
		return "", err
	}
	if body, ok := f.bodies[module]; ok {
		return body, nil
	}
	return "", &pydoc.StageError{Stage: "load", Module: module, Err: pydoc.ErrModuleNotFound}
}

type outcomeRecorder struct {
	metrics.NoopRecorder
	mu        sync.Mutex
	outcomes  map[metrics.ModuleOutcome]int
	subFailed int
}

func (r *outcomeRecorder) IncModuleOutcome(_ string, o metrics.ModuleOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = map[metrics.ModuleOutcome]int{}
	}
	r.outcomes[o]++
}

func (r *outcomeRecorder) IncSubModuleFailure(string) { r.subFailed++ }

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func testRepo(out string, modules ...config.Module) config.Repository {
	return config.Repository{Name: "sdk", PackageName: "pkg", OutputDir: out, Modules: modules}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestImportStatement(t *testing.T) {
	assert.Equal(t, "import pkg", ImportStatement("pkg", config.Module{Path: config.RootModulePath}))
	assert.Equal(t, "from pkg.recipe.session import *", ImportStatement("pkg", config.Module{Path: "recipe/session"}))
}

func TestSubModuleName(t *testing.T) {
	assert.Equal(t, "pkg.recipe.session.interfaces", SubModuleName("pkg", config.Module{Path: "recipe/session"}, "interfaces"))
	assert.Equal(t, "pkg.interfaces", SubModuleName("pkg", config.Module{Path: config.RootModulePath}, "interfaces"))
}

func TestGenerate_RootModule(t *testing.T) {
	out := t.TempDir()
	root := config.Module{Path: config.RootModulePath, Title: "X", SidebarPosition: 1, PackageName: "pkg-sdk", GeneratedFilePath: "index.mdx"}
	ex := &fakeExtractor{bodies: map[string]string{"pkg": "body\n"}}

	page := New(ex, testRepo(out, root), "/checkout").Generate(context.Background(), root)

	require.NoError(t, page.Err)
	assert.Equal(t, StatusGenerated, page.Status)
	assert.Equal(t, "pkg-sdk", page.Module)
	assert.Equal(t, "pkg", page.QualifiedName)
	assert.True(t, page.Changed)
	assert.NotEmpty(t, page.Fingerprint)
	assert.Equal(t, []string{"/checkout"}, ex.lastSP)

	want := "---\ntitle: \"X\"\nsidebar_position: 1\n---\n\n# X\n\n```python\nimport pkg\n```\n\nbody\n\n"
	assert.Equal(t, want, readFile(t, filepath.Join(out, "index.mdx")))
}

func TestGenerate_SubModules(t *testing.T) {
	out := t.TempDir()
	m := config.Module{
		Path: "recipe/session", Title: "Session", SidebarPosition: 4, PackageName: "session",
		GeneratedFilePath: "recipes/session.mdx", SubModules: []string{"interfaces", "broken", "exploding"},
	}
	rec := &outcomeRecorder{}
	ex := &fakeExtractor{
		bodies: map[string]string{"pkg.recipe.session": "main\n", "pkg.recipe.session.interfaces": "iface\n"},
		errs:   map[string]error{"pkg.recipe.session.broken": errors.New("parse failure")},
		panics: map[string]bool{"pkg.recipe.session.exploding": true},
	}

	page := New(ex, testRepo(out, m), "/checkout", WithRecorder(rec)).Generate(context.Background(), m)

	require.NoError(t, page.Err)
	assert.Equal(t, StatusGenerated, page.Status)
	require.Len(t, page.SubModuleErrors, 2)
	assert.Equal(t, "broken", page.SubModuleErrors[0].SubModule)
	assert.Equal(t, "exploding", page.SubModuleErrors[1].SubModule)
	var modErr *ModuleError
	require.True(t, errors.As(page.SubModuleErrors[1], &modErr))
	assert.NotEmpty(t, modErr.Stack)
	assert.Equal(t, ferrors.SeverityWarning, ferrors.GetSeverity(page.SubModuleErrors[0]))
	assert.Equal(t, ferrors.CategoryExtract, ferrors.GetCategory(page.SubModuleErrors[0]))
	assert.Equal(t, 2, rec.subFailed)
	assert.Equal(t, 1, rec.outcomes[metrics.OutcomeGenerated])

	want := "---\ntitle: \"Session\"\nsidebar_position: 4\n---\n\n# Session\n\n" +
		"```python\nfrom pkg.recipe.session import *\n```\n\n" +
		"main\n" +
		"\n\n## interfaces\n\n```python\nfrom pkg.recipe.session.interfaces import *\n```\n\niface\n" +
		"\n"
	assert.Equal(t, want, readFile(t, filepath.Join(out, "recipes", "session.mdx")))
}

func TestGenerate_EmptyModule(t *testing.T) {
	out := t.TempDir()
	m := config.Module{Path: "gone", Title: "Gone", PackageName: "gone", GeneratedFilePath: "gone.mdx"}
	rec := &outcomeRecorder{}
	ex := &fakeExtractor{errs: map[string]error{"pkg.gone": &pydoc.StageError{Stage: "load", Module: "pkg.gone", Err: pydoc.ErrNoSymbols}}}

	page := New(ex, testRepo(out, m), "/checkout", WithRecorder(rec)).Generate(context.Background(), m)

	assert.Equal(t, StatusEmpty, page.Status)
	var empty *EmptyModuleError
	require.True(t, errors.As(page.Err, &empty))
	assert.Equal(t, "gone", empty.Module)
	assert.Equal(t, ferrors.CategoryExtract, ferrors.GetCategory(page.Err))
	assert.NoFileExists(t, filepath.Join(out, "gone.mdx"))
	assert.Equal(t, 1, rec.outcomes[metrics.OutcomeEmpty])
}

func TestGenerateAll_ContinuesAfterFailures(t *testing.T) {
	out := t.TempDir()
	modules := []config.Module{
		{Path: "a", Title: "A", PackageName: "a", GeneratedFilePath: "a.mdx"},
		{Path: "b", Title: "B", PackageName: "b", GeneratedFilePath: "b.mdx"},
		{Path: "c", Title: "C", PackageName: "c", GeneratedFilePath: "c.mdx"},
		{Path: "d", Title: "D", PackageName: "d", GeneratedFilePath: "d.mdx"},
	}
	ex := &fakeExtractor{
		bodies: map[string]string{"pkg.a": "a\n", "pkg.d": "d\n"},
		panics: map[string]bool{"pkg.b": true},
		errs:   map[string]error{"pkg.c": fmt.Errorf("render: %w", errors.New("bad markdown"))},
	}

	pages := New(ex, testRepo(out, modules...), "/checkout").GenerateAll(context.Background())

	require.Len(t, pages, 4)
	assert.Equal(t, []string{"pkg.a", "pkg.b", "pkg.c", "pkg.d"}, ex.calls)
	assert.Equal(t, StatusGenerated, pages[0].Status)
	assert.Equal(t, StatusFailed, pages[1].Status)
	assert.Equal(t, StatusFailed, pages[2].Status)
	assert.Equal(t, StatusGenerated, pages[3].Status)

	var modErr *ModuleError
	require.True(t, errors.As(pages[1].Err, &modErr))
	assert.Equal(t, "panic", modErr.Stage)
	assert.Contains(t, string(modErr.Stack), "goroutine")

	assert.FileExists(t, filepath.Join(out, "a.mdx"))
	assert.NoFileExists(t, filepath.Join(out, "b.mdx"))
	assert.NoFileExists(t, filepath.Join(out, "c.mdx"))
	assert.FileExists(t, filepath.Join(out, "d.mdx"))
}

func TestGenerate_WriteFailure(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "blocked"), []byte("file"), 0o600))
	m := config.Module{Path: "a", Title: "A", PackageName: "a", GeneratedFilePath: "blocked/a.mdx"}
	ex := &fakeExtractor{bodies: map[string]string{"pkg.a": "a\n"}}

	page := New(ex, testRepo(out, m), "/checkout").Generate(context.Background(), m)

	assert.Equal(t, StatusFailed, page.Status)
	assert.Equal(t, ferrors.CategoryFileSystem, ferrors.GetCategory(page.Err))
}

func TestGenerate_FailureLogsModuleAndStack(t *testing.T) {
	logs := captureLogs(t)
	out := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(out, "index.mdx"), 0o750))
	m := config.Module{Path: config.RootModulePath, Title: "X", PackageName: "pkg-sdk", GeneratedFilePath: "index.mdx"}
	ex := &fakeExtractor{bodies: map[string]string{"pkg": "body\n"}}

	page := New(ex, testRepo(out, m), "/checkout").Generate(context.Background(), m)

	require.Equal(t, StatusFailed, page.Status)
	var modErr *ModuleError
	require.ErrorAs(t, page.Err, &modErr)
	assert.Equal(t, "write", modErr.Stage)
	assert.NotEmpty(t, modErr.Stack)

	var line string
	for _, l := range strings.Split(logs.String(), "\n") {
		if strings.Contains(l, "level=ERROR") {
			line = l
		}
	}
	require.NotEmpty(t, line)
	assert.Contains(t, line, `msg="Error generating documentation"`)
	assert.Contains(t, line, "module=pkg-sdk")
	assert.Contains(t, line, "stack=")
	assert.Contains(t, line, "goroutine")
}

func TestGenerate_EmptyModuleLogsDisplayName(t *testing.T) {
	logs := captureLogs(t)
	out := t.TempDir()
	m := config.Module{Path: "gone", Title: "Gone", PackageName: "gone-module", GeneratedFilePath: "gone.mdx"}
	ex := &fakeExtractor{errs: map[string]error{"pkg.gone": pydoc.ErrNoSymbols}}

	page := New(ex, testRepo(out, m), "/checkout").Generate(context.Background(), m)

	assert.Equal(t, StatusEmpty, page.Status)
	assert.Contains(t, logs.String(), "level=ERROR")
	assert.Contains(t, logs.String(), "module=gone-module")
	assert.Contains(t, logs.String(), "no modules found for pkg.gone")
}

func TestGenerate_PagesAreWorldReadable(t *testing.T) {
	out := t.TempDir()
	m := config.Module{Path: "a", Title: "A", PackageName: "a", GeneratedFilePath: "nested/a.mdx"}
	ex := &fakeExtractor{bodies: map[string]string{"pkg.a": "a\n"}}

	page := New(ex, testRepo(out, m), "/checkout").Generate(context.Background(), m)
	require.NoError(t, page.Err)

	info, err := os.Stat(page.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o044), info.Mode().Perm()&0o044, "page mode %v", info.Mode())
}

func TestGenerate_Idempotent(t *testing.T) {
	out := t.TempDir()
	m := config.Module{Path: config.RootModulePath, Title: "X", SidebarPosition: 1, PackageName: "x", GeneratedFilePath: "index.mdx"}
	ex := &fakeExtractor{bodies: map[string]string{"pkg": "body\n"}}
	g := New(ex, testRepo(out, m), "/checkout")

	first := g.Generate(context.Background(), m)
	firstBytes := readFile(t, first.Path)
	second := g.Generate(context.Background(), m)

	assert.True(t, first.Changed)
	assert.False(t, second.Changed)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, firstBytes, readFile(t, second.Path))
}

func TestGenerate_PythonPipeline(t *testing.T) {
	out := t.TempDir()
	root := config.Module{
		Path: config.RootModulePath, Title: "X", SidebarPosition: 1, PackageName: "example-sdk",
		GeneratedFilePath: "index.mdx", SubModules: []string{"session", "missing"},
	}
	checkout, err := filepath.Abs("../pydoc/testdata/sdk")
	require.NoError(t, err)

	page := New(pydoc.NewPipeline(pydoc.DefaultOptions()), testRepo(out, root), checkout).Generate(context.Background(), root)
	require.NoError(t, page.Err)
	require.Len(t, page.SubModuleErrors, 1)
	assert.ErrorIs(t, page.SubModuleErrors[0], pydoc.ErrModuleNotFound)

	doc := readFile(t, page.Path)
	assert.True(t, strings.HasPrefix(doc, "---\ntitle: \"X\"\nsidebar_position: 1\n---\n\n# X\n\n```python\nimport pkg\n```\n\n"))
	assert.Contains(t, doc, "#### init")
	assert.Contains(t, doc, "\n\n## session\n\n```python\nfrom pkg.session import *\n```\n\n")
	assert.Contains(t, doc, "#### create\\_session")
	assert.True(t, strings.HasSuffix(doc, "\n"))
}
