package pydoc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureRoot = "testdata/sdk"

func loadFixture(t *testing.T, names ...string) []*Module {
	t.Helper()
	modules, err := NewPythonLoader().Load(context.Background(), LoadRequest{
		SearchPath: []string{fixtureRoot},
		Modules:    names,
	})
	require.NoError(t, err)
	require.Len(t, modules, len(names))
	return modules
}

func memberNames(o Object) []string {
	var names []string
	for _, m := range Members(o) {
		names = append(names, NameOf(m))
	}
	return names
}

func find(t *testing.T, o Object, path string) Object {
	t.Helper()
	target := member(o, path)
	require.NotNil(t, target, "member %s not found in %s", path, QualifiedName(o))
	return target
}

func TestPythonLoader_Package(t *testing.T) {
	m := loadFixture(t, "pkg")[0]

	assert.Equal(t, "pkg", m.Name)
	assert.Equal(t, "Top-level package for the example SDK.", m.Docstring)
	assert.Equal(t, Location{Filename: "pkg/__init__.py", Lineno: 1}, m.Location)
	assert.Equal(t, []string{"annotations", "Any", "Optional", "Session", "VERSION", "_internal", "init", "_helper"}, memberNames(m))

	imports := map[string]string{}
	for _, o := range m.Members {
		if ind, ok := o.(*Indirection); ok {
			imports[ind.Name] = ind.Target
		}
	}
	assert.Equal(t, map[string]string{
		"annotations": "__future__.annotations",
		"Any":         "typing.Any",
		"Optional":    "typing.Optional",
		"Session":     "pkg.session.Session",
	}, imports)

	version := find(t, m, "VERSION").(*Variable)
	assert.Equal(t, `"1.2.3"`, version.Value)
	assert.Equal(t, "Current SDK version.", version.Docstring)
	assert.Equal(t, 9, version.Location.Lineno)

	init := find(t, m, "init").(*Function)
	assert.Equal(t, 15, init.Location.Lineno)
	assert.Equal(t, "None", init.ReturnType)
	assert.Equal(t, []Argument{
		{Name: "app_info", Type: "Any"},
		{Name: "mode", Type: "Optional[str]", Default: "None"},
	}, init.Args)
	assert.Contains(t, init.Docstring, "Initialise the SDK.\n\nArgs:\n    app_info: Information about the application.")
	assert.Equal(t, "pkg.init", QualifiedName(init))
}

func TestPythonLoader_ModuleWithClasses(t *testing.T) {
	m := loadFixture(t, "pkg.session")[0]

	assert.Equal(t, "pkg/session.py", m.Location.Filename)
	assert.Equal(t, []string{"asyncio", "Dict", "SessionError", "Session", "create_session", "get_session"}, memberNames(m))

	errCls := find(t, m, "SessionError").(*Class)
	assert.Equal(t, []string{"Exception"}, errCls.Bases)

	session := find(t, m, "Session").(*Class)
	assert.Empty(t, session.Bases)
	assert.Equal(t, []string{"timeout", "__init__", "refresh", "revoke"}, memberNames(session))
	assert.Equal(t, "A user session.\n\nUse #Session.refresh to extend it, or #.revoke to end it.", session.Docstring)

	timeout := find(t, session, "timeout").(*Variable)
	assert.Equal(t, "int", timeout.Datatype)
	assert.Equal(t, "3600", timeout.Value)
	assert.Equal(t, "Seconds until expiry.", timeout.Docstring)

	refresh := find(t, session, "refresh").(*Function)
	assert.True(t, refresh.Async)
	assert.Equal(t, `"Session"`, refresh.ReturnType)
	assert.Equal(t, []Argument{
		{Name: "self"},
		{Kind: ArgKeywordOnlyMarker},
		{Name: "force", Type: "bool", Default: "False"},
	}, refresh.Args)
	assert.Equal(t, "pkg.session.Session.refresh", QualifiedName(refresh))

	revoke := find(t, session, "revoke").(*Function)
	assert.Equal(t, []string{"@staticmethod"}, revoke.Decorators)
	assert.Equal(t, 35, revoke.Location.Lineno)
	assert.Equal(t, []Argument{
		{Name: "session_handle", Type: "str"},
		{Name: "args", Kind: ArgVarPositional},
		{Name: "kwargs", Kind: ArgVarKeyword},
	}, revoke.Args)
}

func TestPythonLoader_RelativeImportInPackage(t *testing.T) {
	m := loadFixture(t, "pkg.recipe.emailpassword")[0]

	require.Equal(t, []string{"interfaces", "init"}, memberNames(m))
	ind, ok := m.Members[0].(*Indirection)
	require.True(t, ok)
	assert.Equal(t, "pkg.recipe.emailpassword.interfaces", ind.Target)
	assert.Nil(t, member(m, "interfaces"), "member lookup skips imports")
}

func TestPythonLoader_ModuleNotFound(t *testing.T) {
	_, err := NewPythonLoader().Load(context.Background(), LoadRequest{
		SearchPath: []string{fixtureRoot},
		Modules:    []string{"pkg.missing"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModuleNotFound))
}

func TestPythonLoader_SearchPathOrder(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(first, "mod.py"), []byte("A = 1\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(second, "mod.py"), []byte("B = 2\n"), 0o600))

	modules, err := NewPythonLoader().Load(context.Background(), LoadRequest{
		SearchPath: []string{first, second},
		Modules:    []string{"mod"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, memberNames(modules[0]))
}

func TestPythonLoader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPythonLoader().Load(ctx, LoadRequest{SearchPath: []string{fixtureRoot}, Modules: []string{"pkg"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCleandoc(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single line", "  Hello.  ", "Hello."},
		{"margin removed", "Summary.\n\n    Details\n      nested\n    ", "Summary.\n\nDetails\n  nested"},
		{"leading blank lines", "\n\n    Body.\n", "Body."},
		{"tabs", "T.\n\tX", "T.\nX"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleandoc(tt.in))
		})
	}
}

func TestDecodeStringLiteral(t *testing.T) {
	tests := []struct {
		lit  string
		want string
		ok   bool
	}{
		{`"""Doc."""`, "Doc.", true},
		{`'single'`, "single", true},
		{`r"""raw \d"""`, `raw \d`, true},
		{`"tab\tand \"quote\""`, "tab\tand \"quote\"", true},
		{`"café"`, "café", true},
		{`b"bytes"`, "", false},
		{`f"{x}"`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.lit, func(t *testing.T) {
			got, ok := decodeStringLiteral(tt.lit)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
