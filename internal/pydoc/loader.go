package pydoc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"git.home.luguber.info/inful/refgen/internal/logfields"
)

// ErrModuleNotFound is returned when no search path entry contains a module.
var ErrModuleNotFound = errors.New("module not found")

// LoadRequest names the modules to load and where to look for them.
type LoadRequest struct {
	// SearchPath entries are tried in order, like sys.path.
	SearchPath []string
	// Modules are fully qualified dotted names.
	Modules []string
}

// Loader turns module names into object trees.
type Loader interface {
	Load(ctx context.Context, req LoadRequest) ([]*Module, error)
}

// PythonLoader parses Python sources with tree-sitter. Only the requested
// modules are parsed; imported modules are recorded as Indirections.
type PythonLoader struct {
	language *sitter.Language
}

// NewPythonLoader creates a loader for Python 3 sources.
func NewPythonLoader() *PythonLoader {
	return &PythonLoader{language: sitter.NewLanguage(python.Language())}
}

// Load parses every module in req.Modules.
func (l *PythonLoader) Load(ctx context.Context, req LoadRequest) ([]*Module, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(l.language); err != nil {
		return nil, fmt.Errorf("set tree-sitter language: %w", err)
	}

	modules := make([]*Module, 0, len(req.Modules))
	for _, name := range req.Modules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path, rel, isPackage, err := findModule(req.SearchPath, name)
		if err != nil {
			return nil, err
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		m, err := l.parseModule(parser, name, rel, isPackage, src)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, nil
}

// findModule resolves a dotted name to <dir>/a/b/__init__.py or <dir>/a/b.py.
func findModule(searchPath []string, name string) (path, rel string, isPackage bool, err error) {
	parts := strings.Split(name, ".")
	for _, dir := range searchPath {
		pkg := filepath.Join(append([]string{dir}, append(parts, "__init__.py")...)...)
		if fileExists(pkg) {
			return pkg, strings.Join(append(parts, "__init__.py"), "/"), true, nil
		}
		mod := filepath.Join(append([]string{dir}, parts...)...) + ".py"
		if fileExists(mod) {
			return mod, strings.Join(parts, "/") + ".py", false, nil
		}
	}
	return "", "", false, fmt.Errorf("%w: %s (search path %v)", ErrModuleNotFound, name, searchPath)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (l *PythonLoader) parseModule(parser *sitter.Parser, name, rel string, isPackage bool, src []byte) (*Module, error) {
	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse %s: no syntax tree", rel)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		slog.Warn("Python source contains syntax errors; documenting what could be parsed", logfields.QualifiedName(name), logfields.Path(rel))
	}

	p := &moduleParser{src: src, file: rel, module: name, isPackage: isPackage}
	m := &Module{Base: Base{Name: name, Location: Location{Filename: rel, Lineno: 1}}}
	m.Docstring = p.blockDocstring(root)
	m.Members = p.statements(root, m)
	return m, nil
}

type moduleParser struct {
	src       []byte
	file      string
	module    string
	isPackage bool
}

func (p *moduleParser) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Utf8Text(p.src)
}

func (p *moduleParser) loc(n *sitter.Node) Location {
	return Location{Filename: p.file, Lineno: int(n.StartPosition().Row) + 1}
}

// namedChildren returns the named, non-comment children of n.
func namedChildren(n *sitter.Node) []*sitter.Node {
	count := n.NamedChildCount()
	out := make([]*sitter.Node, 0, count)
	for i := uint(0); i < count; i++ {
		c := n.NamedChild(i)
		if c == nil || c.Kind() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// stringStatement returns the docstring value when stmt is a bare string
// expression.
func (p *moduleParser) stringStatement(stmt *sitter.Node) (string, bool) {
	if stmt == nil || stmt.Kind() != "expression_statement" {
		return "", false
	}
	kids := namedChildren(stmt)
	if len(kids) != 1 {
		return "", false
	}
	return p.stringValue(kids[0])
}

func (p *moduleParser) stringValue(n *sitter.Node) (string, bool) {
	switch n.Kind() {
	case "string":
		return decodeStringLiteral(p.text(n))
	case "concatenated_string":
		var b strings.Builder
		for _, part := range namedChildren(n) {
			v, ok := p.stringValue(part)
			if !ok {
				return "", false
			}
			b.WriteString(v)
		}
		return b.String(), true
	}
	return "", false
}

// blockDocstring returns the cleaned docstring of a module or block.
func (p *moduleParser) blockDocstring(block *sitter.Node) string {
	if block == nil {
		return ""
	}
	stmts := namedChildren(block)
	if len(stmts) == 0 {
		return ""
	}
	if doc, ok := p.stringStatement(stmts[0]); ok {
		return cleandoc(doc)
	}
	return ""
}

// statements extracts the documentable objects defined directly in block.
func (p *moduleParser) statements(block *sitter.Node, parent Object) []Object {
	stmts := namedChildren(block)
	var out []Object
	for i, stmt := range stmts {
		var next *sitter.Node
		if i+1 < len(stmts) {
			next = stmts[i+1]
		}
		switch stmt.Kind() {
		case "function_definition":
			out = append(out, p.function(stmt, nil, parent))
		case "class_definition":
			out = append(out, p.class(stmt, nil, parent))
		case "decorated_definition":
			if obj := p.decorated(stmt, parent); obj != nil {
				out = append(out, obj)
			}
		case "expression_statement":
			if v := p.assignment(stmt, next, parent); v != nil {
				out = append(out, v)
			}
		case "import_statement", "import_from_statement", "future_import_statement":
			if _, isModule := parent.(*Module); isModule {
				out = append(out, p.imports(stmt, parent)...)
			}
		}
	}
	return out
}

func (p *moduleParser) decorators(n *sitter.Node) []string {
	var out []string
	for _, c := range namedChildren(n) {
		if c.Kind() == "decorator" {
			out = append(out, strings.TrimSpace(p.text(c)))
		}
	}
	return out
}

func (p *moduleParser) decorated(n *sitter.Node, parent Object) Object {
	def := n.ChildByFieldName("definition")
	if def == nil {
		return nil
	}
	decorators := p.decorators(n)
	switch def.Kind() {
	case "function_definition":
		return p.function(def, decorators, parent)
	case "class_definition":
		return p.class(def, decorators, parent)
	}
	return nil
}

func (p *moduleParser) function(n *sitter.Node, decorators []string, parent Object) *Function {
	body := n.ChildByFieldName("body")
	f := &Function{
		Base: Base{
			Name:      p.text(n.ChildByFieldName("name")),
			Location:  p.loc(n),
			Docstring: p.blockDocstring(body),
			Parent:    parent,
		},
		Decorators: decorators,
		ReturnType: p.text(n.ChildByFieldName("return_type")),
	}
	if first := n.Child(0); first != nil && first.Kind() == "async" {
		f.Async = true
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		f.Args = p.parameters(params)
	}
	return f
}

func (p *moduleParser) parameters(n *sitter.Node) []Argument {
	var args []Argument
	for _, c := range namedChildren(n) {
		switch c.Kind() {
		case "identifier":
			args = append(args, Argument{Name: p.text(c)})
		case "typed_parameter":
			arg := p.splat(namedChildren(c)[0])
			arg.Type = p.text(c.ChildByFieldName("type"))
			args = append(args, arg)
		case "default_parameter":
			args = append(args, Argument{Name: p.text(c.ChildByFieldName("name")), Default: p.text(c.ChildByFieldName("value"))})
		case "typed_default_parameter":
			args = append(args, Argument{
				Name:    p.text(c.ChildByFieldName("name")),
				Type:    p.text(c.ChildByFieldName("type")),
				Default: p.text(c.ChildByFieldName("value")),
			})
		case "list_splat_pattern", "dictionary_splat_pattern":
			args = append(args, p.splat(c))
		case "keyword_separator":
			args = append(args, Argument{Kind: ArgKeywordOnlyMarker})
		case "positional_separator":
			args = append(args, Argument{Kind: ArgPositionalOnlyMarker})
		}
	}
	return args
}

func (p *moduleParser) splat(n *sitter.Node) Argument {
	switch n.Kind() {
	case "list_splat_pattern":
		return Argument{Name: strings.TrimPrefix(p.text(n), "*"), Kind: ArgVarPositional}
	case "dictionary_splat_pattern":
		return Argument{Name: strings.TrimPrefix(p.text(n), "**"), Kind: ArgVarKeyword}
	}
	return Argument{Name: p.text(n)}
}

func (p *moduleParser) class(n *sitter.Node, decorators []string, parent Object) *Class {
	body := n.ChildByFieldName("body")
	c := &Class{
		Base: Base{
			Name:      p.text(n.ChildByFieldName("name")),
			Location:  p.loc(n),
			Docstring: p.blockDocstring(body),
			Parent:    parent,
		},
		Decorators: decorators,
	}
	if supers := n.ChildByFieldName("superclasses"); supers != nil {
		for _, b := range namedChildren(supers) {
			c.Bases = append(c.Bases, p.text(b))
		}
	}
	if body != nil {
		c.Members = p.statements(body, c)
	}
	return c
}

// assignment handles `name = value`, `name: T = value` and `name: T`, with
// an optional string statement after it serving as the attribute docstring.
func (p *moduleParser) assignment(stmt, next *sitter.Node, parent Object) *Variable {
	kids := namedChildren(stmt)
	if len(kids) != 1 || kids[0].Kind() != "assignment" {
		return nil
	}
	a := kids[0]
	left := a.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return nil
	}

	right := a.ChildByFieldName("right")
	for right != nil && right.Kind() == "assignment" {
		right = right.ChildByFieldName("right")
	}

	v := &Variable{
		Base: Base{
			Name:     p.text(left),
			Location: p.loc(stmt),
			Parent:   parent,
		},
		Datatype: p.text(a.ChildByFieldName("type")),
		Value:    p.text(right),
	}
	if doc, ok := p.stringStatement(next); ok {
		v.Docstring = cleandoc(doc)
	}
	return v
}

func (p *moduleParser) imports(stmt *sitter.Node, parent Object) []Object {
	var from string
	var skip uint = ^uint(0)
	switch stmt.Kind() {
	case "future_import_statement":
		from = "__future__"
	case "import_from_statement":
		mod := stmt.ChildByFieldName("module_name")
		if mod == nil {
			return nil
		}
		skip = mod.StartByte()
		from = p.resolveModule(p.text(mod))
	}

	var out []Object
	for _, c := range namedChildren(stmt) {
		if c.StartByte() == skip {
			continue
		}
		var name, target string
		switch c.Kind() {
		case "dotted_name":
			path := p.text(c)
			if from == "" {
				name = strings.SplitN(path, ".", 2)[0]
				target = name
			} else {
				name = path
				target = from + "." + path
			}
		case "aliased_import":
			path := p.text(c.ChildByFieldName("name"))
			name = p.text(c.ChildByFieldName("alias"))
			target = path
			if from != "" {
				target = from + "." + path
			}
		case "wildcard_import":
			name = "*"
			target = from + ".*"
		default:
			continue
		}
		out = append(out, &Indirection{
			Base:   Base{Name: name, Location: p.loc(stmt), Parent: parent},
			Target: target,
		})
	}
	return out
}

// resolveModule turns a possibly relative module reference into an
// absolute dotted name.
func (p *moduleParser) resolveModule(ref string) string {
	dots := len(ref) - len(strings.TrimLeft(ref, "."))
	if dots == 0 {
		return ref
	}
	pkg := strings.Split(p.module, ".")
	if !p.isPackage {
		pkg = pkg[:len(pkg)-1]
	}
	if up := dots - 1; up <= len(pkg) {
		pkg = pkg[:len(pkg)-up]
	}
	rest := strings.TrimLeft(ref, ".")
	if rest == "" {
		return strings.Join(pkg, ".")
	}
	return strings.Join(append(pkg, rest), ".")
}
