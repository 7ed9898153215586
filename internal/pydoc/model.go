package pydoc

import "strings"

// Kind identifies the type of a documented object.
type Kind string

const (
	KindModule      Kind = "module"
	KindClass       Kind = "class"
	KindFunction    Kind = "function"
	KindVariable    Kind = "variable"
	KindIndirection Kind = "indirection"
)

// Location points at the definition of an object. Filename is relative to
// the search path entry the module was found in, using forward slashes.
type Location struct {
	Filename string
	Lineno   int
}

// Base holds the fields every object carries.
type Base struct {
	Name      string
	Location  Location
	Docstring string
	Parent    Object
}

func (b *Base) base() *Base { return b }

// Object is implemented by *Module, *Class, *Function, *Variable and
// *Indirection.
type Object interface {
	Kind() Kind
	base() *Base
}

// Module is a loaded Python module. Name is the fully qualified dotted name.
type Module struct {
	Base
	Members []Object
}

// Class is a class definition.
type Class struct {
	Base
	Bases      []string
	Decorators []string
	Members    []Object
}

// ArgKind distinguishes the forms a parameter can take.
type ArgKind int

const (
	ArgPositional ArgKind = iota
	ArgPositionalOnlyMarker
	ArgKeywordOnlyMarker
	ArgVarPositional
	ArgVarKeyword
)

// Argument is one function parameter.
type Argument struct {
	Name    string
	Kind    ArgKind
	Type    string
	Default string
}

// Function is a function or method definition.
type Function struct {
	Base
	Async      bool
	Decorators []string
	Args       []Argument
	ReturnType string
}

// Variable is a module or class level assignment.
type Variable struct {
	Base
	Datatype string
	Value    string
}

// Indirection is a name bound by an import statement. Target is the fully
// qualified name it refers to.
type Indirection struct {
	Base
	Target string
}

func (*Module) Kind() Kind      { return KindModule }
func (*Class) Kind() Kind       { return KindClass }
func (*Function) Kind() Kind    { return KindFunction }
func (*Variable) Kind() Kind    { return KindVariable }
func (*Indirection) Kind() Kind { return KindIndirection }

// NameOf returns the object's local name.
func NameOf(o Object) string { return o.base().Name }

// DocstringOf returns the object's cleaned docstring.
func DocstringOf(o Object) string { return o.base().Docstring }

// SetDocstring replaces the object's docstring.
func SetDocstring(o Object, doc string) { o.base().Docstring = doc }

// LocationOf returns where the object is defined.
func LocationOf(o Object) Location { return o.base().Location }

// ParentOf returns the enclosing object, nil for modules.
func ParentOf(o Object) Object { return o.base().Parent }

// Members returns the children of modules and classes, nil otherwise.
func Members(o Object) []Object {
	switch v := o.(type) {
	case *Module:
		return v.Members
	case *Class:
		return v.Members
	}
	return nil
}

func setMembers(o Object, members []Object) {
	switch v := o.(type) {
	case *Module:
		v.Members = members
	case *Class:
		v.Members = members
	}
}

// QualifiedName joins the names from the enclosing module down to o.
func QualifiedName(o Object) string {
	var parts []string
	for cur := o; cur != nil; cur = ParentOf(cur) {
		parts = append(parts, NameOf(cur))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// ModuleOf returns the module that contains o.
func ModuleOf(o Object) *Module {
	for cur := o; cur != nil; cur = ParentOf(cur) {
		if m, ok := cur.(*Module); ok {
			return m
		}
	}
	return nil
}

// Walk calls fn for o and all its descendants in definition order. Returning
// false from fn skips the object's members.
func Walk(o Object, fn func(Object) bool) {
	if !fn(o) {
		return
	}
	for _, m := range Members(o) {
		Walk(m, fn)
	}
}

// CountSymbols returns the number of documentable objects below the given
// modules. Imports are not symbols of the importing module.
func CountSymbols(modules []*Module) int {
	n := 0
	for _, m := range modules {
		Walk(m, func(o Object) bool {
			if _, ok := o.(*Indirection); ok {
				return false
			}
			if o != Object(m) {
				n++
			}
			return true
		})
	}
	return n
}
