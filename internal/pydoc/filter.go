package pydoc

import "strings"

// DefaultDenylist holds typing helpers and builtins commonly re-exported by
// SDK modules.
var DefaultDenylist = []string{
	"Any", "Callable", "Dict", "List", "Optional", "Literal", "Union",
	"TYPE_CHECKING", "annotations", "override",
}

// DefaultExcludedOrigins are modules whose re-exports are never documented.
var DefaultExcludedOrigins = []string{"typing", "builtins", "__future__"}

// FilterProcessor removes objects that should not appear in the reference.
type FilterProcessor struct {
	ExcludePrivate   bool
	Denylist         []string
	ExcludedOrigins  []string
	SkipEmptyModules bool
	// DocumentedOnly also drops objects without a docstring.
	DocumentedOnly bool
}

// DefaultFilter returns the filter used for reference pages.
func DefaultFilter() FilterProcessor {
	return FilterProcessor{
		ExcludePrivate:   true,
		Denylist:         DefaultDenylist,
		ExcludedOrigins:  DefaultExcludedOrigins,
		SkipEmptyModules: true,
	}
}

// Process filters modules in place.
func (f *FilterProcessor) Process(modules []*Module) ([]*Module, error) {
	out := make([]*Module, 0, len(modules))
	for _, m := range modules {
		f.filterMembers(m)
		if f.SkipEmptyModules && len(m.Members) == 0 && m.Docstring == "" {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *FilterProcessor) filterMembers(o Object) {
	members := Members(o)
	if members == nil {
		return
	}
	kept := members[:0]
	for _, m := range members {
		if !f.Keep(m) {
			continue
		}
		f.filterMembers(m)
		kept = append(kept, m)
	}
	setMembers(o, kept)
}

// Keep reports whether a single object passes the filter, ignoring its
// members.
func (f *FilterProcessor) Keep(o Object) bool {
	name := NameOf(o)
	if f.ExcludePrivate && strings.HasPrefix(name, "_") {
		return false
	}
	for _, denied := range f.Denylist {
		if name == denied {
			return false
		}
	}
	if ind, ok := o.(*Indirection); ok && f.excludedOrigin(ind.Target) {
		return false
	}
	if f.DocumentedOnly && DocstringOf(o) == "" {
		if _, isModule := o.(*Module); !isModule {
			return false
		}
	}
	return true
}

func (f *FilterProcessor) excludedOrigin(target string) bool {
	for _, origin := range f.ExcludedOrigins {
		if target == origin || strings.HasPrefix(target, origin+".") {
			return true
		}
	}
	return false
}
