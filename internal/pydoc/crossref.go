package pydoc

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"git.home.luguber.info/inful/refgen/internal/logfields"
	"git.home.luguber.info/inful/refgen/internal/markdown"
)

var (
	hashRef = regexp.MustCompile(`(?m)(^|[ \t])#(\.)?([A-Za-z_]\w*(?:\.[A-Za-z_]\w*)*)(\(\))?`)
	callRef = regexp.MustCompile(`(?m)(^|[ \t(])([A-Za-z_]\w*(?:\.[A-Za-z_]\w*)*)\(\)`)
)

// CrossrefProcessor links mentions of documented objects inside docstrings.
//
// `#Name`, `#Name.member` and `#.member` are resolved relative to the
// documenting object first and then globally; `Name()` is linked only when it
// resolves. Links point at the anchor the renderer emits for the target.
// Code spans and code blocks are left untouched.
type CrossrefProcessor struct{}

// Process rewrites docstrings in place and reports no structural change.
func (c *CrossrefProcessor) Process(modules []*Module) ([]*Module, error) {
	idx := newSymbolIndex(modules)
	for _, m := range modules {
		var err error
		Walk(m, func(o Object) bool {
			if err != nil {
				return false
			}
			doc := DocstringOf(o)
			if doc == "" {
				return true
			}
			var out string
			out, err = idx.link(doc, o)
			if err == nil {
				SetDocstring(o, out)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return nil, nil
}

type symbolIndex struct {
	byName  map[string]Object
	modules []*Module
}

func newSymbolIndex(modules []*Module) *symbolIndex {
	idx := &symbolIndex{byName: map[string]Object{}, modules: modules}
	for _, m := range modules {
		Walk(m, func(o Object) bool {
			if _, ok := o.(*Indirection); !ok {
				idx.byName[QualifiedName(o)] = o
			}
			return true
		})
	}
	return idx
}

// member finds a non-import child of scope by dotted path.
func member(scope Object, path string) Object {
	cur := scope
	for _, part := range strings.Split(path, ".") {
		var next Object
		for _, m := range Members(cur) {
			if _, ok := m.(*Indirection); ok {
				continue
			}
			if NameOf(m) == part {
				next = m
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

func (idx *symbolIndex) resolve(ref string, relative bool, from Object) Object {
	if relative {
		scope := from
		if _, isClass := scope.(*Class); !isClass {
			scope = ParentOf(from)
		}
		if scope == nil {
			return nil
		}
		return member(scope, ref)
	}
	for scope := from; scope != nil; scope = ParentOf(scope) {
		if target := member(scope, ref); target != nil {
			return target
		}
	}
	if target, ok := idx.byName[ref]; ok {
		return target
	}
	for _, m := range idx.modules {
		if target, ok := idx.byName[m.Name+"."+ref]; ok {
			return target
		}
	}
	return nil
}

func (idx *symbolIndex) link(doc string, from Object) (string, error) {
	code := markdown.CodeRanges([]byte(doc))
	var edits []markdown.Edit

	for _, m := range hashRef.FindAllStringSubmatchIndex(doc, -1) {
		start, end := m[3], m[1]
		if markdown.InCode(code, start, end) {
			continue
		}
		ref := doc[m[6]:m[7]]
		relative := m[4] >= 0
		parens := m[8] >= 0
		target := idx.resolve(ref, relative, from)
		if target == nil {
			slog.Debug("Unresolved cross-reference", logfields.QualifiedName(QualifiedName(from)), slog.String("ref", doc[start:end]))
			continue
		}
		text := ref
		if parens {
			text += "()"
		}
		edits = append(edits, markdown.Edit{Start: start, End: end, Replacement: []byte("[" + text + "](#" + QualifiedName(target) + ")")})
	}

	for _, m := range callRef.FindAllStringSubmatchIndex(doc, -1) {
		start, end := m[3], m[1]
		if markdown.InCode(code, start, end) {
			continue
		}
		ref := doc[m[4]:m[5]]
		target := idx.resolve(ref, false, from)
		if target == nil {
			continue
		}
		edits = append(edits, markdown.Edit{Start: start, End: end, Replacement: []byte("[" + ref + "()](#" + QualifiedName(target) + ")")})
	}

	if len(edits) == 0 {
		return doc, nil
	}
	out, err := markdown.ApplyEdits([]byte(doc), dropOverlaps(edits))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func dropOverlaps(edits []markdown.Edit) []markdown.Edit {
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].Start < edits[j].Start })
	out := edits[:0]
	end := -1
	for _, e := range edits {
		if e.Start < end {
			continue
		}
		out = append(out, e)
		end = e.End
	}
	return out
}
