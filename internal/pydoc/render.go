package pydoc

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode/utf8"

	"git.home.luguber.info/inful/refgen/internal/markdown"
)

// SourceLinker maps a definition to a browsable URL. An empty result
// suppresses the link.
type SourceLinker interface {
	SourceURL(loc Location) string
}

// TemplateLinker fills a link template with {url}, {ref}, {path} and {line}.
type TemplateLinker struct {
	Template string
	RepoURL  string
	Ref      string
}

// SourceURL implements SourceLinker.
func (t TemplateLinker) SourceURL(loc Location) string {
	if t.Template == "" || loc.Filename == "" {
		return ""
	}
	url := strings.TrimSuffix(strings.TrimSuffix(t.RepoURL, "/"), ".git")
	return strings.NewReplacer(
		"{url}", url,
		"{ref}", t.Ref,
		"{path}", loc.Filename,
		"{line}", strconv.Itoa(loc.Lineno),
	).Replace(t.Template)
}

// Header levels per object type.
const (
	LevelModule = 1
	LevelClass  = 2
	LevelMember = 4
)

// RenderOptions controls the Markdown produced by MarkdownRenderer.
type RenderOptions struct {
	DescriptiveClassTitle   bool
	DescriptiveModuleTitle  bool
	AddSourceLink           bool
	AddMemberClassPrefix    bool
	RenderTOC               bool
	RenderModuleHeader      bool
	EscapeHTMLInDocstring   bool
	DataExpressionMaxLength int
	SourceLinker            SourceLinker
}

// DefaultRenderOptions returns the settings used for reference pages. The
// page supplies its own title, so module headers and the TOC are off.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		AddSourceLink:           true,
		AddMemberClassPrefix:    true,
		EscapeHTMLInDocstring:   true,
		DataExpressionMaxLength: 100,
	}
}

// MarkdownRenderer renders modules as a sequence of anchored sections.
type MarkdownRenderer struct {
	opts RenderOptions
}

// NewMarkdownRenderer creates a renderer with opts.
func NewMarkdownRenderer(opts RenderOptions) *MarkdownRenderer {
	return &MarkdownRenderer{opts: opts}
}

// Render implements Renderer. The result ends in a newline unless empty.
func (r *MarkdownRenderer) Render(modules []*Module) (string, error) {
	var blocks []string
	if r.opts.RenderTOC {
		if toc := r.toc(modules); toc != "" {
			blocks = append(blocks, toc)
		}
	}
	for _, m := range modules {
		blocks = r.renderObject(blocks, m)
	}
	if len(blocks) == 0 {
		return "", nil
	}
	return strings.Join(blocks, "\n\n") + "\n", nil
}

func (r *MarkdownRenderer) renderObject(blocks []string, o Object) []string {
	if _, ok := o.(*Indirection); ok {
		return blocks
	}
	_, isModule := o.(*Module)

	if !isModule || r.opts.RenderModuleHeader {
		blocks = append(blocks,
			fmt.Sprintf(`<a id="%s"></a>`, QualifiedName(o)),
			strings.Repeat("#", r.level(o))+" "+escapeHeader(r.title(o)),
		)
		if sig := r.signature(o); sig != "" {
			blocks = append(blocks, "```python\n"+sig+"\n```")
		}
		if r.opts.AddSourceLink && r.opts.SourceLinker != nil && !isModule {
			if url := r.opts.SourceLinker.SourceURL(LocationOf(o)); url != "" {
				blocks = append(blocks, "[[view_source]]("+url+")")
			}
		}
	}

	if doc := DocstringOf(o); doc != "" {
		if r.opts.EscapeHTMLInDocstring {
			doc = escapeHTML(doc)
		}
		blocks = append(blocks, doc)
	}

	for _, m := range Members(o) {
		blocks = r.renderObject(blocks, m)
	}
	return blocks
}

func (r *MarkdownRenderer) level(o Object) int {
	switch o.(type) {
	case *Module:
		return LevelModule
	case *Class:
		return LevelClass
	}
	return LevelMember
}

func (r *MarkdownRenderer) title(o Object) string {
	name := NameOf(o)
	switch o.(type) {
	case *Module:
		if r.opts.DescriptiveModuleTitle {
			return "Module " + name
		}
		return name
	case *Class:
		if r.opts.DescriptiveClassTitle {
			name += " Objects"
		}
	}
	if r.opts.AddMemberClassPrefix {
		if parent, ok := ParentOf(o).(*Class); ok {
			return parent.Name + "." + name
		}
	}
	return name
}

func (r *MarkdownRenderer) signature(o Object) string {
	switch v := o.(type) {
	case *Function:
		return FunctionSignature(v)
	case *Class:
		lines := append([]string(nil), v.Decorators...)
		lines = append(lines, "class "+v.Name+"("+strings.Join(v.Bases, ", ")+")")
		return strings.Join(lines, "\n")
	case *Variable:
		return r.dataSignature(v)
	}
	return ""
}

// FunctionSignature formats a def line preceded by its decorators.
func FunctionSignature(f *Function) string {
	lines := append([]string(nil), f.Decorators...)
	var b strings.Builder
	if f.Async {
		b.WriteString("async ")
	}
	b.WriteString("def " + f.Name + "(" + formatArgs(f.Args) + ")")
	if f.ReturnType != "" {
		b.WriteString(" -> " + f.ReturnType)
	}
	return strings.Join(append(lines, b.String()), "\n")
}

func formatArgs(args []Argument) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		var s string
		switch a.Kind {
		case ArgPositionalOnlyMarker:
			parts = append(parts, "/")
			continue
		case ArgKeywordOnlyMarker:
			parts = append(parts, "*")
			continue
		case ArgVarPositional:
			s = "*" + a.Name
		case ArgVarKeyword:
			s = "**" + a.Name
		default:
			s = a.Name
		}
		if a.Type != "" {
			s += ": " + a.Type
		}
		if a.Default != "" {
			if a.Type != "" {
				s += " = " + a.Default
			} else {
				s += "=" + a.Default
			}
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

func (r *MarkdownRenderer) dataSignature(v *Variable) string {
	s := v.Name
	if v.Datatype != "" {
		s += ": " + v.Datatype
	}
	if v.Value == "" {
		return s
	}
	value := v.Value
	if limit := r.opts.DataExpressionMaxLength; limit > 0 && utf8.RuneCountInString(value) > limit {
		value = string([]rune(value)[:limit]) + "..."
	}
	return s + " = " + value
}

func (r *MarkdownRenderer) toc(modules []*Module) string {
	var lines []string
	for _, m := range modules {
		depth := 0
		if r.opts.RenderModuleHeader {
			lines = append(lines, fmt.Sprintf("* [%s](#%s)", m.Name, m.Name))
			depth = 1
		}
		var visit func(o Object, depth int)
		visit = func(o Object, depth int) {
			for _, c := range Members(o) {
				if _, ok := c.(*Indirection); ok {
					continue
				}
				lines = append(lines, fmt.Sprintf("%s* [%s](#%s)", strings.Repeat("  ", depth), NameOf(c), QualifiedName(c)))
				visit(c, depth+1)
			}
		}
		visit(m, depth)
	}
	if len(lines) == 0 {
		return ""
	}
	return "**Table of Contents**\n\n" + strings.Join(lines, "\n")
}

var headerEscaper = strings.NewReplacer("_", `\_`, "*", `\*`)

func escapeHeader(s string) string { return headerEscaper.Replace(s) }

// escapeHTML escapes HTML metacharacters, quotes included, outside code
// spans and blocks.
func escapeHTML(doc string) string {
	if !strings.ContainsAny(doc, `&<>"'`) {
		return doc
	}
	var b strings.Builder
	pos := 0
	for _, rg := range markdown.CodeRanges([]byte(doc)) {
		if rg.Start < pos {
			continue
		}
		b.WriteString(html.EscapeString(doc[pos:rg.Start]))
		b.WriteString(doc[rg.Start:rg.End])
		pos = rg.End
	}
	b.WriteString(html.EscapeString(doc[pos:]))
	return b.String()
}
