package pydoc

import (
	"regexp"
	"strings"
)

// SmartProcessor rewrites Sphinx, Google and pydocmd style docstring
// sections into Markdown. Plain docstrings pass through unchanged.
type SmartProcessor struct{}

// Process converts docstrings in place and reports no structural change.
func (s *SmartProcessor) Process(modules []*Module) ([]*Module, error) {
	for _, m := range modules {
		Walk(m, func(o Object) bool {
			if doc := DocstringOf(o); doc != "" {
				SetDocstring(o, ConvertDocstring(doc))
			}
			return true
		})
	}
	return nil, nil
}

// Dialect is a docstring convention.
type Dialect string

const (
	DialectPlain   Dialect = "plain"
	DialectSphinx  Dialect = "sphinx"
	DialectGoogle  Dialect = "google"
	DialectPydocmd Dialect = "pydocmd"
)

var (
	sphinxField   = regexp.MustCompile(`^\s*:(param|parameter|arg|argument|key|keyword|type|raises?|except|exception|returns?|rtype|yields?|ytype)\b[^:]*:`)
	googleHeader  = regexp.MustCompile(`^(Args|Arguments|Parameters|Params|Keyword Args|Keyword Arguments|Kwargs|Returns|Return|Yields|Yield|Raises|Exceptions|Attributes|Example|Examples|Note|Notes|Warning|Warnings|Todo|See Also):\s*$`)
	pydocmdHeader = regexp.MustCompile(`^#{1,3} (Arguments|Parameters|Returns|Return|Yields|Raises|Attributes|Example|Examples|Note|Notes)\s*$`)
	entryLine     = regexp.MustCompile(`^(\*{0,2}[A-Za-z_][\w.]*)\s*(?:\(([^)]*)\))?\s*:(?:\s+(.*))?$`)
)

var sectionTitles = map[string]string{
	"Args":              "Arguments",
	"Arguments":         "Arguments",
	"Parameters":        "Arguments",
	"Params":            "Arguments",
	"Keyword Args":      "Keyword Arguments",
	"Keyword Arguments": "Keyword Arguments",
	"Kwargs":            "Keyword Arguments",
	"Returns":           "Returns",
	"Return":            "Returns",
	"Yields":            "Yields",
	"Yield":             "Yields",
	"Raises":            "Raises",
	"Exceptions":        "Raises",
	"Attributes":        "Attributes",
}

var listSections = map[string]bool{
	"Arguments":         true,
	"Keyword Arguments": true,
	"Raises":            true,
	"Attributes":        true,
}

// DetectDialect reports which convention a docstring follows. Lines inside
// fenced code are ignored.
func DetectDialect(doc string) Dialect {
	google, pydocmd := false, false
	for _, line := range unfencedLines(doc) {
		switch {
		case sphinxField.MatchString(line):
			return DialectSphinx
		case googleHeader.MatchString(line):
			google = true
		case pydocmdHeader.MatchString(line):
			pydocmd = true
		}
	}
	switch {
	case google:
		return DialectGoogle
	case pydocmd:
		return DialectPydocmd
	}
	return DialectPlain
}

// unfencedLines returns the lines of doc outside ``` and ~~~ fences.
func unfencedLines(doc string) []string {
	var out []string
	fence := ""
	for _, line := range strings.Split(doc, "\n") {
		if f := fenceMarker(line); f != "" {
			if fence == "" {
				fence = f
				continue
			}
			if strings.HasPrefix(strings.TrimSpace(line), fence) {
				fence = ""
				continue
			}
		}
		if fence == "" {
			out = append(out, line)
		}
	}
	return out
}

func fenceMarker(line string) string {
	t := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(t, "```"):
		return "```"
	case strings.HasPrefix(t, "~~~"):
		return "~~~"
	}
	return ""
}

// ConvertDocstring rewrites doc according to its detected dialect.
func ConvertDocstring(doc string) string {
	switch DetectDialect(doc) {
	case DialectSphinx:
		return convertSphinx(doc)
	case DialectGoogle:
		return convertSections(doc, googleSectionStart, true)
	case DialectPydocmd:
		return convertSections(doc, pydocmdSectionStart, false)
	}
	return doc
}

type entry struct {
	name string
	typ  string
	desc string
}

type section struct {
	title   string
	entries []entry
	text    []string
}

func (s *section) render() string {
	var b strings.Builder
	b.WriteString("**" + s.title + "**:\n\n")
	if listSections[s.title] {
		for i, e := range s.entries {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString("- `" + e.name + "`")
			if e.typ != "" {
				b.WriteString(" (`" + e.typ + "`)")
			}
			if e.desc != "" {
				b.WriteString(": " + e.desc)
			}
		}
		return b.String()
	}
	b.WriteString(strings.Join(wrapDoctests(s.text), "\n"))
	return strings.TrimRight(b.String(), "\n")
}

func (s *section) addEntryLines(lines []string) {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		indented := len(line) > len(strings.TrimLeft(line, " "))
		if m := entryLine.FindStringSubmatch(trimmed); m != nil && (!indented || len(s.entries) == 0) {
			s.entries = append(s.entries, entry{name: m[1], typ: strings.TrimSpace(m[2]), desc: strings.TrimSpace(m[3])})
			continue
		}
		if len(s.entries) == 0 {
			s.entries = append(s.entries, entry{name: trimmed})
			continue
		}
		last := &s.entries[len(s.entries)-1]
		last.desc = strings.TrimSpace(last.desc + " " + trimmed)
	}
}

// wrapDoctests fences runs of interactive `>>>` examples.
func wrapDoctests(lines []string) []string {
	var out []string
	in := false
	for _, line := range lines {
		isPrompt := strings.HasPrefix(strings.TrimSpace(line), ">>>")
		switch {
		case isPrompt && !in:
			out = append(out, "```python")
			in = true
		case in && strings.TrimSpace(line) == "":
			out = append(out, "```")
			in = false
		}
		out = append(out, line)
	}
	if in {
		out = append(out, "```")
	}
	return out
}

type sectionStart func(line string) (title string, ok bool)

func googleSectionStart(line string) (string, bool) {
	m := googleHeader.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	if t, ok := sectionTitles[m[1]]; ok {
		return t, true
	}
	return m[1], true
}

func pydocmdSectionStart(line string) (string, bool) {
	m := pydocmdHeader.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	if t, ok := sectionTitles[m[1]]; ok {
		return t, true
	}
	return m[1], true
}

// convertSections handles header-delimited dialects. When indented is true
// a section body is the indented block under its header (Google); otherwise
// it runs to the next blank line (pydocmd).
func convertSections(doc string, start sectionStart, indented bool) string {
	lines := strings.Split(doc, "\n")
	var out []string
	fence := ""
	afterSection := false
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if afterSection && strings.TrimSpace(line) == "" {
			continue
		}
		afterSection = false
		if f := fenceMarker(line); f != "" {
			switch {
			case fence == "":
				fence = f
			case strings.HasPrefix(strings.TrimSpace(line), fence):
				fence = ""
			}
			out = append(out, line)
			continue
		}
		title, ok := "", false
		if fence == "" {
			title, ok = start(line)
		}
		if !ok {
			out = append(out, line)
			continue
		}

		var body []string
		j := i + 1
		for ; j < len(lines); j++ {
			l := lines[j]
			blank := strings.TrimSpace(l) == ""
			if indented {
				if !blank && !strings.HasPrefix(l, " ") {
					break
				}
			} else if blank && len(body) > 0 {
				break
			} else if _, next := start(l); next {
				break
			}
			body = append(body, l)
		}
		i = j - 1
		body = dedent(trimBlank(body))

		s := &section{title: title}
		if listSections[title] {
			s.addEntryLines(body)
		} else {
			s.text = body
		}
		if len(out) > 0 && strings.TrimSpace(out[len(out)-1]) != "" {
			out = append(out, "")
		}
		out = append(out, s.render(), "")
		afterSection = true
	}
	return strings.Join(trimBlank(out), "\n")
}

type fieldItem struct {
	kind string
	arg  string
	text string
}

var sphinxFieldParts = regexp.MustCompile(`^\s*:(\w+)((?:\s+[^:]+)?)\s*:\s*(.*)$`)

func convertSphinx(doc string) string {
	var text []string
	var fields []*fieldItem
	fence := ""
	for _, line := range strings.Split(doc, "\n") {
		if f := fenceMarker(line); f != "" {
			switch {
			case fence == "":
				fence = f
			case strings.HasPrefix(strings.TrimSpace(line), fence):
				fence = ""
			}
			text = append(text, line)
			continue
		}
		if fence == "" {
			if m := sphinxFieldParts.FindStringSubmatch(line); m != nil && sphinxField.MatchString(line) {
				fields = append(fields, &fieldItem{kind: m[1], arg: strings.TrimSpace(m[2]), text: strings.TrimSpace(m[3])})
				continue
			}
			if len(fields) > 0 && strings.HasPrefix(line, " ") && strings.TrimSpace(line) != "" {
				last := fields[len(fields)-1]
				last.text = strings.TrimSpace(last.text + " " + strings.TrimSpace(line))
				continue
			}
		}
		text = append(text, line)
	}

	args := &section{title: "Arguments"}
	raises := &section{title: "Raises"}
	returns := &section{title: "Returns"}
	types := map[string]string{}
	var rtype, rdesc string
	for _, f := range fields {
		switch f.kind {
		case "type":
			types[f.arg] = f.text
		case "rtype":
			rtype = f.text
		}
	}
	for _, f := range fields {
		switch f.kind {
		case "param", "parameter", "arg", "argument", "key", "keyword":
			name, typ := f.arg, ""
			if parts := strings.Fields(f.arg); len(parts) > 1 {
				name = parts[len(parts)-1]
				typ = strings.Join(parts[:len(parts)-1], " ")
			}
			if t, ok := types[name]; ok {
				typ = t
			}
			args.entries = append(args.entries, entry{name: name, typ: typ, desc: f.text})
		case "raises", "raise", "except", "exception":
			raises.entries = append(raises.entries, entry{name: f.arg, desc: f.text})
		case "returns", "return", "yields", "yield":
			rdesc = f.text
		}
	}
	if rtype != "" || rdesc != "" {
		line := rdesc
		if rtype != "" {
			line = strings.TrimSpace("`" + rtype + "`: " + rdesc)
			line = strings.TrimSuffix(line, ":")
		}
		returns.text = []string{line}
	}

	out := trimBlank(text)
	for _, s := range []*section{args, returns, raises} {
		if len(s.entries) == 0 && len(s.text) == 0 {
			continue
		}
		if len(out) > 0 {
			out = append(out, "")
		}
		out = append(out, s.render())
	}
	return strings.Join(out, "\n")
}

func trimBlank(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func dedent(lines []string) []string {
	margin := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		indent := len(l) - len(strings.TrimLeft(l, " "))
		if margin < 0 || indent < margin {
			margin = indent
		}
	}
	if margin <= 0 {
		return lines
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		if len(l) >= margin {
			out[i] = l[margin:]
		} else {
			out[i] = strings.TrimLeft(l, " ")
		}
	}
	return out
}
