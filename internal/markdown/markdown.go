// Package markdown locates code inside rendered docstring Markdown so text
// rewrites can leave it untouched.
package markdown

import (
	"sort"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Range is a half-open byte range [Start, End) into a Markdown source.
type Range struct {
	Start int
	End   int
}

// Overlaps reports whether [start, end) overlaps r.
func (r Range) Overlaps(start, end int) bool {
	return start < r.End && end > r.Start
}

// Parse parses src into a Goldmark AST.
func Parse(src []byte) gmast.Node {
	return goldmark.New().Parser().Parse(text.NewReader(src))
}

// CodeRanges returns the byte ranges of code spans, fenced code blocks and
// indented code blocks in src, sorted by start offset.
func CodeRanges(src []byte) []Range {
	root := Parse(src)

	var ranges []Range
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.FencedCodeBlock:
			ranges = appendLines(ranges, node.Lines())
			return gmast.WalkSkipChildren, nil
		case *gmast.CodeBlock:
			ranges = appendLines(ranges, node.Lines())
			return gmast.WalkSkipChildren, nil
		case *gmast.CodeSpan:
			start, end := -1, -1
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				t, ok := c.(*gmast.Text)
				if !ok {
					continue
				}
				if start < 0 {
					start = t.Segment.Start
				}
				end = t.Segment.Stop
			}
			if start >= 0 {
				ranges = append(ranges, Range{Start: start, End: end})
			}
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})

	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })
	return ranges
}

func appendLines(ranges []Range, lines *text.Segments) []Range {
	if lines == nil || lines.Len() == 0 {
		return ranges
	}
	first, last := lines.At(0), lines.At(lines.Len()-1)
	return append(ranges, Range{Start: first.Start, End: last.Stop})
}

// InCode reports whether [start, end) overlaps any of ranges.
func InCode(ranges []Range, start, end int) bool {
	for _, r := range ranges {
		if r.Start >= end {
			return false
		}
		if r.Overlaps(start, end) {
			return true
		}
	}
	return false
}
