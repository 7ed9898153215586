// Package frontmatter builds and reads the YAML header of generated pages.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// ErrMissingClosingDelimiter is returned by Parse for an unterminated header.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Page is a document cut at its header delimiters. Header holds the raw
// YAML without delimiters and is nil when the document has none.
type Page struct {
	Header  []byte
	Body    []byte
	Newline string
}

// HasHeader reports whether the document opened with a header block.
func (p Page) HasHeader() bool { return p.Header != nil }

// Parse splits doc into header and body. The newline sequence of the first
// line decides whether delimiters are matched as LF or CRLF.
func Parse(doc []byte) (Page, error) {
	nl := lineEnding(doc)
	page := Page{Body: doc, Newline: nl}

	line := []byte(delimiter + nl)
	if !bytes.HasPrefix(doc, line) {
		return page, nil
	}
	rest := doc[len(line):]

	if bytes.HasPrefix(rest, line) {
		page.Header, page.Body = []byte{}, rest[len(line):]
		return page, nil
	}

	end := bytes.Index(rest, []byte(nl+delimiter+nl))
	if end < 0 {
		return Page{}, ErrMissingClosingDelimiter
	}
	page.Header = rest[:end+len(nl)]
	page.Body = rest[end+len(nl)+len(line):]
	return page, nil
}

// Bytes reassembles the document; Parse(doc).Bytes() returns doc.
func (p Page) Bytes() []byte {
	if !p.HasHeader() {
		return p.Body
	}
	nl := p.Newline
	if nl == "" {
		nl = "\n"
	}
	var buf bytes.Buffer
	buf.Grow(2*(len(delimiter)+len(nl)) + len(p.Header) + len(p.Body))
	buf.WriteString(delimiter + nl)
	buf.Write(p.Header)
	buf.WriteString(delimiter + nl)
	buf.Write(p.Body)
	return buf.Bytes()
}

// Fields decodes the header into a map; an empty header yields an empty map.
func (p Page) Fields() (map[string]any, error) {
	fields := map[string]any{}
	if len(p.Header) == 0 {
		return fields, nil
	}
	if err := yaml.Unmarshal(p.Header, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func lineEnding(doc []byte) string {
	if i := bytes.IndexByte(doc, '\n'); i > 0 && doc[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
