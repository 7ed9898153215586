package frontmatter

import (
	"bytes"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Header renders the page header fields in fixed order:
//
//	title: "<title>"
//	sidebar_position: <position>
func Header(title string, position int) ([]byte, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "title"},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: title, Style: yaml.DoubleQuotedStyle},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "sidebar_position"},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(position)},
	)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Compose prefixes body with a delimited header for title and position.
func Compose(title string, position int, body []byte) ([]byte, error) {
	fm, err := Header(title, position)
	if err != nil {
		return nil, err
	}
	return Page{Header: fm, Body: body, Newline: "\n"}.Bytes(), nil
}

// PageHeader holds the fields Header writes.
type PageHeader struct {
	Title           string
	SidebarPosition int
}

// ReadHeader decodes the header of an existing page. ok is false when doc
// has no header block.
func ReadHeader(doc []byte) (h PageHeader, ok bool, err error) {
	page, err := Parse(doc)
	if err != nil || !page.HasHeader() {
		return PageHeader{}, false, err
	}
	fields, err := page.Fields()
	if err != nil {
		return PageHeader{}, true, err
	}
	h.Title, _ = fields["title"].(string)
	h.SidebarPosition, _ = fields["sidebar_position"].(int)
	return h, true, nil
}
