package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Manifest is an arbitrary mapping written verbatim as a category descriptor.
//
// The YAML node is retained so the JSON rendering keeps the key order of the
// configuration file.
type Manifest struct {
	node *yaml.Node
}

// ManifestFromMap builds a manifest from a Go map (keys end up sorted).
func ManifestFromMap(m map[string]any) (Manifest, error) {
	var node yaml.Node
	if err := node.Encode(m); err != nil {
		return Manifest{}, fmt.Errorf("encode manifest: %w", err)
	}
	return Manifest{node: &node}, nil
}

// IsZero reports whether the manifest was never set.
func (m Manifest) IsZero() bool { return m.node == nil }

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Manifest) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: category must be a mapping", value.Line)
	}
	cp := *value
	m.node = &cp
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (m Manifest) MarshalYAML() (any, error) {
	if m.node == nil {
		return map[string]any{}, nil
	}
	return m.node, nil
}

// MarshalJSON renders the manifest as compact JSON preserving key order.
func (m Manifest) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if m.node == nil {
		buf.WriteString("{}")
		return buf.Bytes(), nil
	}
	if err := writeJSONNode(&buf, m.node); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// IndentedJSON renders the manifest with two-space indentation.
func (m Manifest) IndentedJSON() ([]byte, error) {
	compact, err := m.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func writeJSONNode(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeJSONNode(buf, n.Content[0])
	case yaml.AliasNode:
		return writeJSONNode(buf, n.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONString(buf, n.Content[i].Value); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeJSONNode(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, c := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONNode(buf, c); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case yaml.ScalarNode:
		return writeJSONScalar(buf, n)
	default:
		return fmt.Errorf("unsupported yaml node kind %d", n.Kind)
	}
	return nil
}

func writeJSONScalar(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.ShortTag() {
	case "!!null":
		buf.WriteString("null")
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return err
		}
		buf.WriteString(strconv.FormatBool(b))
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return err
		}
		buf.WriteString(strconv.FormatInt(i, 10))
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return err
		}
		out, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("category value %q: %w", n.Value, err)
		}
		buf.Write(out)
	default:
		return writeJSONString(buf, n.Value)
	}
	return nil
}

// writeJSONString quotes s without HTML escaping so labels such as "A & B"
// survive unchanged.
func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}
