package pydoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectDialect(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want Dialect
	}{
		{"plain", "Just text.", DialectPlain},
		{"sphinx", "Text.\n\n:param x: value", DialectSphinx},
		{"google", "Text.\n\nArgs:\n    x: value", DialectGoogle},
		{"pydocmd", "Text.\n\n# Arguments\nx: value", DialectPydocmd},
		{"fenced header ignored", "Text.\n\n```\nArgs:\n    x: value\n```", DialectPlain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDialect(tt.doc))
		})
	}
}

func TestConvertDocstring_Google(t *testing.T) {
	doc := "Initialise the SDK.\n\n" +
		"Args:\n" +
		"    app_info: Information about the application.\n" +
		"    mode (str): Runtime mode.\n" +
		"        Either \"asgi\" or \"wsgi\".\n\n" +
		"Returns:\n" +
		"    Nothing."

	want := "Initialise the SDK.\n\n" +
		"**Arguments**:\n\n" +
		"- `app_info`: Information about the application.\n" +
		"- `mode` (`str`): Runtime mode. Either \"asgi\" or \"wsgi\".\n\n" +
		"**Returns**:\n\n" +
		"Nothing."

	assert.Equal(t, want, ConvertDocstring(doc))
}

func TestConvertDocstring_GoogleExampleFencesDoctest(t *testing.T) {
	doc := "Adds.\n\nExample:\n    >>> add(1, 2)\n    3\n\nMore text."

	want := "Adds.\n\n**Example**:\n\n```python\n>>> add(1, 2)\n3\n```\n\nMore text."

	assert.Equal(t, want, ConvertDocstring(doc))
}

func TestConvertDocstring_Sphinx(t *testing.T) {
	doc := "Refresh the session.\n\n" +
		":param force: skip the expiry check\n" +
		":type force: bool\n" +
		":returns: the refreshed session\n" +
		":rtype: Session\n" +
		":raises SessionError: when the session\n" +
		"    was revoked"

	want := "Refresh the session.\n\n" +
		"**Arguments**:\n\n" +
		"- `force` (`bool`): skip the expiry check\n\n" +
		"**Returns**:\n\n" +
		"`Session`: the refreshed session\n\n" +
		"**Raises**:\n\n" +
		"- `SessionError`: when the session was revoked"

	assert.Equal(t, want, ConvertDocstring(doc))
}

func TestConvertDocstring_Pydocmd(t *testing.T) {
	doc := "Do things.\n\n# Arguments\nx (int): The x value.\ny: The y value.\n\n# Returns\nThe result."

	want := "Do things.\n\n" +
		"**Arguments**:\n\n" +
		"- `x` (`int`): The x value.\n" +
		"- `y`: The y value.\n\n" +
		"**Returns**:\n\n" +
		"The result."

	assert.Equal(t, want, ConvertDocstring(doc))
}

func TestConvertDocstring_PlainUnchanged(t *testing.T) {
	doc := "Returns the thing.\n\n```python\nArgs:\n```"
	assert.Equal(t, doc, ConvertDocstring(doc))
}

func TestSmartProcessor_ReportsNoStructuralChange(t *testing.T) {
	f := &Function{Base: Base{Name: "f", Docstring: "F.\n\nArgs:\n    x: X."}}
	m := &Module{Base: Base{Name: "m"}, Members: []Object{f}}
	f.Parent = m

	out, err := (&SmartProcessor{}).Process([]*Module{m})
	assert.NoError(t, err)
	assert.Nil(t, out)
	assert.Equal(t, "F.\n\n**Arguments**:\n\n- `x`: X.", f.Docstring)
}
