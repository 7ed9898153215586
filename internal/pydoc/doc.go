// Package pydoc extracts API documentation from Python sources and renders
// it as Markdown.
//
// The work happens in fixed stages: a Loader parses modules from an explicit
// search path, Processors rewrite the object tree (filter, smart, crossref),
// and a Renderer turns the result into a Markdown body. Pipeline wires the
// stages together; each stage is an interface so callers can swap in fakes.
package pydoc
