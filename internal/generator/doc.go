// Package generator produces one Markdown reference page per configured
// module. Failures are contained per module: they are logged, reported on
// the returned Page and never abort the remaining modules.
package generator
