// Package orchestrator drives a full refgen run: for each configured
// repository it fetches the tagged checkout, generates every module page and
// writes the _category_.json descriptor next to them.
package orchestrator
