// Package errors provides the classified error primitives used across refgen.
//
// A ClassifiedError carries a category (config, git, extract, render,
// filesystem, ...), a severity and a context map, and wraps its cause so the
// usual errors.Is / errors.As helpers keep working. The CLIErrorAdapter turns a
// classified error into a log line and a process exit code.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryGit, "fetch repository").
//		Fatal().
//		WithContext("repository", repo.Name).
//		WithContext("ref", "v"+repo.Version).
//		Build()
package errors
