package generator

import "fmt"

// EmptyModuleError means extraction found nothing to document, usually a
// misconfigured path or a module removed upstream.
type EmptyModuleError struct {
	Module        string
	QualifiedName string
}

func (e *EmptyModuleError) Error() string {
	return fmt.Sprintf("no modules found for %s", e.QualifiedName)
}

// SubModuleError records a sub-module section that was omitted.
type SubModuleError struct {
	Parent        string
	SubModule     string
	QualifiedName string
	Err           error
}

func (e *SubModuleError) Error() string {
	return fmt.Sprintf("sub-module %s of %s: %v", e.SubModule, e.Parent, e.Err)
}

func (e *SubModuleError) Unwrap() error { return e.Err }

// ModuleError is any other failure while generating a page. Stack holds the
// trace where the failure was detected, or the panicking goroutine's trace.
type ModuleError struct {
	Module string
	Stage  string
	Err    error
	Stack  []byte
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("generate %s (%s): %v", e.Module, e.Stage, e.Err)
}

func (e *ModuleError) Unwrap() error { return e.Err }
