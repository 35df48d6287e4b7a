package modctx

import "fmt"

// HandlerPanicError wraps a recovered panic from a Hook or Handler
// invocation (spec.md §4.I "a panicking hook or handler poisons its module";
// the module is marked poisoned in the Module Tree and takes no further
// events, but the run continues unless config.FailurePolicy is AbortOnFirst).
type HandlerPanicError struct {
	Module  int64
	Path    string
	Recover any
}

func (e *HandlerPanicError) Error() string {
	return fmt.Sprintf("modctx: module %d (%s) panicked during invocation: %v", e.Module, e.Path, e.Recover)
}
