package buildspec

import "strings"

// BuildError accumulates every validation failure found while building a
// Spec (spec.md §7 "BuildError": duplicate paths, missing endpoints,
// direction mismatches). Surfaced whole to the caller of Build — no events
// are produced for a failed build — rather than aborting on the first
// error, so an embedder sees every problem in one pass.
type BuildError struct {
	Errs []error
}

func (e *BuildError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return "buildspec: " + strings.Join(msgs, "; ")
}

func (e *BuildError) add(err error) {
	e.Errs = append(e.Errs, err)
}

// asError returns e as an error, or nil if it accumulated nothing.
func (e *BuildError) asError() error {
	if len(e.Errs) == 0 {
		return nil
	}
	return e
}
