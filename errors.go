package opruntime

import (
	"fmt"
	"runtime/debug"
)

// ErrorKind classifies a RunError the way spec.md §7 requires: callers
// branch on kind rather than string-matching messages.
type ErrorKind int

const (
	// ErrorKindRun wraps a panic or error raised by the operation's own
	// run function.
	ErrorKindRun ErrorKind = iota
	// ErrorKindCancelled reports that the run was cancelled before it
	// produced a final value.
	ErrorKindCancelled
	// ErrorKindTimeout reports that a deadline bound to the run elapsed.
	ErrorKindTimeout
	// ErrorKindDependency wraps a failure that originated in a
	// dependency task rather than the failing task itself.
	ErrorKindDependency
	// ErrorKindCycleDetected reports that a dependency edge was rejected
	// because it would have closed a cycle in the dependency graph.
	ErrorKindCycleDetected
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindCancelled:
		return "cancelled"
	case ErrorKindTimeout:
		return "timeout"
	case ErrorKindDependency:
		return "dependency"
	case ErrorKindCycleDetected:
		return "cycle_detected"
	default:
		return "run"
	}
}

// RunError is the error type this runtime surfaces for failed runs. It
// carries a Kind for programmatic branching, the Path of the Store the
// failure belongs to, the wrapped cause, and a captured stack trace from
// the point of failure, mirroring the teacher's ResolveError (errors.go)
// which attaches debug.Stack() at construction so panics recovered deep
// inside a run keep their original trace instead of the recovering
// goroutine's own.
type RunError struct {
	Kind  ErrorKind
	Path  Path
	Cause error
	Stack string
}

func newRunError(kind ErrorKind, path Path, cause error) *RunError {
	return &RunError{
		Kind:  kind,
		Path:  path,
		Cause: cause,
		Stack: string(debug.Stack()),
	}
}

func (e *RunError) Error() string {
	if e.Path.Len() == 0 {
		return fmt.Sprintf("opruntime: %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("opruntime: %s at %s: %v", e.Kind, e.Path, e.Cause)
}

func (e *RunError) Unwrap() error { return e.Cause }

// recoverToError converts a recovered panic value into a RunError with
// ErrorKindRun, so a panicking run function behaves like one that
// returned an error instead of crashing the process. Grounded on the
// teacher's executeFlow panic-recovery block (flow.go), which does the
// same conversion before handing control back to the caller.
func recoverToError(path Path, r any) *RunError {
	var cause error
	switch v := r.(type) {
	case error:
		cause = v
	default:
		cause = fmt.Errorf("panic: %v", v)
	}
	return newRunError(ErrorKindRun, path, cause)
}

// ErrCancelled is returned by Run when the caller's context was
// cancelled before the operation produced a result.
var ErrCancelled = fmt.Errorf("opruntime: run cancelled")
