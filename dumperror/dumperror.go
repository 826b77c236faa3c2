// Package dumperror defines the tagged error-kind taxonomy shared by
// seqtable, lookup, and join (spec.md section 7), replacing the legacy
// integer error-code scheme (origin/object/action/outcome fields) with a
// single Kind plus message context attached at each boundary via
// github.com/pkg/errors.Wrap.
package dumperror

import "fmt"

// Kind classifies a pipeline error for the purposes of propagation and
// exit-code selection.
type Kind int

const (
	// IoFailure covers disk, cursor, or file-open failures. Always fatal
	// for the current stage.
	IoFailure Kind = iota
	// DataInvalid covers column-width mismatches, duplicate keys, and
	// row-geometry violations. Fatal under strict mode; otherwise the
	// offending row is counted and skipped.
	DataInvalid
	// NotFound covers a lookup miss. Always fatal for the affected spot;
	// fatal for the whole run under strict mode.
	NotFound
	// Cancelled covers cooperative cancellation after the quit flag is
	// set.
	Cancelled
	// ResourceExhausted covers allocation failure.
	ResourceExhausted
	// Usage covers bad argument combinations, detected before any
	// worker thread starts.
	Usage
)

func (k Kind) String() string {
	switch k {
	case IoFailure:
		return "IoFailure"
	case DataInvalid:
		return "DataInvalid"
	case NotFound:
		return "NotFound"
	case Cancelled:
		return "Cancelled"
	case ResourceExhausted:
		return "ResourceExhausted"
	case Usage:
		return "Usage"
	default:
		return "Unknown"
	}
}

// Error is a Kind tagged with an operation name and an underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error of the given kind, op, and cause.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of err if it (or something it wraps) is an
// *Error, and false otherwise.
func KindOf(err error) (Kind, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return 0, false
}

// Is reports whether err's Kind equals kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
