// Package errz defines the internal invariant violations of the scope
// machinery. These indicate a bug in the code driving a ScopeStack, not bad
// input, and are raised with panic rather than returned.
package errz

import "fmt"

// ErrorKind represents the category of an invariant violation.
type ErrorKind int

const (
	// ErrUnbalanced indicates a pop that does not match the innermost push.
	ErrUnbalanced ErrorKind = iota
	// ErrStaleCursor indicates a cursor referencing a popped depth.
	ErrStaleCursor
	// ErrCrossing indicates cleanups requested between cursors that are not
	// in an ancestor relationship.
	ErrCrossing
	// ErrTerminated indicates a block that was expected to be open already
	// has a terminator.
	ErrTerminated
	// ErrState indicates any other inconsistent internal state.
	ErrState
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrUnbalanced:
		return "unbalanced scope"
	case ErrStaleCursor:
		return "stale cursor"
	case ErrCrossing:
		return "invalid cleanup range"
	case ErrTerminated:
		return "terminated block"
	case ErrState:
		return "inconsistent state"
	default:
		return "invariant violation"
	}
}

// InvariantError describes a violated precondition of the scope machinery.
type InvariantError struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	return fmt.Sprintf("internal error: %s: %s", e.Kind, e.Message)
}

// Panicf raises an InvariantError of the given kind.
func Panicf(kind ErrorKind, format string, args ...any) {
	panic(&InvariantError{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// Assert raises an InvariantError if cond is false.
func Assert(cond bool, kind ErrorKind, format string, args ...any) {
	if !cond {
		Panicf(kind, format, args...)
	}
}
