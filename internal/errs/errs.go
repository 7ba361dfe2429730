// Package errs defines the error taxonomy shared by the graph engine.
//
// Every structural failure is reported as an *Error whose Kind is one of the
// sentinel values below, so callers can branch with errors.Is:
//
//	if errors.Is(err, errs.ErrGraph) {
//	    stack.ResetState()
//	}
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds.
var (
	ErrArity = errors.New("arity error")
	ErrShape = errors.New("shape error")
	ErrGraph = errors.New("graph error")
	ErrState = errors.New("state error")
)

// Error carries the operation that failed and a human readable detail.
type Error struct {
	Kind   error  // One of ErrArity, ErrShape, ErrGraph, ErrState
	Op     string // Operation that detected the failure, e.g. "Linear.Forward"
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Detail)
}

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// Unwrap returns the kind sentinel.
func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, op, format string, args ...any) error {
	return errors.WithStack(&Error{
		Kind:   kind,
		Op:     op,
		Detail: fmt.Sprintf(format, args...),
	})
}

// Arity reports a wrong number of inputs or outputs.
func Arity(op, format string, args ...any) error {
	return newError(ErrArity, op, format, args...)
}

// Shape reports a tensor shape that does not fit the operator or its peer.
func Shape(op, format string, args ...any) error {
	return newError(ErrShape, op, format, args...)
}

// Graph reports a broken forward/backward pairing or a missing registration.
func Graph(op, format string, args ...any) error {
	return newError(ErrGraph, op, format, args...)
}

// State reports a mutation attempted while the graph is in the wrong phase.
func State(op, format string, args ...any) error {
	return newError(ErrState, op, format, args...)
}

// KindOf returns the sentinel kind of err, or nil if err is not from this package.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}
