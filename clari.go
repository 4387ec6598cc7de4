// Package clari builds, canonicalizes and caches immutable symbolic
// expressions over booleans, bit-vectors, floating point values, strings and
// value sets. Expressions are only produced through a Factory, which
// hash-conses every node so structurally equal expressions share a single
// instance.
package clari

import (
	"fmt"

	"github.com/pkg/errors"
)

// Standard widths.
const (
	Width8  = 8
	Width16 = 16
	Width32 = 32
	Width64 = 64
)

// Error taxonomy. Errors returned by this package wrap one of these so that
// callers can discriminate with errors.Is.
var (
	// ErrUsage means a caller violated a precondition.
	ErrUsage = errors.New("usage error")

	// ErrType means an operand sort does not match what an operator accepts.
	ErrType = errors.New("type error")

	// ErrUnsupported means a construct is well-formed but not implementable
	// by the current backend.
	ErrUnsupported = errors.New("unsupported")

	// ErrInternal means a defect in the core itself.
	ErrInternal = errors.New("internal error")

	// ErrBadVariant means a literal's tag disagrees with its stored value.
	ErrBadVariant = &internalError{msg: "bad variant"}
)

var (
	ErrSolverTimeout       = errors.New("Solver timeout")
	ErrSolverCanceled      = errors.New("Solver canceled")
	ErrSolverResourceLimit = errors.New("Solver resource limit")
	ErrSolverUnknown       = errors.New("Solver unknown error")
)

// internalError is a named internal error that also matches ErrInternal.
type internalError struct {
	msg string
}

func (e *internalError) Error() string { return e.msg }
func (e *internalError) Unwrap() error { return ErrInternal }

// IsInternal returns true if err reports a defect in the core rather than
// caller misuse.
func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

// assert panics if condition is false.
func assert(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(fmt.Sprintf("assert: "+format, args...))
	}
}
