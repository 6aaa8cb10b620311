package plan

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/toolplan/domain/state"
	"github.com/felixgeelhaar/toolplan/domain/tool"
)

// ErrPreconditionViolation indicates a replayed step could not be applied.
var ErrPreconditionViolation = errors.New("precondition violation")

// Violation classifies why a replayed step could not be applied.
type Violation string

const (
	// ViolationPrecondition means the step's precondition did not hold.
	ViolationPrecondition Violation = "precondition"
	// ViolationArity means the recorded arguments do not fit the tool.
	ViolationArity Violation = "arity"
	// ViolationEffect means the precondition held but the effect failed or panicked.
	ViolationEffect Violation = "effect"
)

// PreconditionViolationError reports the step at which replay stopped. It
// covers every contract breach found while replaying, not only failed
// preconditions; Kind tells them apart. Partial holds the steps applied
// successfully before Index.
type PreconditionViolationError[S state.State] struct {
	Index   int
	Step    Step[S]
	State   S
	Partial Plan[S]
	Cause   error
}

// Kind classifies the breach from Cause.
func (e *PreconditionViolationError[S]) Kind() Violation {
	switch {
	case errors.Is(e.Cause, tool.ErrArity):
		return ViolationArity
	case errors.Is(e.Cause, tool.ErrInvalidApplication):
		return ViolationEffect
	default:
		return ViolationPrecondition
	}
}

// Error implements error.
func (e *PreconditionViolationError[S]) Error() string {
	msg := fmt.Sprintf("step %d: %s%s: %s violation at state {%s}",
		e.Index, e.Step.Tool.Name(), e.Step.Args, e.Kind(), e.State.Fields())
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Is matches ErrPreconditionViolation.
func (e *PreconditionViolationError[S]) Is(target error) bool {
	return target == ErrPreconditionViolation
}

// Unwrap returns the underlying tool error.
func (e *PreconditionViolationError[S]) Unwrap() error {
	return e.Cause
}
