package search

import (
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/toolplan/domain/plan"
	"github.com/felixgeelhaar/toolplan/domain/state"
)

// Terminal search failures.
var (
	// ErrPlanningFailed indicates the frontier was exhausted without reaching the goal.
	ErrPlanningFailed = errors.New("planning failed")

	// ErrPlanningTimedOut indicates the deadline or expansion budget was exceeded.
	ErrPlanningTimedOut = errors.New("planning timed out")

	// ErrInvalidTransition indicates an illegal search phase change.
	ErrInvalidTransition = errors.New("invalid search phase transition")
)

// FailedError reports an exhausted search.
// Partial is the plan of the deepest node expanded; State is the state it reached.
type FailedError[S state.State] struct {
	Expansions int
	Partial    plan.Plan[S]
	State      S
}

// Error implements error.
func (e *FailedError[S]) Error() string {
	return fmt.Sprintf("planning failed after %d expansions: no goal-reaching continuation (deepest partial plan: [%s])",
		e.Expansions, e.Partial)
}

// Is matches ErrPlanningFailed.
func (e *FailedError[S]) Is(target error) bool {
	return target == ErrPlanningFailed
}

// Budget identifies which limit a timed out search hit.
type Budget string

// Budget kinds.
const (
	BudgetDeadline   Budget = "deadline"
	BudgetExpansions Budget = "expansions"
)

// TimedOutError reports a search stopped by its deadline or expansion budget.
type TimedOutError[S state.State] struct {
	Budget     Budget
	Expansions int
	Elapsed    time.Duration
	Partial    plan.Plan[S]
	State      S
	Cause      error
}

// Error implements error.
func (e *TimedOutError[S]) Error() string {
	return fmt.Sprintf("planning timed out (%s budget) after %d expansions in %s (deepest partial plan: [%s])",
		e.Budget, e.Expansions, e.Elapsed.Round(time.Millisecond), e.Partial)
}

// Is matches ErrPlanningTimedOut.
func (e *TimedOutError[S]) Is(target error) bool {
	return target == ErrPlanningTimedOut
}

// Unwrap returns the context error for deadline timeouts.
func (e *TimedOutError[S]) Unwrap() error {
	return e.Cause
}
