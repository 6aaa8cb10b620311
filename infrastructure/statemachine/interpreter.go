package statemachine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/toolplan/domain/search"
)

// Lifecycle wraps the statekit interpreter for one search run.
type Lifecycle struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewLifecycle creates a pending lifecycle for run.
func NewLifecycle(run *search.Run) (*Lifecycle, error) {
	machine, err := NewSearchMachine()
	if err != nil {
		return nil, fmt.Errorf("build search machine: %w", err)
	}

	ctx := &Context{Run: run}
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	interp.Start()

	return &Lifecycle{interp: interp, ctx: ctx}, nil
}

// Begin moves the run from pending to searching.
func (l *Lifecycle) Begin() error {
	return l.send(statekit.Event{Type: EventStart}, search.PhaseSearching)
}

// Succeed finishes the run with a plan of the given length.
func (l *Lifecycle) Succeed(planLength int) error {
	return l.send(statekit.Event{Type: EventSucceed, Payload: Outcome{PlanLength: planLength}}, search.PhaseSucceeded)
}

// Finish ends the run with err: timed out for ErrPlanningTimedOut, failed otherwise.
func (l *Lifecycle) Finish(err error) error {
	if errors.Is(err, search.ErrPlanningTimedOut) {
		return l.send(statekit.Event{Type: EventTimeout, Payload: Outcome{Err: err}}, search.PhaseTimedOut)
	}
	return l.send(statekit.Event{Type: EventFail, Payload: Outcome{Err: err}}, search.PhaseFailed)
}

// accepts lists the events each non-final phase handles.
var accepts = map[search.Phase][]statekit.EventType{
	search.PhasePending:   {EventStart},
	search.PhaseSearching: {EventSucceed, EventFail, EventTimeout},
}

// send delivers e and checks that the machine reached want. Events the
// current phase does not handle are rejected without reaching statekit.
func (l *Lifecycle) send(e statekit.Event, want search.Phase) error {
	from := l.Phase()
	if !slices.Contains(accepts[from], e.Type) {
		return fmt.Errorf("%s -> %s: %w", from, want, search.ErrInvalidTransition)
	}
	l.interp.Send(e)
	if got := l.Phase(); got != want {
		return fmt.Errorf("%s -> %s: %w", from, want, search.ErrInvalidTransition)
	}
	return nil
}

// Phase returns the machine's current phase.
func (l *Lifecycle) Phase() search.Phase {
	return PhaseFromMachine(l.interp.State().Value)
}

// Done reports whether a terminal phase was reached.
func (l *Lifecycle) Done() bool {
	return l.interp.Done()
}

// Run returns the run record kept in sync by the machine's actions.
func (l *Lifecycle) Run() *search.Run {
	return l.ctx.Run
}

// Stop releases the interpreter.
func (l *Lifecycle) Stop() {
	l.interp.Stop()
}
