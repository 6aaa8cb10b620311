package plan

import (
	"github.com/felixgeelhaar/toolplan/domain/state"
	"github.com/felixgeelhaar/toolplan/domain/tool"
)

// TraceStep records one applied step during simulation.
type TraceStep struct {
	Index       int               `json:"step"`
	Tool        string            `json:"tool"`
	Args        tool.Args         `json:"args"`
	Before      state.Fields      `json:"before"`
	After       state.Fields      `json:"after"`
	Observation state.Observation `json:"observation"`
}

// Trace is the per-step record of a simulation, the handoff format for reporting.
type Trace []TraceStep

// Final returns the last snapshot of the trace, or nil for an empty trace.
func (t Trace) Final() state.Fields {
	if len(t) == 0 {
		return nil
	}
	return t[len(t)-1].After
}

// Simulate replays p from initial, checking each step's precondition and
// arity. When a step cannot be applied it returns the state reached so far,
// the trace of the applied prefix, and a *PreconditionViolationError whose
// Kind says why.
func Simulate[S state.State](p Plan[S], initial S) (S, Trace, error) {
	current := initial
	trace := make(Trace, 0, len(p))

	for i, step := range p {
		next, err := tool.Invoke(step.Tool, current, step.Args)
		if err != nil {
			return current, trace, &PreconditionViolationError[S]{
				Index:   i,
				Step:    step,
				State:   current,
				Partial: p[:i:i],
				Cause:   err,
			}
		}

		before := current.Fields()
		after := next.Fields()
		trace = append(trace, TraceStep{
			Index:       i,
			Tool:        step.Tool.Name(),
			Args:        step.Args.Clone(),
			Before:      before,
			After:       after,
			Observation: state.Diff(before, after),
		})
		current = next
	}

	return current, trace, nil
}

// Valid reports whether p replays from initial without violations and reaches the goal.
func Valid[S state.State](p Plan[S], initial S) bool {
	final, _, err := Simulate(p, initial)
	return err == nil && final.IsGoal()
}
