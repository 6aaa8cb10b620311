package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/toolplan/domain/search"
	"github.com/felixgeelhaar/toolplan/infrastructure/logging"
)

// Outcome is the payload of terminal events.
type Outcome struct {
	PlanLength int
	Err        error
}

func outcomeOf(e statekit.Event) (Outcome, bool) {
	o, ok := e.Payload.(Outcome)
	return o, ok
}

// Actions receive **Context because the machine context is itself a pointer.

func logEntry(ctx **Context, e statekit.Event) {
	if ctx == nil || *ctx == nil || (*ctx).Run == nil {
		return
	}
	run := (*ctx).Run
	logging.Debug().
		Add(logging.SearchID(run.ID)).
		Add(logging.Phase(run.Phase.String())).
		Add(logging.Str("event", string(e.Type))).
		Msg("search phase entered")
}

func markStarted(ctx **Context, _ statekit.Event) {
	if ctx == nil || *ctx == nil || (*ctx).Run == nil {
		return
	}
	_ = (*ctx).Run.Start()
}

func markSucceeded(ctx **Context, e statekit.Event) {
	if ctx == nil || *ctx == nil || (*ctx).Run == nil {
		return
	}
	o, _ := outcomeOf(e)
	_ = (*ctx).Run.Succeed(o.PlanLength)
}

func markFailed(ctx **Context, e statekit.Event) {
	if ctx == nil || *ctx == nil || (*ctx).Run == nil {
		return
	}
	o, _ := outcomeOf(e)
	phase := search.PhaseFailed
	if e.Type == EventTimeout {
		phase = search.PhaseTimedOut
	}
	_ = (*ctx).Run.Fail(phase, o.Err)
}
