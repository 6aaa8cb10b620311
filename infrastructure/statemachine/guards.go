package statemachine

import "github.com/felixgeelhaar/statekit"

// Guards receive the context by value, which here is *Context.

func guardHasRun(ctx *Context, _ statekit.Event) bool {
	return ctx != nil && ctx.Run != nil
}

func guardHasOutcome(ctx *Context, e statekit.Event) bool {
	if !guardHasRun(ctx, e) {
		return false
	}
	_, ok := outcomeOf(e)
	return ok
}
