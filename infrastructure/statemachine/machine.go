// Package statemachine drives the search lifecycle with statekit:
// pending, searching, then exactly one of succeeded, failed or timed_out.
package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/toolplan/domain/search"
)

// Context carries the run record through the machine.
type Context struct {
	Run *search.Run
}

// State IDs mirror search phases.
const (
	statePending   statekit.StateID = statekit.StateID(search.PhasePending)
	stateSearching statekit.StateID = statekit.StateID(search.PhaseSearching)
	stateSucceeded statekit.StateID = statekit.StateID(search.PhaseSucceeded)
	stateFailed    statekit.StateID = statekit.StateID(search.PhaseFailed)
	stateTimedOut  statekit.StateID = statekit.StateID(search.PhaseTimedOut)
)

// Lifecycle events.
const (
	EventStart   statekit.EventType = "START"
	EventSucceed statekit.EventType = "SUCCEED"
	EventFail    statekit.EventType = "FAIL"
	EventTimeout statekit.EventType = "TIMEOUT"
)

// NewSearchMachine builds the lifecycle statechart.
func NewSearchMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("search").
		WithInitial(statePending).
		WithContext(&Context{}).
		WithAction("logEntry", logEntry).
		WithAction("start", markStarted).
		WithAction("succeed", markSucceeded).
		WithAction("fail", markFailed).
		WithGuard("hasRun", guardHasRun).
		WithGuard("hasOutcome", guardHasOutcome).
		State(statePending).
			On(EventStart).Target(stateSearching).Guard("hasRun").Do("start").
			Done().
		State(stateSearching).
			OnEntry("logEntry").
			On(EventSucceed).Target(stateSucceeded).Guard("hasOutcome").Do("succeed").
			On(EventFail).Target(stateFailed).Guard("hasOutcome").Do("fail").
			On(EventTimeout).Target(stateTimedOut).Guard("hasOutcome").Do("fail").
			Done().
		State(stateSucceeded).
			Final().
			OnEntry("logEntry").
			Done().
		State(stateFailed).
			Final().
			OnEntry("logEntry").
			Done().
		State(stateTimedOut).
			Final().
			OnEntry("logEntry").
			Done().
		Build()
}

// PhaseFromMachine converts a state ID to a search phase.
func PhaseFromMachine(id statekit.StateID) search.Phase {
	return search.Phase(id)
}
