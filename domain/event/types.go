package event

import (
	"time"

	"github.com/felixgeelhaar/toolplan/domain/plan"
	"github.com/felixgeelhaar/toolplan/domain/state"
	"github.com/felixgeelhaar/toolplan/domain/tool"
)

// Type classifies search events.
type Type string

// Event types for the planner.
const (
	// Search lifecycle events
	TypeSearchStarted   Type = "search.started"
	TypeSearchSucceeded Type = "search.succeeded"
	TypeSearchFailed    Type = "search.failed"
	TypeSearchTimedOut  Type = "search.timed_out"

	// Expansion events
	TypeNodeExpanded       Type = "node.expanded"
	TypeNodeDiscarded      Type = "node.discarded"
	TypeToolsRanked        Type = "tools.ranked"
	TypeCandidateEvaluated Type = "candidate.evaluated"
	TypeSuccessorChosen    Type = "successor.chosen"

	// Oracle events
	TypeOracleFallback Type = "oracle.fallback"

	// Replay events
	TypeStepExecuted Type = "step.executed"
)

// Reasons a popped node produces no successor.
const (
	DiscardClosed      = "closed"
	DiscardDeadEnd     = "dead_end"
	DiscardNoRanking   = "no_ranking"
	DiscardNoCandidate = "no_viable_candidate"
)

// Event payload structures

// SearchStartedPayload contains data for search.started events.
type SearchStartedPayload struct {
	Goal          string       `json:"goal"`
	Initial       state.Fields `json:"initial"`
	Tools         []string     `json:"tools"`
	TopK          int          `json:"top_k"`
	MaxArgs       int          `json:"max_args"`
	MaxExpansions int          `json:"max_expansions"`
}

// NodeExpandedPayload contains data for node.expanded events.
type NodeExpandedPayload struct {
	Expansion  int          `json:"expansion"`
	Step       int          `json:"step"`
	G          float64      `json:"g"`
	F          float64      `json:"f"`
	State      state.Fields `json:"state"`
	Applicable []string     `json:"applicable"`
}

// NodeDiscardedPayload contains data for node.discarded events.
type NodeDiscardedPayload struct {
	Expansion int          `json:"expansion"`
	Step      int          `json:"step"`
	Reason    string       `json:"reason"`
	State     state.Fields `json:"state"`
}

// RankedTool is one entry of a tools.ranked event.
type RankedTool struct {
	Name   string  `json:"name"`
	Prior  float64 `json:"prior"`
	Reason string  `json:"reason,omitempty"`
}

// ToolsRankedPayload contains data for tools.ranked events.
type ToolsRankedPayload struct {
	Expansion int          `json:"expansion"`
	Step      int          `json:"step"`
	Ranked    []RankedTool `json:"ranked"`
}

// CandidateEvaluatedPayload contains data for candidate.evaluated events.
// Viable is false when simulating the candidate failed; scores are then zero.
type CandidateEvaluatedPayload struct {
	Expansion   int       `json:"expansion"`
	Step        int       `json:"step"`
	Tool        string    `json:"tool"`
	Args        tool.Args `json:"args"`
	Prior       float64   `json:"prior"`
	Probability float64   `json:"probability"`
	CombinedP   float64   `json:"combined_p"`
	G           float64   `json:"g"`
	H           float64   `json:"h"`
	F           float64   `json:"f"`
	Viable      bool      `json:"viable"`
	Error       string    `json:"error,omitempty"`
}

// SuccessorChosenPayload contains data for successor.chosen events.
type SuccessorChosenPayload struct {
	Expansion   int          `json:"expansion"`
	Step        int          `json:"step"`
	Tool        string       `json:"tool"`
	Args        tool.Args    `json:"args"`
	Probability float64      `json:"probability"`
	CombinedP   float64      `json:"combined_p"`
	G           float64      `json:"g"`
	H           float64      `json:"h"`
	F           float64      `json:"f"`
	State       state.Fields `json:"state"`
}

// OracleFallbackPayload contains data for oracle.fallback events.
type OracleFallbackPayload struct {
	Operation string `json:"operation"`
	Tool      string `json:"tool,omitempty"`
	Error     string `json:"error"`
}

// SearchSucceededPayload contains data for search.succeeded events.
type SearchSucceededPayload struct {
	Plan       []plan.Record `json:"plan"`
	Cost       float64       `json:"cost"`
	Expansions int           `json:"expansions"`
	Duration   time.Duration `json:"duration"`
}

// SearchFailedPayload contains data for search.failed and search.timed_out events.
type SearchFailedPayload struct {
	Error      string        `json:"error"`
	Budget     string        `json:"budget,omitempty"`
	Partial    []plan.Record `json:"partial"`
	State      state.Fields  `json:"state"`
	Expansions int           `json:"expansions"`
	Duration   time.Duration `json:"duration"`
}

// StepExecutedPayload contains data for step.executed events.
type StepExecutedPayload struct {
	Step        int               `json:"step"`
	Tool        string            `json:"tool"`
	PlannedArgs tool.Args         `json:"planned_args"`
	Args        tool.Args         `json:"args"`
	Thought     string            `json:"thought,omitempty"`
	State       state.Fields      `json:"state"`
	Observation state.Observation `json:"observation,omitempty"`
	Error       string            `json:"error,omitempty"`
}
