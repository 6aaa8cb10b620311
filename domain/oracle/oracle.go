// Package oracle defines the capability the planner consults to rank tools,
// propose arguments and estimate success.
package oracle

import (
	"context"

	"github.com/felixgeelhaar/toolplan/domain/state"
	"github.com/felixgeelhaar/toolplan/domain/tool"
)

// Operation names an oracle operation.
type Operation string

// Oracle operations.
const (
	OpRankTools       Operation = "rank_tools"
	OpProposeArgs     Operation = "propose_args"
	OpEstimateSuccess Operation = "estimate_success"
)

// String returns the operation name.
func (o Operation) String() string {
	return string(o)
}

// Ranked is a tool with its prior probability of being the right next step.
type Ranked[S state.State] struct {
	Tool   tool.Tool[S]
	Prior  float64
	Reason string
}

// Oracle is the external, possibly unreliable capability.
// Every operation may fail; callers substitute a Fallback.
type Oracle[S state.State] interface {
	// RankTools orders candidates by prior, returning at most topK entries.
	RankTools(ctx context.Context, s S, goal string, candidates []tool.Tool[S], topK int) ([]Ranked[S], error)

	// ProposeArgs returns at most max argument tuples, each of t's arity.
	ProposeArgs(ctx context.Context, t tool.Tool[S], s S, goal string, max int) ([]tool.Args, error)

	// EstimateSuccess returns the probability in [0, 1] that (t, args) succeeds on s.
	EstimateSuccess(ctx context.Context, s S, t tool.Tool[S], args tool.Args) (float64, error)
}

// Fallback is the deterministic substitute for every oracle operation.
// Implementations never fail.
type Fallback[S state.State] interface {
	RankTools(s S, goal string, candidates []tool.Tool[S], topK int) []Ranked[S]
	ProposeArgs(t tool.Tool[S], s S, goal string, max int) []tool.Args
	EstimateSuccess(s S, t tool.Tool[S], args tool.Args) float64
}
