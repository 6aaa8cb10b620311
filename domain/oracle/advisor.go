package oracle

import (
	"context"

	"github.com/felixgeelhaar/toolplan/domain/state"
	"github.com/felixgeelhaar/toolplan/domain/tool"
)

// Advice is an advisor's verdict on one planned step.
type Advice struct {
	Thought string    `json:"thought"`
	Args    tool.Args `json:"args"`
}

// Advisor reviews a planned step right before it is executed and may
// replace its arguments. Callers keep the planned arguments when the
// advisor fails or answers with the wrong arity.
type Advisor[S state.State] interface {
	Advise(ctx context.Context, s S, goal string, t tool.Tool[S], planned tool.Args) (Advice, error)
}
