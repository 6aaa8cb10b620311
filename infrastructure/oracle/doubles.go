package oracle

import (
	"context"
	"sync/atomic"

	"github.com/felixgeelhaar/toolplan/domain/oracle"
	"github.com/felixgeelhaar/toolplan/domain/state"
	"github.com/felixgeelhaar/toolplan/domain/tool"
)

// Scripted answers through caller-supplied functions. A nil function
// fails with oracle.ErrUnavailable.
type Scripted[S state.State] struct {
	Rank    func(s S, goal string, candidates []tool.Tool[S], topK int) ([]oracle.Ranked[S], error)
	Args    func(t tool.Tool[S], s S, goal string, max int) ([]tool.Args, error)
	Success func(s S, t tool.Tool[S], args tool.Args) (float64, error)

	calls atomic.Int64
}

// RankTools implements oracle.Oracle.
func (o *Scripted[S]) RankTools(_ context.Context, s S, goal string, candidates []tool.Tool[S], topK int) ([]oracle.Ranked[S], error) {
	o.calls.Add(1)
	if o.Rank == nil {
		return nil, oracle.ErrUnavailable
	}
	return o.Rank(s, goal, candidates, topK)
}

// ProposeArgs implements oracle.Oracle.
func (o *Scripted[S]) ProposeArgs(_ context.Context, t tool.Tool[S], s S, goal string, max int) ([]tool.Args, error) {
	o.calls.Add(1)
	if o.Args == nil {
		return nil, oracle.ErrUnavailable
	}
	return o.Args(t, s, goal, max)
}

// EstimateSuccess implements oracle.Oracle.
func (o *Scripted[S]) EstimateSuccess(_ context.Context, s S, t tool.Tool[S], args tool.Args) (float64, error) {
	o.calls.Add(1)
	if o.Success == nil {
		return 0, oracle.ErrUnavailable
	}
	return o.Success(s, t, args)
}

// Calls returns the number of operations invoked.
func (o *Scripted[S]) Calls() int64 {
	return o.calls.Load()
}

// Failing fails every operation with Err, or oracle.ErrUnavailable.
type Failing[S state.State] struct {
	Err error

	calls atomic.Int64
}

func (o *Failing[S]) err() error {
	o.calls.Add(1)
	if o.Err != nil {
		return o.Err
	}
	return oracle.ErrUnavailable
}

// RankTools implements oracle.Oracle.
func (o *Failing[S]) RankTools(context.Context, S, string, []tool.Tool[S], int) ([]oracle.Ranked[S], error) {
	return nil, o.err()
}

// ProposeArgs implements oracle.Oracle.
func (o *Failing[S]) ProposeArgs(context.Context, tool.Tool[S], S, string, int) ([]tool.Args, error) {
	return nil, o.err()
}

// EstimateSuccess implements oracle.Oracle.
func (o *Failing[S]) EstimateSuccess(context.Context, S, tool.Tool[S], tool.Args) (float64, error) {
	return 0, o.err()
}

// Calls returns the number of operations invoked.
func (o *Failing[S]) Calls() int64 {
	return o.calls.Load()
}
