package application_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/toolplan/domain/oracle"
	"github.com/felixgeelhaar/toolplan/domain/state"
	"github.com/felixgeelhaar/toolplan/domain/tool"
	"github.com/felixgeelhaar/toolplan/infrastructure/telemetry"
)

// chain advances through stages A, B, C, D; the goal is stage 4.
type chain struct{ Stage int }

func (c chain) IsGoal() bool         { return c.Stage == 4 }
func (c chain) Fields() state.Fields { return state.Fields{{Name: "stage", Value: c.Stage}} }

func chainTools() []tool.Tool[chain] {
	var tools []tool.Tool[chain]
	for i, name := range []string{"A", "B", "C", "D"} {
		tools = append(tools, tool.NewBuilder[chain](name).
			WithCost(float64(i+1)).
			WithPrecondition(func(c chain) bool { return c.Stage == i }).
			WithEffect(func(c chain, _ tool.Args) (chain, error) {
				c.Stage = i + 1
				return c, nil
			}).
			MustBuild())
	}
	return tools
}

// fork offers two ways to pick a side, then finish.
type fork struct {
	Side string
	Done bool
}

func (f fork) IsGoal() bool { return f.Done }
func (f fork) Fields() state.Fields {
	return state.Fields{{Name: "side", Value: f.Side}, {Name: "done", Value: f.Done}}
}

func pick(name string) tool.Tool[fork] {
	return tool.NewBuilder[fork](name).
		WithCost(1).
		WithArgs("label").
		WithPrecondition(func(f fork) bool { return f.Side == "" }).
		WithEffect(func(f fork, a tool.Args) (fork, error) {
			f.Side = name + ":" + a[0]
			return f, nil
		}).
		MustBuild()
}

func finish() tool.Tool[fork] {
	return tool.NewBuilder[fork]("finish").
		WithCost(1).
		WithPrecondition(func(f fork) bool { return f.Side != "" && !f.Done }).
		WithEffect(func(f fork, _ tool.Args) (fork, error) {
			f.Done = true
			return f, nil
		}).
		MustBuild()
}

// trap leads to a state where nothing applies and the goal is unreachable.
func trap() tool.Tool[fork] {
	return tool.NewBuilder[fork]("trap").
		WithCost(0.1).
		WithPrecondition(func(f fork) bool { return f.Side == "" }).
		WithEffect(func(f fork, _ tool.Args) (fork, error) {
			f.Side = "stuck"
			return f, nil
		}).
		MustBuild()
}

// counter never reaches its goal.
type counter struct{ N int }

func (c counter) IsGoal() bool         { return false }
func (c counter) Fields() state.Fields { return state.Fields{{Name: "n", Value: c.N}} }

func increment() tool.Tool[counter] {
	return tool.NewBuilder[counter]("increment").
		WithCost(1).
		WithEffect(func(c counter, _ tool.Args) (counter, error) {
			c.N++
			return c, nil
		}).
		MustBuild()
}

// rankAll ranks candidates in the given order with prior 1.
func rankAll[S state.State](order ...string) func(S, string, []tool.Tool[S], int) ([]oracle.Ranked[S], error) {
	return func(_ S, _ string, candidates []tool.Tool[S], topK int) ([]oracle.Ranked[S], error) {
		var out []oracle.Ranked[S]
		for _, name := range order {
			for _, c := range candidates {
				if c.Name() == name {
					out = append(out, oracle.Ranked[S]{Tool: c, Prior: 1})
				}
			}
		}
		if len(out) > topK {
			out = out[:topK]
		}
		return out, nil
	}
}

// labels proposes n labels for unary tools and the empty tuple otherwise.
func labels[S state.State](n int) func(tool.Tool[S], S, string, int) ([]tool.Args, error) {
	return func(t tool.Tool[S], _ S, _ string, max int) ([]tool.Args, error) {
		if tool.Arity(t) == 0 {
			return []tool.Args{{}}, nil
		}
		var out []tool.Args
		for i := 0; i < n && i < max; i++ {
			out = append(out, tool.Args{fmt.Sprintf("l%d", i)})
		}
		return out, nil
	}
}

type countingMetrics struct {
	telemetry.NoopMetricsProvider
	expansions atomic.Int64
	candidates atomic.Int64
	searches   atomic.Int64
	outcome    atomic.Value
}

func (m *countingMetrics) RecordExpansion(context.Context, int) { m.expansions.Add(1) }

func (m *countingMetrics) RecordCandidate(context.Context, string, bool) { m.candidates.Add(1) }

func (m *countingMetrics) RecordSearch(_ context.Context, outcome string, _ time.Duration, _ int) {
	m.searches.Add(1)
	m.outcome.Store(outcome)
}
