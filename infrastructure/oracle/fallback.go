// Package oracle provides oracle implementations: the deterministic
// fallback, the guard that substitutes it on failure, a response cache,
// an LLM-backed oracle and test doubles.
package oracle

import (
	"slices"
	"strings"

	"github.com/felixgeelhaar/toolplan/domain/oracle"
	"github.com/felixgeelhaar/toolplan/domain/state"
	"github.com/felixgeelhaar/toolplan/domain/tool"
)

// FallbackConfig configures the deterministic fallback.
type FallbackConfig struct {
	// Order lists tool names in domain priority order. Tools not listed
	// rank after listed ones, by ascending cost.
	Order []string

	// Hints proposes arguments per tool name.
	Hints map[string]ArgHint

	// Probability supplies success estimates. Defaults to NewSeeded(1, 0.4, 0.9).
	Probability ProbabilitySource
}

// Fallback answers every oracle operation locally and never fails.
type Fallback[S state.State] struct {
	rank  map[string]int
	hints map[string]ArgHint
	prob  ProbabilitySource
}

// NewFallback creates a fallback.
func NewFallback[S state.State](cfg FallbackConfig) *Fallback[S] {
	f := &Fallback[S]{
		rank:  make(map[string]int, len(cfg.Order)),
		hints: cfg.Hints,
		prob:  cfg.Probability,
	}
	for i, name := range cfg.Order {
		if _, ok := f.rank[name]; !ok {
			f.rank[name] = i
		}
	}
	if f.prob == nil {
		f.prob = NewSeeded(1, 0.4, 0.9)
	}
	return f
}

// RankTools orders candidates by domain order then cost. The i-th entry
// gets prior 1/(i+1).
func (f *Fallback[S]) RankTools(_ S, _ string, candidates []tool.Tool[S], topK int) []oracle.Ranked[S] {
	ordered := slices.Clone(candidates)
	slices.SortStableFunc(ordered, func(a, b tool.Tool[S]) int {
		if ra, rb := f.position(a.Name()), f.position(b.Name()); ra != rb {
			return ra - rb
		}
		switch {
		case a.Cost() < b.Cost():
			return -1
		case a.Cost() > b.Cost():
			return 1
		default:
			return 0
		}
	})
	if topK > 0 && len(ordered) > topK {
		ordered = ordered[:topK]
	}

	out := make([]oracle.Ranked[S], len(ordered))
	for i, t := range ordered {
		out[i] = oracle.Ranked[S]{
			Tool:   t,
			Prior:  1 / float64(i+1),
			Reason: "fallback order",
		}
	}
	return out
}

func (f *Fallback[S]) position(name string) int {
	if i, ok := f.rank[name]; ok {
		return i
	}
	return len(f.rank)
}

// ProposeArgs proposes tuples from the tool's hint, or from the goal's
// capitalised phrases. It always returns at least one well-formed tuple.
func (f *Fallback[S]) ProposeArgs(t tool.Tool[S], s S, goal string, max int) []tool.Args {
	var proposed []tool.Args
	if hint, ok := f.hints[t.Name()]; ok {
		proposed = hint(goal, s.Fields())
	} else {
		proposed = phraseArgs(tool.Arity(t), goal)
	}

	arity := tool.Arity(t)
	seen := make(map[string]bool)
	out := make([]tool.Args, 0, len(proposed))
	for _, args := range proposed {
		if len(args) != arity || slices.ContainsFunc(args, blank) {
			continue
		}
		key := args.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, args.Clone())
		if max > 0 && len(out) == max {
			break
		}
	}
	if len(out) == 0 {
		return []tool.Args{defaultArgs(t)}
	}
	return out
}

// EstimateSuccess returns the probability source's value for (s, t, args).
func (f *Fallback[S]) EstimateSuccess(s S, t tool.Tool[S], args tool.Args) float64 {
	return f.prob.Probability(state.Key(s.Fields()) + "|" + t.Name() + args.String())
}

// phraseArgs fills tuples of the given arity with consecutive phrases.
func phraseArgs(arity int, goal string) []tool.Args {
	if arity == 0 {
		return []tool.Args{{}}
	}
	ps := Phrases(goal)
	var out []tool.Args
	for i := 0; i+arity <= len(ps); i++ {
		out = append(out, tool.Args(ps[i:i+arity]).Clone())
	}
	return out
}

// defaultArgs uses the argument names themselves as values.
func defaultArgs[S state.State](t tool.Tool[S]) tool.Args {
	out := make(tool.Args, 0, tool.Arity(t))
	for _, name := range t.ArgNames() {
		out = append(out, name)
	}
	return out
}

func blank(v string) bool {
	return strings.TrimSpace(v) == ""
}
