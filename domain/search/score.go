// Package search provides the cost model and failure taxonomy of the best-first planner.
package search

import (
	"math"

	"github.com/felixgeelhaar/toolplan/domain/state"
	"github.com/felixgeelhaar/toolplan/domain/tool"
)

// DefaultEpsilon is the floor applied to combined probabilities.
const DefaultEpsilon = 1e-9

// Heuristic estimates the remaining cost from s: zero at the goal, otherwise
// the cheapest applicable tool, and zero when nothing applies.
func Heuristic[S state.State](registry tool.Registry[S], s S) float64 {
	if s.IsGoal() {
		return 0
	}
	cost, ok := registry.MinApplicableCost(s)
	if !ok {
		return 0
	}
	return cost
}

// CombinedProbability returns prior*prob floored at epsilon.
// A non-positive epsilon uses DefaultEpsilon.
func CombinedProbability(prior, prob, epsilon float64) float64 {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	p := prior * prob
	if math.IsNaN(p) || p < epsilon {
		return epsilon
	}
	return p
}

// Score is the priority of a successor: g' = g + cost, h' = h / combined, f' = g' + h'.
type Score struct {
	G float64
	H float64
	F float64
}

// Evaluate computes the score of a successor.
func Evaluate(g, cost, heuristic, combined float64) Score {
	gNext := g + cost
	hNext := heuristic / combined
	return Score{G: gNext, H: hNext, F: gNext + hNext}
}
