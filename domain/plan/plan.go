// Package plan provides the plan and trace model produced by the planner.
package plan

import (
	"strings"

	"github.com/felixgeelhaar/toolplan/domain/state"
	"github.com/felixgeelhaar/toolplan/domain/tool"
)

// Step is a single (tool, args) pair of a plan.
type Step[S state.State] struct {
	Tool tool.Tool[S]
	Args tool.Args
}

// String renders the step as name("a", "b").
func (s Step[S]) String() string {
	return s.Tool.Name() + s.Args.String()
}

// Plan is an ordered sequence of steps.
type Plan[S state.State] []Step[S]

// Append returns a new plan with step appended; p is never modified.
func (p Plan[S]) Append(step Step[S]) Plan[S] {
	out := make(Plan[S], len(p), len(p)+1)
	copy(out, p)
	return append(out, Step[S]{Tool: step.Tool, Args: step.Args.Clone()})
}

// Len returns the number of steps.
func (p Plan[S]) Len() int {
	return len(p)
}

// Cost returns the sum of intrinsic tool costs.
func (p Plan[S]) Cost() float64 {
	var total float64
	for _, step := range p {
		total += step.Tool.Cost()
	}
	return total
}

// ToolNames returns the tool names in step order.
func (p Plan[S]) ToolNames() []string {
	names := make([]string, len(p))
	for i, step := range p {
		names[i] = step.Tool.Name()
	}
	return names
}

// String renders the plan as a readable arrow-separated chain.
func (p Plan[S]) String() string {
	parts := make([]string, len(p))
	for i, step := range p {
		parts[i] = step.String()
	}
	return strings.Join(parts, " -> ")
}
