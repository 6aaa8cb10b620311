// Package tool provides the domain model for planning tools.
package tool

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/toolplan/domain/state"
)

// Args is a concrete argument tuple for one tool invocation.
type Args []string

// String renders the tuple the way plans are printed: ("a", "b").
func (a Args) String() string {
	quoted := make([]string, len(a))
	for i, v := range a {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

// Equal reports whether two tuples hold the same values.
func (a Args) Equal(b Args) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the tuple.
func (a Args) Clone() Args {
	if a == nil {
		return Args{}
	}
	out := make(Args, len(a))
	copy(out, a)
	return out
}

// Tool is a named, precondition-gated, cost-bearing action over states of type S.
// Implementations must be pure: Precondition and Apply never mutate their inputs.
type Tool[S state.State] interface {
	// Name returns the stable string identifier for the tool.
	Name() string

	// Description returns a human-readable description for the oracle.
	Description() string

	// Cost returns the intrinsic, non-negative expense of one application.
	Cost() float64

	// ArgNames returns the ordered argument names; its length is the arity.
	ArgNames() []string

	// Precondition reports whether the tool may be applied to s.
	Precondition(s S) bool

	// Apply derives the successor state. It is only called when the
	// precondition holds and len(args) matches the arity.
	Apply(s S, args Args) (S, error)
}

// Arity returns the number of arguments t expects.
func Arity[S state.State](t Tool[S]) int {
	return len(t.ArgNames())
}

// Invoke applies t to s after checking the precondition and arity.
// A panicking effect is reported as ErrInvalidApplication.
func Invoke[S state.State](t Tool[S], s S, args Args) (next S, err error) {
	if !t.Precondition(s) {
		return s, fmt.Errorf("%s: %w", t.Name(), ErrPreconditionFailed)
	}
	if len(args) != Arity(t) {
		return s, fmt.Errorf("%s: got %d args, want %d: %w", t.Name(), len(args), Arity(t), ErrArity)
	}

	defer func() {
		if r := recover(); r != nil {
			next = s
			err = fmt.Errorf("%s: %v: %w", t.Name(), r, ErrInvalidApplication)
		}
	}()

	next, err = t.Apply(s, args)
	if err != nil {
		return s, fmt.Errorf("%s: %w: %w", t.Name(), ErrInvalidApplication, err)
	}
	return next, nil
}

// Effect derives a successor state from s and args.
type Effect[S state.State] func(s S, args Args) (S, error)

// Precondition reports whether a tool may run on s.
type Precondition[S state.State] func(s S) bool

// Definition is a concrete implementation of Tool backed by functions.
type Definition[S state.State] struct {
	name         string
	description  string
	cost         float64
	argNames     []string
	precondition Precondition[S]
	effect       Effect[S]
}

// Name returns the tool name.
func (d *Definition[S]) Name() string {
	return d.name
}

// Description returns the tool description.
func (d *Definition[S]) Description() string {
	return d.description
}

// Cost returns the intrinsic cost.
func (d *Definition[S]) Cost() float64 {
	return d.cost
}

// ArgNames returns a copy of the argument names.
func (d *Definition[S]) ArgNames() []string {
	out := make([]string, len(d.argNames))
	copy(out, d.argNames)
	return out
}

// Precondition evaluates the precondition; a tool without one always applies.
func (d *Definition[S]) Precondition(s S) bool {
	if d.precondition == nil {
		return true
	}
	return d.precondition(s)
}

// Apply runs the effect.
func (d *Definition[S]) Apply(s S, args Args) (S, error) {
	return d.effect(s, args)
}

// Builder provides a fluent API for constructing tools.
type Builder[S state.State] struct {
	def *Definition[S]
	err error
}

// NewBuilder creates a new tool builder with the given name.
func NewBuilder[S state.State](name string) *Builder[S] {
	return &Builder[S]{
		def: &Definition[S]{name: name},
	}
}

// WithDescription sets the tool description.
func (b *Builder[S]) WithDescription(desc string) *Builder[S] {
	if b.err != nil {
		return b
	}
	b.def.description = desc
	return b
}

// WithCost sets the intrinsic cost.
func (b *Builder[S]) WithCost(cost float64) *Builder[S] {
	if b.err != nil {
		return b
	}
	if cost < 0 {
		b.err = fmt.Errorf("%s: %w", b.def.name, ErrNegativeCost)
		return b
	}
	b.def.cost = cost
	return b
}

// WithArgs sets the ordered argument names.
func (b *Builder[S]) WithArgs(names ...string) *Builder[S] {
	if b.err != nil {
		return b
	}
	b.def.argNames = append([]string(nil), names...)
	return b
}

// WithPrecondition sets the precondition.
func (b *Builder[S]) WithPrecondition(p Precondition[S]) *Builder[S] {
	if b.err != nil {
		return b
	}
	b.def.precondition = p
	return b
}

// WithEffect sets the effect.
func (b *Builder[S]) WithEffect(e Effect[S]) *Builder[S] {
	if b.err != nil {
		return b
	}
	b.def.effect = e
	return b
}

// Build constructs the tool definition.
func (b *Builder[S]) Build() (Tool[S], error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.def.name == "" {
		return nil, ErrEmptyName
	}
	if b.def.effect == nil {
		return nil, fmt.Errorf("%s: %w", b.def.name, ErrNoEffect)
	}
	return b.def, nil
}

// MustBuild constructs the tool definition or panics on error.
func (b *Builder[S]) MustBuild() Tool[S] {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}
