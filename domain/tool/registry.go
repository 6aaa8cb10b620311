package tool

import (
	"fmt"

	"github.com/felixgeelhaar/toolplan/domain/state"
)

// Registry is an immutable, ordered set of tools with unique names.
// The zero value is an empty registry.
type Registry[S state.State] struct {
	tools []Tool[S]
	index map[string]int
}

// NewRegistry creates a registry preserving the given order.
func NewRegistry[S state.State](tools ...Tool[S]) (Registry[S], error) {
	r := Registry[S]{
		tools: make([]Tool[S], 0, len(tools)),
		index: make(map[string]int, len(tools)),
	}
	for _, t := range tools {
		if t == nil || t.Name() == "" {
			return Registry[S]{}, ErrEmptyName
		}
		if _, exists := r.index[t.Name()]; exists {
			return Registry[S]{}, fmt.Errorf("%s: %w", t.Name(), ErrToolExists)
		}
		r.index[t.Name()] = len(r.tools)
		r.tools = append(r.tools, t)
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error.
func MustRegistry[S state.State](tools ...Tool[S]) Registry[S] {
	r, err := NewRegistry(tools...)
	if err != nil {
		panic(err)
	}
	return r
}

// Tools returns the tools in registry order.
func (r Registry[S]) Tools() []Tool[S] {
	out := make([]Tool[S], len(r.tools))
	copy(out, r.tools)
	return out
}

// Get retrieves a tool by name.
func (r Registry[S]) Get(name string) (Tool[S], bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.tools[i], true
}

// Has checks if a tool is registered.
func (r Registry[S]) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Names returns all tool names in registry order.
func (r Registry[S]) Names() []string {
	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.Name()
	}
	return names
}

// Len returns the number of registered tools.
func (r Registry[S]) Len() int {
	return len(r.tools)
}

// Position returns the registry index of name, or -1.
func (r Registry[S]) Position(name string) int {
	if i, ok := r.index[name]; ok {
		return i
	}
	return -1
}

// ApplicableTools returns the tools whose precondition holds on s, in registry order.
func (r Registry[S]) ApplicableTools(s S) []Tool[S] {
	var out []Tool[S]
	for _, t := range r.tools {
		if t.Precondition(s) {
			out = append(out, t)
		}
	}
	return out
}

// MinApplicableCost returns the smallest cost among applicable tools.
// The second result is false when no tool applies.
func (r Registry[S]) MinApplicableCost(s S) (float64, bool) {
	found := false
	var best float64
	for _, t := range r.tools {
		if !t.Precondition(s) {
			continue
		}
		if !found || t.Cost() < best {
			best = t.Cost()
			found = true
		}
	}
	return best, found
}
