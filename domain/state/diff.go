package state

import "sort"

// Change records a single field's value before and after a transition.
type Change struct {
	Before any `json:"before"`
	After  any `json:"after"`
}

// Observation is the set of field changes produced by one transition.
type Observation map[string]Change

// Diff returns the fields whose values differ between two snapshots.
// Fields present in only one snapshot are reported with a nil counterpart.
func Diff(before, after Fields) Observation {
	prev := before.Map()
	curr := after.Map()

	obs := make(Observation)
	for name, v := range prev {
		w, ok := curr[name]
		if !ok || v != w {
			obs[name] = Change{Before: v, After: w}
		}
	}
	for name, w := range curr {
		if _, ok := prev[name]; !ok {
			obs[name] = Change{Before: nil, After: w}
		}
	}
	return obs
}

// Names returns the changed field names in sorted order.
func (o Observation) Names() []string {
	names := make([]string, 0, len(o))
	for name := range o {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Empty reports whether the transition changed nothing.
func (o Observation) Empty() bool {
	return len(o) == 0
}
