// Package state defines the planning state abstraction.
//
// A State is an immutable value: every tool application yields a new State.
// Equality uses Go's == operator, so concrete states must be comparable
// (structs of strings, booleans and numbers).
package state

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// State is the constraint satisfied by every planning state.
type State interface {
	comparable

	// IsGoal reports whether the state satisfies the goal predicate.
	IsGoal() bool

	// Fields returns an ordered snapshot of the state's named fields.
	Fields() Fields
}

// Field is a single named value of a state snapshot.
// A nil Value means the field is unset.
type Field struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Fields is an ordered state snapshot.
type Fields []Field

// Get returns the value of the named field.
func (f Fields) Get(name string) (any, bool) {
	for _, field := range f {
		if field.Name == name {
			return field.Value, true
		}
	}
	return nil, false
}

// Map returns the snapshot as a map, suitable for JSON encoding.
func (f Fields) Map() map[string]any {
	m := make(map[string]any, len(f))
	for _, field := range f {
		m[field.Name] = field.Value
	}
	return m
}

// Missing returns the names of unset fields in snapshot order.
func (f Fields) Missing() []string {
	var names []string
	for _, field := range f {
		if isUnset(field.Value) {
			names = append(names, field.Name)
		}
	}
	return names
}

// String renders the snapshot as name=value pairs.
func (f Fields) String() string {
	var sb strings.Builder
	for i, field := range f {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(field.Name)
		sb.WriteByte('=')
		sb.WriteString(formatValue(field.Value))
	}
	return sb.String()
}

// Key returns a canonical string encoding of the snapshot.
// Equal snapshots always produce equal keys.
func Key(f Fields) string {
	var sb strings.Builder
	for _, field := range f {
		sb.WriteString(field.Name)
		sb.WriteByte(0x1f)
		fmt.Fprintf(&sb, "%T:%v", field.Value, field.Value)
		sb.WriteByte(0x1e)
	}
	return sb.String()
}

// Hash returns a 64-bit FNV-1a hash of the snapshot's canonical key.
func Hash(f Fields) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(Key(f)))
	return h.Sum64()
}

func isUnset(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	default:
		return false
	}
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "<unset>"
	case string:
		return fmt.Sprintf("%q", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
