package state_test

import (
	"testing"

	"github.com/felixgeelhaar/toolplan/domain/state"
)

type counter struct {
	Name  string
	Count int
	Done  bool
}

func (c counter) IsGoal() bool { return c.Done }

func (c counter) Fields() state.Fields {
	return state.Fields{
		{Name: "name", Value: c.Name},
		{Name: "count", Value: c.Count},
		{Name: "done", Value: c.Done},
	}
}

func hashOf[S state.State](s S) uint64 {
	return state.Hash(s.Fields())
}

func TestValueEquality(t *testing.T) {
	t.Parallel()

	a := counter{Name: "x", Count: 2}
	b := counter{Name: "x", Count: 2}

	if a != b {
		t.Fatal("states with identical fields should be equal")
	}
	if hashOf(a) != hashOf(b) {
		t.Errorf("Hash() differs for equal states: %d vs %d", hashOf(a), hashOf(b))
	}

	closed := map[counter]struct{}{a: {}}
	if _, ok := closed[b]; !ok {
		t.Error("equal state should be found in closed set")
	}
}

func TestHash_DistinguishesValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b counter
	}{
		{"name", counter{Name: "x"}, counter{Name: "y"}},
		{"count", counter{Count: 1}, counter{Count: 2}},
		{"done", counter{}, counter{Done: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if hashOf(tt.a) == hashOf(tt.b) {
				t.Errorf("Hash(%v) == Hash(%v), want different", tt.a, tt.b)
			}
			if state.Key(tt.a.Fields()) == state.Key(tt.b.Fields()) {
				t.Errorf("Key(%v) == Key(%v), want different", tt.a, tt.b)
			}
		})
	}
}

func TestFields_Accessors(t *testing.T) {
	t.Parallel()

	f := counter{Name: "x"}.Fields()

	v, ok := f.Get("name")
	if !ok || v != "x" {
		t.Errorf("Get(name) = %v, %v, want x, true", v, ok)
	}
	if _, ok := f.Get("missing"); ok {
		t.Error("Get(missing) should report false")
	}

	missing := f.Missing()
	if len(missing) != 1 || missing[0] != "done" {
		t.Errorf("Missing() = %v, want [done]", missing)
	}

	m := f.Map()
	if m["count"] != 0 {
		t.Errorf("Map()[count] = %v, want 0", m["count"])
	}

	if got, want := f.String(), `name="x", count=0, done=false`; got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
}

func TestDiff(t *testing.T) {
	t.Parallel()

	before := counter{Name: "x"}.Fields()
	after := counter{Name: "x", Count: 1, Done: true}.Fields()

	obs := state.Diff(before, after)
	names := obs.Names()
	if len(names) != 2 || names[0] != "count" || names[1] != "done" {
		t.Fatalf("Diff().Names() = %v, want [count done]", names)
	}
	if obs["count"].Before != 0 || obs["count"].After != 1 {
		t.Errorf("Diff()[count] = %+v, want {0 1}", obs["count"])
	}

	if !state.Diff(before, before).Empty() {
		t.Error("Diff() of identical snapshots should be empty")
	}
}
