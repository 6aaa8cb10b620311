package tool_test

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/toolplan/domain/tool"
)

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	reg, err := tool.NewRegistry(openTool(), labelTool())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if reg.Len() != 2 {
		t.Errorf("Len() = %d, want 2", reg.Len())
	}

	names := reg.Names()
	if len(names) != 2 || names[0] != "open" || names[1] != "label" {
		t.Errorf("Names() = %v, want [open label]", names)
	}
	if got, ok := reg.Get("label"); !ok || got.Name() != "label" {
		t.Errorf("Get(label) = %v, %v", got, ok)
	}
	if _, ok := reg.Get("missing"); ok {
		t.Error("Get(missing) should report false")
	}
	if reg.Position("label") != 1 || reg.Position("missing") != -1 {
		t.Errorf("Position() = %d, %d, want 1, -1", reg.Position("label"), reg.Position("missing"))
	}
}

func TestNewRegistry_Duplicate(t *testing.T) {
	t.Parallel()

	_, err := tool.NewRegistry(openTool(), openTool())
	if !errors.Is(err, tool.ErrToolExists) {
		t.Errorf("NewRegistry() error = %v, want ErrToolExists", err)
	}
}

func TestRegistry_ApplicableTools(t *testing.T) {
	t.Parallel()

	reg := tool.MustRegistry(openTool(), labelTool())

	tests := []struct {
		name  string
		state door
		want  []string
	}{
		{"closed door", door{}, []string{"open", "label"}},
		{"locked door", door{Locked: true}, []string{"label"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := reg.ApplicableTools(tt.state)
			if len(got) != len(tt.want) {
				t.Fatalf("ApplicableTools() len = %d, want %d", len(got), len(tt.want))
			}
			for i, tl := range got {
				if tl.Name() != tt.want[i] {
					t.Errorf("ApplicableTools()[%d] = %s, want %s", i, tl.Name(), tt.want[i])
				}
			}
		})
	}
}

func TestRegistry_MinApplicableCost(t *testing.T) {
	t.Parallel()

	reg := tool.MustRegistry(openTool(), labelTool())

	cost, ok := reg.MinApplicableCost(door{})
	if !ok || cost != 0.5 {
		t.Errorf("MinApplicableCost() = %v, %v, want 0.5, true", cost, ok)
	}

	var empty tool.Registry[door]
	if _, ok := empty.MinApplicableCost(door{}); ok {
		t.Error("MinApplicableCost() on empty registry should report false")
	}
	if len(empty.ApplicableTools(door{})) != 0 {
		t.Error("ApplicableTools() on empty registry should be empty")
	}
}
