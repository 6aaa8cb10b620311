package oracle

import (
	"testing"

	"github.com/felixgeelhaar/toolplan/domain/tool"
)

func TestFallback_RankTools(t *testing.T) {
	t.Parallel()

	candidates := tripTools() // costs: set_from 1, set_to 2, reset 0.5

	tests := []struct {
		name  string
		order []string
		topK  int
		want  []string
	}{
		{"cost only", nil, 0, []string{"reset", "set_from", "set_to"}},
		{"order first", []string{"set_to", "set_from"}, 0, []string{"set_to", "set_from", "reset"}},
		{"top k", []string{"set_from"}, 2, []string{"set_from", "reset"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := NewFallback[trip](FallbackConfig{Order: tt.order})
			got := f.RankTools(trip{}, "goal", candidates, tt.topK)
			if len(got) != len(tt.want) {
				t.Fatalf("RankTools() returned %d entries, want %d", len(got), len(tt.want))
			}
			for i, r := range got {
				if r.Tool.Name() != tt.want[i] {
					t.Errorf("RankTools()[%d] = %s, want %s", i, r.Tool.Name(), tt.want[i])
				}
				if want := 1 / float64(i+1); r.Prior != want {
					t.Errorf("RankTools()[%d].Prior = %v, want %v", i, r.Prior, want)
				}
			}
		})
	}
}

func TestFallback_ProposeArgs(t *testing.T) {
	t.Parallel()

	f := NewFallback[trip](FallbackConfig{
		Hints: map[string]ArgHint{
			"set_from": PhraseAfter("from", 0, "Home"),
			"set_to":   Fixed(tool.Args{""}, tool.Args{"Rome", "extra"}),
		},
	})
	goal := "Go from Madrid to Lisbon"

	tests := []struct {
		name string
		tool tool.Tool[trip]
		max  int
		want []tool.Args
	}{
		{"hint", setFrom(), 3, []tool.Args{{"Madrid"}}},
		{"invalid hint output falls to defaults", setTo(), 3, []tool.Args{{"city"}}},
		{"nullary", reset(), 3, []tool.Args{{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := f.ProposeArgs(tt.tool, trip{}, goal, tt.max)
			if len(got) != len(tt.want) {
				t.Fatalf("ProposeArgs() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if !got[i].Equal(tt.want[i]) {
					t.Errorf("ProposeArgs()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFallback_ProposeArgsFromPhrases(t *testing.T) {
	t.Parallel()

	f := NewFallback[trip](FallbackConfig{})
	got := f.ProposeArgs(setTo(), trip{}, "Visit Oslo, Bergen and Oslo again", 2)
	if len(got) != 2 {
		t.Fatalf("ProposeArgs() = %v, want 2 tuples", got)
	}
	for _, a := range got {
		if tool.Arity(setTo()) != len(a) {
			t.Errorf("ProposeArgs() tuple %v has wrong arity", a)
		}
	}
}

func TestFallback_EstimateSuccess(t *testing.T) {
	t.Parallel()

	f := NewFallback[trip](FallbackConfig{Probability: NewSeeded(42, 0.4, 0.9)})
	s := trip{From: "Oslo"}

	a := f.EstimateSuccess(s, setTo(), tool.Args{"Bergen"})
	b := f.EstimateSuccess(s, setTo(), tool.Args{"Bergen"})
	if a != b {
		t.Errorf("EstimateSuccess() not deterministic: %v then %v", a, b)
	}
	if a < 0.4 || a > 0.9 {
		t.Errorf("EstimateSuccess() = %v, want within [0.4, 0.9]", a)
	}

	c := NewFallback[trip](FallbackConfig{Probability: Constant(0.25)})
	if got := c.EstimateSuccess(s, setTo(), tool.Args{"Bergen"}); got != 0.25 {
		t.Errorf("EstimateSuccess() = %v, want 0.25", got)
	}
}

func TestNewSeeded(t *testing.T) {
	t.Parallel()

	s := NewSeeded(7, 1.5, -2)
	if s.Min != 0 || s.Max != 1 {
		t.Errorf("NewSeeded(7, 1.5, -2) = [%v, %v], want [0, 1]", s.Min, s.Max)
	}

	for _, key := range []string{"a", "b", "c", "d"} {
		if p := s.Probability(key); p < 0 || p > 1 {
			t.Errorf("Probability(%q) = %v, want within [0, 1]", key, p)
		}
	}

	other := NewSeeded(8, 0, 1)
	if s.Probability("same") == other.Probability("same") {
		t.Error("different seeds produced the same value")
	}
}

func TestConstant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		c    Constant
		want float64
	}{
		{0.5, 0.5},
		{-1, 0},
		{3, 1},
	}
	for _, tt := range tests {
		if got := tt.c.Probability("k"); got != tt.want {
			t.Errorf("Constant(%v).Probability() = %v, want %v", float64(tt.c), got, tt.want)
		}
	}
}
