package cache

import "testing"

func TestStats_HitRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		stats Stats
		want  float64
	}{
		{"no lookups", Stats{}, 0},
		{"all hits", Stats{Hits: 4}, 1},
		{"mixed", Stats{Hits: 1, Misses: 3}, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.stats.HitRate(); got != tt.want {
				t.Errorf("HitRate() = %v, want %v", got, tt.want)
			}
		})
	}
}
