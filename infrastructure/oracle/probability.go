package oracle

import (
	"hash/fnv"
	"math/rand/v2"
)

// ProbabilitySource yields fallback success probabilities.
// The same key always yields the same value, so results do not depend on
// the order in which concurrent candidates are evaluated.
type ProbabilitySource interface {
	Probability(key string) float64
}

// Seeded draws a bounded pseudo-random value per key.
type Seeded struct {
	Seed uint64
	Min  float64
	Max  float64
}

// NewSeeded returns a source drawing from [min, max] clamped to [0, 1].
func NewSeeded(seed uint64, min, max float64) Seeded {
	if min > max {
		min, max = max, min
	}
	return Seeded{Seed: seed, Min: clamp01(min), Max: clamp01(max)}
}

// Probability implements ProbabilitySource.
func (s Seeded) Probability(key string) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	r := rand.New(rand.NewPCG(s.Seed, h.Sum64())) // #nosec G404 -- not security sensitive
	return s.Min + r.Float64()*(s.Max-s.Min)
}

// Constant always yields the same probability.
type Constant float64

// Probability implements ProbabilitySource.
func (c Constant) Probability(string) float64 {
	return clamp01(float64(c))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
