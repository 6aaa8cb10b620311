package oracle

import (
	"fmt"
	"math"
	"strings"

	"github.com/felixgeelhaar/toolplan/domain/state"
	"github.com/felixgeelhaar/toolplan/domain/tool"
)

// RankEntry is the raw, unresolved form of one ranking entry.
type RankEntry struct {
	Name   string  `json:"name"`
	P      float64 `json:"p"`
	Reason string  `json:"reason,omitempty"`
}

// ValidateProbability rejects values that are not finite or outside [0, 1].
func ValidateProbability(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
		return fmt.Errorf("%v: %w", p, ErrProbabilityRange)
	}
	return nil
}

// ResolveRanking maps raw entries onto candidates.
// Unknown names and repeated names are discarded; an out-of-range prior
// rejects the whole response. At most topK entries are kept.
func ResolveRanking[S state.State](entries []RankEntry, candidates []tool.Tool[S], topK int) ([]Ranked[S], error) {
	byName := make(map[string]tool.Tool[S], len(candidates))
	for _, c := range candidates {
		byName[c.Name()] = c
	}

	seen := make(map[string]bool, len(entries))
	var out []Ranked[S]
	for _, e := range entries {
		if err := ValidateProbability(e.P); err != nil {
			return nil, fmt.Errorf("rank %q: %w", e.Name, err)
		}
		t, ok := byName[e.Name]
		if !ok || seen[e.Name] {
			continue
		}
		seen[e.Name] = true
		out = append(out, Ranked[S]{Tool: t, Prior: e.P, Reason: e.Reason})
		if topK > 0 && len(out) == topK {
			break
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyResponse
	}
	return out, nil
}

// ValidateRanking checks an already resolved ranking against candidates.
// It returns the entries that survive, truncated to topK.
func ValidateRanking[S state.State](ranked []Ranked[S], candidates []tool.Tool[S], topK int) ([]Ranked[S], error) {
	entries := make([]RankEntry, 0, len(ranked))
	for _, r := range ranked {
		if r.Tool == nil {
			continue
		}
		entries = append(entries, RankEntry{Name: r.Tool.Name(), P: r.Prior, Reason: r.Reason})
	}
	return ResolveRanking(entries, candidates, topK)
}

// ValidateArgs checks the first max tuples' arity against t.
// Any wrong-length tuple or blank value among them rejects the response;
// tuples past max are ignored.
func ValidateArgs[S state.State](t tool.Tool[S], candidates []tool.Args, max int) ([]tool.Args, error) {
	arity := tool.Arity(t)
	out := make([]tool.Args, 0, len(candidates))
	for i, args := range candidates {
		if max > 0 && len(out) == max {
			break
		}
		if len(args) != arity {
			return nil, fmt.Errorf("candidate %d for %s: got %d, want %d: %w", i, t.Name(), len(args), arity, ErrArity)
		}
		for _, v := range args {
			if strings.TrimSpace(v) == "" {
				return nil, fmt.Errorf("candidate %d for %s: blank argument: %w", i, t.Name(), ErrMalformedResponse)
			}
		}
		out = append(out, args.Clone())
	}
	if len(out) == 0 {
		return nil, ErrEmptyResponse
	}
	return out, nil
}
