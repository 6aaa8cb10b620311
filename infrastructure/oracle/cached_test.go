package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/toolplan/domain/oracle"
	"github.com/felixgeelhaar/toolplan/domain/tool"
	"github.com/felixgeelhaar/toolplan/infrastructure/storage/memory"
)

func TestCached_StoresValidatedAnswers(t *testing.T) {
	t.Parallel()

	inner := &Scripted[trip]{
		Rank: func(_ trip, _ string, c []tool.Tool[trip], _ int) ([]oracle.Ranked[trip], error) {
			return []oracle.Ranked[trip]{{Tool: c[0], Prior: 0.7, Reason: "first"}}, nil
		},
		Args: func(tool.Tool[trip], trip, string, int) ([]tool.Args, error) {
			return []tool.Args{{"Quito"}}, nil
		},
		Success: func(trip, tool.Tool[trip], tool.Args) (float64, error) {
			return 0.4, nil
		},
	}
	metrics := &countingMetrics{}
	c := NewCached[trip](inner, memory.NewCache(), 0, metrics)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		r, err := c.RankTools(ctx, trip{}, "goal", tripTools(), 3)
		if err != nil || len(r) != 1 || r[0].Tool.Name() != "set_from" || r[0].Prior != 0.7 || r[0].Reason != "first" {
			t.Errorf("RankTools() #%d = %v, %v", i, r, err)
		}
		a, err := c.ProposeArgs(ctx, setTo(), trip{}, "goal", 3)
		if err != nil || len(a) != 1 || a[0][0] != "Quito" {
			t.Errorf("ProposeArgs() #%d = %v, %v", i, a, err)
		}
		p, err := c.EstimateSuccess(ctx, trip{}, setTo(), tool.Args{"Quito"})
		if err != nil || p != 0.4 {
			t.Errorf("EstimateSuccess() #%d = %v, %v", i, p, err)
		}
	}

	if inner.Calls() != 3 {
		t.Errorf("inner calls = %d, want 3", inner.Calls())
	}
	if metrics.hits.Load() != 3 || metrics.misses.Load() != 3 {
		t.Errorf("hits, misses = %d, %d, want 3, 3", metrics.hits.Load(), metrics.misses.Load())
	}
}

func TestCached_DistinguishesStates(t *testing.T) {
	t.Parallel()

	inner := &Scripted[trip]{
		Success: func(s trip, _ tool.Tool[trip], _ tool.Args) (float64, error) {
			if s.From == "" {
				return 0.1, nil
			}
			return 0.9, nil
		},
	}
	c := NewCached[trip](inner, memory.NewCache(), 0, nil)
	ctx := context.Background()

	a, _ := c.EstimateSuccess(ctx, trip{}, setTo(), tool.Args{"X"})
	b, _ := c.EstimateSuccess(ctx, trip{From: "Y"}, setTo(), tool.Args{"X"})
	if a != 0.1 || b != 0.9 {
		t.Errorf("EstimateSuccess() = %v, %v, want 0.1, 0.9", a, b)
	}
}

func TestCached_DoesNotStoreFailures(t *testing.T) {
	t.Parallel()

	fails := true
	inner := &Scripted[trip]{
		Success: func(trip, tool.Tool[trip], tool.Args) (float64, error) {
			if fails {
				return 2, nil // out of range
			}
			return 0.5, nil
		},
		Args: func(tool.Tool[trip], trip, string, int) ([]tool.Args, error) {
			return nil, errors.New("boom")
		},
	}
	store := memory.NewCache()
	c := NewCached[trip](inner, store, 0, nil)
	ctx := context.Background()

	if _, err := c.EstimateSuccess(ctx, trip{}, setTo(), tool.Args{"X"}); !errors.Is(err, oracle.ErrProbabilityRange) {
		t.Errorf("EstimateSuccess() error = %v, want ErrProbabilityRange", err)
	}
	if _, err := c.ProposeArgs(ctx, setTo(), trip{}, "g", 3); err == nil {
		t.Error("ProposeArgs() error = nil, want inner error")
	}
	if store.Len() != 0 {
		t.Errorf("cache holds %d entries, want 0", store.Len())
	}

	fails = false
	if p, _ := c.EstimateSuccess(ctx, trip{}, setTo(), tool.Args{"X"}); p != 0.5 {
		t.Errorf("EstimateSuccess() = %v, want 0.5", p)
	}
}

func TestCacheKey(t *testing.T) {
	t.Parallel()

	a := cacheKey(oracle.OpRankTools, "ab", "c")
	b := cacheKey(oracle.OpRankTools, "a", "bc")
	if a == b {
		t.Error("cacheKey() collided on differently split parts")
	}
	if got := cacheKey(oracle.OpProposeArgs, "x"); got[:len("propose_args:")] != "propose_args:" {
		t.Errorf("cacheKey() = %s, want propose_args prefix", got)
	}
}
