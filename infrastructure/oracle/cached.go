package oracle

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/felixgeelhaar/toolplan/domain/cache"
	"github.com/felixgeelhaar/toolplan/domain/oracle"
	"github.com/felixgeelhaar/toolplan/domain/state"
	"github.com/felixgeelhaar/toolplan/domain/tool"
	"github.com/felixgeelhaar/toolplan/infrastructure/logging"
	"github.com/felixgeelhaar/toolplan/infrastructure/telemetry"
)

// Cached memoises validated answers of an inner oracle. Errors and
// invalid answers are never stored, so fallback answers produced above
// this layer cannot leak into the cache.
type Cached[S state.State] struct {
	inner   oracle.Oracle[S]
	backend cache.Cache
	ttl     time.Duration
	metrics telemetry.Metrics
}

// NewCached wraps inner with store. A zero ttl stores entries without expiry.
func NewCached[S state.State](inner oracle.Oracle[S], store cache.Cache, ttl time.Duration, metrics telemetry.Metrics) *Cached[S] {
	if metrics == nil {
		metrics = telemetry.NoopMetricsProvider{}
	}
	return &Cached[S]{inner: inner, backend: store, ttl: ttl, metrics: metrics}
}

// RankTools implements oracle.Oracle.
func (c *Cached[S]) RankTools(ctx context.Context, s S, goal string, candidates []tool.Tool[S], topK int) ([]oracle.Ranked[S], error) {
	parts := []string{state.Key(s.Fields()), goal, strconv.Itoa(topK)}
	for _, t := range candidates {
		parts = append(parts, t.Name())
	}
	key := cacheKey(oracle.OpRankTools, parts...)

	var entries []oracle.RankEntry
	if c.lookup(ctx, oracle.OpRankTools, key, &entries) {
		if ranked, err := oracle.ResolveRanking(entries, candidates, topK); err == nil {
			return ranked, nil
		}
	}

	ranked, err := c.inner.RankTools(ctx, s, goal, candidates, topK)
	if err != nil {
		return nil, err
	}
	ranked, err = oracle.ValidateRanking(ranked, candidates, topK)
	if err != nil {
		return nil, err
	}

	entries = make([]oracle.RankEntry, len(ranked))
	for i, r := range ranked {
		entries[i] = oracle.RankEntry{Name: r.Tool.Name(), P: r.Prior, Reason: r.Reason}
	}
	c.put(ctx, oracle.OpRankTools, key, entries)
	return ranked, nil
}

// ProposeArgs implements oracle.Oracle.
func (c *Cached[S]) ProposeArgs(ctx context.Context, t tool.Tool[S], s S, goal string, max int) ([]tool.Args, error) {
	key := cacheKey(oracle.OpProposeArgs, state.Key(s.Fields()), t.Name(), goal, strconv.Itoa(max))

	var args []tool.Args
	if c.lookup(ctx, oracle.OpProposeArgs, key, &args) {
		if valid, err := oracle.ValidateArgs(t, args, max); err == nil {
			return valid, nil
		}
	}

	args, err := c.inner.ProposeArgs(ctx, t, s, goal, max)
	if err != nil {
		return nil, err
	}
	args, err = oracle.ValidateArgs(t, args, max)
	if err != nil {
		return nil, err
	}

	c.put(ctx, oracle.OpProposeArgs, key, args)
	return args, nil
}

// EstimateSuccess implements oracle.Oracle.
func (c *Cached[S]) EstimateSuccess(ctx context.Context, s S, t tool.Tool[S], args tool.Args) (float64, error) {
	key := cacheKey(oracle.OpEstimateSuccess, state.Key(s.Fields()), t.Name(), args.String())

	var p float64
	if c.lookup(ctx, oracle.OpEstimateSuccess, key, &p) && oracle.ValidateProbability(p) == nil {
		return p, nil
	}

	p, err := c.inner.EstimateSuccess(ctx, s, t, args)
	if err != nil {
		return 0, err
	}
	if err := oracle.ValidateProbability(p); err != nil {
		return 0, err
	}

	c.put(ctx, oracle.OpEstimateSuccess, key, p)
	return p, nil
}

// lookup decodes a cached value into dst. Backend errors count as misses.
func (c *Cached[S]) lookup(ctx context.Context, op oracle.Operation, key string, dst any) bool {
	data, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		logging.Debug().
			Add(logging.Oracle(op.String())).
			Add(logging.ErrorField(err)).
			Msg("oracle cache read failed")
	}
	if err != nil || !ok || json.Unmarshal(data, dst) != nil {
		c.metrics.RecordCacheMiss(ctx, op.String())
		return false
	}
	c.metrics.RecordCacheHit(ctx, op.String())
	logging.Debug().
		Add(logging.Oracle(op.String())).
		Add(logging.Cached(true)).
		Msg("oracle cache hit")
	return true
}

func (c *Cached[S]) put(ctx context.Context, op oracle.Operation, key string, v any) {
	data, err := json.Marshal(v)
	if err == nil {
		err = c.backend.Set(ctx, key, data, cache.SetOptions{TTL: c.ttl})
	}
	if err != nil {
		logging.Warn().
			Add(logging.Oracle(op.String())).
			Add(logging.ErrorField(err)).
			Msg("oracle cache write failed")
	}
}

// cacheKey hashes the request parts under an operation prefix.
func cacheKey(op oracle.Operation, parts ...string) string {
	h := fnv.New128a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return op.String() + ":" + hex.EncodeToString(h.Sum(nil))
}
