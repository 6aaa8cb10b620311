package oracle

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/toolplan/domain/state"
	"github.com/felixgeelhaar/toolplan/domain/tool"
	"github.com/felixgeelhaar/toolplan/infrastructure/telemetry"
)

type trip struct {
	From string
	To   string
}

func (t trip) IsGoal() bool { return t.From != "" && t.To != "" }

func (t trip) Fields() state.Fields {
	return state.Fields{
		{Name: "from", Value: t.From},
		{Name: "to", Value: t.To},
	}
}

func setFrom() tool.Tool[trip] {
	return tool.NewBuilder[trip]("set_from").
		WithDescription("Set the departure city").
		WithCost(1).
		WithArgs("city").
		WithPrecondition(func(s trip) bool { return s.From == "" }).
		WithEffect(func(s trip, a tool.Args) (trip, error) {
			s.From = a[0]
			return s, nil
		}).
		MustBuild()
}

func setTo() tool.Tool[trip] {
	return tool.NewBuilder[trip]("set_to").
		WithDescription("Set the arrival city").
		WithCost(2).
		WithArgs("city").
		WithEffect(func(s trip, a tool.Args) (trip, error) {
			s.To = a[0]
			return s, nil
		}).
		MustBuild()
}

func reset() tool.Tool[trip] {
	return tool.NewBuilder[trip]("reset").
		WithDescription("Clear the trip").
		WithCost(0.5).
		WithEffect(func(trip, tool.Args) (trip, error) { return trip{}, nil }).
		MustBuild()
}

func tripTools() []tool.Tool[trip] {
	return []tool.Tool[trip]{setFrom(), setTo(), reset()}
}

// countingMetrics counts fallbacks and cache lookups.
type countingMetrics struct {
	telemetry.NoopMetricsProvider
	fallbacks atomic.Int64
	hits      atomic.Int64
	misses    atomic.Int64
	calls     atomic.Int64
}

func (m *countingMetrics) RecordFallback(context.Context, string) { m.fallbacks.Add(1) }
func (m *countingMetrics) RecordCacheHit(context.Context, string) { m.hits.Add(1) }
func (m *countingMetrics) RecordCacheMiss(context.Context, string) {
	m.misses.Add(1)
}
func (m *countingMetrics) RecordOracleCall(context.Context, string, bool, time.Duration) {
	m.calls.Add(1)
}
