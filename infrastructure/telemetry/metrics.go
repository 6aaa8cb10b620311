// Package telemetry provides OpenTelemetry metrics for the planner.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Search outcomes used as metric attributes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeTimedOut  = "timed_out"
)

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	expansions  metric.Int64Counter
	candidates  metric.Int64Counter
	oracleCalls metric.Int64Counter
	fallbacks   metric.Int64Counter
	cacheHits   metric.Int64Counter
	cacheMisses metric.Int64Counter
	searches    metric.Int64Counter

	// Histograms
	oracleDuration metric.Float64Histogram
	searchDuration metric.Float64Histogram
	planLength     metric.Int64Histogram

	// Gauges (using UpDownCounter for OpenTelemetry)
	activeSearches     metric.Int64UpDownCounter
	circuitBreakerOpen metric.Int64UpDownCounter

	initOnce sync.Once
	initErr  error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter (default: "github.com/felixgeelhaar/toolplan").
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
	// MeterProvider overrides the global otel meter provider.
	MeterProvider metric.MeterProvider
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/felixgeelhaar/toolplan",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a new metrics provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config.MeterName = DefaultMetricsConfig().MeterName
	}

	provider := config.MeterProvider
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(
		config.MeterName,
		metric.WithInstrumentationVersion(config.MeterVersion),
	)

	mp := &MetricsProvider{
		meter: meter,
	}

	mp.initOnce.Do(func() {
		mp.initErr = mp.initInstruments()
	})

	return mp
}

func (mp *MetricsProvider) initInstruments() error {
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&mp.expansions, "toolplan.search.expansions", "Number of node expansions", "{expansion}"},
		{&mp.candidates, "toolplan.search.candidates", "Number of simulated argument candidates", "{candidate}"},
		{&mp.oracleCalls, "toolplan.oracle.calls", "Number of oracle calls", "{call}"},
		{&mp.fallbacks, "toolplan.oracle.fallbacks", "Number of oracle answers replaced by the fallback", "{fallback}"},
		{&mp.cacheHits, "toolplan.cache.hits", "Number of oracle cache hits", "{hit}"},
		{&mp.cacheMisses, "toolplan.cache.misses", "Number of oracle cache misses", "{miss}"},
		{&mp.searches, "toolplan.searches", "Number of finished searches", "{search}"},
	}
	for _, c := range counters {
		*c.dst, err = mp.meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return err
		}
	}

	mp.oracleDuration, err = mp.meter.Float64Histogram(
		"toolplan.oracle.duration",
		metric.WithDescription("Duration of oracle calls"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.searchDuration, err = mp.meter.Float64Histogram(
		"toolplan.search.duration",
		metric.WithDescription("Duration of searches"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.planLength, err = mp.meter.Int64Histogram(
		"toolplan.plan.length",
		metric.WithDescription("Number of steps in returned plans"),
		metric.WithUnit("{step}"),
	)
	if err != nil {
		return err
	}

	mp.activeSearches, err = mp.meter.Int64UpDownCounter(
		"toolplan.searches.active",
		metric.WithDescription("Number of searches in progress"),
		metric.WithUnit("{search}"),
	)
	if err != nil {
		return err
	}

	mp.circuitBreakerOpen, err = mp.meter.Int64UpDownCounter(
		"toolplan.circuitbreaker.open",
		metric.WithDescription("Number of open circuit breakers"),
		metric.WithUnit("{circuit}"),
	)
	return err
}

// Error returns any initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordExpansion records one node expansion.
func (mp *MetricsProvider) RecordExpansion(ctx context.Context, applicable int) {
	mp.expansions.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("dead_end", applicable == 0),
	))
}

// RecordCandidate records one simulated argument candidate.
func (mp *MetricsProvider) RecordCandidate(ctx context.Context, toolName string, viable bool) {
	mp.candidates.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool.name", toolName),
		attribute.Bool("viable", viable),
	))
}

// RecordOracleCall records an oracle call and its latency.
func (mp *MetricsProvider) RecordOracleCall(ctx context.Context, operation string, success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("oracle.operation", operation),
		attribute.Bool("success", success),
	}

	mp.oracleCalls.Add(ctx, 1, metric.WithAttributes(attrs...))
	mp.oracleDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordFallback records an oracle answer replaced by the fallback.
func (mp *MetricsProvider) RecordFallback(ctx context.Context, operation string) {
	mp.fallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("oracle.operation", operation),
	))
}

// RecordCacheHit records a cache hit.
func (mp *MetricsProvider) RecordCacheHit(ctx context.Context, operation string) {
	mp.cacheHits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("oracle.operation", operation),
	))
}

// RecordCacheMiss records a cache miss.
func (mp *MetricsProvider) RecordCacheMiss(ctx context.Context, operation string) {
	mp.cacheMisses.Add(ctx, 1, metric.WithAttributes(
		attribute.String("oracle.operation", operation),
	))
}

// RecordSearch records a finished search.
func (mp *MetricsProvider) RecordSearch(ctx context.Context, outcome string, duration time.Duration, planLength int) {
	attrs := metric.WithAttributes(attribute.String("search.outcome", outcome))

	mp.searches.Add(ctx, 1, attrs)
	mp.searchDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	if outcome == OutcomeSucceeded {
		mp.planLength.Record(ctx, int64(planLength))
	}
}

// IncrementActiveSearches increments the active searches counter.
func (mp *MetricsProvider) IncrementActiveSearches(ctx context.Context) {
	mp.activeSearches.Add(ctx, 1)
}

// DecrementActiveSearches decrements the active searches counter.
func (mp *MetricsProvider) DecrementActiveSearches(ctx context.Context) {
	mp.activeSearches.Add(ctx, -1)
}

// RecordCircuitBreakerStateChange records a circuit breaker state change.
func (mp *MetricsProvider) RecordCircuitBreakerStateChange(ctx context.Context, name string, isOpen bool) {
	attrs := metric.WithAttributes(attribute.String("circuit.name", name))
	if isOpen {
		mp.circuitBreakerOpen.Add(ctx, 1, attrs)
	} else {
		mp.circuitBreakerOpen.Add(ctx, -1, attrs)
	}
}

// NoopMetricsProvider is a no-op metrics provider for testing or when metrics are disabled.
type NoopMetricsProvider struct{}

// RecordExpansion is a no-op.
func (NoopMetricsProvider) RecordExpansion(context.Context, int) {}

// RecordCandidate is a no-op.
func (NoopMetricsProvider) RecordCandidate(context.Context, string, bool) {}

// RecordOracleCall is a no-op.
func (NoopMetricsProvider) RecordOracleCall(context.Context, string, bool, time.Duration) {}

// RecordFallback is a no-op.
func (NoopMetricsProvider) RecordFallback(context.Context, string) {}

// RecordCacheHit is a no-op.
func (NoopMetricsProvider) RecordCacheHit(context.Context, string) {}

// RecordCacheMiss is a no-op.
func (NoopMetricsProvider) RecordCacheMiss(context.Context, string) {}

// RecordSearch is a no-op.
func (NoopMetricsProvider) RecordSearch(context.Context, string, time.Duration, int) {}

// IncrementActiveSearches is a no-op.
func (NoopMetricsProvider) IncrementActiveSearches(context.Context) {}

// DecrementActiveSearches is a no-op.
func (NoopMetricsProvider) DecrementActiveSearches(context.Context) {}

// RecordCircuitBreakerStateChange is a no-op.
func (NoopMetricsProvider) RecordCircuitBreakerStateChange(context.Context, string, bool) {}

// Metrics defines the interface for metrics recording.
type Metrics interface {
	RecordExpansion(ctx context.Context, applicable int)
	RecordCandidate(ctx context.Context, toolName string, viable bool)
	RecordOracleCall(ctx context.Context, operation string, success bool, duration time.Duration)
	RecordFallback(ctx context.Context, operation string)
	RecordCacheHit(ctx context.Context, operation string)
	RecordCacheMiss(ctx context.Context, operation string)
	RecordSearch(ctx context.Context, outcome string, duration time.Duration, planLength int)
	IncrementActiveSearches(ctx context.Context)
	DecrementActiveSearches(ctx context.Context)
	RecordCircuitBreakerStateChange(ctx context.Context, name string, isOpen bool)
}

// Ensure implementations satisfy the interface.
var (
	_ Metrics = (*MetricsProvider)(nil)
	_ Metrics = NoopMetricsProvider{}
)
