package oracle

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/toolplan/domain/event"
	"github.com/felixgeelhaar/toolplan/domain/oracle"
	"github.com/felixgeelhaar/toolplan/domain/state"
	"github.com/felixgeelhaar/toolplan/domain/tool"
	"github.com/felixgeelhaar/toolplan/infrastructure/logging"
	"github.com/felixgeelhaar/toolplan/infrastructure/observability"
	"github.com/felixgeelhaar/toolplan/infrastructure/resilience"
	"github.com/felixgeelhaar/toolplan/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Guard fronts an oracle with resilience, strict validation and the
// deterministic fallback. Its operations never return an error: any
// failure of the wrapped oracle is logged, counted, recorded and replaced
// by the fallback's answer.
type Guard[S state.State] struct {
	inner    oracle.Oracle[S]
	fallback oracle.Fallback[S]
	exec     *resilience.Executor
	recorder event.Recorder
	metrics  telemetry.Metrics
	tracer   trace.Tracer

	circuitOpen atomic.Bool
}

type guardOptions struct {
	exec     *resilience.Executor
	recorder event.Recorder
	metrics  telemetry.Metrics
	tracer   trace.Tracer
}

// GuardOption configures a Guard.
type GuardOption func(*guardOptions)

// WithExecutor sets the resilience executor for oracle calls.
func WithExecutor(e *resilience.Executor) GuardOption {
	return func(o *guardOptions) {
		o.exec = e
	}
}

// WithRecorder sets where oracle.fallback events go.
func WithRecorder(r event.Recorder) GuardOption {
	return func(o *guardOptions) {
		o.recorder = r
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m telemetry.Metrics) GuardOption {
	return func(o *guardOptions) {
		o.metrics = m
	}
}

// WithTracer sets the tracer for oracle spans.
func WithTracer(t trace.Tracer) GuardOption {
	return func(o *guardOptions) {
		o.tracer = t
	}
}

// NewGuard wraps inner. A nil inner oracle means every answer comes from
// the fallback.
func NewGuard[S state.State](inner oracle.Oracle[S], fallback oracle.Fallback[S], opts ...GuardOption) *Guard[S] {
	o := guardOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.exec == nil {
		o.exec = resilience.NewDefaultExecutor()
	}
	if o.recorder == nil {
		o.recorder = event.Discard
	}
	if o.metrics == nil {
		o.metrics = telemetry.NoopMetricsProvider{}
	}

	return &Guard[S]{
		inner:    inner,
		fallback: fallback,
		exec:     o.exec,
		recorder: o.recorder,
		metrics:  o.metrics,
		tracer:   o.tracer,
	}
}

// RankTools implements oracle.Oracle.
func (g *Guard[S]) RankTools(ctx context.Context, s S, goal string, candidates []tool.Tool[S], topK int) ([]oracle.Ranked[S], error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	ranked, err := guarded(ctx, g, oracle.OpRankTools, "", func(ctx context.Context) ([]oracle.Ranked[S], error) {
		r, err := g.inner.RankTools(ctx, s, goal, candidates, topK)
		if err != nil {
			return nil, err
		}
		return oracle.ValidateRanking(r, candidates, topK)
	})
	if err != nil {
		g.fellBack(ctx, oracle.OpRankTools, "", err)
		return g.fallback.RankTools(s, goal, candidates, topK), nil
	}
	return ranked, nil
}

// ProposeArgs implements oracle.Oracle.
func (g *Guard[S]) ProposeArgs(ctx context.Context, t tool.Tool[S], s S, goal string, max int) ([]tool.Args, error) {
	args, err := guarded(ctx, g, oracle.OpProposeArgs, t.Name(), func(ctx context.Context) ([]tool.Args, error) {
		a, err := g.inner.ProposeArgs(ctx, t, s, goal, max)
		if err != nil {
			return nil, err
		}
		return oracle.ValidateArgs(t, a, max)
	})
	if err != nil {
		g.fellBack(ctx, oracle.OpProposeArgs, t.Name(), err)
		return g.fallback.ProposeArgs(t, s, goal, max), nil
	}
	return args, nil
}

// EstimateSuccess implements oracle.Oracle.
func (g *Guard[S]) EstimateSuccess(ctx context.Context, s S, t tool.Tool[S], args tool.Args) (float64, error) {
	p, err := guarded(ctx, g, oracle.OpEstimateSuccess, t.Name(), func(ctx context.Context) (float64, error) {
		p, err := g.inner.EstimateSuccess(ctx, s, t, args)
		if err != nil {
			return 0, err
		}
		if err := oracle.ValidateProbability(p); err != nil {
			return 0, err
		}
		return p, nil
	})
	if err != nil {
		g.fellBack(ctx, oracle.OpEstimateSuccess, t.Name(), err)
		return g.fallback.EstimateSuccess(s, t, args), nil
	}
	return p, nil
}

// guarded runs one oracle call through the executor inside a span.
func guarded[S state.State, T any](ctx context.Context, g *Guard[S], op oracle.Operation, toolName string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if g.inner == nil {
		return zero, oracle.ErrUnavailable
	}

	ctx, span := observability.StartSpan(ctx, g.tracer, observability.OracleSpan(op.String()),
		attribute.String("oracle.operation", op.String()),
		attribute.String("tool.name", toolName),
	)
	start := time.Now()
	v, err := resilience.Do(ctx, g.exec, op.String(), fn)
	elapsed := time.Since(start)
	observability.EndSpan(span, err)

	g.metrics.RecordOracleCall(ctx, op.String(), err == nil, elapsed)
	g.trackCircuit(ctx)

	if err == nil {
		logging.Debug().
			Add(logging.Oracle(op.String())).
			Add(logging.ToolName(toolName)).
			Add(logging.Duration(elapsed)).
			Msg("oracle call succeeded")
	}
	return v, err
}

func (g *Guard[S]) trackCircuit(ctx context.Context) {
	open := g.exec.CircuitBreakerState().String() == "open"
	if g.circuitOpen.Swap(open) != open {
		g.metrics.RecordCircuitBreakerStateChange(ctx, "oracle", open)
		logging.Warn().
			Add(logging.Component("oracle")).
			Add(logging.Str("circuit", g.exec.CircuitBreakerState().String())).
			Msg("oracle circuit breaker changed state")
	}
}

func (g *Guard[S]) fellBack(ctx context.Context, op oracle.Operation, toolName string, cause error) {
	g.metrics.RecordFallback(ctx, op.String())

	// Offline guards fall back on every call; that is expected, not a warning.
	entry := logging.Warn()
	if g.inner == nil {
		entry = logging.Debug()
	}
	entry.
		Add(logging.SearchID(event.SearchIDFrom(ctx))).
		Add(logging.Oracle(op.String())).
		Add(logging.ToolName(toolName)).
		Add(logging.Fallback(true)).
		Add(logging.ErrorField(cause)).
		Msg("oracle call failed, using fallback")

	e, err := event.NewEvent(event.SearchIDFrom(ctx), event.TypeOracleFallback, event.OracleFallbackPayload{
		Operation: op.String(),
		Tool:      toolName,
		Error:     cause.Error(),
	})
	if err == nil {
		err = g.recorder.Record(context.WithoutCancel(ctx), e)
	}
	if err != nil {
		logging.Warn().
			Add(logging.Oracle(op.String())).
			Add(logging.ErrorField(fmt.Errorf("record fallback event: %w", err))).
			Msg("event recording failed")
	}
}
