// Package application provides the planner and the plan executor.
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/toolplan/domain/event"
	"github.com/felixgeelhaar/toolplan/domain/oracle"
	"github.com/felixgeelhaar/toolplan/domain/plan"
	"github.com/felixgeelhaar/toolplan/domain/search"
	"github.com/felixgeelhaar/toolplan/domain/state"
	"github.com/felixgeelhaar/toolplan/domain/tool"
	"github.com/felixgeelhaar/toolplan/infrastructure/logging"
	"github.com/felixgeelhaar/toolplan/infrastructure/observability"
	infraoracle "github.com/felixgeelhaar/toolplan/infrastructure/oracle"
	"github.com/felixgeelhaar/toolplan/infrastructure/statemachine"
	"github.com/felixgeelhaar/toolplan/infrastructure/telemetry"
)

// Planner runs oracle-guided best-first searches over a tool registry.
// A Planner holds no per-search state and may run searches concurrently.
type Planner[S state.State] struct {
	registry tool.Registry[S]
	oracle   oracle.Oracle[S]
	config   PlannerConfig[S]
	recorder event.Recorder
	metrics  telemetry.Metrics
	tracer   trace.Tracer
}

// Result is a successful search outcome.
type Result[S state.State] struct {
	SearchID   string
	Plan       plan.Plan[S]
	Final      S
	Cost       float64
	Expansions int
	Duration   time.Duration
}

// NewPlanner creates a planner. Unless o is already a guard, it is wrapped
// in one so that every failed or invalid oracle answer is replaced by the
// fallback. A nil oracle plans on the fallback alone.
func NewPlanner[S state.State](registry tool.Registry[S], o oracle.Oracle[S], opts ...Option[S]) *Planner[S] {
	cfg := DefaultPlannerConfig[S]()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.TopK < 1 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MaxArgCandidates < 1 {
		cfg.MaxArgCandidates = DefaultMaxArgCandidates
	}
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = search.DefaultEpsilon
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Fallback == nil {
		cfg.Fallback = infraoracle.NewFallback[S](infraoracle.FallbackConfig{})
	}
	if cfg.Recorder == nil {
		cfg.Recorder = event.Discard
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NoopMetricsProvider{}
	}

	guard, ok := o.(*infraoracle.Guard[S])
	if !ok {
		guardOpts := append([]infraoracle.GuardOption{
			infraoracle.WithRecorder(cfg.Recorder),
			infraoracle.WithMetrics(cfg.Metrics),
			infraoracle.WithTracer(cfg.Tracer),
		}, cfg.GuardOptions...)
		guard = infraoracle.NewGuard(o, cfg.Fallback, guardOpts...)
	}

	return &Planner[S]{
		registry: registry,
		oracle:   guard,
		config:   cfg,
		recorder: cfg.Recorder,
		metrics:  cfg.Metrics,
		tracer:   cfg.Tracer,
	}
}

// Config returns the effective configuration.
func (p *Planner[S]) Config() PlannerConfig[S] {
	return p.config
}

// Search plans from initial toward a goal state described by goal.
// It fails with a *search.FailedError when the frontier empties and with a
// *search.TimedOutError when the deadline or expansion budget runs out.
func (p *Planner[S]) Search(ctx context.Context, initial S, goal string) (*Result[S], error) {
	id := uuid.NewString()
	ctx = event.WithSearchID(ctx, id)

	lc, err := statemachine.NewLifecycle(search.NewRun(id, goal))
	if err != nil {
		return nil, err
	}
	defer lc.Stop()

	ctx, span := observability.StartSpan(ctx, p.tracer, observability.SpanSearch,
		attribute.String("search.id", id),
		attribute.String("search.goal", goal),
	)
	p.metrics.IncrementActiveSearches(ctx)
	defer p.metrics.DecrementActiveSearches(ctx)

	if err := lc.Begin(); err != nil {
		observability.EndSpan(span, err)
		return nil, err
	}

	p.record(ctx, event.TypeSearchStarted, event.SearchStartedPayload{
		Goal:          goal,
		Initial:       initial.Fields(),
		Tools:         p.registry.Names(),
		TopK:          p.config.TopK,
		MaxArgs:       p.config.MaxArgCandidates,
		MaxExpansions: p.config.MaxExpansions,
	})
	logging.Info().
		Add(logging.SearchID(id)).
		Add(logging.Goal(goal)).
		Add(logging.Count("tools", p.registry.Len())).
		Msg("search started")

	searchCtx := ctx
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	s := &searcher[S]{
		planner: p,
		goal:    goal,
		run:     lc.Run(),
		open:    newFrontier[S](),
		closed:  make(map[S]struct{}),
	}
	result, err := s.search(searchCtx, initial)

	// Terminal bookkeeping must happen even when the search context expired.
	ctx = context.WithoutCancel(ctx)
	if err != nil {
		p.finishFailed(ctx, lc, err)
	} else {
		result.SearchID = id
		p.finishSucceeded(ctx, lc, result)
	}
	p.flush(ctx)
	observability.EndSpan(span, err)
	return result, err
}

func (p *Planner[S]) finishSucceeded(ctx context.Context, lc *statemachine.Lifecycle, r *Result[S]) {
	if err := lc.Succeed(r.Plan.Len()); err != nil {
		logging.Warn().Add(logging.SearchID(r.SearchID)).Add(logging.ErrorField(err)).Msg("lifecycle transition rejected")
	}
	r.Duration = lc.Run().Duration()

	p.record(ctx, event.TypeSearchSucceeded, event.SearchSucceededPayload{
		Plan:       r.Plan.Records(),
		Cost:       r.Cost,
		Expansions: r.Expansions,
		Duration:   r.Duration,
	})
	p.metrics.RecordSearch(ctx, string(search.PhaseSucceeded), r.Duration, r.Plan.Len())
	logging.Info().
		Add(logging.SearchID(r.SearchID)).
		Add(logging.Count("steps", r.Plan.Len())).
		Add(logging.Count("expansions", r.Expansions)).
		Add(logging.Float("cost", r.Cost)).
		Add(logging.Duration(r.Duration)).
		Msg("search succeeded")
}

func (p *Planner[S]) finishFailed(ctx context.Context, lc *statemachine.Lifecycle, cause error) {
	run := lc.Run()
	if err := lc.Finish(cause); err != nil {
		logging.Warn().Add(logging.SearchID(run.ID)).Add(logging.ErrorField(err)).Msg("lifecycle transition rejected")
	}

	payload := event.SearchFailedPayload{
		Error:      cause.Error(),
		Expansions: run.Expansions,
		Duration:   run.Duration(),
	}
	eventType := event.TypeSearchFailed

	var failed *search.FailedError[S]
	var timedOut *search.TimedOutError[S]
	switch {
	case errors.As(cause, &timedOut):
		eventType = event.TypeSearchTimedOut
		payload.Budget = string(timedOut.Budget)
		payload.Partial = timedOut.Partial.Records()
		payload.State = timedOut.State.Fields()
	case errors.As(cause, &failed):
		payload.Partial = failed.Partial.Records()
		payload.State = failed.State.Fields()
	}

	p.record(ctx, eventType, payload)
	p.metrics.RecordSearch(ctx, string(run.Phase), payload.Duration, 0)
	logging.Error().
		Add(logging.SearchID(run.ID)).
		Add(logging.Phase(run.Phase.String())).
		Add(logging.Count("expansions", run.Expansions)).
		Add(logging.ErrorField(cause)).
		Msg("search did not reach the goal")
}

// record appends one event. Recording failures are logged, never fatal.
func (p *Planner[S]) record(ctx context.Context, typ event.Type, payload any) {
	id := event.SearchIDFrom(ctx)
	e, err := event.NewEvent(id, typ, payload)
	if err == nil {
		err = p.recorder.Record(context.WithoutCancel(ctx), e)
	}
	if err != nil {
		logging.Warn().
			Add(logging.SearchID(id)).
			Add(logging.Str("event", string(typ))).
			Add(logging.ErrorField(fmt.Errorf("record event: %w", err))).
			Msg("event recording failed")
	}
}

type flusher interface {
	Flush(ctx context.Context) error
}

// flush drains buffering recorders at the end of a search.
func (p *Planner[S]) flush(ctx context.Context) {
	f, ok := p.recorder.(flusher)
	if !ok {
		return
	}
	if err := f.Flush(ctx); err != nil {
		logging.Warn().
			Add(logging.SearchID(event.SearchIDFrom(ctx))).
			Add(logging.ErrorField(err)).
			Msg("event flush failed")
	}
}
