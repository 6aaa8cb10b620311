package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/toolplan/application"
	domainconfig "github.com/felixgeelhaar/toolplan/domain/config"
	"github.com/felixgeelhaar/toolplan/domain/oracle"
	infraconfig "github.com/felixgeelhaar/toolplan/infrastructure/config"
	eventlog "github.com/felixgeelhaar/toolplan/infrastructure/event"
	"github.com/felixgeelhaar/toolplan/infrastructure/logging"
	"github.com/felixgeelhaar/toolplan/infrastructure/observability"
	infraoracle "github.com/felixgeelhaar/toolplan/infrastructure/oracle"
	"github.com/felixgeelhaar/toolplan/infrastructure/telemetry"
	"github.com/felixgeelhaar/toolplan/pack/travel"
)

// runtime wires the travel pack to the components built from configuration.
type runtime struct {
	config  *domainconfig.PlannerConfig
	built   *infraconfig.BuildResult
	tracing *observability.Provider
	metrics telemetry.Metrics

	log       *eventlog.Log
	publisher *eventlog.Publisher
}

// newRuntime loads path (defaults when empty) and builds every component.
// offline discards the configured provider.
func (a *App) newRuntime(path string, offline bool) (*runtime, error) {
	cfg, err := infraconfig.NewLoader().LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if offline {
		cfg.Oracle.Provider = domainconfig.ProviderNone
	}

	built, err := infraconfig.NewBuilder(cfg, a.stderr).Build()
	if err != nil {
		return nil, fmt.Errorf("build components: %w", err)
	}
	logging.Init(built.Logging)

	tracing, err := observability.New(built.Tracing...)
	if err != nil {
		_ = built.Close()
		return nil, fmt.Errorf("start tracing: %w", err)
	}

	var metrics telemetry.Metrics = telemetry.NoopMetricsProvider{}
	if cfg.Telemetry.Enabled {
		mp := telemetry.NewMetricsProvider(telemetry.DefaultMetricsConfig())
		if err := mp.Error(); err != nil {
			logging.Warn().Add(logging.ErrorField(err)).Msg("metrics disabled")
		} else {
			metrics = mp
		}
	}

	log := eventlog.NewLog()
	return &runtime{
		config:    cfg,
		built:     built,
		tracing:   tracing,
		metrics:   metrics,
		log:       log,
		publisher: eventlog.NewPublisher(log, eventlog.WithBufferSize(64)),
	}, nil
}

// oracle stacks the LLM oracle, the response cache and the guard.
func (r *runtime) oracle() *infraoracle.Guard[travel.Booking] {
	var inner oracle.Oracle[travel.Booking]
	if r.built.Provider != nil {
		llm := r.built.LLM
		llm.Prompts = travel.Prompts()
		inner = infraoracle.NewLLM[travel.Booking](r.built.Provider, llm)
		if r.built.Cache != nil {
			inner = infraoracle.NewCached(inner, r.built.Cache, r.config.Cache.TTL.Duration(), r.metrics)
		}
	}

	return infraoracle.NewGuard(inner, travel.Fallback(r.built.Probability),
		infraoracle.WithExecutor(r.built.Executor),
		infraoracle.WithRecorder(r.publisher),
		infraoracle.WithMetrics(r.metrics),
		infraoracle.WithTracer(r.tracing.Tracer()),
	)
}

func (r *runtime) planner() *application.Planner[travel.Booking] {
	s := r.config.Search
	return application.NewPlanner(travel.Registry(), r.oracle(),
		application.WithTopK[travel.Booking](s.TopK),
		application.WithMaxArgCandidates[travel.Booking](s.MaxArgCandidates),
		application.WithEpsilon[travel.Booking](s.Epsilon),
		application.WithMaxExpansions[travel.Booking](s.MaxExpansions),
		application.WithTimeout[travel.Booking](s.Timeout.Duration()),
		application.WithConcurrency[travel.Booking](s.Concurrency),
		application.WithRecorder[travel.Booking](r.publisher),
		application.WithMetrics[travel.Booking](r.metrics),
		application.WithTracer[travel.Booking](r.tracing.Tracer()),
	)
}

// advisor returns the LLM advisor, or nil when the oracle is offline.
func (r *runtime) advisor() oracle.Advisor[travel.Booking] {
	if r.built.Provider == nil {
		return nil
	}
	return infraoracle.NewLLMAdvisor[travel.Booking](r.built.Provider, r.built.LLM)
}

func (r *runtime) executor() *application.Executor[travel.Booking] {
	opts := []application.ExecutorOption[travel.Booking]{
		application.WithExecutionRecorder[travel.Booking](r.publisher),
		application.WithExecutionTracer[travel.Booking](r.tracing.Tracer()),
	}
	if adv := r.advisor(); adv != nil {
		opts = append(opts, application.WithAdvisor(adv))
	}
	return application.NewExecutor(opts...)
}

func (r *runtime) Close(ctx context.Context) error {
	return errors.Join(
		r.publisher.Close(),
		r.tracing.Shutdown(ctx),
		r.built.Close(),
	)
}
