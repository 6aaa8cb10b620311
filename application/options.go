package application

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/toolplan/domain/event"
	"github.com/felixgeelhaar/toolplan/domain/oracle"
	"github.com/felixgeelhaar/toolplan/domain/search"
	"github.com/felixgeelhaar/toolplan/domain/state"
	infraoracle "github.com/felixgeelhaar/toolplan/infrastructure/oracle"
	"github.com/felixgeelhaar/toolplan/infrastructure/telemetry"
)

// Default search parameters.
const (
	DefaultTopK             = 3
	DefaultMaxArgCandidates = 3
	DefaultMaxExpansions    = 64
	DefaultTimeout          = 2 * time.Minute
)

// PlannerConfig contains configuration for the planner.
type PlannerConfig[S state.State] struct {
	// TopK is the number of ranked tools considered per expansion.
	TopK int
	// MaxArgCandidates is the number of argument tuples requested per tool.
	MaxArgCandidates int
	// Epsilon floors prior*probability before it divides the heuristic.
	Epsilon float64
	// MaxExpansions bounds node expansions; zero or less means unbounded.
	MaxExpansions int
	// Timeout bounds the whole search; zero or less means no deadline.
	Timeout time.Duration
	// Concurrency bounds the candidate evaluations in flight per expansion.
	Concurrency int

	Fallback     oracle.Fallback[S]
	GuardOptions []infraoracle.GuardOption
	Recorder     event.Recorder
	Metrics      telemetry.Metrics
	Tracer       trace.Tracer
}

// DefaultPlannerConfig returns the sequential defaults.
func DefaultPlannerConfig[S state.State]() PlannerConfig[S] {
	return PlannerConfig[S]{
		TopK:             DefaultTopK,
		MaxArgCandidates: DefaultMaxArgCandidates,
		Epsilon:          search.DefaultEpsilon,
		MaxExpansions:    DefaultMaxExpansions,
		Timeout:          DefaultTimeout,
		Concurrency:      1,
	}
}

// Option configures the planner.
type Option[S state.State] func(*PlannerConfig[S])

// WithTopK sets how many ranked tools each expansion considers.
func WithTopK[S state.State](k int) Option[S] {
	return func(c *PlannerConfig[S]) {
		c.TopK = k
	}
}

// WithMaxArgCandidates sets how many argument tuples are requested per tool.
func WithMaxArgCandidates[S state.State](n int) Option[S] {
	return func(c *PlannerConfig[S]) {
		c.MaxArgCandidates = n
	}
}

// WithEpsilon sets the probability floor.
func WithEpsilon[S state.State](eps float64) Option[S] {
	return func(c *PlannerConfig[S]) {
		c.Epsilon = eps
	}
}

// WithMaxExpansions sets the expansion budget.
func WithMaxExpansions[S state.State](n int) Option[S] {
	return func(c *PlannerConfig[S]) {
		c.MaxExpansions = n
	}
}

// WithTimeout sets the search deadline.
func WithTimeout[S state.State](d time.Duration) Option[S] {
	return func(c *PlannerConfig[S]) {
		c.Timeout = d
	}
}

// WithConcurrency bounds parallel candidate evaluation within one expansion.
// The chosen successor does not depend on n.
func WithConcurrency[S state.State](n int) Option[S] {
	return func(c *PlannerConfig[S]) {
		c.Concurrency = n
	}
}

// WithFallback sets the deterministic substitute for failed oracle calls.
func WithFallback[S state.State](f oracle.Fallback[S]) Option[S] {
	return func(c *PlannerConfig[S]) {
		c.Fallback = f
	}
}

// WithGuard adds options for the guard placed in front of the oracle,
// such as its resilience executor.
func WithGuard[S state.State](opts ...infraoracle.GuardOption) Option[S] {
	return func(c *PlannerConfig[S]) {
		c.GuardOptions = append(c.GuardOptions, opts...)
	}
}

// WithRecorder sets the event recorder.
func WithRecorder[S state.State](r event.Recorder) Option[S] {
	return func(c *PlannerConfig[S]) {
		c.Recorder = r
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics[S state.State](m telemetry.Metrics) Option[S] {
	return func(c *PlannerConfig[S]) {
		c.Metrics = m
	}
}

// WithTracer sets the tracer.
func WithTracer[S state.State](t trace.Tracer) Option[S] {
	return func(c *PlannerConfig[S]) {
		c.Tracer = t
	}
}
