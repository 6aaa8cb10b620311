package config

import (
	"errors"
	"fmt"
	"io"

	"github.com/felixgeelhaar/toolplan/domain/cache"
	domainconfig "github.com/felixgeelhaar/toolplan/domain/config"
	"github.com/felixgeelhaar/toolplan/infrastructure/logging"
	"github.com/felixgeelhaar/toolplan/infrastructure/observability"
	"github.com/felixgeelhaar/toolplan/infrastructure/oracle"
	"github.com/felixgeelhaar/toolplan/infrastructure/provider"
	"github.com/felixgeelhaar/toolplan/infrastructure/resilience"
	"github.com/felixgeelhaar/toolplan/infrastructure/storage"
)

// Builder turns a configuration into runtime components.
type Builder struct {
	config    *domainconfig.PlannerConfig
	logOutput io.Writer
}

// NewBuilder creates a builder. Logs go to logOutput (nil means stderr).
func NewBuilder(config *domainconfig.PlannerConfig, logOutput io.Writer) *Builder {
	return &Builder{config: config, logOutput: logOutput}
}

// BuildResult holds the components built from configuration.
type BuildResult struct {
	// Provider is the LLM transport; nil when the oracle is offline.
	Provider provider.Provider
	// LLM configures the LLM oracle.
	LLM oracle.LLMConfig
	// Executor guards oracle calls.
	Executor *resilience.Executor
	// Probability feeds fallback success estimates.
	Probability oracle.ProbabilitySource
	// Cache stores oracle responses; nil when disabled.
	Cache cache.Cache
	// Logging configures the logger.
	Logging logging.Config
	// Tracing configures the trace provider.
	Tracing []observability.Option
}

// Close releases the cache backend.
func (r *BuildResult) Close() error {
	return storage.Close(r.Cache)
}

// Build builds every component. Partially opened resources are released on error.
func (b *Builder) Build() (*BuildResult, error) {
	c := b.config
	result := &BuildResult{
		Executor:    resilience.NewExecutor(ExecutorConfig(c.Oracle)),
		Probability: oracle.NewSeeded(c.Fallback.Seed, c.Fallback.MinProbability, c.Fallback.MaxProbability),
		Logging: logging.Config{
			Level:  c.Logging.Level,
			Format: c.Logging.Format,
			Output: b.logOutput,
		},
		LLM: oracle.LLMConfig{
			Model:       c.Oracle.Model,
			Temperature: c.Oracle.Temperature,
			MaxTokens:   c.Oracle.MaxTokens,
		},
	}

	result.Tracing = observability.FromTelemetry(c.Telemetry)

	p, err := provider.New(c.Oracle)
	if err != nil {
		return nil, fmt.Errorf("building oracle provider: %w", err)
	}
	result.Provider = p

	store, err := storage.NewCache(c.Cache)
	if err != nil {
		return nil, fmt.Errorf("building cache: %w", err)
	}
	result.Cache = store

	return result, nil
}

// ExecutorConfig maps oracle settings onto the resilience executor.
func ExecutorConfig(o domainconfig.OracleConfig) resilience.ExecutorConfig {
	cfg := resilience.DefaultExecutorConfig()
	if o.CircuitBreaker.Threshold > 0 {
		cfg.CircuitBreakerThreshold = o.CircuitBreaker.Threshold
	}
	if o.CircuitBreaker.Timeout > 0 {
		cfg.CircuitBreakerTimeout = o.CircuitBreaker.Timeout.Duration()
	}
	if o.Retry.MaxAttempts > 0 {
		cfg.RetryMaxAttempts = o.Retry.MaxAttempts
	}
	if o.Retry.InitialDelay > 0 {
		cfg.RetryInitialDelay = o.Retry.InitialDelay.Duration()
	}
	if o.Retry.Multiplier > 0 {
		cfg.RetryBackoffMultiplier = o.Retry.Multiplier
	}
	if o.CallTimeout > 0 {
		cfg.Timeout = o.CallTimeout.Duration()
	}
	cfg.Rate = o.RateLimit.Rate
	cfg.Burst = max(o.RateLimit.Burst, o.RateLimit.Rate)
	return cfg
}

// Offline reports whether cfg disables the LLM oracle.
func Offline(cfg *domainconfig.PlannerConfig) bool {
	return cfg.Oracle.Provider == "" || cfg.Oracle.Provider == domainconfig.ProviderNone
}

// ErrNoConfig is returned when a builder has no configuration.
var ErrNoConfig = errors.New("no configuration")

// Validate checks the builder's configuration without building anything.
func (b *Builder) Validate() error {
	if b.config == nil {
		return ErrNoConfig
	}
	if errs := domainconfig.NewValidator().Validate(b.config); errs.HasErrors() {
		return fmt.Errorf("%w: %w", domainconfig.ErrValidationFailed, errs)
	}
	return nil
}
