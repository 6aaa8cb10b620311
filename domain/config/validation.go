package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the JSON path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates planner configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *PlannerConfig) ValidationErrors {
	v.errors = nil

	v.validateRequired(config)
	v.validateSearch(config)
	v.validateOracle(config)
	v.validateFallback(config)
	v.validateCache(config)
	v.validateLogging(config)
	v.validateTelemetry(config)

	return v.errors
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) validateRequired(config *PlannerConfig) {
	if config.Name == "" {
		v.addError("name", "name is required")
	}
	if config.Version == "" {
		v.addError("version", "version is required")
	}
}

func (v *Validator) validateSearch(config *PlannerConfig) {
	s := config.Search
	if s.TopK < 1 {
		v.addError("search.top_k", "top_k must be at least 1")
	}
	if s.MaxArgCandidates < 1 {
		v.addError("search.max_arg_candidates", "max_arg_candidates must be at least 1")
	}
	if s.Epsilon <= 0 || s.Epsilon >= 1 {
		v.addError("search.epsilon", "epsilon must be in (0, 1)")
	}
	if s.MaxExpansions < 0 {
		v.addError("search.max_expansions", "max_expansions must be non-negative")
	}
	if s.Timeout < 0 {
		v.addError("search.timeout", "timeout must be non-negative")
	}
	if s.Concurrency < 1 {
		v.addError("search.concurrency", "concurrency must be at least 1")
	}
}

func (v *Validator) validateOracle(config *PlannerConfig) {
	o := config.Oracle
	switch o.Provider {
	case ProviderNone, ProviderMock, ProviderOllama:
	case ProviderOpenAI, ProviderAnthropic:
		if o.APIKey == "" {
			v.addError("oracle.api_key", fmt.Sprintf("api_key is required for provider %s", o.Provider))
		}
	default:
		v.addError("oracle.provider", fmt.Sprintf("invalid provider: %s", o.Provider))
	}
	if o.Temperature < 0 || o.Temperature > 2 {
		v.addError("oracle.temperature", "temperature must be between 0 and 2")
	}
	if o.CallTimeout < 0 {
		v.addError("oracle.call_timeout", "call_timeout must be non-negative")
	}
	if o.Retry.MaxAttempts < 1 {
		v.addError("oracle.retry.max_attempts", "max_attempts must be at least 1")
	}
	if o.Retry.Multiplier < 1 {
		v.addError("oracle.retry.multiplier", "multiplier must be at least 1")
	}
	if o.CircuitBreaker.Threshold < 1 {
		v.addError("oracle.circuit_breaker.threshold", "threshold must be at least 1")
	}
	if o.RateLimit.Rate < 0 {
		v.addError("oracle.rate_limit.rate", "rate must be non-negative")
	}
	if o.RateLimit.Burst < 0 {
		v.addError("oracle.rate_limit.burst", "burst must be non-negative")
	}
}

func (v *Validator) validateFallback(config *PlannerConfig) {
	f := config.Fallback
	if f.MinProbability <= 0 || f.MinProbability > 1 {
		v.addError("fallback.min_probability", "min_probability must be in (0, 1]")
	}
	if f.MaxProbability <= 0 || f.MaxProbability > 1 {
		v.addError("fallback.max_probability", "max_probability must be in (0, 1]")
	}
	if f.MinProbability > f.MaxProbability {
		v.addError("fallback", "min_probability must not exceed max_probability")
	}
}

func (v *Validator) validateCache(config *PlannerConfig) {
	c := config.Cache
	if !c.Enabled {
		return
	}
	switch c.Backend {
	case CacheMemory:
		if c.MaxSize < 0 {
			v.addError("cache.max_size", "max_size must be non-negative")
		}
	case CacheBadger:
	case CacheRedis:
		if c.Addr == "" {
			v.addError("cache.addr", "addr is required for the redis backend")
		}
	default:
		v.addError("cache.backend", fmt.Sprintf("invalid backend: %s", c.Backend))
	}
	if c.TTL < 0 {
		v.addError("cache.ttl", "ttl must be non-negative")
	}
}

func (v *Validator) validateLogging(config *PlannerConfig) {
	switch config.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		v.addError("logging.level", fmt.Sprintf("invalid level: %s", config.Logging.Level))
	}
	switch config.Logging.Format {
	case "console", "json":
	default:
		v.addError("logging.format", fmt.Sprintf("invalid format: %s", config.Logging.Format))
	}
}

func (v *Validator) validateTelemetry(config *PlannerConfig) {
	t := config.Telemetry
	if !t.Enabled {
		return
	}
	switch t.Exporter {
	case ExporterNone, ExporterStdout:
	case ExporterOTLP:
		if t.Endpoint == "" {
			v.addError("telemetry.endpoint", "endpoint is required for the otlp exporter")
		}
	default:
		v.addError("telemetry.exporter", fmt.Sprintf("invalid exporter: %s", t.Exporter))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		v.addError("telemetry.sample_rate", "sample_rate must be between 0 and 1")
	}
}
