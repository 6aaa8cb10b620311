// Package config provides domain models for planner configuration.
package config

import "time"

// Oracle providers.
const (
	ProviderNone      = "none"
	ProviderMock      = "mock"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheBadger = "badger"
	CacheRedis  = "redis"
)

// Trace exporters.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// PlannerConfig represents the complete planner configuration.
type PlannerConfig struct {
	// Name is a human-readable name for this configuration.
	Name string `json:"name" yaml:"name"`
	// Version is the configuration schema version.
	Version string `json:"version" yaml:"version"`
	// Goal is the default goal text if none is provided.
	Goal string `json:"goal,omitempty" yaml:"goal,omitempty"`

	// Search contains best-first search settings.
	Search SearchConfig `json:"search" yaml:"search"`
	// Oracle contains oracle transport and resilience settings.
	Oracle OracleConfig `json:"oracle" yaml:"oracle"`
	// Fallback contains deterministic fallback settings.
	Fallback FallbackConfig `json:"fallback" yaml:"fallback"`
	// Cache contains oracle response cache settings.
	Cache CacheConfig `json:"cache" yaml:"cache"`
	// Logging contains log output settings.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	// Telemetry contains metrics and tracing settings.
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
}

// SearchConfig configures the best-first search.
type SearchConfig struct {
	// TopK is the number of ranked tools considered per expansion.
	TopK int `json:"top_k,omitempty" yaml:"top_k,omitempty"`
	// MaxArgCandidates is the number of argument tuples requested per tool.
	MaxArgCandidates int `json:"max_arg_candidates,omitempty" yaml:"max_arg_candidates,omitempty"`
	// Epsilon floors the combined probability.
	Epsilon float64 `json:"epsilon,omitempty" yaml:"epsilon,omitempty"`
	// MaxExpansions bounds the number of node expansions.
	MaxExpansions int `json:"max_expansions,omitempty" yaml:"max_expansions,omitempty"`
	// Timeout bounds the whole search (0 = no deadline).
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// Concurrency bounds parallel oracle calls within one expansion.
	Concurrency int `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
}

// OracleConfig configures the oracle transport.
type OracleConfig struct {
	// Provider selects the LLM backend.
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
	// Model is the model identifier.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
	// APIKey authenticates with the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	// Temperature is the sampling temperature.
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	// MaxTokens bounds each completion.
	MaxTokens int `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	// CallTimeout bounds each oracle call.
	CallTimeout Duration `json:"call_timeout,omitempty" yaml:"call_timeout,omitempty"`
	// Retry configures retries of failed calls.
	Retry RetryConfig `json:"retry,omitempty" yaml:"retry,omitempty"`
	// CircuitBreaker configures the breaker around the provider.
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker,omitempty" yaml:"circuit_breaker,omitempty"`
	// RateLimit configures call pacing.
	RateLimit RateLimitConfig `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
}

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts (1 = no retry).
	MaxAttempts int `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
	// InitialDelay is the delay before the first retry.
	InitialDelay Duration `json:"initial_delay,omitempty" yaml:"initial_delay,omitempty"`
	// Multiplier is the exponential backoff multiplier.
	Multiplier float64 `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
}

// CircuitBreakerConfig configures circuit breaker behavior.
type CircuitBreakerConfig struct {
	// Threshold is the number of consecutive failures before opening.
	Threshold int `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	// Timeout is how long the circuit stays open.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// RateLimitConfig configures the token bucket in front of the provider.
type RateLimitConfig struct {
	// Rate is the number of calls allowed per second (0 = unlimited).
	Rate int `json:"rate,omitempty" yaml:"rate,omitempty"`
	// Burst is the bucket capacity.
	Burst int `json:"burst,omitempty" yaml:"burst,omitempty"`
}

// FallbackConfig configures the deterministic fallback oracle.
type FallbackConfig struct {
	// Seed seeds the probability source.
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
	// MinProbability is the lower bound of fallback probabilities.
	MinProbability float64 `json:"min_probability,omitempty" yaml:"min_probability,omitempty"`
	// MaxProbability is the upper bound of fallback probabilities.
	MaxProbability float64 `json:"max_probability,omitempty" yaml:"max_probability,omitempty"`
}

// CacheConfig configures the oracle response cache.
type CacheConfig struct {
	// Enabled turns response caching on.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Backend selects memory, badger or redis.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	// TTL is the lifetime of cached responses.
	TTL Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
	// MaxSize bounds the memory backend.
	MaxSize int `json:"max_size,omitempty" yaml:"max_size,omitempty"`
	// Path is the badger data directory.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// Addr is the redis address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
	// Password is the redis password.
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	// DB is the redis database number.
	DB int `json:"db,omitempty" yaml:"db,omitempty"`
	// Prefix namespaces keys.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is console or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// TelemetryConfig configures metrics and tracing.
type TelemetryConfig struct {
	// Enabled turns telemetry on.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// ServiceName identifies this process in traces.
	ServiceName string `json:"service_name,omitempty" yaml:"service_name,omitempty"`
	// Exporter is none, stdout or otlp.
	Exporter string `json:"exporter,omitempty" yaml:"exporter,omitempty"`
	// Endpoint is the OTLP collector address.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	// Insecure disables TLS for the OTLP exporter.
	Insecure bool `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	// SampleRate is the trace sampling ratio.
	SampleRate float64 `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
}

// Default returns a configuration with every default applied.
func Default() PlannerConfig {
	var c PlannerConfig
	ApplyDefaults(&c)
	return c
}

// ApplyDefaults fills unset fields.
func ApplyDefaults(c *PlannerConfig) {
	if c.Name == "" {
		c.Name = "toolplan"
	}
	if c.Version == "" {
		c.Version = "1"
	}

	s := &c.Search
	if s.TopK == 0 {
		s.TopK = 3
	}
	if s.MaxArgCandidates == 0 {
		s.MaxArgCandidates = 3
	}
	if s.Epsilon == 0 {
		s.Epsilon = 1e-9
	}
	if s.MaxExpansions == 0 {
		s.MaxExpansions = 64
	}
	if s.Timeout == 0 {
		s.Timeout = Duration(2 * time.Minute)
	}
	if s.Concurrency == 0 {
		s.Concurrency = 1
	}

	o := &c.Oracle
	if o.Provider == "" {
		o.Provider = ProviderNone
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = 256
	}
	if o.CallTimeout == 0 {
		o.CallTimeout = Duration(30 * time.Second)
	}
	if o.Retry.MaxAttempts == 0 {
		o.Retry.MaxAttempts = 1
	}
	if o.Retry.InitialDelay == 0 {
		o.Retry.InitialDelay = Duration(200 * time.Millisecond)
	}
	if o.Retry.Multiplier == 0 {
		o.Retry.Multiplier = 2
	}
	if o.CircuitBreaker.Threshold == 0 {
		o.CircuitBreaker.Threshold = 5
	}
	if o.CircuitBreaker.Timeout == 0 {
		o.CircuitBreaker.Timeout = Duration(30 * time.Second)
	}

	f := &c.Fallback
	if f.Seed == 0 {
		f.Seed = 1
	}
	if f.MinProbability == 0 && f.MaxProbability == 0 {
		f.MinProbability = 0.4
		f.MaxProbability = 0.9
	}

	ch := &c.Cache
	if ch.Backend == "" {
		ch.Backend = CacheMemory
	}
	if ch.TTL == 0 {
		ch.TTL = Duration(10 * time.Minute)
	}
	if ch.MaxSize == 0 {
		ch.MaxSize = 1000
	}
	if ch.Prefix == "" {
		ch.Prefix = "toolplan:"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}

	t := &c.Telemetry
	if t.ServiceName == "" {
		t.ServiceName = "toolplan"
	}
	if t.Exporter == "" {
		t.Exporter = ExporterNone
	}
	if t.SampleRate == 0 {
		t.SampleRate = 1
	}
}

// Duration is a time.Duration that supports JSON/YAML string representation.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	// Handle null
	if string(b) == "null" {
		return nil
	}

	// Remove quotes
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	// Parse duration
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
