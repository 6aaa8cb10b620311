package config

import (
	"encoding/json"

	domainconfig "github.com/felixgeelhaar/toolplan/domain/config"
)

// JSONSchema is the subset of JSON Schema used to describe planner files.
type JSONSchema struct {
	Schema      string                 `json:"$schema,omitempty"`
	ID          string                 `json:"$id,omitempty"`
	Title       string                 `json:"title,omitempty"`
	Description string                 `json:"description,omitempty"`
	Type        string                 `json:"type,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Enum        []string               `json:"enum,omitempty"`
	Default     any                    `json:"default,omitempty"`
	Minimum     *float64               `json:"minimum,omitempty"`
	Maximum     *float64               `json:"maximum,omitempty"`
	Pattern     string                 `json:"pattern,omitempty"`

	AdditionalProperties *bool `json:"additionalProperties,omitempty"`
}

const durationPattern = `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`

// GenerateSchema describes PlannerConfig, with defaults from config.Default.
func GenerateSchema() *JSONSchema {
	d := domainconfig.Default()
	return object("Planner configuration", map[string]*JSONSchema{
		"name":    str("Human-readable configuration name", d.Name),
		"version": str("Configuration schema version", d.Version),
		"goal":    str("Default goal text", nil),
		"search": object("Best-first search settings", map[string]*JSONSchema{
			"top_k":              integer("Ranked tools considered per expansion", d.Search.TopK, 1),
			"max_arg_candidates": integer("Argument tuples requested per tool", d.Search.MaxArgCandidates, 1),
			"epsilon":            number("Floor of the combined probability", d.Search.Epsilon, 0, 1),
			"max_expansions":     integer("Expansion budget, 0 for unlimited", d.Search.MaxExpansions, 0),
			"timeout":            duration("Deadline for the whole search", d.Search.Timeout.Duration().String()),
			"concurrency":        integer("Parallel oracle calls per expansion", d.Search.Concurrency, 1),
		}),
		"oracle": object("Oracle transport and resilience", map[string]*JSONSchema{
			"provider": enum("LLM backend", d.Oracle.Provider,
				domainconfig.ProviderNone, domainconfig.ProviderMock, domainconfig.ProviderOpenAI,
				domainconfig.ProviderAnthropic, domainconfig.ProviderOllama),
			"model":        str("Model identifier", nil),
			"api_key":      str("API key; prefer ${ENV_VAR} references", nil),
			"base_url":     str("Endpoint override", nil),
			"temperature":  number("Sampling temperature", 0, 0, 2),
			"max_tokens":   integer("Completion token limit", d.Oracle.MaxTokens, 1),
			"call_timeout": duration("Timeout per oracle call", d.Oracle.CallTimeout.Duration().String()),
			"retry": object("Retries of failed calls", map[string]*JSONSchema{
				"max_attempts":  integer("Total attempts, 1 for no retry", d.Oracle.Retry.MaxAttempts, 1),
				"initial_delay": duration("Delay before the first retry", d.Oracle.Retry.InitialDelay.Duration().String()),
				"multiplier":    number("Backoff multiplier", d.Oracle.Retry.Multiplier, 1, 10),
			}),
			"circuit_breaker": object("Circuit breaker around the provider", map[string]*JSONSchema{
				"threshold": integer("Consecutive failures before opening", d.Oracle.CircuitBreaker.Threshold, 1),
				"timeout":   duration("How long the circuit stays open", d.Oracle.CircuitBreaker.Timeout.Duration().String()),
			}),
			"rate_limit": object("Call pacing", map[string]*JSONSchema{
				"rate":  integer("Calls per second, 0 for unlimited", 0, 0),
				"burst": integer("Bucket capacity", 0, 0),
			}),
		}),
		"fallback": object("Deterministic fallback oracle", map[string]*JSONSchema{
			"seed":            integer("Probability source seed", d.Fallback.Seed, 0),
			"min_probability": number("Lower probability bound", d.Fallback.MinProbability, 0, 1),
			"max_probability": number("Upper probability bound", d.Fallback.MaxProbability, 0, 1),
		}),
		"cache": object("Oracle response cache", map[string]*JSONSchema{
			"enabled":  {Type: "boolean", Description: "Turn caching on", Default: false},
			"backend":  enum("Cache backend", d.Cache.Backend, domainconfig.CacheMemory, domainconfig.CacheBadger, domainconfig.CacheRedis),
			"ttl":      duration("Lifetime of cached responses", d.Cache.TTL.Duration().String()),
			"max_size": integer("Entry limit of the memory backend", d.Cache.MaxSize, 0),
			"path":     str("Badger data directory; empty keeps data in memory", nil),
			"addr":     str("Redis address", nil),
			"password": str("Redis password", nil),
			"db":       integer("Redis database", 0, 0),
			"prefix":   str("Key namespace", d.Cache.Prefix),
		}),
		"logging": object("Log output", map[string]*JSONSchema{
			"level":  enum("Minimum level", d.Logging.Level, "debug", "info", "warn", "error"),
			"format": enum("Output format", d.Logging.Format, "console", "json"),
		}),
		"telemetry": object("Metrics and tracing", map[string]*JSONSchema{
			"enabled":      {Type: "boolean", Description: "Turn telemetry on", Default: false},
			"service_name": str("Service name in traces", d.Telemetry.ServiceName),
			"exporter":     enum("Trace exporter", d.Telemetry.Exporter, domainconfig.ExporterNone, domainconfig.ExporterStdout, domainconfig.ExporterOTLP),
			"endpoint":     str("OTLP collector address", nil),
			"insecure":     {Type: "boolean", Description: "Disable TLS for OTLP", Default: false},
			"sample_rate":  number("Trace sampling ratio", d.Telemetry.SampleRate, 0, 1),
		}),
	}, "name", "version")
}

func object(desc string, props map[string]*JSONSchema, required ...string) *JSONSchema {
	closed := false
	return &JSONSchema{
		Type:                 "object",
		Description:          desc,
		Properties:           props,
		Required:             required,
		AdditionalProperties: &closed,
	}
}

func str(desc string, def any) *JSONSchema {
	return &JSONSchema{Type: "string", Description: desc, Default: def}
}

func enum(desc, def string, values ...string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: desc, Default: def, Enum: values}
}

func duration(desc, def string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: desc, Default: def, Pattern: durationPattern}
}

func integer[N int | uint64](desc string, def N, min float64) *JSONSchema {
	return &JSONSchema{Type: "integer", Description: desc, Default: def, Minimum: &min}
}

func number(desc string, def, min, max float64) *JSONSchema {
	return &JSONSchema{Type: "number", Description: desc, Default: def, Minimum: &min, Maximum: &max}
}

// SchemaJSON returns the schema as indented JSON.
func SchemaJSON() (string, error) {
	s := GenerateSchema()
	s.Schema = "https://json-schema.org/draft/2020-12/schema"
	s.ID = "https://github.com/felixgeelhaar/toolplan/planner-config.schema.json"
	s.Title = "toolplan configuration"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
