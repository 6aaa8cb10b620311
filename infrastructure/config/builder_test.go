package config

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	domainconfig "github.com/felixgeelhaar/toolplan/domain/config"
	"github.com/felixgeelhaar/toolplan/infrastructure/provider"
)

func TestExecutorConfig(t *testing.T) {
	t.Parallel()

	o := domainconfig.Default().Oracle
	o.Retry.MaxAttempts = 4
	o.CallTimeout = domainconfig.Duration(time.Second)
	o.RateLimit.Rate = 10

	cfg := ExecutorConfig(o)
	if cfg.RetryMaxAttempts != 4 || cfg.Timeout != time.Second {
		t.Errorf("ExecutorConfig() = %+v, want 4 attempts and 1s timeout", cfg)
	}
	if cfg.Rate != 10 || cfg.Burst != 10 {
		t.Errorf("rate, burst = %d, %d, want 10, 10", cfg.Rate, cfg.Burst)
	}
}

func TestBuilder_Build(t *testing.T) {
	t.Parallel()

	cfg := domainconfig.Default()
	cfg.Cache.Enabled = true
	cfg.Oracle.Provider = domainconfig.ProviderMock

	result, err := NewBuilder(&cfg, nil).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer result.Close()

	if result.Executor == nil || result.Probability == nil {
		t.Error("Build() left executor or probability source nil")
	}
	if _, ok := result.Provider.(*provider.MockProvider); !ok {
		t.Errorf("Provider = %T, want *provider.MockProvider", result.Provider)
	}
	if result.Cache == nil {
		t.Error("Cache = nil with caching enabled")
	}
	if result.LLM.MaxTokens != cfg.Oracle.MaxTokens {
		t.Errorf("LLM.MaxTokens = %d, want %d", result.LLM.MaxTokens, cfg.Oracle.MaxTokens)
	}
	if p := result.Probability.Probability("k"); p < 0.4 || p > 0.9 {
		t.Errorf("Probability() = %v, want within the default bounds", p)
	}
}

func TestBuilder_Offline(t *testing.T) {
	t.Parallel()

	cfg := domainconfig.Default()
	if !Offline(&cfg) {
		t.Error("Offline(default) = false, want true")
	}

	result, err := NewBuilder(&cfg, nil).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if result.Provider != nil {
		t.Errorf("Provider = %T, want nil offline", result.Provider)
	}
	if result.Cache != nil {
		t.Errorf("Cache = %T, want nil when disabled", result.Cache)
	}
}

func TestBuilder_BuildErrors(t *testing.T) {
	t.Parallel()

	cfg := domainconfig.Default()
	cfg.Oracle.Provider = domainconfig.ProviderAnthropic // no key
	if _, err := NewBuilder(&cfg, nil).Build(); !errors.Is(err, provider.ErrMissingAPIKey) {
		t.Errorf("Build() error = %v, want ErrMissingAPIKey", err)
	}

	if err := NewBuilder(nil, nil).Validate(); !errors.Is(err, ErrNoConfig) {
		t.Errorf("Validate(nil) error = %v, want ErrNoConfig", err)
	}

	bad := domainconfig.Default()
	bad.Logging.Level = "loud"
	if err := NewBuilder(&bad, nil).Validate(); !errors.Is(err, domainconfig.ErrValidationFailed) {
		t.Errorf("Validate() error = %v, want ErrValidationFailed", err)
	}
}

func TestSchemaJSON(t *testing.T) {
	t.Parallel()

	out, err := SchemaJSON()
	if err != nil {
		t.Fatalf("SchemaJSON() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	for _, section := range []string{"search", "oracle", "fallback", "cache", "logging", "telemetry"} {
		if !strings.Contains(out, `"`+section+`"`) {
			t.Errorf("schema missing section %q", section)
		}
	}
	props := decoded["properties"].(map[string]any)
	search := props["search"].(map[string]any)["properties"].(map[string]any)
	if search["top_k"].(map[string]any)["default"].(float64) != 3 {
		t.Error("search.top_k default is not 3")
	}
}
