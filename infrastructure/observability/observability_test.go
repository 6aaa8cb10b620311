package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/toolplan/domain/config"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.ServiceName != "toolplan" {
		t.Errorf("ServiceName = %q, want toolplan", cfg.ServiceName)
	}
	if cfg.Tracing.Enabled {
		t.Error("Tracing.Enabled = true, want false")
	}
	if cfg.Tracing.SampleRate != 1.0 {
		t.Errorf("SampleRate = %v, want 1.0", cfg.Tracing.SampleRate)
	}
}

func TestNew_Disabled(t *testing.T) {
	t.Parallel()

	p, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, span := StartSpan(context.Background(), p.Tracer(), SpanSearch)
	if span.SpanContext().IsValid() {
		t.Error("disabled provider produced a recording span")
	}
	EndSpan(span, nil)

	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNew_UnknownExporter(t *testing.T) {
	t.Parallel()

	_, err := New(WithTracing("zipkin", ""))
	if !errors.Is(err, ErrUnknownExporter) {
		t.Errorf("New() error = %v, want ErrUnknownExporter", err)
	}
}

func TestProvider_RecordsSpans(t *testing.T) {
	t.Parallel()

	exp := tracetest.NewInMemoryExporter()
	p, err := New(WithServiceName("toolplan-test"), WithSpanExporter(exp))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer p.Shutdown(context.Background())

	ctx, search := StartSpan(context.Background(), p.Tracer(), SpanSearch, attribute.String("goal", "Book a train"))
	_, call := StartSpan(ctx, p.Tracer(), OracleSpan("rank_tools"))
	EndSpan(call, errors.New("timeout"))
	EndSpan(search, nil)

	spans := exp.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(spans))
	}

	oracleSpan, searchSpan := spans[0], spans[1]
	if oracleSpan.Name != "oracle.rank_tools" {
		t.Errorf("span name = %q, want oracle.rank_tools", oracleSpan.Name)
	}
	if oracleSpan.Status.Code != codes.Error {
		t.Errorf("oracle span status = %v, want Error", oracleSpan.Status.Code)
	}
	if oracleSpan.Parent.SpanID() != searchSpan.SpanContext.SpanID() {
		t.Error("oracle span is not a child of the search span")
	}
	if searchSpan.Status.Code != codes.Ok {
		t.Errorf("search span status = %v, want Ok", searchSpan.Status.Code)
	}
}

func TestStartSpan_NilTracer(t *testing.T) {
	t.Parallel()

	ctx, span := StartSpan(context.Background(), nil, SpanExpand)
	if ctx == nil || span == nil {
		t.Fatal("StartSpan() returned nil")
	}
	EndSpan(span, nil)
}

func TestFromTelemetry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		in          config.TelemetryConfig
		wantEnabled bool
		wantExp     ExporterType
	}{
		{"disabled", config.TelemetryConfig{ServiceName: "svc"}, false, ExporterNoop},
		{"stdout", config.TelemetryConfig{Enabled: true, Exporter: config.ExporterStdout}, true, ExporterStdout},
		{"otlp", config.TelemetryConfig{Enabled: true, Exporter: config.ExporterOTLP, Endpoint: "localhost:4317", Insecure: true}, true, ExporterOTLP},
		{"none", config.TelemetryConfig{Enabled: true, Exporter: config.ExporterNone}, true, ExporterNoop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			for _, opt := range FromTelemetry(tt.in) {
				opt(&cfg)
			}
			if cfg.Tracing.Enabled != tt.wantEnabled {
				t.Errorf("Enabled = %v, want %v", cfg.Tracing.Enabled, tt.wantEnabled)
			}
			if cfg.Tracing.Exporter != tt.wantExp {
				t.Errorf("Exporter = %v, want %v", cfg.Tracing.Exporter, tt.wantExp)
			}
		})
	}
}
