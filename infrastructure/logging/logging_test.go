package logging

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// testLogger creates a logger that writes to a buffer for testing
func testLogger() (*bolt.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := New(Config{Level: "trace", Format: "json", Output: buf})
	return logger, buf
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()

	if config.Level != "info" {
		t.Errorf("Level = %s, want info", config.Level)
	}
	if config.Format != "console" {
		t.Errorf("Format = %s, want console", config.Format)
	}
	if config.Output != os.Stderr {
		t.Errorf("Output = %v, want os.Stderr", config.Output)
	}
	if ProductionConfig().Format != "json" {
		t.Errorf("ProductionConfig().Format = %s, want json", ProductionConfig().Format)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bolt.Level
	}{
		{"trace", bolt.TRACE},
		{"debug", bolt.DEBUG},
		{"info", bolt.INFO},
		{"warn", bolt.WARN},
		{"error", bolt.ERROR},
		{"unknown", bolt.INFO}, // Default
		{"", bolt.INFO},        // Empty defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			result := parseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("parseLevel(%s) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		field Field
		want  []string
	}{
		{"search id", SearchID("s-1"), []string{`"search_id":"s-1"`}},
		{"phase", Phase("searching"), []string{`"phase":"searching"`}},
		{"tool", ToolName("set_origin"), []string{`"tool":"set_origin"`}},
		{"args", Args([]string{"New York", "x"}), []string{`"args":"[New York, x]"`}},
		{"step", Step(2), []string{`"step":2`}},
		{"expansion", Expansion(7), []string{`"expansion":7`}},
		{"float", Float("prior", 0.5), []string{`"prior":"0.500"`}},
		{"score", Score(1, 2.5, 3.5), []string{`"g":"1.000"`, `"h":"2.500"`, `"f":"3.500"`}},
		{"probability", Probability(0.8, 0.56), []string{`"prob":"0.800"`, `"combined_p":"0.560"`}},
		{"oracle", Oracle("rank_tools"), []string{`"oracle_op":"rank_tools"`}},
		{"fallback", Fallback(true), []string{`"fallback":true`}},
		{"duration", Duration(100 * time.Millisecond), []string{`"duration_ms":100`}},
		{"cached", Cached(false), []string{`"cached":false`}},
		{"goal", Goal("book a train"), []string{`"goal":"book a train"`}},
		{"reason", Reason("dead_end"), []string{`"reason":"dead_end"`}},
		{"component", Component("planner"), []string{`"component":"planner"`}},
		{"count", Count("expansions", 4), []string{`"expansions":4`}},
		{"str", Str("k", "v"), []string{`"k":"v"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger, buf := testLogger()
			tt.field(logger.Info()).Msg("test")

			for _, want := range tt.want {
				if !bytes.Contains(buf.Bytes(), []byte(want)) {
					t.Errorf("expected %s in output: %s", want, buf.String())
				}
			}
		})
	}
}

func TestErrorField(t *testing.T) {
	t.Parallel()

	t.Run("with error", func(t *testing.T) {
		t.Parallel()

		logger, buf := testLogger()
		ErrorField(errors.New("test error"))(logger.Info()).Msg("test")

		if !bytes.Contains(buf.Bytes(), []byte(`"error":"test error"`)) {
			t.Errorf("expected error field in output: %s", buf.String())
		}
	})

	t.Run("with nil error", func(t *testing.T) {
		t.Parallel()

		logger, buf := testLogger()
		ErrorField(nil)(logger.Info()).Msg("test")

		if bytes.Contains(buf.Bytes(), []byte(`"error"`)) {
			t.Errorf("unexpected error field in output: %s", buf.String())
		}
	})
}

func TestLogEvent_Chaining(t *testing.T) {
	t.Parallel()

	logger, buf := testLogger()
	NewEvent(logger.Warn()).
		Add(SearchID("s-2")).
		Add(ToolName("confirm_booking")).
		Msg("oracle fallback")

	for _, want := range []string{`"search_id":"s-2"`, `"tool":"confirm_booking"`, "oracle fallback"} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Errorf("expected %s in output: %s", want, buf.String())
		}
	}
}
