package oracle

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/toolplan/domain/oracle"
	"github.com/felixgeelhaar/toolplan/domain/tool"
	"github.com/felixgeelhaar/toolplan/infrastructure/provider"
)

func TestLLM_RankTools(t *testing.T) {
	t.Parallel()

	mock := provider.NewMockProvider("```json\n[{\"name\":\"set_to\",\"p\":0.8,\"reason\":\"need a destination\"},{\"name\":\"ghost\",\"p\":0.5}]\n```")
	o := NewLLM[trip](mock, LLMConfig{Model: "m", Prompts: Prompts{RankExamples: "EXAMPLE"}})

	r, err := o.RankTools(context.Background(), trip{From: "Oslo"}, "Go to Bergen", tripTools(), 3)
	if err != nil {
		t.Fatalf("RankTools() error = %v", err)
	}
	if len(r) != 1 || r[0].Tool.Name() != "set_to" || r[0].Prior != 0.8 {
		t.Errorf("RankTools() = %v, want [set_to 0.8]", r)
	}

	reqs := mock.Requests()
	if len(reqs) != 1 {
		t.Fatalf("requests = %d, want 1", len(reqs))
	}
	if !strings.Contains(reqs[0].System, "EXAMPLE") || !strings.Contains(reqs[0].System, "strict JSON") {
		t.Error("system prompt missing default instructions or examples")
	}
	if !strings.Contains(reqs[0].Messages[0].Content, `"from":"Oslo"`) {
		t.Errorf("user prompt = %q, want the state as JSON", reqs[0].Messages[0].Content)
	}
}

func TestLLM_ProposeArgs(t *testing.T) {
	t.Parallel()

	mock := provider.NewMockProvider(`[["Bergen"],["Stavanger"]]`)
	o := NewLLM[trip](mock, LLMConfig{})

	a, err := o.ProposeArgs(context.Background(), setTo(), trip{}, "goal", 1)
	if err != nil || len(a) != 1 || a[0][0] != "Bergen" {
		t.Errorf("ProposeArgs() = %v, %v, want [[Bergen]]", a, err)
	}

	// nullary tools never reach the provider
	a, err = o.ProposeArgs(context.Background(), reset(), trip{}, "goal", 3)
	if err != nil || len(a) != 1 || len(a[0]) != 0 {
		t.Errorf("ProposeArgs(reset) = %v, %v, want [[]]", a, err)
	}
	if n := len(mock.Requests()); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}
}

func TestLLM_EstimateSuccess(t *testing.T) {
	t.Parallel()

	o := NewLLM[trip](provider.NewMockProvider(" 0.35\n"), LLMConfig{})
	p, err := o.EstimateSuccess(context.Background(), trip{}, setTo(), tool.Args{"Bergen"})
	if err != nil || p != 0.35 {
		t.Errorf("EstimateSuccess() = %v, %v, want 0.35", p, err)
	}
}

func TestLLM_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mock *provider.MockProvider
		want error
	}{
		{"provider error", provider.NewMockProvider().WithError(errors.New("503")), oracle.ErrUnavailable},
		{"blank answer", provider.NewMockProvider("   "), oracle.ErrEmptyResponse},
		{"prose", provider.NewMockProvider("I think 0.5"), oracle.ErrMalformedResponse},
		{"out of range", provider.NewMockProvider("1.2"), oracle.ErrProbabilityRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			o := NewLLM[trip](tt.mock, LLMConfig{})
			if _, err := o.EstimateSuccess(context.Background(), trip{}, setTo(), tool.Args{"x"}); !errors.Is(err, tt.want) {
				t.Errorf("EstimateSuccess() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseRanking(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr error
	}{
		{"valid", `[{"name":"a","p":0.5},{"name":"b","p":0.1,"reason":"r"}]`, 2, nil},
		{"fenced", "```\n[{\"name\":\"a\",\"p\":1}]\n```", 1, nil},
		{"missing p", `[{"name":"a"}]`, 0, oracle.ErrMalformedResponse},
		{"unknown field", `[{"name":"a","p":0.5,"score":3}]`, 0, oracle.ErrMalformedResponse},
		{"out of range", `[{"name":"a","p":-0.1}]`, 0, oracle.ErrProbabilityRange},
		{"empty", `[]`, 0, oracle.ErrEmptyResponse},
		{"trailing", `[{"name":"a","p":0.5}] extra`, 0, oracle.ErrMalformedResponse},
		{"not json", `a, b`, 0, oracle.ErrMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseRanking(tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ParseRanking() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || len(got) != tt.want {
				t.Errorf("ParseRanking() = %v, %v, want %d entries", got, err, tt.want)
			}
		})
	}
}

func TestParseArgs(t *testing.T) {
	t.Parallel()

	got, err := ParseArgs(`[["a","b"],["c","d"]]`)
	if err != nil || len(got) != 2 || !got[1].Equal(tool.Args{"c", "d"}) {
		t.Errorf("ParseArgs() = %v, %v", got, err)
	}
	if _, err := ParseArgs(`[["a", 1]]`); !errors.Is(err, oracle.ErrMalformedResponse) {
		t.Errorf("ParseArgs(non-string) error = %v, want ErrMalformedResponse", err)
	}
}

func TestParseProbability(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{"0.5", 0.5, false},
		{"1", 1, false},
		{"```\n0.25\n```", 0.25, false},
		{"NaN", 0, true},
		{"high", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseProbability(tt.raw)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseProbability(%q) = %v, %v, want %v, err %v", tt.raw, got, err, tt.want, tt.wantErr)
		}
	}
}
