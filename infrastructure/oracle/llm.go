package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/toolplan/domain/oracle"
	"github.com/felixgeelhaar/toolplan/domain/state"
	"github.com/felixgeelhaar/toolplan/domain/tool"
	"github.com/felixgeelhaar/toolplan/infrastructure/provider"
)

// LLMConfig configures an LLM-backed oracle.
type LLMConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Prompts     Prompts
}

// LLM asks a language model for every oracle operation and parses its
// answers strictly. Any non-conforming answer is an error.
type LLM[S state.State] struct {
	provider provider.Provider
	config   LLMConfig
}

// NewLLM creates an LLM oracle.
func NewLLM[S state.State](p provider.Provider, config LLMConfig) *LLM[S] {
	if config.Prompts.Rank == "" {
		examples := config.Prompts
		config.Prompts = DefaultPrompts()
		config.Prompts.RankExamples = examples.RankExamples
		config.Prompts.ArgsExamples = examples.ArgsExamples
		config.Prompts.SuccessExamples = examples.SuccessExamples
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 256
	}
	return &LLM[S]{provider: p, config: config}
}

type toolBrief struct {
	Name        string   `json:"name"`
	Cost        float64  `json:"cost"`
	Description string   `json:"description"`
	Args        []string `json:"args,omitempty"`
}

// RankTools implements oracle.Oracle.
func (o *LLM[S]) RankTools(ctx context.Context, s S, goal string, candidates []tool.Tool[S], topK int) ([]oracle.Ranked[S], error) {
	briefs := make([]toolBrief, len(candidates))
	for i, t := range candidates {
		briefs[i] = toolBrief{Name: t.Name(), Cost: t.Cost(), Description: t.Description(), Args: t.ArgNames()}
	}
	tools, err := json.Marshal(briefs)
	if err != nil {
		return nil, err
	}

	user := "CURRENT STATE:\n" + stateJSON(s) +
		"\n\nUSER REQUEST:\n" + goal +
		"\n\nAVAILABLE TOOLS:\n" + string(tools) +
		"\n\nReturn at most " + strconv.Itoa(topK) + " entries.\nOUTPUT:\n"

	raw, err := o.ask(ctx, o.config.Prompts.rank(), user, o.config.MaxTokens)
	if err != nil {
		return nil, err
	}
	entries, err := ParseRanking(raw)
	if err != nil {
		return nil, err
	}
	return oracle.ResolveRanking(entries, candidates, topK)
}

// ProposeArgs implements oracle.Oracle.
func (o *LLM[S]) ProposeArgs(ctx context.Context, t tool.Tool[S], s S, goal string, max int) ([]tool.Args, error) {
	if tool.Arity(t) == 0 {
		return []tool.Args{{}}, nil
	}

	argNames, err := json.Marshal(t.ArgNames())
	if err != nil {
		return nil, err
	}
	user := "Current state: " + stateJSON(s) +
		"\nTool: " + t.Name() +
		"\nDescription: " + t.Description() +
		"\nTool arguments: " + string(argNames) +
		"\nUser request: " + goal +
		"\nReturn up to " + strconv.Itoa(max) + " candidates."

	raw, err := o.ask(ctx, o.config.Prompts.args(), user, o.config.MaxTokens)
	if err != nil {
		return nil, err
	}
	args, err := ParseArgs(raw)
	if err != nil {
		return nil, err
	}
	return oracle.ValidateArgs(t, args, max)
}

// EstimateSuccess implements oracle.Oracle.
func (o *LLM[S]) EstimateSuccess(ctx context.Context, s S, t tool.Tool[S], args tool.Args) (float64, error) {
	user := "Current state: " + stateJSON(s) +
		"\nTool: " + t.Name() + args.String() + " | tool_cost=" + strconv.FormatFloat(t.Cost(), 'f', -1, 64) +
		"\nDescription: " + t.Description() +
		"\nReturn a single number between 0 and 1."

	raw, err := o.ask(ctx, o.config.Prompts.success(), user, 8)
	if err != nil {
		return 0, err
	}
	return ParseProbability(raw)
}

func (o *LLM[S]) ask(ctx context.Context, system, user string, maxTokens int) (string, error) {
	resp, err := o.provider.Complete(ctx, provider.CompletionRequest{
		Model:       o.config.Model,
		System:      system,
		Messages:    []provider.Message{{Role: provider.RoleUser, Content: user}},
		Temperature: o.config.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", o.provider.Name(), oracle.ErrUnavailable, err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", oracle.ErrEmptyResponse
	}
	return resp.Content, nil
}

func stateJSON[S state.State](s S) string {
	data, err := json.Marshal(s.Fields().Map())
	if err != nil {
		return s.Fields().String()
	}
	return string(data)
}

// stripFences removes a surrounding Markdown code fence.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:] // drop the info string, e.g. "json"
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

type rawRankEntry struct {
	Name   *string  `json:"name"`
	P      *float64 `json:"p"`
	Reason string   `json:"reason"`
}

// ParseRanking decodes a ranking answer: a JSON array of
// {"name": string, "p": number, "reason"?: string}.
func ParseRanking(raw string) ([]oracle.RankEntry, error) {
	var items []rawRankEntry
	if err := decodeStrict(stripFences(raw), &items); err != nil {
		return nil, err
	}

	entries := make([]oracle.RankEntry, 0, len(items))
	for i, it := range items {
		if it.Name == nil || it.P == nil {
			return nil, fmt.Errorf("entry %d: name and p are required: %w", i, oracle.ErrMalformedResponse)
		}
		if err := oracle.ValidateProbability(*it.P); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		entries = append(entries, oracle.RankEntry{Name: *it.Name, P: *it.P, Reason: it.Reason})
	}
	if len(entries) == 0 {
		return nil, oracle.ErrEmptyResponse
	}
	return entries, nil
}

// ParseArgs decodes an argument answer: a JSON array of arrays of strings.
func ParseArgs(raw string) ([]tool.Args, error) {
	var tuples [][]string
	if err := decodeStrict(stripFences(raw), &tuples); err != nil {
		return nil, err
	}
	out := make([]tool.Args, len(tuples))
	for i, t := range tuples {
		out[i] = tool.Args(t)
	}
	return out, nil
}

// ParseProbability decodes a success answer: a single number in [0, 1].
func ParseProbability(raw string) (float64, error) {
	p, err := strconv.ParseFloat(stripFences(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", raw, oracle.ErrMalformedResponse)
	}
	if err := oracle.ValidateProbability(p); err != nil {
		return 0, err
	}
	return p, nil
}

func decodeStrict(s string, dst any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", oracle.ErrMalformedResponse, err)
	}
	if dec.More() {
		return fmt.Errorf("trailing data: %w", oracle.ErrMalformedResponse)
	}
	return nil
}
