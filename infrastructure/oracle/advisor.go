package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/toolplan/domain/oracle"
	"github.com/felixgeelhaar/toolplan/domain/state"
	"github.com/felixgeelhaar/toolplan/domain/tool"
	"github.com/felixgeelhaar/toolplan/infrastructure/provider"
)

const advisorPrompt = "You execute one step of a plan. You receive the user request, the current state,\n" +
	"the tool about to run and the arguments the planner chose for it.\n" +
	"Keep the planned arguments unless the request or the state clearly calls for different ones.\n" +
	"Output strict JSON only: {\"thought\": string, \"args\": [string, ...]} with exactly one string per tool argument.\n"

// LLMAdvisor asks a language model to confirm or adjust planned arguments.
type LLMAdvisor[S state.State] struct {
	llm *LLM[S]
}

// NewLLMAdvisor creates an advisor sharing the LLM oracle's transport settings.
func NewLLMAdvisor[S state.State](p provider.Provider, config LLMConfig) *LLMAdvisor[S] {
	return &LLMAdvisor[S]{llm: NewLLM[S](p, config)}
}

// Advise implements oracle.Advisor.
func (a *LLMAdvisor[S]) Advise(ctx context.Context, s S, goal string, t tool.Tool[S], planned tool.Args) (oracle.Advice, error) {
	plannedJSON, err := json.Marshal(planned)
	if err != nil {
		return oracle.Advice{}, err
	}
	user := fmt.Sprintf("USER REQUEST: %s\nCURRENT STATE: %s\nTOOL: %s (%s)\nARGUMENT NAMES: %s\nPLANNED ARGS: %s",
		goal, stateJSON(s), t.Name(), t.Description(), strings.Join(t.ArgNames(), ", "), plannedJSON)

	raw, err := a.llm.ask(ctx, advisorPrompt, user, a.llm.config.MaxTokens)
	if err != nil {
		return oracle.Advice{}, err
	}
	advice, err := ParseAdvice(raw)
	if err != nil {
		return oracle.Advice{}, err
	}
	if _, err := oracle.ValidateArgs(t, []tool.Args{advice.Args}, 1); err != nil {
		return oracle.Advice{}, err
	}
	return advice, nil
}

type rawAdvice struct {
	Thought *string  `json:"thought"`
	Args    []string `json:"args"`
}

// ParseAdvice decodes {"thought": string, "args": [string]}. Both keys are required.
func ParseAdvice(raw string) (oracle.Advice, error) {
	var r rawAdvice
	if err := decodeStrict(stripFences(raw), &r); err != nil {
		return oracle.Advice{}, err
	}
	if r.Thought == nil || r.Args == nil {
		return oracle.Advice{}, fmt.Errorf("thought and args are required: %w", oracle.ErrMalformedResponse)
	}
	return oracle.Advice{Thought: *r.Thought, Args: tool.Args(r.Args)}, nil
}
