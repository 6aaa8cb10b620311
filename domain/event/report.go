package event

import (
	"fmt"
	"sort"

	"github.com/felixgeelhaar/toolplan/domain/tool"
)

// CandidateReport is one evaluated (tool, args) pair of an expansion.
type CandidateReport struct {
	Args        tool.Args `json:"args"`
	Probability float64   `json:"probability"`
	F           float64   `json:"f"`
	Viable      bool      `json:"viable"`
}

// ToolReport groups the candidates of one ranked tool.
type ToolReport struct {
	Name       string            `json:"name"`
	Prior      float64           `json:"prior"`
	Candidates []CandidateReport `json:"candidates"`
}

// StepReport summarises one expansion: what was considered and what was chosen.
type StepReport struct {
	Expansion int          `json:"expansion"`
	Step      int          `json:"step"`
	Tools     []ToolReport `json:"tools"`
	Discarded string       `json:"discarded,omitempty"`

	Chosen      string    `json:"chosen,omitempty"`
	ChosenArgs  tool.Args `json:"chosen_args,omitempty"`
	Probability float64   `json:"probability,omitempty"`
	CombinedP   float64   `json:"combined_p,omitempty"`
	F           float64   `json:"f,omitempty"`

	Executed bool `json:"executed"`
}

// BuildReport folds an event stream into per-expansion step reports,
// ordered by expansion. Replay events mark chosen steps as executed.
func BuildReport(events []Event) ([]StepReport, error) {
	byExpansion := make(map[int]*StepReport)
	get := func(expansion, step int) *StepReport {
		r, ok := byExpansion[expansion]
		if !ok {
			r = &StepReport{Expansion: expansion, Step: step}
			byExpansion[expansion] = r
		}
		return r
	}
	executed := make(map[int]string)

	for i := range events {
		e := &events[i]
		switch e.Type {
		case TypeToolsRanked:
			var p ToolsRankedPayload
			if err := e.UnmarshalPayload(&p); err != nil {
				return nil, fmt.Errorf("event %d: %w: %w", e.Sequence, ErrInvalidEvent, err)
			}
			r := get(p.Expansion, p.Step)
			for _, rt := range p.Ranked {
				r.Tools = append(r.Tools, ToolReport{Name: rt.Name, Prior: rt.Prior})
			}

		case TypeCandidateEvaluated:
			var p CandidateEvaluatedPayload
			if err := e.UnmarshalPayload(&p); err != nil {
				return nil, fmt.Errorf("event %d: %w: %w", e.Sequence, ErrInvalidEvent, err)
			}
			r := get(p.Expansion, p.Step)
			tr := findTool(r, p.Tool, p.Prior)
			tr.Candidates = append(tr.Candidates, CandidateReport{
				Args:        p.Args,
				Probability: p.Probability,
				F:           p.F,
				Viable:      p.Viable,
			})

		case TypeSuccessorChosen:
			var p SuccessorChosenPayload
			if err := e.UnmarshalPayload(&p); err != nil {
				return nil, fmt.Errorf("event %d: %w: %w", e.Sequence, ErrInvalidEvent, err)
			}
			r := get(p.Expansion, p.Step)
			r.Chosen = p.Tool
			r.ChosenArgs = p.Args
			r.Probability = p.Probability
			r.CombinedP = p.CombinedP
			r.F = p.F

		case TypeNodeDiscarded:
			var p NodeDiscardedPayload
			if err := e.UnmarshalPayload(&p); err != nil {
				return nil, fmt.Errorf("event %d: %w: %w", e.Sequence, ErrInvalidEvent, err)
			}
			if p.Reason == DiscardClosed {
				continue
			}
			get(p.Expansion, p.Step).Discarded = p.Reason

		case TypeStepExecuted:
			var p StepExecutedPayload
			if err := e.UnmarshalPayload(&p); err != nil {
				return nil, fmt.Errorf("event %d: %w: %w", e.Sequence, ErrInvalidEvent, err)
			}
			if p.Error == "" {
				executed[p.Step] = p.Tool
			}
		}
	}

	reports := make([]StepReport, 0, len(byExpansion))
	for _, r := range byExpansion {
		reports = append(reports, *r)
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Expansion < reports[j].Expansion
	})

	// A depth expanded more than once is matched against its latest expansion.
	last := make(map[int]int)
	for i, r := range reports {
		if r.Chosen != "" {
			last[r.Step] = i
		}
	}
	for step, name := range executed {
		if i, ok := last[step]; ok && reports[i].Chosen == name {
			reports[i].Executed = true
		}
	}
	return reports, nil
}

func findTool(r *StepReport, name string, prior float64) *ToolReport {
	for i := range r.Tools {
		if r.Tools[i].Name == name {
			return &r.Tools[i]
		}
	}
	r.Tools = append(r.Tools, ToolReport{Name: name, Prior: prior})
	return &r.Tools[len(r.Tools)-1]
}
