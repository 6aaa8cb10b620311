package application_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/toolplan/application"
	"github.com/felixgeelhaar/toolplan/domain/event"
	"github.com/felixgeelhaar/toolplan/domain/oracle"
	"github.com/felixgeelhaar/toolplan/domain/plan"
	"github.com/felixgeelhaar/toolplan/domain/search"
	"github.com/felixgeelhaar/toolplan/domain/tool"
	eventlog "github.com/felixgeelhaar/toolplan/infrastructure/event"
	infraoracle "github.com/felixgeelhaar/toolplan/infrastructure/oracle"
)

func TestPlanner_LinearChain(t *testing.T) {
	t.Parallel()

	p := application.NewPlanner(tool.MustRegistry(chainTools()...), nil)
	result, err := p.Search(context.Background(), chain{}, "walk the chain")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if got := result.Plan.ToolNames(); !slices.Equal(got, []string{"A", "B", "C", "D"}) {
		t.Errorf("plan = %v, want [A B C D]", got)
	}
	if !plan.Valid(result.Plan, chain{}) {
		t.Error("plan does not replay to the goal")
	}
	if result.Final != (chain{Stage: 4}) {
		t.Errorf("Final = %v, want stage 4", result.Final)
	}
	if result.Expansions != 4 {
		t.Errorf("Expansions = %d, want 4", result.Expansions)
	}
	if result.Cost != 10 {
		t.Errorf("Cost = %v, want 10", result.Cost)
	}
	if result.SearchID == "" {
		t.Error("SearchID is empty")
	}
}

func TestPlanner_InitialStateIsGoal(t *testing.T) {
	t.Parallel()

	p := application.NewPlanner(tool.MustRegistry(chainTools()...), nil)
	result, err := p.Search(context.Background(), chain{Stage: 4}, "done")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.Plan.Len() != 0 || result.Expansions != 0 {
		t.Errorf("Search() = %d steps, %d expansions, want 0, 0", result.Plan.Len(), result.Expansions)
	}
}

func TestPlanner_EmptyRegistry(t *testing.T) {
	t.Parallel()

	p := application.NewPlanner(tool.MustRegistry[chain](), nil)
	_, err := p.Search(context.Background(), chain{}, "anything")

	if !errors.Is(err, search.ErrPlanningFailed) {
		t.Fatalf("Search() error = %v, want ErrPlanningFailed", err)
	}
	var failed *search.FailedError[chain]
	if !errors.As(err, &failed) {
		t.Fatalf("Search() error = %T, want *search.FailedError", err)
	}
	if failed.Expansions != 1 || failed.Partial.Len() != 0 || failed.State != (chain{}) {
		t.Errorf("FailedError = %+v, want one expansion at the initial state", failed)
	}
}

func TestPlanner_ChoosesBestSuccessor(t *testing.T) {
	t.Parallel()

	o := &infraoracle.Scripted[fork]{
		Rank: rankAll[fork]("left", "right", "finish"),
		Args: labels[fork](1),
		Success: func(_ fork, t tool.Tool[fork], _ tool.Args) (float64, error) {
			if t.Name() == "right" {
				return 0.3, nil
			}
			return 0.9, nil
		},
	}
	p := application.NewPlanner(tool.MustRegistry(pick("left"), pick("right"), finish()), o)

	result, err := p.Search(context.Background(), fork{}, "pick a side")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got := result.Plan.String(); got != `left("l0") -> finish()` {
		t.Errorf("plan = %s, want left then finish", got)
	}
}

func TestPlanner_FirstSeenWinsOnTie(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		order []string
		want  string
	}{
		{"right ranked first", []string{"right", "left"}, `right("l0")`},
		{"left ranked first", []string{"left", "right"}, `left("l0")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			o := &infraoracle.Scripted[fork]{
				Rank:    rankAll[fork](append(tt.order, "finish")...),
				Args:    labels[fork](3),
				Success: func(fork, tool.Tool[fork], tool.Args) (float64, error) { return 0.5, nil },
			}
			p := application.NewPlanner(tool.MustRegistry(pick("left"), pick("right"), finish()), o)

			result, err := p.Search(context.Background(), fork{}, "pick a side")
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if got := result.Plan[0].String(); got != tt.want {
				t.Errorf("first step = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPlanner_SingleSuccessorDoesNotBacktrack(t *testing.T) {
	t.Parallel()

	o := &infraoracle.Scripted[fork]{
		Rank:    rankAll[fork]("trap", "left"),
		Args:    labels[fork](1),
		Success: func(fork, tool.Tool[fork], tool.Args) (float64, error) { return 0.9, nil },
	}
	p := application.NewPlanner(tool.MustRegistry(trap(), pick("left"), finish()), o)

	_, err := p.Search(context.Background(), fork{}, "pick a side")

	var failed *search.FailedError[fork]
	if !errors.As(err, &failed) {
		t.Fatalf("Search() error = %v, want *search.FailedError", err)
	}
	if got := failed.Partial.ToolNames(); !slices.Equal(got, []string{"trap"}) {
		t.Errorf("Partial = %v, want [trap]", got)
	}
	if failed.State != (fork{Side: "stuck"}) || failed.Expansions != 2 {
		t.Errorf("FailedError = %+v, want stuck after 2 expansions", failed)
	}
}

func TestPlanner_ExpansionBudget(t *testing.T) {
	t.Parallel()

	p := application.NewPlanner(tool.MustRegistry(increment()), nil,
		application.WithMaxExpansions[counter](5),
	)
	_, err := p.Search(context.Background(), counter{}, "count forever")

	if !errors.Is(err, search.ErrPlanningTimedOut) {
		t.Fatalf("Search() error = %v, want ErrPlanningTimedOut", err)
	}
	if errors.Is(err, search.ErrPlanningFailed) {
		t.Error("a timeout must not match ErrPlanningFailed")
	}
	var timedOut *search.TimedOutError[counter]
	if !errors.As(err, &timedOut) {
		t.Fatalf("Search() error = %T, want *search.TimedOutError", err)
	}
	if timedOut.Budget != search.BudgetExpansions || timedOut.Expansions != 5 {
		t.Errorf("TimedOutError = %+v, want expansions budget after 5", timedOut)
	}
	if timedOut.Partial.Len() != 5 || timedOut.State != (counter{N: 5}) {
		t.Errorf("Partial = %d steps at %v, want 5 steps at n=5", timedOut.Partial.Len(), timedOut.State)
	}
}

func TestPlanner_Deadline(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	p := application.NewPlanner(tool.MustRegistry(increment()), nil)
	_, err := p.Search(ctx, counter{}, "count forever")

	var timedOut *search.TimedOutError[counter]
	if !errors.As(err, &timedOut) {
		t.Fatalf("Search() error = %v, want *search.TimedOutError", err)
	}
	if timedOut.Budget != search.BudgetDeadline {
		t.Errorf("Budget = %s, want %s", timedOut.Budget, search.BudgetDeadline)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Search() error = %v, want to wrap context.DeadlineExceeded", err)
	}
}

func TestPlanner_FallsBackOnInvalidAnswers(t *testing.T) {
	t.Parallel()

	log := eventlog.NewLog()
	o := &infraoracle.Scripted[chain]{
		Rank: func(_ chain, _ string, candidates []tool.Tool[chain], _ int) ([]oracle.Ranked[chain], error) {
			return []oracle.Ranked[chain]{{Tool: candidates[0], Prior: 1.5}}, nil
		},
		Success: func(chain, tool.Tool[chain], tool.Args) (float64, error) { return -1, nil },
	}
	p := application.NewPlanner(tool.MustRegistry(chainTools()...), o,
		application.WithRecorder[chain](log),
	)

	result, err := p.Search(context.Background(), chain{}, "walk the chain")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !plan.Valid(result.Plan, chain{}) {
		t.Error("fallback plan does not replay to the goal")
	}

	events, err := log.Events(context.Background(), result.SearchID)
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	fallbacks := 0
	for _, e := range events {
		if e.Type == event.TypeOracleFallback {
			fallbacks++
		}
	}
	// rank, args and success fall back once per expansion
	if fallbacks != 12 {
		t.Errorf("fallback events = %d, want 12", fallbacks)
	}
}

func TestPlanner_EventStream(t *testing.T) {
	t.Parallel()

	log := eventlog.NewLog()
	p := application.NewPlanner(tool.MustRegistry(chainTools()...), nil,
		application.WithRecorder[chain](log),
	)
	result, err := p.Search(context.Background(), chain{}, "walk the chain")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	events, err := log.Events(context.Background(), result.SearchID)
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if first := events[0].Type; first != event.TypeSearchStarted {
		t.Errorf("first event = %s, want %s", first, event.TypeSearchStarted)
	}
	if last := events[len(events)-1].Type; last != event.TypeSearchSucceeded {
		t.Errorf("last event = %s, want %s", last, event.TypeSearchSucceeded)
	}

	reports, err := event.BuildReport(events)
	if err != nil {
		t.Fatalf("BuildReport() error = %v", err)
	}
	var chosen []string
	for _, r := range reports {
		chosen = append(chosen, r.Chosen)
	}
	if !slices.Equal(chosen, []string{"A", "B", "C", "D"}) {
		t.Errorf("chosen = %v, want [A B C D]", chosen)
	}
	if len(reports[0].Tools) != 1 || len(reports[0].Tools[0].Candidates) != 1 {
		t.Errorf("report[0] = %+v, want one tool with one candidate", reports[0])
	}
}

func TestPlanner_FailureEvent(t *testing.T) {
	t.Parallel()

	log := eventlog.NewLog()
	p := application.NewPlanner(tool.MustRegistry(increment()), nil,
		application.WithRecorder[counter](log),
		application.WithMaxExpansions[counter](2),
	)
	_, err := p.Search(context.Background(), counter{}, "count")
	if err == nil {
		t.Fatal("Search() error = nil, want timeout")
	}

	searches := log.Searches()
	if len(searches) != 1 {
		t.Fatalf("searches = %v, want one", searches)
	}
	events, _ := log.Events(context.Background(), searches[0])
	last := events[len(events)-1]
	if last.Type != event.TypeSearchTimedOut {
		t.Fatalf("last event = %s, want %s", last.Type, event.TypeSearchTimedOut)
	}
	var payload event.SearchFailedPayload
	if err := last.UnmarshalPayload(&payload); err != nil {
		t.Fatalf("UnmarshalPayload() error = %v", err)
	}
	if payload.Budget != string(search.BudgetExpansions) || len(payload.Partial) != 2 {
		t.Errorf("payload = %+v, want expansions budget with 2 partial steps", payload)
	}
}

func TestPlanner_ConcurrencyDoesNotChangeResult(t *testing.T) {
	t.Parallel()

	newOracle := func() *infraoracle.Scripted[fork] {
		return &infraoracle.Scripted[fork]{
			Rank: rankAll[fork]("left", "right", "finish"),
			Args: labels[fork](3),
			Success: func(_ fork, _ tool.Tool[fork], a tool.Args) (float64, error) {
				if len(a) == 1 && a[0] == "l0" {
					return 0.3, nil
				}
				return 0.8, nil
			},
		}
	}
	registry := tool.MustRegistry(pick("left"), pick("right"), finish())

	var plans []string
	for _, n := range []int{1, 4} {
		p := application.NewPlanner(registry, newOracle(), application.WithConcurrency[fork](n))
		result, err := p.Search(context.Background(), fork{}, "pick a side")
		if err != nil {
			t.Fatalf("Search(concurrency %d) error = %v", n, err)
		}
		plans = append(plans, result.Plan.String())
	}

	want := `left("l1") -> finish()`
	for i, got := range plans {
		if got != want {
			t.Errorf("plan %d = %s, want %s", i, got, want)
		}
	}
}

func TestPlanner_Metrics(t *testing.T) {
	t.Parallel()

	m := &countingMetrics{}
	p := application.NewPlanner(tool.MustRegistry(chainTools()...), nil,
		application.WithMetrics[chain](m),
	)
	if _, err := p.Search(context.Background(), chain{}, "walk"); err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if got := m.expansions.Load(); got != 4 {
		t.Errorf("expansions = %d, want 4", got)
	}
	if got := m.candidates.Load(); got != 4 {
		t.Errorf("candidates = %d, want 4", got)
	}
	if got := m.outcome.Load(); got != string(search.PhaseSucceeded) {
		t.Errorf("outcome = %v, want %s", got, search.PhaseSucceeded)
	}
}

func TestPlanner_ConcurrentSearches(t *testing.T) {
	t.Parallel()

	p := application.NewPlanner(tool.MustRegistry(chainTools()...), nil)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	errs := make([]error, 8)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := p.Search(context.Background(), chain{}, "walk")
			errs[i] = err
			if err == nil {
				ids[i] = result.SearchID
			}
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := range ids {
		if errs[i] != nil {
			t.Fatalf("search %d error = %v", i, errs[i])
		}
		if seen[ids[i]] {
			t.Errorf("duplicate search ID %s", ids[i])
		}
		seen[ids[i]] = true
	}
}

func TestNewPlanner_Defaults(t *testing.T) {
	t.Parallel()

	p := application.NewPlanner(tool.MustRegistry(chainTools()...), nil,
		application.WithTopK[chain](0),
		application.WithEpsilon[chain](-1),
		application.WithConcurrency[chain](0),
	)
	cfg := p.Config()
	if cfg.TopK != application.DefaultTopK || cfg.Epsilon != search.DefaultEpsilon || cfg.Concurrency != 1 {
		t.Errorf("Config() = %+v, want defaults restored", cfg)
	}
	if cfg.MaxArgCandidates != application.DefaultMaxArgCandidates || cfg.Timeout != application.DefaultTimeout {
		t.Errorf("Config() = %+v, want default limits", cfg)
	}
}
