package application

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/toolplan/domain/event"
	"github.com/felixgeelhaar/toolplan/domain/oracle"
	"github.com/felixgeelhaar/toolplan/domain/plan"
	"github.com/felixgeelhaar/toolplan/domain/search"
	"github.com/felixgeelhaar/toolplan/domain/state"
	"github.com/felixgeelhaar/toolplan/domain/tool"
	"github.com/felixgeelhaar/toolplan/infrastructure/logging"
	"github.com/felixgeelhaar/toolplan/infrastructure/observability"
)

// searcher holds the state of one search: OPEN, CLOSED and counters.
// Nothing here is shared between searches.
type searcher[S state.State] struct {
	planner *Planner[S]
	goal    string
	run     *search.Run

	open   *frontier[S]
	closed map[S]struct{}

	expansions int
	deepest    *node[S]
}

// candidate is one (tool, args) pair evaluated during an expansion.
type candidate[S state.State] struct {
	ranked oracle.Ranked[S]
	args   tool.Args

	next        S
	err         error
	probability float64
	combined    float64
	score       search.Score
}

func (c *candidate[S]) viable() bool {
	return c.err == nil
}

func (s *searcher[S]) search(ctx context.Context, initial S) (*Result[S], error) {
	p := s.planner
	s.open.push(&node[S]{
		f:     search.Heuristic(p.registry, initial),
		state: initial,
	})

	for {
		if err := ctx.Err(); err != nil {
			return nil, s.timedOut(search.BudgetDeadline, err)
		}

		n, ok := s.open.pop()
		if !ok {
			return nil, s.failed()
		}
		s.track(n)

		if _, seen := s.closed[n.state]; seen {
			s.discard(ctx, n, event.DiscardClosed)
			continue
		}
		s.closed[n.state] = struct{}{}

		if n.state.IsGoal() {
			return &Result[S]{
				Plan:       n.plan,
				Final:      n.state,
				Cost:       n.plan.Cost(),
				Expansions: s.expansions,
			}, nil
		}

		if budget := p.config.MaxExpansions; budget > 0 && s.expansions >= budget {
			return nil, s.timedOut(search.BudgetExpansions, nil)
		}

		if next := s.expand(ctx, n); next != nil {
			s.open.push(next)
		}
	}
}

// expand evaluates every proposed argument tuple of every ranked tool and
// returns the single best successor, or nil when n is a dead end.
func (s *searcher[S]) expand(ctx context.Context, n *node[S]) *node[S] {
	p := s.planner
	s.expansions++
	s.run.Expanded()
	step := n.plan.Len()

	ctx, span := observability.StartSpan(ctx, p.tracer, observability.SpanExpand,
		attribute.Int("search.expansion", s.expansions),
		attribute.Int("search.step", step),
	)
	defer span.End()

	applicable := p.registry.ApplicableTools(n.state)
	p.metrics.RecordExpansion(ctx, len(applicable))
	p.record(ctx, event.TypeNodeExpanded, event.NodeExpandedPayload{
		Expansion:  s.expansions,
		Step:       step,
		G:          n.g,
		F:          n.f,
		State:      n.state.Fields(),
		Applicable: toolNames(applicable),
	})
	if len(applicable) == 0 {
		s.discard(ctx, n, event.DiscardDeadEnd)
		return nil
	}

	ranked, _ := p.oracle.RankTools(ctx, n.state, s.goal, applicable, p.config.TopK)
	if len(ranked) == 0 {
		s.discard(ctx, n, event.DiscardNoRanking)
		return nil
	}
	s.recordRanking(ctx, step, ranked)

	candidates := s.evaluate(ctx, n, ranked)

	var best *candidate[S]
	for _, c := range candidates {
		p.metrics.RecordCandidate(ctx, c.ranked.Tool.Name(), c.viable())
		s.recordCandidate(ctx, step, c)
		if !c.viable() {
			continue
		}
		// Strict comparison: the first candidate seen wins on equal f.
		if best == nil || c.score.F < best.score.F {
			best = c
		}
	}
	if best == nil {
		s.discard(ctx, n, event.DiscardNoCandidate)
		return nil
	}

	s.recordChoice(ctx, step, best)
	return &node[S]{
		f:     best.score.F,
		g:     best.score.G,
		state: best.next,
		plan:  n.plan.Append(plan.Step[S]{Tool: best.ranked.Tool, Args: best.args}),
	}
}

// evaluate proposes arguments for each ranked tool, simulates each tuple
// and estimates its success. Oracle calls run on a bounded worker pool;
// the returned slice is in rank order, then proposal order.
func (s *searcher[S]) evaluate(ctx context.Context, n *node[S], ranked []oracle.Ranked[S]) []*candidate[S] {
	p := s.planner

	proposals := make([][]tool.Args, len(ranked))
	var propose errgroup.Group
	propose.SetLimit(p.config.Concurrency)
	for i, r := range ranked {
		if !r.Tool.Precondition(n.state) {
			continue
		}
		propose.Go(func() error {
			proposals[i], _ = p.oracle.ProposeArgs(ctx, r.Tool, n.state, s.goal, p.config.MaxArgCandidates)
			return nil
		})
	}
	_ = propose.Wait()

	var candidates []*candidate[S]
	for i, r := range ranked {
		for _, args := range proposals[i] {
			candidates = append(candidates, &candidate[S]{ranked: r, args: args.Clone()})
		}
	}

	var scoring errgroup.Group
	scoring.SetLimit(p.config.Concurrency)
	for _, c := range candidates {
		scoring.Go(func() error {
			s.score(ctx, n, c)
			return nil
		})
	}
	_ = scoring.Wait()
	return candidates
}

// score simulates c on n's state and computes its f. States are values,
// so the effect never touches n.state.
func (s *searcher[S]) score(ctx context.Context, n *node[S], c *candidate[S]) {
	p := s.planner
	c.next, c.err = tool.Invoke(c.ranked.Tool, n.state, c.args)
	if c.err != nil {
		return
	}

	c.probability, _ = p.oracle.EstimateSuccess(ctx, n.state, c.ranked.Tool, c.args)
	c.combined = search.CombinedProbability(c.ranked.Prior, c.probability, p.config.Epsilon)
	h := search.Heuristic(p.registry, c.next)
	c.score = search.Evaluate(n.g, c.ranked.Tool.Cost(), h, c.combined)
}

// track remembers the deepest node popped so far for failure diagnostics.
func (s *searcher[S]) track(n *node[S]) {
	if s.deepest == nil || n.plan.Len() > s.deepest.plan.Len() {
		s.deepest = n
	}
}

func (s *searcher[S]) failed() error {
	err := &search.FailedError[S]{Expansions: s.expansions}
	if s.deepest != nil {
		err.Partial = s.deepest.plan
		err.State = s.deepest.state
	}
	return err
}

func (s *searcher[S]) timedOut(budget search.Budget, cause error) error {
	err := &search.TimedOutError[S]{
		Budget:     budget,
		Expansions: s.expansions,
		Elapsed:    s.run.Duration(),
		Cause:      cause,
	}
	if s.deepest != nil {
		err.Partial = s.deepest.plan
		err.State = s.deepest.state
	}
	return err
}

func (s *searcher[S]) discard(ctx context.Context, n *node[S], reason string) {
	s.planner.record(ctx, event.TypeNodeDiscarded, event.NodeDiscardedPayload{
		Expansion: s.expansions,
		Step:      n.plan.Len(),
		Reason:    reason,
		State:     n.state.Fields(),
	})
	logging.Debug().
		Add(logging.SearchID(event.SearchIDFrom(ctx))).
		Add(logging.Expansion(s.expansions)).
		Add(logging.Reason(reason)).
		Msg("node discarded")
}

func (s *searcher[S]) recordRanking(ctx context.Context, step int, ranked []oracle.Ranked[S]) {
	entries := make([]event.RankedTool, len(ranked))
	for i, r := range ranked {
		entries[i] = event.RankedTool{Name: r.Tool.Name(), Prior: r.Prior, Reason: r.Reason}
	}
	s.planner.record(ctx, event.TypeToolsRanked, event.ToolsRankedPayload{
		Expansion: s.expansions,
		Step:      step,
		Ranked:    entries,
	})
}

func (s *searcher[S]) recordCandidate(ctx context.Context, step int, c *candidate[S]) {
	payload := event.CandidateEvaluatedPayload{
		Expansion: s.expansions,
		Step:      step,
		Tool:      c.ranked.Tool.Name(),
		Args:      c.args,
		Prior:     c.ranked.Prior,
		Viable:    c.viable(),
	}
	if c.viable() {
		payload.Probability = c.probability
		payload.CombinedP = c.combined
		payload.G, payload.H, payload.F = c.score.G, c.score.H, c.score.F
	} else {
		payload.Error = c.err.Error()
	}
	s.planner.record(ctx, event.TypeCandidateEvaluated, payload)
}

func (s *searcher[S]) recordChoice(ctx context.Context, step int, c *candidate[S]) {
	s.planner.record(ctx, event.TypeSuccessorChosen, event.SuccessorChosenPayload{
		Expansion:   s.expansions,
		Step:        step,
		Tool:        c.ranked.Tool.Name(),
		Args:        c.args,
		Probability: c.probability,
		CombinedP:   c.combined,
		G:           c.score.G,
		H:           c.score.H,
		F:           c.score.F,
		State:       c.next.Fields(),
	})
	logging.Debug().
		Add(logging.SearchID(event.SearchIDFrom(ctx))).
		Add(logging.Step(step + 1)).
		Add(logging.ToolName(c.ranked.Tool.Name())).
		Add(logging.Args(c.args)).
		Add(logging.Probability(c.probability, c.combined)).
		Add(logging.Score(c.score.G, c.score.H, c.score.F)).
		Msg("successor chosen")
}

func toolNames[S state.State](tools []tool.Tool[S]) []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name()
	}
	return names
}
