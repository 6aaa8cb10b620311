package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/toolplan/domain/event"
	"github.com/felixgeelhaar/toolplan/domain/oracle"
	"github.com/felixgeelhaar/toolplan/domain/plan"
	"github.com/felixgeelhaar/toolplan/domain/state"
	"github.com/felixgeelhaar/toolplan/domain/tool"
	"github.com/felixgeelhaar/toolplan/infrastructure/logging"
	"github.com/felixgeelhaar/toolplan/infrastructure/observability"
)

// Executor replays plans against a fresh state.
type Executor[S state.State] struct {
	recorder event.Recorder
	advisor  oracle.Advisor[S]
	tracer   trace.Tracer
}

// ExecutorOption configures an Executor.
type ExecutorOption[S state.State] func(*Executor[S])

// WithExecutionRecorder sets where step.executed events go.
func WithExecutionRecorder[S state.State](r event.Recorder) ExecutorOption[S] {
	return func(e *Executor[S]) {
		e.recorder = r
	}
}

// WithAdvisor enables guided replay through a.
func WithAdvisor[S state.State](a oracle.Advisor[S]) ExecutorOption[S] {
	return func(e *Executor[S]) {
		e.advisor = a
	}
}

// WithExecutionTracer sets the tracer.
func WithExecutionTracer[S state.State](t trace.Tracer) ExecutorOption[S] {
	return func(e *Executor[S]) {
		e.tracer = t
	}
}

// NewExecutor creates an executor.
func NewExecutor[S state.State](opts ...ExecutorOption[S]) *Executor[S] {
	e := &Executor[S]{recorder: event.Discard}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecutedStep is one row of an execution history.
type ExecutedStep struct {
	Index          int               `json:"step"`
	Tool           string            `json:"tool"`
	PlannedArgs    tool.Args         `json:"planned_args"`
	Args           tool.Args         `json:"args"`
	Thought        string            `json:"thought,omitempty"`
	PreconditionOK bool              `json:"pre_ok"`
	Before         state.Fields      `json:"before"`
	After          state.Fields      `json:"after,omitempty"`
	Observation    state.Observation `json:"observation,omitempty"`
	Error          string            `json:"error,omitempty"`
}

// Execution is the outcome of a replay.
type Execution[S state.State] struct {
	ID    string
	Final S
	Steps []ExecutedStep
	// Trace holds the successfully applied steps.
	Trace plan.Trace
}

// ReachedGoal reports whether the final state satisfies the goal.
func (x *Execution[S]) ReachedGoal() bool {
	return x.Final.IsGoal()
}

// Replay applies p to initial step by step with the planned arguments.
// A step whose precondition fails stops the replay with a
// *plan.PreconditionViolationError; the execution up to that step is
// returned alongside it.
func (e *Executor[S]) Replay(ctx context.Context, p plan.Plan[S], initial S) (*Execution[S], error) {
	return e.execute(ctx, p, initial, "", false)
}

// ReplayGuided is Replay with the advisor consulted before every step.
// Without an advisor it behaves exactly like Replay.
func (e *Executor[S]) ReplayGuided(ctx context.Context, p plan.Plan[S], initial S, goal string) (*Execution[S], error) {
	return e.execute(ctx, p, initial, goal, e.advisor != nil)
}

func (e *Executor[S]) execute(ctx context.Context, p plan.Plan[S], initial S, goal string, guided bool) (*Execution[S], error) {
	id := event.SearchIDFrom(ctx)
	if id == "" {
		id = uuid.NewString()
		ctx = event.WithSearchID(ctx, id)
	}

	ctx, span := observability.StartSpan(ctx, e.tracer, observability.SpanReplay,
		attribute.String("search.id", id),
		attribute.Int("plan.length", p.Len()),
		attribute.Bool("replay.guided", guided),
	)

	x := &Execution[S]{ID: id, Final: initial}
	for i, step := range p {
		if err := ctx.Err(); err != nil {
			err = fmt.Errorf("replay step %d: %w", i, err)
			observability.EndSpan(span, err)
			return x, err
		}

		row := ExecutedStep{
			Index:          i,
			Tool:           step.Tool.Name(),
			PlannedArgs:    step.Args.Clone(),
			Args:           step.Args.Clone(),
			PreconditionOK: step.Tool.Precondition(x.Final),
			Before:         x.Final.Fields(),
		}
		if guided {
			e.advise(ctx, &row, step.Tool, x.Final, goal)
		}

		next, err := tool.Invoke(step.Tool, x.Final, row.Args)
		if err != nil {
			row.Error = err.Error()
			x.Steps = append(x.Steps, row)
			e.record(ctx, row)

			violation := &plan.PreconditionViolationError[S]{
				Index:   i,
				Step:    plan.Step[S]{Tool: step.Tool, Args: row.Args},
				State:   x.Final,
				Partial: p[:i:i],
				Cause:   err,
			}
			logging.Error().
				Add(logging.SearchID(id)).
				Add(logging.Step(i)).
				Add(logging.ToolName(row.Tool)).
				Add(logging.ErrorField(violation)).
				Msg("replay stopped")
			observability.EndSpan(span, violation)
			return x, violation
		}

		row.After = next.Fields()
		row.Observation = state.Diff(row.Before, row.After)
		x.Steps = append(x.Steps, row)
		x.Trace = append(x.Trace, plan.TraceStep{
			Index:       i,
			Tool:        row.Tool,
			Args:        row.Args.Clone(),
			Before:      row.Before,
			After:       row.After,
			Observation: row.Observation,
		})
		x.Final = next
		e.record(ctx, row)

		logging.Debug().
			Add(logging.SearchID(id)).
			Add(logging.Step(i)).
			Add(logging.ToolName(row.Tool)).
			Add(logging.Args(row.Args)).
			Msg("step executed")
	}

	observability.EndSpan(span, nil)
	return x, nil
}

// advise lets the advisor replace row.Args. Failures and wrong arities keep
// the planned arguments.
func (e *Executor[S]) advise(ctx context.Context, row *ExecutedStep, t tool.Tool[S], s S, goal string) {
	advice, err := e.advisor.Advise(ctx, s, goal, t, row.PlannedArgs.Clone())
	if err == nil && len(advice.Args) != tool.Arity(t) {
		err = fmt.Errorf("advised %d args, want %d: %w", len(advice.Args), tool.Arity(t), oracle.ErrArity)
	}
	if err != nil {
		logging.Warn().
			Add(logging.SearchID(event.SearchIDFrom(ctx))).
			Add(logging.Step(row.Index)).
			Add(logging.ToolName(row.Tool)).
			Add(logging.ErrorField(err)).
			Msg("advisor failed, keeping planned args")
		return
	}
	row.Args = advice.Args.Clone()
	row.Thought = advice.Thought
}

func (e *Executor[S]) record(ctx context.Context, row ExecutedStep) {
	ev, err := event.NewEvent(event.SearchIDFrom(ctx), event.TypeStepExecuted, event.StepExecutedPayload{
		Step:        row.Index,
		Tool:        row.Tool,
		PlannedArgs: row.PlannedArgs,
		Args:        row.Args,
		Thought:     row.Thought,
		State:       row.After,
		Observation: row.Observation,
		Error:       row.Error,
	})
	if err == nil {
		err = e.recorder.Record(context.WithoutCancel(ctx), ev)
	}
	if err != nil {
		logging.Warn().
			Add(logging.SearchID(event.SearchIDFrom(ctx))).
			Add(logging.ErrorField(fmt.Errorf("record event: %w", err))).
			Msg("event recording failed")
	}
}
