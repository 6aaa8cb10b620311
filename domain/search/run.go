package search

import (
	"fmt"
	"time"
)

// Phase is the lifecycle position of a search.
type Phase string

// Search phases.
const (
	PhasePending   Phase = "pending"
	PhaseSearching Phase = "searching"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
	PhaseTimedOut  Phase = "timed_out"
)

// IsTerminal returns true for succeeded, failed and timed out.
func (p Phase) IsTerminal() bool {
	return p == PhaseSucceeded || p == PhaseFailed || p == PhaseTimedOut
}

// String returns the phase name.
func (p Phase) String() string {
	return string(p)
}

// Run records one search invocation.
type Run struct {
	ID         string    `json:"id"`
	Goal       string    `json:"goal"`
	Phase      Phase     `json:"phase"`
	Expansions int       `json:"expansions"`
	PlanLength int       `json:"plan_length"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// NewRun creates a pending run.
func NewRun(id, goal string) *Run {
	return &Run{
		ID:    id,
		Goal:  goal,
		Phase: PhasePending,
	}
}

// Start moves the run into the searching phase.
func (r *Run) Start() error {
	if r.Phase != PhasePending {
		return fmt.Errorf("%s -> %s: %w", r.Phase, PhaseSearching, ErrInvalidTransition)
	}
	r.Phase = PhaseSearching
	r.StartTime = time.Now()
	return nil
}

// Expanded counts one node expansion.
func (r *Run) Expanded() {
	r.Expansions++
}

// Succeed marks the run successful with a plan of the given length.
func (r *Run) Succeed(planLength int) error {
	if err := r.finish(PhaseSucceeded); err != nil {
		return err
	}
	r.PlanLength = planLength
	return nil
}

// Fail marks the run failed or timed out depending on the error.
func (r *Run) Fail(phase Phase, err error) error {
	if phase != PhaseFailed && phase != PhaseTimedOut {
		return fmt.Errorf("%s is not a failure phase: %w", phase, ErrInvalidTransition)
	}
	if e := r.finish(phase); e != nil {
		return e
	}
	if err != nil {
		r.Error = err.Error()
	}
	return nil
}

func (r *Run) finish(phase Phase) error {
	if r.Phase != PhaseSearching {
		return fmt.Errorf("%s -> %s: %w", r.Phase, phase, ErrInvalidTransition)
	}
	r.Phase = phase
	r.EndTime = time.Now()
	return nil
}

// Duration returns the duration of the run.
func (r *Run) Duration() time.Duration {
	if r.StartTime.IsZero() {
		return 0
	}
	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}
