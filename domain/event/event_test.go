package event_test

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/toolplan/domain/event"
	"github.com/felixgeelhaar/toolplan/domain/tool"
)

func TestNewEvent(t *testing.T) {
	t.Parallel()

	t.Run("creates event with valid payload", func(t *testing.T) {
		t.Parallel()

		payload := event.SearchStartedPayload{Goal: "book a train", TopK: 3}

		e, err := event.NewEvent("search-123", event.TypeSearchStarted, payload)
		if err != nil {
			t.Fatalf("NewEvent() error = %v", err)
		}
		if e.SearchID != "search-123" {
			t.Errorf("NewEvent() SearchID = %s, want search-123", e.SearchID)
		}
		if e.Type != event.TypeSearchStarted {
			t.Errorf("NewEvent() Type = %s, want search.started", e.Type)
		}
		if e.Timestamp.IsZero() {
			t.Error("NewEvent() Timestamp should not be zero")
		}
		if e.Version != 1 {
			t.Errorf("NewEvent() Version = %d, want 1", e.Version)
		}

		var got event.SearchStartedPayload
		if err := e.UnmarshalPayload(&got); err != nil {
			t.Fatalf("UnmarshalPayload() error = %v", err)
		}
		if got.Goal != payload.Goal || got.TopK != 3 {
			t.Errorf("UnmarshalPayload() = %+v, want %+v", got, payload)
		}
	})

	t.Run("returns error for unmarshalable payload", func(t *testing.T) {
		t.Parallel()

		if _, err := event.NewEvent("search-123", event.TypeSearchStarted, make(chan int)); err == nil {
			t.Error("NewEvent() should return error for unmarshalable payload")
		}
	})
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	if err := event.Discard.Record(context.Background(), event.Event{}); err != nil {
		t.Errorf("Discard.Record() error = %v", err)
	}
}

func mustEvent(t *testing.T, seq uint64, typ event.Type, payload any) event.Event {
	t.Helper()
	e, err := event.NewEvent("s", typ, payload)
	if err != nil {
		t.Fatalf("NewEvent() error = %v", err)
	}
	e.Sequence = seq
	return e
}

func TestBuildReport(t *testing.T) {
	t.Parallel()

	events := []event.Event{
		mustEvent(t, 1, event.TypeToolsRanked, event.ToolsRankedPayload{
			Expansion: 1, Step: 0,
			Ranked: []event.RankedTool{{Name: "set_origin", Prior: 0.7}},
		}),
		mustEvent(t, 2, event.TypeCandidateEvaluated, event.CandidateEvaluatedPayload{
			Expansion: 1, Step: 0, Tool: "set_origin", Args: tool.Args{"New York"},
			Prior: 0.7, Probability: 0.8, F: 2.8, Viable: true,
		}),
		mustEvent(t, 3, event.TypeCandidateEvaluated, event.CandidateEvaluatedPayload{
			Expansion: 1, Step: 0, Tool: "set_origin", Args: tool.Args{"Boston"},
			Prior: 0.7, Probability: 0.5, F: 3.9, Viable: true,
		}),
		mustEvent(t, 4, event.TypeSuccessorChosen, event.SuccessorChosenPayload{
			Expansion: 1, Step: 0, Tool: "set_origin", Args: tool.Args{"New York"},
			Probability: 0.8, CombinedP: 0.56, F: 2.8,
		}),
		mustEvent(t, 5, event.TypeNodeDiscarded, event.NodeDiscardedPayload{
			Expansion: 2, Step: 1, Reason: event.DiscardDeadEnd,
		}),
		mustEvent(t, 6, event.TypeNodeDiscarded, event.NodeDiscardedPayload{
			Expansion: 3, Step: 1, Reason: event.DiscardClosed,
		}),
		mustEvent(t, 7, event.TypeStepExecuted, event.StepExecutedPayload{
			Step: 0, Tool: "set_origin", Args: tool.Args{"New York"},
		}),
	}

	reports, err := event.BuildReport(events)
	if err != nil {
		t.Fatalf("BuildReport() error = %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("len(reports) = %d, want 2", len(reports))
	}

	first := reports[0]
	if first.Chosen != "set_origin" || !first.ChosenArgs.Equal(tool.Args{"New York"}) {
		t.Errorf("reports[0] chosen = %s%s", first.Chosen, first.ChosenArgs)
	}
	if len(first.Tools) != 1 || len(first.Tools[0].Candidates) != 2 {
		t.Fatalf("reports[0].Tools = %+v", first.Tools)
	}
	if first.Tools[0].Prior != 0.7 {
		t.Errorf("reports[0].Tools[0].Prior = %v, want 0.7", first.Tools[0].Prior)
	}
	if !first.Executed {
		t.Error("reports[0].Executed = false, want true")
	}

	second := reports[1]
	if second.Expansion != 2 || second.Discarded != event.DiscardDeadEnd || second.Executed {
		t.Errorf("reports[1] = %+v", second)
	}
}

func TestBuildReport_InvalidPayload(t *testing.T) {
	t.Parallel()

	bad := event.Event{Type: event.TypeSuccessorChosen, Payload: []byte("{")}
	if _, err := event.BuildReport([]event.Event{bad}); err == nil {
		t.Error("BuildReport() should reject malformed payloads")
	}
}
