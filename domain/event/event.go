// Package event provides the search event stream and the reports built from it.
package event

import (
	"context"
	"encoding/json"
	"time"
)

// Event represents something that happened during a search or replay.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// SearchID is the ID of the search this event belongs to.
	SearchID string `json:"search_id"`

	// Type classifies the event.
	Type Type `json:"type"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Payload contains the event-specific data.
	Payload json.RawMessage `json:"payload"`

	// Sequence is the ordering number within the search's event stream.
	Sequence uint64 `json:"sequence"`

	// Version is the event schema version for forward compatibility.
	Version int `json:"version,omitempty"`
}

// NewEvent creates a new event with the given type and payload.
func NewEvent(searchID string, eventType Type, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{
		SearchID:  searchID,
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   data,
		Version:   1,
	}, nil
}

// UnmarshalPayload decodes the event payload into the given value.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// Recorder accumulates events. It replaces ambient, global trace output:
// the planner and executor receive one explicitly.
type Recorder interface {
	// Record appends events; implementations assign IDs and sequence numbers.
	Record(ctx context.Context, events ...Event) error
}

// Reader loads recorded events.
type Reader interface {
	// Events returns all events for a search in sequence order.
	Events(ctx context.Context, searchID string) ([]Event, error)
}

// Discard is a Recorder that drops everything.
var Discard Recorder = discard{}

type discard struct{}

func (discard) Record(context.Context, ...Event) error { return nil }

type searchIDKey struct{}

// WithSearchID returns a context carrying the search ID, so collaborators
// reached through narrow interfaces can tag the events they record.
func WithSearchID(ctx context.Context, searchID string) context.Context {
	return context.WithValue(ctx, searchIDKey{}, searchID)
}

// SearchIDFrom returns the search ID carried by ctx, or "".
func SearchIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(searchIDKey{}).(string)
	return id
}
