package event

import "errors"

// Domain errors for event recording.
var (
	// ErrSearchNotFound is returned when no events exist for a search.
	ErrSearchNotFound = errors.New("search not found in event log")

	// ErrInvalidEvent is returned when an event is malformed.
	ErrInvalidEvent = errors.New("invalid event")
)
