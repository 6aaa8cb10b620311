// Package event provides in-memory event recording and buffered publishing.
package event

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/felixgeelhaar/toolplan/domain/event"
	"github.com/google/uuid"
)

// Log is an in-memory event log, readable per search.
type Log struct {
	events      map[string][]event.Event // searchID -> events
	subscribers map[string][]chan event.Event
	sequences   map[string]uint64 // searchID -> last sequence
	mu          sync.RWMutex
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{
		events:      make(map[string][]event.Event),
		subscribers: make(map[string][]chan event.Event),
		sequences:   make(map[string]uint64),
	}
}

// Record appends events, assigning IDs and per-search sequence numbers.
// The batch is rejected as a whole if any event has no type.
func (l *Log) Record(ctx context.Context, events ...event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for i, e := range events {
		if e.Type == "" {
			return fmt.Errorf("event %d: missing type: %w", i, event.ErrInvalidEvent)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range events {
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		l.sequences[e.SearchID]++
		e.Sequence = l.sequences[e.SearchID]
		l.events[e.SearchID] = append(l.events[e.SearchID], e)

		for _, sub := range l.subscribers[e.SearchID] {
			select {
			case sub <- e:
			default:
				// Channel full, skip (non-blocking)
			}
		}
	}
	return nil
}

// Events returns a search's events in sequence order.
func (l *Log) Events(ctx context.Context, searchID string) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	events, ok := l.events[searchID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", searchID, event.ErrSearchNotFound)
	}
	out := make([]event.Event, len(events))
	copy(out, events)
	return out, nil
}

// Subscribe streams events recorded for searchID until ctx is done.
func (l *Log) Subscribe(ctx context.Context, searchID string) <-chan event.Event {
	ch := make(chan event.Event, 64)

	l.mu.Lock()
	l.subscribers[searchID] = append(l.subscribers[searchID], ch)
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.unsubscribe(searchID, ch)
	}()

	return ch
}

func (l *Log) unsubscribe(searchID string, ch chan event.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	subs := l.subscribers[searchID]
	for i, sub := range subs {
		if sub == ch {
			l.subscribers[searchID] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(l.subscribers[searchID]) == 0 {
		delete(l.subscribers, searchID)
	}
}

// Searches returns the IDs of all recorded searches, sorted.
func (l *Log) Searches() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := make([]string, 0, len(l.events))
	for id := range l.events {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the total number of recorded events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	for _, events := range l.events {
		n += len(events)
	}
	return n
}

// Ensure Log implements the domain interfaces.
var (
	_ event.Recorder = (*Log)(nil)
	_ event.Reader   = (*Log)(nil)
)
