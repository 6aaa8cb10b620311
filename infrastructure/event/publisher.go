package event

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/toolplan/domain/event"
)

// Publisher buffers events in front of another recorder.
type Publisher struct {
	next    event.Recorder
	buffer  []event.Event
	bufSize int
	mu      sync.Mutex
}

// PublisherOption configures the publisher.
type PublisherOption func(*Publisher)

// WithBufferSize sets the event buffer size.
func WithBufferSize(size int) PublisherOption {
	return func(p *Publisher) {
		p.bufSize = size
	}
}

// NewPublisher creates a new event publisher.
func NewPublisher(next event.Recorder, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		next:    next,
		bufSize: 0, // No buffering by default
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize > 0 {
		p.buffer = make([]event.Event, 0, p.bufSize)
	}
	return p
}

// Record implements event.Recorder.
func (p *Publisher) Record(ctx context.Context, events ...event.Event) error {
	if len(events) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bufSize == 0 {
		return p.next.Record(ctx, events...)
	}

	p.buffer = append(p.buffer, events...)
	if len(p.buffer) >= p.bufSize {
		return p.flush(ctx)
	}
	return nil
}

// Flush writes all buffered events to the next recorder.
func (p *Publisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flush(ctx)
}

// flush must be called with the lock held.
func (p *Publisher) flush(ctx context.Context) error {
	if len(p.buffer) == 0 {
		return nil
	}
	if err := p.next.Record(ctx, p.buffer...); err != nil {
		return err
	}
	p.buffer = p.buffer[:0]
	return nil
}

// Pending returns the number of buffered events.
func (p *Publisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buffer)
}

// Close flushes remaining events.
func (p *Publisher) Close() error {
	return p.Flush(context.Background())
}

var _ event.Recorder = (*Publisher)(nil)
