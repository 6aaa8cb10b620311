package provider

import (
	"context"
	"sync"
)

// MockProvider returns canned completions for testing.
type MockProvider struct {
	mu        sync.Mutex
	responses []string
	index     int
	respond   func(CompletionRequest) (string, error)
	err       error
	requests  []CompletionRequest
}

// NewMockProvider creates a mock that returns the responses in order,
// repeating the last one once exhausted.
func NewMockProvider(responses ...string) *MockProvider {
	return &MockProvider{responses: responses}
}

// NewMockProviderFunc creates a mock that answers through fn.
func NewMockProviderFunc(fn func(CompletionRequest) (string, error)) *MockProvider {
	return &MockProvider{respond: fn}
}

// WithError makes every call fail with err.
func (p *MockProvider) WithError(err error) *MockProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
	return p
}

// Name returns the provider name.
func (p *MockProvider) Name() string {
	return "mock"
}

// Complete implements the Provider interface.
func (p *MockProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, req)
	if p.err != nil {
		return CompletionResponse{}, p.err
	}

	var content string
	switch {
	case p.respond != nil:
		c, err := p.respond(req)
		if err != nil {
			return CompletionResponse{}, err
		}
		content = c
	case len(p.responses) > 0:
		i := p.index
		if i >= len(p.responses) {
			i = len(p.responses) - 1
		}
		content = p.responses[i]
		p.index++
	}

	return CompletionResponse{Model: "mock", Content: content}, nil
}

// Requests returns the requests received so far.
func (p *MockProvider) Requests() []CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]CompletionRequest, len(p.requests))
	copy(out, p.requests)
	return out
}
