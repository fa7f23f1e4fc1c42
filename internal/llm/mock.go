package llm

import (
	"context"
	"sync"
)

// MockClient is a test double for the LLM Client interface.
// It can also be used for dry-run mode.
type MockClient struct {
	Response *Response
	Err      error

	mu       sync.Mutex
	requests []Request
}

// Complete records the call and returns the mock response.
func (m *MockClient) Complete(ctx context.Context, r Request) (*Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, r)
	m.mu.Unlock()
	return m.Response, m.Err
}

// Requests returns a copy of every request seen so far.
func (m *MockClient) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// NewMock returns a mock that answers every call with text.
func NewMock(text string) *MockClient {
	return &MockClient{Response: &Response{Content: text, Provider: "mock"}}
}
