package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// errMockExhausted is wrapped in ErrProviderUnavailable once the script
// runs out.
var errMockExhausted = errors.New("mock: no canned responses left")

// maxRecordedCalls bounds Calls for a mock provider serving a long-running
// process.
const maxRecordedCalls = 64

// MockResponse is one scripted reply for MockProvider. A non-nil Err is
// returned instead of a Response.
type MockResponse struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string // Default: the request model, then the provider ID
	StopReason string // Default: "end"
	Err        error
}

// MockProvider replays scripted responses in order and records every
// request it receives. It backs the "mock" provider setting and tests.
type MockProvider struct {
	mu     sync.Mutex
	id     string
	script []MockResponse
	count  int

	// Calls holds the most recent requests, oldest first, up to
	// maxRecordedCalls of them.
	Calls []Request
}

// NewMockProvider returns a MockProvider reporting the model ID "mock".
func NewMockProvider(script ...MockResponse) *MockProvider {
	return NewNamedMockProvider("mock", script...)
}

// NewNamedMockProvider returns a MockProvider reporting id as its model.
func NewNamedMockProvider(id string, script ...MockResponse) *MockProvider {
	return &MockProvider{id: id, script: script}
}

func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.count++
	if len(m.Calls) == maxRecordedCalls {
		m.Calls = append(m.Calls[:0], m.Calls[1:]...)
	}
	m.Calls = append(m.Calls, req)
	if len(m.script) == 0 {
		return nil, &ErrProviderUnavailable{Err: errMockExhausted}
	}

	next := m.script[0]
	m.script = m.script[1:]
	if next.Err != nil {
		return nil, next.Err
	}

	resp := &Response{
		Content:    next.Content,
		Usage:      next.Usage,
		Model:      next.Model,
		StopReason: next.StopReason,
	}
	if resp.Model == "" {
		resp.Model = pickModel(req, m.id)
	}
	if resp.StopReason == "" {
		resp.StopReason = "end"
	}
	return resp, nil
}

func (m *MockProvider) ModelID() string {
	return m.id
}

// AddResponse appends to the script.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, resp)
}

// CallCount returns how many requests have been received, including those
// no longer held in Calls.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}
