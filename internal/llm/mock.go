package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// MockResponse is one scripted reply. Err, when set, is returned instead.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockText scripts a plain-text tutor reply.
func MockText(text string) MockResponse {
	b, _ := json.Marshal(text)
	return MockResponse{Content: b}
}

// MockCall is one request seen by a MockProvider.
type MockCall struct {
	Purpose Purpose
	Request
}

// MockProvider replays scripted replies in order and records what it was
// asked. It backs CLASSMATE_LLM_PROVIDER=mock and the tutor tests.
type MockProvider struct {
	mu     sync.Mutex
	script []MockResponse
	Calls  []MockCall
}

func NewMockProvider(script ...MockResponse) *MockProvider {
	return &MockProvider{script: script}
}

// Generate returns the next scripted reply. Once the script runs out the
// provider behaves as if it were down.
func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Purpose: PurposeFrom(ctx), Request: req})
	if len(m.script) == 0 {
		return nil, unavailable("mock", 0, nil, errors.New("script exhausted"))
	}
	next := m.script[0]
	m.script = m.script[1:]
	if next.Err != nil {
		return nil, next.Err
	}
	return &Response{Content: next.Content, Usage: next.Usage, Model: "mock", StopReason: StopEnd}, nil
}

func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends to the script.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, resp)
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
