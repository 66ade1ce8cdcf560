package llm

import (
	"context"
	"sync"
)

// Mock is a scriptable Client for tests and dry-running workflows.
// Responses are served in order; when the script is exhausted the last
// entry repeats. A nil script answers every call with empty content.
type Mock struct {
	mu     sync.Mutex
	script []MockReply
	calls  []CompletionRequest
}

// MockReply is one scripted answer.
type MockReply struct {
	Content string
	Err     error
}

// NewMock creates a Mock serving the given replies in order.
func NewMock(script ...MockReply) *Mock {
	return &Mock{script: script}
}

// Complete implements Client.
func (m *Mock) Complete(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req)

	if len(m.script) == 0 {
		return &CompletionResponse{}, nil
	}

	idx := len(m.calls) - 1
	if idx >= len(m.script) {
		idx = len(m.script) - 1
	}
	reply := m.script[idx]

	if reply.Err != nil {
		return nil, reply.Err
	}
	return &CompletionResponse{Content: reply.Content}, nil
}

// Calls returns a copy of every request received so far.
func (m *Mock) Calls() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CompletionRequest, len(m.calls))
	copy(out, m.calls)
	return out
}
