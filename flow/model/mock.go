package model

import (
	"context"
	"sync"
)

// MockChatModel is a test double implementing ChatModel. Responses are
// returned in order; once exhausted, the last response repeats. If Err is
// set, Chat returns it instead of consuming a response.
type MockChatModel struct {
	Responses []ChatOut
	Err       error

	// Calls records every invocation, for assertions in tests.
	Calls []MockChatCall

	mu        sync.Mutex
	callIndex int
}

// MockChatCall records one Chat invocation.
type MockChatCall struct {
	Messages []Message
	Tools    []ToolSpec
}

func (m *MockChatModel) Chat(_ context.Context, messages []Message, tools []ToolSpec) (ChatOut, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockChatCall{Messages: messages, Tools: tools})

	if m.Err != nil {
		return ChatOut{}, m.Err
	}
	if len(m.Responses) == 0 {
		return ChatOut{}, nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}
	return m.Responses[idx], nil
}
