package model

import (
	"context"
	"testing"

	"github.com/flowkit/flowcore/flow"
)

func TestAsCapabilityStringInputBecomesSingleUserMessage(t *testing.T) {
	m := &MockChatModel{Responses: []ChatOut{{Text: "hi there"}}}
	cap := AsCapability(m, "", nil)

	ctx := &flow.Context{Input: "hello"}
	out, err := cap(ctx)
	if err != nil {
		t.Fatalf("cap: %v", err)
	}
	result, ok := out.(map[string]flow.Value)
	if !ok || result["text"] != "hi there" {
		t.Fatalf("out = %v, want {text: hi there}", out)
	}

	if len(m.Calls) != 1 || len(m.Calls[0].Messages) != 1 {
		t.Fatalf("Calls = %+v, want one call with one message", m.Calls)
	}
	msg := m.Calls[0].Messages[0]
	if msg.Role != RoleUser || msg.Content != "hello" {
		t.Fatalf("message = %+v, want {user, hello}", msg)
	}
}

func TestAsCapabilityPrependsSystemPrompt(t *testing.T) {
	m := &MockChatModel{Responses: []ChatOut{{Text: "ok"}}}
	cap := AsCapability(m, "be helpful", nil)

	ctx := &flow.Context{Input: "hi"}
	if _, err := cap(ctx); err != nil {
		t.Fatalf("cap: %v", err)
	}

	msgs := m.Calls[0].Messages
	if len(msgs) != 2 || msgs[0].Role != RoleSystem || msgs[0].Content != "be helpful" {
		t.Fatalf("messages = %+v, want system prompt first", msgs)
	}
	if msgs[1].Role != RoleUser || msgs[1].Content != "hi" {
		t.Fatalf("messages[1] = %+v, want the user turn", msgs[1])
	}
}

func TestAsCapabilitySequenceInputBecomesMessageList(t *testing.T) {
	m := &MockChatModel{Responses: []ChatOut{{Text: "ok"}}}
	cap := AsCapability(m, "", nil)

	input := []flow.Value{
		map[string]flow.Value{"role": "user", "content": "first"},
		map[string]flow.Value{"role": "assistant", "content": "second"},
	}
	ctx := &flow.Context{Input: input}
	if _, err := cap(ctx); err != nil {
		t.Fatalf("cap: %v", err)
	}

	msgs := m.Calls[0].Messages
	if len(msgs) != 2 || msgs[0].Content != "first" || msgs[1].Content != "second" {
		t.Fatalf("messages = %+v, want [first, second] preserved in order", msgs)
	}
}

func TestAsCapabilityToolCallsAreRendered(t *testing.T) {
	m := &MockChatModel{Responses: []ChatOut{{
		ToolCalls: []ToolCall{{Name: "search", Input: map[string]interface{}{"q": "go"}}},
	}}}
	cap := AsCapability(m, "", []ToolSpec{{Name: "search"}})

	out, err := cap(&flow.Context{Input: "find go docs"})
	if err != nil {
		t.Fatalf("cap: %v", err)
	}
	result := out.(map[string]flow.Value)
	calls, ok := flow.AsSlice(result["toolCalls"])
	if !ok || len(calls) != 1 {
		t.Fatalf("toolCalls = %v, want one call", result["toolCalls"])
	}
	call := calls[0].(map[string]flow.Value)
	if call["name"] != "search" {
		t.Fatalf("toolCalls[0].name = %v, want search", call["name"])
	}
}

func TestAsCapabilityPropagatesModelError(t *testing.T) {
	m := &MockChatModel{Err: context.DeadlineExceeded}
	cap := AsCapability(m, "", nil)

	if _, err := cap(&flow.Context{Input: "x"}); err == nil {
		t.Fatalf("expected an error from a failing ChatModel")
	}
}
