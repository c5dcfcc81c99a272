// Package model provides ChatModel capabilities: example scope capabilities
// that wrap LLM vendor SDKs behind a common interface so a host can register
// them directly in a flow.Scope without writing its own adapter. FlowCore's
// core evaluation path never imports this package or any vendor SDK — a
// capability implementation is just a flow.InlineFunc (func(ctx *flow.Context)
// (flow.Value, error)) value, and AsCapability is how one gets produced from
// a ChatModel.
package model

import "context"

// ChatModel is the common interface implemented by each vendor adapter.
type ChatModel interface {
	// Chat sends messages to the LLM and returns its response. tools may be
	// nil if the caller offers no tools.
	Chat(ctx context.Context, messages []Message, tools []ToolSpec) (ChatOut, error)
}

// Message is one turn in a conversation, in the common role/content shape
// shared by OpenAI, Anthropic, and Google's chat APIs.
type Message struct {
	Role    string
	Content string
}

// Standard roles, shared across vendors.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ToolSpec describes a tool the LLM may call, in JSON Schema form.
type ToolSpec struct {
	Name        string
	Description string
	Schema      map[string]interface{}
}

// ChatOut is an LLM's response: text, tool calls, or both.
type ChatOut struct {
	Text      string
	ToolCalls []ToolCall
}

// ToolCall is one tool invocation the LLM requested.
type ToolCall struct {
	Name  string
	Input map[string]interface{}
}
