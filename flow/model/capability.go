package model

import (
	"fmt"

	"github.com/flowkit/flowcore/flow"
)

// AsCapability wraps m as a flow.InlineFunc: a Node executable a host can
// register under some CallableId in a Scope (flow.Scope.Register or
// RegisterCapability, to also attach a description). systemPrompt, if
// non-empty, is prepended as a Message{Role: RoleSystem}. tools, if
// non-empty, is passed through to every Chat call unchanged.
//
// ctx.Input (per the Execution Context's input-from-previous-step rule)
// supplies the conversation: a string becomes a single RoleUser message, a
// sequence of {role, content} mappings becomes the message list verbatim,
// and anything else is rendered with fmt.Sprint into a single RoleUser
// message. The capability's raw output is a mapping {text, toolCalls},
// which the Output Normalizer treats as a pass-through result.
func AsCapability(m ChatModel, systemPrompt string, tools []ToolSpec) flow.InlineFunc {
	return func(ctx *flow.Context) (flow.Value, error) {
		messages := toMessages(ctx.Input)
		if systemPrompt != "" {
			messages = append([]Message{{Role: RoleSystem, Content: systemPrompt}}, messages...)
		}

		out, err := m.Chat(ctx.GoContext(), messages, tools)
		if err != nil {
			return nil, fmt.Errorf("flow/model: chat: %w", err)
		}

		calls := make([]flow.Value, len(out.ToolCalls))
		for i, c := range out.ToolCalls {
			input := make(map[string]flow.Value, len(c.Input))
			for k, v := range c.Input {
				input[k] = v
			}
			calls[i] = map[string]flow.Value{"name": c.Name, "input": input}
		}

		return map[string]flow.Value{
			"text":      out.Text,
			"toolCalls": calls,
		}, nil
	}
}

func toMessages(input flow.Value) []Message {
	switch v := input.(type) {
	case nil:
		return nil
	case string:
		return []Message{{Role: RoleUser, Content: v}}
	default:
		if seq, ok := flow.AsSlice(v); ok {
			out := make([]Message, 0, len(seq))
			for _, item := range seq {
				out = append(out, messageFrom(item))
			}
			return out
		}
		return []Message{{Role: RoleUser, Content: fmt.Sprint(v)}}
	}
}

func messageFrom(v flow.Value) Message {
	m, ok := flow.AsMap(v)
	if !ok {
		return Message{Role: RoleUser, Content: fmt.Sprint(v)}
	}
	role, _ := m["role"].(string)
	content, _ := m["content"].(string)
	if role == "" {
		role = RoleUser
	}
	return Message{Role: role, Content: content}
}
