package core

import "encoding/json"

// Role identifies the author of a conversation turn.
type Role string

// Conversation roles. Providers without a native "tool" role remap
// RoleTool turns to their own function-response shape.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a function call request surfaced by a model provider,
// unified across vendors so downstream logic needs no per-provider branching.
// Arguments hold the raw JSON argument payload; it is only parsed after a
// stream completes.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one turn in a conversation history.
//
// Content is either plain text or an arbitrary structured payload; it is nil
// for assistant turns that only carry tool calls. ToolCallID links a
// RoleTool message back to the assistant tool call it answers; the referenced
// ID must have been emitted earlier in the same history.
type Message struct {
	Role       Role           `json:"role"`
	Content    any            `json:"content,omitempty"`
	Name       string         `json:"name,omitempty"`
	ToolCalls  []ToolCall     `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// SystemMessage creates a system-role text message.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// UserMessage creates a user-role text message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantMessage creates an assistant-role text message.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// AssistantToolCallMessage creates the assistant turn recording the tool
// calls a model requested. Content is nil when the model produced no text
// alongside the calls.
func AssistantToolCallMessage(text string, calls []ToolCall) Message {
	m := Message{Role: RoleAssistant, ToolCalls: calls}
	if text != "" {
		m.Content = text
	}
	return m
}

// ToolResultMessage creates the tool-role turn answering a prior assistant
// tool call. Name carries the tool identity for vendors that require it on
// tool results.
func ToolResultMessage(callID, name string, result any) Message {
	return Message{Role: RoleTool, Content: result, Name: name, ToolCallID: callID}
}

// Text returns the message content as a string. Structured content is
// rendered as compact JSON so it stays usable as conversational text.
func (m Message) Text() string {
	switch v := m.Content.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
