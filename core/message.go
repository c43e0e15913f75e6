package core

// Role identifies the author of a conversation message. The set is closed;
// anything else is rejected by the Memory.
type Role string

const (
	// RoleUser marks messages authored by the requesting user.
	RoleUser Role = "user"
	// RoleSystem marks instruction messages injected by the engine.
	RoleSystem Role = "system"
	// RoleAssistant marks messages produced by the language model.
	RoleAssistant Role = "assistant"
	// RoleTool marks observation messages produced by tool execution.
	RoleTool Role = "tool"
)

// Valid reports whether r is one of the four supported roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleSystem, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// ToolCall is a model-emitted request to invoke a named capability with a
// serialized JSON argument payload. The ID is opaque and unique within a
// conversation; tool messages answer it via Message.ToolCallID.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is a single entry in an agent's conversation memory. Which optional
// fields are populated depends on the role: ToolCalls only on assistant
// messages, ToolCallID and Name only on tool messages. Use the per-role
// constructors rather than building literals so the shape invariants hold.
//
// A message is immutable once appended, except for the bulk consistency
// repair performed by Memory before a model call.
type Message struct {
	Role        Role       `json:"role"`
	Content     string     `json:"content,omitempty"`
	ToolCalls   []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID  string     `json:"tool_call_id,omitempty"`
	Name        string     `json:"name,omitempty"`
	Base64Image string     `json:"base64_image,omitempty"`
}

// UserMessage constructs a user-authored text message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// SystemMessage constructs a system instruction message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// AssistantMessage constructs an assistant text message without tool calls.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// AssistantToolCallMessage constructs an assistant message carrying the text
// content (possibly empty) and the tool invocations the model emitted.
func AssistantToolCallMessage(content string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// ToolMessage constructs a tool observation answering the invocation with the
// given correlation id. Name records the capability that produced the result;
// base64Image optionally attaches an image payload.
func ToolMessage(content, toolCallID, name, base64Image string) Message {
	return Message{
		Role:        RoleTool,
		Content:     content,
		ToolCallID:  toolCallID,
		Name:        name,
		Base64Image: base64Image,
	}
}
