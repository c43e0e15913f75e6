package core

import "fmt"

// Memory is the ordered, append-only conversation store backing a single
// agent instance. It is owned exclusively by that instance and never shared;
// the engine's cooperative scheduling means no internal locking is required.
//
// Messages are immutable once appended, with one exception: the repair
// methods below may rewrite the sequence in bulk to restore the tool-call
// correlation invariant before the conversation is sent to a model.
type Memory struct {
	messages []Message
}

// NewMemory returns an empty conversation store.
func NewMemory() *Memory {
	return &Memory{}
}

// Add appends a message. It returns an error for roles outside the closed
// set; this is the only validation the store performs.
func (m *Memory) Add(msg Message) error {
	if !msg.Role.Valid() {
		return fmt.Errorf("unsupported message role: %q", msg.Role)
	}
	m.messages = append(m.messages, msg)
	return nil
}

// MustAdd appends a message constructed by one of the per-role constructors.
// It panics on an invalid role, which cannot happen for constructor output.
func (m *Memory) MustAdd(msg Message) {
	if err := m.Add(msg); err != nil {
		panic(err)
	}
}

// Messages returns the conversation in append order. The returned slice is a
// copy; mutating it does not affect the store.
func (m *Memory) Messages() []Message {
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Len returns the number of stored messages.
func (m *Memory) Len() int { return len(m.messages) }

// Last returns the most recent message, or false if the store is empty.
func (m *Memory) Last() (Message, bool) {
	if len(m.messages) == 0 {
		return Message{}, false
	}
	return m.messages[len(m.messages)-1], true
}

// LastByRole returns the most recent message with the given role.
func (m *Memory) LastByRole(role Role) (Message, bool) {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Role == role {
			return m.messages[i], true
		}
	}
	return Message{}, false
}

// Clear discards all stored messages.
func (m *Memory) Clear() { m.messages = nil }

// DropOrphanToolResponses removes tool messages whose correlation id is not
// declared by any assistant message in the conversation. This is the base
// repair applied at the start of every run; the full tool-flow repair below
// is applied before each model call by the tool-calling layer.
func (m *Memory) DropOrphanToolResponses() {
	declared := map[string]bool{}
	for _, msg := range m.messages {
		if msg.Role != RoleAssistant {
			continue
		}
		for _, tc := range msg.ToolCalls {
			declared[tc.ID] = true
		}
	}
	out := m.messages[:0]
	for _, msg := range m.messages {
		if msg.Role == RoleTool && !declared[msg.ToolCallID] {
			continue
		}
		out = append(out, msg)
	}
	m.messages = out
}

// RepairToolFlow restores the invariant required by model providers: every
// assistant-declared tool invocation has exactly one matching tool message,
// and every tool message answers an invocation declared by an earlier,
// still-present assistant message.
//
// Assistant messages whose invocations are only partially or never answered
// are replaced by an equivalent assistant message retaining only their text
// content (or dropped outright when they carry no text). Tool messages that
// answer a stripped or unknown invocation are removed, as is any duplicate
// answer beyond the first.
func (m *Memory) RepairToolFlow() {
	responses := map[string]int{}
	for _, msg := range m.messages {
		if msg.Role == RoleTool && msg.ToolCallID != "" {
			responses[msg.ToolCallID]++
		}
	}

	retained := map[string]bool{}
	answered := map[string]bool{}
	out := make([]Message, 0, len(m.messages))
	for _, msg := range m.messages {
		switch {
		case msg.Role == RoleAssistant && len(msg.ToolCalls) > 0:
			complete := true
			for _, tc := range msg.ToolCalls {
				if responses[tc.ID] == 0 {
					complete = false
					break
				}
			}
			if complete {
				for _, tc := range msg.ToolCalls {
					retained[tc.ID] = true
				}
				out = append(out, msg)
			} else if msg.Content != "" {
				out = append(out, Message{
					Role:        RoleAssistant,
					Content:     msg.Content,
					Base64Image: msg.Base64Image,
				})
			}
		case msg.Role == RoleTool:
			if msg.ToolCallID == "" || !retained[msg.ToolCallID] || answered[msg.ToolCallID] {
				continue
			}
			answered[msg.ToolCallID] = true
			out = append(out, msg)
		default:
			out = append(out, msg)
		}
	}
	m.messages = out
}
