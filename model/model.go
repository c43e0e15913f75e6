package model

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/stride-agent/stride/core"
)

// ToolChoice controls whether the model may, must, or must not emit tool
// invocations in a response.
type ToolChoice string

const (
	// ToolChoiceAuto lets the model choose freely between text and tools.
	ToolChoiceAuto ToolChoice = "auto"
	// ToolChoiceRequired forces the model to emit at least one tool call.
	ToolChoiceRequired ToolChoice = "required"
	// ToolChoiceNone forbids tool use for this call.
	ToolChoiceNone ToolChoice = "none"
)

// FunctionDefinition describes an individual callable capability exposed to
// the model. Parameters is a JSON Schema object (minimal subset).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// Response is the normalized result of a tool-enabled model call: optional
// text content plus zero or more tool invocations, in emission order.
type Response struct {
	Content   string
	ToolCalls []core.ToolCall
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the language capability consumed by agents. Ask performs a plain
// text completion over the conversation; AskWithTools additionally declares
// the available capabilities and a tool-choice mode. Both fail with a
// *TokenBudgetError when the conversation exceeds the model's context limit;
// that failure must be distinguishable (via IsTokenBudget) from all others.
type Model interface {
	Ask(ctx context.Context, messages []core.Message) (string, error)

	AskWithTools(
		ctx context.Context,
		messages []core.Message,
		systemMsgs []core.Message,
		tools []ToolDefinition,
		toolChoice ToolChoice,
	) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// TokenBudgetError signals that the conversation exceeded the model's
// context window. It is fatal to the current run and never retried.
type TokenBudgetError struct {
	Model  string
	Detail string
}

func (e *TokenBudgetError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("token budget exceeded for model %s", e.Model)
	}
	return fmt.Sprintf("token budget exceeded for model %s: %s", e.Model, e.Detail)
}

// IsTokenBudget reports whether err is, or wraps, a TokenBudgetError. Callers
// must use this rather than a direct type assertion so that budget failures
// surfaced through retry or delegation wrappers are still recognized.
func IsTokenBudget(err error) bool {
	var tbe *TokenBudgetError
	return errors.As(err, &tbe)
}

// NewToolCall builds a tool invocation with a generated id, for scripting
// mock responses in tests and examples.
func NewToolCall(name, arguments string) core.ToolCall {
	return core.ToolCall{ID: "call_" + uuid.NewString(), Name: name, Arguments: arguments}
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Ask returns canned completions keyed by the last message's content (or a
// FIFO script); AskWithTools pops from a FIFO script of responses. When a
// script entry is an error it is returned instead.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	askScript []string
	script    []scripted
	calls     int
}

type scripted struct {
	resp *Response
	err  error
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock", SupportsTools: true},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// QueueAsk appends a scripted Ask completion returned in FIFO order before
// any prompt-keyed lookup.
func (m *MockModel) QueueAsk(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.askScript = append(m.askScript, response)
}

// QueueResponse appends a scripted AskWithTools response.
func (m *MockModel) QueueResponse(resp *Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scripted{resp: resp})
}

// QueueError appends a scripted AskWithTools failure.
func (m *MockModel) QueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scripted{err: err})
}

// Calls returns how many AskWithTools invocations have been served.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Ask implements Model.
func (m *MockModel) Ask(_ context.Context, messages []core.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.askScript) > 0 {
		resp := m.askScript[0]
		m.askScript = m.askScript[1:]
		return resp, nil
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	last := messages[len(messages)-1]
	if resp, ok := m.responses[last.Content]; ok {
		return resp, nil
	}
	return fmt.Sprintf("Mock response to: %s", last.Content), nil
}

// AskWithTools implements Model.
func (m *MockModel) AskWithTools(
	_ context.Context,
	_ []core.Message,
	_ []core.Message,
	_ []ToolDefinition,
	_ ToolChoice,
) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if len(m.script) == 0 {
		return &Response{Content: "Mock response"}, nil
	}
	next := m.script[0]
	m.script = m.script[1:]
	if next.err != nil {
		return nil, next.err
	}
	return next.resp, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
