package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stride-agent/stride/model"
)

// Registry maps capability names to executable tools and exposes their
// declared parameter schemas to the model layer. Registration order is
// preserved so schema listings are deterministic.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry constructs a Registry pre-populated with the given tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds a tool, replacing any previous tool with the same name.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.order) }

// Schemas returns the declared tool definitions in registration order, in
// the shape the model layer sends to providers.
func (r *Registry) Schemas() []model.ToolDefinition {
	out := make([]model.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return out
}

// Execute resolves the named tool, decodes its serialized JSON argument
// payload and invokes it. An empty payload decodes to no arguments. Unknown
// names and malformed payloads yield a *ToolError; handler failures are
// propagated unchanged.
func (r *Registry) Execute(ctx context.Context, name, argsJSON string) (*Result, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, NewToolError(name, fmt.Sprintf("unknown tool %q", name), CodeUnknownTool)
	}

	args := map[string]any{}
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return nil, &ToolError{
				Tool:    name,
				Message: "invalid JSON argument payload",
				Code:    CodeValidation,
				Details: err.Error(),
			}
		}
	}

	return t.Call(ctx, args)
}
