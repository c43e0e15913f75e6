// Package tool implements the capability subsystem that lets agents invoke
// structured operations (APIs, computations, side effects) by name with
// schema-validated arguments and consistent error handling.
package tool

import (
	"context"
	"fmt"

	"github.com/stride-agent/stride/internal/schema"
)

// Tool defines the interface for extending agent capabilities with external
// functions.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions (snake_case names)
//   - Define a proper JSON schema for parameters
//   - Handle errors gracefully
//   - Be safe for repeated sequential invocation
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool
	// does. It is provided to the model to guide tool selection.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool with already-decoded arguments.
	Call(ctx context.Context, args map[string]any) (*Result, error)
}

// Result is the outcome of a tool execution: textual output plus an optional
// base64-encoded image payload to attach to the observation message.
type Result struct {
	Output      string `json:"output"`
	Base64Image string `json:"base64_image,omitempty"`
}

// String returns the textual output.
func (r *Result) String() string {
	if r == nil {
		return ""
	}
	return r.Output
}

// TextResult wraps plain text output in a Result.
func TextResult(output string) *Result {
	return &Result{Output: output}
}

// ValidationError re-exports the schema validation error for callers that
// need to inspect the failing field.
type ValidationError = schema.ValidationError

// Error codes attached to ToolError for categorization.
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeExecution   = "EXECUTION_ERROR"
	CodeUnknownTool = "UNKNOWN_TOOL"
)

// ToolError represents errors that occur during tool resolution or execution.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}
