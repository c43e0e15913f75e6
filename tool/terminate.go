package tool

import (
	"context"
	"fmt"
)

// TerminateName is the capability name of the termination tool. The
// tool-calling agent treats it as special: its successful execution forces
// the agent state to Finished.
const TerminateName = "terminate"

// Terminate is the tool the model calls to end the interaction, reporting
// whether the request was satisfied.
type Terminate struct{}

// NewTerminate constructs the termination tool.
func NewTerminate() *Terminate { return &Terminate{} }

// Name implements Tool.
func (t *Terminate) Name() string { return TerminateName }

// Description implements Tool.
func (t *Terminate) Description() string {
	return "Terminate the interaction when the request is met or when the " +
		"assistant cannot proceed further with the task."
}

// Parameters implements Tool.
func (t *Terminate) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status": map[string]any{
				"type":        "string",
				"description": "The finish status of the interaction.",
				"enum":        []any{"success", "failure"},
			},
		},
		"required": []string{"status"},
	}
}

// Call implements Tool.
func (t *Terminate) Call(_ context.Context, args map[string]any) (*Result, error) {
	status, _ := args["status"].(string)
	if status != "success" && status != "failure" {
		return nil, NewToolError(TerminateName, fmt.Sprintf("invalid status %q", status), CodeValidation)
	}
	return TextResult(fmt.Sprintf("The interaction has been completed with status: %s", status)), nil
}
