package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stride-agent/stride/core"
	"github.com/stride-agent/stride/model"
	"github.com/stride-agent/stride/progress"
	"github.com/stride-agent/stride/tool"
)

// ErrToolCallRequired is returned by a step when the tool-choice mode demands
// tool use but the model emitted none. It surfaces from act, not think.
var ErrToolCallRequired = errors.New("tool calls required but none provided")

// ToolCallOptions configure a ToolCallAgent on top of the base lifecycle
// options.
type ToolCallOptions struct {
	Options

	// Tools are the capabilities exposed to the model. The terminate tool is
	// always added.
	Tools []tool.Tool

	// ToolChoice controls whether the model may, must, or must not emit tool
	// invocations.
	ToolChoice model.ToolChoice

	// MaxObserve truncates each tool observation to at most this many
	// characters when positive.
	MaxObserve int

	// SpecialTools are tool names whose successful execution finishes the
	// run. Defaults to the terminate tool.
	SpecialTools []string
}

// ToolCallAgent implements the step as a two-phase think/act cycle: the model
// first selects actions against the declared tool schemas, then the agent
// executes them sequentially, feeding each observation back into memory.
type ToolCallAgent struct {
	*BaseAgent

	model      model.Model
	registry   *tool.Registry
	toolChoice model.ToolChoice
	special    map[string]bool
	maxObserve int

	pending []core.ToolCall
}

// NewToolCallAgent constructs a tool-calling agent backed by the given model.
func NewToolCallAgent(name string, m model.Model, optFns ...func(o *ToolCallOptions)) *ToolCallAgent {
	opts := ToolCallOptions{
		Options: Options{
			MaxSteps:           30,
			DuplicateThreshold: 2,
			SystemPrompt:       toolCallSystemPrompt,
			NextStepPrompt:     toolCallNextStepPrompt,
		},
		ToolChoice:   model.ToolChoiceAuto,
		SpecialTools: []string{tool.TerminateName},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	registry := tool.NewRegistry(opts.Tools...)
	if !registry.Has(tool.TerminateName) {
		registry.Register(tool.NewTerminate())
	}

	special := make(map[string]bool, len(opts.SpecialTools))
	for _, name := range opts.SpecialTools {
		special[strings.ToLower(name)] = true
	}

	a := &ToolCallAgent{
		BaseAgent: NewBaseAgent(name, func(o *Options) {
			*o = opts.Options
		}),
		model:      m,
		registry:   registry,
		toolChoice: opts.ToolChoice,
		special:    special,
		maxObserve: opts.MaxObserve,
	}
	a.Bind(a)
	return a
}

// Tools returns the agent's capability registry.
func (a *ToolCallAgent) Tools() *tool.Registry { return a.registry }

// Step implements Stepper as think followed by act.
func (a *ToolCallAgent) Step(ctx context.Context) (string, error) {
	proceed, err := a.think(ctx)
	if err != nil {
		return "", err
	}
	if !proceed {
		return "Thinking complete - no further action", nil
	}
	return a.act(ctx)
}

// think queries the model with the repaired conversation and the declared
// tool schemas, records the emitted invocations and decides whether act is
// warranted.
func (a *ToolCallAgent) think(ctx context.Context) (bool, error) {
	if p := a.NextStepPrompt(); p != "" {
		a.Memory().MustAdd(core.UserMessage(p))
	}

	// The provider rejects conversations with unanswered or orphaned tool
	// invocations, so repair before every call.
	a.Memory().RepairToolFlow()

	var systemMsgs []core.Message
	if sp := a.systemPrompt; sp != "" {
		systemMsgs = append(systemMsgs, core.SystemMessage(sp))
	}

	resp, err := a.model.AskWithTools(ctx, a.Memory().Messages(), systemMsgs, a.registry.Schemas(), a.toolChoice)
	if err != nil {
		if model.IsTokenBudget(err) {
			a.logger.Error("token budget exceeded during think", "agent", a.Name(), "error", err)
			a.Memory().MustAdd(core.AssistantMessage(
				fmt.Sprintf("Maximum token limit reached, cannot continue execution: %v", err)))
			a.state = core.StateFinished
			return false, nil
		}
		return false, err
	}

	content := resp.Content
	a.pending = resp.ToolCalls

	a.logger.Info("model response received",
		"agent", a.Name(), "tool_calls", len(a.pending), "has_content", content != "")
	if len(a.pending) > 0 {
		names := make([]string, len(a.pending))
		for i, tc := range a.pending {
			names[i] = tc.Name
		}
		a.logger.Debug("tools selected", "agent", a.Name(), "tools", names)
		progress.Stepf(a.sink, "Selected tools: %s", strings.Join(names, ", "))
	}

	if a.toolChoice == model.ToolChoiceNone {
		if len(a.pending) > 0 {
			a.logger.Warn("model emitted tool calls while tool use is disabled", "agent", a.Name())
			a.pending = nil
		}
		if content != "" {
			a.Memory().MustAdd(core.AssistantMessage(content))
			return true, nil
		}
		return false, nil
	}

	if len(a.pending) > 0 {
		a.Memory().MustAdd(core.AssistantToolCallMessage(content, a.pending))
	} else {
		a.Memory().MustAdd(core.AssistantMessage(content))
	}

	switch {
	case a.toolChoice == model.ToolChoiceRequired:
		// A missing tool call in required mode fails in act, not here.
		return true, nil
	case len(a.pending) == 0:
		return content != "", nil
	default:
		return true, nil
	}
}

// act executes the pending invocations in emission order, appending one tool
// message per invocation. Per-invocation failures become textual "Error: ..."
// observations and never abort the remaining invocations.
func (a *ToolCallAgent) act(ctx context.Context) (string, error) {
	if len(a.pending) == 0 {
		if a.toolChoice == model.ToolChoiceRequired {
			return "", ErrToolCallRequired
		}
		last, ok := a.Memory().Last()
		if !ok || last.Content == "" {
			return "No content or commands to execute", nil
		}
		return last.Content, nil
	}

	results := make([]string, 0, len(a.pending))
	for i, call := range a.pending {
		progress.Stepf(a.sink, "Executing tool %d/%d: %s", i+1, len(a.pending), call.Name)

		observation, image := a.executeTool(ctx, call)
		observation = truncateObservation(observation, a.maxObserve)

		a.logger.Info("tool completed", "agent", a.Name(), "tool", call.Name)
		a.Memory().MustAdd(core.ToolMessage(observation, call.ID, call.Name, image))
		results = append(results, observation)
	}
	return strings.Join(results, "\n\n"), nil
}

// executeTool runs a single invocation and formats its observation. All
// failure modes are absorbed into the observation text.
func (a *ToolCallAgent) executeTool(ctx context.Context, call core.ToolCall) (string, string) {
	if call.Name == "" {
		return "Error: Invalid command format", ""
	}

	result, err := a.registry.Execute(ctx, call.Name, call.Arguments)
	if err != nil {
		var toolErr *tool.ToolError
		if errors.As(err, &toolErr) {
			switch toolErr.Code {
			case tool.CodeUnknownTool:
				return fmt.Sprintf("Error: Unknown tool '%s'", call.Name), ""
			case tool.CodeValidation:
				return fmt.Sprintf("Error: Invalid arguments for %s: %s", call.Name, toolErr.Message), ""
			}
		}
		a.logger.Error("tool execution failed", "agent", a.Name(), "tool", call.Name, "error", err)
		return fmt.Sprintf("Error: Tool '%s' encountered a problem: %v", call.Name, err), ""
	}

	if a.special[strings.ToLower(call.Name)] {
		a.logger.Info("special tool finished the run", "agent", a.Name(), "tool", call.Name)
		a.state = core.StateFinished
	}

	output := result.String()
	if output == "" {
		return fmt.Sprintf("Cmd `%s` completed with no output", call.Name), result.Base64Image
	}
	return fmt.Sprintf("Observed output of cmd `%s` executed:\n%s", call.Name, output), result.Base64Image
}

// truncateObservation caps an observation at limit characters. It cuts on
// rune boundaries so the truncated text stays valid UTF-8.
func truncateObservation(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
