// Package anthropic provides a model adapter for the Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/stride-agent/stride/core"
	"github.com/stride-agent/stride/model"
)

// Options configures the Anthropic model adapter (model id, temperature,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Model wraps the Anthropic Messages API behind the model.Model interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

// NewModel creates a new Anthropic model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Ask implements model.Model for plain text completion.
func (m *Model) Ask(ctx context.Context, messages []core.Message) (string, error) {
	resp, err := m.call(ctx, messages, nil, nil, model.ToolChoiceNone)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// AskWithTools implements model.Model for tool-enabled completion.
func (m *Model) AskWithTools(
	ctx context.Context,
	messages []core.Message,
	systemMsgs []core.Message,
	tools []model.ToolDefinition,
	toolChoice model.ToolChoice,
) (*model.Response, error) {
	return m.call(ctx, messages, systemMsgs, tools, toolChoice)
}

func (m *Model) call(
	ctx context.Context,
	messages []core.Message,
	systemMsgs []core.Message,
	tools []model.ToolDefinition,
	toolChoice model.ToolChoice,
) (*model.Response, error) {
	params := anthropic.MessageNewParams{
		Model:       m.opts.Model,
		Messages:    buildMessages(messages),
		MaxTokens:   m.opts.MaxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
	}

	if system := buildSystem(messages, systemMsgs); len(system) > 0 {
		params.System = system
	}

	// ToolChoiceNone is expressed by not declaring any tools; Required maps
	// to the API's "any" choice.
	if len(tools) > 0 && toolChoice != model.ToolChoiceNone {
		params.Tools = buildTools(tools)
		if toolChoice == model.ToolChoiceRequired {
			params.ToolChoice = anthropic.ToolChoiceUnionParam{
				OfAny: &anthropic.ToolChoiceAnyParam{},
			}
		}
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		if isContextOverflow(err) {
			return nil, &model.TokenBudgetError{Model: string(m.opts.Model), Detail: err.Error()}
		}
		return nil, err
	}

	out := &model.Response{}
	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.AsText().Text)
		case "tool_use":
			tu := block.AsToolUse()
			args := "{}"
			if tu.Input != nil {
				if raw, err := json.Marshal(tu.Input); err == nil {
					args = string(raw)
				}
			}
			out.ToolCalls = append(out.ToolCalls, core.ToolCall{
				ID:        tu.ID,
				Name:      tu.Name,
				Arguments: args,
			})
		}
	}
	out.Content = text.String()
	return out, nil
}

// buildMessages converts conversation messages into Anthropic message params.
// Tool observations become tool_result blocks inside a user message that
// immediately follows the assistant message declaring the invocation, which
// is the ordering the API enforces.
func buildMessages(messages []core.Message) []anthropic.MessageParam {
	toolResults := map[string]core.Message{}
	for _, msg := range messages {
		if msg.Role == core.RoleTool && msg.ToolCallID != "" {
			if _, seen := toolResults[msg.ToolCallID]; !seen {
				toolResults[msg.ToolCallID] = msg
			}
		}
	}

	var out []anthropic.MessageParam
	for _, msg := range messages {
		switch msg.Role {
		case core.RoleSystem, core.RoleTool:
			// System handled separately; tool results attached below.
		case core.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				var input any
				if tc.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Arguments), &input); err != nil {
						input = tc.Arguments
					}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			}
			if len(msg.ToolCalls) > 0 {
				var results []anthropic.ContentBlockParamUnion
				for _, tc := range msg.ToolCalls {
					if res, ok := toolResults[tc.ID]; ok {
						results = append(results, anthropic.NewToolResultBlock(tc.ID, res.Content, false))
					}
				}
				if len(results) > 0 {
					out = append(out, anthropic.NewUserMessage(results...))
				}
			}
		default: // user and any future roles degrade to user text
			if msg.Content != "" {
				out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
			}
		}
	}
	return out
}

func buildSystem(messages, systemMsgs []core.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	for _, msg := range systemMsgs {
		if msg.Content != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: msg.Content})
		}
	}
	for _, msg := range messages {
		if msg.Role == core.RoleSystem && msg.Content != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: msg.Content})
		}
	}
	return blocks
}

func buildTools(tools []model.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{}
		if t.Function.Parameters != nil {
			if properties, ok := t.Function.Parameters["properties"]; ok {
				inputSchema.Properties = properties
			}
			if required, ok := t.Function.Parameters["required"]; ok {
				inputSchema.Required = toStringSlice(required)
			}
		}
		out[i] = anthropic.ToolUnionParamOfTool(inputSchema, t.Function.Name)
	}
	return out
}

func toStringSlice(v any) []string {
	switch req := v.(type) {
	case []string:
		return req
	case []any:
		var out []string
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// isContextOverflow recognizes the API failure mode for conversations that
// exceed the model's context window.
func isContextOverflow(err error) bool {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) && apierr.StatusCode != 400 {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "prompt is too long") ||
		strings.Contains(msg, "exceed context limit") ||
		strings.Contains(msg, "too many total tokens")
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          string(m.opts.Model),
		Provider:      "anthropic",
		SupportsTools: true,
	}
}
