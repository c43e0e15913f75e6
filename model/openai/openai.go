// Package openai provides a model adapter for the OpenAI Chat Completions
// API (including function/tool calling). It converts Stride's role-tagged
// conversation into the SDK's message format and back.
package openai

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/stride-agent/stride/core"
	"github.com/stride-agent/stride/model"
)

// Options configure the OpenAI model adapter. Fields mirror a subset of Chat
// Completion parameters intentionally kept minimal; extend via functional
// options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
}

// Model wraps the OpenAI Chat Completions API behind the model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
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
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(messages, systemMsgs),
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}

	if len(tools) > 0 {
		params.Tools = buildTools(tools)
		switch toolChoice {
		case model.ToolChoiceRequired:
			params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
				OfAuto: openai.String("required"),
			}
		case model.ToolChoiceNone:
			params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
				OfAuto: openai.String("none"),
			}
		}
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		if isContextOverflow(err) {
			return nil, &model.TokenBudgetError{Model: m.opts.Model, Detail: err.Error()}
		}
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: no choices returned")
	}

	choice := resp.Choices[0]
	out := &model.Response{Content: choice.Message.Content}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, core.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

// buildMessages converts the conversation into OpenAI chat messages. Extra
// system messages are placed first; tool observations keep their original
// position since the Chat API accepts interleaved tool messages.
func buildMessages(messages, systemMsgs []core.Message) []openai.ChatCompletionMessageParamUnion {
	var out []openai.ChatCompletionMessageParamUnion
	for _, msg := range systemMsgs {
		if msg.Content != "" {
			out = append(out, openai.SystemMessage(msg.Content))
		}
	}
	for _, msg := range messages {
		switch msg.Role {
		case core.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case core.RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case core.RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(msg.Content))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{
				Role:      "assistant",
				ToolCalls: buildToolCalls(msg.ToolCalls),
			}
			if msg.Content != "" {
				assistant.Content.OfString = openai.String(msg.Content)
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case core.RoleTool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		}
	}
	return out
}

func buildToolCalls(calls []core.ToolCall) []openai.ChatCompletionMessageToolCallParam {
	out := make([]openai.ChatCompletionMessageToolCallParam, len(calls))
	for i, tc := range calls {
		out[i] = openai.ChatCompletionMessageToolCallParam{
			ID:   tc.ID,
			Type: "function",
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      tc.Name,
				Arguments: tc.Arguments,
			},
		}
	}
	return out
}

func buildTools(tools []model.ToolDefinition) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, len(tools))
	for i, t := range tools {
		out[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        t.Function.Name,
				Description: openai.String(t.Function.Description),
				Parameters:  t.Function.Parameters,
			},
		}
	}
	return out
}

// isContextOverflow recognizes the API failure mode for conversations that
// exceed the model's context window.
func isContextOverflow(err error) bool {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		if apierr.Code == "context_length_exceeded" {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "context_length_exceeded") ||
		strings.Contains(msg, "maximum context length")
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}
