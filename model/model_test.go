package model

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stride-agent/stride/core"
)

func TestIsTokenBudgetDetectsWrappedErrors(t *testing.T) {
	base := &TokenBudgetError{Model: "m", Detail: "prompt is too long"}
	assert.True(t, IsTokenBudget(base))

	wrapped := fmt.Errorf("retry exhausted: %w", base)
	assert.True(t, IsTokenBudget(wrapped))

	doubly := fmt.Errorf("delegate: %w", wrapped)
	assert.True(t, IsTokenBudget(doubly))

	assert.False(t, IsTokenBudget(errors.New("prompt is too long")))
	assert.False(t, IsTokenBudget(nil))
}

func TestTokenBudgetErrorMessage(t *testing.T) {
	assert.Equal(t, "token budget exceeded for model m", (&TokenBudgetError{Model: "m"}).Error())
	assert.Contains(t, (&TokenBudgetError{Model: "m", Detail: "d"}).Error(), "d")
}

func TestNewToolCallGeneratesUniqueIDs(t *testing.T) {
	a := NewToolCall("echo", `{}`)
	b := NewToolCall("echo", `{}`)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Contains(t, a.ID, "call_")
	assert.Equal(t, "echo", a.Name)
}

func TestMockModelScriptedResponses(t *testing.T) {
	m := NewMockModel("test")
	m.QueueResponse(&Response{Content: "first"})
	m.QueueError(&TokenBudgetError{Model: "test"})

	resp, err := m.AskWithTools(context.Background(), nil, nil, nil, ToolChoiceAuto)
	assert.NoError(t, err)
	assert.Equal(t, "first", resp.Content)

	_, err = m.AskWithTools(context.Background(), nil, nil, nil, ToolChoiceAuto)
	assert.True(t, IsTokenBudget(err))
	assert.Equal(t, 2, m.Calls())
}

func TestMockModelAsk(t *testing.T) {
	m := NewMockModel("test")
	m.AddResponse("ping", "pong")

	out, err := m.Ask(context.Background(), []core.Message{core.UserMessage("ping")})
	assert.NoError(t, err)
	assert.Equal(t, "pong", out)

	m.QueueAsk("scripted")
	out, err = m.Ask(context.Background(), []core.Message{core.UserMessage("anything")})
	assert.NoError(t, err)
	assert.Equal(t, "scripted", out)
}
