package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counterYAML = `
variables:
  count:
    initialValue: 0
attributes:
  label:
    name: concatenate
    arguments: ["n=", {name: string, arguments: [{path: Variables.count}]}]
  broken:
    name: nope
events:
  click:
    - type: setVariable
      variable: count
      data: {name: add, arguments: [{path: Variables.count}, {path: Event.step}]}
    - type: triggerEvent
      event: changed
      data: {path: Variables.count}
`

func newServer(t *testing.T) *Server {
	t.Helper()
	eng, err := tendril.New("", tendril.WithLoader(memory.NewLoader(map[string]string{
		"counter": counterYAML,
	})))
	require.NoError(t, err)
	_, err = eng.LoadAll(context.Background())
	require.NoError(t, err)
	return NewServer(eng)
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func TestHandleTriggerAndRender(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	args := map[string]any{
		"component":  "counter",
		"event":      "click",
		"session_id": "s1",
		"payload":    `{"step": 4}`,
	}
	resp, err := s.handleTrigger(ctx, callRequest(args), args)
	require.NoError(t, err)
	assert.Equal(t, "completed", resp.Status)
	assert.NotEmpty(t, resp.RunID)
	require.Len(t, resp.Emitted, 1)
	assert.Equal(t, "changed", resp.Emitted[0].Event)
	assert.EqualValues(t, 4, resp.Emitted[0].Payload)

	args = map[string]any{"component": "counter", "session_id": "s1"}
	render, err := s.handleRender(ctx, callRequest(args), args)
	require.NoError(t, err)
	assert.Equal(t, "n=4", render.Attributes["label"])
	assert.Nil(t, render.Attributes["broken"])
	assert.Contains(t, render.Errors["broken"], "nope")
}

func TestHandleTrigger_Errors(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing event", map[string]any{"component": "counter"}},
		{"unknown event", map[string]any{"component": "counter", "event": "nope"}},
		{"unknown component", map[string]any{"component": "ghost", "event": "click"}},
		{"bad payload", map[string]any{"component": "counter", "event": "click", "payload": "{"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.handleTrigger(ctx, callRequest(tt.args), tt.args)
			assert.Error(t, err)
		})
	}
}

func TestHandleEvaluate(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	res, err := s.handleEvaluate(ctx, callRequest(map[string]any{
		"formula":    "{name: uppercase, arguments: [{path: Attributes.who}]}",
		"attributes": map[string]any{"who": "ada"},
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, `"ADA"`, textOf(t, res))

	res, err = s.handleEvaluate(ctx, callRequest(map[string]any{"formula": "{type: macro}"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleEvaluate(ctx, callRequest(map[string]any{
		"formula": "{name: add, arguments: [1, 2]}",
		"data":    "[1]",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError, "data must be an object")
}
