package prompts

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func promptReq(args map[string]string) mcp.GetPromptRequest {
	req := mcp.GetPromptRequest{}
	req.Params.Arguments = args
	return req
}

func promptText(t *testing.T, res *mcp.GetPromptResult) string {
	t.Helper()
	require.Len(t, res.Messages, 1)
	assert.Equal(t, mcp.RoleUser, res.Messages[0].Role)
	tc, ok := res.Messages[0].Content.(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestStartPrompt(t *testing.T) {
	p := NewStartPrompt()
	assert.Equal(t, "timeline-start", p.Definition().Name)

	res, err := p.Handle(context.Background(), promptReq(nil))
	require.NoError(t, err)
	text := promptText(t, res)
	assert.Contains(t, text, `"my-project"`)
	assert.Contains(t, text, "user-edit")

	res, err = p.Handle(context.Background(), promptReq(map[string]string{"project_id": "todo", "description": "a todo app"}))
	require.NoError(t, err)
	text = promptText(t, res)
	assert.Contains(t, text, `"todo"`)
	assert.Contains(t, text, `"a todo app"`)
}

func TestStatusPrompt(t *testing.T) {
	p := NewStatusPrompt()
	def := p.Definition()
	assert.Equal(t, "timeline-status", def.Name)
	require.Len(t, def.Arguments, 1)
	assert.True(t, def.Arguments[0].Required)

	res, err := p.Handle(context.Background(), promptReq(map[string]string{"project_id": "P1"}))
	require.NoError(t, err)
	assert.Contains(t, promptText(t, res), "timeline_path")

	_, err = p.Handle(context.Background(), promptReq(nil))
	require.Error(t, err)
}
