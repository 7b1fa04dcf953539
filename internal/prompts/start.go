// Package prompts implements MCP prompt handlers for development timelines.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/eazylee337/justbuilt/internal/timeline"
	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the timeline-start MCP prompt.
// It guides the AI to create a timeline and record work as it happens.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("timeline-start",
		mcp.WithPromptDescription(
			"Start recording a development timeline for a project. "+
				"Every plan, decision and code change is captured so you can go back, "+
				"branch, and compare later.",
		),
		mcp.WithArgument("project_id",
			mcp.ArgumentDescription("Project identifier (default: my-project)"),
		),
		mcp.WithArgument("description",
			mcp.ArgumentDescription("What you are building"),
		),
	)
}

// Handle processes the timeline-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	projectID := argOr(req, "project_id", "my-project")
	description := argOr(req, "description", "")

	descLine := ""
	if description != "" {
		descLine = fmt.Sprintf(" with description %q", description)
	}

	return &mcp.GetPromptResult{
		Description: "Start a development timeline",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Call `timeline_create` for project %q%s.\n\n"+
						"From now on, after every meaningful step call `timeline_add_node` with one of these kinds: %v.\n"+
						"- Before trying a risky alternative, call `timeline_branch` so the current line stays intact\n"+
						"- When something works, call `timeline_checkpoint` with a descriptive name\n"+
						"- If I ask to go back, use `timeline_restore_checkpoint` or `timeline_navigate`\n"+
						"- Use `timeline_path` whenever you need to recall how we got here",
					projectID, descLine, timeline.KindValues(),
				)),
			},
		},
	}, nil
}

func argOr(req mcp.GetPromptRequest, key, fallback string) string {
	if args := req.Params.Arguments; args != nil {
		if v, ok := args[key]; ok && v != "" {
			return v
		}
	}
	return fallback
}
