package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the timeline-status MCP prompt.
// It instructs the AI to read and present the current state of a timeline.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("timeline-status",
		mcp.WithPromptDescription(
			"Show where a project's development timeline stands: "+
				"current path, active branch, checkpoints, and open alternatives.",
		),
		mcp.WithArgument("project_id",
			mcp.ArgumentDescription("Project identifier"),
			mcp.RequiredArgument(),
		),
	)
}

// Handle processes the timeline-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	projectID := argOr(req, "project_id", "")
	if projectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}

	return &mcp.GetPromptResult{
		Description: "Development timeline status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Please run `timeline_path` for project %q.\n\n"+
						"Then:\n"+
						"1. Summarize the current path in a few lines, oldest step first\n"+
						"2. Name the active branch and list the checkpoints\n"+
						"3. Run `timeline_alternatives` on the current node and mention any unexplored forks\n"+
						"4. Suggest what to record or try next",
					projectID,
				)),
			},
		},
	}, nil
}
