package tools

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/eazylee337/justbuilt/internal/timeline"
	"github.com/mark3labs/mcp-go/mcp"
)

// GraphTool handles the timeline_graph MCP tool.
type GraphTool struct {
	timelines Timelines
}

// NewGraphTool creates a GraphTool.
func NewGraphTool(timelines Timelines) *GraphTool {
	return &GraphTool{timelines: timelines}
}

// Definition returns the MCP tool definition for timeline_graph.
func (t *GraphTool) Definition() mcp.Tool {
	return mcp.NewTool("timeline_graph",
		mcp.WithDescription(
			"Return the whole timeline as JSON for rendering: labelled nodes, parent->child edges, "+
				"and branches with their active flag.",
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project identifier"),
		),
	)
}

// Handle processes the timeline_graph tool call.
func (t *GraphTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, errRes := requireString(req, "project_id")
	if errRes != nil {
		return errRes, nil
	}

	var g timeline.GraphView
	err := t.timelines.View(projectID, func(tl *timeline.Timeline) error {
		g = tl.Graph()
		return nil
	})
	if err != nil {
		return domainError("graph", err)
	}

	data, err := sonic.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding graph: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
