package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// CreateTool handles the timeline_create MCP tool.
type CreateTool struct {
	timelines Timelines
}

// NewCreateTool creates a CreateTool.
func NewCreateTool(timelines Timelines) *CreateTool {
	return &CreateTool{timelines: timelines}
}

// Definition returns the MCP tool definition for timeline_create.
func (t *CreateTool) Definition() mcp.Tool {
	return mcp.NewTool("timeline_create",
		mcp.WithDescription(
			"Start a development timeline for a project. Creates the main branch, a root 'plan' node "+
				"and an 'initial' checkpoint. Call once per project before recording events.",
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project identifier (e.g. 'todo-app')"),
		),
		mcp.WithString("description",
			mcp.Description("What the project is about; stored on the root node"),
		),
	)
}

// Handle processes the timeline_create tool call.
func (t *CreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, errRes := requireString(req, "project_id")
	if errRes != nil {
		return errRes, nil
	}

	root, err := t.timelines.Create(projectID, req.GetString("description", ""))
	if err != nil {
		return domainError("create timeline", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Timeline created for %q\n\n", projectID)
	b.WriteString(nodeDetail(root))
	b.WriteString("\nCheckpoint 'initial' points at the root node.")
	return mcp.NewToolResultText(b.String()), nil
}

// ─── DiscardTool ────────────────────────────────────────────────────────────

// DiscardTool handles the timeline_discard MCP tool.
type DiscardTool struct {
	timelines Timelines
}

// NewDiscardTool creates a DiscardTool.
func NewDiscardTool(timelines Timelines) *DiscardTool {
	return &DiscardTool{timelines: timelines}
}

// Definition returns the MCP tool definition for timeline_discard.
func (t *DiscardTool) Definition() mcp.Tool {
	return mcp.NewTool("timeline_discard",
		mcp.WithDescription("Permanently delete a project's timeline, including every branch and checkpoint."),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project whose timeline to delete"),
		),
	)
}

// Handle processes the timeline_discard tool call.
func (t *DiscardTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, errRes := requireString(req, "project_id")
	if errRes != nil {
		return errRes, nil
	}
	if err := t.timelines.Discard(projectID); err != nil {
		return domainError("discard timeline", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Timeline for %q discarded", projectID)), nil
}

// ─── ListTool ───────────────────────────────────────────────────────────────

// ListTool handles the timeline_list MCP tool.
type ListTool struct {
	timelines Timelines
}

// NewListTool creates a ListTool.
func NewListTool(timelines Timelines) *ListTool {
	return &ListTool{timelines: timelines}
}

// Definition returns the MCP tool definition for timeline_list.
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool("timeline_list",
		mcp.WithDescription("List every project with a stored timeline, with node and branch counts."),
	)
}

// Handle processes the timeline_list tool call.
func (t *ListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := t.timelines.Projects()
	if err != nil {
		return nil, fmt.Errorf("listing timelines: %w", err)
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("No timelines yet. Use timeline_create to start one."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Timelines (%d):\n", len(list))
	for _, s := range list {
		fmt.Fprintf(&b, "- %s: %d nodes, %d branches (updated %s)",
			s.ProjectID, s.NodeCount, s.BranchCount, s.UpdatedAt.Format("2006-01-02 15:04"))
		if s.Description != "" {
			fmt.Fprintf(&b, " - %s", s.Description)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}
