package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/eazylee337/justbuilt/internal/timeline"
	"github.com/mark3labs/mcp-go/mcp"
)

// NavigateTool handles the timeline_navigate MCP tool.
type NavigateTool struct {
	timelines Timelines
}

// NewNavigateTool creates a NavigateTool.
func NewNavigateTool(timelines Timelines) *NavigateTool {
	return &NavigateTool{timelines: timelines}
}

// Definition returns the MCP tool definition for timeline_navigate.
func (t *NavigateTool) Definition() mcp.Tool {
	return mcp.NewTool("timeline_navigate",
		mcp.WithDescription(
			"Move the cursor to a node or to the newest node of a branch. Give node_id or branch_id. "+
				"With node_id the active branch is kept when it lists the node, otherwise the branch "+
				"the node was created on becomes active. With branch_id that branch becomes active, "+
				"which is how to return to a fork that has no nodes of its own yet. "+
				"Nothing is deleted; later timeline_add_node calls fork from here.",
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project identifier"),
		),
		mcp.WithString("node_id",
			mcp.Description("Target node ID (from timeline_path or timeline_graph)"),
		),
		mcp.WithString("branch_id",
			mcp.Description("Target branch ID (from timeline_graph); the cursor moves to its newest node"),
		),
	)
}

// Handle processes the timeline_navigate tool call.
func (t *NavigateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, errRes := requireString(req, "project_id")
	if errRes != nil {
		return errRes, nil
	}
	nodeID := strings.TrimSpace(req.GetString("node_id", ""))
	branchID := strings.TrimSpace(req.GetString("branch_id", ""))

	var (
		n   timeline.Node
		err error
	)
	switch {
	case nodeID != "" && branchID != "":
		return mcp.NewToolResultError("give either 'node_id' or 'branch_id', not both"), nil
	case nodeID != "":
		n, err = t.timelines.NavigateToNode(projectID, timeline.NodeID(nodeID))
	case branchID != "":
		n, err = t.timelines.NavigateToBranch(projectID, timeline.BranchID(branchID))
	default:
		return mcp.NewToolResultError("'node_id' or 'branch_id' is required"), nil
	}
	if err != nil {
		return domainError("navigate", err)
	}
	return mcp.NewToolResultText("Cursor moved to " + nodeDetail(n)), nil
}

// ─── CheckpointTool ─────────────────────────────────────────────────────────

// CheckpointTool handles the timeline_checkpoint MCP tool.
type CheckpointTool struct {
	timelines Timelines
}

// NewCheckpointTool creates a CheckpointTool.
func NewCheckpointTool(timelines Timelines) *CheckpointTool {
	return &CheckpointTool{timelines: timelines}
}

// Definition returns the MCP tool definition for timeline_checkpoint.
func (t *CheckpointTool) Definition() mcp.Tool {
	return mcp.NewTool("timeline_checkpoint",
		mcp.WithDescription(
			"Bookmark the current node under a name. Reusing a name moves the bookmark. "+
				"Checkpoints are also created automatically after long gaps between events.",
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project identifier"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Checkpoint name (e.g. 'tests-green')"),
		),
	)
}

// Handle processes the timeline_checkpoint tool call.
func (t *CheckpointTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, errRes := requireString(req, "project_id")
	if errRes != nil {
		return errRes, nil
	}
	name, errRes := requireString(req, "name")
	if errRes != nil {
		return errRes, nil
	}

	n, err := t.timelines.CreateCheckpoint(projectID, name)
	if err != nil {
		return domainError("create checkpoint", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Checkpoint %q -> node %s (step %d: %s)", name, n.ID, n.StepNumber, n.Title)), nil
}

// ─── RestoreCheckpointTool ──────────────────────────────────────────────────

// RestoreCheckpointTool handles the timeline_restore_checkpoint MCP tool.
type RestoreCheckpointTool struct {
	timelines Timelines
}

// NewRestoreCheckpointTool creates a RestoreCheckpointTool.
func NewRestoreCheckpointTool(timelines Timelines) *RestoreCheckpointTool {
	return &RestoreCheckpointTool{timelines: timelines}
}

// Definition returns the MCP tool definition for timeline_restore_checkpoint.
func (t *RestoreCheckpointTool) Definition() mcp.Tool {
	return mcp.NewTool("timeline_restore_checkpoint",
		mcp.WithDescription("Move the cursor back to a named checkpoint (e.g. 'initial')."),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project identifier"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Checkpoint name"),
		),
	)
}

// Handle processes the timeline_restore_checkpoint tool call.
func (t *RestoreCheckpointTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, errRes := requireString(req, "project_id")
	if errRes != nil {
		return errRes, nil
	}
	name, errRes := requireString(req, "name")
	if errRes != nil {
		return errRes, nil
	}

	n, err := t.timelines.NavigateToCheckpoint(projectID, name)
	if err != nil {
		return domainError("restore checkpoint", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Restored checkpoint %q\n\n", name)
	b.WriteString(nodeDetail(n))
	return mcp.NewToolResultText(b.String()), nil
}
