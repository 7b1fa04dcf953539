package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/eazylee337/justbuilt/internal/timeline"
	"github.com/mark3labs/mcp-go/mcp"
)

// AddNodeTool handles the timeline_add_node MCP tool.
type AddNodeTool struct {
	timelines Timelines
}

// NewAddNodeTool creates an AddNodeTool.
func NewAddNodeTool(timelines Timelines) *AddNodeTool {
	return &AddNodeTool{timelines: timelines}
}

// Definition returns the MCP tool definition for timeline_add_node.
func (t *AddNodeTool) Definition() mcp.Tool {
	return mcp.NewTool("timeline_add_node",
		mcp.WithDescription(
			"Record an authoring event as a child of the current node on the active branch, and move "+
				"the cursor to it. Call after every meaningful step: a plan, a decision, generated code, "+
				"an explanation, an alternative considered, or a user edit.",
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project identifier"),
		),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("Event kind"),
			mcp.Enum(timeline.KindValues()...),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short title (max 200 chars)"),
		),
		mcp.WithString("description",
			mcp.Description("Longer description of the event"),
		),
		mcp.WithString("content",
			mcp.Description("Payload: code, plan text, diff, etc."),
		),
		mcp.WithObject("metadata",
			mcp.Description("Free-form key/value metadata (e.g. model, files touched)"),
		),
	)
}

// Handle processes the timeline_add_node tool call.
func (t *AddNodeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, errRes := requireString(req, "project_id")
	if errRes != nil {
		return errRes, nil
	}
	kind, errRes := requireString(req, "kind")
	if errRes != nil {
		return errRes, nil
	}
	title, errRes := requireString(req, "title")
	if errRes != nil {
		return errRes, nil
	}

	n, err := t.timelines.AddNode(projectID, timeline.NodeInput{
		Kind:        timeline.NodeKind(kind),
		Title:       title,
		Description: req.GetString("description", ""),
		Content:     req.GetString("content", ""),
		Metadata:    objectArg(req, "metadata"),
	})
	if err != nil {
		return domainError("add node", err)
	}

	var b strings.Builder
	b.WriteString("Recorded ")
	b.WriteString(nodeDetail(n))
	return mcp.NewToolResultText(b.String()), nil
}

// ─── BranchTool ─────────────────────────────────────────────────────────────

// BranchTool handles the timeline_branch MCP tool.
type BranchTool struct {
	timelines Timelines
}

// NewBranchTool creates a BranchTool.
func NewBranchTool(timelines Timelines) *BranchTool {
	return &BranchTool{timelines: timelines}
}

// Definition returns the MCP tool definition for timeline_branch.
func (t *BranchTool) Definition() mcp.Tool {
	return mcp.NewTool("timeline_branch",
		mcp.WithDescription(
			fmt.Sprintf("Fork a new branch at the current node to explore an alternative. The new branch "+
				"becomes active; the next timeline_add_node continues from the fork point. "+
				"A project holds at most %d branches by default, main included.", timeline.DefaultMaxBranches),
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project identifier"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Branch name (e.g. 'try-websockets')"),
		),
		mcp.WithString("description",
			mcp.Description("What this branch explores"),
		),
	)
}

// Handle processes the timeline_branch tool call.
func (t *BranchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, errRes := requireString(req, "project_id")
	if errRes != nil {
		return errRes, nil
	}
	name, errRes := requireString(req, "name")
	if errRes != nil {
		return errRes, nil
	}

	br, err := t.timelines.CreateBranch(projectID, name, req.GetString("description", ""))
	if err != nil {
		return domainError("create branch", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Branch %q created (id: %s)\n", br.Name, br.ID)
	fmt.Fprintf(&b, "Forked from branch %s at node %s\n", br.ParentBranch, br.BranchPoint)
	b.WriteString("The new branch is now active.")
	return mcp.NewToolResultText(b.String()), nil
}
