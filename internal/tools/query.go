package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/eazylee337/justbuilt/internal/timeline"
	"github.com/mark3labs/mcp-go/mcp"
)

// PathTool handles the timeline_path MCP tool.
type PathTool struct {
	timelines Timelines
}

// NewPathTool creates a PathTool.
func NewPathTool(timelines Timelines) *PathTool {
	return &PathTool{timelines: timelines}
}

// Definition returns the MCP tool definition for timeline_path.
func (t *PathTool) Definition() mcp.Tool {
	return mcp.NewTool("timeline_path",
		mcp.WithDescription(
			"Show the history that led to the current node: root first, current node last. "+
				"Also lists the active branch and checkpoints. Pass node_id for the history of "+
				"another node instead. An unknown project has an empty path.",
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project identifier"),
		),
		mcp.WithString("node_id",
			mcp.Description("Node whose history to show (default: current node)"),
		),
	)
}

// Handle processes the timeline_path tool call.
func (t *PathTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, errRes := requireString(req, "project_id")
	if errRes != nil {
		return errRes, nil
	}
	if nodeID := strings.TrimSpace(req.GetString("node_id", "")); nodeID != "" {
		return t.pathTo(projectID, timeline.NodeID(nodeID))
	}

	path, err := t.timelines.CurrentPath(projectID)
	if err != nil {
		return nil, fmt.Errorf("current path: %w", err)
	}
	if len(path) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Project: %s\nNo timeline recorded yet.\n\nCurrent path (0 steps):\n(empty)\n", projectID)), nil
	}

	var b strings.Builder
	err = t.timelines.View(projectID, func(tl *timeline.Timeline) error {
		active := tl.ActiveBranch()
		fmt.Fprintf(&b, "Project: %s\nActive branch: %s (%s)\n\n", tl.ProjectID(), active.Name, active.ID)
		fmt.Fprintf(&b, "Current path (%d steps):\n", len(path))
		formatPath(&b, path)

		cps := tl.Checkpoints()
		fmt.Fprintf(&b, "\nCheckpoints (%d):\n", len(cps))
		for _, cp := range cps {
			fmt.Fprintf(&b, "- %s -> %s\n", cp.Name, cp.NodeID)
		}
		return nil
	})
	if err != nil {
		return domainError("current path", err)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (t *PathTool) pathTo(projectID string, id timeline.NodeID) (*mcp.CallToolResult, error) {
	var b strings.Builder
	err := t.timelines.View(projectID, func(tl *timeline.Timeline) error {
		path, err := tl.PathTo(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "Project: %s\n\nPath to %s (%d steps):\n", tl.ProjectID(), id, len(path))
		formatPath(&b, path)
		return nil
	})
	if err != nil {
		return domainError("path to node", err)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── AlternativesTool ───────────────────────────────────────────────────────

// AlternativesTool handles the timeline_alternatives MCP tool.
type AlternativesTool struct {
	timelines Timelines
}

// NewAlternativesTool creates an AlternativesTool.
func NewAlternativesTool(timelines Timelines) *AlternativesTool {
	return &AlternativesTool{timelines: timelines}
}

// Definition returns the MCP tool definition for timeline_alternatives.
func (t *AlternativesTool) Definition() mcp.Tool {
	return mcp.NewTool("timeline_alternatives",
		mcp.WithDescription(
			"List the continuations that fork from a node: one path per child, each following the "+
				"earliest child down to a leaf.",
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project identifier"),
		),
		mcp.WithString("node_id",
			mcp.Description("Node to inspect (default: current node)"),
		),
	)
}

// Handle processes the timeline_alternatives tool call.
func (t *AlternativesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, errRes := requireString(req, "project_id")
	if errRes != nil {
		return errRes, nil
	}
	nodeID := timeline.NodeID(strings.TrimSpace(req.GetString("node_id", "")))

	var b strings.Builder
	err := t.timelines.View(projectID, func(tl *timeline.Timeline) error {
		if nodeID == "" {
			nodeID = tl.ActiveNode().ID
		}
		paths, err := tl.AlternativePaths(nodeID)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			fmt.Fprintf(&b, "Node %s has no continuations.", nodeID)
			return nil
		}
		fmt.Fprintf(&b, "Alternatives from %s (%d):\n", nodeID, len(paths))
		for i, p := range paths {
			fmt.Fprintf(&b, "\n### Path %d\n", i+1)
			formatPath(&b, p)
		}
		return nil
	})
	if err != nil {
		return domainError("alternative paths", err)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── PathBetweenTool ────────────────────────────────────────────────────────

// PathBetweenTool handles the timeline_path_between MCP tool.
type PathBetweenTool struct {
	timelines Timelines
}

// NewPathBetweenTool creates a PathBetweenTool.
func NewPathBetweenTool(timelines Timelines) *PathBetweenTool {
	return &PathBetweenTool{timelines: timelines}
}

// Definition returns the MCP tool definition for timeline_path_between.
func (t *PathBetweenTool) Definition() mcp.Tool {
	return mcp.NewTool("timeline_path_between",
		mcp.WithDescription(
			"Find the shortest route between two nodes, moving up to a common ancestor and down again "+
				"when they sit on different branches.",
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project identifier"),
		),
		mcp.WithString("start_node_id",
			mcp.Required(),
			mcp.Description("Start node ID"),
		),
		mcp.WithString("end_node_id",
			mcp.Required(),
			mcp.Description("End node ID"),
		),
	)
}

// Handle processes the timeline_path_between tool call.
func (t *PathBetweenTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, start, end, errRes := endpoints(req)
	if errRes != nil {
		return errRes, nil
	}

	var b strings.Builder
	err := t.timelines.View(projectID, func(tl *timeline.Timeline) error {
		path, err := tl.FindPathBetween(start, end)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "Path from %s to %s (%d nodes):\n", start, end, len(path))
		formatPath(&b, path)
		return nil
	})
	if err != nil {
		return domainError("path between", err)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── CompareTool ────────────────────────────────────────────────────────────

// CompareTool handles the timeline_compare MCP tool.
type CompareTool struct {
	timelines Timelines
}

// NewCompareTool creates a CompareTool.
func NewCompareTool(timelines Timelines) *CompareTool {
	return &CompareTool{timelines: timelines}
}

// Definition returns the MCP tool definition for timeline_compare.
func (t *CompareTool) Definition() mcp.Tool {
	return mcp.NewTool("timeline_compare",
		mcp.WithDescription("Report which fields differ between two nodes (title, kind, content, description) and their step distance."),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project identifier"),
		),
		mcp.WithString("node_a",
			mcp.Required(),
			mcp.Description("First node ID"),
		),
		mcp.WithString("node_b",
			mcp.Required(),
			mcp.Description("Second node ID"),
		),
	)
}

// Handle processes the timeline_compare tool call.
func (t *CompareTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, errRes := requireString(req, "project_id")
	if errRes != nil {
		return errRes, nil
	}
	a, errRes := requireString(req, "node_a")
	if errRes != nil {
		return errRes, nil
	}
	bID, errRes := requireString(req, "node_b")
	if errRes != nil {
		return errRes, nil
	}

	var b strings.Builder
	err := t.timelines.View(projectID, func(tl *timeline.Timeline) error {
		c, err := tl.CompareNodes(timeline.NodeID(a), timeline.NodeID(bID))
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "Comparing %s (step %d) with %s (step %d)\n\n", c.NodeA.ID, c.NodeA.StepNumber, c.NodeB.ID, c.NodeB.StepNumber)
		if c.Identical() {
			b.WriteString("No differences in title, kind, content or description.\n")
		} else {
			writeChange(&b, "Title", c.TitleChanged, c.NodeA.Title, c.NodeB.Title)
			writeChange(&b, "Kind", c.KindChanged, string(c.NodeA.Kind), string(c.NodeB.Kind))
			writeChange(&b, "Description", c.DescriptionChanged, c.NodeA.Description, c.NodeB.Description)
			if c.ContentChanged {
				fmt.Fprintf(&b, "- Content: changed (%d -> %d chars)\n", len(c.NodeA.Content), len(c.NodeB.Content))
			}
		}
		fmt.Fprintf(&b, "Step delta: %+d\n", c.StepDelta)
		return nil
	})
	if err != nil {
		return domainError("compare nodes", err)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func writeChange(b *strings.Builder, field string, changed bool, from, to string) {
	if changed {
		fmt.Fprintf(b, "- %s: %q -> %q\n", field, from, to)
	}
}

// ─── ChangesTool ────────────────────────────────────────────────────────────

// ChangesTool handles the timeline_changes MCP tool.
type ChangesTool struct {
	timelines Timelines
}

// NewChangesTool creates a ChangesTool.
func NewChangesTool(timelines Timelines) *ChangesTool {
	return &ChangesTool{timelines: timelines}
}

// Definition returns the MCP tool definition for timeline_changes.
func (t *ChangesTool) Definition() mcp.Tool {
	return mcp.NewTool("timeline_changes",
		mcp.WithDescription("Summarize the events between two nodes: total count and count per kind."),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project identifier"),
		),
		mcp.WithString("start_node_id",
			mcp.Required(),
			mcp.Description("Start node ID (not counted)"),
		),
		mcp.WithString("end_node_id",
			mcp.Required(),
			mcp.Description("End node ID"),
		),
	)
}

// Handle processes the timeline_changes tool call.
func (t *ChangesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, start, end, errRes := endpoints(req)
	if errRes != nil {
		return errRes, nil
	}

	var b strings.Builder
	err := t.timelines.View(projectID, func(tl *timeline.Timeline) error {
		s, err := tl.ChangesSummary(start, end)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "Changes from %s to %s: %d\n", start, end, s.TotalChanges)
		kinds := make([]string, 0, len(s.ByKind))
		for k := range s.ByKind {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(&b, "- %s: %d\n", k, s.ByKind[timeline.NodeKind(k)])
		}
		return nil
	})
	if err != nil {
		return domainError("changes summary", err)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func endpoints(req mcp.CallToolRequest) (string, timeline.NodeID, timeline.NodeID, *mcp.CallToolResult) {
	projectID, errRes := requireString(req, "project_id")
	if errRes != nil {
		return "", "", "", errRes
	}
	start, errRes := requireString(req, "start_node_id")
	if errRes != nil {
		return "", "", "", errRes
	}
	end, errRes := requireString(req, "end_node_id")
	if errRes != nil {
		return "", "", "", errRes
	}
	return projectID, timeline.NodeID(start), timeline.NodeID(end), nil
}
