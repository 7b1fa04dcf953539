// Package tools implements MCP tool handlers for development timelines.
//
// Each tool receives its dependencies via its struct (DIP) and exposes:
// - Definition() returning the mcp.Tool schema
// - Handle() processing the request and returning a result
//
// Domain failures (unknown node, branch cap reached, bad input) come back as
// tool error results the agent can act on. Only infrastructure failures are
// returned as Go errors.
package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/eazylee337/justbuilt/internal/snapshots"
	"github.com/eazylee337/justbuilt/internal/timeline"
	"github.com/mark3labs/mcp-go/mcp"
)

// Timelines is the workspace surface the tools depend on.
type Timelines interface {
	Create(projectID, description string) (timeline.Node, error)
	Discard(projectID string) error
	Projects() ([]snapshots.Summary, error)

	AddNode(projectID string, in timeline.NodeInput) (timeline.Node, error)
	NavigateToNode(projectID string, id timeline.NodeID) (timeline.Node, error)
	NavigateToBranch(projectID string, id timeline.BranchID) (timeline.Node, error)
	CreateBranch(projectID, name, description string) (timeline.Branch, error)
	CreateCheckpoint(projectID, name string) (timeline.Node, error)
	NavigateToCheckpoint(projectID, name string) (timeline.Node, error)

	View(projectID string, fn func(*timeline.Timeline) error) error
	CurrentPath(projectID string) ([]timeline.Node, error)
}

// requireString returns the named argument, or a tool error result if it is
// missing or blank.
func requireString(req mcp.CallToolRequest, key string) (string, *mcp.CallToolResult) {
	v := strings.TrimSpace(req.GetString(key, ""))
	if v == "" {
		return "", mcp.NewToolResultError(fmt.Sprintf("'%s' is required", key))
	}
	return v, nil
}

// objectArg extracts a JSON object argument.
func objectArg(req mcp.CallToolRequest, key string) map[string]any {
	v, ok := req.GetArguments()[key].(map[string]any)
	if !ok {
		return nil
	}
	return v
}

// domainError turns a domain failure into a tool error result. Anything else
// (invariant violations, storage failures) is returned as a Go error.
func domainError(action string, err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, timeline.ErrInvariant):
		return nil, fmt.Errorf("%s: %w", action, err)
	case errors.Is(err, timeline.ErrNotFound),
		errors.Is(err, timeline.ErrAlreadyExists),
		errors.Is(err, timeline.ErrLimitExceeded),
		errors.Is(err, timeline.ErrInvalidInput):
		return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", action, err)), nil
	default:
		return nil, fmt.Errorf("%s: %w", action, err)
	}
}

// ─── Formatting ──────────────────────────────────────────────────────────────

func formatNode(b *strings.Builder, n timeline.Node) {
	fmt.Fprintf(b, "- [step %d] %s: %s (id: %s, branch: %s)\n", n.StepNumber, n.Kind, n.Title, n.ID, n.Branch)
}

func formatPath(b *strings.Builder, path []timeline.Node) {
	if len(path) == 0 {
		b.WriteString("(empty)\n")
		return
	}
	for _, n := range path {
		formatNode(b, n)
	}
}

func nodeDetail(n timeline.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Node %s\n", n.ID)
	fmt.Fprintf(&b, "Step: %d\nKind: %s\nTitle: %s\nBranch: %s\n", n.StepNumber, n.Kind, n.Title, n.Branch)
	fmt.Fprintf(&b, "Timestamp: %s\n", n.Timestamp.UTC().Format("2006-01-02 15:04:05"))
	if n.HasParent() {
		fmt.Fprintf(&b, "Parent: %s\n", n.Parent)
	}
	if n.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", n.Description)
	}
	return b.String()
}
