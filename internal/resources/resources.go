// Package resources implements MCP resource handlers for development timelines.
//
// Resources provide read-only data that the host can consume for rendering.
// They use URI-based addressing (timeline://...) following MCP conventions.
package resources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/eazylee337/justbuilt/internal/snapshots"
	"github.com/eazylee337/justbuilt/internal/timeline"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	// ProjectsURI lists every stored timeline.
	ProjectsURI = "timeline://projects"
	// GraphURITemplate addresses one project's graph projection.
	GraphURITemplate = "timeline://{project_id}/graph"
)

// Source is the read side of the workspace.
type Source interface {
	View(projectID string, fn func(*timeline.Timeline) error) error
	Projects() ([]snapshots.Summary, error)
}

// Handler manages timeline resource endpoints.
type Handler struct {
	source Source
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(source Source) *Handler {
	return &Handler{source: source}
}

// ProjectsResource returns the MCP resource definition for the project list.
func (h *Handler) ProjectsResource() mcp.Resource {
	return mcp.NewResource(
		ProjectsURI,
		"Timelines",
		mcp.WithResourceDescription("Every project with a stored timeline, with node and branch counts"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleProjects returns the project summaries as JSON.
func (h *Handler) HandleProjects(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	list, err := h.source.Projects()
	if err != nil {
		return nil, fmt.Errorf("listing timelines: %w", err)
	}
	return jsonResource(req.Params.URI, list)
}

// GraphTemplate returns the MCP resource template for a project's graph.
func (h *Handler) GraphTemplate() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(
		GraphURITemplate,
		"Timeline graph",
		mcp.WithTemplateDescription("Nodes, parent->child edges and branches of one project's timeline, for rendering"),
		mcp.WithTemplateMIMEType("application/json"),
	)
}

// HandleGraph returns the graph projection of the project named in the URI.
// The server matches the URI against GraphURITemplate and passes the decoded
// project_id in the request arguments.
func (h *Handler) HandleGraph(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	projectID := templateArg(req, "project_id")
	if projectID == "" {
		return errorResource(req.Params.URI, "missing project_id"), nil
	}

	var g timeline.GraphView
	err := h.source.View(projectID, func(tl *timeline.Timeline) error {
		g = tl.Graph()
		return nil
	})
	if errors.Is(err, timeline.ErrNotFound) {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading graph for %q: %w", projectID, err)
	}
	return jsonResource(req.Params.URI, g)
}

// templateArg returns a URI template variable. Matched variables arrive as
// []string; a plain string is accepted too.
func templateArg(req mcp.ReadResourceRequest, name string) string {
	switch v := req.Params.Arguments[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case []string:
		if len(v) == 1 {
			return strings.TrimSpace(v[0])
		}
	}
	return ""
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
