// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations
// and injects them into the tools/prompts/resources that depend on abstractions.
// No business logic lives here, only wiring.
package server

import (
	"fmt"

	"github.com/eazylee337/justbuilt/internal/config"
	"github.com/eazylee337/justbuilt/internal/prompts"
	"github.com/eazylee337/justbuilt/internal/resources"
	"github.com/eazylee337/justbuilt/internal/snapshots"
	"github.com/eazylee337/justbuilt/internal/tools"
	"github.com/eazylee337/justbuilt/internal/workspace"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Name is the MCP server name advertised to clients.
const Name = "justbuilt"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the snapshot store and must be
// called on shutdown (typically via defer). It is always non-nil.
func New(cfg config.Config, logger *zap.Logger) (*server.MCPServer, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// --- Create shared dependencies ---

	store, err := snapshots.Open(cfg.Storage, cfg.DataDir)
	if err != nil {
		return nil, noop, fmt.Errorf("opening snapshot store: %w", err)
	}

	ws := workspace.New(store, cfg.TimelineOptions(logger), logger)
	cleanup := func() {
		if err := ws.Close(); err != nil {
			logger.Warn("closing snapshot store", zap.Error(err))
		}
	}

	logger.Info("timeline store ready",
		zap.String("backend", cfg.Storage),
		zap.String("data_dir", cfg.DataDir),
	)

	// --- Create MCP server ---

	s := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	registerTools(s, ws)

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(ws)
	s.AddResource(resourceHandler.ProjectsResource(), resourceHandler.HandleProjects)
	s.AddResourceTemplate(resourceHandler.GraphTemplate(), resourceHandler.HandleGraph)

	return s, cleanup, nil
}

// noop is a no-op cleanup function returned when setup fails before
// anything needs closing.
func noop() {}

// registerTools registers all timeline MCP tools with the server.
func registerTools(s *server.MCPServer, tl tools.Timelines) {
	// --- Lifecycle ---
	create := tools.NewCreateTool(tl)
	s.AddTool(create.Definition(), create.Handle)

	discard := tools.NewDiscardTool(tl)
	s.AddTool(discard.Definition(), discard.Handle)

	list := tools.NewListTool(tl)
	s.AddTool(list.Definition(), list.Handle)

	// --- Recording ---
	addNode := tools.NewAddNodeTool(tl)
	s.AddTool(addNode.Definition(), addNode.Handle)

	branch := tools.NewBranchTool(tl)
	s.AddTool(branch.Definition(), branch.Handle)

	// --- Navigation ---
	navigate := tools.NewNavigateTool(tl)
	s.AddTool(navigate.Definition(), navigate.Handle)

	checkpoint := tools.NewCheckpointTool(tl)
	s.AddTool(checkpoint.Definition(), checkpoint.Handle)

	restore := tools.NewRestoreCheckpointTool(tl)
	s.AddTool(restore.Definition(), restore.Handle)

	// --- Queries ---
	path := tools.NewPathTool(tl)
	s.AddTool(path.Definition(), path.Handle)

	alternatives := tools.NewAlternativesTool(tl)
	s.AddTool(alternatives.Definition(), alternatives.Handle)

	between := tools.NewPathBetweenTool(tl)
	s.AddTool(between.Definition(), between.Handle)

	compare := tools.NewCompareTool(tl)
	s.AddTool(compare.Definition(), compare.Handle)

	changes := tools.NewChangesTool(tl)
	s.AddTool(changes.Definition(), changes.Handle)

	graph := tools.NewGraphTool(tl)
	s.AddTool(graph.Definition(), graph.Handle)
}

// serverInstructions returns the system instructions that tell the AI
// how to use the timeline tools effectively.
func serverInstructions() string {
	return `You have access to justbuilt, a development timeline MCP server.

## WHAT IT DOES

justbuilt records how a project was built as a tree of steps. Every plan,
decision, piece of generated code and user edit becomes a node. The active
node is "where we are now". New nodes always attach to the active node.

## WHEN TO RECORD

Call timeline_add_node after every meaningful step:
- plan: you proposed an approach
- decision: the user picked between options
- code: you generated or edited code (put the paths in metadata.files)
- explanation: you explained how something works
- alternative: an option that was considered
- user-edit: the user changed something by hand

Start with timeline_create once per project. Use a stable project_id
(the repository name works well).

## BRANCHES AND CHECKPOINTS

- Before trying a risky alternative, call timeline_branch. The new branch
  starts at the current node, so the original line stays untouched.
- When something works, call timeline_checkpoint with a descriptive name.
- Checkpoints are also created automatically when enough time has passed
  since the last one (names start with "auto-").
- To go back, use timeline_restore_checkpoint or timeline_navigate.
  Going back never deletes anything. The next recorded step simply
  starts a new fork from that point.
- timeline_navigate with branch_id returns to the newest node of a
  branch, including a fork that has no steps of its own yet.

## ANSWERING QUESTIONS ABOUT HISTORY

- "How did we get here?" -> timeline_path
- "What else did we try from here?" -> timeline_alternatives
- "How do we get from A to B?" -> timeline_path_between
- "What changed between A and B?" -> timeline_compare and timeline_changes
- Full picture for visualisation -> timeline_graph or the
  timeline://{project_id}/graph resource

## RULES

- Never invent node ids. Read them from tool output.
- Keep titles short. Put the plan text, diff or code in content.
- If a tool reports that a project is unknown, call timeline_create first.`
}
