package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/eazylee337/justbuilt/internal/config"
	"github.com/eazylee337/justbuilt/internal/logging"
	jbserver "github.com/eazylee337/justbuilt/internal/server"
	"github.com/eazylee337/justbuilt/internal/snapshots"
	"github.com/eazylee337/justbuilt/internal/timeline"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveStdio is a package-level var to allow test injection.
var serveStdio = func(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:   "justbuilt",
		Short: "Development timeline MCP server",
		Long: `justbuilt records how a project was built as a branching timeline.

Plans, decisions, generated code and user edits become nodes. AI coding tools
talk to it over MCP; the other commands read the stored timelines directly.

Examples:
  justbuilt serve                         # Start the MCP server on stdio
  justbuilt projects                      # List stored timelines
  justbuilt inspect my-app                # Branches, checkpoints, current path
  justbuilt export my-app > my-app.json   # Full snapshot as JSON
  justbuilt --config ./justbuilt.toml serve`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "",
		"Config file path (default $JUSTBUILT_CONFIG or ~/.justbuilt/config.toml)")

	load := func() (config.Config, error) {
		return config.Load(cfgPath)
	}

	root.AddCommand(
		newServeCmd(load),
		newProjectsCmd(load),
		newInspectCmd(load),
		newExportCmd(load),
		newConfigCmd(load),
		newVersionCmd(),
	)
	return root
}

type loadFunc func() (config.Config, error)

func newServeCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio transport)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			s, cleanup, err := jbserver.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			logger.Info("serving on stdio", zap.String("version", jbserver.Version))
			return serveStdio(s)
		},
	}
}

func newProjectsCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List stored timelines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(load, func(cfg config.Config, store snapshots.Store) error {
				list, err := store.List()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(list) == 0 {
					fmt.Fprintln(out, "No timelines yet.")
					return nil
				}
				for _, s := range list {
					fmt.Fprintf(out, "%s\t%d nodes\t%d branches\tupdated %s\n",
						s.ProjectID, s.NodeCount, s.BranchCount, s.UpdatedAt.Format("2006-01-02 15:04"))
				}
				return nil
			})
		},
	}
}

func newInspectCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <project>",
		Short: "Print a timeline's branches, checkpoints and current path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(load, func(cfg config.Config, store snapshots.Store) error {
				snap, err := store.Load(args[0])
				if err != nil {
					return err
				}
				tl, err := timeline.Restore(snap, cfg.TimelineOptions(nil))
				if err != nil {
					return fmt.Errorf("restoring %q: %w", args[0], err)
				}
				printTimeline(cmd.OutOrStdout(), tl)
				return nil
			})
		},
	}
}

func newExportCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "export <project>",
		Short: "Write a timeline snapshot as JSON to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(load, func(cfg config.Config, store snapshots.Store) error {
				snap, err := store.Load(args[0])
				if err != nil {
					return err
				}
				data, err := sonic.MarshalIndent(snap, "", "  ")
				if err != nil {
					return fmt.Errorf("encoding %q: %w", args[0], err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			})
		},
	}
}

func newConfigCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			data, err := cfg.Encode()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "justbuilt v%s\n", jbserver.Version)
		},
	}
}

// withStore loads the config, opens the configured store, and closes it
// after fn returns.
func withStore(load loadFunc, fn func(config.Config, snapshots.Store) error) (err error) {
	cfg, err := load()
	if err != nil {
		return err
	}
	store, err := snapshots.Open(cfg.Storage, cfg.DataDir)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(cfg, store)
}

func printTimeline(w io.Writer, tl *timeline.Timeline) {
	fmt.Fprintf(w, "Project: %s\n", tl.ProjectID())
	if tl.Description() != "" {
		fmt.Fprintf(w, "Description: %s\n", tl.Description())
	}
	fmt.Fprintf(w, "Nodes: %d\n", tl.NodeCount())

	active := tl.ActiveBranch()
	fmt.Fprintf(w, "\nBranches (%d/%d):\n", tl.BranchCount(), tl.MaxBranches())
	for _, b := range tl.Branches() {
		marker := " "
		if b.ID == active.ID {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s (%d nodes)\n", marker, b.Name, len(b.Nodes))
	}

	fmt.Fprintln(w, "\nCheckpoints:")
	cps := tl.Checkpoints()
	if len(cps) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, cp := range cps {
		fmt.Fprintf(w, "  %s -> %s\n", cp.Name, cp.NodeID)
	}

	fmt.Fprintln(w, "\nCurrent path:")
	for _, n := range tl.CurrentPath() {
		title := n.Title
		if i := strings.IndexByte(title, '\n'); i >= 0 {
			title = title[:i]
		}
		fmt.Fprintf(w, "  [step %d] %s: %s\n", n.StepNumber, n.Kind, title)
	}
}
