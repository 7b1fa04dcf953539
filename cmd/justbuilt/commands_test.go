package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/eazylee337/justbuilt/internal/config"
	"github.com/eazylee337/justbuilt/internal/snapshots"
	"github.com/eazylee337/justbuilt/internal/timeline"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setup writes a config pointing at a fresh data dir and returns its path.
func setup(t *testing.T, backend string) (cfgPath, dataDir string) {
	t.Helper()
	for _, key := range []string{
		config.EnvConfig, config.EnvDataDir, config.EnvStorage, config.EnvLogLevel,
		config.EnvMaxBranches, config.EnvAutoCheckpoint,
	} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	dataDir = filepath.Join(dir, "data")
	cfgPath = filepath.Join(dir, "config.toml")
	body := fmt.Sprintf("data_dir = %q\nstorage = %q\nlog_level = \"error\"\n", dataDir, backend)
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o600))
	return cfgPath, dataDir
}

// seed stores a small timeline: a plan on main, then a fork with one code node.
func seed(t *testing.T, backend, dataDir string) {
	t.Helper()
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	tl, err := timeline.New("todo", "a todo app", now, timeline.DefaultOptions())
	require.NoError(t, err)

	_, err = tl.AddNode(timeline.NodeInput{Kind: timeline.KindPlan, Title: "Data model"}, now.Add(time.Minute))
	require.NoError(t, err)
	require.NoError(t, tl.CreateCheckpoint("model-done"))
	_, err = tl.CreateBranch("sqlite-try", "", now.Add(2*time.Minute))
	require.NoError(t, err)
	_, err = tl.AddNode(timeline.NodeInput{Kind: timeline.KindCode, Title: "Add schema\nwith two tables"}, now.Add(3*time.Minute))
	require.NoError(t, err)

	store, err := snapshots.Open(backend, dataDir)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Save(tl.Snapshot()))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInspect(t *testing.T) {
	for _, backend := range []string{snapshots.BackendSQLite, snapshots.BackendFile} {
		t.Run(backend, func(t *testing.T) {
			cfgPath, dataDir := setup(t, backend)
			seed(t, backend, dataDir)

			out, err := run(t, "--config", cfgPath, "inspect", "todo")
			require.NoError(t, err)

			assert.Contains(t, out, "Project: todo")
			assert.Contains(t, out, "Description: a todo app")
			assert.Contains(t, out, "Branches (2/10):")
			assert.Contains(t, out, "* sqlite-try")
			assert.Contains(t, out, "  main (2 nodes)")
			assert.Contains(t, out, "initial -> ")
			assert.Contains(t, out, "model-done -> ")
			assert.Contains(t, out, "[step 3] code: Add schema\n")
		})
	}
}

func TestInspect_UnknownProject(t *testing.T) {
	cfgPath, _ := setup(t, snapshots.BackendSQLite)

	_, err := run(t, "--config", cfgPath, "inspect", "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, timeline.ErrNotFound))
}

func TestExport(t *testing.T) {
	cfgPath, dataDir := setup(t, snapshots.BackendFile)
	seed(t, snapshots.BackendFile, dataDir)

	out, err := run(t, "--config", cfgPath, "export", "todo")
	require.NoError(t, err)

	var snap timeline.Snapshot
	require.NoError(t, sonic.Unmarshal([]byte(out), &snap))
	assert.Equal(t, "todo", snap.ProjectID)
	assert.Len(t, snap.Nodes, 3)

	tl, err := timeline.Restore(snap, timeline.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "sqlite-try", tl.ActiveBranch().Name)
}

func TestProjects(t *testing.T) {
	cfgPath, dataDir := setup(t, snapshots.BackendSQLite)

	out, err := run(t, "--config", cfgPath, "projects")
	require.NoError(t, err)
	assert.Contains(t, out, "No timelines yet.")

	seed(t, snapshots.BackendSQLite, dataDir)
	out, err = run(t, "--config", cfgPath, "projects")
	require.NoError(t, err)
	assert.Contains(t, out, "todo\t3 nodes\t2 branches")
}

func TestConfigCommand(t *testing.T) {
	cfgPath, dataDir := setup(t, snapshots.BackendFile)

	out, err := run(t, "--config", cfgPath, "config")
	require.NoError(t, err)
	assert.Contains(t, out, dataDir)
	assert.Regexp(t, `storage = ["']file["']`, out)
}

func TestConfigCommand_InvalidFile(t *testing.T) {
	cfgPath, _ := setup(t, snapshots.BackendFile)
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage = 'redis'\n"), 0o600))

	_, err := run(t, "--config", cfgPath, "config")
	require.Error(t, err)
}

func TestServe(t *testing.T) {
	cfgPath, dataDir := setup(t, snapshots.BackendSQLite)

	orig := serveStdio
	t.Cleanup(func() { serveStdio = orig })

	var served *server.MCPServer
	serveStdio = func(s *server.MCPServer) error {
		served = s
		return nil
	}

	_, err := run(t, "--config", cfgPath, "serve")
	require.NoError(t, err)
	require.NotNil(t, served)
	assert.Len(t, served.ListTools(), 14)

	_, err = os.Stat(filepath.Join(dataDir, snapshots.DatabaseFile))
	assert.NoError(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "justbuilt vdev\n", out)
}

func TestArgs(t *testing.T) {
	_, err := run(t, "inspect")
	assert.Error(t, err)

	_, err = run(t, "serve", "extra")
	assert.Error(t, err)
}
