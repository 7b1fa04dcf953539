package timeline_test

import (
	"testing"
	"time"

	"github.com/eazylee337/justbuilt/internal/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSample(t *testing.T) *timeline.Timeline {
	t.Helper()
	tl := newTestTimeline(t)
	add(t, tl, timeline.KindPlan, "plan", t0.Add(time.Minute))
	_, err := tl.CreateBranch("exp", "experiment", t0.Add(2*time.Minute))
	require.NoError(t, err)
	add(t, tl, timeline.KindCode, "code", t0.Add(3*time.Minute))
	require.NoError(t, tl.CreateCheckpoint("mine"))
	return tl
}

func TestSnapshotRestore_RoundTrip(t *testing.T) {
	tl := buildSample(t)
	snap := tl.Snapshot()

	restored, err := timeline.Restore(snap, timeline.Options{NewID: seqIDs()})
	require.NoError(t, err)
	requireValid(t, restored)

	assert.Equal(t, snap, restored.Snapshot())
	assert.Equal(t, tl.CurrentPath(), restored.CurrentPath())
}

func TestRestore_HasNoCreationSideEffects(t *testing.T) {
	tl := buildSample(t)
	snap := tl.Snapshot()

	restored, err := timeline.Restore(snap, timeline.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, tl.NodeCount(), restored.NodeCount())
	assert.Len(t, restored.Checkpoints(), len(tl.Checkpoints()))
}

func TestRestore_ContinuesHistory(t *testing.T) {
	tl := buildSample(t)
	restored, err := timeline.Restore(tl.Snapshot(), timeline.DefaultOptions())
	require.NoError(t, err)

	n, err := restored.AddNode(timeline.NodeInput{Kind: timeline.KindExplanation, Title: "after"}, t0.Add(4*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 4, n.StepNumber)
	requireValid(t, restored)
}

func TestRestore_RejectsCorruptSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(*timeline.Snapshot)
		want    error
	}{
		{"missing project id", func(s *timeline.Snapshot) { s.ProjectID = "" }, timeline.ErrInvalidInput},
		{"newer version", func(s *timeline.Snapshot) { s.Version = timeline.SnapshotVersion + 1 }, timeline.ErrInvalidInput},
		{"dangling child link", func(s *timeline.Snapshot) { s.Nodes[0].Children = nil }, timeline.ErrInvariant},
		{"wrong step", func(s *timeline.Snapshot) { s.Nodes[1].StepNumber = 7 }, timeline.ErrInvariant},
		{"active node off branch", func(s *timeline.Snapshot) { s.ActiveBranch = s.MainBranch }, timeline.ErrInvariant},
		{"two active branches", func(s *timeline.Snapshot) { s.Branches[0].IsActive = true }, timeline.ErrInvariant},
		{"dangling checkpoint", func(s *timeline.Snapshot) { s.Checkpoints["gone"] = "ghost" }, timeline.ErrInvariant},
		{"checkpoint off its branch", func(s *timeline.Snapshot) { s.CheckpointBranches["mine"] = s.MainBranch }, timeline.ErrInvariant},
		{"duplicate node", func(s *timeline.Snapshot) { s.Nodes = append(s.Nodes, s.Nodes[0]) }, timeline.ErrInvariant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := buildSample(t).Snapshot()
			tt.corrupt(&snap)

			_, err := timeline.Restore(snap, timeline.DefaultOptions())
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRestore_CheckpointWithoutBranchUsesNodeBranch(t *testing.T) {
	tl := buildSample(t)
	snap := tl.Snapshot()
	snap.CheckpointBranches = nil

	restored, err := timeline.Restore(snap, timeline.DefaultOptions())
	require.NoError(t, err)
	requireValid(t, restored)

	for _, cp := range restored.Checkpoints() {
		n, err := restored.Node(cp.NodeID)
		require.NoError(t, err)
		assert.Equal(t, n.Branch, cp.Branch, cp.Name)
	}
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	tl := buildSample(t)
	snap := tl.Snapshot()

	snap.Nodes[0].Children = append(snap.Nodes[0].Children, "ghost")
	snap.Branches[0].Nodes[0] = "ghost"
	snap.Checkpoints["extra"] = "ghost"
	snap.CheckpointBranches["mine"] = "ghost"

	requireValid(t, tl)
	assert.Len(t, tl.Checkpoints(), 2)
}
