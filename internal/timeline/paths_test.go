package timeline_test

import (
	"testing"
	"time"

	"github.com/eazylee337/justbuilt/internal/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindPathBetween_StraightLine(t *testing.T) {
	tl := newTestTimeline(t)
	root := tl.ActiveNode()
	for i := 0; i < 4; i++ {
		add(t, tl, timeline.KindCode, "step", t0.Add(time.Duration(i)*time.Minute))
	}
	leaf := tl.ActiveNode()

	path, err := tl.FindPathBetween(root.ID, leaf.ID)
	require.NoError(t, err)
	require.Len(t, path, 5)
	assert.Equal(t, root.ID, path[0].ID)
	assert.Equal(t, leaf.ID, path[4].ID)
	for i, n := range path {
		assert.Equal(t, i+1, n.StepNumber)
	}

	back, err := tl.FindPathBetween(leaf.ID, root.ID)
	require.NoError(t, err)
	require.Len(t, back, 5)
	assert.Equal(t, leaf.ID, back[0].ID)
	assert.Equal(t, root.ID, back[4].ID)
}

func TestFindPathBetween_AcrossBranches(t *testing.T) {
	tl := newTestTimeline(t)
	m2 := add(t, tl, timeline.KindPlan, "m2", t0)
	m3 := add(t, tl, timeline.KindCode, "m3", t0)

	require.NoError(t, tl.NavigateToNode(m2.ID))
	_, err := tl.CreateBranch("alt", "", t0)
	require.NoError(t, err)
	b3 := add(t, tl, timeline.KindAlternative, "b3", t0)
	b4 := add(t, tl, timeline.KindCode, "b4", t0)

	path, err := tl.FindPathBetween(m3.ID, b4.ID)
	require.NoError(t, err)
	assert.Equal(t, []timeline.NodeID{m3.ID, m2.ID, b3.ID, b4.ID}, ids(path))
}

func TestFindPathBetween_SameNode(t *testing.T) {
	tl := newTestTimeline(t)
	n := add(t, tl, timeline.KindPlan, "a", t0)

	path, err := tl.FindPathBetween(n.ID, n.ID)
	require.NoError(t, err)
	assert.Equal(t, []timeline.NodeID{n.ID}, ids(path))
}

func TestFindPathBetween_UnknownNode(t *testing.T) {
	tl := newTestTimeline(t)
	root := tl.ActiveNode()

	_, err := tl.FindPathBetween(root.ID, "ghost")
	require.ErrorIs(t, err, timeline.ErrNotFound)
	_, err = tl.FindPathBetween("ghost", root.ID)
	require.ErrorIs(t, err, timeline.ErrNotFound)
}

func TestFindPathBetween_Disconnected(t *testing.T) {
	// Two roots on one branch can only come from a restored snapshot.
	snap := timeline.Snapshot{
		Version:      timeline.SnapshotVersion,
		ProjectID:    "split",
		CreatedAt:    t0,
		MainBranch:   "main",
		ActiveBranch: "main",
		ActiveNode:   "r2",
		Branches: []timeline.Branch{
			{ID: "main", Name: "main", Nodes: []timeline.NodeID{"r1", "r2"}, IsActive: true, CreatedAt: t0},
		},
		Nodes: []timeline.Node{
			{ID: "r1", Timestamp: t0, Kind: timeline.KindPlan, Title: "one", Children: []timeline.NodeID{}, Branch: "main", StepNumber: 1},
			{ID: "r2", Timestamp: t0, Kind: timeline.KindPlan, Title: "two", Children: []timeline.NodeID{}, Branch: "main", StepNumber: 1},
		},
	}
	tl, err := timeline.Restore(snap, timeline.DefaultOptions())
	require.NoError(t, err)

	_, err = tl.FindPathBetween("r1", "r2")
	require.ErrorIs(t, err, timeline.ErrNoPath)
}

func TestAlternativePaths_FirstChildWins(t *testing.T) {
	tl := newTestTimeline(t)
	root := tl.ActiveNode()

	a := add(t, tl, timeline.KindPlan, "a", t0)
	a1 := add(t, tl, timeline.KindCode, "a1", t0)
	a1x := add(t, tl, timeline.KindCode, "a1x", t0)

	require.NoError(t, tl.NavigateToNode(a.ID))
	add(t, tl, timeline.KindCode, "a2", t0)

	require.NoError(t, tl.NavigateToNode(root.ID))
	b := add(t, tl, timeline.KindDecision, "b", t0)

	paths, err := tl.AlternativePaths(root.ID)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, []timeline.NodeID{a.ID, a1.ID, a1x.ID}, ids(paths[0]))
	assert.Equal(t, []timeline.NodeID{b.ID}, ids(paths[1]))
}

func TestAlternativePaths_LeafAndUnknown(t *testing.T) {
	tl := newTestTimeline(t)
	leaf := add(t, tl, timeline.KindPlan, "leaf", t0)

	paths, err := tl.AlternativePaths(leaf.ID)
	require.NoError(t, err)
	assert.Empty(t, paths)

	_, err = tl.AlternativePaths("ghost")
	require.ErrorIs(t, err, timeline.ErrNotFound)
}

func TestPathTo(t *testing.T) {
	tl := newTestTimeline(t)
	root := tl.ActiveNode()
	a := add(t, tl, timeline.KindPlan, "a", t0)
	add(t, tl, timeline.KindPlan, "b", t0)

	path, err := tl.PathTo(a.ID)
	require.NoError(t, err)
	assert.Equal(t, []timeline.NodeID{root.ID, a.ID}, ids(path))

	_, err = tl.PathTo("ghost")
	require.ErrorIs(t, err, timeline.ErrNotFound)
}

func TestCompareNodes(t *testing.T) {
	tl := newTestTimeline(t)
	root := tl.ActiveNode()
	a := add(t, tl, timeline.KindCode, "same", t0)
	b := add(t, tl, timeline.KindCode, "same", t0)

	same, err := tl.CompareNodes(a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, same.Identical())
	assert.Equal(t, 1, same.StepDelta)

	diff, err := tl.CompareNodes(root.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, diff.Identical())
	assert.True(t, diff.TitleChanged)
	assert.True(t, diff.KindChanged)
	assert.True(t, diff.ContentChanged)
	assert.True(t, diff.DescriptionChanged)
	assert.Equal(t, 2, diff.StepDelta)

	_, err = tl.CompareNodes(root.ID, "ghost")
	require.ErrorIs(t, err, timeline.ErrNotFound)
}

func TestChangesSummary(t *testing.T) {
	tl := newTestTimeline(t)
	root := tl.ActiveNode()
	add(t, tl, timeline.KindCode, "c1", t0)
	add(t, tl, timeline.KindDecision, "d1", t0)
	end := add(t, tl, timeline.KindCode, "c2", t0)

	s, err := tl.ChangesSummary(root.ID, end.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, s.TotalChanges)
	assert.Equal(t, map[timeline.NodeKind]int{
		timeline.KindCode:     2,
		timeline.KindDecision: 1,
	}, s.ByKind)
	assert.Len(t, s.Path, 4)

	none, err := tl.ChangesSummary(end.ID, end.ID)
	require.NoError(t, err)
	assert.Zero(t, none.TotalChanges)

	_, err = tl.ChangesSummary(root.ID, "ghost")
	require.ErrorIs(t, err, timeline.ErrNotFound)
}

func TestGraph(t *testing.T) {
	tl := newTestTimeline(t)
	root := tl.ActiveNode()
	add(t, tl, timeline.KindPlan, "a", t0)
	_, err := tl.CreateBranch("side", "", t0)
	require.NoError(t, err)
	side := add(t, tl, timeline.KindCode, "side", t0)

	g := tl.Graph()
	assert.Equal(t, "P1", g.ProjectID)
	assert.Len(t, g.Nodes, 3)
	assert.Len(t, g.Edges, 2)
	require.Len(t, g.Branches, 2)
	assert.Equal(t, 2, g.Branches[1].NodeCount)
	assert.True(t, g.Branches[1].IsActive)
	assert.Equal(t, side.ID, g.ActiveNode)

	assert.Equal(t, root.ID, g.Nodes[0].ID)
	assert.Equal(t, []string{timeline.InitialCheckpoint}, g.Nodes[0].Checkpoints)
	assert.True(t, g.Nodes[2].Active)
	assert.False(t, g.Nodes[0].Active)
}
