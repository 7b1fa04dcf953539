package workspace

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/eazylee337/justbuilt/internal/snapshots"
	"github.com/eazylee337/justbuilt/internal/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// ─── Helpers ─────────────────────────────────────────────────────────────────

var t0 = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

// fixedClock pins timeNow for the duration of the test and returns a setter.
func fixedClock(t *testing.T) func(time.Time) {
	t.Helper()
	orig := timeNow
	var mu sync.Mutex
	now := t0
	timeNow = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	t.Cleanup(func() { timeNow = orig })
	return func(at time.Time) {
		mu.Lock()
		defer mu.Unlock()
		now = at
	}
}

// countingStore wraps a Store, counting saves and optionally failing them.
type countingStore struct {
	snapshots.Store
	mu      sync.Mutex
	saves   int
	failErr error
}

func (c *countingStore) Save(s timeline.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failErr != nil {
		return c.failErr
	}
	c.saves++
	return c.Store.Save(s)
}

func (c *countingStore) saveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saves
}

func newFileStore(t *testing.T, dir string) *countingStore {
	t.Helper()
	fs, err := snapshots.NewFileStore(dir)
	require.NoError(t, err)
	return &countingStore{Store: fs}
}

func newService(t *testing.T) (*Service, *countingStore) {
	t.Helper()
	store := newFileStore(t, t.TempDir())
	return New(store, timeline.DefaultOptions(), nil), store
}

func code(title string) timeline.NodeInput {
	return timeline.NodeInput{Kind: timeline.KindCode, Title: title}
}

// ─── Tests ───────────────────────────────────────────────────────────────────

func TestCreate_PersistsRoot(t *testing.T) {
	fixedClock(t)
	svc, store := newService(t)

	root, err := svc.Create("P1", "demo")
	require.NoError(t, err)
	assert.Equal(t, 1, root.StepNumber)
	assert.Equal(t, t0, root.Timestamp)
	assert.Equal(t, 1, store.saveCount())

	snap, err := store.Load("P1")
	require.NoError(t, err)
	assert.Equal(t, root.ID, snap.ActiveNode)
}

func TestCreate_DuplicateInMemoryOrStore(t *testing.T) {
	fixedClock(t)
	dir := t.TempDir()
	svc := New(newFileStore(t, dir), timeline.DefaultOptions(), nil)
	_, err := svc.Create("P1", "demo")
	require.NoError(t, err)

	_, err = svc.Create("P1", "again")
	require.ErrorIs(t, err, timeline.ErrAlreadyExists)

	fresh := New(newFileStore(t, dir), timeline.DefaultOptions(), nil)
	_, err = fresh.Create("P1", "again")
	require.ErrorIs(t, err, timeline.ErrAlreadyExists)
}

func TestMutations_PersistAndRehydrate(t *testing.T) {
	setNow := fixedClock(t)
	dir := t.TempDir()
	svc := New(newFileStore(t, dir), timeline.DefaultOptions(), nil)

	root, err := svc.Create("P1", "demo")
	require.NoError(t, err)
	a, err := svc.AddNode("P1", code("a"))
	require.NoError(t, err)
	b, err := svc.CreateBranch("P1", "exp", "")
	require.NoError(t, err)
	_, err = svc.CreateCheckpoint("P1", "fork")
	require.NoError(t, err)

	setNow(t0.Add(time.Minute))
	side, err := svc.AddNode("P1", code("side"))
	require.NoError(t, err)
	assert.Equal(t, b.ID, side.Branch)

	// A second service on the same directory sees the persisted state.
	other := New(newFileStore(t, dir), timeline.DefaultOptions(), nil)
	path, err := other.CurrentPath("P1")
	require.NoError(t, err)
	require.Len(t, path, 3)
	assert.Equal(t, []timeline.NodeID{root.ID, a.ID, side.ID}, []timeline.NodeID{path[0].ID, path[1].ID, path[2].ID})

	n, err := other.NavigateToCheckpoint("P1", "fork")
	require.NoError(t, err)
	assert.Equal(t, a.ID, n.ID)

	n, err = other.NavigateToNode("P1", root.ID)
	require.NoError(t, err)
	assert.Equal(t, root.ID, n.ID)

	require.NoError(t, other.View("P1", func(tl *timeline.Timeline) error {
		assert.Equal(t, 2, tl.BranchCount())
		assert.Len(t, tl.Checkpoints(), 2)
		return tl.Validate()
	}))
}

func TestRehydrate_DoesNotAutoCheckpoint(t *testing.T) {
	setNow := fixedClock(t)
	dir := t.TempDir()
	svc := New(newFileStore(t, dir), timeline.DefaultOptions(), nil)
	_, err := svc.Create("P1", "")
	require.NoError(t, err)

	setNow(t0.Add(24 * time.Hour))
	other := New(newFileStore(t, dir), timeline.DefaultOptions(), nil)
	snap, err := other.Snapshot("P1")
	require.NoError(t, err)
	assert.Len(t, snap.Checkpoints, 1)
	assert.Len(t, snap.Nodes, 1)
}

func TestFailedMutation_NotPersisted(t *testing.T) {
	fixedClock(t)
	svc, store := newService(t)
	_, err := svc.Create("P1", "")
	require.NoError(t, err)
	before := store.saveCount()

	_, err = svc.AddNode("P1", timeline.NodeInput{Kind: "nonsense", Title: "x"})
	require.ErrorIs(t, err, timeline.ErrInvalidInput)
	_, err = svc.NavigateToNode("P1", "ghost")
	require.ErrorIs(t, err, timeline.ErrNotFound)
	_, err = svc.NavigateToCheckpoint("P1", "ghost")
	require.ErrorIs(t, err, timeline.ErrNotFound)

	assert.Equal(t, before, store.saveCount())
}

func TestPersistFailure_Surfaces(t *testing.T) {
	fixedClock(t)
	core, logs := observer.New(zap.ErrorLevel)
	store := newFileStore(t, t.TempDir())
	svc := New(store, timeline.DefaultOptions(), zap.New(core))

	store.failErr = errors.New("disk full")
	_, err := svc.Create("P1", "")
	require.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, logs.FilterMessage("persist failed").Len())

	store.failErr = nil
	_, err = svc.Create("P1", "")
	require.NoError(t, err, "failed create must not leave the project registered")
}

func TestUnknownProject(t *testing.T) {
	svc, _ := newService(t)

	path, err := svc.CurrentPath("ghost")
	require.NoError(t, err)
	assert.Empty(t, path)

	_, err = svc.AddNode("ghost", code("x"))
	require.ErrorIs(t, err, timeline.ErrNotFound)
	err = svc.View("ghost", func(*timeline.Timeline) error { return nil })
	require.ErrorIs(t, err, timeline.ErrNotFound)
	require.ErrorIs(t, svc.Discard("ghost"), timeline.ErrNotFound)
}

func TestDiscard(t *testing.T) {
	fixedClock(t)
	svc, store := newService(t)
	_, err := svc.Create("P1", "")
	require.NoError(t, err)
	_, err = svc.Create("P2", "")
	require.NoError(t, err)

	require.NoError(t, svc.Discard("P1"))
	_, err = store.Load("P1")
	require.ErrorIs(t, err, timeline.ErrNotFound)

	list, err := svc.Projects()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "P2", list[0].ProjectID)

	_, err = svc.Create("P1", "again")
	require.NoError(t, err)
}

func TestDiscard_WaitsForRunningUpdate(t *testing.T) {
	fixedClock(t)
	svc, store := newService(t)
	_, err := svc.Create("P1", "")
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	updated := make(chan error, 1)
	go func() {
		updated <- svc.Update("P1", func(tl *timeline.Timeline) error {
			close(started)
			<-release
			_, err := tl.AddNode(code("late"), t0)
			return err
		})
	}()
	<-started

	discarded := make(chan error, 1)
	go func() { discarded <- svc.Discard("P1") }()

	select {
	case err := <-discarded:
		t.Fatalf("discard returned while an update held the timeline: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-updated)
	require.NoError(t, <-discarded)

	_, err = store.Load("P1")
	require.ErrorIs(t, err, timeline.ErrNotFound, "discarded timeline must not be written back")
	_, err = svc.AddNode("P1", code("after"))
	require.ErrorIs(t, err, timeline.ErrNotFound)
}

func TestNavigateToBranch(t *testing.T) {
	fixedClock(t)
	svc, store := newService(t)
	_, err := svc.Create("P1", "")
	require.NoError(t, err)
	a, err := svc.AddNode("P1", code("a"))
	require.NoError(t, err)
	exp, err := svc.CreateBranch("P1", "exp", "")
	require.NoError(t, err)
	_, err = svc.NavigateToCheckpoint("P1", timeline.InitialCheckpoint)
	require.NoError(t, err)

	n, err := svc.NavigateToBranch("P1", exp.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, n.ID)

	snap, err := store.Load("P1")
	require.NoError(t, err)
	assert.Equal(t, exp.ID, snap.ActiveBranch)

	_, err = svc.NavigateToBranch("P1", "ghost")
	require.ErrorIs(t, err, timeline.ErrNotFound)
}

func TestConcurrentProjects(t *testing.T) {
	fixedClock(t)
	svc, _ := newService(t)
	projects := []string{"a", "b", "c", "d"}

	var wg sync.WaitGroup
	for _, p := range projects {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Create(p, ""); err != nil {
				t.Error(err)
				return
			}
			for i := 0; i < 10; i++ {
				if _, err := svc.AddNode(p, code("n")); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	for _, p := range projects {
		path, err := svc.CurrentPath(p)
		require.NoError(t, err)
		assert.Len(t, path, 11)
	}
}
