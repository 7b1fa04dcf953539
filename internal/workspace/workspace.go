// Package workspace joins the in-memory timeline registry with a snapshot
// store. Timelines are rehydrated lazily on first use and written back after
// every successful mutation.
package workspace

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/eazylee337/justbuilt/internal/snapshots"
	"github.com/eazylee337/justbuilt/internal/timeline"
	"go.uber.org/zap"
)

// timeNow is a package-level var to allow test injection.
var timeNow = time.Now

// Service is safe for concurrent use. Operations on one project are
// serialized by the registry; different projects proceed independently.
type Service struct {
	reg   *timeline.Registry
	store snapshots.Store
	log   *zap.Logger

	loadMu sync.Mutex // serializes rehydration
}

// New creates a workspace over store. A nil logger disables logging.
func New(store snapshots.Store, opts timeline.Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Logger == nil {
		opts.Logger = logger
	}
	return &Service{
		reg:   timeline.NewRegistry(opts),
		store: store,
		log:   logger,
	}
}

// Close closes the underlying store.
func (s *Service) Close() error {
	return s.store.Close()
}

// ─── Lifecycle ───────────────────────────────────────────────────────────────

// Create starts a new timeline for projectID and persists it. A project that
// exists in memory or in the store fails with timeline.ErrAlreadyExists.
func (s *Service) Create(projectID, description string) (timeline.Node, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if !s.reg.Has(projectID) {
		_, err := s.store.Load(projectID)
		switch {
		case err == nil:
			return timeline.Node{}, fmt.Errorf("timeline for project %q: %w", projectID, timeline.ErrAlreadyExists)
		case !errors.Is(err, timeline.ErrNotFound):
			return timeline.Node{}, err
		}
	}
	if err := s.reg.Create(projectID, description, timeNow()); err != nil {
		return timeline.Node{}, err
	}

	var root timeline.Node
	err := s.reg.Update(projectID, func(tl *timeline.Timeline) error {
		root = tl.ActiveNode()
		return s.persist(tl)
	})
	if err != nil {
		_ = s.reg.Discard(projectID)
		return timeline.Node{}, err
	}
	s.log.Info("timeline created", zap.String("project", projectID))
	return root, nil
}

// Discard drops the project from memory and from the store.
func (s *Service) Discard(projectID string) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	memErr := s.reg.Discard(projectID)
	storeErr := s.store.Delete(projectID)
	if memErr != nil && storeErr != nil {
		if errors.Is(storeErr, timeline.ErrNotFound) {
			return memErr
		}
		return storeErr
	}
	if storeErr != nil && !errors.Is(storeErr, timeline.ErrNotFound) {
		return storeErr
	}
	s.log.Info("timeline discarded", zap.String("project", projectID))
	return nil
}

// Projects summarizes every persisted timeline.
func (s *Service) Projects() ([]snapshots.Summary, error) {
	return s.store.List()
}

// ─── Mutations ───────────────────────────────────────────────────────────────

// Update runs fn on the project's timeline and persists the result when fn
// succeeds. A failed fn is never persisted. Discard waits for a running
// Update, so a discarded timeline is never written back.
func (s *Service) Update(projectID string, fn func(*timeline.Timeline) error) error {
	if err := s.ensure(projectID); err != nil {
		return err
	}
	return s.reg.Update(projectID, func(tl *timeline.Timeline) error {
		if err := fn(tl); err != nil {
			return err
		}
		return s.persist(tl)
	})
}

// AddNode records an event at the project's cursor, timestamped now.
func (s *Service) AddNode(projectID string, in timeline.NodeInput) (timeline.Node, error) {
	var n timeline.Node
	err := s.Update(projectID, func(tl *timeline.Timeline) error {
		var err error
		n, err = tl.AddNode(in, timeNow())
		return err
	})
	return n, err
}

// NavigateToNode moves the cursor and returns the new active node.
func (s *Service) NavigateToNode(projectID string, id timeline.NodeID) (timeline.Node, error) {
	var n timeline.Node
	err := s.Update(projectID, func(tl *timeline.Timeline) error {
		if err := tl.NavigateToNode(id); err != nil {
			return err
		}
		n = tl.ActiveNode()
		return nil
	})
	return n, err
}

// NavigateToBranch moves the cursor to the branch's newest node and returns it.
func (s *Service) NavigateToBranch(projectID string, id timeline.BranchID) (timeline.Node, error) {
	var n timeline.Node
	err := s.Update(projectID, func(tl *timeline.Timeline) error {
		var err error
		n, err = tl.NavigateToBranch(id)
		return err
	})
	return n, err
}

// CreateBranch forks at the project's cursor.
func (s *Service) CreateBranch(projectID, name, description string) (timeline.Branch, error) {
	var b timeline.Branch
	err := s.Update(projectID, func(tl *timeline.Timeline) error {
		var err error
		b, err = tl.CreateBranch(name, description, timeNow())
		return err
	})
	return b, err
}

// CreateCheckpoint binds name to the cursor and returns the bound node.
func (s *Service) CreateCheckpoint(projectID, name string) (timeline.Node, error) {
	var n timeline.Node
	err := s.Update(projectID, func(tl *timeline.Timeline) error {
		if err := tl.CreateCheckpoint(name); err != nil {
			return err
		}
		n = tl.ActiveNode()
		return nil
	})
	return n, err
}

// NavigateToCheckpoint restores the cursor recorded by the checkpoint.
func (s *Service) NavigateToCheckpoint(projectID, name string) (timeline.Node, error) {
	var n timeline.Node
	err := s.Update(projectID, func(tl *timeline.Timeline) error {
		if err := tl.NavigateToCheckpoint(name); err != nil {
			return err
		}
		n = tl.ActiveNode()
		return nil
	})
	return n, err
}

// ─── Queries ─────────────────────────────────────────────────────────────────

// View runs fn on the project's timeline without persisting. fn must not mutate.
func (s *Service) View(projectID string, fn func(*timeline.Timeline) error) error {
	if err := s.ensure(projectID); err != nil {
		return err
	}
	return s.reg.View(projectID, fn)
}

// CurrentPath returns the project's current path. An unknown project has an
// empty path.
func (s *Service) CurrentPath(projectID string) ([]timeline.Node, error) {
	if err := s.ensure(projectID); err != nil {
		if errors.Is(err, timeline.ErrNotFound) {
			return []timeline.Node{}, nil
		}
		return nil, err
	}
	return s.reg.CurrentPath(projectID), nil
}

// Snapshot returns the project's current state.
func (s *Service) Snapshot(projectID string) (timeline.Snapshot, error) {
	var snap timeline.Snapshot
	err := s.View(projectID, func(tl *timeline.Timeline) error {
		snap = tl.Snapshot()
		return nil
	})
	return snap, err
}

// ─── Internals ───────────────────────────────────────────────────────────────

// ensure makes the project's timeline resident, loading it from the store
// through the raw-load path if needed.
func (s *Service) ensure(projectID string) error {
	if s.reg.Has(projectID) {
		return nil
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if s.reg.Has(projectID) {
		return nil
	}

	snap, err := s.store.Load(projectID)
	if err != nil {
		return err
	}
	if err := s.reg.Load(snap); err != nil {
		s.log.Error("rehydrate failed", zap.String("project", projectID), zap.Error(err))
		return err
	}
	s.log.Info("timeline rehydrated",
		zap.String("project", projectID),
		zap.Int("nodes", len(snap.Nodes)),
		zap.Int("branches", len(snap.Branches)),
	)
	return nil
}

func (s *Service) persist(tl *timeline.Timeline) error {
	if err := s.store.Save(tl.Snapshot()); err != nil {
		s.log.Error("persist failed", zap.String("project", tl.ProjectID()), zap.Error(err))
		return fmt.Errorf("workspace: persist %q: %w", tl.ProjectID(), err)
	}
	return nil
}
