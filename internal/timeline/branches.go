package timeline

import (
	"fmt"
	"time"
)

// branchStore owns branch membership and the single-active-branch invariant.
type branchStore struct {
	branches map[BranchID]*Branch
	order    []BranchID // creation order, for stable listings
	max      int
	newID    func() string
}

func newBranchStore(maxBranches int, newID func() string) *branchStore {
	return &branchStore{
		branches: make(map[BranchID]*Branch),
		max:      maxBranches,
		newID:    newID,
	}
}

// create registers a new branch, seeds it with branchPoint when given, and
// makes it the only active branch.
func (s *branchStore) create(name, description string, parentBranch BranchID, branchPoint NodeID, now time.Time) (*Branch, error) {
	if len(s.branches) >= s.max {
		return nil, fmt.Errorf("branch %q: timeline already has %d branches (max %d): %w",
			name, len(s.branches), s.max, ErrLimitExceeded)
	}

	id := BranchID(s.newID())
	for s.branches[id] != nil {
		id = BranchID(s.newID())
	}

	b := &Branch{
		ID:           id,
		Name:         name,
		Description:  description,
		Nodes:        []NodeID{},
		ParentBranch: parentBranch,
		BranchPoint:  branchPoint,
		CreatedAt:    now,
	}
	if branchPoint != "" {
		b.Nodes = append(b.Nodes, branchPoint)
	}
	s.branches[id] = b
	s.order = append(s.order, id)
	s.activate(id)
	return b, nil
}

// activate flips isActive so exactly one branch, id, is active.
func (s *branchStore) activate(id BranchID) {
	for bid, b := range s.branches {
		b.IsActive = bid == id
	}
}

func (s *branchStore) appendNode(branch BranchID, node NodeID) error {
	b, ok := s.branches[branch]
	if !ok {
		return fmt.Errorf("branch %q: %w", branch, ErrNotFound)
	}
	b.Nodes = append(b.Nodes, node)
	return nil
}

// insert registers an already-built branch. Used by Restore.
func (s *branchStore) insert(b *Branch) error {
	if _, exists := s.branches[b.ID]; exists {
		return fmt.Errorf("%w: duplicate branch %q", ErrInvariant, b.ID)
	}
	s.branches[b.ID] = b
	s.order = append(s.order, b.ID)
	return nil
}

func (s *branchStore) get(id BranchID) (*Branch, bool) {
	b, ok := s.branches[id]
	return b, ok
}

func (s *branchStore) len() int {
	return len(s.branches)
}

// list returns the branches in creation order.
func (s *branchStore) list() []*Branch {
	out := make([]*Branch, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.branches[id])
	}
	return out
}
