package timeline

import (
	"fmt"
	"strings"
	"time"
)

// SnapshotVersion is the format version written into every Snapshot.
const SnapshotVersion = 1

// Snapshot is the complete serializable state of a timeline. Nodes and
// branches are listed in creation order. CheckpointBranches records the
// cursor branch of each checkpoint; a name missing from it restores onto the
// branch its node was created on.
type Snapshot struct {
	Version            int                 `json:"version"`
	ProjectID          string              `json:"project_id"`
	Description        string              `json:"description"`
	CreatedAt          time.Time           `json:"created_at"`
	MainBranch         BranchID            `json:"main_branch"`
	ActiveBranch       BranchID            `json:"active_branch"`
	ActiveNode         NodeID              `json:"active_node"`
	Branches           []Branch            `json:"branches"`
	Nodes              []Node              `json:"nodes"`
	Checkpoints        map[string]NodeID   `json:"checkpoints"`
	CheckpointBranches map[string]BranchID `json:"checkpoint_branches,omitempty"`
}

// Snapshot returns a deep copy of the timeline's state.
func (t *Timeline) Snapshot() Snapshot {
	cps := make(map[string]NodeID, len(t.checkpoints))
	cpBranches := make(map[string]BranchID, len(t.checkpoints))
	for name, cp := range t.checkpoints {
		cps[name] = cp.NodeID
		cpBranches[name] = cp.Branch
	}
	return Snapshot{
		Version:            SnapshotVersion,
		ProjectID:          t.projectID,
		Description:        t.description,
		CreatedAt:          t.createdAt,
		MainBranch:         t.mainBranch,
		ActiveBranch:       t.activeBranch,
		ActiveNode:         t.activeNode,
		Branches:           t.Branches(),
		Nodes:              t.Nodes(),
		Checkpoints:        cps,
		CheckpointBranches: cpBranches,
	}
}

// Restore rebuilds a timeline from a snapshot. It is a raw load: no root
// node, initial checkpoint, or auto-checkpoint is created. The snapshot must
// satisfy every invariant Validate checks.
func Restore(s Snapshot, opts Options) (*Timeline, error) {
	if strings.TrimSpace(s.ProjectID) == "" {
		return nil, fmt.Errorf("%w: snapshot has no project id", ErrInvalidInput)
	}
	if s.Version > SnapshotVersion {
		return nil, fmt.Errorf("%w: snapshot version %d is newer than supported %d",
			ErrInvalidInput, s.Version, SnapshotVersion)
	}

	t := newEmpty(s.ProjectID, s.Description, s.CreatedAt, opts)
	for i := range s.Branches {
		b := s.Branches[i].clone()
		if err := t.branches.insert(&b); err != nil {
			return nil, err
		}
	}
	for i := range s.Nodes {
		n := s.Nodes[i].clone()
		if err := t.nodes.insert(&n); err != nil {
			return nil, err
		}
	}
	t.mainBranch = s.MainBranch
	t.activeBranch = s.ActiveBranch
	t.activeNode = s.ActiveNode
	for name, id := range s.Checkpoints {
		branch := s.CheckpointBranches[name]
		if branch == "" {
			if n, ok := t.nodes.get(id); ok {
				branch = n.Branch
			}
		}
		t.bindCheckpoint(name, id, branch)
	}

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("restoring %q: %w", s.ProjectID, err)
	}
	return t, nil
}
