package timeline

import (
	"errors"
	"fmt"
	"slices"
)

// Validate checks every structural invariant of the timeline:
//   - each node's branch lists it, and its parent lists it as a child
//   - each child lists its parent back, with no duplicates
//   - step numbers are parent+1, or 1 for a root
//   - branch lists hold only nodes created on the branch, except a forked
//     branch's first entry, which is its branch point on the parent branch
//   - exactly one branch is active, and it is the cursor's branch
//   - the active node is a member of the active branch
//   - every checkpoint resolves to a node listed on its branch
//
// All violations are reported, joined, each wrapping ErrInvariant.
func (t *Timeline) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvariant}, args...)...))
	}

	if _, ok := t.branches.get(t.mainBranch); !ok {
		fail("main branch %q missing", t.mainBranch)
	}

	for _, n := range t.nodes.list() {
		b, ok := t.branches.get(n.Branch)
		switch {
		case !ok:
			fail("node %q references missing branch %q", n.ID, n.Branch)
		case !b.Contains(n.ID):
			fail("node %q not listed on its branch %q", n.ID, n.Branch)
		}

		if n.HasParent() {
			p, ok := t.nodes.get(n.Parent)
			if !ok {
				fail("node %q references missing parent %q", n.ID, n.Parent)
			} else {
				if !slices.Contains(p.Children, n.ID) {
					fail("node %q missing from children of parent %q", n.ID, p.ID)
				}
				if n.StepNumber != p.StepNumber+1 {
					fail("node %q step %d, parent %q step %d", n.ID, n.StepNumber, p.ID, p.StepNumber)
				}
			}
		} else if n.StepNumber != 1 {
			fail("root node %q has step %d", n.ID, n.StepNumber)
		}

		seen := make(map[NodeID]bool, len(n.Children))
		for _, c := range n.Children {
			if seen[c] {
				fail("node %q lists child %q twice", n.ID, c)
			}
			seen[c] = true
			child, ok := t.nodes.get(c)
			if !ok {
				fail("node %q lists missing child %q", n.ID, c)
			} else if child.Parent != n.ID {
				fail("child %q of %q has parent %q", c, n.ID, child.Parent)
			}
		}
	}

	active := 0
	for _, b := range t.branches.list() {
		if b.IsActive {
			active++
			if b.ID != t.activeBranch {
				fail("branch %q flagged active but cursor is on %q", b.ID, t.activeBranch)
			}
		}
		if b.IsFork() {
			parent, ok := t.branches.get(b.ParentBranch)
			switch {
			case !ok:
				fail("branch %q references missing parent branch %q", b.ID, b.ParentBranch)
			case b.BranchPoint != "" && !parent.Contains(b.BranchPoint):
				fail("branch point %q of %q not on parent branch %q", b.BranchPoint, b.ID, b.ParentBranch)
			}
		}
		seen := make(map[NodeID]bool, len(b.Nodes))
		for i, id := range b.Nodes {
			if seen[id] {
				fail("branch %q lists node %q twice", b.ID, id)
			}
			seen[id] = true
			n, ok := t.nodes.get(id)
			switch {
			case !ok:
				fail("branch %q lists missing node %q", b.ID, id)
			case n.Branch == b.ID:
			case i == 0 && id == b.BranchPoint:
			default:
				fail("branch %q lists node %q created on %q", b.ID, id, n.Branch)
			}
		}
	}
	if active != 1 {
		fail("%d active branches, want 1", active)
	}

	if b, ok := t.branches.get(t.activeBranch); !ok {
		fail("active branch %q missing", t.activeBranch)
	} else if _, ok := t.nodes.get(t.activeNode); !ok {
		fail("active node %q missing", t.activeNode)
	} else if !b.Contains(t.activeNode) {
		fail("active node %q not on active branch %q", t.activeNode, t.activeBranch)
	}

	for name, cp := range t.checkpoints {
		if _, ok := t.nodes.get(cp.NodeID); !ok {
			fail("checkpoint %q points at missing node %q", name, cp.NodeID)
			continue
		}
		if b, ok := t.branches.get(cp.Branch); !ok {
			fail("checkpoint %q references missing branch %q", name, cp.Branch)
		} else if !b.Contains(cp.NodeID) {
			fail("checkpoint %q node %q not on branch %q", name, cp.NodeID, cp.Branch)
		}
	}

	return errors.Join(errs...)
}
