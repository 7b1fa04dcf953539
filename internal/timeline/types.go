// Package timeline implements the development timeline engine: a branching,
// checkpointed history of authoring events (plans, decisions, generated code,
// user edits).
//
// A Timeline owns an arena of nodes indexed by opaque identifier. Parent and
// child links are identifiers, never pointers, so the arena alone owns node
// lifetime. Branches are named, ordered lists of node identifiers. The active
// cursor is the (branch, node) pair the author is currently working from.
//
// The engine is synchronous and performs no I/O. A Timeline is not safe for
// concurrent use; Registry provides the per-project mutual exclusion a
// concurrent host needs.
package timeline

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// NodeID identifies a node within a timeline. Identifiers are never reused.
type NodeID string

// BranchID identifies a branch within a timeline.
type BranchID string

// ─── Node kind enum ──────────────────────────────────────────────────────────

// NodeKind is the closed set of authoring events a node can record.
type NodeKind string

const (
	KindDecision    NodeKind = "decision"
	KindCode        NodeKind = "code"
	KindPlan        NodeKind = "plan"
	KindExplanation NodeKind = "explanation"
	KindAlternative NodeKind = "alternative"
	KindUserEdit    NodeKind = "user-edit"
)

// validKinds is the set of allowed node kinds.
var validKinds = map[NodeKind]bool{
	KindDecision:    true,
	KindCode:        true,
	KindPlan:        true,
	KindExplanation: true,
	KindAlternative: true,
	KindUserEdit:    true,
}

// Kinds returns every node kind in a stable order.
func Kinds() []NodeKind {
	return []NodeKind{KindDecision, KindCode, KindPlan, KindExplanation, KindAlternative, KindUserEdit}
}

// KindValues returns the node kinds as plain strings, for schema enums.
func KindValues() []string {
	out := make([]string, 0, len(validKinds))
	for _, k := range Kinds() {
		out = append(out, string(k))
	}
	return out
}

// ValidateKind returns an error if the kind is not recognized.
func ValidateKind(k NodeKind) error {
	if !validKinds[k] {
		return fmt.Errorf("%w: node kind %q must be one of: decision, code, plan, explanation, alternative, user-edit", ErrInvalidInput, k)
	}
	return nil
}

// ─── Core data structures ────────────────────────────────────────────────────

// Node is one recorded authoring event. Content fields are immutable after
// creation; only Children grows as nodes are created from this one.
type Node struct {
	ID          NodeID         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	Kind        NodeKind       `json:"kind"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Content     string         `json:"content"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Parent      NodeID         `json:"parent,omitempty"`
	Children    []NodeID       `json:"children"`
	Branch      BranchID       `json:"branch"`
	StepNumber  int            `json:"step_number"`
}

// HasParent reports whether the node was created from another node.
func (n Node) HasParent() bool {
	return n.Parent != ""
}

// IsForkPoint reports whether more than one node was created from this node.
func (n Node) IsForkPoint() bool {
	return len(n.Children) > 1
}

func (n *Node) clone() Node {
	c := *n
	c.Children = slices.Clone(n.Children)
	if c.Children == nil {
		c.Children = []NodeID{}
	}
	c.Metadata = maps.Clone(n.Metadata)
	return c
}

// Branch is a named line of development history.
type Branch struct {
	ID           BranchID  `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Nodes        []NodeID  `json:"nodes"`
	IsActive     bool      `json:"is_active"`
	ParentBranch BranchID  `json:"parent_branch,omitempty"`
	BranchPoint  NodeID    `json:"branch_point,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsFork reports whether the branch was forked from another branch.
func (b Branch) IsFork() bool {
	return b.ParentBranch != ""
}

// Contains reports whether the node is a member of the branch's node list.
func (b Branch) Contains(id NodeID) bool {
	return slices.Contains(b.Nodes, id)
}

func (b *Branch) clone() Branch {
	c := *b
	c.Nodes = slices.Clone(b.Nodes)
	if c.Nodes == nil {
		c.Nodes = []NodeID{}
	}
	return c
}

// Checkpoint is a named pointer to a node, together with the branch the
// cursor was on when it was taken. A checkpoint taken at a fork point
// restores onto the fork, not the branch the node was created on.
type Checkpoint struct {
	Name   string   `json:"name"`
	NodeID NodeID   `json:"node_id"`
	Branch BranchID `json:"branch"`
}

// NodeInput is the caller-supplied payload for a new node.
type NodeInput struct {
	Kind        NodeKind       `json:"kind" validate:"required"`
	Title       string         `json:"title" validate:"required,max=200"`
	Description string         `json:"description" validate:"max=2000"`
	Content     string         `json:"content"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}
