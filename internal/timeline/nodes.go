package timeline

import (
	"fmt"
	"maps"
	"time"
)

// nodeStore owns node content and parent/child integrity. It exposes no
// update or delete: content is immutable once created.
type nodeStore struct {
	nodes map[NodeID]*Node
	order []NodeID // creation order, for stable listings
	newID func() string
}

func newNodeStore(newID func() string) *nodeStore {
	return &nodeStore{
		nodes: make(map[NodeID]*Node),
		newID: newID,
	}
}

// create allocates a node, registers it, and links it under parent when
// parent is non-empty. The step number is parent.StepNumber+1, or 1 for a root.
// Nothing is written if the parent does not exist.
func (s *nodeStore) create(in NodeInput, parent NodeID, branch BranchID, now time.Time) (*Node, error) {
	step := 1
	var p *Node
	if parent != "" {
		var ok bool
		p, ok = s.nodes[parent]
		if !ok {
			return nil, fmt.Errorf("parent node %q: %w", parent, ErrNotFound)
		}
		step = p.StepNumber + 1
	}

	id := NodeID(s.newID())
	for s.nodes[id] != nil {
		id = NodeID(s.newID())
	}

	n := &Node{
		ID:          id,
		Timestamp:   now,
		Kind:        in.Kind,
		Title:       in.Title,
		Description: in.Description,
		Content:     in.Content,
		Metadata:    maps.Clone(in.Metadata),
		Parent:      parent,
		Children:    []NodeID{},
		Branch:      branch,
		StepNumber:  step,
	}
	s.nodes[id] = n
	s.order = append(s.order, id)
	if p != nil {
		p.Children = append(p.Children, id)
	}
	return n, nil
}

// unlink removes a freshly created leaf. It exists only so the controller can
// undo a create when a later step of the same mutation fails.
func (s *nodeStore) unlink(id NodeID) {
	n, ok := s.nodes[id]
	if !ok || len(n.Children) > 0 {
		return
	}
	if p, ok := s.nodes[n.Parent]; ok {
		for i, c := range p.Children {
			if c == id {
				p.Children = append(p.Children[:i], p.Children[i+1:]...)
				break
			}
		}
	}
	delete(s.nodes, id)
	if last := len(s.order) - 1; last >= 0 && s.order[last] == id {
		s.order = s.order[:last]
	}
}

// insert registers an already-built node without touching any links. Used
// by Restore, which validates the whole graph afterwards.
func (s *nodeStore) insert(n *Node) error {
	if _, exists := s.nodes[n.ID]; exists {
		return fmt.Errorf("%w: duplicate node %q", ErrInvariant, n.ID)
	}
	s.nodes[n.ID] = n
	s.order = append(s.order, n.ID)
	return nil
}

func (s *nodeStore) get(id NodeID) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

func (s *nodeStore) len() int {
	return len(s.nodes)
}

// list returns the nodes in creation order.
func (s *nodeStore) list() []*Node {
	out := make([]*Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id])
	}
	return out
}
