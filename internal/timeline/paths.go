package timeline

import (
	"fmt"
	"slices"
)

// ErrNoPath is returned by FindPathBetween when the two nodes are not connected.
var ErrNoPath = fmt.Errorf("no path between nodes: %w", ErrNotFound)

// CurrentPath returns the nodes from the root of the active node's ancestry
// to the active node, in that order.
func (t *Timeline) CurrentPath() []Node {
	if _, ok := t.nodes.get(t.activeNode); !ok {
		return []Node{}
	}
	return t.pathToRoot(t.activeNode)
}

// PathTo returns the ancestry of id from its root down to id.
func (t *Timeline) PathTo(id NodeID) ([]Node, error) {
	if _, ok := t.nodes.get(id); !ok {
		return nil, fmt.Errorf("node %q: %w", id, ErrNotFound)
	}
	return t.pathToRoot(id), nil
}

// pathToRoot follows parent links upward from id and reverses the result.
func (t *Timeline) pathToRoot(id NodeID) []Node {
	var path []Node
	seen := make(map[NodeID]bool)
	for cur, ok := t.nodes.get(id); ok && !seen[cur.ID]; cur, ok = t.nodes.get(cur.Parent) {
		seen[cur.ID] = true
		path = append(path, cur.clone())
		if !cur.HasParent() {
			break
		}
	}
	slices.Reverse(path)
	return path
}

// AlternativePaths returns one continuation per immediate child of id. Each
// path starts at the child and follows the first-created child at every step
// until it reaches a leaf, so paths[0] always continues through the first
// child of id. It is a representative view, not an enumeration of all leaves.
func (t *Timeline) AlternativePaths(id NodeID) ([][]Node, error) {
	n, ok := t.nodes.get(id)
	if !ok {
		return nil, fmt.Errorf("node %q: %w", id, ErrNotFound)
	}

	paths := make([][]Node, 0, len(n.Children))
	for _, childID := range n.Children {
		var path []Node
		for cur, ok := t.nodes.get(childID); ok; {
			path = append(path, cur.clone())
			if len(cur.Children) == 0 {
				break
			}
			cur, ok = t.nodes.get(cur.Children[0])
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// FindPathBetween searches breadth-first from start for end, treating the
// history as undirected: from each node it explores children in creation
// order, then the parent. This allows paths across branches through a common
// ancestor. The returned path includes both endpoints.
func (t *Timeline) FindPathBetween(start, end NodeID) ([]Node, error) {
	if _, ok := t.nodes.get(start); !ok {
		return nil, fmt.Errorf("start node %q: %w", start, ErrNotFound)
	}
	if _, ok := t.nodes.get(end); !ok {
		return nil, fmt.Errorf("end node %q: %w", end, ErrNotFound)
	}

	prev := map[NodeID]NodeID{start: ""}
	queue := []NodeID{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur == end {
			return t.walkBack(prev, start, end), nil
		}

		n, ok := t.nodes.get(cur)
		if !ok {
			continue
		}
		neighbors := slices.Clone(n.Children)
		if n.HasParent() {
			neighbors = append(neighbors, n.Parent)
		}
		for _, next := range neighbors {
			if _, visited := prev[next]; visited {
				continue
			}
			if _, ok := t.nodes.get(next); !ok {
				continue
			}
			prev[next] = cur
			queue = append(queue, next)
		}
	}
	return nil, fmt.Errorf("from %q to %q: %w", start, end, ErrNoPath)
}

func (t *Timeline) walkBack(prev map[NodeID]NodeID, start, end NodeID) []Node {
	var path []Node
	for id := end; ; id = prev[id] {
		n, _ := t.nodes.get(id)
		path = append(path, n.clone())
		if id == start {
			break
		}
	}
	slices.Reverse(path)
	return path
}
