package timeline

import "fmt"

// NodeComparison is a field-level difference report between two nodes.
// Content is compared as an opaque string; there is no structural diff.
type NodeComparison struct {
	NodeA              Node `json:"node_a"`
	NodeB              Node `json:"node_b"`
	TitleChanged       bool `json:"title_changed"`
	KindChanged        bool `json:"kind_changed"`
	ContentChanged     bool `json:"content_changed"`
	DescriptionChanged bool `json:"description_changed"`
	StepDelta          int  `json:"step_delta"`
}

// Identical reports whether no compared field differs.
func (c NodeComparison) Identical() bool {
	return !c.TitleChanged && !c.KindChanged && !c.ContentChanged && !c.DescriptionChanged
}

// CompareNodes reports which fields differ between a and b.
func (t *Timeline) CompareNodes(a, b NodeID) (NodeComparison, error) {
	na, err := t.Node(a)
	if err != nil {
		return NodeComparison{}, err
	}
	nb, err := t.Node(b)
	if err != nil {
		return NodeComparison{}, err
	}
	return NodeComparison{
		NodeA:              na,
		NodeB:              nb,
		TitleChanged:       na.Title != nb.Title,
		KindChanged:        na.Kind != nb.Kind,
		ContentChanged:     na.Content != nb.Content,
		DescriptionChanged: na.Description != nb.Description,
		StepDelta:          nb.StepNumber - na.StepNumber,
	}, nil
}

// ChangesSummary tallies the events between two nodes.
type ChangesSummary struct {
	Start        NodeID           `json:"start"`
	End          NodeID           `json:"end"`
	Path         []NodeID         `json:"path"`
	TotalChanges int              `json:"total_changes"`
	ByKind       map[NodeKind]int `json:"by_kind"`
}

// ChangesSummary finds the path from start to end with FindPathBetween and
// counts node kinds along it, excluding the start node.
func (t *Timeline) ChangesSummary(start, end NodeID) (ChangesSummary, error) {
	path, err := t.FindPathBetween(start, end)
	if err != nil {
		return ChangesSummary{}, fmt.Errorf("summarizing changes: %w", err)
	}

	s := ChangesSummary{
		Start:  start,
		End:    end,
		Path:   make([]NodeID, 0, len(path)),
		ByKind: make(map[NodeKind]int),
	}
	for i, n := range path {
		s.Path = append(s.Path, n.ID)
		if i == 0 {
			continue
		}
		s.ByKind[n.Kind]++
		s.TotalChanges++
	}
	return s, nil
}
