package timeline

// GraphView is a read-only projection of the timeline for rendering.
type GraphView struct {
	ProjectID    string          `json:"project_id"`
	ActiveBranch BranchID        `json:"active_branch"`
	ActiveNode   NodeID          `json:"active_node"`
	Nodes        []GraphNode     `json:"nodes"`
	Edges        []GraphEdge     `json:"edges"`
	Branches     []BranchSummary `json:"branches"`
}

// GraphNode is a labelled node in the projection.
type GraphNode struct {
	ID          NodeID   `json:"id"`
	Label       string   `json:"label"`
	Kind        NodeKind `json:"kind"`
	Branch      BranchID `json:"branch"`
	StepNumber  int      `json:"step_number"`
	Active      bool     `json:"active"`
	Checkpoints []string `json:"checkpoints,omitempty"`
}

// GraphEdge links a parent to a child.
type GraphEdge struct {
	From NodeID `json:"from"`
	To   NodeID `json:"to"`
}

// BranchSummary describes a branch without its node list.
type BranchSummary struct {
	ID           BranchID `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	IsActive     bool     `json:"is_active"`
	NodeCount    int      `json:"node_count"`
	ParentBranch BranchID `json:"parent_branch,omitempty"`
	BranchPoint  NodeID   `json:"branch_point,omitempty"`
}

// Graph builds the projection. Nodes and branches are in creation order;
// edges follow each node's children in creation order.
func (t *Timeline) Graph() GraphView {
	byNode := make(map[NodeID][]string)
	for _, cp := range t.Checkpoints() {
		byNode[cp.NodeID] = append(byNode[cp.NodeID], cp.Name)
	}

	g := GraphView{
		ProjectID:    t.projectID,
		ActiveBranch: t.activeBranch,
		ActiveNode:   t.activeNode,
		Nodes:        []GraphNode{},
		Edges:        []GraphEdge{},
		Branches:     []BranchSummary{},
	}
	for _, n := range t.nodes.list() {
		g.Nodes = append(g.Nodes, GraphNode{
			ID:          n.ID,
			Label:       n.Title,
			Kind:        n.Kind,
			Branch:      n.Branch,
			StepNumber:  n.StepNumber,
			Active:      n.ID == t.activeNode,
			Checkpoints: byNode[n.ID],
		})
		for _, c := range n.Children {
			g.Edges = append(g.Edges, GraphEdge{From: n.ID, To: c})
		}
	}
	for _, b := range t.branches.list() {
		g.Branches = append(g.Branches, BranchSummary{
			ID:           b.ID,
			Name:         b.Name,
			Description:  b.Description,
			IsActive:     b.IsActive,
			NodeCount:    len(b.Nodes),
			ParentBranch: b.ParentBranch,
			BranchPoint:  b.BranchPoint,
		})
	}
	return g
}
