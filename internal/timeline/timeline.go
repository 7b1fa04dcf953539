package timeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// validate is shared; validator caches struct metadata and is safe for concurrent use.
var validate = validator.New()

// Timeline is the controller for one project's history. It is a state
// machine over the active cursor and the checkpoint table.
type Timeline struct {
	projectID   string
	description string
	createdAt   time.Time

	nodes    *nodeStore
	branches *branchStore

	mainBranch   BranchID
	activeBranch BranchID
	activeNode   NodeID
	checkpoints  map[string]Checkpoint

	opts Options
	log  *zap.Logger
}

// New creates a timeline with a main branch and a root plan node, both
// active, and binds the "initial" checkpoint to the root.
func New(projectID, description string, now time.Time, opts Options) (*Timeline, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, fmt.Errorf("%w: project id is required", ErrInvalidInput)
	}

	t := newEmpty(projectID, description, now, opts)

	main, err := t.branches.create(MainBranchName, "Main development line", "", "", now)
	if err != nil {
		return nil, err
	}
	root, err := t.nodes.create(NodeInput{
		Kind:        KindPlan,
		Title:       "Project started",
		Description: description,
	}, "", main.ID, now)
	if err != nil {
		return nil, err
	}
	if err := t.branches.appendNode(main.ID, root.ID); err != nil {
		return nil, err
	}

	t.mainBranch = main.ID
	t.activeBranch = main.ID
	t.activeNode = root.ID
	t.bindCheckpoint(InitialCheckpoint, root.ID, main.ID)

	t.log.Debug("timeline created",
		zap.String("branch", string(main.ID)),
		zap.String("node", string(root.ID)),
	)
	return t, nil
}

func newEmpty(projectID, description string, createdAt time.Time, opts Options) *Timeline {
	opts = opts.withDefaults()
	return &Timeline{
		projectID:   projectID,
		description: description,
		createdAt:   createdAt,
		nodes:       newNodeStore(opts.NewID),
		branches:    newBranchStore(opts.MaxBranches, opts.NewID),
		checkpoints: make(map[string]Checkpoint),
		opts:        opts,
		log:         opts.Logger.With(zap.String("project", projectID)),
	}
}

// ─── Mutations ───────────────────────────────────────────────────────────────

// AddNode records a new event as a child of the active node on the active
// branch and moves the cursor to it. The auto-checkpoint policy is evaluated
// afterwards using now as the current time.
func (t *Timeline) AddNode(in NodeInput, now time.Time) (Node, error) {
	if err := validateInput(in); err != nil {
		return Node{}, err
	}
	branch, parent, err := t.cursor()
	if err != nil {
		return Node{}, err
	}

	n, err := t.nodes.create(in, parent.ID, branch.ID, now)
	if err != nil {
		return Node{}, err
	}
	if err := t.branches.appendNode(branch.ID, n.ID); err != nil {
		t.nodes.unlink(n.ID)
		return Node{}, err
	}
	t.activeNode = n.ID

	t.autoCheckpoint(n, now)
	return n.clone(), nil
}

// NavigateToNode moves the cursor to the node. The active branch is kept when
// it already lists the node (a fork's branch point, or an earlier step of the
// same line); otherwise the cursor moves to the branch the node was created
// on. No content changes.
func (t *Timeline) NavigateToNode(id NodeID) error {
	n, ok := t.nodes.get(id)
	if !ok {
		return fmt.Errorf("node %q: %w", id, ErrNotFound)
	}
	if b, ok := t.branches.get(t.activeBranch); ok && b.Contains(n.ID) {
		t.activeNode = n.ID
		return nil
	}
	return t.moveCursor(n.Branch, n.ID)
}

// NavigateToBranch moves the cursor to the newest node of the branch. For a
// fork with no nodes of its own that is its branch point, so an empty fork
// can be re-entered.
func (t *Timeline) NavigateToBranch(id BranchID) (Node, error) {
	b, ok := t.branches.get(id)
	if !ok {
		return Node{}, fmt.Errorf("branch %q: %w", id, ErrNotFound)
	}
	if len(b.Nodes) == 0 {
		return Node{}, fmt.Errorf("%w: branch %q has no nodes", ErrInvariant, id)
	}
	tip := b.Nodes[len(b.Nodes)-1]
	if err := t.moveCursor(b.ID, tip); err != nil {
		return Node{}, err
	}
	return t.Node(tip)
}

// CreateBranch forks a new branch at the active node. The new branch becomes
// the only active branch and the cursor stays on the fork point.
func (t *Timeline) CreateBranch(name, description string, now time.Time) (Branch, error) {
	if strings.TrimSpace(name) == "" {
		return Branch{}, fmt.Errorf("%w: branch name is required", ErrInvalidInput)
	}
	from, at, err := t.cursor()
	if err != nil {
		return Branch{}, err
	}

	b, err := t.branches.create(name, description, from.ID, at.ID, now)
	if err != nil {
		return Branch{}, err
	}
	t.activeBranch = b.ID

	t.log.Debug("branch created",
		zap.String("branch", string(b.ID)),
		zap.String("name", name),
		zap.String("from", string(from.ID)),
		zap.String("node", string(at.ID)),
	)
	return b.clone(), nil
}

// CreateCheckpoint binds name to the active node and active branch,
// rebinding it if it exists.
func (t *Timeline) CreateCheckpoint(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: checkpoint name is required", ErrInvalidInput)
	}
	b, n, err := t.cursor()
	if err != nil {
		return err
	}
	t.bindCheckpoint(name, n.ID, b.ID)
	return nil
}

// NavigateToCheckpoint restores the cursor (node and branch) recorded under
// name. The cursor is unchanged when name is unknown.
func (t *Timeline) NavigateToCheckpoint(name string) error {
	cp, ok := t.checkpoints[name]
	if !ok {
		return fmt.Errorf("checkpoint %q: %w", name, ErrNotFound)
	}
	if _, ok := t.nodes.get(cp.NodeID); !ok {
		return fmt.Errorf("checkpoint %q node %q: %w", name, cp.NodeID, ErrNotFound)
	}
	return t.moveCursor(cp.Branch, cp.NodeID)
}

func (t *Timeline) bindCheckpoint(name string, node NodeID, branch BranchID) {
	t.checkpoints[name] = Checkpoint{Name: name, NodeID: node, Branch: branch}
}

// moveCursor activates branch and points the cursor at node, which must be
// listed on it.
func (t *Timeline) moveCursor(branch BranchID, node NodeID) error {
	b, ok := t.branches.get(branch)
	if !ok {
		return fmt.Errorf("%w: branch %q missing", ErrInvariant, branch)
	}
	if !b.Contains(node) {
		return fmt.Errorf("%w: node %q is not on branch %q", ErrInvariant, node, branch)
	}
	t.branches.activate(b.ID)
	t.activeBranch = b.ID
	t.activeNode = node
	return nil
}

// cursor resolves the active branch and node. A missing branch or node means
// the timeline was never initialized; an active node outside the active
// branch is a defect and panics.
func (t *Timeline) cursor() (*Branch, *Node, error) {
	b, ok := t.branches.get(t.activeBranch)
	if !ok {
		return nil, nil, fmt.Errorf("active branch %q: %w", t.activeBranch, ErrNotFound)
	}
	n, ok := t.nodes.get(t.activeNode)
	if !ok {
		return nil, nil, fmt.Errorf("active node %q: %w", t.activeNode, ErrNotFound)
	}
	if !b.Contains(n.ID) {
		panic(fmt.Errorf("%w: active node %q is not on active branch %q", ErrInvariant, n.ID, b.ID))
	}
	return b, n, nil
}

func validateInput(in NodeInput) error {
	if err := ValidateKind(in.Kind); err != nil {
		return err
	}
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// ─── Accessors ───────────────────────────────────────────────────────────────

// ProjectID returns the identifier of the owning project.
func (t *Timeline) ProjectID() string { return t.projectID }

// Description returns the description given at creation.
func (t *Timeline) Description() string { return t.description }

// CreatedAt returns when the timeline was created.
func (t *Timeline) CreatedAt() time.Time { return t.createdAt }

// NodeCount returns the number of nodes across all branches.
func (t *Timeline) NodeCount() int { return t.nodes.len() }

// BranchCount returns the number of branches, main included.
func (t *Timeline) BranchCount() int { return t.branches.len() }

// MaxBranches returns the configured branch cap.
func (t *Timeline) MaxBranches() int { return t.opts.MaxBranches }

// MainBranch returns a copy of the branch created with the timeline.
func (t *Timeline) MainBranch() Branch {
	b, _ := t.Branch(t.mainBranch)
	return b
}

// ActiveBranch returns a copy of the branch under the cursor.
func (t *Timeline) ActiveBranch() Branch {
	b, _ := t.Branch(t.activeBranch)
	return b
}

// ActiveNode returns a copy of the node under the cursor.
func (t *Timeline) ActiveNode() Node {
	n, _ := t.Node(t.activeNode)
	return n
}

// Node returns a copy of the node with the given id.
func (t *Timeline) Node(id NodeID) (Node, error) {
	n, ok := t.nodes.get(id)
	if !ok {
		return Node{}, fmt.Errorf("node %q: %w", id, ErrNotFound)
	}
	return n.clone(), nil
}

// Branch returns a copy of the branch with the given id.
func (t *Timeline) Branch(id BranchID) (Branch, error) {
	b, ok := t.branches.get(id)
	if !ok {
		return Branch{}, fmt.Errorf("branch %q: %w", id, ErrNotFound)
	}
	return b.clone(), nil
}

// Branches returns copies of all branches in creation order.
func (t *Timeline) Branches() []Branch {
	list := t.branches.list()
	out := make([]Branch, 0, len(list))
	for _, b := range list {
		out = append(out, b.clone())
	}
	return out
}

// Nodes returns copies of all nodes in creation order.
func (t *Timeline) Nodes() []Node {
	list := t.nodes.list()
	out := make([]Node, 0, len(list))
	for _, n := range list {
		out = append(out, n.clone())
	}
	return out
}

// Checkpoints returns all checkpoints sorted by name.
func (t *Timeline) Checkpoints() []Checkpoint {
	out := make([]Checkpoint, 0, len(t.checkpoints))
	for _, cp := range t.checkpoints {
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Checkpoint returns the node bound to name.
func (t *Timeline) Checkpoint(name string) (Node, error) {
	cp, ok := t.checkpoints[name]
	if !ok {
		return Node{}, fmt.Errorf("checkpoint %q: %w", name, ErrNotFound)
	}
	return t.Node(cp.NodeID)
}
