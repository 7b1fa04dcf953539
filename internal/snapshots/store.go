// Package snapshots persists timeline snapshots between runs.
//
// Two backends are available: SQLite (the default, one row per project) and
// plain JSON files (one file per project, easy to inspect and diff). Both
// serialize timeline.Snapshot with sonic.
package snapshots

import (
	"fmt"
	"time"

	"github.com/eazylee337/justbuilt/internal/timeline"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// timeNow is a package-level var to allow test injection.
var timeNow = time.Now

// Summary describes a stored snapshot without decoding its history.
type Summary struct {
	ProjectID   string    `json:"project_id"`
	Description string    `json:"description,omitempty"`
	NodeCount   int       `json:"node_count"`
	BranchCount int       `json:"branch_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store defines the persistence interface for timeline snapshots.
// Abstracted for testability (DIP).
type Store interface {
	// Save writes the snapshot, replacing any previous one for the project.
	Save(s timeline.Snapshot) error
	// Load returns the project's snapshot. A missing project wraps timeline.ErrNotFound.
	Load(projectID string) (timeline.Snapshot, error)
	// Delete removes the project's snapshot. A missing project wraps timeline.ErrNotFound.
	Delete(projectID string) error
	// List returns one summary per stored project, sorted by project id.
	List() ([]Summary, error)
	Close() error
}

// Open returns the store for backend, rooted at dataDir.
func Open(backend, dataDir string) (Store, error) {
	switch backend {
	case BackendSQLite, "":
		return NewSQLiteStore(dataDir)
	case BackendFile:
		return NewFileStore(dataDir)
	default:
		return nil, fmt.Errorf("snapshots: unknown backend %q", backend)
	}
}

func summarize(s timeline.Snapshot, updated time.Time) Summary {
	return Summary{
		ProjectID:   s.ProjectID,
		Description: s.Description,
		NodeCount:   len(s.Nodes),
		BranchCount: len(s.Branches),
		UpdatedAt:   updated,
	}
}

func notFound(projectID string) error {
	return fmt.Errorf("snapshots: project %q: %w", projectID, timeline.ErrNotFound)
}
