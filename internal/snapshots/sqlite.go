package snapshots

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/eazylee337/justbuilt/internal/timeline"

	_ "modernc.org/sqlite"
)

// DatabaseFile is the SQLite file created inside the data directory.
const DatabaseFile = "timelines.db"

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// SQLiteStore keeps one row per project, with the snapshot encoded as JSON.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database under dataDir.
// It creates the data directory if needed, opens SQLite with WAL mode,
// and runs migrations.
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("snapshots: create data dir: %w", err)
	}

	db, err := openDB("sqlite", filepath.Join(dataDir, DatabaseFile))
	if err != nil {
		return nil, fmt.Errorf("snapshots: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("snapshots: pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("snapshots: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS snapshots (
			project_id   TEXT PRIMARY KEY,
			description  TEXT NOT NULL DEFAULT '',
			version      INTEGER NOT NULL,
			node_count   INTEGER NOT NULL,
			branch_count INTEGER NOT NULL,
			payload      TEXT NOT NULL,
			updated_at   TEXT NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Save upserts the project's snapshot.
func (s *SQLiteStore) Save(snap timeline.Snapshot) error {
	payload, err := sonic.Marshal(snap)
	if err != nil {
		return fmt.Errorf("snapshots: encode %q: %w", snap.ProjectID, err)
	}

	_, err = s.db.Exec(
		`INSERT INTO snapshots (project_id, description, version, node_count, branch_count, payload, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(project_id) DO UPDATE SET
		   description  = excluded.description,
		   version      = excluded.version,
		   node_count   = excluded.node_count,
		   branch_count = excluded.branch_count,
		   payload      = excluded.payload,
		   updated_at   = excluded.updated_at`,
		snap.ProjectID, snap.Description, snap.Version,
		len(snap.Nodes), len(snap.Branches),
		string(payload), timeNow().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("snapshots: save %q: %w", snap.ProjectID, err)
	}
	return nil
}

// Load reads and decodes the project's snapshot.
func (s *SQLiteStore) Load(projectID string) (timeline.Snapshot, error) {
	var payload string
	err := s.db.QueryRow(
		"SELECT payload FROM snapshots WHERE project_id = ?", projectID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return timeline.Snapshot{}, notFound(projectID)
	}
	if err != nil {
		return timeline.Snapshot{}, fmt.Errorf("snapshots: load %q: %w", projectID, err)
	}

	var snap timeline.Snapshot
	if err := sonic.Unmarshal([]byte(payload), &snap); err != nil {
		return timeline.Snapshot{}, fmt.Errorf("snapshots: decode %q: %w", projectID, err)
	}
	return snap, nil
}

// Delete removes the project's row.
func (s *SQLiteStore) Delete(projectID string) error {
	res, err := s.db.Exec("DELETE FROM snapshots WHERE project_id = ?", projectID)
	if err != nil {
		return fmt.Errorf("snapshots: delete %q: %w", projectID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(projectID)
	}
	return nil
}

// List summarizes every stored project from the row columns alone.
func (s *SQLiteStore) List() ([]Summary, error) {
	rows, err := s.db.Query(
		`SELECT project_id, description, node_count, branch_count, updated_at
		 FROM snapshots ORDER BY project_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("snapshots: list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []Summary{}
	for rows.Next() {
		var (
			sum     Summary
			updated string
		)
		if err := rows.Scan(&sum.ProjectID, &sum.Description, &sum.NodeCount, &sum.BranchCount, &updated); err != nil {
			return nil, err
		}
		sum.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, sum)
	}
	return out, rows.Err()
}
