package snapshots

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/eazylee337/justbuilt/internal/timeline"
)

const (
	// TimelinesDir is the subdirectory of the data directory holding snapshot files.
	TimelinesDir = "timelines"
	fileExt      = ".json"
)

// FileStore implements Store using one indented JSON file per project.
type FileStore struct {
	dir string
}

// NewFileStore creates a filesystem-backed snapshot store under dataDir.
func NewFileStore(dataDir string) (*FileStore, error) {
	dir := filepath.Join(dataDir, TimelinesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshots: creating timelines directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the file a project's snapshot is written to. Project ids are
// path-escaped so any id maps to a single file inside the store directory.
func (fs *FileStore) Path(projectID string) string {
	return filepath.Join(fs.dir, url.PathEscape(projectID)+fileExt)
}

// Save writes the snapshot to a temporary file and renames it into place.
func (fs *FileStore) Save(snap timeline.Snapshot) error {
	data, err := sonic.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshots: marshaling %q: %w", snap.ProjectID, err)
	}

	path := fs.Path(snap.ProjectID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("snapshots: writing %q: %w", snap.ProjectID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("snapshots: replacing %q: %w", snap.ProjectID, err)
	}
	return nil
}

// Load reads a project's snapshot file.
func (fs *FileStore) Load(projectID string) (timeline.Snapshot, error) {
	data, err := os.ReadFile(fs.Path(projectID))
	if err != nil {
		if os.IsNotExist(err) {
			return timeline.Snapshot{}, notFound(projectID)
		}
		return timeline.Snapshot{}, fmt.Errorf("snapshots: reading %q: %w", projectID, err)
	}

	var snap timeline.Snapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		return timeline.Snapshot{}, fmt.Errorf("snapshots: parsing %q: %w", projectID, err)
	}
	return snap, nil
}

// Delete removes a project's snapshot file.
func (fs *FileStore) Delete(projectID string) error {
	if err := os.Remove(fs.Path(projectID)); err != nil {
		if os.IsNotExist(err) {
			return notFound(projectID)
		}
		return fmt.Errorf("snapshots: removing %q: %w", projectID, err)
	}
	return nil
}

// List decodes every snapshot file. Unreadable files are skipped.
func (fs *FileStore) List() ([]Summary, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Summary{}, nil
		}
		return nil, fmt.Errorf("snapshots: reading timelines directory: %w", err)
	}

	out := []Summary{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		projectID, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue
		}
		snap, err := fs.Load(projectID)
		if err != nil {
			continue // skip unreadable snapshots
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, summarize(snap, info.ModTime().UTC()))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ProjectID < out[j].ProjectID })
	return out, nil
}

// Close is a no-op; files are closed after every operation.
func (fs *FileStore) Close() error {
	return nil
}
