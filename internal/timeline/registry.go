package timeline

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Registry holds one timeline per project. Each timeline has its own mutex;
// operations on different projects never contend. The registry is owned by
// the caller and its timelines live until Discard.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	opts    Options
}

type entry struct {
	mu        sync.Mutex
	tl        *Timeline
	discarded bool
}

// run calls fn under the entry lock. A discarded entry fails with ErrNotFound
// without calling fn.
func (e *entry) run(projectID string, fn func(*Timeline) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.discarded {
		return fmt.Errorf("timeline for project %q: %w", projectID, ErrNotFound)
	}
	return fn(e.tl)
}

// NewRegistry creates an empty registry whose timelines use opts.
func NewRegistry(opts Options) *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		opts:    opts,
	}
}

// Create builds the timeline for projectID. Creating a timeline for a
// project that already has one fails with ErrAlreadyExists; the existing
// timeline is left untouched.
func (r *Registry) Create(projectID, description string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[projectID]; exists {
		return fmt.Errorf("timeline for project %q: %w", projectID, ErrAlreadyExists)
	}
	tl, err := New(projectID, description, now, r.opts)
	if err != nil {
		return err
	}
	r.entries[projectID] = &entry{tl: tl}
	return nil
}

// Load registers a timeline rebuilt from a snapshot through Restore, without
// any creation side effects.
func (r *Registry) Load(s Snapshot) error {
	tl, err := Restore(s, r.opts)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[s.ProjectID]; exists {
		return fmt.Errorf("timeline for project %q: %w", s.ProjectID, ErrAlreadyExists)
	}
	r.entries[s.ProjectID] = &entry{tl: tl}
	return nil
}

// Update runs fn with exclusive access to the project's timeline. Each
// Timeline operation is atomic on its own; Update does not roll back earlier
// operations when a later one inside fn fails.
func (r *Registry) Update(projectID string, fn func(*Timeline) error) error {
	e, err := r.lookup(projectID)
	if err != nil {
		return err
	}
	return e.run(projectID, fn)
}

// View runs fn with exclusive access to the project's timeline. fn must not
// mutate it.
func (r *Registry) View(projectID string, fn func(*Timeline) error) error {
	return r.Update(projectID, fn)
}

// CurrentPath returns the project's current path, or an empty path when the
// project has no timeline.
func (r *Registry) CurrentPath(projectID string) []Node {
	path := []Node{}
	_ = r.View(projectID, func(tl *Timeline) error {
		path = tl.CurrentPath()
		return nil
	})
	return path
}

// Has reports whether the project has a timeline.
func (r *Registry) Has(projectID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[projectID]
	return ok
}

// Discard drops the project's timeline. It waits for an Update already
// running on the timeline to return; Updates that looked the timeline up
// earlier but have not started fail with ErrNotFound.
func (r *Registry) Discard(projectID string) error {
	r.mu.Lock()
	e, ok := r.entries[projectID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("timeline for project %q: %w", projectID, ErrNotFound)
	}
	delete(r.entries, projectID)
	r.mu.Unlock()

	e.mu.Lock()
	e.discarded = true
	e.mu.Unlock()
	return nil
}

// Projects returns the ids of all projects with a timeline, sorted.
func (r *Registry) Projects() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for id := range r.entries {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) lookup(projectID string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[projectID]
	if !ok {
		return nil, fmt.Errorf("timeline for project %q: %w", projectID, ErrNotFound)
	}
	return e, nil
}
