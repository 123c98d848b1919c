// Package persisttest provides an in-memory Repository for tests.
//
// It lives apart from testutil so packages the persistence adapter
// depends on can use the provider fakes without an import cycle.
package persisttest

import (
	"sort"
	"sync"

	"github.com/zjrosen/folio/internal/persist"
)

// MemoryRepository is an in-memory persist.Repository for tests.
type MemoryRepository struct {
	mu        sync.Mutex
	snapshots map[string]*persist.Snapshot

	SaveErr error
	LoadErr error

	SaveCount int
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{snapshots: make(map[string]*persist.Snapshot)}
}

func (r *MemoryRepository) Save(snapshot *persist.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SaveCount++
	if r.SaveErr != nil {
		return r.SaveErr
	}
	cp := *snapshot
	r.snapshots[snapshot.Project] = &cp
	return nil
}

func (r *MemoryRepository) Load(project string) (*persist.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.LoadErr != nil {
		return nil, r.LoadErr
	}
	snap, ok := r.snapshots[project]
	if !ok {
		return nil, &persist.SnapshotNotFoundError{Project: project}
	}
	cp := *snap
	return &cp, nil
}

func (r *MemoryRepository) Delete(project string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.snapshots, project)
	return nil
}

func (r *MemoryRepository) Projects() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	projects := make([]string, 0, len(r.snapshots))
	for p := range r.snapshots {
		projects = append(projects, p)
	}
	sort.Strings(projects)
	return projects, nil
}

func (r *MemoryRepository) Close() error { return nil }

// Stored returns the snapshot currently held for a project without the
// not-found error, or nil.
func (r *MemoryRepository) Stored(project string) *persist.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshots[project]
}

var _ persist.Repository = (*MemoryRepository)(nil)
