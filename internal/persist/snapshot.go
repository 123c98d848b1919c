// Package persist defines the minimal session snapshot persisted
// between runs and the repository interface for storing it. The
// snapshot is lazy-loadable: it carries tab descriptors (display
// metadata only) rather than content, so a tab bar can be rebuilt
// instantly as lazy placeholders while real content loads in the
// background.
//
// This package has no storage dependencies; the SQLite implementation
// lives in internal/infrastructure/sqlite.
package persist

import (
	"fmt"
	"time"

	"github.com/zjrosen/folio/internal/tab"
)

// TabDescriptor is the persisted shape of one open tab. Kind uses the
// tab.Kind string form ("file", "diff", "chat").
type TabDescriptor struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	DisplayName string `json:"displayName"`
	Group       string `json:"group"`
	Pinned      bool   `json:"pinned,omitempty"`

	// Diff metadata.
	SourcePath string `json:"sourcePath,omitempty"`
	Staged     bool   `json:"staged,omitempty"`

	// Chat metadata.
	ChatSessionID string `json:"chatSessionId,omitempty"`
}

// Snapshot is the persisted session state for one project: ordered tab
// descriptors, focus, and per-tab session data. The preview tab is
// ephemeral and never persisted.
type Snapshot struct {
	Project     string
	Tabs        []TabDescriptor
	ActiveTab   string
	ActiveGroup string
	Sessions    map[string]tab.SessionData
	SavedAt     time.Time
}

// SnapshotNotFoundError indicates no snapshot exists for a project.
// A corrupt snapshot is reported the same way: restoration proceeds as
// a first run rather than failing.
type SnapshotNotFoundError struct {
	Project string
}

func (e *SnapshotNotFoundError) Error() string {
	return fmt.Sprintf("no snapshot for project: %s", e.Project)
}

// Repository is the persistence interface for snapshots.
// Implementations may use SQLite, in-memory storage, or other
// backends.
type Repository interface {
	// Save persists the snapshot, replacing any previous one for the
	// same project.
	Save(snapshot *Snapshot) error

	// Load retrieves the snapshot for a project. Returns
	// SnapshotNotFoundError when none exists or the stored snapshot
	// fails to parse.
	Load(project string) (*Snapshot, error)

	// Delete removes the snapshot for a project. Deleting a missing
	// snapshot is not an error.
	Delete(project string) error

	// Projects lists the projects with stored snapshots.
	Projects() ([]string, error)

	// Close releases any resources held by the repository.
	Close() error
}
