package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/zjrosen/folio/internal/persist"
	"github.com/zjrosen/folio/internal/tab"
)

// SnapshotModel represents the database row for the snapshots table.
// Tabs and Sessions are JSON-encoded; time values are Unix timestamps.
type SnapshotModel struct {
	ID        int64
	GUID      string
	Project   string
	ActiveTab *string // nullable
	ActiveGrp *string // nullable
	Tabs      string  // JSON array of tab descriptors
	Sessions  string  // JSON map of id -> session data
	SavedAt   int64
	UpdatedAt int64
}

// toSnapshotModel converts a domain Snapshot to a database row.
func toSnapshotModel(s *persist.Snapshot) (*SnapshotModel, error) {
	tabs, err := json.Marshal(s.Tabs)
	if err != nil {
		return nil, fmt.Errorf("encoding tab descriptors: %w", err)
	}
	sessions, err := json.Marshal(s.Sessions)
	if err != nil {
		return nil, fmt.Errorf("encoding session data: %w", err)
	}

	m := &SnapshotModel{
		Project:   s.Project,
		Tabs:      string(tabs),
		Sessions:  string(sessions),
		SavedAt:   s.SavedAt.Unix(),
		UpdatedAt: time.Now().Unix(),
	}
	if s.ActiveTab != "" {
		m.ActiveTab = &s.ActiveTab
	}
	if s.ActiveGroup != "" {
		m.ActiveGrp = &s.ActiveGroup
	}
	return m, nil
}

// toDomain converts a database row back into a Snapshot. An error here
// means the stored payload is corrupt.
func (m *SnapshotModel) toDomain() (*persist.Snapshot, error) {
	s := &persist.Snapshot{
		Project:  m.Project,
		Sessions: make(map[string]tab.SessionData),
		SavedAt:  time.Unix(m.SavedAt, 0),
	}
	if m.ActiveTab != nil {
		s.ActiveTab = *m.ActiveTab
	}
	if m.ActiveGrp != nil {
		s.ActiveGroup = *m.ActiveGrp
	}

	if err := json.Unmarshal([]byte(m.Tabs), &s.Tabs); err != nil {
		return nil, fmt.Errorf("decoding tab descriptors: %w", err)
	}
	if err := json.Unmarshal([]byte(m.Sessions), &s.Sessions); err != nil {
		return nil, fmt.Errorf("decoding session data: %w", err)
	}
	return s, nil
}
