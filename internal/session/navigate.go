package session

import (
	"github.com/zjrosen/folio/internal/log"
	"github.com/zjrosen/folio/internal/nav"
	"github.com/zjrosen/folio/internal/tab"
)

// NavigateBack steps to the previous distinct document in history,
// pruning entries whose tabs have since closed. On success the target
// tab is activated without recording a new visit, its cursor record is
// updated to the remembered position, and the rendering collaborator
// is asked to move there.
func (s *Store) NavigateBack() bool {
	s.mu.Lock()

	entry, ok := s.history.Back(func(id string) bool {
		_, exists := s.tabs[id]
		return exists
	})
	if !ok {
		s.mu.Unlock()
		return false
	}

	s.applyNavigationLocked(entry)

	cursor := s.cursor
	pos := entry.Position
	s.mu.Unlock()

	if cursor != nil {
		cursor.SetPosition(pos)
		cursor.RevealLine(pos.Line)
		cursor.Focus()
	}
	log.Debug(log.CatNav, "navigated back", "id", entry.TabID)
	return true
}

// NavigateForward is the mirror of NavigateBack.
func (s *Store) NavigateForward() bool {
	s.mu.Lock()

	entry, ok := s.history.Forward(func(id string) bool {
		_, exists := s.tabs[id]
		return exists
	})
	if !ok {
		s.mu.Unlock()
		return false
	}

	s.applyNavigationLocked(entry)

	cursor := s.cursor
	pos := entry.Position
	s.mu.Unlock()

	if cursor != nil {
		cursor.SetPosition(pos)
		cursor.RevealLine(pos.Line)
		cursor.Focus()
	}
	log.Debug(log.CatNav, "navigated forward", "id", entry.TabID)
	return true
}

// applyNavigationLocked activates the entry's tab in its owning group
// and updates the cursor-session record for the target.
func (s *Store) applyNavigationLocked(entry nav.Entry) {
	gid := GroupID(entry.Group)
	if s.groupLocked(gid) == nil {
		gid = s.activeG
	}
	// The tab may have moved groups since the visit was recorded.
	if s.groups[gid].indexOf(entry.TabID) < 0 {
		if owner := s.ownerLocked(entry.TabID); owner != "" {
			gid = owner
		} else if s.hasPreviewLocked(entry.TabID) {
			gid = s.preview.group
		}
	}

	s.activateLocked(gid, entry.TabID, false, nil)

	if f, ok := s.tabs[entry.TabID].(*tab.File); ok {
		f.Session.Cursor = entry.Position
	}
}

// CanGoBack reports whether a back navigation could succeed.
func (s *Store) CanGoBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanGoBack()
}

// CanGoForward reports whether the caller has stepped back in history.
func (s *Store) CanGoForward() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanGoForward()
}

// HistoryEntries returns a copy of the navigation history, oldest
// first.
func (s *Store) HistoryEntries() []nav.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Entries()
}

// HistoryIndex returns the history pointer, -1 meaning the live end.
func (s *Store) HistoryIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Index()
}
