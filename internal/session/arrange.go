package session

import (
	"github.com/zjrosen/folio/internal/log"
	"github.com/zjrosen/folio/internal/tab"
)

// SetActive focuses a tab. With pushHistory the visit is appended to
// navigation history, subject to consecutive-duplicate suppression and
// branch truncation; restore paths pass false to avoid polluting
// history. Returns false if id is not open in the group.
func (s *Store) SetActive(gid GroupID, id string, pushHistory bool, pos *tab.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groupLocked(gid)
	if g == nil {
		return false
	}
	if g.indexOf(id) < 0 && !(s.hasPreviewLocked(id) && s.preview.group == gid) {
		return false
	}

	s.recordCurrentVisitLocked(gid, id)
	s.activateLocked(gid, id, pushHistory, pos)
	return true
}

// ConvertPreviewToPermanent moves the preview tab, if any, to the end
// of its group's open-tab list and clears the preview slot.
func (s *Store) ConvertPreviewToPermanent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.convertPreviewLocked()
}

func (s *Store) convertPreviewLocked() bool {
	if s.preview.id == "" {
		return false
	}

	id, gid := s.preview.id, s.preview.group
	g := s.groups[gid]
	g.openTabs = append(g.openTabs, id)
	s.preview = previewSlot{}

	log.Debug(log.CatSession, "preview converted to permanent", "id", id)
	s.publish(TabListChanged, gid, id)
	return true
}

// ReorderTabs moves the tab at fromIndex to toIndex within the group's
// open list. A pinned tab never crosses into the unpinned region and
// vice versa: the target index is clamped to the moving tab's side of
// the pin boundary.
func (s *Store) ReorderTabs(gid GroupID, fromIndex, toIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groupLocked(gid)
	if g == nil {
		return false
	}
	if fromIndex < 0 || fromIndex >= len(g.openTabs) {
		return false
	}

	id := g.openTabs[fromIndex]
	boundary := len(g.pinned)

	if g.isPinned(id) {
		toIndex = clamp(toIndex, 0, boundary-1)
	} else {
		toIndex = clamp(toIndex, boundary, len(g.openTabs)-1)
	}
	if toIndex == fromIndex {
		return true
	}

	g.openTabs = append(g.openTabs[:fromIndex], g.openTabs[fromIndex+1:]...)
	g.openTabs = append(g.openTabs[:toIndex], append([]string{id}, g.openTabs[toIndex:]...)...)

	// Keep the pin-order slice aligned with the prefix.
	if g.isPinned(id) {
		g.pinned = append([]string{}, g.openTabs[:boundary]...)
	}

	s.publish(TabListChanged, gid, id)
	return true
}

// Pin moves id to the end of the pinned prefix. Idempotent.
func (s *Store) Pin(gid GroupID, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groupLocked(gid)
	if g == nil {
		return false
	}
	if g.isPinned(id) {
		return true
	}
	idx := g.indexOf(id)
	if idx < 0 {
		return false
	}

	g.openTabs = append(g.openTabs[:idx], g.openTabs[idx+1:]...)
	insert := len(g.pinned)
	g.openTabs = append(g.openTabs[:insert], append([]string{id}, g.openTabs[insert:]...)...)
	g.pinned = append(g.pinned, id)

	log.Debug(log.CatSession, "pinned tab", "id", id)
	s.publish(TabListChanged, gid, id)
	return true
}

// Unpin moves id to the start of the unpinned suffix. Idempotent.
func (s *Store) Unpin(gid GroupID, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groupLocked(gid)
	if g == nil {
		return false
	}
	if !g.isPinned(id) {
		return g.indexOf(id) >= 0
	}

	idx := g.indexOf(id)
	for i, p := range g.pinned {
		if p == id {
			g.pinned = append(g.pinned[:i], g.pinned[i+1:]...)
			break
		}
	}

	g.openTabs = append(g.openTabs[:idx], g.openTabs[idx+1:]...)
	insert := len(g.pinned)
	g.openTabs = append(g.openTabs[:insert], append([]string{id}, g.openTabs[insert:]...)...)

	log.Debug(log.CatSession, "unpinned tab", "id", id)
	s.publish(TabListChanged, gid, id)
	return true
}

// CreateGroup adds an empty tab group. No-op if the id already exists.
func (s *Store) CreateGroup(gid GroupID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[gid]; ok {
		return
	}
	s.groups[gid] = &group{}
	s.order = append(s.order, gid)
}

// CloseGroup closes every tab in the group, then removes it. The
// default group cannot be removed; it is merely emptied.
func (s *Store) CloseGroup(gid GroupID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groupLocked(gid)
	if g == nil {
		return
	}

	if s.preview.id != "" && s.preview.group == gid {
		s.closePreviewLocked()
	}
	ids := make([]string, len(g.openTabs))
	copy(ids, g.openTabs)
	for _, id := range ids {
		// Group teardown closes pinned tabs too.
		s.retireTabLocked(id)
		s.publish(TabClosed, gid, id)
	}
	g.openTabs = nil
	g.pinned = nil
	g.active = ""

	if gid == DefaultGroup {
		return
	}
	delete(s.groups, gid)
	for i, o := range s.order {
		if o == gid {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.activeG == gid {
		s.activeG = DefaultGroup
	}
}

// ActiveGroup returns the group that last received focus.
func (s *Store) ActiveGroup() GroupID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeG
}

// Groups returns the group ids in creation order.
func (s *Store) Groups() []GroupID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]GroupID, len(s.order))
	copy(out, s.order)
	return out
}

// OpenTabs returns the ordered tab ids for a group.
func (s *Store) OpenTabs(gid GroupID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groupLocked(gid)
	if g == nil {
		return nil
	}
	out := make([]string, len(g.openTabs))
	copy(out, g.openTabs)
	return out
}

// PinnedTabs returns the pinned ids of a group in pin order.
func (s *Store) PinnedTabs(gid GroupID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groupLocked(gid)
	if g == nil {
		return nil
	}
	out := make([]string, len(g.pinned))
	copy(out, g.pinned)
	return out
}

// ActiveTab returns the focused tab id of a group, "" when none.
func (s *Store) ActiveTab(gid GroupID) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groupLocked(gid)
	if g == nil {
		return ""
	}
	return g.active
}

// PreviewTab returns the current preview id and its group, ok=false
// when no preview exists.
func (s *Store) PreviewTab() (id string, gid GroupID, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.preview.id == "" {
		return "", "", false
	}
	return s.preview.id, s.preview.group, true
}

// Tab returns the variant stored under id. Callers must treat the
// returned value as read-only; all mutation goes through store
// operations.
func (s *Store) Tab(id string) (tab.Tab, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tabs[id]
	return t, ok
}

// SessionDataOf returns a copy of a file tab's current session data.
// ok=false for other variants and unknown ids.
func (s *Store) SessionDataOf(id string) (tab.SessionData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.tabs[id].(*tab.File)
	if !ok {
		return tab.SessionData{}, false
	}
	return f.Session.Clone(), true
}

// RetainedSession returns the remembered session data for a closed
// tab, ok=false when nothing was retained.
func (s *Store) RetainedSession(id string) (tab.SessionData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.retained[id]
	if !ok {
		return tab.SessionData{}, false
	}
	return d.Clone(), true
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
