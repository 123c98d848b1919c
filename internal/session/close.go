package session

import (
	"github.com/zjrosen/folio/internal/log"
	"github.com/zjrosen/folio/internal/tab"
)

// CloseTab removes id from the preview slot or the open-tab list. If
// the closed tab was focused, focus falls to the tab at the same index
// after removal (clamped to the last index), then to the preview tab,
// then to none. File-tab session data is retained for a later reopen.
// Returns false if id is not open.
func (s *Store) CloseTab(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasPreviewLocked(id) {
		s.closePreviewLocked()
		return true
	}

	gid := s.ownerLocked(id)
	if gid == "" {
		return false
	}
	return s.closePermanentLocked(gid, id)
}

// CloseOthers closes every unpinned tab in the group except keep. The
// preview survives only when it is the kept tab.
func (s *Store) CloseOthers(gid GroupID, keep string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groupLocked(gid)
	if g == nil {
		return
	}

	if s.preview.id != "" && s.preview.id != keep {
		s.closePreviewLocked()
	}

	ids := make([]string, len(g.openTabs))
	copy(ids, g.openTabs)
	for _, id := range ids {
		if id == keep || g.isPinned(id) {
			continue
		}
		s.closePermanentLocked(gid, id)
	}

	if s.existsLocked(keep) {
		s.activateLocked(gid, keep, false, nil)
	}
}

// CloseAll closes every unpinned tab in the group, preview included.
// Pinned tabs always survive bulk close.
func (s *Store) CloseAll(gid GroupID) {
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
		if g.isPinned(id) {
			continue
		}
		s.closePermanentLocked(gid, id)
	}
}

// closePermanentLocked removes a tab from the group's open list and
// resolves the focus fallback.
func (s *Store) closePermanentLocked(gid GroupID, id string) bool {
	g := s.groups[gid]
	idx := g.indexOf(id)
	if idx < 0 {
		return false
	}

	wasActive := g.active == id

	s.retireTabLocked(id)
	g.openTabs = append(g.openTabs[:idx], g.openTabs[idx+1:]...)
	for i, p := range g.pinned {
		if p == id {
			g.pinned = append(g.pinned[:i], g.pinned[i+1:]...)
			break
		}
	}

	if wasActive {
		switch {
		case len(g.openTabs) > 0:
			n := idx
			if n >= len(g.openTabs) {
				n = len(g.openTabs) - 1
			}
			s.activateLocked(gid, g.openTabs[n], false, nil)
		case s.preview.id != "" && s.preview.group == gid:
			s.activateLocked(gid, s.preview.id, false, nil)
		default:
			g.active = ""
			s.disposeListenersLocked()
		}
	}

	log.Debug(log.CatSession, "closed tab", "id", id, "group", gid)
	s.publish(TabClosed, gid, id)
	return true
}

// closePreviewLocked retires the current preview tab, if any, and
// resolves focus within its group.
func (s *Store) closePreviewLocked() {
	if s.preview.id == "" {
		return
	}

	id, gid := s.preview.id, s.preview.group
	g := s.groups[gid]
	wasActive := g != nil && g.active == id

	s.retireTabLocked(id)
	s.preview = previewSlot{}

	if wasActive && g != nil {
		if len(g.openTabs) > 0 {
			s.activateLocked(gid, g.openTabs[len(g.openTabs)-1], false, nil)
		} else {
			g.active = ""
			s.disposeListenersLocked()
		}
	}

	log.Debug(log.CatSession, "closed preview", "id", id)
	s.publish(TabClosed, gid, id)
}

// retireTabLocked drops a tab from the store: session data is retained
// for file tabs, the document-closed collaborator is notified exactly
// once for file tabs and never for other variants, and pending
// debounced work for the id is discarded.
func (s *Store) retireTabLocked(id string) {
	t, ok := s.tabs[id]
	if !ok {
		return
	}

	if s.listening == id {
		s.disposeListenersLocked()
	}

	if f, isFile := t.(*tab.File); isFile {
		s.retained[id] = f.Session.Clone()
		if s.analysis != nil {
			s.analysis.NotifyClosed(f.Path)
		}
	}

	s.changeDebounce.Cancel(id)
	s.diffDebounce.Cancel(id)
	delete(s.tabs, id)
}
