package session

import (
	"context"

	"github.com/zjrosen/folio/internal/log"
	"github.com/zjrosen/folio/internal/nav"
	"github.com/zjrosen/folio/internal/tab"
)

// OpenFile opens a file document in the given group. If id is already
// open (permanent, preview, or lazy) it is activated instead of
// duplicated; a lazy placeholder is promoted in place. When asPreview
// is true the new tab replaces any existing preview; otherwise it is
// appended to the open-tab list.
//
// Session data is seeded from the retained record for id, overridden by
// pos when supplied. Returns false only for an unknown group.
func (s *Store) OpenFile(gid GroupID, id, content, language string, asPreview bool, pos *tab.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groupLocked(gid)
	if g == nil {
		return false
	}

	// Leaving a document records where we were.
	s.recordCurrentVisitLocked(gid, id)

	if existing, ok := s.tabs[id]; ok {
		if lazy, isLazy := existing.(*tab.Lazy); isLazy && lazy.TargetKind == tab.KindFile {
			// Opening a lazy placeholder with real content promotes it
			// in place, keeping its slot in the tab order.
			s.promoteLazyFileLocked(lazy, content, language, nil)
		}
		owner := s.ownerLocked(id)
		if owner == "" && s.hasPreviewLocked(id) {
			owner = s.preview.group
		}
		if owner == "" {
			owner = gid
		}
		s.activateLocked(owner, id, true, pos)
		return true
	}

	file := &tab.File{
		Path:         id,
		Language:     language,
		Content:      content,
		SavedContent: content,
	}
	if retained, ok := s.retained[id]; ok {
		file.Session = retained.Clone()
	}
	if pos != nil {
		file.Session.Cursor = *pos
	}

	if asPreview {
		// The close notification for a superseded preview always
		// precedes the open notification for its replacement.
		s.closePreviewLocked()
		s.preview = previewSlot{id: id, group: gid}
	} else {
		g.openTabs = append(g.openTabs, id)
	}
	s.tabs[id] = file

	if s.analysis != nil {
		s.analysis.NotifyOpened(id, content)
	}
	log.Debug(log.CatSession, "opened file", "id", id, "preview", asPreview, "group", gid)
	s.publish(TabOpened, gid, id)

	s.activateLocked(gid, id, true, pos)
	return true
}

// OpenPath reads path through the content provider and opens it.
// Binary files are refused with BinaryFileError and no tab is created.
func (s *Store) OpenPath(ctx context.Context, gid GroupID, path string, asPreview bool) error {
	if s.content == nil {
		return &TabNotFoundError{ID: path}
	}

	s.mu.Lock()
	known := s.groups[gid] != nil
	s.mu.Unlock()
	if !known {
		return &GroupNotFoundError{Group: gid}
	}

	ctx, span := s.tracer.Start(ctx, "session.open_path")
	defer span.End()

	fc, err := s.content.Read(ctx, path)
	if err != nil {
		return err
	}
	if fc.IsBinary {
		return &BinaryFileError{Path: path}
	}

	s.OpenFile(gid, path, fc.Content, fc.Language, asPreview, nil)
	return nil
}

// OpenDiff opens a read-only diff tab with the same preview semantics
// as OpenFile. Diff tabs carry no session data.
func (s *Store) OpenDiff(gid GroupID, d tab.Diff, asPreview bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groupLocked(gid)
	if g == nil {
		return false
	}

	id := d.URL()
	s.recordCurrentVisitLocked(gid, id)

	if _, ok := s.tabs[id]; ok {
		owner := s.ownerLocked(id)
		if owner == "" && s.hasPreviewLocked(id) {
			owner = s.preview.group
		}
		if owner == "" {
			owner = gid
		}
		s.activateLocked(owner, id, true, nil)
		return true
	}

	diffTab := d
	if asPreview {
		s.closePreviewLocked()
		s.preview = previewSlot{id: id, group: gid}
	} else {
		g.openTabs = append(g.openTabs, id)
	}
	s.tabs[id] = &diffTab

	log.Debug(log.CatSession, "opened diff", "id", id, "preview", asPreview)
	s.publish(TabOpened, gid, id)

	s.activateLocked(gid, id, true, nil)
	return true
}

// OpenChat opens a chat thread tab. Always permanent; repeated calls
// for the same session id just activate the existing tab.
func (s *Store) OpenChat(gid GroupID, sessionID, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groupLocked(gid)
	if g == nil {
		return false
	}

	id := tab.ChatURL(sessionID)
	s.recordCurrentVisitLocked(gid, id)

	if _, ok := s.tabs[id]; ok {
		owner := s.ownerLocked(id)
		if owner == "" {
			owner = gid
		}
		s.activateLocked(owner, id, true, nil)
		return true
	}

	s.tabs[id] = &tab.Chat{SessionID: sessionID, Name: name}
	g.openTabs = append(g.openTabs, id)

	log.Debug(log.CatSession, "opened chat", "session", sessionID)
	s.publish(TabOpened, gid, id)

	s.activateLocked(gid, id, true, nil)
	return true
}

// RegisterChat inserts a chat tab without activating it or recording a
// navigation visit. Used by snapshot restore, which must not pollute
// history. No-op if the session is already open.
func (s *Store) RegisterChat(gid GroupID, sessionID, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groupLocked(gid)
	if g == nil {
		return false
	}

	id := tab.ChatURL(sessionID)
	if s.existsLocked(id) {
		return false
	}

	s.tabs[id] = &tab.Chat{SessionID: sessionID, Name: name}
	g.openTabs = append(g.openTabs, id)
	s.publish(TabOpened, gid, id)
	return true
}

// RegisterLazy inserts a file placeholder so a persisted tab bar can be
// rebuilt before real content is available. No-op if id is already
// open in any form. The placeholder is not activated and records no
// navigation visit.
func (s *Store) RegisterLazy(gid GroupID, id, displayName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groupLocked(gid)
	if g == nil {
		return false
	}
	if s.existsLocked(id) {
		return false
	}

	s.tabs[id] = &tab.Lazy{ID: id, DisplayName: displayName, TargetKind: tab.KindFile}
	g.openTabs = append(g.openTabs, id)
	s.publish(TabOpened, gid, id)
	return true
}

// RegisterLazyDiff inserts a diff placeholder carrying the source path
// and staged flag needed for later promotion.
func (s *Store) RegisterLazyDiff(gid GroupID, displayName, path string, staged bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.groupLocked(gid)
	if g == nil {
		return false
	}

	id := tab.DiffURL(path, staged)
	if s.existsLocked(id) {
		return false
	}

	s.tabs[id] = &tab.Lazy{
		ID:          id,
		DisplayName: displayName,
		TargetKind:  tab.KindDiff,
		SourcePath:  path,
		Staged:      staged,
	}
	g.openTabs = append(g.openTabs, id)
	s.publish(TabOpened, gid, id)
	return true
}

// LoadLazy promotes a file placeholder in place, preserving its
// identifier and position in the tab order. Silently does nothing when
// the target is not a matching lazy entry: a background load can race a
// user-initiated close, and the late arrival must not resurrect the
// tab.
func (s *Store) LoadLazy(id, content, language string, headContent *string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tabs[id]
	if !ok {
		return false
	}
	lazy, isLazy := existing.(*tab.Lazy)
	if !isLazy || lazy.TargetKind != tab.KindFile {
		return false
	}

	s.promoteLazyFileLocked(lazy, content, language, headContent)

	gid := s.ownerLocked(id)
	log.Debug(log.CatSession, "lazy tab loaded", "id", id)
	s.publish(TabOpened, gid, id)
	return true
}

// LoadLazyDiff promotes a diff placeholder in place. Same stale-race
// guard as LoadLazy.
func (s *Store) LoadLazyDiff(id, original, modified string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tabs[id]
	if !ok {
		return false
	}
	lazy, isLazy := existing.(*tab.Lazy)
	if !isLazy || lazy.TargetKind != tab.KindDiff {
		return false
	}

	s.tabs[id] = &tab.Diff{
		Name:     lazy.DisplayName,
		Path:     lazy.SourcePath,
		Original: original,
		Modified: modified,
		Staged:   lazy.Staged,
	}

	gid := s.ownerLocked(id)
	log.Debug(log.CatSession, "lazy diff loaded", "id", id)
	s.publish(TabOpened, gid, id)
	return true
}

// promoteLazyFileLocked swaps a lazy placeholder for a real file tab
// under the same identifier.
func (s *Store) promoteLazyFileLocked(lazy *tab.Lazy, content, language string, headContent *string) {
	id := lazy.ID
	file := &tab.File{
		Path:         id,
		Language:     language,
		Content:      content,
		SavedContent: content,
		HeadContent:  headContent,
	}
	if retained, ok := s.retained[id]; ok {
		file.Session = retained.Clone()
	}
	s.tabs[id] = file

	if s.analysis != nil {
		s.analysis.NotifyOpened(id, content)
	}
	if headContent != nil {
		s.scheduleDiffRecomputeLocked(id)
	}
	// If the placeholder was already focused, wire the cursor listeners
	// it could not have had as a lazy entry.
	if gid := s.ownerLocked(id); gid != "" && s.groups[gid].active == id {
		s.attachListenersLocked(id)
	}
}

// recordCurrentVisitLocked pushes the active tab's position into
// history before focus moves to a different document.
func (s *Store) recordCurrentVisitLocked(gid GroupID, next string) {
	g := s.groups[gid]
	if g == nil || g.active == "" || g.active == next {
		return
	}
	s.history.Push(nav.Entry{
		TabID:    g.active,
		Group:    string(gid),
		Position: s.cursorOfLocked(g.active),
	})
}

// cursorOfLocked returns the recorded cursor for a tab, zero for
// variants without session data.
func (s *Store) cursorOfLocked(id string) tab.Position {
	if f, ok := s.tabs[id].(*tab.File); ok {
		return f.Session.Cursor
	}
	return tab.Position{}
}

// activateLocked moves focus to id within gid, optionally recording the
// visit, and re-attaches cursor listeners for the new document.
func (s *Store) activateLocked(gid GroupID, id string, pushHistory bool, pos *tab.Position) {
	g := s.groups[gid]
	if g == nil {
		return
	}

	g.active = id
	s.activeG = gid

	if pos != nil {
		if f, ok := s.tabs[id].(*tab.File); ok {
			f.Session.Cursor = *pos
		}
	}
	if pushHistory {
		s.history.Push(nav.Entry{
			TabID:    id,
			Group:    string(gid),
			Position: s.cursorOfLocked(id),
		})
	}

	s.attachListenersLocked(id)

	if pos != nil && s.cursor != nil {
		s.cursor.SetPosition(*pos)
		s.cursor.RevealLine(pos.Line)
	}

	s.publish(TabActivated, gid, id)
}

// attachListenersLocked disposes the previous tab's cursor/scroll
// listeners and attaches fresh ones feeding the new tab's session data.
// Skipped for variants without session data.
func (s *Store) attachListenersLocked(id string) {
	s.disposeListenersLocked()

	if s.cursor == nil {
		return
	}
	if _, ok := s.tabs[id].(*tab.File); !ok {
		return
	}

	disposeCursor := s.cursor.OnCursorChange(func(p tab.Position) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if f, ok := s.tabs[id].(*tab.File); ok {
			f.Session.Cursor = p
		}
	})
	disposeScroll := s.cursor.OnScrollChange(func(top int) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if f, ok := s.tabs[id].(*tab.File); ok {
			f.Session.ScrollTop = top
		}
	})
	s.disposers = []func(){disposeCursor, disposeScroll}
	s.listening = id
}
