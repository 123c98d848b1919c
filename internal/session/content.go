package session

import (
	"context"

	"github.com/zjrosen/folio/internal/log"
	"github.com/zjrosen/folio/internal/provider"
	"github.com/zjrosen/folio/internal/tab"
)

// UpdateContent applies an edit to a file tab. Editing the preview tab
// implicitly converts it to permanent first. Schedules a debounced
// change notification and a debounced diff recompute for the id.
// No-op (returns false) for non-file tabs and unknown ids.
func (s *Store) UpdateContent(id, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.tabs[id].(*tab.File)
	if !ok {
		return false
	}

	// Auto-convert on edit: an edited document is no longer ephemeral.
	if s.hasPreviewLocked(id) {
		s.convertPreviewLocked()
	}

	wasDirty := f.Dirty()
	f.Content = content
	if f.Dirty() != wasDirty {
		s.publish(DirtyChanged, s.ownerLocked(id), id)
	}

	s.scheduleChangeNotifyLocked(id)
	s.scheduleDiffRecomputeLocked(id)
	return true
}

// MarkSaved updates the dirty baseline without touching live content.
func (s *Store) MarkSaved(id, savedContent string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.tabs[id].(*tab.File)
	if !ok {
		return false
	}

	wasDirty := f.Dirty()
	f.SavedContent = savedContent
	if f.Dirty() != wasDirty {
		s.publish(DirtyChanged, s.ownerLocked(id), id)
	}
	return true
}

// IsDirty reports whether a file tab's live content differs from its
// saved baseline. Always false for other variants and unknown ids.
func (s *Store) IsDirty(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tabs[id]
	return ok && t.Dirty()
}

// HasUnsavedChanges reports whether any open tab, preview included, is
// dirty.
func (s *Store) HasUnsavedChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tabs {
		if t.Dirty() {
			return true
		}
	}
	return false
}

// Save writes a file tab's content through the content provider. When
// the provider returns reformatted content, it becomes both the live
// and saved text. On write failure the error propagates and the dirty
// flag is untouched, so the document stays marked unsaved.
func (s *Store) Save(ctx context.Context, id string) error {
	s.mu.Lock()
	f, ok := s.tabs[id].(*tab.File)
	if !ok {
		s.mu.Unlock()
		if _, exists := s.tabs[id]; exists {
			return &NotAFileError{ID: id}
		}
		return &TabNotFoundError{ID: id}
	}
	path, content := f.Path, f.Content
	s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "session.save")
	defer span.End()

	res, err := s.content.Write(ctx, path, content, provider.WriteOptions{Format: true})
	if err != nil {
		log.ErrorErr(log.CatSession, "save failed", err, "id", id)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok = s.tabs[id].(*tab.File)
	if !ok {
		// Closed while the write was in flight; nothing to update.
		return nil
	}

	// The saved baseline is what actually hit disk: the captured text,
	// or the provider's reformatted version of it. An edit applied while
	// the write was in flight keeps the tab dirty.
	saved := content
	if res.Content != nil {
		saved = *res.Content
	}
	if f.Content == content && res.Content != nil {
		f.Content = saved
		s.scheduleChangeNotifyLocked(id)
		s.scheduleDiffRecomputeLocked(id)
	}
	f.SavedContent = saved
	s.publish(DirtyChanged, s.ownerLocked(id), id)
	return nil
}

// ReloadIfClean replaces a file tab's content after an external
// modification, but only when the tab holds no unsaved edits. A dirty
// tab keeps its local edits and the reload is skipped with a warning.
func (s *Store) ReloadIfClean(id, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.tabs[id].(*tab.File)
	if !ok {
		return false
	}
	if f.Dirty() {
		log.Warn(log.CatWatcher, "external modification ignored for dirty tab", "id", id)
		return false
	}

	f.Content = content
	f.SavedContent = content
	s.scheduleChangeNotifyLocked(id)
	s.scheduleDiffRecomputeLocked(id)
	return true
}

// SetHeadContent records the VCS-head baseline for a file tab and
// schedules a diff recompute. An empty string is the baseline for a
// file absent at HEAD.
func (s *Store) SetHeadContent(id, head string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.tabs[id].(*tab.File)
	if !ok {
		return false
	}
	f.HeadContent = &head
	s.scheduleDiffRecomputeLocked(id)
	return true
}

// SetBlame stores blame annotations and clears the loading flag.
func (s *Store) SetBlame(id string, lines []tab.BlameLine) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.tabs[id].(*tab.File)
	if !ok {
		return false
	}
	f.Blame = lines
	f.BlameLoading = false
	return true
}

// SetBlameLoading flips the blame loading flag.
func (s *Store) SetBlameLoading(id string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.tabs[id].(*tab.File); ok {
		f.BlameLoading = loading
	}
}

// SetOutline stores outline symbols and clears the loading flag.
func (s *Store) SetOutline(id string, symbols []tab.Symbol) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.tabs[id].(*tab.File)
	if !ok {
		return false
	}
	f.Outline = symbols
	f.OutlineLoading = false
	return true
}

// SetOutlineLoading flips the outline loading flag.
func (s *Store) SetOutlineLoading(id string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.tabs[id].(*tab.File); ok {
		f.OutlineLoading = loading
	}
}

// SetSessionData replaces a file tab's session record wholesale, used
// when restoring a snapshot.
func (s *Store) SetSessionData(id string, data tab.SessionData) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.tabs[id].(*tab.File)
	if !ok {
		// Lazy tabs get their session data on promotion; remember it.
		if _, isLazy := s.tabs[id].(*tab.Lazy); isLazy {
			s.retained[id] = data.Clone()
			return true
		}
		return false
	}
	f.Session = data.Clone()
	return true
}

// scheduleChangeNotifyLocked queues the debounced content-changed
// notification for id. The content is read at fire time so the
// delivered text reflects the latest edit, not the one that armed the
// timer.
func (s *Store) scheduleChangeNotifyLocked(id string) {
	if s.analysis == nil {
		return
	}
	s.changeDebounce.Schedule(id, func() {
		s.mu.Lock()
		f, ok := s.tabs[id].(*tab.File)
		if !ok {
			s.mu.Unlock()
			return
		}
		path, content := f.Path, f.Content
		s.mu.Unlock()

		s.analysis.NotifyChanged(path, content)
	})
}

// scheduleDiffRecomputeLocked queues the debounced diff recompute for
// id. Superseded recomputes for the same id cancel the pending one.
func (s *Store) scheduleDiffRecomputeLocked(id string) {
	s.diffDebounce.Schedule(id, func() {
		s.recomputeDiff(id)
	})
}

// recomputeDiff diffs the live content against the VCS-head baseline.
// Skipped until the baseline has been fetched.
func (s *Store) recomputeDiff(id string) {
	s.mu.Lock()
	f, ok := s.tabs[id].(*tab.File)
	if !ok || f.HeadContent == nil {
		s.mu.Unlock()
		return
	}
	head, content := *f.HeadContent, f.Content
	s.mu.Unlock()

	_, span := s.tracer.Start(context.Background(), "session.diff_recompute")
	result := s.diff.ComputeLineDiff(head, content)
	span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok = s.tabs[id].(*tab.File)
	if !ok {
		// Closed while computing; drop the result.
		return
	}
	f.LineDiff = &result
	log.Debug(log.CatDiff, "recomputed line diff", "id", id, "added", result.Added, "removed", result.Removed)
}
