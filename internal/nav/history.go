// Package nav implements the bounded, branchable back/forward history
// of document visits. Each entry records a tab identifier and the
// cursor position at the time of the visit.
//
// Pointer semantics: an index of -1 means the caller sits at the live
// end of history and new visits append. Any other value means the
// caller has stepped back; a fresh visit first truncates everything
// after the pointer (branching discards the abandoned forward path).
package nav

import (
	"github.com/zjrosen/folio/internal/log"
	"github.com/zjrosen/folio/internal/tab"
)

// DefaultMaxEntries bounds history length; the oldest entry is dropped
// once the cap is reached.
const DefaultMaxEntries = 50

// atEnd is the index value meaning "at the live end of history".
const atEnd = -1

// Entry is a single recorded visit.
type Entry struct {
	TabID    string
	Group    string
	Position tab.Position
}

// equal reports full-entry equality; consecutive equal entries are
// suppressed on push.
func (e Entry) equal(other Entry) bool {
	return e.TabID == other.TabID &&
		e.Group == other.Group &&
		e.Position == other.Position
}

// History is the bounded visit stack. It is not safe for concurrent
// use; the session store mutates it synchronously.
type History struct {
	entries []Entry
	index   int // atEnd, or a position the caller has stepped back to
	max     int
}

// New creates a history bounded to DefaultMaxEntries.
func New() *History {
	return NewWithLimit(DefaultMaxEntries)
}

// NewWithLimit creates a history with a custom bound.
func NewWithLimit(max int) *History {
	if max < 1 {
		max = DefaultMaxEntries
	}
	return &History{index: atEnd, max: max}
}

// Len returns the number of stored entries.
func (h *History) Len() int { return len(h.entries) }

// Index returns the current pointer, -1 meaning the live end.
func (h *History) Index() int { return h.index }

// Entries returns a copy of the stored entries, oldest first.
func (h *History) Entries() []Entry {
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Push records a visit. If the caller had stepped back, everything
// after the pointer is discarded first, then the entry is appended and
// the pointer returns to the live end. A visit identical to the entry
// it would follow is suppressed.
func (h *History) Push(e Entry) {
	if h.index != atEnd {
		h.entries = h.entries[:h.index+1]
		h.index = atEnd
		log.Debug(log.CatNav, "truncated forward entries", "len", len(h.entries))
	}

	if n := len(h.entries); n > 0 && h.entries[n-1].equal(e) {
		return
	}

	h.entries = append(h.entries, e)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
}

// current returns the index the caller is conceptually standing on.
func (h *History) current() int {
	if h.index == atEnd {
		return len(h.entries) - 1
	}
	return h.index
}

// Back steps to the most recent entry for a different tab than the one
// at the current pointer. Entries whose tab no longer exists (per the
// alive predicate) are pruned during the walk. Returns false when no
// eligible entry remains.
func (h *History) Back(alive func(tabID string) bool) (Entry, bool) {
	if len(h.entries) < 2 {
		return Entry{}, false
	}

	cur := h.current()
	currentID := h.entries[cur].TabID

	i := cur - 1
	for i >= 0 {
		e := h.entries[i]
		if !alive(e.TabID) {
			// Pruning below the pointer shifts it; keep it on the same
			// logical entry in case no eligible target is found.
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			if h.index != atEnd {
				h.index--
			}
			cur--
			i--
			continue
		}
		if e.TabID != currentID {
			h.index = i
			return e, true
		}
		i--
	}
	return Entry{}, false
}

// Forward is the mirror of Back: it steps to the next entry for a
// different tab, pruning dead entries on the way. A caller at the live
// end has nowhere to go forward.
func (h *History) Forward(alive func(tabID string) bool) (Entry, bool) {
	if h.index == atEnd || len(h.entries) == 0 {
		return Entry{}, false
	}

	cur := h.current()
	currentID := h.entries[cur].TabID

	i := cur + 1
	for i < len(h.entries) {
		e := h.entries[i]
		if !alive(e.TabID) {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			continue
		}
		if e.TabID != currentID {
			if i == len(h.entries)-1 {
				h.index = atEnd
			} else {
				h.index = i
			}
			return e, true
		}
		i++
	}

	// Walked off the end: the caller is back at the live edge.
	h.index = atEnd
	return Entry{}, false
}

// CanGoBack reports whether a back navigation could possibly succeed.
func (h *History) CanGoBack() bool {
	return len(h.entries) >= 2 && h.current() > 0
}

// CanGoForward reports whether the caller has stepped back.
func (h *History) CanGoForward() bool {
	return h.index != atEnd
}

// Remove drops all entries referencing tabID, keeping the pointer on
// the same logical entry where possible. Called when a tab closes so
// stale visits never resurface.
func (h *History) Remove(tabID string) {
	kept := h.entries[:0]
	newIndex := h.index
	for i, e := range h.entries {
		if e.TabID == tabID {
			if h.index != atEnd && i <= h.index && newIndex > 0 {
				newIndex--
			}
			continue
		}
		kept = append(kept, e)
	}
	h.entries = kept
	if len(h.entries) == 0 {
		newIndex = atEnd
	}
	if newIndex >= len(h.entries) {
		newIndex = atEnd
	}
	h.index = newIndex
}
