package nav

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/folio/internal/log"
	"github.com/zjrosen/folio/internal/tab"
)

func TestMain(m *testing.M) {
	log.InitWithWriter(&bytes.Buffer{})
	m.Run()
}

func alwaysAlive(string) bool { return true }

func entry(id string, line int) Entry {
	return Entry{TabID: id, Group: "main", Position: tab.Position{Line: line}}
}

func TestHistory_PushAndBack(t *testing.T) {
	h := New()
	h.Push(entry("a", 1))
	h.Push(entry("b", 2))
	h.Push(entry("c", 3))

	got, ok := h.Back(alwaysAlive)
	require.True(t, ok)
	assert.Equal(t, "b", got.TabID)

	got, ok = h.Back(alwaysAlive)
	require.True(t, ok)
	assert.Equal(t, "a", got.TabID)

	_, ok = h.Back(alwaysAlive)
	assert.False(t, ok)
}

func TestHistory_ForwardAfterBack(t *testing.T) {
	h := New()
	h.Push(entry("a", 1))
	h.Push(entry("b", 2))

	_, ok := h.Back(alwaysAlive)
	require.True(t, ok)

	got, ok := h.Forward(alwaysAlive)
	require.True(t, ok)
	assert.Equal(t, "b", got.TabID)

	// Landed on the last entry: pointer returns to the live end.
	assert.False(t, h.CanGoForward())
	_, ok = h.Forward(alwaysAlive)
	assert.False(t, ok)
}

func TestHistory_ForwardAtLiveEnd(t *testing.T) {
	h := New()
	h.Push(entry("a", 1))
	h.Push(entry("b", 2))

	_, ok := h.Forward(alwaysAlive)
	assert.False(t, ok)
}

func TestHistory_PushTruncatesForwardBranch(t *testing.T) {
	h := New()
	h.Push(entry("a", 1))
	h.Push(entry("b", 2))
	h.Push(entry("c", 3))

	_, ok := h.Back(alwaysAlive)
	require.True(t, ok)
	_, ok = h.Back(alwaysAlive)
	require.True(t, ok)

	// Visiting somewhere new abandons the forward path to b and c.
	h.Push(entry("d", 4))

	assert.False(t, h.CanGoForward())
	entries := h.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].TabID)
	assert.Equal(t, "d", entries[1].TabID)
}

func TestHistory_ConsecutiveDuplicatesSuppressed(t *testing.T) {
	h := New()
	h.Push(entry("a", 1))
	h.Push(entry("a", 1))
	h.Push(entry("a", 1))

	assert.Equal(t, 1, h.Len())

	// Same tab at a different position is a distinct visit.
	h.Push(entry("a", 9))
	assert.Equal(t, 2, h.Len())
}

func TestHistory_CapDropsOldest(t *testing.T) {
	h := NewWithLimit(3)
	for i := 0; i < 5; i++ {
		h.Push(entry(fmt.Sprintf("t%d", i), i))
	}

	entries := h.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "t2", entries[0].TabID)
	assert.Equal(t, "t4", entries[2].TabID)
}

func TestHistory_BackSkipsSameTabEntries(t *testing.T) {
	h := New()
	h.Push(entry("a", 1))
	h.Push(entry("b", 2))
	h.Push(entry("b", 7))

	got, ok := h.Back(alwaysAlive)
	require.True(t, ok)
	assert.Equal(t, "a", got.TabID)
}

func TestHistory_BackPrunesDeadEntries(t *testing.T) {
	h := New()
	h.Push(entry("a", 1))
	h.Push(entry("dead", 2))
	h.Push(entry("c", 3))

	alive := func(id string) bool { return id != "dead" }

	got, ok := h.Back(alive)
	require.True(t, ok)
	assert.Equal(t, "a", got.TabID)

	// The dead entry is gone for good.
	for _, e := range h.Entries() {
		assert.NotEqual(t, "dead", e.TabID)
	}
}

func TestHistory_ForwardPrunesDeadEntries(t *testing.T) {
	h := New()
	h.Push(entry("a", 1))
	h.Push(entry("dead", 2))
	h.Push(entry("c", 3))

	alive := func(id string) bool { return id != "dead" }

	_, ok := h.Back(alive)
	require.True(t, ok)

	got, ok := h.Forward(alive)
	require.True(t, ok)
	assert.Equal(t, "c", got.TabID)
}

func TestHistory_FailedBackKeepsPointerOnSameEntry(t *testing.T) {
	h := New()
	h.Push(entry("a", 1))
	h.Push(entry("b", 2))
	h.Push(entry("c", 3))

	// Step back onto b, then close a so the next Back has nowhere to go.
	got, ok := h.Back(alwaysAlive)
	require.True(t, ok)
	require.Equal(t, "b", got.TabID)

	alive := func(id string) bool { return id != "a" }
	_, ok = h.Back(alive)
	require.False(t, ok)

	// Pruning a shifted the entries; the pointer must still denote b so
	// a fresh visit branches off b, not c.
	require.Equal(t, 0, h.Index())
	assert.Equal(t, "b", h.Entries()[h.Index()].TabID)

	h.Push(entry("d", 4))
	entries := h.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].TabID)
	assert.Equal(t, "d", entries[1].TabID)
}

func TestHistory_BackWhenAllOthersDead(t *testing.T) {
	h := New()
	h.Push(entry("dead1", 1))
	h.Push(entry("dead2", 2))
	h.Push(entry("a", 3))

	alive := func(id string) bool { return id == "a" }

	_, ok := h.Back(alive)
	assert.False(t, ok)
}

func TestHistory_Remove(t *testing.T) {
	h := New()
	h.Push(entry("a", 1))
	h.Push(entry("b", 2))
	h.Push(entry("a", 3))
	h.Push(entry("c", 4))

	h.Remove("a")

	entries := h.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].TabID)
	assert.Equal(t, "c", entries[1].TabID)
}

func TestHistory_RemoveEverything(t *testing.T) {
	h := New()
	h.Push(entry("a", 1))
	h.Push(entry("a", 2))

	h.Remove("a")

	assert.Equal(t, 0, h.Len())
	assert.Equal(t, -1, h.Index())
	_, ok := h.Back(alwaysAlive)
	assert.False(t, ok)
}

func TestHistory_CanGoBack(t *testing.T) {
	h := New()
	assert.False(t, h.CanGoBack())

	h.Push(entry("a", 1))
	assert.False(t, h.CanGoBack())

	h.Push(entry("b", 2))
	assert.True(t, h.CanGoBack())
}

// Property: history length never exceeds the cap, the pointer always
// stays within bounds, and a Back followed by Forward returns to an
// entry for the tab the caller left.
func TestHistory_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := NewWithLimit(rapid.IntRange(1, 10).Draw(t, "max"))
		ids := []string{"a", "b", "c", "d"}

		steps := rapid.IntRange(0, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				id := rapid.SampledFrom(ids).Draw(t, "id")
				line := rapid.IntRange(0, 5).Draw(t, "line")
				h.Push(entry(id, line))
			case 1:
				h.Back(alwaysAlive)
			case 2:
				h.Forward(alwaysAlive)
			}

			if h.Len() > h.max {
				t.Fatalf("history exceeded cap: %d > %d", h.Len(), h.max)
			}
			if h.Index() < -1 || h.Index() >= h.Len() {
				t.Fatalf("pointer out of bounds: %d with %d entries", h.Index(), h.Len())
			}
		}
	})
}
