package session

import (
	"fmt"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// Property: across arbitrary operation sequences the store maintains
// its structural invariants — pinned tabs form a contiguous prefix of
// the open order, the preview tab never appears among the open tabs,
// no identifier occurs twice, and the active tab is always a tab that
// exists.
func TestStore_Properties(t *testing.T) {
	ids := make([]string, 6)
	for i := range ids {
		ids[i] = fmt.Sprintf("/f%d.go", i)
	}

	rapid.Check(t, func(t *rapid.T) {
		s := New(Options{
			ChangeNotifyDelay:  time.Hour,
			DiffRecomputeDelay: time.Hour,
		})
		defer s.Close()

		steps := rapid.IntRange(0, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			id := rapid.SampledFrom(ids).Draw(t, "id")
			switch rapid.IntRange(0, 8).Draw(t, "op") {
			case 0:
				s.OpenFile(DefaultGroup, id, "content", "go", false, nil)
			case 1:
				s.OpenFile(DefaultGroup, id, "content", "go", true, nil)
			case 2:
				s.CloseTab(id)
			case 3:
				s.Pin(DefaultGroup, id)
			case 4:
				s.Unpin(DefaultGroup, id)
			case 5:
				s.ConvertPreviewToPermanent()
			case 6:
				open := s.OpenTabs(DefaultGroup)
				if len(open) >= 2 {
					from := rapid.IntRange(0, len(open)-1).Draw(t, "from")
					to := rapid.IntRange(0, len(open)-1).Draw(t, "to")
					s.ReorderTabs(DefaultGroup, from, to)
				}
			case 7:
				s.NavigateBack()
			case 8:
				s.NavigateForward()
			}

			checkStoreInvariants(t, s)
		}
	})
}

func checkStoreInvariants(t *rapid.T, s *Store) {
	open := s.OpenTabs(DefaultGroup)
	pinned := s.PinnedTabs(DefaultGroup)

	seen := make(map[string]bool, len(open))
	for _, id := range open {
		if seen[id] {
			t.Fatalf("duplicate id in open tabs: %s (%v)", id, open)
		}
		seen[id] = true
	}

	if len(pinned) > len(open) {
		t.Fatalf("more pinned than open: %v vs %v", pinned, open)
	}
	for i, id := range pinned {
		if open[i] != id {
			t.Fatalf("pinned tabs are not a contiguous prefix: pinned=%v open=%v", pinned, open)
		}
	}

	if previewID, _, ok := s.PreviewTab(); ok {
		if seen[previewID] {
			t.Fatalf("preview tab %s listed among open tabs %v", previewID, open)
		}
	}

	if active := s.ActiveTab(DefaultGroup); active != "" {
		if _, ok := s.Tab(active); !ok {
			t.Fatalf("active tab %s does not exist", active)
		}
	}
}
