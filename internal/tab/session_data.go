package tab

// Position is a zero-based cursor location in a document.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Selection is a directional text range; Anchor may follow Head when
// the selection was made backwards.
type Selection struct {
	Anchor Position `json:"anchor"`
	Head   Position `json:"head"`
}

// FoldedRange is an inclusive range of folded source lines.
type FoldedRange struct {
	StartLine int `json:"startLine"`
	EndLine   int `json:"endLine"`
}

// SessionData is the per-tab editor state retained across close/reopen
// and persisted in snapshots: cursor, scroll offset, selections, folds.
type SessionData struct {
	Cursor     Position      `json:"cursor"`
	ScrollTop  int           `json:"scrollTop"`
	Selections []Selection   `json:"selections,omitempty"`
	Folds      []FoldedRange `json:"folds,omitempty"`
}

// Clone returns a deep copy so retained records never alias live state.
func (s SessionData) Clone() SessionData {
	out := s
	if s.Selections != nil {
		out.Selections = make([]Selection, len(s.Selections))
		copy(out.Selections, s.Selections)
	}
	if s.Folds != nil {
		out.Folds = make([]FoldedRange, len(s.Folds))
		copy(out.Folds, s.Folds)
	}
	return out
}
