// Package tab defines the document tab variants managed by the session store.
//
// A tab is one of four concrete variants discriminated by Kind:
//   - File: an editable document with live and last-saved content
//   - Diff: a read-only comparison of two text snapshots of a file
//   - Chat: a conversation thread identified by a session id
//   - Lazy: a display-only placeholder restored from a snapshot, later
//     promoted in place to a File or Diff once real content arrives
//
// All variants implement the sealed Tab interface; consumers switch on
// Kind (or type-switch on the variant) and must handle every case.
package tab

import (
	"github.com/zjrosen/folio/internal/linediff"
)

// Kind discriminates the tab variants.
type Kind int

const (
	// KindFile is an editable file document.
	KindFile Kind = iota
	// KindDiff is a read-only two-snapshot comparison.
	KindDiff
	// KindChat is a conversation thread.
	KindChat
	// KindLazy is a placeholder awaiting promotion to File or Diff.
	KindLazy
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDiff:
		return "diff"
	case KindChat:
		return "chat"
	case KindLazy:
		return "lazy"
	default:
		return "unknown"
	}
}

// Tab is the sealed interface implemented by all tab variants.
type Tab interface {
	// URL returns the unique identifier for this tab.
	URL() string
	// Title returns the display name shown in the tab bar.
	Title() string
	// Kind returns the variant discriminant.
	Kind() Kind
	// Dirty reports whether the tab holds unsaved changes.
	// Always false for Diff, Chat, and Lazy tabs.
	Dirty() bool

	sealed()
}

// BlameLine is a single line's VCS blame annotation.
type BlameLine struct {
	CommitHash string
	Author     string
	Date       string
	Summary    string
}

// Symbol is an outline entry reported by the analysis provider.
type Symbol struct {
	Name     string
	Kind     string
	Line     int
	Children []Symbol
}

// File is an editable file document.
type File struct {
	Path         string
	Language     string
	Content      string
	SavedContent string

	// HeadContent is the file content at VCS HEAD, nil until fetched.
	// An empty string is a valid baseline (file absent at HEAD).
	HeadContent *string

	// LineDiff is the computed diff of Content against HeadContent,
	// nil until the debounced recompute has run.
	LineDiff *linediff.Result

	Blame        []BlameLine
	BlameLoading bool

	Outline        []Symbol
	OutlineLoading bool

	Session SessionData
}

func (f *File) URL() string   { return f.Path }
func (f *File) Title() string { return BaseName(f.Path) }
func (f *File) Kind() Kind    { return KindFile }
func (f *File) Dirty() bool   { return f.Content != f.SavedContent }
func (f *File) sealed()       {}

// Diff is a read-only comparison between two text snapshots of a file.
type Diff struct {
	Name     string // display name, e.g. "main.go (staged)"
	Path     string // source file path
	Original string
	Modified string
	Staged   bool
}

func (d *Diff) URL() string   { return DiffURL(d.Path, d.Staged) }
func (d *Diff) Title() string { return d.Name }
func (d *Diff) Kind() Kind    { return KindDiff }
func (d *Diff) Dirty() bool   { return false }
func (d *Diff) sealed()       {}

// Chat is a conversation thread tab.
type Chat struct {
	SessionID string
	Name      string
}

func (c *Chat) URL() string   { return ChatURL(c.SessionID) }
func (c *Chat) Title() string { return c.Name }
func (c *Chat) Kind() Kind    { return KindChat }
func (c *Chat) Dirty() bool   { return false }
func (c *Chat) sealed()       {}

// Lazy is a placeholder holding only display metadata. It is inserted
// when restoring a tab bar from a snapshot and replaced in place once
// the real content loads.
type Lazy struct {
	ID          string // the URL the promoted tab will occupy
	DisplayName string

	// TargetKind is what this placeholder becomes once loaded.
	// Only KindFile and KindDiff are valid targets.
	TargetKind Kind

	// Diff-lazy metadata, meaningful only when TargetKind == KindDiff.
	SourcePath string
	Staged     bool
}

func (l *Lazy) URL() string   { return l.ID }
func (l *Lazy) Title() string { return l.DisplayName }
func (l *Lazy) Kind() Kind    { return KindLazy }
func (l *Lazy) Dirty() bool   { return false }
func (l *Lazy) sealed()       {}
