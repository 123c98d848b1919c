// Package provider defines the contracts for the collaborators the
// session core depends on: file content, VCS queries, language
// analysis, diffing, and cursor control. The core never reaches the
// file system, git, or a language server directly; it talks to these
// interfaces and callers supply the implementations.
//
// These abstractions exist for the same reason GitExecutor-style
// interfaces do elsewhere: every collaborator can be swapped for a
// recording fake in tests.
package provider

import (
	"context"

	"github.com/zjrosen/folio/internal/linediff"
	"github.com/zjrosen/folio/internal/tab"
)

// FileContent is the result of reading a document.
type FileContent struct {
	Content  string
	Language string
	IsBinary bool
}

// WriteOptions controls a document write.
type WriteOptions struct {
	// Format requests the provider run its formatter on save.
	Format bool
}

// WriteResult is the outcome of a document write. Content is non-nil
// when the provider reformatted the text during the write; the store
// adopts it as both live and saved content.
type WriteResult struct {
	Content *string
}

// ContentProvider reads and writes document content.
type ContentProvider interface {
	Read(ctx context.Context, path string) (FileContent, error)
	Write(ctx context.Context, path, content string, opts WriteOptions) (WriteResult, error)
}

// VCSProvider answers version-control queries for a document.
type VCSProvider interface {
	// Blame returns per-line annotations for the file at HEAD.
	Blame(ctx context.Context, path string) ([]tab.BlameLine, error)

	// ShowHeadContent returns the file content at HEAD, or nil if the
	// file does not exist at HEAD (treated as an empty baseline).
	ShowHeadContent(ctx context.Context, path string) (*string, error)
}

// AnalysisProvider is the language-analysis collaborator. The notify
// methods are fire-and-forget: failures are the provider's problem and
// never roll back an edit.
type AnalysisProvider interface {
	NotifyOpened(path, content string)
	NotifyClosed(path string)
	NotifyChanged(path, content string)

	// DocumentSymbols returns the outline for a document. May fail
	// transiently right after a document opens; callers retry.
	DocumentSymbols(ctx context.Context, path string) ([]tab.Symbol, error)
}

// DiffEngine computes a line diff between two snapshots.
type DiffEngine interface {
	ComputeLineDiff(before, after string) linediff.Result
}

// DiffEngineFunc adapts a plain function to the DiffEngine interface.
type DiffEngineFunc func(before, after string) linediff.Result

// ComputeLineDiff calls f.
func (f DiffEngineFunc) ComputeLineDiff(before, after string) linediff.Result {
	return f(before, after)
}

// DefaultDiffEngine returns the built-in engine backed by linediff.
func DefaultDiffEngine() DiffEngine {
	return DiffEngineFunc(linediff.Compute)
}

// CursorController is the imperative surface to the rendering layer:
// the core pushes positions into it and subscribes to position changes,
// never owning the rendering surface itself.
type CursorController interface {
	SetPosition(p tab.Position)
	RevealLine(line int)
	Focus()

	Scroll() int
	SetScroll(top int)

	// OnCursorChange and OnScrollChange register listeners and return
	// dispose functions. The store disposes previous listeners on every
	// tab switch so stale callbacks never leak onto the new document.
	OnCursorChange(fn func(tab.Position)) (dispose func())
	OnScrollChange(fn func(top int)) (dispose func())
}
