// Package testutil provides recording fakes for the provider
// interfaces the session core depends on. Each fake is safe for
// concurrent use and records calls for later assertion.
package testutil

import (
	"context"
	"sync"

	"github.com/zjrosen/folio/internal/provider"
	"github.com/zjrosen/folio/internal/tab"
)

// FakeContent is an in-memory ContentProvider backed by a path->file
// map.
type FakeContent struct {
	mu    sync.Mutex
	files map[string]provider.FileContent

	ReadErr  error
	WriteErr error

	// Formatted, when non-nil, is returned as the reformatted content
	// for writes that request formatting.
	Formatted *string

	// WriteHook, when set, runs while a Write is in flight, before the
	// result is returned. Lets tests interleave edits with a save.
	WriteHook func()

	Reads  []string
	Writes []WriteCall
}

// WriteCall records one Write invocation.
type WriteCall struct {
	Path    string
	Content string
	Format  bool
}

// NewFakeContent creates a content provider with no files.
func NewFakeContent() *FakeContent {
	return &FakeContent{files: make(map[string]provider.FileContent)}
}

// AddFile registers a readable file.
func (f *FakeContent) AddFile(path, content, language string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = provider.FileContent{Content: content, Language: language}
}

// AddBinary registers a path that reads as binary.
func (f *FakeContent) AddBinary(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = provider.FileContent{IsBinary: true}
}

func (f *FakeContent) Read(ctx context.Context, path string) (provider.FileContent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reads = append(f.Reads, path)
	if f.ReadErr != nil {
		return provider.FileContent{}, f.ReadErr
	}
	fc, ok := f.files[path]
	if !ok {
		return provider.FileContent{}, &NotFoundError{Path: path}
	}
	return fc, nil
}

func (f *FakeContent) Write(ctx context.Context, path, content string, opts provider.WriteOptions) (provider.WriteResult, error) {
	f.mu.Lock()
	f.Writes = append(f.Writes, WriteCall{Path: path, Content: content, Format: opts.Format})
	writeErr := f.WriteErr
	formatted := f.Formatted
	hook := f.WriteHook
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if writeErr != nil {
		return provider.WriteResult{}, writeErr
	}
	if opts.Format && formatted != nil {
		return provider.WriteResult{Content: formatted}, nil
	}
	return provider.WriteResult{}, nil
}

// NotFoundError reports a path absent from the fake file map.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return "file not found: " + e.Path
}

// FakeVCS is an in-memory VCSProvider.
type FakeVCS struct {
	mu     sync.Mutex
	heads  map[string]string
	blames map[string][]tab.BlameLine

	BlameErr error
	HeadErr  error

	BlameCalls []string
	HeadCalls  []string
}

// NewFakeVCS creates an empty VCS provider.
func NewFakeVCS() *FakeVCS {
	return &FakeVCS{
		heads:  make(map[string]string),
		blames: make(map[string][]tab.BlameLine),
	}
}

// SetHead registers head content for a path.
func (f *FakeVCS) SetHead(path, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heads[path] = content
}

// SetBlame registers blame annotations for a path.
func (f *FakeVCS) SetBlame(path string, lines []tab.BlameLine) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blames[path] = lines
}

func (f *FakeVCS) Blame(ctx context.Context, path string) ([]tab.BlameLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.BlameCalls = append(f.BlameCalls, path)
	if f.BlameErr != nil {
		return nil, f.BlameErr
	}
	return f.blames[path], nil
}

func (f *FakeVCS) ShowHeadContent(ctx context.Context, path string) (*string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.HeadCalls = append(f.HeadCalls, path)
	if f.HeadErr != nil {
		return nil, f.HeadErr
	}
	content, ok := f.heads[path]
	if !ok {
		return nil, nil
	}
	return &content, nil
}

// FakeAnalysis records document lifecycle notifications and serves
// outlines, optionally failing the first N symbol requests to exercise
// retry paths.
type FakeAnalysis struct {
	mu       sync.Mutex
	symbols  map[string][]tab.Symbol
	failures int
	failErr  error

	// SymbolsErr, when set, fails every DocumentSymbols call.
	SymbolsErr error

	Opened  []string
	Closed  []string
	Changed []string
	// SymbolCalls counts DocumentSymbols invocations per path.
	SymbolCalls map[string]int
}

// NewFakeAnalysis creates an analysis provider with no outlines.
func NewFakeAnalysis() *FakeAnalysis {
	return &FakeAnalysis{
		symbols:     make(map[string][]tab.Symbol),
		SymbolCalls: make(map[string]int),
	}
}

// SetSymbols registers the outline for a path.
func (f *FakeAnalysis) SetSymbols(path string, syms []tab.Symbol) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.symbols[path] = syms
}

// FailSymbolsTimes makes the next n DocumentSymbols calls fail with
// err before succeeding.
func (f *FakeAnalysis) FailSymbolsTimes(n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = n
	f.failErr = err
}

func (f *FakeAnalysis) NotifyOpened(path, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Opened = append(f.Opened, path)
}

func (f *FakeAnalysis) NotifyClosed(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = append(f.Closed, path)
}

func (f *FakeAnalysis) NotifyChanged(path, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Changed = append(f.Changed, path)
}

func (f *FakeAnalysis) DocumentSymbols(ctx context.Context, path string) ([]tab.Symbol, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SymbolCalls[path]++
	if f.failures > 0 {
		f.failures--
		return nil, f.failErr
	}
	if f.SymbolsErr != nil {
		return nil, f.SymbolsErr
	}
	return f.symbols[path], nil
}

// FakeCursor is a recording CursorController. Disposer funcs detach
// the listener, matching a real editor surface.
type FakeCursor struct {
	mu        sync.Mutex
	position  tab.Position
	scroll    int
	nextID    int
	cursorFns map[int]func(tab.Position)
	scrollFns map[int]func(int)

	SetPositions []tab.Position
	Revealed     []int
	FocusCount   int
	Disposals    int
}

// NewFakeCursor creates a cursor controller at the origin.
func NewFakeCursor() *FakeCursor {
	return &FakeCursor{
		cursorFns: make(map[int]func(tab.Position)),
		scrollFns: make(map[int]func(int)),
	}
}

func (f *FakeCursor) SetPosition(p tab.Position) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.position = p
	f.SetPositions = append(f.SetPositions, p)
}

func (f *FakeCursor) RevealLine(line int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Revealed = append(f.Revealed, line)
}

func (f *FakeCursor) Focus() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FocusCount++
}

func (f *FakeCursor) Scroll() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scroll
}

func (f *FakeCursor) SetScroll(top int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scroll = top
}

// ListenerCount reports how many listeners are currently attached.
func (f *FakeCursor) ListenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cursorFns) + len(f.scrollFns)
}

func (f *FakeCursor) OnCursorChange(fn func(tab.Position)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.cursorFns[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.cursorFns, id)
		f.Disposals++
	}
}

func (f *FakeCursor) OnScrollChange(fn func(int)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.scrollFns[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.scrollFns, id)
		f.Disposals++
	}
}

// MoveCursor simulates the user moving the cursor, invoking all live
// cursor listeners.
func (f *FakeCursor) MoveCursor(p tab.Position) {
	f.mu.Lock()
	f.position = p
	fns := make([]func(tab.Position), 0, len(f.cursorFns))
	for _, fn := range f.cursorFns {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(p)
	}
}

// ScrollTo simulates the user scrolling, invoking all live scroll
// listeners.
func (f *FakeCursor) ScrollTo(top int) {
	f.mu.Lock()
	f.scroll = top
	fns := make([]func(int), 0, len(f.scrollFns))
	for _, fn := range f.scrollFns {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(top)
	}
}

var (
	_ provider.ContentProvider  = (*FakeContent)(nil)
	_ provider.VCSProvider      = (*FakeVCS)(nil)
	_ provider.AnalysisProvider = (*FakeAnalysis)(nil)
	_ provider.CursorController = (*FakeCursor)(nil)
)
