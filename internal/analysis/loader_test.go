package analysis

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/folio/internal/log"
	"github.com/zjrosen/folio/internal/tab"
	"github.com/zjrosen/folio/internal/testutil"
)

func TestMain(m *testing.M) {
	log.InitWithWriter(&bytes.Buffer{})
	m.Run()
}

// recordingStore captures loader writes without a full session store.
type recordingStore struct {
	mu             sync.Mutex
	heads          map[string]string
	blames         map[string][]tab.BlameLine
	outlines       map[string][]tab.Symbol
	blameLoading   map[string]bool
	outlineLoading map[string]bool
}

func newRecordingStore() *recordingStore {
	return &recordingStore{
		heads:          make(map[string]string),
		blames:         make(map[string][]tab.BlameLine),
		outlines:       make(map[string][]tab.Symbol),
		blameLoading:   make(map[string]bool),
		outlineLoading: make(map[string]bool),
	}
}

func (r *recordingStore) SetHeadContent(id, head string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.heads[id] = head
	return true
}

func (r *recordingStore) SetBlame(id string, lines []tab.BlameLine) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blames[id] = lines
	r.blameLoading[id] = false
	return true
}

func (r *recordingStore) SetBlameLoading(id string, loading bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blameLoading[id] = loading
}

func (r *recordingStore) SetOutline(id string, symbols []tab.Symbol) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outlines[id] = symbols
	r.outlineLoading[id] = false
	return true
}

func (r *recordingStore) SetOutlineLoading(id string, loading bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outlineLoading[id] = loading
}

func (r *recordingStore) head(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.heads[id]
	return h, ok
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.OutlineBackoff = time.Millisecond
	return cfg
}

func TestLoadHeadContent(t *testing.T) {
	store := newRecordingStore()
	vcs := testutil.NewFakeVCS()
	vcs.SetHead("/a.go", "head content")
	l := New(store, vcs, nil, fastConfig())

	require.NoError(t, l.LoadHeadContent(context.Background(), "/a.go"))

	head, ok := store.head("/a.go")
	require.True(t, ok)
	assert.Equal(t, "head content", head)
}

func TestLoadHeadContent_CachesPerPath(t *testing.T) {
	store := newRecordingStore()
	vcs := testutil.NewFakeVCS()
	vcs.SetHead("/a.go", "head content")
	l := New(store, vcs, nil, fastConfig())

	require.NoError(t, l.LoadHeadContent(context.Background(), "/a.go"))
	require.NoError(t, l.LoadHeadContent(context.Background(), "/a.go"))

	assert.Len(t, vcs.HeadCalls, 1)
}

func TestLoadHeadContent_AbsentAtHeadIsEmptyBaseline(t *testing.T) {
	store := newRecordingStore()
	vcs := testutil.NewFakeVCS()
	l := New(store, vcs, nil, fastConfig())

	require.NoError(t, l.LoadHeadContent(context.Background(), "/new.go"))

	head, ok := store.head("/new.go")
	require.True(t, ok)
	assert.Empty(t, head)
}

func TestLoadHeadContent_ErrorsAreNotCached(t *testing.T) {
	store := newRecordingStore()
	vcs := testutil.NewFakeVCS()
	vcs.HeadErr = errors.New("repository locked")
	l := New(store, vcs, nil, fastConfig())

	require.Error(t, l.LoadHeadContent(context.Background(), "/a.go"))

	_, ok := store.head("/a.go")
	assert.False(t, ok)

	// A later call retries instead of serving the failure.
	vcs.HeadErr = nil
	vcs.SetHead("/a.go", "recovered")
	require.NoError(t, l.LoadHeadContent(context.Background(), "/a.go"))
	head, _ := store.head("/a.go")
	assert.Equal(t, "recovered", head)
}

func TestInvalidateHead_ForcesRefetch(t *testing.T) {
	store := newRecordingStore()
	vcs := testutil.NewFakeVCS()
	vcs.SetHead("/a.go", "before commit")
	l := New(store, vcs, nil, fastConfig())

	require.NoError(t, l.LoadHeadContent(context.Background(), "/a.go"))

	vcs.SetHead("/a.go", "after commit")
	l.InvalidateHead(context.Background(), "/a.go")

	require.NoError(t, l.LoadHeadContent(context.Background(), "/a.go"))
	head, _ := store.head("/a.go")
	assert.Equal(t, "after commit", head)
	assert.Len(t, vcs.HeadCalls, 2)
}

func TestLoadHeadContent_NilVCSIsNoop(t *testing.T) {
	l := New(newRecordingStore(), nil, nil, fastConfig())
	assert.NoError(t, l.LoadHeadContent(context.Background(), "/a.go"))
}

func TestLoadBlame(t *testing.T) {
	store := newRecordingStore()
	vcs := testutil.NewFakeVCS()
	lines := []tab.BlameLine{{CommitHash: "abc123", Author: "dev"}}
	vcs.SetBlame("/a.go", lines)
	l := New(store, vcs, nil, fastConfig())

	require.NoError(t, l.LoadBlame(context.Background(), "/a.go"))

	assert.Equal(t, lines, store.blames["/a.go"])
	assert.False(t, store.blameLoading["/a.go"])
}

func TestLoadBlame_ErrorClearsLoadingFlag(t *testing.T) {
	store := newRecordingStore()
	vcs := testutil.NewFakeVCS()
	vcs.BlameErr = errors.New("not tracked")
	l := New(store, vcs, nil, fastConfig())

	require.Error(t, l.LoadBlame(context.Background(), "/a.go"))

	assert.False(t, store.blameLoading["/a.go"])
	assert.Empty(t, store.blames["/a.go"])
}

func TestSupportsOutline(t *testing.T) {
	l := New(newRecordingStore(), nil, nil, fastConfig())

	assert.True(t, l.SupportsOutline("go"))
	assert.True(t, l.SupportsOutline("typescript"))
	assert.False(t, l.SupportsOutline("markdown"))
	assert.False(t, l.SupportsOutline(""))
}

func TestLoadOutline_RetriesUntilAnalyzerCatchesUp(t *testing.T) {
	store := newRecordingStore()
	an := testutil.NewFakeAnalysis()
	symbols := []tab.Symbol{{Name: "main", Kind: "function", Line: 3}}
	an.SetSymbols("/a.go", symbols)
	an.FailSymbolsTimes(2, errors.New("document not processed"))
	l := New(store, nil, an, fastConfig())

	l.LoadOutline(context.Background(), "/a.go", "go")

	assert.Equal(t, symbols, store.outlines["/a.go"])
	assert.False(t, store.outlineLoading["/a.go"])
	assert.Equal(t, 3, an.SymbolCalls["/a.go"])
}

func TestLoadOutline_GivesUpAfterFinalAttempt(t *testing.T) {
	store := newRecordingStore()
	an := testutil.NewFakeAnalysis()
	an.SymbolsErr = errors.New("analyzer down")
	l := New(store, nil, an, fastConfig())

	l.LoadOutline(context.Background(), "/a.go", "go")

	assert.False(t, store.outlineLoading["/a.go"])
	assert.Empty(t, store.outlines["/a.go"])
	assert.Equal(t, DefaultOutlineRetries, an.SymbolCalls["/a.go"])
}

func TestLoadOutline_UnsupportedLanguageSkipped(t *testing.T) {
	store := newRecordingStore()
	an := testutil.NewFakeAnalysis()
	l := New(store, nil, an, fastConfig())

	l.LoadOutline(context.Background(), "/notes.md", "markdown")

	assert.Zero(t, an.SymbolCalls["/notes.md"])
	assert.False(t, store.outlineLoading["/notes.md"])
}

func TestLoadOutline_ContextCancelStopsRetrying(t *testing.T) {
	store := newRecordingStore()
	an := testutil.NewFakeAnalysis()
	an.SymbolsErr = errors.New("analyzer down")
	cfg := fastConfig()
	cfg.OutlineBackoff = time.Hour
	l := New(store, nil, an, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		l.LoadOutline(ctx, "/a.go", "go")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("outline load did not observe cancellation")
	}
	assert.False(t, store.outlineLoading["/a.go"])
	assert.Equal(t, 1, an.SymbolCalls["/a.go"])
}

func TestNew_SanitizesConfig(t *testing.T) {
	l := New(newRecordingStore(), nil, nil, Config{OutlineLanguages: []string{"go"}})

	assert.Equal(t, DefaultOutlineRetries, l.cfg.OutlineRetries)
	assert.Equal(t, DefaultOutlineBackoff, l.cfg.OutlineBackoff)
	assert.Equal(t, DefaultHeadTTL, l.cfg.HeadTTL)
}
