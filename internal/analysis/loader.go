// Package analysis loads slow per-document annotations — VCS head
// content, blame, and outline symbols — into the session store without
// blocking store operations. The loader is synchronous; callers run it
// from their own goroutines.
package analysis

import (
	"context"
	"time"

	"github.com/zjrosen/folio/internal/cachemanager"
	"github.com/zjrosen/folio/internal/log"
	"github.com/zjrosen/folio/internal/provider"
	"github.com/zjrosen/folio/internal/tab"
)

// Default policies for outline loading. The analyzer often has not
// processed a just-opened document yet, so the first attempts are
// expected to fail sometimes.
const (
	DefaultOutlineRetries = 3
	DefaultOutlineBackoff = 500 * time.Millisecond
	DefaultHeadTTL        = 5 * time.Minute
)

// Store is the slice of the session store the loader writes into.
type Store interface {
	SetHeadContent(id, head string) bool
	SetBlame(id string, lines []tab.BlameLine) bool
	SetBlameLoading(id string, loading bool)
	SetOutline(id string, symbols []tab.Symbol) bool
	SetOutlineLoading(id string, loading bool)
}

// Config tunes the loader.
type Config struct {
	OutlineRetries int
	OutlineBackoff time.Duration

	// OutlineLanguages is the allow-list of languages the analyzer
	// supports document symbols for.
	OutlineLanguages []string

	// HeadTTL bounds how long fetched head content is reused.
	HeadTTL time.Duration
}

// DefaultConfig returns the standard loader policy.
func DefaultConfig() Config {
	return Config{
		OutlineRetries:   DefaultOutlineRetries,
		OutlineBackoff:   DefaultOutlineBackoff,
		OutlineLanguages: []string{"go", "typescript", "javascript", "python", "rust"},
		HeadTTL:          DefaultHeadTTL,
	}
}

// Loader fetches annotations from the VCS and analysis collaborators.
type Loader struct {
	store    Store
	vcs      provider.VCSProvider
	analysis provider.AnalysisProvider
	cfg      Config

	headCache *cachemanager.ReadThrough[string, string]
}

// New creates a loader. vcs and analysis may be nil; the corresponding
// load methods become no-ops.
func New(store Store, vcs provider.VCSProvider, analysis provider.AnalysisProvider, cfg Config) *Loader {
	if cfg.OutlineRetries <= 0 {
		cfg.OutlineRetries = DefaultOutlineRetries
	}
	if cfg.OutlineBackoff <= 0 {
		cfg.OutlineBackoff = DefaultOutlineBackoff
	}
	if cfg.HeadTTL <= 0 {
		cfg.HeadTTL = DefaultHeadTTL
	}

	l := &Loader{store: store, vcs: vcs, analysis: analysis, cfg: cfg}

	if vcs != nil {
		mem := cachemanager.NewInMemory[string, string]("head-content", cfg.HeadTTL, cachemanager.DefaultCleanupInterval)
		l.headCache = cachemanager.NewReadThrough(mem, cfg.HeadTTL, func(ctx context.Context, path string) (string, error) {
			head, err := vcs.ShowHeadContent(ctx, path)
			if err != nil {
				return "", err
			}
			if head == nil {
				// Absent at HEAD: an empty baseline, not an error.
				return "", nil
			}
			return *head, nil
		})
	}
	return l
}

// LoadHeadContent fetches the VCS-head baseline for path and stores it
// on the tab, enabling diff recomputes. Cached per path.
func (l *Loader) LoadHeadContent(ctx context.Context, path string) error {
	if l.headCache == nil {
		return nil
	}

	head, err := l.headCache.Get(ctx, path)
	if err != nil {
		log.ErrorErr(log.CatAnalysis, "head content fetch failed", err, "path", path)
		return err
	}
	l.store.SetHeadContent(path, head)
	return nil
}

// InvalidateHead drops the cached baseline for path, used after a
// commit changes HEAD.
func (l *Loader) InvalidateHead(ctx context.Context, path string) {
	if l.headCache != nil {
		l.headCache.Invalidate(ctx, path)
	}
}

// LoadBlame fetches blame annotations for path. The loading flag is
// visible on the tab while the fetch runs.
func (l *Loader) LoadBlame(ctx context.Context, path string) error {
	if l.vcs == nil {
		return nil
	}

	l.store.SetBlameLoading(path, true)
	lines, err := l.vcs.Blame(ctx, path)
	if err != nil {
		l.store.SetBlameLoading(path, false)
		log.ErrorErr(log.CatAnalysis, "blame fetch failed", err, "path", path)
		return err
	}
	l.store.SetBlame(path, lines)
	return nil
}

// SupportsOutline reports whether language is on the outline
// allow-list.
func (l *Loader) SupportsOutline(language string) bool {
	for _, lang := range l.cfg.OutlineLanguages {
		if lang == language {
			return true
		}
	}
	return false
}

// LoadOutline fetches document symbols for path with bounded retries:
// a downstream analyzer that has not yet processed the document gets a
// few chances before we give up. After the final attempt the loading
// flag is cleared and the outline stays empty; this is not an error
// state beyond the absent outline.
func (l *Loader) LoadOutline(ctx context.Context, path, language string) {
	if l.analysis == nil || !l.SupportsOutline(language) {
		return
	}

	l.store.SetOutlineLoading(path, true)

	for attempt := 1; attempt <= l.cfg.OutlineRetries; attempt++ {
		symbols, err := l.analysis.DocumentSymbols(ctx, path)
		if err == nil {
			l.store.SetOutline(path, symbols)
			return
		}

		log.Warn(log.CatAnalysis, "outline fetch failed", "path", path, "attempt", attempt, "error", err.Error())
		if attempt == l.cfg.OutlineRetries {
			break
		}

		select {
		case <-ctx.Done():
			l.store.SetOutlineLoading(path, false)
			return
		case <-time.After(l.cfg.OutlineBackoff):
		}
	}

	// Stopped loading; the outline remains empty.
	l.store.SetOutlineLoading(path, false)
}
