// Package app is the composition root: it wires the session store to
// its collaborators (disk content, git, analysis loading, the file
// watcher, snapshot persistence, tracing) according to configuration
// and runs the background plumbing between them.
package app

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/zjrosen/folio/internal/analysis"
	"github.com/zjrosen/folio/internal/config"
	"github.com/zjrosen/folio/internal/fscontent"
	"github.com/zjrosen/folio/internal/git"
	"github.com/zjrosen/folio/internal/infrastructure/sqlite"
	"github.com/zjrosen/folio/internal/log"
	"github.com/zjrosen/folio/internal/persist"
	"github.com/zjrosen/folio/internal/provider"
	"github.com/zjrosen/folio/internal/session"
	"github.com/zjrosen/folio/internal/tab"
	"github.com/zjrosen/folio/internal/tracing"
	"github.com/zjrosen/folio/internal/watcher"
)

// Options overrides default collaborators, used by embedders and
// tests. Nil fields get the standard implementation.
type Options struct {
	Content    provider.ContentProvider
	VCS        provider.VCSProvider
	Analysis   provider.AnalysisProvider
	Cursor     provider.CursorController
	Repository persist.Repository
}

// App owns the wired subsystems for one editing session.
type App struct {
	cfg     config.Config
	store   *session.Store
	loader  *analysis.Loader
	adapter *persist.Adapter
	repo    persist.Repository
	content provider.ContentProvider
	watcher *watcher.Watcher
	tracing *tracing.Provider

	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeOnce sync.Once
}

// New wires an App from configuration. The store is usable
// immediately; background plumbing starts with Start.
func New(cfg config.Config, opts Options) (*App, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	project := cfg.Project
	if project == "" {
		if wd, err := os.Getwd(); err == nil {
			project = wd
		} else {
			project = "default"
		}
	}

	tp, err := newTracing(cfg.Tracing)
	if err != nil {
		return nil, err
	}

	content := opts.Content
	if content == nil {
		content = fscontent.New()
	}

	vcs := opts.VCS
	if vcs == nil {
		if g := git.New(""); g.IsGitRepo(context.Background()) {
			vcs = g
		}
	}

	store := session.New(session.Options{
		Content:            content,
		VCS:                vcs,
		Analysis:           opts.Analysis,
		Cursor:             opts.Cursor,
		Tracer:             tp.Tracer(),
		HistoryLimit:       cfg.Session.HistoryLimit,
		ChangeNotifyDelay:  time.Duration(cfg.Session.ChangeNotifyMs) * time.Millisecond,
		DiffRecomputeDelay: time.Duration(cfg.Session.DiffRecomputeMs) * time.Millisecond,
	})

	loader := analysis.New(store, vcs, opts.Analysis, analysis.Config{
		OutlineRetries:   cfg.Analysis.OutlineRetries,
		OutlineBackoff:   time.Duration(cfg.Analysis.OutlineBackoffMs) * time.Millisecond,
		OutlineLanguages: cfg.Analysis.OutlineLanguages,
		HeadTTL:          time.Duration(cfg.Analysis.HeadCacheTTLSeconds) * time.Second,
	})

	repo := opts.Repository
	if repo == nil {
		dbPath := cfg.Storage.DBPath
		if dbPath == "" {
			dbPath = config.DefaultDBPath()
		}
		repo, err = sqlite.NewSnapshotRepository(dbPath)
		if err != nil {
			store.Close()
			_ = tp.Shutdown(context.Background())
			return nil, err
		}
	}

	adapter := persist.NewAdapter(project, store, repo, persist.AdapterOptions{
		PersistDelay: time.Duration(cfg.Storage.PersistDelayMs) * time.Millisecond,
		Tracer:       tp.Tracer(),
	})

	var w *watcher.Watcher
	if cfg.Watcher.Enabled {
		w, err = watcher.New(watcher.Config{
			DebounceDur: time.Duration(cfg.Watcher.DebounceMs) * time.Millisecond,
		})
		if err != nil {
			log.ErrorErr(log.CatApp, "watcher unavailable; external edits will not reload", err)
			w = nil
		}
	}

	return &App{
		cfg:     cfg,
		store:   store,
		loader:  loader,
		adapter: adapter,
		repo:    repo,
		content: content,
		watcher: w,
		tracing: tp,
	}, nil
}

// newTracing fills the tracing config's derived defaults before
// building the provider.
func newTracing(cfg config.TracingConfig) (*tracing.Provider, error) {
	tc := tracing.Config{
		Enabled:      cfg.Enabled,
		Exporter:     cfg.Exporter,
		FilePath:     cfg.FilePath,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SampleRate:   cfg.SampleRate,
	}
	if tc.Enabled && tc.Exporter == "file" && tc.FilePath == "" {
		tc.FilePath = config.DefaultTracesFilePath()
	}
	return tracing.NewProvider(tc)
}

// Store returns the session store.
func (a *App) Store() *session.Store { return a.store }

// Loader returns the annotation loader.
func (a *App) Loader() *analysis.Loader { return a.loader }

// Start restores the previous session and launches the background
// plumbing: snapshot persistence, annotation loading on tab open, and
// external-change reloads. It returns once restoration is done.
func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)

	// Subscribe before restoring so promotions of restored placeholders
	// reach the open pipeline.
	events := a.store.Subscribe(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for e := range events {
			if e.Payload.Kind == session.TabOpened {
				a.onTabOpened(ctx, e.Payload.TabID)
			}
		}
	}()

	if err := a.adapter.Restore(ctx); err != nil {
		return err
	}

	a.adapter.Start(ctx)

	if a.watcher != nil {
		changes := a.watcher.Start()
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case path, ok := <-changes:
					if !ok {
						return
					}
					a.reloadFromDisk(ctx, path)
				}
			}
		}()
	}

	log.Info(log.CatApp, "session started", "project", a.cfg.Project)
	return nil
}

// onTabOpened registers the document with the watcher and loads its
// annotations in the background.
func (a *App) onTabOpened(ctx context.Context, id string) {
	t, ok := a.store.Tab(id)
	if !ok {
		return
	}
	f, ok := t.(*tab.File)
	if !ok {
		return
	}
	path, language := f.Path, f.Language

	if a.watcher != nil {
		if err := a.watcher.Watch(path); err != nil {
			log.Warn(log.CatApp, "cannot watch document", "path", path, "error", err.Error())
		}
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_ = a.loader.LoadHeadContent(ctx, path)
		a.loader.LoadOutline(ctx, path, language)
	}()
}

// reloadFromDisk picks up an external modification for an open clean
// tab. Dirty tabs keep their local edits.
func (a *App) reloadFromDisk(ctx context.Context, path string) {
	if _, open := a.store.Tab(path); !open {
		return
	}
	fc, err := a.content.Read(ctx, path)
	if err != nil {
		log.Warn(log.CatApp, "external change read failed", "path", path, "error", err.Error())
		return
	}
	if fc.IsBinary {
		return
	}
	if a.store.ReloadIfClean(path, fc.Content) {
		log.Debug(log.CatApp, "reloaded externally modified document", "path", path)
	}
}

// Shutdown flushes a final snapshot and tears everything down. Safe to
// call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	a.closeOnce.Do(func() {
		if snapErr := a.adapter.SnapshotNow(); snapErr != nil {
			log.ErrorErr(log.CatApp, "final snapshot failed", snapErr)
			err = snapErr
		}

		if a.cancel != nil {
			a.cancel()
		}
		if a.watcher != nil {
			_ = a.watcher.Stop()
		}
		a.store.Close()
		a.wg.Wait()

		if closeErr := a.repo.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if tErr := a.tracing.Shutdown(ctx); tErr != nil && err == nil {
			err = tErr
		}
		log.Info(log.CatApp, "session shut down", "project", a.cfg.Project)
	})
	return err
}
