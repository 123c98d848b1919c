package persist

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/folio/internal/debounce"
	"github.com/zjrosen/folio/internal/log"
	"github.com/zjrosen/folio/internal/session"
	"github.com/zjrosen/folio/internal/tab"
)

// DefaultPersistDelay coalesces bursts of store events into one
// snapshot write.
const DefaultPersistDelay = 500 * time.Millisecond

// persistKey is the single debounce key; snapshot writes are whole-
// session, never per-tab.
const persistKey = "snapshot"

// Adapter observes a session store and keeps the snapshot for one
// project current. It also rebuilds the store from a stored snapshot
// on startup.
type Adapter struct {
	project string
	store   *session.Store
	repo    Repository
	sched   *debounce.Scheduler
	tracer  trace.Tracer

	mu       sync.Mutex
	restored bool
}

// AdapterOptions tunes the adapter. Zero values fall back to defaults.
type AdapterOptions struct {
	PersistDelay time.Duration
	Tracer       trace.Tracer
}

// NewAdapter creates an adapter for one project.
func NewAdapter(project string, store *session.Store, repo Repository, opts AdapterOptions) *Adapter {
	delay := opts.PersistDelay
	if delay <= 0 {
		delay = DefaultPersistDelay
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("persist")
	}
	return &Adapter{
		project: project,
		store:   store,
		repo:    repo,
		sched:   debounce.New("persist", delay),
		tracer:  tracer,
	}
}

// Start subscribes to store events and persists a snapshot after each
// quiet period, until ctx is cancelled.
func (a *Adapter) Start(ctx context.Context) {
	events := a.store.Subscribe(ctx)
	go func() {
		for range events {
			a.sched.Schedule(persistKey, func() {
				if err := a.SnapshotNow(); err != nil {
					log.ErrorErr(log.CatPersist, "snapshot write failed", err, "project", a.project)
				}
			})
		}
		a.sched.Close()
	}()
}

// Flush forces any pending snapshot write to run now.
func (a *Adapter) Flush() {
	a.sched.Flush(persistKey)
}

// SnapshotNow captures the store state and saves it.
func (a *Adapter) SnapshotNow() error {
	_, span := a.tracer.Start(context.Background(), "persist.snapshot")
	defer span.End()

	snap := a.capture()
	if err := a.repo.Save(snap); err != nil {
		return err
	}
	log.Debug(log.CatPersist, "snapshot saved", "project", a.project, "tabs", len(snap.Tabs))
	return nil
}

// capture builds a Snapshot from the current store state. The preview
// tab is intentionally excluded.
func (a *Adapter) capture() *Snapshot {
	snap := &Snapshot{
		Project:     a.project,
		ActiveGroup: string(a.store.ActiveGroup()),
		Sessions:    make(map[string]tab.SessionData),
		SavedAt:     time.Now(),
	}

	for _, gid := range a.store.Groups() {
		pinned := make(map[string]bool)
		for _, id := range a.store.PinnedTabs(gid) {
			pinned[id] = true
		}

		for _, id := range a.store.OpenTabs(gid) {
			t, ok := a.store.Tab(id)
			if !ok {
				continue
			}

			desc := TabDescriptor{
				ID:          id,
				DisplayName: t.Title(),
				Group:       string(gid),
				Pinned:      pinned[id],
			}

			switch v := t.(type) {
			case *tab.File:
				desc.Kind = tab.KindFile.String()
			case *tab.Diff:
				desc.Kind = tab.KindDiff.String()
				desc.SourcePath = v.Path
				desc.Staged = v.Staged
			case *tab.Chat:
				desc.Kind = tab.KindChat.String()
				desc.ChatSessionID = v.SessionID
			case *tab.Lazy:
				// Persist the placeholder as its target so the next
				// restore rebuilds the same descriptor.
				desc.Kind = v.TargetKind.String()
				desc.SourcePath = v.SourcePath
				desc.Staged = v.Staged
			}
			snap.Tabs = append(snap.Tabs, desc)

			if data, ok := a.store.SessionDataOf(id); ok {
				snap.Sessions[id] = data
			}
		}

		if gid == a.store.ActiveGroup() {
			snap.ActiveTab = a.store.ActiveTab(gid)
		}
	}

	return snap
}

// Restore rebuilds the tab bar from the stored snapshot as lazy
// placeholders, in order, without touching navigation history.
// Idempotent: a second call, or a call after the snapshot was already
// applied, is a no-op. A missing or corrupt snapshot means a first
// run, not an error.
func (a *Adapter) Restore(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.restored {
		return nil
	}

	_, span := a.tracer.Start(ctx, "persist.restore")
	defer span.End()

	snap, err := a.repo.Load(a.project)
	if err != nil {
		var notFound *SnapshotNotFoundError
		if errors.As(err, &notFound) {
			a.restored = true
			log.Info(log.CatPersist, "no snapshot; starting fresh", "project", a.project)
			return nil
		}
		return err
	}

	for _, desc := range snap.Tabs {
		gid := session.GroupID(desc.Group)
		if gid == "" {
			gid = session.DefaultGroup
		}
		a.store.CreateGroup(gid)

		switch desc.Kind {
		case tab.KindFile.String():
			a.store.RegisterLazy(gid, desc.ID, desc.DisplayName)
		case tab.KindDiff.String():
			a.store.RegisterLazyDiff(gid, desc.DisplayName, desc.SourcePath, desc.Staged)
		case tab.KindChat.String():
			a.store.RegisterChat(gid, desc.ChatSessionID, desc.DisplayName)
		default:
			log.Warn(log.CatPersist, "skipping descriptor with unknown kind", "id", desc.ID, "kind", desc.Kind)
			continue
		}

		if desc.Pinned {
			a.store.Pin(gid, desc.ID)
		}
	}

	for id, data := range snap.Sessions {
		a.store.SetSessionData(id, data)
	}

	if snap.ActiveTab != "" {
		gid := session.GroupID(snap.ActiveGroup)
		if gid == "" {
			gid = session.DefaultGroup
		}
		a.store.SetActive(gid, snap.ActiveTab, false, nil)
	}

	a.restored = true
	log.Info(log.CatPersist, "snapshot restored", "project", a.project, "tabs", len(snap.Tabs))
	return nil
}
