package tracing

// Span attribute keys for session tracing.
const (
	// Tab attributes
	AttrTabID    = "tab.id"
	AttrTabKind  = "tab.kind"
	AttrTabPath  = "tab.path"
	AttrTabGroup = "tab.group"

	// Document attributes
	AttrLanguage    = "document.language"
	AttrContentSize = "document.size"
	AttrDirty       = "document.dirty"

	// Diff attributes
	AttrDiffAdded   = "diff.added"
	AttrDiffRemoved = "diff.removed"

	// Snapshot attributes
	AttrProject  = "snapshot.project"
	AttrTabCount = "snapshot.tab_count"

	// Error attributes
	AttrErrorMessage = "error.message"
	AttrErrorType    = "error.type"
)

// Span names used across the session and persistence layers.
const (
	SpanOpenPath       = "session.open_path"
	SpanSave           = "session.save"
	SpanDiffRecompute  = "session.diff_recompute"
	SpanSnapshot       = "persist.snapshot"
	SpanRestore        = "persist.restore"
	SpanOutlineRefresh = "analysis.outline_refresh"
)
