package tab

import (
	"fmt"
	"strings"
)

// URL schemes for non-file tabs. File tabs use the bare file path so a
// path round-trips unchanged through snapshots.
const (
	diffScheme = "diff://"
	chatScheme = "chat://"
)

// DiffURL builds the synthetic identifier for a diff tab from its
// source path and staged flag. Staged and unstaged diffs of the same
// file are distinct tabs.
func DiffURL(path string, staged bool) string {
	if staged {
		return fmt.Sprintf("%s%s?staged=true", diffScheme, path)
	}
	return fmt.Sprintf("%s%s?staged=false", diffScheme, path)
}

// ChatURL builds the identifier for a chat tab from its session id.
func ChatURL(sessionID string) string {
	return chatScheme + sessionID
}

// IsDiffURL reports whether the identifier names a diff tab.
func IsDiffURL(url string) bool {
	return strings.HasPrefix(url, diffScheme)
}

// IsChatURL reports whether the identifier names a chat tab.
func IsChatURL(url string) bool {
	return strings.HasPrefix(url, chatScheme)
}

// BaseName returns the final path element, used as a file tab title.
func BaseName(path string) string {
	if idx := strings.LastIndexAny(path, "/\\"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
