// Package git implements the VCS collaborator by shelling out to the
// git CLI. No CGO, no libgit2: the commands used here are stable
// plumbing available in every git since 2.x.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zjrosen/folio/internal/log"
	"github.com/zjrosen/folio/internal/provider"
	"github.com/zjrosen/folio/internal/tab"
)

// Git-specific errors surfaced to callers.
var (
	// ErrNotGitRepo indicates the directory is not a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrNotTracked indicates the file is not tracked by git.
	ErrNotTracked = errors.New("file is not tracked")
)

// Compile-time check that VCS implements the provider contract.
var _ provider.VCSProvider = (*VCS)(nil)

// VCS answers version-control queries for documents under one
// repository by executing git commands.
type VCS struct {
	workDir string
}

// New creates a VCS rooted at workDir. The directory does not have to
// be the repository root; git resolves it.
func New(workDir string) *VCS {
	return &VCS{workDir: workDir}
}

// runGit executes a git command and returns stdout with the trailing
// newline stripped, the form most plumbing queries want.
func (v *VCS) runGit(ctx context.Context, args ...string) (string, error) {
	out, err := v.runGitRaw(ctx, args...)
	return strings.TrimRight(out, "\n"), err
}

// runGitRaw executes a git command and returns stdout byte for byte.
// Used where the output is file content and trailing newlines matter.
func (v *VCS) runGitRaw(ctx context.Context, args ...string) (string, error) {
	//nolint:gosec // G204: args come from controlled sources
	cmd := exec.CommandContext(ctx, "git", args...)
	if v.workDir != "" {
		cmd.Dir = v.workDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		if stderrStr != "" {
			return "", parseGitError(stderrStr, err)
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return stdout.String(), nil
}

// parseGitError converts git stderr messages to specific error types.
func parseGitError(stderr string, originalErr error) error {
	lower := strings.ToLower(stderr)

	if strings.Contains(lower, "not a git repository") {
		return fmt.Errorf("%w: %s", ErrNotGitRepo, stderr)
	}
	if strings.Contains(lower, "no such path") ||
		strings.Contains(lower, "does not exist") ||
		strings.Contains(lower, "exists on disk, but not in") {
		return fmt.Errorf("%w: %s", ErrNotTracked, stderr)
	}
	return fmt.Errorf("git error: %s: %w", stderr, originalErr)
}

// IsGitRepo reports whether workDir is inside a git repository.
func (v *VCS) IsGitRepo(ctx context.Context) bool {
	_, err := v.runGit(ctx, "rev-parse", "--git-dir")
	return err == nil
}

// RepoRoot returns the repository's top-level directory.
func (v *VCS) RepoRoot(ctx context.Context) (string, error) {
	return v.runGit(ctx, "rev-parse", "--show-toplevel")
}

// CurrentBranch returns the checked-out branch name, empty for a
// detached HEAD.
func (v *VCS) CurrentBranch(ctx context.Context) (string, error) {
	return v.runGit(ctx, "branch", "--show-current")
}

// relPath converts path to a repository-relative path with forward
// slashes, the form git's object syntax expects.
func (v *VCS) relPath(ctx context.Context, path string) (string, error) {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(path), nil
	}
	root, err := v.RepoRoot(ctx)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", fmt.Errorf("path %s outside repository %s: %w", path, root, err)
	}
	return filepath.ToSlash(rel), nil
}

// ShowHeadContent returns the file content at HEAD, or nil if the file
// does not exist at HEAD. A nil result is the caller's cue to treat
// the whole document as added.
func (v *VCS) ShowHeadContent(ctx context.Context, path string) (*string, error) {
	rel, err := v.relPath(ctx, path)
	if err != nil {
		return nil, err
	}

	out, err := v.runGitRaw(ctx, "show", "HEAD:"+rel)
	if errors.Is(err, ErrNotTracked) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Blame returns per-line annotations for the file at HEAD, parsed from
// git blame --line-porcelain.
func (v *VCS) Blame(ctx context.Context, path string) ([]tab.BlameLine, error) {
	rel, err := v.relPath(ctx, path)
	if err != nil {
		return nil, err
	}

	out, err := v.runGit(ctx, "blame", "--line-porcelain", "HEAD", "--", rel)
	if err != nil {
		return nil, err
	}

	lines := parseBlame(out)
	log.Debug(log.CatVCS, "blame loaded", "path", path, "lines", len(lines))
	return lines, nil
}

// parseBlame parses --line-porcelain output. Each source line is
// preceded by a full header block: a 40-hex commit line, then
// key-value headers, then the content line prefixed with a tab.
func parseBlame(out string) []tab.BlameLine {
	var lines []tab.BlameLine
	var current tab.BlameLine

	for _, raw := range strings.Split(out, "\n") {
		if strings.HasPrefix(raw, "\t") {
			lines = append(lines, current)
			current = tab.BlameLine{}
			continue
		}

		if key, value, ok := strings.Cut(raw, " "); ok {
			switch key {
			case "author":
				current.Author = value
			case "author-time":
				if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
					current.Date = time.Unix(secs, 0).Format("2006-01-02")
				}
			case "summary":
				current.Summary = value
			default:
				if current.CommitHash == "" && isCommitHeader(key) {
					current.CommitHash = shortHash(key)
				}
			}
		}
	}
	return lines
}

// isCommitHeader reports whether s looks like the leading 40-hex
// commit field of a porcelain header.
func isCommitHeader(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

// DiffContents returns the two text snapshots a diff tab compares for
// path. Staged compares HEAD against the index; unstaged compares the
// index against the working tree. Absent sides come back empty.
func (v *VCS) DiffContents(ctx context.Context, path string, staged bool) (original, modified string, err error) {
	rel, relErr := v.relPath(ctx, path)
	if relErr != nil {
		return "", "", relErr
	}

	indexContent, idxErr := v.runGitRaw(ctx, "show", ":"+rel)
	if idxErr != nil && !errors.Is(idxErr, ErrNotTracked) {
		return "", "", idxErr
	}

	if staged {
		head, headErr := v.ShowHeadContent(ctx, path)
		if headErr != nil {
			return "", "", headErr
		}
		if head != nil {
			original = *head
		}
		return original, indexContent, nil
	}

	worktree, readErr := os.ReadFile(path) // #nosec G304 -- path names an open document
	if readErr != nil && !os.IsNotExist(readErr) {
		return "", "", fmt.Errorf("reading working tree copy: %w", readErr)
	}
	return indexContent, string(worktree), nil
}

// Change is one entry of the repository's working-set status.
type Change struct {
	Path   string
	Staged bool
}

// ChangedFiles lists paths with staged or unstaged modifications,
// repository-relative. A path appears twice when it has both.
func (v *VCS) ChangedFiles(ctx context.Context) ([]Change, error) {
	out, err := v.runGit(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}

	var changes []Change
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		// Format: XY <path>; X is the index status, Y the worktree.
		x, y, path := line[0], line[1], line[3:]
		if x != ' ' && x != '?' {
			changes = append(changes, Change{Path: path, Staged: true})
		}
		if y != ' ' {
			changes = append(changes, Change{Path: path, Staged: false})
		}
	}
	return changes, nil
}
