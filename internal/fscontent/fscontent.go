// Package fscontent implements the content collaborator on the local
// file system. Binary detection uses git's heuristic: a NUL byte in
// the first 8000 bytes marks the file binary.
package fscontent

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zjrosen/folio/internal/provider"
)

const binarySniffLen = 8000

// Formatter rewrites source text on save, returning the formatted
// text. Returning the input unchanged is valid.
type Formatter func(path, content string) (string, error)

// Provider reads and writes documents on disk.
type Provider struct {
	// formatters maps a language id to its on-save formatter.
	formatters map[string]Formatter
}

var _ provider.ContentProvider = (*Provider)(nil)

// New creates a disk-backed content provider with no formatters.
func New() *Provider {
	return &Provider{formatters: make(map[string]Formatter)}
}

// RegisterFormatter installs an on-save formatter for a language.
func (p *Provider) RegisterFormatter(language string, f Formatter) {
	p.formatters[language] = f
}

// Read loads a document from disk.
func (p *Provider) Read(ctx context.Context, path string) (provider.FileContent, error) {
	if err := ctx.Err(); err != nil {
		return provider.FileContent{}, err
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path names a document the caller chose to open
	if err != nil {
		return provider.FileContent{}, fmt.Errorf("reading %s: %w", path, err)
	}

	if isBinary(data) {
		return provider.FileContent{IsBinary: true}, nil
	}
	return provider.FileContent{
		Content:  string(data),
		Language: LanguageOf(path),
	}, nil
}

// Write saves a document to disk, running the language's formatter
// first when one is registered and formatting was requested.
func (p *Provider) Write(ctx context.Context, path, content string, opts provider.WriteOptions) (provider.WriteResult, error) {
	if err := ctx.Err(); err != nil {
		return provider.WriteResult{}, err
	}

	var res provider.WriteResult
	if opts.Format {
		if f, ok := p.formatters[LanguageOf(path)]; ok {
			formatted, err := f(path, content)
			if err != nil {
				return provider.WriteResult{}, fmt.Errorf("formatting %s: %w", path, err)
			}
			if formatted != content {
				content = formatted
				res.Content = &formatted
			}
		}
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return provider.WriteResult{}, fmt.Errorf("writing %s: %w", path, err)
	}
	return res, nil
}

func isBinary(data []byte) bool {
	if len(data) > binarySniffLen {
		data = data[:binarySniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}

// languageByExt maps file extensions to editor language identifiers.
var languageByExt = map[string]string{
	".go":    "go",
	".ts":    "typescript",
	".tsx":   "typescriptreact",
	".js":    "javascript",
	".jsx":   "javascriptreact",
	".py":    "python",
	".rs":    "rust",
	".rb":    "ruby",
	".java":  "java",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".sh":    "shellscript",
	".bash":  "shellscript",
	".md":    "markdown",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".xml":   "xml",
	".html":  "html",
	".css":   "css",
	".scss":  "scss",
	".sql":   "sql",
	".proto": "proto",
	".txt":   "plaintext",
}

// LanguageOf derives the editor language identifier from a file path.
// Unknown extensions fall back to "plaintext".
func LanguageOf(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := languageByExt[ext]; ok {
		return lang
	}
	switch strings.ToLower(filepath.Base(path)) {
	case "dockerfile":
		return "dockerfile"
	case "makefile":
		return "makefile"
	}
	return "plaintext"
}
