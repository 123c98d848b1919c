package fscontent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/folio/internal/provider"
)

func TestRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0600))

	got, err := New().Read(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "package main\n", got.Content)
	assert.Equal(t, "go", got.Language)
	assert.False(t, got.IsBinary)
}

func TestRead_MissingFile(t *testing.T) {
	_, err := New().Read(context.Background(), filepath.Join(t.TempDir(), "ghost.go"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Unwrap(err)))
}

func TestRead_BinaryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 'P', 'N', 'G', 0x00, 0x1a}, 0600))

	got, err := New().Read(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, got.IsBinary)
	assert.Empty(t, got.Content)
}

func TestRead_NulByteBeyondSniffWindowIsText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.txt")
	content := strings.Repeat("a", binarySniffLen) + "\x00"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	got, err := New().Read(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, got.IsBinary)
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.go")

	res, err := New().Write(context.Background(), path, "package a\n", provider.WriteOptions{})
	require.NoError(t, err)
	assert.Nil(t, res.Content)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "package a\n", string(data))
}

func TestWrite_RunsRegisteredFormatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.go")

	p := New()
	p.RegisterFormatter("go", func(path, content string) (string, error) {
		return content + "\n// formatted\n", nil
	})

	res, err := p.Write(context.Background(), path, "package a", provider.WriteOptions{Format: true})
	require.NoError(t, err)
	require.NotNil(t, res.Content)
	assert.Contains(t, *res.Content, "// formatted")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, *res.Content, string(data))
}

func TestWrite_FormatterNoChangeReturnsNil(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.go")

	p := New()
	p.RegisterFormatter("go", func(path, content string) (string, error) {
		return content, nil
	})

	res, err := p.Write(context.Background(), path, "package a\n", provider.WriteOptions{Format: true})
	require.NoError(t, err)
	assert.Nil(t, res.Content)
}

func TestWrite_FormatterErrorAborts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.go")

	p := New()
	p.RegisterFormatter("go", func(path, content string) (string, error) {
		return "", errors.New("syntax error")
	})

	_, err := p.Write(context.Background(), path, "package a", provider.WriteOptions{Format: true})
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "failed format must not touch the file")
}

func TestWrite_SkipsFormatterWhenNotRequested(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.go")

	p := New()
	p.RegisterFormatter("go", func(path, content string) (string, error) {
		t.Fatal("formatter must not run")
		return content, nil
	})

	_, err := p.Write(context.Background(), path, "package a\n", provider.WriteOptions{})
	require.NoError(t, err)
}

func TestLanguageOf(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/src/main.go", "go"},
		{"/src/app.ts", "typescript"},
		{"/src/App.tsx", "typescriptreact"},
		{"/src/run.py", "python"},
		{"/src/lib.rs", "rust"},
		{"/docs/README.md", "markdown"},
		{"/etc/config.yaml", "yaml"},
		{"/etc/config.YML", "yaml"},
		{"/build/Dockerfile", "dockerfile"},
		{"/build/Makefile", "makefile"},
		{"/data/blob.bin", "plaintext"},
		{"/noext", "plaintext"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LanguageOf(tt.path), tt.path)
	}
}
