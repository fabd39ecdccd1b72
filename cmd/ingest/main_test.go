package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/axeltanjung/chatbot-rag/internal/infrastructure/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.md", "image.png", filepath.Join("nested", "c.pdf")} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))
	}
	single := filepath.Join(t.TempDir(), "notes.docx")
	require.NoError(t, os.WriteFile(single, []byte("x"), 0o644))

	files, err := collectFiles([]string{dir, single}, document.NewExtractor())
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.md"),
		filepath.Join(dir, "nested", "c.pdf"),
		single,
	}, files)
}

func TestCollectFiles_SkipsUnsupportedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.png")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	files, err := collectFiles([]string{path}, document.NewExtractor())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestCollectFiles_MissingPath(t *testing.T) {
	_, err := collectFiles([]string{filepath.Join(t.TempDir(), "missing")}, document.NewExtractor())
	assert.Error(t, err)
}

func TestRun_NoInput(t *testing.T) {
	err := run("", false, false, nil)
	assert.EqualError(t, err, "no input files")
}
