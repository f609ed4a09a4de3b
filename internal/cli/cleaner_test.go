package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomdi/loom/internal/generator"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCleaner_RemovesGeneratedFilesRecursively(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, generator.GeneratedFileName), "package a\n")
	writeFile(t, filepath.Join(dir, "store", generator.GeneratedFileName), "package store\n")
	writeFile(t, filepath.Join(dir, "store", "store.go"), "package store\n")
	writeFile(t, filepath.Join(dir, ".git", generator.GeneratedFileName), "package hidden\n")

	removed, err := NewCleaner().CleanGeneratedFiles([]string{dir + "/..."})
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	assert.NoFileExists(t, filepath.Join(dir, generator.GeneratedFileName))
	assert.NoFileExists(t, filepath.Join(dir, "store", generator.GeneratedFileName))
	assert.FileExists(t, filepath.Join(dir, "store", "store.go"))
	// hidden directories are left alone
	assert.FileExists(t, filepath.Join(dir, ".git", generator.GeneratedFileName))
}

func TestCleaner_SingleDirectoryOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, generator.GeneratedFileName), "package a\n")
	writeFile(t, filepath.Join(dir, "nested", generator.GeneratedFileName), "package nested\n")

	removed, err := NewCleaner().CleanGeneratedFiles([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, generator.GeneratedFileName)}, removed)
	assert.FileExists(t, filepath.Join(dir, "nested", generator.GeneratedFileName))
}

func TestCleaner_NothingToClean(t *testing.T) {
	removed, err := NewCleaner().CleanGeneratedFiles([]string{t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, removed)
}
