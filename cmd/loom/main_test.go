package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Help(t *testing.T) {
	assert.Equal(t, 0, run([]string{"--help"}))
}

func TestRun_CleanRemovesGeneratedFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "store", "autogen_registry.go")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte("package store\n"), 0o644))

	code := run([]string{"--quiet", "--clean", dir + "/..."})
	assert.Equal(t, 0, code)
	assert.NoFileExists(t, target)
}

func TestRun_GeneratesRegistry(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"go.mod": "module fixture\n\ngo 1.25\n",
		"store/store.go": `package store

//loom::single
type DiskStore struct{}
`,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	t.Chdir(dir)

	code := run([]string{"--quiet", "./..."})
	assert.Equal(t, 0, code)
	assert.FileExists(t, filepath.Join(dir, "store", "autogen_registry.go"))
}

func TestRun_FailsOutsideModule(t *testing.T) {
	t.Chdir(t.TempDir())
	assert.Equal(t, 1, run([]string{"--quiet", "./..."}))
}
