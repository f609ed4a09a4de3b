package cli

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomdi/loom/internal/generator"
	"github.com/loomdi/loom/internal/utils"
)

func writePipelineFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"go.mod": "module fixture\n\ngo 1.25\n",
		"store/store.go": `package store

type Repository interface {
	Find(id string) string
}

//loom::single
type DiskStore struct {
	//loom::property store.root -Default=/var/data
	root string
}

func (s *DiskStore) Find(id string) string { return s.root + id }

//loom::single
type Catalog struct {
	//loom::inject
	Repo Repository
}
`,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func newQuietGenerator() *Generator {
	return NewGeneratorWithDiagnostics(false, utils.NewQuietDiagnostics())
}

func TestGenerator_RunWritesRegistryFile(t *testing.T) {
	dir := writePipelineFixture(t)

	g := newQuietGenerator()
	require.NoError(t, g.Run(Config{Dir: dir, Patterns: []string{"./..."}}))

	generated := filepath.Join(dir, "store", generator.GeneratedFileName)
	require.FileExists(t, generated)

	content, err := os.ReadFile(generated)
	require.NoError(t, err)

	src := string(content)
	assert.Contains(t, src, "func provideDiskStore")
	assert.Contains(t, src, "func provideCatalog")
	assert.Contains(t, src, "var LoomModule = loom.Module(\"store\"")
	assert.Contains(t, src, "loom.As[Repository]()")

	fset := token.NewFileSet()
	_, err = parser.ParseFile(fset, generated, content, parser.ParseComments)
	assert.NoError(t, err)

	summary := g.GetSummary()
	assert.Equal(t, "fixture", summary.ModuleName)
	assert.Equal(t, 1, summary.PackagesScanned)
	assert.Equal(t, 2, summary.ComponentsFound)
	assert.Equal(t, []string{generated}, summary.GeneratedFiles)
}

func TestGenerator_RunRejectsMismatchedModuleOverride(t *testing.T) {
	dir := writePipelineFixture(t)

	err := newQuietGenerator().Run(Config{
		Dir:        dir,
		Patterns:   []string{"./..."},
		ModuleName: "example.com/elsewhere",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside module example.com/elsewhere")

	generated := filepath.Join(dir, "store", generator.GeneratedFileName)
	assert.NoFileExists(t, generated)
}

func TestGenerator_RunAcceptsMatchingModuleOverride(t *testing.T) {
	dir := writePipelineFixture(t)

	g := newQuietGenerator()
	require.NoError(t, g.Run(Config{
		Dir:        dir,
		Patterns:   []string{"./..."},
		ModuleName: "fixture",
	}))
	assert.Equal(t, "fixture", g.GetSummary().ModuleName)
}

func TestGenerator_RunSurfacesConflicts(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"go.mod": "module fixture\n\ngo 1.25\n",
		"store/store.go": `package store

type Repository interface {
	Find(id string) string
}

//loom::single
type DiskStore struct{}

func (s *DiskStore) Find(id string) string { return id }

//loom::single
type MemStore struct{}

func (s *MemStore) Find(id string) string { return id }
`,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	err := newQuietGenerator().Run(Config{Dir: dir, Patterns: []string{"./..."}})
	require.Error(t, err)
}

func TestGenerator_RunMissingModuleName(t *testing.T) {
	g := newQuietGenerator()
	err := g.Run(Config{Dir: t.TempDir(), Patterns: []string{"./..."}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "module")
}
