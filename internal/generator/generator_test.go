package generator

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomdi/loom/internal/models"
)

func storeRegistry(dir string) *models.PackageRegistry {
	return &models.PackageRegistry{
		PackageName: "store",
		PackagePath: dir,
		ImportPath:  "example.com/app/store",
		Entries: []models.RegistrationEntry{
			{
				Component: &models.ComponentDecl{
					Name:      "DiskStore",
					Package:   "store",
					Lifecycle: models.LifecycleSingle,
					Qualifier: "disk",
					Dependencies: []models.Dependency{
						{FieldName: "dsn", Type: "string", Mode: models.ResolveProperty, PropertyKey: "db.dsn"},
					},
				},
				Bindings: []models.Binding{
					{Type: "*DiskStore", IsSelf: true, Qualifier: "disk"},
					{Type: "Reader", Qualifier: "disk"},
				},
			},
		},
	}
}

func TestGenerate_ProducesParsableGo(t *testing.T) {
	dir := t.TempDir()
	file, err := New().Generate(storeRegistry(dir))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, GeneratedFileName), file.Path)
	assert.Equal(t, "LoomModule", file.Module.VariableName)

	fset := token.NewFileSet()
	parsed, err := parser.ParseFile(fset, "autogen_registry.go", file.Content, parser.ParseComments)
	require.NoError(t, err)
	assert.Equal(t, "store", parsed.Name.Name)
}

func TestGenerate_EmptyRegistry(t *testing.T) {
	_, err := New().Generate(&models.PackageRegistry{PackageName: "empty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entries")
}

func TestGeneratedFile_Write(t *testing.T) {
	dir := t.TempDir()
	file, err := New().Generate(storeRegistry(dir))
	require.NoError(t, err)
	require.NoError(t, file.Write())

	content, err := os.ReadFile(file.Path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "// Code generated by loom. DO NOT EDIT.")
	assert.Contains(t, string(content), "var LoomModule = loom.Module(\"store\",")
}
