package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomdi/loom/internal/errors"
	"github.com/loomdi/loom/internal/models"
	"github.com/loomdi/loom/internal/scanner"
)

func scanFixture(t *testing.T, files map[string]string) *scanner.Result {
	t.Helper()
	dir := t.TempDir()
	files["go.mod"] = "module fixture\n\ngo 1.25\n"
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	result, err := scanner.New(dir).Scan("./...")
	require.NoError(t, err)
	return result
}

func bindingTypes(entry models.RegistrationEntry) []string {
	var out []string
	for _, b := range entry.Bindings {
		out = append(out, b.Type)
	}
	return out
}

func TestResolve_AutoDetection(t *testing.T) {
	result := scanFixture(t, map[string]string{
		"store/store.go": `package store

type Reader interface {
	Read(key string) (string, error)
}

type Writer interface {
	Write(key, value string) error
}

//loom::single
type DiskStore struct{}

func (s *DiskStore) Read(key string) (string, error)  { return "", nil }
func (s *DiskStore) Write(key, value string) error { return nil }
`,
	})

	registries, err := New(result).Resolve()
	require.NoError(t, err)
	require.Len(t, registries, 1)
	require.Len(t, registries[0].Entries, 1)

	entry := registries[0].Entries[0]
	assert.True(t, entry.Bindings[0].IsSelf)
	assert.ElementsMatch(t, []string{"*DiskStore", "Reader", "Writer"}, bindingTypes(entry))
}

func TestResolve_ExplicitBindsReplacesDetection(t *testing.T) {
	result := scanFixture(t, map[string]string{
		"store/store.go": `package store

type Reader interface {
	Read(key string) (string, error)
}

type Writer interface {
	Write(key, value string) error
}

//loom::single -Binds=Reader
type DiskStore struct{}

func (s *DiskStore) Read(key string) (string, error)  { return "", nil }
func (s *DiskStore) Write(key, value string) error { return nil }
`,
	})

	registries, err := New(result).Resolve()
	require.NoError(t, err)

	entry := registries[0].Entries[0]
	assert.Equal(t, []string{"Reader"}, bindingTypes(entry))
	assert.False(t, entry.Bindings[0].IsSelf)
}

func TestResolve_BindsNotImplemented(t *testing.T) {
	result := scanFixture(t, map[string]string{
		"store/store.go": `package store

type Closer interface {
	Close() error
}

//loom::single -Binds=Closer
type DiskStore struct{}
`,
	})

	_, err := New(result).Resolve()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not implement")
}

func TestResolve_BindsUnknownInterface(t *testing.T) {
	result := scanFixture(t, map[string]string{
		"store/store.go": `package store

//loom::single -Binds=Missing
type DiskStore struct{}
`,
	})

	_, err := New(result).Resolve()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "was not found in the scanned packages")
}

func TestResolve_QualifierAppliesToAllBindings(t *testing.T) {
	result := scanFixture(t, map[string]string{
		"store/store.go": `package store

type Reader interface {
	Read(key string) (string, error)
}

//loom::single -Name=disk
type DiskStore struct{}

func (s *DiskStore) Read(key string) (string, error) { return "", nil }
`,
	})

	registries, err := New(result).Resolve()
	require.NoError(t, err)

	for _, binding := range registries[0].Entries[0].Bindings {
		assert.Equal(t, "disk", binding.Qualifier)
	}
}

func TestResolve_ConflictOnDuplicateBinding(t *testing.T) {
	result := scanFixture(t, map[string]string{
		"store/store.go": `package store

type Reader interface {
	Read(key string) (string, error)
}

//loom::single
type DiskStore struct{}

func (s *DiskStore) Read(key string) (string, error) { return "", nil }

//loom::single
type MemStore struct{}

func (s *MemStore) Read(key string) (string, error) { return "", nil }
`,
	})

	_, err := New(result).Resolve()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate registration")
	assert.Contains(t, err.Error(), "Reader")
}

func TestResolve_QualifierAvoidsConflict(t *testing.T) {
	result := scanFixture(t, map[string]string{
		"store/store.go": `package store

type Reader interface {
	Read(key string) (string, error)
}

//loom::single -Name=disk
type DiskStore struct{}

func (s *DiskStore) Read(key string) (string, error) { return "", nil }

//loom::single -Name=mem
type MemStore struct{}

func (s *MemStore) Read(key string) (string, error) { return "", nil }
`,
	})

	registries, err := New(result).Resolve()
	require.NoError(t, err)
	assert.Len(t, registries[0].Entries, 2)
}

func TestResolve_UnknownScopeType(t *testing.T) {
	result := scanFixture(t, map[string]string{
		"cart/cart.go": `package cart

//loom::scoped -Scope=Session
type CartStore struct{}
`,
	})

	_, err := New(result).Resolve()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown scope")
}

func TestResolve_NamedScopeNeedsNoDeclaration(t *testing.T) {
	result := scanFixture(t, map[string]string{
		"cart/cart.go": `package cart

//loom::scoped -Scope="checkout"
type CartStore struct{}
`,
	})

	registries, err := New(result).Resolve()
	require.NoError(t, err)
	assert.Equal(t, models.ScopeName, registries[0].Entries[0].Component.Scope.Kind)
}

func TestResolve_CrossPackageConflictDetected(t *testing.T) {
	result := scanFixture(t, map[string]string{
		"store/iface.go": `package store

type Reader interface {
	Read(key string) (string, error)
}

//loom::single
type DiskStore struct{}

func (s *DiskStore) Read(key string) (string, error) { return "", nil }
`,
		"cache/cache.go": `package cache

import "fixture/store"

//loom::single -Binds=store.Reader
type MemCache struct{}

func (c *MemCache) Read(key string) (string, error) { return "", nil }

var _ = store.Reader(nil)
`,
	})

	_, err := New(result).Resolve()
	require.Error(t, err)

	var multi *errors.MultipleErrors
	require.ErrorAs(t, err, &multi)
	assert.True(t, multi.HasCode(errors.ConflictErrorCode))
}
