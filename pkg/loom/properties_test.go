package loom

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestProperties_TOMLFileWithNestedTables(t *testing.T) {
	path := writeTempFile(t, "app.toml", `
greeting = "hello"

[database]
url = "postgres://localhost/app"
pool-size = 8
read-only = false
timeout = "2s"
`)

	reg := NewRegistry(WithPropertiesFile(path))
	inj := reg.Injector()

	url, err := GetProperty[string](inj, "database.url")
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/app", url)

	size, err := GetProperty[int](inj, "database.pool-size")
	require.NoError(t, err)
	assert.Equal(t, 8, size)

	readOnly, err := GetProperty[bool](inj, "database.read-only")
	require.NoError(t, err)
	assert.False(t, readOnly)

	timeout, err := GetProperty[time.Duration](inj, "database.timeout")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, timeout)
}

func TestProperties_EnvFileOverridesTOML(t *testing.T) {
	tomlPath := writeTempFile(t, "app.toml", `
[database]
url = "postgres://file"
`)
	envPath := writeTempFile(t, ".env", "DATABASE_URL=postgres://dotenv\n")

	reg := NewRegistry(WithPropertiesFile(tomlPath), WithEnvFile(envPath))

	url, err := GetProperty[string](reg.Injector(), "database.url")
	require.NoError(t, err)
	assert.Equal(t, "postgres://dotenv", url)
}

func TestProperties_ProcessEnvironmentWins(t *testing.T) {
	envPath := writeTempFile(t, ".env", "CACHE_TTL=10s\n")
	t.Setenv("CACHE_TTL", "30s")

	reg := NewRegistry(WithEnvFile(envPath))

	ttl, err := GetProperty[time.Duration](reg.Injector(), "cache.ttl")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, ttl)
}

func TestProperties_ExplicitOverrideWinsOverEverything(t *testing.T) {
	t.Setenv("CACHE_TTL", "30s")

	reg := NewRegistry(WithProperty("cache.ttl", "5s"))

	ttl, err := GetProperty[time.Duration](reg.Injector(), "cache.ttl")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, ttl)
}

func TestProperties_DefaultFallback(t *testing.T) {
	reg := NewRegistry()
	inj := reg.Injector()

	port, err := GetPropertyOr[int](inj, "server.port", "8080")
	require.NoError(t, err)
	assert.Equal(t, 8080, port)

	_, err = GetProperty[int](inj, "server.port")
	require.Error(t, err)
	var loomErr *Error
	require.ErrorAs(t, err, &loomErr)
	assert.Equal(t, ErrCodeMissingProperty, loomErr.Code)
}

func TestProperties_ConversionFailure(t *testing.T) {
	reg := NewRegistry(WithProperty("server.port", "not-a-number"))

	_, err := GetProperty[int](reg.Injector(), "server.port")
	require.Error(t, err)
	var loomErr *Error
	require.ErrorAs(t, err, &loomErr)
	assert.Equal(t, ErrCodeConversion, loomErr.Code)
}

func TestProperties_MissingFilePanics(t *testing.T) {
	assert.Panics(t, func() {
		NewRegistry(WithPropertiesFile(filepath.Join(t.TempDir(), "absent.toml")))
	})
}
