package annotations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLocation() SourceLocation {
	return SourceLocation{File: "service.go", Line: 10, Column: 1}
}

func TestParseAnnotation_Lifecycle(t *testing.T) {
	parser := NewParser(DefaultRegistry())

	tests := []struct {
		name       string
		comment    string
		wantType   AnnotationType
		wantParams map[string]interface{}
		wantFlags  []string
	}{
		{
			name:       "bare single",
			comment:    "//loom::single",
			wantType:   SingleAnnotation,
			wantParams: map[string]interface{}{},
		},
		{
			name:       "single with qualifier",
			comment:    "//loom::single -Name=primary",
			wantType:   SingleAnnotation,
			wantParams: map[string]interface{}{"Name": "primary"},
		},
		{
			name:       "single with init flag",
			comment:    "//loom::single -Init",
			wantType:   SingleAnnotation,
			wantParams: map[string]interface{}{"Init": true},
		},
		{
			name:       "factory with binds list",
			comment:    "//loom::factory -Binds=Reader,Writer",
			wantType:   FactoryAnnotation,
			wantParams: map[string]interface{}{"Binds": []string{"Reader", "Writer"}},
		},
		{
			name:     "scoped with type reference",
			comment:  "//loom::scoped -Scope=auth.Session",
			wantType: ScopedAnnotation,
			wantParams: map[string]interface{}{
				"Scope": "auth.Session",
			},
		},
		{
			name:     "scoped with quoted name keeps quotes",
			comment:  "//loom::scoped -Scope=\"checkout\"",
			wantType: ScopedAnnotation,
			wantParams: map[string]interface{}{
				"Scope": "\"checkout\"",
			},
		},
		{
			name:       "retained",
			comment:    "//loom::retained -Name=details",
			wantType:   RetainedAnnotation,
			wantParams: map[string]interface{}{"Name": "details"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := parser.ParseAnnotation(tt.comment, testLocation())
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, parsed.Type)
			assert.Equal(t, tt.wantParams, parsed.Parameters)
			assert.Equal(t, tt.wantFlags, parsed.Flags)
		})
	}
}

func TestParseAnnotation_FieldLevel(t *testing.T) {
	parser := NewParser(DefaultRegistry())

	t.Run("inject with qualifier", func(t *testing.T) {
		parsed, err := parser.ParseAnnotation("//loom::inject -Name=replica", testLocation())
		require.NoError(t, err)
		assert.Equal(t, InjectAnnotation, parsed.Type)
		assert.Equal(t, "replica", parsed.GetString("Name"))
	})

	t.Run("param", func(t *testing.T) {
		parsed, err := parser.ParseAnnotation("//loom::param", testLocation())
		require.NoError(t, err)
		assert.Equal(t, ParamAnnotation, parsed.Type)
		assert.Empty(t, parsed.Parameters)
	})

	t.Run("property key is positional", func(t *testing.T) {
		parsed, err := parser.ParseAnnotation("//loom::property server.port", testLocation())
		require.NoError(t, err)
		assert.Equal(t, PropertyAnnotation, parsed.Type)
		assert.Equal(t, "server.port", parsed.GetString("key"))
	})

	t.Run("property with default", func(t *testing.T) {
		parsed, err := parser.ParseAnnotation("//loom::property server.host -Default=localhost", testLocation())
		require.NoError(t, err)
		assert.Equal(t, "localhost", parsed.GetString("Default"))
	})

	t.Run("property quoted default with spaces", func(t *testing.T) {
		parsed, err := parser.ParseAnnotation(`//loom::property app.title -Default="My App"`, testLocation())
		require.NoError(t, err)
		assert.Equal(t, "My App", parsed.GetString("Default"))
	})
}

func TestParseAnnotation_Errors(t *testing.T) {
	parser := NewParser(DefaultRegistry())

	tests := []struct {
		name    string
		comment string
		wantMsg string
	}{
		{
			name:    "unknown kind",
			comment: "//loom::widget",
			wantMsg: "unknown annotation type",
		},
		{
			name:    "missing prefix",
			comment: "// just a comment",
			wantMsg: "must start with loom::",
		},
		{
			name:    "empty annotation",
			comment: "//loom::",
			wantMsg: "empty annotation",
		},
		{
			name:    "unknown parameter",
			comment: "//loom::single -Mode=Transient",
			wantMsg: "unknown parameter '-Mode'",
		},
		{
			name:    "scoped requires scope",
			comment: "//loom::scoped",
			wantMsg: "missing required parameter 'Scope'",
		},
		{
			name:    "property requires key",
			comment: "//loom::property",
			wantMsg: "property annotation requires a key",
		},
		{
			name:    "stray positional argument",
			comment: "//loom::single primary",
			wantMsg: "unexpected argument 'primary'",
		},
		{
			name:    "empty binds list entry",
			comment: "//loom::single -Binds=Reader,,Writer",
			wantMsg: "empty entry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.ParseAnnotation(tt.comment, testLocation())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParseError_IncludesLocation(t *testing.T) {
	parser := NewParser(DefaultRegistry())
	loc := SourceLocation{File: "internal/store/repo.go", Line: 42, Column: 1}

	_, err := parser.ParseAnnotation("//loom::widget", loc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "internal/store/repo.go:42:1")
}

func TestIsAnnotationComment(t *testing.T) {
	assert.True(t, IsAnnotationComment("//loom::single"))
	assert.True(t, IsAnnotationComment("// loom::inject"))
	assert.False(t, IsAnnotationComment("// resolves the user store"))
	assert.False(t, IsAnnotationComment("//go:generate stringer"))
}
