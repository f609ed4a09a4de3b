package cli

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	loomerrors "github.com/loomdi/loom/internal/errors"
)

func TestErrorHeader(t *testing.T) {
	tests := []struct {
		code loomerrors.ErrorCode
		want string
	}{
		{loomerrors.SyntaxErrorCode, "Annotation Syntax Error"},
		{loomerrors.ConflictErrorCode, "Binding Conflict"},
		{loomerrors.ScopeErrorCode, "Scope Error"},
		{loomerrors.GenerationErrorCode, "Code Generation Error"},
		{loomerrors.UnknownErrorCode, "Unknown Error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorHeader(tt.code))
	}
}

func TestFormatContextKey(t *testing.T) {
	assert.Equal(t, "Component Name", formatContextKey("component_name"))
	assert.Equal(t, "Qualifier", formatContextKey("qualifier"))
}

func TestFindLoomError(t *testing.T) {
	base := loomerrors.New(loomerrors.BindingErrorCode, "no such binding")
	wrapped := fmt.Errorf("run failed: %w", base)

	found := findLoomError(wrapped)
	assert.NotNil(t, found)
	assert.Equal(t, loomerrors.BindingErrorCode, found.ErrorCode())

	assert.Nil(t, findLoomError(fmt.Errorf("plain failure")))
}

func TestReportError_DoesNotPanic(t *testing.T) {
	reporter := NewDiagnosticReporter(true)

	base := loomerrors.New(loomerrors.ConflictErrorCode, "duplicate binding for store.Repository").
		WithSuggestion("add -Name to one of the components").
		WithContext("qualifier", "")
	reporter.ReportError(base)

	multi := loomerrors.NewMultipleErrors()
	multi.Add(base)
	multi.Add(loomerrors.New(loomerrors.ScopeErrorCode, "unknown scope"))
	reporter.ReportError(multi)

	reporter.ReportError(fmt.Errorf("plain annotation problem"))
}
