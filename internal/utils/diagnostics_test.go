package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureSystem(level DiagnosticLevel) (*DiagnosticSystem, *bytes.Buffer) {
	var buf bytes.Buffer
	d := NewDiagnosticSystem(level)
	d.output = &buf
	d.errorOut = &buf
	d.useColors = false
	d.showTime = false
	return d, &buf
}

func TestDiagnostics_WarnRespectsLevel(t *testing.T) {
	d, buf := captureSystem(DiagnosticWarn)
	d.Warn("watch error: %v", "queue overflow")
	assert.Equal(t, "[WARN] watch error: queue overflow\n", buf.String())

	quiet, quietBuf := captureSystem(DiagnosticError)
	quiet.Warn("suppressed")
	assert.Empty(t, quietBuf.String())
}

func TestDiagnostics_SummaryListsStats(t *testing.T) {
	d, buf := captureSystem(DiagnosticInfo)
	d.Summary("Run summary", map[string]interface{}{"components": 3})

	out := buf.String()
	assert.Contains(t, out, "Run summary\n")
	assert.Contains(t, out, "   components: 3\n")
}

func TestDiagnostics_ErrorGoesToErrorWriter(t *testing.T) {
	var out, errOut bytes.Buffer
	d := NewDiagnosticSystem(DiagnosticError)
	d.output = &out
	d.errorOut = &errOut
	d.useColors = false
	d.showTime = false

	d.Error("boom")
	assert.Empty(t, out.String())
	assert.Equal(t, "[ERROR] boom\n", errOut.String())
}
