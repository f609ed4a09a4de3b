package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	loomerrors "github.com/loomdi/loom/internal/errors"
)

// DiagnosticReporter provides user-friendly error reporting and diagnostics
type DiagnosticReporter struct {
	verbose bool
}

// NewDiagnosticReporter creates a new diagnostic reporter
func NewDiagnosticReporter(verbose bool) *DiagnosticReporter {
	return &DiagnosticReporter{
		verbose: verbose,
	}
}

// ReportError prints an error with location, context and suggestions when
// the error carries them.
func (r *DiagnosticReporter) ReportError(err error) {
	fmt.Fprintf(os.Stderr, "\nERROR: Code Generation Failed\n")
	fmt.Fprintf(os.Stderr, "=============================\n\n")

	var multi *loomerrors.MultipleErrors
	if errors.As(err, &multi) {
		r.reportMultipleErrors(multi)
	} else if loomErr := findLoomError(err); loomErr != nil {
		r.reportLoomError(loomErr)
	} else {
		r.reportBasicError(err)
	}

	fmt.Fprintf(os.Stderr, "\n")
}

func (r *DiagnosticReporter) reportMultipleErrors(multi *loomerrors.MultipleErrors) {
	fmt.Fprintf(os.Stderr, "%d problems found\n\n", multi.Count())
	for i, inner := range multi.Errors {
		fmt.Fprintf(os.Stderr, "--- problem %d of %d ---\n", i+1, multi.Count())
		r.reportLoomError(inner)
		fmt.Fprintf(os.Stderr, "\n")
	}
}

func (r *DiagnosticReporter) reportLoomError(loomErr loomerrors.LoomError) {
	header := errorHeader(loomErr.ErrorCode())
	fmt.Fprintf(os.Stderr, "Type: %s\n", header)
	fmt.Fprintf(os.Stderr, "%s\n\n", strings.Repeat("-", len(header)+6))

	fmt.Fprintf(os.Stderr, "Message: %s\n\n", loomErr.Error())

	if loc := loomErr.Location(); !loc.IsEmpty() {
		fmt.Fprintf(os.Stderr, "Location: %s\n\n", loc.String())
	}

	if ctx := loomErr.Context(); len(ctx) > 0 && r.verbose {
		fmt.Fprintf(os.Stderr, "Context:\n")
		for key, value := range ctx {
			fmt.Fprintf(os.Stderr, "   %s: %v\n", formatContextKey(key), value)
		}
		fmt.Fprintf(os.Stderr, "\n")
	}

	if suggestions := loomErr.Suggestions(); len(suggestions) > 0 {
		r.printSuggestions(suggestions)
	}
}

func (r *DiagnosticReporter) reportBasicError(err error) {
	fmt.Fprintf(os.Stderr, "Message: %s\n\n", err.Error())

	errorMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errorMsg, "annotation"):
		fmt.Fprintf(os.Stderr, "This appears to be an annotation-related issue.\n")
		fmt.Fprintf(os.Stderr, "Common solutions:\n")
		fmt.Fprintf(os.Stderr, "  - Check your //loom:: annotation syntax\n")
		fmt.Fprintf(os.Stderr, "  - Ensure annotations sit directly above their target\n\n")
	case strings.Contains(errorMsg, "module"):
		fmt.Fprintf(os.Stderr, "This appears to be a module-related issue.\n")
		fmt.Fprintf(os.Stderr, "Common solutions:\n")
		fmt.Fprintf(os.Stderr, "  - Check your go.mod file\n")
		fmt.Fprintf(os.Stderr, "  - Try specifying --module flag explicitly\n\n")
	}
}

func (r *DiagnosticReporter) printSuggestions(suggestions []string) {
	fmt.Fprintf(os.Stderr, "Suggestions:\n")
	for _, suggestion := range suggestions {
		fmt.Fprintf(os.Stderr, "   - %s\n", suggestion)
	}
	fmt.Fprintf(os.Stderr, "\n")
}

func errorHeader(code loomerrors.ErrorCode) string {
	switch code {
	case loomerrors.SyntaxErrorCode:
		return "Annotation Syntax Error"
	case loomerrors.ValidationErrorCode:
		return "Validation Error"
	case loomerrors.ScanErrorCode:
		return "Scan Error"
	case loomerrors.BindingErrorCode:
		return "Binding Error"
	case loomerrors.ConflictErrorCode:
		return "Binding Conflict"
	case loomerrors.ScopeErrorCode:
		return "Scope Error"
	case loomerrors.DependencyErrorCode:
		return "Dependency Error"
	case loomerrors.GenerationErrorCode:
		return "Code Generation Error"
	case loomerrors.TemplateErrorCode:
		return "Template Error"
	case loomerrors.FileSystemErrorCode:
		return "File System Error"
	case loomerrors.ConfigurationErrorCode:
		return "Configuration Error"
	default:
		return "Unknown Error"
	}
}

func formatContextKey(key string) string {
	words := strings.Split(key, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func findLoomError(err error) loomerrors.LoomError {
	var loomErr loomerrors.LoomError
	if errors.As(err, &loomErr) {
		return loomErr
	}
	return nil
}

// GenerationSummary contains information about the generation process
type GenerationSummary struct {
	ModuleName          string
	PackagesScanned     int
	ComponentsFound     int
	BindingsResolved    int
	GeneratedFiles      []string
	InterfacesDetected  int
	ScopedComponents    int
	LifecycleComponents int
}

// ReportSuccess prints a short summary after a clean run.
func (r *DiagnosticReporter) ReportSuccess(summary GenerationSummary) {
	success := color.New(color.FgGreen, color.Bold)
	success.Fprint(os.Stderr, "OK ")
	fmt.Fprintf(os.Stderr, "generated %d files from %d components across %d packages\n",
		len(summary.GeneratedFiles), summary.ComponentsFound, summary.PackagesScanned)

	if r.verbose {
		for _, file := range summary.GeneratedFiles {
			fmt.Fprintf(os.Stderr, "   %s\n", file)
		}
	}
}
