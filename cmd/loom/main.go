package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/loomdi/loom/internal/cli"
	"github.com/loomdi/loom/internal/utils"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("loom", flag.ExitOnError)

	var (
		moduleFlag  = flags.String("module", "", "Custom module path for imports (defaults to go.mod module)")
		verboseFlag = flags.Bool("verbose", false, "Enable verbose output and detailed error reporting")
		quietFlag   = flags.Bool("quiet", false, "Only show errors and final results")
		cleanFlag   = flags.Bool("clean", false, "Delete generated registry files instead of generating")
		watchFlag   = flags.Bool("watch", false, "Keep running and regenerate on source changes")
		helpFlag    = flags.Bool("help", false, "Show help information")
	)

	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: loom [options] <package-patterns...>\n\n")
		fmt.Fprintf(os.Stderr, "Annotation-driven dependency injection code generator.\n")
		fmt.Fprintf(os.Stderr, "Scans packages for //loom:: annotations and writes one registry file per package.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nArguments:\n")
		fmt.Fprintf(os.Stderr, "  package-patterns   Package patterns to scan, defaults to ./...\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  loom ./...                                  # Scan everything recursively\n")
		fmt.Fprintf(os.Stderr, "  loom ./internal/...                         # Scan internal packages only\n")
		fmt.Fprintf(os.Stderr, "  loom --module github.com/acme/shop ./...    # Override the module path\n")
		fmt.Fprintf(os.Stderr, "  loom --watch ./...                          # Regenerate on change\n")
		fmt.Fprintf(os.Stderr, "  loom --clean ./...                          # Remove generated files\n")
	}

	if err := flags.Parse(args); err != nil {
		return 1
	}

	if *helpFlag {
		flags.Usage()
		return 0
	}

	patterns := flags.Args()
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	var diagnostics *utils.DiagnosticSystem
	switch {
	case *quietFlag:
		diagnostics = utils.NewQuietDiagnostics()
	case *verboseFlag:
		diagnostics = utils.NewVerboseDiagnostics()
	default:
		diagnostics = utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	}

	diagnostics.Header("dependency injection code generator")

	if *cleanFlag {
		removed, err := cli.NewCleaner().CleanGeneratedFiles(patterns)
		if err != nil {
			diagnostics.Error("Clean operation failed: %v", err)
			return 1
		}
		diagnostics.Success("Removed %d generated files", len(removed))
		return 0
	}

	if *verboseFlag {
		diagnostics.Subsection("Configuration")
		diagnostics.List("Patterns: %s", strings.Join(patterns, ", "))
		if *moduleFlag != "" {
			diagnostics.List("Custom module: %s", *moduleFlag)
		}
	}

	generator := cli.NewGeneratorWithDiagnostics(*verboseFlag, diagnostics)
	config := cli.Config{
		Dir:        ".",
		Patterns:   patterns,
		ModuleName: *moduleFlag,
		Verbose:    *verboseFlag,
	}

	if *watchFlag {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		diagnostics.Info("Watching for changes, press Ctrl+C to stop")
		err := cli.NewWatcher(generator, config).Watch(ctx)
		if err != nil && err != context.Canceled {
			diagnostics.Error("Watch failed: %v", err)
			return 1
		}
		return 0
	}

	if err := generator.Run(config); err != nil {
		generator.Reporter().ReportError(err)
		return 1
	}

	summary := generator.GetSummary()
	generator.Reporter().ReportSuccess(summary)
	return 0
}
