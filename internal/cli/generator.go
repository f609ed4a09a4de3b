package cli

import (
	"strconv"
	"strings"
	"time"

	"github.com/loomdi/loom/internal/errors"
	"github.com/loomdi/loom/internal/generator"
	"github.com/loomdi/loom/internal/models"
	"github.com/loomdi/loom/internal/resolver"
	"github.com/loomdi/loom/internal/scanner"
	"github.com/loomdi/loom/internal/utils"
)

// Generator coordinates the scan, resolve and emit phases of one run
type Generator struct {
	moduleResolver *ModuleResolver
	codeGenerator  *generator.Generator
	reporter       *DiagnosticReporter
	diagnostics    *utils.DiagnosticSystem
	customModule   string
	summary        GenerationSummary
}

// NewGenerator creates a new CLI generator
func NewGenerator(verbose bool) *Generator {
	level := utils.DiagnosticInfo
	if verbose {
		level = utils.DiagnosticVerbose
	}
	return NewGeneratorWithDiagnostics(verbose, utils.NewDiagnosticSystem(level))
}

// NewGeneratorWithDiagnostics creates a CLI generator writing through the
// given diagnostic system
func NewGeneratorWithDiagnostics(verbose bool, diagnostics *utils.DiagnosticSystem) *Generator {
	return &Generator{
		moduleResolver: NewModuleResolver(),
		codeGenerator:  generator.New(),
		reporter:       NewDiagnosticReporter(verbose),
		diagnostics:    diagnostics,
		summary:        GenerationSummary{GeneratedFiles: make([]string, 0)},
	}
}

// SetCustomModule overrides the module path read from go.mod
func (g *Generator) SetCustomModule(moduleName string) {
	g.customModule = moduleName
}

// GetSummary returns the summary of the last run
func (g *Generator) GetSummary() GenerationSummary {
	return g.summary
}

// Reporter returns the error reporter used by this generator
func (g *Generator) Reporter() *DiagnosticReporter {
	return g.reporter
}

// Diagnostics returns the diagnostic system this generator writes through
func (g *Generator) Diagnostics() *utils.DiagnosticSystem {
	return g.diagnostics
}

// Generate runs the full pipeline over the given patterns rooted at dir
func (g *Generator) Generate(dir string, patterns []string) error {
	return g.Run(Config{
		Dir:        dir,
		Patterns:   patterns,
		ModuleName: g.customModule,
		Verbose:    g.reporter.verbose,
	})
}

// Run executes the complete generation process
func (g *Generator) Run(config Config) error {
	startTime := time.Now()
	g.summary = GenerationSummary{GeneratedFiles: make([]string, 0)}

	dir := config.Dir
	if dir == "" {
		dir = "."
	}
	patterns := config.Patterns
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	g.diagnostics.Verbose("Starting code generation at %s", startTime.Format("15:04:05"))
	g.diagnostics.Debug("Scanning patterns: %v", patterns)

	moduleName, err := g.moduleResolver.ResolveModuleName(config.ModuleName, dir)
	if err != nil {
		g.diagnostics.Error("Failed to resolve module name: %v", err)
		return err
	}
	g.summary.ModuleName = moduleName
	g.diagnostics.Debug("Resolved module name: %s", moduleName)

	g.diagnostics.PhaseHeader("Scanning annotated components")
	result, err := scanner.New(dir).Scan(patterns...)
	if err != nil {
		return err
	}
	if err := validateModulePaths(moduleName, result); err != nil {
		return err
	}
	g.collectScanSummary(result)
	g.diagnostics.PhaseItem("found " + pluralize(g.summary.ComponentsFound, "component"))

	g.diagnostics.PhaseHeader("Resolving bindings")
	registries, err := resolver.New(result).Resolve()
	if err != nil {
		return err
	}
	g.collectResolveSummary(registries)
	g.diagnostics.PhaseItem("resolved " + pluralize(g.summary.BindingsResolved, "binding"))

	g.diagnostics.PhaseHeader("Writing registry files")
	files, err := g.codeGenerator.GenerateAll(registries)
	if err != nil {
		return err
	}
	for _, file := range files {
		if err := file.Write(); err != nil {
			return err
		}
		g.summary.GeneratedFiles = append(g.summary.GeneratedFiles, file.Path)
		g.diagnostics.SourcePath(file.Path)
	}

	g.diagnostics.Verbose("Generation finished in %s", time.Since(startTime).Round(time.Millisecond))
	if config.Verbose {
		g.diagnostics.Summary("Run summary", map[string]interface{}{
			"module":     g.summary.ModuleName,
			"packages":   g.summary.PackagesScanned,
			"components": g.summary.ComponentsFound,
			"bindings":   g.summary.BindingsResolved,
			"files":      len(g.summary.GeneratedFiles),
		})
	}
	g.diagnostics.GenerationComplete()
	return nil
}

// validateModulePaths checks every scanned package against the resolved
// module path, catching a stale or mistyped --module override.
func validateModulePaths(moduleName string, result *scanner.Result) error {
	for _, pkg := range result.Packages {
		if pkg.ImportPath == moduleName || strings.HasPrefix(pkg.ImportPath, moduleName+"/") {
			continue
		}
		return errors.Newf(errors.ValidationErrorCode,
			"package %s is outside module %s", pkg.ImportPath, moduleName).
			WithContext("module", moduleName).
			WithSuggestion("Check the --module override against the go.mod of the scanned directory")
	}
	return nil
}

func (g *Generator) collectScanSummary(result *scanner.Result) {
	g.summary.PackagesScanned = len(result.Packages)
	g.summary.InterfacesDetected = len(result.Interfaces)
	for _, pkg := range result.Packages {
		g.summary.ComponentsFound += len(pkg.Components)
		for _, component := range pkg.Components {
			if component.Decl.Scope.IsScoped() {
				g.summary.ScopedComponents++
			}
			if component.Decl.RequiresInit {
				g.summary.LifecycleComponents++
			}
		}
	}
}

func (g *Generator) collectResolveSummary(registries []*models.PackageRegistry) {
	for _, registry := range registries {
		for _, entry := range registry.Entries {
			g.summary.BindingsResolved += len(entry.Bindings)
		}
	}
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
