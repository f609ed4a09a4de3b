package cli

import (
	"fmt"

	"github.com/loomdi/loom/internal/utils"
)

// ModuleResolver resolves the Go module path the generated imports live
// under.
type ModuleResolver struct {
	parser *utils.GoModParser
}

// NewModuleResolver creates a new module resolver
func NewModuleResolver() *ModuleResolver {
	return &ModuleResolver{
		parser: utils.NewGoModParser(),
	}
}

// ResolveModuleName returns customModule when set, otherwise the module
// declaration of the nearest go.mod above startDir.
func (r *ModuleResolver) ResolveModuleName(customModule, startDir string) (string, error) {
	if customModule != "" {
		return customModule, nil
	}

	goModPath, err := r.parser.FindGoModFile(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to determine module name: %w (consider using --module flag)", err)
	}

	moduleName, err := r.parser.ParseModuleName(goModPath)
	if err != nil {
		return "", fmt.Errorf("failed to determine module name: %w (consider using --module flag)", err)
	}

	return moduleName, nil
}
