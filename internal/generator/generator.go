// Package generator writes one autogen_registry.go per package with
// annotated components.
package generator

import (
	"os"
	"path/filepath"

	"github.com/loomdi/loom/internal/errors"
	"github.com/loomdi/loom/internal/models"
	"github.com/loomdi/loom/internal/templates"
	"github.com/loomdi/loom/internal/utils"
)

// GeneratedFileName is the fixed name of every emitted registry file
const GeneratedFileName = "autogen_registry.go"

// GeneratedFile is one rendered registry file, not yet written to disk
type GeneratedFile struct {
	Path    string // absolute output path
	Content string // formatted Go source
	Module  models.ModuleReference
}

// CodeGenerator renders registration entries into Go source files
type CodeGenerator interface {
	Generate(registry *models.PackageRegistry) (*GeneratedFile, error)
	GenerateAll(registries []*models.PackageRegistry) ([]*GeneratedFile, error)
}

// Generator implements CodeGenerator on top of the templates package
type Generator struct{}

// New creates a generator
func New() *Generator {
	return &Generator{}
}

// Generate renders the registry file for one package
func (g *Generator) Generate(registry *models.PackageRegistry) (*GeneratedFile, error) {
	if registry == nil || len(registry.Entries) == 0 {
		return nil, errors.New(errors.GenerationErrorCode, "package registry has no entries")
	}

	source, err := templates.GenerateFile(registry)
	if err != nil {
		return nil, errors.Wrapf(errors.TemplateErrorCode, err,
			"failed to render registry for package %s", registry.PackageName)
	}

	formatted, err := utils.FormatGoCodeString(source)
	if err != nil {
		return nil, errors.Wrapf(errors.GenerationErrorCode, err,
			"generated code for package %s is not valid Go", registry.PackageName).
			WithContext("package", registry.PackageName).
			WithSuggestion("This is a generator bug; rerun with --verbose and report the output")
	}

	return &GeneratedFile{
		Path:    filepath.Join(registry.PackagePath, GeneratedFileName),
		Content: formatted,
		Module: models.ModuleReference{
			PackageName:  registry.PackageName,
			ImportPath:   registry.ImportPath,
			VariableName: templates.ModuleVariableName,
		},
	}, nil
}

// GenerateAll renders every package registry
func (g *Generator) GenerateAll(registries []*models.PackageRegistry) ([]*GeneratedFile, error) {
	files := make([]*GeneratedFile, 0, len(registries))
	for _, registry := range registries {
		file, err := g.Generate(registry)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// Write persists a generated file to disk
func (f *GeneratedFile) Write() error {
	if err := os.WriteFile(f.Path, []byte(f.Content), 0o644); err != nil {
		return errors.Wrapf(errors.FileSystemErrorCode, err, "failed to write %s", f.Path)
	}
	return nil
}
