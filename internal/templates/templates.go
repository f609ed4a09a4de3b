package templates

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/loomdi/loom/internal/models"
)

const (
	// ModuleVariableName is the exported variable every generated file declares
	ModuleVariableName = "LoomModule"

	// RuntimeImportPath is the registry package the generated code targets
	RuntimeImportPath = "github.com/loomdi/loom/pkg/loom"
)

var defaultRegistry = NewTemplateRegistry()

// ProviderDependency is one resolution step inside a provider function
type ProviderDependency struct {
	FieldName string
	VarName   string
	Call      string
	HasErr    bool
}

// ProviderData feeds the provider template
type ProviderData struct {
	ProviderName string
	StructName   string
	Dependencies []ProviderDependency
}

// ProviderFuncName returns the generated provider name for a component
func ProviderFuncName(structName string) string {
	return "provide" + structName
}

// GenerateProvider renders the provider function for one registration entry
func GenerateProvider(entry models.RegistrationEntry) (string, error) {
	decl := entry.Component
	data := ProviderData{
		ProviderName: ProviderFuncName(decl.Name),
		StructName:   decl.Name,
	}
	for _, dep := range decl.Dependencies {
		call, hasErr := resolutionCall(dep)
		data.Dependencies = append(data.Dependencies, ProviderDependency{
			FieldName: dep.FieldName,
			VarName:   varName(dep.FieldName),
			Call:      call,
			HasErr:    hasErr,
		})
	}
	return executeTemplate("provider", defaultRegistry.MustGet("provider"), data)
}

// resolutionCall renders the runtime call for one dependency descriptor
func resolutionCall(dep models.Dependency) (string, bool) {
	switch dep.Mode {
	case models.ResolveLazy:
		if dep.Qualifier != "" {
			return fmt.Sprintf("loom.DeferNamed[%s](inj, %q)", dep.Type, dep.Qualifier), false
		}
		return fmt.Sprintf("loom.Defer[%s](inj)", dep.Type), false
	case models.ResolveOptional:
		if dep.Qualifier != "" {
			return fmt.Sprintf("loom.MaybeNamed[%s](inj, %q)", dep.Type, dep.Qualifier), true
		}
		return fmt.Sprintf("loom.Maybe[%s](inj)", dep.Type), true
	case models.ResolveCollect:
		return fmt.Sprintf("loom.All[%s](inj)", dep.Type), true
	case models.ResolveParam:
		return fmt.Sprintf("loom.GetParam[%s](inj, %q)", dep.Type, dep.FieldName), true
	case models.ResolveProperty:
		if dep.HasDefault {
			return fmt.Sprintf("loom.GetPropertyOr[%s](inj, %q, %q)", dep.Type, dep.PropertyKey, dep.PropertyDefault), true
		}
		return fmt.Sprintf("loom.GetProperty[%s](inj, %q)", dep.Type, dep.PropertyKey), true
	default:
		if dep.Qualifier != "" {
			return fmt.Sprintf("loom.GetNamed[%s](inj, %q)", dep.Type, dep.Qualifier), true
		}
		return fmt.Sprintf("loom.Get[%s](inj)", dep.Type), true
	}
}

// varName keeps generated locals from shadowing the provider's own names
func varName(fieldName string) string {
	switch fieldName {
	case "inj", "err":
		return fieldName + "Dep"
	default:
		return fieldName
	}
}

// GenerateRegistration renders one loom.<Lifecycle>(...) expression
func GenerateRegistration(entry models.RegistrationEntry) string {
	decl := entry.Component

	var kind string
	switch decl.Lifecycle {
	case models.LifecycleFactory:
		kind = "Factory"
	case models.LifecycleRetained:
		kind = "Retained"
	case models.LifecycleScoped:
		kind = "Scoped"
	default:
		kind = "Single"
	}

	args := []string{ProviderFuncName(decl.Name)}
	if decl.Qualifier != "" {
		args = append(args, fmt.Sprintf("loom.Named(%q)", decl.Qualifier))
	}

	hasSelf := false
	for _, binding := range entry.Bindings {
		if binding.IsSelf {
			hasSelf = true
			continue
		}
		args = append(args, fmt.Sprintf("loom.As[%s]()", binding.Type))
	}
	if !hasSelf {
		args = append(args, "loom.WithoutSelf()")
	}

	switch decl.Scope.Kind {
	case models.ScopeName:
		args = append(args, fmt.Sprintf("loom.InScope(%q)", decl.Scope.Name))
	case models.ScopeType:
		args = append(args, fmt.Sprintf("loom.InScopeOf[%s]()", decl.Scope.TypeRef))
	}

	if decl.RequiresInit && decl.HasStart {
		args = append(args, fmt.Sprintf(
			"loom.WithStart(func(ctx context.Context, c *%s) error { return c.Start(ctx) })", decl.Name))
	}
	if decl.RequiresInit && decl.HasStop {
		args = append(args, fmt.Sprintf(
			"loom.WithStop(func(ctx context.Context, c *%s) error { return c.Stop(ctx) })", decl.Name))
	}

	return fmt.Sprintf("loom.%s(%s)", kind, strings.Join(args, ", "))
}

// moduleData feeds the module-var template
type moduleData struct {
	VariableName  string
	PackageName   string
	Registrations []string
}

// GenerateModuleVar renders the package's module variable
func GenerateModuleVar(registry *models.PackageRegistry) (string, error) {
	data := moduleData{
		VariableName: ModuleVariableName,
		PackageName:  registry.PackageName,
	}
	for _, entry := range registry.Entries {
		data.Registrations = append(data.Registrations, GenerateRegistration(entry))
	}
	return executeTemplate("module-var", defaultRegistry.MustGet("module-var"), data)
}

// headerData feeds the file-header template
type headerData struct {
	PackageName string
	Imports     string
}

// GenerateFile renders a complete autogen registry file for one package
func GenerateFile(registry *models.PackageRegistry) (string, error) {
	header, err := executeTemplate("file-header", defaultRegistry.MustGet("file-header"), headerData{
		PackageName: registry.PackageName,
		Imports:     renderImports(collectImports(registry)),
	})
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	builder.WriteString(header)
	builder.WriteString("\n")

	for _, entry := range registry.Entries {
		provider, err := GenerateProvider(entry)
		if err != nil {
			return "", err
		}
		builder.WriteString(provider)
		builder.WriteString("\n\n")
	}

	moduleVar, err := GenerateModuleVar(registry)
	if err != nil {
		return "", err
	}
	builder.WriteString(moduleVar)
	builder.WriteString("\n")
	return builder.String(), nil
}

// collectImports gathers every import the generated file references, keyed by
// path with the local alias when one is needed
func collectImports(registry *models.PackageRegistry) map[string]string {
	set := map[string]string{RuntimeImportPath: ""}
	for _, entry := range registry.Entries {
		decl := entry.Component
		if decl.RequiresInit && (decl.HasStart || decl.HasStop) {
			set["context"] = ""
		}
		for _, binding := range entry.Bindings {
			if binding.ImportPath != "" {
				set[binding.ImportPath] = ""
			}
		}
		if decl.Scope.ImportPath != "" {
			set[decl.Scope.ImportPath] = ""
		}
		for _, dep := range decl.Dependencies {
			for _, spec := range dep.Imports {
				if spec.Alias != "" || set[spec.Path] == "" {
					set[spec.Path] = spec.Alias
				}
			}
		}
	}
	return set
}

// renderImports writes an import block with stdlib imports grouped first
func renderImports(imports map[string]string) string {
	if len(imports) == 0 {
		return ""
	}
	var stdlib, rest []string
	for path := range imports {
		if strings.Contains(strings.SplitN(path, "/", 2)[0], ".") {
			rest = append(rest, path)
		} else {
			stdlib = append(stdlib, path)
		}
	}
	sort.Strings(stdlib)
	sort.Strings(rest)

	line := func(builder *strings.Builder, path string) {
		if alias := imports[path]; alias != "" {
			fmt.Fprintf(builder, "\t%s %q\n", alias, path)
		} else {
			fmt.Fprintf(builder, "\t%q\n", path)
		}
	}

	var builder strings.Builder
	builder.WriteString("import (\n")
	for _, path := range stdlib {
		line(&builder, path)
	}
	if len(stdlib) > 0 && len(rest) > 0 {
		builder.WriteString("\n")
	}
	for _, path := range rest {
		line(&builder, path)
	}
	builder.WriteString(")\n")
	return builder.String()
}

// executeTemplate parses and runs a template against the given data
func executeTemplate(name, templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New(name).Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var builder strings.Builder
	if err := tmpl.Execute(&builder, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return builder.String(), nil
}
