package templates

// TemplateRegistry provides a centralized way to access all templates
type TemplateRegistry struct {
	templates map[string]string
}

// NewTemplateRegistry creates a new template registry with all templates
func NewTemplateRegistry() *TemplateRegistry {
	registry := &TemplateRegistry{
		templates: make(map[string]string),
	}
	registry.registerProviderTemplates()
	registry.registerModuleTemplates()
	return registry
}

// Get retrieves a template by name
func (tr *TemplateRegistry) Get(name string) (string, bool) {
	template, exists := tr.templates[name]
	return template, exists
}

// MustGet retrieves a template by name, panics if not found
func (tr *TemplateRegistry) MustGet(name string) string {
	template, exists := tr.templates[name]
	if !exists {
		panic("template not found: " + name)
	}
	return template
}

// registerProviderTemplates registers the provider function templates
func (tr *TemplateRegistry) registerProviderTemplates() {
	// One provider per component. Dependencies resolve in declaration order;
	// infallible calls (lazy, optional) skip the error check.
	tr.templates["provider"] = `func {{.ProviderName}}(inj *loom.Injector) (*{{.StructName}}, error) {
{{- range .Dependencies}}
{{- if .HasErr}}
	{{.VarName}}, err := {{.Call}}
	if err != nil {
		return nil, err
	}
{{- else}}
	{{.VarName}} := {{.Call}}
{{- end}}
{{- end}}
	return &{{.StructName}}{
{{- range .Dependencies}}
		{{.FieldName}}: {{.VarName}},
{{- end}}
	}, nil
}`
}

// registerModuleTemplates registers the file and module variable templates
func (tr *TemplateRegistry) registerModuleTemplates() {
	tr.templates["file-header"] = `// Code generated by loom. DO NOT EDIT.

package {{.PackageName}}

{{.Imports}}`

	tr.templates["module-var"] = `// {{.VariableName}} registers every annotated component of this package.
var {{.VariableName}} = loom.Module("{{.PackageName}}",
{{- range .Registrations}}
	{{.}},
{{- end}}
)`
}
