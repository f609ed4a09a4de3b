package models

// Binding is one (type, qualifier) pair a component is registered under
type Binding struct {
	Type       string // binding type as referenced from the generated file
	ImportPath string // import required to reference the type, empty for same-package
	Qualifier  string // uniform qualifier, empty for unqualified
	IsSelf     bool   // binding to the component's own concrete type
}

// RegistrationEntry is the resolver's output for one component: its bindings
// plus the ordered resolution plan the emitter turns into a provider function.
type RegistrationEntry struct {
	Component *ComponentDecl
	Bindings  []Binding
}

// PackageRegistry collects every registration entry discovered in one package
type PackageRegistry struct {
	PackageName string              // Go package name
	PackagePath string              // file system path to the package
	ImportPath  string              // module-relative import path
	Entries     []RegistrationEntry // one entry per component, declaration order
}

// Components returns the declarations behind the package's entries
func (p *PackageRegistry) Components() []*ComponentDecl {
	components := make([]*ComponentDecl, 0, len(p.Entries))
	for i := range p.Entries {
		components = append(components, p.Entries[i].Component)
	}
	return components
}

// ModuleReference points at one generated registry for cross-package imports
type ModuleReference struct {
	PackageName  string // name of the package
	ImportPath   string // import path for the package
	VariableName string // name of the module variable, e.g. LoomModule
}
