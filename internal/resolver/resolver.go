// Package resolver turns scanned component declarations into registration
// entries: it decides which types each component is bound to and rejects
// conflicting or unsatisfiable declarations.
package resolver

import (
	"go/types"
	"sort"
	"strings"

	"github.com/loomdi/loom/internal/errors"
	"github.com/loomdi/loom/internal/models"
	"github.com/loomdi/loom/internal/scanner"
)

// Resolver computes bindings for every scanned component
type Resolver struct {
	result *scanner.Result
}

// New creates a resolver over one scan result
func New(result *scanner.Result) *Resolver {
	return &Resolver{result: result}
}

// Resolve produces one PackageRegistry per scanned package. It fails when a
// -Binds entry names an interface the component does not implement, when a
// scope reference cannot be resolved, or when two components collide on the
// same (type, qualifier) pair.
func (r *Resolver) Resolve() ([]*models.PackageRegistry, error) {
	collected := errors.NewMultipleErrors()
	seen := newBindingIndex()

	var registries []*models.PackageRegistry
	for _, pkg := range r.result.Packages {
		registry := &models.PackageRegistry{
			PackageName: pkg.Name,
			PackagePath: pkg.Dir,
			ImportPath:  pkg.ImportPath,
		}
		for _, component := range pkg.Components {
			entry, err := r.resolveComponent(component)
			if err != nil {
				if loomErr, ok := err.(errors.LoomError); ok {
					collected.Add(loomErr)
					continue
				}
				return nil, err
			}
			if err := seen.record(entry); err != nil {
				collected.Add(err)
				continue
			}
			registry.Entries = append(registry.Entries, *entry)
		}
		if len(registry.Entries) > 0 {
			registries = append(registries, registry)
		}
	}

	if !collected.IsEmpty() {
		return nil, collected
	}
	return registries, nil
}

// resolveComponent computes the binding set for one component. Without an
// explicit -Binds list the component binds its own pointer type plus every
// scanned interface it implements; -Binds replaces that set entirely.
func (r *Resolver) resolveComponent(component *scanner.Component) (*models.RegistrationEntry, error) {
	decl := component.Decl

	if decl.Scope.Kind == models.ScopeType {
		scope, ok := r.resolveScopeType(decl)
		if !ok {
			return nil, errors.NewScopeError(decl.Name, decl.Scope.TypeRef, toErrLocation(decl))
		}
		decl.Scope = scope
	}

	var bindings []models.Binding
	if decl.HasExplicitBinds() {
		for _, ref := range decl.BindsOnly {
			binding, err := r.explicitBinding(component, ref)
			if err != nil {
				return nil, err
			}
			bindings = append(bindings, binding)
		}
	} else {
		bindings = append(bindings, models.Binding{
			Type:      "*" + decl.Name,
			Qualifier: decl.Qualifier,
			IsSelf:    true,
		})
		bindings = append(bindings, r.detectedBindings(component)...)
	}

	return &models.RegistrationEntry{
		Component: decl,
		Bindings:  bindings,
	}, nil
}

// explicitBinding resolves one -Binds entry and verifies the component
// actually implements it.
func (r *Resolver) explicitBinding(component *scanner.Component, ref string) (models.Binding, error) {
	decl := component.Decl
	info, ok := r.result.LookupInterface(ref, decl.Package)
	if !ok {
		return models.Binding{}, errors.Newf(errors.BindingErrorCode,
			"interface %s named in -Binds was not found in the scanned packages", ref).
			WithLocation(toErrLocation(decl)).
			WithContext("component", decl.Name).
			WithSuggestion("Check the spelling, or qualify the interface with its package name")
	}
	if component.Named != nil && !implementsIface(component.Named, info.Type) {
		return models.Binding{}, errors.NewBindingError(decl.QualifiedName(), ref, toErrLocation(decl))
	}
	return r.interfaceBinding(decl, info), nil
}

// detectedBindings collects every scanned interface the component implements
func (r *Resolver) detectedBindings(component *scanner.Component) []models.Binding {
	decl := component.Decl
	if component.Named == nil {
		return nil
	}

	names := make([]string, 0, len(r.result.Interfaces))
	for name := range r.result.Interfaces {
		names = append(names, name)
	}
	sort.Strings(names)

	var bindings []models.Binding
	for _, name := range names {
		info := r.result.Interfaces[name]
		if info.Type.NumMethods() == 0 {
			continue // the empty interface binds everything, never automatically
		}
		if !implementsIface(component.Named, info.Type) {
			continue
		}
		bindings = append(bindings, r.interfaceBinding(decl, info))
	}
	return bindings
}

// interfaceBinding renders an interface reference relative to the
// component's package, which is where the generated file lives.
func (r *Resolver) interfaceBinding(decl *models.ComponentDecl, info scanner.IfaceInfo) models.Binding {
	binding := models.Binding{Qualifier: decl.Qualifier}
	if info.ImportPath == decl.ImportPath {
		binding.Type = info.Name
	} else {
		binding.Type = info.PackageName + "." + info.Name
		binding.ImportPath = info.ImportPath
	}
	return binding
}

// resolveScopeType checks a -Scope type reference against the scanned
// components and interfaces and normalizes how the generated file renders it.
func (r *Resolver) resolveScopeType(decl *models.ComponentDecl) (models.ScopeRef, bool) {
	ref := decl.Scope.TypeRef
	scope := models.ScopeRef{Kind: models.ScopeType}

	if info, ok := r.result.LookupInterface(ref, decl.Package); ok {
		if info.ImportPath == decl.ImportPath {
			scope.TypeRef = info.Name
		} else {
			scope.TypeRef = info.PackageName + "." + info.Name
			scope.ImportPath = info.ImportPath
		}
		return scope, true
	}
	for _, pkg := range r.result.Packages {
		for _, component := range pkg.Components {
			target := component.Decl
			sameName := ref == target.Name && pkg.Name == decl.Package
			qualified := ref == target.Package+"."+target.Name
			if !sameName && !qualified {
				continue
			}
			if target.ImportPath == decl.ImportPath {
				scope.TypeRef = "*" + target.Name
			} else {
				scope.TypeRef = "*" + target.Package + "." + target.Name
				scope.ImportPath = target.ImportPath
			}
			return scope, true
		}
	}
	return models.ScopeRef{}, false
}

func implementsIface(named types.Type, iface *types.Interface) bool {
	return types.Implements(types.NewPointer(named), iface) || types.Implements(named, iface)
}

// bindingIndex detects duplicate (type, qualifier) registrations across the
// whole scan, not just within one package.
type bindingIndex struct {
	seen map[string]errors.SourceLocation
}

func newBindingIndex() *bindingIndex {
	return &bindingIndex{seen: make(map[string]errors.SourceLocation)}
}

func (b *bindingIndex) record(entry *models.RegistrationEntry) errors.LoomError {
	decl := entry.Component
	for _, binding := range entry.Bindings {
		key := bindingKey(decl, binding)
		location := toErrLocation(decl)
		if first, ok := b.seen[key]; ok {
			return errors.NewConflictError(displayType(decl, binding), binding.Qualifier, first, location)
		}
		b.seen[key] = location
	}
	return nil
}

// bindingKey builds a scan-wide identity for a binding. The type name is
// stripped of its package qualifier and keyed on the import path instead, so
// the same interface gets one key no matter which package binds it.
func bindingKey(decl *models.ComponentDecl, binding models.Binding) string {
	path := binding.ImportPath
	if path == "" {
		path = decl.ImportPath
	}
	name := binding.Type
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return path + ":" + name + ":" + binding.Qualifier
}

func displayType(decl *models.ComponentDecl, binding models.Binding) string {
	if binding.ImportPath != "" || binding.IsSelf {
		if binding.IsSelf {
			return "*" + decl.QualifiedName()
		}
		return binding.Type
	}
	return decl.Package + "." + binding.Type
}

func toErrLocation(decl *models.ComponentDecl) errors.SourceLocation {
	return errors.SourceLocation{
		File:   decl.Location.File,
		Line:   decl.Location.Line,
		Column: decl.Location.Column,
	}
}
