package scanner

import (
	"fmt"
	"go/token"
	"go/types"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/loomdi/loom/internal/annotations"
	"github.com/loomdi/loom/internal/errors"
	"github.com/loomdi/loom/internal/models"
)

// Component pairs a declaration with the type information the resolver needs
type Component struct {
	Decl  *models.ComponentDecl
	Named types.Type // the component's named struct type, nil if type info is missing
}

// PackageInfo holds everything discovered in one scanned package
type PackageInfo struct {
	Name       string // Go package name
	Dir        string // directory the package lives in
	ImportPath string
	Components []*Component
}

// IfaceInfo describes one exported interface seen during the scan
type IfaceInfo struct {
	Name        string // type name without package
	PackageName string // declaring package name
	ImportPath  string
	Type        *types.Interface
}

// Result is the scanner's complete output for a set of patterns
type Result struct {
	Packages   []*PackageInfo
	Interfaces map[string]IfaceInfo // qualified name -> interface, e.g. "auth.Session"
	Fset       *token.FileSet
}

// Scanner loads Go packages with full type information and extracts
// component declarations from loom annotations.
type Scanner struct {
	parser annotations.ParserEngine
	dir    string
}

// New creates a scanner rooted at the given module directory
func New(dir string) *Scanner {
	return &Scanner{
		parser: annotations.NewParser(annotations.DefaultRegistry()),
		dir:    dir,
	}
}

// Scan loads the given package patterns and extracts every annotated component
func (s *Scanner) Scan(patterns ...string) (*Result, error) {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	cfg := &packages.Config{
		Mode: packages.NeedTypes | packages.NeedTypesInfo |
			packages.NeedSyntax | packages.NeedName |
			packages.NeedFiles | packages.NeedImports,
		Dir: s.dir,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, errors.Wrap(errors.ScanErrorCode, "failed to load packages", err)
	}
	if len(pkgs) == 0 {
		return nil, errors.Newf(errors.ScanErrorCode, "no packages matched %s", strings.Join(patterns, ", "))
	}

	var loadErrs []string
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			loadErrs = append(loadErrs, e.Error())
		}
	}
	if len(loadErrs) > 0 {
		return nil, errors.Newf(errors.ScanErrorCode, "package loading failed:\n  %s", strings.Join(loadErrs, "\n  "))
	}

	result := &Result{
		Interfaces: make(map[string]IfaceInfo),
		Fset:       pkgs[0].Fset,
	}
	s.indexInterfaces(pkgs, result)

	collected := errors.NewMultipleErrors()
	for _, pkg := range pkgs {
		info, err := s.extractPackage(pkg)
		if err != nil {
			if loomErr, ok := err.(errors.LoomError); ok {
				collected.Add(loomErr)
				continue
			}
			return nil, err
		}
		if info != nil && len(info.Components) > 0 {
			result.Packages = append(result.Packages, info)
		}
	}
	if !collected.IsEmpty() {
		return nil, collected
	}
	return result, nil
}

// indexInterfaces records every exported interface declared in the scanned
// packages. The resolver checks components against this index for automatic
// supertype binding; interfaces from outside the scan never bind automatically.
func (s *Scanner) indexInterfaces(pkgs []*packages.Package, result *Result) {
	for _, pkg := range pkgs {
		if pkg.Types == nil {
			continue
		}
		scope := pkg.Types.Scope()
		for _, name := range scope.Names() {
			obj := scope.Lookup(name)
			if !obj.Exported() {
				continue
			}
			iface, ok := obj.Type().Underlying().(*types.Interface)
			if !ok {
				continue
			}
			qualified := pkg.Types.Name() + "." + name
			result.Interfaces[qualified] = IfaceInfo{
				Name:        name,
				PackageName: pkg.Types.Name(),
				ImportPath:  pkg.PkgPath,
				Type:        iface,
			}
		}
	}
}

// LookupInterface resolves an interface reference from a -Binds list or a
// -Scope parameter against the scanned index. Bare names resolve within the
// referencing package first, then as a package-qualified name.
func (r *Result) LookupInterface(ref, fromPackage string) (IfaceInfo, bool) {
	if !strings.Contains(ref, ".") && fromPackage != "" {
		if info, ok := r.Interfaces[fromPackage+"."+ref]; ok {
			return info, true
		}
	}
	info, ok := r.Interfaces[ref]
	return info, ok
}

// namedType looks up the struct's named type in the package scope
func namedType(pkg *packages.Package, structName string) (types.Type, error) {
	if pkg.Types == nil {
		return nil, fmt.Errorf("no type information for package %s", pkg.PkgPath)
	}
	obj := pkg.Types.Scope().Lookup(structName)
	if obj == nil {
		return nil, fmt.Errorf("type %s not found in package %s", structName, pkg.PkgPath)
	}
	return obj.Type(), nil
}
