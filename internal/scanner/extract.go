package scanner

import (
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/loomdi/loom/internal/annotations"
	"github.com/loomdi/loom/internal/errors"
	"github.com/loomdi/loom/internal/models"
)

// extractPackage walks a loaded package's syntax and builds a ComponentDecl
// for every struct carrying a lifecycle annotation.
func (s *Scanner) extractPackage(pkg *packages.Package) (*PackageInfo, error) {
	info := &PackageInfo{
		Name:       pkg.Name,
		ImportPath: pkg.PkgPath,
	}
	if len(pkg.GoFiles) > 0 {
		info.Dir = filepath.Dir(pkg.GoFiles[0])
	}

	collected := errors.NewMultipleErrors()
	for _, file := range pkg.Syntax {
		ast.Inspect(file, func(n ast.Node) bool {
			genDecl, ok := n.(*ast.GenDecl)
			if !ok {
				return true
			}
			for _, spec := range genDecl.Specs {
				typeSpec, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				structType, ok := typeSpec.Type.(*ast.StructType)
				if !ok {
					continue
				}
				doc := typeSpec.Doc
				if doc == nil {
					doc = genDecl.Doc
				}
				component, err := s.extractComponent(pkg, file, typeSpec, structType, doc)
				if err != nil {
					if loomErr, ok := err.(errors.LoomError); ok {
						collected.Add(loomErr)
						continue
					}
					collected.Add(errors.Wrap(errors.ScanErrorCode, "component extraction failed", err))
					continue
				}
				if component != nil {
					info.Components = append(info.Components, component)
				}
			}
			return true
		})
	}

	if !collected.IsEmpty() {
		return nil, collected
	}
	return info, nil
}

// extractComponent builds one ComponentDecl from an annotated struct, or
// returns nil when the struct carries no lifecycle annotation.
func (s *Scanner) extractComponent(pkg *packages.Package, file *ast.File, typeSpec *ast.TypeSpec, structType *ast.StructType, doc *ast.CommentGroup) (*Component, error) {
	if doc == nil {
		return nil, nil
	}

	var lifecycle []*annotations.ParsedAnnotation
	for _, comment := range doc.List {
		if !annotations.IsAnnotationComment(comment.Text) {
			continue
		}
		loc := s.location(pkg, comment.Pos())
		parsed, err := s.parser.ParseAnnotation(comment.Text, loc)
		if err != nil {
			return nil, convertParseError(err, loc)
		}
		if !parsed.Type.IsLifecycle() {
			return nil, errors.Newf(errors.ValidationErrorCode,
				"annotation %s is not valid on a struct declaration", parsed.Type).
				WithLocation(toErrLocation(loc)).
				WithSuggestion("Struct annotations are single, factory, retained and scoped; " + parsed.Type.String() + " belongs on a field")
		}
		lifecycle = append(lifecycle, parsed)
	}
	if len(lifecycle) == 0 {
		return nil, nil
	}
	if len(lifecycle) > 1 {
		return nil, errors.Newf(errors.ValidationErrorCode,
			"struct %s declares %d lifecycle annotations, exactly one is allowed",
			typeSpec.Name.Name, len(lifecycle)).
			WithLocation(toErrLocation(lifecycle[1].Location)).
			WithContext("struct", typeSpec.Name.Name).
			WithSuggestion("Keep one of the conflicting annotations and remove the rest")
	}

	ann := lifecycle[0]
	decl := &models.ComponentDecl{
		Name:       typeSpec.Name.Name,
		Package:    pkg.Name,
		ImportPath: pkg.PkgPath,
		Qualifier:  ann.GetString("Name"),
		BindsOnly:  ann.GetStringSlice("Binds"),
		Location:   ann.Location,
	}

	switch ann.Type {
	case annotations.SingleAnnotation:
		decl.Lifecycle = models.LifecycleSingle
		if requiresInit(ann) {
			decl.RequiresInit = true
		}
	case annotations.FactoryAnnotation:
		decl.Lifecycle = models.LifecycleFactory
	case annotations.RetainedAnnotation:
		decl.Lifecycle = models.LifecycleRetained
	case annotations.ScopedAnnotation:
		decl.Lifecycle = models.LifecycleScoped
	}

	if ann.HasParameter("Scope") {
		scope, err := models.ParseScopeRef(ann.GetString("Scope"))
		if err != nil {
			return nil, errors.Wrapf(errors.ScopeErrorCode, err,
				"invalid scope reference on %s", decl.Name).
				WithLocation(toErrLocation(ann.Location))
		}
		decl.Scope = scope
	}

	if err := s.extractDependencies(pkg, decl, structType); err != nil {
		return nil, err
	}

	if decl.RequiresInit {
		decl.HasStart, decl.HasStop = s.lifecycleMethods(pkg, decl.Name)
		if !decl.HasStart && !decl.HasStop {
			return nil, errors.Newf(errors.ValidationErrorCode,
				"component %s requests -Init but has no Start or Stop method", decl.Name).
				WithLocation(toErrLocation(ann.Location)).
				WithSuggestion("Add Start(ctx context.Context) error or Stop(ctx context.Context) error, or drop -Init")
		}
	}

	named, err := namedType(pkg, decl.Name)
	if err != nil {
		return nil, errors.Wrap(errors.ScanErrorCode, "type lookup failed", err).
			WithLocation(toErrLocation(ann.Location))
	}
	return &Component{Decl: decl, Named: named}, nil
}

func requiresInit(ann *annotations.ParsedAnnotation) bool {
	if value, ok := ann.Parameters["Init"]; ok {
		if b, ok := value.(bool); ok {
			return b
		}
	}
	return ann.HasFlag("Init")
}

// extractDependencies turns the struct's fields into dependency descriptors.
// With an embedded loom.In every exported field participates; otherwise only
// annotated fields do.
func (s *Scanner) extractDependencies(pkg *packages.Package, decl *models.ComponentDecl, structType *ast.StructType) error {
	decl.EmbedsIn = embedsLoomIn(structType)

	for _, field := range structType.Fields.List {
		if len(field.Names) == 0 {
			continue // embedded field
		}

		var fieldAnn *annotations.ParsedAnnotation
		if field.Doc != nil {
			for _, comment := range field.Doc.List {
				if !annotations.IsAnnotationComment(comment.Text) {
					continue
				}
				loc := s.location(pkg, comment.Pos())
				parsed, err := s.parser.ParseAnnotation(comment.Text, loc)
				if err != nil {
					return convertParseError(err, loc)
				}
				if parsed.Type.IsLifecycle() {
					return errors.Newf(errors.ValidationErrorCode,
						"annotation %s is not valid on a field", parsed.Type).
						WithLocation(toErrLocation(loc)).
						WithSuggestion("Field annotations are inject, param and property")
				}
				if fieldAnn != nil {
					return errors.Newf(errors.ValidationErrorCode,
						"field %s.%s carries more than one annotation",
						decl.Name, field.Names[0].Name).
						WithLocation(toErrLocation(loc))
				}
				fieldAnn = parsed
			}
		}

		for _, name := range field.Names {
			if fieldAnn == nil {
				if !decl.EmbedsIn || !name.IsExported() {
					continue
				}
			}
			dep, err := s.buildDependency(pkg, decl, name.Name, field, fieldAnn)
			if err != nil {
				return err
			}
			decl.Dependencies = append(decl.Dependencies, dep)
		}
	}
	return nil
}

// buildDependency derives the single resolution mode of one field from its
// annotation and its declared type.
func (s *Scanner) buildDependency(pkg *packages.Package, decl *models.ComponentDecl, fieldName string, field *ast.Field, ann *annotations.ParsedAnnotation) (models.Dependency, error) {
	dep := models.Dependency{
		FieldName: fieldName,
		FieldType: typeString(field.Type),
		Imports:   dependencyImports(pkg, field.Type),
	}
	loc := s.location(pkg, field.Pos())

	wrapper, element := classifyFieldType(field.Type)
	switch wrapper {
	case wrapperLazy:
		dep.Mode = models.ResolveLazy
		dep.Type = element
	case wrapperOptional:
		dep.Mode = models.ResolveOptional
		dep.Type = element
	case wrapperSlice:
		dep.Mode = models.ResolveCollect
		dep.Type = element
	default:
		dep.Mode = models.ResolveEager
		dep.Type = dep.FieldType
	}

	if ann == nil {
		return dep, nil
	}

	switch ann.Type {
	case annotations.InjectAnnotation:
		dep.Qualifier = ann.GetString("Name")
		if dep.Qualifier != "" && dep.Mode == models.ResolveCollect {
			return dep, errors.NewDependencyError(decl.Name, fieldName,
				"a qualifier cannot be combined with a collected []T field", toErrLocation(loc)).
				WithSuggestion("Collected fields receive every registration of the element type; drop -Name or the slice")
		}
	case annotations.ParamAnnotation:
		if wrapper != wrapperNone {
			return dep, errors.NewDependencyError(decl.Name, fieldName,
				"a runtime parameter cannot use a "+dep.FieldType+" wrapper", toErrLocation(loc)).
				WithSuggestion("Declare the field with the plain parameter type")
		}
		dep.Mode = models.ResolveParam
	case annotations.PropertyAnnotation:
		if wrapper != wrapperNone {
			return dep, errors.NewDependencyError(decl.Name, fieldName,
				"a property cannot use a "+dep.FieldType+" wrapper", toErrLocation(loc)).
				WithSuggestion("Declare the field with the plain property type")
		}
		dep.Mode = models.ResolveProperty
		dep.PropertyKey = ann.GetString("key")
		if ann.HasParameter("Default") {
			dep.PropertyDefault = ann.GetString("Default")
			dep.HasDefault = true
		}
	}
	return dep, nil
}

// dependencyImports resolves every package qualifier a field type references,
// so the generated file in the same package can import them too.
func dependencyImports(pkg *packages.Package, expr ast.Expr) []models.ImportSpec {
	var specs []models.ImportSpec
	seen := map[string]bool{}
	ast.Inspect(expr, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		ident, ok := sel.X.(*ast.Ident)
		if !ok {
			return true
		}
		pkgName, ok := pkg.TypesInfo.Uses[ident].(*types.PkgName)
		if !ok {
			return true
		}
		path := pkgName.Imported().Path()
		if seen[path] {
			return true
		}
		seen[path] = true
		spec := models.ImportSpec{Path: path}
		if base := path[strings.LastIndex(path, "/")+1:]; ident.Name != base {
			spec.Alias = ident.Name
		}
		specs = append(specs, spec)
		return true
	})
	return specs
}

// lifecycleMethods looks for Start/Stop methods with the
// (context.Context) error signature across the package's files.
func (s *Scanner) lifecycleMethods(pkg *packages.Package, structName string) (hasStart, hasStop bool) {
	for _, file := range pkg.Syntax {
		ast.Inspect(file, func(n ast.Node) bool {
			funcDecl, ok := n.(*ast.FuncDecl)
			if !ok || funcDecl.Recv == nil || len(funcDecl.Recv.List) == 0 {
				return true
			}
			if receiverName(funcDecl.Recv.List[0].Type) != structName {
				return true
			}
			if !isLifecycleSignature(funcDecl) {
				return true
			}
			switch funcDecl.Name.Name {
			case "Start":
				hasStart = true
			case "Stop":
				hasStop = true
			}
			return true
		})
	}
	return hasStart, hasStop
}

func receiverName(expr ast.Expr) string {
	switch recv := expr.(type) {
	case *ast.StarExpr:
		if ident, ok := recv.X.(*ast.Ident); ok {
			return ident.Name
		}
	case *ast.Ident:
		return recv.Name
	}
	return ""
}

// isLifecycleSignature checks for func (ctx context.Context) error
func isLifecycleSignature(funcDecl *ast.FuncDecl) bool {
	params := funcDecl.Type.Params
	if params == nil || len(params.List) != 1 {
		return false
	}
	sel, ok := params.List[0].Type.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	ident, ok := sel.X.(*ast.Ident)
	if !ok || ident.Name != "context" || sel.Sel.Name != "Context" {
		return false
	}
	results := funcDecl.Type.Results
	if results == nil || len(results.List) != 1 {
		return false
	}
	resultIdent, ok := results.List[0].Type.(*ast.Ident)
	return ok && resultIdent.Name == "error"
}

// embedsLoomIn reports whether the struct embeds loom.In
func embedsLoomIn(structType *ast.StructType) bool {
	for _, field := range structType.Fields.List {
		if len(field.Names) != 0 {
			continue
		}
		if sel, ok := field.Type.(*ast.SelectorExpr); ok {
			if ident, ok := sel.X.(*ast.Ident); ok {
				if ident.Name == "loom" && sel.Sel.Name == "In" {
					return true
				}
			}
		}
	}
	return false
}

func (s *Scanner) location(pkg *packages.Package, pos token.Pos) annotations.SourceLocation {
	position := pkg.Fset.Position(pos)
	return annotations.SourceLocation{
		File:   position.Filename,
		Line:   position.Line,
		Column: position.Column,
	}
}

func toErrLocation(loc annotations.SourceLocation) errors.SourceLocation {
	return errors.SourceLocation{File: loc.File, Line: loc.Line, Column: loc.Column}
}

func convertParseError(err error, loc annotations.SourceLocation) error {
	if parseErr, ok := err.(annotations.ParseError); ok {
		base := errors.New(errors.SyntaxErrorCode, parseErr.Message).
			WithLocation(toErrLocation(parseErr.Location))
		if parseErr.Suggestion != "" {
			base = base.WithSuggestion(parseErr.Suggestion)
		}
		return base
	}
	return errors.Wrap(errors.SyntaxErrorCode, "invalid annotation", err).
		WithLocation(toErrLocation(loc))
}
