package scanner

import "go/ast"

type wrapperKind int

const (
	wrapperNone wrapperKind = iota
	wrapperLazy
	wrapperOptional
	wrapperSlice
)

// classifyFieldType detects the resolution wrapper of a field type and
// returns the rendered element type. loom.Lazy[T] and loom.Optional[T] are
// generic instantiations; []T is a collected list.
func classifyFieldType(expr ast.Expr) (wrapperKind, string) {
	switch t := expr.(type) {
	case *ast.IndexExpr:
		if name, ok := loomGeneric(t.X); ok {
			switch name {
			case "Lazy":
				return wrapperLazy, typeString(t.Index)
			case "Optional":
				return wrapperOptional, typeString(t.Index)
			}
		}
	case *ast.ArrayType:
		if t.Len == nil {
			return wrapperSlice, typeString(t.Elt)
		}
	}
	return wrapperNone, typeString(expr)
}

// loomGeneric matches loom.Lazy / loom.Optional selector expressions
func loomGeneric(expr ast.Expr) (string, bool) {
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok {
		return "", false
	}
	ident, ok := sel.X.(*ast.Ident)
	if !ok || ident.Name != "loom" {
		return "", false
	}
	return sel.Sel.Name, true
}

// typeString renders a field type expression the way it appears in source
func typeString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + typeString(t.X)
	case *ast.SelectorExpr:
		if ident, ok := t.X.(*ast.Ident); ok {
			return ident.Name + "." + t.Sel.Name
		}
		return t.Sel.Name
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + typeString(t.Elt)
		}
		return "[...]" + typeString(t.Elt)
	case *ast.MapType:
		return "map[" + typeString(t.Key) + "]" + typeString(t.Value)
	case *ast.IndexExpr:
		return typeString(t.X) + "[" + typeString(t.Index) + "]"
	case *ast.InterfaceType:
		if t.Methods == nil || len(t.Methods.List) == 0 {
			return "interface{}"
		}
		return "interface{...}"
	case *ast.ChanType:
		switch t.Dir {
		case ast.SEND:
			return "chan<- " + typeString(t.Value)
		case ast.RECV:
			return "<-chan " + typeString(t.Value)
		default:
			return "chan " + typeString(t.Value)
		}
	case *ast.FuncType:
		return "func(...)"
	default:
		return "unknown"
	}
}
