package models

import (
	"fmt"
	"strings"

	"github.com/loomdi/loom/internal/annotations"
)

// Lifecycle represents how the runtime constructs and retains a component
type Lifecycle int

const (
	LifecycleSingle Lifecycle = iota
	LifecycleFactory
	LifecycleRetained
	LifecycleScoped
)

// String returns the string representation of the lifecycle
func (l Lifecycle) String() string {
	switch l {
	case LifecycleSingle:
		return "single"
	case LifecycleFactory:
		return "factory"
	case LifecycleRetained:
		return "retained"
	case LifecycleScoped:
		return "scoped"
	default:
		return "unknown"
	}
}

// ScopeKind distinguishes how a scope is referenced
type ScopeKind int

const (
	ScopeNone ScopeKind = iota // component is not scoped
	ScopeType                  // scope referenced by a type, e.g. auth.Session
	ScopeName                  // scope referenced by a quoted name, e.g. "checkout"
)

// ScopeRef identifies the scope a component belongs to
type ScopeRef struct {
	Kind       ScopeKind
	TypeRef    string // type reference, set when Kind == ScopeType
	Name       string // scope name, set when Kind == ScopeName
	ImportPath string // import for the scope type when it lives in another package
}

// ParseScopeRef interprets a -Scope annotation value. Quoted values are scope
// names; bare values must be type references.
func ParseScopeRef(raw string) (ScopeRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ScopeRef{}, fmt.Errorf("scope reference is empty")
	}
	if len(raw) >= 2 {
		if (raw[0] == '"' && raw[len(raw)-1] == '"') || (raw[0] == '\'' && raw[len(raw)-1] == '\'') {
			name := raw[1 : len(raw)-1]
			if strings.TrimSpace(name) == "" {
				return ScopeRef{}, fmt.Errorf("scope name is empty")
			}
			return ScopeRef{Kind: ScopeName, Name: name}, nil
		}
	}
	return ScopeRef{Kind: ScopeType, TypeRef: raw}, nil
}

// IsScoped reports whether the reference names an actual scope
func (s ScopeRef) IsScoped() bool {
	return s.Kind != ScopeNone
}

// Key returns a stable identity for the scope, usable as a map key
func (s ScopeRef) Key() string {
	switch s.Kind {
	case ScopeType:
		if s.ImportPath != "" {
			return "type:" + s.ImportPath + "." + s.TypeRef
		}
		return "type:" + s.TypeRef
	case ScopeName:
		return "name:" + s.Name
	default:
		return ""
	}
}

func (s ScopeRef) String() string {
	switch s.Kind {
	case ScopeType:
		return s.TypeRef
	case ScopeName:
		return fmt.Sprintf("%q", s.Name)
	default:
		return "<unscoped>"
	}
}

// ResolutionMode represents how a single dependency is obtained at resolve time
type ResolutionMode int

const (
	ResolveEager    ResolutionMode = iota // resolve by type when the component is built
	ResolveLazy                           // loom.Lazy[T] field, resolved on first use
	ResolveOptional                       // loom.Optional[T] field, absence tolerated
	ResolveCollect                        // []T field, every registration bound to T
	ResolveParam                          // runtime-supplied parameter
	ResolveProperty                       // external configuration value
)

// String returns the string representation of the resolution mode
func (m ResolutionMode) String() string {
	switch m {
	case ResolveEager:
		return "eager"
	case ResolveLazy:
		return "lazy"
	case ResolveOptional:
		return "optional"
	case ResolveCollect:
		return "collect"
	case ResolveParam:
		return "param"
	case ResolveProperty:
		return "property"
	default:
		return "unknown"
	}
}

// ImportSpec is one import the generated file needs to reference a type
type ImportSpec struct {
	Alias string // local name, set when it differs from the path's last segment
	Path  string
}

// Dependency describes one constructor member of a component: the field it
// fills, the type it resolves, and the single resolution mode it uses.
type Dependency struct {
	FieldName string         // struct field receiving the value
	FieldType string         // declared field type as written in source
	Type      string         // resolved type; element type for Lazy/Optional/slice fields
	Mode      ResolutionMode // exactly one mode per dependency
	Qualifier string         // -Name qualifier, empty for unqualified resolution
	Imports   []ImportSpec   // packages the field type references

	// Property fields, set when Mode == ResolveProperty
	PropertyKey     string
	PropertyDefault string
	HasDefault      bool
}

// ComponentDecl is the scanner's output for one annotated struct: everything
// the resolver and emitter need to know about the component.
type ComponentDecl struct {
	Name         string    // struct name
	Package      string    // Go package name
	ImportPath   string    // import path of the declaring package
	Lifecycle    Lifecycle // exactly one lifecycle kind
	Qualifier    string    // -Name qualifier applied to every binding
	BindsOnly    []string  // explicit -Binds list; replaces supertype detection
	Scope        ScopeRef  // at most one scope
	EmbedsIn     bool      // struct embeds loom.In
	Dependencies []Dependency

	// Lifecycle hook wiring, set for -Init components
	RequiresInit bool
	HasStart     bool
	HasStop      bool

	Location annotations.SourceLocation
}

// QualifiedName returns the component's name prefixed with its package
func (c *ComponentDecl) QualifiedName() string {
	if c.Package == "" {
		return c.Name
	}
	return c.Package + "." + c.Name
}

// HasExplicitBinds reports whether -Binds replaced automatic detection
func (c *ComponentDecl) HasExplicitBinds() bool {
	return len(c.BindsOnly) > 0
}
