package errors

import "fmt"

// ConflictError reports two components registered under the same binding key
type ConflictError struct {
	*BaseError
	BindingType string         // the contested type
	Qualifier   string         // the contested qualifier, empty for unqualified
	First       SourceLocation // declaration that registered the key first
	Second      SourceLocation // declaration that collided with it
}

// NewConflictError creates a conflict error for a duplicate (type, qualifier) pair
func NewConflictError(bindingType, qualifier string, first, second SourceLocation) *ConflictError {
	key := bindingType
	if qualifier != "" {
		key = fmt.Sprintf("%s (qualifier %q)", bindingType, qualifier)
	}
	base := Newf(ConflictErrorCode, "duplicate registration for %s", key).
		WithLocation(second).
		WithContext("binding_type", bindingType).
		WithContext("first_declaration", first.String()).
		WithSuggestion("Add a -Name qualifier to one of the components").
		WithSuggestion("Narrow the -Binds list so the components bind different interfaces")
	if qualifier != "" {
		base = base.WithContext("qualifier", qualifier)
	}
	return &ConflictError{
		BaseError:   base,
		BindingType: bindingType,
		Qualifier:   qualifier,
		First:       first,
		Second:      second,
	}
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s (first declared at %s)", e.BaseError.Error(), e.First.String())
}

// NewBindingError reports a -Binds entry the component does not satisfy
func NewBindingError(component, iface string, loc SourceLocation) *BaseError {
	return Newf(BindingErrorCode, "component %s does not implement %s", component, iface).
		WithLocation(loc).
		WithContext("component", component).
		WithContext("interface", iface).
		WithSuggestion(fmt.Sprintf("Implement %s on *%s or remove it from -Binds", iface, component))
}

// NewScopeError reports an unknown or invalid scope reference
func NewScopeError(component, ref string, loc SourceLocation) *BaseError {
	return Newf(ScopeErrorCode, "component %s references unknown scope %s", component, ref).
		WithLocation(loc).
		WithContext("component", component).
		WithContext("scope", ref).
		WithSuggestion("Declare the scope type in a scanned package, or use a quoted scope name")
}

// NewDependencyError reports an invalid dependency declaration on a field
func NewDependencyError(component, field, reason string, loc SourceLocation) *BaseError {
	return Newf(DependencyErrorCode, "invalid dependency %s.%s: %s", component, field, reason).
		WithLocation(loc).
		WithContext("component", component).
		WithContext("field", field)
}
