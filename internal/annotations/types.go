package annotations

import (
	"fmt"
	"strings"
)

// AnnotationType represents the type of annotation
type AnnotationType int

const (
	SingleAnnotation AnnotationType = iota
	FactoryAnnotation
	RetainedAnnotation
	ScopedAnnotation
	InjectAnnotation
	ParamAnnotation
	PropertyAnnotation
)

// String returns the string representation of the annotation type
func (a AnnotationType) String() string {
	switch a {
	case SingleAnnotation:
		return "single"
	case FactoryAnnotation:
		return "factory"
	case RetainedAnnotation:
		return "retained"
	case ScopedAnnotation:
		return "scoped"
	case InjectAnnotation:
		return "inject"
	case ParamAnnotation:
		return "param"
	case PropertyAnnotation:
		return "property"
	default:
		return "unknown"
	}
}

// ParseAnnotationType converts string to AnnotationType
func ParseAnnotationType(s string) (AnnotationType, error) {
	switch s {
	case "single":
		return SingleAnnotation, nil
	case "factory":
		return FactoryAnnotation, nil
	case "retained":
		return RetainedAnnotation, nil
	case "scoped":
		return ScopedAnnotation, nil
	case "inject":
		return InjectAnnotation, nil
	case "param":
		return ParamAnnotation, nil
	case "property":
		return PropertyAnnotation, nil
	default:
		return 0, fmt.Errorf("unknown annotation type: %s", s)
	}
}

// IsLifecycle reports whether the annotation declares a component lifecycle.
// Lifecycle annotations attach to struct declarations; the rest attach to fields.
func (a AnnotationType) IsLifecycle() bool {
	switch a {
	case SingleAnnotation, FactoryAnnotation, RetainedAnnotation, ScopedAnnotation:
		return true
	default:
		return false
	}
}

// SourceLocation represents the location of an annotation in source code
type SourceLocation struct {
	File   string // File path
	Line   int    // Line number (1-based)
	Column int    // Column number (1-based)
}

// ParsedAnnotation represents a fully parsed annotation with type-safe parameters
type ParsedAnnotation struct {
	Type       AnnotationType         // Annotation type enum
	Target     string                 // Target struct or field name
	Parameters map[string]interface{} // Typed parameters
	Flags      []string               // Boolean flags
	Location   SourceLocation         // Source location
	Raw        string                 // Original annotation text
}

// GetString returns a string parameter value with optional default
func (p *ParsedAnnotation) GetString(paramName string, defaultValue ...string) string {
	if value, exists := p.Parameters[paramName]; exists {
		if strValue, ok := value.(string); ok {
			return strValue
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

// GetStringSlice returns a string slice parameter value with optional default
func (p *ParsedAnnotation) GetStringSlice(paramName string, defaultValue ...[]string) []string {
	if value, exists := p.Parameters[paramName]; exists {
		if converted, err := ConvertToStringSlice(value); err == nil {
			return converted
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return nil
}

// HasParameter checks if a parameter exists
func (p *ParsedAnnotation) HasParameter(paramName string) bool {
	_, exists := p.Parameters[paramName]
	return exists
}

// HasFlag checks if a boolean flag was present on the annotation
func (p *ParsedAnnotation) HasFlag(flag string) bool {
	for _, f := range p.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// ParameterType represents the type of a parameter
type ParameterType int

const (
	StringType ParameterType = iota
	BoolType
	StringSliceType
)

// String returns the string representation of the parameter type
func (p ParameterType) String() string {
	switch p {
	case StringType:
		return "string"
	case BoolType:
		return "bool"
	case StringSliceType:
		return "[]string"
	default:
		return "unknown"
	}
}

// ParameterSpec defines the specification for an annotation parameter
type ParameterSpec struct {
	Type         ParameterType           // Parameter type
	Required     bool                    // Whether parameter is required
	DefaultValue interface{}             // Default value if not provided
	Description  string                  // Parameter description
	Validator    func(interface{}) error // Custom validator function
	KeepQuotes   bool                    // Preserve surrounding quotes in the parsed value
}

// CustomValidator represents a custom validation function for annotations
type CustomValidator func(*ParsedAnnotation) error

// AnnotationSchema defines the schema for an annotation type
type AnnotationSchema struct {
	Type        AnnotationType           // Annotation type enum
	Description string                   // Human-readable description
	Parameters  map[string]ParameterSpec // Parameter specifications
	Validators  []CustomValidator        // Custom validation functions
	Examples    []string                 // Usage examples
}

// Type conversion utilities

// ConvertToString converts any value to a string
func ConvertToString(value interface{}) (string, error) {
	if strValue, ok := value.(string); ok {
		return strValue, nil
	}
	return fmt.Sprintf("%v", value), nil
}

// ConvertToBool converts various types to boolean
func ConvertToBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(v) {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean string: %s", v)
		}
	default:
		return false, fmt.Errorf("cannot convert %T to bool", value)
	}
}

// ConvertToStringSlice converts various types to string slice. Strings with
// commas split into trimmed, unquoted elements (the -Binds=A,B form).
func ConvertToStringSlice(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case string:
		if v == "" {
			return []string{}, nil
		}
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			result = append(result, unquote(strings.TrimSpace(part)))
		}
		return result, nil
	case []interface{}:
		result := make([]string, len(v))
		for i, item := range v {
			result[i] = fmt.Sprintf("%v", item)
		}
		return result, nil
	default:
		return []string{fmt.Sprintf("%v", value)}, nil
	}
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
