package annotations

import (
	"fmt"
	"strings"
)

// Built-in annotation schemas

func validIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}

func validateQualifier(v interface{}) error {
	name, ok := v.(string)
	if !ok {
		return fmt.Errorf("must be a string, got %T", v)
	}
	if name == "" {
		return fmt.Errorf("qualifier must not be empty")
	}
	return nil
}

func validateBindsList(v interface{}) error {
	list, err := ConvertToStringSlice(v)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return fmt.Errorf("binds list must name at least one interface")
	}
	for _, entry := range list {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			return fmt.Errorf("binds list contains an empty entry")
		}
		for _, part := range strings.Split(entry, ".") {
			if !validIdentifier(part) {
				return fmt.Errorf("'%s' is not a valid type reference", entry)
			}
		}
	}
	return nil
}

func validateScopeRef(v interface{}) error {
	ref, ok := v.(string)
	if !ok {
		return fmt.Errorf("must be a string, got %T", v)
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return fmt.Errorf("scope reference must not be empty")
	}
	// Quoted references are free-form scope names; bare ones must be type identifiers.
	if strings.HasPrefix(ref, "\"") || strings.HasPrefix(ref, "'") {
		return nil
	}
	for _, part := range strings.Split(ref, ".") {
		if !validIdentifier(part) {
			return fmt.Errorf("'%s' is not a valid scope type reference", ref)
		}
	}
	return nil
}

// lifecycleParameters are shared by every component-level annotation.
func lifecycleParameters() map[string]ParameterSpec {
	return map[string]ParameterSpec{
		"Name": {
			Type:        StringType,
			Required:    false,
			Description: "Qualifier applied to every binding of this component",
			Validator:   validateQualifier,
		},
		"Binds": {
			Type:        StringSliceType,
			Required:    false,
			Description: "Comma-separated interface list; replaces automatic supertype detection",
			Validator:   validateBindsList,
		},
	}
}

// SingleAnnotationSchema defines the schema for //loom::single annotations
var SingleAnnotationSchema = AnnotationSchema{
	Type:        SingleAnnotation,
	Description: "Registers a struct as a singleton component",
	Parameters: func() map[string]ParameterSpec {
		params := lifecycleParameters()
		params["Init"] = ParameterSpec{
			Type:         BoolType,
			Required:     false,
			DefaultValue: false,
			Description:  "Wire the component's Start/Stop lifecycle hooks",
		}
		return params
	}(),
	Examples: []string{
		"//loom::single",
		"//loom::single -Name=primary",
		"//loom::single -Binds=UserRepository",
		"//loom::single -Binds=Reader,Writer -Name=disk",
		"//loom::single -Init",
	},
}

// FactoryAnnotationSchema defines the schema for //loom::factory annotations
var FactoryAnnotationSchema = AnnotationSchema{
	Type:        FactoryAnnotation,
	Description: "Registers a struct as a factory component built anew on every resolution",
	Parameters:  lifecycleParameters(),
	Examples: []string{
		"//loom::factory",
		"//loom::factory -Name=csv",
		"//loom::factory -Binds=ReportRenderer",
	},
}

// RetainedAnnotationSchema defines the schema for //loom::retained annotations
var RetainedAnnotationSchema = AnnotationSchema{
	Type:        RetainedAnnotation,
	Description: "Registers a struct built per resolution and retained by the resolving scope until it closes",
	Parameters: func() map[string]ParameterSpec {
		params := lifecycleParameters()
		params["Scope"] = ParameterSpec{
			Type:        StringType,
			Required:    false,
			Description: "Scope the instances are retained in; defaults to the resolving scope",
			Validator:   validateScopeRef,
			KeepQuotes:  true,
		}
		return params
	}(),
	Examples: []string{
		"//loom::retained",
		"//loom::retained -Name=details",
		"//loom::retained -Scope=\"checkout\"",
	},
}

// ScopedAnnotationSchema defines the schema for //loom::scoped annotations
var ScopedAnnotationSchema = AnnotationSchema{
	Type:        ScopedAnnotation,
	Description: "Registers a struct with one instance per scope instance",
	Parameters: func() map[string]ParameterSpec {
		params := lifecycleParameters()
		params["Scope"] = ParameterSpec{
			Type:        StringType,
			Required:    true,
			Description: "Scope this component belongs to: a type reference or a quoted scope name",
			Validator:   validateScopeRef,
			KeepQuotes:  true,
		}
		return params
	}(),
	Examples: []string{
		"//loom::scoped -Scope=Session",
		"//loom::scoped -Scope=auth.Session -Name=audit",
		"//loom::scoped -Scope=\"checkout\" -Binds=CartStore",
	},
}

// InjectAnnotationSchema defines the schema for //loom::inject annotations
var InjectAnnotationSchema = AnnotationSchema{
	Type:        InjectAnnotation,
	Description: "Marks a struct field as an injected dependency",
	Parameters: map[string]ParameterSpec{
		"Name": {
			Type:        StringType,
			Required:    false,
			Description: "Qualifier the dependency is resolved under",
			Validator:   validateQualifier,
		},
	},
	Examples: []string{
		"//loom::inject",
		"//loom::inject -Name=primary",
	},
}

// ParamAnnotationSchema defines the schema for //loom::param annotations
var ParamAnnotationSchema = AnnotationSchema{
	Type:        ParamAnnotation,
	Description: "Marks a struct field as a runtime-supplied parameter",
	Parameters:  map[string]ParameterSpec{},
	Examples: []string{
		"//loom::param",
	},
}

// PropertyAnnotationSchema defines the schema for //loom::property annotations
var PropertyAnnotationSchema = AnnotationSchema{
	Type:        PropertyAnnotation,
	Description: "Marks a struct field as an external configuration value",
	Parameters: map[string]ParameterSpec{
		"key": {
			Type:        StringType,
			Required:    true,
			Description: "Property key looked up in the configuration sources",
			Validator: func(v interface{}) error {
				key, ok := v.(string)
				if !ok {
					return fmt.Errorf("must be a string, got %T", v)
				}
				if strings.TrimSpace(key) == "" {
					return fmt.Errorf("property key must not be empty")
				}
				return nil
			},
		},
		"Default": {
			Type:        StringType,
			Required:    false,
			Description: "Fallback value when the key is absent",
		},
	},
	Examples: []string{
		"//loom::property server.port",
		"//loom::property server.host -Default=localhost",
	},
}

// RegisterBuiltinSchemas registers all built-in annotation schemas with the registry
func RegisterBuiltinSchemas(registry AnnotationRegistry) error {
	schemas := []AnnotationSchema{
		SingleAnnotationSchema,
		FactoryAnnotationSchema,
		RetainedAnnotationSchema,
		ScopedAnnotationSchema,
		InjectAnnotationSchema,
		ParamAnnotationSchema,
		PropertyAnnotationSchema,
	}

	for _, schema := range schemas {
		if err := registry.Register(schema.Type, schema); err != nil {
			return fmt.Errorf("failed to register %s schema: %w", schema.Type, err)
		}
	}
	return nil
}
