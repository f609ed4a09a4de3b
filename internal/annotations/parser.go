package annotations

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// ParserEngine interface defines the core parsing functionality
type ParserEngine interface {
	ParseAnnotation(comment string, location SourceLocation) (*ParsedAnnotation, error)
	ValidateAnnotation(annotation *ParsedAnnotation) error
}

// annotationLexer tokenizes the part of a comment after the loom:: prefix.
var annotationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\"|[^"])*"|'(\\'|[^'])*'`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Number", Pattern: `[0-9]+(\.[0-9]+)?`},
	{Name: "Dash", Pattern: `-`},
	{Name: "Equals", Pattern: `=`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Dot", Pattern: `\.`},
	{Name: "Whitespace", Pattern: `\s+`},
})

type parser struct {
	registry AnnotationRegistry
}

// NewParser creates an annotation parser validating against the given registry
func NewParser(registry AnnotationRegistry) ParserEngine {
	return &parser{registry: registry}
}

// ParseError carries a source location and a fix suggestion
type ParseError struct {
	Message    string
	Location   SourceLocation
	Suggestion string
}

func (e ParseError) Error() string {
	if e.Suggestion == "" {
		return fmt.Sprintf("%s:%d:%d: %s",
			e.Location.File, e.Location.Line, e.Location.Column, e.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s. %s",
		e.Location.File, e.Location.Line, e.Location.Column, e.Message, e.Suggestion)
}

// IsAnnotationComment reports whether a comment line carries a loom annotation.
func IsAnnotationComment(comment string) bool {
	trimmed := strings.TrimSpace(comment)
	trimmed = strings.TrimPrefix(trimmed, "//")
	return strings.HasPrefix(strings.TrimSpace(trimmed), "loom::")
}

// ParseAnnotation parses a single //loom:: comment line
func (p *parser) ParseAnnotation(comment string, location SourceLocation) (*ParsedAnnotation, error) {
	body, err := stripPrefix(comment, location)
	if err != nil {
		return nil, err
	}

	words, err := tokenizeWords(body, location)
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, ParseError{
			Message:    "empty annotation",
			Location:   location,
			Suggestion: "Write the annotation kind after loom::, e.g. //loom::single",
		}
	}

	annotationType, err := ParseAnnotationType(words[0].text)
	if err != nil {
		return nil, ParseError{
			Message:    err.Error(),
			Location:   location,
			Suggestion: "Supported kinds: single, factory, retained, scoped, inject, param, property",
		}
	}

	parsed := &ParsedAnnotation{
		Type:       annotationType,
		Parameters: make(map[string]interface{}),
		Location:   location,
		Raw:        strings.TrimSpace(comment),
	}

	positional, named := splitWords(words[1:])
	if err := p.applyPositional(parsed, positional); err != nil {
		return nil, err
	}
	if err := p.applyNamed(parsed, named); err != nil {
		return nil, err
	}

	if p.registry != nil {
		if err := p.ValidateAnnotation(parsed); err != nil {
			return nil, err
		}
	}
	return parsed, nil
}

// word is a whitespace-delimited run of lexer tokens
type word struct {
	text   string
	column int
}

func stripPrefix(comment string, location SourceLocation) (string, error) {
	trimmed := strings.TrimSpace(comment)
	if !strings.HasPrefix(trimmed, "//") {
		return "", ParseError{Message: "annotation must be a // comment", Location: location}
	}
	content := strings.TrimSpace(strings.TrimPrefix(trimmed, "//"))
	if !strings.HasPrefix(content, "loom::") {
		return "", ParseError{
			Message:    "annotation must start with loom::",
			Location:   location,
			Suggestion: "Write annotations as //loom::<kind>",
		}
	}
	return strings.TrimPrefix(content, "loom::"), nil
}

// tokenizeWords runs the lexer and groups contiguous tokens into words so
// that dotted references (auth.Session) and lists (A,B) stay whole while
// whitespace still separates arguments.
func tokenizeWords(input string, location SourceLocation) ([]word, error) {
	lex, err := annotationLexer.Lex(location.File, strings.NewReader(input))
	if err != nil {
		return nil, ParseError{Message: fmt.Sprintf("failed to tokenize annotation: %v", err), Location: location}
	}
	whitespace := annotationLexer.Symbols()["Whitespace"]

	var words []word
	var current *word
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, ParseError{Message: fmt.Sprintf("invalid annotation syntax: %v", err), Location: location}
		}
		if tok.EOF() {
			break
		}
		if tok.Type == whitespace {
			current = nil
			continue
		}
		if current == nil {
			words = append(words, word{column: tok.Pos.Column})
			current = &words[len(words)-1]
		}
		current.text += tok.Value
	}
	return words, nil
}

// splitWords separates leading positional words from -Named ones; once a
// dash-prefixed word appears everything after it is named.
func splitWords(words []word) (positional, named []word) {
	for i, w := range words {
		if strings.HasPrefix(w.text, "-") {
			return words[:i], words[i:]
		}
	}
	return words, nil
}

func (p *parser) applyPositional(parsed *ParsedAnnotation, positional []word) error {
	switch parsed.Type {
	case PropertyAnnotation:
		if len(positional) == 0 {
			return ParseError{
				Message:    "property annotation requires a key",
				Location:   parsed.Location,
				Suggestion: "Write //loom::property <key>, e.g. //loom::property server.port",
			}
		}
		parsed.Parameters["key"] = unquote(positional[0].text)
		positional = positional[1:]
	}
	if len(positional) > 0 {
		return ParseError{
			Message:    fmt.Sprintf("unexpected argument '%s' on %s annotation", positional[0].text, parsed.Type),
			Location:   parsed.Location,
			Suggestion: "Named parameters are written as -Key=value",
		}
	}
	return nil
}

func (p *parser) applyNamed(parsed *ParsedAnnotation, named []word) error {
	for _, w := range named {
		body := strings.TrimPrefix(w.text, "-")
		key, rawValue, hasValue := strings.Cut(body, "=")
		if key == "" {
			return ParseError{
				Message:  "named parameter is missing its name",
				Location: parsed.Location,
			}
		}
		if !hasValue {
			// Bare -Flag: true for boolean parameters, a plain flag otherwise.
			if p.parameterType(parsed.Type, key) == BoolType {
				parsed.Parameters[key] = true
			} else {
				parsed.Flags = append(parsed.Flags, key)
			}
			continue
		}
		parsed.Parameters[key] = p.convertValue(parsed.Type, key, rawValue)
	}
	return nil
}

func (p *parser) parameterType(annotationType AnnotationType, key string) ParameterType {
	if p.registry == nil {
		return StringType
	}
	schema, err := p.registry.GetSchema(annotationType)
	if err != nil {
		return StringType
	}
	spec, ok := schema.Parameters[key]
	if !ok {
		return StringType
	}
	return spec.Type
}

// convertValue coerces a raw value string per the parameter's schema type
func (p *parser) convertValue(annotationType AnnotationType, key, raw string) interface{} {
	var spec ParameterSpec
	if p.registry != nil {
		if schema, err := p.registry.GetSchema(annotationType); err == nil {
			spec = schema.Parameters[key]
		}
	}
	switch spec.Type {
	case BoolType:
		if v, err := ConvertToBool(raw); err == nil {
			return v
		}
		return raw
	case StringSliceType:
		if v, err := ConvertToStringSlice(raw); err == nil {
			return v
		}
		return raw
	default:
		if spec.KeepQuotes {
			return raw
		}
		return unquote(raw)
	}
}

// ValidateAnnotation checks a parsed annotation against its registered schema
func (p *parser) ValidateAnnotation(annotation *ParsedAnnotation) error {
	schema, err := p.registry.GetSchema(annotation.Type)
	if err != nil {
		return ParseError{
			Message:  fmt.Sprintf("no schema registered for annotation type %s", annotation.Type),
			Location: annotation.Location,
		}
	}

	for _, flag := range annotation.Flags {
		if _, ok := schema.Parameters[flag]; !ok {
			return ParseError{
				Message:    fmt.Sprintf("unknown flag '-%s' on %s annotation", flag, annotation.Type),
				Location:   annotation.Location,
				Suggestion: knownParameterHint(schema),
			}
		}
	}
	for paramName, paramValue := range annotation.Parameters {
		spec, ok := schema.Parameters[paramName]
		if !ok {
			return ParseError{
				Message:    fmt.Sprintf("unknown parameter '-%s' on %s annotation", paramName, annotation.Type),
				Location:   annotation.Location,
				Suggestion: knownParameterHint(schema),
			}
		}
		if spec.Validator != nil {
			if err := spec.Validator(paramValue); err != nil {
				return ParseError{
					Message:  fmt.Sprintf("invalid value for -%s: %v", paramName, err),
					Location: annotation.Location,
				}
			}
		}
	}
	for paramName, spec := range schema.Parameters {
		if spec.Required {
			if _, ok := annotation.Parameters[paramName]; !ok {
				return ParseError{
					Message:    fmt.Sprintf("missing required parameter '%s' for %s annotation", paramName, annotation.Type),
					Location:   annotation.Location,
					Suggestion: firstExample(schema),
				}
			}
		}
	}

	for _, validator := range schema.Validators {
		if err := validator(annotation); err != nil {
			return ParseError{Message: err.Error(), Location: annotation.Location}
		}
	}
	return nil
}

func knownParameterHint(schema AnnotationSchema) string {
	if len(schema.Parameters) == 0 {
		return fmt.Sprintf("The %s annotation takes no parameters", schema.Type)
	}
	names := make([]string, 0, len(schema.Parameters))
	for name := range schema.Parameters {
		names = append(names, name)
	}
	return "Known parameters: " + strings.Join(names, ", ")
}

func firstExample(schema AnnotationSchema) string {
	if len(schema.Examples) == 0 {
		return ""
	}
	return "Example: " + schema.Examples[0]
}
