package utils

import (
	"fmt"
	"go/format"
	"go/parser"
	"go/token"
)

// FormatGoCodeString formats Go source code using the same logic as gofmt
func FormatGoCodeString(source string) (string, error) {
	formatted, err := format.Source([]byte(source))
	if err != nil {
		// If formatting fails, try to parse to see if it's valid Go
		fset := token.NewFileSet()
		_, parseErr := parser.ParseFile(fset, "", source, parser.ParseComments)
		if parseErr != nil {
			return source, fmt.Errorf("invalid Go syntax: %w (format error: %v)", parseErr, err)
		}
		// If parsing works but formatting doesn't, return the original
		return source, err
	}
	return string(formatted), nil
}
