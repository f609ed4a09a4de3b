package cli

// Config holds the configuration for one generator run
type Config struct {
	// Dir is the working directory the scan is rooted at
	Dir string

	// Patterns are the package patterns to scan, e.g. "./..."
	Patterns []string

	// ModuleName overrides the module path read from go.mod
	ModuleName string

	// Verbose enables detailed logging and error reporting
	Verbose bool
}
