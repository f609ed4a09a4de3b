package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/loomdi/loom/internal/generator"
)

// Cleaner removes previously generated registry files
type Cleaner struct{}

// NewCleaner creates a new cleaner
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// CleanGeneratedFiles removes every generated registry file under the given
// directories. Directories support the "./..." recursive pattern. It
// returns the paths that were removed.
func (c *Cleaner) CleanGeneratedFiles(directories []string) ([]string, error) {
	var removed []string

	for _, dir := range directories {
		if err := c.cleanDirectory(dir, &removed); err != nil {
			return removed, fmt.Errorf("failed to clean directory %s: %w", dir, err)
		}
	}

	return removed, nil
}

func (c *Cleaner) cleanDirectory(dir string, removed *[]string) error {
	if strings.HasSuffix(dir, "/...") {
		baseDir := strings.TrimSuffix(dir, "/...")
		if baseDir == "" {
			baseDir = "."
		}
		return c.cleanRecursively(baseDir, removed)
	}

	return c.cleanSingleDirectory(dir, removed)
}

func (c *Cleaner) cleanRecursively(baseDir string, removed *[]string) error {
	return filepath.Walk(baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// skip directories that vanished or cannot be read
			return nil
		}

		if info.IsDir() {
			if isHiddenDir(info.Name()) && path != baseDir {
				return filepath.SkipDir
			}
			return c.cleanSingleDirectory(path, removed)
		}

		return nil
	})
}

func (c *Cleaner) cleanSingleDirectory(dir string, removed *[]string) error {
	target := filepath.Join(dir, generator.GeneratedFileName)

	if _, err := os.Stat(target); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to check file %s: %w", target, err)
	}

	if err := os.Remove(target); err != nil {
		return fmt.Errorf("failed to remove file %s: %w", target, err)
	}

	*removed = append(*removed, target)
	return nil
}

func isHiddenDir(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
