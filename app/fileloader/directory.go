package fileloader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover expands a glob such as "exports/**/*.csv" into the accepted
// translation files it matches, sorted by path. A plain path matches itself.
func Discover(pattern string) ([]string, error) {
	if pattern == "" {
		return nil, fmt.Errorf("file pattern is required (e.g., exports/**/*.csv)")
	}

	matches, err := doublestar.FilepathGlob(filepath.Clean(pattern))
	if err != nil {
		return nil, fmt.Errorf("pattern matching failed: %w", err)
	}

	var files []string
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue // Skip files we can't stat and directories
		}
		if !IsAccepted(match) {
			continue
		}
		files = append(files, match)
	}
	sort.Strings(files)
	return files, nil
}
