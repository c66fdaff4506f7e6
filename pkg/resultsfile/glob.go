package resultsfile

import (
	"fmt"
	"path/filepath"
)

// ExpandGlobs expands file arguments and glob patterns into a list of paths.
// Arguments keep their command-line order; the matches of one pattern come
// back sorted. A path named twice is kept at its first position. Patterns
// that match nothing are returned as-is so the caller reports the missing file.
func ExpandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}

		if len(matches) == 0 {
			add(pattern)
			continue
		}

		for _, match := range matches {
			add(match)
		}
	}

	return files, nil
}
