package ingest

import (
	"path/filepath"
	"strings"
)

// IsHidden reports whether any segment of a slash or OS path starts with '.'.
// Partial uploads and editor swap files land under such names.
func IsHidden(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}
