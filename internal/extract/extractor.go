package extract

import (
	"path/filepath"
	"strings"
)

// Extractor converts one class of uploaded file into plain text.
type Extractor interface {
	// Name returns the unique name of the extraction strategy.
	Name() string
	// CanExtract reports whether this extractor handles the given filename.
	CanExtract(filename string) bool
	// Extract converts the raw file bytes into plain text.
	Extract(data []byte) (string, error)
}

// Extension returns the lowercased filename extension without the dot.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
