package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileSource reads scripts from the local filesystem. Relative paths are
// resolved against the configured base directory.
type FileSource struct {
	baseDir string
}

// NewFileSource creates a file source. baseDir may be empty, in which case
// relative paths resolve against the working directory.
func NewFileSource(baseDir string) *FileSource {
	return &FileSource{baseDir: baseDir}
}

// Fetch reads the script at path.
func (s *FileSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	if !filepath.IsAbs(path) && s.baseDir != "" {
		path = filepath.Join(s.baseDir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script %q: %w", path, err)
	}
	return data, nil
}
