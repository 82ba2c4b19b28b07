// Package fetch retrieves raw script source by URL. Installing the source
// into a runtime is the caller's concern.
package fetch

import (
	"context"
	"fmt"
	"strings"
)

// Source retrieves the raw bytes of the script at url.
type Source interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Resolver picks a Source by URL scheme.
type Resolver struct {
	http *HTTPSource
	file *FileSource
}

// NewResolver creates a resolver over the given sources.
func NewResolver(http *HTTPSource, file *FileSource) *Resolver {
	return &Resolver{http: http, file: file}
}

// Fetch dispatches to the source matching the URL scheme. Bare paths are
// treated as local files.
func (r *Resolver) Fetch(ctx context.Context, url string) ([]byte, error) {
	switch {
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		return r.http.Fetch(ctx, url)
	case strings.HasPrefix(url, "file://"):
		return r.file.Fetch(ctx, strings.TrimPrefix(url, "file://"))
	case strings.Contains(url, "://"):
		return nil, fmt.Errorf("unsupported url scheme in %q", url)
	default:
		return r.file.Fetch(ctx, url)
	}
}
