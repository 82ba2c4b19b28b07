package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// maxScriptSize caps a single script download at 8 MiB.
const maxScriptSize = 8 << 20

// HTTPSource downloads scripts over HTTP(S).
type HTTPSource struct {
	client *http.Client
}

// NewHTTPSource creates an HTTP source with the given request timeout.
func NewHTTPSource(timeout time.Duration) *HTTPSource {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the script at url. Any non-2xx response is an error.
func (s *HTTPSource) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %q: %w", url, err)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %q failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d from %q", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxScriptSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body from %q: %w", url, err)
	}

	log.Debug().
		Str("url", url).
		Int("bytes", len(body)).
		Dur("took", time.Since(start)).
		Msg("Downloaded script")

	return body, nil
}
