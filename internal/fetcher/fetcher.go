// Package fetcher performs rate-limited JSON GET requests against the
// prayer-time, geocoding and astronomy APIs.
package fetcher

import (
	"context"
	"fmt"
	"net/url"
)

// Fetcher defines the interface for reading remote JSON documents.
type Fetcher interface {
	// GetJSON fetches rawURL with query appended and decodes the body into out.
	GetJSON(ctx context.Context, rawURL string, query url.Values, out any) error
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}
