package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrUnsupportedRequestShape is returned by adapters that need input the
// location does not carry, e.g. a city name.
var ErrUnsupportedRequestShape = eris.New("unsupported request shape")

// ProviderError reports that one provider produced no usable result.
type ProviderError struct {
	ProviderID string
	Cause      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.ProviderID, e.Cause)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// NewProviderError wraps cause for providerID.
func NewProviderError(providerID string, cause error) *ProviderError {
	return &ProviderError{ProviderID: providerID, Cause: cause}
}

// NoValidDataError means no provider produced usable data for a request.
type NoValidDataError struct {
	Attempted []string
	Failures  map[string]error
}

func (e *NoValidDataError) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("no valid prayer time data (%d provider(s) attempted)", len(e.Attempted))
	}
	ids := make([]string, 0, len(e.Failures))
	for id := range e.Failures {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s: %v", id, e.Failures[id]))
	}
	return fmt.Sprintf("no valid prayer time data (%d provider(s) attempted): %s",
		len(e.Attempted), strings.Join(parts, "; "))
}

// CacheIOError wraps a storage failure in the timings cache. It never
// reaches callers of the cache; it exists so logs carry a stable shape.
type CacheIOError struct {
	Op  string
	Key string
	Err error
}

func (e *CacheIOError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *CacheIOError) Unwrap() error { return e.Err }

// ConfigLoadError reports that the provider descriptor file could not be
// used and the built-in list was substituted.
type ConfigLoadError struct {
	Path string
	Err  error
}

func (e *ConfigLoadError) Error() string {
	return fmt.Sprintf("load provider config %s: %v", e.Path, e.Err)
}

func (e *ConfigLoadError) Unwrap() error { return e.Err }
