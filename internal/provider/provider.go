// Package provider defines the prayer-time provider contract, a registry of
// adapters, and the adapters for the supported HTTP APIs.
package provider

import (
	"context"
	"sort"
	"sync"

	"github.com/sells-group/vakit-cli/internal/model"
)

// Strategy is the request shape a provider needs.
type Strategy string

// Request strategies.
const (
	StrategyCoords Strategy = "coords"
	StrategyCity   Strategy = "city"
)

// Provider fetches one day of anchors for a location. Failures are returned
// as *model.ProviderError.
type Provider interface {
	// ID returns the provider identifier (matches the descriptor id).
	ID() string
	// Strategy returns the request shape the provider needs.
	Strategy() Strategy
	// Fetch returns today's anchors for loc.
	Fetch(ctx context.Context, loc model.Location, params model.CalcParams) (*model.ProviderResult, error)
}

// Registry maps provider ids to adapters.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider, replacing any with the same id.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID()] = p
}

// Get returns a provider by id, or nil if not found.
func (r *Registry) Get(id string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[id]
}

// List returns all registered provider ids, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// parseAnchors collects every anchor lookup can supply in a parseable form.
func parseAnchors(lookup func(name model.AnchorName) (string, bool)) map[model.AnchorName]model.TimeOfDay {
	out := make(map[model.AnchorName]model.TimeOfDay, len(model.AllAnchors))
	for _, name := range model.AllAnchors {
		raw, ok := lookup(name)
		if !ok {
			continue
		}
		if t, ok := model.ParseTimeOfDay(raw); ok {
			out[name] = t
		}
	}
	return out
}
