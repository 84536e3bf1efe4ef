package provider

import (
	"context"
	"errors"
	"time"

	"github.com/sells-group/vakit-cli/internal/config"
	"github.com/sells-group/vakit-cli/internal/fetcher"
	"github.com/sells-group/vakit-cli/internal/model"
	"github.com/sells-group/vakit-cli/internal/resilience"
	"github.com/sells-group/vakit-cli/pkg/aladhan"
	"github.com/sells-group/vakit-cli/pkg/muslimsalat"
	"github.com/sells-group/vakit-cli/pkg/prayzone"
)

// Guarded bounds every attempt of an inner provider with a timeout and runs
// it through the provider's circuit breaker and retry policy.
type Guarded struct {
	inner   Provider
	guard   *resilience.Guard
	timeout time.Duration
}

// NewGuarded wraps p. A zero timeout means 10s.
func NewGuarded(p Provider, guard *resilience.Guard, timeout time.Duration) *Guarded {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Guarded{inner: p, guard: guard, timeout: timeout}
}

// ID implements Provider.
func (g *Guarded) ID() string { return g.inner.ID() }

// Strategy implements Provider.
func (g *Guarded) Strategy() Strategy { return g.inner.Strategy() }

// Fetch implements Provider.
func (g *Guarded) Fetch(ctx context.Context, loc model.Location, params model.CalcParams) (*model.ProviderResult, error) {
	if g.Strategy() == StrategyCity && !loc.HasCity() {
		return nil, model.NewProviderError(g.ID(), model.ErrUnsupportedRequestShape)
	}

	res, err := resilience.Call(ctx, g.guard, g.ID(), func(ctx context.Context) (*model.ProviderResult, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		return g.inner.Fetch(callCtx, loc, params)
	})
	if err != nil {
		var pe *model.ProviderError
		if errors.As(err, &pe) {
			return nil, pe
		}
		return nil, model.NewProviderError(g.ID(), err)
	}
	return res, nil
}

// NewDefaultRegistry registers the built-in adapters, each guarded. The
// MuslimSalat adapter is registered only when its key is configured.
func NewDefaultRegistry(cfg *config.Config, f fetcher.Fetcher, guard *resilience.Guard) *Registry {
	timeout := cfg.Providers.Timeout()
	r := NewRegistry()

	r.Register(NewGuarded(NewAladhan(
		aladhan.NewClient(aladhan.WithBaseURL(cfg.Aladhan.BaseURL), aladhan.WithFetcher(f)),
		cfg.Aladhan.LatitudeAdjustment,
		cfg.Aladhan.Tune,
	), guard, timeout))

	r.Register(NewGuarded(NewPrayZone(
		prayzone.NewClient(prayzone.WithBaseURL(cfg.PrayZone.BaseURL), prayzone.WithFetcher(f)),
	), guard, timeout))

	if cfg.MuslimSalat.Key != "" {
		r.Register(NewGuarded(NewMuslimSalat(
			muslimsalat.NewClient(cfg.MuslimSalat.Key, muslimsalat.WithBaseURL(cfg.MuslimSalat.BaseURL), muslimsalat.WithFetcher(f)),
		), guard, timeout))
	}

	return r
}
