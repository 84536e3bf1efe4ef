// Package reconcile queries every eligible provider concurrently and reduces
// their answers to one trustworthy anchor set.
package reconcile

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/vakit-cli/internal/model"
	"github.com/sells-group/vakit-cli/internal/provider"
	"github.com/sells-group/vakit-cli/internal/registry"
)

// Skip reasons reported for providers that were not called.
const (
	SkipNotRegistered = "not registered"
	SkipRegion        = "outside regions"
	SkipNeedsCity     = "needs city"
	SkipNoCredential  = "missing credential"
)

// Options tunes the aggregator.
type Options struct {
	// OutlierThreshold is in minutes. Zero means DefaultOutlierThreshold.
	OutlierThreshold float64
	// Priority is the preferred provider order. Empty means DefaultPriority.
	Priority []string
	// Primary is called when no descriptor is eligible. Default: aladhan.
	Primary string
	// SpecialMonth is the hijri month that flags the special period.
	SpecialMonth int
	// HasCredential reports whether an auth_required provider is usable.
	// Nil treats registration as proof of a credential.
	HasCredential func(id string) bool
}

// Observer receives per-call outcomes, e.g. for metrics.
type Observer interface {
	ObserveCall(providerID string, err error, elapsed time.Duration)
	ObserveOutlier(providerID string)
	ObserveSelection(providerID string, dateFallback bool)
}

// Report describes one reconciliation.
type Report struct {
	RequestID    string            `json:"request_id"`
	Set          *model.AnchorSet  `json:"set"`
	Called       []string          `json:"called"`
	Failed       map[string]string `json:"failed,omitempty"`
	Skipped      map[string]string `json:"skipped,omitempty"`
	Outliers     []string          `json:"outliers,omitempty"`
	DateFallback bool              `json:"date_fallback"`
}

// Aggregator is the multi-provider reconciler.
type Aggregator struct {
	registry *provider.Registry
	opts     Options
	observer Observer
	now      func() time.Time
	tz       *time.Location
}

// New creates an Aggregator over the adapters in reg.
func New(reg *provider.Registry, opts Options) *Aggregator {
	if opts.OutlierThreshold <= 0 {
		opts.OutlierThreshold = DefaultOutlierThreshold
	}
	if len(opts.Priority) == 0 {
		opts.Priority = DefaultPriority
	}
	if opts.Primary == "" {
		opts.Primary = "aladhan"
	}
	if opts.SpecialMonth <= 0 {
		opts.SpecialMonth = model.DefaultSpecialMonth
	}
	return &Aggregator{
		registry: reg,
		opts:     opts,
		now:      time.Now,
		tz:       time.Local,
	}
}

// WithNow overrides the clock used to derive today's date.
func (a *Aggregator) WithNow(fn func() time.Time) *Aggregator {
	a.now = fn
	return a
}

// WithLocation sets the timezone in which "today" is evaluated.
func (a *Aggregator) WithLocation(tz *time.Location) *Aggregator {
	if tz != nil {
		a.tz = tz
	}
	return a
}

// WithObserver attaches an outcome observer.
func (a *Aggregator) WithObserver(o Observer) *Aggregator {
	a.observer = o
	return a
}

// Today returns the ISO date the aggregator reconciles for.
func (a *Aggregator) Today() string {
	return a.now().In(a.tz).Format("2006-01-02")
}

type call struct {
	desc registry.Descriptor
	p    provider.Provider
}

// eligible splits descriptors into calls and skip reasons.
func (a *Aggregator) eligible(loc model.Location, descs []registry.Descriptor) ([]call, map[string]string) {
	var calls []call
	skipped := make(map[string]string)
	seen := make(map[string]bool)

	for _, d := range descs {
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true

		p := a.registry.Get(d.ID)
		switch {
		case p == nil:
			skipped[d.ID] = SkipNotRegistered
		case !d.AppliesTo(loc.Country()):
			skipped[d.ID] = SkipRegion
		case d.AuthRequired && a.opts.HasCredential != nil && !a.opts.HasCredential(d.ID):
			skipped[d.ID] = SkipNoCredential
		case (d.Strategy == provider.StrategyCity || p.Strategy() == provider.StrategyCity) && !loc.HasCity():
			skipped[d.ID] = SkipNeedsCity
		default:
			calls = append(calls, call{desc: d, p: p})
		}
	}

	if len(calls) == 0 {
		if p := a.registry.Get(a.opts.Primary); p != nil {
			d := registry.Descriptor{ID: p.ID(), Label: p.ID()}
			for _, desc := range descs {
				if desc.ID == p.ID() {
					d = desc
				}
			}
			delete(skipped, p.ID())
			calls = append(calls, call{desc: d, p: p})
		}
	}

	return calls, skipped
}

// Reconcile calls every eligible provider concurrently, waits for all of
// them, and selects the best answer. Provider failures are recorded in the
// report; only the absence of any usable result is an error
// (*model.NoValidDataError).
func (a *Aggregator) Reconcile(ctx context.Context, loc model.Location, params model.CalcParams, descs []registry.Descriptor) (*Report, error) {
	report := &Report{
		RequestID: uuid.NewString(),
		Failed:    make(map[string]string),
	}
	log := zap.L().With(zap.String("request_id", report.RequestID))

	calls, skipped := a.eligible(loc, descs)
	report.Skipped = skipped

	outcomes := make([]*model.ProviderResult, len(calls))
	failures := make([]error, len(calls))

	var g errgroup.Group
	for i, c := range calls {
		report.Called = append(report.Called, c.desc.ID)
		g.Go(func() error {
			start := time.Now()
			res, err := c.p.Fetch(ctx, loc, params)
			if err == nil && res == nil {
				err = model.NewProviderError(c.desc.ID, eris.New("reconcile: empty result"))
			}
			if a.observer != nil {
				a.observer.ObserveCall(c.desc.ID, err, time.Since(start))
			}
			if err != nil {
				failures[i] = err
				log.Warn("reconcile: provider failed",
					zap.String("provider", c.desc.ID),
					zap.Error(err),
				)
				return nil
			}
			res.ProviderID = c.desc.ID
			res.Label = c.desc.Label
			res.Priority = c.desc.Priority
			outcomes[i] = res
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range failures {
		if err != nil {
			report.Failed[calls[i].desc.ID] = err.Error()
		}
	}

	today := a.Today()
	sel, err := Select(outcomes, today, a.opts.OutlierThreshold, a.opts.Priority)
	if err != nil {
		var nv *model.NoValidDataError
		if errors.As(err, &nv) {
			nv.Attempted = append([]string(nil), report.Called...)
			nv.Failures = make(map[string]error)
			for i, ferr := range failures {
				if ferr != nil {
					nv.Failures[calls[i].desc.ID] = ferr
				}
			}
		}
		log.Error("reconcile: no valid data",
			zap.Strings("called", report.Called),
			zap.Error(err),
		)
		return report, err
	}

	report.Outliers = sel.Outliers
	report.DateFallback = sel.DateFallback
	report.Set = model.NewAnchorSet(sel.Best, a.opts.SpecialMonth)
	sort.Strings(report.Outliers)

	if a.observer != nil {
		for _, id := range report.Outliers {
			a.observer.ObserveOutlier(id)
		}
		a.observer.ObserveSelection(sel.Best.ProviderID, sel.DateFallback)
	}

	log.Info("reconcile: selected provider",
		zap.String("provider", sel.Best.ProviderID),
		zap.String("date", today),
		zap.Int("called", len(report.Called)),
		zap.Int("failed", len(report.Failed)),
		zap.Strings("outliers", report.Outliers),
		zap.Bool("date_fallback", sel.DateFallback),
		zap.Bool("special_period", report.Set.IsSpecialPeriod),
	)

	return report, nil
}
