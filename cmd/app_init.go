package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vakit-cli/internal/cache"
	"github.com/sells-group/vakit-cli/internal/fetcher"
	"github.com/sells-group/vakit-cli/internal/geo"
	"github.com/sells-group/vakit-cli/internal/metrics"
	"github.com/sells-group/vakit-cli/internal/model"
	"github.com/sells-group/vakit-cli/internal/notify"
	"github.com/sells-group/vakit-cli/internal/pipeline"
	"github.com/sells-group/vakit-cli/internal/provider"
	"github.com/sells-group/vakit-cli/internal/reconcile"
	"github.com/sells-group/vakit-cli/internal/registry"
	"github.com/sells-group/vakit-cli/internal/resilience"
	"github.com/sells-group/vakit-cli/internal/segment"
	"github.com/sells-group/vakit-cli/internal/store"
	"github.com/sells-group/vakit-cli/pkg/aladhan"
	"github.com/sells-group/vakit-cli/pkg/geocode"
	"github.com/sells-group/vakit-cli/pkg/moon"
)

// appEnv holds the clients, stores and services shared by the commands.
type appEnv struct {
	Store       store.KV
	Cache       *cache.Cache
	Fetcher     fetcher.Fetcher
	Guard       *resilience.Guard
	Metrics     *metrics.Metrics
	Providers   *provider.Registry
	Aggregator  *reconcile.Aggregator
	Descriptors []registry.Descriptor
	Geocoder    geocode.Client
	Moon        moon.Client
	Aladhan     aladhan.Client
	Messages    *notify.Messages
	Sink        notify.Sink
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initApp validates the config for mode, opens the store and builds every
// service. Callers should defer env.Close().
func initApp(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	m := metrics.New()

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:     cfg.Providers.UserAgent,
		Timeout:       cfg.Providers.Timeout(),
		RatePerSecond: cfg.Providers.RatePerSecond,
	})

	guard := resilience.NewGuard(cfg.Resilience)
	guard.Breakers().AddStateHook(m.ObserveBreaker)

	providers := provider.NewDefaultRegistry(cfg, f, guard)

	agg := reconcile.New(providers, reconcile.Options{
		OutlierThreshold: cfg.Reconcile.OutlierThresholdMinutes,
		Priority:         cfg.Reconcile.Priority,
		Primary:          cfg.Reconcile.Primary,
		SpecialMonth:     cfg.Special.HijriMonth,
		HasCredential:    hasCredential,
	}).WithLocation(cfg.Location()).WithObserver(m)

	descs := registry.LoadOrFallback(cfg.Providers.File)

	c := cache.New(st, cfg.Cache.TTL()).
		WithPrecision(cfg.Cache.Precision).
		WithObserver(m)

	msgs := notify.NewMessages(cfg.Notify.Language)

	zap.L().Info("app initialized",
		zap.String("store", cfg.Store.Driver),
		zap.Strings("providers", providers.List()),
		zap.Int("descriptors", len(descs)),
	)

	return &appEnv{
		Store:       st,
		Cache:       c,
		Fetcher:     f,
		Guard:       guard,
		Metrics:     m,
		Providers:   providers,
		Aggregator:  agg,
		Descriptors: descs,
		Geocoder:    geocode.NewClient(geocode.WithBaseURL(cfg.Geocode.BaseURL), geocode.WithFetcher(f)),
		Moon: moon.NewClient(cfg.Moon.IPGeoKey,
			moon.WithIPGeoBaseURL(cfg.Moon.IPGeoBaseURL),
			moon.WithFallbackURL(cfg.Moon.FallbackURL),
			moon.WithFetcher(f),
		),
		Aladhan:  aladhan.NewClient(aladhan.WithBaseURL(cfg.Aladhan.BaseURL), aladhan.WithFetcher(f)),
		Messages: msgs,
		Sink:     notify.Multi{notify.FromConfig(cfg.Notify), m},
	}, nil
}

// hasCredential reports whether an auth-gated provider is configured.
func hasCredential(id string) bool {
	switch id {
	case "muslimsalat":
		return cfg.MuslimSalat.Key != ""
	default:
		return true
	}
}

// calcParams picks the calculation parameters for loc.
func calcParams(loc model.Location) model.CalcParams {
	return geo.Params(loc, cfg.Calc)
}

// alarmConfig converts the special-period config. Unknown anchor names fall
// back to the alarm defaults.
func alarmConfig() segment.AlarmConfig {
	ac := segment.AlarmConfig{Lead: cfg.Special.Lead()}
	if n, err := model.ParseAnchorName(cfg.Special.StartAnchor); err == nil {
		ac.Start = n
	}
	if n, err := model.ParseAnchorName(cfg.Special.EndAnchor); err == nil {
		ac.End = n
	}
	return ac
}

// newSession builds a session over env. presenter may be nil; alerts turns
// the special-period alarm on or off.
func (e *appEnv) newSession(presenter pipeline.Presenter, alerts bool) *pipeline.Session {
	ac := alarmConfig()
	alarm := segment.NewAlarm(ac)
	alarm.SetCapable(alerts)
	return pipeline.NewSession(e.Cache, e.Aggregator, alarm, presenter, pipeline.Options{
		Descriptors: e.Descriptors,
		Params:      calcParams,
		Timezone:    cfg.Location(),
		Countdown:   []model.AnchorName{ac.Start, ac.End},
		Sink:        e.Sink,
		Messages:    e.Messages,
	})
}
