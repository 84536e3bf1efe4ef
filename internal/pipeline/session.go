// Package pipeline wires the cache, aggregator, segmentation engine and
// presenter into one per-location session.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vakit-cli/internal/cache"
	"github.com/sells-group/vakit-cli/internal/model"
	"github.com/sells-group/vakit-cli/internal/notify"
	"github.com/sells-group/vakit-cli/internal/reconcile"
	"github.com/sells-group/vakit-cli/internal/registry"
	"github.com/sells-group/vakit-cli/internal/segment"
)

// Status tells the presenter where the displayed anchors came from.
type Status string

const (
	StatusLoading Status = "loading"
	StatusCached  Status = "cached"
	StatusFresh   Status = "fresh"
	StatusFailed  Status = "failed"
)

// Cadence defaults.
const (
	DefaultTick       = time.Second
	DefaultRetryAfter = time.Minute
)

// Presenter displays session state.
type Presenter interface {
	Render(set model.AnchorSet, status Status)
	RenderSegment(current, next *model.Segment, remaining time.Duration)
	Notify(msg string)
}

// CountdownPresenter is implemented by presenters that show the special
// period countdown.
type CountdownPresenter interface {
	RenderCountdown(cds []segment.Countdown)
}

// Reconciler produces a reconciled anchor set for a location.
type Reconciler interface {
	Reconcile(ctx context.Context, loc model.Location, params model.CalcParams, descs []registry.Descriptor) (*reconcile.Report, error)
}

// Outcome is the result of AnchorsForToday.
type Outcome struct {
	Set    *model.AnchorSet  `json:"set,omitempty"`
	Status Status            `json:"status"`
	Key    string            `json:"key"`
	Report *reconcile.Report `json:"report,omitempty"`
}

// Options configures a Session.
type Options struct {
	Descriptors []registry.Descriptor
	// Params maps a location to its calculation parameters.
	Params   func(model.Location) model.CalcParams
	Timezone *time.Location
	Tick     time.Duration
	// Countdown names the anchors counted down during the special period.
	Countdown []model.AnchorName
	Sink      notify.Sink
	Messages  *notify.Messages
	// RetryAfter spaces out reload attempts after a failed load.
	RetryAfter time.Duration
}

// Session owns the current anchor set, engine and alarm for one consumer.
type Session struct {
	cache     *cache.Cache
	agg       Reconciler
	alarm     *segment.Alarm
	presenter Presenter
	opts      Options
	now       func() time.Time

	mu       sync.RWMutex
	set      *model.AnchorSet
	engine   *segment.Engine
	day      string
	lastLoad time.Time
}

// NewSession creates a Session. presenter may be nil.
func NewSession(c *cache.Cache, agg Reconciler, alarm *segment.Alarm, presenter Presenter, opts Options) *Session {
	if opts.Timezone == nil {
		opts.Timezone = time.Local
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.Params == nil {
		opts.Params = func(model.Location) model.CalcParams { return model.CalcParams{} }
	}
	if opts.Messages == nil {
		opts.Messages = notify.NewMessages("en")
	}
	if opts.RetryAfter <= 0 {
		opts.RetryAfter = DefaultRetryAfter
	}
	if len(opts.Countdown) == 0 {
		opts.Countdown = []model.AnchorName{model.Imsak, model.Maghrib}
	}
	if presenter == nil {
		presenter = nopPresenter{}
	}
	if alarm == nil {
		alarm = segment.NewAlarm(segment.AlarmConfig{})
	}
	return &Session{
		cache:     c,
		agg:       agg,
		alarm:     alarm,
		presenter: presenter,
		opts:      opts,
		now:       time.Now,
		engine:    segment.New(nil, time.Now(), opts.Timezone),
	}
}

// WithNow overrides the session clock.
func (s *Session) WithNow(fn func() time.Time) *Session {
	s.now = fn
	return s
}

func (s *Session) today(now time.Time) string {
	return now.In(s.opts.Timezone).Format("2006-01-02")
}

// AnchorsForToday returns today's anchor set for loc from the cache, or
// reconciles and caches it on a miss. On failure the outcome has
// StatusFailed and the error is the aggregator's (*model.NoValidDataError
// when no provider produced data).
func (s *Session) AnchorsForToday(ctx context.Context, loc model.Location) (*Outcome, error) {
	params := s.opts.Params(loc)
	key := s.cache.Key(loc, s.today(s.now()), params)
	log := zap.L().With(zap.String("key", key))

	if set, ok := s.cache.Get(ctx, key); ok {
		log.Debug("pipeline: cache hit")
		return &Outcome{Set: set, Status: StatusCached, Key: key}, nil
	}

	report, err := s.agg.Reconcile(ctx, loc, params, s.opts.Descriptors)
	if err != nil {
		log.Error("pipeline: reconcile failed", zap.Error(err))
		return &Outcome{Status: StatusFailed, Key: key, Report: report}, eris.Wrap(err, "pipeline: anchors for today")
	}

	s.cache.Put(ctx, key, report.Set)
	log.Info("pipeline: reconciled",
		zap.String("provider", report.Set.ProviderID),
		zap.Bool("special_period", report.Set.IsSpecialPeriod),
	)
	return &Outcome{Set: report.Set, Status: StatusFresh, Key: key, Report: report}, nil
}

// Arm installs set as the current day's anchors and re-arms the alarm.
func (s *Session) Arm(set *model.AnchorSet) {
	now := s.now()
	engine := segment.New(set, now, s.opts.Timezone)

	s.mu.Lock()
	s.set = set
	s.engine = engine
	s.day = s.today(now)
	s.mu.Unlock()

	s.alarm.Arm(set, now, s.opts.Timezone)
}

// Current returns the installed anchor set, or nil.
func (s *Session) Current() *model.AnchorSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set
}

// EvaluateSegment locates now among the installed anchors.
func (s *Session) EvaluateSegment(now time.Time) segment.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Evaluate(now)
}

// Load fetches today's anchors, installs them and renders the outcome.
func (s *Session) Load(ctx context.Context, loc model.Location) (*Outcome, error) {
	s.presenter.Render(model.AnchorSet{}, StatusLoading)

	out, err := s.AnchorsForToday(ctx, loc)
	if err != nil {
		s.presenter.Render(model.AnchorSet{}, StatusFailed)
		return out, err
	}
	s.Arm(out.Set)
	s.presenter.Render(*out.Set, out.Status)
	return out, nil
}

// Step runs one cadence tick at now. It reloads when the calendar day has
// changed (at most once per RetryAfter while loads fail), renders the active
// segment and delivers due alerts.
func (s *Session) Step(ctx context.Context, loc model.Location, now time.Time) {
	s.mu.Lock()
	due := s.day != s.today(now) && (s.lastLoad.IsZero() || now.Sub(s.lastLoad) >= s.opts.RetryAfter)
	if due {
		s.lastLoad = now
	}
	s.mu.Unlock()

	if due {
		if _, err := s.Load(ctx, loc); err != nil {
			zap.L().Warn("pipeline: day rollover reload failed", zap.Error(err))
		}
	}

	res := s.EvaluateSegment(now)
	s.presenter.RenderSegment(res.Current, res.Next, res.Remaining)

	if set := s.Current(); set != nil && set.IsSpecialPeriod {
		if cp, ok := s.presenter.(CountdownPresenter); ok {
			s.mu.RLock()
			cds := s.engine.Countdowns(now, s.opts.Countdown...)
			s.mu.RUnlock()
			cp.RenderCountdown(cds)
		}
	}

	for _, a := range s.alarm.Check(now) {
		ev := notify.NewEvent(a, s.opts.Messages, now)
		s.presenter.Notify(ev.Message)
		if s.opts.Sink != nil {
			if err := s.opts.Sink.Send(ctx, ev); err != nil {
				zap.L().Warn("pipeline: alert delivery failed",
					zap.String("anchor", string(a.Anchor)),
					zap.Error(err),
				)
			}
		}
	}
}

// Run loads today's anchors and then steps on every tick until ctx is done.
func (s *Session) Run(ctx context.Context, loc model.Location) error {
	s.mu.Lock()
	s.lastLoad = s.now()
	s.mu.Unlock()

	if _, err := s.Load(ctx, loc); err != nil {
		zap.L().Warn("pipeline: initial load failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.opts.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Step(ctx, loc, s.now())
		}
	}
}

type nopPresenter struct{}

func (nopPresenter) Render(model.AnchorSet, Status)                              {}
func (nopPresenter) RenderSegment(*model.Segment, *model.Segment, time.Duration) {}
func (nopPresenter) Notify(string)                                               {}
