package segment

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/vakit-cli/internal/model"
)

// DefaultLead is how long before an alert anchor the alert fires.
const DefaultLead = 10 * time.Minute

// Alert is a one-shot proximity event for an anchor.
type Alert struct {
	ID        string           `json:"id"`
	Anchor    model.AnchorName `json:"anchor"`
	Day       string           `json:"day"`
	At        time.Time        `json:"at"`
	Remaining time.Duration    `json:"remaining"`
}

// AlarmConfig selects the anchors that raise alerts and the lead time.
type AlarmConfig struct {
	Start model.AnchorName // start of the restricted window, e.g. Imsak
	End   model.AnchorName // end of the restricted window, e.g. Maghrib
	Lead  time.Duration
}

// Alarm raises at most one alert per anchor per day, and only while the
// armed set is in the special period and alerting is enabled.
type Alarm struct {
	mu      sync.Mutex
	cfg     AlarmConfig
	capable bool
	special bool
	engine  *Engine
	sent    map[model.AnchorName]bool
}

// NewAlarm creates a disarmed Alarm. Zero config fields take the defaults
// Imsak, Maghrib and DefaultLead.
func NewAlarm(cfg AlarmConfig) *Alarm {
	if cfg.Start == "" {
		cfg.Start = model.Imsak
	}
	if cfg.End == "" {
		cfg.End = model.Maghrib
	}
	if cfg.Lead <= 0 {
		cfg.Lead = DefaultLead
	}
	return &Alarm{
		cfg:     cfg,
		capable: true,
		engine:  FromAnchors(nil, time.Time{}, time.UTC),
		sent:    make(map[model.AnchorName]bool),
	}
}

// SetCapable records whether the consumer may receive alerts.
func (a *Alarm) SetCapable(ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.capable = ok
}

// Arm installs a day's anchor set. Flags are reset when the day changes;
// re-arming with the same day keeps them, so a refetch cannot repeat alerts.
func (a *Alarm) Arm(set *model.AnchorSet, day time.Time, tz *time.Location) {
	e := New(set, day, tz)

	a.mu.Lock()
	defer a.mu.Unlock()
	if e.Day() != a.engine.Day() {
		a.sent = make(map[model.AnchorName]bool)
	}
	a.engine = e
	a.special = set != nil && set.IsSpecialPeriod
}

// Active reports whether Check can emit anything.
func (a *Alarm) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.capable && a.special
}

// Sent reports whether the alert for name has fired on the armed day.
func (a *Alarm) Sent(name model.AnchorName) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sent[name]
}

// Check returns alerts for anchors whose instant is within the lead time
// after now and whose flag is unset, setting the flag for each.
func (a *Alarm) Check(now time.Time) []Alert {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.capable || !a.special {
		return nil
	}

	var out []Alert
	for _, name := range []model.AnchorName{a.cfg.Start, a.cfg.End} {
		if a.sent[name] {
			continue
		}
		at, ok := a.engine.At(name)
		if !ok {
			continue
		}
		d := at.Sub(now)
		if d <= 0 || d > a.cfg.Lead {
			continue
		}
		a.sent[name] = true
		out = append(out, Alert{
			ID:        uuid.NewString(),
			Anchor:    name,
			Day:       a.engine.Day(),
			At:        at,
			Remaining: d,
		})
	}
	return out
}
