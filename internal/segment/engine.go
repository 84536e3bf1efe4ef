// Package segment tracks which interval between a day's anchors "now" falls
// into. Evaluation is a pure function of the armed anchors and the instant
// passed in, so callers choose the cadence.
package segment

import (
	"math"
	"sort"
	"time"

	"github.com/sells-group/vakit-cli/internal/model"
)

const minutesPerDay = 24 * 60

type point struct {
	name model.AnchorName
	at   time.Time
}

// Engine holds one day's anchors as instants, sorted ascending.
type Engine struct {
	day    string
	points []point
}

// Result is the outcome of Evaluate. Current and Next are nil when absent.
type Result struct {
	Current   *model.Segment `json:"current,omitempty"`
	Next      *model.Segment `json:"next,omitempty"`
	Remaining time.Duration  `json:"remaining"`
}

// New builds an engine for set on the calendar day of day in tz.
// A nil set yields an empty engine.
func New(set *model.AnchorSet, day time.Time, tz *time.Location) *Engine {
	if set == nil {
		return FromAnchors(nil, day, tz)
	}
	return FromAnchors(set.Ordered(), day, tz)
}

// FromAnchors builds an engine from a raw anchor list. Unknown names,
// out-of-range times and repeated names are dropped; the first occurrence
// of a name wins. Equal instants keep the fixed anchor name order.
func FromAnchors(anchors []model.Anchor, day time.Time, tz *time.Location) *Engine {
	if tz == nil {
		tz = day.Location()
	}
	e := &Engine{day: day.In(tz).Format("2006-01-02")}

	seen := make(map[model.AnchorName]bool, len(anchors))
	for _, a := range anchors {
		if !a.Name.Valid() || seen[a.Name] || a.Time < 0 || a.Time >= minutesPerDay {
			continue
		}
		seen[a.Name] = true
		e.points = append(e.points, point{name: a.Name, at: a.Time.On(day, tz)})
	}

	sort.SliceStable(e.points, func(i, j int) bool {
		if !e.points[i].at.Equal(e.points[j].at) {
			return e.points[i].at.Before(e.points[j].at)
		}
		return e.points[i].name.Index() < e.points[j].name.Index()
	})
	return e
}

// Day returns the ISO date the engine was built for.
func (e *Engine) Day() string { return e.day }

// Len returns the number of usable anchors.
func (e *Engine) Len() int { return len(e.points) }

// At returns the instant of the named anchor.
func (e *Engine) At(name model.AnchorName) (time.Time, bool) {
	for _, p := range e.points {
		if p.name == name {
			return p.at, true
		}
	}
	return time.Time{}, false
}

func (e *Engine) segment(i int) *model.Segment {
	if i < 0 || i >= len(e.points) {
		return nil
	}
	s := &model.Segment{Anchor: e.points[i].name, Start: e.points[i].at}
	if i+1 < len(e.points) {
		end := e.points[i+1].at
		s.End = &end
	}
	return s
}

// Evaluate locates now among the anchors.
//
// Before the first anchor, the first anchor is reported as current and the
// remaining time counts down to it. After the last anchor, the last anchor is
// current with nothing next. An anchor equal to now has already occurred.
func (e *Engine) Evaluate(now time.Time) Result {
	if len(e.points) == 0 {
		return Result{}
	}

	next := sort.Search(len(e.points), func(i int) bool { return e.points[i].at.After(now) })

	switch next {
	case len(e.points):
		return Result{Current: e.segment(len(e.points) - 1)}
	case 0:
		return Result{
			Current:   e.segment(0),
			Next:      e.segment(1),
			Remaining: e.points[0].at.Sub(now),
		}
	default:
		return Result{
			Current:   e.segment(next - 1),
			Next:      e.segment(next),
			Remaining: e.points[next].at.Sub(now),
		}
	}
}

// Countdown is the time left until one named anchor.
type Countdown struct {
	Anchor    model.AnchorName `json:"anchor"`
	Remaining time.Duration    `json:"remaining"`
	Minutes   int              `json:"minutes"` // rounded up
	Passed    bool             `json:"passed"`
}

// Countdowns reports the time left until each named anchor, skipping names
// the engine does not hold.
func (e *Engine) Countdowns(now time.Time, names ...model.AnchorName) []Countdown {
	var out []Countdown
	for _, name := range names {
		at, ok := e.At(name)
		if !ok {
			continue
		}
		c := Countdown{Anchor: name}
		if d := at.Sub(now); d > 0 {
			c.Remaining = d
			c.Minutes = int(math.Ceil(d.Minutes()))
		} else {
			c.Passed = true
		}
		out = append(out, c)
	}
	return out
}
