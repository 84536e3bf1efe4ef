package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/vakit-cli/internal/model"
	"github.com/sells-group/vakit-cli/internal/pipeline"
	"github.com/sells-group/vakit-cli/internal/segment"
)

var _ pipeline.CountdownPresenter = (*consolePresenter)(nil)

func TestConsolePresenter_Render(t *testing.T) {
	var buf bytes.Buffer
	p := newConsolePresenter(&buf, istanbul)

	p.Render(model.AnchorSet{}, pipeline.StatusLoading)
	p.Render(*ramadanSet(), pipeline.StatusFresh)
	p.Render(model.AnchorSet{}, pipeline.StatusFailed)

	out := buf.String()
	assert.Contains(t, out, "loading prayer times")
	assert.Contains(t, out, "2025-03-05 Aladhan [fresh]: Imsak 05:30")
	assert.Contains(t, out, "Isha 19:30")
	assert.Contains(t, out, "ramadan:")
	assert.Contains(t, out, "will retry")
}

func TestConsolePresenter_SegmentThrottle(t *testing.T) {
	var buf bytes.Buffer
	p := newConsolePresenter(&buf, istanbul)
	now := time.Date(2025, 3, 5, 10, 30, 0, 0, istanbul)
	p.now = func() time.Time { return now }

	cur := &model.Segment{Anchor: model.Sunrise}
	next := &model.Segment{Anchor: model.Dhuhr}
	cds := []segment.Countdown{{Anchor: model.Imsak, Passed: true}, {Anchor: model.Maghrib, Minutes: 450}}

	p.RenderSegment(cur, next, 90*time.Minute)
	p.RenderCountdown(cds)
	assert.Equal(t, "now: Sunrise, Dhuhr in 1:30:00\nramadan: Imsak passed, Maghrib in 450 min\n", buf.String())

	buf.Reset()
	now = now.Add(time.Second)
	p.RenderSegment(cur, next, 90*time.Minute-time.Second)
	p.RenderCountdown(cds)
	assert.Empty(t, buf.String())

	now = now.Add(time.Minute)
	p.RenderSegment(cur, next, 89*time.Minute)
	assert.Contains(t, buf.String(), "1:29:00")
}

func TestConsolePresenter_Notify(t *testing.T) {
	var buf bytes.Buffer
	newConsolePresenter(&buf, istanbul).Notify("Maghrib in 10 minutes")
	assert.Equal(t, "\aMaghrib in 10 minutes\n", buf.String())
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "0:00:00", formatRemaining(-time.Second))
	assert.Equal(t, "2:05:09", formatRemaining(2*time.Hour+5*time.Minute+9*time.Second))
}
