package segment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vakit-cli/internal/model"
)

func ramadanSet() *model.AnchorSet {
	return &model.AnchorSet{
		Date: "2025-03-05",
		Anchors: map[model.AnchorName]model.TimeOfDay{
			model.Imsak:   model.NewTimeOfDay(5, 20),
			model.Fajr:    model.NewTimeOfDay(5, 30),
			model.Maghrib: model.NewTimeOfDay(19, 10),
		},
		IsSpecialPeriod: true,
	}
}

func TestAlarm_FiresOncePerAnchor(t *testing.T) {
	a := NewAlarm(AlarmConfig{})
	a.Arm(ramadanSet(), day, tz)

	assert.Empty(t, a.Check(at(5, 0, 0)), "20 minutes out is outside the lead")

	alerts := a.Check(at(5, 10, 0))
	require.Len(t, alerts, 1)
	assert.Equal(t, model.Imsak, alerts[0].Anchor)
	assert.Equal(t, 10*time.Minute, alerts[0].Remaining)
	assert.Equal(t, "2025-03-05", alerts[0].Day)
	assert.NotEmpty(t, alerts[0].ID)

	for _, now := range []time.Time{at(5, 11, 0), at(5, 15, 0), at(5, 19, 59)} {
		assert.Empty(t, a.Check(now))
	}
	assert.True(t, a.Sent(model.Imsak))
	assert.False(t, a.Sent(model.Maghrib))

	alerts = a.Check(at(19, 5, 0))
	require.Len(t, alerts, 1)
	assert.Equal(t, model.Maghrib, alerts[0].Anchor)
}

func TestAlarm_NoAlertAtOrAfterAnchor(t *testing.T) {
	a := NewAlarm(AlarmConfig{})
	a.Arm(ramadanSet(), day, tz)

	assert.Empty(t, a.Check(at(5, 20, 0)))
	assert.Empty(t, a.Check(at(5, 25, 0)))
	assert.False(t, a.Sent(model.Imsak))
}

func TestAlarm_NewDayResetsFlags(t *testing.T) {
	a := NewAlarm(AlarmConfig{})
	a.Arm(ramadanSet(), day, tz)
	require.Len(t, a.Check(at(5, 15, 0)), 1)

	// Same day re-arm keeps flags.
	a.Arm(ramadanSet(), day, tz)
	assert.Empty(t, a.Check(at(5, 16, 0)))

	next := day.AddDate(0, 0, 1)
	a.Arm(ramadanSet(), next, tz)
	alerts := a.Check(time.Date(2025, 3, 6, 5, 15, 0, 0, tz))
	require.Len(t, alerts, 1)
	assert.Equal(t, "2025-03-06", alerts[0].Day)
}

func TestAlarm_InactiveOutsideSpecialPeriod(t *testing.T) {
	set := ramadanSet()
	set.IsSpecialPeriod = false

	a := NewAlarm(AlarmConfig{})
	a.Arm(set, day, tz)
	assert.False(t, a.Active())
	assert.Empty(t, a.Check(at(5, 15, 0)))
}

func TestAlarm_RequiresCapability(t *testing.T) {
	a := NewAlarm(AlarmConfig{})
	a.SetCapable(false)
	a.Arm(ramadanSet(), day, tz)
	assert.Empty(t, a.Check(at(5, 15, 0)))

	a.SetCapable(true)
	assert.Len(t, a.Check(at(5, 15, 0)), 1)
}

func TestAlarm_CustomAnchorsAndLead(t *testing.T) {
	a := NewAlarm(AlarmConfig{Start: model.Fajr, End: model.Maghrib, Lead: 30 * time.Minute})
	a.Arm(ramadanSet(), day, tz)

	alerts := a.Check(at(5, 5, 0))
	require.Len(t, alerts, 1)
	assert.Equal(t, model.Fajr, alerts[0].Anchor)
}

func TestAlarm_DisarmedIsSilent(t *testing.T) {
	a := NewAlarm(AlarmConfig{})
	assert.Empty(t, a.Check(at(5, 15, 0)))
	a.Arm(nil, day, tz)
	assert.Empty(t, a.Check(at(5, 15, 0)))
}
