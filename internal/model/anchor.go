package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// AnchorName identifies one of the fixed daily prayer-time anchors.
type AnchorName string

const (
	Imsak   AnchorName = "Imsak"
	Fajr    AnchorName = "Fajr"
	Sunrise AnchorName = "Sunrise"
	Dhuhr   AnchorName = "Dhuhr"
	Asr     AnchorName = "Asr"
	Maghrib AnchorName = "Maghrib"
	Isha    AnchorName = "Isha"
)

// AllAnchors is the fixed name ordering of a day's anchors.
var AllAnchors = []AnchorName{Imsak, Fajr, Sunrise, Dhuhr, Asr, Maghrib, Isha}

// HardAnchors are compared across providers during outlier filtering. Imsak
// and Sunrise are left out because providers disagree on them the most.
var HardAnchors = []AnchorName{Fajr, Dhuhr, Asr, Maghrib, Isha}

// Index returns the position of n in AllAnchors, or -1.
func (n AnchorName) Index() int {
	for i, a := range AllAnchors {
		if a == n {
			return i
		}
	}
	return -1
}

// Valid reports whether n is one of the known anchors.
func (n AnchorName) Valid() bool { return n.Index() >= 0 }

// ParseAnchorName matches s case-insensitively against the known anchors.
func ParseAnchorName(s string) (AnchorName, error) {
	for _, a := range AllAnchors {
		if strings.EqualFold(string(a), strings.TrimSpace(s)) {
			return a, nil
		}
	}
	return "", eris.Errorf("model: unknown anchor %q", s)
}

// TimeOfDay is a wall-clock time in minutes since local midnight.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from hour and minute.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// On returns the instant of t on the calendar day of day, in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = day.Location()
	}
	y, m, d := day.In(loc).Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc)
}

// MarshalJSON encodes t as "HH:MM".
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes "HH:MM" (or any form ParseTimeOfDay accepts).
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return eris.Wrap(err, "model: decode time of day")
	}
	v, ok := ParseTimeOfDay(s)
	if !ok {
		return eris.Errorf("model: invalid time of day %q", s)
	}
	*t = v
	return nil
}

// ParseTimeOfDay parses provider time strings. Accepted shapes are "05:34",
// "05:34:10", "05:34 (EET)", "4:31 am" and "4:31pm". The second return is
// false when s is empty or malformed.
func ParseTimeOfDay(s string) (TimeOfDay, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}

	fields := strings.Fields(s)
	main := fields[0]
	meridiem := ""
	if len(fields) > 1 && (fields[1] == "am" || fields[1] == "pm") {
		meridiem = fields[1]
	}
	for _, suffix := range []string{"am", "pm"} {
		if strings.HasSuffix(main, suffix) {
			meridiem = suffix
			main = strings.TrimSuffix(main, suffix)
		}
	}

	parts := strings.Split(main, ":")
	if len(parts) < 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}

	switch meridiem {
	case "am", "pm":
		if h < 1 || h > 12 {
			return 0, false
		}
		h %= 12
		if meridiem == "pm" {
			h += 12
		}
	default:
		if h < 0 || h > 23 {
			return 0, false
		}
	}
	return NewTimeOfDay(h, m), true
}
