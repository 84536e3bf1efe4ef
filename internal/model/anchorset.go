package model

import (
	"strings"
	"time"
)

// HijriDate is the lunar-calendar hint some providers attach to a day.
type HijriDate struct {
	Day       int    `json:"day"`
	Month     int    `json:"month"`
	MonthName string `json:"month_name,omitempty"`
	Year      int    `json:"year"`
}

// ProviderResult is one adapter's normalized answer for a location-day.
type ProviderResult struct {
	ProviderID string                   `json:"provider_id"`
	Label      string                   `json:"label"`
	Date       string                   `json:"date"` // ISO yyyy-mm-dd, provider-local
	Anchors    map[AnchorName]TimeOfDay `json:"anchors"`
	Hijri      *HijriDate               `json:"hijri,omitempty"`
	Priority   int                      `json:"priority"`
}

// Anchor returns the value for name and whether the provider supplied it.
func (r *ProviderResult) Anchor(name AnchorName) (TimeOfDay, bool) {
	t, ok := r.Anchors[name]
	return t, ok
}

// IsFor reports whether the result's date falls on the ISO day.
func (r *ProviderResult) IsFor(isoDay string) bool {
	return r.Date != "" && strings.HasPrefix(r.Date, isoDay)
}

// AnchorSet is the reconciled result for one location-day.
type AnchorSet struct {
	ProviderID      string                   `json:"provider_id"`
	Label           string                   `json:"label"`
	Date            string                   `json:"date"`
	Anchors         map[AnchorName]TimeOfDay `json:"anchors"`
	Hijri           *HijriDate               `json:"hijri,omitempty"`
	IsSpecialPeriod bool                     `json:"is_special_period"`
}

// NewAnchorSet promotes a provider result to the reconciled set. The special
// period flag is set when the hijri month equals specialMonth.
func NewAnchorSet(r *ProviderResult, specialMonth int) *AnchorSet {
	anchors := make(map[AnchorName]TimeOfDay, len(r.Anchors))
	for k, v := range r.Anchors {
		anchors[k] = v
	}
	return &AnchorSet{
		ProviderID:      r.ProviderID,
		Label:           r.Label,
		Date:            r.Date,
		Anchors:         anchors,
		Hijri:           r.Hijri,
		IsSpecialPeriod: IsSpecialMonth(r.Hijri, specialMonth),
	}
}

// DefaultSpecialMonth is Ramadan.
const DefaultSpecialMonth = 9

// IsSpecialMonth reports whether h falls in the given hijri month.
// A nil hint never qualifies.
func IsSpecialMonth(h *HijriDate, month int) bool {
	return h != nil && month > 0 && h.Month == month
}

// Anchor is one named instant of a set, in fixed name order.
type Anchor struct {
	Name AnchorName `json:"name"`
	Time TimeOfDay  `json:"time"`
}

// Ordered returns the present anchors in AllAnchors order.
func (s *AnchorSet) Ordered() []Anchor {
	out := make([]Anchor, 0, len(s.Anchors))
	for _, name := range AllAnchors {
		if t, ok := s.Anchors[name]; ok {
			out = append(out, Anchor{Name: name, Time: t})
		}
	}
	return out
}

// Segment is the interval that starts at one anchor and ends at the next.
// End is nil for the last anchor of the day.
type Segment struct {
	Anchor AnchorName `json:"anchor"`
	Start  time.Time  `json:"start"`
	End    *time.Time `json:"end,omitempty"`
}
