package moon

import "strings"

// Phase describes a phase for display.
type Phase struct {
	Emoji string `json:"emoji"`
	Label string `json:"label"`
	Theme string `json:"theme"`
}

// Visibility is the hilal sighting verdict.
type Visibility string

// Visibility values.
const (
	VisibleYes     Visibility = "yes"
	VisibleNo      Visibility = "no"
	VisibleUnknown Visibility = "unknown"
)

// Describe maps a normalized phase code to its display form.
func Describe(code string) Phase {
	code = strings.ToUpper(code)
	p := Phase{Emoji: "🌙", Label: "Moon", Theme: Theme(code)}
	switch {
	case code == "":
		p.Label = "Unknown"
	case strings.Contains(code, "NEW"):
		p.Emoji, p.Label = "🌑", "New moon"
	case strings.Contains(code, "FULL"):
		p.Emoji, p.Label = "🌕", "Full moon"
	case strings.Contains(code, "WAXING_CRESCENT"):
		p.Emoji, p.Label = "🌒", "Waxing crescent"
	case strings.Contains(code, "WANING_CRESCENT"):
		p.Emoji, p.Label = "🌘", "Waning crescent"
	case strings.Contains(code, "FIRST_QUARTER"):
		p.Emoji, p.Label = "🌓", "First quarter"
	case strings.Contains(code, "LAST_QUARTER"), strings.Contains(code, "THIRD_QUARTER"):
		p.Emoji, p.Label = "🌗", "Last quarter"
	case strings.Contains(code, "WAXING_GIBBOUS"):
		p.Emoji, p.Label = "🌔", "Waxing gibbous"
	case strings.Contains(code, "WANING_GIBBOUS"):
		p.Emoji, p.Label = "🌖", "Waning gibbous"
	}
	return p
}

// Theme groups a phase code into new, full, crescent, gibbous, quarter or other.
func Theme(code string) string {
	code = strings.ToUpper(code)
	switch {
	case code == "":
		return "other"
	case strings.Contains(code, "NEW"):
		return "new"
	case strings.Contains(code, "FULL"):
		return "full"
	case strings.Contains(code, "CRESCENT"):
		return "crescent"
	case strings.Contains(code, "GIBBOUS"):
		return "gibbous"
	case strings.Contains(code, "QUARTER"):
		return "quarter"
	default:
		return "other"
	}
}

// HilalVisibility judges whether the crescent can be seen. Non-crescent
// phases are never visible; a crescent needs the moon above the horizon.
func HilalVisibility(info *Info) Visibility {
	if info == nil || info.PhaseCode == "" {
		return VisibleUnknown
	}
	if !strings.Contains(strings.ToUpper(info.PhaseCode), "CRESCENT") {
		return VisibleNo
	}
	if strings.Contains(strings.ToLower(info.Status), "below") {
		return VisibleNo
	}
	if info.Altitude != nil {
		if *info.Altitude > 0 {
			return VisibleYes
		}
		return VisibleNo
	}
	return VisibleUnknown
}
