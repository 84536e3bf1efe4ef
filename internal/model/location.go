package model

import "strings"

// Location is a resolved place to fetch prayer times for.
type Location struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	CountryCode string  `json:"country_code,omitempty"` // ISO 3166-1 alpha-2, upper case
	City        string  `json:"city,omitempty"`
	DisplayName string  `json:"display_name,omitempty"`
}

// Country returns the normalized country code, or "" when unknown.
func (l Location) Country() string {
	return strings.ToUpper(strings.TrimSpace(l.CountryCode))
}

// HasCity reports whether a place name is available for city-based providers.
func (l Location) HasCity() bool {
	return strings.TrimSpace(l.City) != ""
}

// CalcParams is the calculation configuration sent to coordinate-based
// providers. It is part of the cache key so different configs never share
// an entry. Zero values mean "provider default".
type CalcParams struct {
	Method int `json:"method"`
	School int `json:"school"`
}
