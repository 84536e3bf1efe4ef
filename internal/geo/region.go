// Package geo classifies locations into calculation regions.
package geo

import (
	"strings"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/vakit-cli/internal/config"
	"github.com/sells-group/vakit-cli/internal/model"
)

// Region names.
const (
	RegionTurkey = "turkey"
	RegionOther  = "other"
)

// Region is a named bounding box with the country codes that belong to it.
type Region struct {
	Name      string
	Countries []string
	Bounds    *geom.Bounds
}

// Contains reports whether loc belongs to r, by country code first and by
// coordinates otherwise. Box edges are inclusive.
func (r Region) Contains(loc model.Location) bool {
	for _, c := range r.Countries {
		if strings.EqualFold(c, loc.Country()) {
			return true
		}
	}
	if r.Bounds == nil {
		return false
	}
	return r.Bounds.OverlapsPoint(geom.XY, geom.Coord{loc.Longitude, loc.Latitude})
}

// Turkey is the Diyanet region: lat 35.8..42.3, lon 25.5..45.0.
var Turkey = Region{
	Name:      RegionTurkey,
	Countries: []string{"TR"},
	Bounds:    geom.NewBounds(geom.XY).Set(25.5, 35.8, 45.0, 42.3),
}

// Classify returns the region name for loc.
func Classify(loc model.Location) string {
	if Turkey.Contains(loc) {
		return RegionTurkey
	}
	return RegionOther
}

// Method defaults.
const (
	DefaultMethod = 3  // Muslim World League
	TurkeyMethod  = 13 // Diyanet İşleri Başkanlığı
	DefaultSchool = 1
)

// Params returns the calculation parameters for loc. A configured method
// wins; otherwise the method follows the region.
func Params(loc model.Location, cfg config.CalcConfig) model.CalcParams {
	p := model.CalcParams{Method: cfg.Method, School: cfg.School}
	if p.School <= 0 {
		p.School = DefaultSchool
	}
	if p.Method > 0 {
		return p
	}

	def, tr := cfg.DefaultMethod, cfg.TurkeyMethod
	if def <= 0 {
		def = DefaultMethod
	}
	if tr <= 0 {
		tr = TurkeyMethod
	}

	p.Method = def
	if Classify(loc) == RegionTurkey {
		p.Method = tr
	}
	return p
}
