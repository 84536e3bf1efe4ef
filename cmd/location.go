package main

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/vakit-cli/internal/model"
	"github.com/sells-group/vakit-cli/pkg/geocode"
)

// locationFlags are the place selectors shared by today, watch, calendar
// and moon.
type locationFlags struct {
	lat, lon float64
	city     string
	country  string
	query    string
}

func (lf *locationFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&lf.lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lf.lon, "lon", 0, "longitude")
	cmd.Flags().StringVar(&lf.city, "city", "", "city name, used by city-based providers")
	cmd.Flags().StringVar(&lf.country, "country", "", "ISO 3166-1 alpha-2 country code")
	cmd.Flags().StringVarP(&lf.query, "query", "q", "", "place name to geocode")
}

func (lf *locationFlags) hasCoords() bool {
	return lf.lat != 0 || lf.lon != 0
}

// resolve turns the flags into a Location. A query is geocoded; coordinates
// without a city are reverse geocoded on a best-effort basis.
func (lf *locationFlags) resolve(ctx context.Context, gc geocode.Client) (model.Location, error) {
	if q := strings.TrimSpace(lf.query); q != "" {
		loc, err := gc.Search(ctx, q)
		if err != nil {
			return model.Location{}, eris.Wrapf(err, "resolve location %q", q)
		}
		return *loc, nil
	}

	if !lf.hasCoords() {
		return model.Location{}, eris.New("a location is required: pass --query or --lat/--lon")
	}
	if lf.lat < -90 || lf.lat > 90 || lf.lon < -180 || lf.lon > 180 {
		return model.Location{}, eris.Errorf("coordinates out of range: %f,%f", lf.lat, lf.lon)
	}

	loc := model.Location{
		Latitude:    lf.lat,
		Longitude:   lf.lon,
		City:        strings.TrimSpace(lf.city),
		CountryCode: strings.ToUpper(strings.TrimSpace(lf.country)),
	}
	if loc.HasCity() && loc.Country() != "" {
		return loc, nil
	}

	rev, err := gc.Reverse(ctx, lf.lat, lf.lon)
	if err != nil {
		zap.L().Warn("reverse geocode failed, continuing with coordinates only", zap.Error(err))
		return loc, nil
	}
	if !loc.HasCity() {
		loc.City = rev.City
	}
	if loc.Country() == "" {
		loc.CountryCode = rev.CountryCode
	}
	loc.DisplayName = rev.DisplayName
	return loc, nil
}
