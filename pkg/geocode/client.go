// Package geocode resolves place names and coordinates through Nominatim.
package geocode

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/vakit-cli/internal/fetcher"
	"github.com/sells-group/vakit-cli/internal/model"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// ErrNotFound is returned when a search has no match.
var ErrNotFound = eris.New("geocode: no match")

// Client resolves a free-text place or a coordinate pair to a Location.
type Client interface {
	// Search returns the best match for query.
	Search(ctx context.Context, query string) (*model.Location, error)

	// Reverse fills in city and country for a coordinate pair.
	Reverse(ctx context.Context, lat, lon float64) (*model.Location, error)
}

type place struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Address     address `json:"address"`
}

type address struct {
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	State       string `json:"state"`
	CountryCode string `json:"country_code"`
}

// cityName picks the most specific settlement name, falling back to fallback.
func (a address) cityName(fallback string) string {
	for _, s := range []string{a.City, a.Town, a.Village, a.State} {
		if s != "" {
			return s
		}
	}
	return fallback
}

// Option configures the client.
type Option func(*nominatim)

// WithBaseURL overrides the default Nominatim base URL.
func WithBaseURL(u string) Option {
	return func(n *nominatim) {
		if u != "" {
			n.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithFetcher overrides the default fetcher. Nominatim requires an
// identifying User-Agent, which the fetcher sets.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(n *nominatim) {
		n.fetcher = f
	}
}

type nominatim struct {
	baseURL string
	fetcher fetcher.Fetcher
}

// NewClient creates a Nominatim client.
func NewClient(opts ...Option) Client {
	n := &nominatim{
		baseURL: defaultBaseURL,
		fetcher: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{RatePerSecond: 1}),
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

func (n *nominatim) Search(ctx context.Context, query string) (*model.Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, eris.New("geocode: empty query")
	}

	q := url.Values{
		"q":              {query},
		"format":         {"json"},
		"limit":          {"1"},
		"addressdetails": {"1"},
	}

	var places []place
	if err := n.fetcher.GetJSON(ctx, n.baseURL+"/search", q, &places); err != nil {
		return nil, eris.Wrap(err, "geocode: search")
	}
	if len(places) == 0 {
		return nil, eris.Wrapf(ErrNotFound, "geocode: search %q", query)
	}

	return toLocation(places[0], query)
}

func (n *nominatim) Reverse(ctx context.Context, lat, lon float64) (*model.Location, error) {
	q := url.Values{
		"lat":            {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(lon, 'f', -1, 64)},
		"format":         {"json"},
		"addressdetails": {"1"},
	}

	var p place
	if err := n.fetcher.GetJSON(ctx, n.baseURL+"/reverse", q, &p); err != nil {
		return nil, eris.Wrap(err, "geocode: reverse")
	}
	if p.Lat == "" {
		return nil, eris.Wrapf(ErrNotFound, "geocode: reverse %f,%f", lat, lon)
	}

	loc, err := toLocation(p, "")
	if err != nil {
		return nil, err
	}
	// Keep the caller's coordinates; Nominatim snaps to the nearest object.
	loc.Latitude, loc.Longitude = lat, lon
	return loc, nil
}

func toLocation(p place, query string) (*model.Location, error) {
	lat, errLat := strconv.ParseFloat(p.Lat, 64)
	lon, errLon := strconv.ParseFloat(p.Lon, 64)
	if errLat != nil || errLon != nil {
		return nil, eris.Errorf("geocode: invalid coordinates %q,%q", p.Lat, p.Lon)
	}

	display := p.DisplayName
	if display == "" {
		display = query
	}

	return &model.Location{
		Latitude:    lat,
		Longitude:   lon,
		CountryCode: strings.ToUpper(p.Address.CountryCode),
		City:        p.Address.cityName(query),
		DisplayName: display,
	}, nil
}
