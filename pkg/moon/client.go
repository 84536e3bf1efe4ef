// Package moon looks up the current moon phase and judges whether the new
// crescent (hilal) can be seen.
package moon

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vakit-cli/internal/fetcher"
)

const (
	defaultIPGeoBaseURL = "https://api.ipgeolocation.io"
	defaultFallbackURL  = "https://api.phaseofthemoontoday.com/v1/current"
)

// Client returns moon data for a coordinate pair.
type Client interface {
	Lookup(ctx context.Context, lat, lon float64) (*Info, error)
}

// Info is a normalized moon reading. Altitude is nil when the source does not
// report it.
type Info struct {
	PhaseCode    string   `json:"phase_code"`
	Altitude     *float64 `json:"altitude,omitempty"`
	Illumination *float64 `json:"illumination,omitempty"`
	Moonrise     string   `json:"moonrise,omitempty"`
	Moonset      string   `json:"moonset,omitempty"`
	Status       string   `json:"status,omitempty"`
	Source       string   `json:"source"`
}

// number decodes a JSON number that some APIs send as a string.
type number struct {
	v  float64
	ok bool
}

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" || string(b) == "-:-" {
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return nil
	}
	n.v, n.ok = f, true
	return nil
}

func (n number) ptr() *float64 {
	if !n.ok {
		return nil
	}
	v := n.v
	return &v
}

type astronomy struct {
	MoonPhase        string `json:"moon_phase"`
	MoonAltitude     number `json:"moon_altitude"`
	MoonIllumination number `json:"moon_illumination"`
	Moonrise         string `json:"moonrise"`
	Moonset          string `json:"moonset"`
	MoonStatus       string `json:"moon_status"`
}

type current struct {
	Phase        string `json:"phase"`
	Illumination number `json:"illumination"`
}

// NormalizePhase upper-cases a phase name and joins words with underscores.
func NormalizePhase(raw string) string {
	return strings.Join(strings.Fields(strings.ToUpper(raw)), "_")
}

// Option configures the client.
type Option func(*httpClient)

// WithIPGeoBaseURL overrides the ipgeolocation base URL.
func WithIPGeoBaseURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.ipgeoBaseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithFallbackURL overrides the keyless phase endpoint.
func WithFallbackURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.fallbackURL = u
		}
	}
}

// WithFetcher overrides the default fetcher.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(c *httpClient) {
		c.fetcher = f
	}
}

type httpClient struct {
	ipgeoKey     string
	ipgeoBaseURL string
	fallbackURL  string
	fetcher      fetcher.Fetcher
}

// NewClient creates a moon client. With an empty ipgeoKey only the keyless
// fallback is used.
func NewClient(ipgeoKey string, opts ...Option) Client {
	c := &httpClient{
		ipgeoKey:     ipgeoKey,
		ipgeoBaseURL: defaultIPGeoBaseURL,
		fallbackURL:  defaultFallbackURL,
		fetcher:      fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Lookup(ctx context.Context, lat, lon float64) (*Info, error) {
	if c.ipgeoKey != "" {
		info, err := c.astronomy(ctx, lat, lon)
		if err == nil {
			return info, nil
		}
		zap.L().Warn("moon: astronomy lookup failed, using fallback", zap.Error(err))
	}
	return c.current(ctx)
}

func (c *httpClient) astronomy(ctx context.Context, lat, lon float64) (*Info, error) {
	q := url.Values{}
	q.Set("apiKey", c.ipgeoKey)
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("long", strconv.FormatFloat(lon, 'f', -1, 64))

	var a astronomy
	if err := c.fetcher.GetJSON(ctx, c.ipgeoBaseURL+"/astronomy", q, &a); err != nil {
		return nil, eris.Wrap(err, "moon: astronomy")
	}
	return &Info{
		PhaseCode:    NormalizePhase(a.MoonPhase),
		Altitude:     a.MoonAltitude.ptr(),
		Illumination: a.MoonIllumination.ptr(),
		Moonrise:     a.Moonrise,
		Moonset:      a.Moonset,
		Status:       a.MoonStatus,
		Source:       "ipgeolocation",
	}, nil
}

func (c *httpClient) current(ctx context.Context) (*Info, error) {
	var cur current
	if err := c.fetcher.GetJSON(ctx, c.fallbackURL, nil, &cur); err != nil {
		return nil, eris.Wrap(err, "moon: current phase")
	}
	return &Info{
		PhaseCode:    NormalizePhase(cur.Phase),
		Illumination: cur.Illumination.ptr(),
		Source:       "phaseofthemoontoday",
	}, nil
}

var _ json.Unmarshaler = (*number)(nil)
