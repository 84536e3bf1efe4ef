// Package prayzone is a client for the Pray.Zone city-based timings API.
package prayzone

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/vakit-cli/internal/fetcher"
)

const defaultBaseURL = "https://api.pray.zone"

// Client fetches today's timings for a city.
type Client interface {
	Today(ctx context.Context, city, country string) (*Day, error)
}

// Day is the first datetime entry of a response.
type Day struct {
	Times map[string]string `json:"times"`
	Date  DateInfo          `json:"date"`
}

// DateInfo holds the day's dates.
type DateInfo struct {
	Timestamp int64  `json:"timestamp"`
	Gregorian string `json:"gregorian"`
	Hijri     string `json:"hijri"`
	Date      string `json:"date"`
}

// ISODate returns the gregorian date, falling back to the generic date field.
func (d Day) ISODate() string {
	if d.Date.Gregorian != "" {
		return d.Date.Gregorian
	}
	return d.Date.Date
}

// Time looks up a timing by name, accepting both "Fajr" and "FAJR" casing.
func (d Day) Time(name string) (string, bool) {
	if v, ok := d.Times[name]; ok && v != "" {
		return v, true
	}
	if v, ok := d.Times[strings.ToUpper(name)]; ok && v != "" {
		return v, true
	}
	return "", false
}

type response struct {
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Results struct {
		Datetime []Day `json:"datetime"`
	} `json:"results"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
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
	baseURL string
	fetcher fetcher.Fetcher
}

// NewClient creates a Pray.Zone API client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		fetcher: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Today(ctx context.Context, city, country string) (*Day, error) {
	if strings.TrimSpace(city) == "" {
		return nil, eris.New("prayzone: city is required")
	}

	q := url.Values{}
	q.Set("city", city)
	if country != "" {
		q.Set("country", country)
	}

	var resp response
	if err := c.fetcher.GetJSON(ctx, c.baseURL+"/v2/times/today.json", q, &resp); err != nil {
		return nil, eris.Wrap(err, "prayzone: today")
	}
	if len(resp.Results.Datetime) == 0 {
		return nil, eris.New("prayzone: response has no datetime entries")
	}
	return &resp.Results.Datetime[0], nil
}
