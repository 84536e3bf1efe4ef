// Package muslimsalat is a client for the MuslimSalat.com API.
package muslimsalat

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/vakit-cli/internal/fetcher"
)

const defaultBaseURL = "https://muslimsalat.com"

// Client fetches daily timings for a city. Requires an API key.
type Client interface {
	Daily(ctx context.Context, city, country string) (*Item, error)
}

// Item is one day. Times are 12-hour strings such as "4:31 am".
type Item struct {
	DateFor string `json:"date_for"`
	Fajr    string `json:"fajr"`
	Shurooq string `json:"shurooq"`
	Sunrise string `json:"sunrise"`
	Dhuhr   string `json:"dhuhr"`
	Asr     string `json:"asr"`
	Maghrib string `json:"maghrib"`
	Isha    string `json:"isha"`
}

// ISODate normalizes date_for, which may be YYYY-M-D, to YYYY-MM-DD.
func (i Item) ISODate() string {
	parts := strings.Split(strings.TrimSpace(i.DateFor), "-")
	if len(parts) != 3 {
		return ""
	}
	y, errY := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	d, errD := strconv.Atoi(parts[2])
	if errY != nil || errM != nil || errD != nil {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}

// SunriseTime returns sunrise, which the API reports as "shurooq" on some
// endpoints.
func (i Item) SunriseTime() string {
	if i.Sunrise != "" {
		return i.Sunrise
	}
	return i.Shurooq
}

type response struct {
	StatusValid       int    `json:"status_valid"`
	StatusDescription string `json:"status_description"`
	Items             []Item `json:"items"`
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
	apiKey  string
	baseURL string
	fetcher fetcher.Fetcher
}

// NewClient creates a MuslimSalat API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		fetcher: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Daily(ctx context.Context, city, country string) (*Item, error) {
	if c.apiKey == "" {
		return nil, eris.New("muslimsalat: api key is required")
	}
	if strings.TrimSpace(city) == "" {
		return nil, eris.New("muslimsalat: city is required")
	}

	q := url.Values{}
	q.Set("country", country)
	q.Set("key", c.apiKey)

	var resp response
	u := c.baseURL + "/" + url.PathEscape(city) + ".json"
	if err := c.fetcher.GetJSON(ctx, u, q, &resp); err != nil {
		return nil, eris.Wrap(err, "muslimsalat: daily")
	}
	if len(resp.Items) == 0 {
		return nil, eris.Errorf("muslimsalat: response has no items (%s)", resp.StatusDescription)
	}
	return &resp.Items[0], nil
}
