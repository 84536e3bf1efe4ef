// Package aladhan is a client for the AlAdhan prayer times API.
package aladhan

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/vakit-cli/internal/fetcher"
)

const defaultBaseURL = "https://api.aladhan.com"

// Client queries daily timings and monthly calendars.
type Client interface {
	Timings(ctx context.Context, req TimingsRequest) (*Day, error)
	Calendar(ctx context.Context, req CalendarRequest) ([]Day, error)
}

// Params are the calculation parameters shared by both endpoints. Zero
// values are omitted from the query.
type Params struct {
	Latitude           float64
	Longitude          float64
	Method             int
	School             int
	LatitudeAdjustment int
	Tune               string
}

// TimingsRequest asks for the timings of the day containing At.
type TimingsRequest struct {
	Params
	At time.Time
}

// CalendarRequest asks for every day of one gregorian month.
type CalendarRequest struct {
	Params
	Year  int
	Month int
}

// Day is one day of timings with its date metadata.
type Day struct {
	Timings map[string]string `json:"timings"`
	Date    DateInfo          `json:"date"`
}

// DateInfo carries both calendars for a day.
type DateInfo struct {
	Readable  string    `json:"readable"`
	Timestamp string    `json:"timestamp"`
	Gregorian Gregorian `json:"gregorian"`
	Hijri     Hijri     `json:"hijri"`
}

// Gregorian holds the gregorian date as DD-MM-YYYY.
type Gregorian struct {
	Date string `json:"date"`
}

// Hijri holds the hijri date. Day and Year arrive as strings.
type Hijri struct {
	Date  string     `json:"date"`
	Day   string     `json:"day"`
	Month HijriMonth `json:"month"`
	Year  string     `json:"year"`
}

// HijriMonth names a hijri month.
type HijriMonth struct {
	Number int    `json:"number"`
	En     string `json:"en"`
	Ar     string `json:"ar"`
}

// DayNumber returns the hijri day of month, or 0 when absent.
func (h Hijri) DayNumber() int {
	n, _ := strconv.Atoi(strings.TrimSpace(h.Day))
	return n
}

// YearNumber returns the hijri year, or 0 when absent.
func (h Hijri) YearNumber() int {
	n, _ := strconv.Atoi(strings.TrimSpace(h.Year))
	return n
}

// ISODate converts the gregorian DD-MM-YYYY date to YYYY-MM-DD. It returns
// "" when the date is missing or malformed.
func (d Day) ISODate() string {
	parts := strings.Split(d.Date.Gregorian.Date, "-")
	if len(parts) != 3 || len(parts[2]) != 4 {
		return ""
	}
	return parts[2] + "-" + parts[1] + "-" + parts[0]
}

type envelope[T any] struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   T      `json:"data"`
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

// NewClient creates an AlAdhan API client.
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

func (p Params) query() url.Values {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(p.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(p.Longitude, 'f', -1, 64))
	if p.Method > 0 {
		q.Set("method", strconv.Itoa(p.Method))
	}
	if p.School > 0 {
		q.Set("school", strconv.Itoa(p.School))
	}
	if p.LatitudeAdjustment > 0 {
		q.Set("latitudeAdjustmentMethod", strconv.Itoa(p.LatitudeAdjustment))
	}
	if p.Tune != "" {
		q.Set("tune", p.Tune)
	}
	return q
}

func (c *httpClient) Timings(ctx context.Context, req TimingsRequest) (*Day, error) {
	at := req.At
	if at.IsZero() {
		at = time.Now()
	}

	var env envelope[*Day]
	u := fmt.Sprintf("%s/v1/timings/%d", c.baseURL, at.Unix())
	if err := c.fetcher.GetJSON(ctx, u, req.query(), &env); err != nil {
		return nil, eris.Wrap(err, "aladhan: timings")
	}
	if env.Code != 200 {
		return nil, eris.Errorf("aladhan: unexpected code %d (%s)", env.Code, env.Status)
	}
	if env.Data == nil || len(env.Data.Timings) == 0 {
		return nil, eris.New("aladhan: response has no timings")
	}
	return env.Data, nil
}

func (c *httpClient) Calendar(ctx context.Context, req CalendarRequest) ([]Day, error) {
	if req.Month < 1 || req.Month > 12 {
		return nil, eris.Errorf("aladhan: invalid month %d", req.Month)
	}

	var env envelope[[]Day]
	u := fmt.Sprintf("%s/v1/calendar/%d/%d", c.baseURL, req.Year, req.Month)
	if err := c.fetcher.GetJSON(ctx, u, req.query(), &env); err != nil {
		return nil, eris.Wrapf(err, "aladhan: calendar %d-%02d", req.Year, req.Month)
	}
	if env.Code != 200 || env.Data == nil {
		return nil, eris.Errorf("aladhan: unexpected calendar response for %d-%02d (code %d)", req.Year, req.Month, env.Code)
	}
	return env.Data, nil
}
