package provider

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/vakit-cli/internal/model"
	"github.com/sells-group/vakit-cli/pkg/aladhan"
)

// Aladhan adapts the coordinate-based AlAdhan API. It is the only provider
// that reports hijri metadata and Imsak.
type Aladhan struct {
	client             aladhan.Client
	latitudeAdjustment int
	tune               string
	now                func() time.Time
}

// NewAladhan creates the adapter. latitudeAdjustment and tune are sent
// verbatim when non-zero.
func NewAladhan(client aladhan.Client, latitudeAdjustment int, tune string) *Aladhan {
	return &Aladhan{
		client:             client,
		latitudeAdjustment: latitudeAdjustment,
		tune:               tune,
		now:                time.Now,
	}
}

// WithNow overrides the clock used to pick the requested day.
func (a *Aladhan) WithNow(fn func() time.Time) *Aladhan {
	a.now = fn
	return a
}

// ID implements Provider.
func (a *Aladhan) ID() string { return "aladhan" }

// Strategy implements Provider.
func (a *Aladhan) Strategy() Strategy { return StrategyCoords }

// Fetch implements Provider.
func (a *Aladhan) Fetch(ctx context.Context, loc model.Location, params model.CalcParams) (*model.ProviderResult, error) {
	day, err := a.client.Timings(ctx, aladhan.TimingsRequest{
		Params: aladhan.Params{
			Latitude:           loc.Latitude,
			Longitude:          loc.Longitude,
			Method:             params.Method,
			School:             params.School,
			LatitudeAdjustment: a.latitudeAdjustment,
			Tune:               a.tune,
		},
		At: a.now(),
	})
	if err != nil {
		return nil, model.NewProviderError(a.ID(), err)
	}

	anchors := parseAnchors(func(name model.AnchorName) (string, bool) {
		v, ok := day.Timings[string(name)]
		return v, ok
	})
	if len(anchors) == 0 {
		return nil, model.NewProviderError(a.ID(), eris.New("aladhan: no parseable timings"))
	}

	res := &model.ProviderResult{
		ProviderID: a.ID(),
		Date:       day.ISODate(),
		Anchors:    anchors,
	}
	if h := day.Date.Hijri; h.Month.Number > 0 {
		res.Hijri = &model.HijriDate{
			Day:       h.DayNumber(),
			Month:     h.Month.Number,
			MonthName: h.Month.En,
			Year:      h.YearNumber(),
		}
	}
	return res, nil
}
