package provider

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/vakit-cli/internal/model"
	"github.com/sells-group/vakit-cli/pkg/prayzone"
)

// PrayZone adapts the city-based Pray.Zone API.
type PrayZone struct {
	client prayzone.Client
}

// NewPrayZone creates the adapter.
func NewPrayZone(client prayzone.Client) *PrayZone {
	return &PrayZone{client: client}
}

// ID implements Provider.
func (p *PrayZone) ID() string { return "prayzone" }

// Strategy implements Provider.
func (p *PrayZone) Strategy() Strategy { return StrategyCity }

// Fetch implements Provider.
func (p *PrayZone) Fetch(ctx context.Context, loc model.Location, _ model.CalcParams) (*model.ProviderResult, error) {
	if !loc.HasCity() {
		return nil, model.NewProviderError(p.ID(), model.ErrUnsupportedRequestShape)
	}

	day, err := p.client.Today(ctx, loc.City, loc.Country())
	if err != nil {
		return nil, model.NewProviderError(p.ID(), err)
	}

	anchors := parseAnchors(func(name model.AnchorName) (string, bool) {
		return day.Time(string(name))
	})
	if len(anchors) == 0 {
		return nil, model.NewProviderError(p.ID(), eris.New("prayzone: no parseable timings"))
	}

	return &model.ProviderResult{
		ProviderID: p.ID(),
		Date:       day.ISODate(),
		Anchors:    anchors,
	}, nil
}
