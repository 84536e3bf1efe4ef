package provider

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/vakit-cli/internal/model"
	"github.com/sells-group/vakit-cli/pkg/muslimsalat"
)

// MuslimSalat adapts the city-based MuslimSalat.com API. It needs an API key,
// so it is only registered when one is configured.
type MuslimSalat struct {
	client muslimsalat.Client
}

// NewMuslimSalat creates the adapter.
func NewMuslimSalat(client muslimsalat.Client) *MuslimSalat {
	return &MuslimSalat{client: client}
}

// ID implements Provider.
func (m *MuslimSalat) ID() string { return "muslimsalat" }

// Strategy implements Provider.
func (m *MuslimSalat) Strategy() Strategy { return StrategyCity }

// Fetch implements Provider.
func (m *MuslimSalat) Fetch(ctx context.Context, loc model.Location, _ model.CalcParams) (*model.ProviderResult, error) {
	if !loc.HasCity() {
		return nil, model.NewProviderError(m.ID(), model.ErrUnsupportedRequestShape)
	}

	item, err := m.client.Daily(ctx, loc.City, loc.Country())
	if err != nil {
		return nil, model.NewProviderError(m.ID(), err)
	}

	raw := map[model.AnchorName]string{
		model.Fajr:    item.Fajr,
		model.Sunrise: item.SunriseTime(),
		model.Dhuhr:   item.Dhuhr,
		model.Asr:     item.Asr,
		model.Maghrib: item.Maghrib,
		model.Isha:    item.Isha,
	}
	anchors := parseAnchors(func(name model.AnchorName) (string, bool) {
		v, ok := raw[name]
		return v, ok && v != ""
	})
	if len(anchors) == 0 {
		return nil, model.NewProviderError(m.ID(), eris.New("muslimsalat: no parseable timings"))
	}

	return &model.ProviderResult{
		ProviderID: m.ID(),
		Date:       item.ISODate(),
		Anchors:    anchors,
	}, nil
}
