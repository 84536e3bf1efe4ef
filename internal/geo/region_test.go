package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/vakit-cli/internal/config"
	"github.com/sells-group/vakit-cli/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		loc  model.Location
		want string
	}{
		{"istanbul by coords", model.Location{Latitude: 41.01, Longitude: 28.97}, RegionTurkey},
		{"van by coords", model.Location{Latitude: 38.5, Longitude: 43.4}, RegionTurkey},
		{"box corner", model.Location{Latitude: 35.8, Longitude: 25.5}, RegionTurkey},
		{"country code wins", model.Location{Latitude: 0, Longitude: 0, CountryCode: "tr"}, RegionTurkey},
		{"berlin", model.Location{Latitude: 52.52, Longitude: 13.40, CountryCode: "DE"}, RegionOther},
		{"just north of box", model.Location{Latitude: 42.31, Longitude: 30}, RegionOther},
		{"just east of box", model.Location{Latitude: 39, Longitude: 45.01}, RegionOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.loc))
		})
	}
}

func TestParams(t *testing.T) {
	istanbul := model.Location{Latitude: 41.01, Longitude: 28.97}
	london := model.Location{Latitude: 51.5, Longitude: -0.12, CountryCode: "GB"}

	assert.Equal(t, model.CalcParams{Method: 13, School: 1}, Params(istanbul, config.CalcConfig{}))
	assert.Equal(t, model.CalcParams{Method: 3, School: 1}, Params(london, config.CalcConfig{}))

	cfg := config.CalcConfig{DefaultMethod: 2, TurkeyMethod: 14, School: 0}
	assert.Equal(t, model.CalcParams{Method: 14, School: 1}, Params(istanbul, cfg))
	assert.Equal(t, model.CalcParams{Method: 2, School: 1}, Params(london, cfg))

	fixed := config.CalcConfig{Method: 5, School: 2}
	assert.Equal(t, model.CalcParams{Method: 5, School: 2}, Params(istanbul, fixed))
}
