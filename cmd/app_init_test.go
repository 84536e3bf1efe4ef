package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vakit-cli/internal/config"
	"github.com/sells-group/vakit-cli/internal/model"
	"github.com/sells-group/vakit-cli/internal/store"
)

func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestAlarmConfig(t *testing.T) {
	withConfig(t, &config.Config{Special: config.SpecialConfig{
		LeadMinutes: 15,
		StartAnchor: "fajr",
		EndAnchor:   "bogus",
	}})

	ac := alarmConfig()
	assert.Equal(t, 15*time.Minute, ac.Lead)
	assert.Equal(t, model.Fajr, ac.Start)
	assert.Empty(t, ac.End)
}

func TestHasCredential(t *testing.T) {
	withConfig(t, &config.Config{})
	assert.False(t, hasCredential("muslimsalat"))
	assert.True(t, hasCredential("aladhan"))

	cfg.MuslimSalat.Key = "k"
	assert.True(t, hasCredential("muslimsalat"))
}

func TestCalcParams_ByRegion(t *testing.T) {
	withConfig(t, &config.Config{Calc: config.CalcConfig{School: 1, DefaultMethod: 3, TurkeyMethod: 13}})

	assert.Equal(t, 13, calcParams(model.Location{Latitude: 41.01, Longitude: 28.97, CountryCode: "TR"}).Method)
	assert.Equal(t, 3, calcParams(model.Location{Latitude: 51.5, Longitude: -0.12, CountryCode: "GB"}).Method)
}

func TestInitStore_Drivers(t *testing.T) {
	withConfig(t, &config.Config{Store: config.StoreConfig{Driver: "memory"}})
	st, err := initStore(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, st)

	cfg.Store = config.StoreConfig{Driver: "sqlite", DatabaseURL: t.TempDir() + "/vakit.db"}
	st, err = initStore(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &store.SQLiteStore{}, st)
	require.NoError(t, st.Close())

	cfg.Store = config.StoreConfig{Driver: "mongo"}
	_, err = initStore(context.Background())
	assert.Error(t, err)
}
