package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vakit-cli/internal/model"
	"github.com/sells-group/vakit-cli/internal/store"
)

func sampleSet() *model.AnchorSet {
	return &model.AnchorSet{
		ProviderID: "aladhan",
		Label:      "Aladhan",
		Date:       "2025-03-05",
		Anchors: map[model.AnchorName]model.TimeOfDay{
			model.Imsak:   model.NewTimeOfDay(5, 24),
			model.Fajr:    model.NewTimeOfDay(5, 34),
			model.Maghrib: model.NewTimeOfDay(19, 14),
		},
		Hijri:           &model.HijriDate{Day: 5, Month: 9, Year: 1446},
		IsSpecialPeriod: true,
	}
}

func TestBuildKey(t *testing.T) {
	loc := model.Location{Latitude: 41.008240, Longitude: 28.978359}

	tests := []struct {
		name   string
		params model.CalcParams
		prec   int
		want   string
	}{
		{"defaults", model.CalcParams{}, 3, "vakit:timings:41.008:28.978:2025-03-05:m:s"},
		{"method and school", model.CalcParams{Method: 13, School: 1}, 3, "vakit:timings:41.008:28.978:2025-03-05:13:1"},
		{"coarser", model.CalcParams{Method: 3}, 2, "vakit:timings:41.01:28.98:2025-03-05:3:s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildKey(loc, "2025-03-05", tt.params, tt.prec))
		})
	}
}

func TestKey_JitterAndConfigSeparation(t *testing.T) {
	c := New(store.NewMemory(), 0)
	a := model.Location{Latitude: 41.00821, Longitude: 28.97841}
	b := model.Location{Latitude: 41.00834, Longitude: 28.97829}

	assert.Equal(t, c.Key(a, "2025-03-05", model.CalcParams{}), c.Key(b, "2025-03-05", model.CalcParams{}))
	assert.NotEqual(t, c.Key(a, "2025-03-05", model.CalcParams{Method: 13}), c.Key(a, "2025-03-05", model.CalcParams{Method: 3}))
	assert.NotEqual(t, c.Key(a, "2025-03-05", model.CalcParams{}), c.Key(a, "2025-03-06", model.CalcParams{}))
}

func TestKey_NoNegativeZero(t *testing.T) {
	c := New(store.NewMemory(), 0)
	north := model.Location{Latitude: 0.0001, Longitude: -0.0001}
	south := model.Location{Latitude: -0.0001, Longitude: 0.0001}

	assert.Equal(t, c.Key(north, "2025-03-05", model.CalcParams{}), c.Key(south, "2025-03-05", model.CalcParams{}))
	assert.Equal(t, "vakit:timings:0.000:0.000:2025-03-05:m:s", c.Key(south, "2025-03-05", model.CalcParams{}))
	assert.Equal(t, "vakit:timings:-0.001:0.001:2025-03-05:m:s", BuildKey(model.Location{Latitude: -0.0006, Longitude: 0.0006}, "2025-03-05", model.CalcParams{}, 3))
}

func TestCache_RoundTripAndExpiry(t *testing.T) {
	now := time.Date(2025, 3, 5, 6, 0, 0, 0, time.UTC)
	c := New(store.NewMemory(), 24*time.Hour).WithNow(func() time.Time { return now })
	ctx := context.Background()

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	c.Put(ctx, "k", sampleSet())

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, sampleSet(), got)

	now = now.Add(24 * time.Hour)
	_, ok = c.Get(ctx, "k")
	assert.True(t, ok, "valid up to and including the TTL")

	now = now.Add(time.Second)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	kv := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "bad", []byte("{not json"), 0))
	require.NoError(t, kv.Set(ctx, "empty", []byte(`{"key":"empty"}`), 0))

	obs := &countingObserver{}
	c := New(kv, 0).WithObserver(obs)

	_, ok := c.Get(ctx, "bad")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "empty")
	assert.False(t, ok)
	assert.Equal(t, 2, obs.errors)
	assert.Equal(t, 2, obs.misses)
}

type failingKV struct {
	store.KV
}

func (failingKV) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func (failingKV) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("read-only")
}

func TestCache_StoreErrorsAreSwallowed(t *testing.T) {
	obs := &countingObserver{}
	c := New(failingKV{}, 0).WithObserver(obs)
	ctx := context.Background()

	assert.NotPanics(t, func() { c.Put(ctx, "k", sampleSet()) })
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 2, obs.errors)
}

func TestCache_PutNilIsNoop(t *testing.T) {
	kv := store.NewMemory()
	c := New(kv, 0)
	c.Put(context.Background(), "k", nil)

	_, err := kv.Get(context.Background(), "k")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestCache_Prune(t *testing.T) {
	now := time.Date(2025, 3, 5, 6, 0, 0, 0, time.UTC)
	kv := store.NewMemory().WithNow(func() time.Time { return now })
	c := New(kv, time.Hour)
	ctx := context.Background()

	c.Put(ctx, "k", sampleSet())
	now = now.Add(3 * time.Hour)

	n, err := c.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

type countingObserver struct {
	hits, misses, errors int
}

func (o *countingObserver) ObserveCacheLookup(hit bool) {
	if hit {
		o.hits++
		return
	}
	o.misses++
}

func (o *countingObserver) ObserveCacheError(string) { o.errors++ }
