package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vakit-cli/internal/cache"
	"github.com/sells-group/vakit-cli/internal/model"
	"github.com/sells-group/vakit-cli/internal/reconcile"
	"github.com/sells-group/vakit-cli/internal/registry"
	"github.com/sells-group/vakit-cli/internal/store"
	"github.com/sells-group/vakit-cli/pkg/moon"
)

var istanbul = time.FixedZone("TRT", 3*60*60)

type stubReconciler struct {
	calls atomic.Int32
	set   *model.AnchorSet
	err   error
}

func (s *stubReconciler) Reconcile(context.Context, model.Location, model.CalcParams, []registry.Descriptor) (*reconcile.Report, error) {
	s.calls.Add(1)
	if s.err != nil {
		return &reconcile.Report{Called: []string{"aladhan"}, Failed: map[string]string{"aladhan": "boom"}}, s.err
	}
	return &reconcile.Report{Set: s.set, Called: []string{"aladhan"}}, nil
}

type stubMoon struct {
	info *moon.Info
	err  error
}

func (s *stubMoon) Lookup(context.Context, float64, float64) (*moon.Info, error) {
	return s.info, s.err
}

func ramadanSet() *model.AnchorSet {
	return &model.AnchorSet{
		ProviderID: "aladhan",
		Label:      "Aladhan",
		Date:       "2025-03-05",
		Anchors: map[model.AnchorName]model.TimeOfDay{
			model.Imsak:   model.NewTimeOfDay(5, 30),
			model.Fajr:    model.NewTimeOfDay(5, 40),
			model.Sunrise: model.NewTimeOfDay(7, 0),
			model.Dhuhr:   model.NewTimeOfDay(12, 0),
			model.Asr:     model.NewTimeOfDay(15, 30),
			model.Maghrib: model.NewTimeOfDay(18, 0),
			model.Isha:    model.NewTimeOfDay(19, 30),
		},
		Hijri:           &model.HijriDate{Day: 5, Month: 9, Year: 1446},
		IsSpecialPeriod: true,
	}
}

func newTestAPI(rec *stubReconciler) *apiServer {
	now := time.Date(2025, 3, 5, 10, 30, 0, 0, istanbul)
	return &apiServer{
		cache:       cache.New(store.NewMemory(), 24*time.Hour).WithNow(func() time.Time { return now }),
		reconciler:  rec,
		descriptors: registry.Fallback(),
		providers:   []string{"aladhan", "prayzone"},
		params:      func(model.Location) model.CalcParams { return model.CalcParams{Method: 13, School: 1} },
		tz:          istanbul,
		moon:        &stubMoon{info: &moon.Info{PhaseCode: "WAXING_CRESCENT", Source: "stub"}},
		metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics\n"))
		}),
		corsOrigins: []string{"*"},
		now:         func() time.Time { return now },
	}
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestServe_Healthz(t *testing.T) {
	rec := get(t, newTestAPI(&stubReconciler{}).routes(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServe_Metrics(t *testing.T) {
	rec := get(t, newTestAPI(&stubReconciler{}).routes(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# metrics")
}

func TestServe_TimingsFreshThenCached(t *testing.T) {
	rs := &stubReconciler{set: ramadanSet()}
	h := newTestAPI(rs).routes()

	rec := get(t, h, "/v1/timings?lat=41.0082&lon=28.9784&city=Istanbul&country=tr")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string          `json:"status"`
		Key    string          `json:"key"`
		Set    model.AnchorSet `json:"set"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "fresh", body.Status)
	assert.Equal(t, "vakit:timings:41.008:28.978:2025-03-05:13:1", body.Key)
	assert.Equal(t, model.NewTimeOfDay(18, 0), body.Set.Anchors[model.Maghrib])

	rec = get(t, h, "/v1/timings?lat=41.0082&lon=28.9784")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "cached", body.Status)
	assert.Equal(t, int32(1), rs.calls.Load())
}

func TestServe_TimingsBadCoordinates(t *testing.T) {
	h := newTestAPI(&stubReconciler{}).routes()

	for _, target := range []string{
		"/v1/timings",
		"/v1/timings?lat=abc&lon=1",
		"/v1/timings?lat=91&lon=1",
		"/v1/timings?lat=10&lon=181",
	} {
		rec := get(t, h, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestServe_TimingsNoValidData(t *testing.T) {
	rs := &stubReconciler{err: &model.NoValidDataError{Attempted: []string{"aladhan"}}}
	rec := get(t, newTestAPI(rs).routes(), "/v1/timings?lat=41&lon=29")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "error")
	assert.Contains(t, body, "report")
}

func TestServe_TimingsInternalError(t *testing.T) {
	rs := &stubReconciler{err: errors.New("unexpected")}
	rec := get(t, newTestAPI(rs).routes(), "/v1/timings?lat=41&lon=29")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServe_Segment(t *testing.T) {
	rec := get(t, newTestAPI(&stubReconciler{set: ramadanSet()}).routes(), "/v1/segment?lat=41&lon=29")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		IsSpecialPeriod bool `json:"is_special_period"`
		Segment         struct {
			Current   *model.Segment `json:"current"`
			Next      *model.Segment `json:"next"`
			Remaining time.Duration  `json:"remaining"`
		} `json:"segment"`
		Countdown []struct {
			Anchor  model.AnchorName `json:"anchor"`
			Minutes int              `json:"minutes"`
			Passed  bool             `json:"passed"`
		} `json:"countdown"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.True(t, body.IsSpecialPeriod)
	require.NotNil(t, body.Segment.Current)
	require.NotNil(t, body.Segment.Next)
	assert.Equal(t, model.Sunrise, body.Segment.Current.Anchor)
	assert.Equal(t, model.Dhuhr, body.Segment.Next.Anchor)
	assert.Equal(t, 90*time.Minute, body.Segment.Remaining)

	require.Len(t, body.Countdown, 2)
	assert.Equal(t, model.Imsak, body.Countdown[0].Anchor)
	assert.True(t, body.Countdown[0].Passed)
	assert.Equal(t, model.Maghrib, body.Countdown[1].Anchor)
	assert.Equal(t, 450, body.Countdown[1].Minutes)
}

func TestServe_Moon(t *testing.T) {
	api := newTestAPI(&stubReconciler{})
	rec := get(t, api.routes(), "/v1/moon?lat=41&lon=29")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Hilal string `json:"hilal"`
		Info  struct {
			Source string `json:"source"`
		} `json:"info"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "stub", body.Info.Source)
	assert.NotEmpty(t, body.Hilal)

	api.moon = &stubMoon{err: errors.New("down")}
	rec = get(t, api.routes(), "/v1/moon?lat=41&lon=29")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestServe_Providers(t *testing.T) {
	rec := get(t, newTestAPI(&stubReconciler{}).routes(), "/v1/providers")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Registered  []string              `json:"registered"`
		Descriptors []registry.Descriptor `json:"descriptors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"aladhan", "prayzone"}, body.Registered)
	assert.NotEmpty(t, body.Descriptors)
}

func TestServe_CORS(t *testing.T) {
	h := newTestAPI(&stubReconciler{}).routes()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://example.org")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
