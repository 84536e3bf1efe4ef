package prayzone

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToday(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/times/today.json", r.URL.Path)
		assert.Equal(t, "Istanbul", r.URL.Query().Get("city"))
		assert.Equal(t, "TR", r.URL.Query().Get("country"))
		w.Write([]byte(`{"code":200,"status":"OK","results":{"datetime":[
		  {"times":{"Imsak":"05:24","Fajr":"05:36","Sunrise":"07:01","Dhuhr":"13:12","Asr":"16:21","Maghrib":"19:14","Isha":"20:34"},
		   "date":{"timestamp":1741132800,"gregorian":"2025-03-05","hijri":"1446-09-05"}}
		]}}`))
	}))
	defer srv.Close()

	day, err := NewClient(WithBaseURL(srv.URL)).Today(context.Background(), "Istanbul", "TR")
	require.NoError(t, err)

	assert.Equal(t, "2025-03-05", day.ISODate())
	v, ok := day.Time("Fajr")
	assert.True(t, ok)
	assert.Equal(t, "05:36", v)
}

func TestToday_UpperCaseKeysAndNoCountry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, has := r.URL.Query()["country"]
		assert.False(t, has)
		w.Write([]byte(`{"results":{"datetime":[{"times":{"FAJR":"05:36","DHUHR":"13:12"},"date":{"date":"2025-03-05"}}]}}`))
	}))
	defer srv.Close()

	day, err := NewClient(WithBaseURL(srv.URL)).Today(context.Background(), "Berlin", "")
	require.NoError(t, err)

	v, ok := day.Time("Dhuhr")
	assert.True(t, ok)
	assert.Equal(t, "13:12", v)
	_, ok = day.Time("Isha")
	assert.False(t, ok)
	assert.Equal(t, "2025-03-05", day.ISODate())
}

func TestToday_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		errMsg string
	}{
		{"empty datetime", http.StatusOK, `{"results":{"datetime":[]}}`, "no datetime"},
		{"missing results", http.StatusOK, `{"code":400}`, "no datetime"},
		{"not found", http.StatusNotFound, ``, "prayzone: today"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(WithBaseURL(srv.URL)).Today(context.Background(), "Istanbul", "TR")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestToday_RequiresCity(t *testing.T) {
	_, err := NewClient().Today(context.Background(), " ", "TR")
	assert.ErrorContains(t, err, "city is required")
}
