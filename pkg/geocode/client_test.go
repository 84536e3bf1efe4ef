package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCity string
		wantCC   string
	}{
		{
			name:     "city",
			body:     `[{"lat":"41.0082","lon":"28.9784","display_name":"İstanbul, Türkiye","address":{"city":"İstanbul","state":"Marmara","country_code":"tr"}}]`,
			wantCity: "İstanbul",
			wantCC:   "TR",
		},
		{
			name:     "town",
			body:     `[{"lat":"50.1","lon":"8.6","display_name":"Bad Vilbel","address":{"town":"Bad Vilbel","country_code":"de"}}]`,
			wantCity: "Bad Vilbel",
			wantCC:   "DE",
		},
		{
			name:     "state only",
			body:     `[{"lat":"1","lon":"2","display_name":"Somewhere","address":{"state":"Hessen"}}]`,
			wantCity: "Hessen",
			wantCC:   "",
		},
		{
			name:     "no address",
			body:     `[{"lat":"1","lon":"2"}]`,
			wantCity: "query text",
			wantCC:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/search", r.URL.Path)
				q := r.URL.Query()
				assert.Equal(t, "query text", q.Get("q"))
				assert.Equal(t, "json", q.Get("format"))
				assert.Equal(t, "1", q.Get("limit"))
				assert.Equal(t, "1", q.Get("addressdetails"))
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			loc, err := NewClient(WithBaseURL(srv.URL)).Search(context.Background(), " query text ")
			require.NoError(t, err)
			assert.Equal(t, tt.wantCity, loc.City)
			assert.Equal(t, tt.wantCC, loc.CountryCode)
			assert.NotEmpty(t, loc.DisplayName)
		})
	}
}

func TestSearch_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).Search(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSearch_InvalidCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"lat":"north","lon":"2"}]`))
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).Search(context.Background(), "x")
	assert.ErrorContains(t, err, "invalid coordinates")
}

func TestSearch_EmptyQuery(t *testing.T) {
	_, err := NewClient().Search(context.Background(), "  ")
	assert.ErrorContains(t, err, "empty query")
}

func TestReverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "41.01", r.URL.Query().Get("lat"))
		assert.Equal(t, "28.97", r.URL.Query().Get("lon"))
		w.Write([]byte(`{"lat":"41.0105","lon":"28.9701","display_name":"Fatih, İstanbul","address":{"town":"Fatih","city":"İstanbul","country_code":"tr"}}`))
	}))
	defer srv.Close()

	loc, err := NewClient(WithBaseURL(srv.URL)).Reverse(context.Background(), 41.01, 28.97)
	require.NoError(t, err)
	assert.Equal(t, "İstanbul", loc.City)
	assert.Equal(t, "TR", loc.CountryCode)
	assert.InDelta(t, 41.01, loc.Latitude, 1e-9)
	assert.InDelta(t, 28.97, loc.Longitude, 1e-9)
}

func TestReverse_NoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).Reverse(context.Background(), 0, 0)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSearch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).Search(context.Background(), "x")
	assert.ErrorContains(t, err, "geocode: search")
}
