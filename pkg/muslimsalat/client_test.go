package muslimsalat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/New York.json", r.URL.Path)
		assert.Equal(t, "US", r.URL.Query().Get("country"))
		assert.Equal(t, "k123", r.URL.Query().Get("key"))
		w.Write([]byte(`{"status_valid":1,"items":[
		  {"date_for":"2025-3-5","fajr":"5:18 am","shurooq":"6:31 am","dhuhr":"12:13 pm","asr":"3:24 pm","maghrib":"5:56 pm","isha":"7:10 pm"}
		]}`))
	}))
	defer srv.Close()

	item, err := NewClient("k123", WithBaseURL(srv.URL)).Daily(context.Background(), "New York", "US")
	require.NoError(t, err)

	assert.Equal(t, "2025-03-05", item.ISODate())
	assert.Equal(t, "5:18 am", item.Fajr)
	assert.Equal(t, "6:31 am", item.SunriseTime())
}

func TestDaily_NoItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status_valid":0,"status_description":"Invalid key","items":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient("bad", WithBaseURL(srv.URL)).Daily(context.Background(), "Paris", "FR")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid key")
}

func TestDaily_Preconditions(t *testing.T) {
	_, err := NewClient("").Daily(context.Background(), "Paris", "FR")
	assert.ErrorContains(t, err, "api key is required")

	_, err = NewClient("k").Daily(context.Background(), "", "FR")
	assert.ErrorContains(t, err, "city is required")
}

func TestItem_ISODate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2025-3-5", "2025-03-05"},
		{"2025-12-25", "2025-12-25"},
		{"", ""},
		{"March 5", ""},
		{"2025-x-5", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Item{DateFor: tt.in}.ISODate(), tt.in)
	}
}
