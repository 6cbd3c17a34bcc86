package ipgeolocation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/moonwatch/internal/domain/moonrise"
)

func TestFormatQuery(t *testing.T) {
	cases := map[string]string{
		"90210":                   "90210, US",
		"90210-1234":              "90210-1234, US",
		"Los Angeles, CA":         "Los Angeles, CA, US",
		"Austin,  Texas":          "Austin, Texas, US",
		"Austin, USA":             "Austin, USA",
		"Los Angeles, us":         "Los Angeles, us",
		"Dallas":                  "Dallas",
		"  Paris,   France 75001": "Paris, France 75001",
		"":                        "",
	}
	for in, want := range cases {
		require.Equal(t, want, FormatQuery(in), in)
	}
}

func TestResolveParsesLocation(t *testing.T) {
	var gotQuery, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("location")
		gotKey = r.URL.Query().Get("apiKey")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"location":{"latitude":"34.05223","longitude":"-118.24368","city":"Los Angeles","state_prov":"California","country_name":"United States"},"astronomy":{}}`)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"}, newTestLogger())
	loc, err := client.Resolve(context.Background(), "Los Angeles, CA")
	require.NoError(t, err)

	require.Equal(t, "Los Angeles, CA, US", gotQuery)
	require.Equal(t, "secret", gotKey)
	require.InDelta(t, 34.05223, loc.Latitude, 1e-9)
	require.InDelta(t, -118.24368, loc.Longitude, 1e-9)
	require.Equal(t, "Los Angeles", loc.Name)
	require.Equal(t, "California", loc.State)
	require.Equal(t, "United States", loc.Country)
	require.Equal(t, "Los Angeles, CA, US", loc.FormattedLocation)
	require.Empty(t, loc.Timezone)
}

func TestResolveFallsBackOnNames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"location":{"latitude":48.8566,"longitude":2.3522,"location_string":"Paris, France"}}`)
	}))
	defer srv.Close()

	loc, err := NewClient(Config{BaseURL: srv.URL, APIKey: "k"}, newTestLogger()).Resolve(context.Background(), "Paris")
	require.NoError(t, err)
	require.Equal(t, "Paris, France", loc.Name)
	require.Equal(t, "Unknown", loc.Country)
}

func TestResolveNotFound(t *testing.T) {
	bodies := []struct {
		status int
		body   string
	}{
		{status: http.StatusBadRequest, body: `{"message":"Provided location is not valid"}`},
		{status: http.StatusOK, body: `{"location":{}}`},
		{status: http.StatusOK, body: `{"location":{"latitude":"","longitude":""}}`},
	}
	for _, tc := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = io.WriteString(w, tc.body)
		}))
		_, err := NewClient(Config{BaseURL: srv.URL, APIKey: "k"}, newTestLogger()).Resolve(context.Background(), "Atlantis")
		srv.Close()
		require.True(t, errors.Is(err, moonrise.ErrLocationNotFound), tc.body)
	}
}

func TestResolveRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{}, newTestLogger())
	require.False(t, client.HasAPIKey())
	_, err := client.Resolve(context.Background(), "Austin")
	require.ErrorIs(t, err, ErrMissingAPIKey)
	require.ErrorIs(t, err, moonrise.ErrResolverMisconfigured)
}

func TestCallerCancellationDoesNotTripBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, `{"location":{"latitude":"30.26715","longitude":"-97.74306","city":"Austin"}}`)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "k", BreakerFailures: 1}, newTestLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 5; i++ {
		_, err := client.Resolve(ctx, "Austin")
		require.ErrorIs(t, err, context.Canceled)
	}

	loc, err := client.Resolve(context.Background(), "Austin")
	require.NoError(t, err)
	require.Equal(t, "Austin", loc.Name)
	require.Equal(t, int32(1), hits.Load())
}

func TestBreakerOpensOnUpstreamFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "k", BreakerFailures: 2}, newTestLogger())
	for i := 0; i < 3; i++ {
		_, err := client.Resolve(context.Background(), "Austin")
		require.Error(t, err)
		require.False(t, errors.Is(err, moonrise.ErrLocationNotFound))
	}
	_, err := client.Resolve(context.Background(), "Austin")
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	require.Equal(t, int32(3), hits.Load())
}

func TestClientTimeoutStillTripsBreaker(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "k", Timeout: 20 * time.Millisecond, BreakerFailures: 1}, newTestLogger())
	for i := 0; i < 2; i++ {
		_, err := client.Resolve(context.Background(), "Austin")
		require.Error(t, err)
	}
	_, err := client.Resolve(context.Background(), "Austin")
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestNotFoundDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "k", BreakerFailures: 1}, newTestLogger())
	for i := 0; i < 5; i++ {
		_, err := client.Resolve(context.Background(), "Nowhere")
		require.ErrorIs(t, err, moonrise.ErrLocationNotFound)
	}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
