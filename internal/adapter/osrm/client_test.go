package osrm

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/park-tour-etl/internal/domain"
	"github.com/couchcryptid/park-tour-etl/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

var (
	testFrom = domain.Geo{Lat: 44.6, Lon: -110.5}
	testTo   = domain.Geo{Lat: 37.83, Lon: -119.5}
)

func testClient(baseURL string, retries int) *Client {
	return NewClient(
		baseURL,
		5*time.Second,
		retries,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting(),
	)
}

func okResponse() response {
	return response{
		Code: "Ok",
		Routes: []osrmRoute{
			{
				Geometry: geometry{Coordinates: [][]float64{
					{-110.5, 44.6},
					{-115.0, 41.2},
					{-119.5, 37.83},
				}},
				Distance: 1234567.8,
				Duration: 43210.9,
			},
		},
	}
}

func TestClient_Route_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/route/v1/driving/")
		// OSRM expects lon,lat pairs separated by a semicolon.
		assert.Contains(t, r.URL.Path, "-110.500000,44.600000;-119.500000,37.830000")
		assert.Equal(t, "full", r.URL.Query().Get("overview"))
		assert.Equal(t, "geojson", r.URL.Query().Get("geometries"))

		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(okResponse()))
	}))
	defer srv.Close()

	path, err := testClient(srv.URL, 0).Route(context.Background(), testFrom, testTo)
	require.NoError(t, err)

	require.Len(t, path.Coordinates, 3)
	// Geometry arrives as [lon, lat] and is flipped into domain order.
	assert.Equal(t, 44.6, path.Coordinates[0].Lat)
	assert.Equal(t, -110.5, path.Coordinates[0].Lon)
	assert.Equal(t, 1234567.8, path.DistanceMeters)
	assert.Equal(t, 43210.9, path.DurationSeconds)
}

func TestClient_Route_NoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(response{Code: "NoRoute"}))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 3).Route(context.Background(), testFrom, testTo)
	require.ErrorIs(t, err, ErrNoRoute)
}

func TestClient_Route_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(okResponse()))
	}))
	defer srv.Close()

	path, err := testClient(srv.URL, 3).Route(context.Background(), testFrom, testTo)
	require.NoError(t, err)
	assert.Equal(t, int64(3), calls.Load())
	assert.False(t, path.Empty())
}

func TestClient_Route_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"InvalidQuery"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 3).Route(context.Background(), testFrom, testTo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int64(1), calls.Load(), "4xx responses must not be retried")
}

func TestClient_Route_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 2).Route(context.Background(), testFrom, testTo)
	require.Error(t, err)
	assert.Equal(t, int64(3), calls.Load(), "initial attempt plus two retries")
}

func TestClient_Route_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 50*time.Millisecond, 0,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting(),
	)

	_, err := c.Route(context.Background(), testFrom, testTo)
	require.Error(t, err)
}

func TestClient_Route_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL, 5).Route(ctx, testFrom, testTo)
	require.Error(t, err)
}
