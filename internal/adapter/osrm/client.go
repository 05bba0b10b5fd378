// Package osrm implements domain.RouteProvider against an OSRM-compatible
// routing service. The upstream service is treated as an unreliable
// external dependency: every request carries a timeout, transient failures
// (network errors and 5xx responses) are retried with exponential backoff,
// and client errors fail immediately.
package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/park-tour-etl/internal/domain"
	"github.com/couchcryptid/park-tour-etl/internal/observability"
)

// ErrNoRoute is returned when the service responds successfully but finds
// no drivable route between the endpoints.
var ErrNoRoute = errors.New("osrm: no route found")

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 2 * time.Second
)

// Client calls the OSRM route API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an OSRM routing client. maxRetries bounds the number
// of additional attempts after the first request.
func NewClient(baseURL string, timeout time.Duration, maxRetries int, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		logger:     logger,
		metrics:    metrics,
	}
}

// Route fetches the driving route between two coordinates. The first
// route in the response is used; its geometry comes back as GeoJSON
// [lon, lat] pairs and is converted to domain coordinates.
func (c *Client) Route(ctx context.Context, from, to domain.Geo) (domain.RoutePath, error) {
	// OSRM uses lon,lat order.
	u := fmt.Sprintf("%s/route/v1/driving/%.6f,%.6f;%.6f,%.6f?overview=full&geometries=geojson",
		c.baseURL, from.Lon, from.Lat, to.Lon, to.Lat)

	backoff := initialBackoff
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.metrics.RouteRetries.Inc()
			if !sleepWithContext(ctx, backoff) {
				return domain.RoutePath{}, ctx.Err()
			}
			backoff = nextBackoff(backoff)
		}

		path, retryable, err := c.doRequest(ctx, u)
		if err == nil {
			c.metrics.RouteRequests.WithLabelValues("success").Inc()
			return path, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		c.logger.Warn("route request failed, retrying",
			"attempt", attempt+1, "error", err)
	}

	if errors.Is(lastErr, ErrNoRoute) {
		c.metrics.RouteRequests.WithLabelValues("no_route").Inc()
	} else {
		c.metrics.RouteRequests.WithLabelValues("error").Inc()
	}
	return domain.RoutePath{}, lastErr
}

// doRequest performs one attempt. The second return value reports whether
// the failure is transient and worth retrying.
func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.RoutePath, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.RoutePath{}, false, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.RouteAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.RoutePath{}, ctx.Err() == nil, fmt.Errorf("route request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		body, _ := io.ReadAll(resp.Body)
		return domain.RoutePath{}, true, fmt.Errorf("routing API error: status %d: %s", resp.StatusCode, body)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.RoutePath{}, false, fmt.Errorf("routing API error: status %d: %s", resp.StatusCode, body)
	}

	var osrmResp response
	if err := json.NewDecoder(resp.Body).Decode(&osrmResp); err != nil {
		return domain.RoutePath{}, false, fmt.Errorf("decode response: %w", err)
	}

	if osrmResp.Code != "Ok" || len(osrmResp.Routes) == 0 {
		return domain.RoutePath{}, false, ErrNoRoute
	}

	r := osrmResp.Routes[0]
	coords := make([]domain.Geo, 0, len(r.Geometry.Coordinates))
	for _, pair := range r.Geometry.Coordinates {
		if len(pair) != 2 {
			continue
		}
		coords = append(coords, domain.Geo{Lat: pair[1], Lon: pair[0]})
	}

	return domain.RoutePath{
		Coordinates:     coords,
		DistanceMeters:  r.Distance,
		DurationSeconds: r.Duration,
	}, false, nil
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// OSRM API response types.

type response struct {
	Code   string      `json:"code"`
	Routes []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Geometry geometry `json:"geometry"`
	Distance float64  `json:"distance"` // meters
	Duration float64  `json:"duration"` // seconds
}

type geometry struct {
	Coordinates [][]float64 `json:"coordinates"` // [lon, lat]
}
