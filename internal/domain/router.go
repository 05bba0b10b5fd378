package domain

import "context"

// RoutePath is a road geometry returned by a routing provider.
type RoutePath struct {
	// Coordinates trace the route from origin to destination.
	Coordinates []Geo `json:"coordinates,omitempty"`
	// DistanceMeters is the driving distance along the geometry.
	DistanceMeters float64 `json:"distance_meters,omitempty"`
	// DurationSeconds is the estimated driving time.
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
}

// Empty reports whether the path carries no geometry.
func (p RoutePath) Empty() bool { return len(p.Coordinates) == 0 }

// RouteProvider resolves a directed segment into a road geometry.
// Implementations are expected to be safe for sequential reuse and to
// honor context cancellation; the pipeline treats every call as an
// unreliable external dependency.
type RouteProvider interface {
	Route(ctx context.Context, from, to Geo) (RoutePath, error)
}
