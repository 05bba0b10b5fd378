package domain

import "time"

// VisitRecord is one cleaned row of the NPS visitation CSV: the visitor
// count for a single park in a single calendar year. Records are immutable
// after parsing; "Total" sentinel rows never become VisitRecords.
type VisitRecord struct {
	Region   string
	State    string
	ParkName string
	Year     int
	Visitors int64
}

// ParkTotal is the summed visitor count for one park across all years.
// Derived from VisitRecords, recomputed on every run.
type ParkTotal struct {
	ParkName string
	State    string
	Visitors int64
}

// GroupTotal is a summed visitor count keyed by an arbitrary grouping
// dimension (year, region, or state).
type GroupTotal struct {
	Key      string
	Visitors int64
}

// Geo is a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ParkLocation is one row of the coordinate lookup file.
type ParkLocation struct {
	ParkName string
	Geo      Geo
}

// GeoPark is a park total joined with its coordinates. Produced by the
// geo join stage; input to clustering and tour ordering.
type GeoPark struct {
	ParkName string `json:"park_name"`
	State    string `json:"state,omitempty"`
	Visitors int64  `json:"visitors"`
	Geo      Geo    `json:"geo"`
}

// ClusterAssignment maps a park to a flat cluster. ClusterID is 1-based
// and lies in [1, k] for a k-way partition.
type ClusterAssignment struct {
	ParkName  string
	ClusterID int
}

// RouteStatus describes the outcome of resolving a tour segment into a
// road geometry.
type RouteStatus string

const (
	// RouteStatusPlanned means no routing provider was consulted; the
	// segment is a straight great-circle leg.
	RouteStatusPlanned RouteStatus = "planned"
	// RouteStatusResolved means the routing provider returned a geometry.
	RouteStatusResolved RouteStatus = "resolved"
	// RouteStatusUnavailable means the routing provider failed after
	// retries; the segment endpoints are still valid.
	RouteStatusUnavailable RouteStatus = "unavailable"
)

// TourSegment is one directed leg of a closed tour.
type TourSegment struct {
	From   GeoPark     `json:"from"`
	To     GeoPark     `json:"to"`
	Path   RoutePath   `json:"path,omitzero"`
	Status RouteStatus `json:"status"`
}

// TourOrder is a closed visiting order for one cluster of parks.
// A tour over M parks has exactly M segments whose endpoints chain
// cyclically; a single-park tour is closed with zero segments.
type TourOrder struct {
	ClusterID int           `json:"cluster_id"`
	Parks     []GeoPark     `json:"parks"`
	Closed    bool          `json:"closed"`
	LengthKm  float64       `json:"length_km"`
	Segments  []TourSegment `json:"segments"`
}

// TourPlan is the full output of one pipeline run.
type TourPlan struct {
	ID          string      `json:"id"`
	GeneratedAt time.Time   `json:"generated_at"`
	Tours       []TourOrder `json:"tours"`
	Stats       PlanStats   `json:"stats"`
}

// PlanStats summarizes data quality and volume for one run.
type PlanStats struct {
	RecordsLoaded   int `json:"records_loaded"`
	RecordsDropped  int `json:"records_dropped"`
	SentinelRows    int `json:"sentinel_rows"`
	ParksAggregated int `json:"parks_aggregated"`
	JoinMisses      int `json:"join_misses"`
	ParksPlanned    int `json:"parks_planned"`
	SegmentsTotal   int `json:"segments_total"`
	RoutesResolved  int `json:"routes_resolved"`
	RoutesFailed    int `json:"routes_failed"`
}
