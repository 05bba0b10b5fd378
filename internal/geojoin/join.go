// Package geojoin merges aggregated park totals with the coordinate
// lookup. The join is a strict inner join on the exact park name: totals
// without a coordinate row are dropped from the output, and every miss is
// counted, logged with its key, and exported as a metric.
package geojoin

import (
	"log/slog"

	"github.com/couchcryptid/park-tour-etl/internal/domain"
	"github.com/couchcryptid/park-tour-etl/internal/observability"
)

// Joiner performs the totals-to-coordinates inner join.
type Joiner struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewJoiner creates a Joiner with the given observability.
func NewJoiner(logger *slog.Logger, metrics *observability.Metrics) *Joiner {
	return &Joiner{logger: logger, metrics: metrics}
}

// Join matches park totals against coordinate rows by exact park name.
// The output preserves the order of totals and never exceeds
// min(len(totals), len(locations)). Misses are returned for reporting.
func (j *Joiner) Join(totals []domain.ParkTotal, locations []domain.ParkLocation) ([]domain.GeoPark, []string) {
	byName := make(map[string]domain.Geo, len(locations))
	for _, loc := range locations {
		byName[loc.ParkName] = loc.Geo
	}

	joined := make([]domain.GeoPark, 0, len(totals))
	var misses []string

	for _, t := range totals {
		geo, ok := byName[t.ParkName]
		if !ok {
			misses = append(misses, t.ParkName)
			j.metrics.JoinMisses.Inc()
			j.logger.Warn("no coordinates for park, dropping from tour planning",
				"park", t.ParkName, "state", t.State)
			continue
		}
		joined = append(joined, domain.GeoPark{
			ParkName: t.ParkName,
			State:    t.State,
			Visitors: t.Visitors,
			Geo:      geo,
		})
	}

	return joined, misses
}
