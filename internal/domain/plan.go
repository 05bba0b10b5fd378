package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// PlanID produces a deterministic ID from the planned park set and the
// cluster count. Deterministic IDs make republished plans idempotent for
// downstream consumers — reprocessing the same inputs produces the same ID.
func PlanID(parks []GeoPark, clusters int) string {
	names := make([]string, len(parks))
	for i := range parks {
		names[i] = parks[i].ParkName
	}
	sort.Strings(names)

	input := fmt.Sprintf("%s|k=%d", strings.Join(names, "|"), clusters)
	hash := sha256.Sum256([]byte(input))
	return "plan-" + hex.EncodeToString(hash[:8])
}

// NewTourPlan assembles a TourPlan with a deterministic ID and a
// GeneratedAt timestamp from the package clock.
func NewTourPlan(parks []GeoPark, clusters int, tours []TourOrder, stats PlanStats) TourPlan {
	return TourPlan{
		ID:          PlanID(parks, clusters),
		GeneratedAt: clock.Now(),
		Tours:       tours,
		Stats:       stats,
	}
}
