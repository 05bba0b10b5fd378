// Package aggregate computes summed visitor totals over cleaned visitation
// records: by year, region, state, and park. All transforms are pure
// group-by + sum and independent of input order.
package aggregate

import (
	"sort"
	"strconv"

	"github.com/couchcryptid/park-tour-etl/internal/domain"
)

// TotalsByYear sums visitors per calendar year, sorted by year ascending.
func TotalsByYear(records []domain.VisitRecord) []domain.GroupTotal {
	return groupBy(records, func(r domain.VisitRecord) string {
		return strconv.Itoa(r.Year)
	})
}

// TotalsByRegion sums visitors per NPS region, sorted by region code.
func TotalsByRegion(records []domain.VisitRecord) []domain.GroupTotal {
	return groupBy(records, func(r domain.VisitRecord) string { return r.Region })
}

// TotalsByState sums visitors per state, sorted by state code.
func TotalsByState(records []domain.VisitRecord) []domain.GroupTotal {
	return groupBy(records, func(r domain.VisitRecord) string { return r.State })
}

func groupBy(records []domain.VisitRecord, key func(domain.VisitRecord) string) []domain.GroupTotal {
	sums := make(map[string]int64)
	for _, r := range records {
		sums[key(r)] += r.Visitors
	}

	totals := make([]domain.GroupTotal, 0, len(sums))
	for k, v := range sums {
		totals = append(totals, domain.GroupTotal{Key: k, Visitors: v})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Key < totals[j].Key })
	return totals
}

// ParkTotals sums visitors per park across all years. The state is taken
// from the park's records; sorted by park name for determinism.
func ParkTotals(records []domain.VisitRecord) []domain.ParkTotal {
	sums := make(map[string]*domain.ParkTotal)
	for _, r := range records {
		t, ok := sums[r.ParkName]
		if !ok {
			t = &domain.ParkTotal{ParkName: r.ParkName, State: r.State}
			sums[r.ParkName] = t
		}
		t.Visitors += r.Visitors
	}

	totals := make([]domain.ParkTotal, 0, len(sums))
	for _, t := range sums {
		totals = append(totals, *t)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].ParkName < totals[j].ParkName })
	return totals
}

// TopParks returns the n parks with the highest all-time totals, sorted by
// visitors descending. Ties break by park name ascending so the selection
// is deterministic. If n exceeds the park count, all parks are returned.
func TopParks(totals []domain.ParkTotal, n int) []domain.ParkTotal {
	sorted := make([]domain.ParkTotal, len(totals))
	copy(sorted, totals)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Visitors != sorted[j].Visitors {
			return sorted[i].Visitors > sorted[j].Visitors
		}
		return sorted[i].ParkName < sorted[j].ParkName
	})

	if n < 0 {
		n = 0
	}
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}
