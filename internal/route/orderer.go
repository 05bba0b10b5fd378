// Package route turns a cluster of geolocated parks into a closed visiting
// order. The tour is built with a nearest-insertion heuristic over the
// great-circle distance matrix — a polynomial-time approximation with no
// optimality guarantee — optionally polished by a deterministic 2-opt pass.
//
// Degenerate inputs have fixed conventions: zero parks yield an empty
// closed tour, one park yields a closed tour with zero segments (no
// self-loop), and two parks yield two segments out and back.
package route

import (
	"errors"
	"math"

	"github.com/couchcryptid/park-tour-etl/internal/domain"
)

// ErrNonFiniteDistance is returned when the distance matrix contains NaN
// or infinity. The orderer fails loudly rather than emitting an
// unordered tour.
var ErrNonFiniteDistance = errors.New("route: non-finite distance in matrix")

// Options tunes the tour construction.
type Options struct {
	// TwoOpt enables the 2-opt local-search polish after insertion.
	TwoOpt bool
}

// Order produces a closed tour over the given parks for one cluster.
// The heuristic is deterministic: construction starts at index 0 and all
// ties resolve to the lowest index.
func Order(clusterID int, parks []domain.GeoPark, opts Options) (domain.TourOrder, error) {
	n := len(parks)
	if n == 0 {
		return domain.TourOrder{ClusterID: clusterID, Closed: true}, nil
	}
	if n == 1 {
		return domain.TourOrder{
			ClusterID: clusterID,
			Parks:     []domain.GeoPark{parks[0]},
			Closed:    true,
		}, nil
	}

	m := domain.DistanceMatrix(parks)
	for i := range m {
		for j := range m[i] {
			if math.IsNaN(m[i][j]) || math.IsInf(m[i][j], 0) {
				return domain.TourOrder{}, ErrNonFiniteDistance
			}
		}
	}

	tour := nearestInsertion(m)
	if opts.TwoOpt {
		tour = twoOpt(m, tour)
	}

	ordered := make([]domain.GeoPark, n)
	for i, idx := range tour {
		ordered[i] = parks[idx]
	}

	return domain.TourOrder{
		ClusterID: clusterID,
		Parks:     ordered,
		Closed:    true,
		LengthKm:  tourLength(m, tour),
		Segments:  buildSegments(ordered),
	}, nil
}

// nearestInsertion grows a closed tour: start at vertex 0, repeatedly pick
// the unvisited vertex nearest to the tour and splice it into the position
// with the smallest length increase.
func nearestInsertion(m [][]float64) []int {
	n := len(m)
	inTour := make([]bool, n)
	tour := []int{0}
	inTour[0] = true

	// Seed with the vertex nearest to the start.
	first := -1
	for v := 1; v < n; v++ {
		if first == -1 || m[0][v] < m[0][first] {
			first = v
		}
	}
	tour = append(tour, first)
	inTour[first] = true

	for len(tour) < n {
		next := selectNearest(m, tour, inTour)
		tour = insertCheapest(m, tour, next)
		inTour[next] = true
	}
	return tour
}

// selectNearest finds the unvisited vertex with the smallest distance to
// any tour vertex, ties to the lowest index.
func selectNearest(m [][]float64, tour []int, inTour []bool) int {
	best := -1
	bestDist := math.Inf(1)
	for v := range m {
		if inTour[v] {
			continue
		}
		for _, u := range tour {
			if m[u][v] < bestDist {
				bestDist = m[u][v]
				best = v
			}
		}
	}
	return best
}

// insertCheapest splices v into the closed tour at the position with the
// minimum length increase, ties to the earliest position.
func insertCheapest(m [][]float64, tour []int, v int) []int {
	bestPos := 0
	bestDelta := math.Inf(1)
	for i := range tour {
		a := tour[i]
		b := tour[(i+1)%len(tour)]
		delta := m[a][v] + m[v][b] - m[a][b]
		if delta < bestDelta {
			bestDelta = delta
			bestPos = i + 1
		}
	}

	out := make([]int, 0, len(tour)+1)
	out = append(out, tour[:bestPos]...)
	out = append(out, v)
	out = append(out, tour[bestPos:]...)
	return out
}

// tourLength sums the closed cycle over the permutation.
func tourLength(m [][]float64, tour []int) float64 {
	total := 0.0
	for i := range tour {
		total += m[tour[i]][tour[(i+1)%len(tour)]]
	}
	return total
}

// buildSegments emits the M directed legs of a closed tour, including the
// closing edge back to the first park.
func buildSegments(ordered []domain.GeoPark) []domain.TourSegment {
	segments := make([]domain.TourSegment, len(ordered))
	for i := range ordered {
		segments[i] = domain.TourSegment{
			From:   ordered[i],
			To:     ordered[(i+1)%len(ordered)],
			Status: domain.RouteStatusPlanned,
		}
	}
	return segments
}
