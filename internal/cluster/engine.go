// Package cluster partitions geolocated parks into k groups by
// hierarchical agglomerative clustering over great-circle distances.
//
// The dendrogram is never materialized: clusters are merged bottom-up
// with Lance-Williams dissimilarity updates until exactly k remain, which
// is equivalent to cutting the tree at k flat clusters. Merge ties are
// broken by the lowest (i, j) cluster index pair, so the partition is
// fully deterministic for a given input order.
package cluster

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/couchcryptid/park-tour-etl/internal/domain"
)

// Linkage selects the inter-cluster dissimilarity update rule.
type Linkage int

const (
	// LinkageAverage is UPGMA: the mean pairwise distance between members.
	// Used for the top-level partition.
	LinkageAverage Linkage = iota
	// LinkageWard minimizes within-cluster variance. Used for the
	// per-cluster subpartition pass.
	LinkageWard
)

// ErrTooFewParks is returned when fewer than two parks are given to a
// multi-cluster partition; clustering is undefined on singleton input.
var ErrTooFewParks = errors.New("cluster: need at least 2 parks")

// Partition groups parks into exactly k clusters. Cluster IDs are 1..k,
// assigned by the smallest member index so the labeling is stable.
func Partition(parks []domain.GeoPark, k int, linkage Linkage) ([]domain.ClusterAssignment, error) {
	n := len(parks)
	if k < 1 {
		return nil, fmt.Errorf("cluster: invalid cluster count %d", k)
	}
	if n < 2 {
		return nil, ErrTooFewParks
	}
	if k >= n {
		// Every park is its own cluster; nothing to merge.
		assignments := make([]domain.ClusterAssignment, n)
		for i, p := range parks {
			assignments[i] = domain.ClusterAssignment{ParkName: p.ParkName, ClusterID: i + 1}
		}
		return assignments, nil
	}

	members, dist := initialize(parks)
	active := n

	for active > k {
		i, j := closestPair(dist, members)
		merge(dist, members, i, j, linkage)
		active--
	}

	return label(parks, members), nil
}

// Subpartition splits one cluster into max(len/divisor, 1) subclusters
// using Ward's linkage. Groups too small to split are passed through
// unchanged as a single cluster — never an error.
func Subpartition(parks []domain.GeoPark, divisor int) ([]domain.ClusterAssignment, error) {
	if divisor < 1 {
		return nil, fmt.Errorf("cluster: invalid subcluster divisor %d", divisor)
	}

	k := len(parks) / divisor
	if k < 1 {
		k = 1
	}
	if k == 1 || len(parks) < 2 {
		assignments := make([]domain.ClusterAssignment, len(parks))
		for i, p := range parks {
			assignments[i] = domain.ClusterAssignment{ParkName: p.ParkName, ClusterID: 1}
		}
		return assignments, nil
	}

	return Partition(parks, k, LinkageWard)
}

// Groups materializes assignments into per-cluster park slices, ordered
// by cluster ID. Parks keep their input order within each group.
func Groups(parks []domain.GeoPark, assignments []domain.ClusterAssignment) [][]domain.GeoPark {
	maxID := 0
	for _, a := range assignments {
		if a.ClusterID > maxID {
			maxID = a.ClusterID
		}
	}

	groups := make([][]domain.GeoPark, maxID)
	for i, a := range assignments {
		groups[a.ClusterID-1] = append(groups[a.ClusterID-1], parks[i])
	}
	return groups
}

// initialize builds singleton clusters and the park-level distance matrix.
func initialize(parks []domain.GeoPark) ([][]int, [][]float64) {
	n := len(parks)
	members := make([][]int, n)
	for i := range members {
		members[i] = []int{i}
	}
	return members, domain.DistanceMatrix(parks)
}

// closestPair scans active clusters for the minimum dissimilarity.
// Strict less-than keeps the first (lowest-index) pair on ties.
func closestPair(dist [][]float64, members [][]int) (int, int) {
	best := math.Inf(1)
	bi, bj := -1, -1
	for i := range dist {
		if members[i] == nil {
			continue
		}
		for j := i + 1; j < len(dist); j++ {
			if members[j] == nil {
				continue
			}
			if dist[i][j] < best {
				best = dist[i][j]
				bi, bj = i, j
			}
		}
	}
	return bi, bj
}

// merge folds cluster j into cluster i, updating dissimilarities to every
// other active cluster with the Lance-Williams rule for the linkage.
func merge(dist [][]float64, members [][]int, i, j int, linkage Linkage) {
	ni := float64(len(members[i]))
	nj := float64(len(members[j]))
	dij := dist[i][j]

	for k := range dist {
		if k == i || k == j || members[k] == nil {
			continue
		}
		dik := dist[i][k]
		djk := dist[j][k]

		var d float64
		switch linkage {
		case LinkageWard:
			nk := float64(len(members[k]))
			total := ni + nj + nk
			d = math.Sqrt(((ni+nk)*dik*dik + (nj+nk)*djk*djk - nk*dij*dij) / total)
		default: // LinkageAverage
			d = (ni*dik + nj*djk) / (ni + nj)
		}
		dist[i][k] = d
		dist[k][i] = d
	}

	members[i] = append(members[i], members[j]...)
	members[j] = nil
}

// label converts the surviving clusters into 1-based assignments, numbered
// by each cluster's smallest member index.
func label(parks []domain.GeoPark, members [][]int) []domain.ClusterAssignment {
	type group struct {
		min     int
		indices []int
	}

	var groups []group
	for _, m := range members {
		if m == nil {
			continue
		}
		minIdx := m[0]
		for _, idx := range m {
			if idx < minIdx {
				minIdx = idx
			}
		}
		groups = append(groups, group{min: minIdx, indices: m})
	}
	sort.Slice(groups, func(a, b int) bool { return groups[a].min < groups[b].min })

	assignments := make([]domain.ClusterAssignment, len(parks))
	for id, g := range groups {
		for _, idx := range g.indices {
			assignments[idx] = domain.ClusterAssignment{
				ParkName:  parks[idx].ParkName,
				ClusterID: id + 1,
			}
		}
	}
	return assignments
}
