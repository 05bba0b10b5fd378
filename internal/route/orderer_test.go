package route

import (
	"math"
	"testing"

	"github.com/couchcryptid/park-tour-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func park(name string, lat, lon float64) domain.GeoPark {
	return domain.GeoPark{ParkName: name, Geo: domain.Geo{Lat: lat, Lon: lon}}
}

func assertChained(t *testing.T, tour domain.TourOrder) {
	t.Helper()
	n := len(tour.Segments)
	for i := 0; i < n; i++ {
		next := tour.Segments[(i+1)%n]
		assert.Equal(t, tour.Segments[i].To, next.From,
			"segment %d endpoint must chain into segment %d", i, (i+1)%n)
	}
}

func TestOrder_EmptyCluster(t *testing.T) {
	tour, err := Order(1, nil, Options{})
	require.NoError(t, err)

	assert.True(t, tour.Closed)
	assert.Empty(t, tour.Parks)
	assert.Empty(t, tour.Segments)
}

func TestOrder_SinglePark(t *testing.T) {
	tour, err := Order(1, []domain.GeoPark{park("A", 45, -120)}, Options{})
	require.NoError(t, err)

	// A single park is a closed degenerate tour with zero segments,
	// not a self-loop.
	assert.True(t, tour.Closed)
	require.Len(t, tour.Parks, 1)
	assert.Empty(t, tour.Segments)
	assert.Zero(t, tour.LengthKm)
}

func TestOrder_TwoParks(t *testing.T) {
	tour, err := Order(1, []domain.GeoPark{
		park("A", 45, -120),
		park("B", 40, -110),
	}, Options{})
	require.NoError(t, err)

	// Out and back: two segments forming a closed loop.
	require.Len(t, tour.Segments, 2)
	assert.Equal(t, "A", tour.Segments[0].From.ParkName)
	assert.Equal(t, "B", tour.Segments[0].To.ParkName)
	assert.Equal(t, "B", tour.Segments[1].From.ParkName)
	assert.Equal(t, "A", tour.Segments[1].To.ParkName)
	assertChained(t, tour)
}

func TestOrder_ThreeParksIsOptimal(t *testing.T) {
	parks := []domain.GeoPark{
		park("A", 44.6, -110.5),
		park("B", 37.8, -119.5),
		park("C", 36.1, -112.1),
	}

	tour, err := Order(2, parks, Options{})
	require.NoError(t, err)

	require.Len(t, tour.Segments, 3)
	assertChained(t, tour)

	// Every closed tour over three vertices traverses the same cycle, so
	// the heuristic result must equal the optimum exactly.
	m := domain.DistanceMatrix(parks)
	optimal := m[0][1] + m[1][2] + m[2][0]
	assert.InDelta(t, optimal, tour.LengthKm, 1e-9)
}

func TestOrder_VisitsEachParkOnce(t *testing.T) {
	parks := []domain.GeoPark{
		park("Yellowstone", 44.6, -110.5),
		park("Yosemite", 37.83, -119.5),
		park("Grand Canyon", 36.1, -112.1),
		park("Zion", 37.3, -113.0),
		park("Glacier", 48.7, -113.8),
		park("Olympic", 47.8, -123.6),
	}

	tour, err := Order(1, parks, Options{TwoOpt: true})
	require.NoError(t, err)

	require.Len(t, tour.Parks, len(parks))
	require.Len(t, tour.Segments, len(parks))
	assertChained(t, tour)

	seen := make(map[string]int)
	for _, p := range tour.Parks {
		seen[p.ParkName]++
	}
	for _, p := range parks {
		assert.Equal(t, 1, seen[p.ParkName], "park %s must appear exactly once", p.ParkName)
	}
}

func TestOrder_TwoOptNeverWorse(t *testing.T) {
	parks := []domain.GeoPark{
		park("A", 40.0, -100.0),
		park("B", 41.0, -104.0),
		park("C", 44.0, -103.0),
		park("D", 45.0, -99.0),
		park("E", 42.5, -96.0),
		park("F", 40.5, -97.5),
	}

	plain, err := Order(1, parks, Options{})
	require.NoError(t, err)
	polished, err := Order(1, parks, Options{TwoOpt: true})
	require.NoError(t, err)

	assert.LessOrEqual(t, polished.LengthKm, plain.LengthKm+1e-9)
}

func TestOrder_Deterministic(t *testing.T) {
	parks := []domain.GeoPark{
		park("A", 44.6, -110.5),
		park("B", 37.8, -119.5),
		park("C", 36.1, -112.1),
		park("D", 48.7, -113.8),
	}

	first, err := Order(1, parks, Options{TwoOpt: true})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Order(1, parks, Options{TwoOpt: true})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestOrder_NonFiniteDistance(t *testing.T) {
	parks := []domain.GeoPark{
		park("A", math.NaN(), -120),
		park("B", 40, -110),
	}

	_, err := Order(1, parks, Options{})
	require.ErrorIs(t, err, ErrNonFiniteDistance)
}

func TestTwoOpt_UncrossesTour(t *testing.T) {
	// Four corners of a rough square; the crossed order A,C,B,D is longer
	// than the perimeter order and must be repaired.
	parks := []domain.GeoPark{
		park("A", 40, -110), // SW
		park("C", 44, -100), // NE
		park("B", 44, -110), // NW
		park("D", 40, -100), // SE
	}
	m := domain.DistanceMatrix(parks)

	crossed := []int{0, 1, 2, 3} // A→C→B→D→A crosses itself
	fixed := twoOpt(m, crossed)

	assert.Less(t, tourLength(m, fixed), tourLength(m, crossed))
}
