package aggregate

import (
	"math/rand"
	"testing"

	"github.com/couchcryptid/park-tour-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []domain.VisitRecord {
	return []domain.VisitRecord{
		{Region: "IM", State: "WY", ParkName: "Yellowstone National Park", Year: 2015, Visitors: 4097710},
		{Region: "IM", State: "WY", ParkName: "Yellowstone National Park", Year: 2016, Visitors: 4257177},
		{Region: "PW", State: "CA", ParkName: "Yosemite National Park", Year: 2016, Visitors: 5028868},
		{Region: "SE", State: "TN", ParkName: "Great Smoky Mountains National Park", Year: 2016, Visitors: 11312786},
	}
}

func TestParkTotals(t *testing.T) {
	totals := ParkTotals(sampleRecords())

	require.Len(t, totals, 3)
	// Sorted by park name.
	assert.Equal(t, "Great Smoky Mountains National Park", totals[0].ParkName)
	assert.Equal(t, "Yellowstone National Park", totals[1].ParkName)
	assert.Equal(t, int64(4097710+4257177), totals[1].Visitors)
	assert.Equal(t, "WY", totals[1].State)
}

func TestParkTotals_OrderIndependent(t *testing.T) {
	records := sampleRecords()
	expected := ParkTotals(records)

	// Aggregation must be associative and commutative: shuffling the input
	// never changes the totals.
	for i := 0; i < 10; i++ {
		shuffled := make([]domain.VisitRecord, len(records))
		copy(shuffled, records)
		rand.New(rand.NewSource(int64(i))).Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		if diff := cmp.Diff(expected, ParkTotals(shuffled)); diff != "" {
			t.Fatalf("totals changed under shuffle (-want +got):\n%s", diff)
		}
	}
}

func TestTotalsByYear(t *testing.T) {
	totals := TotalsByYear(sampleRecords())

	require.Len(t, totals, 2)
	assert.Equal(t, "2015", totals[0].Key)
	assert.Equal(t, int64(4097710), totals[0].Visitors)
	assert.Equal(t, "2016", totals[1].Key)
	assert.Equal(t, int64(4257177+5028868+11312786), totals[1].Visitors)
}

func TestTotalsByRegion(t *testing.T) {
	totals := TotalsByRegion(sampleRecords())

	require.Len(t, totals, 3)
	assert.Equal(t, "IM", totals[0].Key)
	assert.Equal(t, int64(4097710+4257177), totals[0].Visitors)
}

func TestTotalsByState(t *testing.T) {
	totals := TotalsByState(sampleRecords())

	require.Len(t, totals, 3)
	assert.Equal(t, "CA", totals[0].Key)
	assert.Equal(t, "TN", totals[1].Key)
	assert.Equal(t, "WY", totals[2].Key)
}

func TestTopParks(t *testing.T) {
	totals := ParkTotals(sampleRecords())

	t.Run("selects highest totals", func(t *testing.T) {
		top := TopParks(totals, 2)
		require.Len(t, top, 2)
		assert.Equal(t, "Great Smoky Mountains National Park", top[0].ParkName)
		assert.Equal(t, "Yellowstone National Park", top[1].ParkName)
	})

	t.Run("n larger than input", func(t *testing.T) {
		assert.Len(t, TopParks(totals, 100), 3)
	})

	t.Run("n zero or negative", func(t *testing.T) {
		assert.Empty(t, TopParks(totals, 0))
		assert.Empty(t, TopParks(totals, -1))
	})

	t.Run("ties break by name", func(t *testing.T) {
		tied := []domain.ParkTotal{
			{ParkName: "Zion National Park", Visitors: 100},
			{ParkName: "Acadia National Park", Visitors: 100},
		}
		top := TopParks(tied, 1)
		require.Len(t, top, 1)
		assert.Equal(t, "Acadia National Park", top[0].ParkName)
	})

	t.Run("does not mutate input", func(t *testing.T) {
		before := make([]domain.ParkTotal, len(totals))
		copy(before, totals)
		TopParks(totals, 1)
		assert.Equal(t, before, totals)
	})
}
