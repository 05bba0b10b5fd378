package geojoin

import (
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/park-tour-etl/internal/domain"
	"github.com/couchcryptid/park-tour-etl/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJoiner() *Joiner {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewJoiner(logger, observability.NewMetricsForTesting())
}

func TestJoin(t *testing.T) {
	totals := []domain.ParkTotal{
		{ParkName: "Yellowstone National Park", State: "WY", Visitors: 8354887},
		{ParkName: "Yosemite National Park", State: "CA", Visitors: 5028868},
		{ParkName: "Misspelled Natl Park", State: "UT", Visitors: 12345},
	}
	locations := []domain.ParkLocation{
		{ParkName: "Yellowstone National Park", Geo: domain.Geo{Lat: 44.6, Lon: -110.5}},
		{ParkName: "Yosemite National Park", Geo: domain.Geo{Lat: 37.83, Lon: -119.5}},
		{ParkName: "Unvisited Park", Geo: domain.Geo{Lat: 40, Lon: -100}},
	}

	joined, misses := testJoiner().Join(totals, locations)

	require.Len(t, joined, 2)
	assert.Equal(t, "Yellowstone National Park", joined[0].ParkName)
	assert.Equal(t, 44.6, joined[0].Geo.Lat)
	assert.Equal(t, int64(8354887), joined[0].Visitors)

	// Inner join semantics: the unmatched total is dropped and reported.
	assert.Equal(t, []string{"Misspelled Natl Park"}, misses)
}

func TestJoin_ExactMatchOnly(t *testing.T) {
	totals := []domain.ParkTotal{{ParkName: "yellowstone national park"}}
	locations := []domain.ParkLocation{{ParkName: "Yellowstone National Park"}}

	joined, misses := testJoiner().Join(totals, locations)

	// The join key is case- and format-sensitive.
	assert.Empty(t, joined)
	assert.Len(t, misses, 1)
}

func TestJoin_OutputIsStrictSubset(t *testing.T) {
	totals := []domain.ParkTotal{
		{ParkName: "A"}, {ParkName: "B"}, {ParkName: "C"},
	}
	locations := []domain.ParkLocation{{ParkName: "B"}}

	joined, _ := testJoiner().Join(totals, locations)

	assert.LessOrEqual(t, len(joined), len(totals))
	assert.LessOrEqual(t, len(joined), len(locations))
}

func TestJoin_EmptyInputs(t *testing.T) {
	joined, misses := testJoiner().Join(nil, nil)
	assert.Empty(t, joined)
	assert.Empty(t, misses)
}
