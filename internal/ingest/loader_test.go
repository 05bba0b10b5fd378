package ingest

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/park-tour-etl/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const visitsCSV = `Region,State,Unit.Name,YearRaw,Visitors
IM,WY,Yellowstone National Park,2016,4257177
IM,WY,Yellowstone National Park,2015,4097710
IM,WY,Yellowstone National Park,Total,8354887
PW,CA,Yosemite National Park,2016,5028868
PW,CA,Yosemite National Park,2015,
SE,TN,Great Smoky Mountains National Park,badyear,100
SE,TN,Great Smoky Mountains National Park,2016,11312786
`

const coordsCSV = `Park Name,Latitude,Longitude
Yellowstone National Park,44.6,-110.5
Yosemite National Park,37.83,-119.5
Broken Park,notanumber,-100.0
Out Of Range Park,95.0,-100.0
`

func testLoader() *Loader {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewLoader(logger, observability.NewMetricsForTesting())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadVisits(t *testing.T) {
	l := testLoader()

	records, summary, err := l.LoadVisits(writeFile(t, "visits.csv", visitsCSV))
	require.NoError(t, err)

	assert.Len(t, records, 4)
	assert.Equal(t, 4, summary.Loaded)
	assert.Equal(t, 1, summary.Sentinel)
	assert.Equal(t, 1, summary.Dropped[ReasonBadVisitors])
	assert.Equal(t, 1, summary.Dropped[ReasonBadYear])

	first := records[0]
	assert.Equal(t, "IM", first.Region)
	assert.Equal(t, "WY", first.State)
	assert.Equal(t, "Yellowstone National Park", first.ParkName)
	assert.Equal(t, 2016, first.Year)
	assert.Equal(t, int64(4257177), first.Visitors)
}

func TestLoadVisits_SentinelRowsExcluded(t *testing.T) {
	l := testLoader()

	records, _, err := l.LoadVisits(writeFile(t, "visits.csv", visitsCSV))
	require.NoError(t, err)

	for _, rec := range records {
		assert.NotZero(t, rec.Year, "no Total row may become a record")
	}
}

func TestLoadVisits_MissingColumn(t *testing.T) {
	l := testLoader()

	_, _, err := l.LoadVisits(writeFile(t, "visits.csv", "Region,State\nIM,WY\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required column")
}

func TestLoadVisits_FileNotFound(t *testing.T) {
	l := testLoader()

	_, _, err := l.LoadVisits(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestLoadLocations(t *testing.T) {
	l := testLoader()

	locs, summary, err := l.LoadLocations(writeFile(t, "coords.csv", coordsCSV))
	require.NoError(t, err)

	require.Len(t, locs, 2)
	assert.Equal(t, 2, summary.Loaded)
	assert.Equal(t, 2, summary.Dropped[ReasonBadCoords])

	assert.Equal(t, "Yellowstone National Park", locs[0].ParkName)
	assert.Equal(t, 44.6, locs[0].Geo.Lat)
	assert.Equal(t, -110.5, locs[0].Geo.Lon)
}

func TestLoadLocations_NegativeVisitorGuard(t *testing.T) {
	l := testLoader()

	csv := "Region,State,Unit.Name,YearRaw,Visitors\nIM,WY,Somewhere,2016,-5\n"
	records, summary, err := l.LoadVisits(writeFile(t, "visits.csv", csv))
	require.NoError(t, err)

	assert.Empty(t, records)
	assert.Equal(t, 1, summary.Dropped[ReasonBadVisitors])
}
