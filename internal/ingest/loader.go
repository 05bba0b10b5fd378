// Package ingest reads the raw NPS visitation CSV and the park coordinate
// lookup file, producing cleaned domain records. Malformed rows are dropped,
// never fatal: each drop is counted by reason, logged, and exported as a
// metric so silent data loss stays visible.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/park-tour-etl/internal/domain"
	"github.com/couchcryptid/park-tour-etl/internal/observability"
)

// Drop reasons used in logs, metrics, and the ingest summary.
const (
	ReasonShortRow    = "short_row"
	ReasonBadYear     = "bad_year"
	ReasonBadVisitors = "bad_visitors"
	ReasonBadCoords   = "bad_coords"
)

// yearTotalSentinel marks the synthetic per-park roll-up rows in the
// visitation CSV.
const yearTotalSentinel = "Total"

// Summary reports what happened to the rows of one input file.
type Summary struct {
	Loaded   int
	Sentinel int
	Dropped  map[string]int
}

// TotalDropped sums the per-reason drop counts.
func (s Summary) TotalDropped() int {
	n := 0
	for _, c := range s.Dropped {
		n += c
	}
	return n
}

// Loader parses the two input files.
type Loader struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLoader creates a Loader with the given observability.
func NewLoader(logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{logger: logger, metrics: metrics}
}

// LoadVisits reads the visitation CSV. Rows with a missing or unparseable
// visitor count or year are dropped and counted; "Total" sentinel rows are
// separated out and never become records.
func (l *Loader) LoadVisits(path string) ([]domain.VisitRecord, Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("open visits csv: %w", err)
	}
	defer f.Close()

	records, summary, err := l.parseVisits(f)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("parse visits csv %s: %w", path, err)
	}

	l.logger.Info("visits loaded",
		"path", path,
		"records", summary.Loaded,
		"sentinel_rows", summary.Sentinel,
		"dropped", summary.TotalDropped(),
	)
	return records, summary, nil
}

func (l *Loader) parseVisits(r io.Reader) ([]domain.VisitRecord, Summary, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // row length validated per-row below

	header, err := cr.Read()
	if err != nil {
		return nil, Summary{}, fmt.Errorf("read header: %w", err)
	}
	cols, err := columnIndex(header, "Region", "State", "Unit.Name", "YearRaw", "Visitors")
	if err != nil {
		return nil, Summary{}, err
	}

	summary := Summary{Dropped: make(map[string]int)}
	var records []domain.VisitRecord

	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, Summary{}, fmt.Errorf("line %d: %w", line, err)
		}

		rec, reason := parseVisitRow(row, cols)
		switch reason {
		case "":
			records = append(records, rec)
			summary.Loaded++
			l.metrics.RecordsLoaded.Inc()
		case yearTotalSentinel:
			summary.Sentinel++
			l.metrics.SentinelRows.Inc()
		default:
			summary.Dropped[reason]++
			l.metrics.RecordsDropped.WithLabelValues(reason).Inc()
			l.logger.Debug("visit row dropped", "line", line, "reason", reason)
		}
	}

	return records, summary, nil
}

// parseVisitRow parses one data row. The second return value is empty for
// a good row, the sentinel marker for a "Total" row, or a drop reason.
func parseVisitRow(row []string, cols map[string]int) (domain.VisitRecord, string) {
	max := 0
	for _, i := range cols {
		if i > max {
			max = i
		}
	}
	if len(row) <= max {
		return domain.VisitRecord{}, ReasonShortRow
	}

	yearRaw := strings.TrimSpace(row[cols["YearRaw"]])
	if yearRaw == yearTotalSentinel {
		return domain.VisitRecord{}, yearTotalSentinel
	}
	year, err := strconv.Atoi(yearRaw)
	if err != nil || year < 1800 || year > 2100 {
		return domain.VisitRecord{}, ReasonBadYear
	}

	visitors, err := strconv.ParseInt(strings.TrimSpace(row[cols["Visitors"]]), 10, 64)
	if err != nil || visitors < 0 {
		return domain.VisitRecord{}, ReasonBadVisitors
	}

	return domain.VisitRecord{
		Region:   strings.TrimSpace(row[cols["Region"]]),
		State:    strings.TrimSpace(row[cols["State"]]),
		ParkName: strings.TrimSpace(row[cols["Unit.Name"]]),
		Year:     year,
		Visitors: visitors,
	}, ""
}

// LoadLocations reads the coordinate lookup file. Rows with unparseable or
// out-of-range coordinates are dropped and counted.
func (l *Loader) LoadLocations(path string) ([]domain.ParkLocation, Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("open coordinates file: %w", err)
	}
	defer f.Close()

	locs, summary, err := l.parseLocations(f)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("parse coordinates file %s: %w", path, err)
	}

	l.logger.Info("coordinates loaded",
		"path", path,
		"parks", summary.Loaded,
		"dropped", summary.TotalDropped(),
	)
	return locs, summary, nil
}

func (l *Loader) parseLocations(r io.Reader) ([]domain.ParkLocation, Summary, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, Summary{}, fmt.Errorf("read header: %w", err)
	}
	cols, err := columnIndex(header, "Park Name", "Latitude", "Longitude")
	if err != nil {
		return nil, Summary{}, err
	}

	summary := Summary{Dropped: make(map[string]int)}
	var locs []domain.ParkLocation

	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, Summary{}, fmt.Errorf("line %d: %w", line, err)
		}

		loc, reason := parseLocationRow(row, cols)
		if reason != "" {
			summary.Dropped[reason]++
			l.metrics.RecordsDropped.WithLabelValues(reason).Inc()
			l.logger.Debug("coordinate row dropped", "line", line, "reason", reason)
			continue
		}
		locs = append(locs, loc)
		summary.Loaded++
	}

	return locs, summary, nil
}

func parseLocationRow(row []string, cols map[string]int) (domain.ParkLocation, string) {
	max := 0
	for _, i := range cols {
		if i > max {
			max = i
		}
	}
	if len(row) <= max {
		return domain.ParkLocation{}, ReasonShortRow
	}

	lat, errLat := strconv.ParseFloat(strings.TrimSpace(row[cols["Latitude"]]), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(row[cols["Longitude"]]), 64)
	if errLat != nil || errLon != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return domain.ParkLocation{}, ReasonBadCoords
	}

	name := strings.TrimSpace(row[cols["Park Name"]])
	if name == "" {
		return domain.ParkLocation{}, ReasonShortRow
	}

	return domain.ParkLocation{
		ParkName: name,
		Geo:      domain.Geo{Lat: lat, Lon: lon},
	}, ""
}

// columnIndex maps required header names to their positions.
func columnIndex(header []string, required ...string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}

	cols := make(map[string]int, len(required))
	for _, name := range required {
		i, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
		cols[name] = i
	}
	return cols, nil
}
