// Command validate performs offline integrity checks on the tour-planning
// inputs and the planning stages: visitation CSV consistency, coordinate
// coverage for the top parks, cluster partition invariants, and tour
// geometry. It needs no network access and never calls the routing service.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -visits data/park_visits.csv \
//	  -coords data/park_coords.csv \
//	  -top 50 -clusters 5
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/couchcryptid/park-tour-etl/internal/aggregate"
	"github.com/couchcryptid/park-tour-etl/internal/cluster"
	"github.com/couchcryptid/park-tour-etl/internal/domain"
	"github.com/couchcryptid/park-tour-etl/internal/geojoin"
	"github.com/couchcryptid/park-tour-etl/internal/ingest"
	"github.com/couchcryptid/park-tour-etl/internal/observability"
	"github.com/couchcryptid/park-tour-etl/internal/route"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	visits := flag.String("visits", "", "path to the NPS visitation CSV")
	coords := flag.String("coords", "", "path to the park coordinate CSV")
	top := flag.Int("top", 50, "number of most-visited parks to check")
	clusters := flag.Int("clusters", 5, "number of geographic clusters")
	flag.Parse()

	if *visits == "" || *coords == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*visits, *coords, *top, *clusters); code != 0 {
		os.Exit(code)
	}
}

func run(visitsPath, coordsPath string, top, k int) int {
	fmt.Println("=== Park Tour Data Integrity Validation ===")
	fmt.Println()

	logger := observability.NewLogger("error", "text")
	metrics := observability.NewMetricsForTesting()
	loader := ingest.NewLoader(logger, metrics)

	records, visitSummary, err := loader.LoadVisits(visitsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load visits CSV: %v\n", err)
		return 1
	}
	locations, coordSummary, err := loader.LoadLocations(coordsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load coordinates CSV: %v\n", err)
		return 1
	}

	totals := aggregate.ParkTotals(records)
	topParks := aggregate.TopParks(totals, top)
	joined, misses := geojoin.NewJoiner(logger, metrics).Join(topParks, locations)

	phases := []*phase{
		validateVisitsCSV(records, visitSummary),
		validateCoordinates(locations, coordSummary),
		validateJoinCoverage(topParks, misses),
		validateClusterInvariants(joined, k),
		validateTourGeometry(joined, k),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d visitation rows (%d sentinel, %d dropped), %d coordinate rows, %d parks joined\n",
		visitSummary.Loaded, visitSummary.Sentinel, visitSummary.TotalDropped(),
		coordSummary.Loaded, len(joined))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Visitation CSV ──
// Checks that parsed records carry sane values and that no park appears
// twice for the same year.

func validateVisitsCSV(records []domain.VisitRecord, summary ingest.Summary) *phase {
	p := &phase{name: "Phase 1: Visitation CSV"}

	if len(records) == 0 {
		p.errorf("no visitation records parsed")
		return p
	}

	seen := make(map[string]int, len(records))
	for i, rec := range records {
		if rec.ParkName == "" {
			p.errorf("record %d: empty park name", i)
		}
		if rec.Year < 1800 || rec.Year > 2100 {
			p.errorf("record %d (%s): year %d out of range", i, rec.ParkName, rec.Year)
		}
		if rec.Visitors < 0 {
			p.errorf("record %d (%s): negative visitors %d", i, rec.ParkName, rec.Visitors)
		}
		key := fmt.Sprintf("%s|%d", rec.ParkName, rec.Year)
		seen[key]++
		if seen[key] == 2 {
			p.errorf("duplicate park-year row: %s", key)
		}
	}

	if summary.Loaded != len(records) {
		p.errorf("summary says %d loaded, got %d records", summary.Loaded, len(records))
	}
	return p
}

// ── Phase 2: Coordinates ──

func validateCoordinates(locations []domain.ParkLocation, summary ingest.Summary) *phase {
	p := &phase{name: "Phase 2: Coordinate Lookup"}

	if len(locations) == 0 {
		p.errorf("no coordinate rows parsed")
		return p
	}

	seen := make(map[string]bool, len(locations))
	for i, loc := range locations {
		if seen[loc.ParkName] {
			p.errorf("duplicate coordinate row for %q", loc.ParkName)
		}
		seen[loc.ParkName] = true
		if loc.Geo.Lat < -90 || loc.Geo.Lat > 90 || loc.Geo.Lon < -180 || loc.Geo.Lon > 180 {
			p.errorf("row %d (%s): coordinates out of range (%g, %g)", i, loc.ParkName, loc.Geo.Lat, loc.Geo.Lon)
		}
		if loc.Geo.Lat == 0 && loc.Geo.Lon == 0 {
			p.errorf("row %d (%s): null island coordinates", i, loc.ParkName)
		}
	}

	if summary.Loaded != len(locations) {
		p.errorf("summary says %d loaded, got %d rows", summary.Loaded, len(locations))
	}
	return p
}

// ── Phase 3: Join Coverage ──
// Every top-ranked park should have a coordinate row; misses shrink the
// plan silently, so they are surfaced here.

func validateJoinCoverage(topParks []domain.ParkTotal, misses []string) *phase {
	p := &phase{name: "Phase 3: Join Coverage (top parks)"}
	for _, name := range misses {
		p.errorf("top park %q has no coordinate row", name)
	}
	if len(misses) > 0 && len(misses) == len(topParks) {
		p.errorf("no top park joined; park names likely disagree between files")
	}
	return p
}

// ── Phase 4: Cluster Invariants ──
// The partition must cover every park exactly once with IDs in [1, k],
// and must be deterministic across runs.

func validateClusterInvariants(parks []domain.GeoPark, k int) *phase {
	p := &phase{name: "Phase 4: Cluster Invariants"}

	if len(parks) < 2 {
		fmt.Printf("  Note: %d joined park(s), clustering skipped\n", len(parks))
		return p
	}

	first, err := cluster.Partition(parks, k, cluster.LinkageAverage)
	if err != nil {
		p.errorf("partition: %v", err)
		return p
	}

	if len(first) != len(parks) {
		p.errorf("partition covers %d parks, expected %d", len(first), len(parks))
	}

	want := k
	if want > len(parks) {
		want = len(parks)
	}
	byPark := make(map[string]int, len(first))
	for _, a := range first {
		if a.ClusterID < 1 || a.ClusterID > want {
			p.errorf("park %q assigned cluster %d, expected [1, %d]", a.ParkName, a.ClusterID, want)
		}
		if _, dup := byPark[a.ParkName]; dup {
			p.errorf("park %q assigned more than once", a.ParkName)
		}
		byPark[a.ParkName] = a.ClusterID
	}

	second, err := cluster.Partition(parks, k, cluster.LinkageAverage)
	if err != nil {
		p.errorf("second partition: %v", err)
		return p
	}
	for i := range second {
		if second[i] != first[i] {
			p.errorf("partition not deterministic: %q got cluster %d then %d",
				second[i].ParkName, first[i].ClusterID, second[i].ClusterID)
		}
	}
	return p
}

// ── Phase 5: Tour Geometry ──
// Each cluster's tour must chain cyclically through every park exactly
// once, and the reported length must equal the sum of its legs.

func validateTourGeometry(parks []domain.GeoPark, k int) *phase {
	p := &phase{name: "Phase 5: Tour Geometry"}

	if len(parks) < 2 {
		return p
	}

	assignments, err := cluster.Partition(parks, k, cluster.LinkageAverage)
	if err != nil {
		p.errorf("partition: %v", err)
		return p
	}

	for ci, group := range cluster.Groups(parks, assignments) {
		tour, err := route.Order(ci+1, group, route.Options{TwoOpt: true})
		if err != nil {
			p.errorf("cluster %d: order: %v", ci+1, err)
			continue
		}
		checkTour(p, tour, group)
	}
	return p
}

func checkTour(p *phase, tour domain.TourOrder, group []domain.GeoPark) {
	id := tour.ClusterID

	if !tour.Closed {
		p.errorf("cluster %d: tour not closed", id)
	}
	if len(tour.Parks) != len(group) {
		p.errorf("cluster %d: tour has %d parks, group has %d", id, len(tour.Parks), len(group))
		return
	}

	wantSegments := len(group)
	if len(group) < 2 {
		wantSegments = 0
	}
	if len(tour.Segments) != wantSegments {
		p.errorf("cluster %d: %d parks but %d segments", id, len(group), len(tour.Segments))
		return
	}

	inGroup := make(map[string]bool, len(group))
	for _, park := range group {
		inGroup[park.ParkName] = true
	}
	visited := make(map[string]bool, len(tour.Parks))
	for _, park := range tour.Parks {
		if !inGroup[park.ParkName] {
			p.errorf("cluster %d: tour visits %q, not in its cluster", id, park.ParkName)
		}
		if visited[park.ParkName] {
			p.errorf("cluster %d: tour visits %q twice", id, park.ParkName)
		}
		visited[park.ParkName] = true
	}

	var sum float64
	for i, seg := range tour.Segments {
		if seg.From.ParkName != tour.Parks[i].ParkName {
			p.errorf("cluster %d: segment %d starts at %q, tour order says %q",
				id, i, seg.From.ParkName, tour.Parks[i].ParkName)
		}
		next := tour.Parks[(i+1)%len(tour.Parks)].ParkName
		if seg.To.ParkName != next {
			p.errorf("cluster %d: segment %d ends at %q, tour order says %q", id, i, seg.To.ParkName, next)
		}
		sum += domain.Haversine(seg.From.Geo, seg.To.Geo)
	}

	if len(tour.Segments) > 0 && math.Abs(sum-tour.LengthKm) > 1e-6 {
		p.errorf("cluster %d: length %.6f km but segments sum to %.6f km", id, tour.LengthKm, sum)
	}
}
