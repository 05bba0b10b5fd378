// Package pipeline orchestrates one batch planning run: load → aggregate →
// join → cluster → order → render → report. Each stage fully consumes its
// input before the next starts, and the cluster fan-out is a pure map over
// the cluster collection — no shared mutable accumulation between stages.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/park-tour-etl/internal/aggregate"
	"github.com/couchcryptid/park-tour-etl/internal/cluster"
	"github.com/couchcryptid/park-tour-etl/internal/config"
	"github.com/couchcryptid/park-tour-etl/internal/domain"
	"github.com/couchcryptid/park-tour-etl/internal/geojoin"
	"github.com/couchcryptid/park-tour-etl/internal/ingest"
	"github.com/couchcryptid/park-tour-etl/internal/observability"
	"github.com/couchcryptid/park-tour-etl/internal/route"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// PlanPublisher delivers a finished plan to an external sink.
type PlanPublisher interface {
	PublishPlan(ctx context.Context, plan domain.TourPlan) error
}

// Pipeline wires the planning stages together. router and publisher may
// be nil, which disables route rendering and plan publishing respectively.
type Pipeline struct {
	cfg       *config.Config
	router    domain.RouteProvider
	publisher PlanPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Pipeline with the given stages and observability.
func New(cfg *config.Config, router domain.RouteProvider, publisher PlanPublisher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		router:    router,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run executes one full planning run and writes the report.
func (p *Pipeline) Run(ctx context.Context) (domain.TourPlan, error) {
	loader := ingest.NewLoader(p.logger, p.metrics)

	var (
		records    []domain.VisitRecord
		visitStats ingest.Summary
		locations  []domain.ParkLocation
	)
	err := p.timed("load", func() error {
		var err error
		records, visitStats, err = loader.LoadVisits(p.cfg.VisitsCSV)
		if err != nil {
			return err
		}
		locations, _, err = loader.LoadLocations(p.cfg.CoordsCSV)
		return err
	})
	if err != nil {
		return domain.TourPlan{}, err
	}

	var (
		aggs aggregates
		top  []domain.ParkTotal
	)
	_ = p.timed("aggregate", func() error {
		aggs = aggregates{
			ByYear:   aggregate.TotalsByYear(records),
			ByRegion: aggregate.TotalsByRegion(records),
			ByState:  aggregate.TotalsByState(records),
		}
		top = aggregate.TopParks(aggregate.ParkTotals(records), p.cfg.TopParks)
		return nil
	})

	var (
		joined []domain.GeoPark
		misses []string
	)
	_ = p.timed("join", func() error {
		joiner := geojoin.NewJoiner(p.logger, p.metrics)
		joined, misses = joiner.Join(top, locations)
		return nil
	})

	var groups [][]domain.GeoPark
	err = p.timed("cluster", func() error {
		var err error
		groups, err = p.partition(joined)
		return err
	})
	if err != nil {
		return domain.TourPlan{}, err
	}

	var tours []domain.TourOrder
	err = p.timed("order", func() error {
		var err error
		tours, err = orderTours(groups, route.Options{TwoOpt: p.cfg.TwoOpt})
		return err
	})
	if err != nil {
		return domain.TourPlan{}, err
	}

	stats := domain.PlanStats{
		RecordsLoaded:   visitStats.Loaded,
		RecordsDropped:  visitStats.TotalDropped(),
		SentinelRows:    visitStats.Sentinel,
		ParksAggregated: len(top),
		JoinMisses:      len(misses),
		ParksPlanned:    len(joined),
	}

	_ = p.timed("render", func() error {
		p.renderRoutes(ctx, tours, &stats)
		return nil
	})

	for _, t := range tours {
		stats.SegmentsTotal += len(t.Segments)
		p.metrics.ToursPlanned.Inc()
		p.metrics.SegmentsPlanned.Add(float64(len(t.Segments)))
	}

	plan := domain.NewTourPlan(joined, p.cfg.Clusters, tours, stats)

	reportPath, err := WriteReport(p.cfg.OutputDir, Report{Plan: plan, Aggregates: aggs})
	if err != nil {
		return domain.TourPlan{}, err
	}
	p.logger.Info("plan complete",
		"plan_id", plan.ID,
		"tours", len(plan.Tours),
		"parks", stats.ParksPlanned,
		"report", reportPath,
	)

	if p.publisher != nil {
		if err := p.publisher.PublishPlan(ctx, plan); err != nil {
			return domain.TourPlan{}, fmt.Errorf("publish plan: %w", err)
		}
	}

	return plan, nil
}

// partition splits the joined parks into tour-sized groups: a top-level
// k-way cut, then an optional Ward subcluster pass within each group.
// Fewer than two parks skip clustering entirely.
func (p *Pipeline) partition(parks []domain.GeoPark) ([][]domain.GeoPark, error) {
	if len(parks) == 0 {
		p.logger.Warn("no parks to plan, emitting empty plan")
		return nil, nil
	}
	if len(parks) == 1 {
		return [][]domain.GeoPark{parks}, nil
	}

	assignments, err := cluster.Partition(parks, p.cfg.Clusters, cluster.LinkageAverage)
	if err != nil {
		return nil, fmt.Errorf("cluster parks: %w", err)
	}
	groups := cluster.Groups(parks, assignments)

	if !p.cfg.Subcluster {
		return groups, nil
	}

	var out [][]domain.GeoPark
	for _, g := range groups {
		sub, err := cluster.Subpartition(g, p.cfg.SubclusterDivisor)
		if err != nil {
			return nil, fmt.Errorf("subcluster group: %w", err)
		}
		out = append(out, cluster.Groups(g, sub)...)
	}
	return out, nil
}

// orderTours maps each group to a closed tour. Cluster IDs are renumbered
// sequentially over the final group list.
func orderTours(groups [][]domain.GeoPark, opts route.Options) ([]domain.TourOrder, error) {
	tours := make([]domain.TourOrder, 0, len(groups))
	for i, g := range groups {
		tour, err := route.Order(i+1, g, opts)
		if err != nil {
			return nil, fmt.Errorf("order cluster %d: %w", i+1, err)
		}
		tours = append(tours, tour)
	}
	return tours, nil
}

// renderRoutes resolves each tour segment into a road geometry. A failed
// segment is marked unavailable and the run continues; the routing
// service never aborts the pipeline.
func (p *Pipeline) renderRoutes(ctx context.Context, tours []domain.TourOrder, stats *domain.PlanStats) {
	if p.router == nil {
		return
	}

	total := 0
	for _, t := range tours {
		total += len(t.Segments)
	}
	bar := newProgressBar(total)

	for ti := range tours {
		segments := tours[ti].Segments
		for si := range segments {
			seg := &segments[si]
			path, err := p.router.Route(ctx, seg.From.Geo, seg.To.Geo)
			if err != nil {
				seg.Status = domain.RouteStatusUnavailable
				stats.RoutesFailed++
				p.logger.Warn("route unavailable",
					"from", seg.From.ParkName,
					"to", seg.To.ParkName,
					"error", err,
				)
			} else {
				seg.Path = path
				seg.Status = domain.RouteStatusResolved
				stats.RoutesResolved++
			}
			if bar != nil {
				_ = bar.Add(1)
			}
		}
	}
}

// timed runs one stage and records its wall-clock duration.
func (p *Pipeline) timed(stage string, fn func() error) error {
	start := domain.Clock().Now()
	err := fn()
	elapsed := domain.Clock().Since(start)
	p.metrics.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	p.logger.Debug("stage finished", "stage", stage, "duration", elapsed)
	return err
}

// newProgressBar returns a bar when attached to a terminal, nil otherwise.
func newProgressBar(total int) *progressbar.ProgressBar {
	if total == 0 || !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("resolving routes"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
