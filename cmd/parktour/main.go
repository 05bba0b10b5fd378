// Command parktour runs the park visitation tour-planning pipeline: it
// loads the NPS visitation CSV and the park coordinate lookup, aggregates
// and joins them, clusters the top parks geographically, orders each
// cluster into a closed tour, optionally resolves road routes through an
// OSRM-compatible service, and writes the plan report.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/park-tour-etl/internal/adapter/kafka"
	"github.com/couchcryptid/park-tour-etl/internal/adapter/osrm"
	"github.com/couchcryptid/park-tour-etl/internal/config"
	"github.com/couchcryptid/park-tour-etl/internal/domain"
	"github.com/couchcryptid/park-tour-etl/internal/observability"
	"github.com/couchcryptid/park-tour-etl/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "parktour",
	Short: "Plans multi-park road tours from NPS visitation data",
	Long: `parktour turns the National Park Service visitation CSV into a set of
closed driving tours: the most-visited parks are clustered geographically,
each cluster is ordered into a short round trip, and segments can be
resolved into road geometries through an OSRM-compatible routing service.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		return run(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./parktour.yaml)")

	// Flag names mirror the config keys so file, env, and flag settings
	// all resolve through the same viper lookup.
	rootCmd.Flags().String("visits_csv", "", "path to the NPS visitation CSV")
	rootCmd.Flags().String("coords_csv", "", "path to the park coordinate CSV")
	rootCmd.Flags().Int("top_parks", 50, "number of most-visited parks to plan")
	rootCmd.Flags().Int("clusters", 5, "number of geographic clusters")
	rootCmd.Flags().Bool("subcluster", false, "split each cluster into subtours")
	rootCmd.Flags().Int("subcluster_divisor", 5, "target parks per subtour")
	rootCmd.Flags().Bool("two_opt", true, "polish tours with 2-opt local search")
	rootCmd.Flags().String("output_dir", "out", "directory for the plan report")
	rootCmd.Flags().Bool("routing_enabled", false, "resolve segments through the routing service")
	rootCmd.Flags().String("routing_base_url", "https://router.project-osrm.org", "OSRM-compatible routing service base URL")
	rootCmd.Flags().Bool("kafka_enabled", false, "publish the finished plan to Kafka")
	rootCmd.Flags().String("kafka_brokers", "localhost:9092", "comma-separated Kafka broker list")
	rootCmd.Flags().String("kafka_topic", "park-tour-plans", "Kafka topic for finished plans")
	rootCmd.Flags().String("log_level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().String("metrics_addr", "", "listen address for /metrics during the run (disabled when empty)")
}

func run(cfg *config.Config) error {
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", "error", err)
			}
		}()
		logger.Info("metrics server started", "addr", cfg.MetricsAddr)
	}

	// Routing is feature-flagged; without it segments stay great-circle legs.
	var router domain.RouteProvider
	if cfg.RoutingEnabled {
		client := osrm.NewClient(cfg.RoutingBaseURL, cfg.RoutingTimeout, cfg.RoutingMaxRetries, logger, metrics)
		router = osrm.NewCachedProvider(client, cfg.RoutingCacheSize, metrics)
		metrics.RoutingEnabled.Set(1)
		logger.Info("routing enabled",
			"base_url", cfg.RoutingBaseURL,
			"timeout", cfg.RoutingTimeout,
			"cache_size", cfg.RoutingCacheSize,
		)
	} else {
		logger.Info("routing disabled, segments keep great-circle legs")
	}

	var publisher pipeline.PlanPublisher
	if cfg.KafkaEnabled {
		writer := kafka.NewWriter(cfg.Brokers(), cfg.KafkaTopic, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publisher = writer
		logger.Info("kafka sink enabled", "topic", cfg.KafkaTopic)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(cfg, router, publisher, logger, metrics)
	if _, err := p.Run(ctx); err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
