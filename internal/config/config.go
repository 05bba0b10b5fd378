// Package config loads pipeline settings from a config file, environment
// variables, and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all pipeline settings.
type Config struct {
	// Input files.
	VisitsCSV string `mapstructure:"visits_csv"`
	CoordsCSV string `mapstructure:"coords_csv"`

	// Planning parameters.
	TopParks          int    `mapstructure:"top_parks"`
	Clusters          int    `mapstructure:"clusters"`
	SubclusterDivisor int    `mapstructure:"subcluster_divisor"`
	Subcluster        bool   `mapstructure:"subcluster"`
	TwoOpt            bool   `mapstructure:"two_opt"`
	OutputDir         string `mapstructure:"output_dir"`

	// Routing service.
	RoutingEnabled    bool          `mapstructure:"routing_enabled"`
	RoutingBaseURL    string        `mapstructure:"routing_base_url"`
	RoutingTimeout    time.Duration `mapstructure:"routing_timeout"`
	RoutingMaxRetries int           `mapstructure:"routing_max_retries"`
	RoutingCacheSize  int           `mapstructure:"routing_cache_size"`

	// Optional Kafka sink.
	KafkaEnabled bool   `mapstructure:"kafka_enabled"`
	KafkaBrokers string `mapstructure:"kafka_brokers"`
	KafkaTopic   string `mapstructure:"kafka_topic"`

	// Observability. MetricsAddr exposes /metrics and /healthz for the
	// duration of the run when non-empty.
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Brokers splits the comma-separated broker list.
func (c *Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// Load reads configuration with viper: defaults, then the optional config
// file, then environment variables, then bound command-line flags.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Register every key so environment overrides survive Unmarshal.
	v.SetDefault("visits_csv", "")
	v.SetDefault("coords_csv", "")
	v.SetDefault("top_parks", 50)
	v.SetDefault("clusters", 5)
	v.SetDefault("subcluster_divisor", 5)
	v.SetDefault("subcluster", false)
	v.SetDefault("two_opt", true)
	v.SetDefault("output_dir", "out")
	v.SetDefault("routing_enabled", false)
	v.SetDefault("routing_base_url", "https://router.project-osrm.org")
	v.SetDefault("routing_timeout", "10s")
	v.SetDefault("routing_max_retries", 3)
	v.SetDefault("routing_cache_size", 1000)
	v.SetDefault("kafka_enabled", false)
	v.SetDefault("kafka_brokers", "localhost:9092")
	v.SetDefault("kafka_topic", "park-tour-plans")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("metrics_addr", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("parktour")
		v.SetConfigType("yaml")
	}

	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	hook := viper.DecoderConfigOption(func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			dc.DecodeHook,
			mapstructure.StringToTimeDurationHookFunc(),
		)
	})
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks invariants that would otherwise surface mid-pipeline.
func (c *Config) Validate() error {
	if c.VisitsCSV == "" {
		return errors.New("visits_csv is required")
	}
	if c.CoordsCSV == "" {
		return errors.New("coords_csv is required")
	}
	if c.TopParks < 2 {
		return fmt.Errorf("top_parks must be at least 2, got %d", c.TopParks)
	}
	if c.Clusters < 1 {
		return fmt.Errorf("clusters must be at least 1, got %d", c.Clusters)
	}
	if c.SubclusterDivisor < 1 {
		return fmt.Errorf("subcluster_divisor must be at least 1, got %d", c.SubclusterDivisor)
	}
	if c.RoutingEnabled {
		if c.RoutingBaseURL == "" {
			return errors.New("routing_enabled is true but routing_base_url is not set")
		}
		if c.RoutingTimeout <= 0 {
			return errors.New("routing_timeout must be positive")
		}
		if c.RoutingMaxRetries < 0 {
			return errors.New("routing_max_retries must not be negative")
		}
		if c.RoutingCacheSize < 1 {
			return errors.New("routing_cache_size must be at least 1")
		}
	}
	if c.KafkaEnabled {
		if len(c.Brokers()) == 0 {
			return errors.New("kafka_enabled is true but kafka_brokers is empty")
		}
		if c.KafkaTopic == "" {
			return errors.New("kafka_enabled is true but kafka_topic is not set")
		}
	}
	return nil
}
