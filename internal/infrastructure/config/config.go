package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	Telemetry  TelemetryConfig  `koanf:"telemetry"`
	Cache      CacheConfig      `koanf:"cache"`
	Monitoring MonitoringConfig `koanf:"monitoring"`
	Tracking   TrackingConfig   `koanf:"tracking"`
	MonteCarlo MonteCarloConfig `koanf:"montecarlo"`
	Costing    CostingConfig    `koanf:"costing"`
	Integrity  IntegrityConfig  `koanf:"integrity"`
}

type TelemetryConfig struct {
	Enabled       bool          `koanf:"enabled"`
	OTLPEndpoint  string        `koanf:"otlp_endpoint"`
	SamplingRate  float64       `koanf:"sampling_rate"`
	ExportTimeout time.Duration `koanf:"export_timeout"`
	BatchTimeout  time.Duration `koanf:"batch_timeout"`
}

type CacheConfig struct {
	DefaultTTL      time.Duration `koanf:"default_ttl"`
	MaxEntries      int           `koanf:"max_entries"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

type MonitoringConfig struct {
	// MaxSamples caps the in-memory monitoring log; 0 means unbounded.
	MaxSamples int `koanf:"max_samples"`
	// MaintenancePriorityThreshold above which maintenance is recommended.
	MaintenancePriorityThreshold float64 `koanf:"maintenance_priority_threshold"`
	// FailureRates overrides the per-type exponential failure rates.
	FailureRates map[string]float64 `koanf:"failure_rates"`
	// DefaultFailureRate applies to equipment types without an entry.
	DefaultFailureRate float64 `koanf:"default_failure_rate"`
}

type TrackingConfig struct {
	// MaxEntries caps each tracking log; 0 means unbounded.
	MaxEntries int `koanf:"max_entries"`
}

type MonteCarloConfig struct {
	Iterations    int   `koanf:"iterations"`
	MaxIterations int   `koanf:"max_iterations"`
	Seed          int64 `koanf:"seed"`
}

type CostingConfig struct {
	Currency string `koanf:"currency"`
}

type IntegrityConfig struct {
	// MassBalanceTolerance is the relative imbalance still considered
	// consistent: |sum(in) - sum(out)| <= tolerance * sum(in).
	MassBalanceTolerance float64 `koanf:"mass_balance_tolerance"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Load defaults
	defaults := &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Telemetry: TelemetryConfig{
			Enabled:       false,
			OTLPEndpoint:  "localhost:4317",
			SamplingRate:  1.0,
			ExportTimeout: 30 * time.Second,
			BatchTimeout:  5 * time.Second,
		},
		Cache: CacheConfig{
			DefaultTTL:      5 * time.Minute,
			MaxEntries:      1000,
			CleanupInterval: time.Minute,
		},
		Monitoring: MonitoringConfig{
			MaxSamples:                   10000,
			MaintenancePriorityThreshold: 0.7,
			DefaultFailureRate:           0.0001,
		},
		Tracking: TrackingConfig{
			MaxEntries: 10000,
		},
		MonteCarlo: MonteCarloConfig{
			Iterations:    5000,
			MaxIterations: 100000,
			Seed:          1,
		},
		Costing: CostingConfig{
			Currency: "USD",
		},
		Integrity: IntegrityConfig{
			MassBalanceTolerance: 0.02,
		},
	}

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// Load from config file if one was given; the file is optional otherwise
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	} else {
		_ = k.Load(file.Provider("configs/peaproc.yaml"), yaml.Parser())
	}

	// Override with environment variables
	if err := k.Load(env.Provider("PEAPROC_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "PEAPROC_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
