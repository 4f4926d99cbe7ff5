package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/verdantis/peaproc/internal/clock"
	"github.com/verdantis/peaproc/internal/infrastructure/config"
	"github.com/verdantis/peaproc/internal/infrastructure/telemetry"
	"github.com/verdantis/peaproc/internal/metrics"
	"github.com/verdantis/peaproc/internal/scenario"
)

func main() {
	// Parse flags
	var (
		configPath   = flag.String("config", "", "Path to configuration file")
		scenarioPath = flag.String("scenario", "", "Path to scenario JSON file")
		outputPath   = flag.String("output", "", "Path to write the report JSON (stdout if empty)")
		metricsAddr  = flag.String("metrics-addr", "", "Address to serve Prometheus metrics on (disabled if empty)")
	)
	flag.Parse()

	if *scenarioPath == "" {
		log.Fatal("a scenario file is required (-scenario)")
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}
	defer logger.Sync()

	// Initialize telemetry
	ctx := context.Background()
	telConfig := &telemetry.Config{
		ServiceName:    "peaproc-analyzer",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SamplingRate:   cfg.Telemetry.SamplingRate,
		ExportTimeout:  cfg.Telemetry.ExportTimeout,
		BatchTimeout:   cfg.Telemetry.BatchTimeout,
	}

	provider, err := telemetry.InitializeOpenTelemetry(ctx, telConfig)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, logger)
	}

	if err := run(ctx, cfg, logger, *scenarioPath, *outputPath); err != nil {
		logger.Error("analysis failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, scenarioPath, outputPath string) error {
	collector := metrics.Fanout{promCollector{}}
	if cfg.Telemetry.Enabled {
		otelCollector, err := metrics.NewOTelCollector("peaproc-analyzer")
		if err != nil {
			return fmt.Errorf("building otel collector: %w", err)
		}
		collector = append(collector, otelCollector)
	}

	runner, err := scenario.NewRunner(cfg, clock.RealClock{}, collector, logger)
	if err != nil {
		return fmt.Errorf("building runner: %w", err)
	}

	raw, err := os.ReadFile(scenarioPath)
	if err != nil {
		return fmt.Errorf("reading scenario file: %w", err)
	}

	var s scenario.Scenario
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("decoding scenario file: %w", err)
	}

	report, err := runner.Run(ctx, &s)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	out = append(out, '\n')

	if outputPath == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	logger.Info("report written",
		zap.String("scenario", s.Name),
		zap.String("output", outputPath),
	)
	return nil
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler())

	logger.Info("serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics server stopped", zap.Error(err))
	}
}
