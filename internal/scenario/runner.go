package scenario

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/verdantis/peaproc/internal/clock"
	"github.com/verdantis/peaproc/internal/domain/audit"
	"github.com/verdantis/peaproc/internal/domain/equipment"
	"github.com/verdantis/peaproc/internal/domain/errors"
	"github.com/verdantis/peaproc/internal/infrastructure/cache"
	"github.com/verdantis/peaproc/internal/infrastructure/config"
	"github.com/verdantis/peaproc/internal/infrastructure/telemetry"
	"github.com/verdantis/peaproc/internal/metrics"
	"github.com/verdantis/peaproc/internal/service/costing"
	"github.com/verdantis/peaproc/internal/service/ecoefficiency"
	"github.com/verdantis/peaproc/internal/service/integrity"
	"github.com/verdantis/peaproc/internal/service/monitoring"
	"github.com/verdantis/peaproc/internal/service/process"
	"github.com/verdantis/peaproc/internal/service/sensitivity"
	"github.com/verdantis/peaproc/internal/service/tracking"
)

// Runner owns one engine context: every stateful component (cache,
// monitoring log, tracking logs, audit trail) lives here instead of in
// package-level state, so lifetime and isolation follow the runner.
type Runner struct {
	logger    *zap.Logger
	clock     clock.Clock
	collector metrics.Collector
	tracer    trace.Tracer
	validate  *validator.Validate

	cacheMaxEntries   int
	cacheCleanupEvery time.Duration
	lastCleanup       time.Time
	mcIterations      int
	mcSeed            int64

	costing    *costing.Service
	process    *process.Service
	monitoring *monitoring.Service
	tracking   *tracking.Service
	sens       *sensitivity.Service
	eco        *ecoefficiency.Service
	integrity  *integrity.Service
	cache      *cache.Cache
}

// NewRunner wires the engine services from configuration
func NewRunner(cfg *config.Config, clk clock.Clock, collector metrics.Collector, logger *zap.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, errors.NewValidationError("NIL_CONFIG", "configuration is required")
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	if collector == nil {
		collector = metrics.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	resultCache, err := cache.New(cfg.Cache.DefaultTTL, clk, collector, logger.Named("cache"))
	if err != nil {
		return nil, err
	}

	monitoringCfg := monitoring.Config{
		MaxSamples:                   cfg.Monitoring.MaxSamples,
		MaintenancePriorityThreshold: cfg.Monitoring.MaintenancePriorityThreshold,
		DefaultFailureRate:           cfg.Monitoring.DefaultFailureRate,
	}
	if len(cfg.Monitoring.FailureRates) > 0 {
		rates := make(map[equipment.Type]float64, len(cfg.Monitoring.FailureRates))
		for name, rate := range cfg.Monitoring.FailureRates {
			parsed, err := equipment.ParseType(name)
			if err != nil {
				return nil, err
			}
			rates[parsed] = rate
		}
		monitoringCfg.FailureRates = rates
	}

	return &Runner{
		logger:    logger,
		clock:     clk,
		collector: collector,
		tracer:    telemetry.Tracer("peaproc.scenario"),
		validate:  validator.New(),

		cacheMaxEntries:   cfg.Cache.MaxEntries,
		cacheCleanupEvery: cfg.Cache.CleanupInterval,
		lastCleanup:       clk.Now(),
		mcIterations:      cfg.MonteCarlo.Iterations,
		mcSeed:            cfg.MonteCarlo.Seed,

		costing:    costing.NewService(cfg.Costing.Currency),
		process:    process.NewService(),
		monitoring: monitoring.NewService(monitoringCfg, clk, collector, logger.Named("monitoring")),
		tracking:   tracking.NewService(cfg.Tracking.MaxEntries, clk, logger.Named("tracking")),
		sens:       sensitivity.NewService(cfg.MonteCarlo.MaxIterations, logger.Named("sensitivity")),
		eco:        ecoefficiency.NewService(nil, logger.Named("ecoefficiency")),
		integrity:  integrity.NewService(cfg.Integrity.MassBalanceTolerance, clk, collector, logger.Named("integrity")),
		cache:      resultCache,
	}, nil
}

// Monitoring exposes the runner's monitoring service
func (r *Runner) Monitoring() *monitoring.Service { return r.monitoring }

// Tracking exposes the runner's tracking service
func (r *Runner) Tracking() *tracking.Service { return r.tracking }

// Integrity exposes the runner's integrity service
func (r *Runner) Integrity() *integrity.Service { return r.integrity }

// Run validates the scenario, executes every analysis it configures and
// returns the assembled report. Identical scenarios are served from the
// result cache. The run and each analysis step are traced.
func (r *Runner) Run(ctx context.Context, s *Scenario) (*Report, error) {
	ctx, span := r.tracer.Start(ctx, "scenario.run")
	defer span.End()

	report, err := r.analyze(ctx, span, s)
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return report, err
}

func (r *Runner) analyze(ctx context.Context, span trace.Span, s *Scenario) (*Report, error) {
	started := r.clock.Now()

	if s == nil {
		return nil, errors.NewValidationError("NIL_SCENARIO", "scenario is required")
	}
	if err := s.Validate(r.validate); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("scenario.name", s.Name))

	inputHash, err := hashScenario(s)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("scenario.input_hash", inputHash))

	if cached, ok := r.cache.Get(inputHash); ok {
		if report, ok := cached.(*Report); ok {
			telemetry.AddEvent(span, "served from cache")
			clone := *report
			clone.FromCache = true
			return &clone, nil
		}
	}

	report := &Report{
		Scenario:    s.Name,
		GeneratedAt: r.clock.Now(),
		InputHash:   inputHash,
	}

	steps := []struct {
		name string
		fn   func(context.Context, *Scenario, *Report) error
	}{
		{"scenario.costing", r.runCosting},
		{"scenario.process", r.runProcess},
		{"scenario.monitoring", r.runMonitoring},
		{"scenario.sensitivity", r.runSensitivity},
		{"scenario.eco", r.runEco},
	}
	for _, step := range steps {
		if err := r.traceStep(ctx, step.name, s, report, step.fn); err != nil {
			return nil, err
		}
	}

	// Audit the run so downstream consumers can verify the report input.
	if _, err := r.integrity.RecordDataChange(s.Name, "analyzer", audit.ChangeValidate, nil, map[string]interface{}{
		"input_hash": inputHash,
	}); err != nil {
		return nil, err
	}

	if err := r.cache.Set(inputHash, report, 0); err != nil {
		return nil, err
	}
	if err := r.maybeCleanupCache(); err != nil {
		return nil, err
	}

	r.collector.RecordAnalysis("scenario", r.clock.Now().Sub(started))
	r.logger.Info("scenario analyzed",
		zap.String("scenario", s.Name),
		zap.String("input_hash", inputHash),
	)

	return report, nil
}

// traceStep runs one analysis step under its own span
func (r *Runner) traceStep(ctx context.Context, name string, s *Scenario, report *Report, fn func(context.Context, *Scenario, *Report) error) error {
	ctx, span := r.tracer.Start(ctx, name)
	defer span.End()

	if err := fn(ctx, s, report); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	return nil
}

// maybeCleanupCache keeps the result cache inside its configured entry
// bound. A full pass also runs once per cleanup interval so expired
// entries do not linger while the cache sits under the bound.
func (r *Runner) maybeCleanupCache() error {
	if r.cacheMaxEntries <= 0 {
		return nil
	}
	now := r.clock.Now()
	intervalDue := r.cacheCleanupEvery > 0 && now.Sub(r.lastCleanup) >= r.cacheCleanupEvery
	if !intervalDue && r.cache.Len() <= r.cacheMaxEntries {
		return nil
	}
	r.lastCleanup = now

	result, err := r.cache.Cleanup(r.cacheMaxEntries)
	if err != nil {
		return err
	}
	if result.Expired > 0 || result.Evicted > 0 {
		r.logger.Info("result cache trimmed",
			zap.Int("expired", result.Expired),
			zap.Int("evicted", result.Evicted),
			zap.Int("remaining", result.Remaining),
		)
	}
	return nil
}

// costingFor honors a per-scenario currency override
func (r *Runner) costingFor(s *Scenario) *costing.Service {
	if s.Currency != "" {
		return costing.NewService(s.Currency)
	}
	return r.costing
}

func (r *Runner) runCosting(ctx context.Context, s *Scenario, report *Report) error {
	svc := r.costingFor(s)

	var equipmentCost, installationCost float64
	for _, in := range s.Equipment {
		eq, err := equipment.NewEquipment(in.Name, in.BaseCost, in.EfficiencyFactor,
			in.InstallationComplexity, in.MaintenanceCost, in.EnergyConsumption, in.ProcessingCapacity)
		if err != nil {
			return err
		}
		equipmentCost += eq.BaseCost
		installationCost += eq.InstallationCost()
	}

	investment, err := svc.EstimateTotalInvestment(ctx, equipmentCost, installationCost, s.Costs.IndirectCost)
	if err != nil {
		return err
	}
	report.Investment = investment

	annual, err := svc.EstimateAnnualCosts(ctx, investment.Total.ToFloat64(),
		s.Costs.OpexByCategory, s.Costs.ProjectYears, s.Costs.InterestRate)
	if err != nil {
		return err
	}
	report.AnnualCosts = annual

	if len(s.Costs.AnnualCashFlows) > 0 {
		profitability, err := svc.EstimateProfitability(ctx, investment.Total.ToFloat64(),
			s.Costs.AnnualCashFlows, s.Costs.InterestRate)
		if err != nil {
			return err
		}
		report.Profitability = &profitability
	}

	return nil
}

func (r *Runner) runProcess(ctx context.Context, s *Scenario, report *Report) error {
	massBalance, err := r.process.CalculateMassBalance(ctx, s.InputStreams, s.OutputStreams, s.Compositions)
	if err != nil {
		return err
	}
	report.MassBalance = massBalance

	// Track the run's stream totals so trends accumulate across runs.
	if _, err := r.tracking.RecordMassFlow(ctx, "aggregate", map[string]float64{
		"total_input":  massBalance.TotalInput,
		"total_output": massBalance.TotalOutput,
	}, time.Time{}); err != nil {
		return err
	}
	for _, parameter := range []string{"total_input", "total_output"} {
		trend, err := r.tracking.AnalyzeTrends(ctx, tracking.MetricMassFlow, parameter, nil)
		if err != nil {
			return err
		}
		report.Trends = append(report.Trends, trend)
	}

	if s.Process != nil {
		processType, err := process.ParseType(s.Process.Type)
		if err != nil {
			return err
		}
		energy, err := r.process.CalculateEnergyBalance(ctx, processType,
			process.OperatingParams{
				Power:        s.Process.Power,
				PowerDensity: s.Process.PowerDensity,
				Area:         s.Process.Area,
				TimeMinutes:  s.Process.TimeMinutes,
			},
			process.MaterialProps{
				DielectricConstant: s.Process.DielectricConstant,
				Absorptivity:       s.Process.Absorptivity,
			})
		if err != nil {
			return err
		}
		report.EnergyBalance = &energy
	}

	if len(s.Targets) > 0 && len(s.ProcessData) > 0 {
		performance, err := r.process.CalculatePerformanceMetrics(ctx, s.ProcessData, s.Targets)
		if err != nil {
			return err
		}
		report.Performance = &performance
	}

	if len(s.ParticleSizes) > 0 {
		sizes, err := r.process.AnalyzeParticleSizes(ctx, s.ParticleSizes)
		if err != nil {
			return err
		}
		report.ParticleSizes = &sizes
	}

	return nil
}

// runMonitoring evaluates the scenario's equipment readings against the
// configured operating ranges. Types are walked in sorted order so the
// report is deterministic.
func (r *Runner) runMonitoring(ctx context.Context, s *Scenario, report *Report) error {
	if len(s.Readings) == 0 {
		return nil
	}

	names := make([]string, 0, len(s.Readings))
	for name := range s.Readings {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		equipmentType, err := equipment.ParseType(name)
		if err != nil {
			return err
		}
		sample, err := r.monitoring.MonitorParameters(ctx, equipmentType, s.Readings[name], time.Time{})
		if err != nil {
			return err
		}
		report.MonitoringSamples = append(report.MonitoringSamples, sample)
	}
	return nil
}

func (r *Runner) runSensitivity(ctx context.Context, s *Scenario, report *Report) error {
	if len(s.Costs.AnnualCashFlows) == 0 {
		return nil
	}

	// The objective perturbs investment and cash-flow scale and reprices
	// NPV through the costing service.
	svc := r.costingFor(s)
	investment := report.Investment.Total.ToFloat64()
	objective := func(vars map[string]float64) (float64, error) {
		inv := investment
		if v, ok := vars["investment"]; ok {
			inv = v
		}
		scale := 1.0
		if v, ok := vars["cash_flow_scale"]; ok {
			scale = v
		}
		rate := s.Costs.InterestRate
		if v, ok := vars["discount_rate"]; ok {
			rate = v
		}

		flows := make([]float64, len(s.Costs.AnnualCashFlows))
		for i, cf := range s.Costs.AnnualCashFlows {
			flows[i] = cf * scale
		}
		profitability, err := svc.EstimateProfitability(ctx, inv, flows, rate)
		if err != nil {
			return 0, err
		}
		return profitability.NPV.ToFloat64(), nil
	}

	if s.SwingPct > 0 {
		base := map[string]float64{
			"investment":      investment,
			"cash_flow_scale": 1,
			"discount_rate":   s.Costs.InterestRate,
		}
		rows, err := r.sens.OneAtATime(ctx, base,
			[]string{"investment", "cash_flow_scale", "discount_rate"}, s.SwingPct, objective)
		if err != nil {
			return err
		}
		report.Tornado = rows
	}

	if s.MonteCarlo != nil {
		// A scenario may omit iterations and seed; the engine
		// configuration supplies them.
		iterations := s.MonteCarlo.Iterations
		if iterations <= 0 {
			iterations = r.mcIterations
		}
		seed := s.MonteCarlo.Seed
		if seed == 0 {
			seed = r.mcSeed
		}
		result, err := r.sens.MonteCarlo(ctx, s.MonteCarlo.Variables, iterations, seed, objective)
		if err != nil {
			return err
		}
		report.MonteCarlo = &result
	}

	return nil
}

func (r *Runner) runEco(ctx context.Context, s *Scenario, report *Report) error {
	if s.Eco == nil {
		return nil
	}

	consumptions := make(map[ecoefficiency.Resource]float64, len(s.Eco.Consumptions))
	for name, amount := range s.Eco.Consumptions {
		consumptions[ecoefficiency.Resource(name)] = amount
	}

	assessment, err := r.eco.Assess(ctx, consumptions, s.Eco.ProductValue, s.Eco.FunctionalUnitKg)
	if err != nil {
		return err
	}
	report.EcoEfficiency = &assessment
	return nil
}

// hashScenario derives the cache/audit key from the canonical scenario
// content.
func hashScenario(s *Scenario) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", errors.NewInternalError("marshaling scenario").WithCause(err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", errors.NewInternalError("decoding scenario document").WithCause(err)
	}
	return audit.CanonicalHash(doc)
}
