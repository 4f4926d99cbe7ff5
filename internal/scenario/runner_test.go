package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/verdantis/peaproc/internal/clock"
	"github.com/verdantis/peaproc/internal/domain/equipment"
	"github.com/verdantis/peaproc/internal/infrastructure/config"
	"github.com/verdantis/peaproc/internal/service/process"
	"github.com/verdantis/peaproc/internal/service/sensitivity"
	"github.com/verdantis/peaproc/internal/testutil/fixtures"
)

func testConfig() *config.Config {
	return &config.Config{
		Cache:      config.CacheConfig{DefaultTTL: 5 * time.Minute, MaxEntries: 100},
		Monitoring: config.MonitoringConfig{MaxSamples: 1000, MaintenancePriorityThreshold: 0.7, DefaultFailureRate: 0.0001},
		Tracking:   config.TrackingConfig{MaxEntries: 1000},
		MonteCarlo: config.MonteCarloConfig{MaxIterations: 100000},
		Costing:    config.CostingConfig{Currency: "USD"},
		Integrity:  config.IntegrityConfig{MassBalanceTolerance: 0.02},
	}
}

func newTestRunner(t *testing.T) (*Runner, *clock.MockClock) {
	t.Helper()
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC))
	runner, err := NewRunner(testConfig(), clk, nil, nil)
	require.NoError(t, err)
	return runner, clk
}

func TestNewRunner(t *testing.T) {
	t.Run("nil config rejected", func(t *testing.T) {
		_, err := NewRunner(nil, nil, nil, nil)
		assert.Error(t, err)
	})

	t.Run("failure rate overrides must parse", func(t *testing.T) {
		cfg := testConfig()
		cfg.Monitoring.FailureRates = map[string]float64{"extruder": 0.001}
		_, err := NewRunner(cfg, nil, nil, nil)
		assert.Error(t, err)

		cfg.Monitoring.FailureRates = map[string]float64{"classifier": 0.001}
		_, err = NewRunner(cfg, nil, nil, nil)
		assert.NoError(t, err)
	})
}

func TestRunner_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("nil scenario rejected", func(t *testing.T) {
		runner, _ := newTestRunner(t)
		_, err := runner.Run(ctx, nil)
		assert.Error(t, err)
	})

	t.Run("invalid scenario rejected", func(t *testing.T) {
		runner, _ := newTestRunner(t)
		s := validScenario()
		s.Name = ""
		_, err := runner.Run(ctx, s)
		assert.Error(t, err)
	})

	t.Run("minimal scenario", func(t *testing.T) {
		runner, clk := newTestRunner(t)

		report, err := runner.Run(ctx, validScenario())
		require.NoError(t, err)

		assert.Equal(t, "baseline dry fractionation", report.Scenario)
		assert.Equal(t, clk.CurrentTime, report.GeneratedAt)
		assert.Len(t, report.InputHash, 64)
		assert.False(t, report.FromCache)

		// equipment 120000 plus installation 120000*0.4 plus indirect 30000
		assert.InDelta(t, 120000, report.Investment.Equipment.ToFloat64(), 1e-6)
		assert.InDelta(t, 48000, report.Investment.Installation.ToFloat64(), 1e-6)
		assert.InDelta(t, 198000, report.Investment.Total.ToFloat64(), 1e-6)
		assert.Equal(t, "USD", report.Investment.Total.Currency())

		assert.InDelta(t, 5000, report.AnnualCosts.AnnualOpex.ToFloat64(), 1e-6)
		assert.Greater(t, report.AnnualCosts.TotalAnnualCost.ToFloat64(), 5000.0)

		assert.InDelta(t, 100, report.MassBalance.TotalInput, 1e-9)
		assert.InDelta(t, 80, report.MassBalance.TotalOutput, 1e-9)

		// stream totals always feed the trend log
		require.Len(t, report.Trends, 2)
		assert.Equal(t, "total_input", report.Trends[0].Parameter)
		assert.Equal(t, "total_output", report.Trends[1].Parameter)

		// optional sections stay absent
		assert.Nil(t, report.Profitability)
		assert.Empty(t, report.MonitoringSamples)
		assert.Nil(t, report.EnergyBalance)
		assert.Nil(t, report.Performance)
		assert.Nil(t, report.ParticleSizes)
		assert.Nil(t, report.MonteCarlo)
		assert.Nil(t, report.EcoEfficiency)
		assert.Empty(t, report.Tornado)
	})

	t.Run("protein recovery in the report", func(t *testing.T) {
		runner, _ := newTestRunner(t)

		s := validScenario()
		s.InputStreams, s.OutputStreams, s.Compositions = fixtures.ExtractionStreams()
		report, err := runner.Run(ctx, s)
		require.NoError(t, err)

		assert.InDelta(t, 144.0, report.MassBalance.Components["protein"].Recovery, 1e-9)
	})

	t.Run("balanced streams close the mass balance", func(t *testing.T) {
		runner, _ := newTestRunner(t)

		s := validScenario()
		s.InputStreams, s.OutputStreams = fixtures.BalancedStreams()
		s.Compositions = process.Compositions{}
		report, err := runner.Run(ctx, s)
		require.NoError(t, err)

		assert.InDelta(t, report.MassBalance.TotalInput, report.MassBalance.TotalOutput, 1e-9)
	})

	t.Run("equipment readings produce monitoring samples", func(t *testing.T) {
		runner, _ := newTestRunner(t)

		s := validScenario()
		s.Readings = map[string]map[string]float64{
			"classifier": fixtures.ClassifierParameters(),
			"ir_heater":  {"temperature": 600},
		}
		report, err := runner.Run(ctx, s)
		require.NoError(t, err)

		require.Len(t, report.MonitoringSamples, 2)
		// sorted by type name: classifier first
		assert.Equal(t, equipment.TypeClassifier, report.MonitoringSamples[0].EquipmentType)
		assert.Equal(t, equipment.StatusNormal, report.MonitoringSamples[0].Status)
		assert.Equal(t, equipment.StatusCritical, report.MonitoringSamples[1].Status)

		// the runner's monitoring log retains the samples
		assert.Len(t, runner.Monitoring().Samples(""), 2)
	})

	t.Run("unknown reading type fails the run", func(t *testing.T) {
		runner, _ := newTestRunner(t)

		s := validScenario()
		s.Readings = map[string]map[string]float64{"extruder": {"feed_rate": 100}}
		_, err := runner.Run(ctx, s)
		assert.Error(t, err)
	})

	t.Run("stream totals feed the trend log", func(t *testing.T) {
		runner, clk := newTestRunner(t)

		first, err := runner.Run(ctx, validScenario())
		require.NoError(t, err)
		require.Len(t, first.Trends, 2)
		assert.Equal(t, 1, first.Trends[0].Points)

		clk.Advance(time.Minute)
		changed := validScenario()
		changed.InputStreams["pea_flour"] = 110
		second, err := runner.Run(ctx, changed)
		require.NoError(t, err)

		require.Len(t, second.Trends, 2)
		assert.Equal(t, "total_input", second.Trends[0].Parameter)
		assert.Equal(t, 2, second.Trends[0].Points)
		assert.InDelta(t, 105, second.Trends[0].Mean, 1e-9)
	})

	t.Run("identical reruns come from the cache", func(t *testing.T) {
		runner, _ := newTestRunner(t)

		first, err := runner.Run(ctx, validScenario())
		require.NoError(t, err)
		assert.False(t, first.FromCache)

		second, err := runner.Run(ctx, validScenario())
		require.NoError(t, err)
		assert.True(t, second.FromCache)
		assert.Equal(t, first.InputHash, second.InputHash)
		assert.Equal(t, first.Investment, second.Investment)
	})

	t.Run("changed input misses the cache", func(t *testing.T) {
		runner, _ := newTestRunner(t)

		first, err := runner.Run(ctx, validScenario())
		require.NoError(t, err)

		changed := validScenario()
		changed.InputStreams["pea_flour"] = 110
		second, err := runner.Run(ctx, changed)
		require.NoError(t, err)

		assert.False(t, second.FromCache)
		assert.NotEqual(t, first.InputHash, second.InputHash)
	})

	t.Run("currency override flows through", func(t *testing.T) {
		runner, _ := newTestRunner(t)

		s := validScenario()
		s.Currency = "EUR"
		report, err := runner.Run(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, "EUR", report.Investment.Total.Currency())
	})

	t.Run("cash flows enable profitability and tornado", func(t *testing.T) {
		runner, _ := newTestRunner(t)

		s := validScenario()
		s.Costs.AnnualCashFlows = []float64{80000, 90000, 90000, 90000}
		s.SwingPct = 20
		report, err := runner.Run(ctx, s)
		require.NoError(t, err)

		require.NotNil(t, report.Profitability)
		require.Len(t, report.Tornado, 3)
		// rows are sorted by impact; scaling the cash flows moves npv most
		// here because their present value exceeds the investment
		assert.Equal(t, "cash_flow_scale", report.Tornado[0].Variable)
		assert.GreaterOrEqual(t, report.Tornado[0].Range, report.Tornado[1].Range)
		assert.GreaterOrEqual(t, report.Tornado[1].Range, report.Tornado[2].Range)
	})

	t.Run("cache bound evicts the oldest reports", func(t *testing.T) {
		cfg := testConfig()
		cfg.Cache.MaxEntries = 2
		clk := clock.NewMockClock(time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC))
		runner, err := NewRunner(cfg, clk, nil, nil)
		require.NoError(t, err)

		runNamed := func(name string) *Report {
			s := validScenario()
			s.Name = name
			report, err := runner.Run(ctx, s)
			require.NoError(t, err)
			return report
		}

		runNamed("first")
		runNamed("second")
		runNamed("third") // pushes the cache past its bound

		assert.True(t, runNamed("third").FromCache, "recent report should survive the bound")
		assert.False(t, runNamed("first").FromCache, "oldest report should have been evicted")
	})

	t.Run("monte carlo defaults come from configuration", func(t *testing.T) {
		cfg := testConfig()
		cfg.MonteCarlo.Iterations = 400
		cfg.MonteCarlo.Seed = 9
		runner, err := NewRunner(cfg, clock.NewMockClock(time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)), nil, nil)
		require.NoError(t, err)

		s := validScenario()
		s.Costs.AnnualCashFlows = []float64{80000, 90000}
		s.MonteCarlo = &MonteCarloInput{
			Variables: []sensitivity.Variable{
				{Name: "cash_flow_scale", Kind: sensitivity.DistUniform, Min: 0.8, Max: 1.2},
			},
		}
		report, err := runner.Run(ctx, s)
		require.NoError(t, err)

		require.NotNil(t, report.MonteCarlo)
		assert.Equal(t, 400, report.MonteCarlo.Iterations)
		assert.EqualValues(t, 9, report.MonteCarlo.Seed)
	})

	t.Run("monte carlo section", func(t *testing.T) {
		runner, _ := newTestRunner(t)

		s := validScenario()
		s.Costs.AnnualCashFlows = []float64{80000, 90000}
		s.MonteCarlo = &MonteCarloInput{
			Iterations: 500,
			Seed:       42,
			Variables: []sensitivity.Variable{
				{Name: "cash_flow_scale", Kind: sensitivity.DistUniform, Min: 0.8, Max: 1.2},
			},
		}
		report, err := runner.Run(ctx, s)
		require.NoError(t, err)

		require.NotNil(t, report.MonteCarlo)
		assert.Equal(t, 500, report.MonteCarlo.Iterations)
	})

	t.Run("process and eco sections", func(t *testing.T) {
		runner, _ := newTestRunner(t)

		s := validScenario()
		s.Process = &ProcessInput{Type: "rf", Power: 20, TimeMinutes: 30, DielectricConstant: 0.65}
		s.Eco = &EcoInput{
			Consumptions:     map[string]float64{"electricity_kwh": 100},
			ProductValue:     5000,
			FunctionalUnitKg: 80,
		}
		report, err := runner.Run(ctx, s)
		require.NoError(t, err)

		require.NotNil(t, report.EnergyBalance)
		assert.InDelta(t, 65, report.EnergyBalance.EfficiencyPct, 1e-9)
		require.NotNil(t, report.EcoEfficiency)
		assert.Greater(t, report.EcoEfficiency.EcoEfficiencyIndex, 0.0)
	})

	t.Run("unknown eco resource fails the run", func(t *testing.T) {
		runner, _ := newTestRunner(t)

		s := validScenario()
		s.Eco = &EcoInput{
			Consumptions:     map[string]float64{"steam_kg": 5},
			ProductValue:     1000,
			FunctionalUnitKg: 80,
		}
		_, err := runner.Run(ctx, s)
		assert.Error(t, err)
	})

	t.Run("runs leave an audit record", func(t *testing.T) {
		runner, _ := newTestRunner(t)

		report, err := runner.Run(ctx, validScenario())
		require.NoError(t, err)

		trail := runner.Integrity().Trail("baseline dry fractionation")
		require.Len(t, trail, 1)
		require.Len(t, trail[0].Changes, 1)
		assert.Equal(t, "input_hash", trail[0].Changes[0].Field)
		assert.Equal(t, report.InputHash, trail[0].Changes[0].New)
	})
}

func TestRunner_Run_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	runner, _ := newTestRunner(t)
	ctx := context.Background()

	_, err := runner.Run(ctx, validScenario())
	require.NoError(t, err)

	names := make(map[string]int)
	for _, span := range recorder.Ended() {
		names[span.Name()]++
	}
	for _, want := range []string{
		"scenario.run",
		"scenario.costing",
		"scenario.process",
		"scenario.monitoring",
		"scenario.sensitivity",
		"scenario.eco",
	} {
		assert.Equal(t, 1, names[want], want)
	}

	// a failing step marks its own span and the run span
	firstRunSpans := len(recorder.Ended())
	bad := validScenario()
	bad.Eco = &EcoInput{
		Consumptions:     map[string]float64{"steam_kg": 1},
		ProductValue:     1000,
		FunctionalUnitKg: 80,
	}
	_, err = runner.Run(ctx, bad)
	require.Error(t, err)

	statuses := make(map[string]codes.Code)
	for _, span := range recorder.Ended()[firstRunSpans:] {
		statuses[span.Name()] = span.Status().Code
	}
	assert.Equal(t, codes.Error, statuses["scenario.run"])
	assert.Equal(t, codes.Error, statuses["scenario.eco"])
}
