package process

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateMassBalance(t *testing.T) {
	ctx := context.Background()
	svc := NewService()

	t.Run("protein recovery above 100 percent on enrichment", func(t *testing.T) {
		// 100 kg in at 25% protein, 80 kg out at 45% protein:
		// recovery = (80*0.45) / (100*0.25) * 100 = 144
		result, err := svc.CalculateMassBalance(ctx,
			map[string]float64{"s1": 100},
			map[string]float64{"s1": 80},
			Compositions{
				Input:  map[string]float64{"protein": 25},
				Output: map[string]float64{"protein": 45},
			})
		require.NoError(t, err)

		assert.InDelta(t, 100, result.TotalInput, 1e-9)
		assert.InDelta(t, 80, result.TotalOutput, 1e-9)

		protein := result.Components["protein"]
		assert.InDelta(t, 25, protein.InputMass, 1e-9)
		assert.InDelta(t, 36, protein.OutputMass, 1e-9)
		assert.InDelta(t, 144.0, protein.Recovery, 1e-9)
	})

	t.Run("multiple streams aggregate", func(t *testing.T) {
		result, err := svc.CalculateMassBalance(ctx,
			map[string]float64{"pea_flour": 1000, "air": 200},
			map[string]float64{"fine": 350, "coarse": 650, "exhaust": 200},
			Compositions{})
		require.NoError(t, err)

		assert.InDelta(t, 1200, result.TotalInput, 1e-9)
		assert.InDelta(t, 1200, result.TotalOutput, 1e-9)
		assert.Empty(t, result.Components)
	})

	t.Run("zero input mass gives zero recovery", func(t *testing.T) {
		result, err := svc.CalculateMassBalance(ctx,
			map[string]float64{"s1": 100},
			map[string]float64{"s1": 80},
			Compositions{
				Input:  map[string]float64{"starch": 0},
				Output: map[string]float64{"starch": 10},
			})
		require.NoError(t, err)
		assert.Zero(t, result.Components["starch"].Recovery)
	})

	t.Run("output-only components are listed not balanced", func(t *testing.T) {
		result, err := svc.CalculateMassBalance(ctx,
			map[string]float64{"s1": 100},
			map[string]float64{"s1": 80},
			Compositions{
				Input:  map[string]float64{"protein": 25},
				Output: map[string]float64{"protein": 45, "fiber": 10, "ash": 3},
			})
		require.NoError(t, err)

		assert.Equal(t, []string{"ash", "fiber"}, result.UnmatchedOutputComponents)
		assert.NotContains(t, result.Components, "fiber")
	})

	tests := []struct {
		name         string
		inputs       map[string]float64
		outputs      map[string]float64
		compositions Compositions
	}{
		{
			name:    "no input streams",
			inputs:  map[string]float64{},
			outputs: map[string]float64{"s1": 1},
		},
		{
			name:    "negative flow",
			inputs:  map[string]float64{"s1": -5},
			outputs: map[string]float64{},
		},
		{
			name:    "composition above 100 percent",
			inputs:  map[string]float64{"s1": 100},
			outputs: map[string]float64{"s1": 80},
			compositions: Compositions{
				Input: map[string]float64{"protein": 120},
			},
		},
		{
			name:    "negative composition",
			inputs:  map[string]float64{"s1": 100},
			outputs: map[string]float64{"s1": 80},
			compositions: Compositions{
				Output: map[string]float64{"protein": -1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CalculateMassBalance(ctx, tt.inputs, tt.outputs, tt.compositions)
			assert.Error(t, err)
		})
	}
}

func TestCalculateEnergyBalance(t *testing.T) {
	ctx := context.Background()
	svc := NewService()

	t.Run("rf heating", func(t *testing.T) {
		result, err := svc.CalculateEnergyBalance(ctx, TypeRF,
			OperatingParams{Power: 20, TimeMinutes: 30},
			MaterialProps{DielectricConstant: 0.65})
		require.NoError(t, err)

		assert.Equal(t, TypeRF, result.ProcessType)
		assert.InDelta(t, 20*30*60, result.EnergyInput, 1e-9) // kJ
		assert.InDelta(t, 10, result.EnergyInputKWh, 1e-9)    // 36000 kJ
		assert.InDelta(t, 13, result.EffectivePower, 1e-9)
		assert.InDelta(t, 65, result.EfficiencyPct, 1e-9)
		assert.Zero(t, result.HeatAbsorbed)
	})

	t.Run("ir heating", func(t *testing.T) {
		result, err := svc.CalculateEnergyBalance(ctx, TypeIR,
			OperatingParams{PowerDensity: 40, Area: 2, TimeMinutes: 15},
			MaterialProps{Absorptivity: 0.8})
		require.NoError(t, err)

		assert.Equal(t, TypeIR, result.ProcessType)
		assert.InDelta(t, 40*2*15*60, result.EnergyInput, 1e-9)
		assert.InDelta(t, 40*2*15*60.0/3600, result.EnergyInputKWh, 1e-9)
		assert.InDelta(t, 40*2*15*60*0.8, result.HeatAbsorbed, 1e-9)
		assert.InDelta(t, 80, result.EfficiencyPct, 1e-9)
	})

	t.Run("ir defaults absorptivity", func(t *testing.T) {
		result, err := svc.CalculateEnergyBalance(ctx, TypeIR,
			OperatingParams{PowerDensity: 10, Area: 1, TimeMinutes: 10},
			MaterialProps{})
		require.NoError(t, err)
		assert.InDelta(t, result.EnergyInput*DefaultAbsorptivity, result.HeatAbsorbed, 1e-9)
	})

	tests := []struct {
		name        string
		processType Type
		params      OperatingParams
		material    MaterialProps
	}{
		{name: "unknown type", processType: Type("microwave"), params: OperatingParams{TimeMinutes: 1}},
		{name: "zero time", processType: TypeRF, params: OperatingParams{Power: 10}, material: MaterialProps{DielectricConstant: 0.5}},
		{name: "rf zero power", processType: TypeRF, params: OperatingParams{TimeMinutes: 10}, material: MaterialProps{DielectricConstant: 0.5}},
		{name: "rf zero dielectric", processType: TypeRF, params: OperatingParams{Power: 10, TimeMinutes: 10}},
		{name: "ir zero power density", processType: TypeIR, params: OperatingParams{Area: 1, TimeMinutes: 10}},
		{name: "ir zero area", processType: TypeIR, params: OperatingParams{PowerDensity: 10, TimeMinutes: 10}},
		{name: "ir absorptivity above one", processType: TypeIR, params: OperatingParams{PowerDensity: 10, Area: 1, TimeMinutes: 10}, material: MaterialProps{Absorptivity: 1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CalculateEnergyBalance(ctx, tt.processType, tt.params, tt.material)
			assert.Error(t, err)
		})
	}
}

func TestCalculatePerformanceMetrics(t *testing.T) {
	ctx := context.Background()
	svc := NewService()

	t.Run("matched targets", func(t *testing.T) {
		result, err := svc.CalculatePerformanceMetrics(ctx,
			map[string]float64{"protein_yield": 45, "throughput": 180, "unrelated": 1},
			map[string]float64{"protein_yield": 50, "throughput": 200, "moisture": 8})
		require.NoError(t, err)

		assert.InDelta(t, 90, result.Efficiencies["protein_yield"], 1e-9)
		assert.InDelta(t, 90, result.Efficiencies["throughput"], 1e-9)
		assert.NotContains(t, result.Efficiencies, "moisture")

		require.NotNil(t, result.Overall)
		assert.InDelta(t, 90, *result.Overall, 1e-9)
	})

	t.Run("no matched targets", func(t *testing.T) {
		result, err := svc.CalculatePerformanceMetrics(ctx,
			map[string]float64{"a": 1},
			map[string]float64{"b": 2})
		require.NoError(t, err)
		assert.Empty(t, result.Efficiencies)
		assert.Nil(t, result.Overall)
	})

	t.Run("non-finite actuals are coerced to zero", func(t *testing.T) {
		result, err := svc.CalculatePerformanceMetrics(ctx,
			map[string]float64{"protein_yield": 45, "throughput": math.Inf(1)},
			map[string]float64{"protein_yield": 50, "throughput": 200})
		require.NoError(t, err)

		assert.InDelta(t, 90, result.Efficiencies["protein_yield"], 1e-9)
		assert.Zero(t, result.Efficiencies["throughput"])

		require.NotNil(t, result.Overall)
		assert.InDelta(t, 45, *result.Overall, 1e-9)
	})

	t.Run("zero target is an error", func(t *testing.T) {
		_, err := svc.CalculatePerformanceMetrics(ctx,
			map[string]float64{"yield": 10},
			map[string]float64{"yield": 0})
		assert.Error(t, err)
	})

	t.Run("negative target is an error", func(t *testing.T) {
		_, err := svc.CalculatePerformanceMetrics(ctx,
			map[string]float64{"yield": 10},
			map[string]float64{"yield": -5})
		assert.Error(t, err)
	})
}

func TestAnalyzeParticleSizes(t *testing.T) {
	ctx := context.Background()
	svc := NewService()

	t.Run("uniform distribution", func(t *testing.T) {
		sizes := make([]float64, 11)
		for i := range sizes {
			sizes[i] = float64(10 + i*10) // 10..110
		}

		result, err := svc.AnalyzeParticleSizes(ctx, sizes)
		require.NoError(t, err)

		assert.InDelta(t, 20, result.D10, 1e-9)
		assert.InDelta(t, 60, result.D50, 1e-9)
		assert.InDelta(t, 100, result.D90, 1e-9)
		assert.InDelta(t, (100.0-20.0)/60.0, result.Span, 1e-9)
	})

	t.Run("input order does not matter", func(t *testing.T) {
		a, err := svc.AnalyzeParticleSizes(ctx, []float64{5, 1, 3, 2, 4})
		require.NoError(t, err)
		b, err := svc.AnalyzeParticleSizes(ctx, []float64{1, 2, 3, 4, 5})
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("empty sample", func(t *testing.T) {
		_, err := svc.AnalyzeParticleSizes(ctx, nil)
		assert.Error(t, err)
	})

	t.Run("nonpositive size", func(t *testing.T) {
		_, err := svc.AnalyzeParticleSizes(ctx, []float64{10, 0, 20})
		assert.Error(t, err)
	})
}

func TestParseType(t *testing.T) {
	for _, valid := range []string{"rf", "ir"} {
		got, err := ParseType(valid)
		require.NoError(t, err)
		assert.Equal(t, Type(valid), got)
	}

	_, err := ParseType("microwave")
	assert.Error(t, err)
	_, err = ParseType("")
	assert.Error(t, err)
}
