package ecoefficiency

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantis/peaproc/internal/domain/values"
)

func TestAssess(t *testing.T) {
	ctx := context.Background()

	t.Run("hand computed assessment", func(t *testing.T) {
		factors := map[Resource]values.ImpactProfile{
			Electricity: values.MustNewImpactProfile(0.5, 2e-8, 0.1),
			Water:       values.MustNewImpactProfile(0.4, 1e-8, 0.05),
		}
		svc := NewService(factors, nil)

		// 100 kWh electricity + 10 m3 water
		assessment, err := svc.Assess(ctx, map[Resource]float64{
			Electricity: 100,
			Water:       10,
		}, 5000, 200)
		require.NoError(t, err)

		// totals: gwp 50+4=54, hct 2e-6+1e-7=2.1e-6, frs 10+0.5=10.5
		assert.InDelta(t, 54, assessment.Total.GWP, 1e-9)
		assert.InDelta(t, 2.1e-6, assessment.Total.HCT, 1e-15)
		assert.InDelta(t, 10.5, assessment.Total.FRS, 1e-9)

		// per functional unit of 200 kg
		assert.InDelta(t, 0.27, assessment.PerKg.GWP, 1e-9)

		// single score: 54*0.5 + (2.1e-6/1e-7)*0.25 + 10.5*0.25 = 34.875
		assert.InDelta(t, 34.875, assessment.SingleScore, 1e-9)

		// index: product value over weighted burden
		assert.InDelta(t, 5000/34.875, assessment.EcoEfficiencyIndex, 1e-9)
	})

	t.Run("default factors cover the known resources", func(t *testing.T) {
		svc := NewService(nil, nil)

		assessment, err := svc.Assess(ctx, map[Resource]float64{
			Electricity: 50,
			NaturalGas:  100,
			Water:       5,
			Hexane:      2,
			Nitrogen:    10,
		}, 1000, 100)
		require.NoError(t, err)
		assert.Greater(t, assessment.SingleScore, 0.0)
		assert.Greater(t, assessment.EcoEfficiencyIndex, 0.0)
	})

	t.Run("zero consumption yields zero burden", func(t *testing.T) {
		svc := NewService(nil, nil)

		assessment, err := svc.Assess(ctx, map[Resource]float64{Electricity: 0}, 1000, 100)
		require.NoError(t, err)
		assert.True(t, assessment.Total.IsZero())
		assert.Zero(t, assessment.SingleScore)
		assert.Zero(t, assessment.EcoEfficiencyIndex)
	})

	t.Run("higher product value raises the index", func(t *testing.T) {
		svc := NewService(nil, nil)
		consumptions := map[Resource]float64{Electricity: 100}

		low, err := svc.Assess(ctx, consumptions, 1000, 100)
		require.NoError(t, err)
		high, err := svc.Assess(ctx, consumptions, 2000, 100)
		require.NoError(t, err)

		assert.Greater(t, high.EcoEfficiencyIndex, low.EcoEfficiencyIndex)
		assert.Equal(t, low.SingleScore, high.SingleScore)
	})

	tests := []struct {
		name         string
		consumptions map[Resource]float64
		productValue float64
		unitKg       float64
	}{
		{name: "empty consumptions", consumptions: nil, productValue: 1000, unitKg: 100},
		{name: "unknown resource", consumptions: map[Resource]float64{"steam_kg": 5}, productValue: 1000, unitKg: 100},
		{name: "negative consumption", consumptions: map[Resource]float64{Electricity: -1}, productValue: 1000, unitKg: 100},
		{name: "zero product value", consumptions: map[Resource]float64{Electricity: 1}, productValue: 0, unitKg: 100},
		{name: "zero functional unit", consumptions: map[Resource]float64{Electricity: 1}, productValue: 1000, unitKg: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(nil, nil)
			_, err := svc.Assess(ctx, tt.consumptions, tt.productValue, tt.unitKg)
			assert.Error(t, err)
		})
	}
}

func TestDefaultFactors(t *testing.T) {
	factors := DefaultFactors()
	for _, resource := range []Resource{Electricity, NaturalGas, Water, Hexane, Nitrogen} {
		profile, ok := factors[resource]
		require.True(t, ok, "missing factor for %s", resource)
		assert.False(t, profile.IsZero())
	}
}
