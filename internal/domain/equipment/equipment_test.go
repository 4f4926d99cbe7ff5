package equipment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Type
		wantErr bool
	}{
		{name: "classifier", input: "classifier", want: TypeClassifier},
		{name: "rf generator", input: "rf_generator", want: TypeRFGenerator},
		{name: "ir heater", input: "ir_heater", want: TypeIRHeater},
		{name: "unknown", input: "extruder", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "wrong case", input: "Classifier", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseType(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewEquipment(t *testing.T) {
	tests := []struct {
		name       string
		eqName     string
		baseCost   float64
		efficiency float64
		complexity float64
		maint      float64
		energy     float64
		capacity   float64
		wantErr    bool
	}{
		{
			name:   "valid classifier",
			eqName: "air classifier", baseCost: 120000, efficiency: 0.85,
			complexity: 1.4, maint: 6000, energy: 15, capacity: 250,
		},
		{
			name:   "free equipment is allowed",
			eqName: "donated unit", baseCost: 0, efficiency: 1,
			complexity: 1, maint: 0, energy: 0, capacity: 1,
		},
		{
			name:   "empty name",
			eqName: "", baseCost: 1000, efficiency: 0.9,
			complexity: 1.2, maint: 100, energy: 5, capacity: 50,
			wantErr: true,
		},
		{
			name:   "negative base cost",
			eqName: "unit", baseCost: -1, efficiency: 0.9,
			complexity: 1.2, maint: 100, energy: 5, capacity: 50,
			wantErr: true,
		},
		{
			name:   "efficiency above one",
			eqName: "unit", baseCost: 1000, efficiency: 1.1,
			complexity: 1.2, maint: 100, energy: 5, capacity: 50,
			wantErr: true,
		},
		{
			name:   "zero efficiency",
			eqName: "unit", baseCost: 1000, efficiency: 0,
			complexity: 1.2, maint: 100, energy: 5, capacity: 50,
			wantErr: true,
		},
		{
			name:   "complexity below one",
			eqName: "unit", baseCost: 1000, efficiency: 0.9,
			complexity: 0.8, maint: 100, energy: 5, capacity: 50,
			wantErr: true,
		},
		{
			name:   "zero capacity",
			eqName: "unit", baseCost: 1000, efficiency: 0.9,
			complexity: 1.2, maint: 100, energy: 5, capacity: 0,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eq, err := NewEquipment(tt.eqName, tt.baseCost, tt.efficiency, tt.complexity, tt.maint, tt.energy, tt.capacity)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.eqName, eq.Name)
			assert.Equal(t, tt.baseCost, eq.BaseCost)
		})
	}
}

func TestEquipment_InstallationCost(t *testing.T) {
	eq, err := NewEquipment("rf dryer", 100000, 0.9, 1.35, 4000, 30, 120)
	require.NoError(t, err)

	assert.InDelta(t, 35000, eq.InstallationCost(), 1e-9)
	assert.InDelta(t, 135000, eq.InstalledCost(), 1e-9)

	// complexity of exactly 1 means no installation cost
	flat, err := NewEquipment("skid unit", 50000, 0.9, 1, 0, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, flat.InstallationCost())
	assert.InDelta(t, 50000, flat.InstalledCost(), 1e-9)
}

func TestOperatingRange(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		_, err := NewOperatingRange(10, 5, 0.8, "kW")
		assert.Error(t, err)

		_, err = NewOperatingRange(0, 10, 0, "kW")
		assert.Error(t, err)

		_, err = NewOperatingRange(0, 10, 1, "kW")
		assert.Error(t, err)

		r, err := NewOperatingRange(0, 10, 0.8, "kW")
		require.NoError(t, err)
		assert.Equal(t, "kW", r.Unit)
	})

	r, err := NewOperatingRange(100, 400, 0.8, "C")
	require.NoError(t, err)

	t.Run("geometry", func(t *testing.T) {
		assert.InDelta(t, 250, r.Center(), 1e-9)
		assert.InDelta(t, 150, r.HalfRange(), 1e-9)
	})

	t.Run("position", func(t *testing.T) {
		assert.InDelta(t, 0, r.Position(100), 1e-9)
		assert.InDelta(t, 1, r.Position(400), 1e-9)
		assert.InDelta(t, 0.5, r.Position(250), 1e-9)
	})

	t.Run("deviation", func(t *testing.T) {
		assert.InDelta(t, 0, r.Deviation(250), 1e-9)
		assert.InDelta(t, 1, r.Deviation(100), 1e-9)
		assert.InDelta(t, 1, r.Deviation(400), 1e-9)
		assert.InDelta(t, 0.5, r.Deviation(325), 1e-9)
	})

	t.Run("contains", func(t *testing.T) {
		assert.True(t, r.Contains(100))
		assert.True(t, r.Contains(400))
		assert.False(t, r.Contains(99.99))
		assert.False(t, r.Contains(400.01))
	})
}

func TestDefaultRanges(t *testing.T) {
	ranges := DefaultRanges()

	for _, typ := range Types() {
		params, ok := ranges[typ]
		require.True(t, ok, "missing ranges for %s", typ)
		require.NotEmpty(t, params)
		for name, r := range params {
			assert.Less(t, r.Min, r.Max, "%s/%s", typ, name)
			assert.Greater(t, r.WarningThreshold, 0.0)
			assert.Less(t, r.WarningThreshold, 1.0)
		}
	}

	// callers get an isolated copy
	ranges[TypeClassifier]["feed_rate"] = OperatingRange{Min: -1, Max: 1, WarningThreshold: 0.5}
	fresh := DefaultRanges()
	assert.Equal(t, 50.0, fresh[TypeClassifier]["feed_rate"].Min)
}

func TestDefaultFailureRates(t *testing.T) {
	rates := DefaultFailureRates()
	for _, typ := range Types() {
		rate, ok := rates[typ]
		require.True(t, ok)
		assert.Greater(t, rate, 0.0)
		assert.Less(t, rate, 0.001)
	}
}
