package values

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImpactProfile(t *testing.T) {
	tests := []struct {
		name          string
		gwp, hct, frs float64
		wantErr       bool
	}{
		{name: "valid profile", gwp: 1.2, hct: 3e-8, frs: 0.4},
		{name: "zero profile", gwp: 0, hct: 0, frs: 0},
		{name: "negative gwp", gwp: -1, hct: 0, frs: 0, wantErr: true},
		{name: "nan hct", gwp: 0, hct: math.NaN(), frs: 0, wantErr: true},
		{name: "infinite frs", gwp: 0, hct: 0, frs: math.Inf(1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewImpactProfile(tt.gwp, tt.hct, tt.frs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.gwp, p.GWP)
			assert.Equal(t, tt.hct, p.HCT)
			assert.Equal(t, tt.frs, p.FRS)
		})
	}
}

func TestImpactProfile_AddScale(t *testing.T) {
	a := MustNewImpactProfile(1, 2e-8, 0.5)
	b := MustNewImpactProfile(0.5, 1e-8, 0.25)

	t.Run("Add", func(t *testing.T) {
		sum := a.Add(b)
		assert.InDelta(t, 1.5, sum.GWP, 1e-12)
		assert.InDelta(t, 3e-8, sum.HCT, 1e-20)
		assert.InDelta(t, 0.75, sum.FRS, 1e-12)
	})

	t.Run("Scale", func(t *testing.T) {
		scaled, err := a.Scale(3)
		require.NoError(t, err)
		assert.InDelta(t, 3, scaled.GWP, 1e-12)
		assert.InDelta(t, 6e-8, scaled.HCT, 1e-20)
		assert.InDelta(t, 1.5, scaled.FRS, 1e-12)
	})

	t.Run("Scale by zero", func(t *testing.T) {
		scaled, err := a.Scale(0)
		require.NoError(t, err)
		assert.True(t, scaled.IsZero())
	})

	t.Run("Scale by negative factor", func(t *testing.T) {
		_, err := a.Scale(-1)
		assert.Error(t, err)
	})
}

func TestImpactProfile_SingleScore(t *testing.T) {
	// gwp/1*0.5 + hct/1e-7*0.25 + frs/1*0.25
	p := MustNewImpactProfile(2, 4e-7, 1)
	want := 2*0.5 + 4*0.25 + 1*0.25
	assert.InDelta(t, want, p.SingleScore(), 1e-12)

	assert.Zero(t, ZeroImpact().SingleScore())
}

func TestImpactProfile_Equality(t *testing.T) {
	a := MustNewImpactProfile(1, 2e-8, 0.5)
	b := MustNewImpactProfile(1, 2e-8, 0.5)
	c := MustNewImpactProfile(1, 2e-8, 0.6)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.IsZero())
	assert.True(t, ZeroImpact().IsZero())
}

func TestImpactProfile_JSON(t *testing.T) {
	p := MustNewImpactProfile(1.5, 2e-8, 0.75)

	t.Run("Marshal includes single score", func(t *testing.T) {
		data, err := json.Marshal(p)
		require.NoError(t, err)

		var raw map[string]float64
		require.NoError(t, json.Unmarshal(data, &raw))
		assert.InDelta(t, 1.5, raw["gwp"], 1e-12)
		assert.InDelta(t, p.SingleScore(), raw["single_score"], 1e-12)
	})

	t.Run("Round trip", func(t *testing.T) {
		data, err := json.Marshal(p)
		require.NoError(t, err)

		var back ImpactProfile
		require.NoError(t, json.Unmarshal(data, &back))
		assert.True(t, p.Equal(back))
	})

	t.Run("Unmarshal rejects negative indicator", func(t *testing.T) {
		var back ImpactProfile
		err := json.Unmarshal([]byte(`{"gwp":-1,"hct":0,"frs":0}`), &back)
		assert.Error(t, err)
	})
}
