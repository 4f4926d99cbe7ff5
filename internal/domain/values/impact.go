package values

import (
	"encoding/json"
	"fmt"
	"math"
)

// ImpactProfile represents the environmental footprint of a process or
// resource across the three tracked indicators as a value object:
// global warming potential (kg CO2-eq), human carcinogenic toxicity (CTUh)
// and fossil resource scarcity (kg oil-eq).
type ImpactProfile struct {
	GWP float64 `json:"gwp"`
	HCT float64 `json:"hct"`
	FRS float64 `json:"frs"`
}

// Reference magnitudes used to bring the indicators onto a common scale
// before weighting. One unit of normalized impact corresponds to these
// absolute quantities.
const (
	gwpReference = 1.0    // kg CO2-eq
	hctReference = 1.0e-7 // CTUh
	frsReference = 1.0    // kg oil-eq
)

// Indicator weights for the single score. GWP dominates, matching the
// weighting used in the eco-efficiency assessment method.
const (
	gwpWeight = 0.5
	hctWeight = 0.25
	frsWeight = 0.25
)

// NewImpactProfile creates a new ImpactProfile with validation
func NewImpactProfile(gwp, hct, frs float64) (ImpactProfile, error) {
	if err := validateIndicator(gwp, "gwp"); err != nil {
		return ImpactProfile{}, err
	}
	if err := validateIndicator(hct, "hct"); err != nil {
		return ImpactProfile{}, err
	}
	if err := validateIndicator(frs, "frs"); err != nil {
		return ImpactProfile{}, err
	}

	return ImpactProfile{GWP: gwp, HCT: hct, FRS: frs}, nil
}

// MustNewImpactProfile creates an ImpactProfile and panics on error (for constants/tests)
func MustNewImpactProfile(gwp, hct, frs float64) ImpactProfile {
	p, err := NewImpactProfile(gwp, hct, frs)
	if err != nil {
		panic(err)
	}
	return p
}

// ZeroImpact returns an empty profile
func ZeroImpact() ImpactProfile {
	return ImpactProfile{}
}

// Add returns the sum of two profiles
func (p ImpactProfile) Add(other ImpactProfile) ImpactProfile {
	return ImpactProfile{
		GWP: p.GWP + other.GWP,
		HCT: p.HCT + other.HCT,
		FRS: p.FRS + other.FRS,
	}
}

// Scale returns the profile multiplied by a nonnegative factor
func (p ImpactProfile) Scale(factor float64) (ImpactProfile, error) {
	if err := validateIndicator(factor, "factor"); err != nil {
		return ImpactProfile{}, err
	}
	return ImpactProfile{
		GWP: p.GWP * factor,
		HCT: p.HCT * factor,
		FRS: p.FRS * factor,
	}, nil
}

// SingleScore collapses the profile into one weighted, normalized figure.
// Higher means more environmental burden.
func (p ImpactProfile) SingleScore() float64 {
	return p.GWP/gwpReference*gwpWeight +
		p.HCT/hctReference*hctWeight +
		p.FRS/frsReference*frsWeight
}

// IsZero checks if all indicators are zero
func (p ImpactProfile) IsZero() bool {
	return p.GWP == 0 && p.HCT == 0 && p.FRS == 0
}

// Equal checks if two profiles are equal
func (p ImpactProfile) Equal(other ImpactProfile) bool {
	return p.GWP == other.GWP && p.HCT == other.HCT && p.FRS == other.FRS
}

// String returns a string representation of the profile
func (p ImpactProfile) String() string {
	return fmt.Sprintf("ImpactProfile{GWP: %.3f kg CO2-eq, HCT: %.3e CTUh, FRS: %.3f kg oil-eq}", p.GWP, p.HCT, p.FRS)
}

// MarshalJSON implements JSON marshaling, including the derived single score
func (p ImpactProfile) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		GWP         float64 `json:"gwp"`
		HCT         float64 `json:"hct"`
		FRS         float64 `json:"frs"`
		SingleScore float64 `json:"single_score"`
	}{
		GWP:         p.GWP,
		HCT:         p.HCT,
		FRS:         p.FRS,
		SingleScore: p.SingleScore(),
	})
}

// UnmarshalJSON implements JSON unmarshaling
func (p *ImpactProfile) UnmarshalJSON(data []byte) error {
	var raw struct {
		GWP float64 `json:"gwp"`
		HCT float64 `json:"hct"`
		FRS float64 `json:"frs"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	profile, err := NewImpactProfile(raw.GWP, raw.HCT, raw.FRS)
	if err != nil {
		return err
	}

	*p = profile
	return nil
}

func validateIndicator(value float64, fieldName string) error {
	if math.IsNaN(value) {
		return fmt.Errorf("%s cannot be NaN", fieldName)
	}
	if math.IsInf(value, 0) {
		return fmt.Errorf("%s cannot be infinite", fieldName)
	}
	if value < 0 {
		return fmt.Errorf("%s cannot be negative", fieldName)
	}
	return nil
}
