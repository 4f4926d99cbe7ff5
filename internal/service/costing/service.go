// Package costing implements investment aggregation, capital-recovery
// annualization and profitability metrics for the extraction plant.
// Monetary figures are carried as decimal-backed Money values.
package costing

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/verdantis/peaproc/internal/domain/errors"
	"github.com/verdantis/peaproc/internal/domain/values"
)

// IRR search bracket and convergence tolerance for the bisection
const (
	irrLowerBound = -0.99
	irrUpperBound = 10.0
	irrTolerance  = 1e-7
	irrMaxSteps   = 200
)

// Service performs cost estimation. Stateless apart from the quote
// currency.
type Service struct {
	currency string
}

// NewService creates a costing service quoting in the given currency
// (default USD).
func NewService(currency string) *Service {
	if currency == "" {
		currency = values.USD
	}
	return &Service{currency: currency}
}

// EstimateTotalInvestment aggregates direct and indirect costs.
// Negative inputs are rejected rather than propagated arithmetically.
func (s *Service) EstimateTotalInvestment(ctx context.Context, equipmentCost, installationCost, indirectCost float64) (InvestmentBreakdown, error) {
	for name, v := range map[string]float64{
		"equipment_cost":    equipmentCost,
		"installation_cost": installationCost,
		"indirect_cost":     indirectCost,
	} {
		if err := validateCost(name, v); err != nil {
			return InvestmentBreakdown{}, err
		}
	}

	equipment, err := values.NewMoneyFromFloat(equipmentCost, s.currency)
	if err != nil {
		return InvestmentBreakdown{}, errors.NewValidationError("INVALID_CURRENCY", err.Error())
	}
	installation := values.MustNewMoneyFromFloat(installationCost, s.currency)
	indirect := values.MustNewMoneyFromFloat(indirectCost, s.currency)

	direct, err := equipment.Add(installation)
	if err != nil {
		return InvestmentBreakdown{}, errors.NewInternalError("summing direct costs").WithCause(err)
	}
	total, err := direct.Add(indirect)
	if err != nil {
		return InvestmentBreakdown{}, errors.NewInternalError("summing total investment").WithCause(err)
	}

	return InvestmentBreakdown{
		Equipment:    equipment,
		Installation: installation,
		Indirect:     indirect,
		Direct:       direct,
		Total:        total,
	}, nil
}

// CapitalRecoveryFactor converts a present capital sum into equivalent
// uniform annual payments: r(1+r)^n / ((1+r)^n - 1). A zero rate
// degenerates to straight-line recovery 1/n.
func CapitalRecoveryFactor(projectYears int, interestRate float64) (float64, error) {
	if projectYears <= 0 {
		return 0, errors.NewArithmeticError("INVALID_YEARS", "project_years must be positive")
	}
	if math.IsNaN(interestRate) || math.IsInf(interestRate, 0) {
		return 0, errors.NewValidationError("NOT_FINITE", "interest_rate must be finite")
	}
	if interestRate < 0 {
		return 0, errors.NewArithmeticError("NEGATIVE_RATE", "interest_rate cannot be negative")
	}
	if interestRate == 0 {
		return 1 / float64(projectYears), nil
	}

	compound := math.Pow(1+interestRate, float64(projectYears))
	return interestRate * compound / (compound - 1), nil
}

// EstimateAnnualCosts annualizes the capital expenditure with a capital
// recovery factor and adds the operating budget.
func (s *Service) EstimateAnnualCosts(ctx context.Context, capex float64, opexByCategory map[string]float64, projectYears int, interestRate float64) (AnnualCosts, error) {
	if err := validateCost("capex", capex); err != nil {
		return AnnualCosts{}, err
	}
	for category, v := range opexByCategory {
		if err := validateCost("opex."+category, v); err != nil {
			return AnnualCosts{}, err
		}
	}

	crf, err := CapitalRecoveryFactor(projectYears, interestRate)
	if err != nil {
		return AnnualCosts{}, err
	}

	capexMoney := values.MustNewMoneyFromFloat(capex, s.currency)
	charge := capexMoney.Mul(decimal.NewFromFloat(crf))

	opex := make(map[string]values.Money, len(opexByCategory))
	annualOpex := values.Zero(s.currency)
	for category, v := range opexByCategory {
		m := values.MustNewMoneyFromFloat(v, s.currency)
		opex[category] = m
		annualOpex, err = annualOpex.Add(m)
		if err != nil {
			return AnnualCosts{}, errors.NewInternalError("summing opex").WithCause(err)
		}
	}

	total, err := charge.Add(annualOpex)
	if err != nil {
		return AnnualCosts{}, errors.NewInternalError("summing annual costs").WithCause(err)
	}

	return AnnualCosts{
		CapitalRecoveryFactor: crf,
		AnnualCapitalCharge:   charge,
		OpexByCategory:        opex,
		AnnualOpex:            annualOpex,
		TotalAnnualCost:       total,
	}, nil
}

// EstimateProfitability computes NPV, ROI and simple payback for a cash
// flow schedule, plus IRR when the schedule admits one.
func (s *Service) EstimateProfitability(ctx context.Context, investment float64, annualCashFlows []float64, discountRate float64) (Profitability, error) {
	if investment <= 0 || math.IsNaN(investment) || math.IsInf(investment, 0) {
		return Profitability{}, errors.NewValidationError("INVALID_INVESTMENT", "investment must be positive")
	}
	if len(annualCashFlows) == 0 {
		return Profitability{}, errors.NewValidationError("EMPTY_CASH_FLOWS", "at least one annual cash flow is required")
	}
	if math.IsNaN(discountRate) || math.IsInf(discountRate, 0) || discountRate <= -1 {
		return Profitability{}, errors.NewValidationError("INVALID_RATE", "discount rate must be above -100%")
	}
	for i, cf := range annualCashFlows {
		if math.IsNaN(cf) || math.IsInf(cf, 0) {
			return Profitability{}, errors.NewValidationError("NOT_FINITE",
				fmt.Sprintf("cash flow for year %d is not finite", i+1))
		}
	}

	npvValue := netPresentValue(investment, annualCashFlows, discountRate)

	var totalCashFlow float64
	for _, cf := range annualCashFlows {
		totalCashFlow += cf
	}
	roi := (totalCashFlow - investment) / investment * 100

	result := Profitability{
		NPV:        values.MustNewMoneyFromFloat(npvValue, s.currency),
		ROIPercent: roi,
	}

	if payback, reached := simplePayback(investment, annualCashFlows); reached {
		result.PaybackYears = &payback
	}
	if irr, err := InternalRateOfReturn(investment, annualCashFlows); err == nil {
		result.IRR = &irr
	}

	return result, nil
}

// InternalRateOfReturn finds the discount rate with zero NPV by bisection.
// Fails when NPV has no sign change over the search bracket.
func InternalRateOfReturn(investment float64, annualCashFlows []float64) (float64, error) {
	if investment <= 0 || len(annualCashFlows) == 0 {
		return 0, errors.NewValidationError("INVALID_SCHEDULE", "investment must be positive and cash flows non-empty")
	}

	lo, hi := irrLowerBound, irrUpperBound
	npvLo := netPresentValue(investment, annualCashFlows, lo)
	npvHi := netPresentValue(investment, annualCashFlows, hi)
	if npvLo*npvHi > 0 {
		return 0, errors.NewArithmeticError("NO_SIGN_CHANGE",
			"npv does not change sign over the search bracket; irr undefined")
	}

	for i := 0; i < irrMaxSteps; i++ {
		mid := (lo + hi) / 2
		npvMid := netPresentValue(investment, annualCashFlows, mid)
		if math.Abs(npvMid) < irrTolerance || hi-lo < irrTolerance {
			return mid, nil
		}
		if npvLo*npvMid < 0 {
			hi = mid
		} else {
			lo = mid
			npvLo = npvMid
		}
	}

	return (lo + hi) / 2, nil
}

// netPresentValue discounts the cash flow schedule against the upfront
// investment: -I + sum CFt / (1+r)^t.
func netPresentValue(investment float64, cashFlows []float64, rate float64) float64 {
	npv := -investment
	for t, cf := range cashFlows {
		npv += cf / math.Pow(1+rate, float64(t+1))
	}
	return npv
}

// simplePayback finds the first year cumulative cash flow covers the
// investment, interpolating linearly inside that year.
func simplePayback(investment float64, cashFlows []float64) (float64, bool) {
	cumulative := 0.0
	for i, cf := range cashFlows {
		previous := cumulative
		cumulative += cf
		if cumulative >= investment {
			if cf == 0 {
				return float64(i + 1), true
			}
			return float64(i) + (investment-previous)/cf, true
		}
	}
	return 0, false
}

func validateCost(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.NewValidationError("NOT_FINITE", name+" must be finite")
	}
	if v < 0 {
		return errors.NewValidationError("NEGATIVE_COST", name+" cannot be negative")
	}
	return nil
}
