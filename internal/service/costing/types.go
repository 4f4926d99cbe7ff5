package costing

import (
	"github.com/verdantis/peaproc/internal/domain/values"
)

// InvestmentBreakdown decomposes the total capital requirement.
// direct = equipment + installation; total = direct + indirect.
type InvestmentBreakdown struct {
	Equipment    values.Money `json:"equipment"`
	Installation values.Money `json:"installation"`
	Indirect     values.Money `json:"indirect"`
	Direct       values.Money `json:"direct"`
	Total        values.Money `json:"total"`
}

// AnnualCosts expresses the investment as equivalent uniform annual
// payments plus the operating budget.
type AnnualCosts struct {
	CapitalRecoveryFactor float64                 `json:"capital_recovery_factor"`
	AnnualCapitalCharge   values.Money            `json:"annual_capital_charge"`
	OpexByCategory        map[string]values.Money `json:"opex_by_category"`
	AnnualOpex            values.Money            `json:"annual_opex"`
	TotalAnnualCost       values.Money            `json:"total_annual_cost"`
}

// Profitability summarizes the investment case. PaybackYears is nil when
// cumulative cash flow never covers the investment; IRR is nil when the
// NPV has no sign change over the search bracket.
type Profitability struct {
	NPV          values.Money `json:"npv"`
	ROIPercent   float64      `json:"roi_percent"`
	PaybackYears *float64     `json:"payback_years,omitempty"`
	IRR          *float64     `json:"irr,omitempty"`
}
