package domain

import "github.com/shopspring/decimal"

// Plan represents a subscription tier sold on the pricing page.
type Plan struct {
	LicenseID        string          `json:"licenseId"` // plan ID in the licensing system
	Name             string          `json:"name"`
	BaseMonthlyPrice decimal.Decimal `json:"baseMonthlyPrice"` // INR; zero means free/starter
	Popular          bool            `json:"popular"`
}

// IsFree reports whether the plan is the zero-price starter tier.
// Free plans never touch the payment gateway.
func (p Plan) IsFree() bool {
	return p.BaseMonthlyPrice.IsZero()
}

// AvailablePlans returns all sellable plans.
func AvailablePlans() []Plan {
	return []Plan{
		{
			LicenseID:        "lic-starter",
			Name:             "Starter",
			BaseMonthlyPrice: decimal.Zero,
		},
		{
			LicenseID:        "lic-team",
			Name:             "Team",
			BaseMonthlyPrice: decimal.NewFromInt(100),
			Popular:          true,
		},
		{
			LicenseID:        "lic-business",
			Name:             "Business",
			BaseMonthlyPrice: decimal.NewFromInt(500),
		},
	}
}

// GetPlan returns the plan for a given license ID.
func GetPlan(licenseID string) (Plan, bool) {
	for _, p := range AvailablePlans() {
		if p.LicenseID == licenseID {
			return p, true
		}
	}
	return Plan{}, false
}

// PlanQuote pairs a plan with its display price breakdown for every billing
// cycle, for the pricing page.
type PlanQuote struct {
	Plan   Plan                            `json:"plan"`
	Quotes map[BillingCycle]DisplayPricing `json:"quotes"`
}

// QuoteAllCycles prices a plan across all four billing cycles.
func QuoteAllCycles(p Plan) PlanQuote {
	q := PlanQuote{Plan: p, Quotes: make(map[BillingCycle]DisplayPricing, 4)}
	for _, c := range []BillingCycle{CycleMonthly, CycleQuarterly, CycleHalfYearly, CycleYearly} {
		q.Quotes[c] = ComputePricing(p.BaseMonthlyPrice, c).Display()
	}
	return q
}
