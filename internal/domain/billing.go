package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BillingCycle is the cadence the user picked at checkout.
type BillingCycle string

const (
	CycleMonthly    BillingCycle = "monthly"
	CycleQuarterly  BillingCycle = "quarterly"
	CycleHalfYearly BillingCycle = "half-yearly"
	CycleYearly     BillingCycle = "yearly"
)

// ParseBillingCycle validates a cycle coming in over the wire.
func ParseBillingCycle(s string) (BillingCycle, error) {
	switch BillingCycle(s) {
	case CycleMonthly, CycleQuarterly, CycleHalfYearly, CycleYearly:
		return BillingCycle(s), nil
	}
	return "", ErrBadRequest(fmt.Sprintf("invalid billing cycle %q", s))
}

// Months returns the paid duration for the cycle.
func (c BillingCycle) Months() int {
	switch c {
	case CycleMonthly:
		return 1
	case CycleQuarterly:
		return 3
	case CycleHalfYearly:
		return 6
	case CycleYearly:
		return 12
	}
	panic(fmt.Sprintf("unknown billing cycle %q", c))
}

// DiscountRate returns the discount tier for the cycle.
func (c BillingCycle) DiscountRate() decimal.Decimal {
	switch c {
	case CycleMonthly:
		return decimal.Zero
	case CycleQuarterly:
		return decimal.NewFromFloat(0.05)
	case CycleHalfYearly:
		return decimal.NewFromFloat(0.10)
	case CycleYearly:
		return decimal.NewFromFloat(0.20)
	}
	panic(fmt.Sprintf("unknown billing cycle %q", c))
}

// Normalized returns the cycle the licensing backend understands.
// Quarterly and half-yearly collapse to monthly there; the original
// cycle is kept separately for the gateway order and for display.
func (c BillingCycle) Normalized() BillingCycle {
	if c == CycleQuarterly || c == CycleHalfYearly {
		return CycleMonthly
	}
	return c
}
