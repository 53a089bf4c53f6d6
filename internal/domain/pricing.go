package domain

import "github.com/shopspring/decimal"

// Tax is applied on the discounted subtotal (18% GST).
var taxRate = decimal.NewFromFloat(0.18)

// PricedOrder is the fully derived price breakdown for one plan + cycle.
// All amounts are exact decimals in INR; nothing here is rounded.
type PricedOrder struct {
	DurationMonths int             `json:"durationMonths"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountRate   decimal.Decimal `json:"discountRate"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TaxableAmount  decimal.Decimal `json:"taxableAmount"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	Total          decimal.Decimal `json:"total"`
}

// ComputePricing derives the price breakdown for a base monthly price and a
// billing cycle. Pure and deterministic: identical inputs always produce
// identical output. An unknown cycle panics — callers must validate cycles
// at the boundary with ParseBillingCycle.
func ComputePricing(baseMonthlyPrice decimal.Decimal, cycle BillingCycle) PricedOrder {
	months := cycle.Months()
	rate := cycle.DiscountRate()

	subtotal := baseMonthlyPrice.Mul(decimal.NewFromInt(int64(months)))
	discount := subtotal.Mul(rate)
	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(taxRate)

	return PricedOrder{
		DurationMonths: months,
		Subtotal:       subtotal,
		DiscountRate:   rate,
		DiscountAmount: discount,
		TaxableAmount:  taxable,
		TaxAmount:      tax,
		Total:          taxable.Add(tax),
	}
}

// AmountInPaise converts the exact total into the gateway's smallest
// currency unit (INR paise).
func (p PricedOrder) AmountInPaise() int64 {
	return p.Total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// DisplayPricing is the on-screen breakdown: discount and tax rounded
// per-field to whole rupees. The checkout page has always rendered it this
// way, so displayed subtotal − discount + tax can differ from the displayed
// total by one rupee; the exact Total is what goes to the gateway.
type DisplayPricing struct {
	DurationMonths int    `json:"durationMonths"`
	Subtotal       string `json:"subtotal"`
	DiscountLabel  string `json:"discountLabel,omitempty"`
	DiscountAmount string `json:"discountAmount"`
	TaxAmount      string `json:"taxAmount"`
	Total          string `json:"total"`
}

// Display renders the per-field rounded breakdown.
func (p PricedOrder) Display() DisplayPricing {
	d := DisplayPricing{
		DurationMonths: p.DurationMonths,
		Subtotal:       p.Subtotal.Round(0).String(),
		DiscountAmount: p.DiscountAmount.Round(0).String(),
		TaxAmount:      p.TaxAmount.Round(0).String(),
		Total:          p.Total.Round(0).String(),
	}
	if !p.DiscountRate.IsZero() {
		d.DiscountLabel = p.DiscountRate.Mul(decimal.NewFromInt(100)).Round(0).String() + "%"
	}
	return d
}
