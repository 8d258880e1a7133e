package catalog

import "math"

// PricingMode selects how the markup is applied to a supplier buy price.
type PricingMode string

const (
	// PricingModePercentMarkup multiplies the buy price by 1 + value/100.
	PricingModePercentMarkup PricingMode = "percent_markup"
	// PricingModeFixedAmount adds a flat value on top of the buy price.
	PricingModeFixedAmount PricingMode = "fixed_amount"
)

// RoundingRule selects how derived sell prices are rounded.
type RoundingRule string

const (
	// RoundingTo10 rounds up to the nearest 10 taka.
	RoundingTo10 RoundingRule = "to_10"
	// RoundingToCent rounds to two decimal places.
	RoundingToCent RoundingRule = "to_cent"
)

// PricingPolicy derives sell prices from supplier buy prices. It is an
// explicit value passed in at construction, never read from process
// environment at call time.
type PricingPolicy struct {
	Mode     PricingMode
	Value    float64
	Rounding RoundingRule
}

// DefaultPricingPolicy matches the store's historical defaults: 15% markup
// rounded up to the nearest 10.
func DefaultPricingPolicy() PricingPolicy {
	return PricingPolicy{Mode: PricingModePercentMarkup, Value: 15, Rounding: RoundingTo10}
}

// SellPrice computes the customer-facing price for a buy price. Invalid
// input yields zero so callers can reject the product outright.
func (p PricingPolicy) SellPrice(buyPrice float64) float64 {
	if buyPrice <= 0 {
		return 0
	}

	price := buyPrice
	switch p.Mode {
	case PricingModeFixedAmount:
		price = buyPrice + p.Value
	case PricingModePercentMarkup:
		price = buyPrice * (1 + p.Value/100)
	default:
		price = buyPrice * (1 + p.Value/100)
	}

	switch p.Rounding {
	case RoundingTo10:
		return math.Ceil(price/10) * 10
	default:
		return math.Round(price*100) / 100
	}
}
