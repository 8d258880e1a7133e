package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPercentMarkupRoundsUpToTen(t *testing.T) {
	policy := DefaultPricingPolicy()

	// 1000 * 1.15 = 1150, already a multiple of 10.
	require.InDelta(t, 1150.0, policy.SellPrice(1000), 0.001)
	// 993 * 1.15 = 1141.95 -> 1150.
	require.InDelta(t, 1150.0, policy.SellPrice(993), 0.001)
	// 998 * 1.15 = 1147.7 -> 1150.
	require.InDelta(t, 1150.0, policy.SellPrice(998), 0.001)
}

func TestFixedAmountMarkup(t *testing.T) {
	policy := PricingPolicy{Mode: PricingModeFixedAmount, Value: 50, Rounding: RoundingToCent}

	require.InDelta(t, 149.99, policy.SellPrice(99.99), 0.001)
}

func TestInvalidBuyPrice(t *testing.T) {
	policy := DefaultPricingPolicy()

	require.Zero(t, policy.SellPrice(0))
	require.Zero(t, policy.SellPrice(-10))
}

func TestUnknownModeFallsBackToPercent(t *testing.T) {
	policy := PricingPolicy{Mode: "mystery", Value: 15, Rounding: RoundingTo10}

	require.InDelta(t, 1150.0, policy.SellPrice(1000), 0.001)
}
