package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSuggestedSalePrice(t *testing.T) {
	cases := []struct {
		purchase float64
		want     float64
	}{
		{5, 8.50},
		{10, 17.00},
		{10.01, 16.02},
		{25, 40.00},
		{30, 45.00},
		{50, 75.00},
		{75, 105.00},
		{100, 140.00},
		{150, 202.50},
		{200, 270.00},
		{350, 455.00},
		{500, 650.00},
		{1000, 1250.00},
	}
	for _, tc := range cases {
		require.InDelta(t, tc.want, SuggestedSalePrice(tc.purchase), 1e-9, "purchase %.2f", tc.purchase)
	}
}

func TestSuggestedSalePriceRoundsToCents(t *testing.T) {
	// 9.99 × 1.70 = 16.983 -> 16.98
	require.Equal(t, 16.98, SuggestedSalePrice(9.99))
}

func TestComparePrices(t *testing.T) {
	require.Equal(t, PriceNew, ComparePrices(0, 10))
	require.Equal(t, PriceUp, ComparePrices(10, 12))
	require.Equal(t, PriceDown, ComparePrices(10, 8))
	require.Equal(t, PriceSame, ComparePrices(10, 10))
}
