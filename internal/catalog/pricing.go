package catalog

import "math"

// PriceDirection classifies the movement between a stored and an incoming
// purchase price.
type PriceDirection string

const (
	PriceUp   PriceDirection = "up"
	PriceDown PriceDirection = "down"
	PriceSame PriceDirection = "same"
	PriceNew  PriceDirection = "new"
)

// SuggestedSalePrice derives a sale price from a purchase price using banded
// margins for pharmaceutical distribution: cheaper products carry wider
// margins.
func SuggestedSalePrice(purchasePrice float64) float64 {
	var margin float64
	switch {
	case purchasePrice <= 10:
		margin = 1.70
	case purchasePrice <= 25:
		margin = 1.60
	case purchasePrice <= 50:
		margin = 1.50
	case purchasePrice <= 100:
		margin = 1.40
	case purchasePrice <= 200:
		margin = 1.35
	case purchasePrice <= 500:
		margin = 1.30
	default:
		margin = 1.25
	}
	return roundCents(purchasePrice * margin)
}

// ComparePrices classifies newPrice against oldPrice. A zero old price means
// the product had no recorded cost and counts as new.
func ComparePrices(oldPrice, newPrice float64) PriceDirection {
	switch {
	case oldPrice == 0:
		return PriceNew
	case newPrice > oldPrice:
		return PriceUp
	case newPrice < oldPrice:
		return PriceDown
	default:
		return PriceSame
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
