package sales

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func flatRate(rate float64) func(int64) float64 {
	return func(int64) float64 { return rate }
}

func TestLineTax(t *testing.T) {
	line := SaleLine{Quantity: 3, UnitPrice: 100, Discount: 50}
	require.InDelta(t, (3*100.0-50)*0.16, LineTax(line, 0.16), 1e-9)
	require.Zero(t, LineTax(line, 0))
}

func TestDocumentTaxInvoice(t *testing.T) {
	lines := []SaleLine{
		{ProductID: 1, Quantity: 2, UnitPrice: 100},
		{ProductID: 2, Quantity: 1, UnitPrice: 50, Discount: 10},
	}
	rates := map[int64]float64{1: 0.16, 2: 0.08}
	rate := func(id int64) float64 { return rates[id] }

	want := 2*100.0*0.16 + (50.0-10)*0.08
	require.InDelta(t, want, DocumentTax(lines, rate, DocumentTypeInvoice), 1e-9)
}

func TestDocumentTaxRemissionAlwaysZero(t *testing.T) {
	lines := []SaleLine{{ProductID: 1, Quantity: 10, UnitPrice: 500}}
	require.Zero(t, DocumentTax(lines, flatRate(0.16), DocumentTypeRemission))
}

func TestTotal(t *testing.T) {
	lines := []SaleLine{{ProductID: 1, Quantity: 2, UnitPrice: 100}}

	require.InDelta(t, 200+200*0.16, Total(lines, flatRate(0.16), DocumentTypeInvoice), 1e-9)
	require.InDelta(t, 200.0, Total(lines, flatRate(0.16), DocumentTypeRemission), 1e-9)
}

func TestTaxNoIntermediateRounding(t *testing.T) {
	// 3 × 9.99 at 16% is 4.79520; per-line rounding would give 4.80.
	lines := []SaleLine{{ProductID: 1, Quantity: 3, UnitPrice: 9.99}}
	require.InDelta(t, 4.7952, DocumentTax(lines, flatRate(0.16), DocumentTypeInvoice), 1e-9)
}
