package sales

// LineTax computes the tax amount for one line at the product's rate:
// ((quantity × unit price) − discount) × rate. Amounts accumulate without
// intermediate rounding; rounding happens only at display time.
func LineTax(line SaleLine, rate float64) float64 {
	return (float64(line.Quantity)*line.UnitPrice - line.Discount) * rate
}

// DocumentTax totals per-line tax for the document. A remission is a delivery
// note, not a fiscal invoice, so its tax is always zero regardless of the
// per-product rates.
func DocumentTax(lines []SaleLine, rate func(productID int64) float64, docType DocumentType) float64 {
	if docType == DocumentTypeRemission {
		return 0
	}
	var sum float64
	for _, line := range lines {
		sum += LineTax(line, rate(line.ProductID))
	}
	return sum
}

// Subtotal returns Σ (quantity × unit price) − discount over lines.
func Subtotal(lines []SaleLine) float64 {
	var sum float64
	for _, line := range lines {
		sum += float64(line.Quantity)*line.UnitPrice - line.Discount
	}
	return sum
}

// Total is subtotal plus document tax.
func Total(lines []SaleLine, rate func(productID int64) float64, docType DocumentType) float64 {
	return Subtotal(lines) + DocumentTax(lines, rate, docType)
}
