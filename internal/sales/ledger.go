package sales

// Ledger holds the mutable line items for one sale editing session. It owns
// its lines exclusively; nothing is shared across sessions and closing the
// session simply drops the ledger.
//
// Mutations are gated by the verdict the caller supplies. The verdict can be
// refreshed mid-session via SetVerdict when the caller edits status fields
// before touching lines.
type Ledger struct {
	lines    []SaleLine
	products map[int64]ProductRef
	verdict  Verdict
}

// NewLedger starts an editing session from the sale's current lines. The
// products map supplies price, tax rate and stock for every referenced
// product; products added later are registered by AddOrMerge.
func NewLedger(lines []SaleLine, products map[int64]ProductRef, verdict Verdict) *Ledger {
	l := &Ledger{
		lines:    make([]SaleLine, len(lines)),
		products: make(map[int64]ProductRef, len(products)),
		verdict:  verdict,
	}
	copy(l.lines, lines)
	for id, p := range products {
		l.products[id] = p
	}
	return l
}

// SetVerdict replaces the editability verdict for subsequent mutations.
func (l *Ledger) SetVerdict(v Verdict) {
	l.verdict = v
}

// AddOrMerge adds qty of the product, merging into an existing line when the
// product is already present. Merged lines keep their original price snapshot
// and discount; no stock clamp is applied at merge time.
func (l *Ledger) AddOrMerge(product ProductRef, qty int) error {
	if !l.verdict.CanEditLines {
		return &PolicyViolationError{Reason: l.verdict.Reason}
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	l.products[product.ID] = product
	for i := range l.lines {
		if l.lines[i].ProductID == product.ID {
			l.lines[i].Quantity += qty
			return nil
		}
	}
	l.lines = append(l.lines, SaleLine{
		ProductID: product.ID,
		Quantity:  qty,
		UnitPrice: product.SalePrice,
		Discount:  0,
	})
	return nil
}

// Remove deletes the line at index.
func (l *Ledger) Remove(index int) error {
	if !l.verdict.CanEditLines {
		return &PolicyViolationError{Reason: l.verdict.Reason}
	}
	if index < 0 || index >= len(l.lines) {
		return ErrLineNotFound
	}
	l.lines = append(l.lines[:index], l.lines[index+1:]...)
	return nil
}

// SetQuantity stores qty clamped into [1, stock] for the line at index.
// Unknown stock leaves the upper bound open. Clamping, not rejection, is the
// policy: callers always end up with a valid in-range value.
func (l *Ledger) SetQuantity(index, qty int) error {
	if !l.verdict.CanEditLines {
		return &PolicyViolationError{Reason: l.verdict.Reason}
	}
	if index < 0 || index >= len(l.lines) {
		return ErrLineNotFound
	}
	if qty < 1 {
		qty = 1
	}
	// Zero stock behaves like unknown stock: the figure is trusted only
	// when positive, otherwise the upper bound stays open.
	if p, ok := l.products[l.lines[index].ProductID]; ok && p.Stock != nil && *p.Stock > 0 && qty > *p.Stock {
		qty = *p.Stock
	}
	l.lines[index].Quantity = qty
	return nil
}

// Subtotal returns Σ (quantity × unit price) − discount over all lines.
// Discount is a flat per-line amount, not a rate.
func (l *Ledger) Subtotal() float64 {
	var sum float64
	for _, line := range l.lines {
		sum += float64(line.Quantity)*line.UnitPrice - line.Discount
	}
	return sum
}

// Lines returns a copy of the current lines.
func (l *Ledger) Lines() []SaleLine {
	out := make([]SaleLine, len(l.lines))
	copy(out, l.lines)
	return out
}

// Len returns the number of lines.
func (l *Ledger) Len() int {
	return len(l.lines)
}

// TaxRate resolves the tax rate for a product known to the session;
// unregistered products are exempt.
func (l *Ledger) TaxRate(productID int64) float64 {
	if p, ok := l.products[productID]; ok {
		return p.TaxRate
	}
	return 0
}
