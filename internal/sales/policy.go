package sales

// Verdict is the two-level editability decision for a sale. It is derived,
// never stored: status fields are themselves editable while the document is
// unlocked, so callers must re-evaluate before every mutation attempt.
type Verdict struct {
	CanEditDocument bool   `json:"can_edit_document"`
	CanEditLines    bool   `json:"can_edit_lines"`
	Reason          string `json:"reason,omitempty"`
}

// Evaluate maps the sale's shipping and payment status to an editability
// verdict. Document-level rules run first; line-level rules are strictly
// narrower and only apply when the document itself is still editable.
func Evaluate(sale Sale) Verdict {
	switch {
	case sale.ShippingStatus == ShippingStatusDelivered:
		return Verdict{Reason: "already delivered"}
	case sale.ShippingStatus == ShippingStatusCanceled:
		return Verdict{Reason: "sale canceled"}
	case sale.PaymentStatus == PaymentStatusRefunded:
		return Verdict{Reason: "sale refunded"}
	}

	switch {
	case sale.ShippingStatus == ShippingStatusShipped:
		return Verdict{CanEditDocument: true, Reason: "order already shipped"}
	case sale.PaymentStatus == PaymentStatusPaid:
		return Verdict{CanEditDocument: true, Reason: "sale already paid; use a partial refund instead"}
	}

	return Verdict{CanEditDocument: true, CanEditLines: true}
}
