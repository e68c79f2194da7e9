package sales

import (
	"time"
)

type DocumentType string

const (
	DocumentTypeInvoice   DocumentType = "invoice"
	DocumentTypeRemission DocumentType = "remission"
)

type ShippingStatus string

const (
	ShippingStatusPending   ShippingStatus = "pending"
	ShippingStatusShipped   ShippingStatus = "shipped"
	ShippingStatusDelivered ShippingStatus = "delivered"
	ShippingStatusCanceled  ShippingStatus = "canceled"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPartial  PaymentStatus = "partial"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Sale is an order document with independent shipping and payment tracks.
type Sale struct {
	ID             int64          `json:"id" db:"id"`
	ClientID       int64          `json:"client_id" db:"client_id"`
	UserID         int64          `json:"user_id" db:"user_id"`
	DocumentType   DocumentType   `json:"document_type" db:"document_type"`
	ShippingStatus ShippingStatus `json:"shipping_status" db:"shipping_status"`
	PaymentStatus  PaymentStatus  `json:"payment_status" db:"payment_status"`
	PaymentMethod  *string        `json:"payment_method,omitempty" db:"payment_method"`
	Notes          *string        `json:"notes,omitempty" db:"notes"`
	Subtotal       float64        `json:"subtotal" db:"subtotal"`
	TaxAmount      float64        `json:"tax_amount" db:"tax_amount"`
	TotalAmount    float64        `json:"total_amount" db:"total_amount"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
	Lines          []SaleLine     `json:"lines,omitempty" db:"-"`
}

// SaleLine is one product entry within a sale. UnitPrice is a snapshot taken
// when the line was added, never re-fetched from the catalog.
type SaleLine struct {
	ID        int64   `json:"id" db:"id"`
	SaleID    int64   `json:"sale_id" db:"sale_id"`
	ProductID int64   `json:"product_id" db:"product_id"`
	Quantity  int     `json:"quantity" db:"quantity"`
	UnitPrice float64 `json:"unit_price" db:"unit_price"`
	Discount  float64 `json:"discount" db:"discount"`
}

// ProductRef carries the catalog figures the editing session needs. Stock is
// nil when the quantity on hand is unknown; unknown stock is treated as
// unbounded.
type ProductRef struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	SalePrice float64 `json:"sale_price"`
	TaxRate   float64 `json:"tax_rate"`
	Stock     *int    `json:"stock,omitempty"`
}

// ============================================================================
// REQUESTS
// ============================================================================

type SaleLineInput struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  int     `json:"quantity" validate:"required,gte=1"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
	Discount  float64 `json:"discount" validate:"gte=0"`
}

// UpdateSaleRequest mutates a sale. Lines is a pointer on purpose: nil means
// "do not touch the lines or inventory", an empty slice would clear them.
type UpdateSaleRequest struct {
	ClientID       *int64           `json:"client_id,omitempty" validate:"omitempty,gt=0"`
	DocumentType   *DocumentType    `json:"document_type,omitempty" validate:"omitempty,oneof=invoice remission"`
	ShippingStatus *ShippingStatus  `json:"shipping_status,omitempty" validate:"omitempty,oneof=pending shipped delivered canceled"`
	PaymentStatus  *PaymentStatus   `json:"payment_status,omitempty" validate:"omitempty,oneof=pending partial paid refunded"`
	PaymentMethod  *string          `json:"payment_method,omitempty" validate:"omitempty,oneof=cash transfer credit check"`
	Notes          *string          `json:"notes,omitempty"`
	Lines          *[]SaleLineInput `json:"lines,omitempty" validate:"omitempty,dive"`
}

type ListSalesRequest struct {
	ShippingStatus *ShippingStatus `json:"shipping_status,omitempty"`
	PaymentStatus  *PaymentStatus  `json:"payment_status,omitempty"`
	ClientID       *int64          `json:"client_id,omitempty"`
	Limit          int             `json:"limit" validate:"gte=0,lte=1000"`
	Offset         int             `json:"offset" validate:"gte=0"`
}

// BuildUpdatePayload assembles the update request a client submits after an
// editing session. Lines are included only when the verdict unlocked them;
// otherwise the field stays nil so the backend never touches inventory.
func BuildUpdatePayload(verdict Verdict, base UpdateSaleRequest, ledger *Ledger) UpdateSaleRequest {
	req := base
	req.Lines = nil
	if !verdict.CanEditLines || ledger == nil {
		return req
	}
	lines := ledger.Lines()
	inputs := make([]SaleLineInput, 0, len(lines))
	for _, line := range lines {
		inputs = append(inputs, SaleLineInput{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Discount:  line.Discount,
		})
	}
	req.Lines = &inputs
	return req
}
