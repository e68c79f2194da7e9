package sales

import (
	"context"
	"fmt"

	"github.com/farmix-pos/farmix/internal/platform/httpx"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (*Sale, error)
	List(ctx context.Context, req ListSalesRequest) ([]Sale, int, error)
	Delete(ctx context.Context, id int64) error
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the transactional operations used by Update.
type TxRepository interface {
	UpdateSale(ctx context.Context, id int64, updates map[string]any) error
	ReplaceLines(ctx context.Context, saleID int64, lines []SaleLine) error
	AdjustStock(ctx context.Context, productID int64, delta int) error
}

// CatalogPort resolves product references for line validation and tax rates.
type CatalogPort interface {
	ProductRefs(ctx context.Context, ids []int64) (map[int64]ProductRef, error)
}

// Service coordinates sale mutations.
type Service struct {
	repo    RepositoryPort
	catalog CatalogPort
}

// NewService constructs a sales service.
func NewService(repo RepositoryPort, catalog CatalogPort) *Service {
	return &Service{repo: repo, catalog: catalog}
}

// Get retrieves a sale with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*Sale, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered page of sales.
func (s *Service) List(ctx context.Context, req ListSalesRequest) ([]Sale, int, error) {
	return s.repo.List(ctx, req)
}

// Delete removes a sale. Deletion sits outside the editability state machine.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Update applies an edit session to a sale. The editability policy is
// enforced server-side and re-evaluated against the stored status, never
// trusted from the client. A nil Lines field leaves lines and inventory
// untouched; a present Lines field requires the line-level unlock.
func (s *Service) Update(ctx context.Context, id int64, req UpdateSaleRequest) (*Sale, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get sale: %w", err)
	}

	verdict := Evaluate(*existing)
	if !verdict.CanEditDocument {
		return nil, &PolicyViolationError{Reason: verdict.Reason}
	}
	if req.Lines != nil && !verdict.CanEditLines {
		return nil, &PolicyViolationError{Reason: verdict.Reason}
	}

	docType := existing.DocumentType
	if req.DocumentType != nil {
		docType = *req.DocumentType
	}

	updates := make(map[string]any)
	if req.ClientID != nil {
		updates["client_id"] = *req.ClientID
	}
	if req.DocumentType != nil {
		updates["document_type"] = string(*req.DocumentType)
	}
	if req.ShippingStatus != nil {
		updates["shipping_status"] = string(*req.ShippingStatus)
	}
	if req.PaymentStatus != nil {
		updates["payment_status"] = string(*req.PaymentStatus)
	}
	if req.PaymentMethod != nil {
		updates["payment_method"] = *req.PaymentMethod
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	var newLines []SaleLine
	if req.Lines != nil {
		if len(*req.Lines) == 0 {
			return nil, fmt.Errorf("%w: sale needs at least one line", httpx.ErrValidation)
		}
		newLines, err = s.resolveLines(ctx, id, *req.Lines, docType, updates)
		if err != nil {
			return nil, err
		}
	} else if req.DocumentType != nil && docType != existing.DocumentType {
		// Switching invoice <-> remission changes the tax even when lines
		// stay untouched.
		rates, err := s.taxRates(ctx, existing.Lines)
		if err != nil {
			return nil, err
		}
		tax := DocumentTax(existing.Lines, rates, docType)
		updates["tax_amount"] = tax
		updates["total_amount"] = Subtotal(existing.Lines) + tax
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if len(updates) > 0 {
			if err := tx.UpdateSale(ctx, id, updates); err != nil {
				return fmt.Errorf("update sale: %w", err)
			}
		}
		if newLines == nil {
			return nil
		}
		if err := tx.ReplaceLines(ctx, id, newLines); err != nil {
			return fmt.Errorf("replace lines: %w", err)
		}
		for productID, delta := range lineDeltas(existing.Lines, newLines) {
			if delta == 0 {
				continue
			}
			// Selling more consumes stock, selling less returns it.
			if err := tx.AdjustStock(ctx, productID, -delta); err != nil {
				return fmt.Errorf("adjust stock for product %d: %w", productID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, id)
}

// resolveLines merges duplicate product entries, clamps quantities against
// known stock and computes the document totals into updates.
func (s *Service) resolveLines(ctx context.Context, saleID int64, inputs []SaleLineInput, docType DocumentType, updates map[string]any) ([]SaleLine, error) {
	ids := make([]int64, 0, len(inputs))
	seen := make(map[int64]struct{}, len(inputs))
	for _, in := range inputs {
		if _, ok := seen[in.ProductID]; !ok {
			seen[in.ProductID] = struct{}{}
			ids = append(ids, in.ProductID)
		}
	}

	products, err := s.catalog.ProductRefs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve products: %w", err)
	}

	merged := make([]SaleLine, 0, len(inputs))
	index := make(map[int64]int, len(inputs))
	for _, in := range inputs {
		product, ok := products[in.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: id %d", ErrUnknownProduct, in.ProductID)
		}
		if i, ok := index[in.ProductID]; ok {
			// Duplicate product entries always collapse into one line with
			// the summed quantity; the first price snapshot wins.
			merged[i].Quantity += in.Quantity
			continue
		}
		price := in.UnitPrice
		if price == 0 {
			price = product.SalePrice
		}
		index[in.ProductID] = len(merged)
		merged = append(merged, SaleLine{
			SaleID:    saleID,
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			UnitPrice: price,
			Discount:  in.Discount,
		})
	}

	for i := range merged {
		if merged[i].Quantity < 1 {
			merged[i].Quantity = 1
		}
		if p := products[merged[i].ProductID]; p.Stock != nil && *p.Stock > 0 && merged[i].Quantity > *p.Stock {
			merged[i].Quantity = *p.Stock
		}
	}

	rate := func(productID int64) float64 {
		return products[productID].TaxRate
	}
	subtotal := Subtotal(merged)
	tax := DocumentTax(merged, rate, docType)
	updates["subtotal"] = subtotal
	updates["tax_amount"] = tax
	updates["total_amount"] = subtotal + tax

	return merged, nil
}

func (s *Service) taxRates(ctx context.Context, lines []SaleLine) (func(int64) float64, error) {
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	products, err := s.catalog.ProductRefs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve products: %w", err)
	}
	return func(productID int64) float64 {
		return products[productID].TaxRate
	}, nil
}

// lineDeltas returns, per product, the change in sold quantity between the
// old and new line sets.
func lineDeltas(oldLines, newLines []SaleLine) map[int64]int {
	deltas := make(map[int64]int)
	for _, line := range oldLines {
		deltas[line.ProductID] -= line.Quantity
	}
	for _, line := range newLines {
		deltas[line.ProductID] += line.Quantity
	}
	return deltas
}
