package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/farmix-pos/farmix/internal/catalog"
	"github.com/farmix-pos/farmix/internal/platform/httpx"
	"github.com/farmix-pos/farmix/internal/shared"
)

// PreviewItem is one diffed row of the import preview. The suggested sale
// price is only a default; the caller may edit it per row before confirming.
type PreviewItem struct {
	Barcode            string                 `json:"barcode"`
	Name               string                 `json:"name"`
	ActiveSubstance    *string                `json:"active_substance,omitempty"`
	Laboratory         *string                `json:"laboratory,omitempty"`
	PurchasePriceOld   *float64               `json:"purchase_price_old,omitempty"`
	PurchasePriceNew   float64                `json:"purchase_price_new"`
	SalePriceSuggested float64                `json:"sale_price_suggested"`
	SalePriceCurrent   *float64               `json:"sale_price_current,omitempty"`
	TaxRate            float64                `json:"iva_rate"`
	InventoryToAdd     int                    `json:"inventory_to_add"`
	Exists             bool                   `json:"exists"`
	ProductID          *int64                 `json:"product_id,omitempty"`
	PriceChange        catalog.PriceDirection `json:"price_change"`
}

// Preview is the diffed row set plus summary counters.
type Preview struct {
	Items            []PreviewItem `json:"items"`
	TotalItems       int           `json:"total_items"`
	NewProducts      int           `json:"new_products"`
	ExistingProducts int           `json:"existing_products"`
	PriceChanges     int           `json:"price_changes"`
}

// ConfirmItem is one row ready to apply. Only SalePrice is meant to be
// edited between preview and confirm.
type ConfirmItem struct {
	Barcode         string  `json:"barcode" validate:"required"`
	Name            string  `json:"name" validate:"required"`
	ActiveSubstance *string `json:"active_substance,omitempty"`
	Laboratory      *string `json:"laboratory,omitempty"`
	PurchasePrice   float64 `json:"purchase_price" validate:"gte=0"`
	SalePrice       float64 `json:"sale_price" validate:"gte=0"`
	TaxRate         float64 `json:"iva_rate" validate:"gte=0,lt=1"`
	InventoryToAdd  int     `json:"inventory_to_add" validate:"gte=0"`
	Exists          bool    `json:"exists"`
	ProductID       *int64  `json:"product_id,omitempty"`
}

// RowError records a failed row from a confirm batch.
type RowError struct {
	Barcode string `json:"barcode"`
	Error   string `json:"error"`
}

// Result aggregates the outcome of one confirm call.
type Result struct {
	Created        int        `json:"created"`
	Updated        int        `json:"updated"`
	Errors         []RowError `json:"errors"`
	TotalProcessed int        `json:"total_processed"`
}

// BuildPreview diffs parsed rows against the catalog snapshot. Rows with no
// catalog match classify as new; matched rows classify by the movement of the
// purchase price against the stored one.
func BuildPreview(rows []PriceRow, snapshot map[string]catalog.Product) Preview {
	preview := Preview{Items: make([]PreviewItem, 0, len(rows))}
	for _, row := range rows {
		item := PreviewItem{
			Barcode:            row.Barcode,
			Name:               row.Name,
			ActiveSubstance:    row.ActiveSubstance,
			Laboratory:         row.Laboratory,
			PurchasePriceNew:   row.PurchasePrice,
			SalePriceSuggested: catalog.SuggestedSalePrice(row.PurchasePrice),
			TaxRate:            row.TaxRate,
			InventoryToAdd:     row.Inventory,
			PriceChange:        catalog.PriceNew,
		}
		if existing, ok := snapshot[row.Barcode]; ok {
			item.Exists = true
			item.ProductID = &existing.ID
			oldPrice := existing.PurchasePrice
			item.PurchasePriceOld = &oldPrice
			salePrice := existing.SalePrice
			item.SalePriceCurrent = &salePrice
			item.PriceChange = catalog.ComparePrices(oldPrice, row.PurchasePrice)
			preview.ExistingProducts++
			if item.PriceChange == catalog.PriceUp || item.PriceChange == catalog.PriceDown {
				preview.PriceChanges++
			}
		} else {
			preview.NewProducts++
		}
		preview.Items = append(preview.Items, item)
	}
	preview.TotalItems = len(preview.Items)
	return preview
}

// ConfirmItems derives the editable confirm batch from a preview, 1:1.
func (p Preview) ConfirmItems() []ConfirmItem {
	items := make([]ConfirmItem, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, ConfirmItem{
			Barcode:         item.Barcode,
			Name:            item.Name,
			ActiveSubstance: item.ActiveSubstance,
			Laboratory:      item.Laboratory,
			PurchasePrice:   item.PurchasePriceNew,
			SalePrice:       item.SalePriceSuggested,
			TaxRate:         item.TaxRate,
			InventoryToAdd:  item.InventoryToAdd,
			Exists:          item.Exists,
			ProductID:       item.ProductID,
		})
	}
	return items
}

// CatalogPort is the catalog surface the reconciler applies rows through.
type CatalogPort interface {
	GetByBarcode(ctx context.Context, barcode string) (*catalog.Product, error)
	Create(ctx context.Context, req catalog.CreateProductRequest) (*catalog.Product, error)
	Update(ctx context.Context, id int64, req catalog.UpdateProductRequest) (*catalog.Product, error)
	AddStock(ctx context.Context, productID int64, qty int) error
}

// MetricsPort records confirm outcomes.
type MetricsPort interface {
	CountImportRows(created, updated, failed int)
}

// Reconciler applies confirm batches row-by-row, best effort.
type Reconciler struct {
	catalog CatalogPort
	metrics MetricsPort
	logger  *slog.Logger
}

// NewReconciler constructs Reconciler. metrics may be nil.
func NewReconciler(cat CatalogPort, metrics MetricsPort, logger *slog.Logger) *Reconciler {
	return &Reconciler{catalog: cat, metrics: metrics, logger: logger}
}

// Confirm applies the batch. Each row succeeds or fails independently; a
// failed row lands in Result.Errors without aborting or rolling back its
// siblings. Existence is re-derived by barcode here rather than trusted from
// the client, so resubmitting a batch after a partial failure updates rows
// that already went through instead of duplicating them.
func (r *Reconciler) Confirm(ctx context.Context, items []ConfirmItem) Result {
	batchID := uuid.New()
	result := Result{TotalProcessed: len(items), Errors: []RowError{}}

	errs := shared.BestEffort(ctx, len(items), func(ctx context.Context, i int) error {
		item := items[i]
		if item.Barcode == "" {
			return fmt.Errorf("%w: barcode required", httpx.ErrValidation)
		}

		existing, err := r.catalog.GetByBarcode(ctx, item.Barcode)
		switch {
		case err == nil:
			req := catalog.UpdateProductRequest{
				Name:          &item.Name,
				PurchasePrice: &item.PurchasePrice,
				SalePrice:     &item.SalePrice,
				TaxRate:       &item.TaxRate,
			}
			if item.ActiveSubstance != nil {
				req.ActiveSubstance = item.ActiveSubstance
			}
			if item.Laboratory != nil {
				req.Laboratory = item.Laboratory
			}
			if _, err := r.catalog.Update(ctx, existing.ID, req); err != nil {
				return err
			}
			if item.InventoryToAdd > 0 {
				if err := r.catalog.AddStock(ctx, existing.ID, item.InventoryToAdd); err != nil {
					return err
				}
			}
			result.Updated++
			return nil
		case errors.Is(err, httpx.ErrNotFound):
			barcode := item.Barcode
			_, err := r.catalog.Create(ctx, catalog.CreateProductRequest{
				Barcode:         &barcode,
				Name:            item.Name,
				ActiveSubstance: item.ActiveSubstance,
				Laboratory:      item.Laboratory,
				PurchasePrice:   item.PurchasePrice,
				SalePrice:       item.SalePrice,
				TaxRate:         item.TaxRate,
				InitialStock:    item.InventoryToAdd,
			})
			if err != nil {
				return err
			}
			result.Created++
			return nil
		default:
			return err
		}
	})

	for _, be := range errs {
		result.Errors = append(result.Errors, RowError{
			Barcode: items[be.Index].Barcode,
			Error:   be.Err.Error(),
		})
	}

	if r.metrics != nil {
		r.metrics.CountImportRows(result.Created, result.Updated, len(result.Errors))
	}
	r.logger.Info("import confirm finished",
		slog.String("batch_id", batchID.String()),
		slog.Int("created", result.Created),
		slog.Int("updated", result.Updated),
		slog.Int("failed", len(result.Errors)),
	)
	return result
}
