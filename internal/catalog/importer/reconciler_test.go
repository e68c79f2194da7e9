package importer

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/farmix-pos/farmix/internal/catalog"
	"github.com/farmix-pos/farmix/internal/platform/httpx"
)

type fakeCatalog struct {
	byBarcode map[string]*catalog.Product
	created   []catalog.CreateProductRequest
	updated   map[int64]catalog.UpdateProductRequest
	stock     map[int64]int
	failOn    string
	nextID    int64
}

func newFakeCatalog(products ...catalog.Product) *fakeCatalog {
	c := &fakeCatalog{
		byBarcode: make(map[string]*catalog.Product),
		updated:   make(map[int64]catalog.UpdateProductRequest),
		stock:     make(map[int64]int),
		nextID:    100,
	}
	for i := range products {
		p := products[i]
		if p.Barcode != nil {
			c.byBarcode[*p.Barcode] = &p
		}
	}
	return c
}

func (c *fakeCatalog) GetByBarcode(ctx context.Context, barcode string) (*catalog.Product, error) {
	if barcode == c.failOn {
		return nil, errors.New("connection reset")
	}
	if p, ok := c.byBarcode[barcode]; ok {
		out := *p
		return &out, nil
	}
	return nil, httpx.ErrNotFound
}

func (c *fakeCatalog) Create(ctx context.Context, req catalog.CreateProductRequest) (*catalog.Product, error) {
	c.nextID++
	p := catalog.Product{ID: c.nextID, Barcode: req.Barcode, Name: req.Name, PurchasePrice: req.PurchasePrice, SalePrice: req.SalePrice, TaxRate: req.TaxRate}
	if req.Barcode != nil {
		c.byBarcode[*req.Barcode] = &p
	}
	c.created = append(c.created, req)
	c.stock[p.ID] = req.InitialStock
	return &p, nil
}

func (c *fakeCatalog) Update(ctx context.Context, id int64, req catalog.UpdateProductRequest) (*catalog.Product, error) {
	c.updated[id] = req
	for _, p := range c.byBarcode {
		if p.ID == id {
			out := *p
			return &out, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (c *fakeCatalog) AddStock(ctx context.Context, productID int64, qty int) error {
	c.stock[productID] += qty
	return nil
}

type fakeMetrics struct {
	created, updated, failed int
}

func (m *fakeMetrics) CountImportRows(created, updated, failed int) {
	m.created += created
	m.updated += updated
	m.failed += failed
}

func strPtr(s string) *string { return &s }

func snapshotWith(products ...catalog.Product) map[string]catalog.Product {
	out := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		if p.Barcode != nil {
			out[*p.Barcode] = p
		}
	}
	return out
}

func TestBuildPreviewClassifiesRows(t *testing.T) {
	snapshot := snapshotWith(
		catalog.Product{ID: 1, Barcode: strPtr("111"), Name: "Same", PurchasePrice: 10, SalePrice: 17},
		catalog.Product{ID: 2, Barcode: strPtr("222"), Name: "Up", PurchasePrice: 10, SalePrice: 17},
		catalog.Product{ID: 3, Barcode: strPtr("333"), Name: "Down", PurchasePrice: 10, SalePrice: 17},
	)
	rows := []PriceRow{
		{Barcode: "111", Name: "Same", PurchasePrice: 10},
		{Barcode: "222", Name: "Up", PurchasePrice: 12},
		{Barcode: "333", Name: "Down", PurchasePrice: 8},
		{Barcode: "444", Name: "Fresh", PurchasePrice: 20, Inventory: 5},
	}

	preview := BuildPreview(rows, snapshot)
	require.Equal(t, 4, preview.TotalItems)
	require.Equal(t, 1, preview.NewProducts)
	require.Equal(t, 3, preview.ExistingProducts)
	require.Equal(t, 2, preview.PriceChanges)

	require.Equal(t, catalog.PriceSame, preview.Items[0].PriceChange)
	require.Equal(t, catalog.PriceUp, preview.Items[1].PriceChange)
	require.Equal(t, catalog.PriceDown, preview.Items[2].PriceChange)
	require.Equal(t, catalog.PriceNew, preview.Items[3].PriceChange)

	existing := preview.Items[0]
	require.True(t, existing.Exists)
	require.NotNil(t, existing.ProductID)
	require.Equal(t, int64(1), *existing.ProductID)
	require.NotNil(t, existing.PurchasePriceOld)
	require.Equal(t, 10.0, *existing.PurchasePriceOld)
	require.NotNil(t, existing.SalePriceCurrent)

	fresh := preview.Items[3]
	require.False(t, fresh.Exists)
	require.Nil(t, fresh.ProductID)
	require.Nil(t, fresh.PurchasePriceOld)
	require.Equal(t, catalog.SuggestedSalePrice(20), fresh.SalePriceSuggested)
	require.Equal(t, 5, fresh.InventoryToAdd)
}

func TestPreviewConfirmItemsOneToOne(t *testing.T) {
	preview := BuildPreview(
		[]PriceRow{{Barcode: "444", Name: "Fresh", PurchasePrice: 20, Inventory: 5}},
		nil,
	)
	items := preview.ConfirmItems()
	require.Len(t, items, 1)
	require.Equal(t, "444", items[0].Barcode)
	require.Equal(t, catalog.SuggestedSalePrice(20), items[0].SalePrice)
	require.Equal(t, 5, items[0].InventoryToAdd)
	require.False(t, items[0].Exists)
}

func TestConfirmCreatesAndUpdates(t *testing.T) {
	cat := newFakeCatalog(catalog.Product{ID: 1, Barcode: strPtr("111"), Name: "Old name", PurchasePrice: 10, SalePrice: 17})
	metrics := &fakeMetrics{}
	rec := NewReconciler(cat, metrics, slog.Default())

	result := rec.Confirm(context.Background(), []ConfirmItem{
		{Barcode: "111", Name: "New name", PurchasePrice: 12, SalePrice: 19, TaxRate: 0.16, InventoryToAdd: 10},
		{Barcode: "444", Name: "Fresh", PurchasePrice: 20, SalePrice: 30, InventoryToAdd: 5},
	})

	require.Equal(t, 1, result.Created)
	require.Equal(t, 1, result.Updated)
	require.Empty(t, result.Errors)
	require.Equal(t, 2, result.TotalProcessed)

	require.Contains(t, cat.updated, int64(1))
	require.Equal(t, 10, cat.stock[1])
	require.Len(t, cat.created, 1)
	require.Equal(t, "Fresh", cat.created[0].Name)
	require.Equal(t, 5, cat.created[0].InitialStock)

	require.Equal(t, 1, metrics.created)
	require.Equal(t, 1, metrics.updated)
	require.Zero(t, metrics.failed)
}

func TestConfirmPartialFailureContinues(t *testing.T) {
	cat := newFakeCatalog()
	cat.failOn = "222"
	metrics := &fakeMetrics{}
	rec := NewReconciler(cat, metrics, slog.Default())

	result := rec.Confirm(context.Background(), []ConfirmItem{
		{Barcode: "111", Name: "A", PurchasePrice: 10, SalePrice: 17},
		{Barcode: "222", Name: "B", PurchasePrice: 10, SalePrice: 17},
		{Barcode: "333", Name: "C", PurchasePrice: 10, SalePrice: 17},
	})

	// Row 2 fails, rows 1 and 3 still land.
	require.Equal(t, 2, result.Created)
	require.Zero(t, result.Updated)
	require.Len(t, result.Errors, 1)
	require.Equal(t, "222", result.Errors[0].Barcode)
	require.Contains(t, result.Errors[0].Error, "connection reset")
	require.Equal(t, 3, result.TotalProcessed)
	require.Equal(t, 1, metrics.failed)
}

func TestConfirmIgnoresStaleExistsFlag(t *testing.T) {
	// The catalog already has the product even though the client claims it
	// is new; resubmitting must update, not duplicate.
	cat := newFakeCatalog(catalog.Product{ID: 1, Barcode: strPtr("111"), Name: "Already there", PurchasePrice: 10, SalePrice: 17})
	rec := NewReconciler(cat, nil, slog.Default())

	result := rec.Confirm(context.Background(), []ConfirmItem{
		{Barcode: "111", Name: "Already there", PurchasePrice: 12, SalePrice: 19, Exists: false},
	})

	require.Zero(t, result.Created)
	require.Equal(t, 1, result.Updated)
	require.Empty(t, cat.created)
}

func TestConfirmMissingBarcodeRejected(t *testing.T) {
	rec := NewReconciler(newFakeCatalog(), nil, slog.Default())

	result := rec.Confirm(context.Background(), []ConfirmItem{{Barcode: "", Name: "No code"}})
	require.Len(t, result.Errors, 1)
	require.Zero(t, result.Created)
}

func TestConfirmSkipsZeroInventoryAdd(t *testing.T) {
	cat := newFakeCatalog(catalog.Product{ID: 1, Barcode: strPtr("111"), Name: "X", PurchasePrice: 10, SalePrice: 17})
	rec := NewReconciler(cat, nil, slog.Default())

	result := rec.Confirm(context.Background(), []ConfirmItem{
		{Barcode: "111", Name: "X", PurchasePrice: 10, SalePrice: 17, InventoryToAdd: 0},
	})
	require.Equal(t, 1, result.Updated)
	require.Zero(t, cat.stock[1])
}
