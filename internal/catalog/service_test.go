package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/farmix-pos/farmix/internal/platform/httpx"
)

type memoryRepo struct {
	mu       sync.Mutex
	products map[int64]*Product
	stock    map[int64]int
	tags     map[int64][]string
	tagErrOn string
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products: make(map[int64]*Product),
		stock:    make(map[int64]int),
		tags:     make(map[int64][]string),
	}
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	out := *p
	stock := r.stock[id]
	out.Stock = &stock
	return &out, nil
}

func (r *memoryRepo) GetByBarcode(ctx context.Context, barcode string) (*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.Barcode != nil && *p.Barcode == barcode {
			out := *p
			return &out, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (r *memoryRepo) GetByIDs(ctx context.Context, ids []int64) (map[int64]Product, error) {
	out := make(map[int64]Product)
	for _, id := range ids {
		if p, err := r.Get(ctx, id); err == nil {
			out[id] = *p
		}
	}
	return out, nil
}

func (r *memoryRepo) Search(ctx context.Context, query string, limit int) ([]Product, error) {
	return nil, nil
}

func (r *memoryRepo) SearchByBarcode(ctx context.Context, prefix string, limit int) ([]Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Product
	for _, p := range r.products {
		if p.Barcode != nil && len(*p.Barcode) >= len(prefix) && (*p.Barcode)[:len(prefix)] == prefix {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memoryRepo) List(ctx context.Context, req ListProductsRequest) ([]Product, int, error) {
	return nil, 0, nil
}

func (r *memoryRepo) AllByBarcode(ctx context.Context) (map[string]Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Product)
	for _, p := range r.products {
		if p.Barcode != nil {
			out[*p.Barcode] = *p
		}
	}
	return out, nil
}

func (r *memoryRepo) LowStock(ctx context.Context, threshold int) ([]Product, error) {
	return nil, nil
}

func (r *memoryRepo) Create(ctx context.Context, p Product, initialStock int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.Barcode != nil {
		for _, existing := range r.products {
			if existing.Barcode != nil && *existing.Barcode == *p.Barcode {
				return 0, httpx.ErrDuplicate
			}
		}
	}
	r.nextID++
	p.ID = r.nextID
	r.products[p.ID] = &p
	r.stock[p.ID] = initialStock
	return p.ID, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, updates map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return httpx.ErrNotFound
	}
	for col, val := range updates {
		switch col {
		case "name":
			p.Name = val.(string)
		case "purchase_price":
			p.PurchasePrice = val.(float64)
		case "sale_price":
			p.SalePrice = val.(float64)
		case "iva_rate":
			p.TaxRate = val.(float64)
		}
	}
	return nil
}

func (r *memoryRepo) AddStock(ctx context.Context, productID int64, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stock[productID] += qty
	return nil
}

func (r *memoryRepo) TagsFor(ctx context.Context, productID int64) ([]Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tags := []Tag{}
	for i, name := range r.tags[productID] {
		tags = append(tags, Tag{ID: int64(i + 1), Name: name})
	}
	return tags, nil
}

func (r *memoryRepo) CreateTag(ctx context.Context, productID int64, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == r.tagErrOn {
		return errors.New("tag insert failed")
	}
	r.tags[productID] = append(r.tags[productID], name)
	return nil
}

func strPtr(s string) *string { return &s }

func TestServiceCreateWithTags(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, slog.Default())

	p, err := svc.Create(context.Background(), CreateProductRequest{
		Barcode:       strPtr("7501001234567"),
		Name:          "Paracetamol 500mg",
		PurchasePrice: 10,
		SalePrice:     17,
		TaxRate:       0.16,
		InitialStock:  40,
		Tags:          []string{"analgesico", "otc"},
	})
	require.NoError(t, err)
	require.NotNil(t, p.Stock)
	require.Equal(t, 40, *p.Stock)
	require.Len(t, p.Tags, 2)
}

func TestServiceCreateTagFailureFailsWhole(t *testing.T) {
	repo := newMemoryRepo()
	repo.tagErrOn = "otc"
	svc := NewService(repo, slog.Default())

	_, err := svc.Create(context.Background(), CreateProductRequest{
		Name: "Ibuprofeno",
		Tags: []string{"analgesico", "otc"},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "create tags")
}

func TestServiceCreateDuplicateBarcode(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, slog.Default())

	_, err := svc.Create(context.Background(), CreateProductRequest{Barcode: strPtr("750"), Name: "A"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateProductRequest{Barcode: strPtr("750"), Name: "B"})
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestServiceSearchBarcodeShortInputExact(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, slog.Default())
	_, err := svc.Create(context.Background(), CreateProductRequest{Barcode: strPtr("75"), Name: "A"})
	require.NoError(t, err)

	got, err := svc.SearchBarcode(context.Background(), "75", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)

	// Short input with no exact match yields an empty result, not an error.
	got, err = svc.SearchBarcode(context.Background(), "99", 10)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestServiceSearchBarcodePrefix(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, slog.Default())
	for _, code := range []string{"7501001", "7501002", "7602003"} {
		_, err := svc.Create(context.Background(), CreateProductRequest{Barcode: strPtr(code), Name: code})
		require.NoError(t, err)
	}

	got, err := svc.SearchBarcode(context.Background(), "750", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestServiceUpdatePatchesFields(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, slog.Default())
	created, err := svc.Create(context.Background(), CreateProductRequest{Name: "Old", SalePrice: 10})
	require.NoError(t, err)

	name := "New"
	price := 12.5
	updated, err := svc.Update(context.Background(), created.ID, UpdateProductRequest{Name: &name, SalePrice: &price})
	require.NoError(t, err)
	require.Equal(t, "New", updated.Name)
	require.Equal(t, 12.5, updated.SalePrice)
}
