package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/farmix-pos/farmix/internal/shared"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (*Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*Product, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]Product, error)
	Search(ctx context.Context, query string, limit int) ([]Product, error)
	SearchByBarcode(ctx context.Context, prefix string, limit int) ([]Product, error)
	List(ctx context.Context, req ListProductsRequest) ([]Product, int, error)
	AllByBarcode(ctx context.Context) (map[string]Product, error)
	LowStock(ctx context.Context, threshold int) ([]Product, error)
	Create(ctx context.Context, p Product, initialStock int) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	AddStock(ctx context.Context, productID int64, qty int) error
	CreateTag(ctx context.Context, productID int64, name string) error
	TagsFor(ctx context.Context, productID int64) ([]Tag, error)
}

// Service provides catalog business logic.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService constructs a catalog service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create inserts a product with its initial inventory. Tag creation fans out
// concurrently and is all-or-nothing: one failed tag fails the whole
// submission.
func (s *Service) Create(ctx context.Context, req CreateProductRequest) (*Product, error) {
	product := Product{
		Barcode:         req.Barcode,
		Name:            req.Name,
		ActiveSubstance: req.ActiveSubstance,
		Laboratory:      req.Laboratory,
		PurchasePrice:   req.PurchasePrice,
		SalePrice:       req.SalePrice,
		TaxRate:         req.TaxRate,
	}
	id, err := s.repo.Create(ctx, product, req.InitialStock)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	if len(req.Tags) > 0 {
		err := shared.AllOrNothing(ctx, len(req.Tags), func(ctx context.Context, i int) error {
			return s.repo.CreateTag(ctx, id, req.Tags[i])
		})
		if err != nil {
			return nil, fmt.Errorf("create tags: %w", err)
		}
	}

	return s.repo.Get(ctx, id)
}

// Update patches a product.
func (s *Service) Update(ctx context.Context, id int64, req UpdateProductRequest) (*Product, error) {
	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.ActiveSubstance != nil {
		updates["active_substance"] = *req.ActiveSubstance
	}
	if req.Laboratory != nil {
		updates["laboratory"] = *req.Laboratory
	}
	if req.PurchasePrice != nil {
		updates["purchase_price"] = *req.PurchasePrice
	}
	if req.SalePrice != nil {
		updates["sale_price"] = *req.SalePrice
	}
	if req.TaxRate != nil {
		updates["iva_rate"] = *req.TaxRate
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Get retrieves a product by id, with its tags.
func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tags, err := s.repo.TagsFor(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	p.Tags = tags
	return p, nil
}

// GetByBarcode retrieves a product by its exact barcode.
func (s *Service) GetByBarcode(ctx context.Context, barcode string) (*Product, error) {
	return s.repo.GetByBarcode(ctx, barcode)
}

// GetByIDs resolves a batch of product ids.
func (s *Service) GetByIDs(ctx context.Context, ids []int64) (map[int64]Product, error) {
	return s.repo.GetByIDs(ctx, ids)
}

// List returns a filtered, paginated product page.
func (s *Service) List(ctx context.Context, req ListProductsRequest) ([]Product, int, error) {
	return s.repo.List(ctx, req)
}

// SearchBarcode returns exact matches for short inputs and prefix matches
// otherwise.
func (s *Service) SearchBarcode(ctx context.Context, barcode string, limit int) ([]Product, error) {
	if len(barcode) < 3 {
		p, err := s.repo.GetByBarcode(ctx, barcode)
		if err != nil {
			return []Product{}, nil
		}
		return []Product{*p}, nil
	}
	return s.repo.SearchByBarcode(ctx, barcode, limit)
}

// Search matches products by name, barcode or active substance.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Product, error) {
	return s.repo.Search(ctx, query, limit)
}

// Snapshot returns the full barcode-keyed catalog used by import previews.
func (s *Service) Snapshot(ctx context.Context) (map[string]Product, error) {
	return s.repo.AllByBarcode(ctx)
}

// LowStock lists products at or below the threshold.
func (s *Service) LowStock(ctx context.Context, threshold int) ([]Product, error) {
	return s.repo.LowStock(ctx, threshold)
}

// AddStock increments inventory for a product.
func (s *Service) AddStock(ctx context.Context, productID int64, qty int) error {
	return s.repo.AddStock(ctx, productID, qty)
}
