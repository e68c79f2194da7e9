package catalog

import (
	"time"
)

// Product is a catalog entry. Stock mirrors the inventory row and is nil
// when no inventory record exists for the product yet.
type Product struct {
	ID              int64     `json:"id" db:"id"`
	Barcode         *string   `json:"barcode,omitempty" db:"barcode"`
	Name            string    `json:"name" db:"name"`
	ActiveSubstance *string   `json:"active_substance,omitempty" db:"active_substance"`
	Laboratory      *string   `json:"laboratory,omitempty" db:"laboratory"`
	PurchasePrice   float64   `json:"purchase_price" db:"purchase_price"`
	SalePrice       float64   `json:"sale_price" db:"sale_price"`
	TaxRate         float64   `json:"iva_rate" db:"iva_rate"`
	Stock           *int      `json:"stock,omitempty" db:"-"`
	Tags            []Tag     `json:"tags,omitempty" db:"-"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Tag labels a product for filtering in the storefront.
type Tag struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type CreateProductRequest struct {
	Barcode         *string  `json:"barcode,omitempty" validate:"omitempty,max=50"`
	Name            string   `json:"name" validate:"required,max=200"`
	ActiveSubstance *string  `json:"active_substance,omitempty" validate:"omitempty,max=200"`
	Laboratory      *string  `json:"laboratory,omitempty" validate:"omitempty,max=200"`
	PurchasePrice   float64  `json:"purchase_price" validate:"gte=0"`
	SalePrice       float64  `json:"sale_price" validate:"gte=0"`
	TaxRate         float64  `json:"iva_rate" validate:"gte=0,lt=1"`
	InitialStock    int      `json:"initial_stock" validate:"gte=0"`
	Tags            []string `json:"tags,omitempty" validate:"omitempty,dive,required,max=50"`
}

type UpdateProductRequest struct {
	Name            *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	ActiveSubstance *string  `json:"active_substance,omitempty" validate:"omitempty,max=200"`
	Laboratory      *string  `json:"laboratory,omitempty" validate:"omitempty,max=200"`
	PurchasePrice   *float64 `json:"purchase_price,omitempty" validate:"omitempty,gte=0"`
	SalePrice       *float64 `json:"sale_price,omitempty" validate:"omitempty,gte=0"`
	TaxRate         *float64 `json:"iva_rate,omitempty" validate:"omitempty,gte=0,lt=1"`
}

type ListProductsRequest struct {
	Search      string `json:"search,omitempty"`
	StockFilter string `json:"stock_filter,omitempty" validate:"omitempty,oneof=all low out"`
	Page        int    `json:"page" validate:"gte=0"`
	PerPage     int    `json:"per_page" validate:"gte=0,lte=500"`
}
