package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmix-pos/farmix/internal/platform/db"
	"github.com/farmix-pos/farmix/internal/platform/httpx"
)

// Repository persists catalog data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productColumns = `p.id, p.barcode, p.name, p.active_substance, p.laboratory, p.purchase_price, p.sale_price, p.iva_rate, i.quantity, p.created_at, p.updated_at`

const productFrom = ` FROM products p LEFT JOIN inventory i ON i.product_id = p.id`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	if err := row.Scan(&p.ID, &p.Barcode, &p.Name, &p.ActiveSubstance, &p.Laboratory,
		&p.PurchasePrice, &p.SalePrice, &p.TaxRate, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+productFrom+` WHERE p.id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: product %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return p, nil
}

func (r *Repository) GetByBarcode(ctx context.Context, barcode string) (*Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+productFrom+` WHERE p.barcode=$1`, barcode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: barcode %s", httpx.ErrNotFound, barcode)
		}
		return nil, err
	}
	return p, nil
}

// GetByIDs returns the products for the given ids, keyed by id.
func (r *Repository) GetByIDs(ctx context.Context, ids []int64) (map[int64]Product, error) {
	if len(ids) == 0 {
		return map[int64]Product{}, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+productFrom+` WHERE p.id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = *p
	}
	return out, rows.Err()
}

// Search matches name, barcode or active substance.
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + query + "%"
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+productFrom+`
WHERE p.name ILIKE $1 OR p.barcode ILIKE $1 OR p.active_substance ILIKE $1
ORDER BY p.name ASC LIMIT $2`, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

// SearchByBarcode matches barcodes by prefix.
func (r *Repository) SearchByBarcode(ctx context.Context, prefix string, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+productFrom+`
WHERE p.barcode LIKE $1 ORDER BY p.barcode ASC LIMIT $2`, prefix+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (r *Repository) List(ctx context.Context, req ListProductsRequest) ([]Product, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if req.Search != "" {
		p := arg("%" + req.Search + "%")
		where = append(where, `(p.name ILIKE `+p+` OR p.barcode ILIKE `+p+` OR p.active_substance ILIKE `+p+`)`)
	}
	switch req.StockFilter {
	case "low":
		where = append(where, `COALESCE(i.quantity, 0) > 0 AND COALESCE(i.quantity, 0) <= 5`)
	case "out":
		where = append(where, `COALESCE(i.quantity, 0) = 0`)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+productFrom+` WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := req.PerPage
	if perPage <= 0 {
		perPage = 50
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}
	query := `SELECT ` + productColumns + productFrom + ` WHERE ` + cond +
		` ORDER BY p.name ASC LIMIT ` + arg(perPage) + ` OFFSET ` + arg((page-1)*perPage)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// AllByBarcode returns every product that carries a barcode, keyed by it.
// Feeds the import preview snapshot.
func (r *Repository) AllByBarcode(ctx context.Context) (map[string]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+productFrom+` WHERE p.barcode IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]Product)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[*p.Barcode] = *p
	}
	return out, rows.Err()
}

// LowStock lists products at or below the threshold.
func (r *Repository) LowStock(ctx context.Context, threshold int) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+productFrom+`
WHERE COALESCE(i.quantity, 0) <= $1 ORDER BY COALESCE(i.quantity, 0) ASC, p.name ASC`, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (r *Repository) Create(ctx context.Context, p Product, initialStock int) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO products (barcode, name, active_substance, laboratory, purchase_price, sale_price, iva_rate, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW()) RETURNING id`,
			p.Barcode, p.Name, p.ActiveSubstance, p.Laboratory, p.PurchasePrice, p.SalePrice, p.TaxRate).Scan(&id)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return fmt.Errorf("%w: barcode already registered", httpx.ErrDuplicate)
			}
			return err
		}
		_, err = tx.Exec(ctx, `INSERT INTO inventory (product_id, quantity, updated_at) VALUES ($1,$2,NOW())`, id, initialStock)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *Repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	set := []string{"updated_at=NOW()"}
	args := []any{id}
	for column, value := range updates {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	tag, err := r.pool.Exec(ctx, `UPDATE products SET `+strings.Join(set, ", ")+` WHERE id=$1`, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", httpx.ErrNotFound, id)
	}
	return nil
}

// AddStock increments inventory, creating the row when missing.
func (r *Repository) AddStock(ctx context.Context, productID int64, qty int) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO inventory (product_id, quantity, updated_at)
VALUES ($1,$2,NOW())
ON CONFLICT (product_id) DO UPDATE SET quantity = inventory.quantity + EXCLUDED.quantity, updated_at=NOW()`, productID, qty)
	return err
}

// TagsFor lists the tags linked to a product.
func (r *Repository) TagsFor(ctx context.Context, productID int64) ([]Tag, error) {
	rows, err := r.pool.Query(ctx, `SELECT t.id, t.name FROM tags t
JOIN product_tags pt ON pt.tag_id = t.id
WHERE pt.product_id = $1 ORDER BY t.name ASC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tags := []Tag{}
	for rows.Next() {
		var tag Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// CreateTag inserts the tag when new and links it to the product.
func (r *Repository) CreateTag(ctx context.Context, productID int64, name string) error {
	var tagID int64
	err := r.pool.QueryRow(ctx, `INSERT INTO tags (name) VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id`, name).Scan(&tagID)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO product_tags (product_id, tag_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`, productID, tagID)
	return err
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}
