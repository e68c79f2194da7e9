package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmix-pos/farmix/internal/platform/db"
	"github.com/farmix-pos/farmix/internal/platform/httpx"
)

// Repository persists sales in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("sales repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const saleColumns = `id, client_id, user_id, document_type, shipping_status, payment_status, payment_method, notes, subtotal, tax_amount, total_amount, created_at, updated_at`

func (r *Repository) Get(ctx context.Context, id int64) (*Sale, error) {
	var sale Sale
	err := r.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id=$1`, id).Scan(
		&sale.ID, &sale.ClientID, &sale.UserID, &sale.DocumentType, &sale.ShippingStatus,
		&sale.PaymentStatus, &sale.PaymentMethod, &sale.Notes, &sale.Subtotal,
		&sale.TaxAmount, &sale.TotalAmount, &sale.CreatedAt, &sale.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: sale %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT id, sale_id, product_id, quantity, unit_price, discount
FROM sale_lines WHERE sale_id=$1 ORDER BY id ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var line SaleLine
		if err := rows.Scan(&line.ID, &line.SaleID, &line.ProductID, &line.Quantity, &line.UnitPrice, &line.Discount); err != nil {
			return nil, err
		}
		sale.Lines = append(sale.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *Repository) List(ctx context.Context, req ListSalesRequest) ([]Sale, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if req.ShippingStatus != nil {
		where = append(where, "shipping_status="+arg(string(*req.ShippingStatus)))
	}
	if req.PaymentStatus != nil {
		where = append(where, "payment_status="+arg(string(*req.PaymentStatus)))
	}
	if req.ClientID != nil {
		where = append(where, "client_id="+arg(*req.ClientID))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sales WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + saleColumns + ` FROM sales WHERE ` + cond +
		` ORDER BY created_at DESC, id DESC LIMIT ` + arg(limit) + ` OFFSET ` + arg(req.Offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	sales := []Sale{}
	for rows.Next() {
		var sale Sale
		if err := rows.Scan(
			&sale.ID, &sale.ClientID, &sale.UserID, &sale.DocumentType, &sale.ShippingStatus,
			&sale.PaymentStatus, &sale.PaymentMethod, &sale.Notes, &sale.Subtotal,
			&sale.TaxAmount, &sale.TotalAmount, &sale.CreatedAt, &sale.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sales WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: sale %d", httpx.ErrNotFound, id)
	}
	return nil
}

func (r *txRepository) UpdateSale(ctx context.Context, id int64, updates map[string]any) error {
	set := []string{"updated_at=NOW()"}
	args := []any{id}
	for column, value := range updates {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	tag, err := r.tx.Exec(ctx, `UPDATE sales SET `+strings.Join(set, ", ")+` WHERE id=$1`, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: sale %d", httpx.ErrNotFound, id)
	}
	return nil
}

func (r *txRepository) ReplaceLines(ctx context.Context, saleID int64, lines []SaleLine) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM sale_lines WHERE sale_id=$1`, saleID); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO sale_lines (sale_id, product_id, quantity, unit_price, discount)
VALUES ($1,$2,$3,$4,$5)`, saleID, line.ProductID, line.Quantity, line.UnitPrice, line.Discount); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) AdjustStock(ctx context.Context, productID int64, delta int) error {
	_, err := r.tx.Exec(ctx, `UPDATE inventory SET quantity = quantity + $2, updated_at=NOW() WHERE product_id=$1`, productID, delta)
	return err
}
