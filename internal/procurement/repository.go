package procurement

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/docstatus"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository returns the pgx-backed purchase order repository.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, RepositoryPort) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const poColumns = `id, number, company_id, supplier_id, warehouse_id, order_date,
	expected_date, status, subtotal, total_amount, paid_amount, notes,
	created_by, cancelled_by, cancelled_at, cancellation_reason, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*PurchaseOrder, error) {
	return r.get(ctx, id, false)
}

func (r *repository) GetForUpdate(ctx context.Context, id int64) (*PurchaseOrder, error) {
	return r.get(ctx, id, true)
}

func (r *repository) get(ctx context.Context, id int64, forUpdate bool) (*PurchaseOrder, error) {
	query := fmt.Sprintf("SELECT %s FROM purchase_orders WHERE id = $1", poColumns)
	if forUpdate {
		query += " FOR UPDATE"
	}
	var po PurchaseOrder
	err := r.db.QueryRow(ctx, query, id).Scan(
		&po.ID, &po.Number, &po.CompanyID, &po.SupplierID, &po.WarehouseID, &po.OrderDate,
		&po.ExpectedDate, &po.Status, &po.Subtotal, &po.TotalAmount, &po.PaidAmount, &po.Notes,
		&po.CreatedBy, &po.CancelledBy, &po.CancelledAt, &po.CancellationReason, &po.CreatedAt, &po.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, purchase_order_id, product_id, quantity, unit_cost, discount, line_total, notes, line_order
		FROM purchase_order_lines
		WHERE purchase_order_id = $1
		ORDER BY line_order, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l PurchaseOrderLine
		if err := rows.Scan(&l.ID, &l.PurchaseOrderID, &l.ProductID, &l.Quantity, &l.UnitCost, &l.Discount, &l.LineTotal, &l.Notes, &l.LineOrder); err != nil {
			return nil, err
		}
		po.Lines = append(po.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *repository) List(ctx context.Context, input ListPurchaseOrdersInput) ([]PurchaseOrder, int, error) {
	conditions := []string{"company_id = $1"}
	args := []interface{}{input.CompanyID}
	argPos := 2

	if input.SupplierID != nil {
		conditions = append(conditions, fmt.Sprintf("supplier_id = $%d", argPos))
		args = append(args, *input.SupplierID)
		argPos++
	}
	if input.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *input.Status)
		argPos++
	}
	if input.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("order_date >= $%d", argPos))
		args = append(args, *input.DateFrom)
		argPos++
	}
	if input.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("order_date <= $%d", argPos))
		args = append(args, *input.DateTo)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM purchase_orders %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM purchase_orders
		%s
		ORDER BY order_date DESC, id DESC
		LIMIT $%d OFFSET $%d`, poColumns, whereClause, argPos, argPos+1)
	args = append(args, input.Limit, input.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []PurchaseOrder
	for rows.Next() {
		var po PurchaseOrder
		if err := rows.Scan(
			&po.ID, &po.Number, &po.CompanyID, &po.SupplierID, &po.WarehouseID, &po.OrderDate,
			&po.ExpectedDate, &po.Status, &po.Subtotal, &po.TotalAmount, &po.PaidAmount, &po.Notes,
			&po.CreatedBy, &po.CancelledBy, &po.CancelledAt, &po.CancellationReason, &po.CreatedAt, &po.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		results = append(results, po)
	}
	return results, total, rows.Err()
}

func (r *repository) Insert(ctx context.Context, po PurchaseOrder) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO purchase_orders (number, company_id, supplier_id, warehouse_id, order_date,
			expected_date, status, subtotal, total_amount, paid_amount, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10, $11)
		RETURNING id`,
		po.Number, po.CompanyID, po.SupplierID, po.WarehouseID, po.OrderDate,
		po.ExpectedDate, po.Status, po.Subtotal, po.TotalAmount, po.Notes, po.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) InsertLine(ctx context.Context, l PurchaseOrderLine) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO purchase_order_lines (purchase_order_id, product_id, quantity, unit_cost, discount, line_total, notes, line_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.PurchaseOrderID, l.ProductID, l.Quantity, l.UnitCost, l.Discount, l.LineTotal, l.Notes, l.LineOrder)
	return err
}

func (r *repository) UpdateHeader(ctx context.Context, po PurchaseOrder) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE purchase_orders
		SET order_date = $2, expected_date = $3, notes = $4,
			subtotal = $5, total_amount = $6, updated_at = NOW()
		WHERE id = $1`,
		po.ID, po.OrderDate, po.ExpectedDate, po.Notes, po.Subtotal, po.TotalAmount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status docstatus.Status, actorID int64, reason *string) error {
	if status == docstatus.PurchaseCancelled {
		_, err := r.db.Exec(ctx, `
			UPDATE purchase_orders
			SET status = $2, cancelled_by = $3, cancelled_at = NOW(), cancellation_reason = $4, updated_at = NOW()
			WHERE id = $1`, id, status, actorID, reason)
		return err
	}
	_, err := r.db.Exec(ctx, `
		UPDATE purchase_orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (r *repository) DeleteLines(ctx context.Context, poID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM purchase_order_lines WHERE purchase_order_id = $1`, poID)
	return err
}

func (r *repository) DeleteHeader(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM purchase_orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
