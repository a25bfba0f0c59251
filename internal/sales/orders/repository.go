package orders

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

// NewRepository returns the pgx-backed sales order repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const orderColumns = `id, number, company_id, customer_id, warehouse_id, order_date,
	expected_delivery_date, status, subtotal, total_amount, paid_amount, notes,
	created_by, cancelled_by, cancelled_at, cancellation_reason, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*SalesOrder, error) {
	return r.get(ctx, id, false)
}

func (r *repository) GetForUpdate(ctx context.Context, id int64) (*SalesOrder, error) {
	return r.get(ctx, id, true)
}

func (r *repository) get(ctx context.Context, id int64, forUpdate bool) (*SalesOrder, error) {
	query := fmt.Sprintf("SELECT %s FROM sales_orders WHERE id = $1", orderColumns)
	if forUpdate {
		query += " FOR UPDATE"
	}
	var o SalesOrder
	err := r.db.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.Number, &o.CompanyID, &o.CustomerID, &o.WarehouseID, &o.OrderDate,
		&o.ExpectedDeliveryDate, &o.Status, &o.Subtotal, &o.TotalAmount, &o.PaidAmount, &o.Notes,
		&o.CreatedBy, &o.CancelledBy, &o.CancelledAt, &o.CancellationReason, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	lines, err := r.getLines(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}

func (r *repository) getLines(ctx context.Context, orderID int64) ([]SalesOrderLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, sales_order_id, product_id, quantity, unit_price, discount, line_total, notes, line_order
		FROM sales_order_lines
		WHERE sales_order_id = $1
		ORDER BY line_order, id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []SalesOrderLine
	for rows.Next() {
		var l SalesOrderLine
		if err := rows.Scan(&l.ID, &l.SalesOrderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.Discount, &l.LineTotal, &l.Notes, &l.LineOrder); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListSalesOrdersRequest) ([]SalesOrder, int, error) {
	conditions := []string{"company_id = $1"}
	args := []interface{}{req.CompanyID}
	argPos := 2

	if req.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *req.CustomerID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("order_date >= $%d", argPos))
		args = append(args, *req.DateFrom)
		argPos++
	}
	if req.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("order_date <= $%d", argPos))
		args = append(args, *req.DateTo)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM sales_orders %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM sales_orders
		%s
		ORDER BY order_date DESC, id DESC
		LIMIT $%d OFFSET $%d`, orderColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []SalesOrder
	for rows.Next() {
		var o SalesOrder
		if err := rows.Scan(
			&o.ID, &o.Number, &o.CompanyID, &o.CustomerID, &o.WarehouseID, &o.OrderDate,
			&o.ExpectedDeliveryDate, &o.Status, &o.Subtotal, &o.TotalAmount, &o.PaidAmount, &o.Notes,
			&o.CreatedBy, &o.CancelledBy, &o.CancelledAt, &o.CancellationReason, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		results = append(results, o)
	}
	return results, total, rows.Err()
}

func (r *repository) Insert(ctx context.Context, o SalesOrder) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO sales_orders (number, company_id, customer_id, warehouse_id, order_date,
			expected_delivery_date, status, subtotal, total_amount, paid_amount, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10, $11)
		RETURNING id`,
		o.Number, o.CompanyID, o.CustomerID, o.WarehouseID, o.OrderDate,
		o.ExpectedDeliveryDate, o.Status, o.Subtotal, o.TotalAmount, o.Notes, o.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) InsertLine(ctx context.Context, l SalesOrderLine) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sales_order_lines (sales_order_id, product_id, quantity, unit_price, discount, line_total, notes, line_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.SalesOrderID, l.ProductID, l.Quantity, l.UnitPrice, l.Discount, l.LineTotal, l.Notes, l.LineOrder)
	return err
}

func (r *repository) UpdateHeader(ctx context.Context, o SalesOrder) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE sales_orders
		SET order_date = $2, expected_delivery_date = $3, notes = $4,
			subtotal = $5, total_amount = $6, updated_at = NOW()
		WHERE id = $1`,
		o.ID, o.OrderDate, o.ExpectedDeliveryDate, o.Notes, o.Subtotal, o.TotalAmount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status docstatus.Status, actorID int64, reason *string) error {
	if status == docstatus.SalesCancelled {
		_, err := r.db.Exec(ctx, `
			UPDATE sales_orders
			SET status = $2, cancelled_by = $3, cancelled_at = NOW(), cancellation_reason = $4, updated_at = NOW()
			WHERE id = $1`, id, status, actorID, reason)
		return err
	}
	_, err := r.db.Exec(ctx, `
		UPDATE sales_orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (r *repository) DeleteLines(ctx context.Context, orderID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sales_order_lines WHERE sales_order_id = $1`, orderID)
	return err
}

func (r *repository) DeleteHeader(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sales_orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
