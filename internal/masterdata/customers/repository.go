package customers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	mdshared "github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const customerColumns = `id, code, type, name, email, phone, address, credit_limit, payment_terms_days, is_active, created_by, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters mdshared.ListFilters) ([]Customer, int, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM customers WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		clause := ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR code ILIKE $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Type != nil {
		argCount++
		clause := ` AND type = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, *filters.Type)
	}
	if filters.IsActive != nil {
		argCount++
		clause := ` AND is_active = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, *filters.IsActive)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY " + sortOrder(filters.SortBy, filters.SortDir)

	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)

		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, filters.Offset())
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := scanCustomer(rows, &c); err != nil {
			return nil, 0, err
		}
		customers = append(customers, c)
	}
	return customers, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Customer, error) {
	var c Customer
	err := scanCustomer(r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id), &c)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, shared.ErrNotFound
	}
	return c, err
}

// MaxCodeSequence reads the highest numeric suffix for a prefix, 0 when none
// exist yet.
func (r *repository) MaxCodeSequence(ctx context.Context, prefix string) (int64, error) {
	var max int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(SUBSTRING(code FROM $2)::bigint), 0)
		FROM customers
		WHERE code LIKE $1`, prefix+"%", len(prefix)+1).Scan(&max)
	return max, err
}

func (r *repository) Insert(ctx context.Context, c Customer) (int64, error) {
	now := time.Now()
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO customers (code, type, name, email, phone, address, credit_limit, payment_terms_days, is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING id`,
		c.Code, c.Type, c.Name, c.Email, c.Phone, c.Address, c.CreditLimit, c.PaymentTermsDays, c.IsActive, c.CreatedBy, now,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, c Customer) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE customers
		SET name = $2, email = $3, phone = $4, address = $5, credit_limit = $6, payment_terms_days = $7, is_active = $8, updated_at = $9
		WHERE id = $1`,
		id, c.Name, c.Email, c.Phone, c.Address, c.CreditLimit, c.PaymentTermsDays, c.IsActive, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row, c *Customer) error {
	return row.Scan(&c.ID, &c.Code, &c.Type, &c.Name, &c.Email, &c.Phone, &c.Address,
		&c.CreditLimit, &c.PaymentTermsDays, &c.IsActive, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	switch sortBy {
	case "code":
		return "code " + dir
	case "name":
		return "name " + dir
	case "created_at":
		return "created_at " + dir
	default:
		return "name " + dir
	}
}
