package treasury

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

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

// NewRepository returns the pgx-backed treasury repository.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, RepositoryPort) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const accountColumns = `id, company_id, name, type, status, balance, created_by, created_at, updated_at`

func (r *repository) GetAccount(ctx context.Context, id int64) (*Account, error) {
	return r.getAccount(ctx, id, false)
}

func (r *repository) GetAccountForUpdate(ctx context.Context, id int64) (*Account, error) {
	return r.getAccount(ctx, id, true)
}

func (r *repository) getAccount(ctx context.Context, id int64, forUpdate bool) (*Account, error) {
	query := fmt.Sprintf("SELECT %s FROM treasury_accounts WHERE id = $1", accountColumns)
	if forUpdate {
		query += " FOR UPDATE"
	}
	var a Account
	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.CompanyID, &a.Name, &a.Type, &a.Status, &a.Balance, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) ListAccounts(ctx context.Context, companyID int64) ([]Account, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf(
		"SELECT %s FROM treasury_accounts WHERE company_id = $1 ORDER BY name, id", accountColumns), companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.Name, &a.Type, &a.Status, &a.Balance, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) InsertAccount(ctx context.Context, a Account) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO treasury_accounts (company_id, name, type, status, balance, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		a.CompanyID, a.Name, a.Type, a.Status, a.Balance, a.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) SetAccountStatus(ctx context.Context, id int64, status AccountStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE treasury_accounts SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ApplyToBalance(ctx context.Context, id int64, delta decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE treasury_accounts SET balance = balance + $2, updated_at = NOW() WHERE id = $1`, id, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) InsertTransaction(ctx context.Context, t Transaction) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO treasury_transactions (account_id, type, amount, description, reference, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		t.AccountID, t.Type, t.Amount, t.Description, t.Reference, t.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) ListTransactions(ctx context.Context, input ListTransactionsInput) ([]Transaction, int, error) {
	conditions := []string{"account_id = $1"}
	args := []interface{}{input.AccountID}
	argPos := 2

	if input.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argPos))
		args = append(args, *input.Type)
		argPos++
	}
	if input.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argPos))
		args = append(args, *input.DateFrom)
		argPos++
	}
	if input.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argPos))
		args = append(args, *input.DateTo)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.db.QueryRow(ctx, fmt.Sprintf(
		"SELECT COUNT(*) FROM treasury_transactions %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, account_id, type, amount, description, reference, created_by, created_at
		FROM treasury_transactions
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, whereClause, argPos, argPos+1)
	args = append(args, input.Limit, input.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Type, &t.Amount, &t.Description, &t.Reference, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, 0, err
		}
		results = append(results, t)
	}
	return results, total, rows.Err()
}

func (r *repository) LedgerSum(ctx context.Context, accountID int64, through *time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE WHEN type = 'credit' THEN amount ELSE -amount END), 0)
		FROM treasury_transactions
		WHERE account_id = $1 AND ($2::timestamptz IS NULL OR created_at <= $2)`,
		accountID, through).Scan(&sum)
	return sum, err
}
