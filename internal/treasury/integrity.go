package treasury

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// IntegrityStore backs the background job that audits stored balances
// against the transaction ledger.
type IntegrityStore struct {
	pool *pgxpool.Pool
}

func NewIntegrityStore(pool *pgxpool.Pool) *IntegrityStore {
	return &IntegrityStore{pool: pool}
}

// AccountIDs returns every account id.
func (s *IntegrityStore) AccountIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM treasury_accounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Check returns the stored balance and the sum recomputed from the ledger.
func (s *IntegrityStore) Check(ctx context.Context, accountID int64) (stored, computed decimal.Decimal, err error) {
	err = s.pool.QueryRow(ctx, `
		SELECT a.balance,
			COALESCE((SELECT SUM(CASE WHEN t.type = 'credit' THEN t.amount ELSE -t.amount END)
				FROM treasury_transactions t WHERE t.account_id = a.id), 0)
		FROM treasury_accounts a
		WHERE a.id = $1`, accountID).Scan(&stored, &computed)
	return stored, computed, err
}

// Repair overwrites a diverged stored balance with the recomputed sum.
func (s *IntegrityStore) Repair(ctx context.Context, accountID int64, computed decimal.Decimal) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE treasury_accounts SET balance = $2, updated_at = NOW() WHERE id = $1`, accountID, computed)
	return err
}
