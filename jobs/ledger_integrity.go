package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

// BalanceAuditor exposes the treasury queries the integrity job needs.
type BalanceAuditor interface {
	AccountIDs(ctx context.Context) ([]int64, error)
	Check(ctx context.Context, accountID int64) (stored, computed decimal.Decimal, err error)
	Repair(ctx context.Context, accountID int64, computed decimal.Decimal) error
}

// HandleLedgerIntegrity returns the TaskLedgerIntegrity handler. For each
// account it recomputes the ledger sum, and when the stored balance has
// diverged it logs the gap and overwrites the projection with the sum. The
// transaction history is the source of truth.
func HandleLedgerIntegrity(logger *slog.Logger, auditor BalanceAuditor) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload LedgerIntegrityPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}

		ids, err := auditor.AccountIDs(ctx)
		if err != nil {
			return err
		}

		diverged := 0
		for _, id := range ids {
			stored, computed, err := auditor.Check(ctx, id)
			if err != nil {
				return err
			}
			if stored.Equal(computed) {
				continue
			}
			diverged++
			logger.Warn("ledger balance diverged",
				slog.Int64("account_id", id),
				slog.String("stored", stored.String()),
				slog.String("computed", computed.String()),
			)
			if err := auditor.Repair(ctx, id, computed); err != nil {
				return err
			}
		}

		logger.Info("ledger integrity scan complete",
			slog.Int("accounts", len(ids)),
			slog.Int("repaired", diverged),
		)
		return nil
	}
}
