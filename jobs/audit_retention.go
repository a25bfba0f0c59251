package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// DefaultAuditRetentionDays keeps roughly two years of history.
const DefaultAuditRetentionDays = 730

// AuditPurger removes activity log entries older than a cutoff.
type AuditPurger interface {
	PurgeOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// KeySweeper drops spent idempotency keys older than a cutoff.
type KeySweeper interface {
	Cleanup(ctx context.Context, before time.Time) (int64, error)
}

// HandleAuditRetention returns the TaskAuditRetention handler. The same
// cutoff governs both the audit trail and the idempotency key table.
func HandleAuditRetention(logger *slog.Logger, purger AuditPurger, keys KeySweeper) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AuditRetentionPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		days := payload.RetainDays
		if days <= 0 {
			days = DefaultAuditRetentionDays
		}

		cutoff := time.Now().AddDate(0, 0, -days)
		removed, err := purger.PurgeOlderThan(ctx, cutoff)
		if err != nil {
			return err
		}
		var keysRemoved int64
		if keys != nil {
			keysRemoved, err = keys.Cleanup(ctx, cutoff)
			if err != nil {
				return err
			}
		}
		logger.Info("audit retention sweep complete",
			slog.Time("cutoff", cutoff),
			slog.Int64("removed", removed),
			slog.Int64("keys_removed", keysRemoved),
		)
		return nil
	}
}
