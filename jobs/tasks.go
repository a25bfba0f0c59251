package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity audits stored treasury balances against the
	// transaction ledger.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskAuditRetention prunes activity log entries past the retention
	// window.
	TaskAuditRetention = "audit:retention"
)

// LedgerIntegrityPayload carries scheduling metadata.
type LedgerIntegrityPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLedgerIntegrityTask constructs an Asynq task for the balance audit.
func NewLedgerIntegrityTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(LedgerIntegrityPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrity, body, asynq.Queue(QueueDefault)), nil
}

// AuditRetentionPayload sets how far back entries survive.
type AuditRetentionPayload struct {
	RetainDays int `json:"retain_days"`
}

// NewAuditRetentionTask constructs an Asynq task for the retention sweep.
func NewAuditRetentionTask(retainDays int) (*asynq.Task, error) {
	body, err := json.Marshal(AuditRetentionPayload{RetainDays: retainDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRetention, body, asynq.Queue(QueueDefault)), nil
}
