package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeAuditor struct {
	stored   map[int64]decimal.Decimal
	computed map[int64]decimal.Decimal
	repaired map[int64]decimal.Decimal
}

func (f *fakeAuditor) AccountIDs(context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(f.stored))
	for id := range f.stored {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeAuditor) Check(_ context.Context, id int64) (decimal.Decimal, decimal.Decimal, error) {
	return f.stored[id], f.computed[id], nil
}

func (f *fakeAuditor) Repair(_ context.Context, id int64, computed decimal.Decimal) error {
	if f.repaired == nil {
		f.repaired = map[int64]decimal.Decimal{}
	}
	f.repaired[id] = computed
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLedgerIntegrityRepairsDivergedBalances(t *testing.T) {
	auditor := &fakeAuditor{
		stored: map[int64]decimal.Decimal{
			1: decimal.RequireFromString("70.00"),
			2: decimal.RequireFromString("10.00"),
		},
		computed: map[int64]decimal.Decimal{
			1: decimal.RequireFromString("70.00"),
			2: decimal.RequireFromString("25.00"),
		},
	}

	task, err := NewLedgerIntegrityTask(time.Now())
	require.NoError(t, err)

	handler := HandleLedgerIntegrity(discardLogger(), auditor)
	require.NoError(t, handler(context.Background(), task))

	require.Len(t, auditor.repaired, 1)
	require.True(t, auditor.repaired[2].Equal(decimal.RequireFromString("25.00")))
}

func TestLedgerIntegritySkipsMalformedPayload(t *testing.T) {
	handler := HandleLedgerIntegrity(discardLogger(), &fakeAuditor{})
	task := asynq.NewTask(TaskLedgerIntegrity, []byte("{not json"))
	require.ErrorIs(t, handler(context.Background(), task), asynq.SkipRetry)
}

func TestEnqueueLedgerIntegrity(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	info, err := client.EnqueueLedgerIntegrity(context.Background())
	require.NoError(t, err)
	require.Equal(t, TaskLedgerIntegrity, info.Type)
	require.Equal(t, QueueDefault, info.Queue)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer inspector.Close()
	queueInfo, err := inspector.GetQueueInfo(QueueDefault)
	require.NoError(t, err)
	require.Equal(t, 1, queueInfo.Pending)
}
