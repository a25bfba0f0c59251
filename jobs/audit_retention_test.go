package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	cutoff  time.Time
	removed int64
}

func (f *fakePurger) PurgeOlderThan(_ context.Context, before time.Time) (int64, error) {
	f.cutoff = before
	return f.removed, nil
}

type fakeSweeper struct {
	cutoff  time.Time
	removed int64
	calls   int
}

func (f *fakeSweeper) Cleanup(_ context.Context, before time.Time) (int64, error) {
	f.cutoff = before
	f.calls++
	return f.removed, nil
}

func TestAuditRetentionUsesRequestedWindow(t *testing.T) {
	purger := &fakePurger{removed: 12}
	handler := HandleAuditRetention(discardLogger(), purger, nil)

	task, err := NewAuditRetentionTask(90)
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), task))

	want := time.Now().AddDate(0, 0, -90)
	require.WithinDuration(t, want, purger.cutoff, time.Minute)
}

func TestAuditRetentionFallsBackToDefault(t *testing.T) {
	purger := &fakePurger{}
	handler := HandleAuditRetention(discardLogger(), purger, nil)

	task, err := NewAuditRetentionTask(0)
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), task))

	want := time.Now().AddDate(0, 0, -DefaultAuditRetentionDays)
	require.WithinDuration(t, want, purger.cutoff, time.Minute)
}

func TestAuditRetentionSweepsIdempotencyKeys(t *testing.T) {
	purger := &fakePurger{}
	keys := &fakeSweeper{removed: 4}
	handler := HandleAuditRetention(discardLogger(), purger, keys)

	task, err := NewAuditRetentionTask(30)
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), task))

	require.Equal(t, 1, keys.calls)
	require.Equal(t, purger.cutoff, keys.cutoff)
}

func TestAuditRetentionSkipsMalformedPayload(t *testing.T) {
	handler := HandleAuditRetention(discardLogger(), &fakePurger{}, &fakeSweeper{})

	err := handler(context.Background(), asynq.NewTask(TaskAuditRetention, []byte("{broken")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
