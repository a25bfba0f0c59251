package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestExclusiveSkipsWhileLockHeld(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	mutex := NewMutex(client, TaskLedgerIntegrity, time.Minute)

	runs := 0
	handler := Exclusive(discardLogger(), mutex, func(context.Context, *asynq.Task) error {
		runs++
		return nil
	})

	ctx := context.Background()
	task := asynq.NewTask(TaskLedgerIntegrity, nil)

	require.NoError(t, handler(ctx, task))
	require.Equal(t, 1, runs)

	acquired, err := mutex.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, acquired)

	// A run under a held lock is skipped without error.
	require.NoError(t, handler(ctx, task))
	require.Equal(t, 1, runs)

	require.NoError(t, mutex.Unlock(ctx))
	require.NoError(t, handler(ctx, task))
	require.Equal(t, 2, runs)
}
