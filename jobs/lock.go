package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Mutex is a best-effort distributed lock so periodic tasks do not run
// concurrently when several workers share a queue.
type Mutex struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewMutex builds a mutex for the given task type.
func NewMutex(client *redis.Client, taskType string, ttl time.Duration) *Mutex {
	return &Mutex{client: client, key: lockKey(taskType), ttl: ttl}
}

func lockKey(taskType string) string {
	return fmt.Sprintf("jobs:%s:lock", taskType)
}

// TryLock acquires the lock, reporting false when another holder owns it.
func (m *Mutex) TryLock(ctx context.Context) (bool, error) {
	return m.client.SetNX(ctx, m.key, time.Now().UTC().Format(time.RFC3339), m.ttl).Result()
}

// Unlock releases the lock. The TTL covers crashed holders.
func (m *Mutex) Unlock(ctx context.Context) error {
	return m.client.Del(ctx, m.key).Err()
}

// Exclusive wraps a handler so a run is skipped while a previous one still
// holds the mutex. Skipped runs succeed; the next cron tick retries.
func Exclusive(logger *slog.Logger, m *Mutex, h asynq.HandlerFunc) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		acquired, err := m.TryLock(ctx)
		if err != nil {
			return fmt.Errorf("acquire task lock: %w", err)
		}
		if !acquired {
			logger.Info("task already running elsewhere, skipping", slog.String("type", task.Type()))
			return nil
		}
		defer func() {
			if err := m.Unlock(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("release task lock", slog.Any("error", err))
			}
		}()
		return h(ctx, task)
	}
}
