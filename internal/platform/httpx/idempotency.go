package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// IdempotencyKeyHeader names the client-supplied dedupe key.
const IdempotencyKeyHeader = "Idempotency-Key"

// KeyRecorder persists processed idempotency keys.
type KeyRecorder interface {
	CheckAndInsert(ctx context.Context, key, module string) error
}

// Idempotent rejects a repeated key with 409 before the handler runs.
// Requests without the header pass straight through.
func Idempotent(logger *slog.Logger, store KeyRecorder, module string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyKeyHeader)
			if key == "" || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			if err := store.CheckAndInsert(r.Context(), key, module); err != nil {
				if errors.Is(err, shared.ErrIdempotencyConflict) {
					Problem(w, http.StatusConflict, shared.CodeDuplicate, "request already processed")
					return
				}
				if logger != nil {
					logger.Error("idempotency check", slog.String("module", module), slog.Any("error", err))
				}
				Problem(w, http.StatusInternalServerError, shared.CodePersistence, "idempotency check failed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
