package rbac

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// ActorSource loads an identity by user id.
type ActorSource interface {
	Lookup(ctx context.Context, userID int64) (name string, permissions []string, err error)
}

// ActorHeader carries the authenticated user id. The deployment terminates
// authentication upstream (gateway or reverse proxy) and forwards the id here.
const ActorHeader = "X-Actor-ID"

// Resolver turns the actor header into a shared.Actor on the request context.
// Requests without the header pass through anonymously; RequirePermission
// rejects them at the route groups that need an identity.
type Resolver struct {
	Source ActorSource
	Logger *slog.Logger
}

// Middleware resolves the actor for each request.
func (rv Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(ActorHeader)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		name, perms, err := rv.Source.Lookup(r.Context(), userID)
		if err != nil {
			if errors.Is(err, ErrUnknownUser) {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if rv.Logger != nil {
				rv.Logger.Error("resolve actor", slog.Int64("user_id", userID), slog.Any("error", err))
			}
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		actor := shared.NewActor(userID, name, perms...)
		next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), actor)))
	})
}
