package shared

import (
	"log/slog"
	"net/http"
)

// RequirePermission guards a route group behind a permission code carried by
// the actor. Actor resolution (session, token, whatever the deployment uses)
// happens upstream; a request with no actor is rejected outright.
func RequirePermission(logger *slog.Logger, code string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFromContext(r.Context())
			if actor == nil {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if !actor.HasPermission(code) {
				if logger != nil {
					logger.Warn("permission denied", slog.Int64("actor_id", actor.ID), slog.String("permission", code))
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
