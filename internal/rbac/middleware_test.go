package rbac

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type fakeSource struct {
	users map[int64][]string
}

func (f fakeSource) Lookup(_ context.Context, userID int64) (string, []string, error) {
	perms, ok := f.users[userID]
	if !ok {
		return "", nil, ErrUnknownUser
	}
	return "Test User", perms, nil
}

func resolver(users map[int64][]string) Resolver {
	return Resolver{
		Source: fakeSource{users: users},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestResolverBuildsActorFromHeader(t *testing.T) {
	rv := resolver(map[int64][]string{7: {"sales.order.view"}})

	var seen *shared.Actor
	handler := rv.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ActorHeader, "7")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	require.Equal(t, int64(7), seen.ID)
	require.True(t, seen.HasPermission("sales.order.view"))
	require.False(t, seen.HasPermission("sales.order.edit"))
}

func TestResolverPassesAnonymousRequests(t *testing.T) {
	rv := resolver(nil)

	called := false
	handler := rv.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		require.Nil(t, shared.ActorFromContext(r.Context()))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.True(t, called)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestResolverRejectsUnknownUser(t *testing.T) {
	rv := resolver(map[int64][]string{})

	handler := rv.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ActorHeader, "42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestResolverRejectsMalformedHeader(t *testing.T) {
	rv := resolver(nil)

	handler := rv.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ActorHeader, "not-a-number")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
