// Package rbac resolves the acting identity for each request. Permission
// codes live in Postgres (roles, role_permissions, permissions); the resolver
// loads the effective set once per request and hands downstream handlers a
// shared.Actor.
package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUnknownUser indicates the user id has no row in users.
var ErrUnknownUser = errors.New("rbac: unknown user")

// Store reads users and their effective permissions.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store backed by the provided pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Lookup returns the user's display name and deduplicated permission codes.
func (s *Store) Lookup(ctx context.Context, userID int64) (string, []string, error) {
	var name string
	err := s.pool.QueryRow(ctx, `SELECT name FROM users WHERE id = $1 AND is_active = TRUE`, userID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, ErrUnknownUser
		}
		return "", nil, fmt.Errorf("rbac: lookup user: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT p.name
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		JOIN user_roles ur ON ur.role_id = rp.role_id
		WHERE ur.user_id = $1
		ORDER BY p.name`, userID)
	if err != nil {
		return "", nil, fmt.Errorf("rbac: effective permissions: %w", err)
	}
	defer rows.Close()

	var perms []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return "", nil, fmt.Errorf("rbac: scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return "", nil, fmt.Errorf("rbac: iterate permissions: %w", err)
	}
	return name, perms, nil
}
