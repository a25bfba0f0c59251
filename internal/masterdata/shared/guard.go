package shared

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	internalshared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// Reference names one table/column that may still point at an entity.
type Reference struct {
	Table  string
	Column string
	// Label is the human name surfaced in the refusal message.
	Label string
}

// Tables checked before each kind of master record may be deleted.
var guardedReferences = map[string][]Reference{
	"product": {
		{Table: "sales_order_lines", Column: "product_id", Label: "sales order lines"},
		{Table: "purchase_order_lines", Column: "product_id", Label: "purchase order lines"},
		{Table: "stock_movements", Column: "product_id", Label: "stock movements"},
	},
	"warehouse": {
		{Table: "sales_orders", Column: "warehouse_id", Label: "sales orders"},
		{Table: "purchase_orders", Column: "warehouse_id", Label: "purchase orders"},
		{Table: "stock_movements", Column: "warehouse_id", Label: "stock movements"},
	},
	"customer": {
		{Table: "sales_orders", Column: "customer_id", Label: "sales orders"},
	},
	"supplier": {
		{Table: "purchase_orders", Column: "supplier_id", Label: "purchase orders"},
	},
}

// ReferenceStore answers whether any row in table has column = id.
type ReferenceStore interface {
	Exists(ctx context.Context, table, column string, id int64) (bool, error)
}

// UsageGuard refuses deletes that would orphan history. The check runs
// before the delete so the caller gets a message naming the blocking
// relation instead of a foreign-key failure.
type UsageGuard struct {
	store ReferenceStore
}

// NewUsageGuard builds a guard over the given reference store.
func NewUsageGuard(store ReferenceStore) *UsageGuard {
	return &UsageGuard{store: store}
}

// CanDelete returns nil when nothing references the entity, or a
// ReferentialConflictError naming the first blocking relation found.
func (g *UsageGuard) CanDelete(ctx context.Context, kind string, id int64) error {
	refs, ok := guardedReferences[kind]
	if !ok {
		return fmt.Errorf("usage guard: unknown entity kind %q", kind)
	}
	for _, ref := range refs {
		found, err := g.store.Exists(ctx, ref.Table, ref.Column, id)
		if err != nil {
			return fmt.Errorf("usage guard check %s: %w", ref.Table, err)
		}
		if found {
			return &internalshared.ReferentialConflictError{
				Entity:    kind,
				EntityID:  id,
				BlockedBy: ref.Label,
			}
		}
	}
	return nil
}

type pgReferenceStore struct {
	pool *pgxpool.Pool
}

// NewReferenceStore returns the pgx-backed reference store. Table and
// column names come from the static guardedReferences map, never from
// caller input.
func NewReferenceStore(pool *pgxpool.Pool) ReferenceStore {
	return &pgReferenceStore{pool: pool}
}

func (s *pgReferenceStore) Exists(ctx context.Context, table, column string, id int64) (bool, error) {
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)", table, column)
	var found bool
	err := s.pool.QueryRow(ctx, query, id).Scan(&found)
	return found, err
}
