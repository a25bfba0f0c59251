package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	internalshared "github.com/meridian-erp/meridian-erp/internal/shared"
)

type fakeStore struct {
	rows map[string][]int64
}

func (f *fakeStore) Exists(_ context.Context, table, column string, id int64) (bool, error) {
	for _, existing := range f.rows[table+"."+column] {
		if existing == id {
			return true, nil
		}
	}
	return false, nil
}

func TestCanDeleteUnreferencedEntity(t *testing.T) {
	guard := NewUsageGuard(&fakeStore{rows: map[string][]int64{}})
	require.NoError(t, guard.CanDelete(context.Background(), "product", 7))
}

func TestCanDeleteNamesBlockingRelation(t *testing.T) {
	guard := NewUsageGuard(&fakeStore{rows: map[string][]int64{
		"purchase_order_lines.product_id": {7},
	}})

	err := guard.CanDelete(context.Background(), "product", 7)
	var conflict *internalshared.ReferentialConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "product", conflict.Entity)
	require.Equal(t, int64(7), conflict.EntityID)
	require.Equal(t, "purchase order lines", conflict.BlockedBy)
}

func TestCanDeleteChecksEveryGuardedKind(t *testing.T) {
	store := &fakeStore{rows: map[string][]int64{
		"sales_orders.customer_id":   {1},
		"purchase_orders.supplier_id": {2},
		"sales_orders.warehouse_id":  {3},
	}}
	guard := NewUsageGuard(store)

	require.Error(t, guard.CanDelete(context.Background(), "customer", 1))
	require.Error(t, guard.CanDelete(context.Background(), "supplier", 2))
	require.Error(t, guard.CanDelete(context.Background(), "warehouse", 3))
	require.NoError(t, guard.CanDelete(context.Background(), "customer", 99))
}

func TestCanDeleteUnknownKind(t *testing.T) {
	guard := NewUsageGuard(&fakeStore{})
	require.Error(t, guard.CanDelete(context.Background(), "invoice", 1))
}
