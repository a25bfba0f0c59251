package docstatus

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

func TestSalesOrderTransitions(t *testing.T) {
	m := SalesOrders()

	require.Equal(t, SalesDraft, m.Initial())
	require.NoError(t, m.Transition(SalesDraft, SalesConfirmed))
	require.NoError(t, m.Transition(SalesConfirmed, SalesProcessing))
	require.NoError(t, m.Transition(SalesProcessing, SalesShipped))
	require.NoError(t, m.Transition(SalesShipped, SalesDelivered))

	// cancellation is reachable from every non-terminal state
	for _, from := range []Status{SalesDraft, SalesConfirmed, SalesProcessing, SalesShipped} {
		require.NoError(t, m.Transition(from, SalesCancelled))
	}

	// skipping ahead or reverting is rejected
	require.ErrorIs(t, m.Transition(SalesDraft, SalesShipped), shared.ErrInvalidStateTransition)
	require.ErrorIs(t, m.Transition(SalesDelivered, SalesDraft), shared.ErrInvalidStateTransition)
	require.ErrorIs(t, m.Transition(SalesCancelled, SalesConfirmed), shared.ErrInvalidStateTransition)
}

func TestPurchaseOrderTransitions(t *testing.T) {
	m := PurchaseOrders()

	require.NoError(t, m.Transition(PurchaseDraft, PurchaseSent))
	require.NoError(t, m.Transition(PurchaseSent, PurchaseConfirmed))
	require.NoError(t, m.Transition(PurchaseConfirmed, PurchasePartiallyReceived))
	require.NoError(t, m.Transition(PurchasePartiallyReceived, PurchaseReceived))
	require.NoError(t, m.Transition(PurchaseConfirmed, PurchaseReceived))

	require.ErrorIs(t, m.Transition(PurchaseDraft, PurchaseReceived), shared.ErrInvalidStateTransition)
	require.ErrorIs(t, m.Transition(PurchaseReceived, PurchaseDraft), shared.ErrInvalidStateTransition)
}

func TestUnknownStatusRejectedBeforeAdjacency(t *testing.T) {
	m := SalesOrders()

	err := m.Transition(SalesDraft, Status("ARCHIVED"))
	require.ErrorIs(t, err, shared.ErrInvalidStatus)

	// purchase-only states are unknown to the sales machine
	err = m.Transition(SalesDraft, PurchaseSent)
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestTerminalAndEditGuards(t *testing.T) {
	sales := SalesOrders()
	purchase := PurchaseOrders()

	require.True(t, sales.Terminal(SalesDelivered))
	require.True(t, sales.Terminal(SalesCancelled))
	require.False(t, sales.Terminal(SalesShipped))
	require.True(t, purchase.Terminal(PurchaseReceived))

	require.True(t, sales.CanEdit(SalesDraft))
	require.False(t, sales.CanEdit(SalesConfirmed))
	require.True(t, purchase.CanDelete(PurchaseDraft))
	require.False(t, purchase.CanDelete(PurchaseCancelled))
}
