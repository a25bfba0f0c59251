package procurement

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/docstatus"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryRepo struct {
	mu      sync.Mutex
	nextID  int64
	orders  map[int64]PurchaseOrder
	lines   map[int64][]PurchaseOrderLine
	numbers map[string]struct{}

	failInserts int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		nextID:  1,
		orders:  map[int64]PurchaseOrder{},
		lines:   map[int64][]PurchaseOrderLine{},
		numbers: map[string]struct{}{},
	}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, RepositoryPort) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) Get(_ context.Context, id int64) (*PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	po, ok := m.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	po.Lines = append([]PurchaseOrderLine(nil), m.lines[id]...)
	return &po, nil
}

func (m *memoryRepo) GetForUpdate(ctx context.Context, id int64) (*PurchaseOrder, error) {
	return m.Get(ctx, id)
}

func (m *memoryRepo) List(_ context.Context, input ListPurchaseOrdersInput) ([]PurchaseOrder, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PurchaseOrder
	for _, po := range m.orders {
		if po.CompanyID != input.CompanyID {
			continue
		}
		if input.Status != nil && po.Status != *input.Status {
			continue
		}
		if input.SupplierID != nil && po.SupplierID != *input.SupplierID {
			continue
		}
		out = append(out, po)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (m *memoryRepo) Insert(_ context.Context, po PurchaseOrder) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInserts > 0 {
		m.failInserts--
		return 0, shared.ErrDuplicateKey
	}
	if _, taken := m.numbers[po.Number]; taken {
		return 0, shared.ErrDuplicateKey
	}
	id := m.nextID
	m.nextID++
	po.ID = id
	po.CreatedAt = time.Now()
	m.orders[id] = po
	m.numbers[po.Number] = struct{}{}
	return id, nil
}

func (m *memoryRepo) InsertLine(_ context.Context, l PurchaseOrderLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = int64(len(m.lines[l.PurchaseOrderID]) + 1)
	m.lines[l.PurchaseOrderID] = append(m.lines[l.PurchaseOrderID], l)
	return nil
}

func (m *memoryRepo) UpdateHeader(_ context.Context, po PurchaseOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.orders[po.ID]
	if !ok {
		return shared.ErrNotFound
	}
	existing.OrderDate = po.OrderDate
	existing.ExpectedDate = po.ExpectedDate
	existing.Notes = po.Notes
	existing.Subtotal = po.Subtotal
	existing.TotalAmount = po.TotalAmount
	m.orders[po.ID] = existing
	return nil
}

func (m *memoryRepo) UpdateStatus(_ context.Context, id int64, status docstatus.Status, actorID int64, reason *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	po, ok := m.orders[id]
	if !ok {
		return shared.ErrNotFound
	}
	po.Status = status
	if status == docstatus.PurchaseCancelled {
		now := time.Now()
		po.CancelledBy = &actorID
		po.CancelledAt = &now
		po.CancellationReason = reason
	}
	m.orders[id] = po
	return nil
}

func (m *memoryRepo) DeleteLines(_ context.Context, poID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lines, poID)
	return nil
}

func (m *memoryRepo) DeleteHeader(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

type acceptAllSuppliers struct{}

func (acceptAllSuppliers) VerifyActive(context.Context, int64) error { return nil }

type memoryAudit struct {
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (m *memoryAudit) Record(_ context.Context, log shared.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func createInput() CreatePurchaseOrderInput {
	return CreatePurchaseOrderInput{
		CompanyID:   1,
		SupplierID:  7,
		WarehouseID: 2,
		OrderDate:   time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		Lines: []LineInput{
			{ProductID: 10, Quantity: 3, UnitCost: dec("12.50"), Discount: dec("2.50")},
			{ProductID: 11, Quantity: 5, UnitCost: dec("9.00")},
		},
	}
}

func TestCreatePurchaseOrder(t *testing.T) {
	repo := newMemoryRepo()
	audit := &memoryAudit{}
	svc := NewService(repo, acceptAllSuppliers{}, audit)

	po, err := svc.Create(context.Background(), createInput(), 42)
	require.NoError(t, err)
	require.Equal(t, docstatus.PurchaseDraft, po.Status)
	require.Regexp(t, `^PO-20250901-\d{4}$`, po.Number)
	require.True(t, po.Subtotal.Equal(dec("80.00")), "subtotal %s", po.Subtotal)
	require.True(t, po.TotalAmount.Equal(dec("80.00")))
	require.Len(t, po.Lines, 2)
	require.True(t, po.Lines[0].LineTotal.Equal(dec("35.00")))
	require.True(t, po.Lines[1].LineTotal.Equal(dec("45.00")))
	require.Equal(t, 1, po.Lines[0].LineOrder)

	require.Len(t, audit.logs, 1)
	require.Equal(t, "purchase_order.create", audit.logs[0].Action)
}

func TestCreateRetriesNumberCollisions(t *testing.T) {
	repo := newMemoryRepo()
	repo.failInserts = 3
	svc := NewService(repo, acceptAllSuppliers{}, nil)

	po, err := svc.Create(context.Background(), createInput(), 42)
	require.NoError(t, err)
	require.NotEmpty(t, po.Number)
	require.Zero(t, repo.failInserts)
}

func TestCreateRejectsInvalidLines(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, acceptAllSuppliers{}, nil)

	input := createInput()
	input.Lines[0].Quantity = 0
	input.Lines[1].Discount = dec("100.00")

	_, err := svc.Create(context.Background(), input, 42)
	var vErr *shared.ValidationErrors
	require.ErrorAs(t, err, &vErr)
	require.Contains(t, vErr.Fields, "lines[0].quantity")
	require.Contains(t, vErr.Fields, "lines[1].discount")
	require.Empty(t, repo.orders)
}

func TestUpdateReplacesAllLines(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, acceptAllSuppliers{}, nil)

	po, err := svc.Create(context.Background(), createInput(), 42)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), po.ID, UpdatePurchaseOrderInput{
		Lines: []LineInput{{ProductID: 99, Quantity: 1, UnitCost: dec("10.00")}},
	}, 42)
	require.NoError(t, err)
	require.Len(t, updated.Lines, 1)
	require.Equal(t, int64(99), updated.Lines[0].ProductID)
	require.True(t, updated.TotalAmount.Equal(dec("10.00")))
}

func TestUpdateAfterSendFails(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, acceptAllSuppliers{}, nil)

	po, err := svc.Create(context.Background(), createInput(), 42)
	require.NoError(t, err)
	_, err = svc.SetStatus(context.Background(), po.ID, docstatus.PurchaseSent, 42, nil)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), po.ID, UpdatePurchaseOrderInput{
		Lines: []LineInput{{ProductID: 99, Quantity: 1, UnitCost: dec("10.00")}},
	}, 42)
	require.ErrorIs(t, err, shared.ErrInvalidStateTransition)

	got, err := svc.Get(context.Background(), po.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
}

func TestDeleteOnlyInDraft(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, acceptAllSuppliers{}, nil)

	po, err := svc.Create(context.Background(), createInput(), 42)
	require.NoError(t, err)
	_, err = svc.SetStatus(context.Background(), po.ID, docstatus.PurchaseSent, 42, nil)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), po.ID, 42)
	require.ErrorIs(t, err, shared.ErrInvalidStateTransition)

	draft, err := svc.Create(context.Background(), createInput(), 42)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), draft.ID, 42))
	_, err = svc.Get(context.Background(), draft.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestReceivingFlow(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, acceptAllSuppliers{}, nil)

	po, err := svc.Create(context.Background(), createInput(), 42)
	require.NoError(t, err)

	for _, target := range []docstatus.Status{
		docstatus.PurchaseSent,
		docstatus.PurchaseConfirmed,
		docstatus.PurchasePartiallyReceived,
		docstatus.PurchaseReceived,
	} {
		po, err = svc.SetStatus(context.Background(), po.ID, target, 42, nil)
		require.NoError(t, err, "transition to %s", target)
		require.Equal(t, target, po.Status)
	}

	_, err = svc.SetStatus(context.Background(), po.ID, docstatus.PurchaseCancelled, 42, nil)
	require.ErrorIs(t, err, shared.ErrInvalidStateTransition)
}

func TestConfirmedCanSkipToReceived(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, acceptAllSuppliers{}, nil)

	po, err := svc.Create(context.Background(), createInput(), 42)
	require.NoError(t, err)
	_, err = svc.SetStatus(context.Background(), po.ID, docstatus.PurchaseSent, 42, nil)
	require.NoError(t, err)
	_, err = svc.SetStatus(context.Background(), po.ID, docstatus.PurchaseConfirmed, 42, nil)
	require.NoError(t, err)

	po, err = svc.SetStatus(context.Background(), po.ID, docstatus.PurchaseReceived, 42, nil)
	require.NoError(t, err)
	require.Equal(t, docstatus.PurchaseReceived, po.Status)
}

func TestCancelStampsActorAndReason(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, acceptAllSuppliers{}, nil)

	po, err := svc.Create(context.Background(), createInput(), 42)
	require.NoError(t, err)

	reason := "supplier out of stock"
	po, err = svc.SetStatus(context.Background(), po.ID, docstatus.PurchaseCancelled, 42, &reason)
	require.NoError(t, err)
	require.Equal(t, docstatus.PurchaseCancelled, po.Status)
	require.NotNil(t, po.CancelledBy)
	require.Equal(t, int64(42), *po.CancelledBy)
	require.NotNil(t, po.CancellationReason)
	require.Equal(t, reason, *po.CancellationReason)
}

func TestSetStatusRejectsUnknownState(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, acceptAllSuppliers{}, nil)

	po, err := svc.Create(context.Background(), createInput(), 42)
	require.NoError(t, err)

	_, err = svc.SetStatus(context.Background(), po.ID, docstatus.Status("SHIPPED"), 42, nil)
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}
