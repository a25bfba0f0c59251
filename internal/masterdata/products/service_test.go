package products

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	mdshared "github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryRepo struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]Product
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, products: map[int64]Product{}}
}

func (m *memoryRepo) List(_ context.Context, _ mdshared.ListFilters) ([]Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Product
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) Insert(_ context.Context, p Product) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	p.ID = id
	p.CreatedAt = time.Now()
	m.products[id] = p
	return id, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, p Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return shared.ErrNotFound
	}
	p.ID = id
	m.products[id] = p
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

type allowAllGuard struct{}

func (allowAllGuard) CanDelete(context.Context, string, int64) error { return nil }

type blockingGuard struct{}

func (blockingGuard) CanDelete(_ context.Context, kind string, id int64) error {
	return &shared.ReferentialConflictError{Entity: kind, EntityID: id, BlockedBy: "sales order lines"}
}

func TestCreateAndUpdateProduct(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, allowAllGuard{}, nil)

	p, err := svc.Create(context.Background(), ProductInput{
		Code:  "WIDGET-01",
		Name:  "Widget",
		Unit:  "pcs",
		Price: decimal.NewFromInt(15),
		Cost:  decimal.NewFromInt(9),
	}, 42)
	require.NoError(t, err)
	require.True(t, p.IsActive)

	inactive := false
	updated, err := svc.Update(context.Background(), p.ID, ProductInput{
		Code:     p.Code,
		Name:     "Widget v2",
		Unit:     "pcs",
		IsActive: &inactive,
	}, 42)
	require.NoError(t, err)
	require.Equal(t, "Widget v2", updated.Name)
	require.False(t, updated.IsActive)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), allowAllGuard{}, nil)

	_, err := svc.Create(context.Background(), ProductInput{
		Price: decimal.NewFromInt(-1),
	}, 42)
	var vErr *shared.ValidationErrors
	require.ErrorAs(t, err, &vErr)
	require.Contains(t, vErr.Fields, "code")
	require.Contains(t, vErr.Fields, "name")
	require.Contains(t, vErr.Fields, "price")
}

func TestDeleteBlockedByOrderLines(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, blockingGuard{}, nil)

	p, err := svc.Create(context.Background(), ProductInput{Code: "W-1", Name: "Widget", Unit: "pcs"}, 42)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), p.ID, 42)
	var conflict *shared.ReferentialConflictError
	require.ErrorAs(t, err, &conflict)

	_, err = svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
}
