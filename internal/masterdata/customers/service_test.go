package customers

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	mdshared "github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryRepo struct {
	mu        sync.Mutex
	nextID    int64
	customers map[int64]Customer
	codes     map[string]struct{}
	staleMax  int // forces old max readings to simulate allocation races
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, customers: map[int64]Customer{}, codes: map[string]struct{}{}}
}

func (m *memoryRepo) List(_ context.Context, filters mdshared.ListFilters) ([]Customer, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Customer
	for _, c := range m.customers {
		if filters.Type != nil && string(c.Type) != *filters.Type {
			continue
		}
		if filters.IsActive != nil && c.IsActive != *filters.IsActive {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[id]
	if !ok {
		return Customer{}, shared.ErrNotFound
	}
	return c, nil
}

func (m *memoryRepo) MaxCodeSequence(_ context.Context, prefix string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var max int64
	for code := range m.codes {
		if !strings.HasPrefix(code, prefix) {
			continue
		}
		var seq int64
		for _, ch := range code[len(prefix):] {
			seq = seq*10 + int64(ch-'0')
		}
		if seq > max {
			max = seq
		}
	}
	if m.staleMax > 0 && max > 0 {
		m.staleMax--
		max--
	}
	return max, nil
}

func (m *memoryRepo) Insert(_ context.Context, c Customer) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.codes[c.Code]; taken {
		return 0, shared.ErrDuplicateKey
	}
	id := m.nextID
	m.nextID++
	c.ID = id
	c.CreatedAt = time.Now()
	m.customers[id] = c
	m.codes[c.Code] = struct{}{}
	return id, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, c Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.customers[id]; !ok {
		return shared.ErrNotFound
	}
	c.ID = id
	m.customers[id] = c
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[id]
	if !ok {
		return shared.ErrNotFound
	}
	delete(m.codes, c.Code)
	delete(m.customers, id)
	return nil
}

type allowAllGuard struct{}

func (allowAllGuard) CanDelete(context.Context, string, int64) error { return nil }

type blockingGuard struct{ blockedBy string }

func (g blockingGuard) CanDelete(_ context.Context, kind string, id int64) error {
	return &shared.ReferentialConflictError{Entity: kind, EntityID: id, BlockedBy: g.blockedBy}
}

func TestCreateAllocatesSequentialCodes(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, allowAllGuard{}, nil)

	first, err := svc.Create(context.Background(), CreateCustomerInput{Type: TypeCompany, Name: "Acme"}, 42)
	require.NoError(t, err)
	require.Equal(t, "COM000001", first.Code)
	require.True(t, first.IsActive)

	second, err := svc.Create(context.Background(), CreateCustomerInput{Type: TypeCompany, Name: "Globex"}, 42)
	require.NoError(t, err)
	require.Equal(t, "COM000002", second.Code)

	individual, err := svc.Create(context.Background(), CreateCustomerInput{Type: TypeIndividual, Name: "Jordan Lee"}, 42)
	require.NoError(t, err)
	require.Equal(t, "IND000001", individual.Code)
}

func TestCreateRetriesCodeRace(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, allowAllGuard{}, nil)

	_, err := svc.Create(context.Background(), CreateCustomerInput{Type: TypeCompany, Name: "Acme"}, 42)
	require.NoError(t, err)

	// A stale max read computes an already-taken code; allocation must
	// re-read and retry rather than surface the duplicate.
	repo.staleMax = 1
	second, err := svc.Create(context.Background(), CreateCustomerInput{Type: TypeCompany, Name: "Globex"}, 42)
	require.NoError(t, err)
	require.Equal(t, "COM000002", second.Code)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), allowAllGuard{}, nil)

	_, err := svc.Create(context.Background(), CreateCustomerInput{
		Type:        CustomerType("government"),
		CreditLimit: decimal.NewFromInt(-1),
	}, 42)
	var vErr *shared.ValidationErrors
	require.ErrorAs(t, err, &vErr)
	require.Contains(t, vErr.Fields, "name")
	require.Contains(t, vErr.Fields, "type")
	require.Contains(t, vErr.Fields, "credit_limit")
}

func TestDeleteBlockedByOrders(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, blockingGuard{blockedBy: "sales orders"}, nil)

	c, err := svc.Create(context.Background(), CreateCustomerInput{Type: TypeIndividual, Name: "Jordan Lee"}, 42)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), c.ID, 42)
	var conflict *shared.ReferentialConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "sales orders", conflict.BlockedBy)

	_, err = svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
}

func TestVerifyActive(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, allowAllGuard{}, nil)

	c, err := svc.Create(context.Background(), CreateCustomerInput{Type: TypeIndividual, Name: "Jordan Lee"}, 42)
	require.NoError(t, err)
	require.NoError(t, svc.VerifyActive(context.Background(), c.ID))

	inactive := false
	_, err = svc.Update(context.Background(), c.ID, UpdateCustomerInput{Name: c.Name, IsActive: &inactive}, 42)
	require.NoError(t, err)

	err = svc.VerifyActive(context.Background(), c.ID)
	var vErr *shared.ValidationErrors
	require.ErrorAs(t, err, &vErr)
	require.Contains(t, vErr.Fields, "customer_id")

	require.ErrorIs(t, svc.VerifyActive(context.Background(), 999), shared.ErrNotFound)
}
