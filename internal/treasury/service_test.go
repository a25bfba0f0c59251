package treasury

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryRepo struct {
	mu           sync.Mutex
	nextID       int64
	accounts     map[int64]Account
	transactions []Transaction
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, accounts: map[int64]Account{}}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, RepositoryPort) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) GetAccount(_ context.Context, id int64) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &a, nil
}

func (m *memoryRepo) GetAccountForUpdate(ctx context.Context, id int64) (*Account, error) {
	return m.GetAccount(ctx, id)
}

func (m *memoryRepo) ListAccounts(_ context.Context, companyID int64) ([]Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Account
	for _, a := range m.accounts {
		if a.CompanyID == companyID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryRepo) InsertAccount(_ context.Context, a Account) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	a.ID = id
	a.CreatedAt = time.Now()
	m.accounts[id] = a
	return id, nil
}

func (m *memoryRepo) SetAccountStatus(_ context.Context, id int64, status AccountStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return shared.ErrNotFound
	}
	a.Status = status
	m.accounts[id] = a
	return nil
}

func (m *memoryRepo) ApplyToBalance(_ context.Context, id int64, delta decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return shared.ErrNotFound
	}
	a.Balance = a.Balance.Add(delta)
	m.accounts[id] = a
	return nil
}

func (m *memoryRepo) InsertTransaction(_ context.Context, t Transaction) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = int64(len(m.transactions) + 1)
	t.CreatedAt = time.Now()
	m.transactions = append(m.transactions, t)
	return t.ID, nil
}

func (m *memoryRepo) ListTransactions(_ context.Context, input ListTransactionsInput) ([]Transaction, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Transaction
	for _, t := range m.transactions {
		if t.AccountID != input.AccountID {
			continue
		}
		if input.Type != nil && t.Type != *input.Type {
			continue
		}
		if input.DateFrom != nil && t.CreatedAt.Before(*input.DateFrom) {
			continue
		}
		if input.DateTo != nil && t.CreatedAt.After(*input.DateTo) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
}

func (m *memoryRepo) LedgerSum(_ context.Context, accountID int64, through *time.Time) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := decimal.Zero
	for _, t := range m.transactions {
		if t.AccountID != accountID {
			continue
		}
		if through != nil && t.CreatedAt.After(*through) {
			continue
		}
		sum = sum.Add(t.SignedAmount())
	}
	return sum, nil
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func newAccount(t *testing.T, svc *Service) *Account {
	t.Helper()
	account, err := svc.CreateAccount(context.Background(), CreateAccountInput{
		CompanyID: 1,
		Name:      "Main Cash",
		Type:      "cash",
	}, 42)
	require.NoError(t, err)
	require.Equal(t, AccountActive, account.Status)
	require.True(t, account.Balance.IsZero())
	return account
}

func TestRecordTransactionMovesBalance(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	account := newAccount(t, svc)

	_, err := svc.RecordTransaction(context.Background(), RecordTransactionInput{
		AccountID:   account.ID,
		Type:        TransactionCredit,
		Amount:      dec("100.00"),
		Description: "initial deposit",
	}, 42)
	require.NoError(t, err)

	_, err = svc.RecordTransaction(context.Background(), RecordTransactionInput{
		AccountID:   account.ID,
		Type:        TransactionDebit,
		Amount:      dec("30.00"),
		Description: "office supplies",
	}, 42)
	require.NoError(t, err)

	balance, err := svc.Balance(context.Background(), account.ID)
	require.NoError(t, err)
	require.True(t, balance.Equal(dec("70.00")), "balance %s", balance)

	stored, computed, err := svc.VerifyBalance(context.Background(), account.ID)
	require.NoError(t, err)
	require.True(t, stored.Equal(computed))
}

func TestRecordTransactionValidation(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	account := newAccount(t, svc)

	_, err := svc.RecordTransaction(context.Background(), RecordTransactionInput{
		AccountID: account.ID,
		Type:      TransactionType("transfer"),
		Amount:    dec("-5.00"),
	}, 42)
	var vErr *shared.ValidationErrors
	require.ErrorAs(t, err, &vErr)
	require.Contains(t, vErr.Fields, "type")
	require.Contains(t, vErr.Fields, "amount")
	require.Contains(t, vErr.Fields, "description")
	require.Empty(t, repo.transactions)
}

func TestInactiveAccountRefusesTransactions(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	account := newAccount(t, svc)

	_, err := svc.SetAccountStatus(context.Background(), account.ID, AccountInactive, 42)
	require.NoError(t, err)

	_, err = svc.RecordTransaction(context.Background(), RecordTransactionInput{
		AccountID:   account.ID,
		Type:        TransactionCredit,
		Amount:      dec("10.00"),
		Description: "late deposit",
	}, 42)
	require.ErrorIs(t, err, shared.ErrInvalidStateTransition)
	require.Empty(t, repo.transactions)
}

func TestDebitBelowZeroIsPermitted(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	account := newAccount(t, svc)

	_, err := svc.RecordTransaction(context.Background(), RecordTransactionInput{
		AccountID:   account.ID,
		Type:        TransactionDebit,
		Amount:      dec("25.00"),
		Description: "overdraft",
	}, 42)
	require.NoError(t, err)

	balance, err := svc.Balance(context.Background(), account.ID)
	require.NoError(t, err)
	require.True(t, balance.Equal(dec("-25.00")))
}

func TestUnknownAccountFails(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	_, err := svc.RecordTransaction(context.Background(), RecordTransactionInput{
		AccountID:   999,
		Type:        TransactionCredit,
		Amount:      dec("10.00"),
		Description: "ghost",
	}, 42)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestConcurrentTransactionsSumCorrectly(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	account := newAccount(t, svc)

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.RecordTransaction(context.Background(), RecordTransactionInput{
				AccountID:   account.ID,
				Type:        TransactionCredit,
				Amount:      dec("1.00"),
				Description: "tick",
			}, 42)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, computed, err := svc.VerifyBalance(context.Background(), account.ID)
	require.NoError(t, err)
	require.True(t, stored.Equal(dec("50.00")), "stored %s", stored)
	require.True(t, computed.Equal(stored))
}

func TestSetAccountStatusRejectsUnknown(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	account := newAccount(t, svc)

	_, err := svc.SetAccountStatus(context.Background(), account.ID, AccountStatus("frozen"), 42)
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
}
