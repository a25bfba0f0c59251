package treasury

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// RepositoryPort describes storage operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, RepositoryPort) error) error
	GetAccount(ctx context.Context, id int64) (*Account, error)
	GetAccountForUpdate(ctx context.Context, id int64) (*Account, error)
	ListAccounts(ctx context.Context, companyID int64) ([]Account, error)
	InsertAccount(ctx context.Context, a Account) (int64, error)
	SetAccountStatus(ctx context.Context, id int64, status AccountStatus) error
	ApplyToBalance(ctx context.Context, id int64, delta decimal.Decimal) error
	InsertTransaction(ctx context.Context, t Transaction) (int64, error)
	ListTransactions(ctx context.Context, input ListTransactionsInput) ([]Transaction, int, error)
	LedgerSum(ctx context.Context, accountID int64, through *time.Time) (decimal.Decimal, error)
}

// AuditPort records mutating operations.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns treasury accounts and their append-only transaction ledger.
type Service struct {
	repo     RepositoryPort
	audit    AuditPort
	balances singleflight.Group
	now      func() time.Time
}

// NewService constructs the treasury service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// CreateAccount opens an account with a zero balance in active status.
func (s *Service) CreateAccount(ctx context.Context, input CreateAccountInput, actorID int64) (*Account, error) {
	a := Account{
		CompanyID: input.CompanyID,
		Name:      input.Name,
		Type:      input.Type,
		Status:    AccountActive,
		Balance:   decimal.Zero,
		CreatedBy: actorID,
	}
	id, err := s.repo.InsertAccount(ctx, a)
	if err != nil {
		return nil, shared.WrapPersistence("treasury account create", err)
	}

	s.recordAudit(ctx, actorID, "treasury.account.create", id, map[string]any{"name": input.Name})
	return s.repo.GetAccount(ctx, id)
}

// SetAccountStatus activates or deactivates an account. Deactivation does
// not touch history; it only refuses new transactions.
func (s *Service) SetAccountStatus(ctx context.Context, id int64, status AccountStatus, actorID int64) (*Account, error) {
	if status != AccountActive && status != AccountInactive {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidStatus, status)
	}
	if err := s.repo.SetAccountStatus(ctx, id, status); err != nil {
		return nil, shared.WrapPersistence("treasury account status", err)
	}
	s.recordAudit(ctx, actorID, "treasury.account.status", id, map[string]any{"status": string(status)})
	return s.repo.GetAccount(ctx, id)
}

// RecordTransaction is the only path that moves a balance. The account row
// is locked, the ledger row inserted, and the stored balance adjusted by the
// signed amount inside one transaction so the projection can never drift
// from the history it summarizes.
func (s *Service) RecordTransaction(ctx context.Context, input RecordTransactionInput, actorID int64) (*Transaction, error) {
	verr := shared.NewValidationErrors()
	if input.Type != TransactionCredit && input.Type != TransactionDebit {
		verr.Addf("type", "must be %q or %q", TransactionCredit, TransactionDebit)
	}
	if !input.Amount.IsPositive() {
		verr.Add("amount", "must be greater than zero")
	}
	if input.Description == "" {
		verr.Add("description", "is required")
	}
	if err := verr.ErrOrNil(); err != nil {
		return nil, err
	}

	txn := Transaction{
		AccountID:   input.AccountID,
		Type:        input.Type,
		Amount:      input.Amount,
		Description: input.Description,
		Reference:   input.Reference,
		CreatedBy:   actorID,
	}

	var txnID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx RepositoryPort) error {
		account, err := tx.GetAccountForUpdate(ctx, input.AccountID)
		if err != nil {
			return err
		}
		if account.Status != AccountActive {
			return fmt.Errorf("%w: account %d is %s", shared.ErrInvalidStateTransition, account.ID, account.Status)
		}
		id, err := tx.InsertTransaction(ctx, txn)
		if err != nil {
			return err
		}
		txnID = id
		return tx.ApplyToBalance(ctx, input.AccountID, txn.SignedAmount())
	})
	if err != nil {
		return nil, shared.WrapPersistence("treasury transaction record", err)
	}

	s.recordAudit(ctx, actorID, "treasury.transaction.record", txnID, map[string]any{
		"account_id": input.AccountID,
		"type":       string(input.Type),
		"amount":     input.Amount.String(),
	})

	txn.ID = txnID
	return &txn, nil
}

// Balance returns the stored balance for an account. Concurrent readers of
// the same account share one storage round trip.
func (s *Service) Balance(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	v, err, _ := s.balances.Do(strconv.FormatInt(accountID, 10), func() (interface{}, error) {
		account, err := s.repo.GetAccount(ctx, accountID)
		if err != nil {
			return decimal.Zero, err
		}
		return account.Balance, nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return v.(decimal.Decimal), nil
}

// VerifyBalance recomputes the ledger sum and reports whether the stored
// projection matches it. Used by the integrity job.
func (s *Service) VerifyBalance(ctx context.Context, accountID int64) (stored, computed decimal.Decimal, err error) {
	account, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	computed, err = s.repo.LedgerSum(ctx, accountID, nil)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return account.Balance, computed, nil
}

// BalanceAsOf sums the ledger up to and including the given instant. A nil
// bound covers the full history. Unlike Balance it never reads the stored
// projection, so a statement window bounded by date gets the balance the
// ledger shows at that date.
func (s *Service) BalanceAsOf(ctx context.Context, accountID int64, through *time.Time) (decimal.Decimal, error) {
	if _, err := s.repo.GetAccount(ctx, accountID); err != nil {
		return decimal.Zero, err
	}
	return s.repo.LedgerSum(ctx, accountID, through)
}

// GetAccount loads one account.
func (s *Service) GetAccount(ctx context.Context, id int64) (*Account, error) {
	return s.repo.GetAccount(ctx, id)
}

// ListAccounts returns every account for a company.
func (s *Service) ListAccounts(ctx context.Context, companyID int64) ([]Account, error) {
	return s.repo.ListAccounts(ctx, companyID)
}

// ListTransactions returns a filtered page of ledger history.
func (s *Service) ListTransactions(ctx context.Context, input ListTransactionsInput) ([]Transaction, int, error) {
	return s.repo.ListTransactions(ctx, input)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "treasury",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
		At:       s.now(),
	})
}
