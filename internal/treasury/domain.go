package treasury

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus gates whether an account accepts new transactions.
type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
)

// TransactionType is the direction of a ledger entry. Credits add to the
// balance, debits subtract.
type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// Account is a treasury account. Balance is a maintained projection of the
// account's transaction history and is updated in the same unit of work as
// every transaction insert.
type Account struct {
	ID        int64           `json:"id" db:"id"`
	CompanyID int64           `json:"company_id" db:"company_id"`
	Name      string          `json:"name" db:"name"`
	Type      string          `json:"type" db:"type"`
	Status    AccountStatus   `json:"status" db:"status"`
	Balance   decimal.Decimal `json:"balance" db:"balance"`
	CreatedBy int64           `json:"created_by" db:"created_by"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// Transaction is an append-only ledger entry. There is no edit or delete
// path once a row is written.
type Transaction struct {
	ID          int64           `json:"id" db:"id"`
	AccountID   int64           `json:"account_id" db:"account_id"`
	Type        TransactionType `json:"type" db:"type"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Description string          `json:"description" db:"description"`
	Reference   *string         `json:"reference,omitempty" db:"reference"`
	CreatedBy   int64           `json:"created_by" db:"created_by"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// SignedAmount returns the amount as it applies to the balance.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// CreateAccountInput opens a new account with a zero balance.
type CreateAccountInput struct {
	CompanyID int64  `json:"company_id" validate:"required,gt=0"`
	Name      string `json:"name" validate:"required,max=255"`
	Type      string `json:"type" validate:"required,oneof=cash bank wallet other"`
}

// RecordTransactionInput is the single mutation path for balances.
type RecordTransactionInput struct {
	AccountID   int64           `json:"account_id" validate:"required,gt=0"`
	Type        TransactionType `json:"type" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Description string          `json:"description" validate:"required,max=500"`
	Reference   *string         `json:"reference,omitempty"`
}

// ListTransactionsInput filters an account's ledger history.
type ListTransactionsInput struct {
	AccountID int64            `json:"account_id" validate:"required,gt=0"`
	Type      *TransactionType `json:"type,omitempty"`
	DateFrom  *time.Time       `json:"date_from,omitempty"`
	DateTo    *time.Time       `json:"date_to,omitempty"`
	Limit     int              `json:"limit" validate:"gte=0,lte=1000"`
	Offset    int              `json:"offset" validate:"gte=0"`
}
