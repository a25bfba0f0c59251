package suppliers

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supplier represents a supplier entity.
type Supplier struct {
	ID               int64           `json:"id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Email            *string         `json:"email,omitempty"`
	Phone            string          `json:"phone"`
	Address          string          `json:"address"`
	CreditLimit      decimal.Decimal `json:"credit_limit"`
	PaymentTermsDays int             `json:"payment_terms_days"`
	IsActive         bool            `json:"is_active"`
	CreatedBy        int64           `json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// CreateSupplierInput carries caller-supplied fields; the SUP code is
// allocated.
type CreateSupplierInput struct {
	Name             string          `json:"name" validate:"required,max=255"`
	Email            *string         `json:"email,omitempty" validate:"omitempty,email"`
	Phone            string          `json:"phone" validate:"max=50"`
	Address          string          `json:"address" validate:"max=500"`
	CreditLimit      decimal.Decimal `json:"credit_limit"`
	PaymentTermsDays int             `json:"payment_terms_days" validate:"gte=0"`
}

// UpdateSupplierInput updates everything but the code.
type UpdateSupplierInput struct {
	Name             string          `json:"name" validate:"required,max=255"`
	Email            *string         `json:"email,omitempty" validate:"omitempty,email"`
	Phone            string          `json:"phone" validate:"max=50"`
	Address          string          `json:"address" validate:"max=500"`
	CreditLimit      decimal.Decimal `json:"credit_limit"`
	PaymentTermsDays int             `json:"payment_terms_days" validate:"gte=0"`
	IsActive         *bool           `json:"is_active,omitempty"`
}
