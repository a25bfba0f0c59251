package customers

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerType selects the code prefix: IND for individuals, COM for
// companies.
type CustomerType string

const (
	TypeIndividual CustomerType = "individual"
	TypeCompany    CustomerType = "company"
)

// Customer represents a customer entity.
type Customer struct {
	ID               int64           `json:"id"`
	Code             string          `json:"code"`
	Type             CustomerType    `json:"type"`
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

// CreateCustomerInput carries the fields a caller supplies; the code is
// allocated, never chosen.
type CreateCustomerInput struct {
	Type             CustomerType    `json:"type" validate:"required,oneof=individual company"`
	Name             string          `json:"name" validate:"required,max=255"`
	Email            *string         `json:"email,omitempty" validate:"omitempty,email"`
	Phone            string          `json:"phone" validate:"max=50"`
	Address          string          `json:"address" validate:"max=500"`
	CreditLimit      decimal.Decimal `json:"credit_limit"`
	PaymentTermsDays int             `json:"payment_terms_days" validate:"gte=0"`
}

// UpdateCustomerInput updates contact and financial attributes. Code and
// type are immutable after creation.
type UpdateCustomerInput struct {
	Name             string          `json:"name" validate:"required,max=255"`
	Email            *string         `json:"email,omitempty" validate:"omitempty,email"`
	Phone            string          `json:"phone" validate:"max=50"`
	Address          string          `json:"address" validate:"max=500"`
	CreditLimit      decimal.Decimal `json:"credit_limit"`
	PaymentTermsDays int             `json:"payment_terms_days" validate:"gte=0"`
	IsActive         *bool           `json:"is_active,omitempty"`
}
