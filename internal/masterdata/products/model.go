package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product entity
type Product struct {
	ID        int64           `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Price     decimal.Decimal `json:"price"`
	Cost      decimal.Decimal `json:"cost"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ProductInput is the create/update payload. The code is caller-chosen for
// products, unlike counterparty codes.
type ProductInput struct {
	Code     string          `json:"code" validate:"required,max=50"`
	Name     string          `json:"name" validate:"required,max=255"`
	Unit     string          `json:"unit" validate:"required,max=20"`
	Price    decimal.Decimal `json:"price"`
	Cost     decimal.Decimal `json:"cost"`
	IsActive *bool           `json:"is_active,omitempty"`
}
