package procurement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/docstatus"
)

// PurchaseOrder is the procurement document header. It carries the same
// total invariants as its sales counterpart: total >= subtotal >= 0, and a
// stored order always has at least one line.
type PurchaseOrder struct {
	ID                 int64            `json:"id"`
	Number             string           `json:"number"`
	CompanyID          int64            `json:"company_id"`
	SupplierID         int64            `json:"supplier_id"`
	WarehouseID        int64            `json:"warehouse_id"`
	OrderDate          time.Time        `json:"order_date"`
	ExpectedDate       *time.Time       `json:"expected_date,omitempty"`
	Status             docstatus.Status `json:"status"`
	Subtotal           decimal.Decimal  `json:"subtotal"`
	TotalAmount        decimal.Decimal  `json:"total_amount"`
	PaidAmount         decimal.Decimal  `json:"paid_amount"`
	Notes              *string          `json:"notes,omitempty"`
	CreatedBy          int64            `json:"created_by"`
	CancelledBy        *int64           `json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time       `json:"cancelled_at,omitempty"`
	CancellationReason *string          `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
	Lines              []PurchaseOrderLine `json:"lines,omitempty"`
}

// PurchaseOrderLine is one product row owned by a purchase order.
type PurchaseOrderLine struct {
	ID              int64           `json:"id"`
	PurchaseOrderID int64           `json:"purchase_order_id"`
	ProductID       int64           `json:"product_id"`
	Quantity        int64           `json:"quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	Discount        decimal.Decimal `json:"discount"`
	LineTotal       decimal.Decimal `json:"line_total"`
	Notes           *string         `json:"notes,omitempty"`
	LineOrder       int             `json:"line_order"`
}

// CreatePurchaseOrderInput describes a creation payload.
type CreatePurchaseOrderInput struct {
	CompanyID    int64       `json:"company_id" validate:"required,gt=0"`
	SupplierID   int64       `json:"supplier_id" validate:"required,gt=0"`
	WarehouseID  int64       `json:"warehouse_id" validate:"required,gt=0"`
	OrderDate    time.Time   `json:"order_date" validate:"required"`
	ExpectedDate *time.Time  `json:"expected_date,omitempty"`
	Notes        *string     `json:"notes,omitempty"`
	Lines        []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// LineInput describes one requested purchase line.
type LineInput struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  int64           `json:"quantity" validate:"required,gt=0"`
	UnitCost  decimal.Decimal `json:"unit_cost" validate:"required"`
	Discount  decimal.Decimal `json:"discount"`
	Notes     *string         `json:"notes,omitempty"`
	LineOrder int             `json:"line_order" validate:"gte=0"`
}

// UpdatePurchaseOrderInput replaces header fields and the whole line set.
type UpdatePurchaseOrderInput struct {
	OrderDate    *time.Time  `json:"order_date,omitempty"`
	ExpectedDate *time.Time  `json:"expected_date,omitempty"`
	Notes        *string     `json:"notes,omitempty"`
	Lines        []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// ListPurchaseOrdersInput filters the listing.
type ListPurchaseOrdersInput struct {
	CompanyID  int64             `json:"company_id" validate:"required,gt=0"`
	SupplierID *int64            `json:"supplier_id,omitempty"`
	Status     *docstatus.Status `json:"status,omitempty"`
	DateFrom   *time.Time        `json:"date_from,omitempty"`
	DateTo     *time.Time        `json:"date_to,omitempty"`
	Limit      int               `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int               `json:"offset" validate:"gte=0"`
}
