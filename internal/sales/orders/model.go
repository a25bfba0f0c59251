package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/docstatus"
)

// SalesOrder is the document header. Totals always satisfy
// total_amount >= subtotal >= 0 and a stored order carries at least one line.
type SalesOrder struct {
	ID                   int64            `json:"id" db:"id"`
	Number               string           `json:"number" db:"number"`
	CompanyID            int64            `json:"company_id" db:"company_id"`
	CustomerID           int64            `json:"customer_id" db:"customer_id"`
	WarehouseID          int64            `json:"warehouse_id" db:"warehouse_id"`
	OrderDate            time.Time        `json:"order_date" db:"order_date"`
	ExpectedDeliveryDate *time.Time       `json:"expected_delivery_date,omitempty" db:"expected_delivery_date"`
	Status               docstatus.Status `json:"status" db:"status"`
	Subtotal             decimal.Decimal  `json:"subtotal" db:"subtotal"`
	TotalAmount          decimal.Decimal  `json:"total_amount" db:"total_amount"`
	PaidAmount           decimal.Decimal  `json:"paid_amount" db:"paid_amount"`
	Notes                *string          `json:"notes,omitempty" db:"notes"`
	CreatedBy            int64            `json:"created_by" db:"created_by"`
	CancelledBy          *int64           `json:"cancelled_by,omitempty" db:"cancelled_by"`
	CancelledAt          *time.Time       `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancellationReason   *string          `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CreatedAt            time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at" db:"updated_at"`
	Lines                []SalesOrderLine `json:"lines,omitempty" db:"-"`
}

// SalesOrderLine belongs to exactly one order. Lines are replaced as a set
// whenever the header is edited, never patched individually.
type SalesOrderLine struct {
	ID           int64           `json:"id" db:"id"`
	SalesOrderID int64           `json:"sales_order_id" db:"sales_order_id"`
	ProductID    int64           `json:"product_id" db:"product_id"`
	Quantity     int64           `json:"quantity" db:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price" db:"unit_price"`
	Discount     decimal.Decimal `json:"discount" db:"discount"`
	LineTotal    decimal.Decimal `json:"line_total" db:"line_total"`
	Notes        *string         `json:"notes,omitempty" db:"notes"`
	LineOrder    int             `json:"line_order" db:"line_order"`
}
