package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/docstatus"
)

type CreateSalesOrderRequest struct {
	CompanyID            int64             `json:"company_id" validate:"required,gt=0"`
	CustomerID           int64             `json:"customer_id" validate:"required,gt=0"`
	WarehouseID          int64             `json:"warehouse_id" validate:"required,gt=0"`
	OrderDate            time.Time         `json:"order_date" validate:"required"`
	ExpectedDeliveryDate *time.Time        `json:"expected_delivery_date,omitempty"`
	Notes                *string           `json:"notes,omitempty"`
	Lines                []OrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type OrderLineRequest struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  int64           `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"required"`
	Discount  decimal.Decimal `json:"discount"`
	Notes     *string         `json:"notes,omitempty"`
	LineOrder int             `json:"line_order" validate:"gte=0"`
}

type UpdateSalesOrderRequest struct {
	OrderDate            *time.Time          `json:"order_date,omitempty"`
	ExpectedDeliveryDate *time.Time          `json:"expected_delivery_date,omitempty"`
	Notes                *string             `json:"notes,omitempty"`
	Lines                []OrderLineRequest  `json:"lines" validate:"required,min=1,dive"`
}

type SetStatusRequest struct {
	Status docstatus.Status `json:"status" validate:"required"`
	Reason *string          `json:"reason,omitempty"`
}

type ListSalesOrdersRequest struct {
	CompanyID  int64             `json:"company_id" validate:"required,gt=0"`
	CustomerID *int64            `json:"customer_id,omitempty"`
	Status     *docstatus.Status `json:"status,omitempty"`
	DateFrom   *time.Time        `json:"date_from,omitempty"`
	DateTo     *time.Time        `json:"date_to,omitempty"`
	Limit      int               `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int               `json:"offset" validate:"gte=0"`
}
