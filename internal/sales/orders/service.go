package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/docstatus"
	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/pricing"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository describes the storage operations used by Service. WithTx yields
// a repository bound to one transaction; every status-guarded write re-reads
// the row inside that transaction.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*SalesOrder, error)
	GetForUpdate(ctx context.Context, id int64) (*SalesOrder, error)
	List(ctx context.Context, req ListSalesOrdersRequest) ([]SalesOrder, int, error)
	Insert(ctx context.Context, order SalesOrder) (int64, error)
	InsertLine(ctx context.Context, line SalesOrderLine) error
	UpdateHeader(ctx context.Context, order SalesOrder) error
	UpdateStatus(ctx context.Context, id int64, status docstatus.Status, actorID int64, reason *string) error
	DeleteLines(ctx context.Context, orderID int64) error
	DeleteHeader(ctx context.Context, id int64) error
}

// CustomerVerifier confirms the counterparty exists and is active.
type CustomerVerifier interface {
	VerifyActive(ctx context.Context, id int64) error
}

// AuditPort records mutations in the activity log.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns the sales order lifecycle.
type Service struct {
	repo      Repository
	customers CustomerVerifier
	audit     AuditPort
	machine   docstatus.Machine
	adjuster  pricing.Adjuster
	now       func() time.Time
}

// NewService constructs the sales order service.
func NewService(repo Repository, customers CustomerVerifier, audit AuditPort) *Service {
	return &Service{
		repo:      repo,
		customers: customers,
		audit:     audit,
		machine:   docstatus.SalesOrders(),
		adjuster:  pricing.FlatAdjuster{},
		now:       time.Now,
	}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create prices the lines, allocates a unique number, and persists header
// plus lines in one transaction. New orders always start in DRAFT.
func (s *Service) Create(ctx context.Context, req CreateSalesOrderRequest, actorID int64) (*SalesOrder, error) {
	totals, err := pricing.Price(toPricingLines(req.Lines), s.adjuster)
	if err != nil {
		return nil, err
	}
	if s.customers != nil {
		if err := s.customers.VerifyActive(ctx, req.CustomerID); err != nil {
			return nil, fmt.Errorf("verify customer: %w", err)
		}
	}

	order := SalesOrder{
		CompanyID:            req.CompanyID,
		CustomerID:           req.CustomerID,
		WarehouseID:          req.WarehouseID,
		OrderDate:            req.OrderDate,
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
		Status:               s.machine.Initial(),
		Subtotal:             totals.Subtotal,
		TotalAmount:          totals.TotalAmount,
		Notes:                req.Notes,
		CreatedBy:            actorID,
	}

	var orderID int64
	number, err := numbering.AllocateDocumentNumber(ctx, numbering.PrefixSalesOrder, req.OrderDate, func(ctx context.Context, candidate string) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
			order.Number = candidate
			id, err := tx.Insert(ctx, order)
			if err != nil {
				return err
			}
			for i, priced := range totals.Lines {
				line := toOrderLine(id, i, priced, req.Lines[i])
				if err := tx.InsertLine(ctx, line); err != nil {
					return fmt.Errorf("insert order line: %w", err)
				}
			}
			orderID = id
			return nil
		})
	})
	if err != nil {
		return nil, shared.WrapPersistence("sales order create", err)
	}

	s.recordAudit(ctx, actorID, "sales_order.create", orderID, map[string]any{
		"number": number,
		"total":  totals.TotalAmount.String(),
	})
	return s.repo.Get(ctx, orderID)
}

// Update replaces the header fields and the entire line set. Only DRAFT
// orders may be edited; the status is re-checked inside the transaction so a
// concurrent confirmation cannot slip an edit through.
func (s *Service) Update(ctx context.Context, id int64, req UpdateSalesOrderRequest, actorID int64) (*SalesOrder, error) {
	totals, err := pricing.Price(toPricingLines(req.Lines), s.adjuster)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !s.machine.CanEdit(existing.Status) {
			return fmt.Errorf("%w: only %s sales orders can be edited", shared.ErrInvalidStateTransition, s.machine.Initial())
		}

		updated := *existing
		if req.OrderDate != nil {
			updated.OrderDate = *req.OrderDate
		}
		if req.ExpectedDeliveryDate != nil {
			updated.ExpectedDeliveryDate = req.ExpectedDeliveryDate
		}
		if req.Notes != nil {
			updated.Notes = req.Notes
		}
		updated.Subtotal = totals.Subtotal
		updated.TotalAmount = totals.TotalAmount

		if err := tx.UpdateHeader(ctx, updated); err != nil {
			return err
		}
		if err := tx.DeleteLines(ctx, id); err != nil {
			return err
		}
		for i, priced := range totals.Lines {
			if err := tx.InsertLine(ctx, toOrderLine(id, i, priced, req.Lines[i])); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, shared.WrapPersistence("sales order update", err)
	}

	s.recordAudit(ctx, actorID, "sales_order.update", id, map[string]any{
		"total": totals.TotalAmount.String(),
	})
	return s.repo.Get(ctx, id)
}

// Delete removes lines then header in one transaction. Only DRAFT orders may
// be deleted.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	var number string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !s.machine.CanDelete(existing.Status) {
			return fmt.Errorf("%w: only %s sales orders can be deleted", shared.ErrInvalidStateTransition, s.machine.Initial())
		}
		number = existing.Number
		if err := tx.DeleteLines(ctx, id); err != nil {
			return err
		}
		return tx.DeleteHeader(ctx, id)
	})
	if err != nil {
		return shared.WrapPersistence("sales order delete", err)
	}

	s.recordAudit(ctx, actorID, "sales_order.delete", id, map[string]any{"number": number})
	return nil
}

// SetStatus applies a lifecycle transition. Unknown targets are rejected
// before any read; illegal transitions are rejected against the row state
// inside the transaction.
func (s *Service) SetStatus(ctx context.Context, id int64, target docstatus.Status, actorID int64, reason *string) (*SalesOrder, error) {
	if !s.machine.Known(target) {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidStatus, target)
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.machine.Transition(existing.Status, target); err != nil {
			return err
		}
		return tx.UpdateStatus(ctx, id, target, actorID, reason)
	})
	if err != nil {
		return nil, shared.WrapPersistence("sales order status", err)
	}

	s.recordAudit(ctx, actorID, "sales_order.status", id, map[string]any{"status": string(target)})
	return s.repo.Get(ctx, id)
}

// Get loads one order with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*SalesOrder, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered page of orders plus the total count.
func (s *Service) List(ctx context.Context, req ListSalesOrdersRequest) ([]SalesOrder, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, orderID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "sales_order",
		EntityID: fmt.Sprintf("%d", orderID),
		Meta:     meta,
		At:       s.now(),
	})
}

func toPricingLines(reqs []OrderLineRequest) []pricing.LineInput {
	lines := make([]pricing.LineInput, 0, len(reqs))
	for _, r := range reqs {
		lines = append(lines, pricing.LineInput{
			ProductID:  r.ProductID,
			Quantity:   r.Quantity,
			UnitAmount: r.UnitPrice,
			Discount:   r.Discount,
		})
	}
	return lines
}

func toOrderLine(orderID int64, index int, priced pricing.PricedLine, req OrderLineRequest) SalesOrderLine {
	line := SalesOrderLine{
		SalesOrderID: orderID,
		ProductID:    req.ProductID,
		Quantity:     req.Quantity,
		UnitPrice:    req.UnitPrice,
		Discount:     req.Discount,
		LineTotal:    priced.Total,
		Notes:        req.Notes,
		LineOrder:    req.LineOrder,
	}
	if line.LineOrder == 0 {
		line.LineOrder = index + 1
	}
	return line
}
