package procurement

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/docstatus"
	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/pricing"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// RepositoryPort describes storage operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, RepositoryPort) error) error
	Get(ctx context.Context, id int64) (*PurchaseOrder, error)
	GetForUpdate(ctx context.Context, id int64) (*PurchaseOrder, error)
	List(ctx context.Context, input ListPurchaseOrdersInput) ([]PurchaseOrder, int, error)
	Insert(ctx context.Context, po PurchaseOrder) (int64, error)
	InsertLine(ctx context.Context, line PurchaseOrderLine) error
	UpdateHeader(ctx context.Context, po PurchaseOrder) error
	UpdateStatus(ctx context.Context, id int64, status docstatus.Status, actorID int64, reason *string) error
	DeleteLines(ctx context.Context, poID int64) error
	DeleteHeader(ctx context.Context, id int64) error
}

// SupplierVerifier confirms the supplier exists and is active.
type SupplierVerifier interface {
	VerifyActive(ctx context.Context, id int64) error
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates the purchase order lifecycle.
type Service struct {
	repo      RepositoryPort
	suppliers SupplierVerifier
	audit     AuditPort
	machine   docstatus.Machine
	adjuster  pricing.Adjuster
	now       func() time.Time
}

// NewService constructs the procurement service.
func NewService(repo RepositoryPort, suppliers SupplierVerifier, audit AuditPort) *Service {
	return &Service{
		repo:      repo,
		suppliers: suppliers,
		audit:     audit,
		machine:   docstatus.PurchaseOrders(),
		adjuster:  pricing.FlatAdjuster{},
		now:       time.Now,
	}
}

// Create prices the lines, allocates a PO number, and persists header plus
// lines atomically. New purchase orders always start in DRAFT.
func (s *Service) Create(ctx context.Context, input CreatePurchaseOrderInput, actorID int64) (*PurchaseOrder, error) {
	totals, err := pricing.Price(toPricingLines(input.Lines), s.adjuster)
	if err != nil {
		return nil, err
	}
	if s.suppliers != nil {
		if err := s.suppliers.VerifyActive(ctx, input.SupplierID); err != nil {
			return nil, fmt.Errorf("verify supplier: %w", err)
		}
	}

	po := PurchaseOrder{
		CompanyID:    input.CompanyID,
		SupplierID:   input.SupplierID,
		WarehouseID:  input.WarehouseID,
		OrderDate:    input.OrderDate,
		ExpectedDate: input.ExpectedDate,
		Status:       s.machine.Initial(),
		Subtotal:     totals.Subtotal,
		TotalAmount:  totals.TotalAmount,
		Notes:        input.Notes,
		CreatedBy:    actorID,
	}

	var poID int64
	number, err := numbering.AllocateDocumentNumber(ctx, numbering.PrefixPurchaseOrder, input.OrderDate, func(ctx context.Context, candidate string) error {
		return s.repo.WithTx(ctx, func(ctx context.Context, tx RepositoryPort) error {
			po.Number = candidate
			id, err := tx.Insert(ctx, po)
			if err != nil {
				return err
			}
			for i, priced := range totals.Lines {
				if err := tx.InsertLine(ctx, toLine(id, i, priced, input.Lines[i])); err != nil {
					return fmt.Errorf("insert po line: %w", err)
				}
			}
			poID = id
			return nil
		})
	})
	if err != nil {
		return nil, shared.WrapPersistence("purchase order create", err)
	}

	s.recordAudit(ctx, actorID, "purchase_order.create", poID, map[string]any{
		"number": number,
		"total":  totals.TotalAmount.String(),
	})
	return s.repo.Get(ctx, poID)
}

// Update replaces the header fields and the entire line set while the order
// is still DRAFT. The status check happens against the locked row so an edit
// can never interleave with a concurrent transition.
func (s *Service) Update(ctx context.Context, id int64, input UpdatePurchaseOrderInput, actorID int64) (*PurchaseOrder, error) {
	totals, err := pricing.Price(toPricingLines(input.Lines), s.adjuster)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx RepositoryPort) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !s.machine.CanEdit(existing.Status) {
			return fmt.Errorf("%w: only %s purchase orders can be edited", shared.ErrInvalidStateTransition, s.machine.Initial())
		}

		updated := *existing
		if input.OrderDate != nil {
			updated.OrderDate = *input.OrderDate
		}
		if input.ExpectedDate != nil {
			updated.ExpectedDate = input.ExpectedDate
		}
		if input.Notes != nil {
			updated.Notes = input.Notes
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
			if err := tx.InsertLine(ctx, toLine(id, i, priced, input.Lines[i])); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, shared.WrapPersistence("purchase order update", err)
	}

	s.recordAudit(ctx, actorID, "purchase_order.update", id, map[string]any{
		"total": totals.TotalAmount.String(),
	})
	return s.repo.Get(ctx, id)
}

// Delete removes lines before the header in one unit. DRAFT only.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	var number string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx RepositoryPort) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !s.machine.CanDelete(existing.Status) {
			return fmt.Errorf("%w: only %s purchase orders can be deleted", shared.ErrInvalidStateTransition, s.machine.Initial())
		}
		number = existing.Number
		if err := tx.DeleteLines(ctx, id); err != nil {
			return err
		}
		return tx.DeleteHeader(ctx, id)
	})
	if err != nil {
		return shared.WrapPersistence("purchase order delete", err)
	}

	s.recordAudit(ctx, actorID, "purchase_order.delete", id, map[string]any{"number": number})
	return nil
}

// SetStatus applies a lifecycle transition against the current row state.
func (s *Service) SetStatus(ctx context.Context, id int64, target docstatus.Status, actorID int64, reason *string) (*PurchaseOrder, error) {
	if !s.machine.Known(target) {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidStatus, target)
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx RepositoryPort) error {
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
		return nil, shared.WrapPersistence("purchase order status", err)
	}

	s.recordAudit(ctx, actorID, "purchase_order.status", id, map[string]any{"status": string(target)})
	return s.repo.Get(ctx, id)
}

// Get loads one purchase order with lines.
func (s *Service) Get(ctx context.Context, id int64) (*PurchaseOrder, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered page plus the total count.
func (s *Service) List(ctx context.Context, input ListPurchaseOrdersInput) ([]PurchaseOrder, int, error) {
	return s.repo.List(ctx, input)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, poID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "purchase_order",
		EntityID: fmt.Sprintf("%d", poID),
		Meta:     meta,
		At:       s.now(),
	})
}

func toPricingLines(inputs []LineInput) []pricing.LineInput {
	lines := make([]pricing.LineInput, 0, len(inputs))
	for _, in := range inputs {
		lines = append(lines, pricing.LineInput{
			ProductID:  in.ProductID,
			Quantity:   in.Quantity,
			UnitAmount: in.UnitCost,
			Discount:   in.Discount,
		})
	}
	return lines
}

func toLine(poID int64, index int, priced pricing.PricedLine, in LineInput) PurchaseOrderLine {
	line := PurchaseOrderLine{
		PurchaseOrderID: poID,
		ProductID:       in.ProductID,
		Quantity:        in.Quantity,
		UnitCost:        in.UnitCost,
		Discount:        in.Discount,
		LineTotal:       priced.Total,
		Notes:           in.Notes,
		LineOrder:       in.LineOrder,
	}
	if line.LineOrder == 0 {
		line.LineOrder = index + 1
	}
	return line
}
