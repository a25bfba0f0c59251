package suppliers

import (
	"context"
	"fmt"
	"time"

	mdshared "github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Guard blocks deletes of referenced suppliers.
type Guard interface {
	CanDelete(ctx context.Context, kind string, id int64) error
}

// AuditPort records mutating operations.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

type Service struct {
	repo  Repository
	guard Guard
	audit AuditPort
	now   func() time.Time
}

func NewService(repo Repository, guard Guard, audit AuditPort) *Service {
	return &Service{repo: repo, guard: guard, audit: audit, now: time.Now}
}

func (s *Service) List(ctx context.Context, filters mdshared.ListFilters) ([]Supplier, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	return s.repo.Get(ctx, id)
}

// VerifyActive confirms the supplier exists and accepts new orders.
func (s *Service) VerifyActive(ctx context.Context, id int64) error {
	sup, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !sup.IsActive {
		verr := shared.NewValidationErrors()
		verr.Addf("supplier_id", "supplier %s is inactive", sup.Code)
		return verr
	}
	return nil
}

// Create validates the input, allocates the next SUP code, and inserts.
func (s *Service) Create(ctx context.Context, input CreateSupplierInput, actorID int64) (Supplier, error) {
	if err := validateCreate(input); err != nil {
		return Supplier{}, err
	}

	supplier := Supplier{
		Name:             input.Name,
		Email:            input.Email,
		Phone:            input.Phone,
		Address:          input.Address,
		CreditLimit:      input.CreditLimit,
		PaymentTermsDays: input.PaymentTermsDays,
		IsActive:         true,
		CreatedBy:        actorID,
	}

	var id int64
	code, err := numbering.AllocateEntityCode(ctx, numbering.PrefixSupplier,
		func(ctx context.Context) (int64, error) {
			return s.repo.MaxCodeSequence(ctx, numbering.PrefixSupplier)
		},
		func(ctx context.Context, candidate string) error {
			supplier.Code = candidate
			insertedID, err := s.repo.Insert(ctx, supplier)
			if err != nil {
				return err
			}
			id = insertedID
			return nil
		})
	if err != nil {
		return Supplier{}, shared.WrapPersistence("supplier create", err)
	}

	s.recordAudit(ctx, actorID, "supplier.create", id, map[string]any{"code": code})
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, input UpdateSupplierInput, actorID int64) (Supplier, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Supplier{}, err
	}

	existing.Name = input.Name
	existing.Email = input.Email
	existing.Phone = input.Phone
	existing.Address = input.Address
	existing.CreditLimit = input.CreditLimit
	existing.PaymentTermsDays = input.PaymentTermsDays
	if input.IsActive != nil {
		existing.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, id, existing); err != nil {
		return Supplier{}, shared.WrapPersistence("supplier update", err)
	}

	s.recordAudit(ctx, actorID, "supplier.update", id, nil)
	return s.repo.Get(ctx, id)
}

// Delete refuses when any purchase order still references the supplier.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.guard.CanDelete(ctx, "supplier", id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return shared.WrapPersistence("supplier delete", err)
	}
	s.recordAudit(ctx, actorID, "supplier.delete", id, nil)
	return nil
}

func validateCreate(input CreateSupplierInput) error {
	verr := shared.NewValidationErrors()
	if input.Name == "" {
		verr.Add("name", "is required")
	}
	if input.CreditLimit.IsNegative() {
		verr.Add("credit_limit", "must not be negative")
	}
	return verr.ErrOrNil()
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "supplier",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
		At:       s.now(),
	})
}
