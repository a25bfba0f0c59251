package warehouses

import (
	"context"
	"fmt"
	"time"

	mdshared "github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Guard blocks deletes of referenced warehouses.
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

func (s *Service) List(ctx context.Context, filters mdshared.ListFilters) ([]Warehouse, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Warehouse, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, input WarehouseInput, actorID int64) (Warehouse, error) {
	if err := validate(input); err != nil {
		return Warehouse{}, err
	}
	w := Warehouse{
		Code:     input.Code,
		Name:     input.Name,
		Address:  input.Address,
		IsActive: true,
	}
	if input.IsActive != nil {
		w.IsActive = *input.IsActive
	}
	id, err := s.repo.Insert(ctx, w)
	if err != nil {
		return Warehouse{}, shared.WrapPersistence("warehouse create", err)
	}
	s.recordAudit(ctx, actorID, "warehouse.create", id, map[string]any{"code": input.Code})
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, input WarehouseInput, actorID int64) (Warehouse, error) {
	if err := validate(input); err != nil {
		return Warehouse{}, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Warehouse{}, err
	}
	existing.Code = input.Code
	existing.Name = input.Name
	existing.Address = input.Address
	if input.IsActive != nil {
		existing.IsActive = *input.IsActive
	}
	if err := s.repo.Update(ctx, id, existing); err != nil {
		return Warehouse{}, shared.WrapPersistence("warehouse update", err)
	}
	s.recordAudit(ctx, actorID, "warehouse.update", id, nil)
	return s.repo.Get(ctx, id)
}

// Delete refuses when any order or stock movement still references the
// warehouse.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.guard.CanDelete(ctx, "warehouse", id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return shared.WrapPersistence("warehouse delete", err)
	}
	s.recordAudit(ctx, actorID, "warehouse.delete", id, nil)
	return nil
}

func validate(input WarehouseInput) error {
	verr := shared.NewValidationErrors()
	if input.Code == "" {
		verr.Add("code", "is required")
	}
	if input.Name == "" {
		verr.Add("name", "is required")
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
		Entity:   "warehouse",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
		At:       s.now(),
	})
}
