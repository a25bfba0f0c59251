package products

import (
	"context"
	"fmt"
	"time"

	mdshared "github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Guard blocks deletes of referenced products.
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

func (s *Service) List(ctx context.Context, filters mdshared.ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, input ProductInput, actorID int64) (Product, error) {
	if err := validate(input); err != nil {
		return Product{}, err
	}
	p := Product{
		Code:     input.Code,
		Name:     input.Name,
		Unit:     input.Unit,
		Price:    input.Price,
		Cost:     input.Cost,
		IsActive: true,
	}
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}
	id, err := s.repo.Insert(ctx, p)
	if err != nil {
		return Product{}, shared.WrapPersistence("product create", err)
	}
	s.recordAudit(ctx, actorID, "product.create", id, map[string]any{"code": input.Code})
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, input ProductInput, actorID int64) (Product, error) {
	if err := validate(input); err != nil {
		return Product{}, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	existing.Code = input.Code
	existing.Name = input.Name
	existing.Unit = input.Unit
	existing.Price = input.Price
	existing.Cost = input.Cost
	if input.IsActive != nil {
		existing.IsActive = *input.IsActive
	}
	if err := s.repo.Update(ctx, id, existing); err != nil {
		return Product{}, shared.WrapPersistence("product update", err)
	}
	s.recordAudit(ctx, actorID, "product.update", id, nil)
	return s.repo.Get(ctx, id)
}

// Delete refuses when any order line or stock movement still references the
// product.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.guard.CanDelete(ctx, "product", id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return shared.WrapPersistence("product delete", err)
	}
	s.recordAudit(ctx, actorID, "product.delete", id, nil)
	return nil
}

func validate(input ProductInput) error {
	verr := shared.NewValidationErrors()
	if input.Code == "" {
		verr.Add("code", "is required")
	}
	if input.Name == "" {
		verr.Add("name", "is required")
	}
	if input.Price.IsNegative() {
		verr.Add("price", "must not be negative")
	}
	if input.Cost.IsNegative() {
		verr.Add("cost", "must not be negative")
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
		Entity:   "product",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
		At:       s.now(),
	})
}
