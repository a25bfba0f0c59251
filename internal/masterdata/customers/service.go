package customers

import (
	"context"
	"fmt"
	"time"

	mdshared "github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository describes customer storage.
type Repository interface {
	List(ctx context.Context, filters mdshared.ListFilters) ([]Customer, int, error)
	Get(ctx context.Context, id int64) (Customer, error)
	MaxCodeSequence(ctx context.Context, prefix string) (int64, error)
	Insert(ctx context.Context, c Customer) (int64, error)
	Update(ctx context.Context, id int64, c Customer) error
	Delete(ctx context.Context, id int64) error
}

// Guard blocks deletes of referenced customers.
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

func (s *Service) List(ctx context.Context, filters mdshared.ListFilters) ([]Customer, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	return s.repo.Get(ctx, id)
}

// VerifyActive confirms the customer exists and accepts new orders.
func (s *Service) VerifyActive(ctx context.Context, id int64) error {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !c.IsActive {
		verr := shared.NewValidationErrors()
		verr.Addf("customer_id", "customer %s is inactive", c.Code)
		return verr
	}
	return nil
}

// Create validates the input, allocates the next IND or COM code, and
// inserts. A concurrent create computing the same code fails the unique
// constraint and retries allocation.
func (s *Service) Create(ctx context.Context, input CreateCustomerInput, actorID int64) (Customer, error) {
	if err := validateCreate(input); err != nil {
		return Customer{}, err
	}

	prefix := numbering.PrefixCustomerIndividual
	if input.Type == TypeCompany {
		prefix = numbering.PrefixCustomerCompany
	}

	customer := Customer{
		Type:             input.Type,
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
	code, err := numbering.AllocateEntityCode(ctx, prefix,
		func(ctx context.Context) (int64, error) {
			return s.repo.MaxCodeSequence(ctx, prefix)
		},
		func(ctx context.Context, candidate string) error {
			customer.Code = candidate
			insertedID, err := s.repo.Insert(ctx, customer)
			if err != nil {
				return err
			}
			id = insertedID
			return nil
		})
	if err != nil {
		return Customer{}, shared.WrapPersistence("customer create", err)
	}

	s.recordAudit(ctx, actorID, "customer.create", id, map[string]any{"code": code})
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, input UpdateCustomerInput, actorID int64) (Customer, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Customer{}, err
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
		return Customer{}, shared.WrapPersistence("customer update", err)
	}

	s.recordAudit(ctx, actorID, "customer.update", id, nil)
	return s.repo.Get(ctx, id)
}

// Delete refuses when any order still references the customer.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.guard.CanDelete(ctx, "customer", id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return shared.WrapPersistence("customer delete", err)
	}
	s.recordAudit(ctx, actorID, "customer.delete", id, nil)
	return nil
}

func validateCreate(input CreateCustomerInput) error {
	verr := shared.NewValidationErrors()
	if input.Name == "" {
		verr.Add("name", "is required")
	}
	if input.Type != TypeIndividual && input.Type != TypeCompany {
		verr.Addf("type", "must be %q or %q", TypeIndividual, TypeCompany)
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
		Entity:   "customer",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
		At:       s.now(),
	})
}
