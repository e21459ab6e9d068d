package dependent

import (
	"context"
	"strings"
	"time"

	appErrors "Nestegg/internal/errors"
	"Nestegg/internal/pkg"

	"github.com/oklog/ulid/v2"
)

type Service struct {
	Repository Repository
}

func NewService(repo Repository) *Service {
	return &Service{Repository: repo}
}

type CreateRequest struct {
	FamilyId       ulid.ULID
	Name           string
	InitialBalance float64
}

func (s *Service) CreateDependent(ctx context.Context, req *CreateRequest) (*Dependent, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, appErrors.NewValidationError("name", "is required")
	}
	if req.InitialBalance < 0 {
		return nil, appErrors.NewValidationError("initial_balance", "must not be negative")
	}

	now := time.Now()
	dep := &Dependent{
		Id:               pkg.GenerateULIDObject(),
		FamilyId:         req.FamilyId,
		Name:             name,
		SpendableBalance: req.InitialBalance,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.Repository.Create(ctx, dep); err != nil {
		return nil, err
	}

	return dep, nil
}

func (s *Service) GetDependentByID(ctx context.Context, id ulid.ULID) (*Dependent, error) {
	return s.Repository.GetById(ctx, id)
}

func (s *Service) GetDependentsByFamilyID(ctx context.Context, familyID ulid.ULID, pagination *pkg.PaginationParams) ([]*Dependent, int64, error) {
	return s.Repository.GetByFamilyId(ctx, familyID, pagination)
}

func (s *Service) RenameDependent(ctx context.Context, id ulid.ULID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return appErrors.NewValidationError("name", "is required")
	}

	dep, err := s.Repository.GetById(ctx, id)
	if err != nil {
		return err
	}

	dep.Name = name
	dep.UpdatedAt = time.Now()

	return s.Repository.Update(ctx, dep)
}

// CreditAllowance adds a disbursed allowance to the spendable balance. Goal
// auto-transfers run afterwards through the goal engine, not here.
func (s *Service) CreditAllowance(ctx context.Context, id ulid.ULID, amount float64) error {
	if amount <= 0 {
		return appErrors.NewValidationError("amount", "must be greater than zero")
	}

	if _, err := s.Repository.GetById(ctx, id); err != nil {
		return err
	}

	return s.Repository.UpdateBalance(ctx, id, amount)
}

func (s *Service) DeleteDependent(ctx context.Context, id ulid.ULID) error {
	return s.Repository.Delete(ctx, id)
}
