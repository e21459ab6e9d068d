package dependent

import (
	"context"

	"Nestegg/internal/pkg"

	"github.com/oklog/ulid/v2"
)

type Repository interface {
	Create(ctx context.Context, dep *Dependent) error
	Update(ctx context.Context, dep *Dependent) error
	Delete(ctx context.Context, id ulid.ULID) error
	GetById(ctx context.Context, id ulid.ULID) (*Dependent, error)
	GetByFamilyId(ctx context.Context, familyID ulid.ULID, pagination *pkg.PaginationParams) ([]*Dependent, int64, error)
	UpdateBalance(ctx context.Context, id ulid.ULID, delta float64) error
}
