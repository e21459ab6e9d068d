package infrastructure

import (
	"context"
	"errors"
	"time"

	"Nestegg/internal/domain/dependent"
	appErrors "Nestegg/internal/errors"
	"Nestegg/internal/pkg"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

type DependentRepository struct {
	DB *gorm.DB
}

type dependentDB struct {
	Id               string  `gorm:"type:varchar(26);primaryKey"`
	FamilyId         string  `gorm:"type:varchar(26);index;not null"`
	Name             string  `gorm:"not null"`
	SpendableBalance float64 `gorm:"not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (dependentDB) TableName() string { return "dependents" }

func toDomainDependent(ddb *dependentDB) (*dependent.Dependent, error) {
	id, err := pkg.ParseULID(ddb.Id)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	fid, err := pkg.ParseULID(ddb.FamilyId)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	return &dependent.Dependent{
		Id:               id,
		FamilyId:         fid,
		Name:             ddb.Name,
		SpendableBalance: ddb.SpendableBalance,
		CreatedAt:        ddb.CreatedAt,
		UpdatedAt:        ddb.UpdatedAt,
	}, nil
}

func toDBDependent(dep *dependent.Dependent) *dependentDB {
	return &dependentDB{
		Id:               dep.Id.String(),
		FamilyId:         dep.FamilyId.String(),
		Name:             dep.Name,
		SpendableBalance: dep.SpendableBalance,
		CreatedAt:        dep.CreatedAt,
		UpdatedAt:        dep.UpdatedAt,
	}
}

func (r *DependentRepository) Create(ctx context.Context, dep *dependent.Dependent) error {
	ddb := toDBDependent(dep)
	if err := r.DB.WithContext(ctx).Create(ddb).Error; err != nil {
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

func (r *DependentRepository) Update(ctx context.Context, dep *dependent.Dependent) error {
	ddb := toDBDependent(dep)
	if err := r.DB.WithContext(ctx).Model(&dependentDB{}).Where("id = ?", ddb.Id).
		Select("*").Omit("id", "created_at").Updates(ddb).Error; err != nil {
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

func (r *DependentRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result := r.DB.WithContext(ctx).Where("id = ?", id.String()).Delete(&dependentDB{})
	if result.Error != nil {
		return appErrors.NewDatabaseError(result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrDependentNotFound
	}
	return nil
}

func (r *DependentRepository) GetById(ctx context.Context, id ulid.ULID) (*dependent.Dependent, error) {
	var ddb dependentDB
	if err := r.DB.WithContext(ctx).Where("id = ?", id.String()).First(&ddb).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrDependentNotFound.WithError(err)
		}
		return nil, appErrors.NewDatabaseError(err)
	}
	return toDomainDependent(&ddb)
}

func (r *DependentRepository) GetByFamilyId(ctx context.Context, familyID ulid.ULID, pagination *pkg.PaginationParams) ([]*dependent.Dependent, int64, error) {
	query := r.DB.WithContext(ctx).Model(&dependentDB{}).Where("family_id = ?", familyID.String())
	dependents, total, err := pkg.Paginate[dependent.Dependent, dependentDB](query, pagination, "created_at ASC", toDomainDependent)
	if err != nil {
		return nil, 0, appErrors.NewDatabaseError(err)
	}
	return dependents, total, nil
}

func (r *DependentRepository) UpdateBalance(ctx context.Context, id ulid.ULID, delta float64) error {
	result := r.DB.WithContext(ctx).Model(&dependentDB{}).Where("id = ?", id.String()).
		UpdateColumn("spendable_balance", gorm.Expr("spendable_balance + ?", delta)).
		UpdateColumn("updated_at", time.Now())
	if result.Error != nil {
		return appErrors.NewDatabaseError(result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrDependentNotFound
	}
	return nil
}
