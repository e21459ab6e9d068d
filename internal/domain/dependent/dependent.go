package dependent

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Dependent is the child side of a guardian/dependent family. The spendable
// balance on this row is the single balance every goal operation debits and
// credits.
type Dependent struct {
	Id               ulid.ULID `gorm:"type:varchar(26);primaryKey" json:"id"`
	FamilyId         ulid.ULID `gorm:"type:varchar(26);index:idx_dependents_family_id;not null" json:"familyId"`
	Name             string    `gorm:"type:varchar(100);not null" json:"name"`
	SpendableBalance float64   `gorm:"type:decimal(15,2);not null;default:0" json:"spendableBalance"`
	CreatedAt        time.Time `gorm:"autoCreateTime;not null" json:"createdAt"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime;not null" json:"updatedAt"`
}

func (Dependent) TableName() string {
	return "dependents"
}
