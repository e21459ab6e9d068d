package goal

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type ContributionType string

const (
	ContributionDeposit      ContributionType = "DEPOSIT"
	ContributionMatch        ContributionType = "MATCH"
	ContributionAutoTransfer ContributionType = "AUTO_TRANSFER"
	ContributionBonus        ContributionType = "BONUS"
	ContributionWithdrawal   ContributionType = "WITHDRAWAL"
)

// Contribution is one immutable ledger entry. Amount is signed: withdrawals
// are negative. The ledger is never mutated after creation; the goal's
// current amount is always the signed sum of its entries.
type Contribution struct {
	Id          ulid.ULID        `gorm:"type:varchar(26);primaryKey" json:"id"`
	GoalId      ulid.ULID        `gorm:"type:varchar(26);index:idx_contributions_goal_id;not null" json:"goalId"`
	DependentId ulid.ULID        `gorm:"type:varchar(26);index:idx_contributions_dependent_id;not null" json:"dependentId"`
	Type        ContributionType `gorm:"type:varchar(20);not null" json:"type"`
	Amount      float64          `gorm:"type:decimal(15,2);not null" json:"amount"`
	Description string           `gorm:"type:varchar(255)" json:"description"`
	// GoalBalanceAfter snapshots the goal's current amount right after this
	// entry was applied.
	GoalBalanceAfter float64 `gorm:"type:decimal(15,2);not null" json:"goalBalanceAfter"`
	// MatchedContributionId links a MATCH entry back to the deposit it matched.
	MatchedContributionId *ulid.ULID `gorm:"type:varchar(26)" json:"matchedContributionId,omitempty"`
	// CreatedBy is nil for system-generated entries (auto-transfers, bonuses).
	CreatedBy *ulid.ULID `gorm:"type:varchar(26)" json:"createdBy,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime;not null" json:"createdAt"`
}

func (Contribution) TableName() string {
	return "goal_contributions"
}
