package goal

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type ChallengeStatus string

const (
	ChallengeActive    ChallengeStatus = "ACTIVE"
	ChallengeCompleted ChallengeStatus = "COMPLETED"
	ChallengeFailed    ChallengeStatus = "FAILED"
	ChallengeCancelled ChallengeStatus = "CANCELLED"
)

// Challenge is a time-boxed secondary target layered on a goal. At most one
// challenge is Active per goal; finished challenges are kept as history.
type Challenge struct {
	Id           ulid.ULID       `gorm:"type:varchar(26);primaryKey" json:"id"`
	GoalId       ulid.ULID       `gorm:"type:varchar(26);index:idx_challenges_goal_id;not null" json:"goalId"`
	Description  string          `gorm:"type:varchar(255)" json:"description"`
	TargetAmount float64         `gorm:"type:decimal(15,2);not null" json:"targetAmount"`
	BonusAmount  float64         `gorm:"type:decimal(15,2);not null;default:0" json:"bonusAmount"`
	StartDate    time.Time       `gorm:"type:timestamp;not null" json:"startDate"`
	EndDate      time.Time       `gorm:"type:timestamp;not null" json:"endDate"`
	Status       ChallengeStatus `gorm:"type:varchar(20);default:'ACTIVE';index:idx_challenges_status" json:"status"`
	CompletedAt  *time.Time      `gorm:"type:timestamp" json:"completedAt,omitempty"`
	CreatedBy    ulid.ULID       `gorm:"type:varchar(26);not null" json:"createdBy"`
	CreatedAt    time.Time       `gorm:"autoCreateTime;not null" json:"createdAt"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime;not null" json:"updatedAt"`
}

func (Challenge) TableName() string {
	return "goal_challenges"
}

// EvaluateCompletion reports whether an Active challenge is won by the goal's
// current amount before its end date. It does not mutate the challenge; the
// orchestrator applies the transition inside its transaction.
func (c *Challenge) EvaluateCompletion(currentAmount float64, now time.Time) bool {
	if c == nil || c.Status != ChallengeActive {
		return false
	}
	if now.After(c.EndDate) {
		return false
	}
	return currentAmount >= c.TargetAmount
}

// IsExpired reports an Active challenge whose window closed without the
// target being reached.
func (c *Challenge) IsExpired(now time.Time) bool {
	return c.Status == ChallengeActive && now.After(c.EndDate)
}
