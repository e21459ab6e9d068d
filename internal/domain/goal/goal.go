package goal

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type GoalStatus string

const (
	StatusActive    GoalStatus = "ACTIVE"
	StatusPaused    GoalStatus = "PAUSED"
	StatusCompleted GoalStatus = "COMPLETED"
	StatusPurchased GoalStatus = "PURCHASED"
	StatusCancelled GoalStatus = "CANCELLED"
)

// IsTerminal reports whether no further status transition is allowed.
// Completed is not terminal: it can still move to Purchased.
func (s GoalStatus) IsTerminal() bool {
	return s == StatusPurchased || s == StatusCancelled
}

type AutoTransferMode string

const (
	AutoTransferNone       AutoTransferMode = "NONE"
	AutoTransferFixed      AutoTransferMode = "FIXED"
	AutoTransferPercentage AutoTransferMode = "PERCENTAGE"
)

func (m AutoTransferMode) IsValid() bool {
	switch m {
	case AutoTransferNone, AutoTransferFixed, AutoTransferPercentage:
		return true
	}
	return false
}

// Goal is the aggregate root of the savings engine. Milestones, the matching
// rule and challenges are owned by the goal and cascade with it; the
// contribution ledger is append-only underneath it.
type Goal struct {
	Id            ulid.ULID  `gorm:"type:varchar(26);primaryKey" json:"id"`
	DependentId   ulid.ULID  `gorm:"type:varchar(26);index:idx_goals_dependent_id;not null" json:"dependentId"`
	Name          string     `gorm:"type:varchar(100);not null" json:"name"`
	Description   string     `gorm:"type:varchar(255)" json:"description"`
	Category      string     `gorm:"type:varchar(50)" json:"category"`
	TargetAmount  float64    `gorm:"type:decimal(15,2);not null" json:"targetAmount"`
	CurrentAmount float64    `gorm:"type:decimal(15,2);not null;default:0" json:"currentAmount"`
	Status        GoalStatus `gorm:"type:varchar(20);default:'ACTIVE';index:idx_goals_status" json:"status"`
	// Priority orders goals during auto-transfer processing, lowest first.
	Priority          int              `gorm:"not null;default:0" json:"priority"`
	AutoTransferMode  AutoTransferMode `gorm:"type:varchar(20);not null;default:'NONE'" json:"autoTransferMode"`
	AutoTransferParam float64          `gorm:"type:decimal(15,2);not null;default:0" json:"autoTransferParam"`
	TargetDate        *time.Time       `gorm:"type:timestamp" json:"targetDate,omitempty"`
	CompletedAt       *time.Time       `gorm:"type:timestamp" json:"completedAt,omitempty"`
	PurchasedAt       *time.Time       `gorm:"type:timestamp" json:"purchasedAt,omitempty"`
	CreatedAt         time.Time        `gorm:"autoCreateTime;not null" json:"createdAt"`
	UpdatedAt         time.Time        `gorm:"autoUpdateTime;not null" json:"updatedAt"`
}

func (Goal) TableName() string {
	return "savings_goals"
}

// PercentComplete returns progress as 0-100.
func (g *Goal) PercentComplete() float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	return (g.CurrentAmount / g.TargetAmount) * 100
}

func (g *Goal) RemainingToTarget() float64 {
	remaining := g.TargetAmount - g.CurrentAmount
	if remaining < 0 {
		return 0
	}
	return remaining
}
