package goal

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type MatchingRuleType string

const (
	// MatchRatio pays matchRatio currency units per unit deposited.
	MatchRatio MatchingRuleType = "RATIO"
	// MatchPercentage pays matchRatio percent (0-100) of the deposit.
	MatchPercentage MatchingRuleType = "PERCENTAGE"
)

func (t MatchingRuleType) IsValid() bool {
	return t == MatchRatio || t == MatchPercentage
}

// MatchingRule is a guardian's standing offer to match deposits on one goal.
// At most one rule exists per goal at a time.
type MatchingRule struct {
	Id         ulid.ULID        `gorm:"type:varchar(26);primaryKey" json:"id"`
	GoalId     ulid.ULID        `gorm:"type:varchar(26);uniqueIndex:idx_matching_rules_goal_id;not null" json:"goalId"`
	Type       MatchingRuleType `gorm:"type:varchar(20);not null" json:"type"`
	MatchRatio float64          `gorm:"type:decimal(15,4);not null" json:"matchRatio"`
	// MaxMatchAmount caps the lifetime matched total; nil means uncapped.
	MaxMatchAmount     *float64   `gorm:"type:decimal(15,2)" json:"maxMatchAmount,omitempty"`
	TotalMatchedAmount float64    `gorm:"type:decimal(15,2);not null;default:0" json:"totalMatchedAmount"`
	Active             bool       `gorm:"not null;default:true" json:"active"`
	ExpiresAt          *time.Time `gorm:"type:timestamp" json:"expiresAt,omitempty"`
	CreatedBy          ulid.ULID  `gorm:"type:varchar(26);not null" json:"createdBy"`
	CreatedAt          time.Time  `gorm:"autoCreateTime;not null" json:"createdAt"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime;not null" json:"updatedAt"`
}

func (MatchingRule) TableName() string {
	return "goal_matching_rules"
}

// ComputeMatch returns the guardian contribution owed for a deposit, already
// clamped to the remaining lifetime cap. Returns 0 when the rule is inactive,
// expired, or the cap is exhausted.
func (r *MatchingRule) ComputeMatch(depositAmount float64, now time.Time) float64 {
	if r == nil || !r.Active || depositAmount <= 0 {
		return 0
	}
	if r.ExpiresAt != nil && now.After(*r.ExpiresAt) {
		return 0
	}

	var match float64
	switch r.Type {
	case MatchRatio:
		match = depositAmount * r.MatchRatio
	case MatchPercentage:
		match = depositAmount * (r.MatchRatio / 100)
	default:
		return 0
	}

	if match <= 0 {
		return 0
	}

	if r.MaxMatchAmount != nil {
		remaining := *r.MaxMatchAmount - r.TotalMatchedAmount
		if remaining <= 0 {
			return 0
		}
		if match > remaining {
			match = remaining
		}
	}

	return match
}
