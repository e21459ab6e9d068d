package goal

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type CreateGoalRequest struct {
	DependentId       ulid.ULID
	Name              string
	Description       string
	Category          string
	TargetAmount      float64
	Priority          int
	AutoTransferMode  AutoTransferMode
	AutoTransferParam float64
	TargetDate        *time.Time
	CreatedBy         ulid.ULID
}

// UpdateGoalRequest is a partial update: nil fields are left untouched.
type UpdateGoalRequest struct {
	Name              *string
	Description       *string
	Category          *string
	TargetAmount      *float64
	Priority          *int
	AutoTransferMode  *AutoTransferMode
	AutoTransferParam *float64
	TargetDate        *time.Time
}

type CreateMatchingRuleRequest struct {
	GoalId         ulid.ULID
	Type           MatchingRuleType
	MatchRatio     float64
	MaxMatchAmount *float64
	ExpiresAt      *time.Time
	CreatedBy      ulid.ULID
}

// UpdateMatchingRuleRequest is partial: only supplied fields change.
type UpdateMatchingRuleRequest struct {
	Type           *MatchingRuleType
	MatchRatio     *float64
	MaxMatchAmount *float64
	Active         *bool
	ExpiresAt      *time.Time
}

type CreateChallengeRequest struct {
	GoalId       ulid.ULID
	Description  string
	TargetAmount float64
	BonusAmount  float64
	StartDate    *time.Time
	EndDate      time.Time
	CreatedBy    ulid.ULID
}
