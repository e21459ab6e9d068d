package contracts

import (
	"time"

	domainGoal "Nestegg/internal/domain/goal"
)

type GoalCreateRequest struct {
	DependentID       string     `json:"dependent_id" binding:"required"`
	Name              string     `json:"name" binding:"required,max=100"`
	Description       string     `json:"description" binding:"omitempty,max=255"`
	Category          string     `json:"category" binding:"omitempty,max=50"`
	TargetAmount      float64    `json:"target_amount" binding:"required,gt=0"`
	Priority          int        `json:"priority" binding:"omitempty,gte=0"`
	AutoTransferMode  string     `json:"auto_transfer_mode" binding:"omitempty,oneof=NONE FIXED PERCENTAGE"`
	AutoTransferParam float64    `json:"auto_transfer_param" binding:"omitempty,gte=0"`
	TargetDate        *time.Time `json:"target_date"`
}

type GoalUpdateRequest struct {
	Name              *string    `json:"name" binding:"omitempty,max=100"`
	Description       *string    `json:"description" binding:"omitempty,max=255"`
	Category          *string    `json:"category" binding:"omitempty,max=50"`
	TargetAmount      *float64   `json:"target_amount" binding:"omitempty,gt=0"`
	Priority          *int       `json:"priority" binding:"omitempty,gte=0"`
	AutoTransferMode  *string    `json:"auto_transfer_mode" binding:"omitempty,oneof=NONE FIXED PERCENTAGE"`
	AutoTransferParam *float64   `json:"auto_transfer_param" binding:"omitempty,gte=0"`
	TargetDate        *time.Time `json:"target_date"`
}

type GoalContributionRequest struct {
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Description string  `json:"description" binding:"omitempty,max=255"`
}

type GoalWithdrawRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Reason string  `json:"reason" binding:"omitempty,max=255"`
}

type MilestoneBonusRequest struct {
	Percent         int     `json:"percent" binding:"required,oneof=25 50 75 100"`
	BonusAmount     float64 `json:"bonus_amount" binding:"gte=0"`
	CelebrationText string  `json:"celebration_text" binding:"omitempty,max=255"`
}

type MatchingRuleCreateRequest struct {
	Type           string     `json:"type" binding:"required,oneof=RATIO PERCENTAGE"`
	MatchRatio     float64    `json:"match_ratio" binding:"required,gt=0"`
	MaxMatchAmount *float64   `json:"max_match_amount" binding:"omitempty,gt=0"`
	ExpiresAt      *time.Time `json:"expires_at"`
}

type MatchingRuleUpdateRequest struct {
	Type           *string    `json:"type" binding:"omitempty,oneof=RATIO PERCENTAGE"`
	MatchRatio     *float64   `json:"match_ratio" binding:"omitempty,gt=0"`
	MaxMatchAmount *float64   `json:"max_match_amount" binding:"omitempty,gt=0"`
	Active         *bool      `json:"active"`
	ExpiresAt      *time.Time `json:"expires_at"`
}

type ChallengeCreateRequest struct {
	Description  string     `json:"description" binding:"omitempty,max=255"`
	TargetAmount float64    `json:"target_amount" binding:"required,gt=0"`
	BonusAmount  float64    `json:"bonus_amount" binding:"gte=0"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      time.Time  `json:"end_date" binding:"required"`
}

type GoalResponse struct {
	Goal *domainGoal.Goal `json:"goal"`
}

type GoalDetailResponse struct {
	Detail *domainGoal.GoalDetail `json:"detail"`
}

type GoalProgressResponse struct {
	Progress *domainGoal.GoalProgress `json:"progress"`
}

type ContributionResponse struct {
	Contribution *domainGoal.Contribution `json:"contribution"`
}

type ContributionResultResponse struct {
	Event *domainGoal.ProgressEvent `json:"event"`
}

type AutoTransferResultResponse struct {
	Events []*domainGoal.ProgressEvent `json:"events"`
	Total  int                         `json:"total"`
}

type MilestoneListResponse struct {
	Milestones []*domainGoal.Milestone `json:"milestones"`
	Total      int                     `json:"total"`
}

type MatchingRuleResponse struct {
	Rule *domainGoal.MatchingRule `json:"rule"`
}

type ChallengeResponse struct {
	Challenge *domainGoal.Challenge `json:"challenge"`
}

type ChallengeListResponse struct {
	Challenges []*domainGoal.Challenge `json:"challenges"`
	Total      int                     `json:"total"`
}
