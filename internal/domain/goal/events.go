package goal

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// ProgressEvent summarizes one contribution for the caller. The UI shows a
// single celebration, so only the most advanced milestone of the batch is
// carried.
type ProgressEvent struct {
	GoalId            ulid.ULID  `json:"goalId"`
	DependentId       ulid.ULID  `json:"dependentId"`
	CurrentAmount     float64    `json:"currentAmount"`
	TargetAmount      float64    `json:"targetAmount"`
	Percentage        float64    `json:"percentage"`
	MilestoneReached  *Milestone `json:"milestoneReached,omitempty"`
	GoalCompleted     bool       `json:"goalCompleted"`
	ChallengeComplete bool       `json:"challengeCompleted"`
	MatchAmount       float64    `json:"matchAmount"`
}

type TriggerKind string

const (
	TriggerContributionMade   TriggerKind = "CONTRIBUTION_MADE"
	TriggerMilestoneReached   TriggerKind = "MILESTONE_REACHED"
	TriggerGoalCompleted      TriggerKind = "GOAL_COMPLETED"
	TriggerChallengeCompleted TriggerKind = "CHALLENGE_COMPLETED"
)

// Trigger payloads are typed per kind; consumers never parse free-form blobs.

type ContributionPayload struct {
	GoalId        ulid.ULID `json:"goalId"`
	Amount        float64   `json:"amount"`
	CurrentAmount float64   `json:"currentAmount"`
	TargetAmount  float64   `json:"targetAmount"`
}

type MilestonePayload struct {
	GoalId          ulid.ULID `json:"goalId"`
	MilestoneId     ulid.ULID `json:"milestoneId"`
	PercentComplete int       `json:"percentComplete"`
	BonusAmount     float64   `json:"bonusAmount"`
}

type GoalCompletedPayload struct {
	GoalId       ulid.ULID `json:"goalId"`
	TargetAmount float64   `json:"targetAmount"`
	CompletedAt  time.Time `json:"completedAt"`
}

type ChallengeCompletedPayload struct {
	GoalId       ulid.ULID `json:"goalId"`
	ChallengeId  ulid.ULID `json:"challengeId"`
	TargetAmount float64   `json:"targetAmount"`
	BonusAmount  float64   `json:"bonusAmount"`
}

// TriggerNotifier carries post-commit events to the achievement and
// notification systems. Calls are fire-and-forget: implementations must not
// affect the outcome of the financial transaction, and the orchestrator logs
// and swallows every error they return.
type TriggerNotifier interface {
	NotifyTrigger(ctx context.Context, dependentID ulid.ULID, kind TriggerKind, payload interface{}) error
}
