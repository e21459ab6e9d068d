package goal

import (
	"sort"
	"time"

	"Nestegg/internal/pkg"

	"github.com/oklog/ulid/v2"
)

// MilestonePercents are the four fixed checkpoints created with every goal.
var MilestonePercents = []int{25, 50, 75, 100}

type Milestone struct {
	Id              ulid.ULID  `gorm:"type:varchar(26);primaryKey" json:"id"`
	GoalId          ulid.ULID  `gorm:"type:varchar(26);index:idx_milestones_goal_id;not null" json:"goalId"`
	PercentComplete int        `gorm:"not null" json:"percentComplete"`
	TargetAmount    float64    `gorm:"type:decimal(15,2);not null" json:"targetAmount"`
	Achieved        bool       `gorm:"not null;default:false" json:"achieved"`
	AchievedAt      *time.Time `gorm:"type:timestamp" json:"achievedAt,omitempty"`
	BonusAmount     float64    `gorm:"type:decimal(15,2);not null;default:0" json:"bonusAmount"`
	CelebrationText string     `gorm:"type:varchar(255)" json:"celebrationText"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;not null" json:"createdAt"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime;not null" json:"updatedAt"`
}

func (Milestone) TableName() string {
	return "goal_milestones"
}

// NewMilestones builds the fixed milestone set for a goal target.
func NewMilestones(goalID ulid.ULID, targetAmount float64, now time.Time) []*Milestone {
	out := make([]*Milestone, 0, len(MilestonePercents))
	for _, percent := range MilestonePercents {
		out = append(out, &Milestone{
			Id:              pkg.GenerateULIDObject(),
			GoalId:          goalID,
			PercentComplete: percent,
			TargetAmount:    targetAmount * float64(percent) / 100,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	return out
}

// MilestoneHit is one threshold newly crossed by a contribution.
type MilestoneHit struct {
	Milestone *Milestone
	Bonus     float64
}

// EvaluateMilestones marks every unachieved milestone whose target is now met,
// in ascending percent order, and returns the hits. A milestone already
// achieved is never returned again, so re-running the evaluation is a no-op
// for it. A single contribution can cross several thresholds at once; all of
// them are reported.
func EvaluateMilestones(currentAmount float64, milestones []*Milestone, now time.Time) []MilestoneHit {
	sorted := make([]*Milestone, len(milestones))
	copy(sorted, milestones)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PercentComplete < sorted[j].PercentComplete
	})

	var hits []MilestoneHit
	for _, m := range sorted {
		if m.Achieved {
			continue
		}
		if currentAmount < m.TargetAmount {
			continue
		}
		achievedAt := now
		m.Achieved = true
		m.AchievedAt = &achievedAt
		m.UpdatedAt = now
		hits = append(hits, MilestoneHit{Milestone: m, Bonus: m.BonusAmount})
	}
	return hits
}

// RecomputeMilestoneTargets rescales unachieved milestones after a goal's
// target amount changed. Achieved milestones keep the target they were won
// at. Returns the milestones that changed.
func RecomputeMilestoneTargets(targetAmount float64, milestones []*Milestone, now time.Time) []*Milestone {
	var changed []*Milestone
	for _, m := range milestones {
		if m.Achieved {
			continue
		}
		newTarget := targetAmount * float64(m.PercentComplete) / 100
		if newTarget == m.TargetAmount {
			continue
		}
		m.TargetAmount = newTarget
		m.UpdatedAt = now
		changed = append(changed, m)
	}
	return changed
}

// HighestHit returns the most advanced milestone of a batch, or nil. The
// progress event carries a single celebration, not a list.
func HighestHit(hits []MilestoneHit) *Milestone {
	var highest *Milestone
	for _, h := range hits {
		if highest == nil || h.Milestone.PercentComplete > highest.PercentComplete {
			highest = h.Milestone
		}
	}
	return highest
}
