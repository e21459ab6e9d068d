package goal

import (
	"context"
	"sort"
	"time"

	"Nestegg/internal/pkg"

	"github.com/oklog/ulid/v2"
)

// GoalDetail is the denormalized read projection handed to the presentation
// layer: the goal plus its milestones, matching-rule summary and active
// challenge summary.
type GoalDetail struct {
	Goal            *GoalView             `json:"goal"`
	Milestones      []*Milestone          `json:"milestones"`
	MatchingRule    *MatchingRuleSummary  `json:"matchingRule,omitempty"`
	ActiveChallenge *ChallengeSummary     `json:"activeChallenge,omitempty"`
}

type GoalView struct {
	*Goal
	Percentage float64 `json:"percentage"`
	Remaining  float64 `json:"remaining"`
}

type MatchingRuleSummary struct {
	Type               MatchingRuleType `json:"type"`
	MatchRatio         float64          `json:"matchRatio"`
	MaxMatchAmount     *float64         `json:"maxMatchAmount,omitempty"`
	TotalMatchedAmount float64          `json:"totalMatchedAmount"`
	Active             bool             `json:"active"`
	ExpiresAt          *time.Time       `json:"expiresAt,omitempty"`
}

type ChallengeSummary struct {
	Id           ulid.ULID `json:"id"`
	Description  string    `json:"description"`
	TargetAmount float64   `json:"targetAmount"`
	BonusAmount  float64   `json:"bonusAmount"`
	EndDate      time.Time `json:"endDate"`
	Percentage   float64   `json:"percentage"`
}

func (s *Service) GetGoalDetail(ctx context.Context, goalID ulid.ULID) (*GoalDetail, error) {
	g, err := s.Repository.GetById(ctx, goalID)
	if err != nil {
		return nil, err
	}

	milestones, err := s.Repository.GetMilestonesByGoalId(ctx, goalID)
	if err != nil {
		return nil, err
	}
	sort.Slice(milestones, func(i, j int) bool {
		return milestones[i].PercentComplete < milestones[j].PercentComplete
	})

	detail := &GoalDetail{
		Goal: &GoalView{
			Goal:       g,
			Percentage: g.PercentComplete(),
			Remaining:  g.RemainingToTarget(),
		},
		Milestones: milestones,
	}

	rule, err := s.Repository.GetMatchingRuleByGoalId(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if rule != nil {
		detail.MatchingRule = &MatchingRuleSummary{
			Type:               rule.Type,
			MatchRatio:         rule.MatchRatio,
			MaxMatchAmount:     rule.MaxMatchAmount,
			TotalMatchedAmount: rule.TotalMatchedAmount,
			Active:             rule.Active,
			ExpiresAt:          rule.ExpiresAt,
		}
	}

	challenge, err := s.Repository.GetActiveChallenge(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if challenge != nil {
		percentage := 0.0
		if challenge.TargetAmount > 0 {
			percentage = (g.CurrentAmount / challenge.TargetAmount) * 100
			if percentage > 100 {
				percentage = 100
			}
		}
		detail.ActiveChallenge = &ChallengeSummary{
			Id:           challenge.Id,
			Description:  challenge.Description,
			TargetAmount: challenge.TargetAmount,
			BonusAmount:  challenge.BonusAmount,
			EndDate:      challenge.EndDate,
			Percentage:   percentage,
		}
	}

	return detail, nil
}

type GoalProgress struct {
	GoalId        ulid.ULID  `json:"goalId"`
	Name          string     `json:"name"`
	TargetAmount  float64    `json:"targetAmount"`
	CurrentAmount float64    `json:"currentAmount"`
	Remaining     float64    `json:"remaining"`
	Percentage    float64    `json:"percentage"`
	Status        GoalStatus `json:"status"`
}

func (s *Service) GetProgress(ctx context.Context, goalID ulid.ULID) (*GoalProgress, error) {
	g, err := s.Repository.GetById(ctx, goalID)
	if err != nil {
		return nil, err
	}

	return &GoalProgress{
		GoalId:        g.Id,
		Name:          g.Name,
		TargetAmount:  g.TargetAmount,
		CurrentAmount: g.CurrentAmount,
		Remaining:     g.RemainingToTarget(),
		Percentage:    g.PercentComplete(),
		Status:        g.Status,
	}, nil
}

func (s *Service) GetGoalByID(ctx context.Context, goalID ulid.ULID) (*Goal, error) {
	return s.Repository.GetById(ctx, goalID)
}

func (s *Service) GetGoalsByDependentID(ctx context.Context, dependentID ulid.ULID, filters *GoalFilters, pagination *pkg.PaginationParams) ([]*Goal, int64, error) {
	return s.Repository.GetByDependentId(ctx, dependentID, filters, pagination)
}

func (s *Service) GetContributions(ctx context.Context, goalID ulid.ULID, pagination *pkg.PaginationParams) ([]*Contribution, int64, error) {
	if _, err := s.Repository.GetById(ctx, goalID); err != nil {
		return nil, 0, err
	}
	return s.Repository.GetContributionsByGoalId(ctx, goalID, pagination)
}

func (s *Service) GetMilestones(ctx context.Context, goalID ulid.ULID) ([]*Milestone, error) {
	if _, err := s.Repository.GetById(ctx, goalID); err != nil {
		return nil, err
	}
	milestones, err := s.Repository.GetMilestonesByGoalId(ctx, goalID)
	if err != nil {
		return nil, err
	}
	sort.Slice(milestones, func(i, j int) bool {
		return milestones[i].PercentComplete < milestones[j].PercentComplete
	})
	return milestones, nil
}
