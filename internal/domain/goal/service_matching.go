package goal

import (
	"context"
	"time"

	appErrors "Nestegg/internal/errors"
	"Nestegg/internal/pkg"

	"github.com/oklog/ulid/v2"
)

// CreateMatchingRule installs a guardian match on a goal. A goal holds at
// most one rule at a time; a second create fails with AlreadyExists.
func (s *Service) CreateMatchingRule(ctx context.Context, req *CreateMatchingRuleRequest) (*MatchingRule, error) {
	if err := validateMatchingRule(req.Type, req.MatchRatio, req.MaxMatchAmount, req.ExpiresAt); err != nil {
		return nil, err
	}

	now := time.Now()
	rule := &MatchingRule{
		Id:             pkg.GenerateULIDObject(),
		GoalId:         req.GoalId,
		Type:           req.Type,
		MatchRatio:     req.MatchRatio,
		MaxMatchAmount: req.MaxMatchAmount,
		Active:         true,
		ExpiresAt:      req.ExpiresAt,
		CreatedBy:      req.CreatedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.Repository.Transact(ctx, func(r Repository) error {
		g, err := r.GetByIdForUpdate(ctx, req.GoalId)
		if err != nil {
			return err
		}
		if g.Status.IsTerminal() {
			return appErrors.NewInvalidStateError("goal", "goal can no longer be changed")
		}

		existing, err := r.GetMatchingRuleByGoalId(ctx, req.GoalId)
		if err != nil {
			return err
		}
		if existing != nil {
			return appErrors.NewConflictError("Matching rule")
		}

		return r.CreateMatchingRule(ctx, rule)
	})
	if err != nil {
		return nil, err
	}

	return rule, nil
}

// UpdateMatchingRule applies a partial update: only supplied fields change.
func (s *Service) UpdateMatchingRule(ctx context.Context, goalID ulid.ULID, req *UpdateMatchingRuleRequest) (*MatchingRule, error) {
	var updated *MatchingRule
	err := s.Repository.Transact(ctx, func(r Repository) error {
		rule, err := r.GetMatchingRuleByGoalId(ctx, goalID)
		if err != nil {
			return err
		}
		if rule == nil {
			return appErrors.ErrMatchingRuleNotFound
		}

		if req.Type != nil {
			rule.Type = *req.Type
		}
		if req.MatchRatio != nil {
			rule.MatchRatio = *req.MatchRatio
		}
		if req.MaxMatchAmount != nil {
			rule.MaxMatchAmount = req.MaxMatchAmount
		}
		if req.Active != nil {
			rule.Active = *req.Active
		}
		if req.ExpiresAt != nil {
			rule.ExpiresAt = req.ExpiresAt
		}

		if err := validateMatchingRule(rule.Type, rule.MatchRatio, rule.MaxMatchAmount, nil); err != nil {
			return err
		}
		if rule.MaxMatchAmount != nil && *rule.MaxMatchAmount < rule.TotalMatchedAmount {
			return appErrors.NewValidationError("max_match_amount", "must not be below the amount already matched")
		}

		rule.UpdatedAt = time.Now()
		updated = rule
		return r.UpdateMatchingRule(ctx, rule)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) DeactivateMatchingRule(ctx context.Context, goalID ulid.ULID) error {
	active := false
	_, err := s.UpdateMatchingRule(ctx, goalID, &UpdateMatchingRuleRequest{Active: &active})
	return err
}

func (s *Service) GetMatchingRule(ctx context.Context, goalID ulid.ULID) (*MatchingRule, error) {
	rule, err := s.Repository.GetMatchingRuleByGoalId(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, appErrors.ErrMatchingRuleNotFound
	}
	return rule, nil
}

func validateMatchingRule(kind MatchingRuleType, ratio float64, cap *float64, expiresAt *time.Time) error {
	if !kind.IsValid() {
		return appErrors.NewValidationError("type", "must be RATIO or PERCENTAGE")
	}
	if ratio <= 0 {
		return appErrors.NewValidationError("match_ratio", "must be greater than zero")
	}
	if kind == MatchPercentage && ratio > 100 {
		return appErrors.NewValidationError("match_ratio", "percentage must be between 0 and 100")
	}
	if cap != nil && *cap <= 0 {
		return appErrors.NewValidationError("max_match_amount", "must be greater than zero")
	}
	if expiresAt != nil && expiresAt.Before(time.Now()) {
		return appErrors.NewValidationError("expires_at", "must be in the future")
	}
	return nil
}
