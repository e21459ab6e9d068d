package goal

import (
	"context"
	"strings"
	"time"

	appErrors "Nestegg/internal/errors"
	"Nestegg/internal/logger"
	"Nestegg/internal/pkg"

	"github.com/oklog/ulid/v2"
)

// CreateChallenge starts a time-boxed secondary target on a goal. Only one
// challenge may be Active per goal; past challenges remain as history.
func (s *Service) CreateChallenge(ctx context.Context, req *CreateChallengeRequest) (*Challenge, error) {
	if req.TargetAmount <= 0 {
		return nil, appErrors.NewValidationError("target_amount", "must be greater than zero")
	}
	if req.BonusAmount < 0 {
		return nil, appErrors.NewValidationError("bonus_amount", "must not be negative")
	}

	now := time.Now()
	start := now
	if req.StartDate != nil {
		start = *req.StartDate
	}
	if !req.EndDate.After(start) {
		return nil, appErrors.NewValidationError("end_date", "must be after the start date")
	}
	if req.EndDate.Before(now) {
		return nil, appErrors.NewValidationError("end_date", "must be in the future")
	}

	challenge := &Challenge{
		Id:           pkg.GenerateULIDObject(),
		GoalId:       req.GoalId,
		Description:  strings.TrimSpace(req.Description),
		TargetAmount: req.TargetAmount,
		BonusAmount:  req.BonusAmount,
		StartDate:    start,
		EndDate:      req.EndDate,
		Status:       ChallengeActive,
		CreatedBy:    req.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.Repository.Transact(ctx, func(r Repository) error {
		g, err := r.GetByIdForUpdate(ctx, req.GoalId)
		if err != nil {
			return err
		}
		if g.Status.IsTerminal() {
			return appErrors.NewInvalidStateError("goal", "goal can no longer be changed")
		}

		active, err := r.GetActiveChallenge(ctx, req.GoalId)
		if err != nil {
			return err
		}
		if active != nil {
			return appErrors.NewConflictError("Active challenge")
		}

		return r.CreateChallenge(ctx, challenge)
	})
	if err != nil {
		return nil, err
	}

	return challenge, nil
}

// CancelChallenge is the explicit guardian action ending a challenge early.
// No bonus is paid and the goal balance is untouched.
func (s *Service) CancelChallenge(ctx context.Context, challengeID ulid.ULID) error {
	return s.Repository.Transact(ctx, func(r Repository) error {
		challenge, err := r.GetChallengeById(ctx, challengeID)
		if err != nil {
			return err
		}
		if challenge.Status != ChallengeActive {
			return appErrors.NewInvalidStateError("challenge", "only an active challenge can be cancelled")
		}
		challenge.Status = ChallengeCancelled
		challenge.UpdatedAt = time.Now()
		return r.UpdateChallenge(ctx, challenge)
	})
}

func (s *Service) ListChallenges(ctx context.Context, goalID ulid.ULID) ([]*Challenge, error) {
	if _, err := s.Repository.GetById(ctx, goalID); err != nil {
		return nil, err
	}
	return s.Repository.GetChallengesByGoalId(ctx, goalID)
}

// ExpireOverdueChallenges is the periodic sweep marking Active challenges
// whose window closed as Failed. It never touches goal balances and is safe
// to re-run on any schedule.
func (s *Service) ExpireOverdueChallenges(ctx context.Context) (int, error) {
	expired, err := s.Repository.GetExpiredActiveChallenges(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	failed := 0
	for _, challenge := range expired {
		if !challenge.IsExpired(now) {
			continue
		}
		challenge.Status = ChallengeFailed
		challenge.UpdatedAt = now
		if err := s.Repository.UpdateChallenge(ctx, challenge); err != nil {
			logger.Error().
				Err(err).
				Str("challenge_id", challenge.Id.String()).
				Msg("Failed to mark challenge as failed")
			continue
		}
		failed++
	}

	if failed > 0 {
		logger.Info().Int("count", failed).Msg("Expired overdue challenges")
	}
	return failed, nil
}
