package goal

import (
	"context"
	"fmt"
	"strings"
	"time"

	appErrors "Nestegg/internal/errors"
	"Nestegg/internal/logger"
	"Nestegg/internal/pkg"

	"github.com/oklog/ulid/v2"
)

type Service struct {
	Repository Repository
	Notifier   TriggerNotifier
}

func NewService(repo Repository, notifier TriggerNotifier) *Service {
	return &Service{
		Repository: repo,
		Notifier:   notifier,
	}
}

// ---- goal CRUD and lifecycle ----

func (s *Service) CreateGoal(ctx context.Context, req *CreateGoalRequest) (*Goal, error) {
	if err := validateCreateGoal(req); err != nil {
		return nil, err
	}

	now := time.Now()
	g := &Goal{
		Id:                pkg.GenerateULIDObject(),
		DependentId:       req.DependentId,
		Name:              strings.TrimSpace(req.Name),
		Description:       strings.TrimSpace(req.Description),
		Category:          req.Category,
		TargetAmount:      req.TargetAmount,
		CurrentAmount:     0,
		Status:            StatusActive,
		Priority:          req.Priority,
		AutoTransferMode:  req.AutoTransferMode,
		AutoTransferParam: req.AutoTransferParam,
		TargetDate:        req.TargetDate,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	milestones := NewMilestones(g.Id, g.TargetAmount, now)
	for _, m := range milestones {
		m.CelebrationText = fmt.Sprintf("You reached %d%% of %s!", m.PercentComplete, g.Name)
	}

	err := s.Repository.Transact(ctx, func(r Repository) error {
		if _, err := r.GetDependentForUpdate(ctx, req.DependentId); err != nil {
			return err
		}
		if err := r.Create(ctx, g); err != nil {
			return err
		}
		return r.CreateMilestones(ctx, milestones)
	})
	if err != nil {
		return nil, err
	}

	return g, nil
}

func (s *Service) UpdateGoal(ctx context.Context, goalID ulid.ULID, req *UpdateGoalRequest) error {
	return s.Repository.Transact(ctx, func(r Repository) error {
		g, err := r.GetByIdForUpdate(ctx, goalID)
		if err != nil {
			return err
		}
		if g.Status.IsTerminal() {
			return appErrors.NewInvalidStateError("goal", "goal can no longer be changed")
		}

		now := time.Now()

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return appErrors.NewValidationError("name", "must not be empty")
			}
			g.Name = name
		}
		if req.Description != nil {
			g.Description = strings.TrimSpace(*req.Description)
		}
		if req.Category != nil {
			g.Category = *req.Category
		}
		if req.Priority != nil {
			g.Priority = *req.Priority
		}
		if req.TargetDate != nil {
			g.TargetDate = req.TargetDate
		}
		if req.AutoTransferMode != nil {
			if !req.AutoTransferMode.IsValid() {
				return appErrors.NewValidationError("auto_transfer_mode", "is not a valid mode")
			}
			g.AutoTransferMode = *req.AutoTransferMode
		}
		if req.AutoTransferParam != nil {
			g.AutoTransferParam = *req.AutoTransferParam
		}
		if err := validateAutoTransfer(g.AutoTransferMode, g.AutoTransferParam); err != nil {
			return err
		}

		if req.TargetAmount != nil && *req.TargetAmount != g.TargetAmount {
			if *req.TargetAmount <= 0 {
				return appErrors.NewValidationError("target_amount", "must be greater than zero")
			}
			g.TargetAmount = *req.TargetAmount

			milestones, err := r.GetMilestonesByGoalId(ctx, goalID)
			if err != nil {
				return err
			}
			for _, m := range RecomputeMilestoneTargets(g.TargetAmount, milestones, now) {
				if err := r.UpdateMilestone(ctx, m); err != nil {
					return err
				}
			}

			if g.Status == StatusActive && g.CurrentAmount >= g.TargetAmount {
				g.Status = StatusCompleted
				g.CompletedAt = &now
			}
		}

		g.UpdatedAt = now
		return r.Update(ctx, g)
	})
}

func (s *Service) PauseGoal(ctx context.Context, goalID ulid.ULID) error {
	return s.transitionStatus(ctx, goalID, []GoalStatus{StatusActive}, StatusPaused)
}

func (s *Service) ResumeGoal(ctx context.Context, goalID ulid.ULID) error {
	return s.transitionStatus(ctx, goalID, []GoalStatus{StatusPaused}, StatusActive)
}

// MarkPurchased is the explicit guardian action closing out a completed goal.
func (s *Service) MarkPurchased(ctx context.Context, goalID ulid.ULID) error {
	return s.Repository.Transact(ctx, func(r Repository) error {
		g, err := r.GetByIdForUpdate(ctx, goalID)
		if err != nil {
			return err
		}
		if g.Status != StatusCompleted {
			return appErrors.NewInvalidStateError("goal", "only a completed goal can be marked purchased")
		}
		now := time.Now()
		return r.UpdateFields(ctx, goalID, map[string]interface{}{
			"status":       StatusPurchased,
			"purchased_at": &now,
			"updated_at":   now,
		})
	})
}

// CancelGoal refunds the accumulated amount to the dependent's spendable
// balance and closes the goal for good. The refund is recorded in the ledger
// so history still reconstructs.
func (s *Service) CancelGoal(ctx context.Context, goalID ulid.ULID, actorID ulid.ULID) error {
	return s.Repository.Transact(ctx, func(r Repository) error {
		g, err := r.GetByIdForUpdate(ctx, goalID)
		if err != nil {
			return err
		}
		if g.Status != StatusActive && g.Status != StatusPaused {
			return appErrors.NewInvalidStateError("goal", "only an active or paused goal can be cancelled")
		}

		now := time.Now()
		refund := g.CurrentAmount
		if refund > 0 {
			if err := r.AdjustDependentBalance(ctx, g.DependentId, refund); err != nil {
				return err
			}
			g.CurrentAmount = 0
			entry := newContribution(g, ContributionWithdrawal, -refund, "Goal cancelled, balance returned", &actorID, now)
			if err := r.CreateContribution(ctx, entry); err != nil {
				return err
			}
		}

		g.Status = StatusCancelled
		g.UpdatedAt = now
		return r.Update(ctx, g)
	})
}

// DeleteGoal removes the goal and everything it owns. Goals still holding
// money must be cancelled first so the balance is refunded.
func (s *Service) DeleteGoal(ctx context.Context, goalID ulid.ULID) error {
	return s.Repository.Transact(ctx, func(r Repository) error {
		g, err := r.GetByIdForUpdate(ctx, goalID)
		if err != nil {
			return err
		}
		if g.CurrentAmount > 0 {
			return appErrors.NewInvalidStateError("goal", "goal still holds funds, cancel it first")
		}
		return r.Delete(ctx, goalID)
	})
}

func (s *Service) transitionStatus(ctx context.Context, goalID ulid.ULID, from []GoalStatus, to GoalStatus) error {
	return s.Repository.Transact(ctx, func(r Repository) error {
		g, err := r.GetByIdForUpdate(ctx, goalID)
		if err != nil {
			return err
		}
		allowed := false
		for _, st := range from {
			if g.Status == st {
				allowed = true
				break
			}
		}
		if !allowed {
			return appErrors.NewInvalidStateError("goal", fmt.Sprintf("cannot move goal from %s to %s", g.Status, to))
		}
		return r.UpdateFields(ctx, goalID, map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	})
}

// SetMilestoneBonus lets a guardian attach a bonus and celebration text to an
// unachieved milestone.
func (s *Service) SetMilestoneBonus(ctx context.Context, goalID ulid.ULID, percent int, bonus float64, celebrationText string) error {
	if bonus < 0 {
		return appErrors.NewValidationError("bonus_amount", "must not be negative")
	}
	return s.Repository.Transact(ctx, func(r Repository) error {
		g, err := r.GetByIdForUpdate(ctx, goalID)
		if err != nil {
			return err
		}
		if g.Status.IsTerminal() {
			return appErrors.NewInvalidStateError("goal", "goal can no longer be changed")
		}
		milestones, err := r.GetMilestonesByGoalId(ctx, goalID)
		if err != nil {
			return err
		}
		for _, m := range milestones {
			if m.PercentComplete != percent {
				continue
			}
			if m.Achieved {
				return appErrors.NewInvalidStateError("milestone", "milestone was already achieved")
			}
			m.BonusAmount = bonus
			if celebrationText != "" {
				m.CelebrationText = celebrationText
			}
			m.UpdatedAt = time.Now()
			return r.UpdateMilestone(ctx, m)
		}
		return appErrors.NewNotFoundError("Milestone")
	})
}

// ---- contribution orchestration ----

// Contribute moves money from the dependent's spendable balance into the
// goal and runs the full progression pipeline: guardian match, milestone
// thresholds, challenge completion, goal completion. Everything commits as
// one transaction; achievement and notification triggers fire only after the
// commit and never fail the operation.
func (s *Service) Contribute(ctx context.Context, goalID ulid.ULID, amount float64, description string, actorID ulid.ULID) (*ProgressEvent, error) {
	if amount <= 0 {
		return nil, appErrors.NewValidationError("amount", "must be greater than zero")
	}

	var (
		event    *ProgressEvent
		triggers []pendingTrigger
	)

	err := s.Repository.Transact(ctx, func(r Repository) error {
		g, err := r.GetByIdForUpdate(ctx, goalID)
		if err != nil {
			return err
		}
		if g.Status != StatusActive {
			return appErrors.NewInvalidStateError("goal", "goal is not active")
		}

		dep, err := r.GetDependentForUpdate(ctx, g.DependentId)
		if err != nil {
			return err
		}
		if dep.SpendableBalance < amount {
			return appErrors.ErrInsufficientFunds
		}

		now := time.Now()

		if err := r.AdjustDependentBalance(ctx, g.DependentId, -amount); err != nil {
			return err
		}
		g.CurrentAmount += amount
		deposit := newContribution(g, ContributionDeposit, amount, strings.TrimSpace(description), &actorID, now)
		if err := r.CreateContribution(ctx, deposit); err != nil {
			return err
		}

		matchAmount, err := s.applyMatch(ctx, r, g, deposit, amount, now)
		if err != nil {
			return err
		}

		result, err := s.evaluateProgression(ctx, r, g, now)
		if err != nil {
			return err
		}

		g.UpdatedAt = now
		if err := r.Update(ctx, g); err != nil {
			return err
		}

		event = &ProgressEvent{
			GoalId:            g.Id,
			DependentId:       g.DependentId,
			CurrentAmount:     g.CurrentAmount,
			TargetAmount:      g.TargetAmount,
			Percentage:        g.PercentComplete(),
			MilestoneReached:  HighestHit(result.hits),
			GoalCompleted:     result.completed,
			ChallengeComplete: result.challenge != nil,
			MatchAmount:       matchAmount,
		}
		triggers = collectTriggers(g, amount, result)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.fireTriggers(ctx, event.DependentId, triggers)
	return event, nil
}

// Withdraw moves money back from the goal to the spendable balance. Achieved
// milestones and completed statuses are monotonic: a withdrawal never reverts
// them.
func (s *Service) Withdraw(ctx context.Context, goalID ulid.ULID, amount float64, reason string, actorID ulid.ULID) (*Contribution, error) {
	if amount <= 0 {
		return nil, appErrors.NewValidationError("amount", "must be greater than zero")
	}

	var entry *Contribution
	err := s.Repository.Transact(ctx, func(r Repository) error {
		g, err := r.GetByIdForUpdate(ctx, goalID)
		if err != nil {
			return err
		}
		if g.Status.IsTerminal() {
			return appErrors.NewInvalidStateError("goal", "goal is closed")
		}
		if amount > g.CurrentAmount {
			return appErrors.ErrInsufficientGoalBalance
		}

		now := time.Now()
		if err := r.AdjustDependentBalance(ctx, g.DependentId, amount); err != nil {
			return err
		}
		g.CurrentAmount -= amount
		entry = newContribution(g, ContributionWithdrawal, -amount, strings.TrimSpace(reason), &actorID, now)
		if err := r.CreateContribution(ctx, entry); err != nil {
			return err
		}

		g.UpdatedAt = now
		return r.Update(ctx, g)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ProcessAutoTransfers runs once per allowance disbursement. It walks the
// dependent's active auto-transfer goals by ascending priority, moving the
// configured amount into each until the spendable balance runs out. The whole
// batch is one transaction; the dependent row stays locked so the balance is
// seen as monotonically decreasing within the call.
func (s *Service) ProcessAutoTransfers(ctx context.Context, dependentID ulid.ULID, allowanceAmount float64) ([]*ProgressEvent, error) {
	if allowanceAmount <= 0 {
		return nil, appErrors.NewValidationError("allowance_amount", "must be greater than zero")
	}

	var (
		events      []*ProgressEvent
		allTriggers []pendingTrigger
	)

	err := s.Repository.Transact(ctx, func(r Repository) error {
		dep, err := r.GetDependentForUpdate(ctx, dependentID)
		if err != nil {
			return err
		}

		goals, err := r.GetAutoTransferGoals(ctx, dependentID)
		if err != nil {
			return err
		}

		balance := dep.SpendableBalance
		now := time.Now()

		for _, g := range goals {
			if balance <= 0 {
				break
			}

			transfer := autoTransferAmount(g, allowanceAmount)
			if transfer > balance {
				transfer = balance
			}
			if remaining := g.RemainingToTarget(); transfer > remaining {
				transfer = remaining
			}
			if transfer <= 0 {
				continue
			}

			if err := r.AdjustDependentBalance(ctx, dependentID, -transfer); err != nil {
				return err
			}
			balance -= transfer
			g.CurrentAmount += transfer
			entry := newContribution(g, ContributionAutoTransfer, transfer, "Automatic transfer from allowance", nil, now)
			if err := r.CreateContribution(ctx, entry); err != nil {
				return err
			}

			// Auto-transfers skip guardian matching; milestones and
			// challenges still apply.
			result, err := s.evaluateProgression(ctx, r, g, now)
			if err != nil {
				return err
			}

			g.UpdatedAt = now
			if err := r.Update(ctx, g); err != nil {
				return err
			}

			events = append(events, &ProgressEvent{
				GoalId:            g.Id,
				DependentId:       g.DependentId,
				CurrentAmount:     g.CurrentAmount,
				TargetAmount:      g.TargetAmount,
				Percentage:        g.PercentComplete(),
				MilestoneReached:  HighestHit(result.hits),
				GoalCompleted:     result.completed,
				ChallengeComplete: result.challenge != nil,
			})
			allTriggers = append(allTriggers, collectTriggers(g, transfer, result)...)
		}

		return nil
	})
	if err != nil {
		logger.Error().
			Err(err).
			Str("dependent_id", dependentID.String()).
			Msg("Auto-transfer batch aborted")
		return nil, err
	}

	s.fireTriggers(ctx, dependentID, allTriggers)
	return events, nil
}

func autoTransferAmount(g *Goal, allowanceAmount float64) float64 {
	switch g.AutoTransferMode {
	case AutoTransferFixed:
		return g.AutoTransferParam
	case AutoTransferPercentage:
		return allowanceAmount * (g.AutoTransferParam / 100)
	default:
		return 0
	}
}

type progressResult struct {
	hits      []MilestoneHit
	challenge *Challenge
	completed bool
}

// evaluateProgression runs the post-deposit pipeline on a goal whose
// CurrentAmount was just increased: milestone thresholds (with bonuses),
// challenge completion (whose bonus is re-checked against milestones), and
// finally goal completion. Must run inside the caller's transaction.
func (s *Service) evaluateProgression(ctx context.Context, r Repository, g *Goal, now time.Time) (*progressResult, error) {
	milestones, err := r.GetMilestonesByGoalId(ctx, g.Id)
	if err != nil {
		return nil, err
	}

	result := &progressResult{}

	if err := s.sweepMilestones(ctx, r, g, milestones, now, result); err != nil {
		return nil, err
	}

	challenge, err := r.GetActiveChallenge(ctx, g.Id)
	if err != nil {
		return nil, err
	}
	if challenge.EvaluateCompletion(g.CurrentAmount, now) {
		completedAt := now
		challenge.Status = ChallengeCompleted
		challenge.CompletedAt = &completedAt
		challenge.UpdatedAt = now
		if err := r.UpdateChallenge(ctx, challenge); err != nil {
			return nil, err
		}
		if challenge.BonusAmount > 0 {
			g.CurrentAmount += challenge.BonusAmount
			entry := newContribution(g, ContributionBonus, challenge.BonusAmount, "Challenge bonus: "+challenge.Description, nil, now)
			if err := r.CreateContribution(ctx, entry); err != nil {
				return nil, err
			}
			// The challenge bonus can cross a milestone in the same event.
			if err := s.sweepMilestones(ctx, r, g, milestones, now, result); err != nil {
				return nil, err
			}
		}
		result.challenge = challenge
	}

	if g.Status == StatusActive && g.CurrentAmount >= g.TargetAmount {
		g.Status = StatusCompleted
		completedAt := now
		g.CompletedAt = &completedAt
		result.completed = true
	}

	return result, nil
}

// sweepMilestones applies milestone hits until a fixed point: a milestone
// bonus raises CurrentAmount and can itself cross the next threshold.
func (s *Service) sweepMilestones(ctx context.Context, r Repository, g *Goal, milestones []*Milestone, now time.Time, result *progressResult) error {
	for {
		hits := EvaluateMilestones(g.CurrentAmount, milestones, now)
		if len(hits) == 0 {
			return nil
		}
		for _, hit := range hits {
			if err := r.UpdateMilestone(ctx, hit.Milestone); err != nil {
				return err
			}
			if hit.Bonus > 0 {
				g.CurrentAmount += hit.Bonus
				entry := newContribution(g, ContributionBonus, hit.Bonus, fmt.Sprintf("Milestone bonus (%d%%)", hit.Milestone.PercentComplete), nil, now)
				if err := r.CreateContribution(ctx, entry); err != nil {
					return err
				}
			}
		}
		result.hits = append(result.hits, hits...)
	}
}

func (s *Service) applyMatch(ctx context.Context, r Repository, g *Goal, deposit *Contribution, amount float64, now time.Time) (float64, error) {
	rule, err := r.GetActiveMatchingRule(ctx, g.Id)
	if err != nil {
		return 0, err
	}

	matchAmount := rule.ComputeMatch(amount, now)
	if matchAmount <= 0 {
		return 0, nil
	}

	g.CurrentAmount += matchAmount
	match := newContribution(g, ContributionMatch, matchAmount, "Guardian match", &rule.CreatedBy, now)
	match.MatchedContributionId = &deposit.Id
	if err := r.CreateContribution(ctx, match); err != nil {
		return 0, err
	}

	rule.TotalMatchedAmount += matchAmount
	rule.UpdatedAt = now
	if err := r.UpdateMatchingRule(ctx, rule); err != nil {
		return 0, err
	}

	return matchAmount, nil
}

func newContribution(g *Goal, kind ContributionType, amount float64, description string, createdBy *ulid.ULID, now time.Time) *Contribution {
	return &Contribution{
		Id:               pkg.GenerateULIDObject(),
		GoalId:           g.Id,
		DependentId:      g.DependentId,
		Type:             kind,
		Amount:           amount,
		Description:      description,
		GoalBalanceAfter: g.CurrentAmount,
		CreatedBy:        createdBy,
		CreatedAt:        now,
	}
}

// ---- post-commit triggers ----

type pendingTrigger struct {
	kind    TriggerKind
	payload interface{}
}

func collectTriggers(g *Goal, amount float64, result *progressResult) []pendingTrigger {
	triggers := []pendingTrigger{{
		kind: TriggerContributionMade,
		payload: ContributionPayload{
			GoalId:        g.Id,
			Amount:        amount,
			CurrentAmount: g.CurrentAmount,
			TargetAmount:  g.TargetAmount,
		},
	}}

	for _, hit := range result.hits {
		triggers = append(triggers, pendingTrigger{
			kind: TriggerMilestoneReached,
			payload: MilestonePayload{
				GoalId:          g.Id,
				MilestoneId:     hit.Milestone.Id,
				PercentComplete: hit.Milestone.PercentComplete,
				BonusAmount:     hit.Bonus,
			},
		})
	}

	if result.challenge != nil {
		triggers = append(triggers, pendingTrigger{
			kind: TriggerChallengeCompleted,
			payload: ChallengeCompletedPayload{
				GoalId:       g.Id,
				ChallengeId:  result.challenge.Id,
				TargetAmount: result.challenge.TargetAmount,
				BonusAmount:  result.challenge.BonusAmount,
			},
		})
	}

	if result.completed && g.CompletedAt != nil {
		triggers = append(triggers, pendingTrigger{
			kind: TriggerGoalCompleted,
			payload: GoalCompletedPayload{
				GoalId:       g.Id,
				TargetAmount: g.TargetAmount,
				CompletedAt:  *g.CompletedAt,
			},
		})
	}

	return triggers
}

// fireTriggers runs after the transaction committed. Trigger failures are
// logged and never surface to the caller.
func (s *Service) fireTriggers(ctx context.Context, dependentID ulid.ULID, triggers []pendingTrigger) {
	if s.Notifier == nil {
		return
	}
	for _, t := range triggers {
		if err := s.Notifier.NotifyTrigger(ctx, dependentID, t.kind, t.payload); err != nil {
			logger.Warn().
				Err(err).
				Str("dependent_id", dependentID.String()).
				Str("trigger", string(t.kind)).
				Msg("Trigger notification failed")
		}
	}
}

// ---- validation ----

func validateCreateGoal(req *CreateGoalRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return appErrors.NewValidationError("name", "is required")
	}
	if req.TargetAmount <= 0 {
		return appErrors.NewValidationError("target_amount", "must be greater than zero")
	}
	if req.TargetDate != nil && req.TargetDate.Before(time.Now()) {
		return appErrors.NewValidationError("target_date", "must be in the future")
	}
	mode := req.AutoTransferMode
	if mode == "" {
		mode = AutoTransferNone
		req.AutoTransferMode = mode
	}
	if !mode.IsValid() {
		return appErrors.NewValidationError("auto_transfer_mode", "is not a valid mode")
	}
	return validateAutoTransfer(mode, req.AutoTransferParam)
}

func validateAutoTransfer(mode AutoTransferMode, param float64) error {
	switch mode {
	case AutoTransferFixed:
		if param <= 0 {
			return appErrors.NewValidationError("auto_transfer_param", "fixed amount must be greater than zero")
		}
	case AutoTransferPercentage:
		if param <= 0 || param > 100 {
			return appErrors.NewValidationError("auto_transfer_param", "percentage must be between 0 and 100")
		}
	}
	return nil
}
