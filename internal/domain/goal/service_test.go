package goal_test

import (
	"context"
	"testing"
	"time"

	"Nestegg/internal/domain/dependent"
	"Nestegg/internal/domain/goal"
	appErrors "Nestegg/internal/errors"
	"Nestegg/internal/pkg"

	"github.com/oklog/ulid/v2"
)

// fakeRepository keeps everything in memory. Transact just runs the callback
// against the same instance; the service's locking calls degrade to plain
// lookups, which is fine for single-goroutine tests.
type fakeRepository struct {
	goals         map[ulid.ULID]*goal.Goal
	dependents    map[ulid.ULID]*dependent.Dependent
	milestones    []*goal.Milestone
	rules         []*goal.MatchingRule
	challenges    []*goal.Challenge
	contributions []*goal.Contribution
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		goals:      make(map[ulid.ULID]*goal.Goal),
		dependents: make(map[ulid.ULID]*dependent.Dependent),
	}
}

func (f *fakeRepository) Transact(ctx context.Context, fn func(goal.Repository) error) error {
	return fn(f)
}

func (f *fakeRepository) Create(ctx context.Context, g *goal.Goal) error {
	f.goals[g.Id] = g
	return nil
}

func (f *fakeRepository) Update(ctx context.Context, g *goal.Goal) error {
	f.goals[g.Id] = g
	return nil
}

func (f *fakeRepository) UpdateFields(ctx context.Context, id ulid.ULID, fields map[string]interface{}) error {
	g, ok := f.goals[id]
	if !ok {
		return appErrors.ErrGoalNotFound
	}
	if v, ok := fields["status"]; ok {
		g.Status = v.(goal.GoalStatus)
	}
	if v, ok := fields["purchased_at"]; ok {
		g.PurchasedAt = v.(*time.Time)
	}
	return nil
}

func (f *fakeRepository) Delete(ctx context.Context, id ulid.ULID) error {
	if _, ok := f.goals[id]; !ok {
		return appErrors.ErrGoalNotFound
	}
	delete(f.goals, id)
	return nil
}

func (f *fakeRepository) GetById(ctx context.Context, id ulid.ULID) (*goal.Goal, error) {
	g, ok := f.goals[id]
	if !ok {
		return nil, appErrors.ErrGoalNotFound
	}
	return g, nil
}

func (f *fakeRepository) GetByIdForUpdate(ctx context.Context, id ulid.ULID) (*goal.Goal, error) {
	return f.GetById(ctx, id)
}

func (f *fakeRepository) GetByDependentId(ctx context.Context, dependentID ulid.ULID, filters *goal.GoalFilters, pagination *pkg.PaginationParams) ([]*goal.Goal, int64, error) {
	var out []*goal.Goal
	for _, g := range f.goals {
		if g.DependentId != dependentID {
			continue
		}
		if filters != nil && filters.Status != nil && g.Status != *filters.Status {
			continue
		}
		out = append(out, g)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepository) GetAutoTransferGoals(ctx context.Context, dependentID ulid.ULID) ([]*goal.Goal, error) {
	var out []*goal.Goal
	for _, g := range f.goals {
		if g.DependentId == dependentID && g.Status == goal.StatusActive && g.AutoTransferMode != goal.AutoTransferNone {
			out = append(out, g)
		}
	}
	// ascending priority, the order the orchestrator relies on
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Priority < out[i].Priority {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakeRepository) CreateMilestones(ctx context.Context, milestones []*goal.Milestone) error {
	f.milestones = append(f.milestones, milestones...)
	return nil
}

func (f *fakeRepository) GetMilestonesByGoalId(ctx context.Context, goalID ulid.ULID) ([]*goal.Milestone, error) {
	var out []*goal.Milestone
	for _, m := range f.milestones {
		if m.GoalId == goalID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRepository) UpdateMilestone(ctx context.Context, m *goal.Milestone) error {
	for i, existing := range f.milestones {
		if existing.Id == m.Id {
			f.milestones[i] = m
			return nil
		}
	}
	return appErrors.NewNotFoundError("Milestone")
}

func (f *fakeRepository) CreateContribution(ctx context.Context, c *goal.Contribution) error {
	f.contributions = append(f.contributions, c)
	return nil
}

func (f *fakeRepository) GetContributionsByGoalId(ctx context.Context, goalID ulid.ULID, pagination *pkg.PaginationParams) ([]*goal.Contribution, int64, error) {
	var out []*goal.Contribution
	for _, c := range f.contributions {
		if c.GoalId == goalID {
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepository) CreateMatchingRule(ctx context.Context, r *goal.MatchingRule) error {
	f.rules = append(f.rules, r)
	return nil
}

func (f *fakeRepository) UpdateMatchingRule(ctx context.Context, r *goal.MatchingRule) error {
	for i, existing := range f.rules {
		if existing.Id == r.Id {
			f.rules[i] = r
			return nil
		}
	}
	return appErrors.ErrMatchingRuleNotFound
}

func (f *fakeRepository) GetMatchingRuleByGoalId(ctx context.Context, goalID ulid.ULID) (*goal.MatchingRule, error) {
	for _, r := range f.rules {
		if r.GoalId == goalID {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) GetActiveMatchingRule(ctx context.Context, goalID ulid.ULID) (*goal.MatchingRule, error) {
	for _, r := range f.rules {
		if r.GoalId == goalID && r.Active {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) CreateChallenge(ctx context.Context, c *goal.Challenge) error {
	f.challenges = append(f.challenges, c)
	return nil
}

func (f *fakeRepository) UpdateChallenge(ctx context.Context, c *goal.Challenge) error {
	for i, existing := range f.challenges {
		if existing.Id == c.Id {
			f.challenges[i] = c
			return nil
		}
	}
	return appErrors.ErrChallengeNotFound
}

func (f *fakeRepository) GetChallengeById(ctx context.Context, id ulid.ULID) (*goal.Challenge, error) {
	for _, c := range f.challenges {
		if c.Id == id {
			return c, nil
		}
	}
	return nil, appErrors.ErrChallengeNotFound
}

func (f *fakeRepository) GetActiveChallenge(ctx context.Context, goalID ulid.ULID) (*goal.Challenge, error) {
	for _, c := range f.challenges {
		if c.GoalId == goalID && c.Status == goal.ChallengeActive {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) GetChallengesByGoalId(ctx context.Context, goalID ulid.ULID) ([]*goal.Challenge, error) {
	var out []*goal.Challenge
	for _, c := range f.challenges {
		if c.GoalId == goalID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepository) GetExpiredActiveChallenges(ctx context.Context) ([]*goal.Challenge, error) {
	now := time.Now()
	var out []*goal.Challenge
	for _, c := range f.challenges {
		if c.Status == goal.ChallengeActive && now.After(c.EndDate) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepository) GetDependentForUpdate(ctx context.Context, dependentID ulid.ULID) (*dependent.Dependent, error) {
	dep, ok := f.dependents[dependentID]
	if !ok {
		return nil, appErrors.ErrDependentNotFound
	}
	return dep, nil
}

func (f *fakeRepository) AdjustDependentBalance(ctx context.Context, dependentID ulid.ULID, delta float64) error {
	dep, ok := f.dependents[dependentID]
	if !ok {
		return appErrors.ErrDependentNotFound
	}
	dep.SpendableBalance += delta
	return nil
}

type capturedTrigger struct {
	kind goal.TriggerKind
}

type fakeNotifier struct {
	triggers []capturedTrigger
	err      error
}

func (f *fakeNotifier) NotifyTrigger(ctx context.Context, dependentID ulid.ULID, kind goal.TriggerKind, payload interface{}) error {
	f.triggers = append(f.triggers, capturedTrigger{kind: kind})
	return f.err
}

func (f *fakeNotifier) kinds() []goal.TriggerKind {
	out := make([]goal.TriggerKind, 0, len(f.triggers))
	for _, t := range f.triggers {
		out = append(out, t.kind)
	}
	return out
}

func hasKind(kinds []goal.TriggerKind, want goal.TriggerKind) bool {
	for _, k := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

// seedGoal puts an active goal with its milestone set and a funded dependent
// into the repository.
func seedGoal(repo *fakeRepository, target, balance float64) *goal.Goal {
	now := time.Now()
	dep := &dependent.Dependent{
		Id:               ulid.Make(),
		FamilyId:         ulid.Make(),
		Name:             "Alex",
		SpendableBalance: balance,
	}
	repo.dependents[dep.Id] = dep

	g := &goal.Goal{
		Id:           ulid.Make(),
		DependentId:  dep.Id,
		Name:         "New Bike",
		TargetAmount: target,
		Status:       goal.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	repo.goals[g.Id] = g
	repo.milestones = append(repo.milestones, goal.NewMilestones(g.Id, target, now)...)
	return g
}

func countByType(contributions []*goal.Contribution, kind goal.ContributionType) int {
	n := 0
	for _, c := range contributions {
		if c.Type == kind {
			n++
		}
	}
	return n
}

func TestContributeProgressesThroughMilestones(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	g := seedGoal(repo, 100, 200)
	notifier := &fakeNotifier{}
	svc := goal.NewService(repo, notifier)

	ctx := context.Background()
	actorID := ulid.Make()

	event, err := svc.Contribute(ctx, g.Id, 30, "birthday money", actorID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.CurrentAmount != 30 {
		t.Fatalf("expected current 30, got %.2f", event.CurrentAmount)
	}
	if event.MilestoneReached == nil || event.MilestoneReached.PercentComplete != 25 {
		t.Fatalf("expected 25%% milestone, got %+v", event.MilestoneReached)
	}
	if event.GoalCompleted {
		t.Fatalf("goal must not be completed at 30")
	}

	event, err = svc.Contribute(ctx, g.Id, 70, "", actorID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.CurrentAmount != 100 {
		t.Fatalf("expected current 100, got %.2f", event.CurrentAmount)
	}
	if event.MilestoneReached == nil || event.MilestoneReached.PercentComplete != 100 {
		t.Fatalf("expected 100%% milestone, got %+v", event.MilestoneReached)
	}
	if !event.GoalCompleted {
		t.Fatalf("goal must be completed at target")
	}
	if repo.goals[g.Id].Status != goal.StatusCompleted {
		t.Fatalf("expected status COMPLETED, got %s", repo.goals[g.Id].Status)
	}

	dep := repo.dependents[g.DependentId]
	if dep.SpendableBalance != 100 {
		t.Fatalf("expected spendable balance 100, got %.2f", dep.SpendableBalance)
	}

	kinds := notifier.kinds()
	if !hasKind(kinds, goal.TriggerGoalCompleted) {
		t.Fatalf("expected GOAL_COMPLETED trigger, got %v", kinds)
	}
	if !hasKind(kinds, goal.TriggerMilestoneReached) {
		t.Fatalf("expected MILESTONE_REACHED trigger, got %v", kinds)
	}
}

func TestContributeAppliesMatchWithCap(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	g := seedGoal(repo, 1000, 500)
	guardianID := ulid.Make()
	cap := 20.0
	repo.rules = append(repo.rules, &goal.MatchingRule{
		Id:                 ulid.Make(),
		GoalId:             g.Id,
		Type:               goal.MatchRatio,
		MatchRatio:         0.5,
		MaxMatchAmount:     &cap,
		TotalMatchedAmount: 18,
		Active:             true,
		CreatedBy:          guardianID,
	})

	svc := goal.NewService(repo, nil)
	ctx := context.Background()

	event, err := svc.Contribute(ctx, g.Id, 10, "", ulid.Make())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.MatchAmount != 2 {
		t.Fatalf("expected clamped match 2, got %.2f", event.MatchAmount)
	}
	if event.CurrentAmount != 12 {
		t.Fatalf("expected current 12, got %.2f", event.CurrentAmount)
	}
	if repo.rules[0].TotalMatchedAmount != 20 {
		t.Fatalf("expected total matched 20, got %.2f", repo.rules[0].TotalMatchedAmount)
	}

	match := repo.contributions[len(repo.contributions)-1]
	if match.Type != goal.ContributionMatch {
		t.Fatalf("expected MATCH entry last, got %s", match.Type)
	}
	if match.MatchedContributionId == nil {
		t.Fatalf("match entry must reference the deposit")
	}
	if match.CreatedBy == nil || *match.CreatedBy != guardianID {
		t.Fatalf("match entry must carry the rule creator")
	}

	// cap exhausted: the next deposit earns nothing
	event, err = svc.Contribute(ctx, g.Id, 100, "", ulid.Make())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.MatchAmount != 0 {
		t.Fatalf("exhausted cap must yield match 0, got %.2f", event.MatchAmount)
	}
}

func TestContributeCompletesChallengeWithBonus(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	g := seedGoal(repo, 200, 100)
	g.CurrentAmount = 45

	now := time.Now()
	repo.challenges = append(repo.challenges, &goal.Challenge{
		Id:           ulid.Make(),
		GoalId:       g.Id,
		Description:  "Save 50 by Friday",
		TargetAmount: 50,
		BonusAmount:  10,
		StartDate:    now.Add(-24 * time.Hour),
		EndDate:      now.Add(24 * time.Hour),
		Status:       goal.ChallengeActive,
		CreatedBy:    ulid.Make(),
	})

	notifier := &fakeNotifier{}
	svc := goal.NewService(repo, notifier)

	event, err := svc.Contribute(context.Background(), g.Id, 10, "", ulid.Make())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !event.ChallengeComplete {
		t.Fatalf("expected challenge completion")
	}
	if event.CurrentAmount != 65 {
		t.Fatalf("expected current 65 (55 + 10 bonus), got %.2f", event.CurrentAmount)
	}
	if repo.challenges[0].Status != goal.ChallengeCompleted {
		t.Fatalf("expected COMPLETED challenge, got %s", repo.challenges[0].Status)
	}
	if repo.challenges[0].CompletedAt == nil {
		t.Fatalf("completed challenge must carry CompletedAt")
	}
	if n := countByType(repo.contributions, goal.ContributionBonus); n != 1 {
		t.Fatalf("expected 1 BONUS entry, got %d", n)
	}
	if !hasKind(notifier.kinds(), goal.TriggerChallengeCompleted) {
		t.Fatalf("expected CHALLENGE_COMPLETED trigger")
	}
}

func TestContributeChallengeBonusCrossesMilestone(t *testing.T) {
	t.Parallel()

	// Target 100, amount 45. A 3 deposit reaches 48; the challenge bonus of 5
	// pushes to 53 and must cross the 50% milestone in the same event.
	repo := newFakeRepository()
	g := seedGoal(repo, 100, 100)
	g.CurrentAmount = 45
	for _, m := range repo.milestones {
		if m.PercentComplete == 25 {
			m.Achieved = true
		}
	}

	now := time.Now()
	repo.challenges = append(repo.challenges, &goal.Challenge{
		Id:           ulid.Make(),
		GoalId:       g.Id,
		TargetAmount: 48,
		BonusAmount:  5,
		StartDate:    now.Add(-time.Hour),
		EndDate:      now.Add(time.Hour),
		Status:       goal.ChallengeActive,
		CreatedBy:    ulid.Make(),
	})

	svc := goal.NewService(repo, nil)
	event, err := svc.Contribute(context.Background(), g.Id, 3, "", ulid.Make())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.CurrentAmount != 53 {
		t.Fatalf("expected current 53, got %.2f", event.CurrentAmount)
	}
	if event.MilestoneReached == nil || event.MilestoneReached.PercentComplete != 50 {
		t.Fatalf("expected 50%% milestone from challenge bonus, got %+v", event.MilestoneReached)
	}
}

func TestContributeMilestoneBonusSweepsToFixedPoint(t *testing.T) {
	t.Parallel()

	// Target 100 with a 30 bonus on the 25% milestone: a 25 deposit lands on
	// 25, the bonus lifts to 55 and must also take the 50% milestone.
	repo := newFakeRepository()
	g := seedGoal(repo, 100, 100)
	for _, m := range repo.milestones {
		if m.PercentComplete == 25 {
			m.BonusAmount = 30
		}
	}

	svc := goal.NewService(repo, nil)
	event, err := svc.Contribute(context.Background(), g.Id, 25, "", ulid.Make())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.CurrentAmount != 55 {
		t.Fatalf("expected current 55, got %.2f", event.CurrentAmount)
	}
	if event.MilestoneReached == nil || event.MilestoneReached.PercentComplete != 50 {
		t.Fatalf("expected 50%% milestone, got %+v", event.MilestoneReached)
	}
	if n := countByType(repo.contributions, goal.ContributionBonus); n != 1 {
		t.Fatalf("expected 1 BONUS entry, got %d", n)
	}
}

func TestContributeRejectsInsufficientFunds(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	g := seedGoal(repo, 100, 5)
	svc := goal.NewService(repo, nil)

	_, err := svc.Contribute(context.Background(), g.Id, 10, "", ulid.Make())
	if err == nil {
		t.Fatalf("expected error")
	}
	appErr, ok := appErrors.AsAppError(err)
	if !ok || appErr.Code != "INSUFFICIENT_FUNDS" {
		t.Fatalf("expected INSUFFICIENT_FUNDS, got %v", err)
	}

	// nothing moved
	if repo.dependents[g.DependentId].SpendableBalance != 5 {
		t.Fatalf("balance must be untouched")
	}
	if len(repo.contributions) != 0 {
		t.Fatalf("no ledger entry may exist")
	}
}

func TestContributeRejectsInactiveGoal(t *testing.T) {
	t.Parallel()

	for _, status := range []goal.GoalStatus{goal.StatusPaused, goal.StatusCompleted, goal.StatusPurchased, goal.StatusCancelled} {
		repo := newFakeRepository()
		g := seedGoal(repo, 100, 100)
		g.Status = status

		svc := goal.NewService(repo, nil)
		_, err := svc.Contribute(context.Background(), g.Id, 10, "", ulid.Make())
		if err == nil {
			t.Fatalf("%s: expected error", status)
		}
		appErr, _ := appErrors.AsAppError(err)
		if appErr.Code != "INVALID_STATE" {
			t.Fatalf("%s: expected INVALID_STATE, got %s", status, appErr.Code)
		}
	}
}

func TestContributeRejectsNonPositiveAmount(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	g := seedGoal(repo, 100, 100)
	svc := goal.NewService(repo, nil)

	for _, amount := range []float64{0, -5} {
		_, err := svc.Contribute(context.Background(), g.Id, amount, "", ulid.Make())
		if err == nil {
			t.Fatalf("expected error for amount %.2f", amount)
		}
		appErr, _ := appErrors.AsAppError(err)
		if appErr.Code != "VALIDATION_ERROR" {
			t.Fatalf("expected VALIDATION_ERROR, got %s", appErr.Code)
		}
	}
}

func TestWithdrawReturnsFundsAndKeepsMilestones(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	g := seedGoal(repo, 100, 100)
	svc := goal.NewService(repo, nil)
	ctx := context.Background()
	actorID := ulid.Make()

	if _, err := svc.Contribute(ctx, g.Id, 60, "", actorID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry, err := svc.Withdraw(ctx, g.Id, 40, "field trip", actorID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Amount != -40 {
		t.Fatalf("withdrawal must be recorded negative, got %.2f", entry.Amount)
	}
	if entry.Type != goal.ContributionWithdrawal {
		t.Fatalf("expected WITHDRAWAL entry, got %s", entry.Type)
	}
	if g.CurrentAmount != 20 {
		t.Fatalf("expected current 20, got %.2f", g.CurrentAmount)
	}
	if repo.dependents[g.DependentId].SpendableBalance != 80 {
		t.Fatalf("expected spendable 80, got %.2f", repo.dependents[g.DependentId].SpendableBalance)
	}

	// achieved milestones stay achieved even though current dropped below them
	for _, m := range repo.milestones {
		if m.PercentComplete <= 50 && !m.Achieved {
			t.Fatalf("achieved milestone %d%% must stay achieved", m.PercentComplete)
		}
	}

	// and a later deposit back over the threshold does not re-report them
	event, err := svc.Contribute(ctx, g.Id, 40, "", actorID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.MilestoneReached != nil {
		t.Fatalf("re-crossing must not re-report milestones, got %+v", event.MilestoneReached)
	}
}

func TestWithdrawRejectsOverdraw(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	g := seedGoal(repo, 100, 100)
	g.CurrentAmount = 30
	svc := goal.NewService(repo, nil)

	_, err := svc.Withdraw(context.Background(), g.Id, 31, "", ulid.Make())
	if err == nil {
		t.Fatalf("expected error")
	}
	appErr, _ := appErrors.AsAppError(err)
	if appErr.Code != "INSUFFICIENT_GOAL_BALANCE" {
		t.Fatalf("expected INSUFFICIENT_GOAL_BALANCE, got %s", appErr.Code)
	}
}

func TestWithdrawKeepsCompletedStatus(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	g := seedGoal(repo, 100, 0)
	g.CurrentAmount = 100
	g.Status = goal.StatusCompleted
	now := time.Now()
	g.CompletedAt = &now

	svc := goal.NewService(repo, nil)
	if _, err := svc.Withdraw(context.Background(), g.Id, 50, "", ulid.Make()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Status != goal.StatusCompleted {
		t.Fatalf("completion is monotonic, got %s", g.Status)
	}
}

func TestCancelGoalRefundsBalance(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	g := seedGoal(repo, 100, 10)
	g.CurrentAmount = 42
	svc := goal.NewService(repo, nil)
	ctx := context.Background()

	if err := svc.CancelGoal(ctx, g.Id, ulid.Make()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Status != goal.StatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", g.Status)
	}
	if g.CurrentAmount != 0 {
		t.Fatalf("expected current 0, got %.2f", g.CurrentAmount)
	}
	if repo.dependents[g.DependentId].SpendableBalance != 52 {
		t.Fatalf("expected spendable 52, got %.2f", repo.dependents[g.DependentId].SpendableBalance)
	}
	if n := countByType(repo.contributions, goal.ContributionWithdrawal); n != 1 {
		t.Fatalf("expected refund ledger entry, got %d", n)
	}

	// a cancelled goal accepts nothing further
	_, err := svc.Contribute(ctx, g.Id, 10, "", ulid.Make())
	appErr, _ := appErrors.AsAppError(err)
	if appErr == nil || appErr.Code != "INVALID_STATE" {
		t.Fatalf("expected INVALID_STATE after cancel, got %v", err)
	}
}

func TestDeleteGoalRefusesWhileFunded(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	g := seedGoal(repo, 100, 0)
	g.CurrentAmount = 5
	svc := goal.NewService(repo, nil)

	err := svc.DeleteGoal(context.Background(), g.Id)
	appErr, _ := appErrors.AsAppError(err)
	if appErr == nil || appErr.Code != "INVALID_STATE" {
		t.Fatalf("expected INVALID_STATE, got %v", err)
	}

	g.CurrentAmount = 0
	if err := svc.DeleteGoal(context.Background(), g.Id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.goals[g.Id]; ok {
		t.Fatalf("goal must be deleted")
	}
}

func TestProcessAutoTransfersRespectsPriorityAndBalance(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	now := time.Now()
	dep := &dependent.Dependent{Id: ulid.Make(), FamilyId: ulid.Make(), Name: "Sam", SpendableBalance: 25}
	repo.dependents[dep.Id] = dep

	mkGoal := func(priority int, mode goal.AutoTransferMode, param, target float64) *goal.Goal {
		g := &goal.Goal{
			Id:                ulid.Make(),
			DependentId:       dep.Id,
			Name:              "goal",
			TargetAmount:      target,
			Status:            goal.StatusActive,
			Priority:          priority,
			AutoTransferMode:  mode,
			AutoTransferParam: param,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		repo.goals[g.Id] = g
		repo.milestones = append(repo.milestones, goal.NewMilestones(g.Id, target, now)...)
		return g
	}

	first := mkGoal(1, goal.AutoTransferFixed, 10, 100)
	second := mkGoal(2, goal.AutoTransferPercentage, 50, 100) // 50% of allowance
	third := mkGoal(3, goal.AutoTransferFixed, 10, 100)       // runs out of balance

	svc := goal.NewService(repo, nil)
	events, err := svc.ProcessAutoTransfers(context.Background(), dep.Id, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	if first.CurrentAmount != 10 {
		t.Fatalf("first goal: expected 10, got %.2f", first.CurrentAmount)
	}
	if second.CurrentAmount != 10 { // 50% of allowance 20
		t.Fatalf("second goal: expected 10, got %.2f", second.CurrentAmount)
	}
	if third.CurrentAmount != 5 { // clamped to remaining balance
		t.Fatalf("third goal: expected 5, got %.2f", third.CurrentAmount)
	}
	if dep.SpendableBalance != 0 {
		t.Fatalf("expected balance drained to 0, got %.2f", dep.SpendableBalance)
	}

	for _, c := range repo.contributions {
		if c.Type != goal.ContributionAutoTransfer {
			t.Fatalf("expected AUTO_TRANSFER entries only, got %s", c.Type)
		}
		if c.CreatedBy != nil {
			t.Fatalf("auto transfers are system entries")
		}
	}
}

func TestProcessAutoTransfersClampsToRemainingTarget(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	now := time.Now()
	dep := &dependent.Dependent{Id: ulid.Make(), FamilyId: ulid.Make(), Name: "Sam", SpendableBalance: 100}
	repo.dependents[dep.Id] = dep

	g := &goal.Goal{
		Id:                ulid.Make(),
		DependentId:       dep.Id,
		Name:              "Almost done",
		TargetAmount:      50,
		CurrentAmount:     48,
		Status:            goal.StatusActive,
		Priority:          1,
		AutoTransferMode:  goal.AutoTransferFixed,
		AutoTransferParam: 10,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	repo.goals[g.Id] = g
	milestones := goal.NewMilestones(g.Id, 50, now)
	goal.EvaluateMilestones(48, milestones, now)
	repo.milestones = append(repo.milestones, milestones...)

	svc := goal.NewService(repo, nil)
	events, err := svc.ProcessAutoTransfers(context.Background(), dep.Id, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if g.CurrentAmount != 50 {
		t.Fatalf("transfer must stop at the target, got %.2f", g.CurrentAmount)
	}
	if !events[0].GoalCompleted {
		t.Fatalf("reaching the target via auto transfer must complete the goal")
	}
	if dep.SpendableBalance != 98 {
		t.Fatalf("only 2 may leave the balance, got %.2f", dep.SpendableBalance)
	}
}

func TestProcessAutoTransfersSkipsMatching(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	now := time.Now()
	dep := &dependent.Dependent{Id: ulid.Make(), FamilyId: ulid.Make(), Name: "Sam", SpendableBalance: 50}
	repo.dependents[dep.Id] = dep

	g := &goal.Goal{
		Id:                ulid.Make(),
		DependentId:       dep.Id,
		Name:              "goal",
		TargetAmount:      100,
		Status:            goal.StatusActive,
		AutoTransferMode:  goal.AutoTransferFixed,
		AutoTransferParam: 10,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	repo.goals[g.Id] = g
	repo.milestones = append(repo.milestones, goal.NewMilestones(g.Id, 100, now)...)
	repo.rules = append(repo.rules, &goal.MatchingRule{
		Id:         ulid.Make(),
		GoalId:     g.Id,
		Type:       goal.MatchRatio,
		MatchRatio: 1,
		Active:     true,
		CreatedBy:  ulid.Make(),
	})

	svc := goal.NewService(repo, nil)
	if _, err := svc.ProcessAutoTransfers(context.Background(), dep.Id, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := countByType(repo.contributions, goal.ContributionMatch); n != 0 {
		t.Fatalf("auto transfers must not be matched, got %d MATCH entries", n)
	}
	if g.CurrentAmount != 10 {
		t.Fatalf("expected 10, got %.2f", g.CurrentAmount)
	}
}

func TestLedgerReconstructsGoalBalance(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	g := seedGoal(repo, 100, 200)
	for _, m := range repo.milestones {
		if m.PercentComplete == 25 {
			m.BonusAmount = 3
		}
	}
	svc := goal.NewService(repo, nil)
	ctx := context.Background()
	actorID := ulid.Make()

	if _, err := svc.Contribute(ctx, g.Id, 30, "", actorID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Withdraw(ctx, g.Id, 12, "", actorID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Contribute(ctx, g.Id, 9, "", actorID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sum float64
	for _, c := range repo.contributions {
		sum += c.Amount
	}
	if sum != g.CurrentAmount {
		t.Fatalf("ledger sum %.2f must equal current amount %.2f", sum, g.CurrentAmount)
	}

	last := repo.contributions[len(repo.contributions)-1]
	if last.GoalBalanceAfter != g.CurrentAmount {
		t.Fatalf("last entry snapshot %.2f must equal current %.2f", last.GoalBalanceAfter, g.CurrentAmount)
	}
}

func TestTriggerFailureDoesNotFailContribution(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	g := seedGoal(repo, 100, 100)
	notifier := &fakeNotifier{err: appErrors.ErrInternalServer}
	svc := goal.NewService(repo, notifier)

	event, err := svc.Contribute(context.Background(), g.Id, 10, "", ulid.Make())
	if err != nil {
		t.Fatalf("trigger failure must not surface: %v", err)
	}
	if event == nil || event.CurrentAmount != 10 {
		t.Fatalf("contribution must commit regardless of trigger failures")
	}
}
