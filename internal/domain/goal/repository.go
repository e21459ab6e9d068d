package goal

import (
	"context"

	"Nestegg/internal/domain/dependent"
	"Nestegg/internal/pkg"

	"github.com/oklog/ulid/v2"
)

type GoalFilters struct {
	Status *GoalStatus
}

// Repository is the storage port of the goal engine. Transact yields a
// repository bound to one database transaction; every mutation made through
// it commits or rolls back as a unit. The dependent-balance methods live here
// because balance moves always share a transaction with a ledger write.
type Repository interface {
	// Transact runs fn inside a single transaction. The Repository passed to
	// fn is scoped to that transaction.
	Transact(ctx context.Context, fn func(Repository) error) error

	Create(ctx context.Context, g *Goal) error
	Update(ctx context.Context, g *Goal) error
	UpdateFields(ctx context.Context, id ulid.ULID, fields map[string]interface{}) error
	Delete(ctx context.Context, id ulid.ULID) error
	GetById(ctx context.Context, id ulid.ULID) (*Goal, error)
	// GetByIdForUpdate locks the goal row for the rest of the transaction.
	GetByIdForUpdate(ctx context.Context, id ulid.ULID) (*Goal, error)
	GetByDependentId(ctx context.Context, dependentID ulid.ULID, filters *GoalFilters, pagination *pkg.PaginationParams) ([]*Goal, int64, error)
	// GetAutoTransferGoals returns the dependent's Active goals with an
	// auto-transfer mode configured, ordered by ascending priority.
	GetAutoTransferGoals(ctx context.Context, dependentID ulid.ULID) ([]*Goal, error)

	CreateMilestones(ctx context.Context, milestones []*Milestone) error
	GetMilestonesByGoalId(ctx context.Context, goalID ulid.ULID) ([]*Milestone, error)
	UpdateMilestone(ctx context.Context, m *Milestone) error

	CreateContribution(ctx context.Context, c *Contribution) error
	GetContributionsByGoalId(ctx context.Context, goalID ulid.ULID, pagination *pkg.PaginationParams) ([]*Contribution, int64, error)

	CreateMatchingRule(ctx context.Context, r *MatchingRule) error
	UpdateMatchingRule(ctx context.Context, r *MatchingRule) error
	GetMatchingRuleByGoalId(ctx context.Context, goalID ulid.ULID) (*MatchingRule, error)
	// GetActiveMatchingRule returns nil, nil when the goal has no active rule.
	GetActiveMatchingRule(ctx context.Context, goalID ulid.ULID) (*MatchingRule, error)

	CreateChallenge(ctx context.Context, c *Challenge) error
	UpdateChallenge(ctx context.Context, c *Challenge) error
	GetChallengeById(ctx context.Context, id ulid.ULID) (*Challenge, error)
	// GetActiveChallenge returns nil, nil when the goal has no active challenge.
	GetActiveChallenge(ctx context.Context, goalID ulid.ULID) (*Challenge, error)
	GetChallengesByGoalId(ctx context.Context, goalID ulid.ULID) ([]*Challenge, error)
	GetExpiredActiveChallenges(ctx context.Context) ([]*Challenge, error)

	// GetDependentForUpdate locks the dependent row; balance reads inside a
	// transaction go through this.
	GetDependentForUpdate(ctx context.Context, dependentID ulid.ULID) (*dependent.Dependent, error)
	AdjustDependentBalance(ctx context.Context, dependentID ulid.ULID, delta float64) error
}
