package infrastructure

import (
	"context"
	"errors"
	"time"

	"Nestegg/internal/domain/dependent"
	"Nestegg/internal/domain/goal"
	appErrors "Nestegg/internal/errors"
	"Nestegg/internal/pkg"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GoalRepository struct {
	DB *gorm.DB
}

// Transact runs fn against a repository bound to one transaction. Nested
// calls reuse gorm's savepoint handling.
func (r *GoalRepository) Transact(ctx context.Context, fn func(goal.Repository) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GoalRepository{DB: tx})
	})
}

type goalDB struct {
	Id                string  `gorm:"type:varchar(26);primaryKey"`
	DependentId       string  `gorm:"type:varchar(26);index;not null"`
	Name              string  `gorm:"not null"`
	Description       string  `gorm:"type:varchar(255)"`
	Category          string  `gorm:"type:varchar(50)"`
	TargetAmount      float64 `gorm:"not null"`
	CurrentAmount     float64 `gorm:"not null"`
	Status            string  `gorm:"type:varchar(20);not null;index"`
	Priority          int     `gorm:"not null;default:0"`
	AutoTransferMode  string  `gorm:"type:varchar(20);not null;default:'NONE'"`
	AutoTransferParam float64 `gorm:"not null;default:0"`
	TargetDate        *time.Time
	CompletedAt       *time.Time
	PurchasedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (goalDB) TableName() string { return "savings_goals" }

func toDomainGoal(gdb *goalDB) (*goal.Goal, error) {
	id, err := pkg.ParseULID(gdb.Id)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	did, err := pkg.ParseULID(gdb.DependentId)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	return &goal.Goal{
		Id:                id,
		DependentId:       did,
		Name:              gdb.Name,
		Description:       gdb.Description,
		Category:          gdb.Category,
		TargetAmount:      gdb.TargetAmount,
		CurrentAmount:     gdb.CurrentAmount,
		Status:            goal.GoalStatus(gdb.Status),
		Priority:          gdb.Priority,
		AutoTransferMode:  goal.AutoTransferMode(gdb.AutoTransferMode),
		AutoTransferParam: gdb.AutoTransferParam,
		TargetDate:        gdb.TargetDate,
		CompletedAt:       gdb.CompletedAt,
		PurchasedAt:       gdb.PurchasedAt,
		CreatedAt:         gdb.CreatedAt,
		UpdatedAt:         gdb.UpdatedAt,
	}, nil
}

func toDBGoal(g *goal.Goal) *goalDB {
	return &goalDB{
		Id:                g.Id.String(),
		DependentId:       g.DependentId.String(),
		Name:              g.Name,
		Description:       g.Description,
		Category:          g.Category,
		TargetAmount:      g.TargetAmount,
		CurrentAmount:     g.CurrentAmount,
		Status:            string(g.Status),
		Priority:          g.Priority,
		AutoTransferMode:  string(g.AutoTransferMode),
		AutoTransferParam: g.AutoTransferParam,
		TargetDate:        g.TargetDate,
		CompletedAt:       g.CompletedAt,
		PurchasedAt:       g.PurchasedAt,
		CreatedAt:         g.CreatedAt,
		UpdatedAt:         g.UpdatedAt,
	}
}

func (r *GoalRepository) Create(ctx context.Context, g *goal.Goal) error {
	gdb := toDBGoal(g)
	if err := r.DB.WithContext(ctx).Create(gdb).Error; err != nil {
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

func (r *GoalRepository) Update(ctx context.Context, g *goal.Goal) error {
	gdb := toDBGoal(g)
	if err := r.DB.WithContext(ctx).Model(&goalDB{}).Where("id = ?", gdb.Id).
		Select("*").Omit("id", "created_at").Updates(gdb).Error; err != nil {
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

func (r *GoalRepository) UpdateFields(ctx context.Context, id ulid.ULID, fields map[string]interface{}) error {
	if err := r.DB.WithContext(ctx).Model(&goalDB{}).Where("id = ?", id.String()).Updates(fields).Error; err != nil {
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

// Delete removes the goal and everything it owns. Contributions are kept:
// the ledger is append-only and outlives its goal.
func (r *GoalRepository) Delete(ctx context.Context, id ulid.ULID) error {
	goalID := id.String()
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("goal_id = ?", goalID).Delete(&milestoneDB{}).Error; err != nil {
			return err
		}
		if err := tx.Where("goal_id = ?", goalID).Delete(&matchingRuleDB{}).Error; err != nil {
			return err
		}
		if err := tx.Where("goal_id = ?", goalID).Delete(&challengeDB{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", goalID).Delete(&goalDB{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return appErrors.ErrGoalNotFound
		}
		return nil
	})
	if err != nil {
		if appErr, ok := appErrors.AsAppError(err); ok {
			return appErr
		}
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

func (r *GoalRepository) GetById(ctx context.Context, id ulid.ULID) (*goal.Goal, error) {
	var gdb goalDB
	if err := r.DB.WithContext(ctx).Where("id = ?", id.String()).First(&gdb).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrGoalNotFound.WithError(err)
		}
		return nil, appErrors.NewDatabaseError(err)
	}
	return toDomainGoal(&gdb)
}

func (r *GoalRepository) GetByIdForUpdate(ctx context.Context, id ulid.ULID) (*goal.Goal, error) {
	var gdb goalDB
	if err := r.DB.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id.String()).First(&gdb).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrGoalNotFound.WithError(err)
		}
		return nil, appErrors.NewDatabaseError(err)
	}
	return toDomainGoal(&gdb)
}

func (r *GoalRepository) GetByDependentId(ctx context.Context, dependentID ulid.ULID, filters *goal.GoalFilters, pagination *pkg.PaginationParams) ([]*goal.Goal, int64, error) {
	query := r.DB.WithContext(ctx).Model(&goalDB{}).Where("dependent_id = ?", dependentID.String())
	if filters != nil && filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	goals, total, err := pkg.Paginate[goal.Goal, goalDB](query, pagination, "priority ASC, created_at DESC", toDomainGoal)
	if err != nil {
		return nil, 0, appErrors.NewDatabaseError(err)
	}
	return goals, total, nil
}

func (r *GoalRepository) GetAutoTransferGoals(ctx context.Context, dependentID ulid.ULID) ([]*goal.Goal, error) {
	var rows []goalDB
	if err := r.DB.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("dependent_id = ? AND status = ? AND auto_transfer_mode <> ?",
			dependentID.String(), goal.StatusActive, string(goal.AutoTransferNone)).
		Order("priority ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, appErrors.NewDatabaseError(err)
	}
	out := make([]*goal.Goal, 0, len(rows))
	for i := range rows {
		g, err := toDomainGoal(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// ---- milestones ----

type milestoneDB struct {
	Id              string  `gorm:"type:varchar(26);primaryKey"`
	GoalId          string  `gorm:"type:varchar(26);index;not null"`
	PercentComplete int     `gorm:"not null"`
	TargetAmount    float64 `gorm:"not null"`
	Achieved        bool    `gorm:"not null;default:false"`
	AchievedAt      *time.Time
	BonusAmount     float64 `gorm:"not null;default:0"`
	CelebrationText string  `gorm:"type:varchar(255)"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (milestoneDB) TableName() string { return "goal_milestones" }

func toDomainMilestone(mdb *milestoneDB) (*goal.Milestone, error) {
	id, err := pkg.ParseULID(mdb.Id)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	gid, err := pkg.ParseULID(mdb.GoalId)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	return &goal.Milestone{
		Id:              id,
		GoalId:          gid,
		PercentComplete: mdb.PercentComplete,
		TargetAmount:    mdb.TargetAmount,
		Achieved:        mdb.Achieved,
		AchievedAt:      mdb.AchievedAt,
		BonusAmount:     mdb.BonusAmount,
		CelebrationText: mdb.CelebrationText,
		CreatedAt:       mdb.CreatedAt,
		UpdatedAt:       mdb.UpdatedAt,
	}, nil
}

func toDBMilestone(m *goal.Milestone) *milestoneDB {
	return &milestoneDB{
		Id:              m.Id.String(),
		GoalId:          m.GoalId.String(),
		PercentComplete: m.PercentComplete,
		TargetAmount:    m.TargetAmount,
		Achieved:        m.Achieved,
		AchievedAt:      m.AchievedAt,
		BonusAmount:     m.BonusAmount,
		CelebrationText: m.CelebrationText,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func (r *GoalRepository) CreateMilestones(ctx context.Context, milestones []*goal.Milestone) error {
	rows := make([]*milestoneDB, 0, len(milestones))
	for _, m := range milestones {
		rows = append(rows, toDBMilestone(m))
	}
	if err := r.DB.WithContext(ctx).Create(&rows).Error; err != nil {
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

func (r *GoalRepository) GetMilestonesByGoalId(ctx context.Context, goalID ulid.ULID) ([]*goal.Milestone, error) {
	var rows []milestoneDB
	if err := r.DB.WithContext(ctx).
		Where("goal_id = ?", goalID.String()).
		Order("percent_complete ASC").
		Find(&rows).Error; err != nil {
		return nil, appErrors.NewDatabaseError(err)
	}
	out := make([]*goal.Milestone, 0, len(rows))
	for i := range rows {
		m, err := toDomainMilestone(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *GoalRepository) UpdateMilestone(ctx context.Context, m *goal.Milestone) error {
	mdb := toDBMilestone(m)
	if err := r.DB.WithContext(ctx).Model(&milestoneDB{}).Where("id = ?", mdb.Id).
		Select("*").Omit("id", "created_at").Updates(mdb).Error; err != nil {
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

// ---- contributions ----

type contributionDB struct {
	Id                    string  `gorm:"type:varchar(26);primaryKey"`
	GoalId                string  `gorm:"type:varchar(26);index;not null"`
	DependentId           string  `gorm:"type:varchar(26);index;not null"`
	Type                  string  `gorm:"type:varchar(20);not null"`
	Amount                float64 `gorm:"not null"`
	Description           string  `gorm:"type:varchar(255)"`
	GoalBalanceAfter      float64 `gorm:"not null"`
	MatchedContributionId *string `gorm:"type:varchar(26)"`
	CreatedBy             *string `gorm:"type:varchar(26)"`
	CreatedAt             time.Time `gorm:"not null"`
}

func (contributionDB) TableName() string { return "goal_contributions" }

func toDomainContribution(cdb *contributionDB) (*goal.Contribution, error) {
	id, err := pkg.ParseULID(cdb.Id)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	gid, err := pkg.ParseULID(cdb.GoalId)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	did, err := pkg.ParseULID(cdb.DependentId)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	matched, err := pkg.ParseULIDPtr(cdb.MatchedContributionId)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	createdBy, err := pkg.ParseULIDPtr(cdb.CreatedBy)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	return &goal.Contribution{
		Id:                    id,
		GoalId:                gid,
		DependentId:           did,
		Type:                  goal.ContributionType(cdb.Type),
		Amount:                cdb.Amount,
		Description:           cdb.Description,
		GoalBalanceAfter:      cdb.GoalBalanceAfter,
		MatchedContributionId: matched,
		CreatedBy:             createdBy,
		CreatedAt:             cdb.CreatedAt,
	}, nil
}

func toDBContribution(c *goal.Contribution) *contributionDB {
	cdb := &contributionDB{
		Id:               c.Id.String(),
		GoalId:           c.GoalId.String(),
		DependentId:      c.DependentId.String(),
		Type:             string(c.Type),
		Amount:           c.Amount,
		Description:      c.Description,
		GoalBalanceAfter: c.GoalBalanceAfter,
		CreatedAt:        c.CreatedAt,
	}
	if c.MatchedContributionId != nil {
		s := c.MatchedContributionId.String()
		cdb.MatchedContributionId = &s
	}
	if c.CreatedBy != nil {
		s := c.CreatedBy.String()
		cdb.CreatedBy = &s
	}
	return cdb
}

func (r *GoalRepository) CreateContribution(ctx context.Context, c *goal.Contribution) error {
	cdb := toDBContribution(c)
	if err := r.DB.WithContext(ctx).Create(cdb).Error; err != nil {
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

func (r *GoalRepository) GetContributionsByGoalId(ctx context.Context, goalID ulid.ULID, pagination *pkg.PaginationParams) ([]*goal.Contribution, int64, error) {
	query := r.DB.WithContext(ctx).Model(&contributionDB{}).Where("goal_id = ?", goalID.String())
	contributions, total, err := pkg.Paginate[goal.Contribution, contributionDB](query, pagination, "created_at DESC", toDomainContribution)
	if err != nil {
		return nil, 0, appErrors.NewDatabaseError(err)
	}
	return contributions, total, nil
}

// ---- matching rules ----

type matchingRuleDB struct {
	Id                 string   `gorm:"type:varchar(26);primaryKey"`
	GoalId             string   `gorm:"type:varchar(26);uniqueIndex;not null"`
	Type               string   `gorm:"type:varchar(20);not null"`
	MatchRatio         float64  `gorm:"not null"`
	MaxMatchAmount     *float64
	TotalMatchedAmount float64 `gorm:"not null;default:0"`
	Active             bool    `gorm:"not null;default:true"`
	ExpiresAt          *time.Time
	CreatedBy          string `gorm:"type:varchar(26);not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (matchingRuleDB) TableName() string { return "goal_matching_rules" }

func toDomainMatchingRule(rdb *matchingRuleDB) (*goal.MatchingRule, error) {
	id, err := pkg.ParseULID(rdb.Id)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	gid, err := pkg.ParseULID(rdb.GoalId)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	creator, err := pkg.ParseULID(rdb.CreatedBy)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	return &goal.MatchingRule{
		Id:                 id,
		GoalId:             gid,
		Type:               goal.MatchingRuleType(rdb.Type),
		MatchRatio:         rdb.MatchRatio,
		MaxMatchAmount:     rdb.MaxMatchAmount,
		TotalMatchedAmount: rdb.TotalMatchedAmount,
		Active:             rdb.Active,
		ExpiresAt:          rdb.ExpiresAt,
		CreatedBy:          creator,
		CreatedAt:          rdb.CreatedAt,
		UpdatedAt:          rdb.UpdatedAt,
	}, nil
}

func toDBMatchingRule(ru *goal.MatchingRule) *matchingRuleDB {
	return &matchingRuleDB{
		Id:                 ru.Id.String(),
		GoalId:             ru.GoalId.String(),
		Type:               string(ru.Type),
		MatchRatio:         ru.MatchRatio,
		MaxMatchAmount:     ru.MaxMatchAmount,
		TotalMatchedAmount: ru.TotalMatchedAmount,
		Active:             ru.Active,
		ExpiresAt:          ru.ExpiresAt,
		CreatedBy:          ru.CreatedBy.String(),
		CreatedAt:          ru.CreatedAt,
		UpdatedAt:          ru.UpdatedAt,
	}
}

func (r *GoalRepository) CreateMatchingRule(ctx context.Context, ru *goal.MatchingRule) error {
	rdb := toDBMatchingRule(ru)
	if err := r.DB.WithContext(ctx).Create(rdb).Error; err != nil {
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

func (r *GoalRepository) UpdateMatchingRule(ctx context.Context, ru *goal.MatchingRule) error {
	rdb := toDBMatchingRule(ru)
	if err := r.DB.WithContext(ctx).Model(&matchingRuleDB{}).Where("id = ?", rdb.Id).
		Select("*").Omit("id", "created_at").Updates(rdb).Error; err != nil {
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

func (r *GoalRepository) GetMatchingRuleByGoalId(ctx context.Context, goalID ulid.ULID) (*goal.MatchingRule, error) {
	var rdb matchingRuleDB
	if err := r.DB.WithContext(ctx).Where("goal_id = ?", goalID.String()).First(&rdb).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, appErrors.NewDatabaseError(err)
	}
	return toDomainMatchingRule(&rdb)
}

func (r *GoalRepository) GetActiveMatchingRule(ctx context.Context, goalID ulid.ULID) (*goal.MatchingRule, error) {
	var rdb matchingRuleDB
	if err := r.DB.WithContext(ctx).
		Where("goal_id = ? AND active = ?", goalID.String(), true).
		First(&rdb).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, appErrors.NewDatabaseError(err)
	}
	return toDomainMatchingRule(&rdb)
}

// ---- challenges ----

type challengeDB struct {
	Id           string  `gorm:"type:varchar(26);primaryKey"`
	GoalId       string  `gorm:"type:varchar(26);index;not null"`
	Description  string  `gorm:"type:varchar(255)"`
	TargetAmount float64 `gorm:"not null"`
	BonusAmount  float64 `gorm:"not null;default:0"`
	StartDate    time.Time `gorm:"not null"`
	EndDate      time.Time `gorm:"not null"`
	Status       string    `gorm:"type:varchar(20);not null;index"`
	CompletedAt  *time.Time
	CreatedBy    string `gorm:"type:varchar(26);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (challengeDB) TableName() string { return "goal_challenges" }

func toDomainChallenge(cdb *challengeDB) (*goal.Challenge, error) {
	id, err := pkg.ParseULID(cdb.Id)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	gid, err := pkg.ParseULID(cdb.GoalId)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	creator, err := pkg.ParseULID(cdb.CreatedBy)
	if err != nil {
		return nil, appErrors.ErrInternalServer.WithError(err)
	}
	return &goal.Challenge{
		Id:           id,
		GoalId:       gid,
		Description:  cdb.Description,
		TargetAmount: cdb.TargetAmount,
		BonusAmount:  cdb.BonusAmount,
		StartDate:    cdb.StartDate,
		EndDate:      cdb.EndDate,
		Status:       goal.ChallengeStatus(cdb.Status),
		CompletedAt:  cdb.CompletedAt,
		CreatedBy:    creator,
		CreatedAt:    cdb.CreatedAt,
		UpdatedAt:    cdb.UpdatedAt,
	}, nil
}

func toDBChallenge(c *goal.Challenge) *challengeDB {
	return &challengeDB{
		Id:           c.Id.String(),
		GoalId:       c.GoalId.String(),
		Description:  c.Description,
		TargetAmount: c.TargetAmount,
		BonusAmount:  c.BonusAmount,
		StartDate:    c.StartDate,
		EndDate:      c.EndDate,
		Status:       string(c.Status),
		CompletedAt:  c.CompletedAt,
		CreatedBy:    c.CreatedBy.String(),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (r *GoalRepository) CreateChallenge(ctx context.Context, c *goal.Challenge) error {
	cdb := toDBChallenge(c)
	if err := r.DB.WithContext(ctx).Create(cdb).Error; err != nil {
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

func (r *GoalRepository) UpdateChallenge(ctx context.Context, c *goal.Challenge) error {
	cdb := toDBChallenge(c)
	if err := r.DB.WithContext(ctx).Model(&challengeDB{}).Where("id = ?", cdb.Id).
		Select("*").Omit("id", "created_at").Updates(cdb).Error; err != nil {
		return appErrors.NewDatabaseError(err)
	}
	return nil
}

func (r *GoalRepository) GetChallengeById(ctx context.Context, id ulid.ULID) (*goal.Challenge, error) {
	var cdb challengeDB
	if err := r.DB.WithContext(ctx).Where("id = ?", id.String()).First(&cdb).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrChallengeNotFound.WithError(err)
		}
		return nil, appErrors.NewDatabaseError(err)
	}
	return toDomainChallenge(&cdb)
}

func (r *GoalRepository) GetActiveChallenge(ctx context.Context, goalID ulid.ULID) (*goal.Challenge, error) {
	var cdb challengeDB
	if err := r.DB.WithContext(ctx).
		Where("goal_id = ? AND status = ?", goalID.String(), string(goal.ChallengeActive)).
		First(&cdb).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, appErrors.NewDatabaseError(err)
	}
	return toDomainChallenge(&cdb)
}

func (r *GoalRepository) GetChallengesByGoalId(ctx context.Context, goalID ulid.ULID) ([]*goal.Challenge, error) {
	var rows []challengeDB
	if err := r.DB.WithContext(ctx).
		Where("goal_id = ?", goalID.String()).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, appErrors.NewDatabaseError(err)
	}
	out := make([]*goal.Challenge, 0, len(rows))
	for i := range rows {
		c, err := toDomainChallenge(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *GoalRepository) GetExpiredActiveChallenges(ctx context.Context) ([]*goal.Challenge, error) {
	var rows []challengeDB
	if err := r.DB.WithContext(ctx).
		Where("status = ? AND end_date < ?", string(goal.ChallengeActive), time.Now()).
		Find(&rows).Error; err != nil {
		return nil, appErrors.NewDatabaseError(err)
	}
	out := make([]*goal.Challenge, 0, len(rows))
	for i := range rows {
		c, err := toDomainChallenge(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// ---- dependent balance (same transaction as ledger writes) ----

func (r *GoalRepository) GetDependentForUpdate(ctx context.Context, dependentID ulid.ULID) (*dependent.Dependent, error) {
	var ddb dependentDB
	if err := r.DB.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", dependentID.String()).First(&ddb).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrDependentNotFound.WithError(err)
		}
		return nil, appErrors.NewDatabaseError(err)
	}
	return toDomainDependent(&ddb)
}

func (r *GoalRepository) AdjustDependentBalance(ctx context.Context, dependentID ulid.ULID, delta float64) error {
	result := r.DB.WithContext(ctx).Model(&dependentDB{}).Where("id = ?", dependentID.String()).
		UpdateColumn("spendable_balance", gorm.Expr("spendable_balance + ?", delta)).
		UpdateColumn("updated_at", time.Now())
	if result.Error != nil {
		return appErrors.NewDatabaseError(result.Error)
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrDependentNotFound
	}
	return nil
}
