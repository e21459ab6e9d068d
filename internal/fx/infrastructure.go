package fx

import (
	"context"

	"Nestegg/config"
	"Nestegg/internal/infrastructure"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

var InfrastructureModule = fx.Module("infrastructure",
	fx.Provide(
		newDatabase,
		newDependentRepository,
		newGoalRepository,
		newNotifier,
	),
)

func newDatabase(cfg *config.Config) (*gorm.DB, error) {
	return infrastructure.NewDb(cfg)
}

func newDependentRepository(db *gorm.DB) *infrastructure.DependentRepository {
	return &infrastructure.DependentRepository{DB: db}
}

func newGoalRepository(db *gorm.DB) *infrastructure.GoalRepository {
	return &infrastructure.GoalRepository{DB: db}
}

func newNotifier(lc fx.Lifecycle, cfg *config.Config) (*infrastructure.AmqpNotifier, error) {
	notifier, err := infrastructure.NewAmqpNotifier(cfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return notifier.Close()
		},
	})

	return notifier, nil
}
