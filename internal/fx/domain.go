package fx

import (
	"Nestegg/internal/domain/dependent"
	"Nestegg/internal/domain/goal"
	"Nestegg/internal/infrastructure"

	"go.uber.org/fx"
)

var DomainModule = fx.Module("domain",
	fx.Provide(
		newDependentService,
		newGoalService,
	),
)

func newDependentService(repo *infrastructure.DependentRepository) *dependent.Service {
	return dependent.NewService(repo)
}

func newGoalService(
	repo *infrastructure.GoalRepository,
	notifier *infrastructure.AmqpNotifier,
) *goal.Service {
	return goal.NewService(repo, notifier)
}
