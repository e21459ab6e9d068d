package fx

import (
	"time"

	"Nestegg/internal/domain/dependent"
	"Nestegg/internal/domain/goal"
	"Nestegg/internal/middleware"
	"Nestegg/internal/routes"

	"go.uber.org/fx"
)

var RoutesModule = fx.Module("routes",
	fx.Provide(
		newHandler,
		newRateLimiter,
	),
)

func newHandler(
	dependentSvc *dependent.Service,
	goalSvc *goal.Service,
) *routes.Handler {
	return &routes.Handler{
		DependentService: *dependentSvc,
		GoalService:      *goalSvc,
	}
}

func newRateLimiter() *middleware.RateLimiter {
	return middleware.NewRateLimiter(100, time.Minute)
}
