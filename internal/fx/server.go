package fx

import (
	"context"

	"Nestegg/config"
	"Nestegg/internal/logger"
	"Nestegg/internal/middleware"
	"Nestegg/internal/routes"

	docs "Nestegg/docs"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"go.uber.org/fx"
)

var ServerModule = fx.Module("server",
	fx.Provide(
		newRouter,
	),
	fx.Invoke(
		setupRoutes,
	),
)

func newRouter() *gin.Engine {
	return gin.Default()
}

func setupRoutes(
	lc fx.Lifecycle,
	cfg *config.Config,
	router *gin.Engine,
	handler *routes.Handler,
	rateLimiter *middleware.RateLimiter,
) {
	router.Use(middleware.CORSMiddleware())

	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	api.Use(middleware.RateLimit(rateLimiter))
	api.Use(middleware.ActorMiddleware())
	api.Use(middleware.RateLimitByActor())
	{
		dependents := api.Group("/dependents")
		{
			dependents.POST("", handler.CreateDependent)
			dependents.GET("", handler.ListDependents)
			dependents.GET("/:id", handler.GetDependent)
			dependents.PATCH("/:id", handler.RenameDependent)
			dependents.DELETE("/:id", handler.DeleteDependent)
			dependents.POST("/:id/allowance", handler.CreditAllowance)
		}

		goals := api.Group("/goals")
		{
			goals.POST("", handler.CreateGoal)
			goals.GET("", handler.ListGoals)
			goals.GET("/:id", handler.GetGoal)
			goals.PATCH("/:id", handler.UpdateGoal)
			goals.DELETE("/:id", handler.DeleteGoal)

			goals.POST("/:id/pause", handler.PauseGoal)
			goals.POST("/:id/resume", handler.ResumeGoal)
			goals.POST("/:id/purchase", handler.MarkGoalPurchased)
			goals.POST("/:id/cancel", handler.CancelGoal)

			goals.POST("/:id/contributions", handler.ContributeToGoal)
			goals.GET("/:id/contributions", handler.GetGoalContributions)
			goals.POST("/:id/withdraw", handler.WithdrawFromGoal)
			goals.GET("/:id/progress", handler.GetGoalProgress)

			goals.GET("/:id/milestones", handler.GetGoalMilestones)
			goals.PATCH("/:id/milestones", handler.SetMilestoneBonus)

			goals.POST("/:id/matching-rule", handler.CreateMatchingRule)
			goals.GET("/:id/matching-rule", handler.GetMatchingRule)
			goals.PATCH("/:id/matching-rule", handler.UpdateMatchingRule)
			goals.DELETE("/:id/matching-rule", handler.DeactivateMatchingRule)

			goals.POST("/:id/challenges", handler.CreateChallenge)
			goals.GET("/:id/challenges", handler.ListChallenges)
		}

		challenges := api.Group("/challenges")
		{
			challenges.POST("/:challenge_id/cancel", handler.CancelChallenge)
		}
	}

	serverAddr := ":" + cfg.Server.Port
	logger.Info().
		Str("address", serverAddr).
		Str("environment", cfg.App.Environment).
		Msg("Server starting")

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := router.Run(serverAddr); err != nil {
					logger.Fatal().Err(err).Msg("Failed to start server")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("Server stopping...")
			return nil
		},
	})
}
