package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Nestegg/config"
	"Nestegg/internal/domain/goal"
	"Nestegg/internal/infrastructure"
	"Nestegg/internal/logger"

	"github.com/joho/godotenv"
)

// The worker fails challenges whose deadline passed without the goal
// reaching the challenge target. It runs beside the API so expiry does
// not depend on request traffic.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logger.Init(cfg)

	logger.Info().
		Dur("interval", cfg.Worker.ChallengeSweepInterval).
		Msg("Challenge sweep worker starting")

	db, err := infrastructure.NewDb(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	repo := &infrastructure.GoalRepository{DB: db}
	svc := goal.NewService(repo, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticker := time.NewTicker(cfg.Worker.ChallengeSweepInterval)
	defer ticker.Stop()

	sweep := func() {
		count, err := svc.ExpireOverdueChallenges(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Challenge sweep failed")
			return
		}
		if count > 0 {
			logger.Info().Int("expired", count).Msg("Challenge sweep complete")
		}
	}

	// Sweep once on startup so a long downtime is caught up immediately.
	sweep()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweep()
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	cancel()

	logger.Info().Msg("Challenge sweep worker stopped")
}
