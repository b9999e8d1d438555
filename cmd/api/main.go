package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockfolio-backend/bootstrap"
	"stockfolio-backend/internal/config"
	"stockfolio-backend/internal/infrastructure/database"
	"stockfolio-backend/internal/interfaces/router"
	"stockfolio-backend/internal/jobs"
	"stockfolio-backend/internal/pkg/logging"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	logging.Setup(cfg.LogLevel, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.Connect(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("startup")
	}

	// Verify connections before serving
	if err := database.Ping(deps.DB); err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	log.Info().Msg("Database connected")
	if deps.Redis != nil {
		if err := deps.Redis.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("Redis connection failed")
		}
		log.Info().Msg("Redis connected")
	}

	if cfg.RevalueInterval > 0 {
		go jobs.NewRevalueJob(cfg.RevalueInterval, deps.Ledger).Start(ctx)
		log.Info().Dur("interval", cfg.RevalueInterval).Msg("Revaluation job started")
	}

	app := router.CreateApp(cfg, deps)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("env", cfg.Env).
		Str("price_source", cfg.Price.Source).
		Msgf("Server running at http://localhost:%s (health: /health/json)", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}

	if deps.Redis != nil {
		_ = deps.Redis.Close()
	}
	if sqlDB, err := deps.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("Server stopped")
}
