package bootstrap

import (
	"context"
	"fmt"

	"stockfolio-backend/internal/application/ledger"
	"stockfolio-backend/internal/application/pricing"
	"stockfolio-backend/internal/config"
	"stockfolio-backend/internal/infrastructure/database"
	"stockfolio-backend/internal/infrastructure/lock"
	"stockfolio-backend/internal/interfaces/router"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Connect opens the database and optional Redis, migrates, and wires the
// price oracle and the ledger. With Redis configured the portfolio lock is
// shared across instances.
func Connect(ctx context.Context, cfg *config.Config) (*router.Deps, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("database open: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("database migrate: %w", err)
	}

	var rdb *redis.Client
	var locker lock.Locker = lock.NewLocalLocker(cfg.Lock.Wait)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
		rdb = redis.NewClient(opt)
		locker = lock.NewRedisLocker(rdb, cfg.Lock.Wait, cfg.Lock.TTL)
	}

	oracle, err := pricing.NewOracle(pricing.Options{
		Source:          cfg.Price.Source,
		Jitter:          cfg.Price.Jitter,
		StaticPrices:    cfg.Price.Static,
		AlpacaAPIKey:    cfg.Price.AlpacaAPIKey,
		AlpacaAPISecret: cfg.Price.AlpacaAPISecret,
		AlpacaDataURL:   cfg.Price.AlpacaDataURL,
	})
	if err != nil {
		return nil, err
	}

	svc := ledger.NewService(db, oracle, locker)
	if cfg.SeedData {
		p, created, err := svc.Seed(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
		if created {
			log.Info().Str("portfolio_id", p.PortfolioID.String()).Msg("Seed portfolio created")
		}
	}

	return &router.Deps{DB: db, Redis: rdb, Oracle: oracle, Ledger: svc}, nil
}

// New creates the Fiber app for Vercel serverless (api handler imports this package, not internal).
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	deps, err := Connect(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return router.CreateApp(cfg, deps), nil
}
