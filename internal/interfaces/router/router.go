package router

import (
	"net/http"

	"stockfolio-backend/internal/application/ledger"
	"stockfolio-backend/internal/application/pricing"
	"stockfolio-backend/internal/config"
	"stockfolio-backend/internal/infrastructure/database"
	healthhandler "stockfolio-backend/internal/interfaces/handlers/health"
	portfoliohandler "stockfolio-backend/internal/interfaces/handlers/portfolios"
	pricehandler "stockfolio-backend/internal/interfaces/handlers/prices"
	"stockfolio-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the connected services the app serves. Redis is optional.
type Deps struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Oracle pricing.Oracle
	Ledger *ledger.Service
}

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	return database.Ping(g.db)
}

// CreateApp builds the Fiber app with middleware and all routes.
func CreateApp(cfg *config.Config, deps *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler(deps.Redis),
		EnableTrustedProxyCheck: true,
	})

	app.Use(recover.New())
	app.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins}))
	app.Use(middleware.HealthMarker(deps.Redis))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{
		Rdb:            deps.Redis,
		PriceSource:    cfg.Price.Source,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	if deps.DB != nil {
		hh.DB = &gormDBPinger{db: deps.DB}
		hh.Quotes = ledger.NewStore(deps.DB)
	}
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	api := app.Group("/api/v1")

	ph := &portfoliohandler.Handlers{Service: deps.Ledger}
	pg := api.Group("/portfolios")
	pg.Get("/", ph.List)
	pg.Post("/", ph.Create)
	pg.Get("/:id", ph.Get)
	pg.Delete("/:id", ph.Delete)
	pg.Get("/:id/holdings", ph.Holdings)
	pg.Post("/:id/refresh", ph.Refresh)
	pg.Post("/:id/stocks", ph.Buy)
	pg.Delete("/:id/stocks/:symbol", ph.Remove)
	pg.Put("/:id/stocks/:symbol/reduce", ph.Reduce)

	prh := &pricehandler.Handlers{Oracle: deps.Oracle, Ledger: deps.Ledger}
	api.Get("/prices/:symbol", prh.Quote)
	api.Get("/prices/:symbol/last", prh.Last)

	return app
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
