package routes

import (
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/config"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	roles *services.RoleService,
	healthHandler *handlers.HealthHandler,
	adminHandler *handlers.AdminHandler,
) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	if cfg.OpsJWTSecret == "" {
		slog.Warn("OPS_JWT_SECRET not set, admin API disabled")
		return
	}

	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(roles))
	admin.Get("/stats", adminHandler.Stats)
	admin.Get("/backups", adminHandler.ListBackups)
	admin.Post("/backups", adminHandler.CreateBackup)
}
