package main

import (
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/bot"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/config"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/routes"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

func newOpsApp(cfg *config.Config, db *gorm.DB, svc bot.Services) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:             1024 * 1024,
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: true,
	})

	if cfg.SentryDSN != "" {
		app.Use(sentryfiber.New(sentryfiber.Options{
			Repanic:         true,
			WaitForDelivery: false,
		}))
	}

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		return c.Next()
	})

	routes.Setup(app, cfg, svc.Roles,
		handlers.NewHealthHandler(db, cfg),
		handlers.NewAdminHandler(svc.Stats, svc.Backups),
	)
	return app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
