package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/bot"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/config"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/database"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/logging"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/services"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/session"
	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot poller and the ops HTTP server",
	RunE:  runServe,
}

func newServices(db *gorm.DB, cfg *config.Config, transport *bot.Transport) bot.Services {
	settings := services.NewSettingsService(db)
	users := services.NewUserService(db, cfg, transport)
	roles := services.NewRoleService(db, cfg, users)
	return bot.Services{
		Users:     users,
		Roles:     roles,
		Settings:  settings,
		Links:     services.NewLinkService(db, cfg, settings, users, roles),
		Reports:   services.NewReportService(db, cfg, settings, users, roles, transport),
		Channels:  services.NewChannelService(db),
		Gate:      services.NewGateService(db, transport),
		Broadcast: services.NewBroadcastService(db, cfg, transport),
		Backups:   services.NewBackupService(db, cfg),
		Stats:     services.NewStatsService(db),
		Logs:      services.NewLogService(db),
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Structured logging (JSON to stdout) until the database is up
	logging.Setup(cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			slog.Error("database close error", "error", err)
		}
	}()
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// stdout + rotating file + system_logs (WARN+ async batch)
	fileWriter, err := logging.NewFileWriter(cfg.LogsDir)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer fileWriter.Close()
	level := logging.ParseLevel(cfg.LogLevel)
	dbLogHandler := logging.NewDBHandler(db)
	defer dbLogHandler.Stop()
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
		slog.NewJSONHandler(fileWriter, &slog.HandlerOptions{Level: level}),
		dbLogHandler,
	)))

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tb, err := bot.NewTelegram(cfg)
	if err != nil {
		return fmt.Errorf("telegram client: %w", err)
	}
	transport := bot.NewTransport(tb)
	svc := newServices(db, cfg, transport)
	if err := svc.Roles.SeedFromConfig(ctx); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	sessions := session.NewStore(cfg.SessionTTL)
	sessions.StartJanitor(time.Minute, done)
	logging.StartCleanup(db, done)

	b := bot.New(tb, cfg, svc, sessions, transport)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.Run(gctx)
	})
	if cfg.OpsPort != "" {
		app := newOpsApp(cfg, db, svc)
		g.Go(func() error {
			slog.Info("ops server starting", "port", cfg.OpsPort)
			if err := app.Listen(":" + cfg.OpsPort); err != nil {
				return fmt.Errorf("ops server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return app.ShutdownWithContext(shutdownCtx)
		})
	}

	err = g.Wait()
	slog.Info("linkbot stopped")
	return err
}
