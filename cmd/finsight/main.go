package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"finsight/internal/amqp"
	"finsight/internal/config"
	apphttp "finsight/internal/http"
	applog "finsight/internal/log"
	"finsight/internal/report"
	gsheet "finsight/internal/report/google"
	mem "finsight/internal/report/memory"
	"finsight/internal/services"
	"finsight/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)

	logger.Info("Starting finsight server")

	// Load configuration
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Initialize SQLite repository
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Initialize AMQP client for publishing bill alerts (optional)
	var alerts services.AlertPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, alerts disabled", "error", err)
		} else {
			defer amqpClient.Close()
			alerts = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - bill alerts will not be published")
	}

	notifier := services.NewNotifier(repo, alerts, cfg.DedupWindow)

	// Choose report export backend (default: memory)
	var reports report.Writer
	switch cfg.ReportBackend {
	case "sheets":
		cli, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err, "backend", cfg.ReportBackend)
			os.Exit(1)
		}
		reports = cli
		logger.Info("Initialized Google Sheets report backend", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	default:
		reports = mem.New()
		logger.Info("Initialized memory report backend")
	}

	srv := apphttp.NewServer(":"+cfg.Port, repo, repo, repo, notifier, reports, apphttp.Options{
		RecentWindow: cfg.RecentWindow,
		ForecastDays: cfg.ForecastDays,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Periodic notification check for all users with unpaid bills. Dedup in
	// the notifier keeps this idempotent alongside login-triggered checks.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.NotifyInterval)
		defer ticker.Stop()

		runChecks(ctx, repo, notifier)
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				runChecks(ctx, repo, notifier)
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func runChecks(ctx context.Context, repo *storage.SQLiteRepository, notifier *services.Notifier) {
	userIDs, err := repo.ListUserIDsWithUnpaidBills(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list users for notification check", "error", err)
		return
	}

	now := time.Now()
	for _, userID := range userIDs {
		bills, err := repo.ListUnpaidBills(ctx, userID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load bills", "user_id", userID, "error", err)
			continue
		}
		if _, err := notifier.CheckAll(ctx, userID, bills, now); err != nil {
			slog.ErrorContext(ctx, "Notification check failed", "user_id", userID, "error", err)
		}
	}
}
