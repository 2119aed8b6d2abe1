package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finsight/internal/amqp"
	"finsight/internal/config"
	applog "finsight/internal/log"
	"finsight/internal/services"
	"finsight/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentNotifier,
	})
	applog.SetDefault(logger)

	logger.Info("Starting notify-worker")

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
			logger.Warn("Failed to initialize AMQP client, continuing without alerts", "error", err)
		} else {
			defer amqpClient.Close()
			alerts = amqpClient
			logger.Info("AMQP client initialized - alerts will be delivered via alert-worker")
		}
	} else {
		logger.Info("AMQP disabled - notifications will be persisted without alerts")
	}

	notifier := services.NewNotifier(repo, alerts, cfg.DedupWindow)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Bill notification scheduler configured",
		"interval", cfg.NotifyInterval,
		"dedup_window", cfg.DedupWindow,
		"sqlite_db", cfg.SQLiteDBPath)

	// Setup periodic check ticker
	ticker := time.NewTicker(cfg.NotifyInterval)
	defer ticker.Stop()

	// Run initial check on startup
	logger.Info("Running initial bill notification check...")
	checkAllUsers(ctx, repo, notifier, time.Now())

	// Start periodic checks
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				logger.Info("Checking bills for due notifications...")
				checkAllUsers(ctx, repo, notifier, now)
			}
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down notify-worker...")
	cancel()
	logger.Info("Notify-worker shutdown complete")
}

func checkAllUsers(ctx context.Context, repo *storage.SQLiteRepository, notifier *services.Notifier, now time.Time) {
	userIDs, err := repo.ListUserIDsWithUnpaidBills(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list users for notification check", "error", err)
		return
	}

	total := 0
	for _, userID := range userIDs {
		bills, err := repo.ListUnpaidBills(ctx, userID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load bills", "user_id", userID, "error", err)
			continue
		}
		created, err := notifier.CheckAll(ctx, userID, bills, now)
		if err != nil {
			slog.ErrorContext(ctx, "Notification check failed", "user_id", userID, "error", err)
			continue
		}
		total += created
	}

	slog.InfoContext(ctx, "Notification check pass complete",
		"users", len(userIDs),
		"notifications_created", total)
}
