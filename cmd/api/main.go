// Command api is the PetTrack API server. Besides HTTP it runs the pet change
// listener, the movement engine, the chip fix consumer and maintenance
// tickers.
//
// Usage:
//
//	pettrack-api
//	API_PORT=8080 pettrack-api

// @title PetTrack API
// @version 1.0.0
// @description Pet registry, location reporting, movement notifications inbox and tracking-chip shop.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name PetTrack
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mihuella/pettrack/internal/api"
	"github.com/mihuella/pettrack/internal/api/handler"
	"github.com/mihuella/pettrack/internal/cache"
	"github.com/mihuella/pettrack/internal/chip"
	"github.com/mihuella/pettrack/internal/config"
	"github.com/mihuella/pettrack/internal/db"
	"github.com/mihuella/pettrack/internal/ingest"
	"github.com/mihuella/pettrack/internal/listener"
	"github.com/mihuella/pettrack/internal/maintenance"
	"github.com/mihuella/pettrack/internal/notifications"
	"github.com/mihuella/pettrack/internal/pets"

	_ "github.com/mihuella/pettrack/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Schema first: prepared statements reference its tables.
	if err := db.EnsureSchema(ctx, cfg.DatabaseURL); err != nil {
		logger.Error("Failed to apply schema", "error", err)
		os.Exit(1)
	}

	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Stores
	petStore := pets.NewStore(pool.Pool)
	inbox := notifications.NewStore(pool.Pool)
	shop := chip.NewStore(pool.Pool)

	// Contact cache in front of the push token lookup
	contactCache := cache.New[notifications.Contact](cfg.CacheEnabled)
	defer contactCache.Close()
	contacts := notifications.NewCachedContacts(inbox, contactCache, cfg.PushTokenTTL)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Notification sinks and movement engine
	alerter := notifications.AlerterFromConfig(cfg, contacts, inbox, logger)
	dispatcher := notifications.NewDispatcher(alerter, inbox, logger)
	engine := notifications.NewEngine(petStore, dispatcher, notifications.EngineConfig{
		Tracker: notifications.TrackerConfigFrom(cfg),
	}, logger)
	defer engine.Close()

	if err := engine.Prime(ctx, petStore); err != nil {
		logger.Warn("Movement engine prime incomplete, affected owners baseline on their next refresh", "error", err)
	}

	// LISTEN/NOTIFY consumer for pet changes
	go listener.Start(ctx, cfg.DatabaseURL, engine, logger)

	// Chip fix consumer (if Kafka is configured)
	if len(cfg.KafkaBrokers) > 0 {
		consumer := ingest.NewConsumer(ingest.ConsumerConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			GroupID: cfg.KafkaGroupID,
		}, petStore, logger)
		defer consumer.Close()
		go consumer.Run(ctx)
		logger.Info("Chip fix consumer started", "topic", cfg.KafkaTopic)
	} else {
		logger.Info("Chip fix consumer disabled (no KAFKA_BROKERS)")
	}

	// Maintenance tickers (cleanup, catch-up sweep)
	go maintenance.Start(ctx, pool.Pool, engine, maintenance.Config{
		CleanupInterval:       cfg.CleanupInterval,
		CatchUpInterval:       cfg.CatchUpInterval,
		NotificationRetention: time.Duration(cfg.NotificationRetentionDays) * 24 * time.Hour,
		HistoryRetention:      time.Duration(cfg.HistoryRetentionDays) * 24 * time.Hour,
	}, logger)

	// Create router
	router := api.NewRouter(handler.Deps{
		Pets:     petStore,
		Inbox:    inbox,
		Contacts: contacts,
		Chip:     shop,
		DB:       pool,
		Cache:    contactCache,
	}, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting PetTrack API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
