package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"

	_ "github.com/lib/pq"

	httpapi "revivatech-backend/internal/api/http"
	"revivatech-backend/internal/booking"
	"revivatech-backend/internal/config"
	"revivatech-backend/internal/domain"
	"revivatech-backend/internal/jobs"
	"revivatech-backend/internal/logger"
	"revivatech-backend/internal/notify"
	"revivatech-backend/internal/pricing"
	"revivatech-backend/internal/realtime"
	"revivatech-backend/internal/repository/postgres"
	"revivatech-backend/internal/scheduler"
	"revivatech-backend/internal/security"
	"revivatech-backend/internal/utils"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting RevivaTech Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	clock := utils.SystemClock{}

	// Initialize Pricing Engine
	ruleSet, err := pricing.LoadRuleSet(cfg.Pricing.RulesFile)
	if err != nil {
		logger.Error("Failed to load pricing rules", "error", err, "path", cfg.Pricing.RulesFile)
		log.Fatalf("Failed to load pricing rules: %v", err)
	}
	engine := pricing.NewEngine(ruleSet, cfg.Pricing.MinMultiplier, cfg.Pricing.MaxMultiplier)
	logger.Info("Pricing rules loaded", "path", cfg.Pricing.RulesFile, "rules", len(ruleSet.Rules()))

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, "revivatech-backend")

	// Initialize Realtime Hub
	hub := realtime.NewHub(clock, cfg.Realtime.MailboxSize,
		cfg.Realtime.HeartbeatInterval, cfg.Realtime.MaxMissedHeartbeats)
	wsHandler := realtime.NewWSHandler(hub, tokenManager, cfg.Realtime.HeartbeatInterval)

	// Initialize Notification Dispatcher
	schedule := notify.NewRetrySchedule(clock, cfg.Dispatcher.MaxAttempts,
		cfg.Dispatcher.BaseBackoff, cfg.Dispatcher.MaxBackoff)
	dispatcher := notify.NewDispatcher(hub, store.NotificationRepository, store.PreferenceRepository, clock)

	senders := map[domain.NotificationChannel]notify.ExternalSender{}
	if cfg.Email.APIKey != "" {
		senders[domain.NotificationChannelEmail] = notify.NewSendGridSender(
			cfg.Email.APIKey, cfg.Email.From, cfg.Email.FromName)
		logger.Info("Email sender configured", "from", cfg.Email.From)
	}
	if cfg.Push.CredentialsFile != "" {
		fcm, err := notify.NewFCMSender(context.Background(), cfg.Push.CredentialsFile, cfg.Push.ProjectID)
		if err != nil {
			logger.Error("Failed to initialize push sender", "error", err)
			log.Fatalf("Failed to initialize push sender: %v", err)
		}
		senders[domain.NotificationChannelPush] = fcm
		logger.Info("Push sender configured", "project_id", cfg.Push.ProjectID)
	}

	pool := notify.NewWorkerPool(store.NotificationRepository, store.BookingRepository,
		senders, schedule, clock, cfg.Dispatcher.Workers, int32(cfg.Dispatcher.DueBatchSize))

	// Initialize Booking Lifecycle Manager
	manager := booking.NewManager(store.BookingRepository, engine, clock)

	// Every accepted transition fans out to connected subscribers and to the
	// durable dispatch path.
	manager.OnStatusChanged(func(event domain.BookingStatusChanged) {
		hub.PublishEvent(event.Channel(), event)
		hub.PublishEvent(event.UserChannel(), event)
		go func() {
			if err := dispatcher.Dispatch(context.Background(), &event, []string{event.Booking.CustomerID}); err != nil {
				logger.Error("Dispatch failed", "booking_id", event.Booking.ID, "error", err)
			}
		}()
	})

	// Background jobs (retry queue, connection sweep, dead-letter report)
	jobRunner := jobs.NewJobRunner(pool, hub, store.NotificationRepository, cfg)
	cronScheduler := scheduler.NewScheduler(jobRunner)
	cronScheduler.Start()
	defer cronScheduler.Stop()

	// HTTP routes
	router := httpapi.NewRouter(httpapi.RouterDeps{
		Manager:   manager,
		Engine:    engine,
		RulesPath: cfg.Pricing.RulesFile,
		Records:   store.NotificationRepository,
		Tokens:    tokenManager,
		Clock:     clock,
		WSHandler: wsHandler,
	})

	logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
	if err := http.ListenAndServe(cfg.GetServerAddress(), router); err != nil {
		logger.Error("HTTP server error", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
}
