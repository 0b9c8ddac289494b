package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"revivatech-backend/internal/config"
	"revivatech-backend/internal/domain"
	"revivatech-backend/internal/jobs"
	"revivatech-backend/internal/logger"
	"revivatech-backend/internal/notify"
	"revivatech-backend/internal/realtime"
	"revivatech-backend/internal/repository/postgres"
	"revivatech-backend/internal/scheduler"
	"revivatech-backend/internal/utils"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'process-due-notifications', 'report-dead-letters')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting RevivaTech Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
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

	// The standalone runner drains the external-channel queue only; in-app
	// delivery belongs to the server process that owns the live connections.
	senders := map[domain.NotificationChannel]notify.ExternalSender{}
	if cfg.Email.APIKey != "" {
		senders[domain.NotificationChannelEmail] = notify.NewSendGridSender(
			cfg.Email.APIKey, cfg.Email.From, cfg.Email.FromName)
	}

	schedule := notify.NewRetrySchedule(clock, cfg.Dispatcher.MaxAttempts,
		cfg.Dispatcher.BaseBackoff, cfg.Dispatcher.MaxBackoff)
	pool := notify.NewWorkerPool(store.NotificationRepository, store.BookingRepository,
		senders, schedule, clock, cfg.Dispatcher.Workers, int32(cfg.Dispatcher.DueBatchSize))

	hub := realtime.NewHub(clock, cfg.Realtime.MailboxSize,
		cfg.Realtime.HeartbeatInterval, cfg.Realtime.MaxMissedHeartbeats)

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(pool, hub, store.NotificationRepository, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "process-due-notifications":
		jobRunner.ProcessDueNotifications()
	case "report-dead-letters":
		jobRunner.ReportDeadLetters()
	case "sweep-dead-connections":
		jobRunner.SweepDeadConnections()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - process-due-notifications\n")
		fmt.Printf("  - report-dead-letters\n")
		fmt.Printf("  - sweep-dead-connections\n")
		os.Exit(1)
	}
}
