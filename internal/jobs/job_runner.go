package jobs

import (
	"revivatech-backend/internal/config"
	"revivatech-backend/internal/logger"
	"revivatech-backend/internal/notify"
	"revivatech-backend/internal/realtime"
	"revivatech-backend/internal/repository"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	pool    *notify.WorkerPool
	hub     *realtime.Hub
	records repository.NotificationRepository
	config  *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(pool *notify.WorkerPool, hub *realtime.Hub, records repository.NotificationRepository, cfg *config.Config) *JobRunner {
	return &JobRunner{
		pool:    pool,
		hub:     hub,
		records: records,
		config:  cfg,
	}
}

// Config exposes the loaded configuration to the scheduler.
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Debug("Starting job", "job", jobName)
	jobFunc()
	logger.Debug("Job completed", "job", jobName)
}
