package jobs

import (
	"context"

	"revivatech-backend/internal/logger"
)

// ProcessDueNotifications drains one batch of due notification records
// through the dispatcher's worker pool.
func (jr *JobRunner) ProcessDueNotifications() {
	jr.runWithRecovery("ProcessDueNotifications", func() {
		ctx := context.Background()

		processed, err := jr.pool.ProcessDue(ctx)
		if err != nil {
			logger.Error("Failed to process due notifications", "error", err)
			return
		}
		if processed > 0 {
			logger.Info("Processed due notifications", "count", processed)
		}
	})
}

// ReportDeadLetters surfaces dead-lettered notifications in the operator
// log. They are never retried; this is the daily visibility pass.
func (jr *JobRunner) ReportDeadLetters() {
	jr.runWithRecovery("ReportDeadLetters", func() {
		ctx := context.Background()

		dead, err := jr.records.ListDeadLettered(ctx, 100)
		if err != nil {
			logger.Error("Failed to list dead-lettered notifications", "error", err)
			return
		}
		if len(dead) == 0 {
			return
		}

		for _, rec := range dead {
			logger.Warn("Dead-lettered notification",
				"notification_id", rec.ID,
				"booking_id", rec.BookingID,
				"channel", rec.Channel,
				"attempts", rec.Attempts,
				"last_update", rec.UpdatedOn)
		}
		logger.Error("Dead-lettered notifications require operator attention", "count", len(dead))
	})
}
