package jobs

import (
	"revivatech-backend/internal/logger"
)

// SweepDeadConnections removes realtime connections that have gone quiet
// past the missed-heartbeat limit.
func (jr *JobRunner) SweepDeadConnections() {
	jr.runWithRecovery("SweepDeadConnections", func() {
		removed := jr.hub.SweepDead()
		if len(removed) > 0 {
			logger.Info("Swept dead realtime connections",
				"count", len(removed), "remaining", jr.hub.ConnCount())
		}
	})
}
