package booking

import "revivatech-backend/internal/domain"

// lifecycleOrder is the fixed forward-only path of a repair order. CANCELLED
// sits outside the path and is reachable from any non-terminal state.
var lifecycleOrder = []domain.BookingStatus{
	domain.BookingStatusPending,
	domain.BookingStatusConfirmed,
	domain.BookingStatusDeviceReceived,
	domain.BookingStatusDiagnosis,
	domain.BookingStatusDiagnosisComplete,
	domain.BookingStatusQuotePending,
	domain.BookingStatusQuoteApproved,
	domain.BookingStatusRepairQueued,
	domain.BookingStatusRepairStarted,
	domain.BookingStatusRepairProgress,
	domain.BookingStatusRepairComplete,
	domain.BookingStatusTesting,
	domain.BookingStatusReadyPickup,
	domain.BookingStatusCompleted,
}

var statusPosition = buildPositions()

func buildPositions() map[domain.BookingStatus]int {
	m := make(map[domain.BookingStatus]int, len(lifecycleOrder))
	for i, s := range lifecycleOrder {
		m[s] = i
	}
	return m
}

// KnownStatus reports whether s names a status in the lifecycle graph.
func KnownStatus(s domain.BookingStatus) bool {
	if s == domain.BookingStatusCancelled {
		return true
	}
	_, ok := statusPosition[s]
	return ok
}

// CanTransition reports whether to is a legal successor of from. Legal moves
// are the single forward step, or CANCELLED from any non-terminal state. No
// state is re-enterable.
func CanTransition(from, to domain.BookingStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if to == domain.BookingStatusCancelled {
		return true
	}
	fromPos, ok := statusPosition[from]
	if !ok {
		return false
	}
	toPos, ok := statusPosition[to]
	if !ok {
		return false
	}
	return toPos == fromPos+1
}

// Progress derives the completion percentage from the status position in the
// fixed ordering. It is never stored. CANCELLED reports 100.
func Progress(s domain.BookingStatus) int {
	if s == domain.BookingStatusCancelled {
		return 100
	}
	pos, ok := statusPosition[s]
	if !ok {
		return 0
	}
	return pos * 100 / (len(lifecycleOrder) - 1)
}
