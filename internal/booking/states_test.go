package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"revivatech-backend/internal/domain"
)

func TestCanTransition_ForwardEdges(t *testing.T) {
	for i := 0; i < len(lifecycleOrder)-1; i++ {
		assert.True(t, CanTransition(lifecycleOrder[i], lifecycleOrder[i+1]),
			"%s -> %s should be legal", lifecycleOrder[i], lifecycleOrder[i+1])
	}
}

func TestCanTransition_SkipsRejected(t *testing.T) {
	tests := []struct {
		from domain.BookingStatus
		to   domain.BookingStatus
	}{
		{domain.BookingStatusPending, domain.BookingStatusRepairStarted},
		{domain.BookingStatusConfirmed, domain.BookingStatusCompleted},
		{domain.BookingStatusDiagnosis, domain.BookingStatusQuoteApproved},
		{domain.BookingStatusReadyPickup, domain.BookingStatusPending},
	}
	for _, tt := range tests {
		assert.False(t, CanTransition(tt.from, tt.to), "%s -> %s should be illegal", tt.from, tt.to)
	}
}

func TestCanTransition_NoReentry(t *testing.T) {
	for _, s := range lifecycleOrder {
		assert.False(t, CanTransition(s, s), "%s must not re-enter itself", s)
	}
	// Backward steps are never legal.
	assert.False(t, CanTransition(domain.BookingStatusTesting, domain.BookingStatusRepairComplete))
}

func TestCanTransition_Cancellation(t *testing.T) {
	for _, s := range lifecycleOrder {
		if s == domain.BookingStatusCompleted {
			continue
		}
		assert.True(t, CanTransition(s, domain.BookingStatusCancelled),
			"%s -> CANCELLED should be legal", s)
	}

	// Terminal states stay terminal.
	assert.False(t, CanTransition(domain.BookingStatusCompleted, domain.BookingStatusCancelled))
	assert.False(t, CanTransition(domain.BookingStatusCancelled, domain.BookingStatusPending))
	assert.False(t, CanTransition(domain.BookingStatusCancelled, domain.BookingStatusCancelled))
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0, Progress(domain.BookingStatusPending))
	assert.Equal(t, 100, Progress(domain.BookingStatusCompleted))
	assert.Equal(t, 100, Progress(domain.BookingStatusCancelled))

	// Strictly increasing along the forward path.
	prev := -1
	for _, s := range lifecycleOrder {
		p := Progress(s)
		assert.Greater(t, p, prev, "progress must increase at %s", s)
		prev = p
	}
}
