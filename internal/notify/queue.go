package notify

import (
	"time"

	"revivatech-backend/internal/utils"
)

// RetrySchedule decides when a failed delivery runs next and when it gives
// up. Records carry their own next-attempt timestamp; the schedule only
// computes, it never sleeps.
type RetrySchedule struct {
	clock       utils.Clock
	maxAttempts int
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

func NewRetrySchedule(clock utils.Clock, maxAttempts int, baseBackoff, maxBackoff time.Duration) *RetrySchedule {
	return &RetrySchedule{
		clock:       clock,
		maxAttempts: maxAttempts,
		baseBackoff: baseBackoff,
		maxBackoff:  maxBackoff,
	}
}

// NextAttempt returns when a record that has failed the given number of
// attempts should run again. Backoff doubles per attempt up to the cap.
func (s *RetrySchedule) NextAttempt(attempts int) time.Time {
	if attempts < 1 {
		attempts = 1
	}
	backoff := s.baseBackoff << (attempts - 1)
	if backoff > s.maxBackoff || backoff < s.baseBackoff {
		backoff = s.maxBackoff
	}
	return s.clock.Now().Add(backoff)
}

// Exhausted reports whether the attempt budget is spent.
func (s *RetrySchedule) Exhausted(attempts int) bool {
	return attempts >= s.maxAttempts
}
