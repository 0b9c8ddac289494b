package realtime

import "time"

// ReconnectPolicy is the client-side reconnection contract: exponential
// backoff with a capped delay and a bounded attempt count, after which the
// client must re-subscribe explicitly. Missed events are not replayed.
type ReconnectPolicy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

// Delay returns the wait before the given attempt (1-based). The second
// return is false once the attempt budget is exhausted.
func (p ReconnectPolicy) Delay(attempt int) (time.Duration, bool) {
	if attempt < 1 || attempt > p.MaxAttempts {
		return 0, false
	}
	d := p.BaseDelay << (attempt - 1)
	if d > p.MaxDelay || d < p.BaseDelay {
		// The shift overflows for large attempts; clamp either way.
		d = p.MaxDelay
	}
	return d, true
}
