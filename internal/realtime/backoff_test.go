package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconnectPolicy_ExponentialDelays(t *testing.T) {
	policy := ReconnectPolicy{
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		MaxAttempts: 10,
	}

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second, // capped
		30 * time.Second,
	}
	for i, expected := range want {
		d, ok := policy.Delay(i + 1)
		require.True(t, ok, "attempt %d within budget", i+1)
		assert.Equal(t, expected, d, "attempt %d", i+1)
	}
}

func TestReconnectPolicy_AttemptBudget(t *testing.T) {
	policy := ReconnectPolicy{
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		MaxAttempts: 3,
	}

	_, ok := policy.Delay(3)
	assert.True(t, ok)

	_, ok = policy.Delay(4)
	assert.False(t, ok, "budget exhausted")

	_, ok = policy.Delay(0)
	assert.False(t, ok, "attempts are 1-based")
}

func TestReconnectPolicy_ShiftOverflowClampsToMax(t *testing.T) {
	policy := ReconnectPolicy{
		BaseDelay:   time.Second,
		MaxDelay:    time.Minute,
		MaxAttempts: 100,
	}

	d, ok := policy.Delay(70) // shift would overflow int64
	require.True(t, ok)
	assert.Equal(t, time.Minute, d)
}
