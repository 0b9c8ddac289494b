package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revivatech-backend/internal/domain"
)

func mustWindow(t *testing.T, start, end, tz string) *quietWindow {
	t.Helper()
	w, err := newQuietWindow(&domain.NotificationPreference{
		UserID:     "u",
		QuietStart: start,
		QuietEnd:   end,
		Timezone:   tz,
	})
	require.NoError(t, err)
	require.NotNil(t, w)
	return w
}

func TestQuietWindow_CrossesMidnight(t *testing.T) {
	w := mustWindow(t, "22:00", "08:00", "UTC")

	assert.True(t, w.contains(time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)))
	assert.True(t, w.contains(time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC)))
	assert.False(t, w.contains(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)))
	assert.False(t, w.contains(time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)), "window end is exclusive")
}

func TestQuietWindow_SameDay(t *testing.T) {
	w := mustWindow(t, "13:00", "14:00", "UTC")

	assert.True(t, w.contains(time.Date(2026, 3, 10, 13, 30, 0, 0, time.UTC)))
	assert.False(t, w.contains(time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)))
}

func TestQuietWindow_NextAllowed(t *testing.T) {
	w := mustWindow(t, "22:00", "08:00", "UTC")

	// Before midnight the window ends tomorrow morning.
	got := w.nextAllowed(time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC), got.UTC())

	// After midnight it ends the same morning.
	got = w.nextAllowed(time.Date(2026, 3, 11, 6, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC), got.UTC())

	// Outside the window the instant passes through unchanged.
	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, day, w.nextAllowed(day))
}

func TestQuietWindow_RespectsTimezone(t *testing.T) {
	w := mustWindow(t, "22:00", "08:00", "Europe/London")

	// 23:00 London in March (GMT) is 23:00 UTC.
	assert.True(t, w.contains(time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)))
	// Mid-afternoon London is outside.
	assert.False(t, w.contains(time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)))
}

func TestQuietWindow_AbsentConfigMeansNoWindow(t *testing.T) {
	w, err := newQuietWindow(&domain.NotificationPreference{UserID: "u"})
	require.NoError(t, err)
	assert.Nil(t, w)
	assert.False(t, w.contains(time.Now()))
}

func TestQuietWindow_MalformedTimesRejected(t *testing.T) {
	_, err := newQuietWindow(&domain.NotificationPreference{
		UserID:     "u",
		QuietStart: "25:99",
		QuietEnd:   "08:00",
	})
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}
