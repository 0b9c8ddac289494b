package notify

import (
	"time"

	"revivatech-backend/internal/domain"
)

// quietWindow evaluates a recipient's quiet-hours window. The window is
// expressed as local wall-clock times and may cross midnight.
type quietWindow struct {
	start time.Duration // offset from local midnight
	end   time.Duration
	loc   *time.Location
}

func newQuietWindow(pref *domain.NotificationPreference) (*quietWindow, error) {
	if pref.QuietStart == "" || pref.QuietEnd == "" {
		return nil, nil
	}

	start, err := parseWallClock(pref.QuietStart)
	if err != nil {
		return nil, &domain.ValidationError{Field: "quiet_start", Reason: err.Error()}
	}
	end, err := parseWallClock(pref.QuietEnd)
	if err != nil {
		return nil, &domain.ValidationError{Field: "quiet_end", Reason: err.Error()}
	}

	loc := time.UTC
	if pref.Timezone != "" {
		loc, err = time.LoadLocation(pref.Timezone)
		if err != nil {
			return nil, &domain.ValidationError{Field: "timezone", Reason: err.Error()}
		}
	}

	return &quietWindow{start: start, end: end, loc: loc}, nil
}

func parseWallClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// contains reports whether the instant falls inside the quiet window.
func (w *quietWindow) contains(at time.Time) bool {
	if w == nil {
		return false
	}
	local := at.In(w.loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, w.loc)
	offset := local.Sub(midnight)

	if w.start <= w.end {
		return offset >= w.start && offset < w.end
	}
	// Window crosses midnight, e.g. 22:00 to 08:00.
	return offset >= w.start || offset < w.end
}

// nextAllowed returns the earliest instant at or after the given time that
// falls outside the quiet window.
func (w *quietWindow) nextAllowed(at time.Time) time.Time {
	if !w.contains(at) {
		return at
	}
	local := at.In(w.loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, w.loc)
	offset := local.Sub(midnight)

	end := midnight.Add(w.end)
	if w.start > w.end && offset >= w.start {
		// Inside the pre-midnight leg; the window ends tomorrow morning.
		end = end.Add(24 * time.Hour)
	}
	return end
}
