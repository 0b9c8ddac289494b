package domain

import "time"

type NotificationChannel string

const (
	NotificationChannelInApp NotificationChannel = "in_app"
	NotificationChannelPush  NotificationChannel = "push"
	NotificationChannelEmail NotificationChannel = "email"
	NotificationChannelSMS   NotificationChannel = "sms"
)

type NotificationStatus string

const (
	NotificationStatusPending      NotificationStatus = "PENDING"
	NotificationStatusSent         NotificationStatus = "SENT"
	NotificationStatusRetrying     NotificationStatus = "RETRYING"
	NotificationStatusDeadLettered NotificationStatus = "DEAD_LETTERED"
	// Cancelled marks a record skipped because its booking reached a terminal
	// state before delivery and the notification was not urgent.
	NotificationStatusCancelled NotificationStatus = "CANCELLED"
)

// NotificationRecord is the durable unit of delivery. Created by the
// dispatcher; terminal once SENT, DEAD_LETTERED, or CANCELLED.
type NotificationRecord struct {
	ID            string              `json:"id"`
	BookingID     string              `json:"booking_id"`
	Recipient     string              `json:"recipient"`
	Channel       NotificationChannel `json:"channel"`
	Title         string              `json:"title"`
	Message       string              `json:"message"`
	BookingStatus BookingStatus       `json:"booking_status"`
	Urgent        bool                `json:"urgent"`
	Status        NotificationStatus  `json:"status"`
	Attempts      int                 `json:"attempts"`
	NextAttemptAt time.Time           `json:"next_attempt_at"`
	CreatedOn     time.Time           `json:"created_on"`
	UpdatedOn     time.Time           `json:"updated_on"`
}

// NotificationPreference holds a recipient's per-channel opt-ins and quiet
// hours. Quiet hours are expressed in the recipient's local time zone.
type NotificationPreference struct {
	UserID     string                       `json:"user_id"`
	Channels   map[NotificationChannel]bool `json:"channels"`
	QuietStart string                       `json:"quiet_start,omitempty"` // "22:00"
	QuietEnd   string                       `json:"quiet_end,omitempty"`   // "08:00"
	Timezone   string                       `json:"timezone,omitempty"`    // IANA name
	Email      string                       `json:"email,omitempty"`
	Phone      string                       `json:"phone,omitempty"`
	PushToken  string                       `json:"push_token,omitempty"`
}

// ChannelEnabled reports whether the recipient accepts the given channel.
// A missing preference map means everything is enabled.
func (p *NotificationPreference) ChannelEnabled(ch NotificationChannel) bool {
	if p.Channels == nil {
		return true
	}
	enabled, ok := p.Channels[ch]
	return !ok || enabled
}
