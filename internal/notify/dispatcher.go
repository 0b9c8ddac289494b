package notify

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"revivatech-backend/internal/domain"
	"revivatech-backend/internal/logger"
	"revivatech-backend/internal/realtime"
	"revivatech-backend/internal/repository"
	"revivatech-backend/internal/utils"
)

// externalChannels are the channels delivered through the retry queue
// rather than the realtime hub.
var externalChannels = []domain.NotificationChannel{
	domain.NotificationChannelPush,
	domain.NotificationChannelEmail,
	domain.NotificationChannelSMS,
}

// Dispatcher turns booking status events into deliveries: immediate in-app
// pushes for connected recipients, durable records for everyone else.
type Dispatcher struct {
	hub     *realtime.Hub
	records repository.NotificationRepository
	prefs   repository.PreferenceRepository
	clock   utils.Clock
}

func NewDispatcher(hub *realtime.Hub, records repository.NotificationRepository, prefs repository.PreferenceRepository, clock utils.Clock) *Dispatcher {
	d := &Dispatcher{
		hub:     hub,
		records: records,
		prefs:   prefs,
		clock:   clock,
	}
	hub.OnSubscribe(d.flushOnSubscribe)
	return d
}

// Dispatch fans one event out to every recipient on their enabled channels.
// Delivery failures never propagate to the transition that caused the event;
// only record persistence errors are returned.
func (d *Dispatcher) Dispatch(ctx context.Context, event *domain.BookingStatusChanged, recipients []string) error {
	title, message := buildContent(event)

	var firstErr error
	for _, recipient := range recipients {
		pref := d.preference(ctx, recipient)

		window, err := newQuietWindow(pref)
		if err != nil {
			logger.Warn("Ignoring malformed quiet hours", "recipient", recipient, "error", err)
		}

		if pref.ChannelEnabled(domain.NotificationChannelInApp) {
			if err := d.dispatchInApp(ctx, event, recipient, title, message); err != nil && firstErr == nil {
				firstErr = err
			}
		}

		for _, ch := range externalChannels {
			if !pref.ChannelEnabled(ch) {
				continue
			}
			address := channelAddress(pref, ch)
			if address == "" {
				logger.Debug("Skipping channel without address", "recipient", recipient, "channel", ch)
				continue
			}

			at := d.clock.Now()
			if window.contains(at) && !event.Urgent {
				at = window.nextAllowed(at)
				logger.Debug("Deferring notification to quiet hours end",
					"recipient", recipient, "channel", ch, "next_attempt_at", at)
			}

			rec := d.newRecord(event, address, ch, title, message)
			rec.NextAttemptAt = at
			if err := d.records.Create(ctx, rec); err != nil {
				logger.Error("Failed to persist notification record",
					"recipient", recipient, "channel", ch, "error", err)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	}
	return firstErr
}

// dispatchInApp delivers over the realtime hub when the recipient is
// connected; otherwise the record stays pending until the next connect.
func (d *Dispatcher) dispatchInApp(ctx context.Context, event *domain.BookingStatusChanged, recipient, title, message string) error {
	rec := d.newRecord(event, recipient, domain.NotificationChannelInApp, title, message)

	channel := "user:" + recipient
	if d.hub.HasSubscriber(channel) {
		if d.hub.PublishEvent(channel, event) > 0 {
			rec.Status = domain.NotificationStatusSent
			rec.Attempts = 1
		}
	}
	return d.records.Create(ctx, rec)
}

// FlushPending pushes a recipient's undelivered in-app records down a fresh
// subscription and marks them sent.
func (d *Dispatcher) FlushPending(ctx context.Context, recipient string) {
	pending, err := d.records.ListPendingInApp(ctx, recipient)
	if err != nil {
		logger.Error("Failed to load pending in-app notifications", "recipient", recipient, "error", err)
		return
	}

	channel := "user:" + recipient
	for i := range pending {
		rec := &pending[i]
		if d.hub.PublishEvent(channel, rec) == 0 {
			return
		}
		rec.Status = domain.NotificationStatusSent
		rec.Attempts++
		rec.UpdatedOn = d.clock.Now()
		if err := d.records.Update(ctx, rec); err != nil {
			logger.Error("Failed to mark notification sent", "notification_id", rec.ID, "error", err)
		}
	}
	if len(pending) > 0 {
		logger.Info("Flushed pending in-app notifications", "recipient", recipient, "count", len(pending))
	}
}

func (d *Dispatcher) flushOnSubscribe(conn *realtime.Conn, channel string) {
	recipient, ok := strings.CutPrefix(channel, "user:")
	if !ok || recipient != conn.UserID {
		return
	}
	d.FlushPending(context.Background(), recipient)
}

// preference loads the recipient's stored preference, falling back to
// everything-enabled defaults for unknown recipients.
func (d *Dispatcher) preference(ctx context.Context, recipient string) *domain.NotificationPreference {
	pref, err := d.prefs.GetByUserID(ctx, recipient)
	if err != nil {
		var notFound *domain.NotFoundError
		if !errors.As(err, &notFound) {
			logger.Error("Failed to load notification preference", "recipient", recipient, "error", err)
		}
		return &domain.NotificationPreference{UserID: recipient}
	}
	return pref
}

func (d *Dispatcher) newRecord(event *domain.BookingStatusChanged, recipient string, ch domain.NotificationChannel, title, message string) *domain.NotificationRecord {
	now := d.clock.Now()
	return &domain.NotificationRecord{
		ID:            uuid.NewString(),
		BookingID:     event.Booking.ID,
		Recipient:     recipient,
		Channel:       ch,
		Title:         title,
		Message:       message,
		BookingStatus: event.To,
		Urgent:        event.Urgent,
		Status:        domain.NotificationStatusPending,
		NextAttemptAt: now,
		CreatedOn:     now,
		UpdatedOn:     now,
	}
}

func channelAddress(pref *domain.NotificationPreference, ch domain.NotificationChannel) string {
	switch ch {
	case domain.NotificationChannelEmail:
		return pref.Email
	case domain.NotificationChannelPush:
		return pref.PushToken
	case domain.NotificationChannelSMS:
		return pref.Phone
	}
	return ""
}
