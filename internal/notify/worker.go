package notify

import (
	"context"
	"sync"

	"revivatech-backend/internal/domain"
	"revivatech-backend/internal/logger"
	"revivatech-backend/internal/repository"
	"revivatech-backend/internal/utils"
)

// WorkerPool drains due notification records and hands each one to the
// sender for its channel. Failed deliveries are rescheduled with backoff
// until the attempt budget runs out, then dead-lettered.
type WorkerPool struct {
	records  repository.NotificationRepository
	bookings repository.BookingRepository
	senders  map[domain.NotificationChannel]ExternalSender
	schedule *RetrySchedule
	clock    utils.Clock
	workers  int
	batch    int32
}

func NewWorkerPool(records repository.NotificationRepository, bookings repository.BookingRepository, senders map[domain.NotificationChannel]ExternalSender, schedule *RetrySchedule, clock utils.Clock, workers int, batch int32) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		records:  records,
		bookings: bookings,
		senders:  senders,
		schedule: schedule,
		clock:    clock,
		workers:  workers,
		batch:    batch,
	}
}

// ProcessDue loads one batch of due records and delivers them across the
// pool. Returns the number of records picked up.
func (p *WorkerPool) ProcessDue(ctx context.Context) (int, error) {
	due, err := p.records.ListDue(ctx, p.clock.Now(), p.batch)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	jobs := make(chan *domain.NotificationRecord)
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				p.deliver(ctx, rec)
			}
		}()
	}

	for i := range due {
		jobs <- &due[i]
	}
	close(jobs)
	wg.Wait()

	return len(due), nil
}

// deliver attempts one record and persists the resulting state.
func (p *WorkerPool) deliver(ctx context.Context, rec *domain.NotificationRecord) {
	if p.superseded(ctx, rec) {
		rec.Status = domain.NotificationStatusCancelled
		rec.UpdatedOn = p.clock.Now()
		p.persist(ctx, rec)
		logger.Info("Cancelled superseded notification",
			"notification_id", rec.ID, "booking_id", rec.BookingID)
		return
	}

	sender, ok := p.senders[rec.Channel]
	if !ok {
		rec.Status = domain.NotificationStatusDeadLettered
		rec.UpdatedOn = p.clock.Now()
		p.persist(ctx, rec)
		logger.Error("Dead-lettered notification: no sender configured for channel",
			"notification_id", rec.ID, "channel", rec.Channel)
		return
	}

	rec.Attempts++
	err := sender.Send(ctx, rec.Recipient, rec.Title, rec.Message)
	if err == nil {
		rec.Status = domain.NotificationStatusSent
		rec.UpdatedOn = p.clock.Now()
		p.persist(ctx, rec)
		logger.Debug("Notification delivered",
			"notification_id", rec.ID, "channel", rec.Channel, "attempts", rec.Attempts)
		return
	}

	failure := &domain.DeliveryFailure{Channel: rec.Channel, Recipient: rec.Recipient, Err: err}

	if p.schedule.Exhausted(rec.Attempts) {
		rec.Status = domain.NotificationStatusDeadLettered
		rec.UpdatedOn = p.clock.Now()
		p.persist(ctx, rec)
		// Operator-visible trail; the record is never picked up again.
		logger.Error("Notification dead-lettered after exhausting retries",
			"notification_id", rec.ID,
			"booking_id", rec.BookingID,
			"channel", rec.Channel,
			"attempts", rec.Attempts,
			"error", failure)
		return
	}

	rec.Status = domain.NotificationStatusRetrying
	rec.NextAttemptAt = p.schedule.NextAttempt(rec.Attempts)
	rec.UpdatedOn = p.clock.Now()
	p.persist(ctx, rec)
	logger.Warn("Notification delivery failed, retry scheduled",
		"notification_id", rec.ID,
		"channel", rec.Channel,
		"attempts", rec.Attempts,
		"next_attempt_at", rec.NextAttemptAt,
		"error", failure)
}

// superseded reports whether the record describes a status that no longer
// matters: the booking has since reached a terminal state and the record is
// not urgent.
func (p *WorkerPool) superseded(ctx context.Context, rec *domain.NotificationRecord) bool {
	if rec.Urgent {
		return false
	}
	booking, err := p.bookings.GetByID(ctx, rec.BookingID)
	if err != nil {
		logger.Warn("Could not check booking for superseded notification",
			"notification_id", rec.ID, "booking_id", rec.BookingID, "error", err)
		return false
	}
	return booking.Status.IsTerminal() && booking.Status != rec.BookingStatus
}

func (p *WorkerPool) persist(ctx context.Context, rec *domain.NotificationRecord) {
	if err := p.records.Update(ctx, rec); err != nil {
		logger.Error("Failed to persist notification state",
			"notification_id", rec.ID, "status", rec.Status, "error", err)
	}
}
