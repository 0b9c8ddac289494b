package notify

import (
	"context"
	"sort"
	"sync"
	"time"

	"revivatech-backend/internal/domain"
)

type memNotificationRepo struct {
	mu      sync.Mutex
	records map[string]*domain.NotificationRecord
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{records: map[string]*domain.NotificationRecord{}}
}

func (r *memNotificationRepo) Create(_ context.Context, rec *domain.NotificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.records[rec.ID] = &cp
	return nil
}

func (r *memNotificationRepo) GetByID(_ context.Context, id string) (*domain.NotificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "notification", ID: id}
	}
	cp := *rec
	return &cp, nil
}

func (r *memNotificationRepo) Update(_ context.Context, rec *domain.NotificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.ID]; !ok {
		return &domain.NotFoundError{Resource: "notification", ID: rec.ID}
	}
	cp := *rec
	r.records[rec.ID] = &cp
	return nil
}

func (r *memNotificationRepo) ListDue(_ context.Context, now time.Time, limit int32) ([]domain.NotificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []domain.NotificationRecord
	for _, rec := range r.records {
		if rec.Channel == domain.NotificationChannelInApp {
			continue
		}
		if rec.Status != domain.NotificationStatusPending && rec.Status != domain.NotificationStatusRetrying {
			continue
		}
		if rec.NextAttemptAt.After(now) {
			continue
		}
		due = append(due, *rec)
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextAttemptAt.Before(due[j].NextAttemptAt) })
	if int32(len(due)) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *memNotificationRepo) ListPendingInApp(_ context.Context, recipient string) ([]domain.NotificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []domain.NotificationRecord
	for _, rec := range r.records {
		if rec.Channel == domain.NotificationChannelInApp &&
			rec.Recipient == recipient &&
			rec.Status == domain.NotificationStatusPending {
			pending = append(pending, *rec)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedOn.Before(pending[j].CreatedOn) })
	return pending, nil
}

func (r *memNotificationRepo) ListDeadLettered(_ context.Context, limit int32) ([]domain.NotificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var dead []domain.NotificationRecord
	for _, rec := range r.records {
		if rec.Status == domain.NotificationStatusDeadLettered {
			dead = append(dead, *rec)
		}
	}
	if int32(len(dead)) > limit {
		dead = dead[:limit]
	}
	return dead, nil
}

// all returns every stored record, for assertions.
func (r *memNotificationRepo) all() []domain.NotificationRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.NotificationRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedOn.Before(out[j].CreatedOn) })
	return out
}

func (r *memNotificationRepo) byChannel(ch domain.NotificationChannel) []domain.NotificationRecord {
	var out []domain.NotificationRecord
	for _, rec := range r.all() {
		if rec.Channel == ch {
			out = append(out, rec)
		}
	}
	return out
}

type memPrefRepo struct {
	prefs map[string]*domain.NotificationPreference
}

func newMemPrefRepo(prefs ...*domain.NotificationPreference) *memPrefRepo {
	r := &memPrefRepo{prefs: map[string]*domain.NotificationPreference{}}
	for _, p := range prefs {
		r.prefs[p.UserID] = p
	}
	return r
}

func (r *memPrefRepo) GetByUserID(_ context.Context, userID string) (*domain.NotificationPreference, error) {
	pref, ok := r.prefs[userID]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "notification_preference", ID: userID}
	}
	cp := *pref
	return &cp, nil
}

type stubBookingRepo struct {
	bookings map[string]*domain.Booking
}

func newStubBookingRepo(bookings ...*domain.Booking) *stubBookingRepo {
	r := &stubBookingRepo{bookings: map[string]*domain.Booking{}}
	for _, b := range bookings {
		r.bookings[b.ID] = b
	}
	return r
}

func (r *stubBookingRepo) Create(_ context.Context, b *domain.Booking) error {
	r.bookings[b.ID] = b
	return nil
}

func (r *stubBookingRepo) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "booking", ID: id}
	}
	return b, nil
}

func (r *stubBookingRepo) Update(_ context.Context, b *domain.Booking) error {
	r.bookings[b.ID] = b
	return nil
}

func (r *stubBookingRepo) ListByCustomer(_ context.Context, _ string, _, _ int32) ([]domain.Booking, int32, error) {
	return nil, 0, nil
}

// flakySender fails a configured number of times before succeeding.
type flakySender struct {
	mu        sync.Mutex
	failures  int
	calls     int
	sentTo    []string
	failError error
}

func (s *flakySender) Send(_ context.Context, recipient, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return s.failError
	}
	s.sentTo = append(s.sentTo, recipient)
	return nil
}
