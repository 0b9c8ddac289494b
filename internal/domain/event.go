package domain

import "time"

// BookingStatusChanged is emitted by the lifecycle manager after every
// accepted transition. It carries the full updated booking snapshot so
// consumers never need a follow-up read.
type BookingStatusChanged struct {
	Booking    Booking       `json:"booking"`
	From       BookingStatus `json:"from"`
	To         BookingStatus `json:"to"`
	Actor      string        `json:"actor"`
	Note       string        `json:"note,omitempty"`
	Progress   int           `json:"progress"`
	Urgent     bool          `json:"urgent"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// Channel names the pub/sub topic that carries updates for one booking.
func (e BookingStatusChanged) Channel() string {
	return "booking:" + e.Booking.ID
}

// UserChannel names the per-customer topic.
func (e BookingStatusChanged) UserChannel() string {
	return "user:" + e.Booking.CustomerID
}
