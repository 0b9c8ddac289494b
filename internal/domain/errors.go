package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDeadLettered marks a notification record that exhausted its retry
	// budget. It is logged for operators, never returned to the caller that
	// triggered the original transition.
	ErrDeadLettered = errors.New("notification dead-lettered")
)

// ValidationError reports malformed input. Caller's fault, rejected
// synchronously before any state is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// InvalidTransitionError reports an attempt to move a booking along an edge
// that is not in the lifecycle graph. The booking is left untouched.
type InvalidTransitionError struct {
	From BookingStatus
	To   BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// NotFoundError reports an unknown booking, connection, or record.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ConfigurationError reports a malformed pricing rule or config section.
// Fatal at load time; the rule set is validated once, never per call.
type ConfigurationError struct {
	Section string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Section, e.Reason)
}

// ConnectionError is a transport-level failure local to one real-time
// connection. It never affects other connections or the publisher.
type ConnectionError struct {
	ConnID string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection %s: %v", e.ConnID, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// DeliveryFailure reports a failed external-channel send. The dispatcher
// retries these with backoff; they never propagate to the transition caller.
type DeliveryFailure struct {
	Channel   NotificationChannel
	Recipient string
	Err       error
}

func (e *DeliveryFailure) Error() string {
	return fmt.Sprintf("delivery via %s to %s failed: %v", e.Channel, e.Recipient, e.Err)
}

func (e *DeliveryFailure) Unwrap() error { return e.Err }
