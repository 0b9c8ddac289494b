package notify

import "context"

// ExternalSender delivers one notification over a single external channel.
// The recipient is the channel-specific address: an email address, a device
// push token, or a phone number.
type ExternalSender interface {
	Send(ctx context.Context, recipient, title, message string) error
}
