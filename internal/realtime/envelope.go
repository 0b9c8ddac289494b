package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MessageType is the wire-level kind of an envelope.
type MessageType string

const (
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"
	MessageTypeEvent       MessageType = "event"
	MessageTypeHeartbeat   MessageType = "heartbeat"
	MessageTypeAck         MessageType = "ack"
)

// Envelope is the real-time message frame exchanged with clients.
type Envelope struct {
	Type      MessageType     `json:"type"`
	Channel   string          `json:"channel,omitempty"`
	MessageID string          `json:"message_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NewEventEnvelope frames a payload for delivery on a channel.
func NewEventEnvelope(channel string, payload any, at time.Time) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Type:      MessageTypeEvent,
		Channel:   channel,
		MessageID: uuid.NewString(),
		Timestamp: at,
		Payload:   raw,
	}, nil
}
