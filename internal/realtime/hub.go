package realtime

import (
	"sync"
	"time"

	"revivatech-backend/internal/domain"
	"revivatech-backend/internal/logger"
	"revivatech-backend/internal/utils"
)

// Hub is the connection registry and pub/sub fan-out. Delivery is
// at-most-once per connection; durability for offline recipients lives in
// the notification dispatcher, not here.
type Hub struct {
	clock               utils.Clock
	mailboxSize         int
	heartbeatInterval   time.Duration
	maxMissedHeartbeats int

	mu       sync.RWMutex
	conns    map[string]*Conn            // conn id -> conn
	channels map[string]map[string]*Conn // channel -> conn id -> conn

	// onRegister hooks run after a connection subscribes to a channel,
	// outside the hub lock. The dispatcher uses this to flush queued in-app
	// notifications to a recipient that just reconnected.
	onSubscribe []func(conn *Conn, channel string)
}

func NewHub(clock utils.Clock, mailboxSize int, heartbeatInterval time.Duration, maxMissedHeartbeats int) *Hub {
	return &Hub{
		clock:               clock,
		mailboxSize:         mailboxSize,
		heartbeatInterval:   heartbeatInterval,
		maxMissedHeartbeats: maxMissedHeartbeats,
		conns:               make(map[string]*Conn),
		channels:            make(map[string]map[string]*Conn),
	}
}

// OnSubscribe registers a hook invoked after each successful subscribe.
// Registration happens once at wiring time.
func (h *Hub) OnSubscribe(hook func(conn *Conn, channel string)) {
	h.onSubscribe = append(h.onSubscribe, hook)
}

// Register adds a connection to the registry and returns it.
func (h *Hub) Register(connID, userID string) *Conn {
	conn := newConn(connID, userID, h.mailboxSize, h.clock.Now())

	h.mu.Lock()
	h.conns[connID] = conn
	h.mu.Unlock()

	logger.Debug("Connection registered", "conn_id", connID, "user_id", userID)
	return conn
}

// Unregister removes a connection and all its subscriptions, closing its
// mailbox. Unknown ids are a no-op.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if ok {
		delete(h.conns, connID)
		for channel, subs := range h.channels {
			delete(subs, connID)
			if len(subs) == 0 {
				delete(h.channels, channel)
			}
		}
	}
	h.mu.Unlock()

	if ok {
		conn.close()
		logger.Debug("Connection unregistered", "conn_id", connID)
	}
}

// Subscribe adds the connection to a channel's fan-out set.
func (h *Hub) Subscribe(connID, channel string) error {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if !ok {
		h.mu.Unlock()
		return &domain.NotFoundError{Resource: "connection", ID: connID}
	}
	subs, ok := h.channels[channel]
	if !ok {
		subs = make(map[string]*Conn)
		h.channels[channel] = subs
	}
	subs[connID] = conn
	h.mu.Unlock()

	for _, hook := range h.onSubscribe {
		hook(conn, channel)
	}
	return nil
}

// Unsubscribe removes the connection from a channel's fan-out set.
func (h *Hub) Unsubscribe(connID, channel string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[connID]; !ok {
		return &domain.NotFoundError{Resource: "connection", ID: connID}
	}
	if subs, ok := h.channels[channel]; ok {
		delete(subs, connID)
		if len(subs) == 0 {
			delete(h.channels, channel)
		}
	}
	return nil
}

// Publish fans an envelope out to every connection subscribed to the
// channel. Never blocks on a slow subscriber; a channel with zero
// subscribers is a no-op.
func (h *Hub) Publish(channel string, env Envelope) int {
	h.mu.RLock()
	subs := h.channels[channel]
	targets := make([]*Conn, 0, len(subs))
	for _, c := range subs {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if c.enqueue(env) {
			delivered++
		}
	}
	return delivered
}

// PublishEvent frames and publishes a payload on a channel.
func (h *Hub) PublishEvent(channel string, payload any) int {
	env, err := NewEventEnvelope(channel, payload, h.clock.Now())
	if err != nil {
		logger.Error("Failed to encode event payload", "channel", channel, "error", err)
		return 0
	}
	return h.Publish(channel, env)
}

// HasSubscriber reports whether any live connection listens on the channel.
func (h *Hub) HasSubscriber(channel string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel]) > 0
}

// Touch records a liveness signal for a connection.
func (h *Hub) Touch(connID string) {
	h.mu.RLock()
	conn, ok := h.conns[connID]
	h.mu.RUnlock()
	if ok {
		conn.Touch(h.clock.Now())
	}
}

// SweepDead marks connections quiet for a full heartbeat interval as having
// missed a beat, and removes those past the missed-heartbeat limit. Returns
// the ids it removed. Runs off the periodic scheduler; never touches
// booking locks.
func (h *Hub) SweepDead() []string {
	cutoff := h.clock.Now().Add(-h.heartbeatInterval)

	h.mu.RLock()
	candidates := make([]*Conn, 0, len(h.conns))
	for _, c := range h.conns {
		candidates = append(candidates, c)
	}
	h.mu.RUnlock()

	var removed []string
	for _, c := range candidates {
		if c.seenSince(cutoff) {
			continue
		}
		if c.markMissed(h.maxMissedHeartbeats) {
			removed = append(removed, c.ID)
		}
	}

	for _, id := range removed {
		logger.Info("Removing dead connection", "conn_id", id)
		h.Unregister(id)
	}
	return removed
}

// ConnCount returns the number of registered connections.
func (h *Hub) ConnCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
