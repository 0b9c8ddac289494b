package realtime

import (
	"sync"
	"time"
)

// Conn is one registered real-time connection. Outgoing traffic goes through
// a bounded mailbox; when the mailbox is full the oldest pending message is
// dropped so a slow consumer can never stall a publisher.
type Conn struct {
	ID     string
	UserID string

	mailbox chan Envelope

	mu       sync.Mutex
	lastSeen time.Time
	missed   int
	closed   bool
}

func newConn(id, userID string, mailboxSize int, now time.Time) *Conn {
	return &Conn{
		ID:       id,
		UserID:   userID,
		mailbox:  make(chan Envelope, mailboxSize),
		lastSeen: now,
	}
}

// Mailbox is the channel the transport drains to push frames to the client.
func (c *Conn) Mailbox() <-chan Envelope {
	return c.mailbox
}

// enqueue delivers at-most-once into the bounded mailbox, dropping the
// oldest pending frame when full. Never blocks.
func (c *Conn) enqueue(env Envelope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}

	for {
		select {
		case c.mailbox <- env:
			return true
		default:
			select {
			case <-c.mailbox: // drop oldest
			default:
			}
		}
	}
}

// Touch records a liveness signal and resets the missed-heartbeat counter.
func (c *Conn) Touch(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSeen = now
	c.missed = 0
}

// markMissed increments the missed-heartbeat counter and reports whether the
// connection has exceeded the allowed limit.
func (c *Conn) markMissed(limit int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.missed++
	return c.missed >= limit
}

func (c *Conn) seenSince(cutoff time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.lastSeen.Before(cutoff)
}

// close shuts the mailbox. Safe to call once, from the hub only.
func (c *Conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.mailbox)
}
