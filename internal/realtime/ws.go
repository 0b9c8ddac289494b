package realtime

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"revivatech-backend/internal/domain"
	"revivatech-backend/internal/logger"
)

// ActorResolver validates a client token and returns the actor id.
type ActorResolver interface {
	ResolveActor(token string) (string, error)
}

// WSHandler upgrades HTTP requests to websocket connections and bridges
// them onto the hub.
type WSHandler struct {
	hub          *Hub
	resolver     ActorResolver
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	writeTimeout time.Duration
}

func NewWSHandler(hub *Hub, resolver ActorResolver, pingInterval time.Duration) *WSHandler {
	return &WSHandler{
		hub:      hub,
		resolver: resolver,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pingInterval: pingInterval,
		writeTimeout: 10 * time.Second,
	}
}

// ServeHTTP authenticates the client, upgrades the connection, and runs the
// read and write pumps until either side goes away.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	userID, err := h.resolver.ResolveActor(token)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Websocket upgrade failed", "error", err)
		return
	}

	connID := uuid.NewString()
	conn := h.hub.Register(connID, userID)

	// Every connection implicitly listens on its own user channel and the
	// system channel.
	_ = h.hub.Subscribe(connID, "user:"+userID)
	_ = h.hub.Subscribe(connID, "system")

	go h.writePump(ws, conn)
	h.readPump(ws, connID)
}

// readPump consumes client frames until the connection drops. Pong frames
// and heartbeat envelopes both count as liveness signals.
func (h *WSHandler) readPump(ws *websocket.Conn, connID string) {
	defer func() {
		h.hub.Unregister(connID)
		ws.Close()
	}()

	ws.SetPongHandler(func(string) error {
		h.hub.Touch(connID)
		return nil
	})

	for {
		var env Envelope
		if err := ws.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				cerr := &domain.ConnectionError{ConnID: connID, Err: err}
				logger.Debug("Websocket read failed", "error", cerr)
			}
			return
		}

		h.hub.Touch(connID)

		switch env.Type {
		case MessageTypeSubscribe:
			if err := h.hub.Subscribe(connID, env.Channel); err != nil {
				logger.Warn("Subscribe failed", "conn_id", connID, "channel", env.Channel, "error", err)
			}
		case MessageTypeUnsubscribe:
			if err := h.hub.Unsubscribe(connID, env.Channel); err != nil {
				logger.Warn("Unsubscribe failed", "conn_id", connID, "channel", env.Channel, "error", err)
			}
		case MessageTypeHeartbeat, MessageTypeAck:
			// Liveness already recorded above.
		default:
			logger.Debug("Ignoring unexpected frame", "conn_id", connID, "type", env.Type)
		}
	}
}

// writePump drains the connection mailbox to the client and sends periodic
// pings. Exits when the mailbox closes or a write fails.
func (h *WSHandler) writePump(ws *websocket.Conn, conn *Conn) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case env, ok := <-conn.Mailbox():
			if !ok {
				_ = ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			ws.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := ws.WriteJSON(env); err != nil {
				logger.Debug("Websocket write failed", "conn_id", conn.ID, "error", err)
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
