package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/autoreveal/autoreveal/internal/logging"
)

// writeWait is the time allowed to write a message to a peer.
const writeWait = 10 * time.Second

// UpdateMessage is a message pushed to browsers over the websocket channel.
type UpdateMessage struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub tracks connected websocket clients and fans broadcast messages out to
// them. The poll endpoint stays authoritative for reload delivery; the hub
// is an additive push channel.
type Hub struct {
	clients    map[*websocket.Conn]struct{}
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
	logger     logging.Logger
}

// NewHub creates an empty hub.
func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]struct{}),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, 16),
		logger:     logger,
	}
}

// Run owns the client set until the context is canceled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for conn := range h.clients {
				_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
				delete(h.clients, conn)
			}
			return
		case conn := <-h.register:
			h.clients[conn] = struct{}{}
		case conn := <-h.unregister:
			delete(h.clients, conn)
		case payload := <-h.broadcast:
			for conn := range h.clients {
				writeCtx, cancel := context.WithTimeout(ctx, writeWait)
				err := conn.Write(writeCtx, websocket.MessageText, payload)
				cancel()
				if err != nil {
					_ = conn.Close(websocket.StatusAbnormalClosure, "write failed")
					delete(h.clients, conn)
				}
			}
		}
	}
}

// Broadcast queues a message for every connected client. If the queue is
// full the message is dropped; the poll endpoint still delivers the reload.
func (h *Hub) Broadcast(ctx context.Context, msg UpdateMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error(ctx, err, "marshaling websocket message")
		return
	}
	select {
	case h.broadcast <- payload:
	default:
	}
}

// handleWebSocket upgrades the connection and parks it in the hub until the
// client goes away. Origins beyond the serve host must be allowed explicitly
// through server.allowed_origins.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.config.Server.AllowedOrigins,
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "websocket upgrade failed")
		return
	}

	s.hub.register <- conn
	defer func() {
		s.hub.unregister <- conn
		_ = conn.CloseNow()
	}()

	// The client only listens; reads surface pings and the eventual close.
	for {
		if _, _, err := conn.Read(r.Context()); err != nil {
			return
		}
	}
}
