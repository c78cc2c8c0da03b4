package system

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// client is the part of a websocket connection the hub writes to
type client interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// clientQueueSize bounds the events waiting for one client; a client that
// falls this far behind is dropped
const clientQueueSize = 16

type subscriber struct {
	conn client
	send chan []byte
}

// Hub fans task change events out to every connected websocket. Each client
// has its own queue and writer goroutine so Broadcast never waits on a socket.
type Hub struct {
	mu      sync.Mutex
	clients map[client]*subscriber
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{clients: map[client]*subscriber{}, logger: logger}
}

func (h *Hub) Register(c client) {
	s := &subscriber{conn: c, send: make(chan []byte, clientQueueSize)}

	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		h.mu.Unlock()
		return
	}
	h.clients[c] = s
	h.mu.Unlock()

	go h.writeLoop(s)
}

func (h *Hub) Unregister(c client) {
	h.mu.Lock()
	h.remove(c)
	h.mu.Unlock()
}

// remove expects h.mu to be held
func (h *Hub) remove(c client) {
	if s, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(s.send)
	}
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues event as JSON for every client without blocking
func (h *Hub) Broadcast(event any) {
	msg, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to encode websocket event", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c, s := range h.clients {
		select {
		case s.send <- msg:
		default:
			h.logger.Warn("Dropping slow websocket client")
			h.remove(c)
		}
	}
}

// writeLoop is the only writer of a connection; it closes the connection once
// the client is removed
func (h *Hub) writeLoop(s *subscriber) {
	defer func() { _ = s.conn.Close() }()

	for msg := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Debug("Dropping websocket client", zap.Error(err))
			h.Unregister(s.conn)
			for range s.send {
			}
			return
		}
	}
}

type WebSocketController struct {
	hub    *Hub
	logger *zap.Logger
}

func NewWebSocketController(hub *Hub, logger *zap.Logger) *WebSocketController {
	return &WebSocketController{hub: hub, logger: logger}
}

// HandleWebSocket keeps the connection registered until the client goes away.
// Incoming messages are ignored.
func (h *WebSocketController) HandleWebSocket(c *websocket.Conn) {
	h.hub.Register(c)
	defer h.hub.Unregister(c)

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			h.logger.Debug("websocket closed", zap.Error(err))
			return
		}
	}
}
