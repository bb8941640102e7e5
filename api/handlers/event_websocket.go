package handlers

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/mp3-extract-go/internal/app"
)

const (
	clientBufferSize = 256
	writeTimeout     = 10 * time.Second
)

// EventHub broadcasts controller events to WebSocket clients. It is an
// app.EventHandler, so it runs on the event loop and must never block:
// a client whose buffer is full is dropped.
type EventHub struct {
	logger  *zap.Logger
	clients map[*eventClient]struct{}
	mu      sync.RWMutex
}

type eventClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *eventClient) close() {
	c.once.Do(func() { close(c.send) })
}

// NewEventHub creates an empty hub
func NewEventHub(log *zap.Logger) *EventHub {
	return &EventHub{
		logger:  log,
		clients: make(map[*eventClient]struct{}),
	}
}

// HandleEvent implements app.EventHandler
func (h *EventHub) HandleEvent(e app.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("Failed to marshal event", zap.String("type", string(e.Type)), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			h.logger.Warn("Dropping slow event client", zap.String("remote_addr", client.conn.RemoteAddr().String()))
			delete(h.clients, client)
			client.close()
		}
	}
}

// ClientCount returns the number of connected clients
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket handles GET /api/v1/events
func (h *EventHub) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	client := &eventClient{conn: conn, send: make(chan []byte, clientBufferSize)}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[client]; ok {
			delete(h.clients, client)
			client.close()
		}
		h.mu.Unlock()
	}()

	h.logger.Debug("Event client connected", zap.String("remote_addr", c.Request.RemoteAddr))

	done := readUntilClosed(conn)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-client.send:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "too slow"))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
