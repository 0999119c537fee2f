package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/eduhub/eduhub-backend/internal/metrics"
	"github.com/eduhub/eduhub-backend/internal/model"
)

// Event types pushed to connected clients.
const (
	EventMessageNew     = "message.new"
	EventSessionExpired = "session.expired"
)

// Hub fans out realtime events to connected clients. Clients are keyed
// by user ID, so a user with several tabs open receives an event on
// each connection.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	logger     *zap.SugaredLogger
	metrics    *metrics.Metrics

	allowedOrigins []string

	mu sync.RWMutex
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID int

	// Unix nanoseconds; written by readPump, read by the cleanup ticker.
	lastActive atomic.Int64
}

func (c *Client) touch() {
	c.lastActive.Store(time.Now().UnixNano())
}

// Event is the wire envelope for every push.
type Event struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

func NewHub(logger *zap.SugaredLogger, m *metrics.Metrics, allowedOrigins []string) *Hub {
	return &Hub{
		clients:        make(map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		logger:         logger,
		metrics:        m,
		allowedOrigins: allowedOrigins,
	}
}

func (h *Hub) Run(ctx context.Context) {
	go h.startClientCleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			h.logger.Infow("WebSocket hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			if h.metrics != nil {
				h.metrics.IncrementConnections(ctx)
			}
			h.logger.Debugw("Client registered", "user_id", client.userID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			if h.metrics != nil {
				h.metrics.DecrementConnections(ctx)
			}
			h.logger.Debugw("Client unregistered", "user_id", client.userID)
		}
	}
}

// NotifyMessage pushes a message.new event to the recipient's
// connections. Senders see their own message in the HTTP response, so
// only the other side of the conversation is notified.
func (h *Hub) NotifyMessage(msg *model.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Errorw("Failed to marshal message event", "error", err)
		return
	}
	h.sendToUser(msg.ReceiverID, Event{
		Type:      EventMessageNew,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

// NotifySessionExpired tells a user's connections that their demo
// session ended. The payload carries the reason so the client can show
// the right banner before redirecting.
func (h *Hub) NotifySessionExpired(userID int) {
	data, _ := json.Marshal(map[string]string{"reason": "demo_expired"})
	h.sendToUser(userID, Event{
		Type:      EventSessionExpired,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

func (h *Hub) sendToUser(userID int, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Errorw("Failed to marshal event", "type", event.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if client.userID != userID {
			continue
		}
		select {
		case client.send <- payload:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

func (h *Hub) startClientCleanup(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.cleanupInactiveClients()
		}
	}
}

func (h *Hub) cleanupInactiveClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := time.Now().Add(-60 * time.Second).UnixNano()

	for client := range h.clients {
		if client.lastActive.Load() < cutoff {
			delete(h.clients, client)
			close(client.send)
			h.logger.Debugw("Cleaned up inactive client", "user_id", client.userID)
		}
	}
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}

// HandleWebSocket upgrades an authenticated request. The caller has
// already resolved the session, so the user ID arrives as an argument.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request, userID int) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorw("WebSocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
	}
	client.touch()

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Errorw("WebSocket error", "user_id", c.userID, "error", err)
			}
			break
		}
		c.touch()
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
