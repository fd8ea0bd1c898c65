package notification

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	pingInterval   = 45 * time.Second
	readTimeout    = 90 * time.Second
	writeTimeout   = 10 * time.Second
	clientOutQueue = 32
)

// Messages exchanged with browser clients.
const (
	msgUnlock = "unlock"
	msgLock   = "lock"
	msgStatus = "status"
	msgAlert  = "alert"
)

type clientMsg struct {
	Type string `json:"type"`
}

type statusMsg struct {
	Type     string `json:"type"`
	ClientID string `json:"client_id"`
	Unlocked bool   `json:"unlocked"`
}

type alertMsg struct {
	Type  string `json:"type"`
	Alert Alert  `json:"alert"`
}

type wsClient struct {
	id       string
	conn     *websocket.Conn
	out      chan any
	done     chan struct{}
	unlocked atomic.Bool
}

// Hub is the browser alert sink. Browsers connect over websocket and send
// {"type":"unlock"} after a user gesture has enabled sound and system
// notifications. The hub is ready only while at least one unlocked client
// is connected.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*wsClient]struct{}
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHub creates a Hub. checkOrigin may be nil to accept any origin.
func NewHub(logger *slog.Logger, checkOrigin func(*http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin:       checkOrigin,
			EnableCompression: true,
		},
		logger: logger,
	}
}

// Name returns the sink identifier.
func (h *Hub) Name() string { return "websocket" }

// Ready reports whether any connected client is unlocked.
func (h *Hub) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.unlocked.Load() {
			return true
		}
	}
	return false
}

// Clients returns the number of connected and unlocked clients.
func (h *Hub) Clients() (connected, unlocked int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		connected++
		if c.unlocked.Load() {
			unlocked++
		}
	}
	return connected, unlocked
}

// Send pushes the alert to every unlocked client. It returns ErrSinkNotReady
// when there is none.
func (h *Hub) Send(_ context.Context, alert Alert) error {
	msg := alertMsg{Type: msgAlert, Alert: alert}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.clients {
		if !c.unlocked.Load() {
			continue
		}
		select {
		case c.out <- msg:
			delivered++
		default:
			h.logger.Warn("websocket client queue full, dropping alert", "client_id", c.id, "report_id", alert.ReportID)
		}
	}
	if delivered == 0 {
		return ErrSinkNotReady
	}
	return nil
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close() //nolint:errcheck

	c := &wsClient{
		id:   uuid.NewString(),
		conn: conn,
		out:  make(chan any, clientOutQueue),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("websocket client connected", "client_id", c.id, "remote_addr", r.RemoteAddr)

	go h.writeLoop(c)
	c.out <- statusMsg{Type: msgStatus, ClientID: c.id}

	h.readLoop(c)

	close(c.done)
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	h.logger.Info("websocket client disconnected", "client_id", c.id)
}

func (h *Hub) writeLoop(c *wsClient) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case v := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(v); err != nil {
				h.logger.Debug("websocket write failed", "client_id", c.id, "error", err)
				_ = c.conn.Close()
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.conn.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (h *Hub) readLoop(c *wsClient) {
	_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		var msg clientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case msgUnlock:
			c.unlocked.Store(true)
		case msgLock:
			c.unlocked.Store(false)
		default:
			continue
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		select {
		case c.out <- statusMsg{Type: msgStatus, ClientID: c.id, Unlocked: c.unlocked.Load()}:
		default:
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		_ = c.conn.Close()
	}
}
