package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/rpsgame/internal/dependencies/clock"
	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/services/registry"
)

// Handler receives connection lifecycle and inbound frames
type Handler interface {
	Connect(sender registry.Sender) model.ConnectionID
	Disconnect(id model.ConnectionID)
	HandleMessage(ctx context.Context, id model.ConnectionID, data []byte) error
}

// Config holds websocket transport settings
type Config struct {
	// AllowedOrigin is matched against the Origin header. "*" or empty
	// allows any origin. Requests without an Origin header are always allowed.
	AllowedOrigin  string
	SendBufferSize int
	MaxMessageSize int64
	WriteWait      time.Duration
	PongWait       time.Duration
}

// DefaultConfig returns the default transport settings
func DefaultConfig() Config {
	return Config{
		AllowedOrigin:  "http://localhost:3000",
		SendBufferSize: 64,
		MaxMessageSize: 4096,
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
	}
}

func (c Config) pingPeriod() time.Duration {
	return (c.PongWait * 9) / 10
}

// Hub tracks live websocket clients so they can be counted and closed
// together on shutdown
type Hub struct {
	handler  Handler
	clock    clock.Clock
	cfg      Config
	upgrader websocket.Upgrader
	clients  map[*Client]bool
	mu       sync.RWMutex
	logger   *slog.Logger

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a Hub that feeds every client's frames to handler
func NewHub(handler Handler, clk clock.Clock, cfg Config, logger *slog.Logger) *Hub {
	h := &Hub{
		handler:    handler,
		clock:      clk,
		cfg:        cfg,
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("component", "ws")),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.cfg.AllowedOrigin == "" || h.cfg.AllowedOrigin == "*" {
		return true
	}
	return origin == h.cfg.AllowedOrigin
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Info("ws hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("ws client registered",
				slog.String("remote_addr", client.remoteAddr),
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
			}
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("ws client unregistered",
				slog.String("connection_id", string(client.ID())),
				slog.Int("total_clients", clientCount))

		case <-h.done:
			h.mu.Lock()
			clientCount := len(h.clients)
			for client := range h.clients {
				client.closeSend()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("ws hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

// Register adds a client to the hub. It reports false once the hub is closed.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub and closes its send buffer
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Close disconnects every client and stops the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and pumps frames between the socket and the
// handler until either side closes
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response
		h.logger.Warn("websocket upgrade failed",
			slog.String("remote_addr", r.RemoteAddr),
			slog.Any("error", err))
		return
	}

	client := newClient(conn, h, h.cfg, h.logger)
	if !h.Register(client) {
		_ = conn.Close()
		return
	}
	client.setID(h.handler.Connect(client))

	go client.writePump()
	client.readPump(r.Context())
}
