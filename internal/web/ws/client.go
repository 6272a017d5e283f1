package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/rpsgame/internal/dependencies/clock"
	"github.com/mcoot/rpsgame/internal/model"
)

// Client is one websocket connection. Outbound frames are buffered in send
// and written by writePump; a full buffer drops the frame.
type Client struct {
	id          model.ConnectionID
	conn        *websocket.Conn
	hub         *Hub
	cfg         Config
	logger      *slog.Logger
	remoteAddr  string
	connectedAt time.Time

	mu     sync.Mutex // guards id, and send against close
	send   chan []byte
	closed bool
}

func newClient(conn *websocket.Conn, hub *Hub, cfg Config, logger *slog.Logger) *Client {
	return &Client{
		conn:        conn,
		hub:         hub,
		cfg:         cfg,
		logger:      logger,
		remoteAddr:  conn.RemoteAddr().String(),
		connectedAt: hub.clock.Now(),
		send:        make(chan []byte, cfg.SendBufferSize),
	}
}

// ID returns the connection identity assigned by the handler
func (c *Client) ID() model.ConnectionID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

func (c *Client) setID(id model.ConnectionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = id
}

// Send queues a frame without blocking
func (c *Client) Send(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		c.logger.Warn("ws message dropped - client buffer full",
			slog.String("connection_id", string(c.id)))
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) readPump(ctx context.Context) {
	id := c.ID()
	defer func() {
		c.hub.handler.Disconnect(id)
		c.hub.Unregister(c)
		_ = c.conn.Close()
		c.logger.Info("ws connection closed",
			slog.String("connection_id", string(id)),
			slog.Duration("connection_duration", clock.Since(c.hub.clock, c.connectedAt)))
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	// Socket deadlines are wall-clock time
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("ws read failed",
					slog.String("connection_id", string(id)),
					slog.Any("error", err))
			}
			return
		}
		// Errors are logged by the handler and never end the connection
		_ = c.hub.handler.HandleMessage(ctx, id, data)
	}
}

func (c *Client) writePump() {
	id := c.ID()
	ticker := time.NewTicker(c.cfg.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Debug("ws write failed",
					slog.String("connection_id", string(id)),
					slog.Any("error", err))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
