package registry

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/mcoot/rpsgame/internal/dependencies/clock"
	"github.com/mcoot/rpsgame/internal/dependencies/random"
	"github.com/mcoot/rpsgame/internal/model"
)

// Sender delivers serialized outbound events to one connection.
// Send must not block; it reports false if the frame was dropped.
type Sender interface {
	Send(data []byte) bool
}

type entry struct {
	conn   model.Connection
	sender Sender
}

// Registry tracks live connections, their display names and lifecycle state
type Registry struct {
	mu      sync.RWMutex
	entries map[model.ConnectionID]*entry
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// New creates an empty Registry
func New(clk clock.Clock, rnd random.Random, logger *slog.Logger) *Registry {
	return &Registry{
		entries: make(map[model.ConnectionID]*entry),
		clock:   clk,
		random:  rnd,
		logger:  logger.With(slog.String("component", "registry")),
	}
}

// Add registers a new connection in the unbound state and returns its snapshot
func (r *Registry) Add(sender Sender) model.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := model.ConnectionID(r.random.Token())
	for _, exists := r.entries[id]; exists; _, exists = r.entries[id] {
		id = model.ConnectionID(r.random.Token())
	}

	e := &entry{
		conn: model.Connection{
			ID:          id,
			State:       model.ConnectionUnbound,
			ConnectedAt: r.clock.Now(),
		},
		sender: sender,
	}
	r.entries[id] = e
	r.logger.Debug("connection added",
		slog.String("connection_id", string(id)),
		slog.Int("total_connections", len(r.entries)))
	return e.conn
}

// Remove drops a connection and returns its final snapshot
func (r *Registry) Remove(id model.ConnectionID) (model.Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return model.Connection{}, false
	}
	delete(r.entries, id)
	return e.conn, true
}

// Get returns a snapshot of the connection
func (r *Registry) Get(id model.ConnectionID) (model.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return model.Connection{}, false
	}
	return e.conn, true
}

// Has reports whether the connection is still live
func (r *Registry) Has(id model.ConnectionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[id]
	return ok
}

// SetUsername binds a display name, overwriting any previous binding
func (r *Registry) SetUsername(id model.ConnectionID, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.ErrInvalidUsername
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return model.ErrConnectionNotFound
	}
	e.conn.Username = username
	return nil
}

// Username returns the bound display name, if any
func (r *Registry) Username(id model.ConnectionID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok || e.conn.Username == "" {
		return "", false
	}
	return e.conn.Username, true
}

// SetState records a lifecycle transition. session is only kept for the
// in-session state.
func (r *Registry) SetState(id model.ConnectionID, state model.ConnectionState, session model.SessionKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return model.ErrConnectionNotFound
	}
	if state != model.ConnectionInSession {
		session = ""
	}
	e.conn.State = state
	e.conn.Session = session
	return nil
}

// Send delivers data to the connection. It returns false if the connection
// is gone or its buffer is full.
func (r *Registry) Send(id model.ConnectionID, data []byte) bool {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return e.sender.Send(data)
}

// Count returns the number of live connections
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
