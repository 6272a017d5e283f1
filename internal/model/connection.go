package model

import "time"

// ConnectionID is an opaque, process-unique token for a live connection.
// IDs are never reused.
type ConnectionID string

// ConnectionState is the lifecycle position of a connection
type ConnectionState string

const (
	ConnectionUnbound   ConnectionState = "unbound"    // Connected, neither queued nor paired
	ConnectionWaiting   ConnectionState = "waiting"    // Holding the waiting slot
	ConnectionInSession ConnectionState = "in_session" // Paired with an opponent
)

// Connection is the registry's view of a connected player
type Connection struct {
	ID          ConnectionID
	Username    string // Empty until set-username
	State       ConnectionState
	Session     SessionKey // Empty unless State is in_session
	ConnectedAt time.Time
}

// HasUsername returns true once the connection has bound a display name
func (c *Connection) HasUsername() bool {
	return c.Username != ""
}
