package matchmaking

import (
	"log/slog"
	"sync"

	"github.com/mcoot/rpsgame/internal/model"
)

// Presence reports whether a connection is still live
type Presence interface {
	Has(id model.ConnectionID) bool
}

// Match is a pairing produced by the queue. PlayerOne is the connection
// that was waiting.
type Match struct {
	PlayerOne model.ConnectionID
	PlayerTwo model.ConnectionID
}

// Queue holds at most one waiting connection and pairs arrivals with it
type Queue struct {
	mu       sync.Mutex
	waiting  model.ConnectionID // empty when the slot is free
	presence Presence
	logger   *slog.Logger
}

// NewQueue creates a queue with an empty waiting slot
func NewQueue(presence Presence, logger *slog.Logger) *Queue {
	return &Queue{
		presence: presence,
		logger:   logger.With(slog.String("component", "matchmaking")),
	}
}

// Join offers a connection to the queue. If the slot is empty (or already
// holds this connection) the connection waits and ok is false. Otherwise the
// occupant is taken out of the slot and returned as PlayerOne of the match.
// An occupant that is no longer live is dropped and the arrival takes its place.
func (q *Queue) Join(id model.ConnectionID) (match Match, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch {
	case q.waiting == "" || q.waiting == id:
		q.waiting = id
		return Match{}, false

	case !q.presence.Has(q.waiting):
		q.logger.Warn("dropping stale waiting connection",
			slog.String("stale_id", string(q.waiting)),
			slog.String("connection_id", string(id)))
		q.waiting = id
		return Match{}, false
	}

	match = Match{PlayerOne: q.waiting, PlayerTwo: id}
	q.waiting = ""
	return match, true
}

// Leave clears the slot if id holds it and reports whether it did
func (q *Queue) Leave(id model.ConnectionID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.waiting != id || id == "" {
		return false
	}
	q.waiting = ""
	return true
}

// Waiting returns the current occupant, if any
func (q *Queue) Waiting() (model.ConnectionID, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.waiting, q.waiting != ""
}
