package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/mcoot/rpsgame/internal/dependencies/clock"
	"github.com/mcoot/rpsgame/internal/model"
)

// Notifier delivers outbound events to a participant. Delivery is best
// effort and must not block.
type Notifier interface {
	Notify(to model.ConnectionID, event model.Event)
}

// Session is the persistent pairing of two connections. All round-scoped
// state is guarded by mu, and events are emitted while holding it so both
// participants observe them in the order the state changed.
type Session struct {
	mu sync.Mutex

	key       model.SessionKey
	players   [2]model.ConnectionID
	usernames map[model.ConnectionID]string // snapshot taken at pairing
	createdAt time.Time

	moves  map[model.ConnectionID]model.Move
	votes  map[model.ConnectionID]bool
	rounds int
	closed bool

	notifier Notifier
	clock    clock.Clock
	logger   *slog.Logger
}

func newSession(
	key model.SessionKey,
	playerOne, playerTwo model.ConnectionID,
	usernames map[model.ConnectionID]string,
	notifier Notifier,
	clk clock.Clock,
	logger *slog.Logger,
) *Session {
	return &Session{
		key:       key,
		players:   [2]model.ConnectionID{playerOne, playerTwo},
		usernames: lo.Assign(usernames),
		createdAt: clk.Now(),
		moves:     make(map[model.ConnectionID]model.Move, 2),
		votes:     make(map[model.ConnectionID]bool, 2),
		notifier:  notifier,
		clock:     clk,
		logger:    logger.With(slog.String("session", string(key))),
	}
}

// Key returns the session key
func (s *Session) Key() model.SessionKey {
	return s.key
}

// Players returns player one and player two
func (s *Session) Players() [2]model.ConnectionID {
	return s.players
}

// Username returns the name a participant had when the session was created
func (s *Session) Username(id model.ConnectionID) string {
	return s.usernames[id]
}

// Opponent returns the other participant, or "" if id is not a participant
func (s *Session) Opponent(id model.ConnectionID) model.ConnectionID {
	switch id {
	case s.players[0]:
		return s.players[1]
	case s.players[1]:
		return s.players[0]
	default:
		return ""
	}
}

// IsParticipant reports whether id is one of the two players
func (s *Session) IsParticipant(id model.ConnectionID) bool {
	return lo.Contains(s.players[:], id)
}

// start announces the pairing to both participants
func (s *Session) start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.broadcast(model.Event{
		Type:    model.EventStartGame,
		Payload: model.StartGamePayload{Room: s.key, Usernames: lo.Assign(s.usernames)},
	})
}

// SubmitMove records a participant's move for the current round, replacing
// any earlier move of theirs. When both moves are present the round is
// resolved exactly once: game-result is sent to both players, round state is
// cleared, and the result is returned. Otherwise the result is nil.
func (s *Session) SubmitMove(id model.ConnectionID, move model.Move) (*model.RoundResult, error) {
	if !move.IsValid() {
		return nil, model.ErrInvalidMove
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, model.ErrSessionNotFound
	}
	if !s.IsParticipant(id) {
		return nil, model.ErrNotParticipant
	}

	s.moves[id] = move

	one, okOne := s.moves[s.players[0]]
	two, okTwo := s.moves[s.players[1]]
	if !okOne || !okTwo {
		return nil, nil
	}

	s.rounds++
	result := &model.RoundResult{
		Session:   s.key,
		PlayerOne: s.players[0],
		PlayerTwo: s.players[1],
		Moves: map[model.ConnectionID]model.Move{
			s.players[0]: one,
			s.players[1]: two,
		},
		Outcome:   model.Decide(one, two),
		Round:     s.rounds,
		DecidedAt: s.clock.Now(),
	}

	s.broadcast(model.Event{Type: model.EventGameResult, Payload: model.GameResultFrom(result)})

	clear(s.moves)
	clear(s.votes)

	s.logger.Info("round resolved",
		slog.Int("round", result.Round),
		slog.String("outcome", string(result.Outcome)))
	return result, nil
}

// RequestRematch records a participant's vote. Repeated votes from the same
// participant count once. When both have voted, start-game is sent to both
// for the same key, the votes reset, and started is true.
func (s *Session) RequestRematch(id model.ConnectionID) (started bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, model.ErrSessionNotFound
	}
	if !s.IsParticipant(id) {
		return false, model.ErrNotParticipant
	}

	s.votes[id] = true
	if len(s.votes) < 2 {
		return false, nil
	}

	clear(s.votes)
	s.broadcast(model.Event{
		Type:    model.EventStartGame,
		Payload: model.StartGamePayload{Room: s.key},
	})
	s.logger.Info("rematch started", slog.Int("rounds_played", s.rounds))
	return true, nil
}

// close tears the session down because leaver disconnected and notifies
// the other participant. It reports false if already closed.
func (s *Session) close(leaver model.ConnectionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.closed = true
	clear(s.moves)
	clear(s.votes)

	if other := s.Opponent(leaver); other != "" {
		s.notifier.Notify(other, model.Event{Type: model.EventPlayerDisconnected})
	}
	s.logger.Info("session closed",
		slog.String("leaver", string(leaver)),
		slog.Int("rounds_played", s.rounds),
		slog.Duration("duration", clock.Since(s.clock, s.createdAt)))
	return true
}

// Summary returns a snapshot of the session
func (s *Session) Summary() model.SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return model.SessionSummary{
		Key:          s.key,
		Players:      s.players,
		Usernames:    lo.Assign(s.usernames),
		PendingMoves: len(s.moves),
		RematchVotes: len(s.votes),
		Rounds:       s.rounds,
		CreatedAt:    s.createdAt,
	}
}

// broadcast must be called with mu held
func (s *Session) broadcast(event model.Event) {
	for _, id := range s.players {
		s.notifier.Notify(id, event)
	}
}
