package session

import (
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"github.com/mcoot/rpsgame/internal/dependencies/clock"
	"github.com/mcoot/rpsgame/internal/dependencies/random"
	"github.com/mcoot/rpsgame/internal/model"
)

// Manager owns the session table
type Manager struct {
	mu       sync.RWMutex
	sessions map[model.SessionKey]*Session
	byConn   map[model.ConnectionID]model.SessionKey

	notifier Notifier
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger
}

// NewManager creates an empty session table
func NewManager(notifier Notifier, clk clock.Clock, rnd random.Random, logger *slog.Logger) *Manager {
	return &Manager{
		sessions: make(map[model.SessionKey]*Session),
		byConn:   make(map[model.ConnectionID]model.SessionKey),
		notifier: notifier,
		clock:    clk,
		random:   rnd,
		logger:   logger.With(slog.String("component", "session")),
	}
}

// Create pairs two connections under a freshly generated key and sends
// start-game (with both usernames) to each of them
func (m *Manager) Create(playerOne, playerTwo model.ConnectionID, usernames map[model.ConnectionID]string) *Session {
	m.mu.Lock()
	key := model.SessionKey(m.random.Token())
	for _, exists := m.sessions[key]; exists; _, exists = m.sessions[key] {
		key = model.SessionKey(m.random.Token())
	}
	s := newSession(key, playerOne, playerTwo, usernames, m.notifier, m.clock, m.logger)
	m.sessions[key] = s
	m.byConn[playerOne] = key
	m.byConn[playerTwo] = key
	total := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info("session created",
		slog.String("session", string(key)),
		slog.String("player_one", string(playerOne)),
		slog.String("player_two", string(playerTwo)),
		slog.Int("total_sessions", total))

	s.start()
	return s
}

// Get returns the session for key or model.ErrSessionNotFound
func (m *Manager) Get(key model.SessionKey) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[key]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return s, nil
}

// ForConnection returns the session a connection participates in
func (m *Manager) ForConnection(id model.ConnectionID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key, ok := m.byConn[id]
	if !ok {
		return nil, false
	}
	s, ok := m.sessions[key]
	return s, ok
}

// SubmitMove forwards a move to the keyed session
func (m *Manager) SubmitMove(key model.SessionKey, id model.ConnectionID, move model.Move) (*model.RoundResult, error) {
	s, err := m.Get(key)
	if err != nil {
		return nil, err
	}
	return s.SubmitMove(id, move)
}

// RequestRematch forwards a rematch vote to the keyed session
func (m *Manager) RequestRematch(key model.SessionKey, id model.ConnectionID) (bool, error) {
	s, err := m.Get(key)
	if err != nil {
		return false, err
	}
	return s.RequestRematch(id)
}

// EndFor destroys the session id participates in, notifying the other
// participant. It returns the key of the destroyed session and the
// surviving participant, if any.
func (m *Manager) EndFor(id model.ConnectionID) (key model.SessionKey, survivor model.ConnectionID, ok bool) {
	m.mu.Lock()
	key, ok = m.byConn[id]
	if !ok {
		m.mu.Unlock()
		return "", "", false
	}
	s := m.sessions[key]
	delete(m.sessions, key)
	for _, p := range s.Players() {
		if m.byConn[p] == key {
			delete(m.byConn, p)
		}
	}
	m.mu.Unlock()

	s.close(id)
	return key, s.Opponent(id), true
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Summaries returns a snapshot of every live session
func (m *Manager) Summaries() []model.SessionSummary {
	m.mu.RLock()
	sessions := lo.Values(m.sessions)
	m.mu.RUnlock()

	return lo.Map(sessions, func(s *Session, _ int) model.SessionSummary {
		return s.Summary()
	})
}
