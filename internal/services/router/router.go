package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/mcoot/rpsgame/internal/dependencies/clock"
	"github.com/mcoot/rpsgame/internal/dependencies/random"
	"github.com/mcoot/rpsgame/internal/model"
	"github.com/mcoot/rpsgame/internal/services/ledger"
	"github.com/mcoot/rpsgame/internal/services/matchmaking"
	"github.com/mcoot/rpsgame/internal/services/registry"
	"github.com/mcoot/rpsgame/internal/services/session"
)

// Router is the single coordination domain for connection events. It owns
// the matchmaking queue and the session table and turns inbound envelopes
// into component calls and outbound events.
type Router struct {
	// matchMu serializes pairing against disconnect so a connection that
	// has gone can never be handed to a new session
	matchMu sync.Mutex

	registry *registry.Registry
	queue    *matchmaking.Queue
	sessions *session.Manager
	ledger   *ledger.Ledger
	validate *validator.Validate
	clock    clock.Clock
	logger   *slog.Logger
}

// New creates a Router over the given registry and ledger
func New(
	reg *registry.Registry,
	led *ledger.Ledger,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
) *Router {
	r := &Router{
		registry: reg,
		ledger:   led,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		clock:    clk,
		logger:   logger.With(slog.String("component", "router")),
	}
	r.queue = matchmaking.NewQueue(reg, logger)
	r.sessions = session.NewManager(r, clk, rnd, logger)
	return r
}

// Sessions exposes the session table for read-only projections
func (r *Router) Sessions() *session.Manager {
	return r.sessions
}

// Registry exposes the connection registry for read-only projections
func (r *Router) Registry() *registry.Registry {
	return r.registry
}

// Notify serializes event and hands it to the connection's sender.
// Unknown or saturated connections drop the event.
func (r *Router) Notify(to model.ConnectionID, event model.Event) {
	data, err := event.Marshal()
	if err != nil {
		r.logger.Error("failed to encode event",
			slog.String("type", string(event.Type)),
			slog.Any("error", err))
		return
	}
	if !r.registry.Send(to, data) {
		r.logger.Debug("event not delivered",
			slog.String("connection_id", string(to)),
			slog.String("type", string(event.Type)))
	}
}

// Connect registers a new connection and tells it its identity
func (r *Router) Connect(sender registry.Sender) model.ConnectionID {
	conn := r.registry.Add(sender)
	r.Notify(conn.ID, model.Event{
		Type:    model.EventConnected,
		Payload: model.ConnectedPayload{ID: conn.ID},
	})
	r.logger.Info("connection opened",
		slog.String("connection_id", string(conn.ID)),
		slog.Int("connections", r.registry.Count()))
	return conn.ID
}

// Disconnect removes a connection, clearing the waiting slot or ending its
// session as required. It is safe to call more than once.
func (r *Router) Disconnect(id model.ConnectionID) {
	r.matchMu.Lock()
	wasWaiting := r.queue.Leave(id)
	conn, known := r.registry.Remove(id)
	key, survivor, ended := r.sessions.EndFor(id)
	if ended && survivor != "" {
		// The survivor has to re-register to be queued again
		if err := r.registry.SetState(survivor, model.ConnectionUnbound, ""); err != nil {
			r.logger.Debug("survivor already gone",
				slog.String("connection_id", string(survivor)),
				slog.Any("error", err))
		}
	}
	r.matchMu.Unlock()

	if !known {
		return
	}

	attrs := []any{
		slog.String("connection_id", string(id)),
		slog.String("username", conn.Username),
		slog.Duration("connected_for", clock.Since(r.clock, conn.ConnectedAt)),
		slog.Bool("was_waiting", wasWaiting),
	}
	if ended {
		attrs = append(attrs,
			slog.String("session", string(key)),
			slog.String("survivor", string(survivor)))
	}
	r.logger.Info("connection closed", attrs...)
}

// HandleMessage decodes and dispatches one inbound frame. Stale references
// and malformed frames are logged and returned but never affect other
// connections; callers may ignore the error.
func (r *Router) HandleMessage(ctx context.Context, id model.ConnectionID, data []byte) error {
	err := r.dispatch(ctx, id, data)
	if err == nil {
		return nil
	}

	attrs := []any{slog.String("connection_id", string(id)), slog.Any("error", err)}
	switch {
	case errors.Is(err, model.ErrSessionNotFound),
		errors.Is(err, model.ErrNotParticipant),
		errors.Is(err, model.ErrConnectionNotFound):
		r.logger.DebugContext(ctx, "ignoring stale event", attrs...)
	case errors.Is(err, model.ErrMalformedEvent),
		errors.Is(err, model.ErrUnknownEvent),
		errors.Is(err, model.ErrInvalidMove),
		errors.Is(err, model.ErrInvalidUsername):
		r.logger.WarnContext(ctx, "rejected event", attrs...)
	default:
		r.logger.ErrorContext(ctx, "event failed", attrs...)
	}
	return err
}

func (r *Router) dispatch(ctx context.Context, id model.ConnectionID, data []byte) error {
	var env model.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: %v", model.ErrMalformedEvent, err)
	}

	switch env.Type {
	case model.EventSetUsername:
		var p model.SetUsernamePayload
		if err := r.decode(env, &p); err != nil {
			return err
		}
		return r.SetUsername(ctx, id, p.Username)

	case model.EventPlayerMove:
		var p model.PlayerMovePayload
		if err := r.decode(env, &p); err != nil {
			return err
		}
		return r.SubmitMove(ctx, id, p.Room, p.Move)

	case model.EventPlayAgain:
		var p model.PlayAgainPayload
		if err := r.decode(env, &p); err != nil {
			return err
		}
		return r.PlayAgain(ctx, id, p.Room)

	default:
		return fmt.Errorf("%w: %q", model.ErrUnknownEvent, env.Type)
	}
}

func (r *Router) decode(env model.Envelope, v any) error {
	if len(env.Payload) == 0 {
		return fmt.Errorf("%w: %s has no payload", model.ErrMalformedEvent, env.Type)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrMalformedEvent, env.Type, err)
	}
	if err := r.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrMalformedEvent, env.Type, err)
	}
	return nil
}

// SetUsername binds name to the connection and places it in matchmaking.
// A connection already waiting is told it is waiting again; one already in
// a session only has its name changed.
func (r *Router) SetUsername(ctx context.Context, id model.ConnectionID, name string) error {
	r.matchMu.Lock()
	defer r.matchMu.Unlock()

	conn, ok := r.registry.Get(id)
	if !ok {
		return model.ErrConnectionNotFound
	}
	if err := r.registry.SetUsername(id, name); err != nil {
		return err
	}
	bound, _ := r.registry.Username(id)
	r.ledger.Touch(bound)

	if conn.State == model.ConnectionInSession {
		r.logger.InfoContext(ctx, "renamed in session",
			slog.String("connection_id", string(id)),
			slog.String("username", bound),
			slog.String("session", string(conn.Session)))
		return nil
	}

	match, paired := r.queue.Join(id)
	if !paired {
		if err := r.registry.SetState(id, model.ConnectionWaiting, ""); err != nil {
			return err
		}
		r.Notify(id, model.Event{Type: model.EventWaiting})
		r.logger.InfoContext(ctx, "waiting for opponent",
			slog.String("connection_id", string(id)),
			slog.String("username", bound))
		return nil
	}

	usernames := make(map[model.ConnectionID]string, 2)
	for _, p := range []model.ConnectionID{match.PlayerOne, match.PlayerTwo} {
		n, _ := r.registry.Username(p)
		usernames[p] = n
	}

	s := r.sessions.Create(match.PlayerOne, match.PlayerTwo, usernames)
	for _, p := range []model.ConnectionID{match.PlayerOne, match.PlayerTwo} {
		if err := r.registry.SetState(p, model.ConnectionInSession, s.Key()); err != nil {
			return err
		}
	}
	return nil
}

// SubmitMove forwards a move to its session. When it resolves the round the
// outcome is queued for the ledger.
func (r *Router) SubmitMove(ctx context.Context, id model.ConnectionID, room model.SessionKey, move model.Move) error {
	s, err := r.sessions.Get(room)
	if err != nil {
		return err
	}

	result, err := s.SubmitMove(id, move)
	if err != nil || result == nil {
		return err
	}

	nameOne := r.nameFor(s, result.PlayerOne)
	nameTwo := r.nameFor(s, result.PlayerTwo)
	if nameOne == "" || nameTwo == "" {
		r.logger.WarnContext(ctx, "round resolved without usernames, not scored",
			slog.String("session", string(room)))
		return nil
	}
	r.ledger.Submit(nameOne, nameTwo, result.Outcome)
	return nil
}

// PlayAgain records a rematch vote
func (r *Router) PlayAgain(ctx context.Context, id model.ConnectionID, room model.SessionKey) error {
	_, err := r.sessions.RequestRematch(room, id)
	return err
}

// nameFor prefers the current binding and falls back to the name captured
// when the session was created
func (r *Router) nameFor(s *session.Session, id model.ConnectionID) string {
	if name, ok := r.registry.Username(id); ok && name != "" {
		return name
	}
	return s.Username(id)
}
