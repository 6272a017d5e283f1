package model

import "encoding/json"

// EventType identifies an event on the wire
type EventType string

const (
	// Inbound events (client -> server)
	EventSetUsername EventType = "set-username"
	EventPlayerMove  EventType = "player-move"
	EventPlayAgain   EventType = "play-again"

	// Outbound events (server -> client)
	EventConnected          EventType = "connected"
	EventWaiting            EventType = "waiting"
	EventStartGame          EventType = "start-game"
	EventGameResult         EventType = "game-result"
	EventPlayerDisconnected EventType = "player-disconnected"
)

// ResultDraw is the game-result sentinel for a drawn round
const ResultDraw = "draw"

// Envelope is the frame for every message in either direction
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SetUsernamePayload is sent by a client to bind a name and join the queue
type SetUsernamePayload struct {
	Username string `json:"username" validate:"required,max=32"`
}

// PlayerMovePayload submits a move for the current round
type PlayerMovePayload struct {
	Room SessionKey `json:"room" validate:"required"`
	Move Move       `json:"move" validate:"required,oneof=rock paper scissors"`
}

// PlayAgainPayload votes for a rematch
type PlayAgainPayload struct {
	Room SessionKey `json:"room" validate:"required"`
}

// ConnectedPayload tells a client its own connection ID
type ConnectedPayload struct {
	ID ConnectionID `json:"id"`
}

// StartGamePayload announces a (re)started game. Usernames is only set on
// the first pairing.
type StartGamePayload struct {
	Room      SessionKey              `json:"room"`
	Usernames map[ConnectionID]string `json:"usernames,omitempty"`
}

// GameResultPayload carries a resolved round. Result is the winning
// connection ID or ResultDraw.
type GameResultPayload struct {
	Result string                `json:"result"`
	Moves  map[ConnectionID]Move `json:"moves"`
}

// Event is an outbound event prior to serialization
type Event struct {
	Type    EventType
	Payload any // nil for payload-less events
}

// Marshal encodes the event as an Envelope
func (e Event) Marshal() ([]byte, error) {
	env := Envelope{Type: e.Type}
	if e.Payload != nil {
		raw, err := json.Marshal(e.Payload)
		if err != nil {
			return nil, err
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}

// GameResultFrom builds the wire payload for a resolved round
func GameResultFrom(r *RoundResult) GameResultPayload {
	result := ResultDraw
	if w := r.Winner(); w != "" {
		result = string(w)
	}
	moves := make(map[ConnectionID]Move, len(r.Moves))
	for id, m := range r.Moves {
		moves[id] = m
	}
	return GameResultPayload{Result: result, Moves: moves}
}
