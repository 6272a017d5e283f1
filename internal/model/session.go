package model

import "time"

// SessionKey identifies a session. It is generated at pairing time and is
// independent of the participants' connection IDs.
type SessionKey string

// RoundResult is the record of one resolved round
type RoundResult struct {
	Session   SessionKey
	PlayerOne ConnectionID
	PlayerTwo ConnectionID
	Moves     map[ConnectionID]Move
	Outcome   Outcome
	Round     int // 1-indexed count of rounds resolved in this session
	DecidedAt time.Time
}

// Winner returns the winning connection, or "" on a draw
func (r *RoundResult) Winner() ConnectionID {
	switch r.Outcome {
	case OutcomePlayerOneWins:
		return r.PlayerOne
	case OutcomePlayerTwoWins:
		return r.PlayerTwo
	default:
		return ""
	}
}

// SessionSummary is a read-only snapshot of a session
type SessionSummary struct {
	Key          SessionKey
	Players      [2]ConnectionID
	Usernames    map[ConnectionID]string
	PendingMoves int
	RematchVotes int
	Rounds       int
	CreatedAt    time.Time
}
