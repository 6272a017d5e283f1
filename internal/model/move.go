package model

import "strings"

// Move is one of the three hand shapes
type Move string

const (
	MoveRock     Move = "rock"
	MovePaper    Move = "paper"
	MoveScissors Move = "scissors"
)

// beats maps each move to the move it defeats
var beats = map[Move]Move{
	MoveRock:     MoveScissors,
	MoveScissors: MovePaper,
	MovePaper:    MoveRock,
}

// ValidMoves returns every legal move
func ValidMoves() []Move {
	return []Move{MoveRock, MovePaper, MoveScissors}
}

// ParseMove converts user input into a Move, case-insensitively
func ParseMove(s string) (Move, error) {
	m := Move(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", ErrInvalidMove
	}
	return m, nil
}

// IsValid returns true for rock, paper and scissors
func (m Move) IsValid() bool {
	_, ok := beats[m]
	return ok
}

// Beats returns true if m defeats other
func (m Move) Beats(other Move) bool {
	return m.IsValid() && beats[m] == other
}

// Outcome is the resolved classification of a round
type Outcome string

const (
	OutcomePlayerOneWins Outcome = "player_one_wins"
	OutcomePlayerTwoWins Outcome = "player_two_wins"
	OutcomeDraw          Outcome = "draw"
)

// Mirror returns the outcome seen with the players swapped
func (o Outcome) Mirror() Outcome {
	switch o {
	case OutcomePlayerOneWins:
		return OutcomePlayerTwoWins
	case OutcomePlayerTwoWins:
		return OutcomePlayerOneWins
	default:
		return o
	}
}

// Decide computes the outcome of player one's move against player two's.
// Both moves must be valid.
func Decide(playerOne, playerTwo Move) Outcome {
	switch {
	case playerOne == playerTwo:
		return OutcomeDraw
	case playerOne.Beats(playerTwo):
		return OutcomePlayerOneWins
	default:
		return OutcomePlayerTwoWins
	}
}
