package model

// ScoreField names one counter of a score record
type ScoreField string

const (
	ScoreWins   ScoreField = "wins"
	ScoreLosses ScoreField = "losses"
	ScoreDraws  ScoreField = "draws"
)

// ValidScoreFields returns every counter field
func ValidScoreFields() []ScoreField {
	return []ScoreField{ScoreWins, ScoreLosses, ScoreDraws}
}

// IsValid returns true for wins, losses and draws
func (f ScoreField) IsValid() bool {
	switch f {
	case ScoreWins, ScoreLosses, ScoreDraws:
		return true
	}
	return false
}

// Score is the cumulative record for one username
type Score struct {
	Username string
	Wins     int64
	Losses   int64
	Draws    int64
}

// ZeroScore returns an empty record for the given username
func ZeroScore(username string) *Score {
	return &Score{Username: username}
}

// Increment bumps the given field by one
func (s *Score) Increment(field ScoreField) {
	switch field {
	case ScoreWins:
		s.Wins++
	case ScoreLosses:
		s.Losses++
	case ScoreDraws:
		s.Draws++
	}
}

// FieldsFor returns the counters to bump for player one and player two
// given a round outcome
func FieldsFor(outcome Outcome) (playerOne, playerTwo ScoreField) {
	switch outcome {
	case OutcomePlayerOneWins:
		return ScoreWins, ScoreLosses
	case OutcomePlayerTwoWins:
		return ScoreLosses, ScoreWins
	default:
		return ScoreDraws, ScoreDraws
	}
}
