package response

import "github.com/mcoot/rpsgame/internal/model"

// Score is a player's cumulative record
type Score struct {
	Username string `json:"username"`
	Wins     int64  `json:"wins"`
	Losses   int64  `json:"losses"`
	Draws    int64  `json:"draws"`
}

// ScoreFromModel converts model.Score
func ScoreFromModel(s *model.Score) Score {
	return Score{
		Username: s.Username,
		Wins:     s.Wins,
		Losses:   s.Losses,
		Draws:    s.Draws,
	}
}

// Health is the health check response
type Health struct {
	Status        string `json:"status"`
	Connections   int    `json:"connections"`
	Sessions      int    `json:"sessions"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}
