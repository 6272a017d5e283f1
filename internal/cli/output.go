package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message. Messages are suppressed in json
// mode so the stream stays machine readable.
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		return
	}
	_, _ = fmt.Fprintln(o.w, msg)
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case ScoreResult:
		o.printScore(v)
	case HealthResult:
		o.printHealthResult(v)
	case RoundReport:
		o.printRound(v)
	case PlaySummary:
		o.printPlaySummary(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// ScoreResult mirrors the score endpoint response
type ScoreResult struct {
	Username string `json:"username"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Draws    int    `json:"draws"`
}

// HealthResult mirrors the health endpoint response
type HealthResult struct {
	Status        string `json:"status"`
	Connections   int    `json:"connections"`
	Sessions      int    `json:"sessions"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// Uptime returns the reported uptime as a duration
func (h HealthResult) Uptime() time.Duration {
	return time.Duration(h.UptimeSeconds) * time.Second
}

// RoundReport is one resolved round from the local player's point of view
type RoundReport struct {
	Round        int    `json:"round"`
	Room         string `json:"room"`
	Move         string `json:"move"`
	OpponentMove string `json:"opponent_move"`
	Result       string `json:"result"` // win, loss or draw
}

// PlaySummary totals a play session
type PlaySummary struct {
	Username string        `json:"username"`
	Opponent string        `json:"opponent,omitempty"`
	Room     string        `json:"room"`
	Rounds   []RoundReport `json:"rounds"`
	Wins     int           `json:"wins"`
	Losses   int           `json:"losses"`
	Draws    int           `json:"draws"`
}

func (o *Output) printScore(s ScoreResult) {
	_, _ = fmt.Fprintf(o.w, "Player: %s\n", s.Username)
	_, _ = fmt.Fprintf(o.w, "Wins:   %d\n", s.Wins)
	_, _ = fmt.Fprintf(o.w, "Losses: %d\n", s.Losses)
	_, _ = fmt.Fprintf(o.w, "Draws:  %d\n", s.Draws)
}

func (o *Output) printRound(r RoundReport) {
	_, _ = fmt.Fprintf(o.w, "Round %d: %s vs %s -> %s\n", r.Round, r.Move, r.OpponentMove, strings.ToUpper(r.Result))
}

func (o *Output) printPlaySummary(p PlaySummary) {
	opponent := p.Opponent
	if opponent == "" {
		opponent = "(unknown)"
	}
	_, _ = fmt.Fprintf(o.w, "%s vs %s in %s\n", p.Username, opponent, p.Room)
	_, _ = fmt.Fprintf(o.w, "Total: %d won, %d lost, %d drawn\n", p.Wins, p.Losses, p.Draws)
}

func (o *Output) printHealthResult(h HealthResult) {
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	_, _ = fmt.Fprintf(o.w, "Connections: %d\n", h.Connections)
	_, _ = fmt.Fprintf(o.w, "Sessions: %d\n", h.Sessions)
	_, _ = fmt.Fprintf(o.w, "Uptime: %s\n", h.Uptime())
}
