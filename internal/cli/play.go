package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/rpsgame/internal/model"
)

// ErrOpponentLeft is returned when the opponent disconnects mid-session
var ErrOpponentLeft = errors.New("opponent disconnected")

const writeWait = 5 * time.Second

// PlayOptions configures a play session
type PlayOptions struct {
	Username string
	// Moves are played in order and cycled. Empty means a random move each round.
	Moves  []model.Move
	Rounds int
	// OnRound is called as each round resolves
	OnRound func(RoundReport)
	// OnWaiting is called when the server has queued us without an opponent
	OnWaiting func()
}

// ParseMoves converts flag values into moves. "random" yields no moves.
func ParseMoves(values []string) ([]model.Move, error) {
	var moves []model.Move
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" || strings.EqualFold(part, "random") {
				continue
			}
			m, err := model.ParseMove(part)
			if err != nil {
				return nil, fmt.Errorf("invalid move %q: must be rock, paper, scissors or random", part)
			}
			moves = append(moves, m)
		}
	}
	return moves, nil
}

// Play joins matchmaking over conn and plays opts.Rounds rounds against
// whoever the server pairs us with. The connection is closed on return.
func Play(ctx context.Context, conn *websocket.Conn, opts PlayOptions) (*PlaySummary, error) {
	if opts.Rounds < 1 {
		opts.Rounds = 1
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer func() { _ = conn.Close() }()

	p := &player{conn: conn, opts: opts}
	summary, err := p.run()
	if err != nil && ctx.Err() != nil {
		return summary, ctx.Err()
	}
	return summary, err
}

type player struct {
	conn *websocket.Conn
	opts PlayOptions
	id   model.ConnectionID
	room model.SessionKey
	last model.Move
}

func (p *player) run() (*PlaySummary, error) {
	summary := &PlaySummary{Username: p.opts.Username, Rounds: []RoundReport{}}

	for {
		var env model.Envelope
		if err := p.conn.ReadJSON(&env); err != nil {
			return summary, fmt.Errorf("read event: %w", err)
		}

		switch env.Type {
		case model.EventConnected:
			var payload model.ConnectedPayload
			if err := decodePayload(env, &payload); err != nil {
				return summary, err
			}
			p.id = payload.ID
			if err := p.send(model.EventSetUsername, model.SetUsernamePayload{Username: p.opts.Username}); err != nil {
				return summary, err
			}

		case model.EventWaiting:
			if p.opts.OnWaiting != nil {
				p.opts.OnWaiting()
			}

		case model.EventStartGame:
			var payload model.StartGamePayload
			if err := decodePayload(env, &payload); err != nil {
				return summary, err
			}
			p.room = payload.Room
			summary.Room = string(payload.Room)
			for id, name := range payload.Usernames {
				if id != p.id {
					summary.Opponent = name
				}
			}
			p.last = p.nextMove(len(summary.Rounds))
			if err := p.send(model.EventPlayerMove, model.PlayerMovePayload{Room: p.room, Move: p.last}); err != nil {
				return summary, err
			}

		case model.EventGameResult:
			var payload model.GameResultPayload
			if err := decodePayload(env, &payload); err != nil {
				return summary, err
			}
			report := p.report(len(summary.Rounds)+1, payload)
			summary.Rounds = append(summary.Rounds, report)
			switch report.Result {
			case "win":
				summary.Wins++
			case "loss":
				summary.Losses++
			default:
				summary.Draws++
			}
			if p.opts.OnRound != nil {
				p.opts.OnRound(report)
			}
			if len(summary.Rounds) >= p.opts.Rounds {
				p.closeNormal()
				return summary, nil
			}
			if err := p.send(model.EventPlayAgain, model.PlayAgainPayload{Room: p.room}); err != nil {
				return summary, err
			}

		case model.EventPlayerDisconnected:
			return summary, ErrOpponentLeft
		}
	}
}

func (p *player) nextMove(round int) model.Move {
	if len(p.opts.Moves) == 0 {
		moves := model.ValidMoves()
		return moves[rand.Intn(len(moves))]
	}
	return p.opts.Moves[round%len(p.opts.Moves)]
}

func (p *player) report(round int, payload model.GameResultPayload) RoundReport {
	report := RoundReport{
		Round: round,
		Room:  string(p.room),
		Move:  string(payload.Moves[p.id]),
	}
	if report.Move == "" {
		report.Move = string(p.last)
	}
	for id, m := range payload.Moves {
		if id != p.id {
			report.OpponentMove = string(m)
		}
	}
	switch payload.Result {
	case model.ResultDraw:
		report.Result = "draw"
	case string(p.id):
		report.Result = "win"
	default:
		report.Result = "loss"
	}
	return report
}

func (p *player) send(eventType model.EventType, payload any) error {
	data, err := model.Event{Type: eventType, Payload: payload}.Marshal()
	if err != nil {
		return fmt.Errorf("encode %s: %w", eventType, err)
	}
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send %s: %w", eventType, err)
	}
	return nil
}

func (p *player) closeNormal() {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done")
	_ = p.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

func decodePayload(env model.Envelope, v any) error {
	if len(env.Payload) == 0 {
		return fmt.Errorf("%s event has no payload", env.Type)
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return nil
}

func newPlayCmd() *cobra.Command {
	var (
		name   string
		moves  []string
		rounds int
		wait   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Join matchmaking and play against another player",
		Example: `  rps play --name alice --move rock
  rps play --name bob --move rock,paper,scissors --rounds 3
  rps play --name carol --rounds 5          # random moves`,
		RunE: func(cmd *cobra.Command, args []string) error {
			name = strings.TrimSpace(name)
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			if len(name) > 32 {
				return fmt.Errorf("--name must be at most 32 characters")
			}
			parsed, err := ParseMoves(moves)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()
			if wait > 0 {
				ctx, cancel = context.WithTimeout(ctx, wait)
				defer cancel()
			}

			conn, err := client.Dial(ctx)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			summary, err := Play(ctx, conn, PlayOptions{
				Username: name,
				Moves:    parsed,
				Rounds:   rounds,
				OnWaiting: func() {
					out.PrintMessage("Waiting for an opponent...")
				},
				OnRound: func(r RoundReport) {
					if cfg.Output != "json" {
						out.Print(r)
					}
				},
			})
			if err != nil {
				return err
			}

			out.Print(*summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Username to play as (required)")
	cmd.Flags().StringSliceVarP(&moves, "move", "m", nil, "Moves to play in order: rock, paper, scissors or random")
	cmd.Flags().IntVarP(&rounds, "rounds", "r", 1, "Number of rounds to play")
	cmd.Flags().DurationVar(&wait, "wait", 2*time.Minute, "Give up after this long (0 waits forever)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
