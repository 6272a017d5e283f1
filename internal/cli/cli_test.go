package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsgame/internal/factory"
	"github.com/mcoot/rpsgame/internal/model"
)

func TestWebSocketURL(t *testing.T) {
	tests := []struct {
		base    string
		want    string
		wantErr bool
	}{
		{base: "http://localhost:5000", want: "ws://localhost:5000/ws"},
		{base: "https://rps.example.com/", want: "wss://rps.example.com/ws"},
		{base: "http://host/prefix", want: "ws://host/prefix/ws"},
		{base: "ws://host:1", want: "ws://host:1/ws"},
		{base: "ftp://host", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			got, err := NewClient(tt.base, time.Second).WebSocketURL()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMoves(t *testing.T) {
	moves, err := ParseMoves([]string{"Rock", "paper,scissors"})
	require.NoError(t, err)
	assert.Equal(t, []model.Move{model.MoveRock, model.MovePaper, model.MoveScissors}, moves)

	moves, err = ParseMoves([]string{"random"})
	require.NoError(t, err)
	assert.Empty(t, moves)

	_, err = ParseMoves([]string{"lizard"})
	assert.ErrorContains(t, err, "lizard")
}

type CLISuite struct {
	suite.Suite
	app    *factory.TestApp
	server *httptest.Server
	ctx    context.Context
	cancel context.CancelFunc
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}

func (s *CLISuite) SetupTest() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 10*time.Second)
	s.app = factory.NewTestApp()
	s.app.Start(s.ctx)
	s.server = httptest.NewServer(s.app.Handler("*"))
}

func (s *CLISuite) TearDownTest() {
	s.server.Close()
	s.Require().NoError(s.app.Close())
	s.cancel()
}

func (s *CLISuite) run(args ...string) (string, error) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", s.server.URL}, args...))
	err := cmd.ExecuteContext(s.ctx)
	return out.String(), err
}

func (s *CLISuite) dial() *websocket.Conn {
	conn, err := NewClient(s.server.URL, time.Second).Dial(s.ctx)
	s.Require().NoError(err)
	return conn
}

func (s *CLISuite) TestScore() {
	s.Require().NoError(s.app.Ledger.RecordOutcome(s.ctx, "alice", "bob", model.OutcomePlayerOneWins))

	out, err := s.run("score", "alice")
	s.Require().NoError(err)
	s.Contains(out, "Player: alice")
	s.Contains(out, "Wins:   1")
	s.Contains(out, "Losses: 0")
}

func (s *CLISuite) TestScoreJSON() {
	s.Require().NoError(s.app.Ledger.RecordOutcome(s.ctx, "alice", "bob", model.OutcomeDraw))

	out, err := s.run("-o", "json", "score", "bob")
	s.Require().NoError(err)

	var result ScoreResult
	s.Require().NoError(json.Unmarshal([]byte(out), &result))
	s.Equal(ScoreResult{Username: "bob", Draws: 1}, result)
}

func (s *CLISuite) TestScoreUnknownPlayerIsZero() {
	out, err := s.run("score", "nobody")
	s.Require().NoError(err)
	s.Contains(out, "Wins:   0")
}

func (s *CLISuite) TestScoreRejectedByServer() {
	_, err := s.run("score", strings.Repeat("x", 33))
	s.Require().Error(err)
	s.Contains(err.Error(), "INVALID_REQUEST")
}

func (s *CLISuite) TestHealth() {
	s.app.MockClock.Advance(90 * time.Minute)

	out, err := s.run("health")
	s.Require().NoError(err)
	s.Contains(out, "Status: ok")
	s.Contains(out, "Connections: 0")
	s.Contains(out, "Sessions: 0")
	s.Contains(out, "Uptime: 1h30m0s")
}

func (s *CLISuite) TestHealthJSON() {
	conn := s.dial()
	defer func() { _ = conn.Close() }()
	s.Eventually(func() bool { return s.app.Connections() == 1 }, time.Second, 5*time.Millisecond)

	out, err := s.run("-o", "json", "health")
	s.Require().NoError(err)

	var result HealthResult
	s.Require().NoError(json.Unmarshal([]byte(out), &result))
	s.Equal(HealthResult{Status: "ok", Connections: 1}, result)
}

func (s *CLISuite) TestPlayRequiresName() {
	_, err := s.run("play")
	s.Error(err)
}

func (s *CLISuite) TestPlayRejectsBadMove() {
	_, err := s.run("play", "--name", "alice", "--move", "lizard")
	s.ErrorContains(err, "invalid move")
}

func (s *CLISuite) TestTwoPlayersPlaySeveralRounds() {
	var (
		wg               sync.WaitGroup
		aliceSum, bobSum *PlaySummary
		aliceErr, bobErr error
		once             sync.Once
	)
	waiting := make(chan struct{})

	aliceConn := s.dial()
	wg.Add(1)
	go func() {
		defer wg.Done()
		aliceSum, aliceErr = Play(s.ctx, aliceConn, PlayOptions{
			Username:  "alice",
			Moves:     []model.Move{model.MoveRock, model.MovePaper},
			Rounds:    2,
			OnWaiting: func() { once.Do(func() { close(waiting) }) },
		})
	}()

	select {
	case <-waiting:
	case <-time.After(5 * time.Second):
		s.FailNow("alice was never queued")
	}

	bobConn := s.dial()
	wg.Add(1)
	go func() {
		defer wg.Done()
		bobSum, bobErr = Play(s.ctx, bobConn, PlayOptions{
			Username: "bob",
			Moves:    []model.Move{model.MoveScissors},
			Rounds:   2,
		})
	}()
	wg.Wait()

	s.Require().NoError(aliceErr)
	s.Require().NoError(bobErr)

	s.Equal("bob", aliceSum.Opponent)
	s.Equal("alice", bobSum.Opponent)
	s.Equal(aliceSum.Room, bobSum.Room)
	s.Require().Len(aliceSum.Rounds, 2)

	// rock beats scissors, scissors beats paper
	s.Equal("win", aliceSum.Rounds[0].Result)
	s.Equal("scissors", aliceSum.Rounds[0].OpponentMove)
	s.Equal("loss", aliceSum.Rounds[1].Result)
	s.Equal(1, aliceSum.Wins)
	s.Equal(1, aliceSum.Losses)
	s.Equal(1, bobSum.Wins)
	s.Equal(1, bobSum.Losses)

	s.Eventually(func() bool {
		score, err := s.app.Ledger.GetScore(s.ctx, "alice")
		return err == nil && score.Wins == 1 && score.Losses == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *CLISuite) TestPlayCommandPrintsRounds() {
	bobConn := s.dial()
	done := make(chan error, 1)
	go func() {
		_, err := Play(s.ctx, bobConn, PlayOptions{
			Username: "bob",
			Moves:    []model.Move{model.MoveScissors},
		})
		done <- err
	}()
	s.Eventually(func() bool { return s.app.Connections() == 1 }, time.Second, 5*time.Millisecond)

	out, err := s.run("play", "--name", "alice", "--move", "rock")
	s.Require().NoError(err)
	s.Require().NoError(<-done)

	s.Contains(out, "Round 1: rock vs scissors -> WIN")
	s.Contains(out, "alice vs bob in")
	s.Contains(out, "Total: 1 won, 0 lost, 0 drawn")
}

func (s *CLISuite) TestOpponentLeavingEndsPlay() {
	aliceConn := s.dial()
	done := make(chan error, 1)
	go func() {
		_, err := Play(s.ctx, aliceConn, PlayOptions{Username: "alice", Rounds: 3})
		done <- err
	}()
	s.Eventually(func() bool { return s.app.Connections() == 1 }, time.Second, 5*time.Millisecond)

	bob := s.dial()
	var env model.Envelope
	s.Require().NoError(bob.ReadJSON(&env))
	s.Require().Equal(model.EventConnected, env.Type)
	s.Require().NoError(bob.WriteJSON(map[string]any{
		"type":    model.EventSetUsername,
		"payload": model.SetUsernamePayload{Username: "bob"},
	}))
	for env.Type != model.EventStartGame {
		s.Require().NoError(bob.ReadJSON(&env))
	}
	s.Require().NoError(bob.Close())

	select {
	case err := <-done:
		s.ErrorIs(err, ErrOpponentLeft)
	case <-time.After(5 * time.Second):
		s.Fail("play did not return after opponent left")
	}
}

func (s *CLISuite) TestPlayGivesUpWhenContextEnds() {
	ctx, cancel := context.WithTimeout(s.ctx, 100*time.Millisecond)
	defer cancel()

	_, err := Play(ctx, s.dial(), PlayOptions{Username: "lonely"})
	s.ErrorIs(err, context.DeadlineExceeded)
}
