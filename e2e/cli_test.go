package e2e_test

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpsgame/internal/api"
	"github.com/mcoot/rpsgame/internal/factory"
	"github.com/mcoot/rpsgame/internal/testutil"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "rps-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/rps")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.Output()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// startTestServer runs the real server stack on a free port
func startTestServer(t *testing.T) string {
	t.Helper()

	app, err := factory.New(factory.Config{Logger: testutil.NopLogger()})
	require.NoError(t, err)
	app.Start(context.Background())

	cfg := api.DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	server := api.NewServer(app.Handler("*"), cfg, testutil.NopLogger())
	require.NoError(t, server.Listen())

	go func() {
		if err := server.Start(); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
		_ = app.Close()
	})

	serverURL := "http://" + server.Addr()
	waitForServer(t, serverURL+"/api/v1/health")
	return serverURL
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type healthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	Sessions    int    `json:"sessions"`
}

type scoreResponse struct {
	Username string `json:"username"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Draws    int    `json:"draws"`
}

type playResponse struct {
	Username string `json:"username"`
	Opponent string `json:"opponent"`
	Room     string `json:"room"`
	Rounds   []struct {
		Round        int    `json:"round"`
		Move         string `json:"move"`
		OpponentMove string `json:"opponent_move"`
		Result       string `json:"result"`
	} `json:"rounds"`
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	serverURL := startTestServer(t)
	cli := newCLIRunner(t, serverURL)

	output, err := cli.run("health")
	require.NoError(t, err, output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Sessions)
}

func TestCLI_ScoreForUnknownPlayer(t *testing.T) {
	serverURL := startTestServer(t)
	cli := newCLIRunner(t, serverURL)

	output, err := cli.run("score", "ghost")
	require.NoError(t, err, output)

	var resp scoreResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, scoreResponse{Username: "ghost"}, resp)
}

func TestCLI_ScoreRejectsLongName(t *testing.T) {
	serverURL := startTestServer(t)
	cli := newCLIRunner(t, serverURL)

	_, err := cli.run("score", "abcdefghijklmnopqrstuvwxyz0123456789")
	assert.Error(t, err)
}

func TestCLI_TwoPlayersFullFlow(t *testing.T) {
	serverURL := startTestServer(t)
	cli := newCLIRunner(t, serverURL)

	var (
		wg               sync.WaitGroup
		aliceOut, bobOut string
		aliceErr, bobErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		aliceOut, aliceErr = cli.run("play", "--name", "alice", "--move", "rock,rock,paper", "--rounds", "3", "--wait", "20s")
	}()
	go func() {
		defer wg.Done()
		bobOut, bobErr = cli.run("play", "--name", "bob", "--move", "scissors,rock,paper", "--rounds", "3", "--wait", "20s")
	}()
	wg.Wait()

	require.NoError(t, aliceErr, aliceOut)
	require.NoError(t, bobErr, bobOut)

	var alice, bob playResponse
	require.NoError(t, json.Unmarshal([]byte(aliceOut), &alice))
	require.NoError(t, json.Unmarshal([]byte(bobOut), &bob))

	assert.Equal(t, "bob", alice.Opponent)
	assert.Equal(t, "alice", bob.Opponent)
	assert.Equal(t, alice.Room, bob.Room)
	require.Len(t, alice.Rounds, 3)

	// rock beats scissors, then two draws
	assert.Equal(t, "win", alice.Rounds[0].Result)
	assert.Equal(t, "draw", alice.Rounds[1].Result)
	assert.Equal(t, "draw", alice.Rounds[2].Result)
	assert.Equal(t, 1, alice.Wins)
	assert.Equal(t, 2, alice.Draws)
	assert.Equal(t, 1, bob.Losses)

	// Score writes are asynchronous
	require.Eventually(t, func() bool {
		output, err := cli.run("score", "alice")
		if err != nil {
			return false
		}
		var resp scoreResponse
		if json.Unmarshal([]byte(output), &resp) != nil {
			return false
		}
		return resp == scoreResponse{Username: "alice", Wins: 1, Draws: 2}
	}, 5*time.Second, 50*time.Millisecond)

	output, err := cli.run("score", "bob")
	require.NoError(t, err, output)
	var bobScore scoreResponse
	require.NoError(t, json.Unmarshal([]byte(output), &bobScore))
	assert.Equal(t, scoreResponse{Username: "bob", Losses: 1, Draws: 2}, bobScore)
}
