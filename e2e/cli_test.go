package e2e_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/conquestgame-go/internal/api/response"
	"github.com/mcoot/conquestgame-go/internal/factory"
	"github.com/mcoot/conquestgame-go/internal/journal"
	"github.com/mcoot/conquestgame-go/internal/model"
	"github.com/mcoot/conquestgame-go/internal/protocol"
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
	binaryPath := filepath.Join(t.TempDir(), "cqgame-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/cqgame")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	return r.runWithInput("", args...)
}

func (r *cliRunner) runWithInput(stdin string, args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Stdin = strings.NewReader(stdin)
	output, err := cmd.CombinedOutput()
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

// startTestServer serves a test app's full handler, websocket included
func startTestServer(t *testing.T) (*factory.TestApp, string) {
	t.Helper()

	app := factory.NewTestApp()
	require.NoError(t, app.Start(context.Background(), false))

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = app.Shutdown(context.Background())
	})
	return app, srv.URL
}

func TestCLI_HealthCheck(t *testing.T) {
	_, url := startTestServer(t)
	cli := newCLIRunner(t, url)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp response.Health
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.LiveMatches)
}

func TestCLI_Lobby(t *testing.T) {
	app, url := startTestServer(t)
	cli := newCLIRunner(t, url)

	_, err := app.Lobby.Join(context.Background(), "Alice", model.FactionRobots)
	require.NoError(t, err)

	output, err := cli.run("lobby")
	require.NoError(t, err, "output: %s", output)

	var lobby protocol.LobbyView
	require.NoError(t, json.Unmarshal([]byte(output), &lobby))
	require.Len(t, lobby.Players, 1)
	assert.Equal(t, "Alice", lobby.Players[0].Name)
	assert.Equal(t, "Robots", lobby.Players[0].Faction)
}

func TestCLI_MatchesAndSummaries(t *testing.T) {
	app, url := startTestServer(t)
	cli := newCLIRunner(t, url)
	ctx := context.Background()

	m := &model.Match{
		ID:            "m-1",
		GridSize:      2,
		Grid:          model.NewGrid(2, 1),
		TimeRemaining: 120,
		IsGameStarted: true,
		Players:       []model.Player{{ID: "A", Name: "Alice", Faction: model.FactionHumans}},
	}
	require.NoError(t, app.Storage.SaveMatch(ctx, m))
	require.NoError(t, app.Storage.SaveSummary(ctx, &model.MatchSummary{
		ID:         "m-0",
		TileCounts: map[model.PlayerID]int{"A": 3},
		Names:      map[model.PlayerID]string{"A": "Alice"},
		Winner:     "A",
		EndedAt:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}))

	output, err := cli.run("matches", "list")
	require.NoError(t, err, "output: %s", output)
	var list response.MatchList
	require.NoError(t, json.Unmarshal([]byte(output), &list))
	assert.Equal(t, []string{"m-1"}, list.Matches)

	output, err = cli.run("matches", "get", "m-1")
	require.NoError(t, err, "output: %s", output)
	var state protocol.StateView
	require.NoError(t, json.Unmarshal([]byte(output), &state))
	assert.Equal(t, 120, state.TimeRemaining)
	assert.Len(t, state.Grid, 2)

	output, err = cli.run("matches", "get", "nope")
	require.Error(t, err)
	assert.Contains(t, output, "MATCH_NOT_FOUND")

	output, err = cli.run("summaries")
	require.NoError(t, err, "output: %s", output)
	var summaries response.SummaryList
	require.NoError(t, json.Unmarshal([]byte(output), &summaries))
	require.Len(t, summaries.Summaries, 1)
	require.NotNil(t, summaries.Summaries[0].Winner)
	assert.Equal(t, "A", *summaries.Summaries[0].Winner)

	output, err = cli.run("summaries", "m-0")
	require.NoError(t, err, "output: %s", output)
	var summary protocol.SummaryView
	require.NoError(t, json.Unmarshal([]byte(output), &summary))
	assert.Equal(t, 3, summary.TileCounts["A"])
}

func TestCLI_JournalCat(t *testing.T) {
	cli := newCLIRunner(t, "http://127.0.0.1:0")

	dir, err := journal.NewDir(t.TempDir())
	require.NoError(t, err)
	rec, err := dir.Open("m-1")
	require.NoError(t, err)
	m := &model.Match{ID: "m-1", Version: 1, TimeRemaining: 300}
	start := model.Action{Kind: model.ActionStart}
	require.NoError(t, rec.Record(journal.NewEntry(time.Now(), m, start, journal.OutcomeApplied, nil)))
	require.NoError(t, rec.Close())

	output, err := cli.run("journal", "cat", dir.PathFor("m-1"))
	require.NoError(t, err, "output: %s", output)

	var entries []journal.Entry
	require.NoError(t, json.Unmarshal([]byte(output), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, model.ActionStart, entries[0].Kind)
	assert.Equal(t, journal.OutcomeApplied, entries[0].Outcome)
}

func TestCLI_PlayJoinsLobby(t *testing.T) {
	_, url := startTestServer(t)
	cli := newCLIRunner(t, url)

	output, err := cli.runWithInput("join Alice aliens\nping\nquit\n", "play")
	require.NoError(t, err, "output: %s", output)
	assert.NotContains(t, output, "connection lost")
}
