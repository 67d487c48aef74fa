package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/conquestgame-go/internal/api"
	"github.com/mcoot/conquestgame-go/internal/api/apierr"
	"github.com/mcoot/conquestgame-go/internal/api/response"
	"github.com/mcoot/conquestgame-go/internal/factory"
	"github.com/mcoot/conquestgame-go/internal/model"
	"github.com/mcoot/conquestgame-go/internal/protocol"
	"github.com/mcoot/conquestgame-go/internal/testutil"
)

// testServer wraps the router of a test app
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })

	router := api.NewRouter(api.RouterConfig{
		Logger:  testutil.NopLogger(),
		Lobby:   app.Lobby,
		Live:    app.Registry,
		Storage: app.Storage,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apierr.APIError {
	t.Helper()
	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error
}

func storedMatch(id model.MatchID) *model.Match {
	m := &model.Match{
		ID:            id,
		GridSize:      3,
		Grid:          model.NewGrid(3, 1),
		TimeRemaining: 42,
		IsGameStarted: true,
		Players: []model.Player{
			{ID: "A", Name: "Ann", Faction: model.FactionHumans},
		},
	}
	m.Grid.At(model.Position{X: 1, Y: 1}).Owner = "A"
	m.Players[0].AddTile(model.Position{X: 1, Y: 1})
	return m
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/health")
	assert.Equal(t, http.StatusOK, rr.Code)

	var body response.Health
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 0, body.LiveMatches)
}

func TestGetLobby(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	rr := ts.get("/api/v1/lobby")
	require.Equal(t, http.StatusOK, rr.Code)
	var empty protocol.LobbyView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &empty))
	assert.Empty(t, empty.Players)

	_, err := ts.app.Lobby.Join(ctx, "Ann", model.FactionAliens)
	require.NoError(t, err)

	rr = ts.get("/api/v1/lobby")
	require.Equal(t, http.StatusOK, rr.Code)
	var lobby protocol.LobbyView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &lobby))
	require.Len(t, lobby.Players, 1)
	assert.Equal(t, "Ann", lobby.Players[0].Name)
	assert.Equal(t, string(model.FactionAliens), lobby.Players[0].Faction)
	assert.False(t, lobby.Players[0].IsReady)
}

func TestMatches(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, ts.app.Storage.SaveMatch(ctx, storedMatch("m-2")))
	require.NoError(t, ts.app.Storage.SaveMatch(ctx, storedMatch("m-1")))

	t.Run("list", func(t *testing.T) {
		rr := ts.get("/api/v1/matches")
		require.Equal(t, http.StatusOK, rr.Code)
		var list response.MatchList
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
		assert.Equal(t, []string{"m-1", "m-2"}, list.Matches)
	})

	t.Run("get", func(t *testing.T) {
		rr := ts.get("/api/v1/matches/m-1")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
		var view protocol.StateView
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
		assert.Equal(t, "m-1", view.MatchID)
		assert.Equal(t, 42, view.TimeRemaining)
		require.Len(t, view.Grid, 3)
		require.NotNil(t, view.Grid[1][1].Owner)
		assert.Equal(t, "A", *view.Grid[1][1].Owner)
		assert.Nil(t, view.Grid[0][0].Owner)
	})

	t.Run("unknown", func(t *testing.T) {
		rr := ts.get("/api/v1/matches/nope")
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, apierr.CodeMatchNotFound, decodeError(t, rr).Code)
	})
}

func TestSummaries(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	ended := time.Date(2024, 1, 1, 12, 5, 0, 0, time.UTC)

	require.NoError(t, ts.app.Storage.SaveSummary(ctx, &model.MatchSummary{
		ID:         "late",
		TileCounts: map[model.PlayerID]int{"A": 4, "B": 2},
		Names:      map[model.PlayerID]string{"A": "Ann", "B": "Bo"},
		Winner:     "A",
		EndedAt:    ended.Add(time.Minute),
	}))
	require.NoError(t, ts.app.Storage.SaveSummary(ctx, &model.MatchSummary{
		ID:         "early",
		TileCounts: map[model.PlayerID]int{"A": 3, "B": 3},
		Names:      map[model.PlayerID]string{"A": "Ann", "B": "Bo"},
		EndedAt:    ended,
	}))

	rr := ts.get("/api/v1/summaries")
	require.Equal(t, http.StatusOK, rr.Code)
	var list response.SummaryList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Summaries, 2)
	assert.Equal(t, "early", list.Summaries[0].MatchID)
	assert.Nil(t, list.Summaries[0].Winner)
	require.NotNil(t, list.Summaries[1].Winner)
	assert.Equal(t, "A", *list.Summaries[1].Winner)

	rr = ts.get("/api/v1/summaries/late")
	require.Equal(t, http.StatusOK, rr.Code)
	var one protocol.SummaryView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &one))
	assert.Equal(t, 4, one.TileCounts["A"])
	assert.Equal(t, "Bo", one.Names["B"])

	rr = ts.get("/api/v1/summaries/missing")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeSummaryNotFound, decodeError(t, rr).Code)
}

func TestUnroutedRequests(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/nothing-here")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeNotFound, decodeError(t, rr).Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/lobby", nil)
	rr = httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, apierr.CodeMethodNotAllowed, decodeError(t, rr).Code)
}

func TestWebSocketRouteOnlyWhenConfigured(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.get("/ws")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	called := false
	router := api.NewRouter(api.RouterConfig{
		Logger:  testutil.NopLogger(),
		Lobby:   ts.app.Lobby,
		Storage: ts.app.Storage,
		WebSocket: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			called = true
			w.WriteHeader(http.StatusTeapot)
		}),
	})
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.True(t, called)
	assert.Equal(t, http.StatusTeapot, rr.Code)
}
