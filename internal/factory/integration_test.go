package factory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/conquestgame-go/internal/config"
	"github.com/mcoot/conquestgame-go/internal/model"
	"github.com/mcoot/conquestgame-go/internal/protocol"
)

type IntegrationSuite struct {
	suite.Suite
	app    *TestApp
	server *httptest.Server
	ctx    context.Context
	cancel context.CancelFunc
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	tuning := config.DefaultTuning()
	tuning.Rules.AnnexBaseCost = 0
	s.app = NewTestAppWithTuning(tuning)
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 10*time.Second)
	s.Require().NoError(s.app.Start(s.ctx, false))
	s.server = httptest.NewServer(s.app.Handler())
}

func (s *IntegrationSuite) TearDownTest() {
	s.server.Close()
	s.NoError(s.app.Shutdown(context.Background()))
	s.cancel()
}

func (s *IntegrationSuite) dial() *websocket.Conn {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close() })
	return conn
}

func (s *IntegrationSuite) send(conn *websocket.Conn, t protocol.MessageType, payload any) {
	frame, err := protocol.Encode(t, payload)
	s.Require().NoError(err)
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, frame))
}

// expect reads frames until one of type t arrives and decodes its payload into out
func (s *IntegrationSuite) expect(conn *websocket.Conn, t model.EventType, out any) {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(3 * time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		s.Require().NoError(err, "waiting for %s", t)
		var env protocol.Envelope
		s.Require().NoError(json.Unmarshal(data, &env))
		if env.Type != protocol.MessageType(t) {
			continue
		}
		if out != nil {
			s.Require().NoError(json.Unmarshal(env.Payload, out))
		}
		return
	}
}

func (s *IntegrationSuite) join(conn *websocket.Conn, name string, faction model.Faction) string {
	s.send(conn, protocol.TypeJoinLobby, protocol.JoinLobby{Name: name, Faction: string(faction)})
	var joined protocol.LobbyJoined
	s.expect(conn, model.EventLobbyJoined, &joined)
	s.Require().NotEmpty(joined.PlayerID)
	return joined.PlayerID
}

// startTwoPlayerMatch joins two players, readies them and starts a match
func (s *IntegrationSuite) startTwoPlayerMatch() (c1, c2 *websocket.Conn, p1, p2, matchID string) {
	c1, c2 = s.dial(), s.dial()
	p1 = s.join(c1, "Ann", model.FactionHumans)
	p2 = s.join(c2, "Bo", model.FactionRobots)

	s.send(c1, protocol.TypeToggleReady, struct{}{})
	s.send(c2, protocol.TypeToggleReady, struct{}{})
	s.Require().Eventually(func() bool {
		lobby, err := s.app.Lobby.Snapshot(s.ctx)
		return err == nil && len(lobby.Players) == 2 && lobby.AllReady()
	}, 2*time.Second, 5*time.Millisecond)

	s.app.MockRandom.QueueIntn(2, 2, 20, 20)
	s.send(c1, protocol.TypeStartMatch, struct{}{})

	var started protocol.MatchStarted
	s.expect(c1, model.EventMatchStarted, &started)
	s.expect(c2, model.EventMatchStarted, nil)
	s.Require().Len(started.Players, 2)
	return c1, c2, p1, p2, started.MatchID
}

func (s *IntegrationSuite) TestLobbyToMatchOverWebsocket() {
	c1, c2, p1, _, matchID := s.startTwoPlayerMatch()

	x, y := 3, 2
	s.send(c1, protocol.TypeGameAction, protocol.GameAction{
		MatchID: matchID,
		Action: protocol.ActionRequest{
			Kind:    string(model.ActionAnnex),
			Payload: protocol.ActionPayload{X: &x, Y: &y},
		},
	})

	var accepted protocol.ActionAccepted
	s.expect(c1, model.EventActionAccepted, &accepted)
	s.Equal(string(model.ActionAnnex), accepted.Kind)
	s.Require().NotNil(accepted.State.Grid[2][3].Owner)
	s.Equal(p1, *accepted.State.Grid[2][3].Owner)

	var update protocol.StateUpdate
	s.expect(c2, model.EventStateUpdate, &update)
	s.Equal(string(model.ActionAnnex), update.Kind)
	s.Require().NotNil(update.AppliedAction.PlayerID)
	s.Equal(p1, *update.AppliedAction.PlayerID)

	// The committed snapshot is visible over HTTP
	resp, err := http.Get(s.server.URL + "/api/v1/matches/" + matchID)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
	var view protocol.StateView
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&view))
	s.Require().NotNil(view.Grid[2][3].Owner)
	s.Equal(p1, *view.Grid[2][3].Owner)
}

func (s *IntegrationSuite) TestRejectedActionOnlyReachesActor() {
	c1, _, _, _, matchID := s.startTwoPlayerMatch()

	x, y := 10, 10
	s.send(c1, protocol.TypeGameAction, protocol.GameAction{
		MatchID: matchID,
		Action: protocol.ActionRequest{
			Kind:    string(model.ActionAnnex),
			Payload: protocol.ActionPayload{X: &x, Y: &y},
		},
	})

	var rejected protocol.ActionRejected
	s.expect(c1, model.EventActionRejected, &rejected)
	s.Equal(model.ErrNotAdjacent.Error(), rejected.Reason)
}

func (s *IntegrationSuite) TestReconnectAfterDroppedConnection() {
	c1, c2, _, p2, matchID := s.startTwoPlayerMatch()

	s.Require().NoError(c2.Close())

	var dropped protocol.PlayerDisconnected
	s.expect(c1, model.EventPlayerDisconnected, &dropped)
	s.Equal(p2, dropped.PlayerID)
	s.Require().Eventually(func() bool {
		return s.app.Connections.PendingTimers() == 1
	}, 2*time.Second, 5*time.Millisecond)

	c3 := s.dial()
	s.send(c3, protocol.TypeReconnect, protocol.Reconnect{PlayerID: p2, MatchID: matchID})

	var snapshot protocol.StateSnapshot
	s.expect(c3, model.EventStateSnapshot, &snapshot)
	s.Equal(matchID, snapshot.MatchID)

	var rebound protocol.PlayerRebound
	s.expect(c1, model.EventPlayerRebound, &rebound)
	s.Equal(p2, rebound.PlayerID)
	s.NotEmpty(rebound.OldID)
	s.NotEqual(rebound.OldID, rebound.NewID)
	s.Eventually(func() bool {
		return s.app.Connections.PendingTimers() == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func (s *IntegrationSuite) TestReconnectToUnknownMatchIsRejected() {
	conn := s.dial()
	s.send(conn, protocol.TypeReconnect, protocol.Reconnect{PlayerID: "ghost", MatchID: "nope"})

	var rejected protocol.ReconnectRejected
	s.expect(conn, model.EventReconnectRejected, &rejected)
	s.Equal("match not found", rejected.Reason)
}

func (s *IntegrationSuite) TestSoloMatchAgainstAI() {
	conn := s.dial()
	s.join(conn, "Ann", model.FactionHumans)

	s.send(conn, protocol.TypeSetSoloMode, protocol.SetSoloMode{Enabled: true, Difficulty: string(model.DifficultyEasy)})
	s.send(conn, protocol.TypeAddAIPlayer, protocol.AddAIPlayer{Faction: string(model.FactionAliens)})
	s.send(conn, protocol.TypeToggleReady, struct{}{})
	s.Require().Eventually(func() bool {
		lobby, err := s.app.Lobby.Snapshot(s.ctx)
		return err == nil && len(lobby.Players) == 2 && lobby.AllReady()
	}, 2*time.Second, 5*time.Millisecond)

	s.app.MockRandom.QueueIntn(2, 2, 20, 20)
	s.send(conn, protocol.TypeStartMatch, struct{}{})

	var started protocol.MatchStarted
	s.expect(conn, model.EventMatchStarted, &started)
	s.Require().Len(started.Players, 2)
	s.True(started.State.IsSoloMode)

	runner, err := s.app.Registry.Get(model.MatchID(started.MatchID))
	s.Require().NoError(err)
	s.Equal(model.DifficultyEasy, runner.Snapshot().Difficulty)
}
