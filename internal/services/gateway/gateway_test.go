package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/conquestgame-go/internal/dependencies/mocks"
	"github.com/mcoot/conquestgame-go/internal/engine"
	"github.com/mcoot/conquestgame-go/internal/journal"
	"github.com/mcoot/conquestgame-go/internal/model"
	"github.com/mcoot/conquestgame-go/internal/services/ai"
	"github.com/mcoot/conquestgame-go/internal/services/connection"
	"github.com/mcoot/conquestgame-go/internal/services/lobby"
	"github.com/mcoot/conquestgame-go/internal/services/match"
	"github.com/mcoot/conquestgame-go/internal/storage/memory"
	"github.com/mcoot/conquestgame-go/internal/testutil"
)

type roomLog struct {
	mu      sync.Mutex
	members map[string]map[model.SessionID]bool
}

func (r *roomLog) Join(sid model.SessionID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.members[room] == nil {
		r.members[room] = make(map[model.SessionID]bool)
	}
	r.members[room][sid] = true
}

func (r *roomLog) Leave(sid model.SessionID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members[room], sid)
}

func (r *roomLog) In(sid model.SessionID, room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.members[room][sid]
}

type GatewaySuite struct {
	suite.Suite
	clock     *mocks.MockClock
	random    *mocks.MockRandom
	ids       *mocks.MockIDs
	publisher *testutil.RecordingPublisher
	rooms     *roomLog
	registry  *match.Registry
	gateway   *Gateway
	ctx       context.Context
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

func (s *GatewaySuite) SetupTest() {
	logger := testutil.NopLogger()
	rules := model.DefaultRules()
	store := memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.ids = mocks.NewMockIDs()
	s.publisher = testutil.NewRecordingPublisher()
	s.rooms = &roomLog{members: make(map[string]map[model.SessionID]bool)}
	s.registry = match.NewRegistry(
		engine.New(rules, s.random, logger),
		ai.NewController(ai.DefaultStrategies(s.random), rules, s.random, logger),
		s.publisher, store, journal.Nop{}, s.clock, s.random, s.ids,
		match.Timing{TickInterval: time.Second}, logger,
	)
	lobbyController := lobby.NewController(store, s.registry, s.publisher, s.ids, s.clock, rules, logger)
	connections := connection.NewManager(s.registry, lobbyController, s.rooms, s.publisher, s.clock, time.Minute, logger)
	s.gateway = New(lobbyController, connections, s.registry, s.publisher, s.clock, logger)
	s.ctx = context.Background()
}

func (s *GatewaySuite) TearDownTest() {
	s.registry.StopAll()
}

func (s *GatewaySuite) send(sid model.SessionID, frame string) {
	s.gateway.HandleFrame(s.ctx, sid, []byte(frame))
}

// lastError returns the message of the latest error frame sent to sid
func (s *GatewaySuite) lastError(sid model.SessionID) string {
	for i := len(s.publisher.Events()) - 1; i >= 0; i-- {
		e := s.publisher.Events()[i]
		if e.Type == model.EventError && e.SessionID == sid {
			return e.Payload.(model.ErrorPayload).Message
		}
	}
	s.Fail("no error frame", "session %s", sid)
	return ""
}

func (s *GatewaySuite) joinAndReady(sid model.SessionID, id string) {
	s.ids.Queue(id)
	s.send(sid, `{"type":"join_lobby","payload":{"name":"`+id+`","faction":"Humans"}}`)
	s.send(sid, `{"type":"toggle_ready"}`)
}

// startMatch joins two players on sessions s1 and s2 and starts match-1
func (s *GatewaySuite) startMatch() *match.Runner {
	s.joinAndReady("s1", "p1")
	s.joinAndReady("s2", "p2")
	s.random.QueueIntn(2, 2, 20, 20)
	s.ids.Queue("match-1")
	s.send("s1", `{"type":"start_match"}`)

	runner, err := s.registry.Get("match-1")
	s.Require().NoError(err)
	s.Require().Eventually(func() bool {
		return len(s.publisher.OfType(model.EventMatchStarted)) == 1
	}, time.Second, time.Millisecond)
	return runner
}

func (s *GatewaySuite) TestMalformedFrames() {
	tests := []struct {
		name  string
		frame string
		want  string
	}{
		{"not json", `{{`, "malformed frame"},
		{"unknown type", `{"type":"dance"}`, `unknown message type: "dance"`},
		{"missing name", `{"type":"join_lobby","payload":{"faction":"Humans"}}`, "invalid join_lobby: name failed 'required'"},
		{"bad faction", `{"type":"join_lobby","payload":{"name":"x","faction":"Pirates"}}`, "invalid join_lobby: faction failed 'faction'"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.send("s1", tt.frame)
			s.Contains(s.lastError("s1"), tt.want)
		})
	}
	s.Empty(s.publisher.OfType(model.EventLobbySnapshot))
}

func (s *GatewaySuite) TestJoinLobby() {
	s.ids.Queue("p1")
	s.send("s1", `{"type":"join_lobby","payload":{"name":"Alice","faction":"Aliens"}}`)

	joined, ok := s.publisher.Last(model.EventLobbyJoined)
	s.Require().True(ok)
	s.Equal(model.AudienceSession, joined.Audience)
	s.Equal(model.SessionID("s1"), joined.SessionID)
	s.Equal(model.PlayerID("p1"), joined.Payload.(model.LobbyJoinedPayload).Player.ID)
	s.Len(s.publisher.OfType(model.EventLobbySnapshot), 1)

	s.send("s1", `{"type":"join_lobby","payload":{"name":"Alice","faction":"Aliens"}}`)
	s.Equal(model.ErrAlreadyInLobby.Error(), s.lastError("s1"))
}

func (s *GatewaySuite) TestLobbyCommandsRequireJoin() {
	s.send("s1", `{"type":"toggle_ready"}`)
	s.Equal(model.ErrSessionNotBound.Error(), s.lastError("s1"))

	s.send("s1", `{"type":"start_match"}`)
	s.Equal(model.ErrSessionNotBound.Error(), s.lastError("s1"))
}

func (s *GatewaySuite) TestStartRequiresEveryoneReady() {
	s.joinAndReady("s1", "p1")
	s.ids.Queue("p2")
	s.send("s2", `{"type":"join_lobby","payload":{"name":"p2","faction":"Robots"}}`)

	s.send("s1", `{"type":"start_match"}`)
	s.Equal(model.ErrNotAllReady.Error(), s.lastError("s1"))
	s.Empty(s.registry.List())
}

func (s *GatewaySuite) TestStartMatchMovesSessions() {
	s.rooms.Join("s1", model.LobbyRoom)
	s.rooms.Join("s2", model.LobbyRoom)
	runner := s.startMatch()

	s.True(runner.Snapshot().IsGameStarted)
	s.True(s.rooms.In("s1", "match-1"))
	s.True(s.rooms.In("s2", "match-1"))
	s.False(s.rooms.In("s1", model.LobbyRoom))

	s.send("s1", `{"type":"toggle_ready"}`)
	s.Equal(model.ErrNotInLobby.Error(), s.lastError("s1"))
}

func (s *GatewaySuite) TestGameActions() {
	s.startMatch()

	s.send("s1", `{"type":"game_action","payload":{"matchId":"other","action":{"kind":"Annex","payload":{"x":3,"y":2}}}}`)
	s.Equal(model.ErrMatchNotFound.Error(), s.lastError("s1"))

	s.send("s1", `{"type":"game_action","payload":{"matchId":"match-1","action":{"kind":"Annex","payload":{"x":3}}}}`)
	s.Equal("action requires x and y", s.lastError("s1"))

	s.send("s1", `{"type":"game_action","payload":{"matchId":"match-1","action":{"kind":"Annex","payload":{"x":3,"y":2}}}}`)
	rejected, ok := s.publisher.Last(model.EventActionRejected)
	s.Require().True(ok)
	s.Equal(model.SessionID("s1"), rejected.SessionID)
	s.Equal(model.PlayerID("p1"), rejected.PlayerID)
	s.Equal(model.ErrInsufficientGold.Error(), rejected.Payload.(model.ActionRejectedPayload).Reason)
}

func (s *GatewaySuite) TestGameActionFromOutsider() {
	s.startMatch()
	s.ids.Queue("p3")
	s.send("s3", `{"type":"join_lobby","payload":{"name":"Late","faction":"Robots"}}`)

	s.send("s3", `{"type":"game_action","payload":{"matchId":"match-1","action":{"kind":"Tick"}}}`)
	s.Equal(model.ErrNotInMatch.Error(), s.lastError("s3"))
}

func (s *GatewaySuite) TestSoloMatch() {
	s.joinAndReady("s1", "p1")
	s.send("s1", `{"type":"add_ai_player","payload":{"faction":"Robots"}}`)
	s.Equal(model.ErrSoloModeDisabled.Error(), s.lastError("s1"))

	s.send("s1", `{"type":"set_solo_mode","payload":{"enabled":true,"difficulty":"Easy"}}`)
	s.send("s1", `{"type":"add_ai_player","payload":{"faction":"Robots"}}`)
	s.random.QueueIntn(2, 2, 20, 20)
	s.ids.Queue("solo-1")
	s.send("s1", `{"type":"start_match"}`)

	runner, err := s.registry.Get("solo-1")
	s.Require().NoError(err)
	m := runner.Snapshot()
	s.True(m.HasAI)
	s.Equal(model.DifficultyEasy, m.Difficulty)
}

func (s *GatewaySuite) TestReconnectRejectionIsPublishedOnce() {
	s.send("s9", `{"type":"reconnect","payload":{"playerId":"p1","matchId":"gone"}}`)

	s.Len(s.publisher.OfType(model.EventReconnectRejected), 1)
	s.Empty(s.publisher.OfType(model.EventError))
}

func (s *GatewaySuite) TestDisconnectInLobbyLeavesLobby() {
	s.joinAndReady("s1", "p1")

	s.gateway.Disconnect(s.ctx, "s1")

	snapshot, ok := s.publisher.Last(model.EventLobbySnapshot)
	s.Require().True(ok)
	s.Empty(snapshot.Payload.(model.LobbySnapshotPayload).Lobby.Players)
}
