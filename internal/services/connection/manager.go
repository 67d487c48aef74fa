// Package connection maps websocket sessions to players and handles
// disconnects, reconnects and the grace period in between.
package connection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcoot/conquestgame-go/internal/dependencies/clock"
	"github.com/mcoot/conquestgame-go/internal/events"
	"github.com/mcoot/conquestgame-go/internal/model"
	"github.com/mcoot/conquestgame-go/internal/services/match"
)

// Rooms moves sessions between broadcast groups
type Rooms interface {
	Join(sid model.SessionID, room string)
	Leave(sid model.SessionID, room string)
}

// Runners looks up live matches
type Runners interface {
	Get(id model.MatchID) (*match.Runner, error)
	FindPlayer(playerID model.PlayerID) (*match.Runner, bool)
}

// LobbyLeaver removes players who drop out before their match starts
type LobbyLeaver interface {
	Leave(ctx context.Context, playerID model.PlayerID) error
}

// Binding is what a session is playing as
type Binding struct {
	PlayerID model.PlayerID
	MatchID  model.MatchID // Empty while in the lobby
}

type departure struct {
	sid     model.SessionID
	matchID model.MatchID
}

type graceTimer struct {
	timer          clockwork.Timer
	matchID        model.MatchID
	disconnectedAt time.Time
}

// Manager tracks which session plays which player
type Manager struct {
	mu       sync.Mutex
	sessions map[model.SessionID]Binding
	players  map[model.PlayerID]model.SessionID
	timers   map[model.PlayerID]graceTimer
	// Last session of each disconnected match player
	departed map[model.PlayerID]departure

	registry    Runners
	lobby       LobbyLeaver
	rooms       Rooms
	publisher   events.Publisher
	clock       clock.Clock
	gracePeriod time.Duration
	logger      *slog.Logger
}

// NewManager creates a new connection Manager
func NewManager(
	registry Runners,
	lobby LobbyLeaver,
	rooms Rooms,
	publisher events.Publisher,
	clock clock.Clock,
	gracePeriod time.Duration,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		sessions:    make(map[model.SessionID]Binding),
		players:     make(map[model.PlayerID]model.SessionID),
		timers:      make(map[model.PlayerID]graceTimer),
		departed:    make(map[model.PlayerID]departure),
		registry:    registry,
		lobby:       lobby,
		rooms:       rooms,
		publisher:   publisher,
		clock:       clock,
		gracePeriod: gracePeriod,
		logger:      logger.With(slog.String("component", "connection-manager")),
	}
}

// Bind records that a session joined the lobby as playerID
func (m *Manager) Bind(sid model.SessionID, playerID model.PlayerID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sid] = Binding{PlayerID: playerID}
	m.players[playerID] = sid
}

// Lookup returns the binding of a session
func (m *Manager) Lookup(sid model.SessionID) (Binding, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.sessions[sid]
	return b, ok
}

// SessionFor returns the session currently playing as playerID
func (m *Manager) SessionFor(playerID model.PlayerID) (model.SessionID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sid, ok := m.players[playerID]
	return sid, ok
}

// AttachMatch moves every human player's session from the lobby into the match room
func (m *Manager) AttachMatch(matchID model.MatchID, roster []model.LobbyPlayer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range roster {
		if p.IsAI {
			continue
		}
		sid, ok := m.players[p.ID]
		if !ok {
			m.logger.Warn("no session for match player",
				slog.String("match_id", string(matchID)),
				slog.String("player_id", string(p.ID)))
			continue
		}
		m.sessions[sid] = Binding{PlayerID: p.ID, MatchID: matchID}
		m.rooms.Leave(sid, model.LobbyRoom)
		m.rooms.Join(sid, string(matchID))
	}
}

// Disconnect handles a closed socket. Lobby players leave the lobby; match
// players are marked disconnected and pruned if they do not return in time.
func (m *Manager) Disconnect(ctx context.Context, sid model.SessionID) {
	m.mu.Lock()
	b, ok := m.sessions[sid]
	if ok {
		delete(m.sessions, sid)
		if m.players[b.PlayerID] == sid {
			delete(m.players, b.PlayerID)
		}
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	logger := m.logger.With(slog.String("player_id", string(b.PlayerID)))

	var runner *match.Runner
	if b.MatchID == "" {
		err := m.lobby.Leave(ctx, b.PlayerID)
		if err == nil {
			return
		}
		if !errors.Is(err, model.ErrNotInLobby) {
			logger.Warn("failed to remove player from lobby", slog.String("error", err.Error()))
			return
		}
		// The match started before the session was moved into it
		found, ok := m.registry.FindPlayer(b.PlayerID)
		if !ok {
			return
		}
		runner, b.MatchID = found, found.ID()
	} else {
		found, err := m.registry.Get(b.MatchID)
		if err != nil {
			return
		}
		runner = found
	}

	at := m.clock.Now()
	if err := runner.Disconnect(ctx, b.PlayerID, at); err != nil {
		logger.Warn("failed to mark player disconnected",
			slog.String("match_id", string(b.MatchID)),
			slog.String("error", err.Error()))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, rebound := m.players[b.PlayerID]; rebound {
		// Reclaimed while the runner was busy
		return
	}
	m.stopTimer(b.PlayerID)
	playerID, matchID := b.PlayerID, b.MatchID
	m.departed[playerID] = departure{sid: sid, matchID: matchID}
	m.timers[playerID] = graceTimer{
		timer: m.clock.AfterFunc(m.gracePeriod, func() {
			m.expire(playerID, matchID, at)
		}),
		matchID:        matchID,
		disconnectedAt: at,
	}
	logger.Info("grace period started",
		slog.String("match_id", string(matchID)),
		slog.Duration("grace_period", m.gracePeriod))
}

// Reconnect resumes playerID on a new session. A session still waiting in
// the lobby gives up its lobby slot once the reconnect succeeds.
func (m *Manager) Reconnect(ctx context.Context, sid model.SessionID, playerID model.PlayerID, matchID model.MatchID) error {
	runner, err := m.registry.Get(matchID)
	if err != nil {
		m.rejectReconnect(ctx, sid, matchID, err)
		return err
	}
	if p := runner.Snapshot().GetPlayer(playerID); p != nil && p.IsAI {
		m.rejectReconnect(ctx, sid, matchID, model.ErrNotInMatch)
		return model.ErrNotInMatch
	}

	m.rooms.Leave(sid, model.LobbyRoom)
	m.rooms.Join(sid, string(matchID))

	m.mu.Lock()
	oldSID, live := m.players[playerID]
	if !live {
		if d, ok := m.departed[playerID]; ok && d.matchID == matchID {
			oldSID = d.sid
		}
	}
	m.mu.Unlock()

	if err := runner.Rebind(ctx, playerID, sid, oldSID); err != nil {
		m.rooms.Leave(sid, string(matchID))
		m.rooms.Join(sid, model.LobbyRoom)
		if errors.Is(err, model.ErrPlayerNotFound) {
			err = model.ErrNotInMatch
		}
		m.rejectReconnect(ctx, sid, matchID, err)
		return err
	}

	m.mu.Lock()
	m.stopTimer(playerID)
	delete(m.departed, playerID)
	if live && oldSID != sid {
		delete(m.sessions, oldSID)
	}
	prev, hadPrev := m.sessions[sid]
	if hadPrev && prev.PlayerID != playerID && m.players[prev.PlayerID] == sid {
		delete(m.players, prev.PlayerID)
	}
	m.sessions[sid] = Binding{PlayerID: playerID, MatchID: matchID}
	m.players[playerID] = sid
	m.mu.Unlock()

	if hadPrev && prev.PlayerID != playerID && prev.MatchID == "" {
		if err := m.lobby.Leave(ctx, prev.PlayerID); err != nil && !errors.Is(err, model.ErrNotInLobby) {
			m.logger.Warn("failed to remove player from lobby",
				slog.String("player_id", string(prev.PlayerID)),
				slog.String("error", err.Error()))
		}
	}

	m.logger.Info("player reconnected",
		slog.String("player_id", string(playerID)),
		slog.String("match_id", string(matchID)))
	return nil
}

// ForgetMatch drops every binding and timer belonging to a removed match
func (m *Manager) ForgetMatch(matchID model.MatchID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for sid, b := range m.sessions {
		if b.MatchID == matchID {
			delete(m.sessions, sid)
			if m.players[b.PlayerID] == sid {
				delete(m.players, b.PlayerID)
			}
		}
	}
	for playerID, t := range m.timers {
		if t.matchID == matchID {
			t.timer.Stop()
			delete(m.timers, playerID)
		}
	}
	for playerID, d := range m.departed {
		if d.matchID == matchID {
			delete(m.departed, playerID)
		}
	}
}

// PendingTimers returns the number of running grace timers
func (m *Manager) PendingTimers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func (m *Manager) expire(playerID model.PlayerID, matchID model.MatchID, at time.Time) {
	m.mu.Lock()
	t, ok := m.timers[playerID]
	if !ok || t.matchID != matchID || !t.disconnectedAt.Equal(at) {
		m.mu.Unlock()
		return
	}
	delete(m.timers, playerID)
	delete(m.departed, playerID)
	m.mu.Unlock()

	runner, err := m.registry.Get(matchID)
	if err != nil {
		return
	}
	removed, err := runner.Prune(context.Background(), playerID, at)
	if err != nil {
		m.logger.Warn("failed to prune player",
			slog.String("player_id", string(playerID)),
			slog.String("error", err.Error()))
		return
	}
	if removed {
		m.logger.Info("grace period expired",
			slog.String("player_id", string(playerID)),
			slog.String("match_id", string(matchID)))
	}
}

// stopTimer cancels a pending grace timer. Callers hold m.mu.
func (m *Manager) stopTimer(playerID model.PlayerID) {
	if t, ok := m.timers[playerID]; ok {
		t.timer.Stop()
		delete(m.timers, playerID)
	}
}

func (m *Manager) rejectReconnect(ctx context.Context, sid model.SessionID, matchID model.MatchID, reason error) {
	m.logger.Info("reconnect rejected",
		slog.String("session_id", string(sid)),
		slog.String("match_id", string(matchID)),
		slog.String("reason", reason.Error()))
	m.publisher.Publish(ctx, model.Event{
		Type:      model.EventReconnectRejected,
		Timestamp: m.clock.Now(),
		Audience:  model.AudienceSession,
		SessionID: sid,
		MatchID:   matchID,
		Payload:   model.ReconnectRejectedPayload{Reason: reason.Error()},
	})
}
