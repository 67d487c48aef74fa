// Package gateway routes decoded client frames to the lobby, connection and match services
package gateway

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/conquestgame-go/internal/dependencies/clock"
	"github.com/mcoot/conquestgame-go/internal/events"
	"github.com/mcoot/conquestgame-go/internal/model"
	"github.com/mcoot/conquestgame-go/internal/protocol"
	"github.com/mcoot/conquestgame-go/internal/services/connection"
	"github.com/mcoot/conquestgame-go/internal/services/lobby"
	"github.com/mcoot/conquestgame-go/internal/services/match"
)

// Runners looks up live matches
type Runners interface {
	Get(id model.MatchID) (*match.Runner, error)
}

// Gateway handles every inbound frame from every session.
// Failures are reported to the sending session as error frames.
type Gateway struct {
	lobby       *lobby.Controller
	connections *connection.Manager
	registry    Runners
	publisher   events.Publisher
	clock       clock.Clock
	logger      *slog.Logger
}

// New creates a new Gateway
func New(
	lobby *lobby.Controller,
	connections *connection.Manager,
	registry Runners,
	publisher events.Publisher,
	clock clock.Clock,
	logger *slog.Logger,
) *Gateway {
	return &Gateway{
		lobby:       lobby,
		connections: connections,
		registry:    registry,
		publisher:   publisher,
		clock:       clock,
		logger:      logger.With(slog.String("component", "gateway")),
	}
}

// HandleFrame decodes and dispatches one raw frame
func (g *Gateway) HandleFrame(ctx context.Context, sid model.SessionID, data []byte) {
	t, msg, err := protocol.Decode(data)
	if err != nil {
		g.logger.Debug("rejected frame",
			slog.String("session_id", string(sid)),
			slog.String("type", string(t)),
			slog.String("error", err.Error()))
		g.sendError(ctx, sid, err)
		return
	}
	if err := g.Handle(ctx, sid, msg); err != nil {
		g.sendError(ctx, sid, err)
	}
}

// Handle dispatches a decoded message. Errors are meant for the sender.
func (g *Gateway) Handle(ctx context.Context, sid model.SessionID, msg any) error {
	switch m := msg.(type) {
	case *protocol.JoinLobby:
		return g.joinLobby(ctx, sid, m)
	case *protocol.ToggleReady:
		b, err := g.lobbyBinding(sid)
		if err != nil {
			return err
		}
		return g.lobby.ToggleReady(ctx, b.PlayerID)
	case *protocol.SetSoloMode:
		b, err := g.lobbyBinding(sid)
		if err != nil {
			return err
		}
		return g.lobby.SetSoloMode(ctx, b.PlayerID, m.Enabled, model.Difficulty(m.Difficulty))
	case *protocol.AddAIPlayer:
		b, err := g.lobbyBinding(sid)
		if err != nil {
			return err
		}
		_, err = g.lobby.AddAIPlayer(ctx, b.PlayerID, model.Faction(m.Faction))
		return err
	case *protocol.StartMatch:
		return g.startMatch(ctx, sid)
	case *protocol.GameAction:
		return g.gameAction(ctx, sid, m)
	case *protocol.Reconnect:
		// Rejections are published by the connection manager
		_ = g.connections.Reconnect(ctx, sid, model.PlayerID(m.PlayerID), model.MatchID(m.MatchID))
		return nil
	case *protocol.LivenessProbe:
		// Answered by the transport
		return nil
	default:
		return protocol.ErrUnknownMessageType
	}
}

// Disconnect is called once a session's socket has closed
func (g *Gateway) Disconnect(ctx context.Context, sid model.SessionID) {
	g.connections.Disconnect(ctx, sid)
}

func (g *Gateway) joinLobby(ctx context.Context, sid model.SessionID, m *protocol.JoinLobby) error {
	if _, ok := g.connections.Lookup(sid); ok {
		return model.ErrAlreadyInLobby
	}
	player, err := g.lobby.Join(ctx, m.Name, model.Faction(m.Faction))
	if err != nil {
		return err
	}
	g.connections.Bind(sid, player.ID)
	g.publisher.Publish(ctx, model.Event{
		Type:      model.EventLobbyJoined,
		Timestamp: g.clock.Now(),
		Room:      model.LobbyRoom,
		Audience:  model.AudienceSession,
		SessionID: sid,
		PlayerID:  player.ID,
		Payload:   model.LobbyJoinedPayload{Player: player},
	})
	return nil
}

func (g *Gateway) startMatch(ctx context.Context, sid model.SessionID) error {
	b, err := g.lobbyBinding(sid)
	if err != nil {
		return err
	}
	runner, roster, err := g.lobby.StartMatch(ctx, b.PlayerID)
	if err != nil {
		return err
	}
	g.connections.AttachMatch(runner.ID(), roster)
	runner.Start()
	return nil
}

func (g *Gateway) gameAction(ctx context.Context, sid model.SessionID, m *protocol.GameAction) error {
	b, ok := g.connections.Lookup(sid)
	if !ok {
		return model.ErrSessionNotBound
	}
	matchID := model.MatchID(m.MatchID)
	runner, err := g.registry.Get(matchID)
	if err != nil {
		return err
	}
	if b.MatchID != matchID {
		return model.ErrNotInMatch
	}
	action, err := m.Action.ToAction(b.PlayerID)
	if err != nil {
		return err
	}
	return runner.Submit(ctx, action, sid)
}

// lobbyBinding returns the binding of a session that is still in the lobby
func (g *Gateway) lobbyBinding(sid model.SessionID) (connection.Binding, error) {
	b, ok := g.connections.Lookup(sid)
	if !ok {
		return connection.Binding{}, model.ErrSessionNotBound
	}
	if b.MatchID != "" {
		return connection.Binding{}, model.ErrNotInLobby
	}
	return b, nil
}

func (g *Gateway) sendError(ctx context.Context, sid model.SessionID, err error) {
	if !protocol.IsClientError(err) && !isDomainError(err) {
		g.logger.Error("failed to handle frame",
			slog.String("session_id", string(sid)),
			slog.String("error", err.Error()))
	}
	g.publisher.Publish(ctx, model.Event{
		Type:      model.EventError,
		Timestamp: g.clock.Now(),
		Audience:  model.AudienceSession,
		SessionID: sid,
		Payload:   model.ErrorPayload{Message: err.Error()},
	})
}

var domainErrors = []error{
	model.ErrSessionNotBound,
	model.ErrMatchNotFound,
	model.ErrNotInMatch,
	model.ErrNotInLobby,
	model.ErrAlreadyInLobby,
	model.ErrLobbyFull,
	model.ErrInsufficientPlayers,
	model.ErrNotAllReady,
	model.ErrSoloModeDisabled,
	model.ErrUnknownDifficulty,
	model.ErrUnknownFaction,
}

func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
