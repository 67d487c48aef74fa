package protocol

import (
	"fmt"

	"github.com/mcoot/conquestgame-go/internal/model"
)

// Outbound payloads, one per event type

type LobbySnapshot struct {
	LobbyView
}

type LobbyJoined struct {
	PlayerID string          `json:"playerId"`
	Player   LobbyPlayerView `json:"player"`
}

type MatchStarted struct {
	MatchID string       `json:"matchId"`
	Players []PlayerView `json:"players"`
	State   StateView    `json:"state"`
}

type StateUpdate struct {
	Kind          string     `json:"kind"`
	State         StateView  `json:"state"`
	AppliedAction ActionView `json:"appliedAction"`
}

type ActionAccepted struct {
	Kind  string    `json:"kind"`
	State StateView `json:"state"`
}

type ActionRejected struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

type MatchOver struct {
	Winner *string   `json:"winner"`
	State  StateView `json:"state"`
}

type PlayerDisconnected struct {
	PlayerID string       `json:"playerId"`
	Players  []PlayerView `json:"players"`
}

type PlayerRemoved struct {
	PlayerID string       `json:"playerId"`
	Players  []PlayerView `json:"players"`
}

type PlayerRebound struct {
	OldID    string       `json:"oldId"`
	NewID    string       `json:"newId"`
	PlayerID string       `json:"playerId"`
	Players  []PlayerView `json:"players"`
}

type ReconnectRejected struct {
	Reason string `json:"reason"`
}

type StateSnapshot struct {
	MatchID string    `json:"matchId"`
	State   StateView `json:"state"`
}

type Error struct {
	Message string `json:"message"`
}

type LivenessAck struct{}

// EventPayload converts a model event payload into its wire form
func EventPayload(e model.Event) (any, error) {
	switch p := e.Payload.(type) {
	case model.LobbySnapshotPayload:
		return LobbySnapshot{LobbyView: NewLobbyView(&p.Lobby)}, nil
	case model.LobbyJoinedPayload:
		return LobbyJoined{PlayerID: string(p.Player.ID), Player: NewLobbyPlayerView(p.Player)}, nil
	case model.MatchStartedPayload:
		return MatchStarted{
			MatchID: string(p.State.ID),
			Players: NewPlayerViews(p.State.Players),
			State:   NewStateView(p.State),
		}, nil
	case model.StateUpdatePayload:
		return StateUpdate{
			Kind:          string(p.Kind),
			State:         NewStateView(p.State),
			AppliedAction: NewActionView(p.Applied),
		}, nil
	case model.ActionAcceptedPayload:
		return ActionAccepted{Kind: string(p.Kind), State: NewStateView(p.State)}, nil
	case model.ActionRejectedPayload:
		return ActionRejected{Kind: string(p.Kind), Reason: p.Reason}, nil
	case model.MatchOverPayload:
		return MatchOver{Winner: optionalID(p.Winner), State: NewStateView(p.State)}, nil
	case model.PlayerDisconnectedPayload:
		return PlayerDisconnected{PlayerID: string(p.PlayerID), Players: NewPlayerViews(p.Players)}, nil
	case model.PlayerRemovedPayload:
		return PlayerRemoved{PlayerID: string(p.PlayerID), Players: NewPlayerViews(p.Players)}, nil
	case model.PlayerReboundPayload:
		return PlayerRebound{
			OldID:    string(p.OldSessionID),
			NewID:    string(p.NewSessionID),
			PlayerID: string(p.PlayerID),
			Players:  NewPlayerViews(p.Players),
		}, nil
	case model.ReconnectRejectedPayload:
		return ReconnectRejected{Reason: p.Reason}, nil
	case model.StateSnapshotPayload:
		return StateSnapshot{MatchID: string(p.State.ID), State: NewStateView(p.State)}, nil
	case model.ErrorPayload:
		return Error{Message: p.Message}, nil
	}
	return nil, fmt.Errorf("no wire form for %s payload %T", e.Type, e.Payload)
}

// EncodeEvent renders a model event as an outbound frame
func EncodeEvent(e model.Event) ([]byte, error) {
	payload, err := EventPayload(e)
	if err != nil {
		return nil, err
	}
	return Encode(MessageType(e.Type), payload)
}
