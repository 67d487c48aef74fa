package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// Lobby events
	EventLobbySnapshot EventType = "lobby_snapshot"
	EventLobbyJoined   EventType = "lobby_joined"

	// Match events
	EventMatchStarted   EventType = "match_started"
	EventStateUpdate    EventType = "state_update"
	EventActionAccepted EventType = "action_accepted"
	EventActionRejected EventType = "action_rejected"
	EventMatchOver      EventType = "match_over"

	// Connection events
	EventPlayerDisconnected EventType = "player_disconnected"
	EventPlayerRemoved      EventType = "player_removed"
	EventPlayerRebound      EventType = "player_rebound"
	EventReconnectRejected  EventType = "reconnect_rejected"
	EventStateSnapshot      EventType = "state_snapshot"

	EventError EventType = "error"
)

// Audience selects who receives an event
type Audience string

const (
	AudienceRoom       Audience = "room"        // Everyone in Room
	AudienceRoomExcept Audience = "room_except" // Everyone in Room except SessionID
	AudienceSession    Audience = "session"     // Only SessionID
)

// Event is the base structure for all events
type Event struct {
	Type      EventType
	Timestamp time.Time
	Room      string // LobbyRoom or a match ID
	Audience  Audience
	SessionID SessionID // Target or excluded session, depending on Audience
	MatchID   MatchID   // Empty for lobby-only events
	PlayerID  PlayerID  // The player who triggered or is affected
	Payload   any       // Type-specific data
}

// LobbySnapshotPayload contains the full lobby
type LobbySnapshotPayload struct {
	Lobby Lobby
}

// LobbyJoinedPayload tells a client which player it was assigned
type LobbyJoinedPayload struct {
	Player LobbyPlayer
}

// MatchStartedPayload contains data for match started events
type MatchStartedPayload struct {
	State *Match
}

// StateUpdatePayload is broadcast after every committed transition
type StateUpdatePayload struct {
	Kind    ActionKind
	State   *Match
	Applied Action
}

// ActionAcceptedPayload acknowledges the actor's own action
type ActionAcceptedPayload struct {
	Kind  ActionKind
	State *Match
}

// ActionRejectedPayload explains why an action was refused
type ActionRejectedPayload struct {
	Kind   ActionKind
	Reason string
}

// MatchOverPayload contains data for match over events
type MatchOverPayload struct {
	Winner PlayerID // Empty if tie
	State  *Match
}

// PlayerDisconnectedPayload contains data for disconnect notifications
type PlayerDisconnectedPayload struct {
	PlayerID PlayerID
	Players  []Player
}

// PlayerRemovedPayload contains data for removal after the grace period
type PlayerRemovedPayload struct {
	PlayerID PlayerID
	Players  []Player
}

// PlayerReboundPayload announces that a player resumed on a new connection
type PlayerReboundPayload struct {
	OldSessionID SessionID
	NewSessionID SessionID
	PlayerID     PlayerID
	Players      []Player
}

// ReconnectRejectedPayload explains why a reconnect failed
type ReconnectRejectedPayload struct {
	Reason string
}

// StateSnapshotPayload resynchronises a single client
type StateSnapshotPayload struct {
	State *Match
}

// ErrorPayload carries a generic error message
type ErrorPayload struct {
	Message string
}
