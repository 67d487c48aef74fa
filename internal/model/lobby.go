package model

import "time"

// LobbyRoom is the broadcast group for players waiting in the lobby
const LobbyRoom = "lobby"

// LobbyPlayer is a player waiting for a match to start
type LobbyPlayer struct {
	ID       PlayerID
	Name     string
	Faction  Faction
	Color    string
	IsReady  bool
	IsAI     bool
	JoinedAt time.Time
}

// Lobby is the pre-match waiting room
type Lobby struct {
	Players    []LobbyPlayer
	Solo       bool
	Difficulty Difficulty
	UpdatedAt  time.Time
}

// GetPlayer returns the lobby player with the given ID, or nil if not found
func (l *Lobby) GetPlayer(id PlayerID) *LobbyPlayer {
	for i := range l.Players {
		if l.Players[i].ID == id {
			return &l.Players[i]
		}
	}
	return nil
}

// RemovePlayer drops the player with the given ID, reporting whether it was present
func (l *Lobby) RemovePlayer(id PlayerID) bool {
	for i := range l.Players {
		if l.Players[i].ID == id {
			l.Players = append(l.Players[:i], l.Players[i+1:]...)
			return true
		}
	}
	return false
}

// AllReady returns true if every player is ready
func (l *Lobby) AllReady() bool {
	for _, p := range l.Players {
		if !p.IsReady {
			return false
		}
	}
	return true
}

// HasAI returns true if any AI player is waiting
func (l *Lobby) HasAI() bool {
	for _, p := range l.Players {
		if p.IsAI {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the lobby
func (l *Lobby) Clone() *Lobby {
	c := *l
	c.Players = make([]LobbyPlayer, len(l.Players))
	copy(c.Players, l.Players)
	return &c
}
