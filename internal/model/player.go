package model

import "time"

// PlayerID uniquely identifies a player across the system. It survives reconnection.
type PlayerID string

// SessionID identifies a single transport connection
type SessionID string

// ConnectionStatus tracks transport presence for an in-match player
type ConnectionStatus struct {
	Connected      bool
	DisconnectedAt time.Time // Zero while connected
}

// Player is a match participant and its economic state
type Player struct {
	ID      PlayerID
	Name    string
	Faction Faction
	Color   string

	Gold     int
	Units    int
	GoldRate int
	UnitRate int

	// Owned tiles in acquisition order
	Tiles []Position

	IsReady      bool
	IsEliminated bool
	IsAI         bool

	Connection ConnectionStatus
}

// TileCount returns the size of the player's territory
func (p *Player) TileCount() int {
	return len(p.Tiles)
}

// Owns returns true if pos is in the player's owned set
func (p *Player) Owns(pos Position) bool {
	return p.indexOf(pos) >= 0
}

// AddTile appends pos to the owned set
func (p *Player) AddTile(pos Position) {
	p.Tiles = append(p.Tiles, pos)
}

// RemoveTile drops pos from the owned set, preserving order
func (p *Player) RemoveTile(pos Position) {
	idx := p.indexOf(pos)
	if idx < 0 {
		return
	}
	tiles := make([]Position, 0, len(p.Tiles)-1)
	tiles = append(tiles, p.Tiles[:idx]...)
	tiles = append(tiles, p.Tiles[idx+1:]...)
	p.Tiles = tiles
}

func (p *Player) indexOf(pos Position) int {
	for i, t := range p.Tiles {
		if t == pos {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the player
func (p Player) Clone() Player {
	if p.Tiles != nil {
		tiles := make([]Position, len(p.Tiles))
		copy(tiles, p.Tiles)
		p.Tiles = tiles
	}
	return p
}
