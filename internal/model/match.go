package model

import "time"

// MatchID uniquely identifies a match
type MatchID string

// Match is one authoritative snapshot of a running game.
// Snapshots are treated as immutable once committed; use Clone before changing one.
type Match struct {
	ID       MatchID
	GridSize int
	Grid     Grid

	// Players in join order
	Players []Player

	TimeRemaining int
	IsGameStarted bool
	IsGameOver    bool
	Winner        PlayerID // Empty if tie or undecided

	HasAI      bool
	Difficulty Difficulty

	// Version increments on every committed transition
	Version   uint64
	CreatedAt time.Time
	EndedAt   time.Time
}

// Clone returns a deep copy of the match
func (m *Match) Clone() *Match {
	c := *m
	c.Grid = m.Grid.Clone()
	c.Players = make([]Player, len(m.Players))
	for i := range m.Players {
		c.Players[i] = m.Players[i].Clone()
	}
	return &c
}

// GetPlayer returns the player with the given ID, or nil if not found
func (m *Match) GetPlayer(id PlayerID) *Player {
	for i := range m.Players {
		if m.Players[i].ID == id {
			return &m.Players[i]
		}
	}
	return nil
}

// ActivePlayers returns the players that have not been eliminated
func (m *Match) ActivePlayers() []*Player {
	var active []*Player
	for i := range m.Players {
		if !m.Players[i].IsEliminated {
			active = append(active, &m.Players[i])
		}
	}
	return active
}

// IsRunning returns true if the match has started and not ended
func (m *Match) IsRunning() bool {
	return m.IsGameStarted && !m.IsGameOver
}

// TileCounts returns each player's territory size
func (m *Match) TileCounts() map[PlayerID]int {
	counts := make(map[PlayerID]int, len(m.Players))
	for _, p := range m.Players {
		counts[p.ID] = p.TileCount()
	}
	return counts
}

// HumanCount returns the number of non-AI players
func (m *Match) HumanCount() int {
	n := 0
	for _, p := range m.Players {
		if !p.IsAI {
			n++
		}
	}
	return n
}

// MatchSummary is a lightweight record of a finished match
type MatchSummary struct {
	ID         MatchID
	TileCounts map[PlayerID]int
	Names      map[PlayerID]string
	Winner     PlayerID // Empty if tie
	EndedAt    time.Time
}

// Summarize builds the summary record for a match
func (m *Match) Summarize() MatchSummary {
	names := make(map[PlayerID]string, len(m.Players))
	for _, p := range m.Players {
		names[p.ID] = p.Name
	}
	return MatchSummary{
		ID:         m.ID,
		TileCounts: m.TileCounts(),
		Names:      names,
		Winner:     m.Winner,
		EndedAt:    m.EndedAt,
	}
}
