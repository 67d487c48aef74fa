package engine

import "github.com/mcoot/conquestgame-go/internal/model"

// start places every player on a starting tile, in join order
func (e *Engine) start(m *model.Match, _ model.Action, _ *Result) error {
	taken := make([]model.Position, 0, len(m.Players))
	for i := range m.Players {
		p := &m.Players[i]
		pos := e.pickStart(&m.Grid, taken)
		taken = append(taken, pos)

		p.Tiles = nil
		e.claim(m.Grid.At(pos), p)
		p.Gold = 0
		p.Units = 0
		p.GoldRate = model.BaseGoldRate
		p.UnitRate = p.Faction.BaseUnitRate()
		p.IsEliminated = false
	}

	m.IsGameStarted = true
	m.IsGameOver = false
	m.Winner = ""
	m.TimeRemaining = e.rules.Duration
	return nil
}

// pickStart samples positions until one is far enough from every taken start.
// Once attempts run out the last draw is accepted, moved to the next free tile if it collides.
func (e *Engine) pickStart(g *model.Grid, taken []model.Position) model.Position {
	var pos model.Position
	for attempt := 0; attempt < e.rules.StartAttempts; attempt++ {
		pos = model.Position{X: e.random.Intn(g.Size), Y: e.random.Intn(g.Size)}
		if g.At(pos).IsOwned() {
			continue
		}
		if farEnough(pos, taken, e.rules.MinStartDistance) {
			return pos
		}
	}
	if !g.At(pos).IsOwned() {
		return pos
	}
	return nextFree(g, pos)
}

func farEnough(pos model.Position, taken []model.Position, minDistance float64) bool {
	for _, t := range taken {
		if model.Distance(pos, t) < minDistance {
			return false
		}
	}
	return true
}

func nextFree(g *model.Grid, from model.Position) model.Position {
	n := len(g.Tiles)
	start := from.Y*g.Size + from.X
	for i := 1; i < n; i++ {
		t := &g.Tiles[(start+i)%n]
		if !t.IsOwned() {
			return t.Position
		}
	}
	return from
}
