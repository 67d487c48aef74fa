package engine

import "github.com/mcoot/conquestgame-go/internal/model"

func (e *Engine) accrue(m *model.Match, _ model.Action, _ *Result) error {
	for i := range m.Players {
		p := &m.Players[i]
		p.Gold += p.GoldRate
		p.Units += p.UnitRate
	}
	return nil
}

func (e *Engine) tick(m *model.Match, _ model.Action, res *Result) error {
	if m.TimeRemaining > 0 {
		m.TimeRemaining--
	}
	if m.TimeRemaining == 0 {
		finish(m, Leader(m), res)
	}
	return nil
}

// Leader returns the player holding strictly the most tiles, or empty on a tie
func Leader(m *model.Match) model.PlayerID {
	best := -1
	var leader model.PlayerID
	tied := false
	for _, p := range m.Players {
		n := p.TileCount()
		switch {
		case n > best:
			best = n
			leader = p.ID
			tied = false
		case n == best:
			tied = true
		}
	}
	if tied {
		return ""
	}
	return leader
}
