package engine

import "github.com/mcoot/conquestgame-go/internal/model"

func (e *Engine) annex(m *model.Match, a model.Action, _ *Result) error {
	tile := m.Grid.At(a.Target)
	if tile == nil {
		return model.ErrOutOfBounds
	}
	if tile.IsOwned() {
		return model.ErrTileOwned
	}
	p := m.GetPlayer(a.PlayerID)
	if p == nil {
		return model.ErrUnknownPlayer
	}
	if !m.Grid.IsAdjacentTo(a.Target, p.ID) {
		return model.ErrNotAdjacent
	}
	cost := e.rules.AnnexCost(p.TileCount())
	if p.Gold < cost {
		return model.ErrInsufficientGold
	}

	p.Gold -= cost
	e.claim(tile, p)
	return nil
}

func (e *Engine) occupy(m *model.Match, a model.Action, res *Result) error {
	tile := m.Grid.At(a.Target)
	if tile == nil {
		return model.ErrOutOfBounds
	}
	if !tile.IsOwned() {
		return model.ErrTileUnowned
	}
	if tile.Owner == a.PlayerID {
		return model.ErrOwnTile
	}
	attacker := m.GetPlayer(a.PlayerID)
	if attacker == nil {
		return model.ErrUnknownPlayer
	}
	defender := m.GetPlayer(tile.Owner)
	if defender == nil {
		return model.ErrUnknownPlayer
	}
	if !m.Grid.IsAdjacentTo(a.Target, attacker.ID) {
		return model.ErrNotAdjacent
	}
	if attacker.Gold < tile.GoldValue {
		return model.ErrInsufficientGold
	}
	if attacker.Units < tile.UnitValue {
		return model.ErrInsufficientUnits
	}

	attacker.Gold -= tile.GoldValue
	attacker.Units -= tile.UnitValue

	e.loseStructure(defender, tile.Structure)
	defender.RemoveTile(tile.Position)
	e.claim(tile, attacker)

	if defender.TileCount() == 0 {
		defender.IsEliminated = true
		res.Eliminated = append(res.Eliminated, defender.ID)
		checkLastStanding(m, res)
	}
	return nil
}
