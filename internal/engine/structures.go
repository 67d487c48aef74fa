package engine

import "github.com/mcoot/conquestgame-go/internal/model"

func (e *Engine) build(m *model.Match, a model.Action, _ *Result) error {
	tile := m.Grid.At(a.Target)
	if tile == nil {
		return model.ErrOutOfBounds
	}
	p := m.GetPlayer(a.PlayerID)
	if p == nil {
		return model.ErrUnknownPlayer
	}
	if !a.Structure.IsValid() {
		return model.ErrUnknownStructure
	}
	if tile.Owner != p.ID {
		return model.ErrNotTileOwner
	}
	if tile.HasStructure() {
		return model.ErrStructurePresent
	}
	if p.Gold < e.rules.BuildCost {
		return model.ErrInsufficientGold
	}

	p.Gold -= e.rules.BuildCost
	tile.Structure = a.Structure
	switch a.Structure {
	case model.StructureEconomy:
		p.GoldRate += e.rules.EconomyGoldBonus
	case model.StructureMilitary:
		p.UnitRate += e.rules.MilitaryUnitBonus
	case model.StructureDefense:
		tile.UnitValue += e.rules.DefenseUnitBonus
	}
	return nil
}

func (e *Engine) demolish(m *model.Match, a model.Action, _ *Result) error {
	tile := m.Grid.At(a.Target)
	if tile == nil {
		return model.ErrOutOfBounds
	}
	p := m.GetPlayer(a.PlayerID)
	if p == nil {
		return model.ErrUnknownPlayer
	}
	if tile.Owner != p.ID {
		return model.ErrNotTileOwner
	}
	if !tile.HasStructure() {
		return model.ErrNoStructure
	}

	e.loseStructure(p, tile.Structure)
	if tile.Structure == model.StructureDefense {
		tile.UnitValue = max(e.rules.BaseTileUnitValue, tile.UnitValue-e.rules.DefenseUnitBonus)
	}
	tile.Structure = model.StructureNone
	return nil
}

// loseStructure takes back the income a structure granted. Rates never drop below the faction baseline.
func (e *Engine) loseStructure(p *model.Player, s model.StructureType) {
	switch s {
	case model.StructureEconomy:
		p.GoldRate = max(model.BaseGoldRate, p.GoldRate-e.rules.EconomyGoldBonus)
	case model.StructureMilitary:
		p.UnitRate = max(p.Faction.BaseUnitRate(), p.UnitRate-e.rules.MilitaryUnitBonus)
	}
}
