package engine

import (
	"github.com/mcoot/conquestgame-go/internal/model"
)

func (s *EngineSuite) TestBuildEconomy() {
	m := s.running(model.FactionHumans, model.FactionRobots)
	own(m, "B", pos(3, 3))
	m.GetPlayer("B").Gold = 25

	next, _, err := s.engine.Apply(m, model.Action{Kind: model.ActionBuild, PlayerID: "B", Target: pos(3, 3), Structure: model.StructureEconomy})
	s.Require().NoError(err)

	b := next.GetPlayer("B")
	s.Equal(5, b.Gold)
	s.Equal(1+s.rules.EconomyGoldBonus, b.GoldRate)
	s.Equal(model.StructureEconomy, next.Grid.At(pos(3, 3)).Structure)
}

func (s *EngineSuite) TestBuildMilitaryAndDefense() {
	m := s.running(model.FactionHumans, model.FactionRobots)
	own(m, "A", pos(3, 3), pos(3, 4))
	m.GetPlayer("A").Gold = 40

	next, _, err := s.engine.Apply(m, model.Action{Kind: model.ActionBuild, PlayerID: "A", Target: pos(3, 3), Structure: model.StructureMilitary})
	s.Require().NoError(err)
	next, _, err = s.engine.Apply(next, model.Action{Kind: model.ActionBuild, PlayerID: "A", Target: pos(3, 4), Structure: model.StructureDefense})
	s.Require().NoError(err)

	a := next.GetPlayer("A")
	s.Equal(0, a.Gold)
	s.Equal(1, a.UnitRate)
	s.Equal(50, next.Grid.At(pos(3, 4)).UnitValue)
}

func (s *EngineSuite) TestBuildRejections() {
	tests := []struct {
		name      string
		target    model.Position
		player    model.PlayerID
		structure model.StructureType
		gold      int
		want      error
	}{
		{name: "out of range", target: pos(25, 25), player: "A", structure: model.StructureEconomy, gold: 100, want: model.ErrOutOfBounds},
		{name: "unknown player", target: pos(3, 3), player: "Z", structure: model.StructureEconomy, gold: 100, want: model.ErrUnknownPlayer},
		{name: "unknown structure", target: pos(3, 3), player: "A", structure: "Castle", gold: 100, want: model.ErrUnknownStructure},
		{name: "neutral tile", target: pos(4, 4), player: "A", structure: model.StructureEconomy, gold: 100, want: model.ErrNotTileOwner},
		{name: "enemy tile", target: pos(9, 9), player: "A", structure: model.StructureEconomy, gold: 100, want: model.ErrNotTileOwner},
		{name: "structure present", target: pos(3, 4), player: "A", structure: model.StructureEconomy, gold: 100, want: model.ErrStructurePresent},
		{name: "not enough gold", target: pos(3, 3), player: "A", structure: model.StructureEconomy, gold: 19, want: model.ErrInsufficientGold},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			m := s.running(model.FactionHumans, model.FactionRobots)
			own(m, "A", pos(3, 3), pos(3, 4))
			own(m, "B", pos(9, 9))
			m.Grid.At(pos(3, 4)).Structure = model.StructureMilitary
			m.GetPlayer("A").Gold = tt.gold

			next, _, err := s.engine.Apply(m, model.Action{Kind: model.ActionBuild, PlayerID: tt.player, Target: tt.target, Structure: tt.structure})
			s.ErrorIs(err, tt.want)
			s.Same(m, next)
		})
	}
}

func (s *EngineSuite) TestDemolishReversesEffects() {
	m := s.running(model.FactionHumans, model.FactionRobots)
	own(m, "A", pos(3, 3), pos(3, 4), pos(3, 5))
	m.GetPlayer("A").Gold = 60
	for _, b := range []struct {
		at   model.Position
		kind model.StructureType
	}{
		{pos(3, 3), model.StructureEconomy},
		{pos(3, 4), model.StructureMilitary},
		{pos(3, 5), model.StructureDefense},
	} {
		var err error
		m, _, err = s.engine.Apply(m, model.Action{Kind: model.ActionBuild, PlayerID: "A", Target: b.at, Structure: b.kind})
		s.Require().NoError(err)
	}

	for _, at := range []model.Position{pos(3, 3), pos(3, 4), pos(3, 5)} {
		var err error
		m, _, err = s.engine.Apply(m, model.Action{Kind: model.ActionDemolish, PlayerID: "A", Target: at})
		s.Require().NoError(err)
		s.Equal(model.StructureNone, m.Grid.At(at).Structure)
	}

	a := m.GetPlayer("A")
	s.Equal(1, a.GoldRate)
	s.Equal(0, a.UnitRate)
	s.Equal(10, m.Grid.At(pos(3, 5)).UnitValue)
	s.Equal(0, a.Gold)
}

func (s *EngineSuite) TestDemolishNeverDropsBelowBaseline() {
	m := s.running(model.FactionAliens, model.FactionRobots)
	own(m, "A", pos(3, 3), pos(3, 4))
	m.Grid.At(pos(3, 3)).Structure = model.StructureMilitary
	m.Grid.At(pos(3, 4)).Structure = model.StructureDefense
	m.Grid.At(pos(3, 4)).UnitValue = 30

	next, _, err := s.engine.Apply(m, model.Action{Kind: model.ActionDemolish, PlayerID: "A", Target: pos(3, 3)})
	s.Require().NoError(err)
	next, _, err = s.engine.Apply(next, model.Action{Kind: model.ActionDemolish, PlayerID: "A", Target: pos(3, 4)})
	s.Require().NoError(err)

	s.Equal(1, next.GetPlayer("A").UnitRate)
	s.Equal(10, next.Grid.At(pos(3, 4)).UnitValue)
}

func (s *EngineSuite) TestDemolishRejections() {
	tests := []struct {
		name   string
		target model.Position
		player model.PlayerID
		want   error
	}{
		{name: "out of range", target: pos(-1, -1), player: "A", want: model.ErrOutOfBounds},
		{name: "unknown player", target: pos(3, 3), player: "Z", want: model.ErrUnknownPlayer},
		{name: "enemy tile", target: pos(9, 9), player: "A", want: model.ErrNotTileOwner},
		{name: "no structure", target: pos(3, 4), player: "A", want: model.ErrNoStructure},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			m := s.running(model.FactionHumans, model.FactionRobots)
			own(m, "A", pos(3, 3), pos(3, 4))
			own(m, "B", pos(9, 9))
			m.Grid.At(pos(3, 3)).Structure = model.StructureEconomy
			m.Grid.At(pos(9, 9)).Structure = model.StructureEconomy

			next, _, err := s.engine.Apply(m, model.Action{Kind: model.ActionDemolish, PlayerID: tt.player, Target: tt.target})
			s.ErrorIs(err, tt.want)
			s.Same(m, next)
		})
	}
}
