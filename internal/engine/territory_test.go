package engine

import (
	"github.com/mcoot/conquestgame-go/internal/model"
)

// Annex tests

func (s *EngineSuite) TestAnnexAdjacentNeutralTile() {
	m := s.running(model.FactionHumans, model.FactionRobots)
	own(m, "A", pos(5, 5))
	m.GetPlayer("A").Gold = 10

	next, _, err := s.engine.Apply(m, model.Action{Kind: model.ActionAnnex, PlayerID: "A", Target: pos(5, 6)})
	s.Require().NoError(err)

	a := next.GetPlayer("A")
	s.Equal(0, a.Gold)
	s.Equal(2, a.TileCount())
	tile := next.Grid.At(pos(5, 6))
	s.Equal(model.PlayerID("A"), tile.Owner)
	s.Equal(0, tile.GoldValue)
	s.Equal(10, tile.UnitValue)
	s.assertTerritoryConsistent(next)
}

func (s *EngineSuite) TestAnnexCostGrowsWithTerritory() {
	m := s.running(model.FactionHumans, model.FactionRobots)
	own(m, "A", pos(0, 0), pos(1, 0), pos(2, 0))
	m.GetPlayer("A").Gold = 10

	_, _, err := s.engine.Apply(m, model.Action{Kind: model.ActionAnnex, PlayerID: "A", Target: pos(3, 0)})
	s.ErrorIs(err, model.ErrInsufficientGold)

	m.GetPlayer("A").Gold = 11
	next, _, err := s.engine.Apply(m, model.Action{Kind: model.ActionAnnex, PlayerID: "A", Target: pos(3, 0)})
	s.Require().NoError(err)
	s.Equal(0, next.GetPlayer("A").Gold)
}

func (s *EngineSuite) TestAnnexCostIsMonotone() {
	prev := 0
	for owned := 0; owned < 100; owned++ {
		cost := s.rules.AnnexCost(owned)
		s.GreaterOrEqual(cost, prev)
		prev = cost
	}
}

func (s *EngineSuite) TestAnnexRejections() {
	tests := []struct {
		name   string
		target model.Position
		player model.PlayerID
		gold   int
		want   error
	}{
		{name: "out of range", target: pos(25, 0), player: "A", gold: 100, want: model.ErrOutOfBounds},
		{name: "negative coordinate", target: pos(-1, 5), player: "A", gold: 100, want: model.ErrOutOfBounds},
		{name: "already owned", target: pos(10, 10), player: "A", gold: 100, want: model.ErrTileOwned},
		{name: "unknown player", target: pos(6, 5), player: "Z", gold: 100, want: model.ErrUnknownPlayer},
		{name: "not adjacent", target: pos(7, 7), player: "A", gold: 100, want: model.ErrNotAdjacent},
		{name: "diagonal is not adjacent", target: pos(6, 6), player: "A", gold: 100, want: model.ErrNotAdjacent},
		{name: "not enough gold", target: pos(6, 5), player: "A", gold: 9, want: model.ErrInsufficientGold},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			m := s.running(model.FactionHumans, model.FactionRobots)
			own(m, "A", pos(5, 5))
			own(m, "B", pos(10, 10))
			m.GetPlayer("A").Gold = tt.gold

			next, _, err := s.engine.Apply(m, model.Action{Kind: model.ActionAnnex, PlayerID: tt.player, Target: tt.target})
			s.ErrorIs(err, tt.want)
			s.Same(m, next)
		})
	}
}

// Occupy tests

func (s *EngineSuite) TestOccupyTakesEnemyTile() {
	m := s.running(model.FactionHumans, model.FactionRobots, model.FactionAliens)
	own(m, "A", pos(5, 5))
	own(m, "B", pos(6, 5), pos(7, 5))
	own(m, "C", pos(20, 20))
	a := m.GetPlayer("A")
	a.Gold = 15
	a.Units = 15

	next, res, err := s.engine.Apply(m, model.Action{Kind: model.ActionOccupy, PlayerID: "A", Target: pos(6, 5)})
	s.Require().NoError(err)

	a = next.GetPlayer("A")
	s.Equal(15, a.Gold)
	s.Equal(5, a.Units)
	s.True(a.Owns(pos(6, 5)))
	s.False(next.GetPlayer("B").Owns(pos(6, 5)))
	s.False(next.GetPlayer("B").IsEliminated)
	s.Empty(res.Eliminated)
	s.False(next.IsGameOver)
	s.assertTerritoryConsistent(next)
}

func (s *EngineSuite) TestOccupyLastTileEliminatesAndEndsMatch() {
	m := s.running(model.FactionHumans, model.FactionRobots)
	own(m, "A", pos(5, 5))
	own(m, "B", pos(6, 5))
	a := m.GetPlayer("A")
	a.Gold = 15
	a.Units = 15

	next, res, err := s.engine.Apply(m, model.Action{Kind: model.ActionOccupy, PlayerID: "A", Target: pos(6, 5)})
	s.Require().NoError(err)

	s.True(next.GetPlayer("B").IsEliminated)
	s.Equal([]model.PlayerID{"B"}, res.Eliminated)
	s.True(res.Ended)
	s.True(next.IsGameOver)
	s.Equal(model.PlayerID("A"), next.Winner)
	s.Equal(300, next.TimeRemaining)
}

func (s *EngineSuite) TestOccupyEliminationWithSurvivorsContinues() {
	m := s.running(model.FactionHumans, model.FactionRobots, model.FactionAliens)
	own(m, "A", pos(5, 5))
	own(m, "B", pos(6, 5))
	own(m, "C", pos(20, 20))
	m.GetPlayer("A").Units = 10

	next, res, err := s.engine.Apply(m, model.Action{Kind: model.ActionOccupy, PlayerID: "A", Target: pos(6, 5)})
	s.Require().NoError(err)

	s.True(next.GetPlayer("B").IsEliminated)
	s.False(res.Ended)
	s.False(next.IsGameOver)
}

func (s *EngineSuite) TestOccupyDeductsDefendedTileValue() {
	m := s.running(model.FactionHumans, model.FactionRobots)
	own(m, "A", pos(5, 5))
	own(m, "B", pos(6, 5), pos(7, 5))
	defended := m.Grid.At(pos(6, 5))
	defended.Structure = model.StructureDefense
	defended.UnitValue = 50
	a := m.GetPlayer("A")
	a.Units = 49

	_, _, err := s.engine.Apply(m, model.Action{Kind: model.ActionOccupy, PlayerID: "A", Target: pos(6, 5)})
	s.ErrorIs(err, model.ErrInsufficientUnits)

	a.Units = 60
	next, _, err := s.engine.Apply(m, model.Action{Kind: model.ActionOccupy, PlayerID: "A", Target: pos(6, 5)})
	s.Require().NoError(err)

	s.Equal(10, next.GetPlayer("A").Units)
	tile := next.Grid.At(pos(6, 5))
	s.Equal(model.StructureNone, tile.Structure)
	s.Equal(10, tile.UnitValue)
	s.Equal(0, tile.GoldValue)
}

func (s *EngineSuite) TestOccupyReducesDefenderIncome() {
	m := s.running(model.FactionHumans, model.FactionAliens)
	own(m, "A", pos(5, 5))
	own(m, "B", pos(6, 5), pos(7, 5), pos(8, 5))
	m.Grid.At(pos(6, 5)).Structure = model.StructureEconomy
	b := m.GetPlayer("B")
	b.GoldRate = 11
	b.UnitRate = 1
	m.GetPlayer("A").Units = 100

	next, _, err := s.engine.Apply(m, model.Action{Kind: model.ActionOccupy, PlayerID: "A", Target: pos(6, 5)})
	s.Require().NoError(err)
	s.Equal(6, next.GetPlayer("B").GoldRate)

	next.Grid.At(pos(7, 5)).Structure = model.StructureMilitary
	next, _, err = s.engine.Apply(next, model.Action{Kind: model.ActionOccupy, PlayerID: "A", Target: pos(7, 5)})
	s.Require().NoError(err)
	// Aliens never drop below their baseline unit income
	s.Equal(1, next.GetPlayer("B").UnitRate)
}

func (s *EngineSuite) TestOccupyRejections() {
	tests := []struct {
		name   string
		target model.Position
		player model.PlayerID
		units  int
		want   error
	}{
		{name: "out of range", target: pos(0, 30), player: "A", units: 100, want: model.ErrOutOfBounds},
		{name: "neutral tile", target: pos(5, 6), player: "A", units: 100, want: model.ErrTileUnowned},
		{name: "own tile", target: pos(5, 5), player: "A", units: 100, want: model.ErrOwnTile},
		{name: "unknown player", target: pos(6, 5), player: "Z", units: 100, want: model.ErrUnknownPlayer},
		{name: "not adjacent", target: pos(7, 5), player: "A", units: 100, want: model.ErrNotAdjacent},
		{name: "not enough units", target: pos(6, 5), player: "A", units: 9, want: model.ErrInsufficientUnits},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			m := s.running(model.FactionHumans, model.FactionRobots)
			own(m, "A", pos(5, 5))
			own(m, "B", pos(6, 5), pos(7, 5))
			m.GetPlayer("A").Units = tt.units

			next, _, err := s.engine.Apply(m, model.Action{Kind: model.ActionOccupy, PlayerID: tt.player, Target: tt.target})
			s.ErrorIs(err, tt.want)
			s.Same(m, next)
		})
	}
}
