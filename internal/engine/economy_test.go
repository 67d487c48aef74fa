package engine

import (
	"time"

	"github.com/mcoot/conquestgame-go/internal/model"
	"github.com/mcoot/conquestgame-go/internal/testutil"
)

func (s *EngineSuite) TestAccrueAddsIncome() {
	m := s.running(model.FactionHumans, model.FactionAliens)
	m.GetPlayer("A").GoldRate = 6
	m.GetPlayer("A").Gold = 4

	next, _, err := s.engine.Apply(m, model.Action{Kind: model.ActionAccrue})
	s.Require().NoError(err)

	s.Equal(10, next.GetPlayer("A").Gold)
	s.Equal(0, next.GetPlayer("A").Units)
	s.Equal(1, next.GetPlayer("B").Gold)
	s.Equal(1, next.GetPlayer("B").Units)
}

func (s *EngineSuite) TestTickCountsDown() {
	m := s.running(model.FactionHumans, model.FactionRobots)

	next, res, err := s.engine.Apply(m, model.Action{Kind: model.ActionTick})
	s.Require().NoError(err)

	s.Equal(299, next.TimeRemaining)
	s.False(res.Ended)
	s.False(next.IsGameOver)
}

func (s *EngineSuite) TestTimerExpiryPicksStrictLeader() {
	m := s.running(model.FactionHumans, model.FactionRobots)
	own(m, "A", pos(0, 0), pos(1, 0), pos(2, 0), pos(3, 0), pos(4, 0), pos(5, 0))
	own(m, "B", pos(0, 9), pos(1, 9), pos(2, 9), pos(3, 9))
	m.TimeRemaining = 1

	next, res, err := s.engine.Apply(m, model.Action{Kind: model.ActionTick})
	s.Require().NoError(err)

	s.Equal(0, next.TimeRemaining)
	s.True(res.Ended)
	s.True(next.IsGameOver)
	s.Equal(model.PlayerID("A"), next.Winner)
}

func (s *EngineSuite) TestTimerExpiryTieHasNoWinner() {
	m := s.running(model.FactionHumans, model.FactionRobots)
	own(m, "A", pos(0, 0), pos(1, 0), pos(2, 0), pos(3, 0), pos(4, 0))
	own(m, "B", pos(0, 9), pos(1, 9), pos(2, 9), pos(3, 9), pos(4, 9))
	m.TimeRemaining = 1

	next, _, err := s.engine.Apply(m, model.Action{Kind: model.ActionTick})
	s.Require().NoError(err)

	s.True(next.IsGameOver)
	s.Equal(model.PlayerID(""), next.Winner)
}

func (s *EngineSuite) TestMatchEndsExactlyWhenTimerHitsZero() {
	s.rules.Duration = 3
	s.engine = New(s.rules, s.random, testutil.NopLogger())
	m := s.running(model.FactionHumans, model.FactionRobots)

	for i := 0; i < 2; i++ {
		var err error
		m, _, err = s.engine.Apply(m, model.Action{Kind: model.ActionTick})
		s.Require().NoError(err)
		s.False(m.IsGameOver)
	}
	m, _, err := s.engine.Apply(m, model.Action{Kind: model.ActionTick})
	s.Require().NoError(err)
	s.True(m.IsGameOver)

	_, _, err = s.engine.Apply(m, model.Action{Kind: model.ActionTick})
	s.ErrorIs(err, model.ErrMatchOver)
}

// Resources never go negative across a long random-ish session
func (s *EngineSuite) TestResourcesStayNonNegative() {
	m := s.running(model.FactionHumans, model.FactionRobots)
	own(m, "A", pos(5, 5))
	own(m, "B", pos(6, 5))

	targets := []model.Position{pos(4, 5), pos(5, 4), pos(6, 5), pos(5, 6), pos(7, 5), pos(6, 4)}
	kinds := []model.ActionKind{model.ActionAnnex, model.ActionOccupy, model.ActionBuild, model.ActionDemolish}
	for step := 0; step < 200 && !m.IsGameOver; step++ {
		var err error
		m, _, err = s.engine.Apply(m, model.Action{Kind: model.ActionAccrue})
		s.Require().NoError(err)

		for i, id := range []model.PlayerID{"A", "B"} {
			a := model.Action{
				Kind:      kinds[(step+i)%len(kinds)],
				PlayerID:  id,
				Target:    targets[(step*3+i)%len(targets)],
				Structure: model.ValidStructureTypes()[step%3],
			}
			m, _, _ = s.engine.Apply(m, a)
		}

		for _, p := range m.Players {
			s.GreaterOrEqual(p.Gold, 0)
			s.GreaterOrEqual(p.Units, 0)
		}
		s.assertTerritoryConsistent(m)
	}
}

// Roster tests

func (s *EngineSuite) TestMarkDisconnectedAndConnected() {
	m := s.running(model.FactionHumans, model.FactionRobots)
	at := testTime.Add(time.Minute)

	next, err := s.engine.MarkDisconnected(m, "A", at)
	s.Require().NoError(err)
	s.False(next.GetPlayer("A").Connection.Connected)
	s.Equal(at, next.GetPlayer("A").Connection.DisconnectedAt)
	s.True(m.GetPlayer("A").Connection.Connected)

	next, err = s.engine.MarkConnected(next, "A")
	s.Require().NoError(err)
	s.True(next.GetPlayer("A").Connection.Connected)
	s.True(next.GetPlayer("A").Connection.DisconnectedAt.IsZero())

	_, err = s.engine.MarkDisconnected(m, "Z", at)
	s.ErrorIs(err, model.ErrNotInMatch)
}

func (s *EngineSuite) TestRemovePlayerReleasesTerritory() {
	m := s.running(model.FactionHumans, model.FactionRobots, model.FactionAliens)
	own(m, "A", pos(1, 1))
	own(m, "B", pos(5, 5), pos(5, 6))
	own(m, "C", pos(20, 20))
	m.Grid.At(pos(5, 5)).Structure = model.StructureDefense

	next, res, err := s.engine.RemovePlayer(m, "B")
	s.Require().NoError(err)

	s.Len(next.Players, 2)
	s.Nil(next.GetPlayer("B"))
	s.False(res.Ended)
	tile := next.Grid.At(pos(5, 5))
	s.False(tile.IsOwned())
	s.Equal(model.StructureNone, tile.Structure)
	s.Equal(10, tile.GoldValue)
	s.Equal(0, tile.UnitValue)
	s.assertTerritoryConsistent(next)
}

func (s *EngineSuite) TestRemovePlayerLeavingOneEndsMatch() {
	m := s.running(model.FactionHumans, model.FactionRobots)
	own(m, "A", pos(1, 1))
	own(m, "B", pos(5, 5))

	next, res, err := s.engine.RemovePlayer(m, "B")
	s.Require().NoError(err)

	s.True(res.Ended)
	s.True(next.IsGameOver)
	s.Equal(model.PlayerID("A"), next.Winner)
}

func (s *EngineSuite) TestRemoveLastPlayerLeavesEmptyMatch() {
	m := s.running(model.FactionHumans)
	own(m, "A", pos(1, 1))

	next, res, err := s.engine.RemovePlayer(m, "A")
	s.Require().NoError(err)

	s.Empty(next.Players)
	s.False(res.Ended)
	s.Equal(0, next.Grid.OwnedCount())
}
