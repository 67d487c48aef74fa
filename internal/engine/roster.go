package engine

import (
	"time"

	"github.com/mcoot/conquestgame-go/internal/model"
)

// MarkDisconnected records that a player lost their connection at the given time
func (e *Engine) MarkDisconnected(m *model.Match, id model.PlayerID, at time.Time) (*model.Match, error) {
	if m.GetPlayer(id) == nil {
		return m, model.ErrNotInMatch
	}
	next := m.Clone()
	p := next.GetPlayer(id)
	p.Connection = model.ConnectionStatus{Connected: false, DisconnectedAt: at}
	next.Version++
	return next, nil
}

// MarkConnected clears a player's disconnect marker
func (e *Engine) MarkConnected(m *model.Match, id model.PlayerID) (*model.Match, error) {
	if m.GetPlayer(id) == nil {
		return m, model.ErrNotInMatch
	}
	next := m.Clone()
	p := next.GetPlayer(id)
	p.Connection = model.ConnectionStatus{Connected: true}
	next.Version++
	return next, nil
}

// RemovePlayer drops a player from the match and returns their territory to the neutral pool.
// A running match left with one active player ends with that player as winner.
func (e *Engine) RemovePlayer(m *model.Match, id model.PlayerID) (*model.Match, Result, error) {
	if m.GetPlayer(id) == nil {
		return m, Result{}, model.ErrNotInMatch
	}
	next := m.Clone()
	var res Result

	for _, pos := range next.GetPlayer(id).Tiles {
		e.release(next.Grid.At(pos))
	}
	players := make([]model.Player, 0, len(next.Players)-1)
	for _, p := range next.Players {
		if p.ID != id {
			players = append(players, p)
		}
	}
	next.Players = players

	if len(next.Players) > 0 {
		checkLastStanding(next, &res)
	}
	next.Version++
	return next, res, nil
}
