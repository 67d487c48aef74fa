package ai

import (
	"log/slog"

	"github.com/mcoot/conquestgame-go/internal/dependencies/random"
	"github.com/mcoot/conquestgame-go/internal/model"
)

const (
	// PlayerIDPrefix marks AI-controlled player IDs
	PlayerIDPrefix = "ai-"
	// BuildChance is the probability of building when a build is possible
	BuildChance = 0.7
	// MinOccupyUnits and MinOccupyGold gate attack attempts
	MinOccupyUnits = 5
	MinOccupyGold  = 10
)

// Controller decides actions for AI-controlled players
type Controller struct {
	strategies map[model.Difficulty]Strategy
	rules      model.Rules
	random     random.Random
	logger     *slog.Logger
}

// NewController creates a new AI Controller
func NewController(
	strategies map[model.Difficulty]Strategy,
	rules model.Rules,
	rnd random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		strategies: strategies,
		rules:      rules,
		random:     rnd,
		logger:     logger.With(slog.String("component", "ai-controller")),
	}
}

// StrategyFor returns the strategy for a difficulty, falling back to the default
func (c *Controller) StrategyFor(d model.Difficulty) Strategy {
	if s, ok := c.strategies[d]; ok {
		return s
	}
	return c.strategies[model.DefaultDifficulty]
}

// Turn returns the actions every eligible AI player wants to take this tick
func (c *Controller) Turn(m *model.Match) []model.Action {
	if !m.HasAI || !m.IsRunning() {
		return nil
	}
	var actions []model.Action
	for _, p := range m.Players {
		if a, ok := c.Decide(m, p.ID); ok {
			c.logger.Debug("ai decided",
				slog.String("match_id", string(m.ID)),
				slog.String("player_id", string(p.ID)),
				slog.String("kind", string(a.Kind)),
			)
			actions = append(actions, a)
		}
	}
	return actions
}

// Decide picks at most one action for an AI player.
// Rules are tried in order: build, annex, occupy. The first applicable one wins.
func (c *Controller) Decide(m *model.Match, id model.PlayerID) (model.Action, bool) {
	p := m.GetPlayer(id)
	if p == nil || !p.IsAI || p.IsEliminated || !m.HasAI || !m.IsRunning() {
		return model.Action{}, false
	}

	strategy := c.StrategyFor(m.Difficulty)
	if m.TimeRemaining%strategy.Cadence() != 0 {
		return model.Action{}, false
	}

	if a, ok := c.tryBuild(m, p, strategy); ok {
		return a, true
	}
	if a, ok := c.tryAnnex(m, p, strategy); ok {
		return a, true
	}
	if a, ok := c.tryOccupy(m, p, strategy); ok {
		return a, true
	}
	return model.Action{}, false
}

func (c *Controller) tryBuild(m *model.Match, p *model.Player, strategy Strategy) (model.Action, bool) {
	if p.Gold < c.rules.BuildCost {
		return model.Action{}, false
	}
	bare := filter(p.Tiles, func(pos model.Position) bool {
		return !m.Grid.At(pos).HasStructure()
	})
	if len(bare) == 0 {
		return model.Action{}, false
	}
	if c.random.Float64() >= BuildChance {
		return model.Action{}, false
	}

	target := pick(c.random, bare)
	return model.Action{
		Kind:      model.ActionBuild,
		PlayerID:  p.ID,
		Target:    target,
		Structure: strategy.ChooseStructure(m, p),
	}, true
}

func (c *Controller) tryAnnex(m *model.Match, p *model.Player, strategy Strategy) (model.Action, bool) {
	if p.Gold < c.rules.AnnexBaseCost {
		return model.Action{}, false
	}
	candidates := frontier(m, p, func(t *model.Tile) bool {
		return !t.IsOwned()
	})
	if len(candidates) == 0 {
		return model.Action{}, false
	}

	return model.Action{
		Kind:     model.ActionAnnex,
		PlayerID: p.ID,
		Target:   strategy.ChooseAnnexTarget(m, p, candidates),
	}, true
}

func (c *Controller) tryOccupy(m *model.Match, p *model.Player, strategy Strategy) (model.Action, bool) {
	if p.Units < MinOccupyUnits || p.Gold < MinOccupyGold {
		return model.Action{}, false
	}
	if c.random.Float64() >= strategy.Aggression() {
		return model.Action{}, false
	}
	candidates := frontier(m, p, func(t *model.Tile) bool {
		return t.IsOwned() && t.Owner != p.ID && t.GoldValue <= p.Gold && t.UnitValue <= p.Units
	})
	if len(candidates) == 0 {
		return model.Action{}, false
	}

	return model.Action{
		Kind:     model.ActionOccupy,
		PlayerID: p.ID,
		Target:   strategy.ChooseOccupyTarget(m, p, candidates),
	}, true
}

// frontier lists the distinct tiles bordering p's territory that satisfy keep
func frontier(m *model.Match, p *model.Player, keep func(*model.Tile) bool) []model.Position {
	seen := make(map[model.Position]bool)
	var result []model.Position
	for _, owned := range p.Tiles {
		for _, n := range m.Grid.Neighbors(owned) {
			if seen[n] {
				continue
			}
			seen[n] = true
			if keep(m.Grid.At(n)) {
				result = append(result, n)
			}
		}
	}
	return result
}
