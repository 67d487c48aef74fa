package engine

import (
	"log/slog"
	"time"

	"github.com/mcoot/conquestgame-go/internal/dependencies/random"
	"github.com/mcoot/conquestgame-go/internal/model"
)

// Result describes the side effects of a committed transition
type Result struct {
	Ignored    bool // Unknown action kind, state unchanged
	Eliminated []model.PlayerID
	Ended      bool
}

type transition func(m *model.Match, a model.Action, res *Result) error

// Engine applies actions to match snapshots.
// It never mutates the snapshot it is given: every transition works on a clone.
type Engine struct {
	rules       model.Rules
	random      random.Random
	logger      *slog.Logger
	transitions map[model.ActionKind]transition
}

// New creates a new Engine
func New(rules model.Rules, rnd random.Random, logger *slog.Logger) *Engine {
	e := &Engine{
		rules:  rules,
		random: rnd,
		logger: logger.With(slog.String("component", "engine")),
	}
	e.transitions = map[model.ActionKind]transition{
		model.ActionStart:    e.start,
		model.ActionAnnex:    e.annex,
		model.ActionBuild:    e.build,
		model.ActionDemolish: e.demolish,
		model.ActionOccupy:   e.occupy,
		model.ActionTick:     e.tick,
		model.ActionAccrue:   e.accrue,
	}
	return e
}

// Rules returns the constants the engine plays by
func (e *Engine) Rules() model.Rules {
	return e.rules
}

// NewMatch creates an unstarted match from the lobby roster.
// Players keep their lobby IDs, so attribution survives the hand-over.
func (e *Engine) NewMatch(id model.MatchID, roster []model.LobbyPlayer, difficulty model.Difficulty, now time.Time) *model.Match {
	players := make([]model.Player, 0, len(roster))
	hasAI := false
	for _, lp := range roster {
		players = append(players, model.Player{
			ID:         lp.ID,
			Name:       lp.Name,
			Faction:    lp.Faction,
			Color:      lp.Faction.Color(),
			GoldRate:   model.BaseGoldRate,
			UnitRate:   lp.Faction.BaseUnitRate(),
			IsReady:    lp.IsReady,
			IsAI:       lp.IsAI,
			Connection: model.ConnectionStatus{Connected: true},
		})
		if lp.IsAI {
			hasAI = true
		}
	}
	if !difficulty.IsValid() {
		difficulty = model.DefaultDifficulty
	}

	return &model.Match{
		ID:            id,
		GridSize:      e.rules.GridSize,
		Grid:          model.NewGrid(e.rules.GridSize, e.rules.NeutralGoldValue),
		Players:       players,
		TimeRemaining: e.rules.Duration,
		HasAI:         hasAI,
		Difficulty:    difficulty,
		CreatedAt:     now,
	}
}

// Apply validates and applies an action, returning the next snapshot.
// On error the returned snapshot is the input, untouched.
// Server-issued kinds carrying a player id are treated like unknown kinds.
func (e *Engine) Apply(m *model.Match, a model.Action) (*model.Match, Result, error) {
	fn, ok := e.transitions[a.Kind]
	if !ok || (a.PlayerID != "" && !a.Kind.PlayerIssuable()) {
		e.logger.Warn("ignoring unrecognized action kind",
			slog.String("match_id", string(m.ID)),
			slog.String("kind", string(a.Kind)),
			slog.String("player_id", string(a.PlayerID)),
		)
		return m, Result{Ignored: true}, nil
	}

	if err := checkPhase(m, a.Kind); err != nil {
		return m, Result{}, err
	}

	next := m.Clone()
	var res Result
	if err := fn(next, a, &res); err != nil {
		return m, Result{}, err
	}
	next.Version++

	return next, res, nil
}

func checkPhase(m *model.Match, kind model.ActionKind) error {
	if kind == model.ActionStart {
		if m.IsGameStarted {
			return model.ErrAlreadyStarted
		}
		return nil
	}
	if !m.IsGameStarted {
		return model.ErrMatchNotStarted
	}
	if m.IsGameOver {
		return model.ErrMatchOver
	}
	return nil
}

// claim hands a tile to p as freshly conquered territory
func (e *Engine) claim(tile *model.Tile, p *model.Player) {
	tile.Owner = p.ID
	tile.Structure = model.StructureNone
	tile.GoldValue = 0
	tile.UnitValue = e.rules.BaseTileUnitValue
	p.AddTile(tile.Position)
}

// release returns a tile to the neutral pool
func (e *Engine) release(tile *model.Tile) {
	tile.Owner = ""
	tile.Structure = model.StructureNone
	tile.GoldValue = e.rules.NeutralGoldValue
	tile.UnitValue = 0
}

func finish(m *model.Match, winner model.PlayerID, res *Result) {
	m.IsGameOver = true
	m.Winner = winner
	res.Ended = true
}

// checkLastStanding ends a running match once a single player is left
func checkLastStanding(m *model.Match, res *Result) {
	if !m.IsRunning() {
		return
	}
	active := m.ActivePlayers()
	if len(active) == 1 {
		finish(m, active[0].ID, res)
	}
}
