package ai

import (
	"github.com/mcoot/conquestgame-go/internal/dependencies/random"
	"github.com/mcoot/conquestgame-go/internal/model"
)

// Strategy defines how an AI opponent of a given difficulty plays
type Strategy interface {
	// Cadence is the number of seconds between decisions
	Cadence() int
	// Aggression is the chance of attacking when an attack is possible
	Aggression() float64
	// ChooseStructure selects what to build next
	ChooseStructure(m *model.Match, p *model.Player) model.StructureType
	// ChooseAnnexTarget picks among neutral tiles bordering the player's territory
	ChooseAnnexTarget(m *model.Match, p *model.Player, candidates []model.Position) model.Position
	// ChooseOccupyTarget picks among affordable enemy tiles bordering the player's territory
	ChooseOccupyTarget(m *model.Match, p *model.Player, candidates []model.Position) model.Position
}

// DefaultStrategies returns a strategy for every difficulty
func DefaultStrategies(rnd random.Random) map[model.Difficulty]Strategy {
	return map[model.Difficulty]Strategy{
		model.DifficultyEasy:   NewEasyStrategy(rnd),
		model.DifficultyMedium: NewMediumStrategy(rnd),
		model.DifficultyHard:   NewHardStrategy(rnd),
	}
}

// EasyStrategy acts slowly and picks everything at random
type EasyStrategy struct {
	random random.Random
}

// NewEasyStrategy creates a new EasyStrategy
func NewEasyStrategy(rnd random.Random) *EasyStrategy {
	return &EasyStrategy{random: rnd}
}

func (s *EasyStrategy) Cadence() int        { return 5 }
func (s *EasyStrategy) Aggression() float64 { return 0.3 }

// ChooseStructure returns a uniformly random structure type
func (s *EasyStrategy) ChooseStructure(_ *model.Match, _ *model.Player) model.StructureType {
	types := model.ValidStructureTypes()
	return types[s.random.Intn(len(types))]
}

func (s *EasyStrategy) ChooseAnnexTarget(_ *model.Match, _ *model.Player, candidates []model.Position) model.Position {
	return pick(s.random, candidates)
}

func (s *EasyStrategy) ChooseOccupyTarget(_ *model.Match, _ *model.Player, candidates []model.Position) model.Position {
	return pick(s.random, candidates)
}

// MediumStrategy favours economy while small and avoids fortified targets
type MediumStrategy struct {
	random random.Random
}

// NewMediumStrategy creates a new MediumStrategy
func NewMediumStrategy(rnd random.Random) *MediumStrategy {
	return &MediumStrategy{random: rnd}
}

func (s *MediumStrategy) Cadence() int        { return 3 }
func (s *MediumStrategy) Aggression() float64 { return 0.6 }

func (s *MediumStrategy) ChooseStructure(_ *model.Match, p *model.Player) model.StructureType {
	if p.TileCount() < smallTerritory || s.random.Float64() < 0.5 {
		return model.StructureEconomy
	}
	if s.random.Float64() < 0.7 {
		return model.StructureMilitary
	}
	return model.StructureDefense
}

func (s *MediumStrategy) ChooseAnnexTarget(_ *model.Match, _ *model.Player, candidates []model.Position) model.Position {
	return pick(s.random, candidates)
}

// ChooseOccupyTarget prefers tiles without a structure
func (s *MediumStrategy) ChooseOccupyTarget(m *model.Match, _ *model.Player, candidates []model.Position) model.Position {
	bare := filter(candidates, func(pos model.Position) bool {
		return !m.Grid.At(pos).HasStructure()
	})
	if len(bare) > 0 {
		return pick(s.random, bare)
	}
	return pick(s.random, candidates)
}

// HardStrategy acts quickly, builds for the situation and hunts weak opponents
type HardStrategy struct {
	random random.Random
}

// NewHardStrategy creates a new HardStrategy
func NewHardStrategy(rnd random.Random) *HardStrategy {
	return &HardStrategy{random: rnd}
}

func (s *HardStrategy) Cadence() int        { return 2 }
func (s *HardStrategy) Aggression() float64 { return 0.8 }

func (s *HardStrategy) ChooseStructure(_ *model.Match, p *model.Player) model.StructureType {
	switch {
	case p.TileCount() < smallTerritory:
		return model.StructureEconomy
	case p.Units < lowUnits:
		return model.StructureMilitary
	case s.random.Float64() < 0.7:
		return model.StructureMilitary
	default:
		return model.StructureDefense
	}
}

func (s *HardStrategy) ChooseAnnexTarget(_ *model.Match, _ *model.Player, candidates []model.Position) model.Position {
	return pick(s.random, candidates)
}

// ChooseOccupyTarget goes for nearly-eliminated players first, then income structures
func (s *HardStrategy) ChooseOccupyTarget(m *model.Match, _ *model.Player, candidates []model.Position) model.Position {
	weak := filter(candidates, func(pos model.Position) bool {
		owner := m.GetPlayer(m.Grid.At(pos).Owner)
		return owner != nil && owner.TileCount() <= weakTerritory
	})
	if len(weak) > 0 {
		return pick(s.random, weak)
	}

	valuable := filter(candidates, func(pos model.Position) bool {
		st := m.Grid.At(pos).Structure
		return st == model.StructureEconomy || st == model.StructureMilitary
	})
	if len(valuable) > 0 {
		return pick(s.random, valuable)
	}
	return pick(s.random, candidates)
}

const (
	smallTerritory = 5
	lowUnits       = 20
	weakTerritory  = 3
)

func pick(rnd random.Random, candidates []model.Position) model.Position {
	return candidates[rnd.Intn(len(candidates))]
}

func filter(candidates []model.Position, keep func(model.Position) bool) []model.Position {
	var result []model.Position
	for _, c := range candidates {
		if keep(c) {
			result = append(result, c)
		}
	}
	return result
}
