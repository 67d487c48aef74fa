package model

import (
	"errors"
	"math"
)

// Rules holds the tunable game constants
type Rules struct {
	GridSize         int     `yaml:"grid_size"`
	Duration         int     `yaml:"duration"`           // seconds
	MinStartDistance float64 `yaml:"min_start_distance"` // Euclidean
	StartAttempts    int     `yaml:"start_attempts"`
	MaxPlayers       int     `yaml:"max_players"`

	AnnexBaseCost     int `yaml:"annex_base_cost"`
	AnnexTilesPerStep int `yaml:"annex_tiles_per_step"`
	BuildCost         int `yaml:"build_cost"`
	EconomyGoldBonus  int `yaml:"economy_gold_bonus"`
	MilitaryUnitBonus int `yaml:"military_unit_bonus"`
	DefenseUnitBonus  int `yaml:"defense_unit_bonus"`
	BaseTileUnitValue int `yaml:"base_tile_unit_value"`
	NeutralGoldValue  int `yaml:"neutral_gold_value"`
}

// DefaultRules returns the standard game constants
func DefaultRules() Rules {
	return Rules{
		GridSize:          25,
		Duration:          300,
		MinStartDistance:  10,
		StartAttempts:     100,
		MaxPlayers:        3,
		AnnexBaseCost:     10,
		AnnexTilesPerStep: 3,
		BuildCost:         20,
		EconomyGoldBonus:  5,
		MilitaryUnitBonus: 1,
		DefenseUnitBonus:  40,
		BaseTileUnitValue: 10,
		NeutralGoldValue:  10,
	}
}

// AnnexCost returns the gold price of claiming a neutral tile
func (r Rules) AnnexCost(owned int) int {
	return r.AnnexBaseCost + owned/r.AnnexTilesPerStep
}

// Distance returns the Euclidean distance between two positions
func Distance(a, b Position) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Validate checks the rules are internally consistent
func (r Rules) Validate() error {
	switch {
	case r.GridSize <= 0:
		return errors.New("grid_size must be positive")
	case r.Duration <= 0:
		return errors.New("duration must be positive")
	case r.StartAttempts <= 0:
		return errors.New("start_attempts must be positive")
	case r.MaxPlayers < 2:
		return errors.New("max_players must be at least 2")
	case r.MaxPlayers > r.GridSize*r.GridSize:
		return errors.New("max_players exceeds grid capacity")
	case r.AnnexTilesPerStep <= 0:
		return errors.New("annex_tiles_per_step must be positive")
	case r.BaseTileUnitValue <= 0:
		return errors.New("base_tile_unit_value must be positive")
	}
	return nil
}
