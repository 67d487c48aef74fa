package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcoot/conquestgame-go/internal/model"
)

// Timing holds the scheduling knobs of the server
type Timing struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	// AIJitter delays each AI action by a random amount below it
	AIJitter    time.Duration `yaml:"ai_jitter"`
	GracePeriod time.Duration `yaml:"grace_period"`

	FinishedMatchRetention time.Duration `yaml:"finished_match_retention"`
	SweepInterval          time.Duration `yaml:"sweep_interval"`
}

// Tuning is the game tuning file
type Tuning struct {
	Rules  model.Rules `yaml:"rules"`
	Timing Timing      `yaml:"timing"`
}

// DefaultTuning returns the compiled-in tuning
func DefaultTuning() Tuning {
	return Tuning{
		Rules: model.DefaultRules(),
		Timing: Timing{
			TickInterval:           time.Second,
			AIJitter:               500 * time.Millisecond,
			GracePeriod:            60 * time.Second,
			FinishedMatchRetention: 5 * time.Minute,
			SweepInterval:          30 * time.Second,
		},
	}
}

// LoadTuning overlays the YAML file at path onto the defaults.
// An empty path returns the defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	return ParseTuning(raw)
}

// ParseTuning overlays raw YAML onto the defaults and validates the result
func ParseTuning(raw []byte) (Tuning, error) {
	t := DefaultTuning()
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning: %w", err)
	}
	return t, nil
}

// Validate checks the tuning is usable
func (t Tuning) Validate() error {
	if err := t.Rules.Validate(); err != nil {
		return err
	}
	switch {
	case t.Timing.TickInterval <= 0:
		return errors.New("tick_interval must be positive")
	case t.Timing.AIJitter < 0:
		return errors.New("ai_jitter must not be negative")
	case t.Timing.GracePeriod <= 0:
		return errors.New("grace_period must be positive")
	case t.Timing.SweepInterval <= 0:
		return errors.New("sweep_interval must be positive")
	}
	return nil
}
