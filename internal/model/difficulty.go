package model

// Difficulty selects the AI opponent strategy
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// DefaultDifficulty is used when solo mode is enabled without an explicit choice
const DefaultDifficulty = DifficultyMedium

// ValidDifficulties returns all valid difficulty levels
func ValidDifficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

// IsValid reports whether d is a known difficulty
func (d Difficulty) IsValid() bool {
	for _, v := range ValidDifficulties() {
		if v == d {
			return true
		}
	}
	return false
}
