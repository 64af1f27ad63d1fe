package enums

import "fmt"

// Difficulty grades how demanding a retreat program is.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
	DifficultyAllLevels    Difficulty = "all_levels"
)

var validDifficulties = []Difficulty{
	DifficultyBeginner,
	DifficultyIntermediate,
	DifficultyAdvanced,
	DifficultyAllLevels,
}

// String implements fmt.Stringer.
func (d Difficulty) String() string {
	return string(d)
}

// IsValid reports whether the value is a known Difficulty.
func (d Difficulty) IsValid() bool {
	for _, candidate := range validDifficulties {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDifficulty converts raw input into a Difficulty.
func ParseDifficulty(value string) (Difficulty, error) {
	for _, candidate := range validDifficulties {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid difficulty %q", value)
}
