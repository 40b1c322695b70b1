package exercise

import (
	"fmt"
	"strings"

	"github.com/haivivi/intone/pkg/tonal"
)

// Difficulty is a level on the L1..L6 ladder.
type Difficulty string

const (
	L1 Difficulty = "L1"
	L2 Difficulty = "L2"
	L3 Difficulty = "L3"
	L4 Difficulty = "L4"
	L5 Difficulty = "L5"
	L6 Difficulty = "L6"
)

// Difficulties lists every level, easiest first.
var Difficulties = []Difficulty{L1, L2, L3, L4, L5, L6}

// level returns the 0-based index of d, or -1 when d is unknown.
func (d Difficulty) level() int {
	for i, v := range Difficulties {
		if v == d {
			return i
		}
	}
	return -1
}

// Valid reports whether d is a known level.
func (d Difficulty) Valid() bool {
	return d.level() >= 0
}

// ParseDifficulty accepts "L3", "l3" or "3".
func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) == 1 {
		s = "L" + s
	}
	d := Difficulty(s)
	if !d.Valid() {
		return "", fmt.Errorf("exercise: unknown difficulty %q", s)
	}
	return d, nil
}

// Profile shapes the exercises generated at one difficulty.
type Profile struct {
	MinNotes    int     `json:"min_notes" yaml:"min_notes"`
	MaxNotes    int     `json:"max_notes" yaml:"max_notes"`
	MinDuration float64 `json:"min_duration" yaml:"min_duration"`
	MaxDuration float64 `json:"max_duration" yaml:"max_duration"`
	MaxLeap     int     `json:"max_leap" yaml:"max_leap"`
	Jitter      float64 `json:"jitter" yaml:"jitter"`
}

var absoluteProfiles = [...]Profile{
	{1, 1, 2.0, 2.5, 0, 0},
	{2, 2, 2.4, 3.2, 2, 0.05},
	{3, 3, 3.0, 3.8, 3, 0.10},
	{3, 4, 3.4, 4.4, 4, 0.18},
	{4, 5, 3.8, 5.0, 5, 0.26},
	{5, 6, 4.2, 6.0, 7, 0.35},
}

var relativeProfiles = [...]Profile{
	{2, 2, 2.2, 2.8, 2, 0},
	{2, 3, 2.6, 3.4, 3, 0.05},
	{3, 4, 3.2, 4.0, 4, 0.12},
	{4, 4, 3.6, 4.6, 5, 0.20},
	{4, 5, 4.0, 5.2, 7, 0.28},
	{5, 6, 4.4, 6.0, 9, 0.36},
}

// ProfileFor returns the profile of difficulty d in mode m.
func ProfileFor(d Difficulty, m tonal.Mode) (Profile, bool) {
	lv := d.level()
	if lv < 0 || !m.Valid() {
		return Profile{}, false
	}
	if m == tonal.Relative {
		return relativeProfiles[lv], true
	}
	return absoluteProfiles[lv], true
}
