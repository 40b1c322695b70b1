package exercise

import (
	"errors"
	"fmt"
	"math"

	"github.com/haivivi/intone/pkg/tonal"
)

// ErrInvalidConfig is returned by Generate for configurations that no
// exercise can be built from.
var ErrInvalidConfig = errors.New("exercise: invalid config")

// Gender selects a default vocal range.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// Config describes the singer and the exercise to generate.
type Config struct {
	// MinHz and MaxHz bound the singer's comfortable range.
	MinHz float64 `json:"min_hz" yaml:"min_hz"`
	MaxHz float64 `json:"max_hz" yaml:"max_hz"`

	// TonicHz is the "do" frequency before key transposition.
	TonicHz float64 `json:"tonic_hz" yaml:"tonic_hz"`

	// KeySemitone transposes the tonic by whole semitones.
	KeySemitone int `json:"key_semitone,omitempty" yaml:"key_semitone,omitempty"`

	Tuning     tonal.Tuning `json:"tuning" yaml:"tuning"`
	Difficulty Difficulty   `json:"difficulty" yaml:"difficulty"`
	Mode       tonal.Mode   `json:"mode" yaml:"mode"`
}

// DefaultConfig returns the default range and tonic for g at L1 in
// absolute mode with equal temperament.
func DefaultConfig(g Gender) Config {
	cfg := Config{
		MinHz:      105,
		MaxHz:      530,
		TonicHz:    130.8,
		Tuning:     tonal.EqualTemperament,
		Difficulty: L1,
		Mode:       tonal.Absolute,
	}
	if g == Female {
		cfg.MinHz, cfg.MaxHz, cfg.TonicHz = 175, 880, 261.6
	}
	return cfg
}

// EffectiveTonic returns the tonic after key transposition.
func (c Config) EffectiveTonic() float64 {
	return c.TonicHz * math.Pow(2, float64(c.KeySemitone)/12)
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case !tonal.ValidHz(c.MinHz) || !tonal.ValidHz(c.MaxHz):
		return fmt.Errorf("%w: range %v..%v Hz", ErrInvalidConfig, c.MinHz, c.MaxHz)
	case c.MaxHz < c.MinHz:
		return fmt.Errorf("%w: max %v Hz below min %v Hz", ErrInvalidConfig, c.MaxHz, c.MinHz)
	case !tonal.ValidHz(c.TonicHz):
		return fmt.Errorf("%w: tonic %v Hz", ErrInvalidConfig, c.TonicHz)
	case !c.Tuning.Valid():
		return fmt.Errorf("%w: tuning %q", ErrInvalidConfig, c.Tuning)
	case !c.Difficulty.Valid():
		return fmt.Errorf("%w: difficulty %q", ErrInvalidConfig, c.Difficulty)
	case !c.Mode.Valid():
		return fmt.Errorf("%w: mode %q", ErrInvalidConfig, c.Mode)
	}
	return nil
}
