// Package tonal holds the pitch arithmetic shared by the tracker, the
// exercise generator and the scorer: semitone and cent conversion, tunings,
// scale degrees and target-curve lookup.
//
// All semitone values are relative to a tonic ("do") frequency.
package tonal

import (
	"fmt"
	"math"
	"strings"
)

// Tuning selects how scale degrees map to frequencies.
type Tuning string

const (
	// EqualTemperament spaces every semitone by 2^(1/12).
	EqualTemperament Tuning = "equal"
	// JustIntonation uses 5-limit ratios for the natural degrees and
	// falls back to equal temperament for accidentals.
	JustIntonation Tuning = "just"
)

// Valid reports whether t is a known tuning.
func (t Tuning) Valid() bool {
	return t == EqualTemperament || t == JustIntonation
}

// justRatios is indexed by semitone above the tonic.
var justRatios = [12]float64{
	1.0 / 1, 16.0 / 15, 9.0 / 8, 6.0 / 5, 5.0 / 4, 4.0 / 3,
	45.0 / 32, 3.0 / 2, 8.0 / 5, 5.0 / 3, 9.0 / 5, 15.0 / 8,
}

// coreDegrees marks the natural (major-scale) degrees.
var coreDegrees = [12]bool{
	0: true, 2: true, 4: true, 5: true, 7: true, 9: true, 11: true,
}

// degreeNames is the numbered-notation name of each semitone class.
var degreeNames = [12]string{
	"1", "#1", "2", "#2", "3", "4", "#4", "5", "#5", "6", "#6", "7",
}

// HzToSemi returns the distance of hz above ref in semitones.
func HzToSemi(hz, ref float64) float64 {
	return 12 * math.Log2(hz/ref)
}

// SemiToHz returns the equal-tempered frequency semi semitones above ref.
func SemiToHz(semi, ref float64) float64 {
	return ref * math.Pow(2, semi/12)
}

// Cents returns the distance of hz above ref in cents.
func Cents(hz, ref float64) float64 {
	return 1200 * math.Log2(hz/ref)
}

// splitSemi splits an integer semitone into octave and degree (0..11).
func splitSemi(semi int) (octave, degree int) {
	octave = semi / 12
	degree = semi % 12
	if degree < 0 {
		degree += 12
		octave--
	}
	return octave, degree
}

// IsCoreDegree reports whether semi falls on a natural scale degree.
func IsCoreDegree(semi int) bool {
	_, d := splitSemi(semi)
	return coreDegrees[d]
}

// TunedHz returns the frequency of the integer semitone semi above tonic
// under the given tuning. Just intonation only retunes natural degrees.
func TunedHz(tonic float64, semi int, tuning Tuning) float64 {
	if tuning == JustIntonation && IsCoreDegree(semi) {
		oct, d := splitSemi(semi)
		return tonic * justRatios[d] * math.Pow(2, float64(oct))
	}
	return SemiToHz(float64(semi), tonic)
}

// DegreeLabel renders semi in numbered notation: "1".."7" with "#" for
// accidentals, "'" per octave above and "," per octave below the tonic.
func DegreeLabel(semi int) string {
	oct, d := splitSemi(semi)
	name := degreeNames[d]
	switch {
	case oct > 0:
		return name + strings.Repeat("'", oct)
	case oct < 0:
		return name + strings.Repeat(",", -oct)
	default:
		return name
	}
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// ClampScore rounds v and limits it to the 0..100 score range.
func ClampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(Clamp(v, 0, 100)))
}

// ValidHz reports whether hz is a finite positive frequency.
func ValidHz(hz float64) bool {
	return hz > 0 && !math.IsInf(hz, 1) && !math.IsNaN(hz)
}

// FormatHz formats a frequency the way it is shown to singers.
func FormatHz(hz float64) string {
	return fmt.Sprintf("%.1f Hz", hz)
}
