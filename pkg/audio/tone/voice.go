package tone

import (
	"math"

	"github.com/haivivi/intone/pkg/tonal"
)

// Harmonic structure of the synthetic voice, relative to the fundamental.
var voiceHarmonics = []struct {
	ratio     float64
	amplitude float64
}{
	{1, 1.0},
	{2, 0.45},
	{3, 0.25},
	{4, 0.12},
	{5, 0.06},
}

// SingOptions configures a synthetic sung take.
type SingOptions struct {
	Level        float64 // Peak level (default: 0.5)
	DetuneCents  float64 // Constant offset applied to every note
	Transpose    int     // Semitones added to every note
	VibratoHz    float64 // Vibrato rate; 0 disables vibrato
	VibratoCents float64 // Vibrato depth
	Glide        float64 // Seconds spent sliding into each new note
	Lead         float64 // Silence before the first note
	Tail         float64 // Silence after the last note
	TimeScale    float64 // Stretch factor applied to note timing (default: 1)
}

// Sing renders notes as a harmonic, phase-continuous voice. It is the
// offline stand-in for a singer: detune, transposition and tempo changes
// model the ways a real attempt departs from the target.
func Sing(notes []tonal.Note, sampleRate int, opts SingOptions) []float32 {
	if sampleRate <= 0 || len(notes) == 0 {
		return nil
	}
	if opts.Level <= 0 {
		opts.Level = 0.5
	}
	if opts.TimeScale <= 0 {
		opts.TimeScale = 1
	}

	var sum float64
	for _, h := range voiceHarmonics {
		sum += h.amplitude
	}
	scale := opts.Level / sum

	sr := float64(sampleRate)
	last := notes[len(notes)-1]
	voiced := (last.End - notes[0].Start) * opts.TimeScale
	total := opts.Lead + voiced + opts.Tail
	out := make([]float32, samplesIn(total, sampleRate))

	shift := float64(opts.Transpose) + opts.DetuneCents/100
	const fade = 0.02
	phase := 0.0
	idx := 0
	for i := range out {
		t := float64(i)/sr - opts.Lead
		if t < 0 || t >= voiced {
			continue
		}
		local := notes[0].Start + t/opts.TimeScale
		for idx < len(notes)-1 && local >= notes[idx].End {
			idx++
		}
		hz := noteHz(notes, idx, local, opts.Glide)
		hz = tonal.SemiToHz(shift, hz)
		if opts.VibratoHz > 0 {
			hz = tonal.SemiToHz(opts.VibratoCents/100*math.Sin(2*math.Pi*opts.VibratoHz*t), hz)
		}
		phase += 2 * math.Pi * hz / sr
		if phase > 2*math.Pi*1e6 {
			phase = math.Mod(phase, 2*math.Pi)
		}

		var v float64
		for _, h := range voiceHarmonics {
			v += h.amplitude * math.Sin(phase*h.ratio)
		}
		g := math.Min(1, math.Min(t/fade, (voiced-t)/fade))
		out[i] = float32(tonal.Clamp(v*scale*g, -1, 1))
	}
	return out
}

// noteHz is the frequency at local time t within note idx, sliding from the
// previous note across the first glide seconds.
func noteHz(notes []tonal.Note, idx int, t, glide float64) float64 {
	n := notes[idx]
	if idx == 0 || glide <= 0 {
		return n.Hz
	}
	into := t - n.Start
	if into >= glide {
		return n.Hz
	}
	prev := notes[idx-1].Hz
	semi := tonal.HzToSemi(n.Hz, prev)
	return tonal.SemiToHz(semi*into/glide, prev)
}
