// Package tone synthesizes the audio around an exercise: the guide tone a
// singer listens to before an attempt, and a harmonic "sung" take used to
// drive the practice loop offline.
//
// All output is mono float32 in [-1, 1] at the requested sample rate.
package tone

import (
	"math"

	"github.com/haivivi/intone/pkg/tonal"
)

const (
	// GuideLevel is the peak level of the guide melody.
	GuideLevel = 0.18

	// Count-in clicks.
	DefaultCountIn  = 3
	DefaultBeat     = 1.0
	DefaultClickHz  = 800.0
	DefaultAccentHz = 1200.0
	clickSeconds    = 0.03
	clickLevel      = 0.25

	// Guide note envelope bounds, in seconds.
	minAttack  = 0.006
	maxAttack  = 0.014
	minRelease = 0.018
	maxRelease = 0.05
)

// RenderOptions configures guide rendering.
type RenderOptions struct {
	Level    float64 // Peak level of the melody (default: GuideLevel)
	CountIn  int     // Number of clicks before the melody; negative disables
	Beat     float64 // Seconds between clicks (default: 1)
	ClickHz  float64 // Frequency of the regular clicks
	AccentHz float64 // Frequency of the first click
}

// DefaultRenderOptions returns default rendering options.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Level:    GuideLevel,
		CountIn:  DefaultCountIn,
		Beat:     DefaultBeat,
		ClickHz:  DefaultClickHz,
		AccentHz: DefaultAccentHz,
	}
}

func (o RenderOptions) withDefaults() RenderOptions {
	d := DefaultRenderOptions()
	if o.Level <= 0 {
		o.Level = d.Level
	}
	if o.CountIn == 0 {
		o.CountIn = d.CountIn
	}
	if o.Beat <= 0 {
		o.Beat = d.Beat
	}
	if o.ClickHz <= 0 {
		o.ClickHz = d.ClickHz
	}
	if o.AccentHz <= 0 {
		o.AccentHz = d.AccentHz
	}
	return o
}

// Lead returns the number of seconds before the first note of the melody.
func (o RenderOptions) Lead() float64 {
	o = o.withDefaults()
	return float64(o.clicks()) * o.Beat
}

// clicks returns the number of count-in clicks. withDefaults leaves a
// negative CountIn untouched.
func (o RenderOptions) clicks() int {
	return max(0, o.CountIn)
}

// Guide renders the count-in followed by the notes as pure sines. Each
// note gets a short attack and release so that contiguous notes do not
// click against each other.
func Guide(notes []tonal.Note, sampleRate int, opts RenderOptions) []float32 {
	opts = opts.withDefaults()
	if sampleRate <= 0 {
		return nil
	}
	lead := float64(opts.clicks()) * opts.Beat
	end := lead
	for _, n := range notes {
		end = math.Max(end, lead+n.End)
	}
	out := make([]float32, samplesIn(end, sampleRate))

	for beat := range opts.clicks() {
		freq := opts.ClickHz
		if beat == 0 {
			freq = opts.AccentHz
		}
		click(out, float64(beat)*opts.Beat, freq, sampleRate)
	}
	for _, n := range notes {
		if !tonal.ValidHz(n.Hz) || n.Duration() <= 0 {
			continue
		}
		sine(out, lead+n.Start, n.Duration(), n.Hz, opts.Level, sampleRate)
	}
	return out
}

// Envelope returns the attack and release times used for a guide note of
// dur seconds.
func Envelope(dur float64) (attack, release float64) {
	attack = tonal.Clamp(dur*0.3, minAttack, maxAttack)
	release = tonal.Clamp(dur*0.4, minRelease, maxRelease)
	return attack, release
}

// sine adds one enveloped note into out.
func sine(out []float32, start, dur, hz, level float64, sampleRate int) {
	attack, release := Envelope(dur)
	first := samplesIn(start, sampleRate)
	n := samplesIn(dur, sampleRate)
	sr := float64(sampleRate)
	for i := 0; i < n && first+i < len(out); i++ {
		t := float64(i) / sr
		g := 1.0
		switch {
		case t < attack:
			g = t / attack
		case dur-t < release:
			g = (dur - t) / release
		}
		out[first+i] += float32(level * g * math.Sin(2*math.Pi*hz*t))
	}
}

// click adds a short decaying blip, the metronome sound.
func click(out []float32, start, hz float64, sampleRate int) {
	first := samplesIn(start, sampleRate)
	n := samplesIn(clickSeconds, sampleRate)
	sr := float64(sampleRate)
	for i := 0; i < n && first+i < len(out); i++ {
		t := float64(i) / sr
		g := math.Exp(-t / (clickSeconds / 4))
		out[first+i] += float32(clickLevel * g * math.Sin(2*math.Pi*hz*t))
	}
}

func samplesIn(seconds float64, sampleRate int) int {
	if seconds <= 0 {
		return 0
	}
	return int(math.Round(seconds * float64(sampleRate)))
}
