// Package exercise generates melodic pitch-matching exercises.
//
// An exercise is a short run of contiguous notes drawn from the singable
// band of a singer's range around a tonic. Notes mostly fall on natural
// major-scale degrees; the difficulty ladder controls how many notes there
// are, how far apart they may leap and how uneven their lengths are.
//
// Generation takes an explicit *rand.Rand so that a fixed seed reproduces
// an exercise exactly, including its ID.
package exercise

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/haivivi/intone/pkg/tonal"
)

const (
	// MaxDuration is the hard ceiling on an exercise's length in seconds.
	MaxDuration = 6.0

	// TargetStep is the time step of the sampled target curve.
	TargetStep = 0.02

	// MinNoteDuration is reserved for every note before the remaining
	// time is distributed.
	MinNoteDuration = 0.35

	// CoreProbability is the chance of drawing a note from the natural
	// degrees rather than the accidentals.
	CoreProbability = 0.9

	// Window of the band around the tonic, in semitones.
	bandBelowSemi = -7
	bandAboveSemi = 14

	// Fraction trimmed off each end of the singer's range.
	rangeMargin = 0.05

	// Bands narrower than this are relaxed.
	minBandSemi = 4

	// Gaussian weighting of candidate notes around the center degree.
	centerSemi = 5
	coreSigma  = 3.5
	extSigma   = 5.0
)

// Spec is a generated exercise.
type Spec struct {
	ID         string        `json:"id" yaml:"id" msgpack:"id"`
	Duration   float64       `json:"duration" yaml:"duration" msgpack:"duration"`
	Target     []tonal.Point `json:"target,omitempty" yaml:"target,omitempty" msgpack:"target"`
	Notes      []tonal.Note  `json:"notes" yaml:"notes" msgpack:"notes"`
	TonicHz    float64       `json:"tonic_hz" yaml:"tonic_hz" msgpack:"tonic_hz"`
	BandLow    float64       `json:"band_low" yaml:"band_low" msgpack:"band_low"`
	BandHigh   float64       `json:"band_high" yaml:"band_high" msgpack:"band_high"`
	Difficulty Difficulty    `json:"difficulty" yaml:"difficulty" msgpack:"difficulty"`
	Mode       tonal.Mode    `json:"mode" yaml:"mode" msgpack:"mode"`
	Tuning     tonal.Tuning  `json:"tuning" yaml:"tuning" msgpack:"tuning"`
}

// Generate builds an exercise for cfg using rng as the only source of
// randomness. It returns an error wrapping ErrInvalidConfig when cfg is
// unusable; a band too narrow to sing in is widened instead.
func Generate(cfg Config, rng *rand.Rand) (*Spec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidConfig)
	}
	profile, _ := ProfileFor(cfg.Difficulty, cfg.Mode)

	tonic := cfg.EffectiveTonic()
	low, high := Band(cfg.MinHz, cfg.MaxHz, tonic)
	core, ext := pools(tonic, low, high, cfg.Tuning)
	if len(core)+len(ext) == 0 {
		return nil, fmt.Errorf("%w: no notes between %.1f and %.1f Hz", ErrInvalidConfig, low, high)
	}

	count := profile.MinNotes + rng.IntN(profile.MaxNotes-profile.MinNotes+1)
	path := buildPath(rng, core, ext, count, profile.MaxLeap)
	if cfg.Mode == tonal.Relative {
		path = repairFlatPath(rng, path, append(append([]int(nil), core...), ext...), profile.MaxLeap)
	}

	durations := assignDurations(rng, profile, len(path))
	notes := materialize(path, durations, tonic, cfg.Tuning)

	id, err := uuid.NewRandomFromReader(randReader{rng})
	if err != nil {
		return nil, fmt.Errorf("exercise: id: %w", err)
	}

	total := notes[len(notes)-1].End
	return &Spec{
		ID:         id.String(),
		Duration:   total,
		Target:     SampleTarget(notes),
		Notes:      notes,
		TonicHz:    tonic,
		BandLow:    low,
		BandHigh:   high,
		Difficulty: cfg.Difficulty,
		Mode:       cfg.Mode,
		Tuning:     cfg.Tuning,
	}, nil
}

// Band returns the singable band for a range and an effective tonic: the
// window around the tonic intersected with the trimmed range. It widens to
// the full range, then to a few semitones around the middle of the range,
// when the result is too narrow.
func Band(minHz, maxHz, tonic float64) (low, high float64) {
	low = math.Max(tonic*math.Pow(2, bandBelowSemi/12.0), minHz*(1+rangeMargin))
	high = math.Min(tonic*math.Pow(2, bandAboveSemi/12.0), maxHz*(1-rangeMargin))
	if wideEnough(low, high) {
		return low, high
	}
	if wideEnough(minHz, maxHz) {
		return minHz, maxHz
	}
	mid := math.Sqrt(minHz * maxHz)
	half := math.Pow(2, minBandSemi/24.0)
	return mid / half, mid * half
}

func wideEnough(low, high float64) bool {
	return low > 0 && high > low && tonal.HzToSemi(high, low) >= minBandSemi
}

// pools splits the whole semitones whose tuned frequency lies in
// [low, high] into natural degrees and accidentals.
func pools(tonic, low, high float64, tuning tonal.Tuning) (core, ext []int) {
	lo := int(math.Floor(tonal.HzToSemi(low, tonic))) - 1
	hi := int(math.Ceil(tonal.HzToSemi(high, tonic))) + 1
	for semi := lo; semi <= hi; semi++ {
		hz := tonal.TunedHz(tonic, semi, tuning)
		if hz < low || hz > high {
			continue
		}
		if tonal.IsCoreDegree(semi) {
			core = append(core, semi)
		} else {
			ext = append(ext, semi)
		}
	}
	return core, ext
}

func buildPath(rng *rand.Rand, core, ext []int, count, maxLeap int) []int {
	path := make([]int, 0, count)
	for i := range count {
		pool, sigma := core, coreSigma
		if rng.Float64() >= CoreProbability {
			pool, sigma = ext, extSigma
		}
		if len(pool) == 0 {
			pool = append(append([]int(nil), core...), ext...)
		}

		candidates := pool
		if i > 0 {
			prev := path[i-1]
			candidates = filter(pool, func(s int) bool { return s != prev && abs(s-prev) <= maxLeap })
			if len(candidates) == 0 {
				candidates = filter(pool, func(s int) bool { return abs(s-prev) <= maxLeap })
			}
			if len(candidates) == 0 {
				candidates = pool
			}
		}
		path = append(path, pickWeighted(rng, candidates, sigma))
	}
	return path
}

// pickWeighted draws from candidates with a Gaussian weight around the
// center degree.
func pickWeighted(rng *rand.Rand, candidates []int, sigma float64) int {
	weights := make([]float64, len(candidates))
	var total float64
	for i, s := range candidates {
		d := float64(s - centerSemi)
		weights[i] = math.Exp(-d * d / (2 * sigma * sigma))
		total += weights[i]
	}
	if total <= 0 {
		return candidates[rng.IntN(len(candidates))]
	}
	x := rng.Float64() * total
	for i, w := range weights {
		x -= w
		if x < 0 {
			return candidates[i]
		}
	}
	return candidates[len(candidates)-1]
}

// repairFlatPath moves the last note of a path whose notes are all equal,
// so relative exercises always have a contour.
func repairFlatPath(rng *rand.Rand, path, pool []int, maxLeap int) []int {
	if len(path) < 2 {
		return path
	}
	first := path[0]
	for _, s := range path[1:] {
		if s != first {
			return path
		}
	}

	options := filter(pool, func(s int) bool { return s != first && abs(s-first) <= max(1, maxLeap) })
	if len(options) > 0 {
		path[len(path)-1] = options[rng.IntN(len(options))]
		return path
	}
	best, bestDist := first, math.MaxInt
	for _, s := range pool {
		if d := abs(s - first); s != first && d < bestDist {
			best, bestDist = s, d
		}
	}
	path[len(path)-1] = best
	return path
}

func assignDurations(rng *rand.Rand, p Profile, n int) []float64 {
	total := p.MinDuration + rng.Float64()*(p.MaxDuration-p.MinDuration)
	total = math.Min(total, MaxDuration)
	if n == 1 {
		return []float64{total}
	}

	reserve := math.Min(MinNoteDuration, total/float64(n))
	free := total - reserve*float64(n)
	weights := make([]float64, n)
	var sum float64
	for i := range weights {
		weights[i] = math.Max(0.05, 1+p.Jitter*(2*rng.Float64()-1))
		sum += weights[i]
	}
	durations := make([]float64, n)
	for i, w := range weights {
		durations[i] = reserve + free*w/sum
	}
	return durations
}

func materialize(path []int, durations []float64, tonic float64, tuning tonal.Tuning) []tonal.Note {
	var total float64
	for _, d := range durations {
		total += d
	}
	total = math.Min(total, MaxDuration)

	notes := make([]tonal.Note, len(path))
	start := 0.0
	for i, semi := range path {
		end := start + durations[i]
		if i == len(path)-1 {
			end = total
		}
		notes[i] = tonal.Note{
			Index: i,
			Start: start,
			End:   end,
			Semi:  semi,
			Hz:    tonal.TunedHz(tonic, semi, tuning),
			Label: tonal.DegreeLabel(semi),
			Core:  tonal.IsCoreDegree(semi),
		}
		start = end
	}
	return notes
}

// SampleTarget resamples notes into a piecewise-constant curve with one
// point every TargetStep seconds and a final point at the end of the last
// note.
func SampleTarget(notes []tonal.Note) []tonal.Point {
	if len(notes) == 0 {
		return nil
	}
	last := notes[len(notes)-1]
	out := make([]tonal.Point, 0, int(last.End/TargetStep)+len(notes)+1)
	for _, n := range notes {
		for k := 0; ; k++ {
			t := n.Start + float64(k)*TargetStep
			if t >= n.End-1e-9 {
				break
			}
			out = append(out, tonal.Point{T: t, Hz: n.Hz})
		}
	}
	return append(out, tonal.Point{T: last.End, Hz: last.Hz})
}

func filter(in []int, keep func(int) bool) []int {
	var out []int
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// randReader adapts a *rand.Rand to io.Reader for uuid generation.
type randReader struct {
	r *rand.Rand
}

func (rr randReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(rr.r.Uint32())
	}
	return len(p), nil
}
