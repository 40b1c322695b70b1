// Package pitch implements a monophonic, real-time pitch tracker for sung
// input.
//
// # Algorithm
//
// Audio arrives in fixed-size blocks. Each block is gated on RMS energy,
// slid into a fixed analysis window and, once the window is full, analysed
// with a Hann-windowed, zero-normalised autocorrelation over the lag range
// of [minHz, maxHz]. The best lag is refined by parabolic interpolation and
// checked for octave ambiguity against the correlation at half the lag.
// Accepted estimates pass through a short median filter and an exponential
// moving average before they are reported.
//
// A Tracker allocates all of its buffers up front; Process does not
// allocate. A Tracker is not safe for concurrent use: run one per
// recording session and Reset it between attempts.
package pitch

import (
	"math"
	"slices"

	"github.com/viterin/vek/vek32"
)

// Defaults used by NewTracker.
const (
	DefaultWindowSize    = 4096
	DefaultHopSize       = 1024
	DefaultMinHz         = 80.0
	DefaultMaxHz         = 1000.0
	DefaultSilenceRMS    = 0.015
	DefaultMinConfidence = 0.35
	DefaultMedianLength  = 7
	DefaultSmoothing     = 0.25

	// OctaveRatioThreshold is the half-lag to best-lag correlation ratio
	// above which confidence starts to be scaled down.
	OctaveRatioThreshold = 0.55
)

const epsilon = 1e-8

// Tracker estimates the fundamental frequency of a stream of audio blocks.
type Tracker struct {
	sampleRate int

	hopSize       int
	minHz, maxHz  float64
	silenceRMS    float64
	minConfidence float64
	alpha         float64

	window []float32 // circular analysis window
	pos    int       // next write position
	filled int       // samples written, up to len(window)

	frame []float32 // linearised, windowed copy of the analysis window
	hann  []float32

	history  []float64 // circular history of accepted estimates
	histPos  int
	histLen  int
	sortBuf  []float64
	ema      float64
	emaValid bool

	lastRMS        float64
	lastConfidence float64
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithWindowSize sets the analysis window length in samples (default 4096).
func WithWindowSize(n int) Option {
	return func(t *Tracker) {
		if n >= 4 {
			t.window = make([]float32, n)
		}
	}
}

// WithHopSize caps how many samples of one block slide into an already
// full window (default 1024).
func WithHopSize(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.hopSize = n
		}
	}
}

// WithRange sets the trackable frequency range (default 80–1000 Hz).
func WithRange(minHz, maxHz float64) Option {
	return func(t *Tracker) {
		if minHz > 0 && maxHz > minHz {
			t.minHz, t.maxHz = minHz, maxHz
		}
	}
}

// WithSilenceRMS sets the block RMS below which the tracker resets
// (default 0.015).
func WithSilenceRMS(rms float64) Option {
	return func(t *Tracker) {
		if rms >= 0 {
			t.silenceRMS = rms
		}
	}
}

// WithMinConfidence sets the minimum correlation confidence (default 0.35).
func WithMinConfidence(c float64) Option {
	return func(t *Tracker) {
		if c >= 0 && c <= 1 {
			t.minConfidence = c
		}
	}
}

// WithMedianLength sets the length of the median filter (default 7).
func WithMedianLength(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.history = make([]float64, n)
			t.sortBuf = make([]float64, n)
		}
	}
}

// WithSmoothing sets the EMA factor α in (0, 1] (default 0.25).
func WithSmoothing(alpha float64) Option {
	return func(t *Tracker) {
		if alpha > 0 && alpha <= 1 {
			t.alpha = alpha
		}
	}
}

// NewTracker creates a Tracker for audio at sampleRate Hz.
func NewTracker(sampleRate int, opts ...Option) *Tracker {
	t := &Tracker{
		sampleRate:    sampleRate,
		hopSize:       DefaultHopSize,
		minHz:         DefaultMinHz,
		maxHz:         DefaultMaxHz,
		silenceRMS:    DefaultSilenceRMS,
		minConfidence: DefaultMinConfidence,
		alpha:         DefaultSmoothing,
		window:        make([]float32, DefaultWindowSize),
		history:       make([]float64, DefaultMedianLength),
		sortBuf:       make([]float64, DefaultMedianLength),
	}
	for _, opt := range opts {
		opt(t)
	}

	n := len(t.window)
	t.frame = make([]float32, n)
	t.hann = make([]float32, n)
	for i := range n {
		t.hann[i] = float32(0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1))))
	}
	return t
}

// SampleRate returns the sample rate the tracker was created for.
func (t *Tracker) SampleRate() int { return t.sampleRate }

// SilenceRMS returns the silence gate threshold.
func (t *Tracker) SilenceRMS() float64 { return t.silenceRMS }

// RMS returns the energy of the last processed block.
func (t *Tracker) RMS() float64 { return t.lastRMS }

// Confidence returns the octave-adjusted confidence of the last analysed
// frame, or 0 when no frame was analysed.
func (t *Tracker) Confidence() float64 { return t.lastConfidence }

// Reset clears the analysis window, the history and the moving average.
func (t *Tracker) Reset() {
	clear(t.window)
	t.pos = 0
	t.filled = 0
	t.resetHistory()
	t.lastConfidence = 0
}

func (t *Tracker) resetHistory() {
	t.histPos = 0
	t.histLen = 0
	t.ema = 0
	t.emaValid = false
}

// Process feeds one block of mono samples in [-1, 1] and returns the
// smoothed pitch estimate. ok is false when the block yields no pitch:
// silence, a window that is not yet full, a weak or out-of-range
// correlation peak.
func (t *Tracker) Process(block []float32) (hz float64, ok bool) {
	t.lastConfidence = 0
	if len(block) == 0 {
		return 0, false
	}

	t.lastRMS = rms(block)
	if t.lastRMS < t.silenceRMS {
		t.Reset()
		return 0, false
	}

	t.push(block)
	if t.filled < len(t.window) {
		return 0, false
	}

	raw, confidence := t.analyse()
	t.lastConfidence = confidence
	if raw <= 0 || confidence < t.minConfidence {
		t.resetHistory()
		return 0, false
	}

	t.history[t.histPos] = raw
	t.histPos = (t.histPos + 1) % len(t.history)
	if t.histLen < len(t.history) {
		t.histLen++
	}

	median := t.median()
	if !t.emaValid {
		t.ema = median
		t.emaValid = true
	} else {
		t.ema = t.alpha*median + (1-t.alpha)*t.ema
	}
	return t.ema, true
}

// push slides block into the circular window. A block at least as long as
// the window replaces it with the block's tail. Otherwise, once the window
// is full, at most hopSize trailing samples of a block are taken.
func (t *Tracker) push(block []float32) {
	n := len(t.window)
	take := len(block)
	switch {
	case take >= n:
		take = n
	case t.filled >= n:
		take = min(take, t.hopSize)
	}
	for _, s := range block[len(block)-take:] {
		t.window[t.pos] = s
		t.pos = (t.pos + 1) % n
	}
	t.filled = min(n, t.filled+take)
}

func (t *Tracker) median() float64 {
	vals := t.sortBuf[:t.histLen]
	copy(vals, t.history[:t.histLen])
	slices.Sort(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}

// analyse runs the autocorrelation over the full window and returns the
// raw frequency (0 when none) and its confidence.
func (t *Tracker) analyse() (float64, float64) {
	n := len(t.window)
	if n < 4 {
		return 0, 0
	}

	// Linearise oldest-first into frame.
	copy(t.frame, t.window[t.pos:])
	copy(t.frame[n-t.pos:], t.window[:t.pos])

	mean := vek32.Mean(t.frame)
	vek32.SubNumber_Inplace(t.frame, mean)
	vek32.Mul_Inplace(t.frame, t.hann)
	w := t.frame

	sr := float64(t.sampleRate)
	minLag := max(2, int(math.Floor(sr/t.maxHz)))
	maxLag := min(n-2, int(math.Ceil(sr/t.minHz)))
	if maxLag <= minLag {
		return 0, 0
	}

	r0 := float64(vek32.Dot(w, w))
	if r0 <= epsilon {
		return 0, 0
	}

	bestLag := -1
	best := math.Inf(-1)
	for lag := minLag; lag <= maxLag; lag++ {
		v := corr(w, lag) / r0
		if v > best {
			best, bestLag = v, lag
		}
	}
	if bestLag <= 0 {
		return 0, 0
	}

	// Parabolic refinement around the peak.
	y0 := corr(w, max(minLag, bestLag-1)) / r0
	y1 := corr(w, bestLag) / r0
	y2 := corr(w, min(maxLag, bestLag+1)) / r0
	lag := float64(bestLag)
	if denom := y0 - 2*y1 + y2; math.Abs(denom) > epsilon {
		lag += 0.5 * (y0 - y2) / denom
	}
	if lag <= 0 {
		return 0, 0
	}

	confidence := math.Min(1, math.Max(0, best))
	hz := sr / lag
	if hz < t.minHz || hz > t.maxHz {
		return 0, confidence
	}
	return hz, confidence * octaveFactor(w, minLag, bestLag)
}

// octaveFactor scales confidence down when the correlation at half the
// best lag is nearly as strong as at the best lag, which points at the
// fundamental being one octave higher than the detected period. Both
// correlations are compared by magnitude, so strong anti-correlation at
// half the lag is penalised too.
func octaveFactor(w []float32, minLag, peakLag int) float64 {
	half := peakLag / 2
	if half <= minLag {
		return 1
	}
	peak := math.Abs(corr(w, peakLag))
	if peak <= 1e-6 {
		return 0
	}
	ratio := math.Abs(corr(w, half)) / peak
	return 1 - math.Min(0.5, math.Max(0, ratio-OctaveRatioThreshold))
}

func corr(w []float32, lag int) float64 {
	return float64(vek32.Dot(w[:len(w)-lag], w[lag:]))
}

func rms(block []float32) float64 {
	return math.Sqrt(float64(vek32.Dot(block, block)) / float64(len(block)))
}
