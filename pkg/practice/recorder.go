package practice

import (
	"math"
	"slices"

	"github.com/haivivi/intone/pkg/buffer"
	"github.com/haivivi/intone/pkg/exercise"
	"github.com/haivivi/intone/pkg/pitch"
	"github.com/haivivi/intone/pkg/scoring"
	"github.com/haivivi/intone/pkg/tonal"
)

// StopReason tells the caller why a take should end.
type StopReason int

const (
	KeepRecording StopReason = iota
	StopSilence
	StopMaxDuration
)

func (r StopReason) String() string {
	switch r {
	case StopSilence:
		return "silence"
	case StopMaxDuration:
		return "max_duration"
	default:
		return "recording"
	}
}

// Frame is the tracker's verdict on one captured block. T is the time at
// the end of the block since the take started.
type Frame struct {
	T      float64
	Hz     float64
	Voiced bool
	RMS    float64
}

// Recorder accumulates one take: the pitch curve, the last
// MaxRecordingSeconds of audio and the bookkeeping for auto-stop.
//
// A Recorder owns its tracker and is not safe for concurrent Push calls;
// Clip may be called from another goroutine while recording.
type Recorder struct {
	sampleRate int
	tracker    *pitch.Tracker
	clip       *buffer.Ring[float32]

	curve        []tonal.RawSample
	samples      int64
	hasVoiced    bool
	lastVoicedAt float64

	minRecord  float64
	silence    float64
	maxSeconds float64
	logger     Logger
}

// RecorderOption configures a Recorder.
type RecorderOption func(*recorderConfig)

type recorderConfig struct {
	maxSeconds float64
	minRecord  float64
	silence    float64
	tracker    []pitch.Option
	logger     Logger
}

// WithMaxSeconds sets the longest take; older audio is dropped from the
// clip and the take is stopped once it is reached.
func WithMaxSeconds(s float64) RecorderOption {
	return func(c *recorderConfig) {
		if s > 0 {
			c.maxSeconds = s
		}
	}
}

// WithAutoStop sets the minimum take length and the trailing silence that
// ends a take.
func WithAutoStop(minRecord, silence float64) RecorderOption {
	return func(c *recorderConfig) {
		c.minRecord = minRecord
		c.silence = silence
	}
}

// WithTrackerOptions passes options to the underlying pitch tracker.
func WithTrackerOptions(opts ...pitch.Option) RecorderOption {
	return func(c *recorderConfig) {
		c.tracker = append(c.tracker, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) RecorderOption {
	return func(c *recorderConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewRecorder creates a recorder for audio captured at sampleRate. A
// non-positive rate falls back to FallbackSampleRate.
func NewRecorder(sampleRate int, opts ...RecorderOption) *Recorder {
	if sampleRate <= 0 {
		sampleRate = FallbackSampleRate
	}
	cfg := recorderConfig{
		maxSeconds: MaxRecordingSeconds,
		minRecord:  AutoStopMinRecordSeconds,
		silence:    AutoStopSilenceSeconds,
		logger:     DefaultLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	capacity := int(math.Floor(float64(sampleRate) * cfg.maxSeconds))
	return &Recorder{
		sampleRate: sampleRate,
		tracker:    pitch.NewTracker(sampleRate, cfg.tracker...),
		clip:       buffer.RingN[float32](max(capacity, 1)),
		minRecord:  cfg.minRecord,
		silence:    cfg.silence,
		maxSeconds: cfg.maxSeconds,
		logger:     cfg.logger,
	}
}

// SampleRate returns the capture rate.
func (r *Recorder) SampleRate() int { return r.sampleRate }

// Elapsed returns the seconds of audio pushed since the last Reset.
func (r *Recorder) Elapsed() float64 {
	return float64(r.samples) / float64(r.sampleRate)
}

// Push feeds one captured block and reports whether the take should stop.
func (r *Recorder) Push(block []float32) (Frame, StopReason) {
	hz, ok := r.tracker.Process(block)
	r.clip.Write(block)
	r.samples += int64(len(block))

	f := Frame{T: r.Elapsed(), RMS: r.tracker.RMS()}
	if ok {
		f.Hz = hz
		f.Voiced = true
		if !r.hasVoiced {
			r.logger.DebugPrintf("voice detected at %.2fs (%.1f Hz)", f.T, hz)
		}
		r.hasVoiced = true
		r.lastVoicedAt = f.T
	}
	r.curve = append(r.curve, tonal.RawSample{T: f.T, Hz: f.Hz})

	if f.T >= r.maxSeconds {
		r.logger.DebugPrintf("take reached %.1fs limit", r.maxSeconds)
		return f, StopMaxDuration
	}
	if ShouldAutoStop(AutoStopInput{
		HasVoiced:    r.hasVoiced,
		LastVoicedAt: r.lastVoicedAt,
		Now:          f.T,
		MinRecord:    r.minRecord,
		Silence:      r.silence,
	}) {
		r.logger.DebugPrintf("silence since %.2fs, stopping at %.2fs", r.lastVoicedAt, f.T)
		return f, StopSilence
	}
	return f, KeepRecording
}

// HasVoiced reports whether any block of the take was voiced.
func (r *Recorder) HasVoiced() bool { return r.hasVoiced }

// Curve returns a copy of the raw curve recorded so far.
func (r *Recorder) Curve() []tonal.RawSample {
	return slices.Clone(r.curve)
}

// Clip returns a copy of the retained audio.
func (r *Recorder) Clip() []float32 {
	return r.clip.Snapshot()
}

// Reset clears the take and the tracker for a new attempt.
func (r *Recorder) Reset() {
	r.tracker.Reset()
	r.clip.Reset()
	r.curve = r.curve[:0]
	r.samples = 0
	r.hasVoiced = false
	r.lastVoicedAt = 0
}

// Input builds the scoring input for the take against ex. An empty mode
// uses the exercise's own.
func (r *Recorder) Input(attempt int, ex *exercise.Spec, mode tonal.Mode) scoring.Input {
	if mode == "" {
		mode = ex.Mode
	}
	return scoring.Input{
		AttemptIndex: attempt,
		Samples:      r.Curve(),
		Target:       ex.Target,
		Notes:        ex.Notes,
		TonicHz:      ex.TonicHz,
		Mode:         mode,
		Clip:         r.Clip(),
		SampleRate:   r.sampleRate,
	}
}
