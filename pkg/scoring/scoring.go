// Package scoring grades a sung attempt against an exercise target.
//
// Evaluate turns the tracker's raw (time, frequency) samples into a
// normalised curve, gates it for validity and computes four subscores:
//
//   - accuracy: how close the sung pitch is to the target,
//   - stability: how steady the pitch error is,
//   - lock: how much voiced time is spent within tiered cent bands,
//   - rhythm: whether note changes happen when the target's do.
//
// In relative mode a constant transposition is cancelled first and
// accuracy is measured on melodic intervals instead of absolute pitch.
package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/haivivi/intone/pkg/tonal"
)

// ErrInvalidInput is returned by Evaluate when the caller breaks its
// contract: empty target, bad tonic, unknown mode or unordered samples.
var ErrInvalidInput = errors.New("scoring: invalid input")

// Pipeline constants.
const (
	GapBridgeSeconds  = 0.22
	VoiceStartRun     = 3
	MaxDisplaySeconds = 10.0
	MinVoicedSeconds  = 0.8
	MinVoicedCoverage = 0.3
)

// Subscore weights of the overall score.
const (
	WeightAccuracy  = 0.70
	WeightStability = 0.10
	WeightLock      = 0.10
	WeightRhythm    = 0.10
)

// FailReason explains why an attempt is not scored.
type FailReason string

const (
	NoVoiced FailReason = "no_voiced"
	TooShort FailReason = "too_short"
)

// Subscores are the components of a valid attempt's score, each 0..100.
type Subscores struct {
	Accuracy  int `json:"accuracy" yaml:"accuracy"`
	Stability int `json:"stability" yaml:"stability"`
	Lock      int `json:"lock" yaml:"lock"`
	Rhythm    int `json:"rhythm" yaml:"rhythm"`
}

// CurvePoint is one rebased sample of an attempt. Semi and CentErr are
// only meaningful when Voiced is true.
type CurvePoint struct {
	T       float64 `json:"t" yaml:"t"`
	Hz      float64 `json:"hz,omitempty" yaml:"hz,omitempty"`
	Semi    float64 `json:"semi,omitempty" yaml:"semi,omitempty"`
	CentErr float64 `json:"cent_err,omitempty" yaml:"cent_err,omitempty"`
	Voiced  bool    `json:"voiced" yaml:"voiced"`
}

// Result is the outcome of one attempt. It is not modified after
// Evaluate returns.
type Result struct {
	AttemptIndex int        `json:"attempt" yaml:"attempt"`
	Valid        bool       `json:"valid" yaml:"valid"`
	FailReason   FailReason `json:"fail_reason,omitempty" yaml:"fail_reason,omitempty"`
	Mode         tonal.Mode `json:"mode" yaml:"mode"`

	// VoiceStart is the time of the detected voice onset on the
	// attempt's original timeline.
	VoiceStart float64 `json:"voice_start" yaml:"voice_start"`

	// OffsetCents is the constant offset cancelled in relative mode.
	OffsetCents float64 `json:"offset_cents,omitempty" yaml:"offset_cents,omitempty"`

	Score     int          `json:"score" yaml:"score"`
	Subscores *Subscores   `json:"subscores,omitempty" yaml:"subscores,omitempty"`
	Curve     []CurvePoint `json:"curve,omitempty" yaml:"curve,omitempty"`

	Clip       []float32 `json:"-" yaml:"-"`
	SampleRate int       `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
}

// Input is everything Evaluate needs for one attempt.
type Input struct {
	AttemptIndex int
	Samples      []tonal.RawSample
	Target       []tonal.Point

	// Notes of the exercise. When empty they are recovered from Target.
	Notes []tonal.Note

	TonicHz float64
	Mode    tonal.Mode

	Clip       []float32
	SampleRate int
}

func (in *Input) validate() error {
	if len(in.Target) == 0 {
		return fmt.Errorf("%w: empty target", ErrInvalidInput)
	}
	if !tonal.ValidHz(in.TonicHz) {
		return fmt.Errorf("%w: tonic %v Hz", ErrInvalidInput, in.TonicHz)
	}
	if in.Mode == "" {
		in.Mode = tonal.Absolute
	}
	if !in.Mode.Valid() {
		return fmt.Errorf("%w: mode %q", ErrInvalidInput, in.Mode)
	}
	for i, s := range in.Samples {
		if math.IsNaN(s.T) || (i > 0 && s.T < in.Samples[i-1].T) {
			return fmt.Errorf("%w: sample %d out of order", ErrInvalidInput, i)
		}
	}
	return nil
}

// Evaluate scores one attempt. Attempts that cannot be scored come back
// with Valid false and a FailReason, never as an error.
func Evaluate(in Input) (*Result, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	notes := in.Notes
	if len(notes) == 0 {
		notes = NotesFromTarget(in.Target, in.TonicHz)
	}

	res := &Result{
		AttemptIndex: in.AttemptIndex,
		Mode:         in.Mode,
		Clip:         in.Clip,
		SampleRate:   in.SampleRate,
	}

	bridged := bridgeGaps(in.Samples, GapBridgeSeconds)
	start, ok := voiceStart(bridged, VoiceStartRun)
	if !ok {
		res.FailReason = NoVoiced
		return res, nil
	}
	res.VoiceStart = bridged[start].T

	curve := normalize(bridged[start:], res.VoiceStart, in.Target, in.TonicHz)
	voiced, coverage := voicedStats(curve)
	if voiced < MinVoicedSeconds || coverage < MinVoicedCoverage {
		res.FailReason = TooShort
		res.Curve = curve
		return res, nil
	}

	if in.Mode == tonal.Relative {
		res.OffsetCents = tonal.Median(centErrors(curve))
		for i := range curve {
			if curve[i].Voiced {
				curve[i].CentErr -= res.OffsetCents
				curve[i].Semi -= res.OffsetCents / 100
			}
		}
	}

	errs := centErrors(curve)
	scale := tempoScale(curve, notes)
	sub := &Subscores{
		Stability: scoreStability(errs),
		Lock:      scoreLock(curve, in.Mode),
		Rhythm:    scoreRhythm(curve, notes, scale),
	}
	if in.Mode == tonal.Relative && len(notes) >= 2 {
		sub.Accuracy = scoreIntervals(curve, notes, in.TonicHz, scale)
	} else {
		sub.Accuracy = scoreAbsoluteAccuracy(errs)
	}

	res.Valid = true
	res.Subscores = sub
	res.Curve = curve
	res.Score = tonal.ClampScore(
		WeightAccuracy*float64(sub.Accuracy) +
			WeightStability*float64(sub.Stability) +
			WeightLock*float64(sub.Lock) +
			WeightRhythm*float64(sub.Rhythm))
	return res, nil
}

// NotesFromTarget splits a sampled target curve into notes wherever its
// frequency changes.
func NotesFromTarget(target []tonal.Point, tonic float64) []tonal.Note {
	if len(target) == 0 {
		return nil
	}
	end := target[len(target)-1].T
	var notes []tonal.Note
	for i, p := range target {
		if i > 0 && p.Hz == target[i-1].Hz {
			continue
		}
		if i == len(target)-1 && len(notes) > 0 {
			break
		}
		if len(notes) > 0 {
			notes[len(notes)-1].End = p.T
		}
		semi := int(math.Round(tonal.HzToSemi(p.Hz, tonic)))
		notes = append(notes, tonal.Note{
			Index: len(notes),
			Start: p.T,
			End:   end,
			Semi:  semi,
			Hz:    p.Hz,
			Label: tonal.DegreeLabel(semi),
			Core:  tonal.IsCoreDegree(semi),
		})
	}
	return notes
}
