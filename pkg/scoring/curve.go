package scoring

import (
	"math"

	"github.com/haivivi/intone/pkg/tonal"
)

// bridgeGaps fills unvoiced samples that follow the last voiced sample by
// at most maxGap seconds with that sample's frequency.
func bridgeGaps(samples []tonal.RawSample, maxGap float64) []tonal.RawSample {
	out := make([]tonal.RawSample, len(samples))
	var lastHz, lastAt float64
	haveLast := false
	for i, s := range samples {
		out[i] = s
		if s.Voiced() {
			lastHz, lastAt, haveLast = s.Hz, s.T, true
			continue
		}
		if haveLast && s.T-lastAt <= maxGap {
			out[i].Hz = lastHz
		}
	}
	return out
}

// voiceStart returns the index of the first sample of the first run of at
// least run voiced samples.
func voiceStart(samples []tonal.RawSample, run int) (int, bool) {
	n := 0
	for i, s := range samples {
		if !s.Voiced() {
			n = 0
			continue
		}
		n++
		if n >= run {
			return i - run + 1, true
		}
	}
	return 0, false
}

// normalize rebases samples to start at offset, drops points past the
// display window and derives semitones and cent errors.
func normalize(samples []tonal.RawSample, offset float64, target []tonal.Point, tonic float64) []CurvePoint {
	curve := make([]CurvePoint, 0, len(samples))
	for _, s := range samples {
		t := s.T - offset
		if t < 0 {
			continue
		}
		if t > MaxDisplaySeconds {
			break
		}
		p := CurvePoint{T: t}
		if s.Voiced() {
			p.Voiced = true
			p.Hz = s.Hz
			p.Semi = tonal.HzToSemi(s.Hz, tonic)
			if ref := tonal.InterpolateHz(target, t); ref > 0 {
				p.CentErr = tonal.Cents(s.Hz, ref)
			}
		}
		curve = append(curve, p)
	}
	return curve
}

// voicedStats returns the time covered by segments whose both ends are
// voiced and its ratio to the span of the curve.
func voicedStats(curve []CurvePoint) (voiced, coverage float64) {
	if len(curve) < 2 {
		return 0, 0
	}
	span := math.Max(0.001, curve[len(curve)-1].T-curve[0].T)
	for i := 1; i < len(curve); i++ {
		if curve[i-1].Voiced && curve[i].Voiced {
			voiced += math.Max(0, curve[i].T-curve[i-1].T)
		}
	}
	return voiced, voiced / span
}

func centErrors(curve []CurvePoint) []float64 {
	errs := make([]float64, 0, len(curve))
	for _, p := range curve {
		if p.Voiced {
			errs = append(errs, p.CentErr)
		}
	}
	return errs
}

func absAll(vals []float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = math.Abs(v)
	}
	return out
}

// voicedEnd returns the time of the last voiced point.
func voicedEnd(curve []CurvePoint) float64 {
	for i := len(curve) - 1; i >= 0; i-- {
		if curve[i].Voiced {
			return curve[i].T
		}
	}
	return 0
}

// tempoScale estimates how much slower (>1) or faster (<1) the attempt was
// sung than the target, limited to ±15%.
func tempoScale(curve []CurvePoint, notes []tonal.Note) float64 {
	if len(notes) == 0 {
		return 1
	}
	targetEnd := notes[len(notes)-1].End
	sungEnd := voicedEnd(curve)
	if targetEnd <= 0 || sungEnd <= 0 {
		return 1
	}
	return tonal.Clamp(sungEnd/targetEnd, 1-maxTempoDrift, 1+maxTempoDrift)
}
