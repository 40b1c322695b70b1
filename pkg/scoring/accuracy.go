package scoring

import (
	"math"

	"github.com/haivivi/intone/pkg/tonal"
)

const (
	// Absolute accuracy decays with the blended cent error and is
	// floored so partly correct attempts keep some credit.
	accuracyDecayCents = 180.0
	accuracyFloor      = 8.0

	// Interval accuracy.
	maxTempoDrift     = 0.15
	noteEdgeTrim      = 0.15
	intervalDecaySemi = 1.2
	flatIntervalSemi  = 0.5
	residualDecay     = 150.0
	weightInterval    = 0.55
	weightDirection   = 0.35
	weightResidual    = 0.10
)

// scoreAbsoluteAccuracy blends the median and 90th percentile of the
// absolute cent errors.
func scoreAbsoluteAccuracy(errs []float64) int {
	if len(errs) == 0 {
		return 0
	}
	abs := absAll(errs)
	combined := 0.7*tonal.Median(abs) + 0.3*tonal.Percentile(abs, 0.9)
	return tonal.ClampScore(math.Max(accuracyFloor, 100*math.Exp(-combined/accuracyDecayCents)))
}

// noteWindow is the part of the sung timeline attributed to one note.
type noteWindow struct {
	from, to float64
}

func windowFor(n tonal.Note, scale float64) noteWindow {
	from, to := n.Start*scale, n.End*scale
	trim := (to - from) * noteEdgeTrim
	return noteWindow{from + trim, to - trim}
}

func (w noteWindow) contains(t float64) bool {
	return t >= w.from && t <= w.to
}

// sungSemi returns the median sung semitone inside w.
func sungSemi(curve []CurvePoint, w noteWindow) (float64, bool) {
	var semis []float64
	for _, p := range curve {
		if p.Voiced && w.contains(p.T) {
			semis = append(semis, p.Semi)
		}
	}
	if len(semis) == 0 {
		return 0, false
	}
	return tonal.Median(semis), true
}

func direction(delta float64) int {
	switch {
	case delta >= flatIntervalSemi:
		return 1
	case delta <= -flatIntervalSemi:
		return -1
	}
	return 0
}

// scoreIntervals grades each melodic interval between consecutive notes
// on its size, its direction and the residual cent error around it. An
// interval whose notes were not sung scores zero.
func scoreIntervals(curve []CurvePoint, notes []tonal.Note, tonic, scale float64) int {
	windows := make([]noteWindow, len(notes))
	sung := make([]float64, len(notes))
	present := make([]bool, len(notes))
	for i, n := range notes {
		windows[i] = windowFor(n, scale)
		sung[i], present[i] = sungSemi(curve, windows[i])
	}

	var total float64
	for i := 1; i < len(notes); i++ {
		if !present[i-1] || !present[i] {
			continue
		}
		want := tonal.HzToSemi(notes[i].Hz, tonic) - tonal.HzToSemi(notes[i-1].Hz, tonic)
		got := sung[i] - sung[i-1]

		size := 100 * math.Exp(-math.Abs(got-want)/intervalDecaySemi)
		dir := 0.0
		if direction(got) == direction(want) {
			dir = 100
		}

		var resid float64
		var count int
		for _, p := range curve {
			if p.Voiced && (windows[i-1].contains(p.T) || windows[i].contains(p.T)) {
				resid += math.Abs(p.CentErr)
				count++
			}
		}
		if count > 0 {
			resid /= float64(count)
		}
		local := 100 * math.Exp(-resid/residualDecay)

		total += weightInterval*size + weightDirection*dir + weightResidual*local
	}
	return tonal.ClampScore(total / float64(len(notes)-1))
}
