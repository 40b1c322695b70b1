package scoring

import (
	"math"
	"slices"

	"github.com/haivivi/intone/pkg/tonal"
)

const (
	boundaryHalfWindow = 0.08 // seconds averaged on each side of a candidate
	minBoundaryJump    = 0.5  // semitones
	minBoundaryGap     = 0.12 // seconds between candidates
	maxJumpCredit      = 3.0  // semitones
	boundaryTolerance  = 0.35 // seconds
	timingDecay        = 0.12
	proportionDecay    = 0.10
	tempoTolerance     = 0.10
	tempoDecay         = 0.15
	weightTiming       = 0.58
	weightProportion   = 0.30
	weightTempo        = 0.12
)

// boundary is a place in the sung curve where the pitch moves.
type boundary struct {
	T    float64
	Jump float64
	used bool
}

// scoreRhythm compares where the sung pitch changes with where the target
// notes change. Single-note targets are graded on tempo alone.
func scoreRhythm(curve []CurvePoint, notes []tonal.Note, scale float64) int {
	if len(notes) == 0 {
		return 0
	}
	targetEnd := notes[len(notes)-1].End
	sungEnd := voicedEnd(curve)
	tempo := scoreTempo(sungEnd, targetEnd)
	if len(notes) < 2 {
		return tonal.ClampScore(tempo)
	}

	candidates := findBoundaries(curve)
	expected := make([]float64, len(notes)-1)
	for i := range expected {
		expected[i] = notes[i+1].Start * scale
	}

	// Greedy matching: each expected boundary in order claims the best
	// unused candidate within tolerance.
	observed := make([]float64, len(expected))
	matched := make([]bool, len(expected))
	var timingErr float64
	for i, e := range expected {
		best, bestScore := -1, math.Inf(-1)
		for j, c := range candidates {
			dt := math.Abs(c.T - e)
			if c.used || dt > boundaryTolerance {
				continue
			}
			score := math.Min(c.Jump, maxJumpCredit)/maxJumpCredit - dt/boundaryTolerance
			if score > bestScore {
				best, bestScore = j, score
			}
		}
		if best < 0 {
			timingErr += boundaryTolerance
			continue
		}
		candidates[best].used = true
		observed[i] = candidates[best].T
		matched[i] = true
		timingErr += math.Abs(candidates[best].T - e)
	}

	// Misses borrow the nearest leftover candidate for the duration
	// comparison, or fall back to the expected time.
	for i, e := range expected {
		if matched[i] {
			continue
		}
		observed[i] = e
		best, bestDist := -1, math.Inf(1)
		for j, c := range candidates {
			if d := math.Abs(c.T - e); !c.used && d < bestDist {
				best, bestDist = j, d
			}
		}
		if best >= 0 {
			candidates[best].used = true
			observed[i] = candidates[best].T
		}
	}

	timing := 100 * math.Exp(-(timingErr/float64(len(expected)))/timingDecay)
	proportion := 100 * math.Exp(-proportionError(notes, observed, sungEnd)/proportionDecay)
	return tonal.ClampScore(weightTiming*timing + weightProportion*proportion + weightTempo*tempo)
}

func scoreTempo(sungEnd, targetEnd float64) float64 {
	if targetEnd <= 0 || sungEnd <= 0 {
		return 0
	}
	dev := math.Abs(sungEnd/targetEnd - 1)
	if dev <= tempoTolerance {
		return 100
	}
	return 100 * math.Exp(-(dev-tempoTolerance)/tempoDecay)
}

// proportionError is the mean absolute difference between the target's
// note length proportions and the sung ones.
func proportionError(notes []tonal.Note, observed []float64, sungEnd float64) float64 {
	edges := make([]float64, 0, len(observed)+2)
	edges = append(edges, 0)
	edges = append(edges, observed...)
	slices.Sort(edges[1:])
	end := math.Max(sungEnd, edges[len(edges)-1])
	edges = append(edges, end)
	if end <= 0 {
		return 1
	}

	targetTotal := notes[len(notes)-1].End - notes[0].Start
	if targetTotal <= 0 {
		return 1
	}
	var sum float64
	for i, n := range notes {
		want := n.Duration() / targetTotal
		got := (edges[i+1] - edges[i]) / end
		sum += math.Abs(got - want)
	}
	return sum / float64(len(notes))
}

// findBoundaries returns the local maxima of the windowed semitone jump
// that are large enough, at least minBoundaryGap apart, ordered by time.
func findBoundaries(curve []CurvePoint) []boundary {
	var voiced []CurvePoint
	for _, p := range curve {
		if p.Voiced {
			voiced = append(voiced, p)
		}
	}

	jumps := make([]float64, len(voiced))
	for i, p := range voiced {
		var left, right float64
		var nl, nr int
		for _, q := range voiced {
			switch {
			case q.T >= p.T-boundaryHalfWindow && q.T < p.T:
				left += q.Semi
				nl++
			case q.T >= p.T && q.T <= p.T+boundaryHalfWindow:
				right += q.Semi
				nr++
			}
		}
		if nl > 0 && nr > 0 {
			jumps[i] = math.Abs(right/float64(nr) - left/float64(nl))
		}
	}

	var peaks []boundary
	for i, j := range jumps {
		if j < minBoundaryJump {
			continue
		}
		if (i > 0 && jumps[i-1] > j) || (i < len(jumps)-1 && jumps[i+1] > j) {
			continue
		}
		peaks = append(peaks, boundary{T: voiced[i].T, Jump: j})
	}

	// Strongest first, then suppress neighbours that are too close.
	slices.SortStableFunc(peaks, func(a, b boundary) int {
		switch {
		case a.Jump > b.Jump:
			return -1
		case a.Jump < b.Jump:
			return 1
		}
		return 0
	})
	var kept []boundary
	for _, p := range peaks {
		ok := true
		for _, k := range kept {
			if math.Abs(k.T-p.T) < minBoundaryGap {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, p)
		}
	}
	slices.SortFunc(kept, func(a, b boundary) int {
		switch {
		case a.T < b.T:
			return -1
		case a.T > b.T:
			return 1
		}
		return 0
	})
	return kept
}
