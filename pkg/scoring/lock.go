package scoring

import (
	"math"

	"github.com/haivivi/intone/pkg/tonal"
)

// A median error of two octaves or more means the attempt is not on the
// target at all; lock is zero regardless of the tiers.
const grossMismatchCents = 2400.0

const lockExponent = 1.25

// lockTier gives credit to errors up to Cents.
type lockTier struct {
	Cents  float64
	Credit float64
}

var absoluteTiers = []lockTier{
	{25, 1}, {50, 0.75}, {100, 0.45}, {200, 0.15},
}

var relativeTiers = []lockTier{
	{35, 1}, {70, 0.8}, {120, 0.5}, {220, 0.2},
}

func lockCredit(err float64, tiers []lockTier) float64 {
	err = math.Abs(err)
	for _, tier := range tiers {
		if err <= tier.Cents {
			return tier.Credit
		}
	}
	return 0
}

// scoreLock is the time-weighted share of voiced time within the tiers.
func scoreLock(curve []CurvePoint, mode tonal.Mode) int {
	errs := centErrors(curve)
	if len(errs) < 2 {
		return 0
	}
	if tonal.Median(absAll(errs)) >= grossMismatchCents-1e-9 {
		return 0
	}

	tiers := absoluteTiers
	if mode == tonal.Relative {
		tiers = relativeTiers
	}

	var span, credit float64
	for i := 1; i < len(curve); i++ {
		a, b := curve[i-1], curve[i]
		if !a.Voiced || !b.Voiced {
			continue
		}
		dt := math.Max(0, b.T-a.T)
		span += dt
		credit += dt * (lockCredit(a.CentErr, tiers) + lockCredit(b.CentErr, tiers)) / 2
	}
	if span <= 0 {
		return 0
	}
	return tonal.ClampScore(100 * math.Pow(credit/span, lockExponent))
}

// scoreStability penalises the spread of the cent error and its
// frame-to-frame movement.
func scoreStability(errs []float64) int {
	if len(errs) < 4 {
		return 0
	}
	_, std := tonal.MeanStd(errs)
	return tonal.ClampScore(100 - std*1.1 - tonal.MeanAbsDiff(errs)*0.7)
}
