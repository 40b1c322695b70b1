package tonal

import "sort"

// RawSample is one tracker output sample. Hz is zero when the frame was
// unvoiced.
type RawSample struct {
	T  float64 `json:"t" yaml:"t" msgpack:"t"`
	Hz float64 `json:"hz" yaml:"hz" msgpack:"hz"`
}

// Voiced reports whether the sample carries a pitch.
func (s RawSample) Voiced() bool {
	return s.Hz > 0
}

// Point is one point of a sampled target curve.
type Point struct {
	T  float64 `json:"t" yaml:"t" msgpack:"t"`
	Hz float64 `json:"hz" yaml:"hz" msgpack:"hz"`
}

// InterpolateHz returns the target frequency at time t. Points must be
// sorted by T. Times before the first point or after the last are clamped
// to the edge values; between points the frequency is linear in time.
// It returns 0 for an empty curve.
func InterpolateHz(target []Point, t float64) float64 {
	if len(target) == 0 {
		return 0
	}
	if t <= target[0].T {
		return target[0].Hz
	}
	last := target[len(target)-1]
	if t >= last.T {
		return last.Hz
	}

	// First index whose time is >= t; always in [1, len-1] here.
	i := sort.Search(len(target), func(i int) bool { return target[i].T >= t })
	left, right := target[i-1], target[i]
	span := right.T - left.T
	if span <= 0 {
		return left.Hz
	}
	ratio := (t - left.T) / span
	return left.Hz + (right.Hz-left.Hz)*ratio
}
