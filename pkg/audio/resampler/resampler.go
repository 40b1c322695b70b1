// Package resampler converts recorded takes to the sample rate the pitch
// tracker runs at.
//
// Example usage:
//
//	samples, rate, _ := pcm.ReadWAV(f)
//	samples, err := resampler.Float32(samples, rate, 48000)
package resampler

import (
	"fmt"
	"math"
	"slices"

	resampling "github.com/tphakala/go-audio-resampling"
)

// flushSeconds of trailing silence push the filter tail out of the
// resampler.
const flushSeconds = 0.05

// Float32 resamples mono samples from srcRate to dstRate Hz. The result has
// round(len(in)*dstRate/srcRate) samples; in is not modified.
func Float32(in []float32, srcRate, dstRate int) ([]float32, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("resampler: invalid rates %d -> %d", srcRate, dstRate)
	}
	if srcRate == dstRate || len(in) == 0 {
		return slices.Clone(in), nil
	}

	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("resampler: %w", err)
	}

	input := make([]float64, len(in)+int(flushSeconds*float64(srcRate)))
	for i, s := range in {
		input[i] = float64(s)
	}
	output, err := rs.Process(input)
	if err != nil {
		return nil, fmt.Errorf("resampler: %w", err)
	}

	want := int(math.Round(float64(len(in)) * float64(dstRate) / float64(srcRate)))
	out := make([]float32, want)
	for i := range min(want, len(output)) {
		out[i] = float32(max(-1, min(1, output[i])))
	}
	return out, nil
}
