package commands

import (
	"github.com/spf13/cobra"

	"github.com/haivivi/intone/pkg/cli"
	"github.com/haivivi/intone/pkg/pitch"
	"github.com/haivivi/intone/pkg/tonal"
)

type trackResult struct {
	File       string            `json:"file" yaml:"file"`
	SampleRate int               `json:"sample_rate" yaml:"sample_rate"`
	Duration   float64           `json:"duration" yaml:"duration"`
	Voiced     float64           `json:"voiced" yaml:"voiced"`
	MedianHz   float64           `json:"median_hz,omitempty" yaml:"median_hz,omitempty"`
	Curve      []tonal.RawSample `json:"curve" yaml:"curve"`
}

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Print the pitch curve of a WAV file",
	Long: `Run the pitch tracker over a WAV file and print one (t, hz) sample per
block. Unvoiced blocks have hz 0.

Example:
  intone track -i take.wav --json | jq '.curve[] | select(.hz > 0)'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, _ := cmd.Flags().GetString("input")
		samples, err := readTake(in)
		if err != nil {
			return err
		}
		minHz, _ := cmd.Flags().GetFloat64("min-hz")
		maxHz, _ := cmd.Flags().GetFloat64("max-hz")
		tr := pitch.NewTracker(TrackRate, pitch.WithRange(minHz, maxHz))

		res := trackResult{
			File:       in,
			SampleRate: TrackRate,
			Duration:   float64(len(samples)) / TrackRate,
		}
		var voiced []float64
		for off := 0; off < len(samples); off += blockSize {
			end := min(off+blockSize, len(samples))
			hz, ok := tr.Process(samples[off:end])
			s := tonal.RawSample{T: float64(end) / TrackRate}
			if ok {
				s.Hz = hz
				voiced = append(voiced, hz)
			}
			res.Curve = append(res.Curve, s)
		}
		if len(res.Curve) > 0 {
			res.Voiced = float64(len(voiced)) / float64(len(res.Curve))
		}
		if len(voiced) > 0 {
			res.MedianHz = tonal.Median(voiced)
		}
		return outputResult(cmd, res, cli.FormatYAML)
	},
}

func init() {
	f := trackCmd.Flags()
	f.StringP("input", "i", "-", "input .wav file (- for stdin)")
	f.Float64("min-hz", pitch.DefaultMinHz, "lowest pitch to detect")
	f.Float64("max-hz", pitch.DefaultMaxHz, "highest pitch to detect")
	rootCmd.AddCommand(trackCmd)
}
