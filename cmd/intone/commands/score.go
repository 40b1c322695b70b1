package commands

import (
	"math"

	"github.com/spf13/cobra"

	"github.com/haivivi/intone/pkg/cli"
	"github.com/haivivi/intone/pkg/practice"
	"github.com/haivivi/intone/pkg/tonal"
)

var scoreCmd = &cobra.Command{
	Use:   "score <id>",
	Short: "Score a sung take against an exercise",
	Long: `Track a sung take and score it against a saved exercise.

The whole file is scored; voice onset is detected, so leading silence or
a count-in does not matter. With --auto-stop the take ends after a second
of silence following the voice, as in live practice.

Examples:
  intone score 3f2a -i take.wav
  intone score 3f2a -i take.wav --mode relative --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := resolveRecord(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		var mode tonal.Mode
		if flags.Changed("mode") {
			s, _ := flags.GetString("mode")
			if mode, err = tonal.ParseMode(s); err != nil {
				return err
			}
		}
		in, _ := flags.GetString("input")
		samples, err := readTake(in)
		if err != nil {
			return err
		}

		opts := []practice.RecorderOption{
			practice.WithMaxSeconds(float64(len(samples))/TrackRate + 1),
			practice.WithLogger(practice.SlogLogger(logger)),
		}
		if auto, _ := flags.GetBool("auto-stop"); !auto {
			opts = append(opts, practice.WithAutoStop(0, math.Inf(1)))
		}
		s := practice.NewSession(TrackRate, opts...)
		s.Start(rec.Exercise, mode)
		if err := s.CountdownDone(); err != nil {
			return err
		}
		res, err := runTake(s, samples)
		if err != nil {
			return err
		}
		return outputScore(cmd, cli.NewResultCard(res, rec.Exercise), res)
	},
}

func init() {
	f := scoreCmd.Flags()
	f.StringP("input", "i", "-", "input .wav file (- for stdin)")
	f.String("mode", "", "scoring mode: absolute or relative (default: the exercise's)")
	f.Bool("auto-stop", false, "stop the take after trailing silence")
	rootCmd.AddCommand(scoreCmd)
}
