package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/intone/pkg/audio/tone"
	"github.com/haivivi/intone/pkg/cli"
	"github.com/haivivi/intone/pkg/exercise"
	"github.com/haivivi/intone/pkg/practice"
	"github.com/haivivi/intone/pkg/scoring"
)

type demoResult struct {
	Exercise string            `json:"exercise" yaml:"exercise"`
	Seed     uint64            `json:"seed" yaml:"seed"`
	Attempts []*scoring.Result `json:"attempts" yaml:"attempts"`
	First    *scoring.Result   `json:"first,omitempty" yaml:"first,omitempty"`
	Best     *scoring.Result   `json:"best,omitempty" yaml:"best,omitempty"`
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the practice loop offline with a synthetic singer",
	Long: `Generate an exercise and practise it with a synthetic voice.

Each attempt is sung flat by --detune cents, shrinking to in tune on the
last attempt, and runs through the same recorder, auto-stop and scorer
as live practice. A score card is printed after every attempt.

Example:
  intone demo --difficulty L3 --detune 40 --attempts 4 --seed 7`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := getProfile()
		if err != nil {
			return err
		}
		cfg := p.ExerciseConfig()
		if err := applyExerciseFlags(cmd, &cfg); err != nil {
			return err
		}
		flags := cmd.Flags()
		seed, _ := flags.GetUint64("seed")
		attempts, _ := flags.GetInt("attempts")
		detune, _ := flags.GetFloat64("detune")
		transpose, _ := flags.GetInt("transpose")
		if attempts < 1 {
			return fmt.Errorf("--attempts must be at least 1")
		}

		rng, seed := newRNG(seed)
		ex, err := exercise.Generate(cfg, rng)
		if err != nil {
			return err
		}

		s := practice.NewSession(TrackRate, practice.WithLogger(practice.SlogLogger(logger)))
		s.Start(ex, "")
		if err := s.CountdownDone(); err != nil {
			return err
		}

		f, err := outputFormat(cli.FormatCard)
		if err != nil {
			return err
		}
		asCard := f == cli.FormatCard

		for i := range attempts {
			if i > 0 {
				if err := s.Retry(); err != nil {
					return err
				}
			}
			take := tone.Sing(ex.Notes, TrackRate, tone.SingOptions{
				DetuneCents:  -attemptDetune(detune, i, attempts),
				Transpose:    transpose,
				VibratoHz:    5.5,
				VibratoCents: 12,
				Glide:        0.04,
				Lead:         0.4,
				Tail:         practice.AutoStopSilenceSeconds + 0.5,
			})
			res, err := runTake(s, take)
			if err != nil {
				return err
			}
			if asCard {
				q := s.Machine().Question
				card := cli.NewResultCard(res, ex)
				card.First, card.Best = q.First, q.Best
				fmt.Fprintln(cmd.OutOrStdout(), card.Card())
			}
		}

		q := s.Machine().Question
		if asCard {
			if q.Best != nil {
				cli.PrintInfo("Best attempt #%d scored %d", q.Best.AttemptIndex, q.Best.Score)
			}
			return nil
		}
		return outputResult(cmd, demoResult{
			Exercise: ex.ID,
			Seed:     seed,
			Attempts: q.Attempts,
			First:    q.First,
			Best:     q.Best,
		}, cli.FormatYAML)
	},
}

// attemptDetune shrinks detune linearly to zero on the last attempt.
func attemptDetune(detune float64, i, n int) float64 {
	if n <= 1 {
		return detune
	}
	return detune * float64(n-1-i) / float64(n-1)
}

func init() {
	f := demoCmd.Flags()
	f.String("difficulty", "", "difficulty L1..L6")
	f.String("mode", "", "scoring mode: absolute or relative")
	f.String("tuning", "", "tuning: equal or just")
	f.Int("key", 0, "transpose the tonic by semitones")
	f.Uint64("seed", 0, "random seed (default: from the clock)")
	f.Int("attempts", 3, "number of attempts")
	f.Float64("detune", 30, "how flat the first attempt is sung, in cents")
	f.Int("transpose", 0, "sing every attempt this many semitones off")
	rootCmd.AddCommand(demoCmd)
}
