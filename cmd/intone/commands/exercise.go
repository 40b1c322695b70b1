package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haivivi/intone/pkg/cli"
	"github.com/haivivi/intone/pkg/exercise"
	"github.com/haivivi/intone/pkg/library"
	"github.com/haivivi/intone/pkg/midiexport"
	"github.com/haivivi/intone/pkg/storage"
	"github.com/haivivi/intone/pkg/tonal"
)

var exerciseCmd = &cobra.Command{
	Use:     "exercise",
	Aliases: []string{"ex"},
	Short:   "Generate and manage exercises",
}

var exerciseNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate an exercise",
	Long: `Generate an exercise for the current singer profile.

Flags override the profile; -f loads a full generator config from a YAML
or JSON file instead.

Example:
  intone exercise new --difficulty L4 --mode relative --seed 42 --save`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := getProfile()
		if err != nil {
			return err
		}
		cfg := p.ExerciseConfig()
		if file, _ := cmd.Flags().GetString("file"); file != "" {
			if cfg, err = cli.LoadExerciseConfig(file, p.Gender); err != nil {
				return err
			}
		}
		if err := applyExerciseFlags(cmd, &cfg); err != nil {
			return err
		}

		seed, _ := cmd.Flags().GetUint64("seed")
		rng, seed := newRNG(seed)
		ex, err := exercise.Generate(cfg, rng)
		if err != nil {
			return err
		}
		slog.Debug("generated exercise",
			slog.String("exercise", ex.ID),
			slog.Uint64("seed", seed),
			slog.Int("notes", len(ex.Notes)))

		rec := &library.Record{Exercise: ex, Profile: p.Name, Seed: seed}
		if save, _ := cmd.Flags().GetBool("save"); save {
			lib, err := openLibrary()
			if err != nil {
				return err
			}
			defer lib.Close()
			if err := lib.Put(cmd.Context(), rec); err != nil {
				return err
			}
		}
		return outputResult(cmd, recordView(rec), cli.FormatYAML)
	},
}

func applyExerciseFlags(cmd *cobra.Command, cfg *exercise.Config) error {
	flags := cmd.Flags()
	if flags.Changed("difficulty") {
		s, _ := flags.GetString("difficulty")
		d, err := exercise.ParseDifficulty(s)
		if err != nil {
			return err
		}
		cfg.Difficulty = d
	}
	if flags.Changed("mode") {
		s, _ := flags.GetString("mode")
		m, err := tonal.ParseMode(s)
		if err != nil {
			return err
		}
		cfg.Mode = m
	}
	if flags.Changed("tuning") {
		s, _ := flags.GetString("tuning")
		cfg.Tuning = tonal.Tuning(s)
	}
	if flags.Changed("key") {
		cfg.KeySemitone, _ = flags.GetInt("key")
	}
	return cfg.Validate()
}

var exerciseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved exercises",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary()
		if err != nil {
			return err
		}
		defer lib.Close()

		recs, err := lib.List(cmd.Context())
		if err != nil {
			return err
		}
		if outputJSON || format != "" {
			return outputResult(cmd, recs, cli.FormatYAML)
		}
		if len(recs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No saved exercises")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLEVEL\tMODE\tNOTES\tDURATION\tPROFILE\tCREATED")
		for _, r := range recs {
			ex := r.Exercise
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
				shortID(ex.ID), ex.Difficulty, ex.Mode, len(ex.Notes),
				cli.FormatSeconds(ex.Duration), r.Profile, r.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var exerciseShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved exercise",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := resolveRecord(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if full, _ := cmd.Flags().GetBool("target"); full {
			return outputResult(cmd, rec, cli.FormatYAML)
		}
		return outputResult(cmd, recordView(rec), cli.FormatYAML)
	},
}

var exerciseDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved exercise",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary()
		if err != nil {
			return err
		}
		defer lib.Close()

		rec, err := lib.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := lib.Delete(cmd.Context(), rec.ID()); err != nil {
			return err
		}
		cli.PrintSuccess("Exercise %s deleted", rec.ID())
		return nil
	},
}

var exerciseMIDICmd = &cobra.Command{
	Use:   "midi <id>",
	Short: "Export an exercise as a Standard MIDI File",
	Long: `Export an exercise as a Standard MIDI File.

Without -o the file goes to the render destination (see 'intone render')
under midi/<id>.mid.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := resolveRecord(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		countIn, _ := cmd.Flags().GetInt("count-in")
		opts := midiexport.Options{Name: rec.ID(), CountIn: countIn}

		out, _ := cmd.Flags().GetString("output")
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			if err := midiexport.Write(f, rec.Exercise.Notes, opts); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			cli.PrintSuccess("MIDI written to %s", out)
			return nil
		}

		fs, err := openRenderStore(cmd)
		if err != nil {
			return err
		}
		path := storage.MIDIPath(rec.ID())
		if err := storage.Put(cmd.Context(), fs, path, func(w io.Writer) error {
			return midiexport.Write(w, rec.Exercise.Notes, opts)
		}); err != nil {
			return err
		}
		cli.PrintSuccess("MIDI written to %s", fs.Location(path))
		return nil
	},
}

func resolveRecord(ctx context.Context, id string) (*library.Record, error) {
	lib, err := openLibrary()
	if err != nil {
		return nil, err
	}
	defer lib.Close()
	return lib.Resolve(ctx, id)
}

// recordView drops the sampled target curve, which the notes already
// describe.
func recordView(rec *library.Record) *library.Record {
	ex := *rec.Exercise
	ex.Target = nil
	view := *rec
	view.Exercise = &ex
	return &view
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	f := exerciseNewCmd.Flags()
	f.StringP("file", "f", "", "generator config file (YAML or JSON)")
	f.String("difficulty", "", "difficulty L1..L6")
	f.String("mode", "", "scoring mode: absolute or relative")
	f.String("tuning", "", "tuning: equal or just")
	f.Int("key", 0, "transpose the tonic by semitones")
	f.Uint64("seed", 0, "random seed (default: from the clock)")
	f.Bool("save", false, "save the exercise to the library")

	exerciseShowCmd.Flags().Bool("target", false, "include the sampled target curve")

	exerciseMIDICmd.Flags().StringP("output", "o", "", "output .mid file")
	exerciseMIDICmd.Flags().Int("count-in", 0, "percussion clicks before the melody")
	addDestFlag(exerciseMIDICmd)

	exerciseCmd.AddCommand(exerciseNewCmd, exerciseListCmd, exerciseShowCmd, exerciseDeleteCmd, exerciseMIDICmd)
	rootCmd.AddCommand(exerciseCmd)
}
