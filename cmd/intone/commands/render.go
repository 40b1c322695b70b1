package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/intone/pkg/audio/pcm"
	"github.com/haivivi/intone/pkg/audio/tone"
	"github.com/haivivi/intone/pkg/cli"
	"github.com/haivivi/intone/pkg/storage"
)

var renderCmd = &cobra.Command{
	Use:   "render <id>",
	Short: "Render the guide tone of an exercise",
	Long: `Render the guide tone of a saved exercise as a 16-bit mono WAV: a
count-in of clicks followed by the melody as sine tones.

With -o the WAV is written to that file. Otherwise it goes to the render
destination under guides/<id>.wav. The destination is --dest, else the
storage.dest setting of the config, else ~/.intone/renders. Destinations
of the form s3://bucket/prefix upload to S3.

With --sing the melody is rendered with a harmonic synthetic voice
instead, which is handy as a test take for 'intone score'.

Examples:
  intone render 3f2a -o guide.wav
  intone render 3f2a --dest s3://my-bucket/intone
  intone render 3f2a --sing --detune 25 -o take.wav`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := resolveRecord(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		rate, _ := flags.GetInt("rate")
		f, err := pcm.FormatForRate(rate)
		if err != nil {
			return err
		}

		var samples []float32
		if sing, _ := flags.GetBool("sing"); sing {
			detune, _ := flags.GetFloat64("detune")
			samples = tone.Sing(rec.Exercise.Notes, rate, tone.SingOptions{
				DetuneCents:  detune,
				VibratoHz:    5.5,
				VibratoCents: 15,
				Glide:        0.04,
				Lead:         0.3,
				Tail:         0.5,
			})
		} else {
			countIn, _ := flags.GetInt("count-in")
			opts := tone.DefaultRenderOptions()
			if flags.Changed("count-in") {
				opts.CountIn = countIn
				if countIn == 0 {
					opts.CountIn = -1
				}
			}
			samples = tone.Guide(rec.Exercise.Notes, rate, opts)
		}
		slog.Debug("rendered audio",
			slog.String("exercise", rec.ID()),
			slog.Int("samples", len(samples)),
			slog.Int("rate", rate))

		if out, _ := flags.GetString("output"); out != "" {
			file, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			if err := pcm.WriteWAV(file, f, samples); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			cli.PrintSuccess("Wrote %s (%s)", out, cli.FormatSeconds(float64(len(samples))/float64(rate)))
			return nil
		}

		fs, err := openRenderStore(cmd)
		if err != nil {
			return err
		}
		path := storage.GuidePath(rec.ID())
		if err := storage.Put(cmd.Context(), fs, path, func(w io.Writer) error {
			return pcm.WriteWAV(w, f, samples)
		}); err != nil {
			return err
		}
		cli.PrintSuccess("Wrote %s (%s)", fs.Location(path), cli.FormatSeconds(float64(len(samples))/float64(rate)))
		return nil
	},
}

func addDestFlag(cmd *cobra.Command) {
	cmd.Flags().String("dest", "", "render destination: a directory or s3://bucket/prefix")
}

// openRenderStore opens --dest, the configured destination or the default
// render directory.
func openRenderStore(cmd *cobra.Command) (storage.FileStore, error) {
	dest, _ := cmd.Flags().GetString("dest")
	var s3cfg storage.S3Config
	if cfg, err := getConfig(); err == nil {
		if dest == "" {
			paths, err := cli.NewPaths()
			if err != nil {
				return nil, err
			}
			dest, s3cfg = cfg.StorageDest(paths.RenderDir())
		} else if cfg.Storage != nil {
			s3cfg = cfg.Storage.S3
		}
	}
	if dest == "" {
		return nil, fmt.Errorf("no render destination; use --dest or -o")
	}
	slog.Debug("opening render store", slog.String("dest", dest))
	return storage.Open(dest, s3cfg)
}

func init() {
	f := renderCmd.Flags()
	f.StringP("output", "o", "", "output .wav file")
	f.Int("rate", TrackRate, "sample rate: 16000, 24000, 44100 or 48000")
	f.Int("count-in", tone.DefaultCountIn, "clicks before the melody (0 disables)")
	f.Bool("sing", false, "render a synthetic sung take instead of the guide")
	f.Float64("detune", 0, "detune of the sung take in cents")
	addDestFlag(renderCmd)
	rootCmd.AddCommand(renderCmd)
}
