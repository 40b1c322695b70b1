package commands

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/intone/pkg/cli"
	"github.com/haivivi/intone/pkg/library"
)

// TrackRate is the sample rate takes are resampled to before tracking.
const TrackRate = 44100

var (
	cfgFile     string
	libraryDir  string
	profileName string
	outputJSON  bool
	format      string
	verbose     bool

	globalConfig  *cli.Config
	configLoadErr error
	logger        *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "intone",
	Short: "Vocal pitch-training exercises and scoring",
	Long: `intone - generate sight-singing exercises, render their guide tones
and score sung takes for pitch accuracy, stability, key lock and rhythm.

Singer profiles are stored in ~/.intone/config.yaml, similar to kubectl
contexts. Generated exercises can be saved to a local library and
referenced by ID (or any unique ID prefix).

Examples:
  # Create a profile
  intone config add-profile alto --gender female --difficulty L2

  # Generate and save an exercise
  intone exercise new --difficulty L3 --save

  # Render its guide tone and score a take against it
  intone render 3f2a -o guide.wav
  intone score 3f2a -i take.wav

  # Watch the practice loop run with a synthetic singer
  intone demo --detune 30`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.intone/config.yaml)")
	pf.StringVar(&libraryDir, "library", "", "exercise library directory (default is ~/.intone/library)")
	pf.StringVarP(&profileName, "profile", "p", "", "singer profile to use")
	pf.BoolVar(&outputJSON, "json", false, "output as JSON (for piping)")
	pf.StringVar(&format, "format", "", "output format: yaml, json or card")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initConfig() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := cli.LoadConfig(cfgFile)
	if err != nil {
		// Reported by getConfig so that commands which do not need the
		// config still run.
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

func getConfig() (*cli.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := cli.LoadConfig(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

func getProfile() (*cli.Profile, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	return cfg.ResolveProfile(profileName)
}

func openLibrary() (*library.Library, error) {
	dir := libraryDir
	if dir == "" {
		paths, err := cli.NewPaths()
		if err != nil {
			return nil, err
		}
		dir = paths.LibraryDir()
	}
	slog.Debug("opening library", slog.String("dir", dir))
	return library.Open(dir)
}

// outputFormat resolves --json and --format, falling back to def.
func outputFormat(def cli.OutputFormat) (cli.OutputFormat, error) {
	if outputJSON {
		return cli.FormatJSON, nil
	}
	if format == "" {
		return def, nil
	}
	return cli.ParseOutputFormat(format)
}

func outputResult(cmd *cobra.Command, v any, def cli.OutputFormat) error {
	f, err := outputFormat(def)
	if err != nil {
		return err
	}
	return cli.Output(v, cli.OutputOptions{Format: f, Writer: cmd.OutOrStdout()})
}

// outputScore prints card in card format and v otherwise. Card is the
// default.
func outputScore(cmd *cobra.Command, card *cli.ResultCard, v any) error {
	f, err := outputFormat(cli.FormatCard)
	if err != nil {
		return err
	}
	if f == cli.FormatCard {
		return cli.Output(card, cli.OutputOptions{Format: f, Writer: cmd.OutOrStdout()})
	}
	return cli.Output(v, cli.OutputOptions{Format: f, Writer: cmd.OutOrStdout()})
}

// newRNG returns the generator for seed; zero picks a seed from the clock.
func newRNG(seed uint64) (*rand.Rand, uint64) {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), seed
}
