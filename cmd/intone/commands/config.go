package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haivivi/intone/pkg/cli"
	"github.com/haivivi/intone/pkg/exercise"
	"github.com/haivivi/intone/pkg/tonal"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage singer profiles",
	Long: `Manage singer profiles and storage settings.

A profile holds a singer's range and practice preferences. Commands use
the current profile unless -p names another one.

Configuration is stored in ~/.intone/config.yaml`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		return outputResult(cmd, cfg.Redacted(), cli.FormatYAML)
	},
}

var configAddProfileCmd = &cobra.Command{
	Use:   "add-profile <name>",
	Short: "Add or replace a singer profile",
	Long: `Add or replace a singer profile. Unset ranges default to the
gender's typical range.

Example:
  intone config add-profile alto --gender female --min-hz 170 --max-hz 700
  intone config add-profile bari --gender male --do-hz 110 --difficulty L3 --mode relative`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		gender, _ := flags.GetString("gender")
		p := &cli.Profile{Gender: exercise.Gender(gender)}
		p.MinHz, _ = flags.GetFloat64("min-hz")
		p.MaxHz, _ = flags.GetFloat64("max-hz")
		p.DoHz, _ = flags.GetFloat64("do-hz")
		p.KeySemitone, _ = flags.GetInt("key")
		if s, _ := flags.GetString("tuning"); s != "" {
			p.Tuning = tonal.Tuning(s)
		}
		if s, _ := flags.GetString("difficulty"); s != "" {
			d, err := exercise.ParseDifficulty(s)
			if err != nil {
				return err
			}
			p.Difficulty = d
		}
		if s, _ := flags.GetString("mode"); s != "" {
			m, err := tonal.ParseMode(s)
			if err != nil {
				return err
			}
			p.Mode = m
		}

		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.AddProfile(args[0], p); err != nil {
			return err
		}
		cli.PrintSuccess("Profile %q saved", args[0])
		return nil
	},
}

var configDeleteProfileCmd = &cobra.Command{
	Use:   "delete-profile <name>",
	Short: "Delete a singer profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.DeleteProfile(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Profile %q deleted", args[0])
		return nil
	},
}

var configUseProfileCmd = &cobra.Command{
	Use:   "use-profile <name>",
	Short: "Set the current profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.UseProfile(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Switched to profile %q", args[0])
		return nil
	},
}

var configListProfilesCmd = &cobra.Command{
	Use:   "list-profiles",
	Short: "List singer profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		names := cfg.ListProfiles()
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No profiles configured. Use 'intone config add-profile' to create one.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tGENDER\tRANGE\tDO\tLEVEL\tMODE")
		for _, name := range names {
			p := cfg.Profiles[name]
			ec := p.ExerciseConfig()
			current := ""
			if name == cfg.CurrentProfile {
				current = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s-%s\t%s\t%s\t%s\n",
				current, name, p.Gender, tonal.FormatHz(ec.MinHz), tonal.FormatHz(ec.MaxHz),
				tonal.FormatHz(ec.EffectiveTonic()), ec.Difficulty, ec.Mode)
		}
		return w.Flush()
	},
}

var configSetStorageCmd = &cobra.Command{
	Use:   "set-storage <dest>",
	Short: "Set the render destination",
	Long: `Set where rendered guides and MIDI files go: a directory or
s3://bucket/prefix. S3 credentials fall back to the AWS_ACCESS_KEY_ID and
AWS_SECRET_ACCESS_KEY environment variables.

Example:
  intone config set-storage s3://my-bucket/intone --region eu-west-1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		sc := &cli.StorageConfig{Dest: args[0]}
		flags := cmd.Flags()
		sc.S3.Region, _ = flags.GetString("region")
		sc.S3.Endpoint, _ = flags.GetString("endpoint")
		sc.S3.PathStyle, _ = flags.GetBool("path-style")
		cfg.Storage = sc
		if err := cfg.Save(); err != nil {
			return err
		}
		cli.PrintSuccess("Render destination set to %s", args[0])
		return nil
	},
}

func init() {
	f := configAddProfileCmd.Flags()
	f.String("gender", "male", "male or female; selects the default range")
	f.Float64("min-hz", 0, "lowest comfortable pitch")
	f.Float64("max-hz", 0, "highest comfortable pitch")
	f.Float64("do-hz", 0, "tonic frequency")
	f.Int("key", 0, "transpose the tonic by semitones")
	f.String("tuning", "", "equal or just")
	f.String("difficulty", "", "difficulty L1..L6")
	f.String("mode", "", "absolute or relative")

	f = configSetStorageCmd.Flags()
	f.String("region", "", "S3 region")
	f.String("endpoint", "", "S3-compatible endpoint URL")
	f.Bool("path-style", false, "use path-style S3 addressing")

	configCmd.AddCommand(
		configShowCmd,
		configAddProfileCmd,
		configDeleteProfileCmd,
		configUseProfileCmd,
		configListProfilesCmd,
		configSetStorageCmd,
	)
	rootCmd.AddCommand(configCmd)
}
