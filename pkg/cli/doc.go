// Package cli holds the pieces shared by the intone command: singer
// profiles, directory layout, request files, output formatting and the
// score card.
//
// Configuration lives in ~/.intone/config.yaml and holds named singer
// profiles, one of which is current, similar to kubectl contexts:
//
//	cfg, err := cli.LoadConfig("")
//	p, err := cfg.ResolveProfile(name)
//	ex, err := exercise.Generate(p.ExerciseConfig(), rng)
//
// Results are printed as YAML by default:
//
//	cli.Output(result, cli.OutputOptions{Format: cli.FormatJSON})
package cli
