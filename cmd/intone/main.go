// Command intone generates pitch-training exercises, renders their guide
// tones and scores sung takes.
//
// Usage:
//
//	intone [flags] <command> [args]
//
// Commands:
//
//	exercise  Generate and manage exercises (new, list, show, delete, midi)
//	render    Render the guide tone of an exercise to WAV
//	track     Print the pitch curve of a WAV file
//	score     Score a sung take against an exercise
//	demo      Run the practice loop offline with a synthetic singer
//	config    Manage singer profiles
//
// Configuration is stored in ~/.intone/config.yaml and exercises in
// ~/.intone/library.
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/intone/cmd/intone/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
