package main

import (
	"github.com/spf13/cobra"
)

// mainify wraps a Cobra entry point that returns an error, turning it into
// the signature cobra.Command.Run expects. This keeps runMain free to use
// ordinary error returns (and any eventual defer-based cleanup) instead of
// calling os.Exit directly.
func mainify(entry func(*cobra.Command, []string) error) func(*cobra.Command, []string) {
	return func(command *cobra.Command, arguments []string) {
		if err := entry(command, arguments); err != nil {
			fatal(err)
		}
	}
}
