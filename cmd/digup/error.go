package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// warning prints an advisory diagnostic (filesystem loop, special-file
// skip, exclude-marker hit, and the like) without aborting.
func warning(message string) {
	fmt.Fprintln(color.Error, color.YellowString("Warning:"), message)
}

// errorMessage prints an error without terminating the process.
func errorMessage(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
}

// fatal prints an error and terminates with the process's fatal-error exit
// code. Per spec.md §6, a fatal argument error or digest-file parse failure
// exits with -1 (255), distinct from the batch-mode dirty exit code of 1.
func fatal(err error) {
	errorMessage(err)
	os.Exit(255)
}
