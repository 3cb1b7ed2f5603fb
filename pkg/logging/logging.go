package logging

import (
	"log"
	"os"
)

func init() {
	// Diagnostics and errors go to stderr; stdout is reserved for the
	// review surface's own output.
	log.SetOutput(os.Stderr)
	log.SetFlags(0)
}
