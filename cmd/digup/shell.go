package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/digup-project/digup/pkg/digestfile"
	"github.com/digup-project/digup/pkg/review"
)

// commandAliases maps the one-letter abbreviations recovered from
// original_source/src/digup.c's command table onto the full command-surface
// names pkg/review.Surface.Query and runShell recognize (SPEC_FULL.md
// §5.3).
var commandAliases = map[string]string{
	"n": "new",
	"u": "untouched",
	"t": "touched",
	"c": "changed",
	"d": "deleted",
	"e": "error",
	"o": "copied",
	"r": "renamed",
	"s": "skipped",
	"w": "write",
	"q": "quit",
}

// runShell drives the interactive review prompt: one named query or action
// per line, a bare blank line repeating the previous command, until the
// operator writes or quits.
func runShell(surface *review.Surface, counts review.Counts, table *digestfile.Table, digestFilePath string, persistent digestfile.PersistentOptions) error {
	fmt.Println("Scan finished.")
	review.WriteSummary(os.Stdout, counts)

	last := ""
	for {
		line, err := promptLine("digup (see \"help\")? ")
		if err != nil {
			fmt.Println()
			return nil
		}

		command := strings.TrimSpace(line)
		if command == "" {
			command = last
		}
		if command == "" {
			continue
		}
		last = command

		if full, ok := commandAliases[command]; ok {
			command = full
		}

		switch command {
		case "quit", "exit":
			return nil
		case "write", "save":
			if err := writeDigestFile(digestFilePath, table, persistent); err != nil {
				errorMessage(err)
				continue
			}
			fmt.Printf("Wrote %s.\n", digestFilePath)
			return nil
		case "summary":
			review.WriteSummary(os.Stdout, counts)
		case "help":
			printShellHelp()
		default:
			if !surface.Query(os.Stdout, command) {
				fmt.Printf("Unknown command %q. See \"help\".\n", command)
			}
		}
	}
}

func printShellHelp() {
	fmt.Println("Commands (one-letter abbreviations in parentheses):")
	fmt.Println("  new (n)        newly seen files not in the digest file")
	fmt.Println("  untouched (u)  files whose content and metadata are unchanged")
	fmt.Println("  touched (t)    files whose metadata changed but content did not")
	fmt.Println("  changed (c)    files whose content changed")
	fmt.Println("  copied (o)     files recognized as a copy of surviving content")
	fmt.Println("  renamed (r)    files recognized as a rename of vanished content")
	fmt.Println("  deleted (d)    recorded files no longer present on disk")
	fmt.Println("  error (e)      files that could not be read")
	fmt.Println("  skipped (s)    files excluded by --restrict")
	fmt.Println("  summary        scan counters")
	fmt.Println("  write (w)      write the digest file and exit")
	fmt.Println("  quit (q)       exit without writing")
	fmt.Println("  <blank line>   repeat the last command")
}
