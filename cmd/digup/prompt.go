package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/mutagen-io/gopass"
)

// promptLine prints prompt to standard output and reads a single line of
// visibly-echoed terminal input. It reuses the same gopass-based terminal
// handling the teacher's command-line prompting relies on instead of a bare
// bufio.Scanner, so that an interrupted read (e.g. EOF on stdin) surfaces
// as an error rather than a silently empty response.
func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	response, err := gopass.GetPasswdEchoed()
	if err != nil {
		return "", errors.Wrap(err, "unable to read response")
	}
	return string(response), nil
}

// confirm prompts with a yes/no question and reports whether the response
// was an affirmative "y" or "yes" (case-insensitive). Any other response,
// including a read error, is treated as "no" — matching
// original_source/src/digup.c's CRC-mismatch recovery, which re-raises as
// fatal on anything but an explicit "y".
func confirm(prompt string) bool {
	response, err := promptLine(prompt)
	if err != nil {
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}
