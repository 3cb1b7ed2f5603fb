package main

import (
	"os"

	"github.com/pkg/errors"

	"github.com/digup-project/digup/pkg/config"
	"github.com/digup-project/digup/pkg/digest"
)

// defaultDigestFiles is the probe order and algorithm mapping spec.md §6
// specifies. sha128sum.txt is carried as a legacy alias for SHA-1 per the
// resolved open question in SPEC_FULL.md §5.1: recognized here, and
// rewritten in place when it is the file found, but never chosen as the name
// of a fresh digest file (see nameForAlgorithm).
var defaultDigestFiles = []struct {
	name      string
	algorithm digest.Algorithm
}{
	{"md5sum.txt", digest.AlgorithmMD5},
	{"sha1sum.txt", digest.AlgorithmSHA1},
	{"sha128sum.txt", digest.AlgorithmSHA1},
	{"sha256sum.txt", digest.AlgorithmSHA256},
	{"sha512sum.txt", digest.AlgorithmSHA512},
}

// resolveDigestFile determines which digest file to operate on and, when no
// file exists yet, the algorithm a freshly created one should use. It
// mirrors original_source/src/digup.c's select_digestfile/read_digestfile
// pairing: an explicit --file always wins; otherwise the current directory
// is probed for exactly one of the standard names, and finding more than
// one is fatal. With neither an explicit file nor an existing standard
// name, a fresh digest file falls back to "sha1sum.txt" unless --type named
// another algorithm, in which case that algorithm's standard name is used
// instead. An explicit --file without --type likewise falls back to SHA-1.
func resolveDigestFile(opts config.Options) (string, digest.Algorithm, error) {
	if opts.File != "" {
		if opts.Algorithm.Supported() {
			return opts.File, opts.Algorithm, nil
		}
		return opts.File, digest.AlgorithmSHA1, nil
	}

	var found string
	var algorithm digest.Algorithm
	for _, candidate := range defaultDigestFiles {
		if _, err := os.Stat(candidate.name); err != nil {
			continue
		}
		if found != "" {
			return "", digest.AlgorithmUnknown, errors.New("multiple digest files found in the current directory; select one with --file")
		}
		found = candidate.name
		algorithm = candidate.algorithm
	}
	if found != "" {
		return found, algorithm, nil
	}

	if opts.Algorithm.Supported() {
		return nameForAlgorithm(opts.Algorithm), opts.Algorithm, nil
	}
	return "sha1sum.txt", digest.AlgorithmSHA1, nil
}

func nameForAlgorithm(a digest.Algorithm) string {
	switch a {
	case digest.AlgorithmMD5:
		return "md5sum.txt"
	case digest.AlgorithmSHA256:
		return "sha256sum.txt"
	case digest.AlgorithmSHA512:
		return "sha512sum.txt"
	default:
		return "sha1sum.txt"
	}
}
