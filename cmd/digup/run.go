package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/digup-project/digup/pkg/config"
	"github.com/digup-project/digup/pkg/digest"
	"github.com/digup-project/digup/pkg/digestfile"
	"github.com/digup-project/digup/pkg/digup"
	"github.com/digup-project/digup/pkg/logging"
	"github.com/digup-project/digup/pkg/reconcile"
	"github.com/digup-project/digup/pkg/review"
	"github.com/digup-project/digup/pkg/walk"
)

func runMain(command *cobra.Command, arguments []string) error {
	if rootConfiguration.version {
		fmt.Println(digup.Version)
		return nil
	}
	if rootConfiguration.help {
		return command.Help()
	}
	if len(arguments) != 0 {
		return errors.New("digup accepts no positional arguments")
	}

	opts, err := resolveOptions()
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	if opts.Directory != "" {
		if err := os.Chdir(opts.Directory); err != nil {
			return errors.Wrap(err, "unable to change directory")
		}
	}

	logger := logging.New(logging.LevelForVerbosity(opts.Verbosity))

	digestFilePath, fallbackAlgorithm, err := resolveDigestFile(opts)
	if err != nil {
		return err
	}

	table, persistent, err := loadTable(digestFilePath, opts, logger)
	if err != nil {
		return err
	}

	if opts.ExcludeMarker != "" {
		persistent.ExcludeMarker = opts.ExcludeMarker
		persistent.HasExcludeMarker = true
	}

	algorithm := opts.Algorithm
	if !algorithm.Supported() {
		algorithm = inferAlgorithm(table, fallbackAlgorithm)
	}

	root, err := filepath.Abs(".")
	if err != nil {
		return errors.Wrap(err, "unable to resolve working directory")
	}
	absDigestFile, err := filepath.Abs(digestFilePath)
	if err != nil {
		return errors.Wrap(err, "unable to resolve digest file path")
	}

	reconciler := reconcile.New(root, table, reconcile.Options{
		Algorithm:         algorithm,
		ModifyWindow:      opts.ModifyWindow,
		FullCheck:         opts.FullCheck,
		SuppressUnchanged: opts.SuppressUnchanged,
	}, logger)

	walker := walk.New(root, walk.Options{
		ExcludeMarker:  persistent.ExcludeMarker,
		Restrict:       opts.Restrict,
		FollowSymlinks: opts.FollowSymlinks,
		DigestFilePath: absDigestFile,
	}, reconciler, logger)

	if err := walker.Walk(); err != nil {
		return errors.Wrap(err, "scan failed")
	}

	surface := review.New(table)
	counts := review.Summarize(table)

	// Deleted records are surfaced unconditionally unless --modified asked
	// for a quiet run and nothing was actually deleted, per
	// original_source/src/digup.c's "always print deleted files, otherwise
	// they may be silently ignored."
	if counts.Deleted > 0 || !opts.SuppressUnchanged {
		surface.Query(os.Stdout, "deleted")
	}

	if opts.Batch {
		clean := review.Clean(counts)
		// Mirrors original_source/src/digup.c: a clean run under
		// --modified suppresses the summary entirely, since there is
		// nothing to report.
		if !clean || !opts.SuppressUnchanged {
			review.WriteSummary(os.Stdout, counts)
		}

		if opts.Update {
			if err := writeDigestFile(digestFilePath, table, persistent); err != nil {
				return err
			}
		}

		if !clean {
			os.Exit(1)
		}
		return nil
	}

	return runShell(surface, counts, table, digestFilePath, persistent)
}

// resolveOptions converts the bound command-line flags into a config.Options
// value, rejecting an unrecognized --type name up front.
func resolveOptions() (config.Options, error) {
	verbosity := rootConfiguration.verbose
	if rootConfiguration.quiet {
		verbosity = -1
	}

	modifyWindow := rootConfiguration.modifyWindow
	if rootConfiguration.windows {
		modifyWindow = 1
	}

	algorithm := digest.AlgorithmUnknown
	if rootConfiguration.algorithm != "" {
		parsed, err := digest.ParseAlgorithm(strings.ToLower(rootConfiguration.algorithm))
		if err != nil {
			return config.Options{}, err
		}
		algorithm = parsed
	}

	return config.Options{
		Batch:             rootConfiguration.batch,
		FullCheck:         rootConfiguration.check,
		Directory:         rootConfiguration.directory,
		File:              rootConfiguration.file,
		FollowSymlinks:    rootConfiguration.links,
		SuppressUnchanged: rootConfiguration.modified,
		ModifyWindow:      modifyWindow,
		Verbosity:         verbosity,
		Restrict:          rootConfiguration.restrict,
		Algorithm:         algorithm,
		Update:            rootConfiguration.update,
		ExcludeMarker:     rootConfiguration.excludeMarker,
	}, nil
}

// inferAlgorithm picks the algorithm new file content should be hashed
// with when --type wasn't given: the algorithm already established by an
// existing content digest in the table, or fallback if the table is empty
// (a fresh digest file).
func inferAlgorithm(table *digestfile.Table, fallback digest.Algorithm) digest.Algorithm {
	var found digest.Algorithm
	table.Range(func(_ string, record *digestfile.Record) bool {
		if !record.Digest.IsZero() {
			found = record.Digest.Algorithm()
			return false
		}
		return true
	})
	if found.Supported() {
		return found
	}
	return fallback
}

// loadTable opens and parses the digest file at path, handling the
// SPEC_FULL.md §5.2 CRC-mismatch interactive recovery path: a batch run
// treats the mismatch as fatal, while an interactive run prompts and, on
// "yes," re-parses the same file with CRC verification disabled.
func loadTable(path string, opts config.Options, logger *logging.Logger) (*digestfile.Table, digestfile.PersistentOptions, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn(errors.Errorf("no digest file found at %s, starting from an empty baseline", path))
			return digestfile.NewTable(), digestfile.PersistentOptions{}, nil
		}
		return nil, digestfile.PersistentOptions{}, errors.Wrap(err, "unable to open digest file")
	}
	defer file.Close()

	parseOpts := digestfile.ParseOptions{Restrict: opts.Restrict, BatchMode: opts.Batch}
	result, err := digestfile.Parse(file, parseOpts)
	if err == nil {
		return result.Table, result.Options, nil
	}

	mismatch, ok := err.(*digestfile.CRCMismatchError)
	if !ok {
		return nil, digestfile.PersistentOptions{}, errors.Wrap(err, "unable to parse digest file")
	}
	if opts.Batch {
		return nil, digestfile.PersistentOptions{}, errors.Wrap(mismatch, "digest file failed CRC verification")
	}

	warning(mismatch.Error())
	if !confirm("Continue despite the CRC mismatch? [y/N] ") {
		return nil, digestfile.PersistentOptions{}, errors.Wrap(mismatch, "digest file failed CRC verification")
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, digestfile.PersistentOptions{}, errors.Wrap(err, "unable to re-read digest file")
	}
	parseOpts.SkipCRCVerification = true
	result, err = digestfile.Parse(file, parseOpts)
	if err != nil {
		return nil, digestfile.PersistentOptions{}, errors.Wrap(err, "unable to parse digest file")
	}
	return result.Table, result.Options, nil
}

// writeDigestFile serializes table to path, stamping the header with the
// current time. This is the only place in the program that calls
// time.Now(), per pkg/digestfile.Serialize's no-wall-clock convention.
func writeDigestFile(path string, table *digestfile.Table, persistent digestfile.PersistentOptions) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "unable to create digest file")
	}
	defer file.Close()

	if err := digestfile.Serialize(file, table, digestfile.SerializeOptions{
		Persistent: persistent,
		Now:        time.Now(),
	}); err != nil {
		return errors.Wrap(err, "unable to write digest file")
	}
	return nil
}
