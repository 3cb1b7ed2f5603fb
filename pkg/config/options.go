// Package config holds the single, explicit configuration value
// constructed from the command line and threaded through the walker,
// reconciler, and serializer. Per spec.md §9's Design Notes, this replaces
// the "global mutable option and counter state" pattern the original tool
// used: nothing in this module reads process-wide mutable configuration.
package config

import (
	"github.com/pkg/errors"

	"github.com/digup-project/digup/pkg/digest"
)

// Options is the fully-resolved configuration for one invocation.
type Options struct {
	// Batch disables interactive review; the process exits with a status
	// code reflecting tree cleanliness.
	Batch bool
	// FullCheck forces every matched record to be rehashed, ignoring the
	// modify-window shortcut.
	FullCheck bool
	// Directory is chdir'd into before any other operation, if set.
	Directory string
	// File is the explicit digest-file path. If empty, it is probed from
	// the default-name table.
	File string
	// FollowSymlinks causes the walker to resolve symlinks instead of
	// recording them as symlink entries.
	FollowSymlinks bool
	// SuppressUnchanged suppresses unchanged entries in verbose output
	// (`--modified`/`-m`).
	SuppressUnchanged bool
	// ModifyWindow is the mtime slack, in seconds, for the file and
	// symlink classifiers.
	ModifyWindow int64
	// Verbosity is the resolved verbosity count: -1 for `-q`, 0 default, 1
	// for `-v`, 2+ for repeated `-v`.
	Verbosity int
	// Restrict is the substring filter applied at load and during the walk.
	Restrict string
	// Algorithm selects the digest algorithm used for newly discovered
	// content.
	Algorithm digest.Algorithm
	// Update auto-writes the digest file in batch mode before exiting.
	Update bool
	// ExcludeMarker names a directory entry that short-circuits recursion.
	ExcludeMarker string
}

// Validate checks flag combinations the CLI layer cannot reject on its own
// (spec.md §7: "`--update` without `--batch`" is a fatal argument error).
func (o Options) Validate() error {
	if o.Update && !o.Batch {
		return errors.New("--update requires --batch")
	}
	if o.ModifyWindow < 0 {
		return errors.New("--modify-window must be non-negative")
	}
	return nil
}
