// Package digestfile implements the digest-file line format: parsing (C3),
// serialization (C4), and the in-memory record table the rest of the system
// operates on (spec.md §3, §4.3, §4.4).
package digestfile

import (
	"github.com/digup-project/digup/pkg/digest"
)

// Status is the classification a Record carries, per spec.md §3.
type Status int

const (
	// StatusUnseen is the initial status of a record loaded from a digest
	// file. It remains terminal, and denotes a deleted path, if the scan
	// never visits it.
	StatusUnseen Status = iota
	// StatusSeen indicates the on-disk file is content-identical to the
	// recorded digest and its metadata matched within tolerance.
	StatusSeen
	// StatusNew indicates a path with no prior record and no recognized
	// digest match.
	StatusNew
	// StatusTouched indicates metadata changed but content is identical.
	StatusTouched
	// StatusChanged indicates content differs from the recorded digest.
	StatusChanged
	// StatusError indicates a recoverable per-record failure (I/O error,
	// size mismatch).
	StatusError
	// StatusCopied indicates new content recognized at a new path while the
	// original path's content also still exists.
	StatusCopied
	// StatusRenamed indicates new content recognized at a new path whose
	// original path's content no longer exists.
	StatusRenamed
	// StatusOldpath is the terminal status of a record whose content was
	// recognized (as a rename) at a different path during the same scan.
	StatusOldpath
	// StatusSkipped is assigned at load time to records excluded by a
	// restrict pattern. It is terminal and never revisited.
	StatusSkipped
)

// String renders the status using the review surface's command names
// (spec.md §4.7) wherever one exists.
func (s Status) String() string {
	switch s {
	case StatusUnseen:
		return "unseen"
	case StatusSeen:
		return "untouched"
	case StatusNew:
		return "new"
	case StatusTouched:
		return "touched"
	case StatusChanged:
		return "changed"
	case StatusError:
		return "error"
	case StatusCopied:
		return "copied"
	case StatusRenamed:
		return "renamed"
	case StatusOldpath:
		return "oldpath"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Record is the per-path entry and the only mutable unit in the system
// (spec.md §3's FileInfo). A *Record is owned by exactly one Table and its
// path is the Table's key for it.
type Record struct {
	// Status is the record's classification. See the Status constants.
	Status Status

	// ModificationTime is the recorded modification time, in integer
	// seconds since the Unix epoch.
	ModificationTime int64

	// Size is the recorded byte count. A negative value is the "unknown
	// until scanned" sentinel spec.md §3 specifies.
	Size int64

	// Digest is the recorded content digest. It is the zero Digest for
	// symbolic-link records, which carry SymlinkTarget instead.
	Digest digest.Digest

	// SymlinkTarget is set iff this record describes a symbolic link. It is
	// mutually exclusive with a non-zero Digest.
	SymlinkTarget string

	// Oldpath is set only when Status is StatusCopied or StatusRenamed: the
	// prior path the content was recognized at.
	Oldpath string

	// Error holds the error string for a record in StatusError.
	Error string
}

// SizeUnknown is the sentinel Size value meaning "not yet populated by a
// scan" (spec.md §3).
const SizeUnknown int64 = -1

// IsSymlink reports whether the record describes a symbolic link.
func (r *Record) IsSymlink() bool {
	return r.SymlinkTarget != ""
}

// HasContentDigest reports whether the record's invariant 2 (spec.md §3) is
// satisfied: every record in one of the content-bearing statuses carries a
// valid digest or symlink target.
func (r *Record) HasContentDigest() bool {
	return !r.Digest.IsZero() || r.SymlinkTarget != ""
}
