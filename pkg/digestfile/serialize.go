package digestfile

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/digup-project/digup/pkg/digup"
	"github.com/digup-project/digup/pkg/escapefmt"
)

// SerializeOptions controls Serialize's output.
type SerializeOptions struct {
	// Persistent options are re-emitted verbatim as "#: option" comments so
	// a subsequent load reproduces them (spec.md §4.4).
	Persistent PersistentOptions
	// Now stamps the header's timestamp comment. Tests and callers that
	// want a deterministic header should set this explicitly; Serialize
	// itself never calls time.Now (per the no-wall-clock-in-library-code
	// convention spec.md's ambient tooling follows).
	Now time.Time
}

// countingWriter tracks the running CRC of everything written so far,
// mirroring the same zero-initialized, chained hash/crc32.Update discipline
// Parse uses, so a file this package writes also parses cleanly through
// this package.
type countingWriter struct {
	w   io.Writer
	crc runningCRC
	err error
}

func (c *countingWriter) writeLine(line string) {
	if c.err != nil {
		return
	}
	b := append([]byte(line), '\n')
	if _, err := c.w.Write(b); err != nil {
		c.err = err
		return
	}
	c.crc.update(b)
}

// Serialize writes table to w in the canonical digest-file format (spec.md
// §4.4). Records are emitted in lexicographic path order; records whose
// Status is StatusUnseen, StatusError, StatusOldpath, or StatusSkipped are
// omitted, since none of those statuses describe content that should
// survive into the next run's baseline.
func Serialize(w io.Writer, table *Table, opts SerializeOptions) error {
	bw := bufio.NewWriter(w)
	cw := &countingWriter{w: bw}

	cw.writeLine(fmt.Sprintf("# %s last update: %s", digup.Name, opts.Now.UTC().Format(time.RFC3339)))

	if opts.Persistent.HasExcludeMarker {
		cw.writeLine(fmt.Sprintf("#: option --exclude-marker=%s", opts.Persistent.ExcludeMarker))
	}

	table.Range(func(path string, record *Record) bool {
		switch record.Status {
		case StatusUnseen, StatusError, StatusOldpath, StatusSkipped:
			return true
		}
		writeRecord(cw, path, record)
		return true
	})

	cw.writeLine(fmt.Sprintf("#: crc 0x%08x eof", cw.crc.snapshot()))

	if cw.err != nil {
		return cw.err
	}
	return bw.Flush()
}

// writeRecord emits the metadata line(s) and the record line for a single
// path, choosing the symlink form or the digest form based on the record.
func writeRecord(cw *countingWriter, path string, record *Record) {
	if record.IsSymlink() {
		writeSymlinkRecord(cw, path, record)
		return
	}
	writeDigestRecord(cw, path, record)
}

func writeSymlinkRecord(cw *countingWriter, path string, record *Record) {
	target, targetNeedsEscape := escapefmt.Encode(record.SymlinkTarget)

	// mtime, size, and target are packed onto a single metadata line,
	// matching the original's fprintfcrc(&crc, sumfile, "#: mtime %ld size
	// %lld target\ %s\n", ...); only the symlink path gets its own line. An
	// unknown (negative) size is left out, and Parse reads a missing size
	// back as SizeUnknown.
	meta := fmt.Sprintf("#: mtime %d", record.ModificationTime)
	if record.Size >= 0 {
		meta += fmt.Sprintf(" size %d", record.Size)
	}
	if targetNeedsEscape {
		cw.writeLine(fmt.Sprintf("%s target\\ %s", meta, target))
	} else {
		cw.writeLine(fmt.Sprintf("%s target %s", meta, target))
	}

	encodedPath, pathNeedsEscape := escapefmt.Encode(path)
	if pathNeedsEscape {
		cw.writeLine(fmt.Sprintf("#: symlink\\ %s", encodedPath))
	} else {
		cw.writeLine(fmt.Sprintf("#: symlink %s", encodedPath))
	}
}

func writeDigestRecord(cw *countingWriter, path string, record *Record) {
	meta := fmt.Sprintf("#: mtime %d size %d", record.ModificationTime, record.Size)
	cw.writeLine(meta)

	encodedPath, needsEscape := escapefmt.Encode(path)
	prefix := ""
	if needsEscape {
		prefix = "\\"
	}
	// One space separates the hex digest from the type byte (' ' for a
	// regular file), matching the md5sum-style record line spec.md §4.1
	// describes; the leading backslash, when present, marks that the path
	// carries escaped control characters.
	cw.writeLine(fmt.Sprintf("%s%s  %s", prefix, record.Digest.Hex(), encodedPath))
}
