// Package review implements the read-only predicates of spec.md §4.7: named
// queries over a digestfile.Table by classification, a summary view, and the
// batch-mode exit code decision. The write and quit actions, and the
// interactive dispatch shell that drives the queries (SPEC_FULL.md §5.3),
// live in cmd/digup.
package review

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/digup-project/digup/pkg/digestfile"
)

// Surface is a read-only view over a record table, used by both the
// interactive review shell and batch mode.
type Surface struct {
	table *digestfile.Table
}

// New constructs a Surface over table.
func New(table *digestfile.Table) *Surface {
	return &Surface{table: table}
}

// predicateFor returns the Status a named query matches, and whether the
// name is a recognized query. The "deleted" query matches UNSEEN records.
// The name must be one of the command-surface names spec.md §4.7 lists.
func predicateFor(name string) (digestfile.Status, bool) {
	switch name {
	case "new":
		return digestfile.StatusNew, true
	case "untouched":
		return digestfile.StatusSeen, true
	case "touched":
		return digestfile.StatusTouched, true
	case "changed":
		return digestfile.StatusChanged, true
	case "deleted":
		return digestfile.StatusUnseen, true
	case "error":
		return digestfile.StatusError, true
	case "copied":
		return digestfile.StatusCopied, true
	case "renamed":
		return digestfile.StatusRenamed, true
	case "skipped":
		return digestfile.StatusSkipped, true
	default:
		return 0, false
	}
}

// Query writes one line per record matching the named classification, in
// path order. It returns false if name is not a recognized query.
func (s *Surface) Query(w io.Writer, name string) bool {
	status, ok := predicateFor(name)
	if !ok {
		return false
	}

	s.table.Range(func(path string, record *digestfile.Record) bool {
		if record.Status != status {
			return true
		}
		fmt.Fprintln(w, path)
		if record.Oldpath != "" {
			fmt.Fprintf(w, "\t<-- %s\n", record.Oldpath)
		}
		return true
	})
	return true
}

// Counts tallies the statuses present in the table. OLDPATH records have no
// counter of their own and are counted only in Total.
type Counts struct {
	New, Untouched, Touched, Changed, Deleted, Error, Copied, Renamed, Skipped int
	TotalBytes                                                                 int64
	Total                                                                      int
}

// Summarize computes the counters for the summary view.
func Summarize(table *digestfile.Table) Counts {
	var c Counts
	table.Range(func(path string, record *digestfile.Record) bool {
		c.Total++
		if record.Size > 0 {
			c.TotalBytes += record.Size
		}
		switch record.Status {
		case digestfile.StatusNew:
			c.New++
		case digestfile.StatusSeen:
			c.Untouched++
		case digestfile.StatusTouched:
			c.Touched++
		case digestfile.StatusChanged:
			c.Changed++
		case digestfile.StatusUnseen:
			c.Deleted++
		case digestfile.StatusError:
			c.Error++
		case digestfile.StatusCopied:
			c.Copied++
		case digestfile.StatusRenamed:
			c.Renamed++
		case digestfile.StatusSkipped:
			c.Skipped++
		}
		return true
	})
	return c
}

// WriteSummary prints the non-zero counters plus the total, per spec.md
// §4.7's summary view.
func WriteSummary(w io.Writer, c Counts) {
	printIfNonZero := func(label string, n int, colorize func(format string, a ...interface{}) string) {
		if n == 0 {
			return
		}
		fmt.Fprintln(w, colorize("  %-10s %d", label, n))
	}

	printIfNonZero("new", c.New, color.GreenString)
	printIfNonZero("untouched", c.Untouched, fmt.Sprintf)
	printIfNonZero("touched", c.Touched, color.YellowString)
	printIfNonZero("changed", c.Changed, color.YellowString)
	printIfNonZero("deleted", c.Deleted, color.RedString)
	printIfNonZero("error", c.Error, color.RedString)
	printIfNonZero("copied", c.Copied, color.CyanString)
	printIfNonZero("renamed", c.Renamed, color.CyanString)
	printIfNonZero("skipped", c.Skipped, fmt.Sprintf)

	fmt.Fprintf(w, "  %-10s %d (%s)\n", "total", c.Total, humanize.Bytes(uint64(c.TotalBytes)))
}

// Clean reports whether the tree is content-identical to the recorded
// state modulo mtime noise: every record is SEEN or TOUCHED. This is the
// batch-mode exit-code decision from spec.md §4.7, taken literally — a
// SKIPPED record (from a --restrict filter) also counts as dirty, since
// it is neither SEEN nor TOUCHED.
func Clean(c Counts) bool {
	return c.Untouched+c.Touched == c.Total
}
