package digestfile

import (
	"strings"

	"github.com/digup-project/digup/pkg/digest"
	"github.com/digup-project/digup/pkg/orderedmap"
)

// Table is the path→Record map described in spec.md §3: it owns every path
// string and every Record, is keyed uniquely and ordered lexicographically
// by path, and lives for the duration of a single reconciliation run.
type Table struct {
	byPath *orderedmap.Map[string, *Record]
	// count mirrors byPath.Len() for callers that only need the total,
	// avoiding a walk just to compute the "total" line of the summary view.
	count int
}

// NewTable constructs an empty Table.
func NewTable() *Table {
	return &Table{byPath: orderedmap.New[string, *Record](strings.Compare)}
}

// Get returns the record at path, if any.
func (t *Table) Get(path string) (*Record, bool) {
	n, ok := t.byPath.Find(path)
	if !ok {
		return nil, false
	}
	return n.Value, true
}

// Insert adds a new record at path. Per spec.md §4.3, inserting at a path
// that already exists is a parse-time fatal error; callers that need that
// behavior should check Get first. Insert itself always succeeds and simply
// overwrites, since the reconciler also relies on Insert to add
// newly-discovered paths it has already confirmed are absent.
func (t *Table) Insert(path string, record *Record) {
	if existing, ok := t.byPath.Find(path); ok {
		existing.Value = record
		return
	}
	t.byPath.Insert(path, record)
	t.count++
}

// Len returns the total number of records in the table.
func (t *Table) Len() int {
	return t.count
}

// Paths returns every path in the table in lexicographic order. This is the
// iteration order spec.md §3 invariant 4 and §5(b) require for review and
// serialization.
func (t *Table) Paths() []string {
	paths := make([]string, 0, t.count)
	for n := t.byPath.Begin(); n != nil; n = orderedmap.Successor(n) {
		paths = append(paths, n.Key)
	}
	return paths
}

// Range calls f for every record in lexicographic path order, stopping
// early if f returns false.
func (t *Table) Range(f func(path string, record *Record) bool) {
	for n := t.byPath.Begin(); n != nil; n = orderedmap.Successor(n) {
		if !f(n.Key, n.Value) {
			return
		}
	}
}

// DigestIndex is the digest→path multi-index of spec.md §4.3/§4.6: a
// non-owning reverse lookup from content digest to every path recorded with
// that digest, ordered by digest and, for equal digests, by insertion order.
// Per spec.md §3 invariant 5, only pre-existing records (those loaded from
// the digest file, not ones discovered fresh during the scan) with a digest
// set are indexed; symbolic-link records, which carry no Digest, are never
// indexed.
type DigestIndex struct {
	byDigest *orderedmap.Map[digest.Digest, string]
}

// NewDigestIndex builds a DigestIndex by walking table in path order and
// indexing every record whose Status is not StatusSkipped and whose Digest
// is set. Indexing in path order means that, per the ordering guarantee in
// spec.md §5(c), nodes sharing a digest are visited in the original path
// order when the rename/copy search walks them via Successor.
//
// Skipped records are deliberately excluded: this is the documented policy
// choice from spec.md §9(c). A file whose content moves into a restricted
// region from outside is therefore classified NEW rather than RENAMED,
// because the prior record at its old path was marked SKIPPED and dropped
// from consideration here.
func NewDigestIndex(table *Table) *DigestIndex {
	idx := &DigestIndex{byDigest: orderedmap.New[digest.Digest, string](digest.Digest.Compare)}
	table.Range(func(path string, record *Record) bool {
		if record.Status == StatusSkipped {
			return true
		}
		if record.Digest.IsZero() {
			return true
		}
		idx.byDigest.Insert(record.Digest, path)
		return true
	})
	return idx
}

// Candidates returns every path indexed under d, in insertion order, by
// walking the leftmost match and then every duplicate-key successor, per
// the contract spec.md §4.8 mandates.
func (idx *DigestIndex) Candidates(d digest.Digest) []string {
	node, ok := idx.byDigest.Find(d)
	if !ok {
		return nil
	}
	var paths []string
	for node != nil && node.Key.Equal(d) {
		paths = append(paths, node.Value)
		node = orderedmap.Successor(node)
	}
	return paths
}
