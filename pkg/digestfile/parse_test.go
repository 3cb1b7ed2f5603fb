package digestfile

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/digup-project/digup/pkg/digest"
)

func serializeToString(t *testing.T, table *Table, opts SerializeOptions) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Serialize(&buf, table, opts); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	return buf.String()
}

func mustParse(t *testing.T, text string, opts ParseOptions) *Result {
	t.Helper()
	result, err := Parse(strings.NewReader(text), opts)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return result
}

func buildTable(entries map[string]*Record) *Table {
	table := NewTable()
	for path, record := range entries {
		table.Insert(path, record)
	}
	return table
}

func TestRoundTripEmptyTable(t *testing.T) {
	table := NewTable()
	text := serializeToString(t, table, SerializeOptions{Now: time.Unix(0, 0)})

	result := mustParse(t, text, ParseOptions{})
	if result.Table.Len() != 0 {
		t.Fatalf("expected empty table, got %d records", result.Table.Len())
	}
}

func TestRoundTripDigestRecords(t *testing.T) {
	table := buildTable(map[string]*Record{
		"a/one.txt": {
			Status:           StatusSeen,
			ModificationTime: 1000,
			Size:             11,
			Digest:           digest.Hash(digest.AlgorithmMD5, []byte("hello world\n")),
		},
		"b/two.txt": {
			Status:           StatusSeen,
			ModificationTime: 2000,
			Size:             21,
			Digest:           digest.Hash(digest.AlgorithmMD5, []byte("second file contents")),
		},
	})

	text := serializeToString(t, table, SerializeOptions{Now: time.Unix(0, 0)})
	result := mustParse(t, text, ParseOptions{})

	if result.Table.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", result.Table.Len())
	}

	for _, path := range []string{"a/one.txt", "b/two.txt"} {
		original, _ := table.Get(path)
		roundTripped, ok := result.Table.Get(path)
		if !ok {
			t.Fatalf("path %q missing after round trip", path)
		}
		if !roundTripped.Digest.Equal(original.Digest) {
			t.Errorf("path %q: digest mismatch: got %s, want %s", path, roundTripped.Digest.Hex(), original.Digest.Hex())
		}
		if roundTripped.ModificationTime != original.ModificationTime {
			t.Errorf("path %q: mtime mismatch: got %d, want %d", path, roundTripped.ModificationTime, original.ModificationTime)
		}
		if roundTripped.Size != original.Size {
			t.Errorf("path %q: size mismatch: got %d, want %d", path, roundTripped.Size, original.Size)
		}
		if roundTripped.Status != StatusUnseen {
			t.Errorf("path %q: freshly parsed record should start StatusUnseen, got %s", path, roundTripped.Status)
		}
	}
}

func TestRoundTripSymlinkRecord(t *testing.T) {
	table := buildTable(map[string]*Record{
		"link": {
			Status:           StatusSeen,
			ModificationTime: 500,
			Size:             SizeUnknown,
			SymlinkTarget:    "../target/path",
		},
	})

	text := serializeToString(t, table, SerializeOptions{Now: time.Unix(0, 0)})
	result := mustParse(t, text, ParseOptions{})

	record, ok := result.Table.Get("link")
	if !ok {
		t.Fatalf("symlink record missing after round trip")
	}
	if !record.IsSymlink() {
		t.Fatalf("expected symlink record")
	}
	if record.SymlinkTarget != "../target/path" {
		t.Errorf("got target %q, want %q", record.SymlinkTarget, "../target/path")
	}
}

func TestRoundTripEscapedPath(t *testing.T) {
	tricky := "weird\nname\\with\\backslashes"
	table := buildTable(map[string]*Record{
		tricky: {
			Status:           StatusSeen,
			ModificationTime: 1,
			Size:             4,
			Digest:           digest.Hash(digest.AlgorithmMD5, []byte("data")),
		},
	})

	text := serializeToString(t, table, SerializeOptions{Now: time.Unix(0, 0)})
	result := mustParse(t, text, ParseOptions{})

	if _, ok := result.Table.Get(tricky); !ok {
		t.Fatalf("escaped path %q not recovered; table has: %v", tricky, result.Table.Paths())
	}
}

func TestRoundTripPersistentOptions(t *testing.T) {
	table := NewTable()
	opts := SerializeOptions{
		Now: time.Unix(0, 0),
		Persistent: PersistentOptions{
			ExcludeMarker:    ".digup-exclude",
			HasExcludeMarker: true,
		},
	}

	text := serializeToString(t, table, opts)
	result := mustParse(t, text, ParseOptions{})

	if !result.Options.HasExcludeMarker {
		t.Fatalf("expected exclude marker to round-trip")
	}
	if result.Options.ExcludeMarker != ".digup-exclude" {
		t.Errorf("got exclude marker %q, want %q", result.Options.ExcludeMarker, ".digup-exclude")
	}
}

func TestRestrictFilterMarksSkipped(t *testing.T) {
	table := buildTable(map[string]*Record{
		"keep/one.txt": {Status: StatusSeen, Digest: digest.Hash(digest.AlgorithmMD5, []byte("x"))},
		"drop/two.txt": {Status: StatusSeen, Digest: digest.Hash(digest.AlgorithmMD5, []byte("y"))},
	})

	text := serializeToString(t, table, SerializeOptions{Now: time.Unix(0, 0)})
	result := mustParse(t, text, ParseOptions{Restrict: "keep/"})

	kept, _ := result.Table.Get("keep/one.txt")
	dropped, _ := result.Table.Get("drop/two.txt")

	if kept.Status == StatusSkipped {
		t.Errorf("keep/one.txt should not be skipped")
	}
	if dropped.Status != StatusSkipped {
		t.Errorf("drop/two.txt should be skipped, got %s", dropped.Status)
	}
}

func TestCRCMismatchDetected(t *testing.T) {
	table := buildTable(map[string]*Record{
		"a.txt": {Status: StatusSeen, Digest: digest.Hash(digest.AlgorithmMD5, []byte("a"))},
	})
	text := serializeToString(t, table, SerializeOptions{Now: time.Unix(0, 0)})

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.Contains(line, "  a.txt") {
			lines[i] = strings.Replace(line, "  a.txt", "  b.txt", 1)
		}
	}
	corrupted := strings.Join(lines, "\n")

	_, err := Parse(strings.NewReader(corrupted), ParseOptions{})
	if err == nil {
		t.Fatalf("expected an error parsing corrupted file")
	}
	var crcErr *CRCMismatchError
	if !errors.As(err, &crcErr) {
		t.Fatalf("expected *CRCMismatchError, got %T: %v", err, err)
	}
}

func TestCRCMismatchRecoverableWithSkipVerification(t *testing.T) {
	table := buildTable(map[string]*Record{
		"a.txt": {Status: StatusSeen, Digest: digest.Hash(digest.AlgorithmMD5, []byte("a"))},
	})
	text := serializeToString(t, table, SerializeOptions{Now: time.Unix(0, 0)})
	corrupted := strings.Replace(text, "  a.txt", "  b.txt", 1)

	result, err := Parse(strings.NewReader(corrupted), ParseOptions{SkipCRCVerification: true})
	if err != nil {
		t.Fatalf("unexpected error with SkipCRCVerification: %v", err)
	}
	if _, ok := result.Table.Get("b.txt"); !ok {
		t.Fatalf("expected recovered table to contain b.txt")
	}
}

func TestDuplicatePathIsFatal(t *testing.T) {
	text := "#: mtime 1 size 1\n" +
		digestLineFor(t, "dup.txt") + "\n" +
		"#: mtime 2 size 2\n" +
		digestLineFor(t, "dup.txt") + "\n"

	_, err := Parse(strings.NewReader(text), ParseOptions{SkipCRCVerification: true})
	var dupErr *ErrDuplicatePath
	if !errors.As(err, &dupErr) {
		t.Fatalf("expected *ErrDuplicatePath, got %T: %v", err, err)
	}
}

func TestAlgorithmMismatchIsFatal(t *testing.T) {
	md5Line := digest.Hash(digest.AlgorithmMD5, []byte("x")).Hex() + "  one.txt"
	sha256Line := digest.Hash(digest.AlgorithmSHA256, []byte("y")).Hex() + "  two.txt"
	text := md5Line + "\n" + sha256Line + "\n"

	_, err := Parse(strings.NewReader(text), ParseOptions{SkipCRCVerification: true})
	var mismatchErr *ErrAlgorithmMismatch
	if !errors.As(err, &mismatchErr) {
		t.Fatalf("expected *ErrAlgorithmMismatch, got %T: %v", err, err)
	}
}

func digestLineFor(t *testing.T, path string) string {
	t.Helper()
	return digest.Hash(digest.AlgorithmMD5, []byte(path)).Hex() + "  " + path
}
