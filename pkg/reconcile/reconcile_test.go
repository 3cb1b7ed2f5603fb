package reconcile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/digup-project/digup/pkg/digest"
	"github.com/digup-project/digup/pkg/digestfile"
	"github.com/digup-project/digup/pkg/logging"
)

func writeFile(t *testing.T, path, contents string, mtime time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
}

func newReconciler(root string, table *digestfile.Table, modifyWindow int64, fullCheck bool) *Reconciler {
	return New(root, table, Options{
		Algorithm:    digest.AlgorithmSHA256,
		ModifyWindow: modifyWindow,
		FullCheck:    fullCheck,
	}, logging.New(logging.LevelError))
}

func TestClassifySeenWhenUnchanged(t *testing.T) {
	root := t.TempDir()
	mtime := time.Unix(1_700_000_000, 0)
	writeFile(t, filepath.Join(root, "a.txt"), "hello", mtime)

	table := digestfile.NewTable()
	table.Insert("a.txt", &digestfile.Record{
		Status:           digestfile.StatusUnseen,
		ModificationTime: mtime.Unix(),
		Size:             5,
		Digest:           digest.Hash(digest.AlgorithmSHA256, []byte("hello")),
	})

	r := newReconciler(root, table, 0, false)
	info, _ := os.Lstat(filepath.Join(root, "a.txt"))
	r.HandleFile("a.txt", info)

	record, _ := table.Get("a.txt")
	if record.Status != digestfile.StatusSeen {
		t.Fatalf("got status %s, want seen", record.Status)
	}
}

func TestClassifyTouchedWhenMetadataChangesButContentSame(t *testing.T) {
	root := t.TempDir()
	mtime := time.Unix(1_700_000_100, 0)
	writeFile(t, filepath.Join(root, "a.txt"), "hello", mtime)

	table := digestfile.NewTable()
	table.Insert("a.txt", &digestfile.Record{
		Status:           digestfile.StatusUnseen,
		ModificationTime: mtime.Unix() - 1000,
		Size:             5,
		Digest:           digest.Hash(digest.AlgorithmSHA256, []byte("hello")),
	})

	r := newReconciler(root, table, 0, false)
	info, _ := os.Lstat(filepath.Join(root, "a.txt"))
	r.HandleFile("a.txt", info)

	record, _ := table.Get("a.txt")
	if record.Status != digestfile.StatusTouched {
		t.Fatalf("got status %s, want touched", record.Status)
	}
}

func TestClassifyChangedWhenContentDiffers(t *testing.T) {
	root := t.TempDir()
	mtime := time.Unix(1_700_000_200, 0)
	writeFile(t, filepath.Join(root, "a.txt"), "goodbye", mtime)

	table := digestfile.NewTable()
	table.Insert("a.txt", &digestfile.Record{
		Status:           digestfile.StatusUnseen,
		ModificationTime: mtime.Unix() - 1000,
		Size:             5,
		Digest:           digest.Hash(digest.AlgorithmSHA256, []byte("hello")),
	})

	r := newReconciler(root, table, 0, false)
	info, _ := os.Lstat(filepath.Join(root, "a.txt"))
	r.HandleFile("a.txt", info)

	record, _ := table.Get("a.txt")
	if record.Status != digestfile.StatusChanged {
		t.Fatalf("got status %s, want changed", record.Status)
	}
	if !record.Digest.Equal(digest.Hash(digest.AlgorithmSHA256, []byte("goodbye"))) {
		t.Errorf("digest was not updated to the new content")
	}
}

func TestFullCheckOverridesMatchingMetadata(t *testing.T) {
	root := t.TempDir()
	mtime := time.Unix(1_700_000_300, 0)
	writeFile(t, filepath.Join(root, "a.txt"), "goodbye", mtime)

	table := digestfile.NewTable()
	table.Insert("a.txt", &digestfile.Record{
		Status:           digestfile.StatusUnseen,
		ModificationTime: mtime.Unix(),
		Size:             7,
		Digest:           digest.Hash(digest.AlgorithmSHA256, []byte("hello!!")),
	})

	info, _ := os.Lstat(filepath.Join(root, "a.txt"))

	withoutCheck := newReconciler(root, cloneTable(table), 0, false)
	withoutCheck.HandleFile("a.txt", info)
	unchecked, _ := withoutCheck.table.Get("a.txt")
	if unchecked.Status != digestfile.StatusSeen {
		t.Fatalf("without -c: got %s, want seen (documented false negative)", unchecked.Status)
	}

	withCheck := newReconciler(root, table, 0, true)
	withCheck.HandleFile("a.txt", info)
	checked, _ := table.Get("a.txt")
	if checked.Status != digestfile.StatusChanged {
		t.Fatalf("with -c: got %s, want changed", checked.Status)
	}
}

func cloneTable(table *digestfile.Table) *digestfile.Table {
	clone := digestfile.NewTable()
	table.Range(func(path string, record *digestfile.Record) bool {
		copied := *record
		clone.Insert(path, &copied)
		return true
	})
	return clone
}

func TestClassifyNewFileWithNoPriorRecord(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "fresh.txt"), "fresh content", time.Now())

	table := digestfile.NewTable()
	r := newReconciler(root, table, 0, false)
	info, _ := os.Lstat(filepath.Join(root, "fresh.txt"))
	r.HandleFile("fresh.txt", info)

	record, ok := table.Get("fresh.txt")
	if !ok {
		t.Fatalf("expected fresh.txt to be inserted")
	}
	if record.Status != digestfile.StatusNew {
		t.Fatalf("got status %s, want new", record.Status)
	}
}

func TestClassifyCopyWhenOriginStillExists(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "original.txt"), "shared", time.Now())
	writeFile(t, filepath.Join(root, "copy.txt"), "shared", time.Now())

	table := digestfile.NewTable()
	table.Insert("original.txt", &digestfile.Record{
		Status: digestfile.StatusSeen,
		Digest: digest.Hash(digest.AlgorithmSHA256, []byte("shared")),
	})

	r := newReconciler(root, table, 0, false)
	info, _ := os.Lstat(filepath.Join(root, "copy.txt"))
	r.HandleFile("copy.txt", info)

	record, ok := table.Get("copy.txt")
	if !ok {
		t.Fatalf("expected copy.txt to be inserted")
	}
	if record.Status != digestfile.StatusCopied {
		t.Fatalf("got status %s, want copied", record.Status)
	}
	if record.Oldpath != "original.txt" {
		t.Errorf("got oldpath %q, want original.txt", record.Oldpath)
	}

	original, _ := table.Get("original.txt")
	if original.Status != digestfile.StatusSeen {
		t.Errorf("original record's status should be untouched by a copy, got %s", original.Status)
	}
}

func TestClassifyRenameWhenOriginGone(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "moved.txt"), "payload", time.Now())

	table := digestfile.NewTable()
	table.Insert("old/location.txt", &digestfile.Record{
		Status: digestfile.StatusUnseen,
		Digest: digest.Hash(digest.AlgorithmSHA256, []byte("payload")),
	})

	r := newReconciler(root, table, 0, false)
	info, _ := os.Lstat(filepath.Join(root, "moved.txt"))
	r.HandleFile("moved.txt", info)

	record, ok := table.Get("moved.txt")
	if !ok {
		t.Fatalf("expected moved.txt to be inserted")
	}
	if record.Status != digestfile.StatusRenamed {
		t.Fatalf("got status %s, want renamed", record.Status)
	}
	if record.Oldpath != "old/location.txt" {
		t.Errorf("got oldpath %q, want old/location.txt", record.Oldpath)
	}

	original, _ := table.Get("old/location.txt")
	if original.Status != digestfile.StatusOldpath {
		t.Errorf("original record should become oldpath, got %s", original.Status)
	}
}

func TestBugGuardOnNonUnseenRevisit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "x", time.Now())

	table := digestfile.NewTable()
	table.Insert("a.txt", &digestfile.Record{Status: digestfile.StatusSeen})

	r := newReconciler(root, table, 0, false)
	info, _ := os.Lstat(filepath.Join(root, "a.txt"))
	r.HandleFile("a.txt", info)

	record, _ := table.Get("a.txt")
	if record.Status != digestfile.StatusSeen {
		t.Fatalf("bug guard should leave the record unmutated, got %s", record.Status)
	}
}
