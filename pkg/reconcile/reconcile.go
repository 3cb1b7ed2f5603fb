// Package reconcile implements the classification state machine of
// spec.md §4.6: it is the walk.Handler that turns discovered filesystem
// entries into transitions on a digestfile.Table, using a digest→path
// index to recognize renames and copies.
package reconcile

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/digup-project/digup/pkg/digest"
	"github.com/digup-project/digup/pkg/digestfile"
	"github.com/digup-project/digup/pkg/logging"
)

// copyBufferSize is the fixed-size buffer spec.md §5 specifies for
// interleaving hash computation with file reads.
const copyBufferSize = 1024 * 1024

// Options configures a Reconciler.
type Options struct {
	// Algorithm selects the digest algorithm every hashed file is digested
	// with, whether or not a prior record exists. The Reconciler does not
	// infer it from the table; the caller chooses it.
	Algorithm digest.Algorithm
	// ModifyWindow is the mtime slack, in seconds, within which a size- and
	// mtime-matching file is trusted without rehashing (spec.md §4.6).
	ModifyWindow int64
	// FullCheck, when true, disables the modify-window shortcut and forces
	// every matched record to be rehashed (the `--check`/`-c` flag).
	FullCheck bool
	// SuppressUnchanged, when true, drops the per-file SEEN log line even
	// at LevelDebug (the `--modified`/`-m` flag).
	SuppressUnchanged bool
}

// Reconciler implements walk.Handler, classifying each discovered path
// against the record table's prior state.
type Reconciler struct {
	root    string
	table   *digestfile.Table
	index   *digestfile.DigestIndex
	options Options
	logger  *logging.Logger
}

// New constructs a Reconciler. root is the absolute filesystem path the
// walk is rooted at, used to resolve candidate paths during rename/copy
// detection and to open files for hashing.
func New(root string, table *digestfile.Table, options Options, logger *logging.Logger) *Reconciler {
	return &Reconciler{
		root:    root,
		table:   table,
		index:   digestfile.NewDigestIndex(table),
		options: options,
		logger:  logger,
	}
}

// HandleFile implements walk.Handler for a regular file.
func (r *Reconciler) HandleFile(path string, info os.FileInfo) {
	if record, ok := r.table.Get(path); ok && record.Status == digestfile.StatusUnseen {
		r.classifyMatchedFile(path, record, info)
		return
	} else if ok {
		r.logger.Error(errors.Errorf("bug: file classifier revisited non-unseen record at %s", path))
		return
	}
	r.classifyNewFile(path, info)
}

// HandleSymlink implements walk.Handler for a symbolic link.
func (r *Reconciler) HandleSymlink(path string, info os.FileInfo) {
	target, err := os.Readlink(r.absolute(path))
	if err != nil {
		r.recordError(path, info, errors.Wrap(err, "unable to read symlink target"))
		return
	}

	if record, ok := r.table.Get(path); ok && record.Status == digestfile.StatusUnseen {
		if record.SymlinkTarget == target {
			record.Status = digestfile.StatusSeen
		} else {
			record.Status = digestfile.StatusChanged
			record.SymlinkTarget = target
		}
		record.ModificationTime = info.ModTime().Unix()
		return
	} else if ok {
		r.logger.Error(errors.Errorf("bug: symlink classifier revisited non-unseen record at %s", path))
		return
	}

	r.table.Insert(path, &digestfile.Record{
		Status:           digestfile.StatusNew,
		ModificationTime: info.ModTime().Unix(),
		Size:             digestfile.SizeUnknown,
		SymlinkTarget:    target,
	})
}

// classifyMatchedFile handles the case where a prior UNSEEN record exists
// at path.
func (r *Reconciler) classifyMatchedFile(path string, record *digestfile.Record, info os.FileInfo) {
	mtime := info.ModTime().Unix()
	size := info.Size()

	if !r.options.FullCheck && absDiff(mtime, record.ModificationTime) <= r.options.ModifyWindow && size == record.Size {
		record.Status = digestfile.StatusSeen
		if !r.options.SuppressUnchanged {
			r.logger.Debugf("seen: %s", path)
		}
		return
	}

	computed, read, err := r.hashFile(path)
	if err != nil {
		r.recordError(path, info, err)
		return
	}
	if read != size {
		r.recordError(path, info, errors.Errorf("read %d bytes but stat reported %d", read, size))
		return
	}

	record.ModificationTime = mtime
	record.Size = size
	if computed.Equal(record.Digest) {
		record.Status = digestfile.StatusTouched
		r.logger.Infof("touched: %s", path)
	} else {
		record.Digest = computed
		record.Status = digestfile.StatusChanged
		r.logger.Infof("changed: %s", path)
	}
}

// classifyNewFile handles a path with no prior record.
func (r *Reconciler) classifyNewFile(path string, info os.FileInfo) {
	computed, read, err := r.hashFile(path)
	if err != nil {
		r.recordError(path, info, err)
		return
	}
	if read != info.Size() {
		r.recordError(path, info, errors.Errorf("read %d bytes but stat reported %d", read, info.Size()))
		return
	}

	record := &digestfile.Record{
		ModificationTime: info.ModTime().Unix(),
		Size:             info.Size(),
		Digest:           computed,
	}

	if oldpath, status := r.findOrigin(computed); oldpath != "" {
		record.Status = status
		record.Oldpath = oldpath
		if status == digestfile.StatusRenamed {
			if original, ok := r.table.Get(oldpath); ok {
				original.Status = digestfile.StatusOldpath
			}
		}
		r.logger.Infof("%s: %s <- %s", record.Status, path, oldpath)
	} else {
		record.Status = digestfile.StatusNew
		r.logger.Infof("new: %s", path)
	}

	r.table.Insert(path, record)
}

// findOrigin queries the digest index for a prior path recorded under d. It
// returns the chosen origin path and whether it should be classified as a
// copy (origin still exists) or a rename (origin gone). An empty path means
// no candidate was found.
func (r *Reconciler) findOrigin(d digest.Digest) (origin string, status digestfile.Status) {
	candidates := r.index.Candidates(d)
	if len(candidates) == 0 {
		return "", 0
	}

	for _, candidate := range candidates {
		if r.exists(candidate) {
			return candidate, digestfile.StatusCopied
		}
	}

	return candidates[0], digestfile.StatusRenamed
}

// hashFile streams path's content through the configured algorithm's
// hasher using a fixed 1 MiB buffer, interleaving reads and digest updates
// in a single pass per spec.md §5.
func (r *Reconciler) hashFile(path string) (digest.Digest, int64, error) {
	file, err := os.Open(r.absolute(path))
	if err != nil {
		return digest.Digest{}, 0, errors.Wrap(err, "unable to open file")
	}
	defer file.Close()

	hasher := digest.NewHasher(r.options.Algorithm)
	buffer := make([]byte, copyBufferSize)
	var total int64
	for {
		n, readErr := file.Read(buffer)
		if n > 0 {
			hasher.Process(buffer[:n])
			total += int64(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return digest.Digest{}, total, errors.Wrap(readErr, "unable to read file")
		}
	}

	return hasher.Finish(), total, nil
}

func (r *Reconciler) recordError(path string, info os.FileInfo, err error) {
	r.logger.Error(errors.Wrapf(err, "error processing %s", path))
	record := &digestfile.Record{
		Status: digestfile.StatusError,
		Error:  err.Error(),
	}
	if info != nil {
		record.ModificationTime = info.ModTime().Unix()
		record.Size = info.Size()
	}
	r.table.Insert(path, record)
}

func (r *Reconciler) exists(path string) bool {
	_, err := os.Lstat(r.absolute(path))
	return err == nil
}

func (r *Reconciler) absolute(path string) string {
	return filepath.Join(r.root, filepath.FromSlash(path))
}

func absDiff(a, b int64) int64 {
	if a < b {
		return b - a
	}
	return a - b
}
