// Package walk implements the depth-first filesystem scan described in
// spec.md §4.5: sorted sibling traversal, symlink-loop detection via
// (device, inode) identity, exclude-marker short-circuiting, and a restrict
// substring filter, dispatching each discovered entry to a Handler.
package walk

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/digup-project/digup/pkg/logging"
)

// Handler receives dispatched filesystem entries from a Walk. Paths are
// relative to the walk root and forward-slash-separated.
type Handler interface {
	// HandleFile is invoked for a regular file.
	HandleFile(path string, info os.FileInfo)
	// HandleSymlink is invoked for a symbolic link when follow-symlinks is
	// disabled.
	HandleSymlink(path string, info os.FileInfo)
}

// Options configures a Walk.
type Options struct {
	// ExcludeMarker, if non-empty, names a directory entry whose presence
	// causes that directory's contents to be skipped entirely.
	ExcludeMarker string
	// Restrict, if non-empty, is a substring that every dispatched file or
	// symlink path must contain; non-matching paths are silently skipped.
	// Directories are descended into whether or not their path matches.
	Restrict string
	// FollowSymlinks causes symbolic links to be resolved and routed to the
	// matching non-symlink branch instead of being handed to
	// Handler.HandleSymlink.
	FollowSymlinks bool
	// DigestFilePath, if set, is never dispatched to the handler even if
	// encountered during the walk (spec.md §4.5).
	DigestFilePath string
}

// Walker drives a single depth-first scan.
type Walker struct {
	root    string
	options Options
	handler Handler
	logger  *logging.Logger

	ancestors []fileIdentity
}

// New constructs a Walker rooted at root.
func New(root string, options Options, handler Handler, logger *logging.Logger) *Walker {
	return &Walker{
		root:    root,
		options: options,
		handler: handler,
		logger:  logger,
	}
}

// Walk performs the scan.
func (w *Walker) Walk() error {
	info, err := os.Lstat(w.root)
	if err != nil {
		return errors.Wrap(err, "unable to stat walk root")
	}
	if !info.IsDir() {
		return errors.New("walk root is not a directory")
	}
	return w.walkDirectory("", info)
}

// walkDirectory recurses into the directory at the given relative path.
// absPath is reconstructed from w.root + relPath for filesystem operations.
func (w *Walker) walkDirectory(relPath string, info os.FileInfo) error {
	absPath := w.join(relPath)

	if identity, ok := identityOf(info); ok {
		for _, ancestor := range w.ancestors {
			if ancestor == identity {
				w.logger.Warn(errors.Errorf("filesystem loop detected at %s", displayPath(relPath)))
				return nil
			}
		}
		w.ancestors = append(w.ancestors, identity)
		defer func() { w.ancestors = w.ancestors[:len(w.ancestors)-1] }()
	}

	entries, err := os.ReadDir(absPath)
	if err != nil {
		return errors.Wrapf(err, "unable to read directory %s", displayPath(relPath))
	}

	names := make([]string, 0, len(entries))
	byName := make(map[string]os.DirEntry, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if name == "." || name == ".." {
			continue
		}
		names = append(names, name)
		byName[name] = entry
	}
	sort.Strings(names)

	if w.options.ExcludeMarker != "" {
		for _, name := range names {
			if name == w.options.ExcludeMarker {
				w.logger.Debugf("exclude marker found in %s, skipping contents", displayPath(relPath))
				return nil
			}
		}
	}

	for _, name := range names {
		entry := byName[name]
		childRelPath := joinRel(relPath, name)

		childInfo, err := entry.Info()
		if err != nil {
			w.logger.Warn(errors.Wrapf(err, "unable to stat %s", displayPath(childRelPath)))
			continue
		}

		if err := w.dispatch(childRelPath, childInfo); err != nil {
			return err
		}
	}

	return nil
}

// dispatch routes a single discovered entry per the per-type table in
// spec.md §4.5.
func (w *Walker) dispatch(relPath string, info os.FileInfo) error {
	absPath := w.join(relPath)

	if w.options.DigestFilePath != "" && samePath(absPath, w.options.DigestFilePath) {
		return nil
	}
	mode := info.Mode()
	if w.options.Restrict != "" && !mode.IsDir() && !strings.Contains(relPath, w.options.Restrict) {
		return nil
	}

	switch {
	case mode&os.ModeSymlink != 0:
		if w.options.FollowSymlinks {
			return w.dispatchResolvedSymlink(relPath, absPath)
		}
		w.logger.Debugf("scanning symlink %s", displayPath(relPath))
		w.handler.HandleSymlink(relPath, info)
		return nil
	case mode.IsDir():
		return w.walkDirectory(relPath, info)
	case mode.IsRegular():
		w.logger.Debugf("scanning file %s", displayPath(relPath))
		w.handler.HandleFile(relPath, info)
		return nil
	default:
		w.logger.Warn(errors.Errorf("skipping special file %s", displayPath(relPath)))
		return nil
	}
}

// dispatchResolvedSymlink resolves a symlink once (not recursively through
// further symlinks) and routes the result to the matching non-symlink
// branch, per spec.md §4.5.
func (w *Walker) dispatchResolvedSymlink(relPath, absPath string) error {
	resolved, err := os.Stat(absPath)
	if err != nil {
		w.logger.Warn(errors.Wrapf(err, "unable to resolve symlink %s", displayPath(relPath)))
		return nil
	}

	switch {
	case resolved.IsDir():
		return w.walkDirectory(relPath, resolved)
	case resolved.Mode().IsRegular():
		w.logger.Debugf("scanning file %s", displayPath(relPath))
		w.handler.HandleFile(relPath, resolved)
		return nil
	default:
		w.logger.Warn(errors.Errorf("skipping special file %s", displayPath(relPath)))
		return nil
	}
}

func (w *Walker) join(relPath string) string {
	if relPath == "" {
		return w.root
	}
	return filepath.Join(w.root, filepath.FromSlash(relPath))
}

func joinRel(relPath, name string) string {
	if relPath == "" {
		return name
	}
	return relPath + "/" + name
}

// displayPath renders the walk root itself as "." rather than the empty
// string, for diagnostic messages.
func displayPath(relPath string) string {
	if relPath == "" {
		return "."
	}
	return relPath
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}
