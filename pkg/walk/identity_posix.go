// +build !windows

package walk

import (
	"os"
	"syscall"
)

// fileIdentity is the (device, inode) pair used for symlink-loop detection.
type fileIdentity struct {
	device uint64
	inode  uint64
}

// identityOf extracts the identity of a directory from its os.FileInfo. The
// second return value is false on platforms where no inode-like identity is
// available, in which case loop detection is skipped for that entry.
func identityOf(info os.FileInfo) (fileIdentity, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileIdentity{}, false
	}
	return fileIdentity{device: uint64(stat.Dev), inode: uint64(stat.Ino)}, true
}
