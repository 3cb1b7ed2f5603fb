// +build windows

package walk

import "os"

// fileIdentity is the (device, inode) pair used for symlink-loop detection.
// Windows' os.FileInfo does not expose a stable file-index identity without
// an open handle and a separate syscall, so identityOf always reports
// unavailable here, per spec: "on platforms lacking inode identities, skip
// the check."
type fileIdentity struct {
	device uint64
	inode  uint64
}

func identityOf(info os.FileInfo) (fileIdentity, bool) {
	return fileIdentity{}, false
}
