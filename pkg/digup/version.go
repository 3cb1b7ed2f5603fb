package digup

import "fmt"

const (
	// VersionMajor represents the current major version of digup.
	VersionMajor = 1
	// VersionMinor represents the current minor version of digup.
	VersionMinor = 0
	// VersionPatch represents the current patch version of digup.
	VersionPatch = 0
)

// Version is the full version string, computed once at package
// initialization.
var Version string

func init() {
	Version = fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)
}

// Name is the program name used in the digest-file header comment and in
// diagnostic output.
const Name = "digup"
