package digest

import (
	"bytes"
	"encoding/hex"
	"errors"
)

// Digest is a fixed-length binary value produced by a hash function. Its
// length implies the algorithm that produced it (see AlgorithmForSize), so
// equality and ordering are size-aware rather than purely lexicographic.
type Digest struct {
	// algorithm is the digest's originating algorithm, when known. It is not
	// considered by Equal or Compare, which operate only on raw bytes and
	// size, matching the teacher's Digest comparison semantics of comparing
	// wire-level byte content rather than provenance.
	algorithm Algorithm
	raw       []byte
}

// New wraps raw digest bytes, inferring the algorithm from their length when
// possible.
func New(raw []byte) Digest {
	algorithm, _ := AlgorithmForSize(len(raw))
	return Digest{algorithm: algorithm, raw: raw}
}

// NewWithAlgorithm wraps raw digest bytes with an explicit algorithm tag,
// bypassing size inference. Used when the caller already knows the
// algorithm (e.g. it just ran the hasher).
func NewWithAlgorithm(algorithm Algorithm, raw []byte) Digest {
	return Digest{algorithm: algorithm, raw: raw}
}

// Algorithm returns the digest's algorithm tag, or AlgorithmUnknown if it
// could not be inferred.
func (d Digest) Algorithm() Algorithm {
	return d.algorithm
}

// Bytes returns the raw digest bytes.
func (d Digest) Bytes() []byte {
	return d.raw
}

// IsZero reports whether the digest carries no bytes.
func (d Digest) IsZero() bool {
	return len(d.raw) == 0
}

// Size returns the digest's length in bytes.
func (d Digest) Size() int {
	return len(d.raw)
}

// Equal reports whether two digests carry the same bytes. Per spec.md §4.1,
// comparison is size-aware: digests of different lengths are never equal,
// even if one is a byte-prefix of the other.
func (d Digest) Equal(other Digest) bool {
	return len(d.raw) == len(other.raw) && bytes.Equal(d.raw, other.raw)
}

// Compare orders two digests: a < b iff a.size < b.size, else lexicographic
// memcmp on raw bytes, exactly as spec.md §4.1 requires. It returns a
// negative number, zero, or a positive number following the usual
// comparison convention.
func (d Digest) Compare(other Digest) int {
	if len(d.raw) != len(other.raw) {
		return len(d.raw) - len(other.raw)
	}
	return bytes.Compare(d.raw, other.raw)
}

// Hex renders the digest as lowercase hexadecimal.
func (d Digest) Hex() string {
	return hex.EncodeToString(d.raw)
}

// ErrInvalidHex indicates that a hexadecimal string could not be decoded into
// digest bytes: either its length was odd, or it contained non-hex
// characters. Per spec.md §4.1, this is a hard failure, never a partial
// result.
var ErrInvalidHex = errors.New("invalid hexadecimal digest")

// FromHex decodes a lowercase hexadecimal string into a Digest, inferring
// its algorithm from the decoded length.
func FromHex(s string) (Digest, error) {
	if len(s)%2 != 0 {
		return Digest{}, ErrInvalidHex
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, ErrInvalidHex
	}
	return New(raw), nil
}
