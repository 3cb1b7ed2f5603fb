package digest

import "hash"

// Hasher is the uniform streaming capability exposed over all five digest
// algorithms: init, incremental processing, and finish, plus a one-shot
// convenience form. It is a thin wrapper around hash.Hash that pins down the
// originating Algorithm so the resulting Digest carries it.
type Hasher struct {
	algorithm Algorithm
	factory   func() hash.Hash
	h         hash.Hash
}

// NewHasher constructs a Hasher for the given algorithm and calls Init.
func NewHasher(algorithm Algorithm) *Hasher {
	factory := algorithm.Factory()
	return &Hasher{
		algorithm: algorithm,
		factory:   factory,
		h:         factory(),
	}
}

// Init (re)initializes the hasher's internal state, discarding any bytes
// processed so far. It is safe to call on a fresh or already-used Hasher.
func (h *Hasher) Init() {
	h.h = h.factory()
}

// Process feeds bytes into the running hash. It never returns an error: per
// the hash.Hash contract, Write never fails.
func (h *Hasher) Process(p []byte) {
	h.h.Write(p)
}

// Finish returns the Digest of everything processed since the last Init,
// without resetting the hasher.
func (h *Hasher) Finish() Digest {
	return NewWithAlgorithm(h.algorithm, h.h.Sum(nil))
}

// Algorithm returns the algorithm this hasher was constructed for.
func (h *Hasher) Algorithm() Algorithm {
	return h.algorithm
}

// Hash is the one-shot form: it computes the digest of p in a single call
// without requiring the caller to manage a Hasher's lifecycle.
func Hash(algorithm Algorithm, p []byte) Digest {
	h := algorithm.Factory()()
	h.Write(p)
	return NewWithAlgorithm(algorithm, h.Sum(nil))
}
