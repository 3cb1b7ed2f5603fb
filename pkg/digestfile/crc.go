package digestfile

import "hash/crc32"

// runningCRC accumulates an IEEE CRC-32 over a byte stream. Go's hash/crc32
// package already reproduces zlib's crc32(0, buf, len) convention when
// chained from an initial value of zero (spec.md §6), so no manual
// pre/post-XOR handling is needed here.
type runningCRC struct {
	value uint32
}

// update folds p into the running checksum.
func (c *runningCRC) update(p []byte) {
	c.value = crc32.Update(c.value, crc32.IEEETable, p)
}

// snapshot returns the checksum accumulated so far.
func (c *runningCRC) snapshot() uint32 {
	return c.value
}
