package hash

import "github.com/cespare/xxhash/v2"

// Stable64 computes the deterministic 64-bit key hash used for bucket
// placement. It is part of the on-disk format: writers and readers of the
// same file must agree on it exactly.
func Stable64(key []byte) uint64 {
	return xxhash.Sum64(key)
}

// Slot maps a key to a bucket slot in [0, numBuckets).
func Slot(key []byte, numBuckets int64) int64 {
	return int64(Stable64(key) % uint64(numBuckets)) //nolint:gosec // numBuckets > 0
}
