// Package hash provides the two hash functions bagidx depends on.
//
// # Stable key hash
//
// Bucket placement must be byte-for-byte reproducible: the reader recomputes
// the slot a key was written to, possibly on a different machine, a different
// architecture, or years later. Stable64 is therefore a fixed, versioned
// algorithm (XXH64, seed 0) and must never be swapped for a randomized or
// process-local hash. Changing it is a file format break.
//
// # CRC32-Castagnoli (CRC32C)
//
// All integrity checksums use CRC32-Castagnoli:
//
//   - Hardware acceleration on x86 (SSE4.2) and ARM (CRC extension)
//   - Superior error detection compared to CRC32-IEEE
//   - Industry standard (iSCSI, Btrfs, RocksDB, LevelDB)
//
// For one-shot checksums:
//
//	checksum := hash.CRC32C(data)
//
// For streaming checksums:
//
//	h := hash.NewCRC32C()
//	h.Write(chunk1)
//	h.Write(chunk2)
//	checksum := h.Sum32()
package hash
