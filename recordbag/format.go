package recordbag

import (
	"errors"
	"fmt"
)

const (
	// Magic identifies bag files. The little-endian encoding spells "BAG1".
	Magic = 0x31474142
	// Version is the current file format version.
	Version = 1

	headerSize  = 16
	trailerSize = 32
)

// Compression selects the per-record compression codec of a bag.
// It is fixed at write time and recorded in the file header.
type Compression uint8

const (
	// CompressionNone stores records verbatim.
	CompressionNone Compression = 0
	// CompressionZstd stores records as zstd blocks (better ratio).
	CompressionZstd Compression = 1
	// CompressionLZ4 stores records as LZ4 blocks (faster).
	CompressionLZ4 Compression = 2
)

func (c Compression) valid() bool {
	return c <= CompressionLZ4
}

// String returns the codec name.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

var (
	// ErrOutOfRange is returned when a positional read is beyond the record
	// count. With a stale bucket count this usually signals corruption.
	ErrOutOfRange = errors.New("recordbag: position out of range")

	// ErrBadMagic is returned when a file does not start (or end) with the
	// bag magic number.
	ErrBadMagic = errors.New("recordbag: bad magic number")

	// ErrBadVersion is returned for a format version this build cannot read.
	ErrBadVersion = errors.New("recordbag: unsupported format version")

	// ErrTruncated is returned when the file is too small to hold the
	// structures its trailer claims.
	ErrTruncated = errors.New("recordbag: truncated file")
)

// ChecksumError is returned when stored bytes fail CRC verification.
type ChecksumError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("recordbag: checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}

// entry describes one stored record.
type entry struct {
	storedLen uint64
	rawLen    uint64
	crc       uint32
}
