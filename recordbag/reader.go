package recordbag

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/bagidx/bagidx/blobstore"
	"github.com/bagidx/bagidx/internal/hash"
)

// Reader serves O(1) positional reads against a finished bag.
// It holds no mutable state and is safe for concurrent use.
type Reader struct {
	r           io.ReaderAt
	closer      io.Closer
	compression Compression
	entries     []entry
	offsets     []int64
}

// Open opens a bag file from the local file system.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("recordbag: open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("recordbag: stat %s: %w", path, err)
	}
	r, err := OpenReaderAt(f, st.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("recordbag: open %s: %w", path, err)
	}
	r.closer = f
	return r, nil
}

// OpenBlob opens a bag served by a blobstore blob, e.g. ranged reads
// against an object store. Closing the reader closes the blob.
func OpenBlob(blob blobstore.Blob) (*Reader, error) {
	r, err := OpenReaderAt(blob, blob.Size())
	if err != nil {
		return nil, err
	}
	r.closer = blob
	return r, nil
}

// OpenBytes opens a bag held in memory.
func OpenBytes(data []byte) (*Reader, error) {
	return OpenReaderAt(bytes.NewReader(data), int64(len(data)))
}

// OpenReaderAt opens a bag from any io.ReaderAt of the given size.
// The caller keeps ownership of r.
func OpenReaderAt(r io.ReaderAt, size int64) (*Reader, error) {
	if size < headerSize+trailerSize {
		return nil, ErrTruncated
	}

	var header [headerSize]byte
	if _, err := r.ReadAt(header[:], 0); err != nil {
		return nil, fmt.Errorf("recordbag: read header: %w", err)
	}
	if binary.LittleEndian.Uint32(header[0:4]) != Magic {
		return nil, ErrBadMagic
	}
	if v := binary.LittleEndian.Uint32(header[4:8]); v != Version {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, v)
	}
	compression := Compression(header[8])
	if !compression.valid() {
		return nil, fmt.Errorf("recordbag: unknown compression codec: %d", compression)
	}

	var trailer [trailerSize]byte
	if _, err := r.ReadAt(trailer[:], size-trailerSize); err != nil {
		return nil, fmt.Errorf("recordbag: read trailer: %w", err)
	}
	if binary.LittleEndian.Uint32(trailer[28:32]) != Magic {
		return nil, ErrBadMagic
	}
	count := binary.LittleEndian.Uint64(trailer[0:8])
	tableOff := int64(binary.LittleEndian.Uint64(trailer[8:16])) //nolint:gosec
	tableCRC := binary.LittleEndian.Uint32(trailer[16:20])

	if tableOff < headerSize || tableOff > size-trailerSize {
		return nil, ErrTruncated
	}

	table := make([]byte, size-trailerSize-tableOff)
	if _, err := r.ReadAt(table, tableOff); err != nil {
		return nil, fmt.Errorf("recordbag: read offset table: %w", err)
	}
	if actual := hash.CRC32C(table); actual != tableCRC {
		return nil, &ChecksumError{Expected: tableCRC, Actual: actual}
	}

	entries, offsets, err := decodeTable(table, count, tableOff)
	if err != nil {
		return nil, err
	}

	return &Reader{
		r:           r,
		compression: compression,
		entries:     entries,
		offsets:     offsets,
	}, nil
}

func decodeTable(table []byte, count uint64, tableOff int64) ([]entry, []int64, error) {
	entries := make([]entry, 0, count)
	offsets := make([]int64, 0, count)

	off := int64(headerSize)
	rest := table
	for i := uint64(0); i < count; i++ {
		storedLen, n := binary.Uvarint(rest)
		if n <= 0 {
			return nil, nil, ErrTruncated
		}
		rest = rest[n:]
		rawLen, n := binary.Uvarint(rest)
		if n <= 0 {
			return nil, nil, ErrTruncated
		}
		rest = rest[n:]
		if len(rest) < 4 {
			return nil, nil, ErrTruncated
		}
		crc := binary.LittleEndian.Uint32(rest[:4])
		rest = rest[4:]

		entries = append(entries, entry{storedLen: storedLen, rawLen: rawLen, crc: crc})
		offsets = append(offsets, off)
		off += int64(storedLen) //nolint:gosec
	}
	if off != tableOff || len(rest) != 0 {
		return nil, nil, ErrTruncated
	}
	return entries, offsets, nil
}

// Count returns the number of records in the bag.
func (r *Reader) Count() int64 {
	return int64(len(r.entries))
}

// Compression reports the bag's record compression codec.
func (r *Reader) Compression() Compression {
	return r.compression
}

// Read returns the record at the given position.
func (r *Reader) Read(position int64) ([]byte, error) {
	if position < 0 || position >= int64(len(r.entries)) {
		return nil, fmt.Errorf("%w: position %d, count %d", ErrOutOfRange, position, len(r.entries))
	}
	e := r.entries[position]
	if e.storedLen == 0 {
		return nil, nil
	}

	stored := make([]byte, e.storedLen)
	if _, err := r.r.ReadAt(stored, r.offsets[position]); err != nil {
		return nil, fmt.Errorf("recordbag: read record %d: %w", position, err)
	}
	if actual := hash.CRC32C(stored); actual != e.crc {
		return nil, &ChecksumError{Expected: e.crc, Actual: actual}
	}
	return decompress(r.compression, stored, e.rawLen)
}

// Last returns the final record of the bag (for index files, the config
// footer).
func (r *Reader) Last() ([]byte, error) {
	if len(r.entries) == 0 {
		return nil, fmt.Errorf("%w: empty bag", ErrOutOfRange)
	}
	return r.Read(int64(len(r.entries)) - 1)
}

// Close releases the underlying file or blob, if the reader owns one.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
