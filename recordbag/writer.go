package recordbag

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bagidx/bagidx/internal/hash"
)

// Writer accumulates records in memory and materializes a bag file in a
// single Flush. It is not safe for concurrent use.
type Writer struct {
	compression Compression
	data        bytes.Buffer
	entries     []entry
	flushed     bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCompression selects the per-record compression codec.
func WithCompression(c Compression) WriterOption {
	return func(w *Writer) {
		w.compression = c
	}
}

// NewWriter creates an empty bag writer.
func NewWriter(optFns ...WriterOption) *Writer {
	w := &Writer{compression: CompressionNone}
	for _, fn := range optFns {
		if fn != nil {
			fn(w)
		}
	}
	return w
}

// Append stores one record and returns its position (monotonic from 0).
func (w *Writer) Append(record []byte) (int64, error) {
	if w.flushed {
		return 0, fmt.Errorf("recordbag: writer already flushed")
	}
	if !w.compression.valid() {
		return 0, fmt.Errorf("recordbag: unknown compression codec: %d", w.compression)
	}

	stored, err := compress(w.compression, record)
	if err != nil {
		return 0, err
	}

	pos := int64(len(w.entries))
	w.data.Write(stored)
	w.entries = append(w.entries, entry{
		storedLen: uint64(len(stored)),
		rawLen:    uint64(len(record)),
		crc:       hash.CRC32C(stored),
	})
	return pos, nil
}

// Count returns the number of appended records.
func (w *Writer) Count() int64 {
	return int64(len(w.entries))
}

// WriteTo writes the complete bag to w.
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	bw := &countingWriter{w: dst}

	var header [headerSize]byte
	binary.LittleEndian.PutUint32(header[0:4], Magic)
	binary.LittleEndian.PutUint32(header[4:8], Version)
	header[8] = uint8(w.compression)
	if _, err := bw.Write(header[:]); err != nil {
		return bw.n, err
	}

	if _, err := bw.Write(w.data.Bytes()); err != nil {
		return bw.n, err
	}

	table := w.encodeTable()
	if _, err := bw.Write(table); err != nil {
		return bw.n, err
	}

	var trailer [trailerSize]byte
	binary.LittleEndian.PutUint64(trailer[0:8], uint64(len(w.entries)))
	binary.LittleEndian.PutUint64(trailer[8:16], uint64(headerSize+w.data.Len()))
	binary.LittleEndian.PutUint32(trailer[16:20], hash.CRC32C(table))
	binary.LittleEndian.PutUint32(trailer[28:32], Magic)
	if _, err := bw.Write(trailer[:]); err != nil {
		return bw.n, err
	}

	return bw.n, nil
}

func (w *Writer) encodeTable() []byte {
	table := make([]byte, 0, len(w.entries)*12)
	for _, e := range w.entries {
		table = binary.AppendUvarint(table, e.storedLen)
		table = binary.AppendUvarint(table, e.rawLen)
		table = binary.LittleEndian.AppendUint32(table, e.crc)
	}
	return table
}

// Flush materializes the bag at path. The file is written to a temporary
// sibling first and renamed into place, so readers never observe a partial
// bag. The writer cannot be appended to afterwards.
func (w *Writer) Flush(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("recordbag: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	bw := bufio.NewWriter(tmp)
	if _, err := w.WriteTo(bw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("recordbag: write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("recordbag: write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("recordbag: sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("recordbag: close %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("recordbag: rename into place: %w", err)
	}

	w.flushed = true
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
