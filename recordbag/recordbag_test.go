package recordbag

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bagidx/bagidx/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecords() [][]byte {
	return [][]byte{
		[]byte("first record"),
		nil, // empty records are legal and round-trip as empty
		[]byte("third record with a little more content in it"),
		bytes.Repeat([]byte("compressible "), 200),
		{0x00, 0xff, 0x10},
	}
}

func writeBag(t *testing.T, records [][]byte, optFns ...WriterOption) string {
	t.Helper()

	w := NewWriter(optFns...)
	for i, rec := range records {
		pos, err := w.Append(rec)
		require.NoError(t, err)
		require.Equal(t, int64(i), pos)
	}
	require.Equal(t, int64(len(records)), w.Count())

	path := filepath.Join(t.TempDir(), "records.bag")
	require.NoError(t, w.Flush(path))
	return path
}

func verifyRecords(t *testing.T, r *Reader, records [][]byte) {
	t.Helper()

	require.Equal(t, int64(len(records)), r.Count())
	for i, want := range records {
		got, err := r.Read(int64(i))
		require.NoError(t, err)
		if len(want) == 0 {
			assert.Empty(t, got)
		} else {
			assert.Equal(t, want, got)
		}
	}

	last, err := r.Last()
	require.NoError(t, err)
	assert.Equal(t, records[len(records)-1], last)
}

func TestRoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionZstd, CompressionLZ4} {
		t.Run(c.String(), func(t *testing.T) {
			path := writeBag(t, testRecords(), WithCompression(c))

			r, err := Open(path)
			require.NoError(t, err)
			defer r.Close()

			assert.Equal(t, c, r.Compression())
			verifyRecords(t, r, testRecords())
		})
	}
}

func TestOpenBytesAndBlob(t *testing.T) {
	w := NewWriter(WithCompression(CompressionZstd))
	for _, rec := range testRecords() {
		_, err := w.Append(rec)
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	n, err := w.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	t.Run("bytes", func(t *testing.T) {
		r, err := OpenBytes(buf.Bytes())
		require.NoError(t, err)
		defer r.Close()
		verifyRecords(t, r, testRecords())
	})

	t.Run("blob", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		require.NoError(t, store.Put(context.Background(), "bag", buf.Bytes()))
		blob, err := store.Open(context.Background(), "bag")
		require.NoError(t, err)

		r, err := OpenBlob(blob)
		require.NoError(t, err)
		defer r.Close()
		verifyRecords(t, r, testRecords())
	})
}

func TestReadOutOfRange(t *testing.T) {
	path := writeBag(t, [][]byte{[]byte("only")})

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Read(1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = r.Read(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestAppendAfterFlush(t *testing.T) {
	w := NewWriter()
	_, err := w.Append([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, w.Flush(filepath.Join(t.TempDir(), "done.bag")))

	_, err = w.Append([]byte("y"))
	assert.Error(t, err)
}

func TestOpenRejectsGarbage(t *testing.T) {
	dir := t.TempDir()

	t.Run("too small", func(t *testing.T) {
		path := filepath.Join(dir, "small")
		require.NoError(t, os.WriteFile(path, []byte("tiny"), 0o644))
		_, err := Open(path)
		assert.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("bad magic", func(t *testing.T) {
		path := filepath.Join(dir, "magic")
		require.NoError(t, os.WriteFile(path, make([]byte, 64), 0o644))
		_, err := Open(path)
		assert.ErrorIs(t, err, ErrBadMagic)
	})
}

func TestCorruptionDetected(t *testing.T) {
	path := writeBag(t, testRecords())
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// Flip one byte inside the first record's stored bytes.
	corrupted := bytes.Clone(data)
	corrupted[headerSize] ^= 0xff

	r, err := OpenBytes(corrupted)
	require.NoError(t, err)

	_, err = r.Read(0)
	var checksumErr *ChecksumError
	assert.ErrorAs(t, err, &checksumErr)

	// Other records are unaffected.
	rec, err := r.Read(2)
	require.NoError(t, err)
	assert.Equal(t, testRecords()[2], rec)
}

func TestTableCorruptionDetected(t *testing.T) {
	path := writeBag(t, testRecords())
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// Flip a byte in the offset table, just before the trailer.
	corrupted := bytes.Clone(data)
	corrupted[len(corrupted)-trailerSize-1] ^= 0xff

	_, err = OpenBytes(corrupted)
	var checksumErr *ChecksumError
	assert.ErrorAs(t, err, &checksumErr)
}

func TestIncompressibleRecordStoredRaw(t *testing.T) {
	// A short high-entropy record does not shrink under zstd; the stored
	// length then equals the raw length and the bytes pass through.
	record := []byte{0x01, 0xfe, 0x42, 0x99, 0x07}

	w := NewWriter(WithCompression(CompressionZstd))
	_, err := w.Append(record)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = w.WriteTo(&buf)
	require.NoError(t, err)

	r, err := OpenBytes(buf.Bytes())
	require.NoError(t, err)

	got, err := r.Read(0)
	require.NoError(t, err)
	assert.Equal(t, record, got)
}
