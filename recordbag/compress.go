package recordbag

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// compress returns the stored form of raw under the given codec. When the
// compressed form would not be smaller, raw itself is returned; the caller
// detects this by storedLen == rawLen.
func compress(c Compression, raw []byte) ([]byte, error) {
	if c == CompressionNone || len(raw) == 0 {
		return raw, nil
	}

	switch c {
	case CompressionZstd:
		enc := getZstdEncoder()
		stored := enc.EncodeAll(raw, make([]byte, 0, len(raw)))
		putZstdEncoder(enc)
		if len(stored) >= len(raw) {
			return raw, nil
		}
		return stored, nil

	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, fmt.Errorf("recordbag: lz4 compress: %w", err)
		}
		// n == 0 means incompressible.
		if n == 0 || n >= len(raw) {
			return raw, nil
		}
		return buf[:n], nil

	default:
		return nil, fmt.Errorf("recordbag: unknown compression codec: %d", c)
	}
}

// decompress expands stored bytes back to rawLen bytes.
// Stored bytes whose length equals rawLen are raw by convention.
func decompress(c Compression, stored []byte, rawLen uint64) ([]byte, error) {
	if c == CompressionNone || uint64(len(stored)) == rawLen {
		out := make([]byte, len(stored))
		copy(out, stored)
		return out, nil
	}

	switch c {
	case CompressionZstd:
		dec := getZstdDecoder()
		raw, err := dec.DecodeAll(stored, make([]byte, 0, rawLen))
		putZstdDecoder(dec)
		if err != nil {
			return nil, fmt.Errorf("recordbag: zstd decompress: %w", err)
		}
		if uint64(len(raw)) != rawLen {
			return nil, fmt.Errorf("%w: zstd block expanded to %d bytes, want %d", ErrTruncated, len(raw), rawLen)
		}
		return raw, nil

	case CompressionLZ4:
		raw := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(stored, raw)
		if err != nil {
			return nil, fmt.Errorf("recordbag: lz4 decompress: %w", err)
		}
		if uint64(n) != rawLen {
			return nil, fmt.Errorf("%w: lz4 block expanded to %d bytes, want %d", ErrTruncated, n, rawLen)
		}
		return raw, nil

	default:
		return nil, fmt.Errorf("recordbag: unknown compression codec: %d", c)
	}
}
