// Package hashbucket implements an immutable bucketed hash index mapping
// opaque byte-string keys to sorted sets of record ids.
//
// A build pass accumulates keys in memory and serializes them in one shot:
// one record per bucket at positions 0..numBuckets-1, then the config footer
// as the final record. Readers recompute a key's slot from the persisted
// bucket count and resolve a lookup with a single record read.
package hashbucket

import (
	"context"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/bagidx/bagidx/blobstore"
	"github.com/bagidx/bagidx/index"
	"github.com/bagidx/bagidx/internal/bucket"
	"github.com/bagidx/bagidx/recordbag"
)

// Writer accumulates key/record-id pairs and writes an immutable index.
// Not safe for concurrent use; one build pass per Writer.
type Writer struct {
	config Config
	opts   options
	keys   map[string]*roaring64.Bitmap
}

// NewWriter creates a Writer for the given config.
func NewWriter(config Config, optFns ...Option) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Writer{
		config: config,
		opts:   applyOptions(optFns),
		keys:   make(map[string]*roaring64.Bitmap),
	}, nil
}

// Add records that key maps to the given record ids. Repeated calls for the
// same key union their ids; order and duplicates do not matter.
func (w *Writer) Add(key []byte, recordIDs ...int64) error {
	for _, id := range recordIDs {
		if id < 0 {
			return &index.InvalidRecordIDError{ID: id}
		}
	}

	ids := w.keys[string(key)]
	if ids == nil {
		ids = roaring64.New()
		w.keys[string(key)] = ids
	}
	for _, id := range recordIDs {
		ids.Add(uint64(id))
	}
	return nil
}

// NumKeys returns the number of distinct keys added so far.
func (w *Writer) NumKeys() int {
	return len(w.keys)
}

// Write builds the index and writes it to path.
func (w *Writer) Write(path string) error {
	bag, err := w.build()
	if err != nil {
		return err
	}
	return bag.Flush(path)
}

// WriteBlob builds the index and streams it to a blob store.
func (w *Writer) WriteBlob(ctx context.Context, store blobstore.Store, name string) error {
	bag, err := w.build()
	if err != nil {
		return err
	}

	dst, err := store.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := bag.WriteTo(dst); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func (w *Writer) build() (*recordbag.Writer, error) {
	if len(w.keys) == 0 {
		return nil, index.ErrEmptyIndex
	}

	builder := bucket.NewBuilder(w.config.AvgBucketSize)
	for key, ids := range w.keys {
		builder.Add([]byte(key), encodeRecordIDs(ids))
	}

	bag := recordbag.NewWriter(recordbag.WithCompression(w.opts.compression))
	stats, err := builder.Build(bag)
	if err != nil {
		return nil, err
	}

	footerData, err := encodeFooter(w.config, w.opts.codec)
	if err != nil {
		return nil, err
	}
	if _, err := bag.Append(footerData); err != nil {
		return nil, err
	}

	w.opts.logger.Debug("hash index built",
		"keys", stats.NumKeys,
		"buckets", stats.NumBuckets,
		"occupied_buckets", stats.OccupiedBuckets,
		"max_bucket_len", stats.MaxBucketLen,
	)
	return bag, nil
}
