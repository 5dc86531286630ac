package hashbucket

import (
	"errors"
	"fmt"

	"github.com/bagidx/bagidx/blobstore"
	"github.com/bagidx/bagidx/index"
	"github.com/bagidx/bagidx/internal/bucket"
	"github.com/bagidx/bagidx/recordbag"
)

// Reader serves exact key lookups against a written index. Safe for
// unlimited concurrent callers; all operations are read-only.
type Reader struct {
	bag        *recordbag.Reader
	config     Config
	numBuckets int64
}

// Open opens an index file.
func Open(path string, optFns ...Option) (*Reader, error) {
	bag, err := recordbag.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(bag, optFns...)
	if err != nil {
		bag.Close()
		return nil, err
	}
	return r, nil
}

// OpenBlob opens an index stored in a blob. Lookups translate into ranged
// reads against the blob.
func OpenBlob(blob blobstore.Blob, optFns ...Option) (*Reader, error) {
	bag, err := recordbag.OpenBlob(blob)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(bag, optFns...)
	if err != nil {
		bag.Close()
		return nil, err
	}
	return r, nil
}

// NewReader wraps an already opened record bag. The Reader takes ownership
// of the bag and closes it on Close.
func NewReader(bag *recordbag.Reader, optFns ...Option) (*Reader, error) {
	o := applyOptions(optFns)

	// At minimum one bucket record plus the footer.
	if bag.Count() < 2 {
		return nil, &index.ConfigError{Reason: "too few records for a hash index"}
	}

	footerData, err := bag.Last()
	if err != nil {
		return nil, err
	}
	config, err := ParseFooter(footerData, o.codec)
	if err != nil {
		return nil, err
	}

	return &Reader{
		bag:        bag,
		config:     config,
		numBuckets: bag.Count() - 1,
	}, nil
}

// Config returns the persisted index config.
func (r *Reader) Config() Config {
	return r.config
}

// RequiresPostFiltering reports whether results are candidates only. Hash
// lookups are exact by construction.
func (r *Reader) RequiresPostFiltering() bool {
	return false
}

// Lookup returns the ascending record ids stored under key, or nil if the
// key is absent. Absence is a normal outcome, not an error.
func (r *Reader) Lookup(key []byte) ([]int64, error) {
	payload, ok, err := bucket.Lookup(r.bag, r.numBuckets, key)
	if err != nil {
		if errors.Is(err, bucket.ErrCorruptBucket) {
			return nil, fmt.Errorf("%w: %v", index.ErrCorruptIndex, err)
		}
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return decodeRecordIDs(payload)
}

// Close releases the underlying record bag.
func (r *Reader) Close() error {
	return r.bag.Close()
}
