package hashbucket

import (
	"errors"
	"fmt"

	"github.com/bagidx/bagidx/index"
	"github.com/bagidx/bagidx/internal/bucket"
)

// Merge unions the record-id sets of the inputs per key and writes one
// combined index to path. All inputs must share the same config; the bucket
// count is recomputed from the merged key count.
func Merge(path string, inputs []*Reader, optFns ...Option) error {
	if len(inputs) == 0 {
		return index.ErrEmptyIndex
	}

	config := inputs[0].Config()
	for i, in := range inputs[1:] {
		if in.Config() != config {
			return &index.ConfigError{
				Reason: fmt.Sprintf("input %d config differs from input 0", i+1),
			}
		}
	}

	w, err := NewWriter(config, optFns...)
	if err != nil {
		return err
	}

	for _, in := range inputs {
		err := bucket.Iterate(in.bag, in.numBuckets, func(key, payload []byte) error {
			ids, err := decodeRecordIDs(payload)
			if err != nil {
				return err
			}
			return w.Add(key, ids...)
		})
		if err != nil {
			if errors.Is(err, bucket.ErrCorruptBucket) {
				return fmt.Errorf("%w: %v", index.ErrCorruptIndex, err)
			}
			return err
		}
	}

	return w.Write(path)
}
