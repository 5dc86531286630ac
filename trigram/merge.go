package trigram

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/bagidx/bagidx/index"
	"github.com/bagidx/bagidx/internal/bucket"
)

// Merge combines the posting lists of the inputs per n-gram and writes one
// index to path. With positions stored, duplicate (record id, offset) pairs
// collapse; without them, record-id sets are unioned. All inputs must share
// the same config.
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
		// A merged index is non-empty as soon as it has inputs; the
		// per-document count is not recoverable from posting lists.
		w.numDocs++

		err := bucket.Iterate(in.bag, in.numBuckets, func(gram, payload []byte) error {
			pl, err := decodePostingList(payload, config.StorePositions, config.DeltaEncodeRecordIDs)
			if err != nil {
				return err
			}

			if config.StorePositions {
				dst := w.positional[string(gram)]
				if dst == nil {
					dst = &postingList{}
					w.positional[string(gram)] = dst
				}
				dst.ids = append(dst.ids, pl.ids...)
				dst.offsets = append(dst.offsets, pl.offsets...)
			} else {
				ids := w.simple[string(gram)]
				if ids == nil {
					ids = roaring64.New()
					w.simple[string(gram)] = ids
				}
				for _, id := range pl.ids {
					ids.Add(uint64(id))
				}
			}
			return nil
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
