package hashbucket

import (
	"encoding/binary"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/bagidx/bagidx/index"
)

// encodeRecordIDs serializes a record-id set as a uvarint count followed by
// the first id and ascending deltas. Iteration over the bitmap is sorted, so
// deltas are always positive.
func encodeRecordIDs(ids *roaring64.Bitmap) []byte {
	buf := binary.AppendUvarint(nil, ids.GetCardinality())

	var last uint64
	first := true
	it := ids.Iterator()
	for it.HasNext() {
		id := it.Next()
		if first {
			buf = binary.AppendUvarint(buf, id)
			first = false
		} else {
			buf = binary.AppendUvarint(buf, id-last)
		}
		last = id
	}
	return buf
}

func decodeRecordIDs(payload []byte) ([]int64, error) {
	count, n := binary.Uvarint(payload)
	if n <= 0 {
		return nil, fmt.Errorf("%w: bad record id count", index.ErrCorruptIndex)
	}
	payload = payload[n:]

	ids := make([]int64, 0, count)
	var last uint64
	for i := uint64(0); i < count; i++ {
		delta, n := binary.Uvarint(payload)
		if n <= 0 {
			return nil, fmt.Errorf("%w: truncated record ids", index.ErrCorruptIndex)
		}
		payload = payload[n:]

		if i == 0 {
			last = delta
		} else {
			last += delta
		}
		ids = append(ids, int64(last))
	}
	return ids, nil
}
