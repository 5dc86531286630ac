package trigram

import (
	"encoding/binary"
	"fmt"

	"github.com/bagidx/bagidx/index"
)

// postingList holds where an n-gram occurs: parallel id/offset slices,
// sorted by (record id, offset). offsets is nil when positions are not
// stored.
type postingList struct {
	ids     []int64
	offsets []int64
}

// encodePostingList serializes a sorted posting list: uvarint entry count,
// record ids (raw or delta uvarints), then offsets when positions are
// stored.
func encodePostingList(pl postingList, withPositions, deltaIDs bool) []byte {
	buf := binary.AppendUvarint(nil, uint64(len(pl.ids)))

	var last int64
	for i, id := range pl.ids {
		if deltaIDs && i > 0 {
			buf = binary.AppendUvarint(buf, uint64(id-last))
		} else {
			buf = binary.AppendUvarint(buf, uint64(id))
		}
		last = id
	}

	if withPositions {
		for _, off := range pl.offsets {
			buf = binary.AppendUvarint(buf, uint64(off))
		}
	}
	return buf
}

func decodePostingList(payload []byte, withPositions, deltaIDs bool) (postingList, error) {
	count, n := binary.Uvarint(payload)
	if n <= 0 {
		return postingList{}, fmt.Errorf("%w: bad posting count", index.ErrCorruptIndex)
	}
	payload = payload[n:]

	pl := postingList{ids: make([]int64, 0, count)}

	var last int64
	for i := uint64(0); i < count; i++ {
		v, n := binary.Uvarint(payload)
		if n <= 0 {
			return postingList{}, fmt.Errorf("%w: truncated posting ids", index.ErrCorruptIndex)
		}
		payload = payload[n:]

		id := int64(v)
		if deltaIDs && i > 0 {
			id += last
		}
		pl.ids = append(pl.ids, id)
		last = id
	}

	if withPositions {
		pl.offsets = make([]int64, 0, count)
		for i := uint64(0); i < count; i++ {
			v, n := binary.Uvarint(payload)
			if n <= 0 {
				return postingList{}, fmt.Errorf("%w: truncated posting offsets", index.ErrCorruptIndex)
			}
			payload = payload[n:]
			pl.offsets = append(pl.offsets, int64(v))
		}
	}

	if len(payload) != 0 {
		return postingList{}, fmt.Errorf("%w: trailing posting bytes", index.ErrCorruptIndex)
	}
	return pl, nil
}
