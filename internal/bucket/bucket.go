// Package bucket implements the bucketed hash table layout shared by the
// index engines.
//
// Keys are distributed over a fixed number of buckets by a stable hash of
// the key bytes. Each bucket is serialized as one record: a uvarint entry
// count followed by length-prefixed key/payload pairs sorted by key. Empty
// buckets are empty records. A lookup therefore reads exactly one record
// and scans it, which keeps remote lookups to a constant number of ranged
// reads regardless of index size.
package bucket

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/bagidx/bagidx/internal/hash"
	"github.com/bagidx/bagidx/recordbag"
	"github.com/bits-and-blooms/bitset"
)

// ErrDuplicateKey is returned by Builder.Build when the same key was added
// twice. Callers aggregate payloads per key before adding.
var ErrDuplicateKey = errors.New("bucket: duplicate key")

// ErrCorruptBucket is returned when a bucket record cannot be decoded.
var ErrCorruptBucket = errors.New("bucket: corrupt bucket record")

// NumBuckets returns the bucket count for n keys at the given average
// occupancy. Occupancy below 1.0 trades space for fewer collisions. At least
// one bucket always exists so lookups against an empty table stay
// well-defined.
func NumBuckets(n int64, avgBucketSize float64) int64 {
	if avgBucketSize <= 0 {
		avgBucketSize = 1
	}
	nb := int64(float64(n) / avgBucketSize)
	if nb < 1 {
		nb = 1
	}
	return nb
}

// Stats describes the shape of a built table.
type Stats struct {
	NumKeys         int64
	NumBuckets      int64
	OccupiedBuckets int64
	MaxBucketLen    int
}

type entry struct {
	key     []byte
	payload []byte
}

// Builder accumulates key/payload pairs and serializes them into bucket
// records. Keys must be unique.
type Builder struct {
	avgBucketSize float64
	entries       []entry
}

// NewBuilder creates a Builder targeting the given average bucket occupancy.
func NewBuilder(avgBucketSize float64) *Builder {
	return &Builder{avgBucketSize: avgBucketSize}
}

// Add records a key/payload pair. Both slices are retained until Build.
func (b *Builder) Add(key, payload []byte) {
	b.entries = append(b.entries, entry{key: key, payload: payload})
}

// Len returns the number of keys added so far.
func (b *Builder) Len() int {
	return len(b.entries)
}

// Build appends one record per bucket to w, in slot order.
func (b *Builder) Build(w *recordbag.Writer) (Stats, error) {
	numBuckets := NumBuckets(int64(len(b.entries)), b.avgBucketSize)

	slots := make([][]entry, numBuckets)
	occupied := bitset.New(uint(numBuckets))
	for _, e := range b.entries {
		slot := hash.Slot(e.key, numBuckets)
		slots[slot] = append(slots[slot], e)
		occupied.Set(uint(slot))
	}

	stats := Stats{
		NumKeys:         int64(len(b.entries)),
		NumBuckets:      numBuckets,
		OccupiedBuckets: int64(occupied.Count()),
	}

	var buf []byte
	for _, slot := range slots {
		if len(slot) == 0 {
			if _, err := w.Append(nil); err != nil {
				return Stats{}, err
			}
			continue
		}
		if len(slot) > stats.MaxBucketLen {
			stats.MaxBucketLen = len(slot)
		}

		sort.Slice(slot, func(i, j int) bool {
			return bytes.Compare(slot[i].key, slot[j].key) < 0
		})
		for i := 1; i < len(slot); i++ {
			if bytes.Equal(slot[i-1].key, slot[i].key) {
				return Stats{}, fmt.Errorf("%w: %q", ErrDuplicateKey, slot[i].key)
			}
		}

		buf = buf[:0]
		buf = binary.AppendUvarint(buf, uint64(len(slot)))
		for _, e := range slot {
			buf = binary.AppendUvarint(buf, uint64(len(e.key)))
			buf = append(buf, e.key...)
			buf = binary.AppendUvarint(buf, uint64(len(e.payload)))
			buf = append(buf, e.payload...)
		}
		if _, err := w.Append(buf); err != nil {
			return Stats{}, err
		}
	}

	return stats, nil
}

// Lookup reads the bucket for key from r and returns the payload stored
// under it. The table occupies records [0, numBuckets) of r.
func Lookup(r *recordbag.Reader, numBuckets int64, key []byte) ([]byte, bool, error) {
	slot := hash.Slot(key, numBuckets)
	data, err := r.Read(slot)
	if err != nil {
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, nil
	}

	count, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, false, ErrCorruptBucket
	}
	data = data[n:]

	for i := uint64(0); i < count; i++ {
		entryKey, rest, err := readChunk(data)
		if err != nil {
			return nil, false, err
		}
		payload, rest, err := readChunk(rest)
		if err != nil {
			return nil, false, err
		}
		data = rest

		switch bytes.Compare(entryKey, key) {
		case 0:
			return payload, true, nil
		case 1:
			// Entries are sorted; the key cannot appear later.
			return nil, false, nil
		}
	}
	return nil, false, nil
}

// Iterate decodes every entry in records [0, numBuckets) of r and calls fn
// for each key/payload pair. Iteration order is slot order, then key order
// within a slot.
func Iterate(r *recordbag.Reader, numBuckets int64, fn func(key, payload []byte) error) error {
	for slot := int64(0); slot < numBuckets; slot++ {
		data, err := r.Read(slot)
		if err != nil {
			return err
		}
		if len(data) == 0 {
			continue
		}

		count, n := binary.Uvarint(data)
		if n <= 0 {
			return ErrCorruptBucket
		}
		data = data[n:]

		for i := uint64(0); i < count; i++ {
			key, rest, err := readChunk(data)
			if err != nil {
				return err
			}
			payload, rest, err := readChunk(rest)
			if err != nil {
				return err
			}
			data = rest

			if err := fn(key, payload); err != nil {
				return err
			}
		}
	}
	return nil
}

func readChunk(data []byte) (chunk, rest []byte, err error) {
	length, n := binary.Uvarint(data)
	if n <= 0 || uint64(len(data)-n) < length {
		return nil, nil, ErrCorruptBucket
	}
	return data[n : n+int(length)], data[n+int(length):], nil
}
