package trigram

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/bagidx/bagidx/blobstore"
	"github.com/bagidx/bagidx/index"
	"github.com/bagidx/bagidx/internal/bucket"
	"github.com/bagidx/bagidx/recordbag"
)

// Reader serves substring searches against a written index. Safe for
// unlimited concurrent callers; all operations are read-only.
type Reader struct {
	bag        *recordbag.Reader
	config     Config
	numBuckets int64
	norm       *normalizer
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

// OpenBlob opens an index stored in a blob. Searches translate into ranged
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

	if bag.Count() < 2 {
		return nil, &index.ConfigError{Reason: "too few records for a trigram index"}
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
		norm:       newNormalizer(config),
	}, nil
}

// Config returns the persisted index config.
func (r *Reader) Config() Config {
	return r.config
}

// RequiresPostFiltering reports whether Search results are candidates only.
// Without stored positions the index guarantees n-gram co-occurrence, not
// substring containment, and callers must verify matches themselves.
func (r *Reader) RequiresPostFiltering() bool {
	return !r.config.StorePositions
}

// Search returns the ascending record ids of documents matching query.
// With positions stored, matches are exact substring containments; without
// them, matches are candidates containing every query n-gram. An empty
// result is a normal outcome, not an error.
func (r *Reader) Search(query string) ([]int64, error) {
	runes := []rune(r.norm.normalize(query))
	n := r.config.ngramSize()
	if len(runes) < n {
		return nil, &index.QueryTooShortError{Length: len(runes), NGramSize: n}
	}

	// Fetch each distinct n-gram's posting list once. Any absent n-gram
	// empties the intersection immediately.
	lists := make(map[string]postingList)
	for i := 0; i+n <= len(runes); i++ {
		gram := string(runes[i : i+n])
		if _, ok := lists[gram]; ok {
			continue
		}

		payload, ok, err := bucket.Lookup(r.bag, r.numBuckets, []byte(gram))
		if err != nil {
			if errors.Is(err, bucket.ErrCorruptBucket) {
				return nil, fmt.Errorf("%w: %v", index.ErrCorruptIndex, err)
			}
			return nil, err
		}
		if !ok {
			return nil, nil
		}

		pl, err := decodePostingList(payload, r.config.StorePositions, r.config.DeltaEncodeRecordIDs)
		if err != nil {
			return nil, err
		}
		lists[gram] = pl
	}

	if r.config.StorePositions {
		return searchPositional(runes, n, lists), nil
	}
	return searchSimple(lists), nil
}

// searchSimple intersects the record-id sets of all distinct query n-grams.
func searchSimple(lists map[string]postingList) []int64 {
	var acc *roaring64.Bitmap
	for _, pl := range lists {
		ids := roaring64.New()
		for _, id := range pl.ids {
			ids.Add(uint64(id))
		}
		if acc == nil {
			acc = ids
		} else {
			acc.And(ids)
		}
		if acc.IsEmpty() {
			return nil
		}
	}
	return bitmapToIDs(acc)
}

// searchPositional intersects candidate query start positions. An n-gram at
// query position p occurring at document offset o allows the query to start
// at o-p; a document matches when one start position survives every query
// position, which is exactly the adjacent-offset chain condition.
func searchPositional(runes []rune, n int, lists map[string]postingList) []int64 {
	type startPos struct{ id, start int64 }

	var current map[startPos]struct{}
	for p := 0; p+n <= len(runes); p++ {
		pl := lists[string(runes[p:p+n])]

		next := make(map[startPos]struct{})
		for j := range pl.ids {
			start := pl.offsets[j] - int64(p)
			if start < 0 {
				continue
			}
			c := startPos{id: pl.ids[j], start: start}
			if p == 0 {
				next[c] = struct{}{}
			} else if _, ok := current[c]; ok {
				next[c] = struct{}{}
			}
		}
		current = next
		if len(current) == 0 {
			return nil
		}
	}

	ids := roaring64.New()
	for c := range current {
		ids.Add(uint64(c.id))
	}
	return bitmapToIDs(ids)
}

func bitmapToIDs(bm *roaring64.Bitmap) []int64 {
	if bm == nil || bm.IsEmpty() {
		return nil
	}
	ids := make([]int64, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		ids = append(ids, int64(it.Next()))
	}
	return ids
}

// Close releases the underlying record bag.
func (r *Reader) Close() error {
	return r.bag.Close()
}
