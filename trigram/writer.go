// Package trigram implements an immutable n-gram text index supporting
// substring search over documents.
//
// A build pass slides a fixed-length window over each normalized document
// and accumulates a posting list per n-gram. Posting lists are persisted in
// a bucketed hash table keyed by the n-gram bytes, followed by the config
// footer. With positions stored, search verifies exact substring matches
// from offset data alone; without them it returns co-occurrence candidates.
package trigram

import (
	"context"
	"sort"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/bagidx/bagidx/blobstore"
	"github.com/bagidx/bagidx/index"
	"github.com/bagidx/bagidx/internal/bucket"
	"github.com/bagidx/bagidx/recordbag"
)

// Writer accumulates documents and writes an immutable index. Not safe for
// concurrent use; one build pass per Writer.
type Writer struct {
	config Config
	opts   options
	norm   *normalizer

	// simple mode: ngram -> deduplicated record-id set.
	simple map[string]*roaring64.Bitmap
	// positional mode: ngram -> every (record id, offset) occurrence.
	positional map[string]*postingList

	numDocs int64
}

// NewWriter creates a Writer for the given config.
func NewWriter(config Config, optFns ...Option) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	w := &Writer{
		config: config,
		opts:   applyOptions(optFns),
		norm:   newNormalizer(config),
	}
	if config.StorePositions {
		w.positional = make(map[string]*postingList)
	} else {
		w.simple = make(map[string]*roaring64.Bitmap)
	}
	return w, nil
}

// AddText indexes a document. Text shorter than the n-gram size after
// normalization contributes no postings but still counts as a document.
func (w *Writer) AddText(text string, recordID int64) error {
	if recordID < 0 {
		return &index.InvalidRecordIDError{ID: recordID}
	}
	w.numDocs++

	runes := []rune(w.norm.normalize(text))
	n := w.config.ngramSize()

	for i := 0; i+n <= len(runes); i++ {
		gram := string(runes[i : i+n])
		if w.config.StorePositions {
			pl := w.positional[gram]
			if pl == nil {
				pl = &postingList{}
				w.positional[gram] = pl
			}
			pl.ids = append(pl.ids, recordID)
			pl.offsets = append(pl.offsets, int64(i))
		} else {
			ids := w.simple[gram]
			if ids == nil {
				ids = roaring64.New()
				w.simple[gram] = ids
			}
			ids.Add(uint64(recordID))
		}
	}
	return nil
}

// NumDocs returns the number of documents added so far.
func (w *Writer) NumDocs() int64 {
	return w.numDocs
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
	if w.numDocs == 0 {
		return nil, index.ErrEmptyIndex
	}

	builder := bucket.NewBuilder(avgBucketSize)
	if w.config.StorePositions {
		for gram, pl := range w.positional {
			sorted := sortAndDedup(*pl)
			builder.Add([]byte(gram), encodePostingList(sorted, true, w.config.DeltaEncodeRecordIDs))
		}
	} else {
		for gram, ids := range w.simple {
			pl := postingList{ids: make([]int64, 0, ids.GetCardinality())}
			it := ids.Iterator()
			for it.HasNext() {
				pl.ids = append(pl.ids, int64(it.Next()))
			}
			builder.Add([]byte(gram), encodePostingList(pl, false, w.config.DeltaEncodeRecordIDs))
		}
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

	w.opts.logger.Debug("trigram index built",
		"docs", w.numDocs,
		"ngrams", stats.NumKeys,
		"buckets", stats.NumBuckets,
		"occupied_buckets", stats.OccupiedBuckets,
		"max_bucket_len", stats.MaxBucketLen,
	)
	return bag, nil
}

// sortAndDedup orders a posting list by (record id, offset) and drops exact
// duplicate pairs, which arise when the same document is added twice or
// when posting lists are merged.
func sortAndDedup(pl postingList) postingList {
	type pair struct{ id, off int64 }
	pairs := make([]pair, len(pl.ids))
	for i := range pl.ids {
		pairs[i] = pair{pl.ids[i], pl.offsets[i]}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].id != pairs[j].id {
			return pairs[i].id < pairs[j].id
		}
		return pairs[i].off < pairs[j].off
	})

	out := postingList{
		ids:     make([]int64, 0, len(pairs)),
		offsets: make([]int64, 0, len(pairs)),
	}
	for i, p := range pairs {
		if i > 0 && p == pairs[i-1] {
			continue
		}
		out.ids = append(out.ids, p.id)
		out.offsets = append(out.offsets, p.off)
	}
	return out
}
