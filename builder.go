package bagidx

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bagidx/bagidx/hashbucket"
	"github.com/bagidx/bagidx/trigram"
	"golang.org/x/sync/errgroup"
)

// shardSpiller owns the temp-dir bookkeeping shared by the sharded
// builders: shards spill concurrently through an errgroup and are merged
// into the final output on Write.
type shardSpiller struct {
	opts   options
	dir    string
	shards []string
	group  errgroup.Group
	closed bool
}

func newShardSpiller(o options) (*shardSpiller, error) {
	dir, err := os.MkdirTemp("", "bagidx-shards-*")
	if err != nil {
		return nil, err
	}
	s := &shardSpiller{opts: o, dir: dir}
	s.group.SetLimit(o.shardParallelism)
	return s, nil
}

func (s *shardSpiller) nextShardPath() string {
	path := filepath.Join(s.dir, fmt.Sprintf("shard-%05d.bag", len(s.shards)))
	s.shards = append(s.shards, path)
	return path
}

func (s *shardSpiller) finish() ([]string, error) {
	if err := s.group.Wait(); err != nil {
		return nil, err
	}
	return s.shards, nil
}

// cleanup removes the temp dir; safe to call more than once.
func (s *shardSpiller) cleanup() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return os.RemoveAll(s.dir)
}

// ShardedKeyBuilder builds a hash index too large for one in-memory pass.
// Entries accumulate in bounded shards that spill to temp files; Write
// merges the shards into the final index. Not safe for concurrent Add.
type ShardedKeyBuilder struct {
	config  HashBucketConfig
	spiller *shardSpiller
	current *hashbucket.Writer
	pending int
}

// NewShardedKeyBuilder creates a builder for the given config. See
// WithShardLimit and WithShardParallelism.
func NewShardedKeyBuilder(config HashBucketConfig, optFns ...Option) (*ShardedKeyBuilder, error) {
	o := applyOptions(optFns)

	w, err := hashbucket.NewWriter(config, o.hashOptions()...)
	if err != nil {
		return nil, err
	}
	spiller, err := newShardSpiller(o)
	if err != nil {
		return nil, err
	}
	return &ShardedKeyBuilder{config: config, spiller: spiller, current: w}, nil
}

// Add records that key maps to the given record ids, spilling a shard when
// the in-memory limit is reached.
func (b *ShardedKeyBuilder) Add(key []byte, recordIDs ...int64) error {
	if err := b.current.Add(key, recordIDs...); err != nil {
		return err
	}
	b.pending++
	if b.pending >= b.spiller.opts.shardLimit {
		return b.spill()
	}
	return nil
}

func (b *ShardedKeyBuilder) spill() error {
	w := b.current
	path := b.spiller.nextShardPath()
	b.spiller.group.Go(func() error {
		return w.Write(path)
	})

	next, err := hashbucket.NewWriter(b.config, b.spiller.opts.hashOptions()...)
	if err != nil {
		return err
	}
	b.current = next
	b.pending = 0
	return nil
}

// Write merges all shards into the final index at path and removes the temp
// shards. The builder cannot be reused afterwards.
func (b *ShardedKeyBuilder) Write(path string) error {
	defer b.spiller.cleanup()

	if b.pending > 0 {
		if err := b.spill(); err != nil {
			return err
		}
	}
	shards, err := b.spiller.finish()
	if err != nil {
		return err
	}
	if len(shards) == 0 {
		return ErrEmptyIndex
	}

	readers := make([]*hashbucket.Reader, 0, len(shards))
	defer func() {
		for _, r := range readers {
			r.Close()
		}
	}()
	for _, shard := range shards {
		r, err := hashbucket.Open(shard, b.spiller.opts.hashOptions()...)
		if err != nil {
			return err
		}
		readers = append(readers, r)
	}
	return hashbucket.Merge(path, readers, b.spiller.opts.hashOptions()...)
}

// Close abandons the build and removes any spilled shards.
func (b *ShardedKeyBuilder) Close() error {
	return b.spiller.cleanup()
}

// ShardedTextBuilder is the text-index counterpart of ShardedKeyBuilder;
// the shard limit counts documents.
type ShardedTextBuilder struct {
	config  TrigramConfig
	spiller *shardSpiller
	current *trigram.Writer
	pending int
}

// NewShardedTextBuilder creates a builder for the given config.
func NewShardedTextBuilder(config TrigramConfig, optFns ...Option) (*ShardedTextBuilder, error) {
	o := applyOptions(optFns)

	w, err := trigram.NewWriter(config, o.trigramOptions()...)
	if err != nil {
		return nil, err
	}
	spiller, err := newShardSpiller(o)
	if err != nil {
		return nil, err
	}
	return &ShardedTextBuilder{config: config, spiller: spiller, current: w}, nil
}

// AddText indexes a document, spilling a shard when the in-memory limit is
// reached.
func (b *ShardedTextBuilder) AddText(text string, recordID int64) error {
	if err := b.current.AddText(text, recordID); err != nil {
		return err
	}
	b.pending++
	if b.pending >= b.spiller.opts.shardLimit {
		return b.spill()
	}
	return nil
}

func (b *ShardedTextBuilder) spill() error {
	w := b.current
	path := b.spiller.nextShardPath()
	b.spiller.group.Go(func() error {
		return w.Write(path)
	})

	next, err := trigram.NewWriter(b.config, b.spiller.opts.trigramOptions()...)
	if err != nil {
		return err
	}
	b.current = next
	b.pending = 0
	return nil
}

// Write merges all shards into the final index at path and removes the temp
// shards. The builder cannot be reused afterwards.
func (b *ShardedTextBuilder) Write(path string) error {
	defer b.spiller.cleanup()

	if b.pending > 0 {
		if err := b.spill(); err != nil {
			return err
		}
	}
	shards, err := b.spiller.finish()
	if err != nil {
		return err
	}
	if len(shards) == 0 {
		return ErrEmptyIndex
	}

	readers := make([]*trigram.Reader, 0, len(shards))
	defer func() {
		for _, r := range readers {
			r.Close()
		}
	}()
	for _, shard := range shards {
		r, err := trigram.Open(shard, b.spiller.opts.trigramOptions()...)
		if err != nil {
			return err
		}
		readers = append(readers, r)
	}
	return trigram.Merge(path, readers, b.spiller.opts.trigramOptions()...)
}

// Close abandons the build and removes any spilled shards.
func (b *ShardedTextBuilder) Close() error {
	return b.spiller.cleanup()
}
