package bagidx

import (
	"runtime"

	"github.com/bagidx/bagidx/codec"
	"github.com/bagidx/bagidx/hashbucket"
	"github.com/bagidx/bagidx/recordbag"
	"github.com/bagidx/bagidx/trigram"
)

// DefaultShardLimit is the number of entries a sharded builder accumulates
// in memory before spilling a shard to disk.
const DefaultShardLimit = 200_000

type options struct {
	logger           *Logger
	codec            codec.Codec
	compression      recordbag.Compression
	shardLimit       int
	shardParallelism int
}

// Option configures writers, readers and builders.
type Option func(*options)

func defaultOptions() options {
	return options{
		logger:           NoopLogger(),
		codec:            codec.Default,
		shardLimit:       DefaultShardLimit,
		shardParallelism: runtime.GOMAXPROCS(0),
	}
}

func applyOptions(optFns []Option) options {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// WithLogger sets the logger. If nil is passed, logging stays disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCodec sets the codec used for config footers.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression sets the per-record compression of written indices.
func WithCompression(c recordbag.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithShardLimit sets how many entries a sharded builder holds in memory
// before spilling a shard. Values below 1 keep the default.
func WithShardLimit(limit int) Option {
	return func(o *options) {
		if limit > 0 {
			o.shardLimit = limit
		}
	}
}

// WithShardParallelism bounds how many shard spills run concurrently.
// Values below 1 keep the default.
func WithShardParallelism(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.shardParallelism = n
		}
	}
}

func (o options) hashOptions() []hashbucket.Option {
	return []hashbucket.Option{
		hashbucket.WithLogger(o.logger.Logger),
		hashbucket.WithCodec(o.codec),
		hashbucket.WithCompression(o.compression),
	}
}

func (o options) trigramOptions() []trigram.Option {
	return []trigram.Option{
		trigram.WithLogger(o.logger.Logger),
		trigram.WithCodec(o.codec),
		trigram.WithCompression(o.compression),
	}
}
