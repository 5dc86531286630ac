package trigram

import (
	"io"
	"log/slog"

	"github.com/bagidx/bagidx/codec"
	"github.com/bagidx/bagidx/recordbag"
)

type options struct {
	logger      *slog.Logger
	codec       codec.Codec
	compression recordbag.Compression
}

// Option configures writers and readers.
type Option func(*options)

func defaultOptions() options {
	return options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		codec:  codec.Default,
	}
}

func applyOptions(optFns []Option) options {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// WithLogger sets the logger used for build statistics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCodec sets the codec used for the config footer.
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

// WithCompression sets the per-record compression of the written index.
func WithCompression(c recordbag.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}
