package hashbucket

import (
	"fmt"

	"github.com/bagidx/bagidx/codec"
	"github.com/bagidx/bagidx/index"
)

// TypeName is the config type tag for hash bucket indices.
const TypeName = "hashbucket"

// Config describes a hash bucket index.
type Config struct {
	// AvgBucketSize is the target average number of keys per bucket.
	// Values below 1.0 allocate more buckets than keys, trading space for
	// fewer collisions.
	AvgBucketSize float64 `json:"avg_bucket_size"`

	// KeyProtoName optionally names the schema of the key bytes for the
	// benefit of callers; the index itself treats keys as opaque.
	KeyProtoName string `json:"key_proto_name,omitempty"`
}

// Type implements index.Config.
func (Config) Type() string { return TypeName }

// Validate implements index.Config.
func (c Config) Validate() error {
	if c.AvgBucketSize <= 0 {
		return &index.ConfigError{
			Reason: fmt.Sprintf("avg_bucket_size must be positive, got %g", c.AvgBucketSize),
		}
	}
	return nil
}

// footer is the JSON shape persisted as the final record.
type footer struct {
	Type string `json:"type"`
	Config
}

func encodeFooter(c Config, cdc codec.Codec) ([]byte, error) {
	data, err := cdc.Marshal(footer{Type: TypeName, Config: c})
	if err != nil {
		return nil, &index.ConfigError{Reason: "encode footer", Err: err}
	}
	return data, nil
}

// ParseFooter decodes a persisted config footer and verifies its type tag.
func ParseFooter(data []byte, cdc codec.Codec) (Config, error) {
	var f footer
	if err := cdc.Unmarshal(data, &f); err != nil {
		return Config{}, &index.ConfigError{Reason: "malformed footer", Err: err}
	}
	if f.Type != TypeName {
		return Config{}, &index.ConfigError{
			Reason: fmt.Sprintf("footer type %q, want %q", f.Type, TypeName),
		}
	}
	if err := f.Config.Validate(); err != nil {
		return Config{}, err
	}
	return f.Config, nil
}
