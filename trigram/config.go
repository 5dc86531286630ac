package trigram

import (
	"fmt"

	"github.com/bagidx/bagidx/codec"
	"github.com/bagidx/bagidx/index"
)

// TypeName is the config type tag for trigram indices.
const TypeName = "trigram"

// DefaultNGramSize is used when a config leaves NGramSize zero.
const DefaultNGramSize = 3

// avgBucketSize is the fixed bucket occupancy for the n-gram table. The
// config carries no knob for it; 1.0 keeps buckets small without wasting
// slots on sparse n-gram spaces.
const avgBucketSize = 1.0

// Config describes a trigram (n-gram) text index.
type Config struct {
	// CharacterSet lists the characters expected in indexed text. With
	// Normalize set, runs of characters outside the set collapse to a
	// single space; without it, the set is informational and all
	// characters are indexed verbatim.
	CharacterSet string `json:"character_set"`

	// NGramSize is the window length; 0 means DefaultNGramSize.
	NGramSize int `json:"ngram_size"`

	// Normalize lowercases text and collapses out-of-set runs to spaces
	// before n-gram extraction.
	Normalize bool `json:"normalize"`

	// StorePositions records character offsets with every posting,
	// enabling exact substring verification at search time.
	StorePositions bool `json:"store_positions"`

	// DeltaEncodeRecordIDs stores posting record ids as deltas.
	DeltaEncodeRecordIDs bool `json:"delta_encode_record_ids,omitempty"`
}

// Type implements index.Config.
func (Config) Type() string { return TypeName }

// Validate implements index.Config.
func (c Config) Validate() error {
	if c.NGramSize < 0 {
		return &index.ConfigError{
			Reason: fmt.Sprintf("ngram_size must be at least 1, got %d", c.NGramSize),
		}
	}
	if c.CharacterSet == "" && c.Normalize {
		return &index.ConfigError{Reason: "normalize requires a non-empty character_set"}
	}
	return nil
}

// ngramSize returns the effective window length.
func (c Config) ngramSize() int {
	if c.NGramSize == 0 {
		return DefaultNGramSize
	}
	return c.NGramSize
}

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
