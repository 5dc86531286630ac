package bagidx

import (
	"fmt"

	"github.com/bagidx/bagidx/hashbucket"
	"github.com/bagidx/bagidx/index"
	"github.com/bagidx/bagidx/recordbag"
	"github.com/bagidx/bagidx/trigram"
)

// Config describes how an index is built and read; it is persisted as the
// final record of every index file.
type Config = index.Config

// HashBucketConfig configures an exact-key hash index.
type HashBucketConfig = hashbucket.Config

// TrigramConfig configures an n-gram text index.
type TrigramConfig = trigram.Config

// ParseConfig decodes a persisted config footer. The variant set is closed:
// an unknown type tag is a *ConfigError, not an extension point.
func ParseConfig(data []byte, optFns ...Option) (Config, error) {
	o := applyOptions(optFns)

	var head struct {
		Type string `json:"type"`
	}
	if err := o.codec.Unmarshal(data, &head); err != nil {
		return nil, &ConfigError{Reason: "malformed footer", Err: err}
	}

	switch head.Type {
	case hashbucket.TypeName:
		config, err := hashbucket.ParseFooter(data, o.codec)
		if err != nil {
			return nil, err
		}
		return config, nil
	case trigram.TypeName:
		config, err := trigram.ParseFooter(data, o.codec)
		if err != nil {
			return nil, err
		}
		return config, nil
	default:
		return nil, &ConfigError{Reason: fmt.Sprintf("unknown index type %q", head.Type)}
	}
}

// ReadConfig reads the config footer of an index file without opening a
// full reader.
func ReadConfig(path string, optFns ...Option) (Config, error) {
	bag, err := recordbag.Open(path)
	if err != nil {
		return nil, err
	}
	defer bag.Close()

	data, err := bag.Last()
	if err != nil {
		return nil, err
	}
	return ParseConfig(data, optFns...)
}
