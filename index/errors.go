package index

import (
	"errors"
	"fmt"
)

// ErrEmptyIndex is returned when writing an index to which nothing was added.
var ErrEmptyIndex = errors.New("index: no entries added")

// ErrCorruptIndex is returned when persisted index bytes fail to decode.
var ErrCorruptIndex = errors.New("index: corrupt index")

// ConfigError reports a malformed, unknown or mismatched index config.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("index: config: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("index: config: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// QueryTooShortError is returned by text search when the normalized query is
// shorter than the configured n-gram size and the index cannot discriminate.
type QueryTooShortError struct {
	Length    int
	NGramSize int
}

func (e *QueryTooShortError) Error() string {
	return fmt.Sprintf("index: query length %d shorter than ngram size %d", e.Length, e.NGramSize)
}

// InvalidRecordIDError is returned when a caller supplies a negative record
// id. Record ids are persisted as unsigned varints and must be >= 0.
type InvalidRecordIDError struct {
	ID int64
}

func (e *InvalidRecordIDError) Error() string {
	return fmt.Sprintf("index: invalid record id %d: must be non-negative", e.ID)
}
