package bagidx

import "github.com/bagidx/bagidx/index"

// Error taxonomy, re-exported from the index package so that callers of the
// root API rarely need a second import.
var (
	// ErrEmptyIndex is returned when writing an index to which nothing
	// was added.
	ErrEmptyIndex = index.ErrEmptyIndex

	// ErrCorruptIndex is returned when persisted index bytes fail to
	// decode.
	ErrCorruptIndex = index.ErrCorruptIndex
)

// ConfigError reports a malformed, unknown or mismatched index config.
type ConfigError = index.ConfigError

// QueryTooShortError is returned by Search when the normalized query is
// shorter than the configured n-gram size.
type QueryTooShortError = index.QueryTooShortError

// InvalidRecordIDError is returned when a caller supplies a negative record
// id.
type InvalidRecordIDError = index.InvalidRecordIDError
