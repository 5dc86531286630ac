package bagidx

import (
	"github.com/bagidx/bagidx/blobstore"
	"github.com/bagidx/bagidx/hashbucket"
	"github.com/bagidx/bagidx/trigram"
)

// NewKeyWriter creates a writer for an exact-key hash index. Key addition
// and text addition are mutually exclusive capabilities; the returned writer
// only exposes Add.
func NewKeyWriter(config HashBucketConfig, optFns ...Option) (*hashbucket.Writer, error) {
	o := applyOptions(optFns)
	return hashbucket.NewWriter(config, o.hashOptions()...)
}

// NewTextWriter creates a writer for an n-gram text index. The returned
// writer only exposes AddText.
func NewTextWriter(config TrigramConfig, optFns ...Option) (*trigram.Writer, error) {
	o := applyOptions(optFns)
	return trigram.NewWriter(config, o.trigramOptions()...)
}

// OpenKeyReader opens an index file for exact key lookups. Opening a file
// written with a different index type fails with a *ConfigError.
func OpenKeyReader(path string, optFns ...Option) (*hashbucket.Reader, error) {
	o := applyOptions(optFns)
	return hashbucket.Open(path, o.hashOptions()...)
}

// OpenTextReader opens an index file for substring search. Opening a file
// written with a different index type fails with a *ConfigError.
func OpenTextReader(path string, optFns ...Option) (*trigram.Reader, error) {
	o := applyOptions(optFns)
	return trigram.Open(path, o.trigramOptions()...)
}

// OpenKeyReaderBlob opens a blob-resident index for exact key lookups.
func OpenKeyReaderBlob(blob blobstore.Blob, optFns ...Option) (*hashbucket.Reader, error) {
	o := applyOptions(optFns)
	return hashbucket.OpenBlob(blob, o.hashOptions()...)
}

// OpenTextReaderBlob opens a blob-resident index for substring search.
func OpenTextReaderBlob(blob blobstore.Blob, optFns ...Option) (*trigram.Reader, error) {
	o := applyOptions(optFns)
	return trigram.OpenBlob(blob, o.trigramOptions()...)
}
