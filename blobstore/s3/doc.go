// Package s3 implements blobstore.Store on AWS S3.
//
// Index bags are immutable, so reads map directly onto ranged GETs: a
// recordbag.Reader opened on an s3 blob fetches only the header, trailer,
// offset table and the individual buckets a lookup touches, never the whole
// file. Writes stream through the s3 upload manager.
//
// The Catalog type adds a DynamoDB-backed pointer from a logical index name
// to its latest published bag, using conditional writes so that publishing
// is atomic and readers never resolve a half-uploaded index.
package s3
