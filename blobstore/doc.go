// Package blobstore abstracts access to immutable data blobs.
//
// Index files are write-once, so the contract is deliberately small: a blob
// is created in one shot (Put or a streamed Create/Close) and afterwards only
// ever read, via io.ReaderAt. That makes ranged reads against object stores
// (S3, MinIO) exactly as capable as local files: a recordbag.Reader can be
// opened directly on any Blob without downloading the whole index.
//
// Implementations in this module:
//
//   - Memory: map-backed, for tests
//   - Local: files under a root directory
//   - s3.Store: AWS S3 with ranged GETs and streamed multipart uploads
//   - minio.Store: MinIO / S3-compatible endpoints
package blobstore
