// Package recordbag implements the append-only record container that index
// files are built on.
//
// A bag is a flat sequence of opaque byte records. Appends return the record's
// position (monotonic from 0) and reads are O(1) random access by position via
// an offset table stored at the tail of the file. Bags are write-once: a
// Writer accumulates records in memory and materializes the file in a single
// Flush; a finished file is never modified.
//
// # File layout
//
//	header  (16 bytes): magic "BAG1", format version, compression codec
//	records           : stored payloads, back to back
//	table             : per record, uvarint stored length, uvarint raw
//	                    length, CRC32C of the stored bytes
//	trailer (32 bytes): record count, table offset, CRC32C of the table,
//	                    magic echo
//
// Records may be individually compressed (zstd or LZ4). A record whose stored
// length equals its raw length is stored uncompressed, which also covers
// incompressible payloads under either codec.
//
// Readers work against any io.ReaderAt, so a bag can be served from a local
// file, a memory buffer, or a blobstore.Blob (e.g. ranged reads from S3).
// A Reader is safe for concurrent use.
package recordbag
