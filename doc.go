// Package bagidx builds and reads immutable, file-backed indices over
// sequences of opaque records.
//
// Two index capabilities exist, selected by config type and enforced by the
// type system:
//
//   - hashbucket: exact key -> record-id lookups over opaque byte keys
//     (NewKeyWriter / OpenKeyReader).
//   - trigram: substring search over text documents, optionally with exact
//     positional verification (NewTextWriter / OpenTextReader).
//
// An index is written once: a writer accumulates entries in memory and a
// single Write serializes bucket records followed by a JSON config footer as
// the final record. Readers parse the footer first and then serve lookups
// with O(1) positional reads, so indices work equally well from local files
// and from object stores via the blobstore packages. Readers are safe for
// unlimited concurrent use.
package bagidx
