// Package blobstore appends document payloads to memory-mapped data files and
// reads them back by Locator.
//
// Each collection owns one Store. Data files are pre-allocated to
// MaxDataFileSize and written append-only; when a payload does not fit in the
// active file the store rotates to the next file key handed out by its
// FileNamer. Blob bytes carry no header: length, offset and compression
// information live only in the Locator returned by Put.
//
// # Concurrency
//
// Put and MultiPut are serialized by a single write mutex. Get runs
// concurrently with writers; read-only mappings are shared through a
// ConcurrentLRU keyed by file key and pinned per reader with reference
// counting, so UnmapLRUDataFiles never invalidates a mapping that is being
// read. The active file's reader mapping is pinned in the cache until the
// store rotates away from it.
//
// # Compression
//
// Payloads are optionally compressed with LZ4, Zstandard or Snappy (S2).
// A payload that does not shrink is stored raw with CompressedLength 0.
package blobstore
