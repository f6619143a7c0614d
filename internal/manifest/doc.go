// Package manifest keeps the metadata of a database next to its data files.
//
// # Files
//
//	<db>.manifest         collections, schemas, index definitions and the
//	                      data file table (key, name, written length)
//	<db>_<coll>.<key>     data files, owned by package blobstore
//	<db>_<coll>.dv        delete vector row of a collection
//	<db>_<coll>.loc       append-only log of blob locators, one per document
//
// # Binary Format
//
// The manifest and delete vector rows are framed with a header carrying a
// magic number, a format version and a BLAKE3-256 checksum of the payload:
//
//	Manifest header:
//	  Magic    (4 bytes)  - 0x4A4E4442 ("JNDB")
//	  Version  (4 bytes)  - format version (currently 1)
//	  CodecLen (1 byte)   - length of the codec name
//	  Codec    (n bytes)  - payload codec ("go-json", "json")
//	  Length   (4 bytes)  - payload length
//	  Checksum (32 bytes) - BLAKE3-256 of payload
//
// # Atomic Protocol
//
// The manifest and delete vector rows are replaced with write-temp, fsync,
// rename, fsync-dir. Every mutation is applied to a copy of the in-memory
// manifest, persisted, and only then swapped in, so a failed save leaves
// both memory and disk at the previous state.
//
// # Thread Safety
//
// Store and the per-collection views it hands out are safe for concurrent use.
package manifest
