// Package mmap provides memory-mapped data files.
//
// # Overview
//
// Blob data files are pre-allocated to their maximum size and mapped into
// memory. The writer appends through a read-write DataFile while readers use
// shared, reference-counted read-only Mappings of the same files.
//
// # Usage
//
//	if err := mmap.Allocate(path, maxSize); err != nil { ... }
//	w, err := mmap.OpenDataFile(path, 0, false)
//	if err != nil { ... }
//	defer w.Close()
//
//	off := w.CurrentWriteOffset()
//	_ = w.WriteAtCurrentPosition(blob)
//	_ = w.Flush(off, int64(len(blob)))
//
//	r, err := mmap.Open(path)
//	if err != nil { ... }
//	if r.Acquire() {
//		defer r.Release()
//		data, _ := r.Slice(off, len(blob))
//		_ = data
//	}
//
// # Flushing
//
// Flush rounds the offset down to the platform page size and extends the
// length to cover the requested range. msync(2) on a partial page is
// undefined on some platforms.
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2), msync(2), madvise(2); fallocate(2) on Linux
//   - Windows: CreateFileMapping/MapViewOfFile, FlushViewOfFile (madvise is a no-op)
//
// # Thread Safety
//
// Mapping is safe for concurrent readers. Each reader pins the mapping with
// Acquire and unpins it with Release; the memory is unmapped when the owner
// has closed it and the last reader has released it. DataFile is not safe for
// concurrent writers.
package mmap
