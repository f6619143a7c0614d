package blobstore

import "errors"

var (
	// ErrFileIO is returned when a data file cannot be created, mapped, written or flushed.
	ErrFileIO = errors.New("blobstore: file i/o error")
	// ErrStorageFull is returned (wrapped in ErrFileIO) when a payload can never
	// fit into a data file of the configured size.
	ErrStorageFull = errors.New("blobstore: payload exceeds max data file size")
	// ErrClosed is returned when using a closed store.
	ErrClosed = errors.New("blobstore: store is closed")
	// ErrCorrupted is returned when a locator points outside its data file or
	// a payload fails to decompress.
	ErrCorrupted = errors.New("blobstore: corrupted blob")
	// ErrUnknownCompression is returned for an unrecognized compression name or id.
	ErrUnknownCompression = errors.New("blobstore: unknown compression")
)
