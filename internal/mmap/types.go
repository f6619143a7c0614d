package mmap

import "errors"

// AccessPattern is a paging hint for a mapped range.
type AccessPattern int

const (
	// AccessNormal clears earlier hints.
	AccessNormal AccessPattern = iota
	// AccessRandom suits reader mappings: blobs are fetched one locator at a
	// time in no particular order, so read-ahead only wastes page cache.
	AccessRandom
	// AccessSequential suits the writer, which only ever appends.
	AccessSequential
)

var (
	// ErrClosed is returned when using an unmapped file.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned for empty or oversized data files.
	ErrInvalidSize = errors.New("mmap: invalid file size")
	// ErrOutOfBounds is returned for a range outside the mapping.
	ErrOutOfBounds = errors.New("mmap: out of bounds")
	// ErrInvalidOffset is returned for a negative or too large offset.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
	// ErrNoSpace is returned when a write does not fit in the pre-allocated file.
	ErrNoSpace = errors.New("mmap: write exceeds file size")
)
