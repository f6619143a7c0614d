package mmap

import (
	"fmt"
	"os"
)

// Allocate creates path (if needed) and reserves size bytes on disk for it.
// The reserved region reads as zeros.
func Allocate(path string, size int64) error {
	if size <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}

	if err := osAllocate(f, size); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
