//go:build !linux

package mmap

import "os"

func osAllocate(f *os.File, size int64) error {
	return f.Truncate(size)
}
