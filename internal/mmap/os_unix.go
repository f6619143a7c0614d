//go:build unix

package mmap

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

func osMap(f *os.File, size int, writable bool) ([]byte, func([]byte) error, error) {
	prot := unix.PROT_READ
	if writable {
		prot |= unix.PROT_WRITE
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, prot, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	return data, unix.Munmap, nil
}

// osFlush writes back dirty pages of data. data must start on a page
// boundary.
func osFlush(data []byte, async bool) error {
	if len(data) == 0 {
		return nil
	}
	if async {
		return unix.Msync(data, unix.MS_ASYNC)
	}
	return unix.Msync(data, unix.MS_SYNC)
}

var madvice = map[AccessPattern]int{
	AccessNormal:     unix.MADV_NORMAL,
	AccessRandom:     unix.MADV_RANDOM,
	AccessSequential: unix.MADV_SEQUENTIAL,
}

func osAdvise(data []byte, pattern AccessPattern) error {
	advice, ok := madvice[pattern]
	if !ok || len(data) == 0 {
		return nil
	}
	// Hints are best effort; a kernel without the advice reports EINVAL.
	if err := unix.Madvise(data, advice); err != nil && !errors.Is(err, unix.EINVAL) {
		return err
	}
	return nil
}
