package mmap

import (
	"os"
	"sync"
	"sync/atomic"
)

// Mapping is a shared read-only view of a file.
//
// The creator holds the first reference. Readers take additional references
// with Acquire; the memory is unmapped once Close has been called and every
// reference has been released.
type Mapping struct {
	path string
	data []byte
	size int
	refs atomic.Int32

	closed    atomic.Bool
	unmapOnce sync.Once
	unmapErr  error
	unmap func([]byte) error
}

// Open maps the file at path read-only. An empty file yields a mapping with
// no memory behind it.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := fi.Size()
	if size < 0 || int64(int(size)) != size {
		return nil, ErrInvalidSize
	}

	m := &Mapping{path: path, size: int(size)}
	m.refs.Store(1)
	if size == 0 {
		return m, nil
	}

	data, unmapFunc, err := osMap(f, int(size), false)
	if err != nil {
		return nil, err
	}
	m.data = data
	m.unmap = unmapFunc

	return m, nil
}

func (m *Mapping) Path() string { return m.path }

// Acquire pins the mapping for reading. It fails once the mapping has been
// fully released.
func (m *Mapping) Acquire() bool {
	for {
		n := m.refs.Load()
		if n <= 0 {
			return false
		}
		if m.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Release drops a reference taken with Acquire.
func (m *Mapping) Release() error {
	if m.refs.Add(-1) == 0 {
		return m.doUnmap()
	}
	return nil
}

// Refs returns the number of outstanding references.
func (m *Mapping) Refs() int {
	return int(m.refs.Load())
}

// Close drops the owner's reference. It is idempotent. The memory stays
// valid for readers that still hold a reference.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	return m.Release()
}

func (m *Mapping) doUnmap() error {
	m.unmapOnce.Do(func() {
		if m.unmap != nil && m.data != nil {
			m.unmapErr = m.unmap(m.data)
		}
	})
	return m.unmapErr
}

func (m *Mapping) live() bool {
	return m.refs.Load() > 0
}

// Slice returns length bytes starting at offset without copying. The
// result aliases the mapping and is valid only while a reference is held.
func (m *Mapping) Slice(offset int64, length int) ([]byte, error) {
	if !m.live() {
		return nil, ErrClosed
	}
	if offset < 0 {
		return nil, ErrInvalidOffset
	}
	if length < 0 || offset > int64(m.size) || int64(length) > int64(m.size)-offset {
		return nil, ErrOutOfBounds
	}
	return m.data[offset : offset+int64(length) : offset+int64(length)], nil
}

func (m *Mapping) Size() int { return m.size }

// Advise passes an access hint for the whole mapping to the kernel.
func (m *Mapping) Advise(pattern AccessPattern) error {
	if !m.live() {
		return ErrClosed
	}
	if m.data == nil {
		return nil
	}
	return osAdvise(m.data, pattern)
}
