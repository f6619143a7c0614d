package mmap

import (
	"fmt"
	"os"
	"sync/atomic"
)

// DataFile is a pre-allocated file mapped read-write for appending.
type DataFile struct {
	path   string
	f      *os.File
	data   []byte
	size   int64
	offset int64
	async  bool
	closed atomic.Bool
	unmap  func([]byte) error
}

// OpenDataFile maps the whole file at path read-write and places the write
// cursor at writeOffset. With async set, Flush schedules write-back instead
// of waiting for it.
func OpenDataFile(path string, writeOffset int64, async bool) (*DataFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	size := fi.Size()
	if size <= 0 || int64(int(size)) != size {
		f.Close()
		return nil, fmt.Errorf("%w: %s has size %d", ErrInvalidSize, path, size)
	}
	if writeOffset < 0 || writeOffset > size {
		f.Close()
		return nil, fmt.Errorf("%w: write offset %d for size %d", ErrInvalidOffset, writeOffset, size)
	}

	data, unmapFunc, err := osMap(f, int(size), true)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &DataFile{
		path:   path,
		f:      f,
		data:   data,
		size:   size,
		offset: writeOffset,
		async:  async,
		unmap:  unmapFunc,
	}, nil
}

// Path returns the file path.
func (d *DataFile) Path() string { return d.path }

// Size returns the mapped (pre-allocated) size.
func (d *DataFile) Size() int64 { return d.size }

// CurrentWriteOffset returns the offset of the next write.
func (d *DataFile) CurrentWriteOffset() int64 { return d.offset }

// Remaining returns the number of bytes that still fit in the file.
func (d *DataFile) Remaining() int64 { return d.size - d.offset }

// SetCurrentWriteOffset moves the write cursor. Used to roll back a failed batch.
func (d *DataFile) SetCurrentWriteOffset(offset int64) error {
	if offset < 0 || offset > d.size {
		return fmt.Errorf("%w: %d", ErrInvalidOffset, offset)
	}
	d.offset = offset
	return nil
}

// WriteAtCurrentPosition copies p at the write cursor and advances it.
func (d *DataFile) WriteAtCurrentPosition(p []byte) error {
	if d.closed.Load() {
		return ErrClosed
	}
	if int64(len(p)) > d.size-d.offset {
		return fmt.Errorf("%w: %d bytes at offset %d, size %d", ErrNoSpace, len(p), d.offset, d.size)
	}
	copy(d.data[d.offset:], p)
	d.offset += int64(len(p))
	return nil
}

// Bytes returns length bytes at offset without copying.
func (d *DataFile) Bytes(offset int64, length int) ([]byte, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	if offset < 0 {
		return nil, ErrInvalidOffset
	}
	if length < 0 || offset > d.size || int64(length) > d.size-offset {
		return nil, ErrOutOfBounds
	}
	return d.data[offset : offset+int64(length) : offset+int64(length)], nil
}

// Flush writes back the pages covering [offset, offset+length).
func (d *DataFile) Flush(offset, length int64) error {
	if d.closed.Load() {
		return ErrClosed
	}
	if offset < 0 || length < 0 || offset > d.size || length > d.size-offset {
		return ErrOutOfBounds
	}
	if length == 0 {
		return nil
	}
	start, end := pageRange(offset, length, int64(os.Getpagesize()), d.size)
	return osFlush(d.data[start:end], d.async)
}

// Sync writes back every dirty page and syncs the file handle.
func (d *DataFile) Sync() error {
	if d.closed.Load() {
		return ErrClosed
	}
	if err := osFlush(d.data, false); err != nil {
		return err
	}
	return d.f.Sync()
}

// Advise applies a paging hint to the whole file.
func (d *DataFile) Advise(pattern AccessPattern) error {
	if d.closed.Load() {
		return ErrClosed
	}
	return osAdvise(d.data, pattern)
}

// Close unmaps and closes the file. It is idempotent.
func (d *DataFile) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	var err error
	if d.unmap != nil && d.data != nil {
		err = d.unmap(d.data)
		d.data = nil
	}
	if cerr := d.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// pageRange rounds offset down to a page boundary and extends the end to
// cover offset+length, clamped to limit.
func pageRange(offset, length, pageSize, limit int64) (start, end int64) {
	start = offset - offset%pageSize
	end = offset + length
	if end > limit {
		end = limit
	}
	return start, end
}
