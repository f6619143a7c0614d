package manifest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/zarianw/jonoondb-sub000/blobstore"
	"github.com/zarianw/jonoondb-sub000/internal/fs"
)

const locatorLogExt = ".loc"

// LocatorLog is the append-only list of blob locators of a collection.
// The i-th record is the locator of document id i.
type LocatorLog struct {
	fs   fs.FileSystem
	path string

	mu   sync.Mutex
	f    fs.File
	size int64
}

// OpenLocatorLog opens the locator log of collection, creating it if needed.
func (s *Store) OpenLocatorLog(collection string) (*LocatorLog, error) {
	path := filepath.Join(s.dir, s.CollectionFileName(collection)+locatorLogExt)
	f, err := s.fs.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	size := st.Size()
	// A torn tail from a crash mid-append is dropped.
	if rem := size % blobstore.LocatorSize; rem != 0 {
		size -= rem
		if err := s.fs.Truncate(path, size); err != nil {
			f.Close()
			return nil, err
		}
	}
	return &LocatorLog{fs: s.fs, path: path, f: f, size: size}, nil
}

// Len returns the number of locators in the log.
func (l *LocatorLog) Len() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return uint64(l.size / blobstore.LocatorSize)
}

// ReadAll returns every locator in order.
func (l *LocatorLog) ReadAll() ([]blobstore.Locator, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	buf := make([]byte, l.size)
	if _, err := l.f.ReadAt(buf, 0); err != nil && err != io.EOF {
		return nil, err
	}
	out := make([]blobstore.Locator, 0, len(buf)/blobstore.LocatorSize)
	for off := 0; off+blobstore.LocatorSize <= len(buf); off += blobstore.LocatorSize {
		var loc blobstore.Locator
		if err := loc.UnmarshalBinary(buf[off : off+blobstore.LocatorSize]); err != nil {
			return nil, fmt.Errorf("%w: locator %d: %w", ErrCorrupted, off/blobstore.LocatorSize, err)
		}
		out = append(out, loc)
	}
	return out, nil
}

// Append writes locs and syncs. On failure the log is cut back to its
// previous length.
func (l *LocatorLog) Append(locs ...blobstore.Locator) error {
	if len(locs) == 0 {
		return nil
	}
	buf := make([]byte, 0, len(locs)*blobstore.LocatorSize)
	for _, loc := range locs {
		var err error
		if buf, err = loc.AppendBinary(buf); err != nil {
			return err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return os.ErrClosed
	}
	if _, err := l.f.Seek(l.size, io.SeekStart); err != nil {
		return err
	}
	if _, err := l.f.Write(buf); err != nil {
		return l.rollback(err)
	}
	if err := l.f.Sync(); err != nil {
		return l.rollback(err)
	}
	l.size += int64(len(buf))
	return nil
}

func (l *LocatorLog) rollback(cause error) error {
	if err := l.fs.Truncate(l.path, l.size); err != nil {
		return fmt.Errorf("%w (truncate: %v)", cause, err)
	}
	return cause
}

// Close closes the log file.
func (l *LocatorLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
