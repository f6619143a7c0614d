package blobstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/zarianw/jonoondb-sub000/internal/cache"
	"github.com/zarianw/jonoondb-sub000/internal/conv"
	"github.com/zarianw/jonoondb-sub000/internal/mmap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultMaxDataFileSize is the size data files are pre-allocated to.
	DefaultMaxDataFileSize int64 = 1 << 30
	// DefaultReaderCacheSize is how many reader mappings survive UnmapLRUDataFiles.
	DefaultReaderCacheSize = 2

	maxAcquireAttempts = 8
)

// Config configures a Store.
type Config struct {
	// MaxDataFileSize is the pre-allocated size of every data file.
	MaxDataFileSize int64
	// Compression is applied to new payloads. It must not change for an
	// existing collection.
	Compression Compression
	// Synchronous waits for each write to reach disk. When false flushes are
	// only scheduled.
	Synchronous bool
	// ReaderCacheSize bounds the reader mapping cache after eviction.
	ReaderCacheSize int
	// Logger receives rotation and eviction events. Nil discards them.
	Logger *slog.Logger
	// OnRotate is called after the store switched to a new data file.
	OnRotate func(from, to int32)
}

func (c *Config) applyDefaults() {
	if c.MaxDataFileSize <= 0 {
		c.MaxDataFileSize = DefaultMaxDataFileSize
	}
	if c.ReaderCacheSize <= 0 {
		c.ReaderCacheSize = DefaultReaderCacheSize
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
}

// Stats is a point-in-time snapshot of store counters.
type Stats struct {
	CurrentFileKey int32
	WriteOffset    int64
	Rotations      int64
	ReaderMappings int
	CacheHits      int64
	CacheMisses    int64
	Evictions      int64
}

// Store is the append-only blob store of one collection.
type Store struct {
	cfg    Config
	namer  FileNamer
	logger *slog.Logger

	// mu serializes the write path: the active file, its cursor and rotation.
	mu      sync.Mutex
	current FileInfo
	writer  *mmap.DataFile

	readers   *cache.ConcurrentLRU[int32, *mmap.Mapping]
	opening   singleflight.Group
	rotations atomic.Int64
	closed    atomic.Bool
}

// Open opens the current data file of a collection, creating the first one
// when the collection is new.
func Open(namer FileNamer, cfg Config) (*Store, error) {
	cfg.applyDefaults()
	if !cfg.Compression.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, cfg.Compression)
	}

	s := &Store{
		cfg:    cfg,
		namer:  namer,
		logger: cfg.Logger,
	}
	s.readers = cache.NewConcurrentLRU(cfg.ReaderCacheSize, s.releaseReader)

	info, err := namer.GetCurrentDataFileInfo(true)
	if err != nil {
		return nil, fmt.Errorf("%w: current data file: %w", ErrFileIO, err)
	}

	writer, reader, err := s.openActive(info)
	if err != nil {
		return nil, err
	}
	if info.DataLength >= 0 {
		if err := writer.SetCurrentWriteOffset(info.DataLength); err != nil {
			writer.Close()
			reader.Close()
			return nil, fmt.Errorf("%w: resume %s: %w", ErrFileIO, info.FileName, err)
		}
	}

	s.current = info
	s.writer = writer
	s.readers.Add(info.FileKey, reader, false)

	s.logger.Debug("blob store opened",
		"file", info.FileName,
		"file_key", info.FileKey,
		"write_offset", writer.CurrentWriteOffset(),
	)
	return s, nil
}

// openActive maps a data file for writing plus a pinned reader view.
// Missing files are allocated first.
func (s *Store) openActive(info FileInfo) (*mmap.DataFile, *mmap.Mapping, error) {
	if _, err := os.Stat(info.FileNameWithPath); errors.Is(err, os.ErrNotExist) {
		if err := mmap.Allocate(info.FileNameWithPath, s.cfg.MaxDataFileSize); err != nil {
			return nil, nil, fmt.Errorf("%w: allocate %s: %w", ErrFileIO, info.FileName, err)
		}
	} else if err != nil {
		return nil, nil, fmt.Errorf("%w: stat %s: %w", ErrFileIO, info.FileName, err)
	}

	writer, err := mmap.OpenDataFile(info.FileNameWithPath, 0, !s.cfg.Synchronous)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: map %s: %w", ErrFileIO, info.FileName, err)
	}
	reader, err := mmap.Open(info.FileNameWithPath)
	if err != nil {
		writer.Close()
		return nil, nil, fmt.Errorf("%w: map %s: %w", ErrFileIO, info.FileName, err)
	}
	adviseLogged(s.logger, info.FileName, writer.Advise(mmap.AccessSequential))
	adviseLogged(s.logger, info.FileName, reader.Advise(mmap.AccessRandom))
	return writer, reader, nil
}

// adviseLogged reports a failed paging hint. Hints never fail an operation.
func adviseLogged(logger *slog.Logger, file string, err error) {
	if err != nil {
		logger.Debug("madvise failed", "file", file, "error", err)
	}
}

func (s *Store) releaseReader(key int32, m *mmap.Mapping) {
	if err := m.Close(); err != nil {
		s.logger.Warn("unmap data file failed", "file_key", key, "error", err)
	}
}

// Put stores one payload.
func (s *Store) Put(data []byte) (Locator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return Locator{}, ErrClosed
	}

	stored, loc, err := s.prepare(data)
	if err != nil {
		return Locator{}, err
	}
	if err := s.ensureRoom(len(stored)); err != nil {
		return Locator{}, err
	}

	start := s.writer.CurrentWriteOffset()
	if err := s.write(stored, &loc); err != nil {
		s.rollback(start)
		return Locator{}, err
	}
	if err := s.flush(start, int64(len(stored))); err != nil {
		s.rollback(start)
		return Locator{}, err
	}
	return loc, nil
}

// MultiPut stores a batch of payloads under a single acquisition of the
// write mutex. Every payload is compressed and size-checked before the first
// byte is written, so an oversize payload fails the batch without touching
// the file. On a write failure the cursor of the active file is reset to
// where the batch (or its part in that file) started and no locator is
// returned.
func (s *Store) MultiPut(blobs [][]byte) ([]Locator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return nil, ErrClosed
	}

	stored := make([][]byte, len(blobs))
	locs := make([]Locator, len(blobs))
	for i, data := range blobs {
		var err error
		if stored[i], locs[i], err = s.prepare(data); err != nil {
			return nil, fmt.Errorf("batch item %d: %w", i, err)
		}
	}

	base := s.writer.CurrentWriteOffset()
	for i, payload := range stored {
		if int64(len(payload)) > s.writer.Remaining() {
			// Make what was written to this file durable before leaving it.
			if err := s.flush(base, s.writer.CurrentWriteOffset()-base); err != nil {
				s.rollback(base)
				return nil, err
			}
			if err := s.ensureRoom(len(payload)); err != nil {
				s.rollback(base)
				return nil, err
			}
			base = s.writer.CurrentWriteOffset()
		}
		if err := s.write(payload, &locs[i]); err != nil {
			s.rollback(base)
			return nil, err
		}
	}

	if err := s.flush(base, s.writer.CurrentWriteOffset()-base); err != nil {
		s.rollback(base)
		return nil, err
	}
	return locs, nil
}

// prepare compresses data and fills the size fields of its locator.
func (s *Store) prepare(data []byte) ([]byte, Locator, error) {
	length, err := conv.IntToUint32(len(data))
	if err != nil {
		return nil, Locator{}, fmt.Errorf("%w: %w: %w", ErrFileIO, ErrStorageFull, err)
	}
	stored, compressed, err := compress(s.cfg.Compression, data)
	if err != nil {
		return nil, Locator{}, fmt.Errorf("%w: compress: %w", ErrFileIO, err)
	}
	loc := Locator{Length: length}
	if compressed {
		loc.CompressedLength = uint32(len(stored))
	}
	if int64(len(stored)) > s.cfg.MaxDataFileSize {
		return nil, Locator{}, fmt.Errorf("%w: %w: %d bytes, max %d", ErrFileIO, ErrStorageFull, len(stored), s.cfg.MaxDataFileSize)
	}
	return stored, loc, nil
}

// ensureRoom rotates when n more bytes do not fit in the active file.
func (s *Store) ensureRoom(n int) error {
	if int64(n) <= s.writer.Remaining() {
		return nil
	}
	return s.rotate()
}

func (s *Store) write(stored []byte, loc *Locator) error {
	loc.FileKey = s.current.FileKey
	loc.Offset = uint64(s.writer.CurrentWriteOffset())
	if err := s.writer.WriteAtCurrentPosition(stored); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrFileIO, s.current.FileName, err)
	}
	return nil
}

func (s *Store) flush(offset, length int64) error {
	if err := s.writer.Flush(offset, length); err != nil {
		return fmt.Errorf("%w: flush %s: %w", ErrFileIO, s.current.FileName, err)
	}
	return nil
}

func (s *Store) rollback(offset int64) {
	if err := s.writer.SetCurrentWriteOffset(offset); err != nil {
		s.logger.Error("reset write cursor failed", "file", s.current.FileName, "offset", offset, "error", err)
	}
}

// rotate switches the write path to a freshly allocated data file.
// The caller holds mu.
func (s *Store) rotate() error {
	next, err := s.namer.GetNextDataFileInfo()
	if err != nil {
		return fmt.Errorf("%w: rotate: next data file: %w", ErrFileIO, err)
	}
	writer, reader, err := s.openActive(next)
	if err != nil {
		return fmt.Errorf("rotate: %w", err)
	}

	prev := s.current
	length := s.writer.CurrentWriteOffset()
	if err := s.namer.UpdateDataFileLength(prev.FileKey, length); err != nil {
		writer.Close()
		reader.Close()
		return fmt.Errorf("%w: rotate: record length of %s: %w", ErrFileIO, prev.FileName, err)
	}
	if err := s.writer.Sync(); err != nil {
		s.logger.Warn("sync rotated data file failed", "file", prev.FileName, "error", err)
	}
	if err := s.writer.Close(); err != nil {
		s.logger.Warn("close rotated data file failed", "file", prev.FileName, "error", err)
	}

	s.readers.SetEvictable(prev.FileKey, true)
	s.readers.Add(next.FileKey, reader, false)
	s.current = next
	s.writer = writer
	s.rotations.Add(1)

	s.logger.Info("rotated data file",
		"from", prev.FileName,
		"to", next.FileName,
		"length", length,
	)
	if s.cfg.OnRotate != nil {
		s.cfg.OnRotate(prev.FileKey, next.FileKey)
	}
	return nil
}

// Get returns a copy of the payload addressed by loc.
func (s *Store) Get(loc Locator) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	m, err := s.acquireReader(loc.FileKey)
	if err != nil {
		return nil, err
	}
	defer m.Release()

	offset, err := conv.Uint64ToInt64(loc.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupted, loc, err)
	}
	raw, err := m.Slice(offset, int(loc.StoredLength()))
	if err != nil {
		return nil, fmt.Errorf("%w: %s in %s: %w", ErrCorrupted, loc, m.Path(), err)
	}
	if loc.CompressedLength > 0 {
		return decompress(s.cfg.Compression, raw, int(loc.Length))
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

// acquireReader returns a pinned reader mapping for fileKey, opening it on
// a cache miss. Concurrent misses on the same key share one open.
func (s *Store) acquireReader(fileKey int32) (*mmap.Mapping, error) {
	for range maxAcquireAttempts {
		if m, ok := s.readers.Find(fileKey); ok {
			if m.Acquire() {
				return m, nil
			}
			// Evicted and fully released between Find and Acquire.
		}

		v, err, _ := s.opening.Do(strconv.Itoa(int(fileKey)), func() (any, error) {
			if m, ok := s.readers.Find(fileKey); ok && m.Refs() > 0 {
				return m, nil
			}
			info, err := s.namer.GetFileInfo(fileKey)
			if err != nil {
				return nil, fmt.Errorf("%w: data file %d: %w", ErrFileIO, fileKey, err)
			}
			m, err := mmap.Open(info.FileNameWithPath)
			if err != nil {
				return nil, fmt.Errorf("%w: map %s: %w", ErrFileIO, info.FileName, err)
			}
			adviseLogged(s.logger, info.FileName, m.Advise(mmap.AccessRandom))
			s.readers.Add(fileKey, m, true)
			s.logger.Debug("mapped data file for reading", "file", info.FileName)
			return m, nil
		})
		if err != nil {
			return nil, err
		}
		if m := v.(*mmap.Mapping); m.Acquire() {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: data file %d kept being unmapped", ErrFileIO, fileKey)
}

// UnmapLRUDataFiles unmaps least recently used reader mappings beyond the
// configured cache size. The active file is never unmapped.
func (s *Store) UnmapLRUDataFiles() int {
	n := s.readers.PerformEviction()
	if n > 0 {
		s.logger.Debug("unmapped data files", "count", n)
	}
	return n
}

// AdvanceWriteOffset moves the write cursor of the active file forward to
// end if fileKey is the active file and the cursor is behind. Reopen uses it
// when the persisted length is older than the last recorded blob.
func (s *Store) AdvanceWriteOffset(fileKey int32, end int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ErrClosed
	}
	if fileKey != s.current.FileKey || end <= s.writer.CurrentWriteOffset() {
		return nil
	}
	if err := s.writer.SetCurrentWriteOffset(end); err != nil {
		return fmt.Errorf("%w: advance %s: %w", ErrFileIO, s.current.FileName, err)
	}
	s.logger.Warn("write cursor behind recorded blobs, advanced",
		"file", s.current.FileName,
		"offset", end,
	)
	return nil
}

// CurrentFile returns the active data file and its write offset.
func (s *Store) CurrentFile() (FileInfo, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writer == nil {
		return s.current, 0
	}
	return s.current, s.writer.CurrentWriteOffset()
}

// Compression returns the codec used for new payloads.
func (s *Store) Compression() Compression {
	return s.cfg.Compression
}

// Stats returns current counters.
func (s *Store) Stats() Stats {
	info, off := s.CurrentFile()
	hits, misses, evictions := s.readers.Stats()
	return Stats{
		CurrentFileKey: info.FileKey,
		WriteOffset:    off,
		Rotations:      s.rotations.Load(),
		ReaderMappings: s.readers.Len(),
		CacheHits:      hits,
		CacheMisses:    misses,
		Evictions:      evictions,
	}
}

// Close persists the active file length and unmaps every file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Swap(true) {
		return nil
	}

	var errs []error
	length := s.writer.CurrentWriteOffset()
	if err := s.namer.UpdateDataFileLength(s.current.FileKey, length); err != nil {
		errs = append(errs, fmt.Errorf("%w: record length of %s: %w", ErrFileIO, s.current.FileName, err))
	}
	if err := s.writer.Sync(); err != nil {
		errs = append(errs, fmt.Errorf("%w: sync %s: %w", ErrFileIO, s.current.FileName, err))
	}
	if err := s.writer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("%w: close %s: %w", ErrFileIO, s.current.FileName, err))
	}
	s.writer = nil
	s.readers.Clear()

	s.logger.Debug("blob store closed", "file", s.current.FileName, "length", length)
	return errors.Join(errs...)
}
