package manifest

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/zarianw/jonoondb-sub000/codec"
	"github.com/zarianw/jonoondb-sub000/internal/fs"
)

// FileExt is the extension of the manifest file.
const FileExt = ".manifest"

// Store manages the manifest of one database.
type Store struct {
	fs     fs.FileSystem
	dir    string
	name   string
	codec  codec.Codec
	logger *slog.Logger

	mu sync.Mutex
	m  *Manifest
}

// Options configures Open.
type Options struct {
	FileSystem      fs.FileSystem
	Codec           codec.Codec
	Logger          *slog.Logger
	CreateIfMissing bool
}

// Open loads the manifest of database name in dir. A missing manifest is
// created when CreateIfMissing is set and reported as ErrNotFound otherwise.
func Open(dir, name string, opts Options) (*Store, error) {
	if opts.FileSystem == nil {
		opts.FileSystem = fs.Default
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	s := &Store{
		fs:     opts.FileSystem,
		dir:    dir,
		name:   name,
		codec:  opts.Codec,
		logger: opts.Logger,
	}

	ok, err := fs.Exists(s.fs, dir)
	if err != nil {
		return nil, err
	}
	if !ok {
		if !opts.CreateIfMissing {
			return nil, fmt.Errorf("%w: database folder %s", ErrNotFound, dir)
		}
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	ok, err = fs.Exists(s.fs, s.Path())
	if err != nil {
		return nil, err
	}
	if !ok {
		if !opts.CreateIfMissing {
			return nil, fmt.Errorf("%w: database file %s", ErrNotFound, s.Path())
		}
		m := New(name)
		if err := s.save(m); err != nil {
			return nil, err
		}
		s.m = m
		s.logger.Info("created database manifest", "path", s.Path())
		return s, nil
	}

	data, err := fs.ReadFile(s.fs, s.Path())
	if err != nil {
		return nil, err
	}
	m, err := ReadBinary(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.Path(), err)
	}
	if m.Database != name {
		return nil, fmt.Errorf("%w: manifest of %q opened as %q", ErrCorrupted, m.Database, name)
	}
	s.m = m
	return s, nil
}

// Path returns the manifest file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, s.name+FileExt)
}

// Dir returns the database folder.
func (s *Store) Dir() string { return s.dir }

// Name returns the database name.
func (s *Store) Name() string { return s.name }

// FileSystem returns the file system the store writes through.
func (s *Store) FileSystem() fs.FileSystem { return s.fs }

func (s *Store) save(m *Manifest) error {
	m.UpdatedAt = time.Now().UTC()
	var buf bytes.Buffer
	if err := m.WriteBinary(&buf, s.codec); err != nil {
		return err
	}
	return fs.WriteFileAtomic(s.fs, s.Path(), buf.Bytes(), 0o644)
}

// update applies fn to a copy of the manifest, persists the copy and swaps
// it in. On any error the current manifest is left untouched.
func (s *Store) update(fn func(m *Manifest) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.m.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.save(next); err != nil {
		return err
	}
	s.m = next
	return nil
}

// Collections returns copies of every collection record.
func (s *Store) Collections() []CollectionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]CollectionRecord, len(s.m.Collections))
	for i := range s.m.Collections {
		out[i] = s.m.Collections[i].Clone()
	}
	return out
}

// Collection returns a copy of the named collection record.
func (s *Store) Collection(name string) (CollectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.m.collection(name)
	if !ok {
		return CollectionRecord{}, fmt.Errorf("%w: collection %q", ErrNotFound, name)
	}
	return rec.Clone(), nil
}

// AddCollection persists a new collection record.
func (s *Store) AddCollection(rec CollectionRecord) error {
	return s.update(func(m *Manifest) error {
		if _, ok := m.collection(rec.Name); ok {
			return fmt.Errorf("%w: %q", ErrCollectionExists, rec.Name)
		}
		rec = rec.Clone()
		rec.DataFiles = nil
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now().UTC()
		}
		m.Collections = append(m.Collections, rec)
		return nil
	})
}

// RemoveCollection drops a collection record. Files of the collection are
// left for the caller to delete.
func (s *Store) RemoveCollection(name string) error {
	return s.update(func(m *Manifest) error {
		i := slices.IndexFunc(m.Collections, func(c CollectionRecord) bool { return c.Name == name })
		if i < 0 {
			return fmt.Errorf("%w: collection %q", ErrNotFound, name)
		}
		m.Collections = slices.Delete(m.Collections, i, i+1)
		return nil
	})
}

// CollectionFileName returns the base name shared by the files of a collection.
func (s *Store) CollectionFileName(collection string) string {
	return s.name + "_" + collection
}

func (s *Store) collectionPath(collection, ext string) string {
	return filepath.Join(s.dir, s.CollectionFileName(collection)+ext)
}

// RemoveCollectionFiles deletes the data files, delete vector row and
// locator log of a collection. Missing files are ignored.
func (s *Store) RemoveCollectionFiles(rec CollectionRecord) error {
	paths := []string{s.collectionPath(rec.Name, deleteVectorExt), s.collectionPath(rec.Name, locatorLogExt)}
	for _, f := range rec.DataFiles {
		paths = append(paths, filepath.Join(s.dir, f.Name))
	}
	for _, p := range paths {
		if err := s.fs.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
