package jonoondb

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/zarianw/jonoondb-sub000/document"
	"github.com/zarianw/jonoondb-sub000/internal/indexer"
	"github.com/zarianw/jonoondb-sub000/internal/manifest"
)

// Database is a folder holding a manifest and the files of its collections.
// It is safe for concurrent use.
type Database struct {
	opts     options
	logger   *Logger
	metrics  MetricsCollector
	manifest *manifest.Store

	mu          sync.RWMutex
	collections map[string]*Collection
	closed      bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// Open opens the database name stored in dir and every collection in it.
// Collections are rebuilt from their persisted documents, so Open takes time
// proportional to the number of stored documents.
func Open(ctx context.Context, dir, name string, optFns ...Option) (*Database, error) {
	opts := applyOptions(optFns)
	if err := validName(name); err != nil {
		return nil, err
	}
	if opts.maxDataFileSize <= 0 {
		return nil, fmt.Errorf("%w: max data file size %d", ErrInvalidArgument, opts.maxDataFileSize)
	}

	logger := opts.logger.WithDatabase(name)
	store, err := manifest.Open(dir, name, manifest.Options{
		FileSystem:      opts.fileSystem,
		Codec:           opts.codec,
		Logger:          logger.Logger,
		CreateIfMissing: opts.createIfMissing,
	})
	if err != nil {
		return nil, translateError(err)
	}

	db := &Database{
		opts:        opts,
		logger:      logger,
		metrics:     opts.metricsCollector,
		manifest:    store,
		collections: make(map[string]*Collection),
		stop:        make(chan struct{}),
	}

	for _, rec := range store.Collections() {
		c, err := db.openCollection(ctx, rec)
		if err != nil {
			db.closeCollections()
			return nil, fmt.Errorf("open collection %q: %w", rec.Name, translateError(err))
		}
		db.collections[rec.Name] = c
	}

	if opts.unmapInterval > 0 {
		db.wg.Add(1)
		go db.maintain(opts.unmapInterval)
	}

	logger.InfoContext(ctx, "database opened", "path", store.Path(), "collections", len(db.collections))
	return db, nil
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\.`) || strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: name %q", ErrInvalidArgument, name)
	}
	return nil
}

// Name returns the database name.
func (db *Database) Name() string { return db.manifest.Name() }

// Dir returns the database folder.
func (db *Database) Dir() string { return db.manifest.Dir() }

// CreateCollection creates an empty collection. Every index column must be a
// scalar field of schema; the compression configured on the database is
// recorded with the collection and used for its lifetime.
func (db *Database) CreateCollection(ctx context.Context, name string, schema *document.Schema, indexes ...IndexInfo) (*Collection, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if schema == nil {
		return nil, fmt.Errorf("%w: nil schema", ErrInvalidArgument)
	}
	// Build the indexers once up front so bad descriptors never reach the manifest.
	scratch := indexer.NewManager(nil)
	for _, info := range indexes {
		ft, ok := schema.FieldType(info.Column)
		if !ok {
			return nil, fmt.Errorf("%w: index %q on unknown column %q", ErrInvalidArgument, info.Name, info.Column)
		}
		if _, err := scratch.CreateIndex(info, ft); err != nil {
			return nil, translateError(err)
		}
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil, ErrClosed
	}

	rec := manifest.CollectionRecord{
		Name:        name,
		Schema:      schema.Names(),
		Compression: db.opts.compression.String(),
	}
	for _, info := range indexes {
		rec.Indexes = append(rec.Indexes, manifest.IndexRecord{
			Name:      info.Name,
			Column:    info.Column,
			Type:      uint8(info.Type),
			Ascending: info.Ascending,
		})
	}
	if err := db.manifest.AddCollection(rec); err != nil {
		return nil, translateError(err)
	}
	rec, err := db.manifest.Collection(name)
	if err != nil {
		return nil, translateError(err)
	}

	c, err := db.openCollection(ctx, rec)
	if err != nil {
		db.dropRecord(ctx, name)
		return nil, translateError(err)
	}
	db.collections[name] = c
	db.logger.InfoContext(ctx, "collection created", "collection", name, "indexes", len(indexes), "compression", rec.Compression)
	return c, nil
}

// dropRecord removes a collection from the manifest together with its files.
// Failures are logged: the collection is already unusable.
func (db *Database) dropRecord(ctx context.Context, name string) {
	rec, err := db.manifest.Collection(name)
	if err != nil {
		return
	}
	if err := db.manifest.RemoveCollection(name); err != nil {
		db.logger.ErrorContext(ctx, "remove collection record failed", "collection", name, "error", err)
		return
	}
	if err := db.manifest.RemoveCollectionFiles(rec); err != nil {
		db.logger.WarnContext(ctx, "remove collection files failed", "collection", name, "error", err)
	}
}

// Collection returns an open collection by name.
func (db *Database) Collection(name string) (*Collection, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return nil, ErrClosed
	}
	c, ok := db.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: collection %q", ErrNotFound, name)
	}
	return c, nil
}

// Collections returns the sorted names of every collection.
func (db *Database) Collections() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return slices.Sorted(maps.Keys(db.collections))
}

// DropCollection closes a collection and deletes its record and files.
func (db *Database) DropCollection(ctx context.Context, name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrClosed
	}
	c, ok := db.collections[name]
	if !ok {
		return fmt.Errorf("%w: collection %q", ErrNotFound, name)
	}
	if err := c.close(); err != nil {
		db.logger.WarnContext(ctx, "close dropped collection failed", "collection", name, "error", err)
	}
	delete(db.collections, name)

	rec, err := db.manifest.Collection(name)
	if err != nil {
		return translateError(err)
	}
	if err := db.manifest.RemoveCollection(name); err != nil {
		return translateError(err)
	}
	if err := db.manifest.RemoveCollectionFiles(rec); err != nil {
		return translateError(err)
	}
	db.logger.InfoContext(ctx, "collection dropped", "collection", name)
	return nil
}

// UnmapLRUDataFiles unmaps least recently used data files of every
// collection beyond the reader cache size and returns how many were unmapped.
func (db *Database) UnmapLRUDataFiles() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	total := 0
	for name, c := range db.collections {
		n := c.blobs.UnmapLRUDataFiles()
		if n > 0 {
			db.metrics.RecordUnmap(name, n)
		}
		total += n
	}
	return total
}

func (db *Database) maintain(interval time.Duration) {
	defer db.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-db.stop:
			return
		case <-ticker.C:
			db.UnmapLRUDataFiles()
		}
	}
}

// Close stops the maintenance loop and closes every collection. The data
// file lengths are persisted so the next Open resumes writing where this
// one stopped.
func (db *Database) Close() error {
	if db == nil {
		return nil
	}
	db.mu.Lock()
	if db.closed {
		db.mu.Unlock()
		return nil
	}
	db.closed = true
	close(db.stop)
	db.mu.Unlock()

	db.wg.Wait()

	db.mu.Lock()
	defer db.mu.Unlock()
	err := db.closeCollections()
	db.logger.Info("database closed", "error", err)
	return translateError(err)
}

func (db *Database) closeCollections() error {
	var errs []error
	for name, c := range db.collections {
		if err := c.close(); err != nil {
			errs = append(errs, fmt.Errorf("close collection %q: %w", name, err))
		}
	}
	clear(db.collections)
	return errors.Join(errs...)
}
