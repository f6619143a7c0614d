package jonoondb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zarianw/jonoondb-sub000/blobstore"
	"github.com/zarianw/jonoondb-sub000/document"
	"github.com/zarianw/jonoondb-sub000/internal/bitmap"
	"github.com/zarianw/jonoondb-sub000/internal/deletevec"
	"github.com/zarianw/jonoondb-sub000/internal/idseq"
	"github.com/zarianw/jonoondb-sub000/internal/indexer"
	"github.com/zarianw/jonoondb-sub000/internal/manifest"
)

// rebuildBatch is how many documents are read in parallel while a
// collection's indexes are rebuilt on open.
const rebuildBatch = 256

// Collection stores the JSON documents of one schema.
//
// Each document gets a position, its place in insertion order starting at
// 0. Positions are never reused; deleting a document only hides its
// position. A Collection is safe for concurrent use: inserts and deletes are
// serialized, queries and reads run in parallel with each other.
type Collection struct {
	name           string
	schema         *document.Schema
	logger         *Logger
	metrics        MetricsCollector
	getConcurrency int

	blobs   *blobstore.Store
	locLog  *manifest.LocatorLog
	indexes *indexer.Manager
	deletes *deletevec.DeleteVector
	ids     *idseq.Sequence

	// mu guards locators and the indexes. Writers hold it exclusively.
	mu       sync.RWMutex
	locators []blobstore.Locator
	closed   bool
	// broken is set when a write failed after its documents became durable.
	// The in-memory indexes no longer match the stored documents until the
	// database is reopened.
	broken error
}

// openCollection opens the files of rec and rebuilds its indexes from the
// stored documents.
func (db *Database) openCollection(ctx context.Context, rec manifest.CollectionRecord) (_ *Collection, err error) {
	schema, err := document.ParseSchema(rec.Schema)
	if err != nil {
		return nil, fmt.Errorf("%w: schema: %w", ErrCorrupted, err)
	}
	compression, err := blobstore.ParseCompression(rec.Compression)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}

	logger := db.logger.WithCollection(rec.Name)
	indexes := indexer.NewManager(logger.Logger)
	for _, ix := range rec.Indexes {
		ft, ok := schema.FieldType(ix.Column)
		if !ok {
			return nil, fmt.Errorf("%w: index %q on unknown column %q", ErrCorrupted, ix.Name, ix.Column)
		}
		info := IndexInfo{Name: ix.Name, Column: ix.Column, Type: IndexType(ix.Type), Ascending: ix.Ascending}
		if _, err := indexes.CreateIndex(info, ft); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
		}
	}

	name := rec.Name
	blobs, err := blobstore.Open(db.manifest.DataFiles(name), blobstore.Config{
		MaxDataFileSize: db.opts.maxDataFileSize,
		Compression:     compression,
		Synchronous:     db.opts.synchronous,
		ReaderCacheSize: db.opts.readerCacheSize,
		Logger:          logger.Logger,
		OnRotate:        func(int32, int32) { db.metrics.RecordRotation(name) },
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			blobs.Close()
		}
	}()

	locLog, err := db.manifest.OpenLocatorLog(name)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			locLog.Close()
		}
	}()
	locators, err := locLog.ReadAll()
	if err != nil {
		return nil, err
	}

	c := &Collection{
		name:           name,
		schema:         schema,
		logger:         logger,
		metrics:        db.metrics,
		getConcurrency: max(db.opts.getConcurrency, 1),
		blobs:          blobs,
		locLog:         locLog,
		indexes:        indexes,
		locators:       locators,
	}

	n := uint64(len(locators))
	if err := c.rebuild(ctx); err != nil {
		logger.LogRecovery(ctx, n, 0, err)
		return nil, err
	}
	if n > 0 {
		// The recorded length of the active file lags behind when the
		// previous process did not close cleanly.
		last := locators[n-1]
		if err := blobs.AdvanceWriteOffset(last.FileKey, int64(last.End())); err != nil {
			return nil, err
		}
	}

	c.deletes, err = deletevec.Open(db.manifest.DeleteVectorRows(name), n, logger.Logger)
	if err != nil {
		return nil, err
	}
	c.ids = idseq.New(n)

	if n > 0 {
		logger.LogRecovery(ctx, n, c.deletes.DeletedCount(), nil)
	}
	return c, nil
}

// rebuild indexes every stored document in position order. Reading and
// parsing runs in parallel per batch; indexing is sequential.
func (c *Collection) rebuild(ctx context.Context) error {
	docs := make([]*document.Map, rebuildBatch)
	for start := 0; start < len(c.locators); start += rebuildBatch {
		batch := c.locators[start:min(start+rebuildBatch, len(c.locators))]

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.getConcurrency)
		for i, loc := range batch {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				data, err := c.blobs.Get(loc)
				if err != nil {
					return fmt.Errorf("document %d: %w", start+i, err)
				}
				doc, err := document.FromJSON(c.schema, data)
				if err != nil {
					return fmt.Errorf("%w: document %d: %w", ErrCorrupted, start+i, err)
				}
				docs[i] = doc
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for i := range batch {
			if err := c.indexes.IndexDocument(uint64(start+i), docs[i]); err != nil {
				return fmt.Errorf("%w: document %d: %w", ErrCorrupted, start+i, err)
			}
		}
	}
	return nil
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Schema returns the schema documents are checked against.
func (c *Collection) Schema() *document.Schema { return c.schema }

// Indexes returns the description of every index in creation order.
func (c *Collection) Indexes() []IndexStat { return c.indexes.Indexes() }

// TryGetBestIndex returns the index Find would use for a constraint on
// column with op, and false if such a constraint cannot be answered.
func (c *Collection) TryGetBestIndex(column string, op Operator) (IndexStat, bool) {
	return c.indexes.TryGetBestIndex(column, op)
}

// Insert stores one JSON document and returns its position.
func (c *Collection) Insert(ctx context.Context, data []byte) (uint64, error) {
	start := time.Now()
	pos, err := c.insert(ctx, [][]byte{data})
	err = translateError(err)
	c.metrics.RecordInsert(c.name, 1, time.Since(start), err)
	c.logger.LogInsert(ctx, pos, 1, err)
	return pos, err
}

// MultiInsert stores a batch of JSON documents at consecutive positions and
// returns the first one. Either every document is stored or none is.
func (c *Collection) MultiInsert(ctx context.Context, batch [][]byte) (uint64, error) {
	start := time.Now()
	first, err := c.insert(ctx, batch)
	err = translateError(err)
	c.metrics.RecordInsert(c.name, len(batch), time.Since(start), err)
	c.logger.LogInsert(ctx, first, len(batch), err)
	return first, err
}

func (c *Collection) insert(ctx context.Context, batch [][]byte) (uint64, error) {
	if len(batch) == 0 {
		return 0, fmt.Errorf("%w: empty batch", ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	// Parse and validate outside the lock; the index set never changes.
	docs := make([]*document.Map, len(batch))
	for i, data := range batch {
		doc, err := document.FromJSON(c.schema, data)
		if err != nil {
			return 0, fmt.Errorf("document %d: %w", i, err)
		}
		if err := c.indexes.ValidateDocument(doc); err != nil {
			return 0, fmt.Errorf("document %d: %w", i, err)
		}
		docs[i] = doc
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.writable(); err != nil {
		return 0, err
	}

	r, err := c.ids.Reserve(uint64(len(batch)))
	if err != nil {
		return 0, err
	}
	defer r.Release()

	var locs []blobstore.Locator
	if len(batch) == 1 {
		loc, err := c.blobs.Put(batch[0])
		if err != nil {
			return 0, err
		}
		locs = []blobstore.Locator{loc}
	} else {
		locs, err = c.blobs.MultiPut(batch)
		if err != nil {
			return 0, err
		}
	}
	// The documents exist once their locators are durable.
	if err := c.locLog.Append(locs...); err != nil {
		return 0, err
	}
	c.locators = append(c.locators, locs...)
	r.Commit()

	for i, doc := range docs {
		if err := c.indexes.IndexDocument(r.First+uint64(i), doc); err != nil {
			c.broken = err
			c.logger.ErrorContext(ctx, "index stored document failed", "position", r.First+uint64(i), "error", err)
			return 0, err
		}
	}
	if err := c.deletes.OnDocumentsInserted(r.End()); err != nil {
		c.broken = err
		return 0, err
	}
	return r.First, nil
}

func (c *Collection) writable() error {
	if c.closed {
		return ErrClosed
	}
	if c.broken != nil {
		return fmt.Errorf("%w: collection %q needs reopening: %w", ErrOrderViolation, c.name, c.broken)
	}
	return nil
}

// Delete hides the document at pos from every later query and read.
func (c *Collection) Delete(ctx context.Context, pos uint64) error {
	start := time.Now()
	err := translateError(c.delete(pos))
	c.metrics.RecordDelete(c.name, time.Since(start), err)
	c.logger.LogDelete(ctx, pos, err)
	return err
}

func (c *Collection) delete(pos uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.writable(); err != nil {
		return err
	}
	if pos >= uint64(len(c.locators)) {
		return &ErrDocumentNotFound{Collection: c.name, Position: pos}
	}
	if err := c.deletes.OnDocumentDeleted(pos); err != nil {
		if errors.Is(err, deletevec.ErrAlreadyDeleted) {
			return &ErrDocumentNotFound{Collection: c.name, Position: pos, Deleted: true, cause: err}
		}
		return err
	}
	return nil
}

// locate returns the locator of a visible document. The caller holds mu.
func (c *Collection) locate(pos uint64) (blobstore.Locator, error) {
	if c.closed {
		return blobstore.Locator{}, ErrClosed
	}
	if pos >= uint64(len(c.locators)) {
		return blobstore.Locator{}, &ErrDocumentNotFound{Collection: c.name, Position: pos}
	}
	if c.deletes.IsDeleted(pos) {
		return blobstore.Locator{}, &ErrDocumentNotFound{Collection: c.name, Position: pos, Deleted: true}
	}
	return c.locators[pos], nil
}

// Get returns the stored bytes of the document at pos.
func (c *Collection) Get(ctx context.Context, pos uint64) ([]byte, error) {
	start := time.Now()
	data, err := c.get(ctx, pos)
	err = translateError(err)
	c.metrics.RecordGet(c.name, time.Since(start), err)
	return data, err
}

func (c *Collection) get(ctx context.Context, pos uint64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	loc, err := c.locate(pos)
	c.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return c.blobs.Get(loc)
}

// GetDocument returns the document at pos decoded against the schema.
func (c *Collection) GetDocument(ctx context.Context, pos uint64) (*document.Map, error) {
	data, err := c.Get(ctx, pos)
	if err != nil {
		return nil, err
	}
	doc, err := document.FromJSON(c.schema, data)
	if err != nil {
		return nil, fmt.Errorf("%w: document %d: %w", ErrCorrupted, pos, err)
	}
	return doc, nil
}

// GetMany returns the stored bytes of the documents at positions, in the
// same order. Documents are read in parallel.
func (c *Collection) GetMany(ctx context.Context, positions []uint64) ([][]byte, error) {
	start := time.Now()
	out, err := c.getMany(ctx, positions)
	err = translateError(err)
	c.metrics.RecordGet(c.name, time.Since(start), err)
	return out, err
}

func (c *Collection) getMany(ctx context.Context, positions []uint64) ([][]byte, error) {
	locs := make([]blobstore.Locator, len(positions))
	c.mu.RLock()
	for i, pos := range positions {
		loc, err := c.locate(pos)
		if err != nil {
			c.mu.RUnlock()
			return nil, err
		}
		locs[i] = loc
	}
	c.mu.RUnlock()

	out := make([][]byte, len(positions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.getConcurrency)
	for i, loc := range locs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := c.blobs.Get(loc)
			if err != nil {
				return err
			}
			out[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Find returns the visible documents matching every constraint. Without
// constraints every visible document matches. Each constrained column must
// be indexed.
func (c *Collection) Find(ctx context.Context, constraints ...Constraint) (*ResultSet, error) {
	start := time.Now()
	matches, err := c.find(ctx, constraints)
	err = translateError(err)
	var n uint64
	if err == nil {
		n = matches.Cardinality()
	}
	c.metrics.RecordFind(c.name, n, time.Since(start), err)
	c.logger.LogFind(ctx, len(constraints), n, err)
	if err != nil {
		return nil, err
	}
	return newResultSet(c, matches), nil
}

func (c *Collection) find(ctx context.Context, constraints []Constraint) (*bitmap.Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrClosed
	}

	visible := c.deletes.GetDeleteVectorBitmap()
	if len(constraints) == 0 {
		return visible.Clone(), nil
	}
	matches, err := c.indexes.Filter(constraints)
	if err != nil {
		return nil, err
	}
	return bitmap.And(matches, visible), nil
}

// Count returns the number of visible documents matching every constraint.
func (c *Collection) Count(ctx context.Context, constraints ...Constraint) (uint64, error) {
	rs, err := c.Find(ctx, constraints...)
	if err != nil {
		return 0, err
	}
	return rs.Len(), nil
}

// Project returns the value of column for the documents at positions, in the
// same order. Values come from a vector index on the column when one exists
// and from the stored documents otherwise.
func (c *Collection) Project(ctx context.Context, column string, positions []uint64) ([]Value, error) {
	ft, ok := c.schema.FieldType(column)
	if !ok || !ft.IsScalar() {
		return nil, fmt.Errorf("%w: %q is not a scalar column", ErrInvalidArgument, column)
	}

	c.mu.RLock()
	for _, pos := range positions {
		if _, err := c.locate(pos); err != nil {
			c.mu.RUnlock()
			return nil, translateError(err)
		}
	}
	if r, ok := c.indexes.TryGetValueReader(column); ok {
		if vals, ok := r.TryGetValues(positions); ok {
			c.mu.RUnlock()
			return vals, nil
		}
	}
	c.mu.RUnlock()

	out := make([]Value, len(positions))
	for i, pos := range positions {
		doc, err := c.GetDocument(ctx, pos)
		if err != nil {
			return nil, err
		}
		if out[i], err = readValue(doc, column, ft); err != nil {
			return nil, translateError(err)
		}
	}
	return out, nil
}

// CollectionStats is a point-in-time snapshot of a collection.
type CollectionStats struct {
	// Documents is the number of positions ever assigned.
	Documents uint64
	// Deleted is how many of them are deleted.
	Deleted   uint64
	Storage   blobstore.Stats
	Indexes   []IndexStat
}

// Stats returns current counters.
func (c *Collection) Stats() CollectionStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CollectionStats{
		Documents: uint64(len(c.locators)),
		Deleted:   c.deletes.DeletedCount(),
		Storage:   c.blobs.Stats(),
		Indexes:   c.indexes.Indexes(),
	}
}

func (c *Collection) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return errors.Join(c.blobs.Close(), c.locLog.Close())
}
