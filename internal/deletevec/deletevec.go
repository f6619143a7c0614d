// Package deletevec tracks deleted document positions of a collection.
//
// The deleted set is the persisted truth. The visible bitmap, every assigned
// position that is not deleted, is derived from it and the next document
// position, and rebuilt lazily after a mutation.
package deletevec

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zarianw/jonoondb-sub000/internal/bitmap"
	"github.com/zarianw/jonoondb-sub000/internal/manifest"
)

var (
	// ErrInvalidArgument is returned for positions that were never assigned
	// and for a next position that does not grow.
	ErrInvalidArgument = errors.New("deletevec: invalid argument")

	// ErrAlreadyDeleted is returned when deleting a position twice.
	ErrAlreadyDeleted = errors.New("deletevec: position already deleted")

	// ErrCorrupted is returned when the persisted row cannot be decoded.
	ErrCorrupted = errors.New("deletevec: corrupted delete vector")
)

// RowStore persists the serialized deleted set.
type RowStore interface {
	Load() (row manifest.DeleteVectorRow, ok bool, err error)
	Save(row manifest.DeleteVectorRow) error
}

// DeleteVector is safe for concurrent use.
type DeleteVector struct {
	mu      sync.Mutex
	rows    RowStore
	logger  *slog.Logger
	deleted *bitmap.Bitmap
	next    uint64
	visible *bitmap.Bitmap
	dirty   bool
}

// Open loads the deleted set from rows, persisting an empty one if none
// exists. next is the number of positions assigned so far.
func Open(rows RowStore, next uint64, logger *slog.Logger) (*DeleteVector, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d := &DeleteVector{
		rows:    rows,
		logger:  logger,
		next:    next,
		visible: bitmap.New(),
		dirty:   next > 0,
	}

	row, ok, err := rows.Load()
	if err != nil {
		return nil, fmt.Errorf("load delete vector: %w", err)
	}
	if !ok {
		d.deleted = bitmap.New()
		empty, err := encode(d.deleted)
		if err != nil {
			return nil, err
		}
		if err := rows.Save(empty); err != nil {
			return nil, fmt.Errorf("create delete vector: %w", err)
		}
		return d, nil
	}

	deleted, err := bitmap.Decode(bitmap.Type(row.Type), row.Version, row.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
	}
	if deleted.SizeInBits() > next {
		return nil, fmt.Errorf("%w: deleted positions span %d of %d documents", ErrCorrupted, deleted.SizeInBits(), next)
	}
	d.deleted = deleted
	return d, nil
}

type deletedSet interface {
	IsEmpty() bool
	MarshalBinary() ([]byte, error)
}

func encode(b deletedSet) (manifest.DeleteVectorRow, error) {
	row := manifest.DeleteVectorRow{Type: uint8(bitmap.TypeRoaring64), Version: bitmap.Version}
	if b.IsEmpty() {
		return row, nil
	}
	data, err := b.MarshalBinary()
	if err != nil {
		return manifest.DeleteVectorRow{}, fmt.Errorf("encode delete vector: %w", err)
	}
	row.Data = data
	return row, nil
}

// OnDocumentDeleted marks pos deleted. The new set is persisted before it
// replaces the current one, so a failed save changes nothing.
func (d *DeleteVector) OnDocumentDeleted(pos uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if pos >= d.next {
		return fmt.Errorf("%w: position %d of %d documents", ErrInvalidArgument, pos, d.next)
	}
	if d.deleted.Contains(pos) {
		return fmt.Errorf("%w: %d", ErrAlreadyDeleted, pos)
	}

	var next *bitmap.Bitmap
	if pos >= d.deleted.SizeInBits() {
		next = d.deleted.Clone()
		if err := next.Add(pos); err != nil {
			return err
		}
	} else {
		// Bitmaps only grow at the end; rebuild in order.
		next = bitmap.New()
		added := false
		for p := range d.deleted.All() {
			if !added && pos < p {
				_ = next.Add(pos)
				added = true
			}
			_ = next.Add(p)
		}
	}

	row, err := encode(next)
	if err != nil {
		return err
	}
	if err := d.rows.Save(row); err != nil {
		d.logger.Error("persist delete vector failed", "position", pos, "error", err)
		return err
	}
	d.deleted = next
	d.dirty = true
	return nil
}

// OnDocumentsInserted raises the number of assigned positions to next.
func (d *DeleteVector) OnDocumentsInserted(next uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if next <= d.next {
		return fmt.Errorf("%w: next position %d does not exceed %d", ErrInvalidArgument, next, d.next)
	}
	d.next = next
	d.dirty = true
	return nil
}

// GetDeleteVectorBitmap returns the visible positions. The result is shared
// and must not be modified.
func (d *DeleteVector) GetDeleteVectorBitmap() *bitmap.Bitmap {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dirty {
		d.visible = bitmap.Not(d.deleted, d.next)
		d.dirty = false
	}
	return d.visible
}

// IsDeleted reports whether pos is deleted.
func (d *DeleteVector) IsDeleted(pos uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.deleted.Contains(pos)
}

// DeletedCount returns the number of deleted positions.
func (d *DeleteVector) DeletedCount() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.deleted.Cardinality()
}

// Next returns the number of assigned positions.
func (d *DeleteVector) Next() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.next
}
